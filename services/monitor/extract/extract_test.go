package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestFieldEmphasizedSibling(t *testing.T) {
	doc := parse(t, `
		<div>
			<p><strong>Codice fiscale</strong><span>  97103880585  </span></p>
			<p><b>Forma giuridica</b><span>Associazione</span></p>
		</div>`)

	value, ok := Field(doc.Selection, "Codice fiscale")
	require.True(t, ok)
	require.Equal(t, "97103880585", value)

	value, ok = Field(doc.Selection, "Forma giuridica")
	require.True(t, ok)
	require.Equal(t, "Associazione", value)
}

func TestFieldTextAncestorSibling(t *testing.T) {
	// no emphasized elements at all: the second strategy must take over
	doc := parse(t, `
		<div>
			<span>Data iscrizione</span>
			<span>12/03/2021</span>
		</div>`)

	value, ok := Field(doc.Selection, "Data iscrizione")
	require.True(t, ok)
	require.Equal(t, "12/03/2021", value)
}

func TestFieldStrategyPrecedence(t *testing.T) {
	// both strategies could match; the emphasized-element one wins
	doc := parse(t, `
		<div>
			<span>PEC</span><span>wrong@pec.it</span>
			<p><strong>PEC</strong><span>right@pec.it</span></p>
		</div>`)

	value, ok := Field(doc.Selection, "PEC")
	require.True(t, ok)
	require.Equal(t, "right@pec.it", value)
}

func TestFieldStopsAtScopeBoundary(t *testing.T) {
	// the label sits directly under the scope root, so the only candidate
	// sibling lives outside the scope and must not be read
	doc := parse(t, `
		<div class="block">Codice fiscale</div>
		<div><span>00000000000</span></div>`)

	scope := doc.Find("div.block")
	_, ok := Field(scope, "Codice fiscale")
	require.False(t, ok)
}

func TestFieldAbsent(t *testing.T) {
	doc := parse(t, `<div><strong>Codice fiscale</strong></div>`)
	_, ok := Field(doc.Selection, "Codice fiscale")
	require.False(t, ok)

	_, ok = Field(doc.Selection, "Numero repertorio")
	require.False(t, ok)
}
