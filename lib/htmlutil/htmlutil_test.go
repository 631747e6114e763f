package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parse(t *testing.T, fragment string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestCleanText(t *testing.T) {
	doc := parse(t, `<div>  Hello
		<b>world</b>   !  </div>`)
	require.Equal(t, "Hello world !", CleanText(doc.Find("div").Nodes[0]))
}

func TestCleanTextKeepsWrappedWordBoundary(t *testing.T) {
	// a line break between words is a word boundary, not a join point
	doc := parse(t, "<span>Via\nRoma</span>")
	require.Equal(t, "Via Roma", CleanText(doc.Find("span").Nodes[0]))
}

func TestNextElementSibling(t *testing.T) {
	doc := parse(t, `<p><strong>Label</strong> stray text <span>Value</span></p>`)
	strong := doc.Find("strong").Nodes[0]
	next := NextElementSibling(strong)
	require.NotNil(t, next)
	require.Equal(t, "span", next.Data)
	require.Equal(t, "Value", CleanText(next))
}

func TestFindFollowing(t *testing.T) {
	doc := parse(t, `
		<h2>Documents</h2>
		<div><p>intro</p></div>
		<table><tr><td>row</td></tr></table>`)
	h2 := doc.Find("h2").Nodes[0]
	table := FindFollowing(h2, "table")
	require.NotNil(t, table)
	require.Equal(t, "table", table.Data)

	require.Nil(t, FindFollowing(table, "h2"))
}

func TestWalkTextNodesStops(t *testing.T) {
	doc := parse(t, `<div><span>one</span><span>two</span></div>`)
	var seen []string
	WalkTextNodes(doc.Find("div").Nodes[0], func(n *html.Node) bool {
		seen = append(seen, n.Data)
		return false
	})
	require.Equal(t, []string{"one"}, seen)
}
