package extract

import (
	"context"
	"testing"
	"time"

	"registrywatch-backend/services/monitor/snapshot"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const resultsPage = `
<html><body>
	<table>
		<tr><th>Denominazione</th><th>Comune</th><th>Sezione</th></tr>
		<tr><td>Associazione Esempio ODV</td><td>Roma</td><td>ODV</td></tr>
	</table>
</body></html>`

const detailPage = `
<html><body>
	<h1>Dettaglio ente</h1>
	<div>
		<p><strong>Numero repertorio</strong><span>12345</span></p>
		<p><strong>Codice fiscale</strong><span>97103880585</span></p>
		<p><strong>Data iscrizione</strong><span>12/03/2021</span></p>
		<p><strong>Forma giuridica</strong><span>Associazione</span></p>
		<p><strong>PEC</strong><span>esempio@pec.it</span></p>
	</div>
	<div>
		<h2>Sede legale</h2>
		<p><strong>Stato</strong><span>Italia</span></p>
		<p><strong>Provincia</strong><span>RM</span></p>
		<p><strong>Comune</strong><span>Roma</span></p>
		<p><strong>Indirizzo</strong><span>Via Esempio</span></p>
		<p><strong>Civico</strong><span>12</span></p>
		<p><strong>CAP</strong><span>00100</span></p>
	</div>
	<div>
		<h3>Persona 1</h3>
		<p><strong>Nome</strong><span>Maria</span></p>
		<p><strong>Cognome</strong><span>Rossi</span></p>
		<p><strong>Carica</strong><span>Presidente</span></p>
	</div>
	<h2>Atti e documenti</h2>
	<table>
		<tr><th>Documento</th><th>Codice pratica</th><th>Data</th><th>Allegato</th></tr>
		<tr><td>BILANCIO</td><td>B1</td><td>2023</td><td><a href="/dl">pdf</a></td></tr>
		<tr><td>STATUTO</td><td>S1</td><td>2021</td><td></td></tr>
	</table>
</body></html>`

func TestBuildSnapshot(t *testing.T) {
	capturedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	snap := BuildSnapshot(context.Background(), "97103880585", capturedAt, resultsPage, detailPage)

	require.Equal(t, "97103880585", snap.Identifier)
	require.Equal(t, capturedAt, snap.CapturedAt)
	require.Equal(t, map[string]string{
		"name":         "Associazione Esempio ODV",
		"municipality": "Roma",
		"section":      "ODV",
	}, snap.BaseInfo)
	require.Equal(t, map[string]string{
		"registryNumber":   "12345",
		"taxCode":          "97103880585",
		"registrationDate": "12/03/2021",
		"legalForm":        "Associazione",
		"email":            "esempio@pec.it",
	}, snap.EntityInfo)
	require.Equal(t, map[string]string{
		"country":      "Italia",
		"province":     "RM",
		"municipality": "Roma",
		"street":       "Via Esempio",
		"number":       "12",
		"postalCode":   "00100",
	}, snap.RegisteredOffice)
	require.Len(t, snap.Persons, 1)
	require.Equal(t, "Maria", snap.Persons[0]["firstName"])
	require.Equal(t, []snapshot.DocumentRecord{
		{DocumentType: "BILANCIO", CaseCode: "B1", Year: "2023", HasAttachment: true},
		{DocumentType: "STATUTO", CaseCode: "S1", Year: "2021"},
	}, snap.Documents)
}

func TestBuildSnapshotIdempotent(t *testing.T) {
	capturedAt := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	first := BuildSnapshot(context.Background(), "97103880585", capturedAt, resultsPage, detailPage)
	second := BuildSnapshot(context.Background(), "97103880585", capturedAt, resultsPage, detailPage)
	require.Empty(t, cmp.Diff(first, second))
}

func TestBuildSnapshotEmptyInput(t *testing.T) {
	capturedAt := time.Now()
	snap := BuildSnapshot(context.Background(), "X1", capturedAt, "", "")

	require.Equal(t, "X1", snap.Identifier)
	require.Empty(t, snap.BaseInfo)
	require.Empty(t, snap.EntityInfo)
	require.Empty(t, snap.RegisteredOffice)
	require.Empty(t, snap.Persons)
	require.Empty(t, snap.Documents)
}
