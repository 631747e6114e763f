package snapshot

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSortDocumentsDeterminism(t *testing.T) {
	a := []DocumentRecord{
		{DocumentType: "STATUTO", CaseCode: "S1", Year: "2022"},
		{DocumentType: "BILANCIO", CaseCode: "B1", Year: "2023"},
		{DocumentType: "BILANCIO", CaseCode: "B2", Year: "2024"},
		{DocumentType: "ATTO COSTITUTIVO", CaseCode: "A1", Year: "n/d"},
	}
	b := []DocumentRecord{a[3], a[0], a[2], a[1]}

	SortDocuments(a)
	SortDocuments(b)
	require.Empty(t, cmp.Diff(a, b))

	require.Equal(t, "B2", a[0].CaseCode)
	require.Equal(t, "B1", a[1].CaseCode)
	require.Equal(t, "S1", a[2].CaseCode)
	// non-numeric year sorts last within its group
	require.Equal(t, "A1", a[3].CaseCode)
}

func TestDedupDocuments(t *testing.T) {
	docs := []DocumentRecord{
		{DocumentType: "BILANCIO", CaseCode: "B1", Year: "2023"},
		{DocumentType: "BILANCIO", CaseCode: "B1", Year: "2024", HasAttachment: true},
		{DocumentType: "STATUTO", CaseCode: "S1"},
	}
	out := DedupDocuments(docs)
	require.Len(t, out, 2)
	// first occurrence wins
	require.Equal(t, "2023", out[0].Year)
}

func TestFlattenExcludesCapturedAt(t *testing.T) {
	s := EntitySnapshot{
		CapturedAt: time.Now(),
		Identifier: "ABC123",
		EntityInfo: map[string]string{"email": "org@pec.it"},
		Persons:    []PersonRecord{{"role": "Presidente"}},
		Documents: []DocumentRecord{
			{DocumentType: "BILANCIO", CaseCode: "B1", Year: "2024", HasAttachment: true},
			{DocumentType: "VERBALE", CaseCode: "V1"},
		},
	}
	flat := Flatten(s)
	require.Equal(t, map[string]string{
		"entityInfo.email":                     "org@pec.it",
		"persons[0].role":                      "Presidente",
		"documents[BILANCIO|B1].year":          "2024",
		"documents[BILANCIO|B1].hasAttachment": "true",
		"documents[VERBALE|V1].hasAttachment":  "false",
	}, flat)
}

func TestFinancialStatementMarkers(t *testing.T) {
	require.True(t, DocumentRecord{DocumentType: "Bilancio consuntivo"}.IsFinancialStatement())
	require.True(t, DocumentRecord{DocumentType: "2024 BALANCE SHEET"}.IsFinancialStatement())
	require.False(t, DocumentRecord{DocumentType: "Statuto"}.IsFinancialStatement())
}

func TestNumericYear(t *testing.T) {
	require.Equal(t, 2024, DocumentRecord{Year: " 2024 "}.NumericYear())
	require.Equal(t, 0, DocumentRecord{Year: "n/d"}.NumericYear())
	require.Equal(t, 0, DocumentRecord{}.NumericYear())
}
