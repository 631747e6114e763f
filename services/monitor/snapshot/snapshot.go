// Package snapshot defines the canonical per-entity record extracted from
// the registry and the transformations used to compare two of them.
package snapshot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EntitySnapshot is the structured record of one organization's registry
// state at one capture time. Absent fields are omitted from the maps, never
// stored as empty strings, so they cannot register as future changes.
type EntitySnapshot struct {
	CapturedAt time.Time `json:"captured_at"`
	Identifier string    `json:"identifier"`
	// name, municipality, section from the first search-result row
	BaseInfo map[string]string `json:"base_info,omitempty"`
	// registryNumber, taxCode, registrationDate, legalForm, email,
	// foundingDocument from the detail page
	EntityInfo map[string]string `json:"entity_info,omitempty"`
	// country, province, municipality, street, number, postalCode
	RegisteredOffice map[string]string `json:"registered_office,omitempty"`
	// scan order, index 1..10 on the page
	Persons []PersonRecord `json:"persons,omitempty"`
	// canonical order, see SortDocuments
	Documents []DocumentRecord `json:"documents,omitempty"`
}

type PersonRecord map[string]string

type DocumentRecord struct {
	DocumentType  string `json:"document_type"`
	CaseCode      string `json:"case_code"`
	Year          string `json:"year"`
	HasAttachment bool   `json:"has_attachment"`
}

// IdentityKey decides whether two records are the same logical document
// across snapshots, independent of position or other fields.
func (d DocumentRecord) IdentityKey() string {
	return d.DocumentType + "|" + d.CaseCode
}

var financialMarkers = []string{"BILANCIO", "BALANCE SHEET", "FINANCIAL STATEMENT"}

func (d DocumentRecord) IsFinancialStatement() bool {
	docType := strings.ToUpper(d.DocumentType)
	for _, m := range financialMarkers {
		if strings.Contains(docType, m) {
			return true
		}
	}
	return false
}

// NumericYear interprets the year field, treating non-numeric years as 0 so
// they sort after every real year.
func (d DocumentRecord) NumericYear() int {
	year, err := strconv.Atoi(strings.TrimSpace(d.Year))
	if err != nil || year < 0 {
		return 0
	}
	return year
}

func Empty(identifier string, capturedAt time.Time) EntitySnapshot {
	return EntitySnapshot{
		CapturedAt: capturedAt,
		Identifier: identifier,
	}
}

// DedupDocuments drops records that repeat an identity key, keeping the
// first occurrence.
func DedupDocuments(docs []DocumentRecord) []DocumentRecord {
	seen := map[string]bool{}
	var out []DocumentRecord
	for _, d := range docs {
		key := d.IdentityKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// SortDocuments orders financial statements before everything else, then by
// descending numeric year. Type and case code break ties so the order is a
// pure function of the records, independent of discovery order.
func SortDocuments(docs []DocumentRecord) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i], docs[j]
		if a.IsFinancialStatement() != b.IsFinancialStatement() {
			return a.IsFinancialStatement()
		}
		if a.NumericYear() != b.NumericYear() {
			return a.NumericYear() > b.NumericYear()
		}
		if a.DocumentType != b.DocumentType {
			return a.DocumentType < b.DocumentType
		}
		return a.CaseCode < b.CaseCode
	})
}

// CanonicalizeDocuments is applied both at extraction time and on every
// history write, so stored snapshots can never differ by ordering alone.
func CanonicalizeDocuments(docs []DocumentRecord) []DocumentRecord {
	out := DedupDocuments(docs)
	SortDocuments(out)
	return out
}

// Flatten converts a snapshot into dotted-path scalar pairs for comparison.
// CapturedAt is metadata, not entity state, and is never included. Documents
// are keyed by identity rather than position so reordering cannot
// manufacture changes.
func Flatten(s EntitySnapshot) map[string]string {
	flat := map[string]string{}
	for k, v := range s.BaseInfo {
		flat["baseInfo."+k] = v
	}
	for k, v := range s.EntityInfo {
		flat["entityInfo."+k] = v
	}
	for k, v := range s.RegisteredOffice {
		flat["registeredOffice."+k] = v
	}
	for i, person := range s.Persons {
		for k, v := range person {
			flat[fmt.Sprintf("persons[%d].%s", i, k)] = v
		}
	}
	for _, doc := range s.Documents {
		prefix := fmt.Sprintf("documents[%s]", doc.IdentityKey())
		if doc.Year != "" {
			flat[prefix+".year"] = doc.Year
		}
		flat[prefix+".hasAttachment"] = strconv.FormatBool(doc.HasAttachment)
	}
	return flat
}

// DocumentsByIdentity indexes the document list by identity key.
func DocumentsByIdentity(docs []DocumentRecord) map[string]DocumentRecord {
	byKey := make(map[string]DocumentRecord, len(docs))
	for _, d := range docs {
		if _, ok := byKey[d.IdentityKey()]; ok {
			continue
		}
		byKey[d.IdentityKey()] = d
	}
	return byKey
}
