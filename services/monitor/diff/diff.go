// Package diff computes the classified, prioritized change set between two
// entity snapshots.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"registrywatch-backend/services/monitor/snapshot"
)

// Sentinel stands in for a value whose path exists on only one side.
const Sentinel = "N/A"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

type Category string

const (
	CategoryFieldChange              Category = "field change"
	CategoryNewDocument              Category = "new document"
	CategoryNewFinancialStatement    Category = "new financial statement"
	CategoryNewAnnualFinancialReport Category = "new current-year financial statement"
)

type ChangeRecord struct {
	EntityName       string   `json:"entity_name"`
	EntityIdentifier string   `json:"entity_identifier"`
	Field            string   `json:"field"`
	Previous         string   `json:"previous_value"`
	New              string   `json:"new_value"`
	Category         Category `json:"category"`
	Priority         Priority `json:"priority"`
}

// Fields performs the path-sensitive structural diff over the flattened
// union of both snapshots. It is symmetric: Fields(a, b) and Fields(b, a)
// contain the same paths with previous/new swapped.
func Fields(name string, old, current snapshot.EntitySnapshot) []ChangeRecord {
	oldFlat := snapshot.Flatten(old)
	newFlat := snapshot.Flatten(current)

	pathSet := map[string]bool{}
	for path := range oldFlat {
		pathSet[path] = true
	}
	for path := range newFlat {
		pathSet[path] = true
	}
	paths := make([]string, 0, len(pathSet))
	for path := range pathSet {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var changes []ChangeRecord
	for _, path := range paths {
		previous, ok := oldFlat[path]
		if !ok {
			previous = Sentinel
		}
		next, ok := newFlat[path]
		if !ok {
			next = Sentinel
		}
		if previous == next {
			continue
		}
		changes = append(changes, ChangeRecord{
			EntityName:       name,
			EntityIdentifier: current.Identifier,
			Field:            path,
			Previous:         previous,
			New:              next,
			Category:         CategoryFieldChange,
			Priority:         PriorityLow,
		})
	}
	return changes
}

// NewDocuments runs the dedicated pass over the document lists keyed by
// identity, not position: every document present only in the new snapshot
// becomes a classified new-document event. A financial statement for the
// current reporting year is the highest-urgency change the monitor knows.
func NewDocuments(name string, old, current snapshot.EntitySnapshot, currentYear int) []ChangeRecord {
	oldByKey := snapshot.DocumentsByIdentity(old.Documents)

	var changes []ChangeRecord
	for _, doc := range current.Documents {
		if _, known := oldByKey[doc.IdentityKey()]; known {
			continue
		}

		category := CategoryNewDocument
		priority := PriorityLow
		if doc.IsFinancialStatement() {
			if doc.NumericYear() == currentYear {
				category = CategoryNewAnnualFinancialReport
				priority = PriorityHigh
			} else {
				category = CategoryNewFinancialStatement
				priority = PriorityMedium
			}
		}

		changes = append(changes, ChangeRecord{
			EntityName:       name,
			EntityIdentifier: current.Identifier,
			Field:            fmt.Sprintf("documents[%s]", doc.IdentityKey()),
			Previous:         Sentinel,
			New:              describeDocument(doc),
			Category:         category,
			Priority:         priority,
		})
	}
	return changes
}

func describeDocument(doc snapshot.DocumentRecord) string {
	description := doc.DocumentType
	if description == "" {
		description = "(untyped document)"
	}
	if doc.CaseCode != "" {
		description += fmt.Sprintf(", case %s", doc.CaseCode)
	}
	if doc.Year != "" {
		description += fmt.Sprintf(", year %s", doc.Year)
	}
	if doc.HasAttachment {
		description += ", with attachment"
	}
	return description
}

// Compute produces the full ordered change set for one entity: the
// new-document pass plus the generic field diff, with generic records
// already covered by a new-document event suppressed so each new document
// surfaces exactly once.
func Compute(name string, old, current snapshot.EntitySnapshot, currentYear int) []ChangeRecord {
	documentEvents := NewDocuments(name, old, current, currentYear)

	newIdentities := map[string]bool{}
	for _, event := range documentEvents {
		newIdentities[event.Field] = true
	}

	var changes []ChangeRecord
	changes = append(changes, documentEvents...)
	for _, change := range Fields(name, old, current) {
		if coveredByDocumentEvent(change.Field, newIdentities) {
			continue
		}
		changes = append(changes, change)
	}

	sortChanges(changes)
	return changes
}

func coveredByDocumentEvent(path string, newIdentities map[string]bool) bool {
	if !strings.HasPrefix(path, "documents[") {
		return false
	}
	end := strings.LastIndex(path, "]")
	if end < 0 {
		return false
	}
	return newIdentities[path[:end+1]]
}

// sortChanges orders by priority tier, document events ahead of generic
// field changes within a tier, then by path for determinism.
func sortChanges(changes []ChangeRecord) {
	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		aDocEvent := a.Category != CategoryFieldChange
		bDocEvent := b.Category != CategoryFieldChange
		if aDocEvent != bDocEvent {
			return aDocEvent
		}
		return a.Field < b.Field
	})
}
