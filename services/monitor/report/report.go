// Package report turns a classified change set into the notification
// payload handed off to an external delivery mechanism. Nothing here sends
// anything.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"registrywatch-backend/services/monitor/diff"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jordan-wright/email"
)

type Options struct {
	Recipient string `json:"recipient"`
	From      string `json:"from"`
}

// EntitySummary groups one entity's changes and its high-priority
// highlights for the report header.
type EntitySummary struct {
	Name        string              `json:"name"`
	Identifier  string              `json:"identifier"`
	Changes     []diff.ChangeRecord `json:"changes"`
	Highlights  []string            `json:"highlights,omitempty"`
	ChangeCount int                 `json:"change_count"`
}

// Report is the self-contained notification artifact for one run. The
// ordered change list is carried literally so an external consumer can
// re-derive everything else deterministically.
type Report struct {
	ID          string                `json:"id"`
	GeneratedAt time.Time             `json:"generated_at"`
	Recipient   string                `json:"recipient"`
	Subject     string                `json:"subject"`
	Body        string                `json:"body"`
	TierCounts  map[diff.Priority]int `json:"tier_counts"`
	Entities    []EntitySummary       `json:"entities,omitempty"`
	Changes     []diff.ChangeRecord   `json:"changes,omitempty"`
}

// Build groups changes by entity and priority tier and renders the report
// body. The input order within one entity is preserved; entities appear in
// first-seen order.
func Build(opts Options, generatedAt time.Time, changes []diff.ChangeRecord) Report {
	tierCounts := map[diff.Priority]int{}
	byEntity := map[string]*EntitySummary{}
	var entityOrder []string

	for _, change := range changes {
		tierCounts[change.Priority]++

		summary, ok := byEntity[change.EntityIdentifier]
		if !ok {
			summary = &EntitySummary{
				Name:       change.EntityName,
				Identifier: change.EntityIdentifier,
			}
			byEntity[change.EntityIdentifier] = summary
			entityOrder = append(entityOrder, change.EntityIdentifier)
		}
		summary.Changes = append(summary.Changes, change)
		summary.ChangeCount++
		if change.Priority == diff.PriorityHigh {
			summary.Highlights = append(summary.Highlights, fmt.Sprintf(
				"%s: %s", change.Category, change.New,
			))
		}
	}

	var entities []EntitySummary
	for _, identifier := range entityOrder {
		summary := byEntity[identifier]
		sortByPriority(summary.Changes)
		entities = append(entities, *summary)
	}

	rep := Report{
		ID:          uuid.NewString(),
		GeneratedAt: generatedAt,
		Recipient:   opts.Recipient,
		Subject:     subject(changes, entities, tierCounts),
		TierCounts:  tierCounts,
		Entities:    entities,
		Changes:     changes,
	}
	rep.Body = body(rep)
	return rep
}

func sortByPriority(changes []diff.ChangeRecord) {
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Priority.Rank() < changes[j].Priority.Rank()
	})
}

func subject(changes []diff.ChangeRecord, entities []EntitySummary, tierCounts map[diff.Priority]int) string {
	if len(changes) == 0 {
		return "Registry watch: no changes detected"
	}
	line := fmt.Sprintf(
		"Registry watch: %d changes across %d entities",
		len(changes), len(entities),
	)
	if high := tierCounts[diff.PriorityHigh]; high > 0 {
		line += fmt.Sprintf(" (%d high priority)", high)
	}
	return line
}

func body(rep Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", rep.Subject)
	fmt.Fprintf(&b, "generated at %s\n", rep.GeneratedAt.Format(time.RFC3339))

	if len(rep.Entities) == 0 {
		b.WriteString("\nAll monitored entities are unchanged.\n")
		return b.String()
	}

	for _, entity := range rep.Entities {
		fmt.Fprintf(&b, "\n== %s (%s): %d changes ==\n", entity.Name, entity.Identifier, entity.ChangeCount)
		for _, highlight := range entity.Highlights {
			fmt.Fprintf(&b, "!! %s\n", highlight)
		}

		w := table.NewWriter()
		w.AppendHeader(table.Row{"Priority", "Category", "Field", "Previous", "New"})
		for _, change := range entity.Changes {
			w.AppendRow(table.Row{
				change.Priority, change.Category, change.Field,
				change.Previous, change.New,
			})
		}
		b.WriteString(w.Render())
		b.WriteString("\n")
	}
	return b.String()
}

// Email renders the report as a ready-to-send message; delivery stays with
// the external mechanism consuming the artifact.
func Email(rep Report, opts Options) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Registry Watch <%s>", opts.From)
	mail.To = []string{rep.Recipient}
	mail.Subject = rep.Subject
	mail.Text = []byte(rep.Body)
	return mail
}

