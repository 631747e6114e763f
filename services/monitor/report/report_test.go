package report

import (
	"strings"
	"testing"
	"time"

	"registrywatch-backend/services/monitor/diff"

	"github.com/stretchr/testify/require"
)

func sampleChanges() []diff.ChangeRecord {
	return []diff.ChangeRecord{
		{
			EntityName:       "Associazione Esempio ODV",
			EntityIdentifier: "97103880585",
			Field:            "documents[BILANCIO|C2]",
			Previous:         diff.Sentinel,
			New:              "BILANCIO C2 (2024, attachment)",
			Category:         diff.CategoryNewAnnualFinancialReport,
			Priority:         diff.PriorityHigh,
		},
		{
			EntityName:       "Associazione Esempio ODV",
			EntityIdentifier: "97103880585",
			Field:            "entityInfo.email",
			Previous:         "vecchia@pec.it",
			New:              "nuova@pec.it",
			Category:         diff.CategoryFieldChange,
			Priority:         diff.PriorityLow,
		},
		{
			EntityName:       "Fondazione Altra",
			EntityIdentifier: "80012345678",
			Field:            "documents[VERBALE|V1]",
			Previous:         diff.Sentinel,
			New:              "VERBALE V1 (2024)",
			Category:         diff.CategoryNewDocument,
			Priority:         diff.PriorityLow,
		},
	}
}

func TestBuildGroupsByEntity(t *testing.T) {
	generatedAt := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	rep := Build(Options{Recipient: "ops@example.com"}, generatedAt, sampleChanges())

	require.NotEmpty(t, rep.ID)
	require.Equal(t, generatedAt, rep.GeneratedAt)
	require.Equal(t, "ops@example.com", rep.Recipient)

	require.Len(t, rep.Entities, 2)
	require.Equal(t, "97103880585", rep.Entities[0].Identifier)
	require.Equal(t, "Associazione Esempio ODV", rep.Entities[0].Name)
	require.Equal(t, 2, rep.Entities[0].ChangeCount)
	require.Equal(t, "80012345678", rep.Entities[1].Identifier)
	require.Equal(t, 1, rep.Entities[1].ChangeCount)

	require.Equal(t, map[diff.Priority]int{
		diff.PriorityHigh: 1,
		diff.PriorityLow:  2,
	}, rep.TierCounts)
}

func TestBuildSubjectAndHighlights(t *testing.T) {
	rep := Build(Options{}, time.Now(), sampleChanges())
	require.Equal(t, "Registry watch: 3 changes across 2 entities (1 high priority)", rep.Subject)

	require.Equal(t, []string{
		"new current-year financial statement: BILANCIO C2 (2024, attachment)",
	}, rep.Entities[0].Highlights)
	require.Empty(t, rep.Entities[1].Highlights)

	require.Contains(t, rep.Body, "!! new current-year financial statement")
	require.Contains(t, rep.Body, "Associazione Esempio ODV (97103880585)")
	require.Contains(t, rep.Body, "documents[BILANCIO|C2]")
}

func TestBuildEmpty(t *testing.T) {
	rep := Build(Options{Recipient: "ops@example.com"}, time.Now(), nil)
	require.Equal(t, "Registry watch: no changes detected", rep.Subject)
	require.Empty(t, rep.Entities)
	require.Contains(t, rep.Body, "All monitored entities are unchanged.")
}

func TestBuildOrdersChangesWithinEntity(t *testing.T) {
	changes := sampleChanges()
	// low before high on input; Build must re-rank within the entity
	changes[0], changes[1] = changes[1], changes[0]

	rep := Build(Options{}, time.Now(), changes)
	entity := rep.Entities[0]
	require.Equal(t, diff.PriorityHigh, entity.Changes[0].Priority)
	require.Equal(t, diff.PriorityLow, entity.Changes[1].Priority)
}

func TestEmail(t *testing.T) {
	rep := Build(Options{Recipient: "ops@example.com"}, time.Now(), sampleChanges())
	mail := Email(rep, Options{Recipient: "ops@example.com", From: "watch@example.com"})

	require.Equal(t, "Registry Watch <watch@example.com>", mail.From)
	require.Equal(t, []string{"ops@example.com"}, mail.To)
	require.Equal(t, rep.Subject, mail.Subject)
	require.True(t, strings.HasPrefix(string(mail.Text), rep.Subject))
}
