// Package monitor orchestrates one watch run: re-derive a snapshot for
// every registered identifier, compare against history, classify changes
// and persist the notification artifact.
package monitor

import (
	"context"
	"log/slog"

	"registrywatch-backend/lib/timezone"
	"registrywatch-backend/services/monitor/diff"
	"registrywatch-backend/services/monitor/extract"
	"registrywatch-backend/services/monitor/history"
	"registrywatch-backend/services/monitor/renderer"
	"registrywatch-backend/services/monitor/report"
	"registrywatch-backend/services/monitor/snapshot"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/monitor")

type Options struct {
	Identifiers []string       `json:"identifiers"`
	Notify      report.Options `json:"notify"`
}

type Service struct {
	store    history.Store
	renderer renderer.Renderer
	options  Options
}

func NewService(store history.Store, r renderer.Renderer, options Options) Service {
	return Service{
		store:    store,
		renderer: r,
		options:  options,
	}
}

// Run processes every configured identifier once and persists the resulting
// report. History is overwritten for each processed identifier regardless
// of whether changes were found. Only store failures abort the run; a
// failing render skips that entity and the run simply produces less data.
func (s Service) Run(ctx context.Context) (report.Report, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	currentYear := timezone.Now().Year()

	var changes []diff.ChangeRecord
	for _, identifier := range s.options.Identifiers {
		entityChanges, err := s.processEntity(ctx, identifier, currentYear)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return report.Report{}, err
		}
		changes = append(changes, entityChanges...)
	}

	rep := report.Build(s.options.Notify, timezone.Now(), changes)
	err := s.store.SaveReport(ctx, rep)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report.Report{}, err
	}

	slog.InfoContext(
		ctx, "run complete",
		"report", rep.ID,
		"entities", len(s.options.Identifiers),
		"changes", len(changes),
		"high_priority", rep.TierCounts[diff.PriorityHigh],
	)
	return rep, nil
}

func (s Service) processEntity(ctx context.Context, identifier string, currentYear int) ([]diff.ChangeRecord, error) {
	ctx, span := tracer.Start(ctx, "processEntity")
	defer span.End()
	span.SetAttributes(attribute.String("identifier", identifier))

	previous, known, err := s.store.Snapshot(ctx, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read history")
		return nil, err
	}

	pages, err := s.renderer.Render(ctx, identifier)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		slog.WarnContext(ctx, "render failed, skipping entity", "identifier", identifier, "err", err)
		return nil, nil
	}

	capturedAt := timezone.Now()
	var current snapshot.EntitySnapshot
	if pages.Found {
		current = extract.BuildSnapshot(ctx, identifier, capturedAt, pages.ResultsHTML, pages.DetailHTML)
	} else {
		// still a valid, storable snapshot: "checked, nothing found"
		slog.InfoContext(ctx, "no results for identifier", "identifier", identifier)
		current = snapshot.Empty(identifier, capturedAt)
	}

	var entityChanges []diff.ChangeRecord
	if known {
		entityChanges = diff.Compute(entityName(current, previous), previous, current, currentYear)
	} else {
		slog.InfoContext(ctx, "first sighting, nothing to compare", "identifier", identifier)
	}

	// old-snapshot read happened above; the overwrite must come after
	err = s.store.Put(ctx, current)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to write history")
		return nil, err
	}

	span.SetAttributes(attribute.Int("changes", len(entityChanges)))
	return entityChanges, nil
}

func entityName(current, previous snapshot.EntitySnapshot) string {
	if name := current.BaseInfo["name"]; name != "" {
		return name
	}
	if name := previous.BaseInfo["name"]; name != "" {
		return name
	}
	return current.Identifier
}
