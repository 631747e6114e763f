package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"registrywatch-backend/lib/htmlutil"
	"registrywatch-backend/services/monitor/snapshot"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

// persons are indexed 1..maxPersons on the detail page
const maxPersons = 10

var entityFields = []labeledField{
	{"registryNumber", []string{"Numero repertorio", "Registry number"}},
	{"taxCode", []string{"Codice fiscale", "Tax code"}},
	{"registrationDate", []string{"Data iscrizione", "Registration date"}},
	{"legalForm", []string{"Forma giuridica", "Legal form"}},
	{"email", []string{"PEC", "Certified email"}},
	{"foundingDocument", []string{"Atto costitutivo", "Founding document"}},
}

var officeFields = []labeledField{
	{"country", []string{"Stato", "Country"}},
	{"province", []string{"Provincia", "Province"}},
	{"municipality", []string{"Comune", "Municipality"}},
	{"street", []string{"Indirizzo", "Street"}},
	{"number", []string{"Civico", "Street number"}},
	{"postalCode", []string{"CAP", "Postal code"}},
}

var officeMarkers = []string{"Sede legale", "Registered office"}

// BuildSnapshot derives the canonical record for one entity from the
// rendered search-results and detail pages. Anything that fails to parse is
// omitted; the result is always a valid, storable snapshot.
func BuildSnapshot(ctx context.Context, identifier string, capturedAt time.Time, resultsHTML, detailHTML string) snapshot.EntitySnapshot {
	ctx, span := tracer.Start(ctx, "BuildSnapshot")
	defer span.End()
	span.SetAttributes(attribute.String("identifier", identifier))

	snap := snapshot.Empty(identifier, capturedAt)

	if resultsHTML != "" {
		results, err := goquery.NewDocumentFromReader(strings.NewReader(resultsHTML))
		if err != nil {
			span.RecordError(err)
			slog.WarnContext(ctx, "failed to parse search results page", "identifier", identifier, "err", err)
		} else {
			snap.BaseInfo = baseInfo(results)
		}
	}

	if detailHTML == "" {
		return snap
	}
	detail, err := goquery.NewDocumentFromReader(strings.NewReader(detailHTML))
	if err != nil {
		span.RecordError(err)
		slog.WarnContext(ctx, "failed to parse detail page", "identifier", identifier, "err", err)
		return snap
	}

	if info := fields(detail.Selection, entityFields); len(info) > 0 {
		snap.EntityInfo = info
	}
	office := fields(officeScope(detail), officeFields)
	if len(office) == 0 {
		office = fields(detail.Selection, officeFields)
	}
	if len(office) > 0 {
		snap.RegisteredOffice = office
	}
	for i := 1; i <= maxPersons; i++ {
		person := Person(detail, i)
		if len(person) == 0 {
			continue
		}
		snap.Persons = append(snap.Persons, person)
	}
	snap.Documents = Documents(detail)

	return snap
}

// baseInfo reads the summary fields from the first result row.
func baseInfo(results *goquery.Document) map[string]string {
	rows := results.Find("table tr").Nodes
	if len(rows) < 2 {
		return nil
	}
	cells := rowCells(rows[1])

	info := map[string]string{}
	assign := func(key string, index int) {
		if value := cellText(cells, index); value != "" {
			info[key] = value
		}
	}
	assign("name", 0)
	assign("municipality", 1)
	assign("section", 2)
	if len(info) == 0 {
		return nil
	}
	return info
}

// officeScope narrows address extraction to the registered-office block when
// one can be located; province and municipality labels repeat inside person
// blocks, so reading the whole page would risk picking those up first.
func officeScope(detail *goquery.Document) *goquery.Selection {
	if len(detail.Selection.Nodes) == 0 {
		return detail.Selection
	}
	for _, marker := range officeMarkers {
		if container := markerContainer(detail, marker); container != nil {
			return goquery.NewDocumentFromNode(container).Selection
		}
	}
	return detail.Selection
}

func markerContainer(doc *goquery.Document, marker string) *html.Node {
	var found *html.Node
	htmlutil.WalkTextNodes(doc.Selection.Nodes[0], func(node *html.Node) bool {
		if !strings.Contains(node.Data, marker) {
			return true
		}
		found = blockContainer(node)
		return false
	})
	return found
}
