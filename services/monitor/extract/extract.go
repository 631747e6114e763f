// Package extract turns loosely-structured registry HTML into canonical
// snapshot records. The pages have no stable schema, so every extractor is
// a ranked chain of heuristics evaluated in order, first success wins.
package extract

import (
	"strings"

	"registrywatch-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("services/monitor/extract")

// labelStrategy resolves the value adjacent to a label within scope,
// returning "" on failure.
type labelStrategy func(scope *goquery.Selection, label string) string

// ordered by precedence
var fieldStrategies = []labelStrategy{
	emphasizedSibling,
	textAncestorSibling,
}

// Field returns the value associated with a label using label-adjacency
// heuristics. Failure is non-fatal: callers omit absent fields entirely.
func Field(scope *goquery.Selection, label string) (string, bool) {
	for _, strategy := range fieldStrategies {
		if value := strategy(scope, label); value != "" {
			return value, true
		}
	}
	return "", false
}

// emphasizedSibling finds a bold/emphasized element whose text contains the
// label and returns the text of its next element sibling.
func emphasizedSibling(scope *goquery.Selection, label string) string {
	value := ""
	scope.Find("strong,b,em").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(sel.Nodes) == 0 || !strings.Contains(sel.Text(), label) {
			return true
		}
		next := htmlutil.NextElementSibling(sel.Nodes[0])
		if next == nil {
			return true
		}
		if v := htmlutil.CleanText(next); v != "" {
			value = v
			return false
		}
		return true
	})
	return value
}

// textAncestorSibling finds any text node containing the label, walks to its
// nearest element ancestor and returns the text of that ancestor's next
// element sibling.
func textAncestorSibling(scope *goquery.Selection, label string) string {
	value := ""
	for _, root := range scope.Nodes {
		htmlutil.WalkTextNodes(root, func(node *html.Node) bool {
			if !strings.Contains(node.Data, label) {
				return true
			}
			parent := htmlutil.ParentElement(node)
			if parent == nil || parent == root {
				// the scope root is a hard boundary: stepping to its
				// sibling would read from an adjacent block
				return true
			}
			next := htmlutil.NextElementSibling(parent)
			if next == nil {
				return true
			}
			if v := htmlutil.CleanText(next); v != "" {
				value = v
				return false
			}
			return true
		})
		if value != "" {
			break
		}
	}
	return value
}

type labeledField struct {
	Key    string
	Labels []string
}

// fields populates a map from a fixed label table, assigning the first
// matching value per key and omitting everything else.
func fields(scope *goquery.Selection, table []labeledField) map[string]string {
	out := map[string]string{}
	for _, field := range table {
		for _, label := range field.Labels {
			value, ok := Field(scope, label)
			if !ok {
				continue
			}
			out[field.Key] = value
			break
		}
	}
	return out
}
