package extract

import (
	"fmt"
	"strings"

	"registrywatch-backend/lib/htmlutil"
	"registrywatch-backend/services/monitor/snapshot"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var personFields = []labeledField{
	{"type", []string{"Tipo", "Type"}},
	{"legalRepresentativeFlag", []string{"Rappresentante legale", "Legal representative"}},
	{"taxCode", []string{"Codice fiscale", "Tax code"}},
	{"firstName", []string{"Nome", "First name"}},
	{"lastName", []string{"Cognome", "Last name"}},
	{"birthDate", []string{"Data di nascita", "Birth date"}},
	{"province", []string{"Provincia", "Province"}},
	{"municipality", []string{"Comune", "Municipality"}},
	{"role", []string{"Carica", "Role"}},
	{"appointmentDate", []string{"Data nomina", "Appointment date"}},
}

// how far to ascend from the marker text node looking for a block container
const containerAscentLimit = 5

var containerTags = map[string]bool{
	"div":      true,
	"section":  true,
	"fieldset": true,
	"article":  true,
	"li":       true,
	"td":       true,
}

// Person extracts the fields of the person block at the given 1-based index.
// Fields are read strictly from within the located container so values can
// never leak from sibling blocks or page chrome. Returns an empty record if
// the block cannot be found.
func Person(doc *goquery.Document, index int) snapshot.PersonRecord {
	if len(doc.Selection.Nodes) == 0 {
		return nil
	}
	marker := personMarker(doc.Selection.Nodes[0], index)
	if marker == nil {
		return nil
	}
	container := blockContainer(marker)
	if container == nil {
		return nil
	}
	scope := goquery.NewDocumentFromNode(container).Selection
	record := fields(scope, personFields)
	if len(record) == 0 {
		return nil
	}
	return record
}

// personMarker locates the "Persona N" / "Person N" text node. An exact
// match is preferred; a prefix match is accepted only when the marker is not
// followed by another digit, so index 1 can never match inside "Person 11".
func personMarker(root *html.Node, index int) *html.Node {
	markers := []string{
		fmt.Sprintf("Persona %d", index),
		fmt.Sprintf("Person %d", index),
	}

	var exact, prefixed *html.Node
	htmlutil.WalkTextNodes(root, func(node *html.Node) bool {
		text := strings.TrimSpace(node.Data)
		for _, marker := range markers {
			if text == marker {
				exact = node
				return false
			}
			if prefixed == nil && strings.HasPrefix(text, marker) {
				rest := text[len(marker):]
				if len(rest) > 0 && (rest[0] < '0' || rest[0] > '9') {
					prefixed = node
				}
			}
		}
		return true
	})

	if exact != nil {
		return exact
	}
	return prefixed
}

// blockContainer ascends from the marker toward the root, capped at a small
// number of levels, to find the nearest block element; the generic parent
// element is the last resort.
func blockContainer(marker *html.Node) *html.Node {
	node := marker
	for i := 0; i < containerAscentLimit; i++ {
		node = htmlutil.ParentElement(node)
		if node == nil {
			break
		}
		if containerTags[node.Data] {
			return node
		}
	}
	return htmlutil.ParentElement(marker)
}
