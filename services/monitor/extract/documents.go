package extract

import (
	"regexp"
	"strings"

	"registrywatch-backend/lib/htmlutil"
	"registrywatch-backend/lib/textutil"
	"registrywatch-backend/services/monitor/snapshot"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var sectionHeadings = []string{
	"Atti e documenti",
	"Acts and documents",
	"Documents",
}

// any table reached through the whole-document fallback must carry at least
// one of these in its header row
var documentTableKeywords = []string{
	"documento", "document", "file",
	"pratica", "case",
	"codice", "code",
	"allegato", "attachment",
	"data", "date",
}

var typeColumnKeywords = []string{"documento", "document", "atto", "file", "tipo"}
var caseColumnKeywords = []string{"pratica", "case", "codice", "code"}
var yearColumnKeywords = []string{"data", "date", "anno", "year"}
var attachmentColumnKeywords = []string{"allegato", "attachment", "download"}

// sectionStrategy locates the documents section, returning nil on failure.
type sectionStrategy func(doc *goquery.Document) *html.Node

// ranked: exact heading, substring heading, substring anywhere, keyword table
var sectionStrategies = []sectionStrategy{
	exactHeading,
	substringHeading,
	substringAnyElement,
	keywordTable,
}

// Documents extracts the document table: locate the section via ranked
// heuristics, map columns by header keyword with positional defaults,
// normalize rows, deduplicate by identity key and sort canonically.
func Documents(doc *goquery.Document) []snapshot.DocumentRecord {
	var tables []*html.Node

	section := locateSection(doc)
	if section != nil {
		table := sectionTable(section)
		if table == nil {
			return nil
		}
		tables = []*html.Node{table}
	} else {
		// no section anywhere: scan every table, keeping only those whose
		// headers look document-related
		for _, table := range doc.Find("table").Nodes {
			if tableHasDocumentHeaders(table) {
				tables = append(tables, table)
			}
		}
	}

	var docs []snapshot.DocumentRecord
	for _, table := range tables {
		docs = append(docs, tableDocuments(table)...)
	}
	return snapshot.CanonicalizeDocuments(docs)
}

func locateSection(doc *goquery.Document) *html.Node {
	for _, strategy := range sectionStrategies {
		if section := strategy(doc); section != nil {
			return section
		}
	}
	return nil
}

func exactHeading(doc *goquery.Document) *html.Node {
	for _, node := range doc.Find("h1,h2,h3,h4,h5,h6").Nodes {
		text := htmlutil.CleanText(node)
		for _, heading := range sectionHeadings {
			if text == heading {
				return node
			}
		}
	}
	return nil
}

func substringHeading(doc *goquery.Document) *html.Node {
	for _, node := range doc.Find("h1,h2,h3,h4,h5,h6").Nodes {
		text := htmlutil.CleanText(node)
		for _, heading := range sectionHeadings {
			if strings.Contains(text, heading) {
				return node
			}
		}
	}
	return nil
}

// substringAnyElement matches the heading text in any text node and returns
// its parent element, the tightest element carrying the heading.
func substringAnyElement(doc *goquery.Document) *html.Node {
	if len(doc.Selection.Nodes) == 0 {
		return nil
	}
	var found *html.Node
	htmlutil.WalkTextNodes(doc.Selection.Nodes[0], func(node *html.Node) bool {
		for _, heading := range sectionHeadings {
			if strings.Contains(node.Data, heading) {
				found = htmlutil.ParentElement(node)
				return false
			}
		}
		return true
	})
	return found
}

func keywordTable(doc *goquery.Document) *html.Node {
	for _, table := range doc.Find("table").Nodes {
		if tableHasDocumentHeaders(table) {
			return table
		}
	}
	return nil
}

// sectionTable resolves the located section to a table: the section itself
// when it is one, otherwise the next table in document order.
func sectionTable(section *html.Node) *html.Node {
	if section.Type == html.ElementNode && section.Data == "table" {
		return section
	}
	return htmlutil.FindFollowing(section, "table")
}

func tableRows(table *html.Node) []*html.Node {
	sel := goquery.NewDocumentFromNode(table).Find("tr")
	return sel.Nodes
}

func rowCells(row *html.Node) []*html.Node {
	sel := goquery.NewDocumentFromNode(row).Find("td,th")
	return sel.Nodes
}

func headerTexts(table *html.Node) []string {
	rows := tableRows(table)
	if len(rows) == 0 {
		return nil
	}
	var headers []string
	for _, cell := range rowCells(rows[0]) {
		headers = append(headers, htmlutil.CleanText(cell))
	}
	return headers
}

func tableHasDocumentHeaders(table *html.Node) bool {
	for _, header := range headerTexts(table) {
		if textutil.MatchKeyword(header, documentTableKeywords) {
			return true
		}
	}
	return false
}

type columnLayout struct {
	docType    int
	caseCode   int
	year       int
	attachment int
}

// mapColumns resolves logical columns to physical indices by header keyword.
// Headers are unreliable, so each column keeps its fixed positional default
// when no header matches.
func mapColumns(headers []string) columnLayout {
	layout := columnLayout{docType: 0, caseCode: 1, year: 2, attachment: 3}
	for i, header := range headers {
		switch {
		case textutil.MatchKeyword(header, typeColumnKeywords):
			layout.docType = i
		case textutil.MatchKeyword(header, caseColumnKeywords):
			layout.caseCode = i
		case textutil.MatchKeyword(header, yearColumnKeywords):
			layout.year = i
		case textutil.MatchKeyword(header, attachmentColumnKeywords):
			layout.attachment = i
		}
	}
	return layout
}

var yearToken = regexp.MustCompile(`20\d{2}`)

func tableDocuments(table *html.Node) []snapshot.DocumentRecord {
	rows := tableRows(table)
	if len(rows) < 2 {
		return nil
	}
	layout := mapColumns(headerTexts(table))

	var docs []snapshot.DocumentRecord
	for _, row := range rows[1:] {
		cells := rowCells(row)
		if len(cells) == 0 {
			continue
		}
		doc := snapshot.DocumentRecord{
			DocumentType:  cellText(cells, layout.docType),
			CaseCode:      cellText(cells, layout.caseCode),
			Year:          cellYear(cells, layout.year),
			HasAttachment: cellHasAttachment(cells, layout.attachment),
		}
		if doc.DocumentType == "" && doc.CaseCode == "" {
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

func cellText(cells []*html.Node, index int) string {
	if index < 0 || index >= len(cells) {
		return ""
	}
	return htmlutil.CleanText(cells[index])
}

// cellYear extracts the first 4-digit year token beginning with "20"; the
// raw trimmed cell text is the fallback when no token exists.
func cellYear(cells []*html.Node, index int) string {
	text := cellText(cells, index)
	if token := yearToken.FindString(text); token != "" {
		return token
	}
	return text
}

func cellHasAttachment(cells []*html.Node, index int) bool {
	if index < 0 || index >= len(cells) {
		return false
	}
	cell := goquery.NewDocumentFromNode(cells[index])
	if len(cell.Find("a,img").Nodes) > 0 {
		return true
	}
	if htmlutil.HasClass(cells[index], "download") {
		return true
	}
	for _, node := range cell.Find("*").Nodes {
		if htmlutil.HasClass(node, "download") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(htmlutil.GetText(cells[index])), "download")
}
