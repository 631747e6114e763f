package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// blankNonPrintable maps non-printable runes to spaces rather than dropping
// them, so a newline or tab between words stays a word boundary for the
// whitespace collapse.
func blankNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		} else {
			newStr.WriteRune(' ')
		}
	}
	return newStr.String()
}

// CleanText collapses the raw text of a node into a single trimmed line.
func CleanText(node *html.Node) string {
	text := GetText(node)
	text = blankNonPrintable(text)
	text = strings.Trim(text, " \t\n")
	return innerWhitespace.ReplaceAllString(text, " ")
}

// WalkTextNodes calls fn for every text node under root in document order
// until fn returns false.
func WalkTextNodes(root *html.Node, fn func(node *html.Node) bool) {
	walkTextNodes(root, fn)
}

func walkTextNodes(node *html.Node, fn func(node *html.Node) bool) bool {
	if node == nil {
		return true
	}
	if node.Type == html.TextNode {
		return fn(node)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if !walkTextNodes(child, fn) {
			return false
		}
	}
	return true
}

func NextElementSibling(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	for sibling := node.NextSibling; sibling != nil; sibling = sibling.NextSibling {
		if sibling.Type == html.ElementNode {
			return sibling
		}
	}
	return nil
}

func ParentElement(node *html.Node) *html.Node {
	if node == nil {
		return nil
	}
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		if parent.Type == html.ElementNode {
			return parent
		}
	}
	return nil
}

// NextInDocument returns the node that follows in document order without
// descending into node itself.
func NextInDocument(node *html.Node) *html.Node {
	for node != nil {
		if node.NextSibling != nil {
			return node.NextSibling
		}
		node = node.Parent
	}
	return nil
}

// FindFollowing walks document order starting after node and returns the
// first element with the given tag.
func FindFollowing(node *html.Node, tag string) *html.Node {
	current := NextInDocument(node)
	for current != nil {
		if current.Type == html.ElementNode && current.Data == tag {
			return current
		}
		if current.FirstChild != nil {
			current = current.FirstChild
			continue
		}
		current = NextInDocument(current)
	}
	return nil
}

func HasClass(node *html.Node, class string) bool {
	if node == nil || node.Type != html.ElementNode {
		return false
	}
	for _, a := range node.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if strings.EqualFold(c, class) {
				return true
			}
		}
	}
	return false
}
