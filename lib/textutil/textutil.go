package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeLabel(label string) string {
	label = strings.ToLower(label)
	label = strings.Trim(label, " \n\t")
	return whitespaceRegex.ReplaceAllString(label, " ")
}

// MatchKeyword reports whether the normalized text contains any of the
// given keywords. Keywords are expected to be lowercase already.
func MatchKeyword(text string, keywords []string) bool {
	text = NormalizeLabel(text)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
