package provider

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const previewLength = 140

// plainText reduces rich-text provider fields to a single line of text and
// truncates it to max runes.
func plainText(s string, max int) string {
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	s = strings.Join(strings.Fields(s), " ")
	if max > 0 && utf8.RuneCountInString(s) > max {
		runes := []rune(s)
		s = strings.TrimSpace(string(runes[:max])) + "…"
	}
	return s
}
