package normalizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelector = "p, div, li, tr, h1, h2, h3, h4, h5, h6, section, article, table, ul, ol"

// Matches an opening, closing or self-closing tag of a known HTML element.
// "BP < 120", "HR > 60" and shorthand such as "<a week>" do not match.
var markupTagRe = regexp.MustCompile(
	`(?i)</?(p|div|br|span|b|i|u|li|ul|ol|table|tr|td|th|h[1-6]|html|body|head|script|style)(\s[^<>]*)?/?>`,
)

// HasMarkup reports whether text looks like HTML pasted from an EHR.
func HasMarkup(text string) bool {
	return markupTagRe.MatchString(text)
}

// StripMarkup returns the visible text of an HTML fragment, with block
// elements turned into line breaks. Text without tags is returned unchanged.
func StripMarkup(text string) (string, error) {
	if !HasMarkup(text) {
		return text, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("parse markup: %w", err)
	}

	doc.Find("script, style, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).AppendHtml("\n")

	return doc.Text(), nil
}
