// Package htmltext turns the HTML fragments piazza stores for post bodies
// into plain text.
package htmltext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

const blockSelector = "p, div, li, pre, blockquote, h1, h2, h3, h4, h5, h6, tr"

// ToText drops markup, keeps line structure, and decodes entities. On a parse
// failure the input is returned unchanged.
func ToText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.TrimSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		logrus.WithError(err).Error("goquery.NewDocumentFromReader failed")
		return fragment
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return squeezeLines(doc.Text())
}

// squeezeLines trims every line and collapses runs of blank lines into one.
func squeezeLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
