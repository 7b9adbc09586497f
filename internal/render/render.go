// Package render turns stored article markup into HTML that is safe to put
// in front of a reader. Stored content is treated as untrusted: sanitizing
// is this package's job, not the caller's.
package render

import (
	"html/template"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer converts a markup string into displayable HTML.
type Renderer interface {
	Render(markup string) template.HTML
}

// HTMLRenderer sanitizes article HTML with a bluemonday policy that keeps
// structure, formatting, links, images and tables and drops scripts, styles
// and event handlers.
type HTMLRenderer struct {
	policy *bluemonday.Policy
}

// NewHTMLRenderer builds the article policy.
func NewHTMLRenderer() *HTMLRenderer {
	p := bluemonday.UGCPolicy()

	p.AllowElements("article", "section", "figure", "figcaption", "mark", "small")
	p.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")

	// Links open in a new tab without handing over window.opener.
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &HTMLRenderer{policy: p}
}

// Render returns the sanitized HTML for markup.
func (r *HTMLRenderer) Render(markup string) template.HTML {
	return template.HTML(r.policy.Sanitize(markup)) //nolint:gosec // sanitized above
}

// PlainText strips markup, keeping block boundaries as single spaces and
// collapsing runs of whitespace.
func PlainText(markup string) string {
	trimmed := strings.TrimSpace(markup)
	if trimmed == "" {
		return ""
	}
	if !strings.Contains(trimmed, "<") {
		return normalizeWhitespace(trimmed)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return normalizeWhitespace(bluemonday.StrictPolicy().Sanitize(trimmed))
	}
	doc.Find("script, style, noscript, template").Remove()
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		s.AfterHtml(" ")
	})
	return normalizeWhitespace(doc.Find("body").Text())
}

const blockSelector = "p, div, br, li, tr, td, th, h1, h2, h3, h4, h5, h6, blockquote, pre, section, article, figure"

// Excerpt returns at most maxRunes runes of the article's plain text, cut at
// a word boundary with an ellipsis when shortened.
func Excerpt(markup string, maxRunes int) string {
	text := PlainText(markup)
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}

	runes := []rune(text)[:maxRunes]
	for i := len(runes) - 1; i > maxRunes/2; i-- {
		if runes[i] == ' ' {
			runes = runes[:i]
			break
		}
	}
	return strings.TrimSpace(string(runes)) + "…"
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
