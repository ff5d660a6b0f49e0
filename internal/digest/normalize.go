package digest

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"BioDigest/internal/domain"
)

const truncationMarker = "…"

// Normalizer converts source-native records into canonical articles.
type Normalizer struct {
	AbstractMaxChars int
	DefaultCategory  string
}

// Normalize produces the canonical shape for one raw record.
func (n Normalizer) Normalize(rec domain.RawRecord) domain.Article {
	return domain.Article{
		ID:              rec.NativeID,
		Title:           collapseWhitespace(rec.Title),
		Authors:         n.authors(rec),
		PrimaryCategory: n.category(rec),
		Published:       rec.Published,
		Link:            preferredLink(rec),
		Abstract:        n.abstract(rec),
		Source:          rec.Source,
	}
}

// NormalizeAll maps a whole source batch, preserving order.
func (n Normalizer) NormalizeAll(recs []domain.RawRecord) []domain.Article {
	articles := make([]domain.Article, 0, len(recs))
	for _, rec := range recs {
		articles = append(articles, n.Normalize(rec))
	}
	return articles
}

func (n Normalizer) authors(rec domain.RawRecord) []string {
	if len(rec.AuthorNames) > 0 {
		return rec.AuthorNames
	}

	text := strings.TrimSpace(rec.AuthorText)
	if text == "" {
		return []string{"Unknown"}
	}

	var names []string
	for _, part := range strings.Split(text, ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return []string{"Unknown"}
	}
	return names
}

func (n Normalizer) category(rec domain.RawRecord) string {
	if rec.Category != "" {
		return rec.Category
	}
	return n.DefaultCategory
}

func (n Normalizer) abstract(rec domain.RawRecord) string {
	text := collapseWhitespace(stripHTML(rec.Summary))

	max := n.AbstractMaxChars
	if max <= 0 {
		max = 500
	}
	if utf8.RuneCountInString(text) > max {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:max])) + truncationMarker
	}
	return text
}

// preferredLink resolves through the DOI when the source reported one.
func preferredLink(rec domain.RawRecord) string {
	if rec.DOI != "" {
		return "https://doi.org/" + rec.DOI
	}
	return rec.Link
}

// stripHTML extracts plain text from feed summaries that carry markup.
func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
