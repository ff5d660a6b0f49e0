package digest

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"BioDigest/internal/domain"
)

func TestNormalizeAuthorsFromNameList(t *testing.T) {
	t.Parallel()

	n := Normalizer{AbstractMaxChars: 500}
	article := n.Normalize(domain.RawRecord{
		NativeID:    "PMID:1",
		AuthorNames: []string{"Jane Roe", "John Doe"},
	})

	if len(article.Authors) != 2 || article.Authors[0] != "Jane Roe" {
		t.Fatalf("unexpected authors: %v", article.Authors)
	}
}

func TestNormalizeAuthorsFromCommaText(t *testing.T) {
	t.Parallel()

	n := Normalizer{AbstractMaxChars: 500}
	article := n.Normalize(domain.RawRecord{
		NativeID:   "doi:1",
		AuthorText: " Jane Roe ,John Doe,, ",
	})

	want := []string{"Jane Roe", "John Doe"}
	if len(article.Authors) != len(want) {
		t.Fatalf("expected %d authors, got %v", len(want), article.Authors)
	}
	for i, name := range want {
		if article.Authors[i] != name {
			t.Fatalf("author %d: expected %q, got %q", i, name, article.Authors[i])
		}
	}
}

func TestNormalizeAuthorsFallback(t *testing.T) {
	t.Parallel()

	n := Normalizer{}
	article := n.Normalize(domain.RawRecord{NativeID: "x"})

	if len(article.Authors) != 1 || article.Authors[0] != "Unknown" {
		t.Fatalf("expected Unknown placeholder, got %v", article.Authors)
	}
}

func TestNormalizePrefersDOILink(t *testing.T) {
	t.Parallel()

	n := Normalizer{}
	article := n.Normalize(domain.RawRecord{
		NativeID: "PMID:2",
		Link:     "https://pubmed.ncbi.nlm.nih.gov/2/",
		DOI:      "10.1000/xyz123",
	})

	if article.Link != "https://doi.org/10.1000/xyz123" {
		t.Fatalf("unexpected link: %s", article.Link)
	}

	plain := n.Normalize(domain.RawRecord{NativeID: "3", Link: "https://example.org/3"})
	if plain.Link != "https://example.org/3" {
		t.Fatalf("unexpected fallback link: %s", plain.Link)
	}
}

func TestNormalizeAbstractTruncation(t *testing.T) {
	t.Parallel()

	n := Normalizer{AbstractMaxChars: 10}
	article := n.Normalize(domain.RawRecord{
		NativeID: "x",
		Summary:  "0123456789 overflow",
	})

	if !strings.HasSuffix(article.Abstract, "…") {
		t.Fatalf("expected truncation marker, got %q", article.Abstract)
	}
	if len([]rune(strings.TrimSuffix(article.Abstract, "…"))) > 10 {
		t.Fatalf("abstract longer than limit: %q", article.Abstract)
	}
}

func TestNormalizeAbstractMultibyteTruncation(t *testing.T) {
	t.Parallel()

	n := Normalizer{AbstractMaxChars: 4}
	article := n.Normalize(domain.RawRecord{
		NativeID: "x",
		Summary:  "肿瘤微环境研究进展",
	})

	if article.Abstract != "肿瘤微环…" {
		t.Fatalf("unexpected multibyte truncation: %q", article.Abstract)
	}
}

func TestNormalizeStripsHTMLAndWhitespace(t *testing.T) {
	t.Parallel()

	n := Normalizer{AbstractMaxChars: 500}
	article := n.Normalize(domain.RawRecord{
		NativeID: "x",
		Title:    "  A\n  title  ",
		Summary:  "<p>Line one.</p>\n<p>Line\ttwo.</p>",
	})

	if article.Title != "A title" {
		t.Fatalf("unexpected title: %q", article.Title)
	}
	if article.Abstract != "Line one. Line two." {
		t.Fatalf("unexpected abstract: %q", article.Abstract)
	}
}

func TestNormalizeCategoryDefault(t *testing.T) {
	t.Parallel()

	n := Normalizer{DefaultCategory: "cancer-biology"}

	withCategory := n.Normalize(domain.RawRecord{NativeID: "1", Category: "immunology"})
	if withCategory.PrimaryCategory != "immunology" {
		t.Fatalf("unexpected category: %s", withCategory.PrimaryCategory)
	}

	without := n.Normalize(domain.RawRecord{NativeID: "2"})
	if without.PrimaryCategory != "cancer-biology" {
		t.Fatalf("expected default category, got %s", without.PrimaryCategory)
	}
}

func TestArticleJSONShape(t *testing.T) {
	t.Parallel()

	article := domain.Article{
		ID:              "PMID:42",
		Title:           "Sample",
		Authors:         []string{"Jane Roe"},
		PrimaryCategory: "cancer-biology",
		Published:       time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Link:            "https://doi.org/10.1/x",
		Abstract:        "text",
		Source:          "pubmed",
	}

	raw, err := json.Marshal(article)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"id", "title", "authors", "primary_category", "published", "link", "abstract"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing json key %q", key)
		}
	}
	if _, ok := decoded["source"]; ok {
		t.Fatal("source must not be serialized")
	}
}
