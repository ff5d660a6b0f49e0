package digest

import (
	"strings"

	"BioDigest/internal/domain"
)

// Filter applies the relevance rules: an article is dropped when any exclude
// keyword occurs in its case-folded title+abstract, otherwise it is kept when
// it satisfies at least one query block. Blocks are evaluated in configuration
// order and the first satisfied block wins. With no blocks configured every
// non-excluded article passes.
func Filter(articles []domain.Article, queries []domain.QueryBlock, exclude []string) []domain.Article {
	lowered := make([]string, 0, len(exclude))
	for _, kw := range exclude {
		if kw = strings.TrimSpace(kw); kw != "" {
			lowered = append(lowered, strings.ToLower(kw))
		}
	}

	filtered := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		text := strings.ToLower(article.Title + " " + article.Abstract)

		if containsAny(text, lowered) {
			continue
		}
		if len(queries) == 0 || matchesQueries(text, queries) {
			filtered = append(filtered, article)
		}
	}
	return filtered
}

func matchesQueries(text string, queries []domain.QueryBlock) bool {
	for _, block := range queries {
		if len(block.Any) > 0 && containsAnyFolded(text, block.Any) {
			return true
		}
		if len(block.All) > 0 && containsAllFolded(text, block.All) {
			return true
		}
	}
	return false
}

func containsAny(text string, loweredKeywords []string) bool {
	for _, kw := range loweredKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func containsAnyFolded(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func containsAllFolded(text string, keywords []string) bool {
	for _, kw := range keywords {
		if !strings.Contains(text, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}
