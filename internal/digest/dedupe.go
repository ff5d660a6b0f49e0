package digest

import (
	"sort"

	"BioDigest/internal/domain"
)

// Dedupe keeps the first-seen article per ID, preserving relative order.
func Dedupe(articles []domain.Article) []domain.Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if _, ok := seen[article.ID]; ok {
			continue
		}
		seen[article.ID] = struct{}{}
		out = append(out, article)
	}
	return out
}

// ClampToWindow drops articles whose timestamp lies outside [Since, Now].
// Fetchers window only coarsely by whole days, so this is the precise check.
func ClampToWindow(articles []domain.Article, window domain.Window) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, article := range articles {
		if window.Contains(article.Published) {
			out = append(out, article)
		}
	}
	return out
}

// SortAndCap orders articles by publish time descending (stable, so ties keep
// their original relative order) and truncates to maxItems when positive.
func SortAndCap(articles []domain.Article, maxItems int) []domain.Article {
	out := make([]domain.Article, len(articles))
	copy(out, articles)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Published.After(out[j].Published)
	})
	if maxItems > 0 && len(out) > maxItems {
		out = out[:maxItems]
	}
	return out
}

// Prepare runs the merge-stage sequence: dedupe, window validation, sort, cap.
func Prepare(articles []domain.Article, window domain.Window, maxItems int) []domain.Article {
	return SortAndCap(ClampToWindow(Dedupe(articles), window), maxItems)
}
