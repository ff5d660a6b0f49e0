package digest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"BioDigest/internal/domain"
	"BioDigest/internal/ports"
)

// Generator turns a prepared article batch into the final report by filling
// the mode-specific prompt template and delegating to the summarization API.
type Generator struct {
	Summarizer   ports.Summarizer
	Mode         domain.DigestMode
	SystemPrompt string
	Logger       *slog.Logger
}

// Generate returns the report markdown together with the serialized article
// payload. The summarization call is the most failure-prone step of the whole
// pipeline; any transport error or empty completion is surfaced, never
// swallowed into an empty report.
func (g *Generator) Generate(ctx context.Context, periodLabel string, window domain.Window, articles []domain.Article) (string, string, error) {
	if g.Summarizer == nil {
		return "", "", fmt.Errorf("summarizer is not configured")
	}

	items, err := json.Marshal(articles)
	if err != nil {
		return "", "", fmt.Errorf("marshal articles: %w", err)
	}
	itemsJSON := string(items)

	prompt := BuildPrompt(
		g.Mode,
		periodLabel,
		window.Since.Format(time.RFC3339),
		window.Now.Format(time.RFC3339),
		len(articles),
		itemsJSON,
	)

	if g.Logger != nil {
		g.Logger.Info("requesting summary", "mode", string(g.Mode), "articles", len(articles))
	}

	report, err := g.Summarizer.Complete(ctx, g.SystemPrompt, prompt)
	if err != nil {
		return "", "", fmt.Errorf("generate summary: %w", err)
	}
	report = strings.TrimSpace(report)
	if report == "" {
		return "", "", fmt.Errorf("summarizer returned empty report")
	}

	// Trailing source section keeps the report auditable against its inputs.
	report += "\n\n---\n\n## Source Data\n\n```json\n" + itemsJSON + "\n```"

	return report, itemsJSON, nil
}

// BuildPromptContext assembles the conversation-context artifact persisted
// alongside the report, for follow-up questioning of the same period.
func BuildPromptContext(articles []domain.Article, report string) (string, error) {
	indented, err := json.MarshalIndent(articles, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal articles: %w", err)
	}
	return "# Source Items (JSON)\n" + string(indented) + "\n\n# Research Digest (Markdown)\n" + report, nil
}
