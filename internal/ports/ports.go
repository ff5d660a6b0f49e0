package ports

import (
	"context"
	"time"

	"BioDigest/internal/domain"
)

// ArticleSource pulls raw records from one upstream provider for a window.
// Implementations absorb per-feed/per-venue failures and return whatever
// subset succeeded; a zero-length result is not an error.
type ArticleSource interface {
	Name() string
	Fetch(ctx context.Context, window domain.Window) ([]domain.RawRecord, error)
}

// Summarizer produces a chat completion for the populated digest prompt.
type Summarizer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Mailer delivers the rendered digest and error notifications.
// SendDigest returns nil when at least one recipient accepted the message.
type Mailer interface {
	SendDigest(ctx context.Context, subject, markdown string) error
	SendAlert(ctx context.Context, subject, markdown string) error
}

// ArtifactStore persists the write-once per-period blobs.
type ArtifactStore interface {
	SaveRaw(period string, articles []domain.Article) error
	SavePrompt(period, text string) error
	SaveReport(period, text string) error
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
