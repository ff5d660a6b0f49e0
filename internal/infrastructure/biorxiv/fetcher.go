package biorxiv

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"BioDigest/internal/config"
	"BioDigest/internal/domain"
	"BioDigest/internal/ports"
)

const (
	sourceName = "biorxiv"
	userAgent  = "BioDigest/1.0"

	// Feeds carry at most a week of entries; the coarse cutoff stays in range.
	minDaysBack = 1
	maxDaysBack = 7
)

// Fetcher polls the configured preprint subject feeds.
type Fetcher struct {
	feeds     []string
	parser    *gofeed.Parser
	logger    *slog.Logger
	feedDelay time.Duration
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher wires the feed list and an HTTP client; client may be nil.
func NewFetcher(cfg config.BioRxivConfig, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = userAgent

	return &Fetcher{
		feeds:     cfg.Feeds,
		parser:    parser,
		logger:    logger,
		feedDelay: time.Second,
	}
}

// Name identifies the source in logs.
func (f *Fetcher) Name() string {
	return sourceName
}

// Fetch retrieves entries from every subject feed, deduplicating by native
// entry id and discarding entries older than the coarse days-back cutoff.
// A feed that fails to download or parse is skipped; the remaining feeds
// still contribute. Zero results is a valid outcome, not an error.
func (f *Fetcher) Fetch(ctx context.Context, window domain.Window) ([]domain.RawRecord, error) {
	days := daysInWindow(window)
	cutoff := window.Now.AddDate(0, 0, -days)

	records := make([]domain.RawRecord, 0)
	seen := map[string]struct{}{}

	for i, feedURL := range f.feeds {
		feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
		if err != nil {
			f.warn("feed fetch failed", "feed", feedURL, "error", err)
			continue
		}

		for _, item := range feed.Items {
			id := item.GUID
			if id == "" {
				id = item.Link
			}
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			published := f.publishTime(item, window.Now)
			if published.Before(cutoff) {
				continue
			}

			records = append(records, domain.RawRecord{
				NativeID:   id,
				Title:      item.Title,
				Summary:    item.Description,
				AuthorText: authorText(item),
				Category:   firstCategory(item),
				Published:  published,
				Link:       item.Link,
				Source:     sourceName,
			})
		}

		f.debug("feed fetched", "feed", feedURL, "entries", len(feed.Items))

		if f.feedDelay > 0 && i < len(f.feeds)-1 {
			time.Sleep(f.feedDelay)
		}
	}

	return records, nil
}

// publishTime falls back to the run time when the feed date is unparseable;
// that is a data-quality event, not a failure.
func (f *Fetcher) publishTime(item *gofeed.Item, now time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		return *item.UpdatedParsed
	}
	f.warn("entry has no parseable publish date", "id", item.GUID, "title", item.Title)
	return now
}

func authorText(item *gofeed.Item) string {
	names := make([]string, 0, len(item.Authors))
	for _, author := range item.Authors {
		if author != nil && author.Name != "" {
			names = append(names, author.Name)
		}
	}
	return strings.Join(names, ", ")
}

func firstCategory(item *gofeed.Item) string {
	if len(item.Categories) > 0 {
		return item.Categories[0]
	}
	return ""
}

func daysInWindow(window domain.Window) int {
	days := int(window.Now.Sub(window.Since).Hours()/24) + 1
	if days < minDaysBack {
		return minDaysBack
	}
	if days > maxDaysBack {
		return maxDaysBack
	}
	return days
}

func (f *Fetcher) warn(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}

func (f *Fetcher) debug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
