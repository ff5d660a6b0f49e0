package pubmed

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"BioDigest/internal/config"
	"BioDigest/internal/domain"
	"BioDigest/internal/ports"
)

const (
	sourceName = "pubmed"
	userAgent  = "BioDigest/1.0"

	// E-utilities allows at most 200 ids per efetch call.
	detailBatchSize = 200
	// Phase-1 keyword OR-clause uses at most this many keywords.
	maxQueryKeywords = 5
)

// Fetcher runs the two-phase E-utilities query: esearch per venue for ids,
// then batched efetch for full records.
type Fetcher struct {
	baseURL     string
	venues      []string
	keywords    []string
	maxPerVenue int
	daysBack    int
	client      *http.Client
	logger      *slog.Logger
	venueDelay  time.Duration
	batchDelay  time.Duration
}

var _ ports.ArticleSource = (*Fetcher)(nil)

// NewFetcher wires the venue allow-list and derived topic keywords;
// client may be nil.
func NewFetcher(cfg config.PubMedConfig, keywords []string, client *http.Client, logger *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Fetcher{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		venues:      cfg.Venues,
		keywords:    keywords,
		maxPerVenue: cfg.MaxPerVenue,
		daysBack:    cfg.DaysBack,
		client:      client,
		logger:      logger,
		venueDelay:  time.Second,
		batchDelay:  500 * time.Millisecond,
	}
}

// Name identifies the source in logs.
func (f *Fetcher) Name() string {
	return sourceName
}

// Fetch searches every configured venue for recent matches and retrieves the
// full records in batches. A venue whose search fails is skipped; it never
// aborts the overall fetch. The final set is deduplicated by PMID and
// re-checked against the topic keywords.
func (f *Fetcher) Fetch(ctx context.Context, window domain.Window) ([]domain.RawRecord, error) {
	if len(f.keywords) == 0 {
		f.warn("no topic keywords derived from query blocks, skipping search")
		return nil, nil
	}

	days := f.effectiveDays(window)
	end := window.Now
	start := end.AddDate(0, 0, -days)
	keywordClause := buildKeywordClause(f.keywords)

	var pmids []string
	seen := map[string]struct{}{}

	for i, venue := range f.venues {
		ids, err := f.search(ctx, venue, keywordClause, start, end)
		if err != nil {
			f.warn("venue search failed", "venue", venue, "error", err)
			continue
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			pmids = append(pmids, id)
		}
		f.debug("venue searched", "venue", venue, "ids", len(ids))

		if f.venueDelay > 0 && i < len(f.venues)-1 {
			time.Sleep(f.venueDelay)
		}
	}

	records, err := f.fetchDetails(ctx, pmids)
	if err != nil {
		return nil, err
	}

	return f.keywordFilter(records), nil
}

// search is phase 1: one esearch call scoped to a venue, the keyword
// OR-clause and the date range.
func (f *Fetcher) search(ctx context.Context, venue, keywordClause string, start, end time.Time) ([]string, error) {
	term := fmt.Sprintf("(%s[Journal]) AND (%s) AND (%s:%s[dp])",
		venue, keywordClause, start.Format("2006/01/02"), end.Format("2006/01/02"))

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(f.maxPerVenue))
	params.Set("retmode", "json")
	params.Set("sort", "pub_date")

	body, err := f.get(ctx, f.baseURL+"/esearch.fcgi?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var result struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}
	return result.ESearchResult.IDList, nil
}

// fetchDetails is phase 2: batched efetch calls returning the record XML.
// A batch that fails is skipped so earlier batches still contribute.
func (f *Fetcher) fetchDetails(ctx context.Context, pmids []string) ([]domain.RawRecord, error) {
	records := make([]domain.RawRecord, 0, len(pmids))

	for offset := 0; offset < len(pmids); offset += detailBatchSize {
		limit := offset + detailBatchSize
		if limit > len(pmids) {
			limit = len(pmids)
		}
		batch := pmids[offset:limit]

		params := url.Values{}
		params.Set("db", "pubmed")
		params.Set("id", strings.Join(batch, ","))
		params.Set("retmode", "xml")

		body, err := f.get(ctx, f.baseURL+"/efetch.fcgi?"+params.Encode())
		if err != nil {
			f.warn("detail batch failed", "batch", len(batch), "error", err)
			continue
		}

		var result articleSet
		if err := xml.Unmarshal(body, &result); err != nil {
			f.warn("detail batch unparseable", "batch", len(batch), "error", err)
			continue
		}

		for _, article := range result.Articles {
			if rec, ok := f.toRecord(article); ok {
				records = append(records, rec)
			}
		}

		if f.batchDelay > 0 && limit < len(pmids) {
			time.Sleep(f.batchDelay)
		}
	}

	return records, nil
}

func (f *Fetcher) get(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) toRecord(article pubmedArticle) (domain.RawRecord, bool) {
	pmid := strings.TrimSpace(article.PMID)
	if pmid == "" {
		return domain.RawRecord{}, false
	}

	authors := make([]string, 0, len(article.Authors))
	for _, author := range article.Authors {
		if author.LastName == "" {
			continue
		}
		authors = append(authors, strings.TrimSpace(author.ForeName+" "+author.LastName))
	}

	link := "https://pubmed.ncbi.nlm.nih.gov/" + pmid + "/"
	doi := article.doi()

	return domain.RawRecord{
		NativeID:    "PMID:" + pmid,
		Title:       article.Title,
		Summary:     strings.Join(article.AbstractTexts, " "),
		AuthorNames: authors,
		Published:   f.publishDate(article.PubDate),
		Link:        link,
		DOI:         doi,
		Source:      sourceName,
	}, true
}

// publishDate parses the Year/Month/Day triple; month names are mapped and a
// failed parse falls back to the current time.
func (f *Fetcher) publishDate(date pubmedDate) time.Time {
	year, err := strconv.Atoi(strings.TrimSpace(date.Year))
	if err != nil {
		f.warn("record has no parseable publish year")
		return time.Now()
	}
	month := monthNumber(date.Month)
	day, err := strconv.Atoi(strings.TrimSpace(date.Day))
	if err != nil || day < 1 || day > 31 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func (f *Fetcher) keywordFilter(records []domain.RawRecord) []domain.RawRecord {
	out := make([]domain.RawRecord, 0, len(records))
	for _, rec := range records {
		text := strings.ToLower(rec.Title + " " + rec.Summary)
		for _, kw := range f.keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}

// effectiveDays widens the configured days-back to cover the whole window so
// the coarse pre-filter can never drop in-window articles.
func (f *Fetcher) effectiveDays(window domain.Window) int {
	days := f.daysBack
	if days <= 0 {
		days = 3
	}
	windowDays := int(window.Now.Sub(window.Since).Hours()/24) + 1
	if windowDays > days {
		return windowDays
	}
	return days
}

// buildKeywordClause quotes and OR-joins the leading topic keywords.
func buildKeywordClause(keywords []string) string {
	limit := len(keywords)
	if limit > maxQueryKeywords {
		limit = maxQueryKeywords
	}
	quoted := make([]string, 0, limit)
	for _, kw := range keywords[:limit] {
		quoted = append(quoted, `"`+kw+`"`)
	}
	return strings.Join(quoted, " OR ")
}

func monthNumber(value string) int {
	value = strings.TrimSpace(value)
	if value == "" {
		return 1
	}
	months := map[string]int{
		"Jan": 1, "Feb": 2, "Mar": 3, "Apr": 4,
		"May": 5, "Jun": 6, "Jul": 7, "Aug": 8,
		"Sep": 9, "Oct": 10, "Nov": 11, "Dec": 12,
	}
	if n, ok := months[value]; ok {
		return n
	}
	if n, err := strconv.Atoi(value); err == nil && n >= 1 && n <= 12 {
		return n
	}
	return 1
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
