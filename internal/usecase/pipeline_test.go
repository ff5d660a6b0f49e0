package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"BioDigest/internal/digest"
	"BioDigest/internal/domain"
	"BioDigest/internal/ports"
	"BioDigest/internal/runstate"
)

type fakeSource struct {
	name    string
	records []domain.RawRecord
	err     error
	calls   int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, window domain.Window) ([]domain.RawRecord, error) {
	f.calls++
	return f.records, f.err
}

type fakeSummarizer struct {
	reply string
	err   error
	calls int
}

func (f *fakeSummarizer) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakeMailer struct {
	digestCalls  int
	alertCalls   int
	digestErr    error
	lastSubject  string
	lastMarkdown string
}

func (f *fakeMailer) SendDigest(ctx context.Context, subject, markdown string) error {
	f.digestCalls++
	f.lastSubject = subject
	f.lastMarkdown = markdown
	return f.digestErr
}

func (f *fakeMailer) SendAlert(ctx context.Context, subject, markdown string) error {
	f.alertCalls++
	return nil
}

type fakeStore struct {
	raw     map[string][]domain.Article
	prompts map[string]string
	reports map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		raw:     map[string][]domain.Article{},
		prompts: map[string]string{},
		reports: map[string]string{},
	}
}

func (f *fakeStore) SaveRaw(period string, articles []domain.Article) error {
	f.raw[period] = articles
	return nil
}

func (f *fakeStore) SavePrompt(period, text string) error {
	f.prompts[period] = text
	return nil
}

func (f *fakeStore) SaveReport(period, text string) error {
	f.reports[period] = text
	return nil
}

var _ ports.ArticleSource = (*fakeSource)(nil)
var _ ports.Mailer = (*fakeMailer)(nil)
var _ ports.ArtifactStore = (*fakeStore)(nil)

func fixedNow() time.Time {
	return time.Date(2025, time.June, 1, 21, 0, 0, 0, time.UTC)
}

func newTestPipeline(deps PipelineDeps) *Pipeline {
	if deps.Now == nil {
		deps.Now = fixedNow
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.WindowHours == 0 {
		deps.WindowHours = 12
	}
	if len(deps.ReportTimes) == 0 {
		deps.ReportTimes = []string{"09:00", "21:00"}
	}
	return NewPipeline(deps)
}

func inWindowRecord(id string) domain.RawRecord {
	return domain.RawRecord{
		NativeID:  id,
		Title:     "tumor progression study " + id,
		Summary:   "cancer research abstract",
		Published: fixedNow().Add(-time.Hour),
		Link:      "https://example.org/" + id,
		Source:    "test",
	}
}

func TestRunHappyPath(t *testing.T) {
	t.Parallel()

	source := &fakeSource{name: "test", records: []domain.RawRecord{inWindowRecord("a1")}}
	summarizer := &fakeSummarizer{reply: "## Highlights\n\nOne paper."}
	mailer := &fakeMailer{}
	store := newFakeStore()
	state := runstate.New()

	p := newTestPipeline(PipelineDeps{
		Sources:    []ports.ArticleSource{source},
		Normalizer: digest.Normalizer{AbstractMaxChars: 500},
		Generator:  &digest.Generator{Summarizer: summarizer, Mode: domain.ModeConcise},
		Mailer:     mailer,
		Store:      store,
		State:      state,
	})

	if err := p.Run(context.Background(), "Evening Digest"); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	if mailer.digestCalls != 1 {
		t.Fatalf("expected 1 delivery, got %d", mailer.digestCalls)
	}
	if !strings.Contains(mailer.lastSubject, "Evening Digest") {
		t.Fatalf("unexpected subject: %s", mailer.lastSubject)
	}
	if len(store.raw["2025-06-01-PM"]) != 1 {
		t.Fatalf("expected raw artifact for the period, got %v", store.raw)
	}
	if store.reports["2025-06-01-PM"] == "" {
		t.Fatal("expected report artifact")
	}
	if store.prompts["2025-06-01-PM"] == "" {
		t.Fatal("expected prompt-context artifact")
	}

	snap := state.Snapshot()
	if snap.TotalReports != 1 || snap.TotalPapers != 1 {
		t.Fatalf("unexpected counters: reports=%d papers=%d", snap.TotalReports, snap.TotalPapers)
	}
	if len(snap.Errors) != 0 {
		t.Fatalf("expected clean error log, got %v", snap.Errors)
	}
}

func TestRunZeroArticlesShortCircuits(t *testing.T) {
	t.Parallel()

	source := &fakeSource{name: "test"}
	summarizer := &fakeSummarizer{reply: "unused"}
	mailer := &fakeMailer{}
	store := newFakeStore()
	state := runstate.New()

	p := newTestPipeline(PipelineDeps{
		Sources:    []ports.ArticleSource{source},
		Normalizer: digest.Normalizer{},
		Generator:  &digest.Generator{Summarizer: summarizer, Mode: domain.ModeConcise},
		Mailer:     mailer,
		Store:      store,
		State:      state,
	})

	if err := p.Run(context.Background(), "Evening Digest"); err != nil {
		t.Fatalf("expected success on empty window, got %v", err)
	}

	if summarizer.calls != 0 {
		t.Fatal("summarizer must not run for an empty digest")
	}
	if mailer.digestCalls != 0 || mailer.alertCalls != 0 {
		t.Fatal("nothing may be sent for an empty digest")
	}
	if len(store.raw) != 0 {
		t.Fatal("no artifacts may be written for an empty digest")
	}

	snap := state.Snapshot()
	if snap.TotalReports != 0 {
		t.Fatalf("report counter must stay unchanged, got %d", snap.TotalReports)
	}
	if snap.LastFetch.IsZero() {
		t.Fatal("fetch must still be recorded")
	}
}

func TestRunOneSourceFailingDegradesOnly(t *testing.T) {
	t.Parallel()

	broken := &fakeSource{name: "broken", err: fmt.Errorf("upstream down")}
	healthy := &fakeSource{name: "healthy", records: []domain.RawRecord{inWindowRecord("a1")}}
	mailer := &fakeMailer{}
	state := runstate.New()

	p := newTestPipeline(PipelineDeps{
		Sources:    []ports.ArticleSource{broken, healthy},
		Normalizer: digest.Normalizer{},
		Generator:  &digest.Generator{Summarizer: &fakeSummarizer{reply: "report"}, Mode: domain.ModeConcise},
		Mailer:     mailer,
		Store:      newFakeStore(),
		State:      state,
	})

	if err := p.Run(context.Background(), "Evening Digest"); err != nil {
		t.Fatalf("expected run to survive one failing source, got %v", err)
	}
	if mailer.digestCalls != 1 {
		t.Fatalf("expected delivery from the healthy source, got %d", mailer.digestCalls)
	}
	if len(state.Snapshot().Errors) != 0 {
		t.Fatal("a degraded run must not be recorded as an error")
	}
}

func TestRunSummarizerFailureIsFatal(t *testing.T) {
	t.Parallel()

	source := &fakeSource{name: "test", records: []domain.RawRecord{inWindowRecord("a1")}}
	mailer := &fakeMailer{}
	state := runstate.New()

	p := newTestPipeline(PipelineDeps{
		Sources:    []ports.ArticleSource{source},
		Normalizer: digest.Normalizer{},
		Generator:  &digest.Generator{Summarizer: &fakeSummarizer{err: fmt.Errorf("api down")}, Mode: domain.ModeConcise},
		Mailer:     mailer,
		Store:      newFakeStore(),
		State:      state,
	})

	err := p.Run(context.Background(), "Evening Digest")
	if err == nil {
		t.Fatal("expected summarization failure to surface")
	}

	if mailer.digestCalls != 0 {
		t.Fatal("no digest may be delivered after a summarization failure")
	}
	if mailer.alertCalls != 1 {
		t.Fatalf("expected exactly one alert, got %d", mailer.alertCalls)
	}

	snap := state.Snapshot()
	if len(snap.Errors) != 1 {
		t.Fatalf("expected exactly one error entry, got %d", len(snap.Errors))
	}
	if !strings.Contains(snap.Errors[0].Message, "Evening Digest") {
		t.Fatalf("error entry should name the period: %q", snap.Errors[0].Message)
	}
	if !strings.Contains(snap.Errors[0].Message, string(StageSummarizing)) {
		t.Fatalf("error entry should name the failed stage: %q", snap.Errors[0].Message)
	}
	if snap.TotalReports != 0 {
		t.Fatalf("report counter must stay unchanged, got %d", snap.TotalReports)
	}
}

func TestRunDeliveryFailureIsFatal(t *testing.T) {
	t.Parallel()

	source := &fakeSource{name: "test", records: []domain.RawRecord{inWindowRecord("a1")}}
	mailer := &fakeMailer{digestErr: fmt.Errorf("all recipients rejected")}
	state := runstate.New()

	p := newTestPipeline(PipelineDeps{
		Sources:    []ports.ArticleSource{source},
		Normalizer: digest.Normalizer{},
		Generator:  &digest.Generator{Summarizer: &fakeSummarizer{reply: "report"}, Mode: domain.ModeConcise},
		Mailer:     mailer,
		Store:      newFakeStore(),
		State:      state,
	})

	if err := p.Run(context.Background(), "Evening Digest"); err == nil {
		t.Fatal("expected delivery failure to surface")
	}
	if mailer.alertCalls != 1 {
		t.Fatalf("expected one alert attempt, got %d", mailer.alertCalls)
	}
	if state.Snapshot().TotalReports != 0 {
		t.Fatal("report counter must not advance on failed delivery")
	}
}

func TestRunFiltersByConfiguredQueries(t *testing.T) {
	t.Parallel()

	offTopic := domain.RawRecord{
		NativeID:  "plant1",
		Title:     "photosynthesis in plant leaves",
		Summary:   "botany",
		Published: fixedNow().Add(-time.Hour),
		Source:    "test",
	}
	source := &fakeSource{name: "test", records: []domain.RawRecord{inWindowRecord("a1"), offTopic}}
	summarizer := &fakeSummarizer{reply: "report"}
	store := newFakeStore()

	p := newTestPipeline(PipelineDeps{
		Sources:    []ports.ArticleSource{source},
		Normalizer: digest.Normalizer{},
		Generator:  &digest.Generator{Summarizer: summarizer, Mode: domain.ModeConcise},
		Mailer:     &fakeMailer{},
		Store:      store,
		State:      runstate.New(),
		Queries:    []domain.QueryBlock{{Any: []string{"tumor"}}},
		Exclude:    []string{"plant"},
	})

	if err := p.Run(context.Background(), "Evening Digest"); err != nil {
		t.Fatalf("Run error: %v", err)
	}

	saved := store.raw["2025-06-01-PM"]
	if len(saved) != 1 || saved[0].ID != "a1" {
		t.Fatalf("expected only the on-topic article, got %v", saved)
	}
}
