package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"BioDigest/internal/digest"
	"BioDigest/internal/domain"
	"BioDigest/internal/period"
	"BioDigest/internal/ports"
	"BioDigest/internal/runstate"
)

// Stage names the orchestrator states, used for logging and error context.
type Stage string

const (
	StageIdle            Stage = "idle"
	StageWindowComputed  Stage = "window_computed"
	StageFetching        Stage = "fetching"
	StageNormalizing     Stage = "normalizing"
	StageFiltering       Stage = "filtering"
	StagePersistedRaw    Stage = "persisted_raw"
	StageSummarizing     Stage = "summarizing"
	StagePersistedReport Stage = "persisted_report"
	StageDelivering      Stage = "delivering"
	StageErrorNotifying  Stage = "error_notifying"
	StageDone            Stage = "done"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Sources    []ports.ArticleSource
	Normalizer digest.Normalizer
	Generator  *digest.Generator
	Mailer     ports.Mailer
	Store      ports.ArtifactStore
	State      *runstate.State

	Queries     []domain.QueryBlock
	Exclude     []string
	MaxItems    int
	WindowHours int
	ReportTimes []string
	Location    *time.Location

	Logger *slog.Logger
	Now    func() time.Time
}

// Pipeline sequences one digest run: fetch, normalize, filter, dedupe,
// summarize, persist, deliver. A single run executes on one goroutine; the
// invocation layer guarantees at most one run at a time.
type Pipeline struct {
	deps  PipelineDeps
	stage Stage
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	return &Pipeline{deps: deps, stage: StageIdle}
}

// Run executes one full digest cycle for the given period label. Failures are
// logged, recorded into the run state, and reported via a best-effort error
// notification; they never propagate as a crash of the long-running process.
func (p *Pipeline) Run(ctx context.Context, label string) error {
	log := p.deps.Logger
	log.Info("starting digest run", "period", label)

	err := p.run(ctx, label)
	if err == nil {
		p.transition(StageDone)
		log.Info("digest run complete", "period", label)
		return nil
	}

	failedAt := p.stage
	p.transition(StageErrorNotifying)
	message := fmt.Sprintf("generating %s failed at stage %s: %v", label, failedAt, err)
	log.Error("digest run failed", "period", label, "stage", string(failedAt), "error", err)
	if p.deps.State != nil {
		p.deps.State.RecordError(message)
	}
	p.notifyError(ctx, message)
	p.transition(StageDone)
	return err
}

func (p *Pipeline) run(ctx context.Context, label string) error {
	log := p.deps.Logger

	now := p.deps.Now().In(p.deps.Location)
	window := period.Compute(now, p.deps.WindowHours, p.deps.ReportTimes)
	p.transition(StageWindowComputed)
	log.Info("computed window",
		"since", window.Since.Format(time.RFC3339),
		"now", window.Now.Format(time.RFC3339))

	p.transition(StageFetching)
	var merged []domain.Article
	for _, source := range p.deps.Sources {
		records, err := source.Fetch(ctx, window)
		if err != nil {
			// One source failing entirely degrades the run, it does not end it.
			log.Warn("source fetch failed", "source", source.Name(), "error", err)
			continue
		}
		log.Info("source fetched", "source", source.Name(), "records", len(records))

		p.transition(StageNormalizing)
		merged = append(merged, p.deps.Normalizer.NormalizeAll(records)...)
	}

	p.transition(StageFiltering)
	filtered := digest.Filter(merged, p.deps.Queries, p.deps.Exclude)
	prepared := digest.Prepare(filtered, window, p.deps.MaxItems)
	log.Info("prepared articles",
		"merged", len(merged), "filtered", len(filtered), "final", len(prepared))

	if p.deps.State != nil {
		p.deps.State.RecordFetch(now, len(prepared))
	}

	if len(prepared) == 0 {
		// An empty digest is never sent.
		log.Warn("no new articles in window, skipping digest", "period", label)
		return nil
	}

	periodID := period.Identifier(now)
	if err := p.deps.Store.SaveRaw(periodID, prepared); err != nil {
		return fmt.Errorf("persist raw articles: %w", err)
	}
	p.transition(StagePersistedRaw)
	log.Info("raw articles persisted", "periodId", periodID)

	p.transition(StageSummarizing)
	report, _, err := p.deps.Generator.Generate(ctx, label, window, prepared)
	if err != nil {
		return fmt.Errorf("generate digest: %w", err)
	}

	if err := p.deps.Store.SaveReport(periodID, report); err != nil {
		return fmt.Errorf("persist report: %w", err)
	}
	promptCtx, err := digest.BuildPromptContext(prepared, report)
	if err != nil {
		return fmt.Errorf("build prompt context: %w", err)
	}
	if err := p.deps.Store.SavePrompt(periodID, promptCtx); err != nil {
		return fmt.Errorf("persist prompt context: %w", err)
	}
	p.transition(StagePersistedReport)
	log.Info("report persisted", "periodId", periodID)

	p.transition(StageDelivering)
	subject := fmt.Sprintf("BioDigest %s - %s", label, now.Format("2006-01-02 15:04"))
	if err := p.deps.Mailer.SendDigest(ctx, subject, report); err != nil {
		return fmt.Errorf("deliver digest: %w", err)
	}

	if p.deps.State != nil {
		p.deps.State.RecordReport(now)
	}
	return nil
}

// notifyError sends the failure notification; its own failure is discarded.
func (p *Pipeline) notifyError(ctx context.Context, message string) {
	if p.deps.Mailer == nil {
		return
	}
	now := p.deps.Now().In(p.deps.Location)
	subject := "BioDigest error notification - " + now.Format("2006-01-02 15:04")
	body := fmt.Sprintf(
		"# System Error Notification\n\nOccurred at: %s\n\n## Error\n\n```\n%s\n```\n\nPlease check the system log.\n",
		now.Format("2006-01-02 15:04:05"), message)
	if err := p.deps.Mailer.SendAlert(ctx, subject, body); err != nil {
		p.deps.Logger.Warn("error notification failed", "error", err)
	}
}

func (p *Pipeline) transition(next Stage) {
	p.stage = next
}
