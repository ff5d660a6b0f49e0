package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"BioDigest/internal/config"
	"BioDigest/internal/digest"
	"BioDigest/internal/domain"
	"BioDigest/internal/infrastructure/biorxiv"
	"BioDigest/internal/infrastructure/llm"
	"BioDigest/internal/infrastructure/mail"
	"BioDigest/internal/infrastructure/pubmed"
	"BioDigest/internal/infrastructure/scheduler"
	"BioDigest/internal/infrastructure/store"
	"BioDigest/internal/period"
	"BioDigest/internal/ports"
	"BioDigest/internal/runstate"
	"BioDigest/internal/usecase"
)

// Application wires configuration to the pipeline and its adapters.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	pipeline *usecase.Pipeline
	state    *runstate.State
}

// New builds a runnable application instance.
func New(cfg config.Config, logger *slog.Logger) *Application {
	state := runstate.New()

	sources := []ports.ArticleSource{
		biorxiv.NewFetcher(cfg.Sources.BioRxiv, nil, logger.With("component", "source.biorxiv")),
		pubmed.NewFetcher(cfg.Sources.PubMed, topicKeywords(cfg.Queries), nil, logger.With("component", "source.pubmed")),
	}

	generator := &digest.Generator{
		Summarizer:   llm.NewClient(cfg.LLM),
		Mode:         cfg.Digest.DigestMode(),
		SystemPrompt: cfg.LLM.SystemPrompt,
		Logger:       logger.With("component", "generator"),
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Sources: sources,
		Normalizer: digest.Normalizer{
			AbstractMaxChars: cfg.Digest.AbstractMaxChars,
			DefaultCategory:  cfg.Sources.BioRxiv.DefaultCategory,
		},
		Generator:   generator,
		Mailer:      mail.NewSender(cfg.Mail, logger.With("component", "mail")),
		Store:       store.NewFileStore(cfg.Storage.DataDir),
		State:       state,
		Queries:     cfg.Queries,
		Exclude:     cfg.Exclude,
		MaxItems:    cfg.Digest.MaxItems,
		WindowHours: cfg.WindowHours,
		ReportTimes: cfg.ReportTimes,
		Location:    cfg.Location(),
		Logger:      logger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		state:    state,
	}
}

// RunOnce executes a single digest run for an explicit or auto-detected
// period ("am", "pm" or "auto").
func (a *Application) RunOnce(ctx context.Context, periodArg string) error {
	now := time.Now().In(a.cfg.Location())

	var label string
	switch strings.ToLower(strings.TrimSpace(periodArg)) {
	case "am":
		label = period.LabelMorning
	case "pm":
		label = period.LabelEvening
	case "", "auto":
		label = period.AutoLabel(now)
	default:
		return fmt.Errorf("unknown period %q (want am, pm or auto)", periodArg)
	}

	a.logger.Info("manual run triggered", "period", label)
	return a.pipeline.Run(ctx, label)
}

// Serve starts the recurring scheduler and blocks until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	a.logger.Info("starting digest service",
		"timezone", a.cfg.Timezone,
		"reportTimes", strings.Join(a.cfg.ReportTimes, ", "),
		"windowHours", a.cfg.WindowHours)

	driver, err := scheduler.NewDriver(a.cfg.ReportTimes, a.cfg.Location(), a.logger.With("component", "scheduler"))
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}

	job := func(trigger time.Time) {
		_ = a.pipeline.Run(ctx, period.LabelForHour(trigger.Hour()))
	}
	if err := driver.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	<-ctx.Done()
	a.logger.Info("shutting down")
	return driver.Stop(context.Background())
}

// PrintStatus writes the run-state snapshot for the status command.
func (a *Application) PrintStatus() {
	snap := a.state.Snapshot()
	uptime := time.Since(snap.StartTime).Truncate(time.Second)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("BioDigest - status")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("uptime:        %s\n", uptime)
	fmt.Printf("reports sent:  %d\n", snap.TotalReports)
	fmt.Printf("papers seen:   %d\n", snap.TotalPapers)
	fmt.Printf("timezone:      %s\n", a.cfg.Timezone)
	fmt.Printf("report times:  %s\n", strings.Join(a.cfg.ReportTimes, ", "))
	fmt.Printf("window hours:  %d\n", a.cfg.WindowHours)
	if !snap.LastFetch.IsZero() {
		fmt.Printf("last fetch:    %s\n", snap.LastFetch.Format("2006-01-02 15:04:05"))
	}
	if !snap.LastReport.IsZero() {
		fmt.Printf("last report:   %s\n", snap.LastReport.Format("2006-01-02 15:04:05"))
	}
	if len(snap.Errors) > 0 {
		recent := snap.Errors
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		fmt.Printf("recent errors (%d total):\n", len(snap.Errors))
		for _, entry := range recent {
			fmt.Printf("  %s  %s\n", entry.Time.Format("15:04:05"), entry.Message)
		}
	}
	fmt.Println(strings.Repeat("=", 60))
}

// topicKeywords derives the literature-index search terms from the union of
// all "any" query-block keywords, deduplicated and in configuration order.
func topicKeywords(queries []domain.QueryBlock) []string {
	seen := map[string]struct{}{}
	var keywords []string
	for _, block := range queries {
		for _, kw := range block.Any {
			kw = strings.TrimSpace(kw)
			if kw == "" {
				continue
			}
			if _, ok := seen[strings.ToLower(kw)]; ok {
				continue
			}
			seen[strings.ToLower(kw)] = struct{}{}
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
