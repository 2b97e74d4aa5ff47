// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest runs one daily fetch-classify-persist-report cycle.
//
// A data directory and its deduplication store must belong to a single
// scheduled job. Nothing here locks them; two overlapping runs against the
// same location can lose recorded ids.
package digest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/classify"
	"github.com/pdiddy/arxiv-digest/internal/dedup"
	"github.com/pdiddy/arxiv-digest/internal/fetch"
	"github.com/pdiddy/arxiv-digest/internal/report"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Failures after the collection has been written. Both steps are attempted;
// a run can return either or both, joined.
var (
	ErrStorePersist = errors.New("persisting deduplication store")
	ErrReportWrite  = errors.New("writing reports")
)

// DefaultUserAgent is sent when RunConfig.UserAgent is empty.
const DefaultUserAgent = "arxiv-digest/0.1 (+https://github.com/pdiddy/arxiv-digest)"

// DefaultDataDir returns the dated output directory used when none is given,
// result/paper_data_YYYY.MM.DD.
func DefaultDataDir(day time.Time) string {
	return filepath.Join("result", "paper_data_"+day.Format("2006.01.02"))
}

// Summary describes a completed run.
type Summary struct {
	RunID          string
	DataDir        string
	CollectionPath string
	Stats          fetch.Stats

	// NewPapers are the matches found by this run.
	NewPapers []types.PaperRecord

	// TotalPapers is the collection size after merging.
	TotalPapers int

	// Reports lists the Markdown files written.
	Reports []string
}

// Runner holds the collaborators of a run. Zero values select production
// defaults.
type Runner struct {
	Logger *zap.Logger

	// Out receives the category summary. Nil means os.Stdout.
	Out io.Writer

	// Source replaces the arXiv HTTP client.
	Source fetch.Source

	Now func() time.Time
}

// Run performs one cycle with cfg.
//
// An unusable keyword configuration or store file only produces warnings.
// A fetch failure or a failed collection write is returned before anything
// is persisted. Store persistence and report rendering are independent: both
// are attempted after the collection write and their failures are joined
// under ErrStorePersist and ErrReportWrite.
func (r *Runner) Run(ctx context.Context, cfg types.RunConfig) (Summary, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	summary := Summary{RunID: uuid.NewString()}
	logger = logger.With(zap.String("run_id", summary.RunID))
	logger.Info("starting daily arXiv fetch", zap.Int("days", cfg.Days))

	rules, err := classify.Load(cfg.ConfigFile)
	if err != nil {
		logger.Warn("using built-in keyword configuration", zap.String("config", cfg.ConfigFile), zap.Error(err))
	}

	summary.DataDir = cfg.DataDir
	if summary.DataDir == "" {
		summary.DataDir = DefaultDataDir(now)
	}
	if err := os.MkdirAll(summary.DataDir, 0o755); err != nil {
		return summary, fmt.Errorf("creating data directory: %w", err)
	}

	storePath := cfg.StorePath
	if storePath == "" {
		storePath = filepath.Join(summary.DataDir, dedup.DefaultFilename(cfg.Store))
	}
	store, err := dedup.Open(cfg.Store, storePath)
	switch {
	case errors.Is(err, dedup.ErrCorrupt):
		logger.Warn("starting with an empty deduplication store", zap.String("path", storePath), zap.Error(err))
	case err != nil:
		return summary, fmt.Errorf("opening deduplication store: %w", err)
	}
	defer store.Close()
	logger.Info("loaded deduplication store", zap.String("path", storePath), zap.Int("ids", store.Len()))

	days := cfg.Days
	if days < 1 {
		days = 1
	}
	fetcher := &fetch.Fetcher{
		Source: r.source(cfg, logger),
		Seen:   store,
		Config: rules,
		Logger: logger,
		Now:    func() time.Time { return now },
	}
	records, stats, err := fetcher.Fetch(ctx, now.AddDate(0, 0, -days), now, cfg.MaxResults)
	summary.Stats = stats
	if err != nil {
		return summary, err
	}
	if len(records) == 0 {
		logger.Info("no new matching papers")
		return summary, nil
	}
	summary.NewPapers = records

	summary.CollectionPath = filepath.Join(summary.DataDir, report.CollectionFilename(now))
	collection, err := report.MergeAndPersist(summary.CollectionPath, records, now)
	switch {
	case errors.Is(err, report.ErrCorruptCollection):
		logger.Warn("replaced unreadable collection", zap.Error(err))
	case err != nil:
		return summary, fmt.Errorf("saving collection: %w", err)
	}
	summary.TotalPapers = collection.TotalPapers
	logger.Info("saved collection", zap.String("path", summary.CollectionPath), zap.Int("total_papers", collection.TotalPapers))

	var errs []error
	if err := store.Persist(); err != nil {
		logger.Error("persisting deduplication store", zap.String("path", storePath), zap.Error(err))
		errs = append(errs, fmt.Errorf("%w: %w", ErrStorePersist, err))
	}

	if !cfg.NoReport {
		written, err := report.RenderReports(summary.DataDir, collection.Papers, rules, now)
		summary.Reports = written
		if err != nil {
			logger.Error("writing reports", zap.Error(err))
			errs = append(errs, fmt.Errorf("%w: %w", ErrReportWrite, err))
		} else {
			logger.Info("wrote reports", zap.Int("files", len(written)))
		}
	}

	report.PrintSummary(out, records, rules)
	logger.Info("run complete", zap.Int("new_papers", len(records)))
	return summary, errors.Join(errs...)
}

func (r *Runner) source(cfg types.RunConfig, logger *zap.Logger) fetch.Source {
	if r.Source != nil {
		return r.Source
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	var httpClient *http.Client
	if cfg.Timeout > 0 {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	client := arxiv.NewClient(httpClient, ua, logger)
	if cfg.PageDelay > 0 {
		client.PageDelay = cfg.PageDelay
	}
	return client
}
