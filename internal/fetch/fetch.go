// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch drives the arXiv search over a date window, classifies every
// unseen entry, and collects the matches.
package fetch

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/classify"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// Source streams search results. *arxiv.Client implements it.
type Source interface {
	Results(ctx context.Context, q arxiv.Query) iter.Seq2[arxiv.Entry, error]
}

// SeenSet is the part of the deduplication store the pipeline needs.
type SeenSet interface {
	Contains(id string) bool
	Record(id string)
}

// Stats counts what happened to the entries of one fetch.
type Stats struct {
	Checked  int
	Seen     int
	Invalid  int
	Rejected int
	Matched  int
}

// Fetcher classifies a stream of entries against a configuration.
type Fetcher struct {
	Source Source
	Seen   SeenSet
	Config *classify.Config
	Logger *zap.Logger

	// Now stamps FoundDate. Defaults to time.Now.
	Now func() time.Time
}

// Fetch examines up to maxResults entries submitted between start and end,
// newest first. Matching entries become PaperRecords and their ids are
// recorded in the seen set; entries that match nothing are dropped without
// being recorded, so a later revision can still qualify.
//
// Any error from the source aborts the fetch. The records gathered so far
// are discarded and only the error is returned. Ids recorded before the
// failure remain in the in-memory seen set; the caller must not persist it.
func (f *Fetcher) Fetch(ctx context.Context, start, end time.Time, maxResults int) ([]types.PaperRecord, Stats, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := f.Now
	if now == nil {
		now = time.Now
	}

	q := arxiv.Query{
		SearchQuery: arxiv.DateWindow(start, end),
		MaxResults:  maxResults,
		SortBy:      arxiv.SortSubmittedDate,
		SortOrder:   arxiv.OrderDescending,
	}
	logger.Info("querying arXiv", zap.String("query", q.SearchQuery), zap.Int("max_results", maxResults))

	var (
		matched []types.PaperRecord
		stats   Stats
	)
	for entry, err := range f.Source.Results(ctx, q) {
		if err != nil {
			logger.Error("fetch aborted", zap.Error(err), zap.Int("checked", stats.Checked))
			return nil, stats, fmt.Errorf("fetching papers: %w", err)
		}
		stats.Checked++

		if err := entry.Validate(); err != nil {
			stats.Invalid++
			logger.Warn("skipping malformed entry", zap.String("id", entry.ID), zap.Error(err))
			continue
		}
		if f.Seen.Contains(entry.ID) {
			stats.Seen++
			continue
		}

		result := f.Config.Classify(classify.Text(entry.Title, entry.Summary))
		if !result.Matched {
			stats.Rejected++
			continue
		}

		rec := newRecord(entry, result.Labels, now())
		matched = append(matched, rec)
		f.Seen.Record(entry.ID)
		stats.Matched++

		logger.Info("matched paper",
			zap.String("arxiv_id", rec.ArxivID),
			zap.String("title", truncate(rec.Title, 60)),
			zap.Strings("tags", rec.Tags),
		)
	}

	logger.Info("fetch complete",
		zap.Int("checked", stats.Checked),
		zap.Int("matched", stats.Matched),
		zap.Int("seen", stats.Seen),
		zap.Int("rejected", stats.Rejected),
		zap.Int("invalid", stats.Invalid),
	)
	return matched, stats, nil
}

func newRecord(e arxiv.Entry, labels []string, found time.Time) types.PaperRecord {
	return types.PaperRecord{
		ID:         e.ID,
		ArxivID:    e.ShortID(),
		Title:      e.Title,
		Authors:    e.Authors,
		Summary:    e.Summary,
		Published:  types.NewTimestamp(e.Published),
		Updated:    types.NewTimestamp(e.Updated),
		Categories: e.Categories,
		Tags:       labels,
		PDFURL:     e.PDFURL,
		ArxivURL:   e.ID,
		FoundDate:  types.NewTimestamp(found),
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
