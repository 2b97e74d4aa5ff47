// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/classify"
	"github.com/pdiddy/arxiv-digest/internal/dedup"
)

var foundAt = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

// fakeSource replays a fixed list of entries, optionally followed by an error.
type fakeSource struct {
	entries []arxiv.Entry
	err     error
	queries []arxiv.Query
}

func (s *fakeSource) Results(_ context.Context, q arxiv.Query) iter.Seq2[arxiv.Entry, error] {
	s.queries = append(s.queries, q)
	return func(yield func(arxiv.Entry, error) bool) {
		for _, e := range s.entries {
			if !yield(e, nil) {
				return
			}
		}
		if s.err != nil {
			yield(arxiv.Entry{}, s.err)
		}
	}
}

type memorySeen map[string]bool

func (m memorySeen) Contains(id string) bool { return m[id] }
func (m memorySeen) Record(id string)        { m[id] = true }

func entry(n int, title, summary string) arxiv.Entry {
	id := fmt.Sprintf("http://arxiv.org/abs/2603.%05dv1", n)
	return arxiv.Entry{
		ID:         id,
		Title:      title,
		Summary:    summary,
		Authors:    []string{"Ada Lovelace"},
		Published:  time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC),
		Updated:    time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC),
		Categories: []string{"cs.DC"},
		PDFURL:     fmt.Sprintf("http://arxiv.org/pdf/2603.%05dv1", n),
	}
}

func newFetcher(src Source, seen SeenSet) *Fetcher {
	return &Fetcher{
		Source: src,
		Seen:   seen,
		Config: classify.Default(),
		Now:    func() time.Time { return foundAt },
	}
}

func TestFetchClassifiesAndRecords(t *testing.T) {
	src := &fakeSource{entries: []arxiv.Entry{
		entry(1, "Efficient KV Cache Compression", "We study memory."),
		entry(2, "A study of protein folding", "Biology."),
		entry(3, "Faster LLM inference", "A serving system for KV cache reuse."),
	}}
	seen := memorySeen{}

	records, stats, err := newFetcher(src, seen).Fetch(context.Background(), foundAt.AddDate(0, 0, -1), foundAt, 50)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "2603.00001v1", records[0].ArxivID)
	assert.Equal(t, []string{"KV Cache"}, records[0].Tags)
	assert.Equal(t, []string{"KV Cache", "LLM Inference"}, records[1].Tags)
	assert.Equal(t, foundAt, records[0].FoundDate.Time)
	assert.Equal(t, records[0].ID, records[0].ArxivURL)

	assert.True(t, seen.Contains(entry(1, "", "").ID))
	assert.True(t, seen.Contains(entry(3, "", "").ID))
	assert.False(t, seen.Contains(entry(2, "", "").ID), "unmatched ids must not be recorded")

	assert.Equal(t, Stats{Checked: 3, Rejected: 1, Matched: 2}, stats)
}

func TestFetchBuildsDateWindowQuery(t *testing.T) {
	src := &fakeSource{}
	start := time.Date(2026, 3, 13, 8, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

	_, _, err := newFetcher(src, memorySeen{}).Fetch(context.Background(), start, end, 1000)
	require.NoError(t, err)

	require.Len(t, src.queries, 1)
	q := src.queries[0]
	assert.Equal(t, "submittedDate:[20260313000000 TO 20260314235959]", q.SearchQuery)
	assert.Equal(t, 1000, q.MaxResults)
	assert.Equal(t, arxiv.SortSubmittedDate, q.SortBy)
	assert.Equal(t, arxiv.OrderDescending, q.SortOrder)
}

func TestFetchSkipsSeenEntries(t *testing.T) {
	e := entry(7, "KV cache eviction", "")
	seen := memorySeen{e.ID: true}

	records, stats, err := newFetcher(&fakeSource{entries: []arxiv.Entry{e}}, seen).
		Fetch(context.Background(), foundAt, foundAt, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, 1, stats.Seen)
}

func TestFetchSkipsMalformedEntries(t *testing.T) {
	noTitle := entry(1, "", "KV cache everywhere")
	noDate := entry(2, "KV cache", "")
	noDate.Published = time.Time{}
	good := entry(3, "KV cache", "")

	records, stats, err := newFetcher(&fakeSource{entries: []arxiv.Entry{noTitle, noDate, good}}, memorySeen{}).
		Fetch(context.Background(), foundAt, foundAt, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, good.ID, records[0].ID)
	assert.Equal(t, 2, stats.Invalid)
}

func TestFetchAbortsOnSourceError(t *testing.T) {
	src := &fakeSource{
		entries: []arxiv.Entry{entry(1, "KV cache", "")},
		err:     errors.New("arXiv API returned HTTP 503"),
	}

	records, _, err := newFetcher(src, memorySeen{}).Fetch(context.Background(), foundAt, foundAt, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 503")
	assert.Nil(t, records)
}

func TestFetchIsIdempotentAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorded_papers.json")
	src := &fakeSource{entries: []arxiv.Entry{
		entry(1, "KV cache offloading", ""),
		entry(2, "Video generation at scale", "A distributed training system."),
	}}

	store, err := dedup.OpenJSON(path)
	require.NoError(t, err)
	first, _, err := newFetcher(src, store).Fetch(context.Background(), foundAt, foundAt, 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NoError(t, store.Persist())

	store, err = dedup.OpenJSON(path)
	require.NoError(t, err)
	second, stats, err := newFetcher(src, store).Fetch(context.Background(), foundAt, foundAt, 10)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 2, stats.Seen)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
