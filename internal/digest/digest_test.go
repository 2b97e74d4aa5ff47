// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"bytes"
	"context"
	"errors"
	"iter"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/internal/arxiv"
	"github.com/pdiddy/arxiv-digest/internal/dedup"
	"github.com/pdiddy/arxiv-digest/internal/report"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

var runTime = time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC)

type stubSource struct {
	entries []arxiv.Entry
	err     error
}

func (s stubSource) Results(context.Context, arxiv.Query) iter.Seq2[arxiv.Entry, error] {
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

func sampleEntries() []arxiv.Entry {
	published := time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)
	return []arxiv.Entry{
		{
			ID:        "http://arxiv.org/abs/2603.01001v1",
			Title:     "Tiered KV cache for long contexts",
			Summary:   "We offload cache blocks.",
			Authors:   []string{"A. Author"},
			Published: published,
			PDFURL:    "http://arxiv.org/pdf/2603.01001v1",
		},
		{
			ID:        "http://arxiv.org/abs/2603.01002v1",
			Title:     "Galaxy rotation curves",
			Summary:   "Astrophysics.",
			Authors:   []string{"B. Author"},
			Published: published,
		},
	}
}

func newRunner(src stubSource, out *bytes.Buffer) *Runner {
	color.NoColor = true
	return &Runner{
		Out:    out,
		Source: src,
		Now:    func() time.Time { return runTime },
	}
}

func runConfig(dir string) types.RunConfig {
	return types.RunConfig{
		Days:       1,
		MaxResults: 100,
		DataDir:    dir,
		ConfigFile: filepath.Join(dir, "missing-config.json"),
	}
}

func TestRunWritesEverything(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	summary, err := newRunner(stubSource{entries: sampleEntries()}, &out).Run(context.Background(), runConfig(dir))
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.NewPapers, 1)
	assert.Equal(t, 1, summary.TotalPapers)
	assert.Equal(t, filepath.Join(dir, "papers_20260314.json"), summary.CollectionPath)
	assert.Equal(t, 2, summary.Stats.Checked)

	collection, err := report.LoadCollection(summary.CollectionPath)
	require.NoError(t, err)
	assert.Equal(t, 1, collection.TotalPapers)
	assert.Equal(t, []string{"KV Cache"}, collection.Papers[0].Tags)

	store, err := dedup.OpenJSON(filepath.Join(dir, "recorded_papers.json"))
	require.NoError(t, err)
	assert.True(t, store.Contains("http://arxiv.org/abs/2603.01001v1"))
	assert.False(t, store.Contains("http://arxiv.org/abs/2603.01002v1"))

	assert.FileExists(t, filepath.Join(dir, "KV_Cache.md"))
	assert.FileExists(t, filepath.Join(dir, report.IndexFilename))
	assert.Contains(t, out.String(), "KV Cache: 1")
}

func TestRunTwiceFindsNothingNew(t *testing.T) {
	dir := t.TempDir()
	src := stubSource{entries: sampleEntries()}
	_, err := newRunner(src, &bytes.Buffer{}).Run(context.Background(), runConfig(dir))
	require.NoError(t, err)

	summary, err := newRunner(src, &bytes.Buffer{}).Run(context.Background(), runConfig(dir))
	require.NoError(t, err)
	assert.Empty(t, summary.NewPapers)
	assert.Equal(t, 1, summary.Stats.Seen)

	collection, err := report.LoadCollection(filepath.Join(dir, "papers_20260314.json"))
	require.NoError(t, err)
	assert.Equal(t, 1, collection.TotalPapers)
}

func TestRunFetchErrorPersistsNothing(t *testing.T) {
	dir := t.TempDir()
	src := stubSource{entries: sampleEntries(), err: errors.New("arXiv API returned HTTP 500")}

	_, err := newRunner(src, &bytes.Buffer{}).Run(context.Background(), runConfig(dir))
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "papers_20260314.json"))
	assert.NoFileExists(t, filepath.Join(dir, "recorded_papers.json"))
}

func TestRunNoReport(t *testing.T) {
	dir := t.TempDir()
	cfg := runConfig(dir)
	cfg.NoReport = true

	summary, err := newRunner(stubSource{entries: sampleEntries()}, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, summary.Reports)
	assert.NoFileExists(t, filepath.Join(dir, report.IndexFilename))
	assert.FileExists(t, summary.CollectionPath)
}

func TestRunCollectionFailureSkipsStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "papers_20260314.json"), 0o755))

	_, err := newRunner(stubSource{entries: sampleEntries()}, &bytes.Buffer{}).Run(context.Background(), runConfig(dir))
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "recorded_papers.json"))
}

func TestRunReportFailureStillPersistsStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "KV_Cache.md"), 0o755))

	_, err := newRunner(stubSource{entries: sampleEntries()}, &bytes.Buffer{}).Run(context.Background(), runConfig(dir))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportWrite)
	assert.NotErrorIs(t, err, ErrStorePersist)
	assert.FileExists(t, filepath.Join(dir, "recorded_papers.json"))
}

func TestRunStoreFailureStillWritesReports(t *testing.T) {
	dir := t.TempDir()
	cfg := runConfig(dir)
	cfg.StorePath = filepath.Join(dir, "store-is-a-directory")
	require.NoError(t, os.Mkdir(cfg.StorePath, 0o755))

	_, err := newRunner(stubSource{entries: sampleEntries()}, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorePersist)
	assert.NotErrorIs(t, err, ErrReportWrite)
	assert.FileExists(t, filepath.Join(dir, report.IndexFilename))
}

func TestRunSQLiteStore(t *testing.T) {
	dir := t.TempDir()
	cfg := runConfig(dir)
	cfg.Store = types.StoreSQLite

	_, err := newRunner(stubSource{entries: sampleEntries()}, &bytes.Buffer{}).Run(context.Background(), cfg)
	require.NoError(t, err)

	store, err := dedup.OpenSQLite(filepath.Join(dir, "recorded_papers.db"))
	require.NoError(t, err)
	defer store.Close()
	assert.True(t, store.Contains("http://arxiv.org/abs/2603.01001v1"))
}

func TestDefaultDataDir(t *testing.T) {
	assert.Equal(t, filepath.Join("result", "paper_data_2026.03.14"), DefaultDataDir(runTime))
}
