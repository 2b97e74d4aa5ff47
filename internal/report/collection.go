// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the daily paper collection and renders it as
// per-category Markdown reports.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pdiddy/arxiv-digest/internal/fileutil"
	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// ErrCorruptCollection is wrapped by MergeAndPersist when the existing
// collection file could not be read. The file is moved aside and replaced;
// the returned collection is still valid.
var ErrCorruptCollection = errors.New("existing collection unreadable")

// CollectionFilename returns the dated collection file name, papers_YYYYMMDD.json.
func CollectionFilename(day time.Time) string {
	return "papers_" + day.Format("20060102") + ".json"
}

// LoadCollection reads a collection file. A missing file yields an error
// satisfying errors.Is(err, fs.ErrNotExist).
func LoadCollection(path string) (types.Collection, error) {
	var c types.Collection
	data, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return types.Collection{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return c, nil
}

// MergeAndPersist merges records into the collection at path and writes the
// result atomically.
//
// Existing papers keep their order. A new record whose id is already present
// replaces the old one in place; the rest are appended in the order given.
// fetch_date is set to now and total_papers to the merged length.
//
// If the existing file cannot be parsed it is renamed to <path>.corrupt and
// the merge starts from an empty collection. The merged collection is then
// returned together with an error wrapping ErrCorruptCollection, which
// callers treat as a warning. Any other returned error means nothing was
// written.
func MergeAndPersist(path string, records []types.PaperRecord, now time.Time) (types.Collection, error) {
	var warning error
	existing, err := LoadCollection(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
	default:
		var perr *fs.PathError
		if errors.As(err, &perr) {
			// The file exists but cannot be opened; overwriting it would fail too.
			return types.Collection{}, fmt.Errorf("reading collection: %w", err)
		}
		moved, mvErr := fileutil.MoveAside(path, ".corrupt")
		if mvErr != nil {
			return types.Collection{}, fmt.Errorf("moving aside corrupt collection: %w", mvErr)
		}
		warning = fmt.Errorf("%w: %v (moved to %s)", ErrCorruptCollection, err, moved)
		existing = types.Collection{}
	}

	merged := types.Collection{
		FetchDate: types.NewTimestamp(now),
		Papers:    merge(existing.Papers, records),
	}
	merged.TotalPapers = len(merged.Papers)

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return types.Collection{}, fmt.Errorf("encoding collection: %w", err)
	}
	if err := fileutil.WriteAtomic(path, append(data, '\n'), 0o644); err != nil {
		return types.Collection{}, fmt.Errorf("writing collection: %w", err)
	}
	return merged, warning
}

func merge(existing, incoming []types.PaperRecord) []types.PaperRecord {
	out := make([]types.PaperRecord, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))
	for _, batch := range [][]types.PaperRecord{existing, incoming} {
		for _, p := range batch {
			if i, ok := index[p.ID]; ok {
				out[i] = p
				continue
			}
			index[p.ID] = len(out)
			out = append(out, p)
		}
	}
	return out
}
