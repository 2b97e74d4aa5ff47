// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup keeps the set of arXiv entry ids that earlier runs already
// reported, so each entry is processed at most once per storage location.
//
// The set only grows. Ids recorded during a run stay in memory until Persist
// is called at the end of the run. Two backends exist: a JSON file (the
// default) and a SQLite database. Neither is safe for concurrent writers;
// one storage location must belong to one scheduled job.
package dedup

import (
	"errors"
	"fmt"
	"time"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

// ErrCorrupt is wrapped by Open* errors when the persisted state could not
// be read. The store returned alongside such an error is empty and usable.
var ErrCorrupt = errors.New("deduplication store unreadable")

// now is the clock used for last-updated stamps. Tests override it.
var now = time.Now

// Store is a persisted set of seen entry ids.
type Store interface {
	// Contains reports whether id was recorded by this or an earlier run.
	Contains(id string) bool

	// Record adds id to the in-memory set.
	Record(id string)

	// Len returns the number of known ids.
	Len() int

	// Persist writes the full set and a last-updated timestamp, replacing
	// any earlier state.
	Persist() error

	Close() error
}

// DefaultFilename returns the store file name used inside a data directory.
func DefaultFilename(backend types.StoreBackend) string {
	if backend == types.StoreSQLite {
		return "recorded_papers.db"
	}
	return "recorded_papers.json"
}

// Open opens the store of the given backend at path. See ErrCorrupt for how
// unreadable state is reported.
func Open(backend types.StoreBackend, path string) (Store, error) {
	switch backend {
	case types.StoreJSON, "":
		return OpenJSON(path)
	case types.StoreSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported store backend %q: use json or sqlite", backend)
	}
}
