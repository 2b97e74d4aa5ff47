// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pdiddy/arxiv-digest/internal/fileutil"
)

// stateFile is the on-disk layout of the JSON store. LastUpdated is kept as
// a string so files stamped without a zone offset still load.
type stateFile struct {
	PaperIDs    []string `json:"paper_ids"`
	LastUpdated string   `json:"last_updated"`
}

// JSONStore keeps ids in a single JSON file.
type JSONStore struct {
	path string
	ids  map[string]struct{}
}

// OpenJSON loads the store at path. A missing file yields an empty store and
// no error.
func OpenJSON(path string) (*JSONStore, error) {
	s := &JSONStore{path: path, ids: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("%w: reading %s: %v", ErrCorrupt, path, err)
	}

	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		return s, fmt.Errorf("%w: parsing %s: %v", ErrCorrupt, path, err)
	}
	for _, id := range st.PaperIDs {
		s.ids[id] = struct{}{}
	}
	return s, nil
}

func (s *JSONStore) Contains(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *JSONStore) Record(id string) {
	s.ids[id] = struct{}{}
}

func (s *JSONStore) Len() int { return len(s.ids) }

// Persist writes every id, sorted, and the current time.
func (s *JSONStore) Persist() error {
	st := stateFile{
		PaperIDs:    make([]string, 0, len(s.ids)),
		LastUpdated: now().Format(time.RFC3339),
	}
	for id := range s.ids {
		st.PaperIDs = append(st.PaperIDs, id)
	}
	sort.Strings(st.PaperIDs)

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling store: %w", err)
	}
	if err := fileutil.WriteAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing store %s: %w", s.path, err)
	}
	return nil
}

func (s *JSONStore) Close() error { return nil }
