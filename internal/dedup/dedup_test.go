// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/arxiv-digest/pkg/types"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func init() {
	now = func() time.Time { return fixedNow }
}

func backends() []types.StoreBackend {
	return []types.StoreBackend{types.StoreJSON, types.StoreSQLite}
}

func TestStoreRoundTrip(t *testing.T) {
	for _, backend := range backends() {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFilename(backend))

			s, err := Open(backend, path)
			require.NoError(t, err)
			assert.Equal(t, 0, s.Len())
			assert.False(t, s.Contains("http://arxiv.org/abs/2601.00001v1"))

			s.Record("http://arxiv.org/abs/2601.00001v1")
			s.Record("http://arxiv.org/abs/2601.00002v1")
			s.Record("http://arxiv.org/abs/2601.00001v1")
			assert.Equal(t, 2, s.Len())
			require.NoError(t, s.Persist())
			require.NoError(t, s.Close())

			reopened, err := Open(backend, path)
			require.NoError(t, err)
			defer reopened.Close()
			assert.Equal(t, 2, reopened.Len())
			assert.True(t, reopened.Contains("http://arxiv.org/abs/2601.00001v1"))
			assert.True(t, reopened.Contains("http://arxiv.org/abs/2601.00002v1"))
		})
	}
}

func TestStoreNeverShrinks(t *testing.T) {
	for _, backend := range backends() {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFilename(backend))

			s, err := Open(backend, path)
			require.NoError(t, err)
			s.Record("a")
			require.NoError(t, s.Persist())
			require.NoError(t, s.Close())

			s, err = Open(backend, path)
			require.NoError(t, err)
			s.Record("b")
			require.NoError(t, s.Persist())
			require.NoError(t, s.Close())

			s, err = Open(backend, path)
			require.NoError(t, err)
			defer s.Close()
			assert.True(t, s.Contains("a"))
			assert.True(t, s.Contains("b"))
		})
	}
}

func TestRecordWithoutPersistIsNotDurable(t *testing.T) {
	for _, backend := range backends() {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFilename(backend))

			s, err := Open(backend, path)
			require.NoError(t, err)
			s.Record("a")
			require.NoError(t, s.Close())

			s, err = Open(backend, path)
			require.NoError(t, err)
			defer s.Close()
			assert.False(t, s.Contains("a"))
		})
	}
}

func TestCorruptStoreDegradesToEmpty(t *testing.T) {
	for _, backend := range backends() {
		t.Run(string(backend), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), DefaultFilename(backend))
			require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("this is not a store\n", 64)), 0o644))

			s, err := Open(backend, path)
			require.ErrorIs(t, err, ErrCorrupt)
			require.NotNil(t, s)
			defer s.Close()
			assert.Equal(t, 0, s.Len())

			// The degraded store still persists.
			s.Record("a")
			require.NoError(t, s.Persist())
		})
	}
}

func TestSQLiteCorruptStoreMovesSidecars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorded_papers.db")
	junk := []byte(strings.Repeat("this is not a store\n", 64))
	require.NoError(t, os.WriteFile(path, junk, 0o644))
	require.NoError(t, os.WriteFile(path+"-wal", []byte("stale wal"), 0o644))
	require.NoError(t, os.WriteFile(path+"-shm", []byte("stale shm"), 0o644))

	s, err := OpenSQLite(path)
	require.ErrorIs(t, err, ErrCorrupt)
	require.NotNil(t, s)

	for suffix, want := range map[string]string{"-wal": "stale wal", "-shm": "stale shm"} {
		moved, readErr := os.ReadFile(path + suffix + ".corrupt")
		require.NoError(t, readErr)
		assert.Equal(t, want, string(moved))
	}

	s.Record("a")
	require.NoError(t, s.Persist())
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()
	assert.True(t, reopened.Contains("a"))
}

func TestJSONStoreFileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorded_papers.json")
	s, err := OpenJSON(path)
	require.NoError(t, err)
	s.Record("b")
	s.Record("a")
	require.NoError(t, s.Persist())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, []any{"a", "b"}, raw["paper_ids"])
	assert.Equal(t, "2026-03-14T09:30:00Z", raw["last_updated"])
}

func TestJSONStoreReadsLegacyTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorded_papers.json")
	legacy := `{"paper_ids": ["http://arxiv.org/abs/2501.00001v1"], "last_updated": "2025-01-02T03:04:05.123456"}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s, err := OpenJSON(path)
	require.NoError(t, err)
	assert.True(t, s.Contains("http://arxiv.org/abs/2501.00001v1"))
}

func TestOpenUnknownBackend(t *testing.T) {
	_, err := Open("postgres", filepath.Join(t.TempDir(), "x"))
	assert.Error(t, err)
}
