package registry

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/record"
	"github.com/roach88/mechsave/internal/savedata"
	"github.com/roach88/mechsave/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
}

// testOptions are prepended to every test registry's options.
func testOptions(opts ...Option) []Option {
	base := []Option{
		WithClock(testutil.NewStepClock(time.Second)),
		WithLogger(discardLogger()),
	}
	return append(base, opts...)
}

// newTestRegistry opens and initializes a filesystem registry in dir.
func newTestRegistry(t *testing.T, dir string, opts ...Option) *Registry {
	t.Helper()
	reg, err := OpenDir(dir, testOptions(opts...)...)
	require.NoError(t, err)
	require.NoError(t, reg.Init(context.Background()))
	t.Cleanup(func() { reg.Close() })
	return reg
}

func checkpoint(s string) *string {
	return &s
}

func snapshot(scene string, health float64) savedata.SceneSnapshot {
	return savedata.SceneSnapshot{SceneID: scene, CheckpointID: checkpoint(scene + "-cp1"), Health: health}
}

func labelsOf(entries []savedata.LexiconEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}

func idsOf(entries []savedata.LexiconEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

// failingRecords wraps a record.Store and fails writes when writeErr is set,
// existence checks when existsErr is set.
type failingRecords struct {
	record.Store
	writeErr  error
	existsErr error
}

func (f *failingRecords) Exists(ctx context.Context, id string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.Store.Exists(ctx, id)
}

func (f *failingRecords) Write(ctx context.Context, id string, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Store.Write(ctx, id, data)
}

// failingBacking wraps a lexicon.Backing and fails document writes when writeErr is set.
type failingBacking struct {
	lexicon.Backing
	writeErr error
}

func (f *failingBacking) WriteDocument(ctx context.Context, data []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.Backing.WriteDocument(ctx, data)
}

// writeLexicon replaces the lexicon document in dir with entries.
func writeLexicon(t *testing.T, dir string, entries ...savedata.LexiconEntry) {
	t.Helper()
	data, err := savedata.MarshalLexicon(entries)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lexicon.json"), data, 0o644))
}
