package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/savedata"
	"github.com/roach88/mechsave/internal/store"
)

func newSQLiteRegistry(t *testing.T, path string, opts ...Option) *Registry {
	t.Helper()
	st, err := store.Open(path)
	require.NoError(t, err)
	reg := New(st, lexicon.New(st), testOptions(opts...)...)
	require.NoError(t, reg.Init(context.Background()))
	t.Cleanup(func() {
		reg.Close()
		st.Close()
	})
	return reg
}

func TestSQLite_CreateListLoadDelete(t *testing.T) {
	ctx := context.Background()
	reg := newSQLiteRegistry(t, filepath.Join(t.TempDir(), store.FileName))

	var entries []savedata.LexiconEntry
	for _, label := range []string{"first", "second", "third"} {
		e, err := reg.CreateSave(ctx, snapshot(label, 50), label)
		require.NoError(t, err)
		entries = append(entries, e)
	}

	saves, err := reg.ListSaves()
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second", "first"}, labelsOf(saves))

	var got savedata.SceneSnapshot
	require.NoError(t, reg.LoadSave(ctx, entries[1], &got))
	assert.Equal(t, snapshot("second", 50), got)

	require.NoError(t, reg.DeleteSave(ctx, entries[1]))
	require.NoError(t, reg.DeleteSave(ctx, entries[1]))
	saves, err = reg.ListSaves()
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "first"}, labelsOf(saves))
}

func TestSQLite_ReconcilesOnReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), store.FileName)

	st, err := store.Open(path)
	require.NoError(t, err)
	first := New(st, lexicon.New(st), testOptions()...)
	require.NoError(t, first.Init(ctx))

	a, err := first.CreateSave(ctx, snapshot("A", 1), "A")
	require.NoError(t, err)
	b, err := first.CreateSave(ctx, snapshot("B", 1), "B")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// External deletion of B's record
	_, err = st.DB().Exec("DELETE FROM records WHERE id = ?", b.ID)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	second := newSQLiteRegistry(t, path)
	saves, err := second.ListSaves()
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, idsOf(saves))
}

func TestSQLite_CorruptLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), store.FileName)

	st, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.WriteDocument(context.Background(), []byte("garbage")))
	require.NoError(t, st.Close())

	reg := newSQLiteRegistry(t, path)
	assert.True(t, reg.Ready())
	assert.True(t, savedata.IsCorruptIndex(reg.Reconciliation().IndexErr))

	saves, err := reg.ListSaves()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestSQLite_AsyncAndOrphans(t *testing.T) {
	ctx := context.Background()
	reg := newSQLiteRegistry(t, filepath.Join(t.TempDir(), store.FileName))

	_, err := reg.CreateSaveAsync(ctx, snapshot("Async", 1), "async").Wait(ctx)
	require.NoError(t, err)

	require.NoError(t, reg.records.Write(ctx, "stray", []byte(`{}`)))
	orphans, err := reg.Orphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"stray"}, orphans)

	n, err := reg.PurgeOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
