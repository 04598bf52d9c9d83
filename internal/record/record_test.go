package record

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mechsave/internal/savedata"
)

func createTestDir(t *testing.T) *Dir {
	t.Helper()
	d, err := OpenDir(filepath.Join(t.TempDir(), "Save"))
	require.NoError(t, err)
	return d
}

func TestOpenDir_CreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "Save")

	d, err := OpenDir(root)
	require.NoError(t, err)
	assert.Equal(t, root, d.Root())

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestDir_WriteRead(t *testing.T) {
	ctx := context.Background()
	d := createTestDir(t)

	require.NoError(t, d.Write(ctx, "slot-1", []byte(`{"sceneId":"Jungle"}`)))

	data, err := d.Read(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, `{"sceneId":"Jungle"}`, string(data))

	// Stored at a location derived from the ID
	_, err = os.Stat(filepath.Join(d.Root(), "slot-1.json"))
	assert.NoError(t, err)
}

func TestDir_WriteOverwrites(t *testing.T) {
	ctx := context.Background()
	d := createTestDir(t)

	require.NoError(t, d.Write(ctx, "slot-1", []byte("first")))
	require.NoError(t, d.Write(ctx, "slot-1", []byte("second")))

	data, err := d.Read(ctx, "slot-1")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestDir_ReadMissing(t *testing.T) {
	d := createTestDir(t)

	_, err := d.Read(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, savedata.ErrNotFound))
}

func TestDir_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	d := createTestDir(t)

	require.NoError(t, d.Write(ctx, "slot-1", []byte("x")))
	require.NoError(t, d.Delete(ctx, "slot-1"))
	require.NoError(t, d.Delete(ctx, "slot-1"))

	ok, err := d.Exists(ctx, "slot-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDir_Exists(t *testing.T) {
	ctx := context.Background()
	d := createTestDir(t)

	ok, err := d.Exists(ctx, "slot-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, d.Write(ctx, "slot-1", []byte("x")))

	ok, err = d.Exists(ctx, "slot-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDir_RejectsInvalidIDs(t *testing.T) {
	ctx := context.Background()
	d := createTestDir(t)

	for _, id := range []string{"", "../escape", "a/b", "lexicon"} {
		t.Run(id, func(t *testing.T) {
			err := d.Write(ctx, id, []byte("x"))
			require.Error(t, err)
			assert.True(t, savedata.IsInvalidID(err))

			_, err = d.Read(ctx, id)
			assert.True(t, savedata.IsInvalidID(err))

			_, err = d.Exists(ctx, id)
			assert.True(t, savedata.IsInvalidID(err))

			assert.True(t, savedata.IsInvalidID(d.Delete(ctx, id)))
		})
	}
}

func TestDir_List(t *testing.T) {
	ctx := context.Background()
	d := createTestDir(t)

	ids, err := d.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, d.Write(ctx, "b", []byte("x")))
	require.NoError(t, d.Write(ctx, "a", []byte("x")))

	// Files that are not records are skipped
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), "lexicon.json"), []byte("[]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), ".a.json.123.tmp"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(d.Root(), "saves.db"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(d.Root(), "dir.json"), 0o755))

	ids, err = d.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestDir_CancelledContext(t *testing.T) {
	d := createTestDir(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Write(ctx, "slot-1", []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)

	ok, _ := d.Exists(context.Background(), "slot-1")
	assert.False(t, ok)
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "doc.json", entries[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))
}

func TestWriteFileAtomic_MissingDir(t *testing.T) {
	err := WriteFileAtomic(filepath.Join(t.TempDir(), "missing", "doc.json"), []byte("x"), 0o644)
	assert.Error(t, err)
}
