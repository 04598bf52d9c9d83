package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/record"
	"github.com/roach88/mechsave/internal/savedata"
)

func TestCreateSaveAsync_Resolves(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, t.TempDir())

	const n = 20
	pending := make([]*Pending, n)
	for i := 0; i < n; i++ {
		pending[i] = reg.CreateSaveAsync(ctx, snapshot("Jungle", float64(i)), fmt.Sprintf("save-%02d", i))
	}

	seen := make(map[string]bool, n)
	for i, p := range pending {
		entry, err := p.Wait(ctx)
		require.NoError(t, err, "pending %d", i)
		require.False(t, seen[entry.ID])
		seen[entry.ID] = true
	}

	saves, err := reg.ListSaves()
	require.NoError(t, err)
	require.Len(t, saves, n)

	// Jobs run in submission order, so the newest save is the last submitted
	assert.Equal(t, "save-19", saves[0].Label)
	assert.Equal(t, "save-00", saves[n-1].Label)
}

func TestCreateSaveAsync_RoundTrip(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, t.TempDir())

	want := savedata.SceneSnapshot{SceneID: "Canyon", CheckpointID: checkpoint("bridge"), Health: 42.25}
	entry, err := reg.CreateSaveAsync(ctx, want, "async").Wait(ctx)
	require.NoError(t, err)

	var got savedata.SceneSnapshot
	require.NoError(t, reg.LoadSave(ctx, entry, &got))
	assert.Equal(t, want, got)
}

func TestCreateSaveAsync_SnapshotsPayloadAtSubmission(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, t.TempDir())

	payload := map[string]any{"sceneId": "Before"}
	p := reg.CreateSaveAsync(ctx, payload, "snap")
	payload["sceneId"] = "After"

	entry, err := p.Wait(ctx)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, reg.LoadSave(ctx, entry, &got))
	assert.Equal(t, "Before", got["sceneId"])
}

func TestCreateSaveAsync_DeliversWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	records, err := record.OpenDir(dir)
	require.NoError(t, err)
	boom := errors.New("disk full")

	reg := New(&failingRecords{Store: records, writeErr: boom}, lexicon.New(lexicon.NewFile(dir)), testOptions()...)
	require.NoError(t, reg.Init(ctx))
	defer reg.Close()

	_, err = reg.CreateSaveAsync(ctx, snapshot("Jungle", 1), "doomed").Wait(ctx)
	require.Error(t, err)
	assert.True(t, savedata.IsWriteFailure(err))
	assert.ErrorIs(t, err, boom)
}

func TestCreateSaveAsync_EncodeFailure(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, t.TempDir())

	_, err := reg.CreateSaveAsync(ctx, make(chan int), "bad").Wait(ctx)
	assert.True(t, savedata.IsWriteFailure(err))
}

func TestCreateSaveAsync_CancelledJobSkipsWrite(t *testing.T) {
	reg := newTestRegistry(t, t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reg.CreateSaveAsync(ctx, snapshot("Jungle", 1), "never").Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)

	saves, err := reg.ListSaves()
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestCreateSaveAsync_AfterClose(t *testing.T) {
	ctx := context.Background()
	var finished []error
	reg := newTestRegistry(t, t.TempDir(), WithHooks(Hooks{
		OnSaveFinished: func(_ savedata.LexiconEntry, err error) { finished = append(finished, err) },
	}))

	require.NoError(t, reg.Close())
	require.NoError(t, reg.Close(), "Close is idempotent")

	_, err := reg.CreateSaveAsync(ctx, snapshot("Jungle", 1), "late").Wait(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	require.Len(t, finished, 1)
	assert.ErrorIs(t, finished[0], ErrClosed)

	// Synchronous operations keep working
	_, err = reg.CreateSave(ctx, snapshot("Jungle", 1), "sync")
	assert.NoError(t, err)
}

func TestClose_DrainsQueuedJobs(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, t.TempDir())

	const n = 10
	pending := make([]*Pending, n)
	for i := 0; i < n; i++ {
		pending[i] = reg.CreateSaveAsync(ctx, snapshot("Jungle", float64(i)), "queued")
	}
	require.NoError(t, reg.Close())

	for _, p := range pending {
		select {
		case <-p.Done():
		default:
			t.Fatal("Close returned before every queued job resolved")
		}
		_, err := p.Wait(ctx)
		assert.NoError(t, err)
	}

	saves, err := reg.ListSaves()
	require.NoError(t, err)
	assert.Len(t, saves, n)
}

func TestHooks_AsyncCreate(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var started []string
	var finishedIDs []string

	reg := newTestRegistry(t, t.TempDir(), WithHooks(Hooks{
		OnSaveStarted: func(label string) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, label)
		},
		OnSaveFinished: func(entry savedata.LexiconEntry, err error) {
			mu.Lock()
			defer mu.Unlock()
			finishedIDs = append(finishedIDs, entry.ID)
		},
	}))

	entry, err := reg.CreateSaveAsync(ctx, snapshot("Jungle", 1), "indicator").Wait(ctx)
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"indicator"}, started)
	assert.Equal(t, []string{entry.ID}, finishedIDs)
}

// Background creates and foreground deletes/lists must never corrupt the lexicon.
// Run with -race.
func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry(t, t.TempDir())

	var victims []savedata.LexiconEntry
	for i := 0; i < 20; i++ {
		e, err := reg.CreateSave(ctx, snapshot("Victim", float64(i)), "victim")
		require.NoError(t, err)
		victims = append(victims, e)
	}

	var wg sync.WaitGroup
	pending := make(chan *Pending, 40)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 40; i++ {
			pending <- reg.CreateSaveAsync(ctx, snapshot("Async", float64(i)), "async")
		}
		close(pending)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, v := range victims {
			assert.NoError(t, reg.DeleteSave(ctx, v))
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			_, err := reg.ListSaves()
			assert.NoError(t, err)
		}
	}()

	wg.Wait()
	for p := range pending {
		_, err := p.Wait(ctx)
		require.NoError(t, err)
	}

	saves, err := reg.ListSaves()
	require.NoError(t, err)
	assert.Len(t, saves, 40)
	for _, s := range saves {
		assert.Equal(t, "async", s.Label)
		ok, err := reg.records.Exists(ctx, s.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	orphans, err := reg.Orphans(ctx)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestPending_WaitHonorsContext(t *testing.T) {
	p := newPending()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
