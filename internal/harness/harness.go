package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/roach88/mechsave/internal/config"
	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/record"
	"github.com/roach88/mechsave/internal/registry"
	"github.com/roach88/mechsave/internal/savedata"
	"github.com/roach88/mechsave/internal/store"
	"github.com/roach88/mechsave/internal/testutil"
)

// ClockStep is the interval between creation times in a scenario.
const ClockStep = time.Minute

// Harness is the scenario execution engine.
// It runs a registry over a private backend with a deterministic clock
// and ID sequence.
type Harness struct {
	backend *backend
	reg     *registry.Registry
	clock   *testutil.StepClock
	ids     *scriptedIDs
	logger  *slog.Logger
	opts    []registry.Option
}

// backend is the storage a scenario runs against.
type backend struct {
	records record.Store
	index   lexicon.Backing
	cleanup func() error
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh backend for isolation: a temporary
// directory for fs, an in-memory database for sqlite.
//
// Execution flow:
// 1. Open backend and Init a registry over it
// 2. Execute steps, checking each expect clause
// 3. Capture listing and orphans
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	be, err := openBackend(scenario.Backend)
	if err != nil {
		return nil, err
	}
	defer be.cleanup()

	h := &Harness{
		backend: be,
		clock:   testutil.NewStepClock(ClockStep),
		ids:     &scriptedIDs{ids: scenario.IDs},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.opts = []registry.Option{
		registry.WithClock(h.clock),
		registry.WithIDGenerator(h.ids),
		registry.WithLogger(h.logger),
	}
	if scenario.MaxIDAttempts > 0 {
		h.opts = append(h.opts, registry.WithMaxIDAttempts(scenario.MaxIDAttempts))
	}

	ctx := context.Background()
	result := &Result{}

	if err := h.start(ctx, result); err != nil {
		return nil, err
	}
	defer func() { _ = h.reg.Close() }()

	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, step, result)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		event.Seq = i + 1
		result.Trace = append(result.Trace, event)

		if msg := checkExpect(step, event); msg != "" {
			result.Errors = append(result.Errors, fmt.Sprintf("steps[%d] (%s): %s", i, step.Op, msg))
		}
	}

	listed, err := h.reg.ListSaves()
	if err != nil {
		return nil, err
	}
	result.Listed = listed

	orphans, err := h.reg.Orphans(ctx)
	if err != nil {
		return nil, err
	}
	result.Orphans = orphans

	for _, a := range scenario.Assertions {
		if msg := evaluateAssertion(a, result); msg != "" {
			result.Errors = append(result.Errors, msg)
		}
	}

	result.Pass = len(result.Errors) == 0
	return result, nil
}

// start builds a registry over the backend and runs Init.
func (h *Harness) start(ctx context.Context, result *Result) error {
	h.reg = registry.New(h.backend.records, lexicon.New(h.backend.index), h.opts...)
	if err := h.reg.Init(ctx); err != nil {
		return fmt.Errorf("init registry: %w", err)
	}

	report := h.reg.Reconciliation()
	result.IndexDegraded = report.IndexErr != nil
	result.Pruned = result.Pruned[:0]
	for _, e := range report.Pruned {
		result.Pruned = append(result.Pruned, e.ID)
	}
	return nil
}

// execute runs one step. Registry errors are recorded in the event; only
// harness failures are returned.
func (h *Harness) execute(ctx context.Context, step Step, result *Result) (TraceEvent, error) {
	event := TraceEvent{Op: step.Op, ID: step.ID}

	switch step.Op {
	case OpCreate:
		snap := savedata.SceneSnapshot{SceneID: step.Scene, Health: step.Health}
		entry, err := h.reg.CreateSave(ctx, snap, step.Label)
		event.ID = entry.ID
		event.Label = entry.Label
		event.Error = errorCode(err)

	case OpLoad:
		entry, ok := h.reg.Find(step.ID)
		if !ok {
			entry = savedata.LexiconEntry{ID: step.ID}
		}
		var snap savedata.SceneSnapshot
		err := h.reg.LoadSave(ctx, entry, &snap)
		event.Label = snap.SceneID
		event.Error = errorCode(err)

	case OpDelete:
		entry, ok := h.reg.Find(step.ID)
		if !ok {
			entry = savedata.LexiconEntry{ID: step.ID}
		}
		event.Error = errorCode(h.reg.DeleteSave(ctx, entry))

	case OpPurgeOrphans:
		n, err := h.reg.PurgeOrphans(ctx)
		event.Label = fmt.Sprintf("%d purged", n)
		event.Error = errorCode(err)

	case OpRestart:
		if err := h.reg.Close(); err != nil {
			return event, err
		}
		if err := h.start(ctx, result); err != nil {
			return event, err
		}

	case OpRemoveRecord:
		if err := h.backend.records.Delete(ctx, step.ID); err != nil {
			return event, err
		}

	case OpWriteRecord:
		if err := h.backend.records.Write(ctx, step.ID, []byte(step.Document)); err != nil {
			return event, err
		}

	case OpWriteIndex:
		if err := h.backend.index.WriteDocument(ctx, []byte(step.Document)); err != nil {
			return event, err
		}

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	return event, nil
}

// checkExpect compares a step outcome with its expect clause.
func checkExpect(step Step, event TraceEvent) string {
	expect := step.Expect
	if expect == nil {
		if event.Error != "" {
			return fmt.Sprintf("unexpected error %s", event.Error)
		}
		return ""
	}

	if event.Error != expect.Error {
		return fmt.Sprintf("expected error %q, got %q", expect.Error, event.Error)
	}
	if expect.ID != "" && event.ID != expect.ID {
		return fmt.Sprintf("expected id %q, got %q", expect.ID, event.ID)
	}
	if expect.Scene != "" && event.Label != expect.Scene {
		return fmt.Sprintf("expected scene %q, got %q", expect.Scene, event.Label)
	}
	return ""
}

// errorCode maps a registry error to its trace representation.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var se *savedata.Error
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "error"
}

// openBackend creates an isolated backend of the named kind.
func openBackend(kind string) (*backend, error) {
	switch kind {
	case "", config.BackendFS:
		dir, err := os.MkdirTemp("", "mechsave-scenario-*")
		if err != nil {
			return nil, fmt.Errorf("failed to create scenario dir: %w", err)
		}
		records, err := record.OpenDir(dir)
		if err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
		return &backend{
			records: records,
			index:   lexicon.NewFile(dir),
			cleanup: func() error { return os.RemoveAll(dir) },
		}, nil

	case config.BackendSQLite:
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		return &backend{records: st, index: st, cleanup: st.Close}, nil
	}
	return nil, fmt.Errorf("unknown backend %q", kind)
}

// scriptedIDs hands out a fixed sequence, then repeats the last ID.
type scriptedIDs struct {
	mu  sync.Mutex
	ids []string
	idx int
}

func (g *scriptedIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.ids) == 0 {
		return ""
	}
	if g.idx >= len(g.ids) {
		return g.ids[len(g.ids)-1]
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
