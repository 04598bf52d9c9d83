package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/record"
	"github.com/roach88/mechsave/internal/savedata"
)

var (
	// ErrNotReady is returned by every operation called before Init.
	ErrNotReady = errors.New("save registry not initialized")

	// ErrClosed is returned by CreateSaveAsync after Close.
	ErrClosed = errors.New("save registry closed")
)

// Report describes what Init found.
type Report struct {
	// Loaded is the number of entries read from the lexicon document.
	Loaded int

	// Pruned lists entries dropped because their record was missing.
	Pruned []savedata.LexiconEntry

	// IndexErr is the error that made the lexicon degrade to empty, if any.
	IndexErr error
}

// Registry coordinates the lexicon and the record store.
//
// Thread-safety: all methods are safe for concurrent use.
type Registry struct {
	mu      sync.Mutex // guards lex and every storage mutation
	records record.Store
	lex     *lexicon.Lexicon

	ids           IDGenerator
	clock         Clock
	codec         Codec
	logger        *slog.Logger
	maxIDAttempts int
	formatVersion int
	hooks         Hooks

	initOnce sync.Once
	initErr  error
	report   Report
	ready    atomic.Bool

	jobs       *jobQueue
	workerOnce sync.Once
	workerDone chan struct{}
}

// New creates an uninitialized Registry. Call Init before any other method.
func New(records record.Store, lex *lexicon.Lexicon, opts ...Option) *Registry {
	r := &Registry{
		records:       records,
		lex:           lex,
		ids:           UUIDGenerator{},
		clock:         SystemClock{},
		codec:         JSONCodec{},
		logger:        slog.Default(),
		maxIDAttempts: DefaultMaxIDAttempts,
		formatVersion: savedata.CurrentFormatVersion,
		jobs:          newJobQueue(),
		workerDone:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// OpenDir builds a Registry over the filesystem layout in dir:
// dir/lexicon.json plus one dir/<id>.json per save. Init is not called.
func OpenDir(dir string, opts ...Option) (*Registry, error) {
	records, err := record.OpenDir(dir)
	if err != nil {
		return nil, err
	}
	return New(records, lexicon.New(lexicon.NewFile(dir)), opts...), nil
}

// Init loads the lexicon and reconciles it against the record store.
//
// Init runs once; later calls return the first result. A missing or corrupt
// lexicon is not an error: the registry starts empty and the problem is
// logged and reported in Reconciliation. Entries whose record is missing are
// dropped from memory; the lexicon document is rewritten on the next
// mutation, not here.
//
// Init fails only if ctx is done before reconciliation completes.
func (r *Registry) Init(ctx context.Context) error {
	r.initOnce.Do(func() {
		r.initErr = r.init(ctx)
		if r.initErr == nil {
			r.ready.Store(true)
		}
	})
	return r.initErr
}

func (r *Registry) init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.lex.Load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("init registry: %w", ctxErr)
		}
		r.report.IndexErr = err
		r.logger.Warn("lexicon unreadable, starting empty",
			"error", err,
			"corrupt", savedata.IsCorruptIndex(err),
		)
	}
	r.report.Loaded = len(entries)

	for _, e := range entries {
		// No record can ever exist under an invalid ID, and DeleteSave
		// rejects one, so such an entry would stay listed for good.
		if err := savedata.ValidateID(e.ID); err != nil {
			r.prune(e, "pruned lexicon entry with invalid id", "error", err)
			continue
		}
		ok, err := r.records.Exists(ctx, e.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("init registry: %w", ctxErr)
			}
			// Cannot prove the record is gone; keep the entry
			r.logger.Warn("record existence check failed",
				"id", e.ID,
				"error", err,
			)
			continue
		}
		if ok {
			continue
		}
		r.prune(e, "pruned lexicon entry without record")
	}

	r.logger.Info("save registry ready",
		"entries", r.lex.Len(),
		"pruned", len(r.report.Pruned),
	)
	return nil
}

// prune drops e from the in-memory lexicon during init. Caller holds r.mu.
func (r *Registry) prune(e savedata.LexiconEntry, msg string, attrs ...any) {
	r.lex.Remove(e.ID)
	r.report.Pruned = append(r.report.Pruned, e)
	r.logger.Info(msg, append([]any{"id", e.ID, "label", e.Label}, attrs...)...)
}

// Reconciliation returns what Init found. Zero before Init.
func (r *Registry) Reconciliation() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := r.report
	rep.Pruned = append([]savedata.LexiconEntry(nil), r.report.Pruned...)
	return rep
}

// Ready reports whether Init has completed successfully.
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

// CreateSave stores payload as a new save and returns its lexicon entry.
//
// The payload is encoded with the registry codec, written to the record
// store, and only then appended to the lexicon, which is flushed. Once the
// write has started it runs to completion even if ctx is cancelled.
//
// Failures are returned as WRITE_FAILURE errors, or ID_EXHAUSTED if every
// generated ID collided with an existing entry.
func (r *Registry) CreateSave(ctx context.Context, payload any, label string) (savedata.LexiconEntry, error) {
	if !r.Ready() {
		return savedata.LexiconEntry{}, ErrNotReady
	}

	r.saveStarted(label)
	entry, err := r.encodeAndCreate(ctx, payload, label)
	r.saveFinished(entry, err)
	return entry, err
}

func (r *Registry) encodeAndCreate(ctx context.Context, payload any, label string) (savedata.LexiconEntry, error) {
	data, err := r.encode(payload)
	if err != nil {
		return savedata.LexiconEntry{}, err
	}
	return r.create(ctx, data, label)
}

func (r *Registry) encode(payload any) ([]byte, error) {
	data, err := r.codec.Marshal(payload)
	if err != nil {
		return nil, &savedata.Error{Code: savedata.CodeWriteFailure, Op: "encode save", Err: err}
	}
	return data, nil
}

// create runs steps 1-3 of a save under the registry lock.
func (r *Registry) create(ctx context.Context, data []byte, label string) (savedata.LexiconEntry, error) {
	if err := ctx.Err(); err != nil {
		return savedata.LexiconEntry{}, fmt.Errorf("create save: %w", err)
	}
	// Record and index writes must not be split by cancellation
	ctx = context.WithoutCancel(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.allocateID()
	if err != nil {
		return savedata.LexiconEntry{}, err
	}

	entry := savedata.LexiconEntry{
		ID:            id,
		FormatVersion: r.formatVersion,
		CreationTime:  r.clock.Now().UTC().Round(0),
		Label:         savedata.NormalizeLabel(label),
	}

	if err := r.records.Write(ctx, id, data); err != nil {
		return savedata.LexiconEntry{}, &savedata.Error{Code: savedata.CodeWriteFailure, Op: "write record", ID: id, Err: err}
	}

	r.lex.Add(entry)
	if err := r.lex.Flush(ctx); err != nil {
		// The record is now an orphan; keep memory in line with disk
		r.lex.Remove(id)
		return savedata.LexiconEntry{}, &savedata.Error{Code: savedata.CodeWriteFailure, Op: "flush lexicon", ID: id, Err: err}
	}

	r.logger.Info("save created",
		"id", id,
		"label", entry.Label,
		"bytes", len(data),
	)
	return entry, nil
}

// allocateID generates IDs until one is unused, at most maxIDAttempts times.
// Caller must hold r.mu.
func (r *Registry) allocateID() (string, error) {
	for attempt := 1; attempt <= r.maxIDAttempts; attempt++ {
		id := r.ids.Generate()
		if err := savedata.ValidateID(id); err != nil {
			return "", err
		}
		if !r.lex.Contains(id) {
			return id, nil
		}
		r.logger.Warn("save id collision, regenerating",
			"id", id,
			"attempt", attempt,
		)
	}
	return "", &savedata.Error{
		Code: savedata.CodeIDExhausted,
		Op:   "allocate id",
		Err:  fmt.Errorf("%d consecutive collisions", r.maxIDAttempts),
	}
}

// LoadSave reads the record for entry and decodes it into out.
//
// If the record is missing (e.g. deleted externally after Init) a
// MISSING_RECORD error is returned and the entry stays listed.
func (r *Registry) LoadSave(ctx context.Context, entry savedata.LexiconEntry, out any) error {
	if !r.Ready() {
		return ErrNotReady
	}

	r.mu.Lock()
	data, err := r.records.Read(ctx, entry.ID)
	r.mu.Unlock()

	if errors.Is(err, savedata.ErrNotFound) {
		r.logger.Warn("listed save has no record",
			"id", entry.ID,
			"label", entry.Label,
		)
		return &savedata.Error{Code: savedata.CodeMissingRecord, Op: "load save", ID: entry.ID, Err: err}
	}
	if err != nil {
		return fmt.Errorf("load save %s: %w", entry.ID, err)
	}

	if err := r.codec.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode save %s: %w", entry.ID, err)
	}
	return nil
}

// DeleteSave removes entry from the lexicon, deletes its record and flushes
// the lexicon. Deleting an unknown or already-deleted save is a no-op.
func (r *Registry) DeleteSave(ctx context.Context, entry savedata.LexiconEntry) error {
	if !r.Ready() {
		return ErrNotReady
	}
	if err := savedata.ValidateID(entry.ID); err != nil {
		return fmt.Errorf("delete save: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := r.lex.Remove(entry.ID)
	delErr := r.records.Delete(ctx, entry.ID)
	flushErr := r.lex.Flush(ctx)

	if err := errors.Join(delErr, flushErr); err != nil {
		return fmt.Errorf("delete save %s: %w", entry.ID, err)
	}

	if removed {
		r.logger.Info("save deleted",
			"id", entry.ID,
			"label", entry.Label,
		)
	}
	return nil
}

// ListSaves returns every known save, most recent first.
// Storage is not touched.
func (r *Registry) ListSaves() ([]savedata.LexiconEntry, error) {
	if !r.Ready() {
		return nil, ErrNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lex.Entries(), nil
}

// Find returns the listed entry with the given ID.
func (r *Registry) Find(id string) (savedata.LexiconEntry, bool) {
	if !r.Ready() {
		return savedata.LexiconEntry{}, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lex.Get(id)
}

// Orphans returns the IDs of stored records that no lexicon entry refers to.
func (r *Registry) Orphans(ctx context.Context) ([]string, error) {
	if !r.Ready() {
		return nil, ErrNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orphans(ctx)
}

// orphans requires r.mu.
func (r *Registry) orphans(ctx context.Context) ([]string, error) {
	ids, err := r.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("find orphans: %w", err)
	}

	orphans := []string{}
	for _, id := range ids {
		if !r.lex.Contains(id) {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}

// PurgeOrphans deletes every orphan record and returns how many were removed.
func (r *Registry) PurgeOrphans(ctx context.Context) (int, error) {
	if !r.Ready() {
		return 0, ErrNotReady
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	orphans, err := r.orphans(ctx)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, id := range orphans {
		if err := r.records.Delete(ctx, id); err != nil {
			return purged, fmt.Errorf("purge orphans: %w", err)
		}
		purged++
		r.logger.Info("orphan record purged", "id", id)
	}
	return purged, nil
}

func (r *Registry) saveStarted(label string) {
	if r.hooks.OnSaveStarted != nil {
		r.hooks.OnSaveStarted(label)
	}
}

func (r *Registry) saveFinished(entry savedata.LexiconEntry, err error) {
	if r.hooks.OnSaveFinished != nil {
		r.hooks.OnSaveFinished(entry, err)
	}
}
