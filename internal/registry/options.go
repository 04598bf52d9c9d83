package registry

import (
	"log/slog"

	"github.com/roach88/mechsave/internal/savedata"
)

// DefaultMaxIDAttempts bounds the collision retry loop in CreateSave.
const DefaultMaxIDAttempts = 16

// Hooks observe the save lifecycle, e.g. to show and hide a saving indicator.
// Either field may be nil. Hooks run on the goroutine performing the create
// and outside the registry lock.
type Hooks struct {
	OnSaveStarted  func(label string)
	OnSaveFinished func(entry savedata.LexiconEntry, err error)
}

// Option configures a Registry.
type Option func(*Registry)

// WithIDGenerator sets the source of save IDs. Default: UUIDGenerator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Registry) {
		r.ids = g
	}
}

// WithClock sets the source of creation times. Default: SystemClock.
func WithClock(c Clock) Option {
	return func(r *Registry) {
		r.clock = c
	}
}

// WithCodec sets the payload codec. Default: JSONCodec.
func WithCodec(c Codec) Option {
	return func(r *Registry) {
		r.codec = c
	}
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// WithMaxIDAttempts bounds how many IDs CreateSave generates before giving up
// with an ID_EXHAUSTED error. Values below 1 are treated as 1.
func WithMaxIDAttempts(n int) Option {
	return func(r *Registry) {
		r.maxIDAttempts = max(n, 1)
	}
}

// WithFormatVersion sets the format version stamped on new entries.
// Default: savedata.CurrentFormatVersion.
func WithFormatVersion(v int) Option {
	return func(r *Registry) {
		r.formatVersion = v
	}
}

// WithHooks installs save lifecycle hooks.
func WithHooks(h Hooks) Option {
	return func(r *Registry) {
		r.hooks = h
	}
}
