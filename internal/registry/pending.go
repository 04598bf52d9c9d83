package registry

import (
	"context"

	"github.com/roach88/mechsave/internal/savedata"
)

// Pending is the result of a background CreateSave.
type Pending struct {
	done  chan struct{}
	entry savedata.LexiconEntry
	err   error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolve is called exactly once.
func (p *Pending) resolve(entry savedata.LexiconEntry, err error) {
	p.entry = entry
	p.err = err
	close(p.done)
}

// Done is closed once the create has finished, successfully or not.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the create finishes or ctx is done.
// Cancelling ctx abandons the wait, not the write.
func (p *Pending) Wait(ctx context.Context) (savedata.LexiconEntry, error) {
	select {
	case <-p.done:
		return p.entry, p.err
	case <-ctx.Done():
		return savedata.LexiconEntry{}, ctx.Err()
	}
}
