package registry

import (
	"context"

	"github.com/roach88/mechsave/internal/savedata"
)

// CreateSaveAsync performs CreateSave on the background worker.
//
// The payload is encoded before this method returns, so later changes to it
// do not affect the save. The returned Pending resolves to the new entry or
// to the same typed errors CreateSave returns; it resolves to ErrNotReady
// before Init and ErrClosed after Close.
//
// Jobs run one at a time in submission order. A job whose ctx is done by the
// time the worker reaches it resolves to the context error without writing.
func (r *Registry) CreateSaveAsync(ctx context.Context, payload any, label string) *Pending {
	p := newPending()
	if !r.Ready() {
		p.resolve(savedata.LexiconEntry{}, ErrNotReady)
		return p
	}

	r.saveStarted(label)

	data, err := r.encode(payload)
	if err != nil {
		r.finishJob(p, savedata.LexiconEntry{}, err)
		return p
	}

	r.workerOnce.Do(func() {
		go r.runWorker()
	})

	if !r.jobs.Enqueue(createJob{ctx: ctx, data: data, label: label, pending: p}) {
		r.finishJob(p, savedata.LexiconEntry{}, ErrClosed)
	}
	return p
}

// Close stops accepting background creates, lets queued ones finish and
// waits for the worker to exit. Synchronous operations keep working.
// Close is idempotent.
func (r *Registry) Close() error {
	r.jobs.Close()
	r.workerOnce.Do(func() {
		// Worker never started
		close(r.workerDone)
	})
	<-r.workerDone
	return nil
}

// runWorker is the single background writer.
// It drains the queue in FIFO order and exits once the queue is closed and empty.
func (r *Registry) runWorker() {
	defer close(r.workerDone)

	for {
		if j, ok := r.jobs.TryDequeue(); ok {
			entry, err := r.create(j.ctx, j.data, j.label)
			if err != nil {
				r.logger.Error("background save failed",
					"label", j.label,
					"error", err,
				)
			}
			r.finishJob(j.pending, entry, err)
			continue
		}

		if r.jobs.Drained() {
			return
		}
		<-r.jobs.Wait()
	}
}

func (r *Registry) finishJob(p *Pending, entry savedata.LexiconEntry, err error) {
	p.resolve(entry, err)
	r.saveFinished(entry, err)
}
