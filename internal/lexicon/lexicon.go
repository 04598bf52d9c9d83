package lexicon

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/mechsave/internal/savedata"
)

// Lexicon is the ordered collection of save metadata.
type Lexicon struct {
	backing Backing
	entries []savedata.LexiconEntry
}

// New creates an empty lexicon over the given backing. Call Load to populate it.
func New(backing Backing) *Lexicon {
	return &Lexicon{backing: backing}
}

// Load replaces the in-memory collection with the persisted document and
// returns the entries, sorted as Entries does.
//
// A missing document yields an empty collection. A malformed document yields
// an empty collection AND a CORRUPT_INDEX error; the document itself is left
// untouched until the next Flush. Read errors leave the collection empty too.
//
// Entries sharing an ID keep the first occurrence.
func (l *Lexicon) Load(ctx context.Context) ([]savedata.LexiconEntry, error) {
	l.entries = nil

	data, err := l.backing.ReadDocument(ctx)
	if err != nil {
		return []savedata.LexiconEntry{}, fmt.Errorf("load lexicon: %w", err)
	}
	if data == nil {
		return []savedata.LexiconEntry{}, nil
	}

	entries, err := savedata.UnmarshalLexicon(data)
	if err != nil {
		return []savedata.LexiconEntry{}, err
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		l.entries = append(l.entries, e)
	}
	return l.Entries(), nil
}

// Add appends an entry. The caller guarantees its ID is not already present.
func (l *Lexicon) Add(entry savedata.LexiconEntry) {
	l.entries = append(l.entries, entry)
}

// Remove deletes the entry with the given ID and reports whether one was removed.
func (l *Lexicon) Remove(id string) bool {
	i := l.index(id)
	if i < 0 {
		return false
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return true
}

// Contains reports whether an entry with the given ID exists.
func (l *Lexicon) Contains(id string) bool {
	return l.index(id) >= 0
}

// Get returns the entry with the given ID.
func (l *Lexicon) Get(id string) (savedata.LexiconEntry, bool) {
	i := l.index(id)
	if i < 0 {
		return savedata.LexiconEntry{}, false
	}
	return l.entries[i], true
}

// Len returns the number of entries.
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the collection, most recent first.
// Entries with equal creation times are ordered by ID.
func (l *Lexicon) Entries() []savedata.LexiconEntry {
	out := make([]savedata.LexiconEntry, len(l.entries))
	copy(out, l.entries)
	SortEntries(out)
	return out
}

// Flush rewrites the persisted document with the full current collection.
func (l *Lexicon) Flush(ctx context.Context) error {
	data, err := savedata.MarshalLexicon(l.Entries())
	if err != nil {
		return fmt.Errorf("flush lexicon: %w", err)
	}
	if err := l.backing.WriteDocument(ctx, data); err != nil {
		return fmt.Errorf("flush lexicon: %w", err)
	}
	return nil
}

// SortEntries orders entries by creation time descending, then ID ascending.
func SortEntries(entries []savedata.LexiconEntry) {
	slices.SortStableFunc(entries, func(a, b savedata.LexiconEntry) int {
		if c := b.CreationTime.Compare(a.CreationTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func (l *Lexicon) index(id string) int {
	return slices.IndexFunc(l.entries, func(e savedata.LexiconEntry) bool {
		return e.ID == id
	})
}
