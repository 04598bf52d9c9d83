// Package registry is the composition root of the save system.
//
// A Registry owns a record.Store and a lexicon.Lexicon and is the only way
// game code touches either. It is constructed explicitly and initialized once:
//
//	reg := registry.New(records, lexicon.New(backing))
//	if err := reg.Init(ctx); err != nil { ... }
//	entry, err := reg.CreateSave(ctx, snapshot, "Before the volcano")
//
// # Lifecycle
//
// Uninitialized → Ready via Init, exactly once. Init loads the lexicon and
// drops every entry whose record is missing (reconciliation). A corrupt
// lexicon degrades to empty instead of failing Init. There is no teardown
// state; Close only stops the background create worker.
//
// # Ordering
//
// CreateSave writes the record before appending and flushing the lexicon.
// DeleteSave removes the lexicon entry before deleting the record. A crash
// between the two steps therefore leaves an orphan record: invisible to
// listing, reported by Orphans, removable with PurgeOrphans.
//
// # Concurrency
//
// A single mutex serializes every lexicon access and every storage mutation.
// CreateSaveAsync hands the write to one background worker that takes the
// same mutex, and returns a Pending that resolves to the new entry or a typed
// error.
package registry
