// Package record provides durable key-value storage for opaque save payloads.
//
// Each save is one unit of storage addressed by its ID. The filesystem
// implementation, Dir, keeps one "<id>.json" file per save under a root
// directory. The SQLite implementation lives in internal/store and satisfies
// the same Store interface.
//
// Writes replace the previous payload in full. Dir writes to a temp file in
// the same directory and renames it into place, so a crash leaves either the
// old payload, the new payload, or a stray temp file; never a torn record.
package record
