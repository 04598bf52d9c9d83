// Package store provides a SQLite-backed alternative to the filesystem save
// layout. One database file holds both the records and the lexicon document.
//
// Store satisfies record.Store and lexicon.Backing, so the registry can run on
// it unchanged.
//
// # Tables
//
//   - records: one row per save, id TEXT PRIMARY KEY, opaque payload BLOB
//   - lexicon: a single row (slot = 1) holding the serialized lexicon document
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// The schema version is tracked with PRAGMA user_version.
package store
