// Package savedata defines the data model shared by every layer of the save
// registry: lexicon entries, the reference scene snapshot payload, the error
// taxonomy and the canonical JSON form of the lexicon document.
//
// This package imports nothing internal. The record store, the lexicon and the
// registry all build on it.
//
// Key constraints:
//   - Lexicon entry IDs are unique and immutable once assigned
//   - Creation times are stored in UTC with nanosecond precision
//   - The lexicon document is canonical JSON (sorted keys, NFC strings)
//   - Record payloads are opaque; only SceneSnapshot is known here, as a reference shape
package savedata
