// Package lexicon maintains the metadata index of all known saves.
//
// The lexicon is an in-memory collection of savedata.LexiconEntry values
// persisted as one canonical JSON document through a Backing. Every Flush
// rewrites the whole document; there is no incremental format.
//
// A Lexicon is not safe for concurrent use. The registry owns it and
// serializes all access.
package lexicon
