// Package harness runs save registry conformance scenarios.
//
// A scenario is a YAML file listing registry operations (create, load,
// delete, restart) interleaved with out-of-band storage edits (a record
// removed behind the registry's back, a corrupted lexicon document) and the
// assertions that must hold afterwards. Each scenario runs against a fresh
// backend with a scripted ID sequence and a step clock, so the resulting
// trace is deterministic and can be compared against a golden file.
//
// Scenarios live in testdata/scenarios; golden traces in testdata/golden.
// Regenerate golden files with:
//
//	go test ./internal/harness -update
package harness
