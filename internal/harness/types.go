package harness

import "github.com/roach88/mechsave/internal/savedata"

// Result contains the outcome of running a scenario.
type Result struct {
	// Pass is true if every step met its expectation and every assertion held.
	Pass bool

	// Trace is the ordered list of executed steps.
	Trace []TraceEvent

	// Listed is the registry's listing after the last step.
	Listed []savedata.LexiconEntry

	// Orphans are the record IDs no listed entry refers to after the last step.
	Orphans []string

	// Pruned holds the IDs dropped by the most recent Init.
	Pruned []string

	// IndexDegraded is true if the most recent Init found the lexicon unreadable.
	IndexDegraded bool

	// Errors collects expectation and assertion failures.
	Errors []string
}

// TraceEvent records one executed step.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Op    string `json:"op"`
	ID    string `json:"id,omitempty"`
	Label string `json:"label,omitempty"`
	Error string `json:"error,omitempty"` // savedata error code, or "error"
}
