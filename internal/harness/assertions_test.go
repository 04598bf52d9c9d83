package harness

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/mechsave/internal/savedata"
)

func TestEvaluateAssertion(t *testing.T) {
	result := &Result{
		Trace: []TraceEvent{
			{Seq: 1, Op: OpCreate, ID: "a"},
			{Seq: 2, Op: OpCreate, ID: "b"},
			{Seq: 3, Op: OpDelete, ID: "a"},
		},
		Listed: []savedata.LexiconEntry{
			{ID: "b", CreationTime: time.Unix(2, 0)},
		},
		Orphans:       []string{"x"},
		Pruned:        nil,
		IndexDegraded: true,
	}

	tests := []struct {
		name      string
		assertion Assertion
		wantFail  string
	}{
		{"listed ok", Assertion{Type: AssertListed, IDs: []string{"b"}}, ""},
		{"listed wrong", Assertion{Type: AssertListed, IDs: []string{"a", "b"}}, "listed: expected"},
		{"orphans ok", Assertion{Type: AssertOrphans, IDs: []string{"x"}}, ""},
		{"orphans wrong", Assertion{Type: AssertOrphans}, "orphans: expected"},
		{"pruned empty", Assertion{Type: AssertPruned, IDs: []string{}}, ""},
		{"degraded ok", Assertion{Type: AssertIndexDegraded, Value: true}, ""},
		{"degraded wrong", Assertion{Type: AssertIndexDegraded, Value: false}, "index_degraded"},
		{"count ok", Assertion{Type: AssertTraceCount, Op: OpCreate, Count: 2}, ""},
		{"count wrong", Assertion{Type: AssertTraceCount, Op: OpDelete, Count: 2}, "trace_count"},
		{"unknown", Assertion{Type: "vibes"}, "unknown assertion type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := evaluateAssertion(tt.assertion, result)
			if tt.wantFail == "" {
				assert.Empty(t, msg)
			} else {
				assert.Contains(t, msg, tt.wantFail)
			}
		})
	}
}
