package harness

import (
	"fmt"
	"slices"
)

// evaluateAssertion returns a failure message, or "" if a holds.
func evaluateAssertion(a Assertion, result *Result) string {
	switch a.Type {
	case AssertListed:
		ids := make([]string, 0, len(result.Listed))
		for _, e := range result.Listed {
			ids = append(ids, e.ID)
		}
		return compareIDs("listed", a.IDs, ids)

	case AssertOrphans:
		return compareIDs("orphans", a.IDs, result.Orphans)

	case AssertPruned:
		return compareIDs("pruned", a.IDs, result.Pruned)

	case AssertIndexDegraded:
		if result.IndexDegraded != a.Value {
			return fmt.Sprintf("index_degraded: expected %v, got %v", a.Value, result.IndexDegraded)
		}
		return ""

	case AssertTraceCount:
		count := 0
		for _, e := range result.Trace {
			if e.Op == a.Op {
				count++
			}
		}
		if count != a.Count {
			return fmt.Sprintf("trace_count: expected %d %s step(s), got %d", a.Count, a.Op, count)
		}
		return ""
	}
	return fmt.Sprintf("unknown assertion type %q", a.Type)
}

// compareIDs treats nil and empty as equal.
func compareIDs(what string, want, got []string) string {
	if len(want) == 0 && len(got) == 0 {
		return ""
	}
	if !slices.Equal(want, got) {
		return fmt.Sprintf("%s: expected %v, got %v", what, want, got)
	}
	return ""
}
