package harness

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/mechsave/internal/savedata"
)

// Snapshot is the golden representation of a scenario run.
type Snapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Listed       []savedata.LexiconEntry
	Orphans      []string
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization, which only handles primitives, slices and maps.
func (s *Snapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		m := map[string]any{
			"seq": event.Seq,
			"op":  event.Op,
		}
		if event.ID != "" {
			m["id"] = event.ID
		}
		if event.Label != "" {
			m["label"] = event.Label
		}
		if event.Error != "" {
			m["error"] = event.Error
		}
		trace[i] = m
	}

	listed := make([]any, len(s.Listed))
	for i, e := range s.Listed {
		listed[i] = map[string]any{
			"id":           e.ID,
			"formatVer":    e.FormatVersion,
			"creationTime": e.CreationTime.UTC().Format(time.RFC3339Nano),
			"meta":         e.Label,
		}
	}

	orphans := make([]any, len(s.Orphans))
	for i, id := range s.Orphans {
		orphans[i] = id
	}

	return map[string]any{
		"scenario": s.ScenarioName,
		"trace":    trace,
		"listed":   listed,
		"orphans":  orphans,
	}
}

// RunWithGolden executes a scenario and compares the snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// Returns the result so callers can check Pass and Errors.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot := Snapshot{
		ScenarioName: name,
		Trace:        result.Trace,
		Listed:       result.Listed,
		Orphans:      result.Orphans,
	}

	data, err := savedata.MarshalCanonical(snapshot.toCanonicalMap())
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
