package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/mechsave/internal/config"
)

// Scenario defines a registry conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend is "fs" (default) or "sqlite".
	Backend string `yaml:"backend,omitempty"`

	// IDs is the sequence handed out by the ID generator. Once exhausted the
	// last ID repeats, which drives the collision retry loop.
	IDs []string `yaml:"ids"`

	// MaxIDAttempts overrides the registry's collision retry bound.
	MaxIDAttempts int `yaml:"max_id_attempts,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one operation.
//
// Registry operations: create, load, delete, purge_orphans, restart.
// Storage edits that bypass the registry: remove_record, write_record,
// write_index.
type Step struct {
	Op string `yaml:"op"`

	// ID names the save for load, delete and the storage edits.
	ID string `yaml:"id,omitempty"`

	// Label, Scene and Health build the payload for create.
	Label  string  `yaml:"label,omitempty"`
	Scene  string  `yaml:"scene,omitempty"`
	Health float64 `yaml:"health,omitempty"`

	// Document is the raw bytes for write_record and write_index.
	Document string `yaml:"document,omitempty"`

	// Expect validates the step outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step outcome.
type ExpectClause struct {
	// ID is the expected ID of a created save.
	ID string `yaml:"id,omitempty"`

	// Error is the expected savedata error code; empty means success.
	Error string `yaml:"error,omitempty"`

	// Scene is the expected scene of a loaded payload.
	Scene string `yaml:"scene,omitempty"`
}

// Assertion validates final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "listed": listing equals IDs, in order
	// - "orphans": orphan records equal IDs, sorted
	// - "pruned": the last Init pruned exactly IDs
	// - "index_degraded": the last Init found the lexicon unreadable (Value)
	// - "trace_count": Op appears exactly Count times in the trace
	Type string `yaml:"type"`

	IDs   []string `yaml:"ids,omitempty"`
	Op    string   `yaml:"op,omitempty"`
	Count int      `yaml:"count,omitempty"`
	Value bool     `yaml:"value,omitempty"`
}

// Step operations.
const (
	OpCreate       = "create"
	OpLoad         = "load"
	OpDelete       = "delete"
	OpPurgeOrphans = "purge_orphans"
	OpRestart      = "restart"
	OpRemoveRecord = "remove_record"
	OpWriteRecord  = "write_record"
	OpWriteIndex   = "write_index"
)

// Assertion type constants.
const (
	AssertListed        = "listed"
	AssertOrphans       = "orphans"
	AssertPruned        = "pruned"
	AssertIndexDegraded = "index_degraded"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	switch s.Backend {
	case "", config.BackendFS, config.BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}
	if s.MaxIDAttempts < 0 {
		return fmt.Errorf("max_id_attempts must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep validates a single step based on its op.
func validateStep(index int, st *Step) error {
	switch st.Op {
	case "":
		return fmt.Errorf("steps[%d]: op is required", index)
	case OpCreate:
		if st.Scene == "" {
			return fmt.Errorf("steps[%d]: scene is required for create", index)
		}
	case OpLoad, OpDelete, OpRemoveRecord, OpWriteRecord:
		if st.ID == "" {
			return fmt.Errorf("steps[%d]: id is required for %s", index, st.Op)
		}
	case OpWriteIndex, OpPurgeOrphans, OpRestart:
	default:
		return fmt.Errorf("steps[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertListed, AssertOrphans, AssertPruned, AssertIndexDegraded:
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
