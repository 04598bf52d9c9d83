// Package payload validates scene snapshot documents against a CUE schema
// before they are handed to the registry.
//
// The registry treats payloads as opaque. Validation is a concern of the
// tools that build payloads from user input, such as the CLI.
package payload

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/roach88/mechsave/internal/savedata"
)

//go:embed schema.cue
var schemaSrc string

// ValidationError describes the first schema violation in a document.
type ValidationError struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid save record at %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("invalid save record: %s", e.Message)
}

// Validator checks documents against the #SaveRecord definition.
//
// Thread-safety: safe for concurrent use; the CUE context is guarded by a mutex.
type Validator struct {
	mu     sync.Mutex
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile save record schema: %w", err)
	}
	def := v.LookupPath(cue.ParsePath("#SaveRecord"))
	if !def.Exists() {
		return nil, fmt.Errorf("compile save record schema: #SaveRecord not defined")
	}
	return &Validator{ctx: ctx, schema: def}, nil
}

// Validate checks that data is a JSON document satisfying #SaveRecord.
// Unknown fields are rejected.
func (v *Validator) Validate(data []byte) error {
	expr, err := cuejson.Extract("payload.json", data)
	if err != nil {
		return &ValidationError{Message: fmt.Sprintf("not valid JSON: %v", err)}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	doc := v.ctx.BuildExpr(expr)
	if err := doc.Err(); err != nil {
		return formatCUEError(err)
	}

	unified := v.schema.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// Decode validates data and decodes it into a SceneSnapshot.
func (v *Validator) Decode(data []byte) (savedata.SceneSnapshot, error) {
	if err := v.Validate(data); err != nil {
		return savedata.SceneSnapshot{}, err
	}
	var snap savedata.SceneSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return savedata.SceneSnapshot{}, fmt.Errorf("decode save record: %w", err)
	}
	return snap, nil
}

// Check validates an in-memory snapshot by encoding it first.
func (v *Validator) Check(snap savedata.SceneSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode save record: %w", err)
	}
	return v.Validate(data)
}

// formatCUEError reduces a CUE error list to its first entry with position info.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	first := errs[0]
	format, args := first.Msg()
	ve := &ValidationError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
	if positions := errors.Positions(first); len(positions) > 0 {
		ve.Pos = positions[0]
	}
	return ve
}
