// Package filter selects lexicon entries with expr-lang expressions.
//
// Expressions see only entry metadata, never payloads:
//
//	id         string
//	label      string
//	formatVer  int
//	created    time.Time
//
// plus expr builtins such as now(), date() and duration(). Examples:
//
//	label contains "Jungle"
//	created > now() - duration("24h")
//	formatVer == 1 && id startsWith "save-"
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/mechsave/internal/savedata"
)

// Env is the variable set an expression is evaluated against.
type Env struct {
	ID        string    `expr:"id"`
	Label     string    `expr:"label"`
	FormatVer int       `expr:"formatVer"`
	Created   time.Time `expr:"created"`
}

// EnvFor builds the environment for entry.
func EnvFor(entry savedata.LexiconEntry) Env {
	return Env{
		ID:        entry.ID,
		Label:     entry.Label,
		FormatVer: entry.FormatVersion,
		Created:   entry.CreationTime,
	}
}

// Filter is a compiled boolean expression.
//
// Thread-safety: a Filter may be used from multiple goroutines.
type Filter struct {
	source  string
	program *vm.Program
}

// Compile type-checks expression against Env. It must evaluate to a bool.
func Compile(expression string) (*Filter, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}
	program, err := expr.Compile(expression, expr.Env(Env{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.source
}

// Match reports whether entry satisfies the filter.
func (f *Filter) Match(entry savedata.LexiconEntry) (bool, error) {
	out, err := expr.Run(f.program, EnvFor(entry))
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q on %s: %w", f.source, entry.ID, err)
	}
	ok, isBool := out.(bool)
	if !isBool {
		return false, fmt.Errorf("evaluate filter %q on %s: got %T, want bool", f.source, entry.ID, out)
	}
	return ok, nil
}

// Apply returns the entries matching f, preserving order.
// A nil filter matches everything.
func Apply(f *Filter, entries []savedata.LexiconEntry) ([]savedata.LexiconEntry, error) {
	if f == nil {
		return entries, nil
	}
	matched := make([]savedata.LexiconEntry, 0, len(entries))
	for _, e := range entries {
		ok, err := f.Match(e)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, e)
		}
	}
	return matched, nil
}
