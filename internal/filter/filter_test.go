package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mechsave/internal/savedata"
)

var epoch = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func entries() []savedata.LexiconEntry {
	return []savedata.LexiconEntry{
		{ID: "save-c", FormatVersion: 2, CreationTime: epoch.Add(2 * time.Hour), Label: "Jungle - gate 3"},
		{ID: "save-b", FormatVersion: 1, CreationTime: epoch.Add(time.Hour), Label: "Canyon"},
		{ID: "old-a", FormatVersion: 1, CreationTime: epoch, Label: "Jungle - start"},
	}
}

func ids(es []savedata.LexiconEntry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.ID)
	}
	return out
}

func TestApply(t *testing.T) {
	tests := []struct {
		expression string
		want       []string
	}{
		{`label contains "Jungle"`, []string{"save-c", "old-a"}},
		{`id startsWith "save-"`, []string{"save-c", "save-b"}},
		{`formatVer == 1`, []string{"save-b", "old-a"}},
		{`formatVer == 1 && label contains "Jungle"`, []string{"old-a"}},
		{`created > date("2026-10-19T08:30:00Z")`, []string{"save-c", "save-b"}},
		{`created < date("2026-10-19T08:30:00Z") - duration("1h")`, []string{}},
		{`false`, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			f, err := Compile(tt.expression)
			require.NoError(t, err)

			got, err := Apply(f, entries())
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApply_NilFilterMatchesAll(t *testing.T) {
	got, err := Apply(nil, entries())
	require.NoError(t, err)
	assert.Equal(t, []string{"save-c", "save-b", "old-a"}, ids(got))
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		expression string
	}{
		{"empty", "  "},
		{"not bool", `label`},
		{"unknown variable", `ammo > 3`},
		{"syntax", `label ==`},
		{"type mismatch", `formatVer == "one"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expression)
			assert.Error(t, err)
		})
	}
}

func TestMatch(t *testing.T) {
	f, err := Compile(`label == "Canyon"`)
	require.NoError(t, err)
	assert.Equal(t, `label == "Canyon"`, f.String())

	ok, err := f.Match(savedata.LexiconEntry{ID: "x", Label: "Canyon"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Match(savedata.LexiconEntry{ID: "y", Label: "Arena"})
	require.NoError(t, err)
	assert.False(t, ok)
}
