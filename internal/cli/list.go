package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/roach88/mechsave/internal/filter"
	"github.com/roach88/mechsave/internal/savedata"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Filter string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saves, newest first",
		Long: `List every save in the lexicon, most recent first.

Entries whose record is missing, or whose id could never name a record, are
pruned when the registry starts. A record deleted by another program after
that still lists until it is deleted here; show reports it as MISSING_RECORD.

--filter takes an expression over id, label, formatVer and created.

Example:
  mechsave list
  mechsave list --format json
  mechsave list --filter 'label contains "Jungle"'
  mechsave list --filter 'created > now() - duration("24h")'`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only list entries matching this expression")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	var f *filter.Filter
	if opts.Filter != "" {
		compiled, err := filter.Compile(opts.Filter)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeUsage, "invalid filter", err)
		}
		f = compiled
	}

	s, err := openSession(ctx, opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}
	defer closeSession(s)

	entries, err := s.reg.ListSaves()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to list saves", err)
	}
	entries, err = filter.Apply(f, entries)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to filter saves", err)
	}
	if entries == nil {
		entries = []savedata.LexiconEntry{}
	}

	return formatter.Success(entries, formatEntries(entries))
}

// maxLabelWidth bounds the label column in text output, in terminal cells.
const maxLabelWidth = 48

// formatEntries renders one line per entry with the ID column aligned.
func formatEntries(entries []savedata.LexiconEntry) string {
	if len(entries) == 0 {
		return "No saves."
	}
	idWidth := 0
	for _, e := range entries {
		idWidth = max(idWidth, runewidth.StringWidth(e.ID))
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, formatEntryPadded(e, idWidth))
	}
	return strings.Join(lines, "\n")
}

func formatEntry(e savedata.LexiconEntry) string {
	return formatEntryPadded(e, 0)
}

// formatEntryPadded pads the ID to idWidth cells and truncates long labels.
// Labels may hold wide glyphs, so widths are measured in cells, not runes.
func formatEntryPadded(e savedata.LexiconEntry, idWidth int) string {
	return fmt.Sprintf("%s  %s  %s",
		runewidth.FillRight(e.ID, idWidth),
		e.CreationTime.UTC().Format(time.RFC3339),
		runewidth.Truncate(e.Label, maxLabelWidth, "…"),
	)
}
