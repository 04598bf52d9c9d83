package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// OrphansOptions holds flags for the orphans command.
type OrphansOptions struct {
	*RootOptions
	Purge bool
}

// OrphansResult is the JSON payload of the orphans command.
type OrphansResult struct {
	Orphans []string `json:"orphans"`
	Purged  int      `json:"purged"`
}

// NewOrphansCommand creates the orphans command.
func NewOrphansCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrphansOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "orphans",
		Short: "Find records no save refers to",
		Long: `List stored records that have no lexicon entry.

Orphans are left behind when the lexicon could not be written after a
record was. They are never listed or loaded; --purge deletes them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrphans(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Purge, "purge", false, "delete orphan records")

	return cmd
}

func runOrphans(opts *OrphansOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}
	defer closeSession(s)

	orphans, err := s.reg.Orphans(ctx)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to find orphans", err)
	}

	result := OrphansResult{Orphans: orphans}
	if opts.Purge && len(orphans) > 0 {
		purged, err := s.reg.PurgeOrphans(ctx)
		result.Purged = purged
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to purge orphans", err)
		}
	}

	return formatter.Success(result, formatOrphans(result, opts.Purge))
}

func formatOrphans(result OrphansResult, purge bool) string {
	if len(result.Orphans) == 0 {
		return "No orphan records."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d orphan record(s):", len(result.Orphans))
	for _, id := range result.Orphans {
		fmt.Fprintf(&b, "\n  %s", id)
	}
	if purge {
		fmt.Fprintf(&b, "\nPurged %d.", result.Purged)
	}
	return b.String()
}
