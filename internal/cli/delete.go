package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/mechsave/internal/savedata"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a save",
		Long: `Remove a save from the lexicon and delete its record.

Deleting an unknown save succeeds; any stray record with that ID is removed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDelete(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer closeSession(s)

	entry, ok := s.reg.Find(id)
	if !ok {
		entry = savedata.LexiconEntry{ID: id}
		formatter.VerboseLog("Save %s not listed; removing any stray record", id)
	}

	if err := s.reg.DeleteSave(ctx, entry); err != nil {
		exitCode := ExitFailure
		if savedata.IsInvalidID(err) {
			exitCode = ExitCommandError
		}
		return formatter.Fail(exitCode, ErrCodeGeneric, "failed to delete save", err)
	}

	return formatter.Success(map[string]interface{}{"id": id, "listed": ok}, "Deleted "+id)
}
