package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/mechsave/internal/savedata"
)

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Entry   savedata.LexiconEntry `json:"entry"`
	Payload json.RawMessage       `json:"payload"`
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a save's record",
		Long: `Load a listed save and print its record.

Example:
  mechsave show 6f1c2a9e-0d3b-4f6e-9a59-3c1d2b7e8f10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runShow(opts *RootOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	ctx := commandContext(cmd)

	s, err := openSession(ctx, opts, cmd, formatter)
	if err != nil {
		return err
	}
	defer closeSession(s)

	entry, ok := s.reg.Find(id)
	if !ok {
		return formatter.Reject(ExitFailure, ErrCodeNotFound, fmt.Sprintf("save %q not found", id), map[string]string{"id": id})
	}

	var raw json.RawMessage
	if err := s.reg.LoadSave(ctx, entry, &raw); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to load save", err)
	}

	result := ShowResult{Entry: entry, Payload: raw}
	return formatter.Success(result, formatEntry(entry)+"\n"+string(raw))
}
