package cli

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/mechsave/internal/payload"
	"github.com/roach88/mechsave/internal/savedata"
)

// CreateOptions holds flags for the create command.
type CreateOptions struct {
	*RootOptions
	Label       string
	PayloadFile string
	Scene       string
	Checkpoint  string
	Health      float64
}

// NewCreateCommand creates the create command.
func NewCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a save from a scene snapshot",
		Long: `Create a new save slot.

The snapshot comes either from a JSON file (--payload) or from the
--scene/--checkpoint/--health flags. It is checked against the save
record schema before anything is written.

Example:
  mechsave create --label "Jungle - gate 2" --scene Jungle --checkpoint gate-2 --health 87.5
  mechsave create --label "Canyon" --payload ./snapshot.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Label, "label", "", "display label (required)")
	cmd.Flags().StringVar(&opts.PayloadFile, "payload", "", "path to a JSON scene snapshot")
	cmd.Flags().StringVar(&opts.Scene, "scene", "", "scene ID")
	cmd.Flags().StringVar(&opts.Checkpoint, "checkpoint", "", "checkpoint ID (optional)")
	cmd.Flags().Float64Var(&opts.Health, "health", 100, "player health")

	return cmd
}

func runCreate(opts *CreateOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd)

	data, err := snapshotDocument(opts)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return formatter.Reject(exitErr.Code, ErrCodeUsage, exitErr.Message, nil)
		}
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "failed to read payload", err)
	}

	validator, err := payload.NewValidator()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to load schema", err)
	}
	snap, err := validator.Decode(data)
	if err != nil {
		var ve *payload.ValidationError
		if errors.As(err, &ve) {
			_ = formatter.Error(ErrCodeInvalidPayload, ve.Error(), map[string]string{"path": ve.Path})
			return WrapExitError(ExitCommandError, ErrCodeInvalidPayload+": invalid payload", err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeInvalidPayload, "invalid payload", err)
	}
	formatter.VerboseLog("Payload valid: scene=%s health=%v", snap.SceneID, snap.Health)

	s, err := openSession(ctx, opts.RootOptions, cmd, formatter)
	if err != nil {
		return err
	}
	defer closeSession(s)

	entry, err := s.reg.CreateSave(ctx, snap, opts.Label)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to create save", err)
	}

	return formatter.Success(entry, "Created "+formatEntry(entry))
}

// snapshotDocument returns the JSON snapshot named by the flags.
func snapshotDocument(opts *CreateOptions) ([]byte, error) {
	if opts.Label == "" {
		return nil, NewExitError(ExitCommandError, "--label is required")
	}
	if opts.PayloadFile != "" && opts.Scene != "" {
		return nil, NewExitError(ExitCommandError, "--payload and --scene are mutually exclusive")
	}
	if opts.PayloadFile != "" {
		return os.ReadFile(opts.PayloadFile)
	}
	if opts.Scene == "" {
		return nil, NewExitError(ExitCommandError, "one of --payload or --scene is required")
	}

	snap := savedata.SceneSnapshot{SceneID: opts.Scene, Health: opts.Health}
	if opts.Checkpoint != "" {
		checkpoint := opts.Checkpoint
		snap.CheckpointID = &checkpoint
	}
	return json.Marshal(snap)
}
