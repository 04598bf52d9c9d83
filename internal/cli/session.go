package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/mechsave/internal/config"
	"github.com/roach88/mechsave/internal/lexicon"
	"github.com/roach88/mechsave/internal/registry"
	"github.com/roach88/mechsave/internal/store"
)

// session is an initialized registry plus whatever must be closed after it.
type session struct {
	cfg    config.Config
	reg    *registry.Registry
	logger *slog.Logger
	closer func() error
}

// Close stops the registry and releases the backend.
func (s *session) Close() error {
	err := s.reg.Close()
	if s.closer != nil {
		if closeErr := s.closer(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// resolveConfig loads the config file (if any) and applies flag overrides.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if opts.Root != "" {
		cfg.Root = opts.Root
	}
	if opts.Backend != "" {
		cfg.Backend = opts.Backend
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds a text handler on the command's stderr.
// --verbose forces debug level; otherwise the config level applies.
func newLogger(opts *RootOptions, cfg config.Config, cmd *cobra.Command) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// openSession resolves config, opens the configured backend and runs Init.
// Failures are reported through formatter and returned as ExitErrors.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command, formatter *OutputFormatter) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}

	logger := newLogger(opts, cfg, cmd)
	regOpts := []registry.Option{
		registry.WithLogger(logger),
		registry.WithMaxIDAttempts(cfg.MaxIDAttempts),
		registry.WithFormatVersion(cfg.FormatVersion),
	}

	s := &session{cfg: cfg, logger: logger}
	dir := cfg.SaveDir()
	formatter.VerboseLog("Opening %s backend in %s", cfg.Backend, dir)

	switch cfg.Backend {
	case config.BackendSQLite:
		st, err := store.Open(filepath.Join(dir, store.FileName))
		if err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open database", err)
		}
		s.reg = registry.New(st, lexicon.New(st), regOpts...)
		s.closer = st.Close
	default:
		reg, err := registry.OpenDir(dir, regOpts...)
		if err != nil {
			return nil, formatter.Fail(ExitCommandError, ErrCodeOpenFailed, "failed to open save directory", err)
		}
		s.reg = reg
	}

	if err := s.reg.Init(ctx); err != nil {
		_ = s.Close()
		return nil, formatter.Fail(ExitFailure, ErrCodeGeneric, "failed to initialize registry", err)
	}

	report := s.reg.Reconciliation()
	if report.IndexErr != nil {
		formatter.VerboseLog("Lexicon unreadable, started empty: %v", report.IndexErr)
	}
	for _, e := range report.Pruned {
		formatter.VerboseLog("Pruned entry without record: %s (%s)", e.ID, e.Label)
	}
	return s, nil
}

// closeSession closes s and logs any error.
func closeSession(s *session) {
	if err := s.Close(); err != nil {
		s.logger.Error("error closing registry", "error", err)
	}
}

// newFormatter builds the formatter for cmd.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// commandContext returns cmd's context, falling back to Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
