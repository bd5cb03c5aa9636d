// Package commands implements the pbilint CLI commands.
package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/trannammai/pbilint/internal/cli/config"
	"github.com/trannammai/pbilint/internal/cli/output"
)

// ErrReported marks an error whose message has already been written to the
// user. The root command still exits non-zero but must not print it again.
var ErrReported = errors.New("error already reported")

type configKey struct{}
type rendererKey struct{}

// WithConfig stores the loaded config in ctx for commands to pick up.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithRenderer stores the renderer in ctx for commands to pick up.
func WithRenderer(ctx context.Context, r *output.Renderer) context.Context {
	return context.WithValue(ctx, rendererKey{}, r)
}

// GetConfig retrieves the config from the command context, falling back to
// defaults so commands stay usable in isolation (tests construct them bare).
func GetConfig(cmd *cobra.Command) *config.Config {
	if c, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Defaults()
}

// GetRenderer retrieves the renderer from the command context.
func GetRenderer(cmd *cobra.Command) *output.Renderer {
	if r, ok := cmd.Context().Value(rendererKey{}).(*output.Renderer); ok {
		return r
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(GetConfig(cmd).OutputFormat))
}

// NewLogger builds the collaborator log sink. All collaborator chatter goes
// to stderr - or nowhere with quiet - so stdout stays reserved for results.
func NewLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	var w io.Writer = cmd.ErrOrStderr()
	if cfg.Quiet {
		w = io.Discard
	}
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
