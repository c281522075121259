package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/config"
	"github.com/roach88/aerbatch/internal/noise"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	EnvFile string

	// Config is resolved from the environment before any subcommand runs.
	Config config.Config

	// Cache is shared by every backend the commands build, so a noise
	// model is characterised once per process.
	Cache *noise.Cache
}

// backendOptions returns the options every command passes to backend.New.
func (o *RootOptions) backendOptions(model *noise.NoiseModel) []backend.Option {
	return []backend.Option{
		backend.WithNoiseModel(model),
		backend.WithQubits(o.Config.Qubits),
		backend.WithCache(o.Cache),
	}
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the aerbatch CLI.
func NewRootCommand() *cobra.Command {
	cache, cacheErr := noise.NewCache(noise.DefaultCacheSize)
	opts := &RootOptions{Config: config.Defaults(), Cache: cache}

	cmd := &cobra.Command{
		Use:   "aerbatch",
		Short: "aerbatch - batch circuit execution on simulator backends",
		Long: `Characterise noise models, plan compilation and run batches of
circuits against a simulation engine, with results cached per handle.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				err := NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
				return err
			}
			configureLogging(cmd.ErrOrStderr(), opts.Verbose)

			if cacheErr != nil {
				exitErr := WrapExitError(ExitCommandError, "failed to create characterisation cache", cacheErr)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", exitErr)
				return exitErr
			}

			cfg, err := config.Load(opts.EnvFile)
			if err != nil {
				exitErr := WrapExitError(ExitCommandError, "failed to load configuration", err)
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", exitErr)
				return exitErr
			}
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "dotenv file with AERBATCH_* defaults")

	cmd.AddCommand(NewCharacterizeCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewJobsCommand(opts))

	return cmd
}

// configureLogging installs the process-wide slog handler.
func configureLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
