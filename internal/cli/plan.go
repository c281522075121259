package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/policy"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Kind    string
	Noise   string
	Level   int
	Timeout int
}

// Plan is the plan command's payload.
type Plan struct {
	Backend     string         `json:"backend"`
	Level       int            `json:"level"`
	Constrained bool           `json:"constrained"`
	Stages      []policy.Stage `json:"stages"`
}

// RenderText prints one stage per line.
func (p Plan) RenderText(w io.Writer) error {
	_, err := io.WriteString(w, policy.Format(p.Stages))
	return err
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the default compilation plan",
		Long: `Print the compiler stages a backend applies at an optimisation level.
A noise model with a constrained architecture adds routing stages.

Example:
  aerbatch plan --level 3 --timeout 60
  aerbatch plan --noise ./noise.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "shots", "backend kind (shots|state|unitary|density_matrix)")
	cmd.Flags().StringVar(&opts.Noise, "noise", "", "noise model file")
	cmd.Flags().IntVarP(&opts.Level, "level", "l", 0, "optimisation level 0-3 (default from AERBATCH_OPT_LEVEL, else 2)")
	cmd.Flags().IntVar(&opts.Timeout, "timeout", 0, "GreedyPauliSimp thread timeout in seconds (default from AERBATCH_TIMEOUT, else 300)")
	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	level, timeout := opts.Level, opts.Timeout
	if !cmd.Flags().Changed("level") {
		level = opts.Config.OptLevel
	}
	if !cmd.Flags().Changed("timeout") {
		timeout = opts.Config.Timeout
	}

	kind, err := parseKind(f, opts.Kind)
	if err != nil {
		return err
	}
	model, err := loadNoise(f, opts.Noise)
	if err != nil {
		return err
	}
	b, err := backend.New(kind, engine.NewLocal(), opts.backendOptions(model)...)
	if err != nil {
		return f.Fail("failed to build backend", err)
	}

	stages, err := b.DefaultCompilationPlan(level, timeout)
	if err != nil {
		return f.failArg(err)
	}
	return f.Success(Plan{
		Backend:     kind.String(),
		Level:       level,
		Constrained: b.Constrained(),
		Stages:      stages,
	})
}
