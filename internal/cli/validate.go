package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/circuit"
	"github.com/roach88/aerbatch/internal/engine"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Kind  string
	Batch string
}

// ValidationResult is the validate command's payload.
type ValidationResult struct {
	Valid    bool `json:"valid"`
	Events   int  `json:"events"`
	Circuits int  `json:"circuits,omitempty"`
}

// RenderText prints a one-line verdict.
func (r ValidationResult) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ Noise model valid (%d events", r.Events)
	if err != nil {
		return err
	}
	if r.Circuits > 0 {
		fmt.Fprintf(w, ", %d circuits accepted", r.Circuits)
	}
	_, err = fmt.Fprintln(w, ")")
	return err
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <noise-model>",
		Short: "Validate a noise model without running anything",
		Long: `Validate a noise model against the schema and the error classifier.

With --batch, also check every circuit of a batch file against the
predicates the backend would require with this noise model attached.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "shots", "backend kind used for --batch predicates")
	cmd.Flags().StringVar(&opts.Batch, "batch", "", "batch file whose circuits to check")
	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	model, err := loadNoise(f, path)
	if err != nil {
		return err
	}
	if err := model.Validate(); err != nil {
		return f.Fail("noise model rejected", err)
	}
	result := ValidationResult{Valid: true, Events: len(model.Errors)}

	if opts.Batch != "" {
		kind, err := parseKind(f, opts.Kind)
		if err != nil {
			return err
		}
		bf, err := loadBatch(f, opts.Batch)
		if err != nil {
			return err
		}
		b, err := backend.New(kind, engine.NewLocal(), opts.backendOptions(model)...)
		if err != nil {
			return f.Fail("failed to build backend", err)
		}
		circuits, _ := bf.Split()
		if err := circuit.CheckAll(circuits, b.RequiredPredicates()); err != nil {
			return f.Fail("batch rejected", err)
		}
		result.Circuits = len(circuits)
	}
	return f.Success(result)
}
