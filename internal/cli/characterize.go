package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/noise"
)

// CharacterizeOptions holds flags for the characterize command.
type CharacterizeOptions struct {
	*RootOptions
	Kind string
}

// CharacterizeReport is the characterize command's payload.
type CharacterizeReport struct {
	Constrained bool         `json:"constrained"`
	Info        backend.Info `json:"info"`
}

// RenderText prints the architecture and averaged error rates.
func (r CharacterizeReport) RenderText(w io.Writer) error {
	info := r.Info
	fmt.Fprintf(w, "%s (%s)\n", info.Name, info.DeviceName)
	if r.Constrained {
		fmt.Fprintf(w, "architecture: %d nodes, %d edges\n", len(info.Architecture.Nodes()), len(info.Architecture.Coupling))
	} else {
		fmt.Fprintf(w, "architecture: fully connected, %d nodes\n", len(info.Architecture.Nodes()))
	}

	for _, q := range slices.Sorted(maps.Keys(info.AveragedNodeErrors)) {
		fmt.Fprintf(w, "node %d: %.6g\n", q, info.AveragedNodeErrors[q])
	}
	edges := make([]noise.Edge, 0, len(info.AveragedEdgeErrors))
	for e := range info.AveragedEdgeErrors {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b noise.Edge) int {
		if a.Control != b.Control {
			return a.Control - b.Control
		}
		return a.Target - b.Target
	})
	for _, e := range edges {
		fmt.Fprintf(w, "edge %s: %.6g\n", e, info.AveragedEdgeErrors[e])
	}
	for _, q := range slices.Sorted(maps.Keys(info.AveragedReadoutErrors)) {
		fmt.Fprintf(w, "readout %d: %.6g\n", q, info.AveragedReadoutErrors[q])
	}
	return nil
}

// NewCharacterizeCommand creates the characterize command.
func NewCharacterizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CharacterizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "characterize <noise-model>",
		Short: "Derive architecture and error rates from a noise model",
		Long: `Characterise a noise model (.yaml, .json or .cue) the way a backend does
at construction: infer the coupling graph and per-node, per-edge and readout
error rates.

Example:
  aerbatch characterize ./noise.yaml
  aerbatch characterize --kind density_matrix --format json ./noise.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCharacterize(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "shots", "backend kind (shots|density_matrix)")
	return cmd
}

func runCharacterize(opts *CharacterizeOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	kind, err := parseKind(f, opts.Kind)
	if err != nil {
		return err
	}
	model, err := loadNoise(f, path)
	if err != nil {
		return err
	}

	// The engine is never started: only the backend description is used.
	b, err := backend.New(kind, engine.NewLocal(), opts.backendOptions(model)...)
	if err != nil {
		return f.Fail("failed to characterise noise model", err)
	}
	return f.Success(CharacterizeReport{Constrained: b.Constrained(), Info: b.Info()})
}
