package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/aerbatch/internal/backend"
	"github.com/roach88/aerbatch/internal/engine"
	"github.com/roach88/aerbatch/internal/store"
)

// DefaultRunTimeout bounds how long run waits for results.
const DefaultRunTimeout = 5 * time.Minute

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Kind    string
	Noise   string
	Ledger  string
	Seed    int
	Shots   int
	Memory  bool
	Timeout time.Duration

	// IDGenerator overrides engine job ids (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDGenerator engine.IDGenerator
}

// CircuitReport is the outcome of one circuit.
type CircuitReport struct {
	Name     string         `json:"name"`
	Tag      string         `json:"tag,omitempty"`
	Handle   string         `json:"handle"`
	Shots    int            `json:"shots"`
	Counts   map[string]int `json:"counts,omitempty"`
	Memory   []string       `json:"memory,omitempty"`
	Snapshot string         `json:"snapshot,omitempty"`
}

// RunReport is the run command's payload.
type RunReport struct {
	Backend  string          `json:"backend"`
	Circuits []CircuitReport `json:"circuits"`
	Jobs     []store.Job     `json:"jobs"`
}

// RenderText prints each circuit's counts followed by a job summary.
func (r RunReport) RenderText(w io.Writer) error {
	for _, c := range r.Circuits {
		label := c.Name
		if c.Tag != "" {
			label += " [" + c.Tag + "]"
		}
		fmt.Fprintf(w, "%s %s\n", label, c.Handle)
		if c.Counts != nil {
			parts := make([]string, 0, len(c.Counts))
			for _, k := range slices.Sorted(maps.Keys(c.Counts)) {
				parts = append(parts, fmt.Sprintf("%s=%d", k, c.Counts[k]))
			}
			fmt.Fprintf(w, "  shots=%d counts: %s\n", c.Shots, strings.Join(parts, " "))
		}
		if c.Snapshot != "" {
			fmt.Fprintf(w, "  state: %s\n", c.Snapshot)
		}
	}
	_, err := fmt.Fprintf(w, "%d circuit(s) in %d job(s) on %s\n", len(r.Circuits), len(r.Jobs), r.Backend)
	return err
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <batch-file>",
		Short: "Run a batch of circuits on the local engine",
		Long: `Validate, batch and submit every circuit of a batch file, then wait for
the results. Circuits sharing a shot count run as one engine job.

Submissions and status changes are recorded in a SQLite ledger (in memory
unless --ledger or AERBATCH_LEDGER names a file).

Example:
  aerbatch run ./batch.yaml
  aerbatch run --noise ./noise.yaml --seed 7 --ledger ./jobs.db ./batch.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "shots", "backend kind (shots|state|unitary|density_matrix)")
	cmd.Flags().StringVar(&opts.Noise, "noise", "", "noise model file")
	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to SQLite ledger (default from AERBATCH_LEDGER, else in memory)")
	cmd.Flags().IntVar(&opts.Seed, "seed", 0, "simulator seed; increments per job")
	cmd.Flags().IntVar(&opts.Shots, "shots", 0, "shots for circuits without their own count")
	cmd.Flags().BoolVar(&opts.Memory, "memory", false, "return per-shot memory")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", DefaultRunTimeout, "how long to wait for results")

	return cmd
}

func runBatch(opts *RunOptions, path string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	kind, err := parseKind(f, opts.Kind)
	if err != nil {
		return err
	}
	model, err := loadNoise(f, opts.Noise)
	if err != nil {
		return err
	}
	bf, err := loadBatch(f, path)
	if err != nil {
		return err
	}

	ledgerPath := opts.Config.Ledger
	if cmd.Flags().Changed("ledger") {
		ledgerPath = opts.Ledger
	}
	st, err := store.Open(ledgerPath)
	if err != nil {
		_ = f.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to open ledger", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing ledger", "error", closeErr)
		}
	}()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var engOpts []engine.LocalOption
	if opts.IDGenerator != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(opts.IDGenerator))
	}
	local := engine.NewLocal(engOpts...)

	registry := backend.NewRegistry()
	if err := registry.Register(kind.DeviceName(), "local", local); err != nil {
		return f.Fail("failed to register engine", err)
	}
	eng, err := registry.Lookup(kind.DeviceName())
	if err != nil {
		return f.Fail("no engine for backend", err)
	}

	engineDone := make(chan struct{})
	go func() {
		defer close(engineDone)
		if err := local.Start(ctx); err != nil && ctx.Err() == nil {
			slog.Error("engine stopped", "error", err)
		}
	}()
	defer func() {
		local.Stop()
		<-engineDone
	}()

	b, err := backend.New(kind, eng, append(opts.backendOptions(model),
		backend.WithLedger(st),
		backend.WithMemory(opts.Memory),
	)...)
	if err != nil {
		return f.Fail("failed to build backend", err)
	}

	procOpts := backend.ProcessOptions{ValidCheck: true, Postprocess: true}
	switch {
	case cmd.Flags().Changed("shots"):
		procOpts.DefaultShots = &opts.Shots
	case bf.Shots != nil:
		procOpts.DefaultShots = bf.Shots
	case kind.Capabilities().Shots:
		procOpts.DefaultShots = opts.Config.Shots
	}
	if cmd.Flags().Changed("seed") {
		procOpts.Seed = &opts.Seed
	}

	circuits, shots := bf.Split()
	slog.Info("submitting batch", "file", path, "circuits", len(circuits), "backend", kind.String())
	handles, err := b.Process(ctx, circuits, shots, procOpts)
	if err != nil {
		return f.Fail("failed to submit batch", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, opts.Timeout)
	defer waitCancel()

	report := RunReport{Backend: kind.String(), Circuits: make([]CircuitReport, len(handles))}
	for i, h := range handles {
		if status, err := b.Status(waitCtx, h); err == nil {
			slog.Debug("circuit status", "handle", h.String(), "status", status.Status)
		}
		res, err := b.Result(waitCtx, h)
		if err != nil {
			return f.Fail(fmt.Sprintf("circuit %d (%s) did not complete", i, circuits[i].Name), err)
		}
		cr := CircuitReport{
			Name:   circuits[i].Name,
			Tag:    circuits[i].Tag,
			Handle: h.String(),
			Shots:  res.Shots,
			Counts: res.Counts,
			Memory: res.Memory,
		}
		if res.Snapshot != nil {
			cr.Snapshot = fmt.Sprint(res.Snapshot)
		}
		report.Circuits[i] = cr
	}

	jobs, err := st.ListJobs(ctx)
	if err != nil {
		_ = f.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to read ledger", err)
	}
	report.Jobs = jobs
	return f.Success(report)
}
