package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/aerbatch/internal/store"
)

// JobsOptions holds flags for the jobs command.
type JobsOptions struct {
	*RootOptions
	Ledger string
	JobID  string
}

// JobsReport is the jobs command's payload.
type JobsReport struct {
	Jobs   []store.Job      `json:"jobs,omitempty"`
	Events []store.JobEvent `json:"events,omitempty"`
}

// RenderText prints one line per job, or per event with --job.
func (r JobsReport) RenderText(w io.Writer) error {
	for _, j := range r.Jobs {
		fmt.Fprintf(w, "%s\t%s\tshots=%s\tseed=%s\tcircuits=%d\t%s\n",
			j.JobID, j.Backend, optInt(j.Shots), optInt(j.Seed), j.Circuits, j.LastStatus)
	}
	for _, ev := range r.Events {
		fmt.Fprintf(w, "%d\t%s\t%s\n", ev.Seq, ev.JobID, ev.Status)
	}
	if len(r.Jobs) == 0 && len(r.Events) == 0 {
		_, err := fmt.Fprintln(w, "no jobs recorded")
		return err
	}
	return nil
}

func optInt(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

// NewJobsCommand creates the jobs command.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs recorded in a ledger",
		Long: `List the jobs recorded in a SQLite ledger in submission order, or the
status history of a single job with --job.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobs(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "ledger", "", "path to SQLite ledger (default from AERBATCH_LEDGER)")
	cmd.Flags().StringVar(&opts.JobID, "job", "", "show the status history of one job")
	return cmd
}

func runJobs(opts *JobsOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout())

	path := opts.Ledger
	if path == "" {
		path = opts.Config.Ledger
	}
	if path == "" || path == store.MemoryDSN {
		return f.failArg(fmt.Errorf("a ledger file is required (--ledger or AERBATCH_LEDGER)"))
	}

	if _, err := os.Stat(path); err != nil {
		return f.failInput("failed to open ledger", err)
	}

	st, err := store.Open(path)
	if err != nil {
		_ = f.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to open ledger", err)
	}
	defer st.Close()

	var report JobsReport
	if opts.JobID != "" {
		report.Events, err = st.JobEvents(cmd.Context(), opts.JobID)
	} else {
		report.Jobs, err = st.ListJobs(cmd.Context())
	}
	if err != nil {
		_ = f.Error(ErrCodeLedger, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeLedger+": failed to read ledger", err)
	}
	return f.Success(report)
}
