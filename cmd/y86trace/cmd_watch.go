package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"y86trace/internal/logging"
	"y86trace/internal/report"
	"y86trace/internal/watch"
)

var watchInitial bool

// watchCmd rebuilds the report whenever the simulator rewrites the trace
var watchCmd = &cobra.Command{
	Use:   "watch [trace.vcd]",
	Short: "Rebuild and save a report each time the trace file changes",
	Long: `Watches the trace file and, once writes have settled for the configured
debounce interval, rebuilds the report and saves it to the run database.
One JSON summary line is printed per rebuild. Stop with Ctrl-C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Build a report immediately before waiting for changes")
}

type watchSummary struct {
	ID     string   `json:"id"`
	Mode   string   `json:"mode"`
	Trace  string   `json:"trace"`
	Total  int      `json:"total"`
	CPI    *float64 `json:"cpi,omitempty"`
	Period *uint64  `json:"periodTicks,omitempty"`
}

// rebuildFunc builds, saves and summarises one report.
func rebuildFunc(out io.Writer, args []string) watch.RebuildFunc {
	return func(ctx context.Context) error {
		rep, err := buildReport(ctx, args)
		if err != nil {
			return err
		}
		if err := saveReport(ctx, rep); err != nil {
			logging.WatchError("report %s not saved: %v", rep.ID, err)
		}
		return writeJSON(out, summarize(rep))
	}
}

func summarize(rep *report.Report) watchSummary {
	s := watchSummary{ID: rep.ID, Mode: string(rep.Mode), Trace: rep.TracePath, Total: rep.Total}
	if rep.Metrics != nil {
		s.CPI = rep.Metrics.CPI
	}
	if rep.Clock != nil {
		s.Period = rep.Clock.PeriodTicks
	}
	return s
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	path := pathArg(args, cfg.TracePath())
	w, err := watch.New(path, cfg.GetWatchDebounce(), rebuildFunc(cmd.OutOrStdout(), []string{path}))
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	if watchInitial {
		// A failed first build is logged; the simulator may not have run yet.
		_ = w.Trigger(ctx)
	}

	<-w.Done()
	st := w.Stats()
	logging.Watch("watch ended: %d events, %d rebuilds, %d errors", st.Events, st.Rebuilds, st.Errors)
	return nil
}
