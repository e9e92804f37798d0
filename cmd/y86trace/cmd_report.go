package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"y86trace/internal/logging"
	"y86trace/internal/render"
	"y86trace/internal/report"
	"y86trace/internal/store"
	"y86trace/internal/types"
)

var (
	noSave bool

	showFrom       int
	showTo         int
	showRegisters  bool
	showForwarding int
)

// reportCmd builds the full simulation response
var reportCmd = &cobra.Command{
	Use:   "report [trace.vcd]",
	Short: "Build a full report: cycles, memory images, clock and metrics",
	Long: `Parses the trace and loads every auxiliary image concurrently. A missing
image is reported as null; only a trace failure is fatal.

The report is saved to the run database unless --no-save is given or the
store is disabled in the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

// showCmd renders a report as tables
var showCmd = &cobra.Command{
	Use:   "show [trace.vcd]",
	Short: "Render the cycles of a trace as a table",
	Long: `Renders one row per cycle. Stalled stages are marked with "!" and
bubbles with "*".

Example:
  y86trace show --from 3 --to 10
  y86trace show --registers
  y86trace show --forwarding 4`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	reportCmd.Flags().BoolVar(&noSave, "no-save", false, "Do not save the report to the run database")

	showCmd.Flags().IntVar(&showFrom, "from", 1, "First cycle number to show")
	showCmd.Flags().IntVar(&showTo, "to", 0, "Last cycle number to show (0 = last)")
	showCmd.Flags().BoolVar(&showRegisters, "registers", false, "Show the register file of the last shown cycle")
	showCmd.Flags().IntVar(&showForwarding, "forwarding", 0, "Show forwarding paths for this cycle number (pipeline only)")
}

func buildReport(ctx context.Context, args []string) (*report.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.GetReportTimeout())
	defer cancel()

	src := report.SourcesFromConfig(cfg)
	src.TracePath = pathArg(args, src.TracePath)
	return report.Build(ctx, src)
}

// saveReport stores rep when the run database is enabled.
func saveReport(ctx context.Context, rep *report.Report) error {
	if !cfg.Store.Enabled {
		return nil
	}
	s, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveReport(ctx, rep)
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	rep, err := buildReport(ctx, args)
	if err != nil {
		return err
	}
	if !noSave {
		if err := saveReport(ctx, rep); err != nil {
			logging.ReportWarn("report %s not saved: %v", rep.ID, err)
		}
	}
	return writeJSON(cmd.OutOrStdout(), rep)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(context.Background())
	defer cancel()

	rep, err := buildReport(ctx, args)
	if err != nil {
		return err
	}
	return renderReport(cmd.OutOrStdout(), rep, render.DefaultStyles())
}

func renderReport(w io.Writer, rep *report.Report, st render.Styles) error {
	window, err := cycleWindow(rep.Cycles, showFrom, showTo)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s trace %s: %d cycles\n\n", rep.Mode, rep.TracePath, rep.Total)
	fmt.Fprintln(w, render.Cycles(window, st))

	if showRegisters && len(window) > 0 {
		fmt.Fprintln(w, render.Registers(window[len(window)-1].Registers, st))
	}
	if showForwarding > 0 {
		if rep.Mode != types.ModePipeline {
			return fmt.Errorf("forwarding paths are only available for pipelined traces")
		}
		if showForwarding > len(rep.Forwarding) {
			return fmt.Errorf("cycle %d out of range (1..%d)", showForwarding, len(rep.Forwarding))
		}
		fmt.Fprintln(w, render.Forwarding(rep.Forwarding[showForwarding-1], st))
	}
	if rep.Metrics != nil {
		fmt.Fprintln(w, render.Metrics(*rep.Metrics, st))
	}
	return nil
}

// cycleWindow selects cycles by 1-based number, inclusive. to <= 0 means
// through the last cycle.
func cycleWindow(cycles []types.Cycle, from, to int) ([]types.Cycle, error) {
	if from < 1 {
		from = 1
	}
	if to <= 0 || to > len(cycles) {
		to = len(cycles)
	}
	if len(cycles) == 0 {
		return cycles, nil
	}
	if from > to {
		return nil, fmt.Errorf("empty cycle window %d..%d (trace has %d cycles)", from, to, len(cycles))
	}
	return cycles[from-1 : to], nil
}
