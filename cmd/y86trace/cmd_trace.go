package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"y86trace/internal/logging"
	"y86trace/internal/memory"
	"y86trace/internal/pipeline"
	"y86trace/internal/sequential"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

// parseCmd decodes a trace into cycle records
var parseCmd = &cobra.Command{
	Use:   "parse [trace.vcd]",
	Short: "Decode a VCD trace into cycle records",
	Long: `Decodes every rising clock edge of the trace into a cycle record.

Sequential traces are trimmed to the executed program and, when the trace
carries no register taps, register state is replayed from the register
image (memory.register_file).

Example:
  y86trace parse hardware/pipeline/sim/proc.vcd
  y86trace --mode sequential parse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

// clockCmd reports the clock period of a trace
var clockCmd = &cobra.Command{
	Use:   "clock [trace.vcd]",
	Short: "Report the timescale and clock period of a trace",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClock,
}

type parseOutput struct {
	Mode   types.Mode    `json:"mode"`
	Trace  string        `json:"trace"`
	Cycles []types.Cycle `json:"cycles"`
	Total  int           `json:"total"`
}

func runParse(cmd *cobra.Command, args []string) error {
	path := pathArg(args, cfg.TracePath())
	mode := types.Mode(cfg.Trace.Mode)

	cycles, err := parseTrace(mode, path)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), parseOutput{Mode: mode, Trace: path, Cycles: cycles, Total: len(cycles)})
}

func parseTrace(mode types.Mode, path string) ([]types.Cycle, error) {
	if mode != types.ModeSequential {
		return pipeline.ParseFile(path)
	}

	opts := sequential.Options{WordCount: cfg.Memory.WordCount}
	if cfg.Memory.RegisterFile != "" {
		img, err := memory.LoadRegistersFile(cfg.Memory.RegisterFile)
		switch {
		case err == nil:
			opts.InitialRegisters = img.Registers
		case errors.Is(err, fs.ErrNotExist):
			logging.BootDebug("no register image at %s", cfg.Memory.RegisterFile)
		default:
			logging.BootWarn("register image unavailable: %v", err)
		}
	}
	return sequential.ParseFile(path, opts)
}

func runClock(cmd *cobra.Command, args []string) error {
	path := pathArg(args, cfg.TracePath())
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	info, err := vcd.ExtractClockInfo(f, cfg.Trace.ClockNames)
	if err != nil {
		return fmt.Errorf("failed to read trace %s: %w", path, err)
	}
	switch {
	case info.Signal == "":
		logging.Clock("%s: no clock signal among %v", path, cfg.Trace.ClockNames)
	case info.PeriodTicks == nil:
		logging.Clock("%s: clock %s has no full period", path, info.Signal)
	default:
		logging.Clock("%s: clock %s period %d ticks", path, info.Signal, *info.PeriodTicks)
	}
	return writeJSON(cmd.OutOrStdout(), info)
}
