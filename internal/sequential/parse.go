package sequential

import (
	"fmt"
	"io"
	"os"

	"y86trace/internal/logging"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

// Options tune a sequential parse.
type Options struct {
	// InitialRegisters seeds register reconstruction when the trace has no
	// register taps. Nil disables reconstruction.
	InitialRegisters types.RegisterImage
	// WordCount bounds data-memory word indices; zero means DefaultWordCount.
	WordCount int
}

// Parse decodes a sequential trace, trims it to the executed program and
// reconstructs register history when needed.
func Parse(r io.Reader, opts Options) ([]types.Cycle, error) {
	timer := logging.StartTimer(logging.CategoryTrace, "sequential parse")
	defer timer.Stop()

	res, err := vcd.Sample(r, Schema)
	if err != nil {
		return nil, err
	}
	if !res.ClockFound {
		logging.TraceDebug("sequential parse: no clk/clock signal declared")
	}

	dec := Decoder{WordCount: opts.WordCount}
	all := make([]types.Cycle, 0, len(res.Snapshots))
	for _, snap := range res.Snapshots {
		all = append(all, dec.Decode(snap))
	}

	cycles := Trim(all)
	rebuilt := Reconstruct(cycles, opts.InitialRegisters)
	types.Renumber(cycles)

	logging.Trace("sequential parse: %d edges, %d retained, registers reconstructed=%t",
		len(all), len(cycles), rebuilt)
	return cycles, nil
}

// ParseFile opens and parses a sequential trace file.
func ParseFile(path string, opts Options) ([]types.Cycle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()
	return Parse(f, opts)
}
