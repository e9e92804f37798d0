package pipeline

import (
	"fmt"
	"io"
	"os"

	"y86trace/internal/logging"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

// Parse decodes a pipelined trace into one Cycle Record per rising clock
// edge. A trace without a "clock" declaration yields an empty slice.
func Parse(r io.Reader) ([]types.Cycle, error) {
	timer := logging.StartTimer(logging.CategoryTrace, "pipeline parse")
	defer timer.Stop()

	res, err := vcd.Sample(r, Schema)
	if err != nil {
		return nil, err
	}
	if !res.ClockFound {
		logging.TraceDebug("pipeline parse: no clock signal declared")
	}

	_, hasExecDst := res.Table.Symbol(sigEDstE)
	dec := Decoder{RegisterDstE: !hasExecDst}

	cycles := make([]types.Cycle, 0, len(res.Snapshots))
	for _, snap := range res.Snapshots {
		cycles = append(cycles, dec.Decode(snap))
	}
	types.Renumber(cycles)
	logging.Trace("pipeline parse: %d signals tracked, %d cycles", res.Table.Len(), len(cycles))
	return cycles, nil
}

// ParseFile opens and parses a pipelined trace file.
func ParseFile(path string) ([]types.Cycle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
