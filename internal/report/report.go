// Package report assembles the full result of one trace run: the decoded
// cycles together with the auxiliary memory images, clock information and
// performance metrics a visualization client needs.
package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"y86trace/internal/config"
	"y86trace/internal/logging"
	"y86trace/internal/memory"
	"y86trace/internal/pipeline"
	"y86trace/internal/sequential"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

// Sources names the inputs of one run. Empty auxiliary paths are skipped.
type Sources struct {
	Mode             types.Mode
	TracePath        string
	DataPath         string
	InstructionPath  string
	InstructionArray string
	RegisterPath     string
	ClockNames       []string
	WordCount        int
}

// SourcesFromConfig derives the run inputs from configuration.
func SourcesFromConfig(cfg *config.Config) Sources {
	return Sources{
		Mode:             types.Mode(cfg.Trace.Mode),
		TracePath:        cfg.TracePath(),
		DataPath:         cfg.Memory.DataFile,
		InstructionPath:  cfg.Memory.InstructionFile,
		InstructionArray: cfg.Memory.InstructionArray,
		RegisterPath:     cfg.Memory.RegisterFile,
		ClockNames:       cfg.Trace.ClockNames,
		WordCount:        cfg.Memory.WordCount,
	}
}

// Report is one complete run. Auxiliary sections that could not be loaded
// are null.
type Report struct {
	ID          string     `json:"id"`
	Mode        types.Mode `json:"mode"`
	GeneratedAt time.Time  `json:"generatedAt"`
	TracePath   string     `json:"tracePath"`

	Cycles []types.Cycle `json:"cycles"`
	Total  int           `json:"total"`

	InstructionMemory *memory.InstructionImage `json:"instructionMemory"`
	DataMemory        *memory.DataImage        `json:"dataMemory"`
	RegisterMemory    *memory.RegisterImage    `json:"registerMemory"`
	Clock             *vcd.ClockInfo           `json:"clock"`

	// Metrics and Forwarding are only derived for pipelined traces.
	Metrics    *pipeline.Metrics          `json:"metrics"`
	Forwarding []pipeline.ForwardingPaths `json:"forwarding,omitempty"`
}

// Build parses the trace and loads every auxiliary image concurrently. Only
// a trace failure is fatal; loader failures are logged and leave their
// section nil. Sequential traces wait for the register image so it can seed
// register reconstruction.
func Build(ctx context.Context, src Sources) (*Report, error) {
	if !src.Mode.Valid() {
		return nil, fmt.Errorf("unknown trace mode %q", src.Mode)
	}

	rep := &Report{
		ID:          uuid.NewString(),
		Mode:        src.Mode,
		GeneratedAt: time.Now().UTC(),
		TracePath:   src.TracePath,
	}
	log := logging.WithRunID(logging.CategoryReport, rep.ID)
	timer := logging.StartTimer(logging.CategoryReport, "report build")
	defer timer.Stop()

	regsReady := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if src.DataPath == "" {
			return nil
		}
		img, err := memory.LoadDataFile(src.DataPath)
		if err != nil {
			log.Warn("data memory unavailable: %v", err)
			return nil
		}
		rep.DataMemory = img
		return nil
	})

	g.Go(func() error {
		if src.InstructionPath == "" {
			return nil
		}
		img, err := memory.LoadInstructionsFile(src.InstructionPath, src.InstructionArray)
		if err != nil {
			log.Warn("instruction memory unavailable: %v", err)
			return nil
		}
		rep.InstructionMemory = img
		return nil
	})

	g.Go(func() error {
		defer close(regsReady)
		if src.RegisterPath == "" {
			return nil
		}
		img, err := memory.LoadRegistersFile(src.RegisterPath)
		if err != nil {
			log.Warn("register memory unavailable: %v", err)
			return nil
		}
		rep.RegisterMemory = img
		return nil
	})

	g.Go(func() error {
		info, err := clockInfo(src.TracePath, src.ClockNames)
		if err != nil {
			log.Warn("clock info unavailable: %v", err)
			return nil
		}
		rep.Clock = &info
		return nil
	})

	g.Go(func() error {
		var (
			cycles []types.Cycle
			err    error
		)
		switch src.Mode {
		case types.ModeSequential:
			select {
			case <-regsReady:
			case <-gctx.Done():
				return gctx.Err()
			}
			opts := sequential.Options{WordCount: src.WordCount}
			if rep.RegisterMemory != nil {
				opts.InitialRegisters = rep.RegisterMemory.Registers
			}
			cycles, err = sequential.ParseFile(src.TracePath, opts)
		default:
			cycles, err = pipeline.ParseFile(src.TracePath)
		}
		if err != nil {
			return fmt.Errorf("failed to parse trace %s: %w", src.TracePath, err)
		}
		rep.Cycles = cycles
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("report failed: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep.Total = len(rep.Cycles)
	if rep.Mode == types.ModePipeline {
		m := pipeline.ComputeMetrics(rep.Cycles)
		rep.Metrics = &m
		rep.Forwarding = make([]pipeline.ForwardingPaths, len(rep.Cycles))
		for i := range rep.Cycles {
			rep.Forwarding[i] = pipeline.AnalyzeForwarding(&rep.Cycles[i])
		}
	}
	log.Info("built %s report: %d cycles", rep.Mode, rep.Total)
	return rep, nil
}

func clockInfo(path string, names []string) (vcd.ClockInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return vcd.ClockInfo{}, err
	}
	defer f.Close()
	info, err := vcd.ExtractClockInfo(f, names)
	if err != nil {
		return info, err
	}
	if info.PeriodTicks != nil {
		logging.ClockDebug("clock %q: period %d ticks over %d samples", info.Signal, *info.PeriodTicks, info.Samples)
	} else {
		logging.ClockDebug("clock %q: no full period observed", info.Signal)
	}
	return info, nil
}
