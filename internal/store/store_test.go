package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"y86trace/internal/isa"
	"y86trace/internal/memory"
	"y86trace/internal/pipeline"
	"y86trace/internal/report"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(id string, at time.Time, n int) *report.Report {
	cycles := make([]types.Cycle, n)
	for i := range cycles {
		st := types.NewStage(types.StageWriteback, vcd.Known(isa.IOPQ), vcd.Known(0), vcd.Known(uint64(i*2)), vcd.Known(isa.SAOK))
		cycles[i] = types.Cycle{Mode: types.ModePipeline, Edge: i, Time: uint64(i*10 + 5), Index: i, Number: i + 1, Writeback: st}
	}
	period := uint64(10)
	timescale := "1ps"
	m := pipeline.ComputeMetrics(cycles)
	return &report.Report{
		ID:          id,
		Mode:        types.ModePipeline,
		GeneratedAt: at,
		TracePath:   "proc.vcd",
		Cycles:      cycles,
		Total:       n,
		DataMemory:  &memory.DataImage{WordBitWidth: 64, WordCount: 0, Words: []memory.Word{}},
		Clock:       &vcd.ClockInfo{Timescale: &timescale, Signal: "clock", PeriodTicks: &period, Samples: n - 1},
		Metrics:     &m,
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, sampleReport("run-1", at, 3)))

	run, err := s.Run(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "pipeline", run.Mode)
	assert.Equal(t, 3, run.Total)
	assert.True(t, at.Equal(run.GeneratedAt))
	require.NotNil(t, run.PeriodTicks)
	assert.Equal(t, uint64(10), *run.PeriodTicks)
	require.NotNil(t, run.Timescale)
	assert.Equal(t, "1ps", *run.Timescale)
	assert.Equal(t, "clock", run.ClockSignal)
	require.NotNil(t, run.CPI)
	assert.InDelta(t, 1.0, *run.CPI, 1e-9)

	var aux map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(run.Aux, &aux))
	assert.JSONEq(t, "null", string(aux["registerMemory"]))
	assert.JSONEq(t, `{"wordBitWidth":64,"wordCount":0,"words":[]}`, string(aux["dataMemory"]))

	cycles, err := s.Cycles(ctx, "run-1", 0, 0)
	require.NoError(t, err)
	require.Len(t, cycles, 3)

	var c struct {
		Number    int `json:"number"`
		Writeback struct {
			IcodeName string `json:"icode_name"`
			PCHex     string `json:"pc_hex"`
		} `json:"writeback"`
	}
	require.NoError(t, json.Unmarshal(cycles[2], &c))
	assert.Equal(t, 3, c.Number)
	assert.Equal(t, "OPQ", c.Writeback.IcodeName)
	assert.Equal(t, "0x0000000000000004", c.Writeback.PCHex)

	window, err := s.Cycles(ctx, "run-1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, window, 1)
}

func TestListRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveReport(ctx, sampleReport("old", base, 1)))
	require.NoError(t, s.SaveReport(ctx, sampleReport("new", base.Add(time.Hour), 2)))

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "old", runs[1].ID)

	runs, err = s.ListRuns(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestRunNotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	_, err := s.Run(ctx, "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))

	_, err = s.Cycles(ctx, "missing", 0, 0)
	assert.True(t, errors.Is(err, ErrRunNotFound))

	assert.True(t, errors.Is(s.DeleteRun(ctx, "missing"), ErrRunNotFound))
}

func TestDeleteRunCascades(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	require.NoError(t, s.SaveReport(ctx, sampleReport("gone", time.Now(), 2)))

	require.NoError(t, s.DeleteRun(ctx, "gone"))

	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM cycles WHERE run_id = ?`, "gone").Scan(&n))
	assert.Zero(t, n)
}

func TestDuplicateRunRollsBack(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rep := sampleReport("dup", time.Now(), 2)
	require.NoError(t, s.SaveReport(ctx, rep))
	assert.Error(t, s.SaveReport(ctx, rep))

	cycles, err := s.Cycles(ctx, "dup", 0, 0)
	require.NoError(t, err)
	assert.Len(t, cycles, 2)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveReport(context.Background(), sampleReport("keep", time.Now(), 1)))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, path, s.Path())
	_, err = s.Run(context.Background(), "keep")
	assert.NoError(t, err)
}

func TestNilClockAndMetrics(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	rep := sampleReport("bare", time.Now(), 1)
	rep.Clock, rep.Metrics = nil, nil
	require.NoError(t, s.SaveReport(ctx, rep))

	run, err := s.Run(ctx, "bare")
	require.NoError(t, err)
	assert.Nil(t, run.PeriodTicks)
	assert.Nil(t, run.Timescale)
	assert.Nil(t, run.CPI)
	assert.Empty(t, run.ClockSignal)
}

func TestMigratesOldSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE runs (
		id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		trace_path TEXT NOT NULL,
		generated_at INTEGER NOT NULL,
		total INTEGER NOT NULL,
		period_ticks INTEGER,
		cpi REAL,
		aux_json TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO runs (id, mode, trace_path, generated_at, total, aux_json) VALUES ('legacy', 'pipeline', 'p.vcd', 0, 0, '{}')`)
	require.NoError(t, err)
	require.False(t, columnExists(db, "runs", "timescale"))
	require.NoError(t, db.Close())

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.True(t, columnExists(s.db, "runs", "timescale"))
	assert.True(t, columnExists(s.db, "runs", "clock_signal"))

	run, err := s.Run(context.Background(), "legacy")
	require.NoError(t, err)
	assert.Nil(t, run.Timescale)
	assert.Empty(t, run.ClockSignal)
	require.NoError(t, s.SaveReport(context.Background(), sampleReport("fresh", time.Now(), 1)))
}
