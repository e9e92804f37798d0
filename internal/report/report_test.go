package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"y86trace/internal/config"
	"y86trace/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const pipelineTrace = `$timescale 1ps $end
$var wire 1 ! clock $end
$var wire 4 " W_icode [3:0] $end
$var wire 4 A E_icode [3:0] $end
$var wire 1 B e_Cnd $end
$enddefinitions $end
#0
0!
b11 "
b111 A
0B
#5
1!
#10
0!
b110 "
#15
1!
#20
0!
`

const sequentialTrace = `$timescale 1ns $end
$var wire 1 ! clk $end
$var wire 4 " icode [3:0] $end
$var wire 4 B rB [3:0] $end
$var wire 64 E valE [63:0] $end
$enddefinitions $end
#0
0!
#10
1!
#20
0!
b11 "
b11 B
b101 E
#30
1!
#40
0!
b0 "
#50
1!
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestBuild_Pipeline(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Mode:            types.ModePipeline,
		TracePath:       writeFile(t, dir, "proc.vcd", pipelineTrace),
		DataPath:        writeFile(t, dir, "DATA_MEM.txt", "1\n2\n"),
		InstructionPath: writeFile(t, dir, "fetch.v", "reg [0:15] Instruction_Mem = 'h30F4;\n"),
	}

	rep, err := Build(context.Background(), src)
	require.NoError(t, err)

	assert.NotEmpty(t, rep.ID)
	assert.Equal(t, 2, rep.Total)
	require.Len(t, rep.Cycles, 2)
	require.NotNil(t, rep.DataMemory)
	assert.Equal(t, 2, rep.DataMemory.WordCount)
	require.NotNil(t, rep.InstructionMemory)
	assert.Equal(t, 2, rep.InstructionMemory.ByteCount)
	assert.Nil(t, rep.RegisterMemory, "no register path configured")

	require.NotNil(t, rep.Clock)
	require.True(t, rep.Clock.HasPeriod())
	assert.Equal(t, uint64(10), *rep.Clock.PeriodTicks)
	assert.Equal(t, "1ps", *rep.Clock.Timescale)

	require.NotNil(t, rep.Metrics)
	assert.Equal(t, 2, rep.Metrics.RetiredInstructions)
	assert.Equal(t, 2, rep.Metrics.Mispredictions)
	assert.Len(t, rep.Forwarding, 2)

	body, err := json.Marshal(rep)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	for _, key := range []string{"id", "mode", "cycles", "total", "instructionMemory", "dataMemory", "registerMemory", "clock", "metrics"} {
		assert.Contains(t, decoded, key)
	}
	assert.Nil(t, decoded["registerMemory"])
}

func TestBuild_SequentialUsesRegisterImage(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Mode:         types.ModeSequential,
		TracePath:    writeFile(t, dir, "seq.vcd", sequentialTrace),
		RegisterPath: writeFile(t, dir, "REG_MEM.txt", "1\n"),
	}

	rep, err := Build(context.Background(), src)
	require.NoError(t, err)

	require.Len(t, rep.Cycles, 2, "leading unknown cycle trimmed, halt kept")
	rf := rep.Cycles[0].Registers
	require.NotNil(t, rf)
	assert.True(t, rf.Get("rbx").Is(5))
	assert.True(t, rf.Get("rax").Is(1))
	assert.Nil(t, rep.Metrics)
	assert.Empty(t, rep.Forwarding)
}

func TestBuild_AuxiliaryFailuresAreNull(t *testing.T) {
	dir := t.TempDir()
	src := Sources{
		Mode:            types.ModePipeline,
		TracePath:       writeFile(t, dir, "proc.vcd", pipelineTrace),
		DataPath:        filepath.Join(dir, "missing.txt"),
		InstructionPath: writeFile(t, dir, "fetch.v", "module fetch; endmodule\n"),
		RegisterPath:    filepath.Join(dir, "missing_reg.txt"),
	}

	rep, err := Build(context.Background(), src)
	require.NoError(t, err)
	assert.Nil(t, rep.DataMemory)
	assert.Nil(t, rep.InstructionMemory)
	assert.Nil(t, rep.RegisterMemory)
	assert.Equal(t, 2, rep.Total)
}

func TestBuild_TraceFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	for _, mode := range []types.Mode{types.ModePipeline, types.ModeSequential} {
		t.Run(string(mode), func(t *testing.T) {
			rep, err := Build(context.Background(), Sources{Mode: mode, TracePath: filepath.Join(dir, "nope.vcd")})
			require.Error(t, err)
			assert.Nil(t, rep)
		})
	}
}

func TestBuild_InvalidMode(t *testing.T) {
	_, err := Build(context.Background(), Sources{Mode: "superscalar"})
	assert.Error(t, err)
}

func TestBuild_Canceled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, Sources{Mode: types.ModeSequential, TracePath: writeFile(t, dir, "seq.vcd", sequentialTrace)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSourcesFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Trace.Mode = "sequential"

	src := SourcesFromConfig(cfg)
	assert.Equal(t, types.ModeSequential, src.Mode)
	assert.Equal(t, cfg.Trace.SequentialVCD, src.TracePath)
	assert.Equal(t, cfg.Memory.RegisterFile, src.RegisterPath)
	assert.Equal(t, 128, src.WordCount)
}
