package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"y86trace/internal/isa"
	"y86trace/internal/vcd"
)

func TestNewStage(t *testing.T) {
	st := NewStage(StageExecute, vcd.Known(isa.IOPQ), vcd.Known(0xA), vcd.Known(0x16), vcd.Known(isa.SAOK))
	assert.Equal(t, "OPQ", st.IcodeName)
	assert.Equal(t, "0xA", st.IfunHex)
	assert.Equal(t, "0x0000000000000016", st.PCHex)
	assert.Equal(t, "AOK", st.StatName)
	assert.Equal(t, "0x0", st.StatHex)

	unknown := NewStage(StageFetch, vcd.Unknown, vcd.Unknown, vcd.Unknown, vcd.Unknown)
	assert.True(t, unknown.IsUnknown())
	assert.Equal(t, "x", unknown.IcodeName)
	assert.Equal(t, "x", unknown.PCHex)
	assert.Equal(t, "x", unknown.StatName)

	odd := NewStage(StageFetch, vcd.Known(0xE), vcd.Known(0), vcd.Known(0), vcd.Known(0))
	assert.Equal(t, "0xe", odd.IcodeName)
}

func TestNewFlags(t *testing.T) {
	f := NewFlags(vcd.Known(0b101), vcd.Unknown, vcd.Known(1), vcd.Known(0), vcd.Unknown)
	require.NotNil(t, f.ZF)
	assert.True(t, *f.ZF)
	assert.False(t, *f.SF)
	assert.True(t, *f.OF)
	assert.Nil(t, f.NewZF)
	assert.Equal(t, "x", f.NewCCHex)
	assert.True(t, *f.SetCC)
	assert.False(t, *f.ECnd)
	assert.Nil(t, f.MCnd)
}

func TestRegRef(t *testing.T) {
	rbx := Reg(vcd.Known(3))
	assert.Equal(t, "rbx", rbx.Name())
	assert.Equal(t, "%rbx", rbx.Label())
	assert.False(t, *rbx.IsNone())

	none := Reg(vcd.Known(isa.RNONE))
	assert.Equal(t, "none", none.Name())
	assert.Equal(t, "RNONE", none.Label())
	assert.True(t, *none.IsNone())
	assert.False(t, none.Names())

	unknown := Reg(vcd.Unknown)
	assert.Nil(t, unknown.IsNone())
	assert.Equal(t, "x", unknown.Label())

	assert.True(t, rbx.Same(Reg(vcd.Known(3))))
	assert.False(t, none.Same(none))
	assert.False(t, unknown.Same(unknown))

	data, err := json.Marshal(rbx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"raw":3,"hex":"0x3","name":"rbx","label":"%rbx","isNone":false}`, string(data))
}

func TestRegisterFileJSON(t *testing.T) {
	rf := FromImage(RegisterImage{"rax": 1, "r14": 0xff})
	rf[isa.RRSP] = vcd.Unknown

	data, err := json.Marshal(&rf)
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.HasPrefix(s, `{"rax":"0x0000000000000001","rcx":"0x0000000000000000"`), s)
	assert.Contains(t, s, `"rsp":"x"`)
	assert.Contains(t, s, `"r14":"0x00000000000000ff"`)
	assert.Less(t, strings.Index(s, `"r8"`), strings.Index(s, `"r9"`))

	var nilFile *RegisterFile
	assert.True(t, nilFile.AllUnknown())
	assert.False(t, rf.AllUnknown())
	assert.True(t, rf.Get("r14").Is(0xff))
	assert.False(t, rf.Get("nope").IsKnown())
}

func TestWordJSON(t *testing.T) {
	data, err := json.Marshal(Word(5))
	require.NoError(t, err)
	assert.Equal(t, `"0x0000000000000005"`, string(data))

	var w Word
	require.NoError(t, json.Unmarshal([]byte(`"0xFF"`), &w))
	assert.Equal(t, Word(255), w)
	assert.Error(t, json.Unmarshal([]byte(`"zz"`), &w))
}

func TestCycleHalted(t *testing.T) {
	c := Cycle{Execute: NewStage(StageExecute, vcd.Known(isa.IHALT), vcd.Known(0), vcd.Known(0), vcd.Known(0))}
	assert.True(t, c.Halted())

	c = Cycle{Meta: Meta{MemoryStat: NewStatus(vcd.Known(isa.SHLT))}}
	assert.True(t, c.Halted())

	c = Cycle{Meta: Meta{MemoryStat: NewStatus(vcd.Unknown)}}
	assert.False(t, c.Halted())
}

func TestOperandsJSON(t *testing.T) {
	ops := Operands{ValE: vcd.Known(8), RA: vcd.Known(isa.RNONE)}
	data, err := json.Marshal(ops)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "0x0000000000000008", got["valE_hex"])
	assert.Equal(t, "0xF", got["rA_hex"])
	assert.Equal(t, "x", got["valM_hex"])
	assert.Nil(t, got["cnd"])
}
