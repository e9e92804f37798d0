// Package types defines the Cycle Record model produced by both trace
// decoders and consumed by the presentation layer. Every type encodes to
// plain JSON: Unknown values become null or "x".
package types

import (
	"y86trace/internal/isa"
	"y86trace/internal/vcd"
)

// Mode names the processor model a trace came from.
type Mode string

const (
	ModePipeline   Mode = "pipeline"
	ModeSequential Mode = "sequential"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModePipeline || m == ModeSequential
}

// Stage keys in pipeline order.
const (
	StageFetch     = "fetch"
	StageDecode    = "decode"
	StageExecute   = "execute"
	StageMemory    = "memory"
	StageWriteback = "writeback"
)

// StageKeys lists the five stages in pipeline order.
var StageKeys = [5]string{StageFetch, StageDecode, StageExecute, StageMemory, StageWriteback}

// Stage is the decoded view of one pipeline stage (or, for the sequential
// model, of the single in-flight instruction).
type Stage struct {
	Stage     string    `json:"stage"`
	Icode     vcd.Value `json:"icode"`
	IcodeName string    `json:"icode_name"`
	Ifun      vcd.Value `json:"ifun"`
	IfunHex   string    `json:"ifun_hex"`
	PC        vcd.Value `json:"pc"`
	PCHex     string    `json:"pc_hex"`
	Stat      vcd.Value `json:"stat"`
	StatHex   string    `json:"stat_hex"`
	StatName  string    `json:"stat_name"`
}

// NewStage decodes the raw fields of one stage.
func NewStage(key string, icode, ifun, pc, stat vcd.Value) Stage {
	st := NewStatus(stat)
	return Stage{
		Stage:     key,
		Icode:     icode,
		IcodeName: OpcodeName(icode),
		Ifun:      ifun,
		IfunHex:   ifun.ShortHex(),
		PC:        pc,
		PCHex:     pc.Hex(),
		Stat:      stat,
		StatHex:   st.Hex,
		StatName:  st.Name,
	}
}

// IsUnknown reports whether the stage's opcode class is Unknown.
func (s Stage) IsUnknown() bool { return !s.Icode.IsKnown() }

// IsOpcode reports whether the stage holds the given icode.
func (s Stage) IsOpcode(icode uint64) bool { return s.Icode.Is(icode) }

// OpcodeName renders an icode, "x" when Unknown.
func OpcodeName(icode vcd.Value) string {
	v, ok := icode.Uint64()
	if !ok {
		return "x"
	}
	return isa.OpcodeName(v)
}

// Status is a decoded 2-bit stat field.
type Status struct {
	Raw  vcd.Value `json:"raw"`
	Hex  string    `json:"hex"`
	Name string    `json:"name"`
}

// NewStatus decodes a stat value.
func NewStatus(v vcd.Value) Status {
	n, ok := v.Uint64()
	if !ok {
		return Status{Raw: v, Hex: "x", Name: "x"}
	}
	return Status{Raw: v, Hex: v.ShortHex(), Name: isa.StatusName(n)}
}

// Control holds the pipeline control signals. Nil pointers are Unknown.
type Control struct {
	FStall     *bool `json:"F_stall"`
	FBubble    *bool `json:"F_bubble"`
	DStall     *bool `json:"D_stall"`
	DBubble    *bool `json:"D_bubble"`
	EStall     *bool `json:"E_stall"`
	EBubble    *bool `json:"E_bubble"`
	MStall     *bool `json:"M_stall"`
	MBubble    *bool `json:"M_bubble"`
	WStall     *bool `json:"W_stall"`
	WBubble    *bool `json:"W_bubble"`
	InstrValid *bool `json:"instr_valid"`
	ImemError  *bool `json:"imem_error"`
}

// Flags holds the current and pending condition codes and branch outcomes.
type Flags struct {
	CC       vcd.Value `json:"cc"`
	CCHex    string    `json:"cc_hex"`
	ZF       *bool     `json:"zf"`
	SF       *bool     `json:"sf"`
	OF       *bool     `json:"of"`
	NewCC    vcd.Value `json:"new_cc"`
	NewCCHex string    `json:"new_cc_hex"`
	NewZF    *bool     `json:"new_zf"`
	NewSF    *bool     `json:"new_sf"`
	NewOF    *bool     `json:"new_of"`
	SetCC    *bool     `json:"set_cc"`
	ECnd     *bool     `json:"e_Cnd"`
	MCnd     *bool     `json:"M_Cnd"`
}

// NewFlags splits the cc and new_cc fields into their ZF/SF/OF bits.
func NewFlags(cc, newCC, setCC, eCnd, mCnd vcd.Value) Flags {
	return Flags{
		CC:       cc,
		CCHex:    cc.ShortHex(),
		ZF:       cc.Bit(isa.CCZero),
		SF:       cc.Bit(isa.CCSign),
		OF:       cc.Bit(isa.CCOverflow),
		NewCC:    newCC,
		NewCCHex: newCC.ShortHex(),
		NewZF:    newCC.Bit(isa.CCZero),
		NewSF:    newCC.Bit(isa.CCSign),
		NewOF:    newCC.Bit(isa.CCOverflow),
		SetCC:    setCC.Bool(),
		ECnd:     eCnd.Bool(),
		MCnd:     mCnd.Bool(),
	}
}

// Meta carries predicted-PC metadata and, for the sequential model, the
// decoded operand values.
type Meta struct {
	PredPC         string    `json:"predPC"`
	FetchRegPredPC string    `json:"fetchRegPredPC"`
	MemoryStat     Status    `json:"memory_stat"`
	Sequential     *Operands `json:"sequential,omitempty"`
}

// Cycle is the decoded processor state at one rising clock edge.
type Cycle struct {
	Mode Mode `json:"mode"`
	// Edge is the 0-based ordinal of the rising edge in the full trace.
	Edge int `json:"edge"`
	// Time is the simulation timestamp of the edge.
	Time uint64 `json:"time"`
	// Index is the 0-based position in the returned sequence and Number its
	// 1-based display form. They differ from Edge once a trace is trimmed.
	Index  int `json:"index"`
	Number int `json:"number"`

	Fetch     Stage `json:"fetch"`
	Decode    Stage `json:"decode"`
	Execute   Stage `json:"execute"`
	Memory    Stage `json:"memory"`
	Writeback Stage `json:"writeback"`

	// Registers is nil when the trace has no register tap and nothing was
	// reconstructed.
	Registers *RegisterFile `json:"registers"`

	Control    Control           `json:"control"`
	Flags      Flags             `json:"flags"`
	Meta       Meta              `json:"meta"`
	Forwarding Forwarding        `json:"forwarding"`
	DataMemory *DataMemoryAccess `json:"dataMemory,omitempty"`
}

// Stages returns the five stage views in pipeline order.
func (c *Cycle) Stages() [5]Stage {
	return [5]Stage{c.Fetch, c.Decode, c.Execute, c.Memory, c.Writeback}
}

// Halted reports whether the cycle retires a halt: an execute-stage HALT
// opcode or a memory status of HLT.
func (c *Cycle) Halted() bool {
	return c.Execute.IsOpcode(isa.IHALT) || c.Meta.MemoryStat.Raw.Is(isa.SHLT)
}

// Renumber assigns Index and Number from each record's position.
func Renumber(cycles []Cycle) {
	for i := range cycles {
		cycles[i].Index = i
		cycles[i].Number = i + 1
	}
}
