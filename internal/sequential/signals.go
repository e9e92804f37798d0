package sequential

import (
	"fmt"

	"y86trace/internal/isa"
	"y86trace/internal/vcd"
)

// Tracked signals of the sequential processor.
const (
	sigClock vcd.Signal = iota

	sigPC   // PC: next PC register
	sigPCIn // PC_in: PC of the instruction in flight
	sigIcode
	sigIfun
	sigRA
	sigRB
	sigValC
	sigValP
	sigValA
	sigValB
	sigValM
	sigValE
	sigInstrValid
	sigCnd
	sigImemError
	sigStat

	sigReg0
	numSignals = sigReg0 + isa.NumRegisters
)

var signalNames = map[string]vcd.Signal{
	"clk":   sigClock,
	"clock": sigClock,

	"PC":          sigPC,
	"PC_in":       sigPCIn,
	"icode":       sigIcode,
	"ifun":        sigIfun,
	"rA":          sigRA,
	"rB":          sigRB,
	"valC":        sigValC,
	"valP":        sigValP,
	"valA":        sigValA,
	"valB":        sigValB,
	"valM":        sigValM,
	"valE":        sigValE,
	"instr_valid": sigInstrValid,
	"Cnd":         sigCnd,
	"imem_error":  sigImemError,
	"stat":        sigStat,
}

// Schema is the allow-list of sequential trace signals. Register taps are
// the reg_store[i] array elements.
var Schema = newSchema()

func newSchema() *vcd.Schema {
	names := make(map[string]vcd.Signal, len(signalNames)+isa.NumRegisters)
	for name, sig := range signalNames {
		names[name] = sig
	}
	for i := 0; i < isa.NumRegisters; i++ {
		names[fmt.Sprintf("reg_store[%d]", i)] = sigReg0 + vcd.Signal(i)
	}
	return vcd.NewSchema(int(numSignals), sigClock, names)
}
