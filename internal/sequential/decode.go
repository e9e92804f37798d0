// Package sequential decodes traces of the single-instruction-in-flight
// processor. Every record carries one instruction, shown in all five stage
// views; data-memory traffic and register destinations are derived from the
// opcode class and operand values because the trace does not expose them.
package sequential

import (
	"y86trace/internal/isa"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

// DefaultWordCount is the number of 64-bit words in data memory.
const DefaultWordCount = 128

// Decoder turns raw snapshots of a sequential trace into Cycle Records.
type Decoder struct {
	// WordCount bounds valid data-memory word indices. Zero means
	// DefaultWordCount.
	WordCount int
}

func (d Decoder) wordCount() uint64 {
	if d.WordCount <= 0 {
		return DefaultWordCount
	}
	return uint64(d.WordCount)
}

// Decode builds the Cycle Record for one snapshot.
func (d Decoder) Decode(s vcd.Snapshot) types.Cycle {
	get := s.Get

	ops := types.Operands{
		PC:         get(sigPCIn),
		NextPC:     get(sigPC),
		RA:         get(sigRA),
		RB:         get(sigRB),
		ValA:       get(sigValA),
		ValB:       get(sigValB),
		ValC:       get(sigValC),
		ValE:       get(sigValE),
		ValM:       get(sigValM),
		ValP:       get(sigValP),
		Cnd:        get(sigCnd).Bool(),
		InstrValid: get(sigInstrValid).Bool(),
		ImemError:  get(sigImemError).Bool(),
	}
	icode, ifun, stat := get(sigIcode), get(sigIfun), get(sigStat)

	c := types.Cycle{
		Mode: types.ModeSequential,
		Edge: s.Edge,
		Time: s.Time,

		Fetch:     types.NewStage(types.StageFetch, icode, ifun, ops.PC, stat),
		Decode:    types.NewStage(types.StageDecode, icode, ifun, ops.PC, stat),
		Execute:   types.NewStage(types.StageExecute, icode, ifun, ops.PC, stat),
		Memory:    types.NewStage(types.StageMemory, icode, ifun, ops.PC, stat),
		Writeback: types.NewStage(types.StageWriteback, icode, ifun, ops.PC, stat),

		Control: idleControl(ops.InstrValid, ops.ImemError),
		Flags:   types.NewFlags(vcd.Unknown, vcd.Unknown, vcd.Unknown, get(sigCnd), vcd.Unknown),

		Meta: types.Meta{
			PredPC:         ops.NextPC.Hex(),
			FetchRegPredPC: ops.PC.Hex(),
			MemoryStat:     types.NewStatus(stat),
			Sequential:     &ops,
		},

		DataMemory: d.memoryAccess(icode, &ops),
	}

	var rf types.RegisterFile
	for i := range rf {
		rf[i] = get(sigReg0 + vcd.Signal(i))
	}
	if !rf.AllUnknown() {
		c.Registers = &rf
	}

	// Destinations are recomputed from the opcode; the trace has no
	// dstE/dstM signals.
	dstE, dstM := Destinations(icode, &ops)
	c.Forwarding = types.Forwarding{
		Decode:  types.DecodeSources{SrcA: types.Reg(ops.RA), SrcB: types.Reg(ops.RB)},
		Execute: types.Destinations{DstE: types.Reg(dstE), DstM: types.Reg(dstM)},
	}
	return c
}

// idleControl reports every stall and bubble as false.
func idleControl(instrValid, imemError *bool) types.Control {
	f := func() *bool { b := false; return &b }
	return types.Control{
		FStall: f(), FBubble: f(),
		DStall: f(), DBubble: f(),
		EStall: f(), EBubble: f(),
		MStall: f(), MBubble: f(),
		WStall: f(), WBubble: f(),
		InstrValid: instrValid,
		ImemError:  imemError,
	}
}

// memoryAccess derives the data-memory descriptor. Stores write valA to
// address valE; MRMOVQ reads valE; RET and POPQ read valA. Addresses are
// word indices.
func (d Decoder) memoryAccess(icode vcd.Value, ops *types.Operands) *types.DataMemoryAccess {
	acc := &types.DataMemoryAccess{
		Address:   vcd.Unknown,
		WriteData: vcd.Unknown,
		ReadData:  ops.ValM,
	}
	if op, ok := icode.Uint64(); ok {
		switch {
		case isa.WritesMemory(op):
			acc.Write, acc.Address, acc.WriteData = true, ops.ValE, ops.ValA
		case op == isa.IMRMOVQ:
			acc.Read, acc.Address = true, ops.ValE
		case isa.ReadsMemory(op):
			acc.Read, acc.Address = true, ops.ValA
		}
	}

	acc.AddressHex = acc.Address.Hex()
	acc.WriteDataHex = acc.WriteData.Hex()
	acc.ReadDataHex = acc.ReadData.Hex()
	acc.ByteAddressHex = "x"
	if addr, ok := acc.Address.Uint64(); ok {
		acc.ByteAddressHex = vcd.Known(addr * 8).Hex()
		if addr < d.wordCount() {
			idx := addr
			acc.WordIndex = &idx
			acc.InRange = true
		}
	}
	return acc
}
