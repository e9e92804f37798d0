package sequential

import (
	"y86trace/internal/isa"
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

var rnone = vcd.Known(isa.RNONE)

// Destinations returns the register written with valE (dstE) and the one
// written with valM (dstM) by an instruction. Slots that are not written, or
// whose operand id is Unknown, are RNONE.
func Destinations(icode vcd.Value, ops *types.Operands) (dstE, dstM vcd.Value) {
	dstE, dstM = rnone, rnone
	op, ok := icode.Uint64()
	if !ok {
		return dstE, dstM
	}
	orNone := func(v vcd.Value) vcd.Value {
		if v.IsKnown() {
			return v
		}
		return rnone
	}

	switch op {
	case isa.ICMOVXX:
		if ops.Cnd != nil && *ops.Cnd {
			dstE = orNone(ops.RB)
		}
	case isa.IIRMOVQ, isa.IOPQ, isa.IIADDQ:
		dstE = orNone(ops.RB)
	case isa.IMRMOVQ:
		dstM = orNone(ops.RA)
	case isa.ICALL, isa.IRET, isa.IPUSHQ:
		dstE = vcd.Known(isa.RRSP)
	case isa.IPOPQ:
		dstE = vcd.Known(isa.RRSP)
		dstM = orNone(ops.RA)
	}
	return dstE, dstM
}

// Reconstruct replays register writes over cycles starting from img. It
// only runs when img is non-nil and no cycle carries a known register value;
// it reports whether it ran. Each cycle's Registers becomes the image after
// that cycle's writes.
func Reconstruct(cycles []types.Cycle, img types.RegisterImage) bool {
	if img == nil || len(cycles) == 0 {
		return false
	}
	for i := range cycles {
		if !cycles[i].Registers.AllUnknown() {
			return false
		}
	}

	state := types.FromImage(img)
	for i := range cycles {
		c := &cycles[i]
		ops := c.Meta.Sequential
		if ops == nil {
			ops = &types.Operands{}
		}
		dstE, dstM := Destinations(c.Execute.Icode, ops)
		write(&state, dstE, ops.ValE)
		write(&state, dstM, ops.ValM)

		rf := state
		c.Registers = &rf
	}
	return true
}

// write stores v into register dst; RNONE and Unknown values are no-ops.
func write(rf *types.RegisterFile, dst, v vcd.Value) {
	id, ok := dst.Uint64()
	if !ok || id >= isa.NumRegisters || !v.IsKnown() {
		return
	}
	rf[id] = v
}
