// Package pipeline decodes traces of the five-stage pipelined processor into
// Cycle Records and derives forwarding and performance views from them.
package pipeline

import (
	"y86trace/internal/types"
	"y86trace/internal/vcd"
)

// Decoder turns raw snapshots of a pipelined trace into Cycle Records.
type Decoder struct {
	// RegisterDstE reads the execute ALU-result destination from the E_dstE
	// pipeline register instead of e_dstE. Parse sets it when the trace does
	// not declare e_dstE.
	RegisterDstE bool
}

// Decode builds the Cycle Record for one snapshot.
func (d Decoder) Decode(s vcd.Snapshot) types.Cycle {
	get := s.Get
	flag := func(sig vcd.Signal) *bool { return get(sig).Bool() }

	var rf types.RegisterFile
	for i := range rf {
		rf[i] = get(sigReg0 + vcd.Signal(i))
	}

	execDstE := get(sigEDstE)
	if d.RegisterDstE {
		execDstE = get(sigERegDstE)
	}

	return types.Cycle{
		Mode: types.ModePipeline,
		Edge: s.Edge,
		Time: s.Time,

		Fetch:     types.NewStage(types.StageFetch, get(sigFIcode), get(sigFIfun), get(sigFPC), get(sigFStat)),
		Decode:    types.NewStage(types.StageDecode, get(sigDIcode), get(sigDIfun), get(sigDPC), get(sigDStat)),
		Execute:   types.NewStage(types.StageExecute, get(sigEIcode), get(sigEIfun), get(sigEPC), get(sigEStat)),
		Memory:    types.NewStage(types.StageMemory, get(sigMIcode), get(sigMIfun), get(sigMPC), get(sigMStat)),
		Writeback: types.NewStage(types.StageWriteback, get(sigWIcode), get(sigWIfun), get(sigWPC), get(sigWStat)),

		Registers: &rf,

		Control: types.Control{
			FStall:     flag(sigFStall),
			FBubble:    flag(sigFBubble),
			DStall:     flag(sigDStall),
			DBubble:    flag(sigDBubble),
			EStall:     flag(sigEStall),
			EBubble:    flag(sigEBubble),
			MStall:     flag(sigMStall),
			MBubble:    flag(sigMBubble),
			WStall:     flag(sigWStall),
			WBubble:    flag(sigWBubble),
			InstrValid: flag(sigInstrValid),
			ImemError:  flag(sigImemError),
		},

		Flags: types.NewFlags(get(sigCC), get(sigNewCC), get(sigSetCC), get(sigECnd), get(sigMCnd)),

		Meta: types.Meta{
			PredPC:         get(sigFPredPC).Hex(),
			FetchRegPredPC: get(sigFRegPredPC).Hex(),
			MemoryStat:     types.NewStatus(get(sigMemStat)),
		},

		// Destinations come straight from the trace's decoded signals.
		Forwarding: types.Forwarding{
			Decode: types.DecodeSources{
				SrcA: types.Reg(get(sigDSrcA)),
				SrcB: types.Reg(get(sigDSrcB)),
			},
			Execute: types.Destinations{
				DstE: types.Reg(execDstE),
				DstM: types.Reg(get(sigEDstM)),
			},
			Memory: types.Destinations{
				DstE: types.Reg(get(sigMDstE)),
				DstM: types.Reg(get(sigMDstM)),
			},
			Writeback: types.Destinations{
				DstE: types.Reg(get(sigWDstE)),
				DstM: types.Reg(get(sigWDstM)),
			},
		},
	}
}
