package pipeline

import (
	"y86trace/internal/isa"
	"y86trace/internal/vcd"
)

// Tracked signals of the pipelined processor.
const (
	sigClock vcd.Signal = iota

	sigFIcode
	sigDIcode
	sigEIcode
	sigMIcode
	sigWIcode

	sigFIfun
	sigDIfun
	sigEIfun
	sigMIfun
	sigWIfun

	sigFStat
	sigDStat
	sigEStat
	sigMStat
	sigWStat
	sigMemStat

	sigFPC
	sigDPC
	sigEPC
	sigMPC
	sigWPC
	sigFPredPC
	sigFRegPredPC

	sigCC
	sigNewCC
	sigSetCC
	sigECnd
	sigMCnd

	sigInstrValid
	sigImemError

	sigFStall
	sigFBubble
	sigDStall
	sigDBubble
	sigEStall
	sigEBubble
	sigMStall
	sigMBubble
	sigWStall
	sigWBubble

	sigDSrcA
	sigDSrcB
	sigEDstE    // e_dstE, after the conditional-move decision
	sigERegDstE // E_dstE pipeline register
	sigEDstM
	sigMDstE
	sigMDstM
	sigWDstE
	sigWDstM

	sigReg0
	numSignals = sigReg0 + isa.NumRegisters
)

var signalNames = map[string]vcd.Signal{
	"clock": sigClock,

	"f_icode": sigFIcode,
	"D_icode": sigDIcode,
	"E_icode": sigEIcode,
	"M_icode": sigMIcode,
	"W_icode": sigWIcode,

	"f_ifun": sigFIfun,
	"D_ifun": sigDIfun,
	"E_ifun": sigEIfun,
	"M_ifun": sigMIfun,
	"W_ifun": sigWIfun,

	"f_stat": sigFStat,
	"D_stat": sigDStat,
	"E_stat": sigEStat,
	"M_stat": sigMStat,
	"W_stat": sigWStat,
	"m_stat": sigMemStat,

	"f_pc":     sigFPC,
	"D_pc":     sigDPC,
	"E_pc":     sigEPC,
	"M_pc":     sigMPC,
	"W_pc":     sigWPC,
	"f_predPC": sigFPredPC,
	"F_predPC": sigFRegPredPC,

	"cc":     sigCC,
	"new_cc": sigNewCC,
	"set_cc": sigSetCC,
	"e_Cnd":  sigECnd,
	"M_Cnd":  sigMCnd,

	"instr_valid": sigInstrValid,
	"imem_error":  sigImemError,

	"F_stall":  sigFStall,
	"F_bubble": sigFBubble,
	"D_stall":  sigDStall,
	"D_bubble": sigDBubble,
	"E_stall":  sigEStall,
	"E_bubble": sigEBubble,
	"M_stall":  sigMStall,
	"M_bubble": sigMBubble,
	"W_stall":  sigWStall,
	"W_bubble": sigWBubble,

	"d_srcA": sigDSrcA,
	"d_srcB": sigDSrcB,
	"e_dstE": sigEDstE,
	"E_dstE": sigERegDstE,
	"E_dstM": sigEDstM,
	"M_dstE": sigMDstE,
	"M_dstM": sigMDstM,
	"W_dstE": sigWDstE,
	"W_dstM": sigWDstM,
}

// Schema is the allow-list of pipelined trace signals.
var Schema = newSchema()

func newSchema() *vcd.Schema {
	names := make(map[string]vcd.Signal, len(signalNames)+isa.NumRegisters)
	for name, sig := range signalNames {
		names[name] = sig
	}
	for i, reg := range isa.Registers {
		names[reg] = sigReg0 + vcd.Signal(i)
	}
	return vcd.NewSchema(int(numSignals), sigClock, names)
}
