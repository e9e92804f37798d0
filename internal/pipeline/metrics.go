package pipeline

import (
	"y86trace/internal/isa"
	"y86trace/internal/types"
)

// MispredictPenalty is the number of bubble cycles one mispredicted branch costs.
const MispredictPenalty = 2

// Metrics summarises pipeline behaviour over a cycle sequence.
type Metrics struct {
	TotalCycles           int     `json:"totalCycles"`
	RetiredInstructions   int     `json:"retiredInstructions"`
	Mispredictions        int     `json:"mispredictions"`
	DataHazardStallCycles int     `json:"dataHazardStallCycles"`
	BranchPenaltyCycles   int     `json:"branchPenaltyCycles"`
	BranchPenaltyPercent  float64 `json:"branchPenaltyPercent"`
	// CPI is nil until at least one instruction retires.
	CPI *float64 `json:"cpi"`
}

// ComputeMetrics counts retired instructions (known, non-NOP opcodes in
// writeback), mispredicted branches (JXX in execute with e_Cnd false) and
// load/use stall cycles (F and D stalled with an execute bubble, outside a
// mispredict).
func ComputeMetrics(cycles []types.Cycle) Metrics {
	m := Metrics{TotalCycles: len(cycles)}
	if len(cycles) == 0 {
		return m
	}

	for i := range cycles {
		c := &cycles[i]
		if c.Writeback.Icode.IsKnown() && !c.Writeback.IsOpcode(isa.INOP) {
			m.RetiredInstructions++
		}

		mispredict := c.Execute.IsOpcode(isa.IJXX) && c.Flags.ECnd != nil && !*c.Flags.ECnd
		if mispredict {
			m.Mispredictions++
		}

		ctl := c.Control
		if isTrue(ctl.FStall) && isTrue(ctl.DStall) && isTrue(ctl.EBubble) && !mispredict {
			m.DataHazardStallCycles++
		}
	}

	m.BranchPenaltyCycles = m.Mispredictions * MispredictPenalty
	m.BranchPenaltyPercent = float64(m.BranchPenaltyCycles) / float64(len(cycles)) * 100
	if m.RetiredInstructions > 0 {
		cpi := float64(len(cycles)) / float64(m.RetiredInstructions)
		m.CPI = &cpi
	}
	return m
}
