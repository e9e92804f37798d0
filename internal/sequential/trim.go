package sequential

import "y86trace/internal/types"

// Trim drops the leading records whose fetch opcode is Unknown and cuts the
// sequence just after the first halting record. The result aliases cycles.
func Trim(cycles []types.Cycle) []types.Cycle {
	start := 0
	for start < len(cycles) && cycles[start].Fetch.IsUnknown() {
		start++
	}

	end := len(cycles)
	for i := start; i < len(cycles); i++ {
		if cycles[i].Halted() {
			end = i + 1
			break
		}
	}
	return cycles[start:end]
}
