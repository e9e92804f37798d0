package pipeline

import (
	"y86trace/internal/types"
)

// SourceStatus classifies how a decode-stage source operand is obtained.
type SourceStatus string

const (
	SourceUnknown SourceStatus = "unknown" // source id not yet resolved
	SourceUnused  SourceStatus = "unused"  // RNONE
	SourceBypass  SourceStatus = "bypass"  // forwarded from a later stage
	SourceBlocked SourceStatus = "blocked" // load-use stall on the execute load
	SourceRegFile SourceStatus = "rf"      // read from the register file
)

// Producer is one forwarding source slot.
type Producer struct {
	Key      string       `json:"key"`
	Stage    string       `json:"stage"`
	Path     string       `json:"path"`
	Priority int          `json:"priority"`
	Reg      types.RegRef `json:"reg"`
}

// SourcePath is the resolution of one decode source.
type SourcePath struct {
	Lane     string       `json:"lane"`
	Key      string       `json:"key"`
	Reg      types.RegRef `json:"reg"`
	Status   SourceStatus `json:"status"`
	Summary  string       `json:"summary"`
	Selected *Producer    `json:"selected"`
	// Candidates lists every producer holding the same register, in
	// priority order; only the first is selected.
	Candidates []Producer `json:"candidates"`
}

// ForwardingPaths is the forwarding view of one cycle.
type ForwardingPaths struct {
	Sources   [2]SourcePath `json:"sources"`
	Producers []Producer    `json:"producers"`
}

// producers lists the bypass sources in the order the forwarding logic
// prefers them.
func producers(f types.Forwarding) []Producer {
	ps := []Producer{
		{Key: "E.dstE", Stage: "Execute", Path: "dstE", Reg: f.Execute.DstE},
		{Key: "M.dstM", Stage: "Memory", Path: "dstM", Reg: f.Memory.DstM},
		{Key: "M.dstE", Stage: "Memory", Path: "dstE", Reg: f.Memory.DstE},
		{Key: "W.dstM", Stage: "Writeback", Path: "dstM", Reg: f.Writeback.DstM},
		{Key: "W.dstE", Stage: "Writeback", Path: "dstE", Reg: f.Writeback.DstE},
	}
	for i := range ps {
		ps[i].Priority = i + 1
	}
	return ps
}

// AnalyzeForwarding resolves where each decode-stage source of c comes from.
func AnalyzeForwarding(c *types.Cycle) ForwardingPaths {
	ps := producers(c.Forwarding)
	loadUse := isTrue(c.Control.DStall) && isTrue(c.Control.EBubble)
	execLoad := c.Forwarding.Execute.DstM

	out := ForwardingPaths{Producers: ps}
	slots := [2]struct {
		lane, key string
		reg       types.RegRef
	}{
		{"A", "srcA", c.Forwarding.Decode.SrcA},
		{"B", "srcB", c.Forwarding.Decode.SrcB},
	}

	for i, slot := range slots {
		sp := SourcePath{Lane: slot.lane, Key: slot.key, Reg: slot.reg}
		switch {
		case !slot.reg.ID.IsKnown():
			sp.Status, sp.Summary = SourceUnknown, "waiting for decode source id"
		case !slot.reg.Names():
			sp.Status, sp.Summary = SourceUnused, "unused (RNONE)"
		default:
			for _, p := range ps {
				if p.Reg.Same(slot.reg) {
					sp.Candidates = append(sp.Candidates, p)
				}
			}
			if len(sp.Candidates) > 0 {
				sel := sp.Candidates[0]
				sp.Status, sp.Summary, sp.Selected = SourceBypass, "bypass from "+sel.Key, &sel
			} else if loadUse && execLoad.Same(slot.reg) {
				sp.Status, sp.Summary = SourceBlocked, "load-use stall on E.dstM"
				sp.Selected = &Producer{Key: "E.dstM", Stage: "Execute", Path: "dstM", Reg: execLoad}
			} else {
				sp.Status, sp.Summary = SourceRegFile, "read from register file"
			}
		}
		out.Sources[i] = sp
	}
	return out
}

func isTrue(b *bool) bool { return b != nil && *b }
