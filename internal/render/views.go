package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"y86trace/internal/isa"
	"y86trace/internal/pipeline"
	"y86trace/internal/types"
)

// Cycles renders one row per cycle. Pipelined traces show the opcode in
// every stage; sequential traces show the operands of the single
// instruction.
func Cycles(cycles []types.Cycle, st Styles) string {
	if len(cycles) > 0 && cycles[0].Mode == types.ModeSequential {
		return sequentialCycles(cycles, st)
	}
	return pipelineCycles(cycles, st)
}

func pipelineCycles(cycles []types.Cycle, st Styles) string {
	t := NewTable("Pipeline", "#", "time", "F", "D", "E", "M", "W", "control", "cc")
	for i := range cycles {
		c := &cycles[i]
		ctl := c.Control
		t.AddRow(
			strconv.Itoa(c.Number),
			strconv.FormatUint(c.Time, 10),
			stageCell(c.Fetch, ctl.FStall, nil, st),
			stageCell(c.Decode, ctl.DStall, ctl.DBubble, st),
			stageCell(c.Execute, ctl.EStall, ctl.EBubble, st),
			stageCell(c.Memory, ctl.MStall, ctl.MBubble, st),
			stageCell(c.Writeback, ctl.WStall, ctl.WBubble, st),
			controlSummary(ctl),
			flagCell(c.Flags),
		)
	}
	return t.View(st)
}

func sequentialCycles(cycles []types.Cycle, st Styles) string {
	t := NewTable("Sequential", "#", "time", "PC", "icode", "ifun", "valE", "valM", "memory", "stat")
	for i := range cycles {
		c := &cycles[i]
		ops := c.Meta.Sequential
		if ops == nil {
			ops = &types.Operands{}
		}
		t.AddRow(
			strconv.Itoa(c.Number),
			strconv.FormatUint(c.Time, 10),
			c.Fetch.PCHex,
			stageCell(c.Execute, nil, nil, st),
			c.Execute.IfunHex,
			ops.ValE.Hex(),
			ops.ValM.Hex(),
			memoryCell(c.DataMemory),
			statusCell(c.Meta.MemoryStat.Name, st),
		)
	}
	return t.View(st)
}

func stageCell(s types.Stage, stall, bubble *bool, st Styles) string {
	name := s.IcodeName
	var style lipgloss.Style
	switch {
	case s.IsUnknown():
		style = st.Unknown
	case s.StatName == isa.StatusName(isa.SHLT) || s.IsOpcode(isa.IHALT):
		style = st.Halt
	case isTrue(bubble):
		style = st.Bubble
		name += "*"
	case isTrue(stall):
		style = st.Stall
		name += "!"
	default:
		return name
	}
	return style.Render(name)
}

func statusCell(name string, st Styles) string {
	switch name {
	case "x":
		return st.Unknown.Render(name)
	case isa.StatusName(isa.SAOK):
		return name
	default:
		return st.Halt.Render(name)
	}
}

// controlSummary lists the stages that stall or bubble this cycle, e.g.
// "stall F,D bubble E".
func controlSummary(c types.Control) string {
	var stalls, bubbles []string
	for _, s := range []struct {
		name          string
		stall, bubble *bool
	}{
		{"F", c.FStall, c.FBubble},
		{"D", c.DStall, c.DBubble},
		{"E", c.EStall, c.EBubble},
		{"M", c.MStall, c.MBubble},
		{"W", c.WStall, c.WBubble},
	} {
		if isTrue(s.stall) {
			stalls = append(stalls, s.name)
		}
		if isTrue(s.bubble) {
			bubbles = append(bubbles, s.name)
		}
	}
	var parts []string
	if len(stalls) > 0 {
		parts = append(parts, "stall "+strings.Join(stalls, ","))
	}
	if len(bubbles) > 0 {
		parts = append(parts, "bubble "+strings.Join(bubbles, ","))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, " ")
}

func flagCell(f types.Flags) string {
	bit := func(name string, b *bool) string {
		switch {
		case b == nil:
			return name + "=x"
		case *b:
			return name + "=1"
		default:
			return name + "=0"
		}
	}
	return bit("Z", f.ZF) + " " + bit("S", f.SF) + " " + bit("O", f.OF)
}

func memoryCell(m *types.DataMemoryAccess) string {
	if m == nil {
		return "-"
	}
	op := "R"
	if m.Write {
		op = "W"
	}
	cell := fmt.Sprintf("%s[%s]", op, m.ByteAddressHex)
	if !m.InRange {
		cell += " oob"
	}
	return cell
}

// Registers renders a register file in architectural order.
func Registers(rf *types.RegisterFile, st Styles) string {
	t := NewTable("Registers", "reg", "value")
	if rf == nil {
		return t.View(st)
	}
	for i, name := range isa.Registers {
		v := rf[i].Hex()
		if !rf[i].IsKnown() {
			v = st.Unknown.Render(v)
		}
		t.AddRow(name, v)
	}
	return t.View(st)
}

// Metrics renders the performance summary of a pipelined run.
func Metrics(m pipeline.Metrics, st Styles) string {
	cpi := "n/a"
	if m.CPI != nil {
		cpi = strconv.FormatFloat(*m.CPI, 'f', 2, 64)
	}
	t := NewTable("Metrics", "metric", "value")
	t.AddRow("cycles", strconv.Itoa(m.TotalCycles))
	t.AddRow("retired", strconv.Itoa(m.RetiredInstructions))
	t.AddRow("CPI", cpi)
	t.AddRow("mispredictions", strconv.Itoa(m.Mispredictions))
	t.AddRow("load/use stalls", strconv.Itoa(m.DataHazardStallCycles))
	t.AddRow("branch penalty", fmt.Sprintf("%d (%.1f%%)", m.BranchPenaltyCycles, m.BranchPenaltyPercent))
	return t.View(st)
}

// Forwarding renders how each decode source of one cycle is resolved.
func Forwarding(fp pipeline.ForwardingPaths, st Styles) string {
	t := NewTable("Forwarding", "lane", "reg", "status", "from")
	for _, sp := range fp.Sources {
		from := "-"
		if sp.Selected != nil {
			from = sp.Selected.Key
		}
		status := string(sp.Status)
		switch sp.Status {
		case pipeline.SourceBypass:
			status = st.Bypass.Render(status)
		case pipeline.SourceBlocked:
			status = st.Stall.Render(status)
		case pipeline.SourceUnknown:
			status = st.Unknown.Render(status)
		}
		t.AddRow(sp.Lane, sp.Reg.Label(), status, from)
	}
	return t.View(st)
}

func isTrue(b *bool) bool { return b != nil && *b }
