package vcd

import (
	"fmt"
	"io"
	"sort"
)

// DefaultClockNames is the candidate list used when a caller supplies none.
var DefaultClockNames = []string{"clock", "clk"}

// ClockInfo describes the nominal clock of a trace.
type ClockInfo struct {
	// Timescale is the header's free-form timescale text, nil if absent.
	Timescale *string `json:"timescaleRaw"`
	// Signal is the logical name of the clock that was measured.
	Signal string `json:"signal,omitempty"`
	// PeriodTicks is the most frequent posedge-to-posedge delta, nil when
	// fewer than one full period was observed.
	PeriodTicks *uint64 `json:"periodTicks"`
	// Samples is the number of deltas the period was chosen from.
	Samples int `json:"samples"`
}

// HasPeriod reports whether a period could be inferred.
func (c ClockInfo) HasPeriod() bool { return c.PeriodTicks != nil }

// ExtractClockInfo scans a trace for its timescale and the first declared
// signal from candidates (in candidate order), then infers the clock period
// from the deltas between successive rising edges of that signal.
func ExtractClockInfo(r io.Reader, candidates []string) (ClockInfo, error) {
	if len(candidates) == 0 {
		candidates = DefaultClockNames
	}

	var (
		info     ClockInfo
		declared = make(map[string]string)
		resolved bool
		clockSym string
		prev     = Unknown
		last     uint64
		haveLast bool
		deltas   []uint64
		now      uint64
	)

	resolve := func() {
		resolved = true
		for _, name := range candidates {
			if sym, ok := declared[name]; ok {
				clockSym = sym
				info.Signal = name
				return
			}
		}
	}

	lx := newLexer(r)
	for {
		ev, ok := lx.next()
		if !ok {
			break
		}
		switch ev.kind {
		case evDeclaration:
			declared[ev.decl.Name] = ev.decl.Symbol
		case evTimescale:
			ts := ev.text
			info.Timescale = &ts
		case evTimestamp:
			if !resolved {
				resolve()
			}
			now = ev.time
		case evChange:
			if !resolved {
				resolve()
			}
			if clockSym == "" || ev.symbol != clockSym {
				continue
			}
			if ev.value.Is(1) && !prev.Is(1) {
				if haveLast && now > last {
					deltas = append(deltas, now-last)
				}
				last, haveLast = now, true
			}
			prev = ev.value
		}
	}
	if err := lx.err(); err != nil {
		return ClockInfo{}, fmt.Errorf("vcd: read trace: %w", err)
	}
	if !resolved {
		resolve()
	}

	if period, ok := modeOf(deltas); ok {
		info.PeriodTicks = &period
		info.Samples = len(deltas)
	}
	return info, nil
}

// modeOf returns the most frequent delta, preferring the smaller on ties.
func modeOf(deltas []uint64) (uint64, bool) {
	if len(deltas) == 0 {
		return 0, false
	}
	hist := make(map[uint64]int, len(deltas))
	for _, d := range deltas {
		hist[d]++
	}
	keys := make([]uint64, 0, len(hist))
	for d := range hist {
		keys = append(keys, d)
	}
	sort.Slice(keys, func(i, j int) bool {
		if hist[keys[i]] != hist[keys[j]] {
			return hist[keys[i]] > hist[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys[0], true
}
