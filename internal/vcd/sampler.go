package vcd

import (
	"fmt"
	"io"
)

// Snapshot is the committed value of every schema signal at one rising
// clock edge. Values is indexed by Signal; signals the trace never declared
// read as Unknown.
type Snapshot struct {
	Edge   int
	Time   uint64
	Values []Value
}

// Get returns the sampled value of sig.
func (s Snapshot) Get(sig Signal) Value {
	if int(sig) < 0 || int(sig) >= len(s.Values) {
		return Unknown
	}
	return s.Values[sig]
}

// Result is the outcome of one sampling pass.
type Result struct {
	Snapshots []Snapshot
	Table     *Table
	Timescale string
	// ClockFound is false when no clock declaration matched the schema; the
	// snapshot list is then empty.
	ClockFound bool
}

// sampler owns the per-call current-value table and pending batch.
type sampler struct {
	schema  *Schema
	table   *Table
	current map[string]Value
	pending map[string]Value
	time    uint64
	seen    bool
	out     []Snapshot
}

// Sample reads a whole trace and returns one Snapshot per rising edge of the
// schema's clock. A read error returns no snapshots at all.
func Sample(r io.Reader, schema *Schema) (*Result, error) {
	s := &sampler{
		schema:  schema,
		table:   NewTable(schema),
		current: make(map[string]Value),
		pending: make(map[string]Value),
	}
	res := &Result{Table: s.table}

	lx := newLexer(r)
	for {
		ev, ok := lx.next()
		if !ok {
			break
		}
		switch ev.kind {
		case evDeclaration:
			s.table.Declare(ev.decl)
		case evTimescale:
			res.Timescale = ev.text
		case evTimestamp:
			if s.seen {
				s.commit()
			}
			s.seen = true
			s.time = ev.time
		case evChange:
			if s.table.Tracks(ev.symbol) {
				s.pending[ev.symbol] = ev.value
			}
		}
	}
	if err := lx.err(); err != nil {
		return nil, fmt.Errorf("vcd: read trace: %w", err)
	}
	s.commit()

	_, res.ClockFound = s.table.Symbol(schema.Clock())
	res.Snapshots = s.out
	return res, nil
}

// commit applies the pending batch as one atomic update and samples if the
// clock has just risen.
func (s *sampler) commit() {
	if len(s.pending) == 0 {
		return
	}
	clockSym, hasClock := s.table.Symbol(s.schema.Clock())
	prev := Unknown
	if hasClock {
		prev = s.current[clockSym]
	}
	for sym, v := range s.pending {
		s.current[sym] = v
	}
	clear(s.pending)

	if !hasClock {
		return
	}
	if s.current[clockSym].Is(1) && !prev.Is(1) {
		s.capture()
	}
}

func (s *sampler) capture() {
	values := make([]Value, s.schema.Len())
	for i := range values {
		if sym, ok := s.table.Symbol(Signal(i)); ok {
			values[i] = s.current[sym]
		}
	}
	s.out = append(s.out, Snapshot{Edge: len(s.out), Time: s.time, Values: values})
}
