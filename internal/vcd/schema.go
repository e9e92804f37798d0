package vcd

import "regexp"

// Signal identifies one tracked logical signal within a Schema. Decoders
// declare their signals as a closed set of constants and index snapshots
// with them.
type Signal int

// Schema is the fixed allow-list of logical signal names a decoder tracks.
// Several names may alias one Signal (for example "clk" and "clock").
type Schema struct {
	count int
	clock Signal
	names map[string]Signal
}

// NewSchema builds a schema of count signals. names maps every accepted
// logical name to its Signal; clock is the signal whose rising edges are
// sampled.
func NewSchema(count int, clock Signal, names map[string]Signal) *Schema {
	m := make(map[string]Signal, len(names))
	for name, sig := range names {
		if sig < 0 || int(sig) >= count {
			panic("vcd: signal out of schema range: " + name)
		}
		m[name] = sig
	}
	return &Schema{count: count, clock: clock, names: m}
}

// Len returns the number of signals in the schema.
func (s *Schema) Len() int { return s.count }

// Clock returns the sampling clock signal.
func (s *Schema) Clock() Signal { return s.clock }

// Lookup resolves a logical name (bit range already stripped).
func (s *Schema) Lookup(name string) (Signal, bool) {
	sig, ok := s.names[name]
	return sig, ok
}

// Declaration is one "$var" header entry.
type Declaration struct {
	Kind   string
	Width  int
	Symbol string
	Name   string
}

var bitRange = regexp.MustCompile(`\[\d+:\d+\]`)

// StripRange removes the first "[msb:lsb]" suffix from a reference name.
// Single-index selects such as "reg_store[3]" are left intact.
func StripRange(ref string) string {
	loc := bitRange.FindStringIndex(ref)
	if loc == nil {
		return ref
	}
	return ref[:loc[0]] + ref[loc[1]:]
}

// Table maps trace symbols to the schema's signals. A logical name declared
// more than once keeps only its last declaration. When two alias names of
// one signal are declared, the first alias declared keeps the signal.
type Table struct {
	schema  *Schema
	symbols []string
	names   []string
	tracked map[string]int
}

// NewTable returns an empty table for schema.
func NewTable(schema *Schema) *Table {
	return &Table{
		schema:  schema,
		symbols: make([]string, schema.count),
		names:   make([]string, schema.count),
		tracked: make(map[string]int),
	}
}

// Declare binds d to its signal. Declarations of untracked names are
// dropped and reported as false, as are later aliases of a bound signal.
func (t *Table) Declare(d Declaration) (Signal, bool) {
	sig, ok := t.schema.Lookup(d.Name)
	if !ok {
		return 0, false
	}
	if bound := t.names[sig]; bound != "" && bound != d.Name {
		return 0, false
	}
	if old := t.symbols[sig]; old != "" {
		t.tracked[old]--
		if t.tracked[old] <= 0 {
			delete(t.tracked, old)
		}
	}
	t.symbols[sig] = d.Symbol
	t.names[sig] = d.Name
	t.tracked[d.Symbol]++
	return sig, true
}

// Tracks reports whether symbol is bound to at least one signal.
func (t *Table) Tracks(symbol string) bool {
	_, ok := t.tracked[symbol]
	return ok
}

// Symbol returns the symbol bound to sig.
func (t *Table) Symbol(sig Signal) (string, bool) {
	s := t.symbols[sig]
	return s, s != ""
}

// Len returns the number of signals bound so far.
func (t *Table) Len() int {
	n := 0
	for _, s := range t.symbols {
		if s != "" {
			n++
		}
	}
	return n
}
