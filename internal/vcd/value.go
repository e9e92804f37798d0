// Package vcd decodes textual value-change-dump waveform traces.
//
// A trace is read in one streaming pass: header declarations build a
// Table of tracked signals, value changes are buffered per timestamp and
// committed atomically, and a Snapshot of every tracked signal is taken
// on each rising edge of the designated clock. Every entry point allocates
// its own state, so concurrent calls on separate inputs never interfere.
package vcd

import (
	"fmt"
	"strconv"
)

// Value is a sampled signal value. The zero Value is Unknown, which is kept
// distinct from a known zero all the way to the rendered output.
type Value struct {
	bits  uint64
	known bool
}

// Unknown is the value of any signal that carries x/z bits, has never been
// assigned, or is absent from the trace.
var Unknown = Value{}

// Known returns a known value.
func Known(bits uint64) Value {
	return Value{bits: bits, known: true}
}

// IsKnown reports whether v holds a concrete integer.
func (v Value) IsKnown() bool { return v.known }

// Uint64 returns the integer and whether it is known.
func (v Value) Uint64() (uint64, bool) { return v.bits, v.known }

// Is reports whether v is known and equal to bits.
func (v Value) Is(bits uint64) bool { return v.known && v.bits == bits }

// Bool converts a 1-bit value to a tri-state boolean; nil means Unknown.
func (v Value) Bool() *bool {
	if !v.known {
		return nil
	}
	b := v.bits != 0
	return &b
}

// Bit returns bit n of v as a tri-state boolean.
func (v Value) Bit(n uint) *bool {
	if !v.known {
		return nil
	}
	b := v.bits&(1<<n) != 0
	return &b
}

// Hex renders v as a zero-padded 16 digit word ("0x000000000000002a"), or "x".
func (v Value) Hex() string {
	if !v.known {
		return "x"
	}
	return fmt.Sprintf("0x%016x", v.bits)
}

// ShortHex renders small fields without padding ("0xA"), or "x".
func (v Value) ShortHex() string {
	if !v.known {
		return "x"
	}
	return fmt.Sprintf("0x%X", v.bits)
}

func (v Value) String() string {
	if !v.known {
		return "x"
	}
	return strconv.FormatUint(v.bits, 10)
}

// MarshalJSON encodes known values as numbers and Unknown as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.known {
		return []byte("null"), nil
	}
	return strconv.AppendUint(nil, v.bits, 10), nil
}

// UnmarshalJSON accepts the encoding produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Unknown
		return nil
	}
	n, err := strconv.ParseUint(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("vcd: invalid value %s: %w", data, err)
	}
	*v = Known(n)
	return nil
}

// ParseVector decodes the digits of a "b<digits>" change. Any x/z digit, or
// any character that is not a binary digit, collapses the whole vector to
// Unknown. Vectors wider than 64 bits keep their low 64 bits.
func ParseVector(digits string) Value {
	if digits == "" {
		return Unknown
	}
	var bits uint64
	for i := 0; i < len(digits); i++ {
		switch digits[i] {
		case '0':
			bits <<= 1
		case '1':
			bits = bits<<1 | 1
		default:
			return Unknown
		}
	}
	return Known(bits)
}

// ParseScalar decodes the leading character of a single-bit change.
func ParseScalar(c byte) (Value, bool) {
	switch c {
	case '0':
		return Known(0), true
	case '1':
		return Known(1), true
	case 'x', 'X', 'z', 'Z':
		return Unknown, true
	}
	return Unknown, false
}
