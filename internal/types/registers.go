package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"y86trace/internal/isa"
	"y86trace/internal/vcd"
)

// Word is a known 64-bit value that encodes as a 16 digit hex string.
type Word uint64

func (w Word) String() string { return fmt.Sprintf("0x%016x", uint64(w)) }

// MarshalJSON encodes w as "0x%016x".
func (w Word) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.String())
}

// UnmarshalJSON accepts "0x..." hex strings.
func (w *Word) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return fmt.Errorf("types: invalid word %q: %w", s, err)
	}
	*w = Word(n)
	return nil
}

// RegisterImage maps architectural register names to known values. It is
// the form initial register state is supplied in.
type RegisterImage map[string]Word

// RegisterFile is the value of every architectural register at one cycle.
type RegisterFile [isa.NumRegisters]vcd.Value

// AllUnknown reports whether no register holds a known value.
func (rf *RegisterFile) AllUnknown() bool {
	if rf == nil {
		return true
	}
	for _, v := range rf {
		if v.IsKnown() {
			return false
		}
	}
	return true
}

// Get returns a register by name.
func (rf *RegisterFile) Get(name string) vcd.Value {
	id, ok := isa.RegisterID(name)
	if !ok || rf == nil {
		return vcd.Unknown
	}
	return rf[id]
}

// FromImage builds a register file from an image; registers missing from
// the image are zero.
func FromImage(img RegisterImage) RegisterFile {
	var rf RegisterFile
	for i, name := range isa.Registers {
		rf[i] = vcd.Known(uint64(img[name]))
	}
	return rf
}

// MarshalJSON encodes the file as an object in architectural order, each
// register rendered as a 16 digit hex word or "x".
func (rf RegisterFile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range isa.Registers {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%q", name, rf[i].Hex())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
