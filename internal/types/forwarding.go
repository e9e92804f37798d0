package types

import (
	"encoding/json"

	"y86trace/internal/isa"
	"y86trace/internal/vcd"
)

// RegRef is a register id as seen by the forwarding logic: 0-14 names a
// register, 15 is RNONE, Unknown is not yet resolved.
type RegRef struct {
	ID vcd.Value
}

// Reg wraps a raw register id.
func Reg(id vcd.Value) RegRef { return RegRef{ID: id} }

// IsNone reports whether the id is RNONE; nil when Unknown.
func (r RegRef) IsNone() *bool {
	v, ok := r.ID.Uint64()
	if !ok {
		return nil
	}
	none := v == isa.RNONE
	return &none
}

// Names reports whether the ref is a concrete register (not RNONE, not Unknown).
func (r RegRef) Names() bool {
	v, ok := r.ID.Uint64()
	return ok && v < isa.NumRegisters
}

// Same reports whether both refs name the same concrete register.
func (r RegRef) Same(o RegRef) bool {
	return r.Names() && o.Names() && r.ID == o.ID
}

// Name returns the register name, "none" for RNONE, or "x".
func (r RegRef) Name() string {
	v, ok := r.ID.Uint64()
	if !ok {
		return "x"
	}
	if name, ok := isa.RegisterName(v); ok {
		return name
	}
	if v == isa.RNONE {
		return "none"
	}
	return r.ID.ShortHex()
}

// Label is the display form used on forwarding diagrams.
func (r RegRef) Label() string {
	if v, ok := r.ID.Uint64(); ok && v == isa.RNONE {
		return "RNONE"
	}
	if r.Names() {
		return "%" + r.Name()
	}
	return r.Name()
}

// MarshalJSON encodes {raw, hex, name, label, isNone}.
func (r RegRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Raw    vcd.Value `json:"raw"`
		Hex    string    `json:"hex"`
		Name   string    `json:"name"`
		Label  string    `json:"label"`
		IsNone *bool     `json:"isNone"`
	}{r.ID, r.ID.ShortHex(), r.Name(), r.Label(), r.IsNone()})
}

// DecodeSources are the two register-read slots of the decode stage.
type DecodeSources struct {
	SrcA RegRef `json:"srcA"`
	SrcB RegRef `json:"srcB"`
}

// Destinations are the two register-write slots carried by a stage.
type Destinations struct {
	DstE RegRef `json:"dstE"`
	DstM RegRef `json:"dstM"`
}

// Forwarding describes the register ids involved in bypassing for one cycle.
type Forwarding struct {
	Decode    DecodeSources `json:"decode"`
	Execute   Destinations  `json:"execute"`
	Memory    Destinations  `json:"memory"`
	Writeback Destinations  `json:"writeback"`
}
