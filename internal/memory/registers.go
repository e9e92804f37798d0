package memory

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"y86trace/internal/isa"
	"y86trace/internal/logging"
	"y86trace/internal/types"
)

// RegisterImage is the initial register file. Lines map onto registers in
// architectural order; missing lines leave a register at zero and surplus
// lines are ignored.
type RegisterImage struct {
	Registers types.RegisterImage `json:"registers"`
}

// LoadRegisters reads a register file image.
func LoadRegisters(r io.Reader) (*RegisterImage, error) {
	var values []uint64
	skipped, err := scanWords(r, func(hex string) {
		v, _ := strconv.ParseUint(hex, 16, 64)
		values = append(values, v)
	})
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logging.MemoryDebug("register memory: skipped %d malformed lines", skipped)
	}
	if extra := len(values) - isa.NumRegisters; extra > 0 {
		logging.MemoryWarn("register memory: ignoring %d lines beyond %s", extra, isa.Registers[isa.NumRegisters-1])
	}

	img := make(types.RegisterImage, isa.NumRegisters)
	for i, name := range isa.Registers {
		var v uint64
		if i < len(values) {
			v = values[i]
		}
		img[name] = types.Word(v)
	}
	return &RegisterImage{Registers: img}, nil
}

// LoadRegistersFile opens and reads a register file image.
func LoadRegistersFile(path string) (*RegisterImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open register memory: %w", err)
	}
	defer f.Close()
	return LoadRegisters(f)
}
