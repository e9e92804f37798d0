// Package isa holds the Y86-64 encoding tables shared by both decoders.
package isa

import "fmt"

// Opcode classes (icode).
const (
	IHALT   = 0x0
	INOP    = 0x1
	ICMOVXX = 0x2
	IIRMOVQ = 0x3
	IRMMOVQ = 0x4
	IMRMOVQ = 0x5
	IOPQ    = 0x6
	IJXX    = 0x7
	ICALL   = 0x8
	IRET    = 0x9
	IPUSHQ  = 0xA
	IPOPQ   = 0xB
	IIADDQ  = 0xC
)

var opcodeNames = [...]string{
	IHALT:   "HALT",
	INOP:    "NOP",
	ICMOVXX: "CMOVXX",
	IIRMOVQ: "IRMOVQ",
	IRMMOVQ: "RMMOVQ",
	IMRMOVQ: "MRMOVQ",
	IOPQ:    "OPQ",
	IJXX:    "JXX",
	ICALL:   "CALL",
	IRET:    "RET",
	IPUSHQ:  "PUSHQ",
	IPOPQ:   "POPQ",
	IIADDQ:  "IADDQ",
}

// OpcodeName names an icode. Values outside the table render as raw hex.
func OpcodeName(icode uint64) string {
	if icode < uint64(len(opcodeNames)) {
		return opcodeNames[icode]
	}
	return fmt.Sprintf("0x%x", icode)
}

// Status codes (stat).
const (
	SAOK = 0x0
	SHLT = 0x1
	SADR = 0x2
	SINS = 0x3
)

var statusNames = [...]string{
	SAOK: "AOK",
	SHLT: "HLT",
	SADR: "ADR",
	SINS: "INS",
}

// StatusName names a stat code. Values outside the table render as raw hex.
func StatusName(stat uint64) string {
	if stat < uint64(len(statusNames)) {
		return statusNames[stat]
	}
	return fmt.Sprintf("0x%X", stat)
}

// NumRegisters is the number of architectural registers.
const NumRegisters = 15

// Register ids with special roles.
const (
	RRSP  = 0x4
	RNONE = 0xF
)

// Registers lists the architectural register names by id.
var Registers = [NumRegisters]string{
	"rax", "rcx", "rdx", "rbx",
	"rsp", "rbp", "rsi", "rdi",
	"r8", "r9", "r10", "r11",
	"r12", "r13", "r14",
}

// RegisterName names a register id; RNONE and out-of-range ids report false.
func RegisterName(id uint64) (string, bool) {
	if id < NumRegisters {
		return Registers[id], true
	}
	return "", false
}

// RegisterID resolves an architectural name.
func RegisterID(name string) (int, bool) {
	for i, r := range Registers {
		if r == name {
			return i, true
		}
	}
	return 0, false
}

// Condition code bits inside the 3-bit cc field.
const (
	CCZero     = 0
	CCSign     = 1
	CCOverflow = 2
)

// WritesMemory reports whether an icode stores to data memory.
func WritesMemory(icode uint64) bool {
	switch icode {
	case IRMMOVQ, ICALL, IPUSHQ:
		return true
	}
	return false
}

// ReadsMemory reports whether an icode loads from data memory.
func ReadsMemory(icode uint64) bool {
	switch icode {
	case IMRMOVQ, IRET, IPOPQ:
		return true
	}
	return false
}
