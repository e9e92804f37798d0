package memory

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"y86trace/internal/logging"
)

// DefaultInstructionArray is the array the fetch stage source initializes.
const DefaultInstructionArray = "Instruction_Mem"

// ErrLiteralNotFound is returned when the source holds no initializer
// statement for the instruction array.
var ErrLiteralNotFound = errors.New("instruction memory hex literal not found")

// ErrRangeTooWide is returned, wrapped with ErrLiteralNotFound, when an
// initializer declares more than MaxInstructionBits bits.
var ErrRangeTooWide = errors.New("instruction memory range too wide")

// MaxInstructionBits bounds the declared [0:N] width, N+1, of the
// instruction array. Larger ranges are rejected instead of padded.
const MaxInstructionBits = 1 << 20

// Byte is one instruction memory byte, most significant first.
type Byte struct {
	Index      int    `json:"index"`
	BitAddress int    `json:"bitAddress"`
	Hex        string `json:"hex"`
	Binary     string `json:"binary"`
}

// InstructionImage is the decoded instruction memory literal.
type InstructionImage struct {
	BitWidth  int    `json:"bitWidth"`
	ByteCount int    `json:"byteCount"`
	Bytes     []Byte `json:"bytes"`
}

// ParseInstructions extracts the initializer of array from a structural
// source file. Exactly one statement form is recognized, starting a line:
//
//	reg [0:N] <array> = 'h<hex digits and underscores>;
//
// Whitespace may appear between any two tokens. The first statement that
// parses wins; if none does, ErrLiteralNotFound is returned. A statement
// whose range exceeds MaxInstructionBits fails with ErrRangeTooWide.
func ParseInstructions(src, array string) (*InstructionImage, error) {
	if array == "" {
		array = DefaultInstructionArray
	}
	for start := 0; start <= len(src); {
		if msb, lit, ok := parseStatement(src[start:], array); ok {
			if msb < 0 || msb >= MaxInstructionBits {
				return nil, fmt.Errorf("%w: %w: array %s declares more than %d bits",
					ErrLiteralNotFound, ErrRangeTooWide, array, MaxInstructionBits)
			}
			return decodeLiteral(msb, lit), nil
		}
		nl := strings.IndexByte(src[start:], '\n')
		if nl < 0 {
			break
		}
		start += nl + 1
	}
	return nil, fmt.Errorf("%w: array %s", ErrLiteralNotFound, array)
}

// LoadInstructionsFile reads the fetch stage source at path.
func LoadInstructionsFile(path, array string) (*InstructionImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read instruction source: %w", err)
	}
	img, err := ParseInstructions(string(data), array)
	if err != nil {
		return nil, err
	}
	logging.Memory("instruction memory: %d bits, %d bytes from %s", img.BitWidth, len(img.Bytes), path)
	return img, nil
}

// stmt is a cursor over one candidate statement.
type stmt struct {
	s   string
	pos int
}

func (p *stmt) space() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\r', '\n', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

// lit consumes tok after optional leading whitespace.
func (p *stmt) lit(tok string) bool {
	p.space()
	if !strings.HasPrefix(p.s[p.pos:], tok) {
		return false
	}
	p.pos += len(tok)
	return true
}

// span consumes a non-empty run of bytes accepted by ok.
func (p *stmt) span(ok func(byte) bool) (string, bool) {
	start := p.pos
	for p.pos < len(p.s) && ok(p.s[p.pos]) {
		p.pos++
	}
	return p.s[start:p.pos], p.pos > start
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isIdent(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// parseStatement matches the initializer at the very start of s. An msb
// that does not fit an int is reported as -1.
func parseStatement(s, array string) (msb int, literal string, ok bool) {
	p := &stmt{s: s}
	if !p.lit("reg") || !p.lit("[") || !p.lit("0") || !p.lit(":") {
		return 0, "", false
	}
	p.space()
	digits, ok := p.span(isDigit)
	if !ok {
		return 0, "", false
	}
	msb, err := strconv.Atoi(digits)
	if err != nil {
		msb = -1
	}
	if !p.lit("]") {
		return 0, "", false
	}
	p.space()
	name, _ := p.span(isIdent)
	if name != array {
		return 0, "", false
	}
	if !p.lit("=") || !p.lit("'h") {
		return 0, "", false
	}
	literal, ok = p.span(func(c byte) bool { return c == '_' || isHexDigit(c) })
	if !ok || !p.lit(";") {
		return 0, "", false
	}
	return msb, literal, true
}

// decodeLiteral splits the literal into bytes, left-padding it to the width
// of a [0:msb] register.
func decodeLiteral(msb int, literal string) *InstructionImage {
	bitWidth := msb + 1
	hex := strings.ToUpper(strings.ReplaceAll(literal, "_", ""))
	if len(hex)%2 != 0 {
		hex = "0" + hex
	}
	if need := (bitWidth + 3) / 4; len(hex) < need {
		hex = strings.Repeat("0", need-len(hex)) + hex
	}

	img := &InstructionImage{
		BitWidth:  bitWidth,
		ByteCount: (bitWidth + 7) / 8,
		Bytes:     make([]Byte, 0, len(hex)/2),
	}
	for i := 0; i+1 < len(hex); i += 2 {
		v, _ := strconv.ParseUint(hex[i:i+2], 16, 8)
		img.Bytes = append(img.Bytes, Byte{
			Index:      i / 2,
			BitAddress: i / 2 * 8,
			Hex:        hex[i : i+2],
			Binary:     fmt.Sprintf("%08b", v),
		})
	}
	return img
}
