package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"y86trace/internal/types"
)

func TestLoadData(t *testing.T) {
	src := strings.Join([]string{
		"// initial data",
		"",
		"DEADBEEF",
		"  1  ",
		"not hex",
		"0x10",
		"123456789abcdef0123",
	}, "\n")

	img, err := LoadData(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 64, img.WordBitWidth)
	require.Equal(t, 3, img.WordCount)
	require.Len(t, img.Words, 3)

	assert.Equal(t, Word{Index: 0, ByteAddress: 0, BitAddress: 0, Hex: "00000000deadbeef", ValueHex: "0x00000000deadbeef"}, img.Words[0])
	assert.Equal(t, Word{Index: 1, ByteAddress: 8, BitAddress: 64, Hex: "0000000000000001", ValueHex: "0x0000000000000001"}, img.Words[1])
	assert.Equal(t, "0x456789abcdef0123", img.Words[2].ValueHex, "keeps the low 64 bits")
	assert.Equal(t, uint64(0x456789abcdef0123), img.Words[2].Value())
}

func TestLoadData_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 0xff, 0x8000000000000000, 0xffffffffffffffff, 0x1234}
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "%x\n", v)
	}

	img, err := LoadData(strings.NewReader(b.String()))
	require.NoError(t, err)
	require.Len(t, img.Words, len(values))
	for i, v := range values {
		assert.Equal(t, fmt.Sprintf("0x%016x", v), img.Words[i].ValueHex)
		assert.Equal(t, v, img.Words[i].Value())
	}
}

func TestLoadData_LongMalformedLine(t *testing.T) {
	src := "1\n" + strings.Repeat("z", 70*1024) + "\n2\n"

	img, err := LoadData(strings.NewReader(src))
	require.NoError(t, err)
	require.Equal(t, 2, img.WordCount)
	assert.Equal(t, "0000000000000002", img.Words[1].Hex)

	regs, err := LoadRegisters(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, types.Word(2), regs.Registers["rcx"])
}

func TestLoadData_Empty(t *testing.T) {
	img, err := LoadData(strings.NewReader("// nothing\n\n"))
	require.NoError(t, err)
	assert.Zero(t, img.WordCount)
	assert.NotNil(t, img.Words)
}

func TestLoadRegisters(t *testing.T) {
	img, err := LoadRegisters(strings.NewReader("1\nzz\n// c\nFF\n"))
	require.NoError(t, err)
	require.Len(t, img.Registers, 15)
	assert.Equal(t, types.Word(1), img.Registers["rax"])
	assert.Equal(t, types.Word(0xff), img.Registers["rcx"])
	assert.Equal(t, types.Word(0), img.Registers["r14"])
}

func TestLoadRegisters_SurplusIgnored(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 20; i++ {
		fmt.Fprintf(&b, "%x\n", i)
	}
	img, err := LoadRegisters(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, types.Word(15), img.Registers["r14"])
}

func TestParseInstructions(t *testing.T) {
	src := `module fetch(clk);
  // reg [0:7] Instruction_Mem = 'hFF; commented out lines still start with //
  reg [0:31] Other_Mem = 'h0;
  reg [ 0 : 31 ]  Instruction_Mem = 'h30_f2a;
endmodule
`
	img, err := ParseInstructions(src, "")
	require.NoError(t, err)
	assert.Equal(t, 32, img.BitWidth)
	assert.Equal(t, 4, img.ByteCount)
	require.Len(t, img.Bytes, 4)
	assert.Equal(t, Byte{Index: 0, BitAddress: 0, Hex: "00", Binary: "00000000"}, img.Bytes[0])
	assert.Equal(t, Byte{Index: 2, BitAddress: 16, Hex: "0F", Binary: "00001111"}, img.Bytes[2])
	assert.Equal(t, Byte{Index: 3, BitAddress: 24, Hex: "2A", Binary: "00101010"}, img.Bytes[3])
}

func TestParseInstructions_OddLengthAndWidth(t *testing.T) {
	img, err := ParseInstructions("reg [0:10] Instruction_Mem = 'habc;", "")
	require.NoError(t, err)
	assert.Equal(t, 11, img.BitWidth)
	assert.Equal(t, 2, img.ByteCount)
	require.Len(t, img.Bytes, 2)
	assert.Equal(t, "0A", img.Bytes[0].Hex)
	assert.Equal(t, "BC", img.Bytes[1].Hex)
}

func TestParseInstructions_NotFound(t *testing.T) {
	tests := map[string]string{
		"missing":           "module fetch; endmodule",
		"wrong array":       "reg [0:7] Data_Mem = 'hFF;",
		"no semicolon":      "reg [0:7] Instruction_Mem = 'hFF",
		"not at line start": "wire x; reg [0:7] Instruction_Mem = 'hFF;",
		"nonzero lsb":       "reg [1:7] Instruction_Mem = 'hFF;",
		"decimal literal":   "reg [0:7] Instruction_Mem = 255;",
		"prefixed name":     "reg [0:7] Instruction_Memory = 'hFF;",
		"huge range":        "reg [0:99999999999] Instruction_Mem = 'h1;",
		"overflowing range": "reg [0:9223372036854775806] Instruction_Mem = 'h1;",
		"unparsable range":  "reg [0:99999999999999999999] Instruction_Mem = 'h1;",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseInstructions(src, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrLiteralNotFound))
		})
	}
}

func TestParseInstructions_RangeLimit(t *testing.T) {
	img, err := ParseInstructions(fmt.Sprintf("reg [0:%d] Instruction_Mem = 'h1;", MaxInstructionBits-1), "")
	require.NoError(t, err)
	assert.Equal(t, MaxInstructionBits, img.BitWidth)
	assert.Equal(t, MaxInstructionBits/8, img.ByteCount)
	assert.Len(t, img.Bytes, MaxInstructionBits/8)

	_, err = ParseInstructions(fmt.Sprintf("reg [0:%d] Instruction_Mem = 'h1;", MaxInstructionBits), "")
	assert.ErrorIs(t, err, ErrRangeTooWide)
	assert.ErrorIs(t, err, ErrLiteralNotFound)
}

func TestParseInstructions_CustomArray(t *testing.T) {
	img, err := ParseInstructions("reg [0:7] Rom = 'h7;", "Rom")
	require.NoError(t, err)
	assert.Equal(t, "07", img.Bytes[0].Hex)
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	d, err := LoadDataFile(write("data.mem", "1\n2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, d.WordCount)

	r, err := LoadRegistersFile(write("reg.mem", "5\n"))
	require.NoError(t, err)
	assert.Equal(t, types.Word(5), r.Registers["rax"])

	i, err := LoadInstructionsFile(write("fetch.v", "reg [0:15] Instruction_Mem = 'h1000;\n"), "")
	require.NoError(t, err)
	assert.Len(t, i.Bytes, 2)

	_, err = LoadDataFile(filepath.Join(dir, "missing.mem"))
	assert.Error(t, err)
	_, err = LoadInstructionsFile(filepath.Join(dir, "missing.v"), "")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrLiteralNotFound))
}
