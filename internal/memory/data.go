package memory

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"y86trace/internal/logging"
)

// Word is one 64-bit data memory word.
type Word struct {
	Index       int    `json:"index"`
	ByteAddress int    `json:"byteAddress"`
	BitAddress  int    `json:"bitAddress"`
	Hex         string `json:"hex"`
	ValueHex    string `json:"valueHex"`
}

// Value returns the word as an integer.
func (w Word) Value() uint64 {
	v, _ := strconv.ParseUint(w.Hex, 16, 64)
	return v
}

// DataImage is the initial contents of data memory, one word per line of
// the source file in file order.
type DataImage struct {
	WordBitWidth int    `json:"wordBitWidth"`
	WordCount    int    `json:"wordCount"`
	Words        []Word `json:"words"`
}

// LoadData reads a data memory image.
func LoadData(r io.Reader) (*DataImage, error) {
	img := &DataImage{WordBitWidth: 64, Words: []Word{}}
	skipped, err := scanWords(r, func(hex string) {
		i := len(img.Words)
		img.Words = append(img.Words, Word{
			Index:       i,
			ByteAddress: i * 8,
			BitAddress:  i * 64,
			Hex:         hex,
			ValueHex:    "0x" + hex,
		})
	})
	if err != nil {
		return nil, err
	}
	img.WordCount = len(img.Words)
	if skipped > 0 {
		logging.MemoryDebug("data memory: skipped %d malformed lines", skipped)
	}
	return img, nil
}

// LoadDataFile opens and reads a data memory image.
func LoadDataFile(path string) (*DataImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data memory: %w", err)
	}
	defer f.Close()
	return LoadData(f)
}
