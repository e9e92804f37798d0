package types

import (
	"encoding/json"

	"y86trace/internal/vcd"
)

// Operands holds the decoded operand values of the single in-flight
// instruction of the sequential model.
type Operands struct {
	PC     vcd.Value
	NextPC vcd.Value
	RA     vcd.Value
	RB     vcd.Value
	ValA   vcd.Value
	ValB   vcd.Value
	ValC   vcd.Value
	ValE   vcd.Value
	ValM   vcd.Value
	ValP   vcd.Value

	Cnd        *bool
	InstrValid *bool
	ImemError  *bool
}

// MarshalJSON renders every operand in display form.
func (o Operands) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PCHex      string `json:"pc_hex"`
		NextPCHex  string `json:"next_pc_hex"`
		ValAHex    string `json:"valA_hex"`
		ValBHex    string `json:"valB_hex"`
		ValCHex    string `json:"valC_hex"`
		ValEHex    string `json:"valE_hex"`
		ValMHex    string `json:"valM_hex"`
		ValPHex    string `json:"valP_hex"`
		RAHex      string `json:"rA_hex"`
		RBHex      string `json:"rB_hex"`
		Cnd        *bool  `json:"cnd"`
		InstrValid *bool  `json:"instr_valid"`
		ImemError  *bool  `json:"imem_error"`
	}{
		o.PC.Hex(), o.NextPC.Hex(),
		o.ValA.Hex(), o.ValB.Hex(), o.ValC.Hex(), o.ValE.Hex(), o.ValM.Hex(), o.ValP.Hex(),
		o.RA.ShortHex(), o.RB.ShortHex(),
		o.Cnd, o.InstrValid, o.ImemError,
	})
}

// DataMemoryAccess describes the data-memory traffic implied by one
// sequential instruction.
type DataMemoryAccess struct {
	Read           bool      `json:"read"`
	Write          bool      `json:"write"`
	Address        vcd.Value `json:"address"`
	AddressHex     string    `json:"address_hex"`
	WordIndex      *uint64   `json:"wordIndex"`
	ByteAddressHex string    `json:"byteAddress_hex"`
	InRange        bool      `json:"inRange"`
	WriteData      vcd.Value `json:"writeData"`
	WriteDataHex   string    `json:"writeData_hex"`
	ReadData       vcd.Value `json:"readData"`
	ReadDataHex    string    `json:"readData_hex"`
}
