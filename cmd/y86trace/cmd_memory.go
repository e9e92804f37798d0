package main

import (
	"github.com/spf13/cobra"

	"y86trace/internal/memory"
)

var instructionArray string

// memoryCmd groups the initial-state image loaders
var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Load the memory images a simulation starts from",
}

var memoryDataCmd = &cobra.Command{
	Use:   "data [DATA_MEM.txt]",
	Short: "Load the data memory image (one 64-bit hex word per line)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := memory.LoadDataFile(pathArg(args, cfg.Memory.DataFile))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), img)
	},
}

var memoryImemCmd = &cobra.Command{
	Use:   "imem [fetch.v]",
	Short: "Extract the instruction memory literal from the fetch stage source",
	Long: `Finds the single statement that initializes the instruction array, e.g.

  reg [0:8191] Instruction_Mem = 'h30F40001000000000000...;

and splits its hex literal into bytes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		array := instructionArray
		if array == "" {
			array = cfg.Memory.InstructionArray
		}
		img, err := memory.LoadInstructionsFile(pathArg(args, cfg.Memory.InstructionFile), array)
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), img)
	},
}

var memoryRegsCmd = &cobra.Command{
	Use:   "regs [REG_MEM.txt]",
	Short: "Load the initial register image (one 64-bit hex word per register)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := memory.LoadRegistersFile(pathArg(args, cfg.Memory.RegisterFile))
		if err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), img)
	},
}

func init() {
	memoryImemCmd.Flags().StringVar(&instructionArray, "array", "", "Name of the instruction array (default from config)")

	memoryCmd.AddCommand(memoryDataCmd)
	memoryCmd.AddCommand(memoryImemCmd)
	memoryCmd.AddCommand(memoryRegsCmd)
}
