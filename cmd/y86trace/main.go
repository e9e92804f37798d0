package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"y86trace/internal/config"
	"y86trace/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	verbose  bool
	modeFlag string

	// Loaded by the root command before any subcommand runs
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "y86trace",
	Short: "Reconstruct Y86-64 processor state from simulation waveforms",
	Long: `y86trace turns the VCD waveform dumps of a Y86-64 hardware simulation
into per-cycle snapshots of processor state.

Both the five-stage pipelined model and the sequential model are supported.
Results are written to stdout as JSON; "show" renders them as tables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if modeFlag != "" {
			c.Trace.Mode = modeFlag
		}
		if verbose {
			c.Logging.Level = "debug"
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := logging.Initialize(c.Logging.Options()); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		cfg = c
		logging.BootDebug("loaded config %s (mode %s)", cfgFile, c.Trace.Mode)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "y86trace.yaml", "Configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "", "Processor model: pipeline or sequential (default from config)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(clockCmd)
	rootCmd.AddCommand(memoryCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(runsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// writeJSON writes v to w as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// pathArg returns the first positional argument, or def when none was given.
func pathArg(args []string, def string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return def
}
