package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"y86trace/internal/store"
)

var (
	runsLimit  int
	runsCycles bool
	runsFrom   int
	runsTo     int
)

// runsCmd inspects the run database
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List and replay saved reports",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a saved run",
	Long: `Prints the stored run summary and auxiliary sections. With --cycles the
stored cycle records are included; --from and --to select a 0-based index
range [from, to).`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsShow,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a saved run and its cycles",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs (0 = all)")
	runsShowCmd.Flags().BoolVar(&runsCycles, "cycles", false, "Include stored cycle records")
	runsShowCmd.Flags().IntVar(&runsFrom, "from", 0, "First cycle index")
	runsShowCmd.Flags().IntVar(&runsTo, "to", 0, "End cycle index, exclusive (0 = last)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
}

func openStore() (*store.Store, error) {
	return store.Open(cfg.Store.DatabasePath)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), runsLimit)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), runs)
}

type runOutput struct {
	*store.Run
	Cycles []json.RawMessage `json:"cycles,omitempty"`
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	run, err := s.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := runOutput{Run: run}
	if runsCycles {
		if out.Cycles, err = s.Cycles(cmd.Context(), args[0], runsFrom, runsTo); err != nil {
			return err
		}
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.DeleteRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
}
