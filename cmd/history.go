package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/goldcheck/internal/infrastructure/sqlite"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent validation runs",
	Long:  `Display recent validation runs recorded in the local run-history database, most recent first.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening run history: %w", err)
	}
	defer db.Close()

	runs, err := db.Runs().Recent(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	fmt.Printf("%-36s  %-19s  %-7s  %10s  %8s  %s\n",
		"ID", "STARTED", "VERDICT", "VIOLATIONS", "DATASETS", "TEST PRODUCT")
	for _, run := range runs {
		verdict := "PASS"
		if !run.Verdict {
			verdict = "FAIL"
		}
		fmt.Printf("%-36s  %-19s  %-7s  %10d  %8d  %s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			verdict,
			run.HardViolations,
			run.DatasetsCompared,
			run.TestPath)
	}
	return nil
}
