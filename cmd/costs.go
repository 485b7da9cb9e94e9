package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/cost"
)

var costsSince time.Duration

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Show API spend per provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		since := time.Now().UTC().Add(-costsSince)
		summary, err := st.CostSummary(ctx, since)
		if err != nil {
			return err
		}

		if len(summary) == 0 {
			fmt.Println("No API calls recorded in the period.")
			return nil
		}

		fmt.Printf("%-16s %8s %8s %12s\n", "PROVIDER", "CALLS", "FAILED", "COST")
		for _, pc := range summary {
			fmt.Printf("%-16s %8d %8d %11.4f$\n", pc.Provider, pc.Calls, pc.Failures, pc.TotalCost)
		}
		fmt.Printf("%-16s %8s %8s %11.4f$\n", "TOTAL", "", "", cost.Total(summary))
		return nil
	},
}

func init() {
	costsCmd.Flags().DurationVar(&costsSince, "since", 30*24*time.Hour, "report window, e.g. 24h or 720h")
	rootCmd.AddCommand(costsCmd)
}
