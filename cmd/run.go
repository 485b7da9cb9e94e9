package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runLocation string
	runRadius   float64
	runMax      int
)

var runCmd = &cobra.Command{
	Use:   "run \"query\"",
	Short: "Search for businesses and enrich them with contact emails",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		query := strings.Join(args, " ")

		if runRadius > 0 {
			cfg.Search.RadiusKm = runRadius
		}
		if runMax > 0 {
			cfg.Search.MaxResults = runMax
		}

		env, err := buildEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		job, err := env.Pipeline.Run(ctx, query, runLocation)
		if err != nil {
			return err
		}

		zap.L().Info("run finished", zap.String("job_id", job.ID))
		fmt.Printf("Job %s: %s\n", job.ID, job.Status)
		fmt.Printf("  Businesses found:  %d\n", job.TotalResults)
		fmt.Printf("  Processed:         %d\n", job.ProcessedResults)
		fmt.Printf("  Emails discovered: %d\n", job.EmailsFound)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runLocation, "location", "", "location to search around, e.g. \"Austin, TX\"")
	runCmd.Flags().Float64Var(&runRadius, "radius", 0, "search radius in km (tiles the area into a grid)")
	runCmd.Flags().IntVar(&runMax, "max-results", 0, "max listings per search (default from config)")
	rootCmd.AddCommand(runCmd)
}
