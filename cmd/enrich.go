package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadgen-cli/internal/model"
)

var (
	enrichName    string
	enrichWebsite string
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Run the email discovery waterfall for a single business",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if enrichName == "" && enrichWebsite == "" {
			return eris.New("at least one of --name or --website is required")
		}

		env, err := buildEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		biz := model.Business{
			Name:    enrichName,
			Website: enrichWebsite,
		}

		enriched, err := env.Enricher.Enrich(ctx, biz)
		if err != nil {
			return err
		}

		if err := env.Store.UpsertBusiness(ctx, enriched); err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(enriched)
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichName, "name", "", "business name")
	enrichCmd.Flags().StringVar(&enrichWebsite, "website", "", "business website URL")
	rootCmd.AddCommand(enrichCmd)
}
