package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/importer"
)

var (
	importFile   string
	importSource string
	importEnrich bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a CSV or XLSX lead list into the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		source := importSource
		if source == "" {
			source = "import:" + importFile
		}

		businesses, err := importer.ReadFile(importFile, source)
		if err != nil {
			return err
		}

		env, err := buildEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		imported, enriched := 0, 0
		for _, biz := range businesses {
			if importEnrich && !biz.HasEmail() {
				result, enrichErr := env.Enricher.Enrich(ctx, biz)
				if enrichErr != nil {
					zap.L().Warn("enrichment skipped",
						zap.String("business", biz.Name),
						zap.Error(enrichErr))
				} else {
					biz = result
					if biz.HasEmail() {
						enriched++
					}
				}
			}
			if err := env.Store.UpsertBusiness(ctx, biz); err != nil {
				zap.L().Warn("upsert failed",
					zap.String("business", biz.Name),
					zap.Error(err))
				continue
			}
			imported++
		}

		fmt.Printf("Imported %d businesses", imported)
		if importEnrich {
			fmt.Printf(", %d enriched with emails", enriched)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importFile, "file", "", "path to a .csv or .xlsx lead list (required)")
	importCmd.Flags().StringVar(&importSource, "source", "", "source label for imported rows")
	importCmd.Flags().BoolVar(&importEnrich, "enrich", false, "run the discovery waterfall on rows without an email")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}
