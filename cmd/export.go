package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/export"
	"github.com/sells-group/leadgen-cli/internal/store"
	"github.com/sells-group/leadgen-cli/pkg/notion"
)

var (
	exportFormat     string
	exportOutput     string
	exportSource     string
	exportWithEmail  bool
	exportSalesforce bool
	exportNotion     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored leads to a file or CRM",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		businesses, err := st.ListBusinesses(ctx, store.BusinessFilter{
			SourceSearch: exportSource,
			WithEmail:    exportWithEmail,
		})
		if err != nil {
			return err
		}
		if len(businesses) == 0 {
			return eris.New("no businesses match the export filter")
		}

		if exportSalesforce {
			sfClient, err := initSalesforce()
			if err != nil {
				return err
			}
			result, err := export.NewSalesforceExporter(sfClient).Export(ctx, businesses)
			if err != nil {
				return err
			}
			fmt.Printf("Salesforce: %d inserted, %d failed\n", result.Inserted, result.Failed)
			return nil
		}

		if exportNotion {
			if cfg.Notion.Token == "" || cfg.Notion.LeadDB == "" {
				return eris.New("notion token and lead database ID are required (LEADGEN_NOTION_TOKEN, LEADGEN_NOTION_LEAD_DB)")
			}
			client := notion.NewClient(cfg.Notion.Token)
			created, failed, err := export.NewNotionExporter(client, cfg.Notion.LeadDB).Export(ctx, businesses)
			if err != nil {
				return err
			}
			fmt.Printf("Notion: %d pages created, %d failed\n", created, failed)
			return nil
		}

		formatStr := exportFormat
		if formatStr == "" {
			formatStr = cfg.Export.Format
		}
		format, err := export.ParseFormat(formatStr)
		if err != nil {
			return err
		}

		out := os.Stdout
		if exportOutput != "" {
			f, err := os.Create(exportOutput)
			if err != nil {
				return eris.Wrap(err, "create output file")
			}
			defer f.Close()
			out = f
		}

		if err := export.WriteFile(out, format, businesses); err != nil {
			return err
		}
		zap.L().Info("export complete",
			zap.String("format", string(format)),
			zap.Int("businesses", len(businesses)))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "", "file format: csv, json, or xlsx (default from config)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "output file path (default stdout)")
	exportCmd.Flags().StringVar(&exportSource, "source", "", "only export businesses from this source search")
	exportCmd.Flags().BoolVar(&exportWithEmail, "with-email", false, "only export businesses with a discovered email")
	exportCmd.Flags().BoolVar(&exportSalesforce, "salesforce", false, "push leads to Salesforce instead of writing a file")
	exportCmd.Flags().BoolVar(&exportNotion, "notion", false, "push leads to a Notion database instead of writing a file")
	rootCmd.AddCommand(exportCmd)
}
