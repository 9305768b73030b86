package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"brandwatch/internal/report"
)

var crawlDocxPath string

var crawlCmd = &cobra.Command{
	Use:   "crawl <brand>",
	Short: "Run the pipeline once for a brand and print the report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.close()

		rep := d.runner.Run(cmd.Context(), args[0])

		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		if crawlDocxPath != "" {
			if err := report.ExportDocx(rep, crawlDocxPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", crawlDocxPath)
		}
		return nil
	},
}

func init() {
	crawlCmd.Flags().StringVar(&crawlDocxPath, "docx", "", "also write the report as a .docx file")
}
