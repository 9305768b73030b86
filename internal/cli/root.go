// Package cli implements the brandwatch command-line interface.
package cli

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brandwatch",
	Short: "Brand news crawler and relevance classifier",
	Long: `brandwatch searches news for a brand, scrapes the candidate
articles, classifies their relevance, and caches the assembled report.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment overrides reach viper.
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(cacheCmd)
}
