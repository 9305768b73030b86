package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the local result cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove expired and corrupted cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.close()

		removed, err := d.store.Purge()
		if err != nil {
			return fmt.Errorf("purging cache: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
}
