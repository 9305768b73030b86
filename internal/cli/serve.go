package cli

import (
	"github.com/spf13/cobra"

	"brandwatch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.close()

		srv := server.New(d.runner, d.logger, d.cfg.Server.Addr)
		return srv.Run(cmd.Context())
	},
}
