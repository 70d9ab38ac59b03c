package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmemscope/memscope/internal/server"
)

// serveCommand creates the serve command for running the report server.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP report server",
		Long: `Run an HTTP server that renders reports from uploaded recordings.

Endpoints:
  POST /reports   multipart upload, one CSV per form field (field name = label);
                  query: title, format (html|json), refresh=1
  GET  /healthz   liveness probe

Example:
  curl -F Go=@go.csv -F Rust=@rust.csv 'localhost:8080/reports?title=Soak' > report.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			srv := server.New(server.Config{Addr: addr}, runner, c.Logger)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}
