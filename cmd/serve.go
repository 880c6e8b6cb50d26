package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deras16/ChatDb-vertexai/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversation over HTTP",
	Long: `Serve one conversation over HTTP:

  POST /v1/ask      ask a question; the answer streams back as text/plain
                    and the generated SQL is in the X-Chatdb-Sql header
  GET  /v1/schema   the dataset schema
  GET  /v1/history  the conversation so far
  GET  /healthz     liveness
  GET  /metrics     Prometheus metrics`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx, bootOptions{resume: serveResume})
		if err != nil {
			return err
		}
		defer rt.Close()

		addr := serveAddr
		if addr == "" {
			addr = rt.cfg.Server.Addr
		}
		pterm.Info.Printfln("Serving dataset %s on %s (session %s)", rt.session.Dataset, addr, rt.session.ID)
		return server.New(rt.session).Run(ctx, addr)
	},
}

var serveResume string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&serveResume, "resume", "", "continue a saved conversation by id")
	rootCmd.AddCommand(serveCmd)
}
