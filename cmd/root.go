// Package cmd contains all Cobra commands for chatdb.
//
// The root command launches the chat TUI directly. One-shot and server
// modes (ask, serve) and maintenance commands (schema, tables, history,
// auth) share the same bootstrap: config, keychain secrets, logging,
// warehouse, AI provider, session.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/tui"
)

var (
	configPath  string
	datasetFlag string
	metricsAddr string

	showSQL  bool
	resumeID string
)

var rootCmd = &cobra.Command{
	Use:   "chatdb",
	Short: "Ask questions about a data warehouse in plain language",
	Long: `chatdb answers natural-language questions about a warehouse dataset.
For every question it reads the dataset schema, asks a language model for
one SQL query, runs it and streams back an answer written from the result.

Warehouses: PostgreSQL, DuckDB, MySQL, BigQuery.
AI providers: OpenAI, Anthropic, Gemini, Vertex AI, Ollama.

Run 'chatdb' to start the chat UI, or 'chatdb ask "..."' for one answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx, bootOptions{resume: resumeID, metrics: true})
		if err != nil {
			return err
		}
		defer rt.Close()

		return tui.Run(rt.session, tui.Options{
			Version:  Version,
			Driver:   rt.cfg.Warehouse.Driver,
			Provider: rt.provider.Name(),
			Examples: rt.cfg.Chat.Examples,
			ShowSQL:  showSQL,
		})
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ~/.chatdb/config.json; .yaml/.yml also accepted)")
	pf.StringVar(&datasetFlag, "dataset", "", "dataset to answer questions against (overrides config)")
	pf.StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.Flags().BoolVar(&showSQL, "show-sql", false, "show the generated SQL under each question")
	rootCmd.Flags().StringVar(&resumeID, "resume", "", "continue a saved conversation by id (see 'chatdb history list')")
}

// Execute runs the root command and prints any error. Interrupts cancel
// the command context so a streaming answer stops cleanly.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(applog.Mask(err.Error()))
	}
	return err
}
