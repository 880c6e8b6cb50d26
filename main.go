// chatdb answers natural-language questions about a data warehouse.
//
// Entry point: runs the Cobra root command, which launches the chat TUI
// when no subcommand is given.
package main

import (
	"os"

	"github.com/deras16/ChatDb-vertexai/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
