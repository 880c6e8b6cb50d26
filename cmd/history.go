package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deras16/ChatDb-vertexai/transcript"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, show or delete saved conversations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscripts()
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		if len(list) == 0 {
			pterm.Info.Println("No saved conversations")
			return nil
		}
		data := [][]string{{"ID", "Updated", "Questions", "First question"}}
		for _, s := range list {
			data = append(data, []string{
				s.ID,
				s.Updated.Local().Format(time.DateTime),
				strconv.Itoa(s.Questions),
				clip(s.Title, 60),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscripts()
		if err != nil {
			return err
		}
		conv, err := store.Load(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, pterm.Gray(fmt.Sprintf("session %s, started %s", conv.ID, conv.Created.Local().Format(time.DateTime))))
		for _, t := range conv.Turns {
			fmt.Fprintf(out, "\n%s: %s\n", t.Role.Label(), t.Content)
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openTranscripts()
		if err != nil {
			return err
		}
		if _, err := store.Load(args[0]); err != nil {
			return err
		}
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		pterm.Success.Printfln("Deleted %s", args[0])
		return nil
	},
}

func openTranscripts() (*transcript.Store, error) {
	path, err := transcriptPath()
	if err != nil {
		return nil, err
	}
	return transcript.Open(path)
}

func clip(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func init() {
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)
	rootCmd.AddCommand(historyCmd)
}
