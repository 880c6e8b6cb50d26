package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/db"
)

// maxPrintedRows bounds the result table printed by --show-sql.
const maxPrintedRows = 20

var askShowSQL bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and exit",
	Long: `Answer a single question. The answer is streamed to stdout as it is
written; with --show-sql the generated query and its result are printed first.`,
	Example: `  chatdb ask "What was the corn production in 2022?"
  chatdb ask --show-sql --dataset oiad-dev.agro "Which 5 departments grow the most tomato?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx, bootOptions{metrics: true})
		if err != nil {
			return err
		}
		defer rt.Close()

		out := cmd.OutOrStdout()
		spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Reading schema and writing the query...")
		stopSpinner := func() {
			if spinner != nil && spinner.IsActive {
				_ = spinner.Stop()
			}
		}
		defer stopSpinner()

		var sql string
		_, err = rt.session.Ask(ctx, strings.Join(args, " "), chat.Callbacks{
			OnSQL: func(s string) {
				sql = s
				if spinner != nil {
					spinner.UpdateText("Running the query...")
				}
			},
			OnResult: func(res chat.Result) {
				if askShowSQL {
					stopSpinner()
					printQuery(out, sql, res)
					spinner, _ = pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Writing the answer...")
				} else if spinner != nil {
					spinner.UpdateText("Writing the answer...")
				}
			},
			OnChunk: func(chunk string) {
				stopSpinner()
				fmt.Fprint(out, chunk)
			},
		})
		stopSpinner()
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		return nil
	},
}

func printQuery(out io.Writer, sql string, res chat.Result) {
	pterm.DefaultSection.WithWriter(out).Println("SQL")
	fmt.Fprintln(out, sql)
	fmt.Fprintln(out)

	if res.Failed() {
		pterm.Warning.WithWriter(out).Println(res.String())
		fmt.Fprintln(out)
		return
	}
	printTable(out, res.Table)
	fmt.Fprintln(out)
}

func printTable(out io.Writer, t *db.QueryResult) {
	if len(t.Columns) == 0 {
		fmt.Fprintln(out, t.Status)
		return
	}
	data := [][]string{t.Columns}
	rows := t.Rows
	if len(rows) > maxPrintedRows {
		rows = rows[:maxPrintedRows]
	}
	data = append(data, rows...)
	_ = pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()

	status := t.Status
	if len(t.Rows) > maxPrintedRows {
		status += fmt.Sprintf(", showing %d", maxPrintedRows)
	}
	fmt.Fprintln(out, pterm.Gray(status))
}

func init() {
	askCmd.Flags().BoolVar(&askShowSQL, "show-sql", false, "print the generated SQL and its result before the answer")
	rootCmd.AddCommand(askCmd)
}
