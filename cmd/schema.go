package cmd

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/db"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema descriptor the SQL prompt is built from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, w, err := openWarehouse(ctx)
		if err != nil {
			return err
		}
		defer closeWarehouse(w)

		schema, err := db.FetchSchema(ctx, w, cfg.Warehouse.Dataset)
		if err != nil {
			return fmt.Errorf("fetch schema: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), schema.String())
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the dataset's tables with estimated row counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, w, err := openWarehouse(ctx)
		if err != nil {
			return err
		}
		defer closeWarehouse(w)

		tables, err := w.ListTables(ctx, cfg.Warehouse.Dataset)
		if err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		if len(tables) == 0 {
			pterm.Info.Printfln("Dataset %s has no tables", cfg.Warehouse.Dataset)
			return nil
		}

		data := [][]string{{"#", "Schema", "Table", "Rows (est.)"}}
		for i, t := range tables {
			data = append(data, []string{strconv.Itoa(i + 1), t.Schema, t.Name, db.FormatRowCount(t.RowCount)})
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
	},
}

func closeWarehouse(w db.Warehouse) {
	_ = w.Close()
	applog.Close()
}

func init() {
	rootCmd.AddCommand(schemaCmd, tablesCmd)
}
