// Package db provides access to the analytical warehouse that questions
// are answered against.
//
// Design decisions:
//   - Warehouse is an interface so the chat pipeline is unaware of the
//     backend (PostgreSQL, DuckDB, MySQL, BigQuery).
//   - The dataset identifier is passed on every catalog call; the caller
//     owns it so prompts, schema lookup and execution share one value.
//   - Results are fully materialized as strings, ready to be rendered into
//     a prompt or a terminal table.
//   - Errors are returned as *Error with a Kind, never logged or printed.
package db

import (
	"context"
	"fmt"

	"github.com/deras16/ChatDb-vertexai/config"
)

// ColumnInfo is one row of the warehouse catalog.
type ColumnInfo struct {
	Table    string
	Column   string
	DataType string
}

// TableInfo represents a table in the dataset.
type TableInfo struct {
	Schema   string
	Name     string
	RowCount int64 // estimated row count, -1 when unknown
}

// QueryResult holds the output of an arbitrary SQL query.
type QueryResult struct {
	Columns   []string
	Rows      [][]string
	RowCount  int
	Status    string // e.g. "(5 rows)"
	Truncated bool   // more rows existed than the requested cap
}

// Warehouse is the interface all warehouse backends implement.
type Warehouse interface {
	// Columns lists (table, column, type) for every column in the
	// dataset, ordered by table name then ordinal position.
	Columns(ctx context.Context, dataset string) ([]ColumnInfo, error)

	// ListTables lists the dataset's tables with estimated row counts.
	ListTables(ctx context.Context, dataset string) ([]TableInfo, error)

	// Execute runs a statement and materializes its result. maxRows > 0
	// stops reading after that many rows and marks the result truncated.
	Execute(ctx context.Context, sql string, maxRows int) (*QueryResult, error)

	// Dialect names the SQL dialect, e.g. "PostgreSQL" or "BigQuery".
	Dialect() string

	Close() error
}

// Open connects to the warehouse selected by cfg.Driver.
func Open(ctx context.Context, cfg config.WarehouseConfig) (Warehouse, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg)
	case config.DriverDuckDB:
		return OpenDuckDB(ctx, cfg.DSN)
	case config.DriverMySQL:
		return OpenMySQL(ctx, cfg.DSN)
	case config.DriverBigQuery:
		return OpenBigQuery(ctx, cfg)
	default:
		return nil, New(KindInvalidInput, fmt.Sprintf("unknown warehouse driver %q", cfg.Driver))
	}
}

func newResult(columns []string) *QueryResult {
	return &QueryResult{Columns: columns, Rows: [][]string{}}
}

func (r *QueryResult) finish() {
	r.RowCount = len(r.Rows)
	r.Status = fmt.Sprintf("(%d row%s)", r.RowCount, plural(r.RowCount))
	if r.Truncated {
		r.Status = fmt.Sprintf("(first %d row%s)", r.RowCount, plural(r.RowCount))
	}
}
