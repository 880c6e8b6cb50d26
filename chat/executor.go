package chat

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/deras16/ChatDb-vertexai/db"
)

// ErrorPrefix starts the text of every failed execution.
const ErrorPrefix = "Error executing SQL: "

// Result is the outcome of executing a generated statement: a table or a
// captured error. Both render to text for the answer prompt.
type Result struct {
	SQL   string // the statement as submitted (after sanitizing)
	Table *db.QueryResult
	Err   error
}

// Failed reports whether execution did not produce a table.
func (r Result) Failed() bool {
	return r.Err != nil || r.Table == nil
}

// String renders the table as aligned plain text, or the error prefixed
// with ErrorPrefix.
func (r Result) String() string {
	if r.Err != nil {
		return ErrorPrefix + r.Err.Error()
	}
	if r.Table == nil {
		return ErrorPrefix + "no result"
	}
	t := r.Table
	if len(t.Columns) == 0 {
		return t.Status
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	sb.WriteString(t.Status)
	return sb.String()
}

// Executor runs generated SQL against the warehouse. It never returns a
// Go error: rejections and warehouse failures become a failed Result.
type Executor struct {
	Warehouse db.Warehouse
	MaxRows   int
}

var _ QueryExecutor = (*Executor)(nil)

func (e *Executor) Execute(ctx context.Context, raw string) Result {
	stmt, err := PrepareSQL(raw)
	if err != nil {
		return Result{SQL: stmt, Err: err}
	}
	table, err := e.Warehouse.Execute(ctx, stmt, e.MaxRows)
	if err != nil {
		return Result{SQL: stmt, Err: err}
	}
	return Result{SQL: stmt, Table: table}
}
