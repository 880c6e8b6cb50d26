package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deras16/ChatDb-vertexai/db"
)

func TestExecutorSubmitsSanitizedSQL(t *testing.T) {
	w := &fakeWarehouse{result: &db.QueryResult{
		Columns:  []string{"placeholder"},
		Rows:     [][]string{{"1"}},
		RowCount: 1,
		Status:   "(1 row)",
	}}
	e := &Executor{Warehouse: w}

	res := e.Execute(context.Background(), "sql SELECT 1")
	require.False(t, res.Failed())
	assert.Equal(t, []string{"SELECT 1"}, w.executed)
	assert.Equal(t, "SELECT 1", res.SQL)

	out := res.String()
	assert.True(t, strings.HasPrefix(out, "placeholder"), out)
	assert.Contains(t, out, "(1 row)")
}

func TestExecutorCapturesWarehouseError(t *testing.T) {
	w := &fakeWarehouse{execErr: errors.New(`Unrecognized name: PRODUCTON`)}
	e := &Executor{Warehouse: w}

	res := e.Execute(context.Background(), "SELECT PRODUCTON FROM agro.granosbasicos")
	assert.True(t, res.Failed())
	assert.Equal(t, "Error executing SQL: Unrecognized name: PRODUCTON", res.String())
	assert.Len(t, w.executed, 1)
}

func TestExecutorRejectsProseWithoutTouchingWarehouse(t *testing.T) {
	w := &fakeWarehouse{}
	e := &Executor{Warehouse: w}

	res := e.Execute(context.Background(), "I cannot answer that.")
	assert.True(t, res.Failed())
	assert.ErrorIs(t, res.Err, ErrNotSQL)
	assert.True(t, strings.HasPrefix(res.String(), ErrorPrefix))
	assert.Empty(t, w.executed)
}

func TestResultStringAlignsColumns(t *testing.T) {
	res := Result{Table: &db.QueryResult{
		Columns:  []string{"GRANO", "PRODUCTION"},
		Rows:     [][]string{{"MAIZ", "1200.5"}, {"FRIJOL", "300"}},
		RowCount: 2,
		Status:   "(2 rows)",
	}}
	want := "GRANO   PRODUCTION\n" +
		"MAIZ    1200.5\n" +
		"FRIJOL  300\n" +
		"(2 rows)"
	assert.Equal(t, want, res.String())
}

func TestResultStringWithoutColumns(t *testing.T) {
	res := Result{Table: &db.QueryResult{Status: "(0 rows)"}}
	assert.Equal(t, "(0 rows)", res.String())
	assert.False(t, res.Failed())
	assert.Equal(t, ErrorPrefix+"no result", Result{}.String())
}
