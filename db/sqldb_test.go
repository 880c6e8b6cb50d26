package db

import (
	"context"
	"database/sql"
	"errors"
	"math/big"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	require.NoError(t, mock.ExpectationsWereMet())
}

func catalogRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}).
		AddRow("granosbasicos", "anio", "BIGINT").
		AddRow("granosbasicos", "cultivo", "VARCHAR").
		AddRow("hortalizas", "departamento", "VARCHAR")
}

func TestColumns(t *testing.T) {
	db, mock := newSQLMock(t)
	w := NewSQLWarehouse(db, "DuckDB")

	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("agro").
		WillReturnRows(catalogRows())

	cols, err := w.Columns(context.Background(), "agro")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, ColumnInfo{Table: "hortalizas", Column: "departamento", DataType: "VARCHAR"}, cols[2])
	assertSQLMock(t, mock)
}

func TestFetchSchemaIsDeterministic(t *testing.T) {
	db, mock := newSQLMock(t)
	w := NewSQLWarehouse(db, "DuckDB")

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).WithArgs("agro").WillReturnRows(catalogRows())
	}

	first, err := FetchSchema(context.Background(), w, "agro")
	require.NoError(t, err)
	second, err := FetchSchema(context.Background(), w, "agro")
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, "Table: granosbasicos, Column: anio, Type: BIGINT\n"+
		"Table: granosbasicos, Column: cultivo, Type: VARCHAR\n"+
		"Table: hortalizas, Column: departamento, Type: VARCHAR", first.String())
	assert.Equal(t, []string{"granosbasicos", "hortalizas"}, first.Tables())
	assert.Len(t, first.Table("granosbasicos"), 2)
	assertSQLMock(t, mock)
}

func TestFetchSchemaEmptyDataset(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"table_name", "column_name", "data_type"}))

	_, err := FetchSchema(context.Background(), NewSQLWarehouse(db, "DuckDB"), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestColumnsFailurePropagates(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(columnsQuery)).
		WillReturnError(&mysql.MySQLError{Number: 1045, Message: "Access denied"})

	_, err := NewSQLWarehouse(db, "MySQL").Columns(context.Background(), "agro")
	require.Error(t, err)
	assert.True(t, IsPermissionDenied(err))
}

func TestListTablesMySQL(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(mySQLTablesQuery)).
		WithArgs("agro").
		WillReturnRows(sqlmock.NewRows([]string{"table_schema", "table_name", "table_rows"}).
			AddRow("agro", "granosbasicos", int64(15200)).
			AddRow("agro", "hortalizas", int64(-1)))

	tables, err := NewSQLWarehouse(db, "MySQL").ListTables(context.Background(), "agro")
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, int64(15200), tables[0].RowCount)
	assert.Equal(t, "?", FormatRowCount(tables[1].RowCount))
	assertSQLMock(t, mock)
}

func TestExecute(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT cultivo, SUM(produccion) FROM agro.granosbasicos")).
		WillReturnRows(sqlmock.NewRows([]string{"cultivo", "total"}).
			AddRow("MAIZ", 1234.5).
			AddRow([]byte("FRIJOL"), nil))

	res, err := NewSQLWarehouse(db, "DuckDB").Execute(context.Background(),
		"  SELECT cultivo, SUM(produccion) FROM agro.granosbasicos GROUP BY 1 ", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"cultivo", "total"}, res.Columns)
	assert.Equal(t, [][]string{{"MAIZ", "1234.5"}, {"FRIJOL", "NULL"}}, res.Rows)
	assert.Equal(t, 2, res.RowCount)
	assert.Equal(t, "(2 rows)", res.Status)
	assert.False(t, res.Truncated)
	assertSQLMock(t, mock)
}

func TestExecuteMaxRows(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery("SELECT n").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1).AddRow(2).AddRow(3))

	res, err := NewSQLWarehouse(db, "DuckDB").Execute(context.Background(), "SELECT n FROM t", 2)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.True(t, res.Truncated)
	assert.Equal(t, "(first 2 rows)", res.Status)
}

func TestExecuteEmptyResultHasNoNilRows(t *testing.T) {
	db, mock := newSQLMock(t)
	mock.ExpectQuery("SELECT n").WillReturnRows(sqlmock.NewRows([]string{"n"}))

	res, err := NewSQLWarehouse(db, "DuckDB").Execute(context.Background(), "SELECT n FROM t", 0)
	require.NoError(t, err)
	assert.NotNil(t, res.Rows)
	assert.Equal(t, "(0 rows)", res.Status)
}

func TestExecuteErrors(t *testing.T) {
	db, mock := newSQLMock(t)
	w := NewSQLWarehouse(db, "DuckDB")

	_, err := w.Execute(context.Background(), "   ", 0)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("Catalog Error: Table with name nope does not exist"))
	_, err = w.Execute(context.Background(), "SELECT * FROM nope", 0)
	require.Error(t, err)
	assert.True(t, IsQueryFailed(err))
	assert.Contains(t, err.Error(), "Table with name nope")
}

func TestKindFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"no rows", sql.ErrNoRows, KindNotFound},
		{"pg undefined table", &pgconn.PgError{Code: "42P01"}, KindNotFound},
		{"pg syntax", &pgconn.PgError{Code: "42601"}, KindQueryFailed},
		{"pg auth", &pgconn.PgError{Code: "28P01"}, KindPermissionDenied},
		{"mysql unknown table", &mysql.MySQLError{Number: 1146}, KindNotFound},
		{"other", errors.New("boom"), KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, kindFor(tt.err, KindUnknown))
		})
	}
}

func TestClassifyKeepsExistingKind(t *testing.T) {
	orig := New(KindNotFound, "gone")
	assert.Same(t, orig, classify("wrap", orig, KindQueryFailed))
	assert.NoError(t, classify("wrap", nil, KindQueryFailed))
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "NULL", formatValue(nil))
	assert.Equal(t, "12.25", formatValue(12.25))
	assert.Equal(t, "7", formatValue(int64(7)))
	assert.Equal(t, "2022-05-01", formatValue(time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1.5", formatValue(big.NewRat(3, 2)))
	assert.Equal(t, "2", formatValue(big.NewRat(4, 2)))
}

func TestFormatRowCount(t *testing.T) {
	assert.Equal(t, "42", FormatRowCount(42))
	assert.Equal(t, "1k", FormatRowCount(1000))
	assert.Equal(t, "999k", FormatRowCount(999499))
	assert.Equal(t, "1M", FormatRowCount(999500))
}

func TestSplitDataset(t *testing.T) {
	p, d := splitDataset("oiad-dev.agro", "other")
	assert.Equal(t, "oiad-dev", p)
	assert.Equal(t, "agro", d)

	p, d = splitDataset("agro", "oiad-dev")
	assert.Equal(t, "oiad-dev", p)
	assert.Equal(t, "agro", d)

	assert.Equal(t, "SELECT table_name, column_name, data_type FROM `oiad-dev.agro.INFORMATION_SCHEMA.COLUMNS` ORDER BY table_name, ordinal_position",
		columnsSQL("oiad-dev", "agro"))
}
