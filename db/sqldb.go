package db

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/marcboeker/go-duckdb/v2"
)

// SQLWarehouse is a Warehouse over database/sql, used for DuckDB and
// MySQL. Both drivers take "?" placeholders and expose
// information_schema.columns.
type SQLWarehouse struct {
	db          *sql.DB
	dialect     string
	tablesQuery string
}

var _ Warehouse = (*SQLWarehouse)(nil)

const (
	columnsQuery = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = ?
ORDER BY table_name, ordinal_position`

	duckDBTablesQuery = `SELECT schema_name, table_name, COALESCE(estimated_size, -1)
FROM duckdb_tables()
WHERE schema_name = ?
ORDER BY table_name`

	mySQLTablesQuery = `SELECT table_schema, table_name, COALESCE(table_rows, -1)
FROM information_schema.tables
WHERE table_schema = ? AND table_type = 'BASE TABLE'
ORDER BY table_name`
)

// OpenDuckDB opens a DuckDB database file; an empty dsn is in-memory.
// The dataset is a schema name ("main" by default).
func OpenDuckDB(ctx context.Context, dsn string) (*SQLWarehouse, error) {
	return openSQL(ctx, "duckdb", dsn, "DuckDB", duckDBTablesQuery)
}

// OpenMySQL connects with a go-sql-driver DSN such as
// "user:pass@tcp(host:3306)/agro". The dataset is a database name.
func OpenMySQL(ctx context.Context, dsn string) (*SQLWarehouse, error) {
	return openSQL(ctx, "mysql", dsn, "MySQL", mySQLTablesQuery)
}

func openSQL(ctx context.Context, driver, dsn, dialect, tablesQuery string) (*SQLWarehouse, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, Wrap(KindInvalidInput, "open "+driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, classify("ping "+driver, err, KindConnectionFailed)
	}
	return &SQLWarehouse{db: db, dialect: dialect, tablesQuery: tablesQuery}, nil
}

// NewSQLWarehouse wraps an existing handle. dialect is "DuckDB" or "MySQL".
func NewSQLWarehouse(db *sql.DB, dialect string) *SQLWarehouse {
	q := duckDBTablesQuery
	if dialect == "MySQL" {
		q = mySQLTablesQuery
	}
	return &SQLWarehouse{db: db, dialect: dialect, tablesQuery: q}
}

func (w *SQLWarehouse) Dialect() string { return w.dialect }

func (w *SQLWarehouse) Close() error { return w.db.Close() }

func (w *SQLWarehouse) Columns(ctx context.Context, dataset string) ([]ColumnInfo, error) {
	rows, err := w.db.QueryContext(ctx, columnsQuery, dataset)
	if err != nil {
		return nil, classify("list columns", err, KindQueryFailed)
	}
	defer func() { _ = rows.Close() }()

	var cols []ColumnInfo
	for rows.Next() {
		var c ColumnInfo
		if err := rows.Scan(&c.Table, &c.Column, &c.DataType); err != nil {
			return nil, classify("scan column", err, KindQueryFailed)
		}
		cols = append(cols, c)
	}
	return cols, classify("list columns", rows.Err(), KindQueryFailed)
}

func (w *SQLWarehouse) ListTables(ctx context.Context, dataset string) ([]TableInfo, error) {
	rows, err := w.db.QueryContext(ctx, w.tablesQuery, dataset)
	if err != nil {
		return nil, classify("list tables", err, KindQueryFailed)
	}
	defer func() { _ = rows.Close() }()

	var tables []TableInfo
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Schema, &t.Name, &t.RowCount); err != nil {
			return nil, classify("scan table", err, KindQueryFailed)
		}
		tables = append(tables, t)
	}
	return tables, classify("list tables", rows.Err(), KindQueryFailed)
}

func (w *SQLWarehouse) Execute(ctx context.Context, sqlText string, maxRows int) (*QueryResult, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return nil, New(KindInvalidInput, "empty query")
	}

	rows, err := w.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, classify("execute", err, KindQueryFailed)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, classify("query columns", err, KindQueryFailed)
	}
	result := newResult(columns)

	for rows.Next() {
		if maxRows > 0 && len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, classify("scan row", err, KindQueryFailed)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterate rows", err, KindQueryFailed)
	}

	result.finish()
	return result, nil
}
