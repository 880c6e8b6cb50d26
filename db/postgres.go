package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deras16/ChatDb-vertexai/config"
	"github.com/deras16/ChatDb-vertexai/ssh"
)

// Postgres is a Warehouse backed by a pgx connection pool, optionally
// reached through an SSH tunnel. The dataset is a schema name.
type Postgres struct {
	Pool   *pgxpool.Pool
	Tunnel *ssh.Tunnel
}

var _ Warehouse = (*Postgres)(nil)

// OpenPostgres establishes a PostgreSQL connection, optionally through an
// SSH tunnel.
func OpenPostgres(ctx context.Context, cfg config.WarehouseConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, Wrap(KindInvalidInput, "parse postgres dsn", err)
	}

	d := &Postgres{}

	// If SSH tunnel is requested, set it up first and point pgx at the
	// local end.
	if cfg.SSH.Enabled {
		tunnel, err := ssh.NewTunnel(cfg.SSH, poolCfg.ConnConfig.Host, int(poolCfg.ConnConfig.Port))
		if err != nil {
			return nil, Wrap(KindInvalidInput, "ssh tunnel", err)
		}
		localAddr, err := tunnel.Start(ctx)
		if err != nil {
			return nil, Wrap(KindConnectionFailed, "ssh tunnel start", err)
		}
		d.Tunnel = tunnel
		poolCfg.ConnConfig.Host = localAddr.Host
		poolCfg.ConnConfig.Port = uint16(localAddr.Port)
		poolCfg.ConnConfig.Fallbacks = nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		d.Close()
		return nil, Wrap(KindConnectionFailed, "pgx connect", err)
	}

	// Verify the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		d.Close()
		return nil, classify("pgx ping", err, KindConnectionFailed)
	}

	d.Pool = pool
	return d, nil
}

func (d *Postgres) Dialect() string { return "PostgreSQL" }

// Close shuts down the pool and SSH tunnel.
func (d *Postgres) Close() error {
	if d.Pool != nil {
		d.Pool.Close()
	}
	if d.Tunnel != nil {
		d.Tunnel.Stop()
	}
	return nil
}

func (d *Postgres) Columns(ctx context.Context, dataset string) ([]ColumnInfo, error) {
	query := `
		SELECT table_name, column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1
		ORDER BY table_name, ordinal_position`
	rows, err := d.Pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, classify("list columns", err, KindQueryFailed)
	}
	defer rows.Close()

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

// ListTables lists base tables with estimated row counts from
// pg_class.reltuples.
func (d *Postgres) ListTables(ctx context.Context, dataset string) ([]TableInfo, error) {
	query := `
		SELECT t.table_schema, t.table_name,
		       COALESCE(c.reltuples, -1)::bigint
		FROM information_schema.tables t
		LEFT JOIN pg_class c
		  ON c.relname = t.table_name
		  AND c.relnamespace = (SELECT oid FROM pg_namespace WHERE nspname = t.table_schema)
		WHERE t.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY t.table_name`
	rows, err := d.Pool.Query(ctx, query, dataset)
	if err != nil {
		return nil, classify("list tables", err, KindQueryFailed)
	}
	defer rows.Close()

	var results []TableInfo
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Schema, &t.Name, &t.RowCount); err != nil {
			return nil, classify("scan table", err, KindQueryFailed)
		}
		results = append(results, t)
	}
	return results, classify("list tables", rows.Err(), KindQueryFailed)
}

// Execute runs an arbitrary SQL statement and returns results.
func (d *Postgres) Execute(ctx context.Context, sql string, maxRows int) (*QueryResult, error) {
	sql = strings.TrimSpace(sql)
	if sql == "" {
		return nil, New(KindInvalidInput, "empty query")
	}

	rows, err := d.Pool.Query(ctx, sql)
	if err != nil {
		return nil, classify("execute", err, KindQueryFailed)
	}
	defer rows.Close()

	var columns []string
	for _, fd := range rows.FieldDescriptions() {
		columns = append(columns, fd.Name)
	}
	result := newResult(columns)

	for rows.Next() {
		if maxRows > 0 && len(result.Rows) == maxRows {
			result.Truncated = true
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, classify("read row", err, KindQueryFailed)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("execute", err, KindQueryFailed)
	}

	result.finish()
	return result, nil
}
