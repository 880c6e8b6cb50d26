package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/deras16/ChatDb-vertexai/config"
)

// BigQuery is a Warehouse backed by Google BigQuery. The dataset is
// "project.dataset" or a bare dataset in the client's project.
type BigQuery struct {
	client    *bigquery.Client
	projectID string
}

var _ Warehouse = (*BigQuery)(nil)

// OpenBigQuery creates a client authenticated with the service-account
// credentials file named by cfg.CredentialsPath.
func OpenBigQuery(ctx context.Context, cfg config.WarehouseConfig) (*BigQuery, error) {
	if cfg.CredentialsPath == "" {
		return nil, New(KindInvalidInput, "credentials path not set. Set GOOGLE_CLOUD_CREDENTIALS or warehouse.credentials_path")
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsPath))
	if err != nil {
		return nil, classify("bigquery client", err, KindConnectionFailed)
	}
	if cfg.Location != "" {
		client.Location = cfg.Location
	}
	return &BigQuery{client: client, projectID: cfg.ProjectID}, nil
}

func (b *BigQuery) Dialect() string { return "BigQuery GoogleSQL" }

func (b *BigQuery) Close() error { return b.client.Close() }

// splitDataset resolves "project.dataset" or "dataset".
func splitDataset(dataset, defaultProject string) (project, ds string) {
	if i := strings.LastIndex(dataset, "."); i >= 0 {
		return dataset[:i], dataset[i+1:]
	}
	return defaultProject, dataset
}

func columnsSQL(project, ds string) string {
	return fmt.Sprintf("SELECT table_name, column_name, data_type "+
		"FROM `%s.%s.INFORMATION_SCHEMA.COLUMNS` "+
		"ORDER BY table_name, ordinal_position", project, ds)
}

func (b *BigQuery) Columns(ctx context.Context, dataset string) ([]ColumnInfo, error) {
	project, ds := splitDataset(dataset, b.projectID)
	it, err := b.client.Query(columnsSQL(project, ds)).Read(ctx)
	if err != nil {
		return nil, classify("list columns", err, KindQueryFailed)
	}

	var cols []ColumnInfo
	for {
		var row struct {
			TableName  string `bigquery:"table_name"`
			ColumnName string `bigquery:"column_name"`
			DataType   string `bigquery:"data_type"`
		}
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify("read column", err, KindQueryFailed)
		}
		cols = append(cols, ColumnInfo{Table: row.TableName, Column: row.ColumnName, DataType: row.DataType})
	}
	return cols, nil
}

func (b *BigQuery) ListTables(ctx context.Context, dataset string) ([]TableInfo, error) {
	project, ds := splitDataset(dataset, b.projectID)
	it := b.client.DatasetInProject(project, ds).Tables(ctx)

	var tables []TableInfo
	for {
		t, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify("list tables", err, KindQueryFailed)
		}
		info := TableInfo{Schema: project + "." + ds, Name: t.TableID, RowCount: -1}
		md, err := t.Metadata(ctx)
		if err != nil {
			return nil, classify("table metadata", err, KindQueryFailed)
		}
		if md.Type == bigquery.RegularTable {
			info.RowCount = int64(md.NumRows)
		}
		tables = append(tables, info)
	}
	return tables, nil
}

func (b *BigQuery) Execute(ctx context.Context, sqlText string, maxRows int) (*QueryResult, error) {
	sqlText = strings.TrimSpace(sqlText)
	if sqlText == "" {
		return nil, New(KindInvalidInput, "empty query")
	}

	it, err := b.client.Query(sqlText).Read(ctx)
	if err != nil {
		return nil, classify("execute", err, KindQueryFailed)
	}

	var (
		rows      [][]string
		truncated bool
	)
	for {
		var values []bigquery.Value
		err := it.Next(&values)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify("read row", err, KindQueryFailed)
		}
		if maxRows > 0 && len(rows) == maxRows {
			truncated = true
			break
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		rows = append(rows, row)
	}

	// The schema is only known once Next has been called.
	columns := make([]string, 0, len(it.Schema))
	for _, f := range it.Schema {
		columns = append(columns, f.Name)
	}
	result := newResult(columns)
	if rows != nil {
		result.Rows = rows
	}
	result.Truncated = truncated
	result.finish()
	return result, nil
}
