// schema.go builds the schema text injected into both prompts of a
// conversation round.
//
// The descriptor is regenerated on every question with no caching, and
// is deterministic: the catalog query orders by table then ordinal
// position, so an unchanged catalog renders byte-identical text.
package db

import (
	"context"
	"fmt"
	"strings"
)

// SchemaDescriptor is the ordered (table, column, type) listing of a dataset.
type SchemaDescriptor []ColumnInfo

// FetchSchema reads the dataset's catalog. A catalog failure is returned
// as is; an empty dataset is reported as not found.
func FetchSchema(ctx context.Context, w Warehouse, dataset string) (SchemaDescriptor, error) {
	cols, err := w.Columns(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, New(KindNotFound, fmt.Sprintf("dataset %q has no columns", dataset))
	}
	return SchemaDescriptor(cols), nil
}

// String renders one "Table: T, Column: C, Type: D" line per column.
func (s SchemaDescriptor) String() string {
	var sb strings.Builder
	for i, c := range s {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "Table: %s, Column: %s, Type: %s", c.Table, c.Column, c.DataType)
	}
	return sb.String()
}

// Tables returns the distinct table names in catalog order.
func (s SchemaDescriptor) Tables() []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range s {
		if !seen[c.Table] {
			seen[c.Table] = true
			out = append(out, c.Table)
		}
	}
	return out
}

// Table returns the columns of one table.
func (s SchemaDescriptor) Table(name string) []ColumnInfo {
	var out []ColumnInfo
	for _, c := range s {
		if c.Table == name {
			out = append(out, c)
		}
	}
	return out
}
