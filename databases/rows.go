package databases

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/melkeydev/formengine/types"
)

// QueryRows runs query and scans every row into a column-keyed map.
func QueryRows(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*types.ResultSet, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to query db: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("unable to read columns: %w", err)
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("unable to scan row: %w", err)
		}
		results = append(results, Normalize(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("unable to iterate rows: %w", err)
	}

	return &types.ResultSet{Columns: columns, Rows: results}, nil
}

// Normalize turns driver byte slices into strings so rows encode as JSON text.
func Normalize(row map[string]any) map[string]any {
	for k, v := range row {
		if b, ok := v.([]byte); ok {
			row[k] = string(b)
		}
	}
	return row
}
