// Package repository contains the data-access layer: a generic base
// repository plus one repository per table. Methods return plain rows keyed
// by column name; no business logic lives here.
package repository

import (
	"context"
	"database/sql"

	"orgdir/internal/model"
)

// Reader is the read-only capability of a repository.
type Reader interface {
	FindByID(ctx context.Context, id int64) (model.Row, error)
	FindAll(ctx context.Context, limit, offset int) ([]model.Row, error)
	Count(ctx context.Context) (int64, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// Writer is the write-only capability of a repository.
type Writer interface {
	Create(ctx context.Context, data model.Row) (int64, error)
	Update(ctx context.Context, id int64, data model.Row) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Upsert(ctx context.Context, uniqueFields []string, data model.Row) (int64, error)
}

// scanRows drains rows into a slice of column-keyed maps.
func scanRows(rows *sql.Rows) ([]model.Row, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := make([]model.Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(model.Row, len(cols))
		for i, col := range cols {
			v := values[i]
			// Drivers hand back []byte for text-ish columns; strings are
			// friendlier for the map contract.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// scanOne returns the first row of the result, or (nil, nil) when there is
// none. "No row" is an absent result in this layer, never an error.
func scanOne(rows *sql.Rows) (model.Row, error) {
	all, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}
