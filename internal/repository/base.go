package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/metrics"
	"orgdir/internal/model"
)

// Base provides generic CRUD over one table. Concrete repositories embed it
// and add their table-specific queries.
type Base struct {
	db    *sql.DB // nil when bound to a caller-owned transaction
	q     database.Querier
	table string
}

// NewBase creates a repository bound to a pooled connection.
func NewBase(db *sql.DB, table string) *Base {
	return &Base{db: db, q: db, table: table}
}

// WithTx rebinds the repository to an open transaction so nested calls share
// one unit of work.
func (b *Base) WithTx(tx *sql.Tx) *Base {
	return &Base{q: tx, table: b.table}
}

// Table returns the table this repository operates on.
func (b *Base) Table() string { return b.table }

func (b *Base) track(op string, err error) {
	metrics.Statements.WithLabelValues(b.table, op).Inc()
	if err != nil {
		metrics.StatementErrors.WithLabelValues(b.table, op).Inc()
	}
}

// FindByID returns the row with the given id, or (nil, nil) if absent.
func (b *Base) FindByID(ctx context.Context, id int64) (model.Row, error) {
	rows, err := b.q.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s WHERE id = $1", b.table), id)
	b.track("find_by_id", err)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// FindAll returns rows ordered by id ascending, for deterministic pagination.
func (b *Base) FindAll(ctx context.Context, limit, offset int) ([]model.Row, error) {
	rows, err := b.q.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY id LIMIT $1 OFFSET $2", b.table), limit, offset)
	b.track("find_all", err)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Count returns the total number of rows.
func (b *Base) Count(ctx context.Context) (int64, error) {
	var n int64
	err := b.q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", b.table)).Scan(&n)
	b.track("count", err)
	return n, err
}

// Exists reports whether a row with the given id exists.
func (b *Base) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := b.q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", b.table), id).Scan(&exists)
	b.track("exists", err)
	return exists, err
}

// Create inserts a row and returns the new identity.
func (b *Base) Create(ctx context.Context, data model.Row) (int64, error) {
	query, args := database.NewInsert(b.table).Values(data).Build()

	var id int64
	err := b.q.QueryRowContext(ctx, query, args...).Scan(&id)
	b.track("create", err)
	if err != nil {
		return 0, database.WrapConstraint("create", b.table, columnNames(data), err)
	}
	return id, nil
}

// Update overwrites the given fields and refreshes updated_at. An empty field
// set is a no-op returning false, not an error.
func (b *Base) Update(ctx context.Context, id int64, data model.Row) (bool, error) {
	if len(data) == 0 {
		return false, nil
	}

	cols := columnNames(data)
	setParts := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, data[col])
	}
	setParts = append(setParts, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := b.q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		b.table, strings.Join(setParts, ", "), len(cols)+1), args...)
	b.track("update", err)
	if err != nil {
		return false, database.WrapConstraint("update", b.table, cols, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a row, reporting whether one was deleted.
func (b *Base) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := b.q.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", b.table), id)
	b.track("delete", err)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Upsert inserts or, on conflict with the unique field set, overwrites all
// non-key fields from data and refreshes updated_at. Applying the same input
// twice yields one row; the store's conflict clause resolves concurrent races
// (last writer wins on non-key fields).
func (b *Base) Upsert(ctx context.Context, uniqueFields []string, data model.Row) (int64, error) {
	query, args := database.NewInsert(b.table).
		Values(data).
		OnConflict(uniqueFields, true).
		Build()

	var id int64
	err := b.q.QueryRowContext(ctx, query, args...).Scan(&id)
	b.track("upsert", err)
	if err != nil {
		return 0, database.WrapConstraint("upsert", b.table, uniqueFields, err)
	}
	return id, nil
}

// CreateMany inserts all rows inside one unit of work; any failure rolls the
// whole batch back. When the repository is already bound to a transaction the
// inserts join it instead of opening a new one.
func (b *Base) CreateMany(ctx context.Context, list []model.Row) ([]int64, error) {
	if len(list) == 0 {
		return nil, nil
	}

	insertAll := func(q database.Querier) ([]int64, error) {
		ids := make([]int64, 0, len(list))
		for _, data := range list {
			query, args := database.NewInsert(b.table).Values(data).Build()
			var id int64
			if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
				return nil, database.WrapConstraint("create_many", b.table, columnNames(data), err)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}

	var ids []int64
	var err error
	if b.db == nil {
		ids, err = insertAll(b.q)
	} else {
		err = database.WithinTx(ctx, b.db, func(tx *sql.Tx) error {
			var txErr error
			ids, txErr = insertAll(tx)
			return txErr
		})
	}
	b.track("create_many", err)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// DeleteMany removes the given ids, returning how many rows were deleted.
func (b *Base) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	res, err := b.q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)",
		b.table, strings.Join(placeholders, ", ")), args...)
	b.track("delete_many", err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func columnNames(data model.Row) []string {
	cols := make([]string, 0, len(data))
	for col := range data {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}
