package repository

import (
	"context"
	"database/sql"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// Compensations owns the compensation table: annual salary records from
// public sources, deduplicated by the identifiers the source publishes.
type Compensations struct {
	*Base
}

// NewCompensations creates the compensation repository.
func NewCompensations(db *sql.DB) *Compensations {
	return &Compensations{Base: NewBase(db, "compensation")}
}

// ByPerson returns a person's compensation records with organization names,
// newest fiscal year first.
func (r *Compensations) ByPerson(ctx context.Context, personID int64, fiscalYear *int) ([]model.Row, error) {
	query := `
		SELECT
			c.*,
			o.name AS org_name,
			o.slug AS org_slug
		FROM compensation c
		LEFT JOIN organizations o ON c.organization_id = o.id
		WHERE c.person_id = $1`
	args := []any{personID}

	if fiscalYear != nil {
		query += ` AND c.fiscal_year = $2`
		args = append(args, *fiscalYear)
	}
	query += ` ORDER BY c.fiscal_year DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ByOrganization returns an organization's compensation records with person
// names, highest gross pay first.
func (r *Compensations) ByOrganization(ctx context.Context, organizationID int64, fiscalYear *int, limit int) ([]model.Row, error) {
	b := database.NewSelect("compensation c").
		Columns("c.*", "p.first_name", "p.last_name").
		Join(database.JoinLeft, "people p", "c.person_id = p.id").
		Where("c.organization_id", "=", organizationID).
		OrderBy("c.gross_pay", "DESC").
		OrderBy("c.fiscal_year", "DESC")
	if fiscalYear != nil {
		b.Where("c.fiscal_year", "=", *fiscalYear)
	}
	if limit > 0 {
		b.Limit(limit)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// BySource finds a record by the source's own identifiers, the dedup key for
// repeatedly re-scraped data. Without a fiscal year the newest record wins.
func (r *Compensations) BySource(ctx context.Context, sourceEmployeeID int64, sourceLocation string, fiscalYear *int) (model.Row, error) {
	var rows *sql.Rows
	var err error
	if fiscalYear != nil {
		rows, err = r.q.QueryContext(ctx, `
			SELECT * FROM compensation
			WHERE source_employee_id = $1
			AND source_location = $2
			AND fiscal_year = $3
			LIMIT 1`, sourceEmployeeID, sourceLocation, *fiscalYear)
	} else {
		rows, err = r.q.QueryContext(ctx, `
			SELECT * FROM compensation
			WHERE source_employee_id = $1
			AND source_location = $2
			ORDER BY fiscal_year DESC
			LIMIT 1`, sourceEmployeeID, sourceLocation)
	}
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// SalaryStatistics aggregates count, average, median, min and max over gross
// pay and total compensation, optionally scoped to one organization and year.
func (r *Compensations) SalaryStatistics(ctx context.Context, organizationID *int64, fiscalYear *int) (model.Row, error) {
	b := database.NewSelect("compensation").
		Columns(
			"COUNT(*) AS count",
			"AVG(gross_pay) AS avg_gross_pay",
			"PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY gross_pay) AS median_gross_pay",
			"MIN(gross_pay) AS min_gross_pay",
			"MAX(gross_pay) AS max_gross_pay",
			"AVG(total_compensation) AS avg_total_comp",
			"PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY total_compensation) AS median_total_comp",
		).
		WhereNull("gross_pay", false)
	if organizationID != nil {
		b.Where("organization_id", "=", *organizationID)
	}
	if fiscalYear != nil {
		b.Where("fiscal_year", "=", *fiscalYear)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// TopEarners returns the highest gross-pay records with person and
// organization names.
func (r *Compensations) TopEarners(ctx context.Context, organizationID *int64, fiscalYear *int, limit int) ([]model.Row, error) {
	b := database.NewSelect("compensation c").
		Columns("c.*", "p.first_name", "p.last_name", "o.name AS org_name").
		Join(database.JoinLeft, "people p", "c.person_id = p.id").
		Join(database.JoinLeft, "organizations o", "c.organization_id = o.id").
		WhereNull("c.gross_pay", false).
		OrderBy("c.gross_pay", "DESC").
		Limit(limit)
	if organizationID != nil {
		b.Where("c.organization_id", "=", *organizationID)
	}
	if fiscalYear != nil {
		b.Where("c.fiscal_year", "=", *fiscalYear)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// SearchByTitle finds records whose job title matches the query.
func (r *Compensations) SearchByTitle(ctx context.Context, titleQuery string, organizationID *int64, fiscalYear *int, limit int) ([]model.Row, error) {
	b := database.NewSelect("compensation c").
		Columns("c.*", "p.first_name", "p.last_name").
		Join(database.JoinLeft, "people p", "c.person_id = p.id").
		Where("LOWER(c.title)", "LIKE", "%"+strings.ToLower(titleQuery)+"%").
		OrderBy("c.gross_pay", "DESC").
		Limit(limit)
	if organizationID != nil {
		b.Where("c.organization_id", "=", *organizationID)
	}
	if fiscalYear != nil {
		b.Where("c.fiscal_year", "=", *fiscalYear)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// SalaryRange returns records whose gross pay falls inside [min, max].
func (r *Compensations) SalaryRange(ctx context.Context, minSalary, maxSalary string, organizationID *int64, fiscalYear *int, limit int) ([]model.Row, error) {
	b := database.NewSelect("compensation c").
		Columns("c.*", "p.first_name", "p.last_name").
		Join(database.JoinLeft, "people p", "c.person_id = p.id").
		Where("c.gross_pay", ">=", minSalary).
		Where("c.gross_pay", "<=", maxSalary).
		OrderBy("c.gross_pay", "DESC").
		Limit(limit)
	if organizationID != nil {
		b.Where("c.organization_id", "=", *organizationID)
	}
	if fiscalYear != nil {
		b.Where("c.fiscal_year", "=", *fiscalYear)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// UpsertCompensation inserts or updates a record keyed by
// (source_employee_id, source_location, fiscal_year).
func (r *Compensations) UpsertCompensation(ctx context.Context, data model.Row) (int64, error) {
	return r.Upsert(ctx, []string{"source_employee_id", "source_location", "fiscal_year"}, data)
}
