package repository

import (
	"context"
	"database/sql"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// People owns the people table. A person is stored independently of their
// organizational relationships; affiliations live in person_organizations.
type People struct {
	*Base
}

// NewPeople creates the person repository.
func NewPeople(db *sql.DB) *People {
	return &People{Base: NewBase(db, "people")}
}

// FindByName finds people by first and/or last name, case-insensitive partial
// match. With neither name given it returns an empty slice.
func (r *People) FindByName(ctx context.Context, firstName, lastName string, limit int) ([]model.Row, error) {
	if firstName == "" && lastName == "" {
		return []model.Row{}, nil
	}

	b := database.NewSelect("people").
		OrderBy("last_name", "ASC").
		OrderBy("first_name", "ASC").
		Limit(limit)
	if firstName != "" {
		b.Where("LOWER(first_name)", "LIKE", "%"+strings.ToLower(firstName)+"%")
	}
	if lastName != "" {
		b.Where("LOWER(last_name)", "LIKE", "%"+strings.ToLower(lastName)+"%")
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// SearchFullText searches all name fields with Postgres full-text search,
// ordered by relevance.
func (r *People) SearchFullText(ctx context.Context, query string, limit int) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT *,
			ts_rank(
				to_tsvector('english',
					COALESCE(first_name, '') || ' ' ||
					COALESCE(middle_name, '') || ' ' ||
					COALESCE(last_name, '') || ' ' ||
					COALESCE(preferred_name, '')
				),
				plainto_tsquery('english', $1)
			) AS relevance
		FROM people
		WHERE to_tsvector('english',
			COALESCE(first_name, '') || ' ' ||
			COALESCE(middle_name, '') || ' ' ||
			COALESCE(last_name, '') || ' ' ||
			COALESCE(preferred_name, '')
		) @@ plainto_tsquery('english', $2)
		ORDER BY relevance DESC, last_name, first_name
		LIMIT $3`, query, query, limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Active returns active people ordered by last then first name.
func (r *People) Active(ctx context.Context, limit int) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM people
		WHERE is_active = TRUE
		ORDER BY last_name, first_name
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// WithAffiliations returns a person with their affiliations attached under
// the "affiliations" key, or (nil, nil) when the person is unknown.
func (r *People) WithAffiliations(ctx context.Context, personID int64) (model.Row, error) {
	person, err := r.FindByID(ctx, personID)
	if err != nil || person == nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT
			po.*,
			o.name AS org_name,
			o.slug AS org_slug,
			o.directory_path AS org_directory_path
		FROM person_organizations po
		JOIN organizations o ON po.organization_id = o.id
		WHERE po.person_id = $1
		ORDER BY po.is_current DESC, po.start_date DESC`, personID)
	if err != nil {
		return nil, err
	}
	affiliations, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	person["affiliations"] = affiliations
	return person, nil
}

// WithCompensation returns a person with their compensation records attached
// under the "compensation" key, optionally filtered by fiscal year.
func (r *People) WithCompensation(ctx context.Context, personID int64, fiscalYear *int) (model.Row, error) {
	person, err := r.FindByID(ctx, personID)
	if err != nil || person == nil {
		return nil, err
	}

	b := database.NewSelect("compensation").
		Where("person_id", "=", personID).
		OrderBy("fiscal_year", "DESC")
	if fiscalYear != nil {
		b.Where("fiscal_year", "=", *fiscalYear)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	compensation, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	person["compensation"] = compensation
	return person, nil
}

// UpsertPerson inserts or updates a person keyed by (first_name, last_name).
// The key is weak for common names; a source-linked external id would be
// stronger if fidelity ever matters.
func (r *People) UpsertPerson(ctx context.Context, data model.Row) (int64, error) {
	return r.Upsert(ctx, []string{"first_name", "last_name"}, data)
}
