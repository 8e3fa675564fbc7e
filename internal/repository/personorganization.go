package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"orgdir/internal/model"
)

// PersonOrganizations owns the person_organizations junction table: a person
// holds a titled, time-bounded affiliation with an organization. A NULL
// end_date means current; is_current is generated from it in the schema and
// is never written directly.
type PersonOrganizations struct {
	*Base
}

// NewPersonOrganizations creates the affiliation repository.
func NewPersonOrganizations(db *sql.DB) *PersonOrganizations {
	return &PersonOrganizations{Base: NewBase(db, "person_organizations")}
}

// ByPerson returns a person's affiliations with organization details,
// current ones first.
func (r *PersonOrganizations) ByPerson(ctx context.Context, personID int64, currentOnly bool) ([]model.Row, error) {
	query := `
		SELECT
			po.*,
			o.name AS org_name,
			o.slug AS org_slug,
			o.directory_path AS org_directory_path,
			o.hierarchy_level AS org_hierarchy_level
		FROM person_organizations po
		JOIN organizations o ON po.organization_id = o.id
		WHERE po.person_id = $1`
	if currentOnly {
		query += `
		AND po.is_current = TRUE
		ORDER BY po.is_primary_affiliation DESC, po.start_date DESC`
	} else {
		query += `
		ORDER BY po.is_current DESC, po.start_date DESC`
	}

	rows, err := r.q.QueryContext(ctx, query, personID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ByOrganization returns an organization's affiliated people with person
// details. Inactive people are excluded.
func (r *PersonOrganizations) ByOrganization(ctx context.Context, organizationID int64, currentOnly bool) ([]model.Row, error) {
	query := `
		SELECT
			po.*,
			p.first_name,
			p.last_name,
			p.middle_name,
			p.preferred_name,
			p.photo_url,
			p.profile_url
		FROM person_organizations po
		JOIN people p ON po.person_id = p.id
		WHERE po.organization_id = $1
		AND p.is_active = TRUE`
	if currentOnly {
		query += `
		AND po.is_current = TRUE
		ORDER BY po.title, p.last_name, p.first_name`
	} else {
		query += `
		ORDER BY po.is_current DESC, po.start_date DESC`
	}

	rows, err := r.q.QueryContext(ctx, query, organizationID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// PrimaryAffiliation returns the person's current primary affiliation, or
// (nil, nil) when they have none.
func (r *PersonOrganizations) PrimaryAffiliation(ctx context.Context, personID int64) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT
			po.*,
			o.name AS org_name,
			o.slug AS org_slug,
			o.directory_path AS org_directory_path
		FROM person_organizations po
		JOIN organizations o ON po.organization_id = o.id
		WHERE po.person_id = $1
		AND po.is_primary_affiliation = TRUE
		AND po.is_current = TRUE
		LIMIT 1`, personID)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// SearchByTitle finds affiliations whose title matches the query, optionally
// within one organization.
func (r *PersonOrganizations) SearchByTitle(ctx context.Context, titleQuery string, organizationID *int64, limit int) ([]model.Row, error) {
	query := `
		SELECT
			po.*,
			p.first_name,
			p.last_name,
			o.name AS org_name
		FROM person_organizations po
		JOIN people p ON po.person_id = p.id
		JOIN organizations o ON po.organization_id = o.id
		WHERE LOWER(po.title) LIKE $1`
	args := []any{"%" + strings.ToLower(titleQuery) + "%"}

	if organizationID != nil {
		query += ` AND po.organization_id = $2
		ORDER BY po.is_current DESC, p.last_name, p.first_name
		LIMIT $3`
		args = append(args, *organizationID, limit)
	} else {
		query += `
		ORDER BY po.is_current DESC, p.last_name, p.first_name
		LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// InDateRange returns affiliations that were active at any point inside the
// given range, optionally filtered by organization. Open-ended affiliations
// (NULL dates) count as active.
func (r *PersonOrganizations) InDateRange(ctx context.Context, start, end time.Time, organizationID *int64) ([]model.Row, error) {
	query := `
		SELECT
			po.*,
			p.first_name,
			p.last_name,
			o.name AS org_name
		FROM person_organizations po
		JOIN people p ON po.person_id = p.id
		JOIN organizations o ON po.organization_id = o.id
		WHERE (po.start_date IS NULL OR po.start_date <= $1)
		AND (po.end_date IS NULL OR po.end_date >= $2)`
	args := []any{end, start}

	if organizationID != nil {
		query += ` AND po.organization_id = $3
		ORDER BY p.last_name, p.first_name`
		args = append(args, *organizationID)
	} else {
		query += `
		ORDER BY o.name, p.last_name, p.first_name`
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// UpsertAffiliation inserts or updates an affiliation keyed by
// (person_id, organization_id, start_date).
func (r *PersonOrganizations) UpsertAffiliation(ctx context.Context, data model.Row) (int64, error) {
	return r.Upsert(ctx, []string{"person_id", "organization_id", "start_date"}, data)
}

// EndAffiliation closes an affiliation by setting its end_date, which flips
// the generated is_current column off.
func (r *PersonOrganizations) EndAffiliation(ctx context.Context, affiliationID int64, endDate time.Time) (bool, error) {
	return r.Update(ctx, affiliationID, model.Row{"end_date": endDate})
}
