package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// Analytics runs read-only cross-table queries: aggregations that span
// organizations, people and compensation and belong to no single repository.
type Analytics struct {
	q database.Querier
}

// NewAnalytics creates the analytics repository.
func NewAnalytics(db *sql.DB) *Analytics {
	return &Analytics{q: db}
}

// WithTx returns a copy bound to the given transaction.
func (r *Analytics) WithTx(tx *sql.Tx) *Analytics {
	return &Analytics{q: tx}
}

// OrganizationOverview returns an organization's details together with its
// current employee count, compensation statistics and active child count.
// Returns (nil, nil) when the organization does not exist.
func (r *Analytics) OrganizationOverview(ctx context.Context, organizationID int64, fiscalYear *int) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT
			o.*,
			c.name AS category_name,
			c.slug AS category_slug,
			parent.name AS parent_name
		FROM organizations o
		LEFT JOIN categories c ON o.category_id = c.id
		LEFT JOIN organizations parent ON o.parent_id = parent.id
		WHERE o.id = $1`, organizationID)
	if err != nil {
		return nil, err
	}
	org, err := scanOne(rows)
	if err != nil || org == nil {
		return org, err
	}

	var employeeCount int64
	err = r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM person_organizations
		WHERE organization_id = $1
		AND is_current = TRUE`, organizationID).Scan(&employeeCount)
	if err != nil {
		return nil, err
	}
	org["current_employee_count"] = employeeCount

	b := database.NewSelect("compensation").
		Columns(
			"COUNT(*) AS compensation_records",
			"AVG(gross_pay) AS avg_salary",
			"PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY gross_pay) AS median_salary",
			"MIN(gross_pay) AS min_salary",
			"MAX(gross_pay) AS max_salary",
			"SUM(gross_pay) AS total_payroll",
		).
		Where("organization_id", "=", organizationID).
		WhereNull("gross_pay", false)
	if fiscalYear != nil {
		b.Where("fiscal_year", "=", *fiscalYear)
	}
	query, args := b.Build()

	rows, err = r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	compStats, err := scanOne(rows)
	if err != nil {
		return nil, err
	}
	org["compensation_stats"] = compStats

	var departmentCount int64
	err = r.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM organizations
		WHERE parent_id = $1
		AND is_active = TRUE`, organizationID).Scan(&departmentCount)
	if err != nil {
		return nil, err
	}
	org["department_count"] = departmentCount

	return org, nil
}

// CompensationTrends returns per-fiscal-year salary statistics, oldest year
// first, optionally scoped to one organization and bounded by year range.
func (r *Analytics) CompensationTrends(ctx context.Context, organizationID *int64, startYear, endYear *int) ([]model.Row, error) {
	b := database.NewSelect("compensation").
		Columns(
			"fiscal_year",
			"COUNT(*) AS employee_count",
			"AVG(gross_pay) AS avg_salary",
			"PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY gross_pay) AS median_salary",
			"MIN(gross_pay) AS min_salary",
			"MAX(gross_pay) AS max_salary",
			"SUM(gross_pay) AS total_payroll",
		).
		WhereNull("gross_pay", false).
		GroupBy("fiscal_year").
		OrderBy("fiscal_year", "ASC")
	if organizationID != nil {
		b.Where("organization_id", "=", *organizationID)
	}
	if startYear != nil {
		b.Where("fiscal_year", ">=", *startYear)
	}
	if endYear != nil {
		b.Where("fiscal_year", "<=", *endYear)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// SalaryDistribution buckets gross pay into fixed-width bins and counts
// records per bin. binSize is a numeric literal such as "10000".
func (r *Analytics) SalaryDistribution(ctx context.Context, organizationID *int64, fiscalYear *int, binSize string) ([]model.Row, error) {
	if binSize == "" {
		binSize = "10000"
	}

	query := `
		SELECT
			FLOOR(gross_pay / $1) * $1 AS salary_bin_start,
			(FLOOR(gross_pay / $1) + 1) * $1 AS salary_bin_end,
			COUNT(*) AS count
		FROM compensation
		WHERE gross_pay IS NOT NULL`
	args := []any{binSize}

	if organizationID != nil {
		args = append(args, *organizationID)
		query += fmt.Sprintf(" AND organization_id = $%d", len(args))
	}
	if fiscalYear != nil {
		args = append(args, *fiscalYear)
		query += fmt.Sprintf(" AND fiscal_year = $%d", len(args))
	}
	query += `
		GROUP BY FLOOR(gross_pay / $1)
		ORDER BY salary_bin_start`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// TopTitles returns the most common job titles with salary statistics,
// highest headcount first.
func (r *Analytics) TopTitles(ctx context.Context, organizationID *int64, fiscalYear *int, limit int) ([]model.Row, error) {
	b := database.NewSelect("compensation").
		Columns(
			"title",
			"COUNT(*) AS employee_count",
			"AVG(gross_pay) AS avg_salary",
			"MIN(gross_pay) AS min_salary",
			"MAX(gross_pay) AS max_salary",
		).
		WhereNull("title", false).
		WhereNull("gross_pay", false).
		GroupBy("title").
		OrderBy("employee_count", "DESC").
		Limit(limit)
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
	return scanRows(rows)
}

// HierarchyWithStats walks the subtree rooted at the given organization and
// annotates every node with employee count, compensation record count,
// average salary and total payroll.
func (r *Analytics) HierarchyWithStats(ctx context.Context, rootOrganizationID int64, fiscalYear *int) ([]model.Row, error) {
	query := `
		WITH RECURSIVE org_hierarchy AS (
			SELECT
				id,
				parent_id,
				name,
				slug,
				hierarchy_level,
				full_path,
				ARRAY[id] AS path_ids
			FROM organizations
			WHERE id = $1

			UNION ALL

			SELECT
				o.id,
				o.parent_id,
				o.name,
				o.slug,
				o.hierarchy_level,
				o.full_path,
				oh.path_ids || o.id
			FROM organizations o
			INNER JOIN org_hierarchy oh ON o.parent_id = oh.id
			WHERE o.is_active = TRUE
		)
		SELECT
			oh.*,
			COUNT(DISTINCT po.person_id) AS current_employee_count,
			COUNT(DISTINCT c.id) AS compensation_record_count,
			AVG(c.gross_pay) AS avg_salary,
			SUM(c.gross_pay) AS total_payroll
		FROM org_hierarchy oh
		LEFT JOIN person_organizations po ON oh.id = po.organization_id AND po.is_current = TRUE
		LEFT JOIN compensation c ON oh.id = c.organization_id`
	args := []any{rootOrganizationID}

	if fiscalYear != nil {
		query += ` AND c.fiscal_year = $2`
		args = append(args, *fiscalYear)
	}
	query += `
		GROUP BY oh.id, oh.parent_id, oh.name, oh.slug, oh.hierarchy_level, oh.full_path, oh.path_ids
		ORDER BY oh.hierarchy_level, oh.name`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// CareerTimeline bundles a person's record with their full affiliation and
// compensation history. Returns (nil, nil) when the person does not exist.
func (r *Analytics) CareerTimeline(ctx context.Context, personID int64) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT * FROM people WHERE id = $1`, personID)
	if err != nil {
		return nil, err
	}
	person, err := scanOne(rows)
	if err != nil || person == nil {
		return person, err
	}

	rows, err = r.q.QueryContext(ctx, `
		SELECT
			po.*,
			o.name AS org_name,
			o.slug AS org_slug,
			o.hierarchy_level,
			parent.name AS parent_org_name
		FROM person_organizations po
		JOIN organizations o ON po.organization_id = o.id
		LEFT JOIN organizations parent ON o.parent_id = parent.id
		WHERE po.person_id = $1
		ORDER BY po.start_date DESC NULLS LAST`, personID)
	if err != nil {
		return nil, err
	}
	affiliations, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	rows, err = r.q.QueryContext(ctx, `
		SELECT
			c.*,
			o.name AS org_name
		FROM compensation c
		LEFT JOIN organizations o ON c.organization_id = o.id
		WHERE c.person_id = $1
		ORDER BY c.fiscal_year DESC`, personID)
	if err != nil {
		return nil, err
	}
	compensation, err := scanRows(rows)
	if err != nil {
		return nil, err
	}

	return model.Row{
		"person":               person,
		"affiliations":         affiliations,
		"compensation_history": compensation,
	}, nil
}

// PeopleSearchFilter narrows SearchPeopleWithContext. Salary bounds are
// numeric literals; they only apply together with a fiscal year or against
// any year's record when none is given.
type PeopleSearchFilter struct {
	OrganizationID *int64
	TitleQuery     string
	MinSalary      string
	MaxSalary      string
	FiscalYear     *int
	Limit          int
}

// SearchPeopleWithContext searches active people by name, matching either a
// substring or the full-text index, and attaches each match's current title,
// organization and salary.
func (r *Analytics) SearchPeopleWithContext(ctx context.Context, nameQuery string, filter PeopleSearchFilter) ([]model.Row, error) {
	like := "%" + strings.ToLower(nameQuery) + "%"
	query := `
		SELECT DISTINCT
			p.*,
			po.title AS current_title,
			o.name AS current_org_name,
			o.id AS current_org_id,
			c.gross_pay AS current_salary,
			c.fiscal_year AS salary_year
		FROM people p
		LEFT JOIN person_organizations po ON p.id = po.person_id AND po.is_current = TRUE
		LEFT JOIN organizations o ON po.organization_id = o.id
		LEFT JOIN compensation c ON p.id = c.person_id
		WHERE p.is_active = TRUE
		AND (
			LOWER(p.first_name) LIKE $1
			OR LOWER(p.last_name) LIKE $1
			OR to_tsvector('english',
				COALESCE(p.first_name, '') || ' ' ||
				COALESCE(p.last_name, '')
			) @@ plainto_tsquery('english', $2)
		)`
	args := []any{like, nameQuery}

	if filter.OrganizationID != nil {
		args = append(args, *filter.OrganizationID)
		query += fmt.Sprintf(" AND po.organization_id = $%d", len(args))
	}
	if filter.TitleQuery != "" {
		args = append(args, "%"+strings.ToLower(filter.TitleQuery)+"%")
		query += fmt.Sprintf(" AND LOWER(po.title) LIKE $%d", len(args))
	}
	if filter.MinSalary != "" || filter.MaxSalary != "" {
		if filter.FiscalYear != nil {
			args = append(args, *filter.FiscalYear)
			query += fmt.Sprintf(" AND c.fiscal_year = $%d", len(args))
		}
		if filter.MinSalary != "" {
			args = append(args, filter.MinSalary)
			query += fmt.Sprintf(" AND c.gross_pay >= $%d", len(args))
		}
		if filter.MaxSalary != "" {
			args = append(args, filter.MaxSalary)
			query += fmt.Sprintf(" AND c.gross_pay <= $%d", len(args))
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY p.last_name, p.first_name LIMIT $%d", len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// CategoryStatistics returns per-category organization counts, current
// employee counts and salary aggregates, alphabetically by category name.
func (r *Analytics) CategoryStatistics(ctx context.Context) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT
			c.id,
			c.name,
			c.slug,
			COUNT(DISTINCT o.id) AS organization_count,
			COUNT(DISTINCT po.person_id) AS current_employee_count,
			AVG(comp.gross_pay) AS avg_salary,
			SUM(comp.gross_pay) AS total_payroll
		FROM categories c
		LEFT JOIN organizations o ON c.id = o.category_id AND o.is_active = TRUE
		LEFT JOIN person_organizations po ON o.id = po.organization_id AND po.is_current = TRUE
		LEFT JOIN compensation comp ON po.person_id = comp.person_id
		GROUP BY c.id, c.name, c.slug
		ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// DataQualityReport returns completeness metrics per table: how many people
// have names, bios and photos, how many compensation records are linked to a
// person or an organization, and so on.
func (r *Analytics) DataQualityReport(ctx context.Context) (model.Row, error) {
	peopleStats, err := r.aggregate(ctx, `
		SELECT
			COUNT(*) AS total_people,
			SUM(CASE WHEN first_name IS NOT NULL THEN 1 ELSE 0 END) AS with_first_name,
			SUM(CASE WHEN last_name IS NOT NULL THEN 1 ELSE 0 END) AS with_last_name,
			SUM(CASE WHEN bio IS NOT NULL THEN 1 ELSE 0 END) AS with_bio,
			SUM(CASE WHEN photo_url IS NOT NULL THEN 1 ELSE 0 END) AS with_photo,
			SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active_count
		FROM people`)
	if err != nil {
		return nil, err
	}

	orgStats, err := r.aggregate(ctx, `
		SELECT
			COUNT(*) AS total_orgs,
			SUM(CASE WHEN description IS NOT NULL THEN 1 ELSE 0 END) AS with_description,
			SUM(CASE WHEN main_url IS NOT NULL THEN 1 ELSE 0 END) AS with_url,
			SUM(CASE WHEN parent_id IS NULL THEN 1 ELSE 0 END) AS root_orgs,
			SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active_count
		FROM organizations`)
	if err != nil {
		return nil, err
	}

	compStats, err := r.aggregate(ctx, `
		SELECT
			COUNT(*) AS total_records,
			COUNT(DISTINCT person_id) AS unique_people,
			COUNT(DISTINCT fiscal_year) AS unique_years,
			SUM(CASE WHEN person_id IS NOT NULL THEN 1 ELSE 0 END) AS linked_to_person,
			SUM(CASE WHEN organization_id IS NOT NULL THEN 1 ELSE 0 END) AS linked_to_org,
			SUM(CASE WHEN is_verified THEN 1 ELSE 0 END) AS verified_count
		FROM compensation`)
	if err != nil {
		return nil, err
	}

	contactStats, err := r.aggregate(ctx, `
		SELECT
			COUNT(*) AS total_contacts,
			COUNT(DISTINCT CONCAT(entity_type, '-', entity_id)) AS unique_entities,
			SUM(CASE WHEN is_public THEN 1 ELSE 0 END) AS public_count,
			SUM(CASE WHEN is_verified THEN 1 ELSE 0 END) AS verified_count
		FROM contact_info`)
	if err != nil {
		return nil, err
	}

	return model.Row{
		"people":        peopleStats,
		"organizations": orgStats,
		"compensation":  compStats,
		"contact_info":  contactStats,
	}, nil
}

func (r *Analytics) aggregate(ctx context.Context, query string) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}
