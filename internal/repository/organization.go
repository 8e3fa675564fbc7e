package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// Organizations owns the organizations table. Organizations and departments
// share the table; a department is an organization with a non-NULL parent_id,
// so the rows form a rooted forest.
type Organizations struct {
	*Base
}

// NewOrganizations creates the organization repository.
func NewOrganizations(db *sql.DB) *Organizations {
	return &Organizations{Base: NewBase(db, "organizations")}
}

// FindBySlug returns the organization with the given slug under parentID.
// A nil parentID matches root organizations.
func (r *Organizations) FindBySlug(ctx context.Context, slug string, parentID *int64) (model.Row, error) {
	var rows *sql.Rows
	var err error
	if parentID != nil {
		rows, err = r.q.QueryContext(ctx,
			`SELECT * FROM organizations WHERE slug = $1 AND parent_id = $2`, slug, *parentID)
	} else {
		rows, err = r.q.QueryContext(ctx,
			`SELECT * FROM organizations WHERE slug = $1 AND parent_id IS NULL`, slug)
	}
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// FindByDirectoryPath returns the organization registered at the given
// scraper directory path (e.g. "handlers/campuses/ucla").
func (r *Organizations) FindByDirectoryPath(ctx context.Context, path string) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT * FROM organizations WHERE directory_path = $1`, path)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// Roots returns active top-level organizations, optionally filtered by category.
func (r *Organizations) Roots(ctx context.Context, categoryID *int64) ([]model.Row, error) {
	b := database.NewSelect("organizations").
		WhereNull("parent_id", true).
		Where("is_active", "=", true).
		OrderBy("name", "ASC")
	if categoryID != nil {
		b.Where("category_id", "=", *categoryID)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Children returns the active direct children of an organization.
func (r *Organizations) Children(ctx context.Context, parentID int64) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT * FROM organizations
		 WHERE parent_id = $1 AND is_active = TRUE
		 ORDER BY name`, parentID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Descendants returns every organization reachable downward from orgID,
// ordered by hierarchy depth then name. The recursive CTE runs in the engine,
// so arbitrarily deep trees cost one round trip. A leaf yields an empty slice.
func (r *Organizations) Descendants(ctx context.Context, orgID int64) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		WITH RECURSIVE descendants AS (
			SELECT * FROM organizations
			WHERE parent_id = $1

			UNION ALL

			SELECT o.* FROM organizations o
			INNER JOIN descendants d ON o.parent_id = d.id
		)
		SELECT * FROM descendants
		ORDER BY hierarchy_level, name`, orgID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Ancestors returns the path from root to the immediate parent of orgID,
// root first and excluding the organization itself. A root yields an empty
// slice.
func (r *Organizations) Ancestors(ctx context.Context, orgID int64) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		WITH RECURSIVE ancestors AS (
			SELECT * FROM organizations
			WHERE id = $1

			UNION ALL

			SELECT o.* FROM organizations o
			INNER JOIN ancestors a ON o.id = a.parent_id
		)
		SELECT * FROM ancestors
		WHERE id != $2
		ORDER BY hierarchy_level`, orgID, orgID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// FullHierarchyPath renders the named path to an organization, e.g.
// "UC Berkeley > CS Department > AI Lab". Empty when the organization is
// unknown.
func (r *Organizations) FullHierarchyPath(ctx context.Context, orgID int64) (string, error) {
	org, err := r.FindByID(ctx, orgID)
	if err != nil || org == nil {
		return "", err
	}

	ancestors, err := r.Ancestors(ctx, orgID)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(ancestors)+1)
	for _, a := range ancestors {
		parts = append(parts, fmt.Sprint(a["name"]))
	}
	parts = append(parts, fmt.Sprint(org["name"]))
	return strings.Join(parts, " > "), nil
}

// SearchByName finds active organizations by case-insensitive partial name
// match, bounded by limit.
func (r *Organizations) SearchByName(ctx context.Context, query string, categoryID *int64, limit int) ([]model.Row, error) {
	b := database.NewSelect("organizations").
		Where("LOWER(name)", "LIKE", "%"+strings.ToLower(query)+"%").
		Where("is_active", "=", true).
		OrderBy("name", "ASC").
		Limit(limit)
	if categoryID != nil {
		b.Where("category_id", "=", *categoryID)
	}
	stmt, args := b.Build()

	rows, err := r.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// UpsertOrganization reconciles a scraped organization. When a directory path
// is present it is the dedup key; otherwise (parent_id, slug) is.
func (r *Organizations) UpsertOrganization(ctx context.Context, data model.Row) (int64, error) {
	if path, ok := data["directory_path"]; ok && path != nil && path != "" {
		return r.Upsert(ctx, []string{"directory_path"}, data)
	}
	return r.Upsert(ctx, []string{"parent_id", "slug"}, data)
}

// SetParent moves an organization under a new parent (nil detaches it to a
// root). Self-parenting and any move that would close a cycle through the
// existing ancestry are rejected as constraint violations before touching
// the row.
func (r *Organizations) SetParent(ctx context.Context, orgID int64, parentID *int64) (bool, error) {
	if parentID == nil {
		return r.Update(ctx, orgID, model.Row{"parent_id": nil})
	}
	if *parentID == orgID {
		return false, &database.ConstraintViolation{
			Op:         "set_parent",
			Table:      "organizations",
			Constraint: "organizations_parent_id_check",
			Keys:       []string{"parent_id"},
		}
	}

	// The immediate self-parent case is all the schema enforces; multi-hop
	// cycles (A→B→A via two updates) have to be caught here.
	ancestors, err := r.Ancestors(ctx, *parentID)
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		if id, ok := model.ID(a); ok && id == orgID {
			return false, &database.ConstraintViolation{
				Op:         "set_parent",
				Table:      "organizations",
				Constraint: "organizations_hierarchy_acyclic",
				Keys:       []string{"parent_id"},
			}
		}
	}

	return r.Update(ctx, orgID, model.Row{"parent_id": *parentID})
}

// Deactivate soft-deletes an organization; rows are never hard-deleted except
// by cascade from a removed parent.
func (r *Organizations) Deactivate(ctx context.Context, orgID int64) (bool, error) {
	return r.Update(ctx, orgID, model.Row{"is_active": false})
}
