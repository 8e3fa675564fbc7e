package repository

import (
	"context"
	"database/sql"

	"orgdir/internal/model"
)

// Categories owns the categories table. Categories are seeded once and
// referenced by organizations; they are not mutated afterwards.
type Categories struct {
	*Base
}

// NewCategories creates the category repository.
func NewCategories(db *sql.DB) *Categories {
	return &Categories{Base: NewBase(db, "categories")}
}

// FindBySlug returns the category with the given slug, or (nil, nil).
func (r *Categories) FindBySlug(ctx context.Context, slug string) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT * FROM categories WHERE slug = $1`, slug)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// FindByName returns the category with the given name, case-insensitively.
func (r *Categories) FindByName(ctx context.Context, name string) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT * FROM categories WHERE LOWER(name) = LOWER($1)`, name)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// All returns every category ordered by name.
func (r *Categories) All(ctx context.Context) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT * FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// OrganizationCount counts organizations assigned to a category.
func (r *Categories) OrganizationCount(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM organizations WHERE category_id = $1`, categoryID).Scan(&n)
	return n, err
}

// UpsertCategory inserts or updates a category keyed by slug.
func (r *Categories) UpsertCategory(ctx context.Context, slug, name string, description any) (int64, error) {
	return r.Upsert(ctx, []string{"slug"}, model.Row{
		"slug":        slug,
		"name":        name,
		"description": description,
	})
}

// seedCategories is the initial category set synced at provisioning time.
var seedCategories = []struct {
	Name, Slug, Description string
}{
	{"UCOP", "ucop", "UC Office of the President organizations"},
	{"Campuses", "campuses", "UC Campus organizations"},
	{"Labs", "labs", "National Laboratory organizations"},
	{"Academic Senate", "academic_senate", "UC Academic Senate"},
	{"Board of Regents", "board_of_regents", "UC Board of Regents"},
}

// Seed inserts the initial categories, doing nothing for slugs that already
// exist.
func (r *Categories) Seed(ctx context.Context) (int, error) {
	inserted := 0
	for _, c := range seedCategories {
		res, err := r.q.ExecContext(ctx,
			`INSERT INTO categories (name, slug, description)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (slug) DO NOTHING`,
			c.Name, c.Slug, c.Description)
		if err != nil {
			return inserted, err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
