package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgdir/internal/database"
)

func newOrgMock(t *testing.T) (*Organizations, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewOrganizations(db), mock, func() { db.Close() }
}

func TestOrganizationsFindBySlug(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newOrgMock(t)
	defer done()

	t.Run("root lookup uses IS NULL", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT * FROM organizations WHERE slug = $1 AND parent_id IS NULL")).
			WithArgs("ucop").
			WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}).AddRow(int64(1), "ucop"))

		row, err := repo.FindBySlug(ctx, "ucop", nil)

		require.NoError(t, err)
		require.NotNil(t, row)
		assert.Equal(t, "ucop", row["slug"])
	})

	t.Run("scoped lookup binds parent id", func(t *testing.T) {
		parent := int64(1)
		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT * FROM organizations WHERE slug = $1 AND parent_id = $2")).
			WithArgs("audit", parent).
			WillReturnRows(sqlmock.NewRows([]string{"id", "slug"}))

		row, err := repo.FindBySlug(ctx, "audit", &parent)

		assert.NoError(t, err)
		assert.Nil(t, row)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsDescendants(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newOrgMock(t)
	defer done()

	t.Run("subtree ordered by depth then name", func(t *testing.T) {
		mock.ExpectQuery("WITH RECURSIVE descendants AS").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hierarchy_level"}).
				AddRow(int64(2), "CS Department", 1).
				AddRow(int64(4), "Physics Department", 1).
				AddRow(int64(3), "AI Lab", 2))

		rows, err := repo.Descendants(ctx, 1)

		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "CS Department", rows[0]["name"])
		assert.Equal(t, "AI Lab", rows[2]["name"])
	})

	t.Run("leaf yields empty slice", func(t *testing.T) {
		mock.ExpectQuery("WITH RECURSIVE descendants AS").
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hierarchy_level"}))

		rows, err := repo.Descendants(ctx, 3)

		assert.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsAncestors(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newOrgMock(t)
	defer done()

	mock.ExpectQuery("WITH RECURSIVE ancestors AS").
		WithArgs(int64(3), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hierarchy_level"}).
			AddRow(int64(1), "UC Berkeley", 0).
			AddRow(int64(2), "CS Department", 1))

	rows, err := repo.Ancestors(ctx, 3)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	// root first, the organization itself excluded
	assert.Equal(t, "UC Berkeley", rows[0]["name"])
	assert.Equal(t, "CS Department", rows[1]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsFullHierarchyPath(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newOrgMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM organizations WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(3), "AI Lab"))
	mock.ExpectQuery("WITH RECURSIVE ancestors AS").
		WithArgs(int64(3), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hierarchy_level"}).
			AddRow(int64(1), "UC Berkeley", 0).
			AddRow(int64(2), "CS Department", 1))

	path, err := repo.FullHierarchyPath(ctx, 3)

	require.NoError(t, err)
	assert.Equal(t, "UC Berkeley > CS Department > AI Lab", path)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrganizationsSetParent(t *testing.T) {
	ctx := context.Background()

	t.Run("self parent rejected before touching the row", func(t *testing.T) {
		repo, mock, done := newOrgMock(t)
		defer done()

		self := int64(5)
		ok, err := repo.SetParent(ctx, 5, &self)

		assert.False(t, ok)
		var cv *database.ConstraintViolation
		require.ErrorAs(t, err, &cv)
		assert.Equal(t, "set_parent", cv.Op)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("multi-hop cycle rejected", func(t *testing.T) {
		repo, mock, done := newOrgMock(t)
		defer done()

		// moving 1 under 3 while 1 is already an ancestor of 3
		mock.ExpectQuery("WITH RECURSIVE ancestors AS").
			WithArgs(int64(3), int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hierarchy_level"}).
				AddRow(int64(1), "UC Berkeley", 0).
				AddRow(int64(2), "CS Department", 1))

		parent := int64(3)
		ok, err := repo.SetParent(ctx, 1, &parent)

		assert.False(t, ok)
		var cv *database.ConstraintViolation
		require.ErrorAs(t, err, &cv)
		assert.Equal(t, "organizations_hierarchy_acyclic", cv.Constraint)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("legal move updates parent_id", func(t *testing.T) {
		repo, mock, done := newOrgMock(t)
		defer done()

		mock.ExpectQuery("WITH RECURSIVE ancestors AS").
			WithArgs(int64(2), int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "hierarchy_level"}).
				AddRow(int64(1), "UC Berkeley", 0))
		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE organizations SET parent_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2")).
			WithArgs(int64(2), int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		parent := int64(2)
		ok, err := repo.SetParent(ctx, 9, &parent)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil parent detaches to root", func(t *testing.T) {
		repo, mock, done := newOrgMock(t)
		defer done()

		mock.ExpectExec(regexp.QuoteMeta(
			"UPDATE organizations SET parent_id = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2")).
			WithArgs(nil, int64(9)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.SetParent(ctx, 9, nil)

		assert.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestOrganizationsUpsertKeyChoice(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newOrgMock(t)
	defer done()

	t.Run("directory path wins as dedup key", func(t *testing.T) {
		mock.ExpectQuery("ON CONFLICT \\(directory_path\\)").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		_, err := repo.UpsertOrganization(ctx, map[string]any{
			"slug":           "ucla",
			"name":           "UCLA",
			"directory_path": "campuses/ucla",
		})
		assert.NoError(t, err)
	})

	t.Run("falls back to parent and slug", func(t *testing.T) {
		mock.ExpectQuery("ON CONFLICT \\(parent_id, slug\\)").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

		_, err := repo.UpsertOrganization(ctx, map[string]any{
			"slug":      "ucla",
			"name":      "UCLA",
			"parent_id": int64(1),
		})
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
