package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategoryMock(t *testing.T) (*Categories, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewCategories(db), mock, func() { db.Close() }
}

func TestCategoriesFindBySlug(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCategoryMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM categories WHERE slug = $1")).
		WithArgs("campuses").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "slug"}).
			AddRow(int64(2), "Campuses", "campuses"))

	row, err := repo.FindBySlug(ctx, "campuses")

	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Campuses", row["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoriesSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("fresh database inserts all", func(t *testing.T) {
		repo, mock, done := newCategoryMock(t)
		defer done()

		for range seedCategories {
			mock.ExpectExec("INSERT INTO categories").
				WillReturnResult(sqlmock.NewResult(1, 1))
		}

		n, err := repo.Seed(ctx)

		require.NoError(t, err)
		assert.Equal(t, len(seedCategories), n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing slugs are left alone", func(t *testing.T) {
		repo, mock, done := newCategoryMock(t)
		defer done()

		// first slug already present, conflict does nothing
		mock.ExpectExec("INSERT INTO categories").
			WillReturnResult(sqlmock.NewResult(0, 0))
		for range seedCategories[1:] {
			mock.ExpectExec("INSERT INTO categories").
				WillReturnResult(sqlmock.NewResult(1, 1))
		}

		n, err := repo.Seed(ctx)

		require.NoError(t, err)
		assert.Equal(t, len(seedCategories)-1, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCategoriesUpsertCategory(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCategoryMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO categories (description, name, slug) VALUES ($1, $2, $3) " +
			"ON CONFLICT (slug) DO UPDATE SET description = EXCLUDED.description, " +
			"name = EXCLUDED.name, updated_at = CURRENT_TIMESTAMP RETURNING id")).
		WithArgs("National Laboratory organizations", "Labs", "labs").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := repo.UpsertCategory(ctx, "labs", "Labs", "National Laboratory organizations")

	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
