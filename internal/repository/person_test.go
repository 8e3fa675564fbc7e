package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgdir/internal/model"
)

func newPeopleMock(t *testing.T) (*People, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPeople(db), mock, func() { db.Close() }
}

func TestPeopleFindByName(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newPeopleMock(t)
	defer done()

	t.Run("no names short-circuits without a query", func(t *testing.T) {
		rows, err := repo.FindByName(ctx, "", "", 10)

		assert.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("both names match case-insensitively", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT * FROM people WHERE LOWER(first_name) LIKE $1 AND LOWER(last_name) LIKE $2 "+
				"ORDER BY last_name ASC, first_name ASC LIMIT $3")).
			WithArgs("%ada%", "%lovelace%", 10).
			WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name"}).
				AddRow(int64(1), "Ada", "Lovelace"))

		rows, err := repo.FindByName(ctx, "Ada", "Lovelace", 10)

		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Lovelace", rows[0]["last_name"])
	})

	t.Run("last name only", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("LOWER(last_name) LIKE $1")).
			WithArgs("%hopper%", 5).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByName(ctx, "", "Hopper", 5)
		assert.NoError(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeopleSearchFullText(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newPeopleMock(t)
	defer done()

	mock.ExpectQuery("plainto_tsquery").
		WithArgs("ada lovelace", "ada lovelace", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "relevance"}).
			AddRow(int64(1), "Ada", 0.6))

	rows, err := repo.SearchFullText(ctx, "ada lovelace", 20)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeopleWithAffiliations(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newPeopleMock(t)
	defer done()

	t.Run("affiliations attached", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM people WHERE id = $1")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "first_name"}).AddRow(int64(1), "Ada"))
		mock.ExpectQuery("FROM person_organizations po").
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "org_name", "title"}).
				AddRow(int64(10), "CS Department", "Professor"))

		person, err := repo.WithAffiliations(ctx, 1)

		require.NoError(t, err)
		require.NotNil(t, person)
		affiliations, ok := person["affiliations"].([]model.Row)
		require.True(t, ok)
		require.Len(t, affiliations, 1)
		assert.Equal(t, "Professor", affiliations[0]["title"])
	})

	t.Run("unknown person is nil", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM people WHERE id = $1")).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		person, err := repo.WithAffiliations(ctx, 404)

		assert.NoError(t, err)
		assert.Nil(t, person)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeopleUpsertPerson(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newPeopleMock(t)
	defer done()

	mock.ExpectQuery("ON CONFLICT \\(first_name, last_name\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	id, err := repo.UpsertPerson(ctx, model.Row{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"bio":        "mathematician",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
