package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgdir/internal/model"
)

func newSourceMock(t *testing.T) (*DataSources, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewDataSources(db), mock, func() { db.Close() }
}

func TestDataSourcesUpsertSource(t *testing.T) {
	ctx := context.Background()

	t.Run("with url deduplicates on entity and url", func(t *testing.T) {
		repo, mock, done := newSourceMock(t)
		defer done()

		mock.ExpectQuery("ON CONFLICT \\(entity_type, entity_id, source_url\\)").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

		id, err := repo.UpsertSource(ctx,
			model.EntityRef{Kind: model.KindPerson, ID: 7},
			model.SourceWebScrape, "https://directory.example.edu/ada",
			model.Row{"scraper_name": "ucop_directory"})

		require.NoError(t, err)
		assert.Equal(t, int64(1), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without url appends a new record", func(t *testing.T) {
		repo, mock, done := newSourceMock(t)
		defer done()

		want := regexp.QuoteMeta(
			"INSERT INTO data_sources (confidence_level, entity_id, entity_type, source_type) " +
				"VALUES ($1, $2, $3, $4) RETURNING id")
		mock.ExpectQuery(want).
			WithArgs("unknown", int64(7), "person", "manual_entry").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

		id, err := repo.UpsertSource(ctx,
			model.EntityRef{Kind: model.KindPerson, ID: 7},
			model.SourceManualEntry, "", nil)

		require.NoError(t, err)
		assert.Equal(t, int64(2), id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("caller confidence level is kept", func(t *testing.T) {
		repo, mock, done := newSourceMock(t)
		defer done()

		mock.ExpectQuery("INSERT INTO data_sources").
			WithArgs("high", int64(7), "person", "api").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

		_, err := repo.UpsertSource(ctx,
			model.EntityRef{Kind: model.KindPerson, ID: 7},
			model.SourceAPI, "",
			model.Row{"confidence_level": string(model.ConfidenceHigh)})

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid ref rejected", func(t *testing.T) {
		repo, _, done := newSourceMock(t)
		defer done()

		_, err := repo.UpsertSource(ctx, model.EntityRef{Kind: "widget", ID: 1}, model.SourceAPI, "", nil)
		assert.Error(t, err)
	})
}

func TestDataSourcesScheduleNextCheck(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newSourceMock(t)
	defer done()

	mock.ExpectExec("make_interval\\(days => \\$1\\)").
		WithArgs(30, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.ScheduleNextCheck(ctx, 5, 30)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDataSourcesMarkVerified(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newSourceMock(t)
	defer done()

	mock.ExpectExec("UPDATE data_sources").
		WithArgs("curator@example.edu", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkVerified(ctx, 5, "curator@example.edu")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDataSourcesNeedingRefresh(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newSourceMock(t)
	defer done()

	mock.ExpectQuery("next_check_at <= NOW\\(\\)").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "source_url"}).
			AddRow(int64(1), "https://a").
			AddRow(int64(2), "https://b"))

	rows, err := repo.NeedingRefresh(ctx, 10)

	require.NoError(t, err)
	assert.Len(t, rows, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewImportBatchID(t *testing.T) {
	a := NewImportBatchID()
	b := NewImportBatchID()

	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}
