package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompensationMock(t *testing.T) (*Compensations, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewCompensations(db), mock, func() { db.Close() }
}

func TestCompensationsByOrganization(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCompensationMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT c.*, p.first_name, p.last_name FROM compensation c "+
			"LEFT JOIN people p ON c.person_id = p.id "+
			"WHERE c.organization_id = $1 "+
			"ORDER BY c.gross_pay DESC, c.fiscal_year DESC LIMIT $2")).
		WithArgs(int64(3), 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "gross_pay", "last_name"}).
			AddRow(int64(1), "250000.00", "Chancellor").
			AddRow(int64(2), "180000.00", "Provost"))

	rows, err := repo.ByOrganization(ctx, 3, nil, 2)

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "250000.00", rows[0]["gross_pay"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompensationsBySource(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCompensationMock(t)
	defer done()

	t.Run("with fiscal year", func(t *testing.T) {
		year := 2024
		mock.ExpectQuery("AND fiscal_year = \\$3").
			WithArgs(int64(5551), "Berkeley", year).
			WillReturnRows(sqlmock.NewRows([]string{"id", "fiscal_year"}).
				AddRow(int64(9), 2024))

		row, err := repo.BySource(ctx, 5551, "Berkeley", &year)

		require.NoError(t, err)
		require.NotNil(t, row)
	})

	t.Run("without fiscal year takes newest", func(t *testing.T) {
		mock.ExpectQuery("ORDER BY fiscal_year DESC").
			WithArgs(int64(5551), "Berkeley").
			WillReturnRows(sqlmock.NewRows([]string{"id", "fiscal_year"}).
				AddRow(int64(9), 2024))

		row, err := repo.BySource(ctx, 5551, "Berkeley", nil)

		require.NoError(t, err)
		require.NotNil(t, row)
	})

	t.Run("absent is nil without error", func(t *testing.T) {
		mock.ExpectQuery("ORDER BY fiscal_year DESC").
			WithArgs(int64(1), "Merced").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		row, err := repo.BySource(ctx, 1, "Merced", nil)

		assert.NoError(t, err)
		assert.Nil(t, row)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompensationsSalaryStatistics(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCompensationMock(t)
	defer done()

	orgID := int64(3)
	year := 2024
	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE gross_pay IS NOT NULL AND organization_id = $1 AND fiscal_year = $2")).
		WithArgs(orgID, year).
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg_gross_pay", "median_gross_pay"}).
			AddRow(int64(42), "98000.00", "91000.00"))

	stats, err := repo.SalaryStatistics(ctx, &orgID, &year)

	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, int64(42), stats["count"])
	assert.Equal(t, "91000.00", stats["median_gross_pay"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompensationsTopEarners(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCompensationMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE c.gross_pay IS NOT NULL ORDER BY c.gross_pay DESC LIMIT $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"id", "gross_pay"}).
			AddRow(int64(1), "900000.00").
			AddRow(int64(2), "750000.00").
			AddRow(int64(3), "600000.00"))

	rows, err := repo.TopEarners(ctx, nil, nil, 3)

	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompensationsSalaryRange(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCompensationMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE c.gross_pay >= $1 AND c.gross_pay <= $2")).
		WithArgs("50000", "100000", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(4)))

	rows, err := repo.SalaryRange(ctx, "50000", "100000", nil, nil, 10)

	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompensationsUpsertCompensation(t *testing.T) {
	ctx := context.Background()
	repo, mock, done := newCompensationMock(t)
	defer done()

	mock.ExpectQuery("ON CONFLICT \\(source_employee_id, source_location, fiscal_year\\)").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(77)))

	id, err := repo.UpsertCompensation(ctx, map[string]any{
		"source_employee_id": int64(5551),
		"source_location":    "Berkeley",
		"fiscal_year":        2024,
		"gross_pay":          "98000.00",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(77), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
