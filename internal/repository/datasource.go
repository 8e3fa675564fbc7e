package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// DataSources owns the polymorphic data_sources table: provenance records
// describing where each entity's data came from and when it should be
// checked again.
type DataSources struct {
	*Base
}

// NewDataSources creates the data source repository.
func NewDataSources(db *sql.DB) *DataSources {
	return &DataSources{Base: NewBase(db, "data_sources")}
}

// ByEntity returns an entity's provenance records, most recently scraped
// first, optionally filtered by source type.
func (r *DataSources) ByEntity(ctx context.Context, ref model.EntityRef, sourceType *model.SourceType) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	b := database.NewSelect("data_sources").
		Where("entity_type", "=", string(ref.Kind)).
		Where("entity_id", "=", ref.ID).
		OrderBy("scraped_at", "DESC NULLS LAST").
		OrderBy("created_at", "DESC")
	if sourceType != nil {
		b.Where("source_type", "=", string(*sourceType))
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Verified returns an entity's verified provenance records.
func (r *DataSources) Verified(ctx context.Context, ref model.EntityRef) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM data_sources
		WHERE entity_type = $1
		AND entity_id = $2
		AND is_verified = TRUE
		ORDER BY verified_at DESC`, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ByScraper returns every record collected by the named scraper.
func (r *DataSources) ByScraper(ctx context.Context, scraperName string, limit int) ([]model.Row, error) {
	b := database.NewSelect("data_sources").
		Where("scraper_name", "=", scraperName).
		OrderBy("scraped_at", "DESC")
	if limit > 0 {
		b.Limit(limit)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ByImportBatch returns every record from one import batch.
func (r *DataSources) ByImportBatch(ctx context.Context, batchID string) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM data_sources
		WHERE import_batch_id = $1
		ORDER BY imported_at, entity_type, entity_id`, batchID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// NewImportBatchID mints an identifier grouping records imported together.
func NewImportBatchID() string {
	return uuid.NewString()
}

// NeedingRefresh returns records whose next_check_at has elapsed, most
// overdue first.
func (r *DataSources) NeedingRefresh(ctx context.Context, limit int) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM data_sources
		WHERE next_check_at IS NOT NULL
		AND next_check_at <= NOW()
		ORDER BY next_check_at
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// PublicRecords returns records sourced from public records, optionally
// filtered by entity kind.
func (r *DataSources) PublicRecords(ctx context.Context, entityKind *model.EntityKind, limit int) ([]model.Row, error) {
	b := database.NewSelect("data_sources").
		Where("is_public_record", "=", true).
		OrderBy("scraped_at", "DESC")
	if entityKind != nil {
		b.Where("entity_type", "=", string(*entityKind))
	}
	if limit > 0 {
		b.Limit(limit)
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ByConfidence returns records at one confidence level.
func (r *DataSources) ByConfidence(ctx context.Context, level model.ConfidenceLevel, entityKind *model.EntityKind, limit int) ([]model.Row, error) {
	b := database.NewSelect("data_sources").
		Where("confidence_level", "=", string(level)).
		OrderBy("scraped_at", "DESC").
		Limit(limit)
	if entityKind != nil {
		b.Where("entity_type", "=", string(*entityKind))
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// SearchByURL finds records by partial source-URL match, bounded by limit.
func (r *DataSources) SearchByURL(ctx context.Context, urlQuery string, limit int) ([]model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM data_sources
		WHERE LOWER(source_url) LIKE $1
		ORDER BY scraped_at DESC
		LIMIT $2`, "%"+strings.ToLower(urlQuery)+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Statistics aggregates counts across all provenance records.
func (r *DataSources) Statistics(ctx context.Context) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT
			COUNT(*) AS total_sources,
			COUNT(DISTINCT entity_type) AS entity_types_count,
			COUNT(DISTINCT scraper_name) AS scrapers_count,
			COUNT(DISTINCT import_batch_id) AS import_batches_count,
			SUM(CASE WHEN is_verified THEN 1 ELSE 0 END) AS verified_count,
			SUM(CASE WHEN is_public_record THEN 1 ELSE 0 END) AS public_record_count
		FROM data_sources`)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// MarkVerified records who verified a source and when.
func (r *DataSources) MarkVerified(ctx context.Context, sourceID int64, verifiedBy string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE data_sources
		SET is_verified = TRUE,
			verified_by = $1,
			verified_at = NOW(),
			updated_at = NOW()
		WHERE id = $2`, verifiedBy, sourceID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ScheduleNextCheck stamps last_checked_at and recomputes next_check_at as
// now plus the given number of days.
func (r *DataSources) ScheduleNextCheck(ctx context.Context, sourceID int64, frequencyDays int) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE data_sources
		SET check_frequency_days = $1,
			next_check_at = NOW() + make_interval(days => $1),
			last_checked_at = NOW(),
			updated_at = NOW()
		WHERE id = $2`, frequencyDays, sourceID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpsertSource records provenance for an entity. With a source URL the
// record is deduplicated on (entity_type, entity_id, source_url); without
// one the table is append-only, multiple unlinked sources are permitted.
func (r *DataSources) UpsertSource(ctx context.Context, ref model.EntityRef, sourceType model.SourceType, sourceURL string, extra model.Row) (int64, error) {
	if err := ref.Validate(); err != nil {
		return 0, err
	}

	data := model.Row{
		"entity_type": string(ref.Kind),
		"entity_id":   ref.ID,
		"source_type": string(sourceType),
	}
	for k, v := range extra {
		data[k] = v
	}
	if _, ok := data["confidence_level"]; !ok {
		data["confidence_level"] = string(model.ConfidenceUnknown)
	}

	if sourceURL == "" {
		return r.Create(ctx, data)
	}
	data["source_url"] = sourceURL
	return r.Upsert(ctx, []string{"entity_type", "entity_id", "source_url"}, data)
}
