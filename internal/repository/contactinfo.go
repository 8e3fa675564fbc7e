package repository

import (
	"context"
	"database/sql"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// ContactInfos owns the polymorphic contact_info table: emails, phones and
// addresses belonging to either a person or an organization. The repository
// validates the entity tag but not that the referenced row exists; integrity
// across the tag is the caller's responsibility.
type ContactInfos struct {
	*Base
}

// NewContactInfos creates the contact info repository.
func NewContactInfos(db *sql.DB) *ContactInfos {
	return &ContactInfos{Base: NewBase(db, "contact_info")}
}

// ByEntity returns an entity's contact records, primary first, optionally
// filtered by contact type.
func (r *ContactInfos) ByEntity(ctx context.Context, ref model.EntityRef, contactType *model.ContactType) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	b := database.NewSelect("contact_info").
		Where("entity_type", "=", string(ref.Kind)).
		Where("entity_id", "=", ref.ID).
		OrderBy("is_primary", "DESC").
		OrderBy("contact_type", "ASC").
		OrderBy("created_at", "ASC")
	if contactType != nil {
		b.Where("contact_type", "=", string(*contactType))
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Primary returns the entity's primary contact of the given type, or (nil, nil).
func (r *ContactInfos) Primary(ctx context.Context, ref model.EntityRef, contactType model.ContactType) (model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM contact_info
		WHERE entity_type = $1
		AND entity_id = $2
		AND contact_type = $3
		AND is_primary = TRUE
		LIMIT 1`, string(ref.Kind), ref.ID, string(contactType))
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// Public returns an entity's publicly visible contact records.
func (r *ContactInfos) Public(ctx context.Context, ref model.EntityRef) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM contact_info
		WHERE entity_type = $1
		AND entity_id = $2
		AND is_public = TRUE
		ORDER BY is_primary DESC, contact_type`, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// FindByValue reverse-looks-up contact records by exact value, e.g. find the
// person behind an email address.
func (r *ContactInfos) FindByValue(ctx context.Context, contactValue string, entityKind *model.EntityKind) ([]model.Row, error) {
	b := database.NewSelect("contact_info").
		Where("contact_value", "=", contactValue)
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

// Search finds contact records by partial value match, bounded by limit.
func (r *ContactInfos) Search(ctx context.Context, query string, entityKind *model.EntityKind, contactType *model.ContactType, limit int) ([]model.Row, error) {
	b := database.NewSelect("contact_info").
		Where("LOWER(contact_value)", "LIKE", "%"+strings.ToLower(query)+"%").
		OrderBy("is_primary", "DESC").
		OrderBy("entity_type", "ASC").
		OrderBy("entity_id", "ASC").
		Limit(limit)
	if entityKind != nil {
		b.Where("entity_type", "=", string(*entityKind))
	}
	if contactType != nil {
		b.Where("contact_type", "=", string(*contactType))
	}
	stmt, args := b.Build()

	rows, err := r.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// UpsertContact inserts or updates a contact record keyed by
// (entity_type, entity_id, contact_type, contact_value).
func (r *ContactInfos) UpsertContact(ctx context.Context, ref model.EntityRef, contactType model.ContactType, contactValue string, extra model.Row) (int64, error) {
	if err := ref.Validate(); err != nil {
		return 0, err
	}

	data := model.Row{
		"entity_type":   string(ref.Kind),
		"entity_id":     ref.ID,
		"contact_type":  string(contactType),
		"contact_value": contactValue,
	}
	for k, v := range extra {
		data[k] = v
	}

	return r.Upsert(ctx, []string{"entity_type", "entity_id", "contact_type", "contact_value"}, data)
}
