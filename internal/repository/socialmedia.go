package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"orgdir/internal/database"
	"orgdir/internal/model"
)

// SocialMedias owns the polymorphic social_media table: platform profiles
// belonging to either a person or an organization.
type SocialMedias struct {
	*Base
}

// NewSocialMedias creates the social media repository.
func NewSocialMedias(db *sql.DB) *SocialMedias {
	return &SocialMedias{Base: NewBase(db, "social_media")}
}

// ByEntity returns an entity's profiles, optionally filtered by platform.
func (r *SocialMedias) ByEntity(ctx context.Context, ref model.EntityRef, platform *model.Platform) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	b := database.NewSelect("social_media").
		Where("entity_type", "=", string(ref.Kind)).
		Where("entity_id", "=", ref.ID).
		OrderBy("is_verified", "DESC")
	if platform != nil {
		b.Where("platform", "=", string(*platform)).
			OrderBy("is_active", "DESC").
			OrderBy("created_at", "ASC")
	} else {
		b.OrderBy("is_active", "DESC").
			OrderBy("platform", "ASC")
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Verified returns an entity's platform-verified profiles.
func (r *SocialMedias) Verified(ctx context.Context, ref model.EntityRef) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM social_media
		WHERE entity_type = $1
		AND entity_id = $2
		AND is_verified = TRUE
		ORDER BY platform`, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// Active returns an entity's active profiles.
func (r *SocialMedias) Active(ctx context.Context, ref model.EntityRef) ([]model.Row, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM social_media
		WHERE entity_type = $1
		AND entity_id = $2
		AND is_active = TRUE
		ORDER BY is_verified DESC, platform`, string(ref.Kind), ref.ID)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// FindByHandle reverse-looks-up profiles by handle, case-insensitively,
// optionally narrowed to one platform.
func (r *SocialMedias) FindByHandle(ctx context.Context, handle string, platform *model.Platform) ([]model.Row, error) {
	b := database.NewSelect("social_media").
		Where("LOWER(handle)", "=", strings.ToLower(handle))
	if platform != nil {
		b.Where("platform", "=", string(*platform))
	}
	query, args := b.Build()

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// FindByURL returns the profile at the given URL, or (nil, nil).
func (r *SocialMedias) FindByURL(ctx context.Context, profileURL string) (model.Row, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT * FROM social_media
		WHERE profile_url = $1
		LIMIT 1`, profileURL)
	if err != nil {
		return nil, err
	}
	return scanOne(rows)
}

// Search finds profiles by partial handle or display-name match, most
// followed first.
func (r *SocialMedias) Search(ctx context.Context, query string, entityKind *model.EntityKind, platform *model.Platform, verifiedOnly bool, limit int) ([]model.Row, error) {
	like := "%" + strings.ToLower(query) + "%"
	where := []string{"(LOWER(handle) LIKE $1 OR LOWER(display_name) LIKE $2)"}
	args := []any{like, like}

	if entityKind != nil {
		args = append(args, string(*entityKind))
		where = append(where, fmt.Sprintf("entity_type = $%d", len(args)))
	}
	if platform != nil {
		args = append(args, string(*platform))
		where = append(where, fmt.Sprintf("platform = $%d", len(args)))
	}
	if verifiedOnly {
		where = append(where, "is_verified = TRUE")
	}

	args = append(args, limit)
	stmt := fmt.Sprintf(`
		SELECT * FROM social_media
		WHERE %s
		ORDER BY is_verified DESC, follower_count DESC NULLS LAST
		LIMIT $%d`, strings.Join(where, " AND "), len(args))

	rows, err := r.q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	return scanRows(rows)
}

// ByPlatform lists profiles on one platform across all entities.
func (r *SocialMedias) ByPlatform(ctx context.Context, platform model.Platform, verifiedOnly bool, limit int) ([]model.Row, error) {
	b := database.NewSelect("social_media").
		Where("platform", "=", string(platform)).
		OrderBy("follower_count", "DESC NULLS LAST")
	if verifiedOnly {
		b.Where("is_verified", "=", true)
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

// UpsertProfile inserts or updates a profile keyed by
// (entity_type, entity_id, platform, profile_url).
func (r *SocialMedias) UpsertProfile(ctx context.Context, ref model.EntityRef, platform model.Platform, profileURL string, extra model.Row) (int64, error) {
	if err := ref.Validate(); err != nil {
		return 0, err
	}

	data := model.Row{
		"entity_type": string(ref.Kind),
		"entity_id":   ref.ID,
		"platform":    string(platform),
		"profile_url": profileURL,
	}
	for k, v := range extra {
		data[k] = v
	}

	return r.Upsert(ctx, []string{"entity_type", "entity_id", "platform", "profile_url"}, data)
}
