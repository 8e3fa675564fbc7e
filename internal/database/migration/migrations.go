package migration

import (
	"context"
	"database/sql"
)

var all = []Migration{
	{
		Version:     "001",
		Description: "initial schema",
		Up:          initialSchemaUp,
		Down:        initialSchemaDown,
	},
}

func execAll(ctx context.Context, tx *sql.Tx, statements []string) error {
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func initialSchemaUp(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id SERIAL PRIMARY KEY,
			name VARCHAR(100) UNIQUE NOT NULL,
			slug VARCHAR(100) UNIQUE NOT NULL,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS organizations (
			id SERIAL PRIMARY KEY,
			parent_id INTEGER REFERENCES organizations(id) ON DELETE CASCADE,
			category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) NOT NULL,
			description TEXT,
			directory_path VARCHAR(500) UNIQUE,
			main_url VARCHAR(500),
			hierarchy_level INTEGER DEFAULT 0,
			full_path TEXT,
			start_date DATE,
			end_date DATE,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(parent_id, slug),
			CHECK (parent_id != id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_parent ON organizations(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_category ON organizations(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_directory_path ON organizations(directory_path)`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_slug ON organizations(slug)`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_active ON organizations(is_active) WHERE is_active = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_organizations_hierarchy_level ON organizations(hierarchy_level)`,

		`CREATE TABLE IF NOT EXISTS people (
			id SERIAL PRIMARY KEY,
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			middle_name VARCHAR(100),
			preferred_name VARCHAR(100),
			bio TEXT,
			photo_url VARCHAR(500),
			profile_url VARCHAR(500),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_people_last_name ON people(last_name)`,
		`CREATE INDEX IF NOT EXISTS idx_people_first_name ON people(first_name)`,
		`CREATE INDEX IF NOT EXISTS idx_people_full_name ON people(last_name, first_name)`,
		`CREATE INDEX IF NOT EXISTS idx_people_name_search ON people USING gin(
			to_tsvector('english',
				COALESCE(first_name, '') || ' ' ||
				COALESCE(middle_name, '') || ' ' ||
				COALESCE(last_name, '') || ' ' ||
				COALESCE(preferred_name, '')
			)
		)`,

		`CREATE TABLE IF NOT EXISTS person_organizations (
			id SERIAL PRIMARY KEY,
			person_id INTEGER NOT NULL REFERENCES people(id) ON DELETE CASCADE,
			organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
			title VARCHAR(255),
			title_normalized VARCHAR(255),
			position_type VARCHAR(50),
			start_date DATE,
			end_date DATE,
			is_current BOOLEAN GENERATED ALWAYS AS (end_date IS NULL) STORED,
			is_primary_affiliation BOOLEAN DEFAULT FALSE,
			is_public BOOLEAN DEFAULT TRUE,
			data_source VARCHAR(100),
			scraped_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(person_id, organization_id, start_date),
			CHECK (end_date IS NULL OR end_date >= start_date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_person_orgs_person ON person_organizations(person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_person_orgs_organization ON person_organizations(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_person_orgs_current ON person_organizations(is_current) WHERE is_current = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_person_orgs_primary ON person_organizations(is_primary_affiliation) WHERE is_primary_affiliation = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_person_orgs_date_range ON person_organizations(start_date, end_date)`,

		`CREATE TABLE IF NOT EXISTS compensation (
			id SERIAL PRIMARY KEY,
			person_id INTEGER REFERENCES people(id) ON DELETE CASCADE,
			organization_id INTEGER REFERENCES organizations(id) ON DELETE CASCADE,
			source_employee_id INTEGER,
			source_record_id INTEGER,
			source_location VARCHAR(100),
			fiscal_year INTEGER NOT NULL,
			effective_start_date DATE,
			effective_end_date DATE,
			base_pay DECIMAL(12,2),
			overtime_pay DECIMAL(12,2),
			adjustment_pay DECIMAL(12,2),
			bonus_pay DECIMAL(12,2),
			other_pay DECIMAL(12,2),
			gross_pay DECIMAL(12,2),
			benefits_value DECIMAL(12,2),
			total_compensation DECIMAL(12,2),
			currency VARCHAR(3) DEFAULT 'USD',
			title VARCHAR(255),
			title_normalized VARCHAR(255),
			position_type VARCHAR(50),
			data_source VARCHAR(100),
			scraped_at TIMESTAMP,
			uploaded_at TIMESTAMP,
			is_verified BOOLEAN DEFAULT FALSE,
			is_public BOOLEAN DEFAULT TRUE,
			is_historical BOOLEAN DEFAULT FALSE,
			original_publish_date DATE,
			notes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(source_employee_id, source_location, fiscal_year),
			CHECK (base_pay >= 0),
			CHECK (gross_pay >= 0),
			CHECK (fiscal_year >= 1900 AND fiscal_year <= 2100)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_compensation_person ON compensation(person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_compensation_organization ON compensation(organization_id)`,
		`CREATE INDEX IF NOT EXISTS idx_compensation_fiscal_year ON compensation(fiscal_year)`,
		`CREATE INDEX IF NOT EXISTS idx_compensation_source ON compensation(source_employee_id, source_location)`,
		`CREATE INDEX IF NOT EXISTS idx_compensation_public ON compensation(is_public) WHERE is_public = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_compensation_gross_pay ON compensation(gross_pay) WHERE gross_pay IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS contact_info (
			id SERIAL PRIMARY KEY,
			entity_type VARCHAR(50) NOT NULL,
			entity_id INTEGER NOT NULL,
			contact_type VARCHAR(50) NOT NULL,
			contact_value TEXT NOT NULL,
			contact_label VARCHAR(100),
			extension VARCHAR(20),
			country_code VARCHAR(10),
			is_primary BOOLEAN DEFAULT FALSE,
			is_public BOOLEAN DEFAULT TRUE,
			is_verified BOOLEAN DEFAULT FALSE,
			data_source VARCHAR(100),
			scraped_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (entity_type IN ('person', 'organization')),
			CHECK (contact_type IN ('email', 'phone', 'mobile', 'office', 'fax', 'address', 'other')),
			UNIQUE(entity_type, entity_id, contact_type, contact_value)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_info_entity ON contact_info(entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_info_type ON contact_info(contact_type)`,
		`CREATE INDEX IF NOT EXISTS idx_contact_info_primary ON contact_info(is_primary) WHERE is_primary = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_contact_info_public ON contact_info(is_public) WHERE is_public = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_contact_info_value ON contact_info(contact_value)`,

		`CREATE TABLE IF NOT EXISTS social_media (
			id SERIAL PRIMARY KEY,
			entity_type VARCHAR(50) NOT NULL,
			entity_id INTEGER NOT NULL,
			platform VARCHAR(50) NOT NULL,
			handle VARCHAR(255),
			profile_url VARCHAR(500) NOT NULL,
			display_name VARCHAR(255),
			follower_count INTEGER,
			following_count INTEGER,
			last_post_date DATE,
			is_verified BOOLEAN DEFAULT FALSE,
			is_active BOOLEAN DEFAULT TRUE,
			is_public BOOLEAN DEFAULT TRUE,
			data_source VARCHAR(100),
			scraped_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (entity_type IN ('person', 'organization')),
			CHECK (platform IN (
				'linkedin', 'twitter', 'x', 'instagram', 'facebook',
				'youtube', 'github', 'google_calendar', 'reddit',
				'tiktok', 'mastodon', 'bluesky', 'other'
			)),
			UNIQUE(entity_type, entity_id, platform, profile_url)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_social_media_entity ON social_media(entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_social_media_platform ON social_media(platform)`,
		`CREATE INDEX IF NOT EXISTS idx_social_media_verified ON social_media(is_verified) WHERE is_verified = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_social_media_handle ON social_media(handle)`,
		`CREATE INDEX IF NOT EXISTS idx_social_media_url ON social_media(profile_url)`,

		`CREATE TABLE IF NOT EXISTS data_sources (
			id SERIAL PRIMARY KEY,
			entity_type VARCHAR(50) NOT NULL,
			entity_id INTEGER NOT NULL,
			source_type VARCHAR(50) NOT NULL,
			source_url VARCHAR(500),
			source_name VARCHAR(255),
			source_description TEXT,
			scraper_name VARCHAR(100),
			scraper_version VARCHAR(50),
			scraped_at TIMESTAMP,
			import_batch_id VARCHAR(100),
			import_file_name VARCHAR(255),
			imported_at TIMESTAMP,
			confidence_level VARCHAR(20),
			is_verified BOOLEAN DEFAULT FALSE,
			verified_by VARCHAR(255),
			verified_at TIMESTAMP,
			is_public_record BOOLEAN DEFAULT FALSE,
			license VARCHAR(100),
			terms_url VARCHAR(500),
			last_checked_at TIMESTAMP,
			next_check_at TIMESTAMP,
			check_frequency_days INTEGER,
			notes TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			CHECK (source_type IN (
				'web_scrape', 'api', 'public_records',
				'manual_entry', 'import', 'derived', 'other'
			)),
			CHECK (confidence_level IN ('high', 'medium', 'low', 'unknown'))
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_data_sources_entity_url ON data_sources(entity_type, entity_id, source_url)`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_entity ON data_sources(entity_type, entity_id)`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_type ON data_sources(source_type)`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_scraper ON data_sources(scraper_name)`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_batch ON data_sources(import_batch_id)`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_verified ON data_sources(is_verified) WHERE is_verified = TRUE`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_scraped_at ON data_sources(scraped_at)`,
		`CREATE INDEX IF NOT EXISTS idx_data_sources_next_check ON data_sources(next_check_at) WHERE next_check_at IS NOT NULL`,
	})
}

func initialSchemaDown(ctx context.Context, tx *sql.Tx) error {
	return execAll(ctx, tx, []string{
		`DROP TABLE IF EXISTS data_sources CASCADE`,
		`DROP TABLE IF EXISTS social_media CASCADE`,
		`DROP TABLE IF EXISTS contact_info CASCADE`,
		`DROP TABLE IF EXISTS compensation CASCADE`,
		`DROP TABLE IF EXISTS person_organizations CASCADE`,
		`DROP TABLE IF EXISTS people CASCADE`,
		`DROP TABLE IF EXISTS organizations CASCADE`,
		`DROP TABLE IF EXISTS categories CASCADE`,
	})
}
