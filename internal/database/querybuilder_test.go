package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func() (string, []any)
		want     string
		wantArgs []any
	}{
		{
			name: "plain select",
			build: func() (string, []any) {
				return NewSelect("categories").Build()
			},
			want:     "SELECT * FROM categories",
			wantArgs: nil,
		},
		{
			name: "columns join where order limit offset",
			build: func() (string, []any) {
				return NewSelect("compensation c").
					Columns("c.*", "p.last_name").
					Join(JoinLeft, "people p", "c.person_id = p.id").
					Where("c.fiscal_year", "=", 2024).
					WhereOr("c.is_verified", "=", true).
					OrderBy("c.gross_pay", "desc").
					Limit(10).
					Offset(5).
					Build()
			},
			want: "SELECT c.*, p.last_name FROM compensation c " +
				"LEFT JOIN people p ON c.person_id = p.id " +
				"WHERE c.fiscal_year = $1 OR c.is_verified = $2 " +
				"ORDER BY c.gross_pay DESC LIMIT $3 OFFSET $4",
			wantArgs: []any{2024, true, 10, 5},
		},
		{
			name: "in expands one placeholder per element",
			build: func() (string, []any) {
				return NewSelect("people").
					WhereIn("id", []any{int64(1), int64(2), int64(3)}).
					Where("is_active", "=", true).
					Build()
			},
			want:     "SELECT * FROM people WHERE id IN ($1, $2, $3) AND is_active = $4",
			wantArgs: []any{int64(1), int64(2), int64(3), true},
		},
		{
			name: "null tests emit no parameters",
			build: func() (string, []any) {
				return NewSelect("organizations").
					WhereNull("parent_id", true).
					WhereNull("end_date", false).
					Build()
			},
			want:     "SELECT * FROM organizations WHERE parent_id IS NULL AND end_date IS NOT NULL",
			wantArgs: nil,
		},
		{
			name: "group by and having",
			build: func() (string, []any) {
				return NewSelect("compensation").
					Columns("fiscal_year", "COUNT(*) AS n").
					GroupBy("fiscal_year").
					Having("COUNT(*)", ">", 5).
					OrderBy("fiscal_year", "ASC").
					Build()
			},
			want: "SELECT fiscal_year, COUNT(*) AS n FROM compensation " +
				"GROUP BY fiscal_year HAVING COUNT(*) > $1 ORDER BY fiscal_year ASC",
			wantArgs: []any{5},
		},
		{
			name: "placeholders number left to right across clauses",
			build: func() (string, []any) {
				return NewSelect("data_sources").
					Where("entity_type", "=", "person").
					WhereIn("confidence_level", []any{"high", "medium"}).
					Where("is_verified", "=", true).
					Limit(20).
					Build()
			},
			want: "SELECT * FROM data_sources " +
				"WHERE entity_type = $1 AND confidence_level IN ($2, $3) AND is_verified = $4 LIMIT $5",
			wantArgs: []any{"person", "high", "medium", true, 20},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, args := tt.build()
			assert.Equal(t, tt.want, got)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.wantArgs, args)
			}
		})
	}
}

func TestInsertBuilder(t *testing.T) {
	t.Run("columns sorted for deterministic statements", func(t *testing.T) {
		data := map[string]any{"slug": "ucop", "name": "UCOP", "description": "office"}

		first, firstArgs := NewInsert("categories").Values(data).Build()
		second, secondArgs := NewInsert("categories").Values(data).Build()

		assert.Equal(t, "INSERT INTO categories (description, name, slug) VALUES ($1, $2, $3) RETURNING id", first)
		assert.Equal(t, []any{"office", "UCOP", "ucop"}, firstArgs)
		assert.Equal(t, first, second)
		assert.Equal(t, firstArgs, secondArgs)
	})

	t.Run("upsert overwrites non-key fields and refreshes updated_at", func(t *testing.T) {
		got, args := NewInsert("categories").
			Values(map[string]any{"slug": "ucop", "name": "UCOP"}).
			OnConflict([]string{"slug"}, true).
			Build()

		assert.Equal(t,
			"INSERT INTO categories (name, slug) VALUES ($1, $2) "+
				"ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, updated_at = CURRENT_TIMESTAMP "+
				"RETURNING id", got)
		assert.Equal(t, []any{"UCOP", "ucop"}, args)
	})

	t.Run("conflict without update does nothing", func(t *testing.T) {
		got, _ := NewInsert("contact_info").
			Values(map[string]any{"entity_type": "person", "entity_id": int64(7)}).
			OnConflict([]string{"entity_type", "entity_id"}, false).
			Build()

		assert.Equal(t,
			"INSERT INTO contact_info (entity_id, entity_type) VALUES ($1, $2) "+
				"ON CONFLICT (entity_type, entity_id) DO NOTHING RETURNING id", got)
	})
}
