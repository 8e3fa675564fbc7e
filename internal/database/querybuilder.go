package database

import (
	"fmt"
	"sort"
	"strings"
)

// JoinType enumerates SQL join flavors.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (j JoinType) String() string {
	switch j {
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinFull:
		return "FULL OUTER JOIN"
	default:
		return "INNER JOIN"
	}
}

type joinClause struct {
	typ   JoinType
	table string
	on    string
}

type whereClause struct {
	field     string
	operator  string
	value     any
	values    []any // for IN
	connector string
	isNull    bool
	notNull   bool
}

type orderClause struct {
	field     string
	direction string
}

// SelectBuilder composes a parameterized SELECT statement. Field and table
// names come from code, never from callers' data; all values go through
// positional placeholders, so untrusted scraped input is never interpolated
// into statement text.
type SelectBuilder struct {
	table   string
	fields  []string
	joins   []joinClause
	wheres  []whereClause
	groupBy []string
	havings []whereClause
	orders  []orderClause
	limit   *int
	offset  *int
}

// NewSelect starts a builder for the given table.
func NewSelect(table string) *SelectBuilder {
	return &SelectBuilder{table: table, fields: []string{"*"}}
}

// Columns sets the projected fields (default "*").
func (b *SelectBuilder) Columns(fields ...string) *SelectBuilder {
	b.fields = fields
	return b
}

// Join adds a typed join, e.g. Join(JoinLeft, "organizations o", "c.organization_id = o.id").
func (b *SelectBuilder) Join(typ JoinType, table, on string) *SelectBuilder {
	b.joins = append(b.joins, joinClause{typ: typ, table: table, on: on})
	return b
}

// Where adds an AND-connected predicate. The connector of the first clause is
// ignored when the statement is built.
func (b *SelectBuilder) Where(field, operator string, value any) *SelectBuilder {
	b.wheres = append(b.wheres, whereClause{field: field, operator: operator, value: value, connector: "AND"})
	return b
}

// WhereOr adds an OR-connected predicate.
func (b *SelectBuilder) WhereOr(field, operator string, value any) *SelectBuilder {
	b.wheres = append(b.wheres, whereClause{field: field, operator: operator, value: value, connector: "OR"})
	return b
}

// WhereIn adds field IN (...) with one placeholder per element.
func (b *SelectBuilder) WhereIn(field string, values []any) *SelectBuilder {
	b.wheres = append(b.wheres, whereClause{field: field, values: values, connector: "AND"})
	return b
}

// WhereNull adds an IS [NOT] NULL test. No parameter is emitted.
func (b *SelectBuilder) WhereNull(field string, isNull bool) *SelectBuilder {
	b.wheres = append(b.wheres, whereClause{field: field, connector: "AND", isNull: isNull, notNull: !isNull})
	return b
}

// GroupBy sets the grouping fields.
func (b *SelectBuilder) GroupBy(fields ...string) *SelectBuilder {
	b.groupBy = fields
	return b
}

// Having adds a HAVING predicate (AND-connected).
func (b *SelectBuilder) Having(field, operator string, value any) *SelectBuilder {
	b.havings = append(b.havings, whereClause{field: field, operator: operator, value: value, connector: "AND"})
	return b
}

// OrderBy appends an ordering term. Direction is normalized to upper case.
func (b *SelectBuilder) OrderBy(field, direction string) *SelectBuilder {
	b.orders = append(b.orders, orderClause{field: field, direction: strings.ToUpper(direction)})
	return b
}

// Limit bounds the result size.
func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = &n
	return b
}

// Offset skips the first n rows.
func (b *SelectBuilder) Offset(n int) *SelectBuilder {
	b.offset = &n
	return b
}

// Build emits the statement text and the positional parameter list. Parameter
// order matches placeholder order.
func (b *SelectBuilder) Build() (string, []any) {
	var parts []string
	var params []any
	n := 0
	next := func() string {
		n++
		return fmt.Sprintf("$%d", n)
	}

	parts = append(parts, "SELECT "+strings.Join(b.fields, ", "))
	parts = append(parts, "FROM "+b.table)

	for _, j := range b.joins {
		parts = append(parts, fmt.Sprintf("%s %s ON %s", j.typ, j.table, j.on))
	}

	if len(b.wheres) > 0 {
		var whereParts []string
		for i, c := range b.wheres {
			prefix := ""
			if i > 0 {
				prefix = c.connector + " "
			}
			switch {
			case c.isNull:
				whereParts = append(whereParts, fmt.Sprintf("%s%s IS NULL", prefix, c.field))
			case c.notNull:
				whereParts = append(whereParts, fmt.Sprintf("%s%s IS NOT NULL", prefix, c.field))
			case c.values != nil:
				placeholders := make([]string, len(c.values))
				for i := range c.values {
					placeholders[i] = next()
				}
				params = append(params, c.values...)
				whereParts = append(whereParts, fmt.Sprintf("%s%s IN (%s)", prefix, c.field, strings.Join(placeholders, ", ")))
			default:
				whereParts = append(whereParts, fmt.Sprintf("%s%s %s %s", prefix, c.field, c.operator, next()))
				params = append(params, c.value)
			}
		}
		parts = append(parts, "WHERE "+strings.Join(whereParts, " "))
	}

	if len(b.groupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(b.groupBy, ", "))
	}

	if len(b.havings) > 0 {
		var havingParts []string
		for i, c := range b.havings {
			prefix := ""
			if i > 0 {
				prefix = c.connector + " "
			}
			havingParts = append(havingParts, fmt.Sprintf("%s%s %s %s", prefix, c.field, c.operator, next()))
			params = append(params, c.value)
		}
		parts = append(parts, "HAVING "+strings.Join(havingParts, " "))
	}

	if len(b.orders) > 0 {
		orderParts := make([]string, len(b.orders))
		for i, o := range b.orders {
			orderParts[i] = o.field + " " + o.direction
		}
		parts = append(parts, "ORDER BY "+strings.Join(orderParts, ", "))
	}

	if b.limit != nil {
		parts = append(parts, "LIMIT "+next())
		params = append(params, *b.limit)
	}
	if b.offset != nil {
		parts = append(parts, "OFFSET "+next())
		params = append(params, *b.offset)
	}

	return strings.Join(parts, " "), params
}

// InsertBuilder composes a parameterized INSERT, optionally with upsert
// conflict handling. Columns are emitted in sorted order so statements built
// from maps are deterministic.
type InsertBuilder struct {
	table          string
	data           map[string]any
	conflictFields []string
	updateOnConf   bool
}

// NewInsert starts an insert builder for the given table.
func NewInsert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Values sets the column→value map to insert.
func (b *InsertBuilder) Values(data map[string]any) *InsertBuilder {
	b.data = data
	return b
}

// OnConflict adds an ON CONFLICT clause over the unique field set. With
// update=true non-key fields are overwritten from the incoming values and
// updated_at is refreshed; otherwise the statement does nothing on conflict.
func (b *InsertBuilder) OnConflict(fields []string, update bool) *InsertBuilder {
	b.conflictFields = fields
	b.updateOnConf = update
	return b
}

// Build emits "INSERT ... RETURNING id" and the positional parameters.
func (b *InsertBuilder) Build() (string, []any) {
	columns := make([]string, 0, len(b.data))
	for col := range b.data {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	params := make([]any, 0, len(columns))
	placeholders := make([]string, 0, len(columns))
	for i, col := range columns {
		params = append(params, b.data[col])
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}

	parts := []string{fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		b.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))}

	if len(b.conflictFields) > 0 {
		parts = append(parts, fmt.Sprintf("ON CONFLICT (%s)", strings.Join(b.conflictFields, ", ")))

		if b.updateOnConf {
			conflictSet := make(map[string]bool, len(b.conflictFields))
			for _, f := range b.conflictFields {
				conflictSet[f] = true
			}
			var updates []string
			for _, col := range columns {
				if !conflictSet[col] {
					updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
				}
			}
			updates = append(updates, "updated_at = CURRENT_TIMESTAMP")
			parts = append(parts, "DO UPDATE SET "+strings.Join(updates, ", "))
		} else {
			parts = append(parts, "DO NOTHING")
		}
	}

	parts = append(parts, "RETURNING id")
	return strings.Join(parts, " "), params
}
