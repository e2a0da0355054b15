package gateway

import (
	"fmt"
	"regexp"
	"strings"
)

var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidIdent reports whether name is safe to use as a table or column name.
func ValidIdent(name string) bool {
	return identRe.MatchString(name)
}

// Filter operators.
const (
	OpEq    = "eq"
	OpILike = "ilike"
)

// Filter restricts rows by a column comparison.
type Filter struct {
	Column string
	Op     string
	Value  any
}

// Eq is shorthand for an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Embed asks a read to return related rows from another table.
type Embed struct {
	Table   string
	Columns string
	Embeds  []Embed
}

// Order sorts the result by one column.
type Order struct {
	Column    string
	Ascending bool
}

// Query describes a table read.
type Query struct {
	Table   string
	Columns string
	Embeds  []Embed
	Filters []Filter
	Sort    *Order
	Max     int
	One     bool
}

// From starts a query on table selecting all columns.
func From(table string) *Query {
	return &Query{Table: table, Columns: "*"}
}

// Select sets the column list, e.g. "id,title".
func (q *Query) Select(columns string) *Query {
	q.Columns = columns
	return q
}

// Embed adds a related table to the result.
func (q *Query) Embed(table, columns string, nested ...Embed) *Query {
	q.Embeds = append(q.Embeds, Embed{Table: table, Columns: columns, Embeds: nested})
	return q
}

// Eq filters rows where column equals value.
func (q *Query) Eq(column string, value any) *Query {
	q.Filters = append(q.Filters, Eq(column, value))
	return q
}

// ILike filters rows where column matches pattern case-insensitively.
// The pattern uses SQL LIKE wildcards (% and _).
func (q *Query) ILike(column, pattern string) *Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: OpILike, Value: pattern})
	return q
}

// Order sorts the rows by column.
func (q *Query) Order(column string, ascending bool) *Query {
	q.Sort = &Order{Column: column, Ascending: ascending}
	return q
}

// Limit caps the number of rows returned.
func (q *Query) Limit(n int) *Query {
	q.Max = n
	return q
}

// Single expects exactly one row; zero rows is a CodeNoRows error.
func (q *Query) Single() *Query {
	q.One = true
	return q
}

// Validate checks every identifier the query will send to the backend.
func (q *Query) Validate() error {
	if !ValidIdent(q.Table) {
		return Errorf(CodeInvalidRequest, "invalid table name %q", q.Table)
	}
	for _, f := range q.Filters {
		if err := f.Validate(); err != nil {
			return err
		}
	}
	if q.Sort != nil && !ValidIdent(q.Sort.Column) {
		return Errorf(CodeInvalidRequest, "invalid order column %q", q.Sort.Column)
	}
	if q.Max < 0 {
		return Errorf(CodeInvalidRequest, "invalid limit %d", q.Max)
	}
	return validateEmbeds(q.Embeds)
}

// Validate checks the filter column and operator.
func (f Filter) Validate() error {
	if !ValidIdent(f.Column) {
		return Errorf(CodeInvalidRequest, "invalid filter column %q", f.Column)
	}
	if f.Op != OpEq && f.Op != OpILike {
		return Errorf(CodeInvalidRequest, "unsupported filter operator %q", f.Op)
	}
	return nil
}

func validateEmbeds(embeds []Embed) error {
	for _, e := range embeds {
		if !ValidIdent(e.Table) {
			return Errorf(CodeInvalidRequest, "invalid embed table %q", e.Table)
		}
		if err := validateEmbeds(e.Embeds); err != nil {
			return err
		}
	}
	return nil
}

// SelectClause renders the column list with embeds in the
// `*,profiles(username)` form.
func (q *Query) SelectClause() string {
	cols := q.Columns
	if cols == "" {
		cols = "*"
	}
	parts := []string{cols}
	for _, e := range q.Embeds {
		parts = append(parts, e.clause())
	}
	return strings.Join(parts, ",")
}

func (e Embed) clause() string {
	cols := e.Columns
	if cols == "" {
		cols = "*"
	}
	parts := []string{cols}
	for _, n := range e.Embeds {
		parts = append(parts, n.clause())
	}
	return fmt.Sprintf("%s(%s)", e.Table, strings.Join(parts, ","))
}
