package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Flavor is the SQL dialect every statement in the module is built for.
var Flavor = sqlbuilder.PostgreSQL

const (
	InnerJoin = sqlbuilder.InnerJoin
	LeftJoin  = sqlbuilder.LeftJoin
)

// SelectBuilder is a PostgreSQL select builder with the compiler's predicate helpers.
type SelectBuilder struct {
	*sqlbuilder.SelectBuilder
}

// NewSelectBuilder returns an empty builder in the module's SQL flavor.
func NewSelectBuilder() *SelectBuilder {
	return &SelectBuilder{Flavor.NewSelectBuilder()}
}

// Not negates a condition built with this builder.
func (b *SelectBuilder) Not(expr string) string {
	return fmt.Sprintf("NOT (%s)", expr)
}

// True and False are constant predicates.
func (b *SelectBuilder) True() string {
	return "TRUE"
}

func (b *SelectBuilder) False() string {
	return "FALSE"
}

// InList is In that tolerates an empty list by producing a constant false predicate.
func (b *SelectBuilder) InList(column string, values ...any) string {
	if len(values) == 0 {
		return b.False()
	}
	return b.In(column, values...)
}

// NotInList is NotIn that tolerates an empty list.
func (b *SelectBuilder) NotInList(column string, values ...any) string {
	if len(values) == 0 {
		return b.True()
	}
	return b.NotIn(column, values...)
}

// ILike matches value case-insensitively.
func (b *SelectBuilder) ILike(column string, value any) string {
	return fmt.Sprintf("LOWER(%s) LIKE LOWER(%s)", column, b.Var(value))
}

// NotILike is the negation of ILike.
func (b *SelectBuilder) NotILike(column string, value any) string {
	return fmt.Sprintf("LOWER(%s) NOT LIKE LOWER(%s)", column, b.Var(value))
}

// EqualColumns compares two column references without binding either as a value.
func (b *SelectBuilder) EqualColumns(left, right string) string {
	return fmt.Sprintf("%s = %s", left, right)
}

// Empty matches NULL or empty string values.
func (b *SelectBuilder) Empty(column string) string {
	return fmt.Sprintf("(%s IS NULL OR %s = '')", column, column)
}

// NotEmpty matches values that are neither NULL nor empty.
func (b *SelectBuilder) NotEmpty(column string) string {
	return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", column, column)
}

// Case renders CASE expr WHEN ... THEN rank ... END with inline integer
// literals so the same expression can appear in SELECT and ORDER BY.
func Case(expr string, whens []int64, elseRank int) string {
	var buf strings.Builder
	buf.WriteString("CASE ")
	buf.WriteString(expr)
	for i, w := range whens {
		fmt.Fprintf(&buf, " WHEN %d THEN %d", w, i)
	}
	fmt.Fprintf(&buf, " ELSE %d END", elseRank)
	return buf.String()
}
