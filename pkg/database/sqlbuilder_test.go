package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectBuilderPredicates(t *testing.T) {
	t.Run("empty lists collapse to constants", func(t *testing.T) {
		sb := NewSelectBuilder()
		assert.Equal(t, "FALSE", sb.InList("elements.id"))
		assert.Equal(t, "TRUE", sb.NotInList("elements.id"))
	})

	t.Run("lists bind positional args", func(t *testing.T) {
		sb := NewSelectBuilder()
		sb.Select("elements.id").From("elements").Where(
			sb.InList("elements.id", int64(1), int64(2)),
			sb.NotInList("elements.type", "asset"),
		)
		sql, args := sb.Build()
		assert.Contains(t, sql, "elements.id IN ($1, $2)")
		assert.Contains(t, sql, "elements.type NOT IN ($3)")
		assert.Equal(t, []any{int64(1), int64(2), "asset"}, args)
	})

	t.Run("case insensitive matching", func(t *testing.T) {
		sb := NewSelectBuilder()
		sb.Select("title").From("elements_sites").Where(
			sb.ILike("title", "news%"),
			sb.NotILike("slug", "draft-%"),
		)
		sql, args := sb.Build()
		assert.Contains(t, sql, "LOWER(title) LIKE LOWER($1)")
		assert.Contains(t, sql, "LOWER(slug) NOT LIKE LOWER($2)")
		assert.Equal(t, []any{"news%", "draft-%"}, args)
	})

	t.Run("column predicates bind nothing", func(t *testing.T) {
		sb := NewSelectBuilder()
		assert.Equal(t, "a.id = b.id", sb.EqualColumns("a.id", "b.id"))
		assert.Equal(t, "(uri IS NULL OR uri = '')", sb.Empty("uri"))
		assert.Equal(t, "(uri IS NOT NULL AND uri <> '')", sb.NotEmpty("uri"))
		assert.Equal(t, "NOT (TRUE)", sb.Not(sb.True()))
	})
}

func TestCase(t *testing.T) {
	assert.Equal(t,
		"CASE elements.id WHEN 7 THEN 0 WHEN 3 THEN 1 ELSE 2 END",
		Case("elements.id", []int64{7, 3}, 2),
	)
	assert.Equal(t, "CASE x ELSE 0 END", Case("x", nil, 0))
}
