package criteria

import (
	"testing"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParam(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		glue     string
		expected []Condition
	}{
		{
			name:     "single value",
			value:    "foo",
			glue:     GlueOr,
			expected: []Condition{{Operator: OpEquals, Value: "foo"}},
		},
		{
			name:  "comma separated string",
			value: "foo, bar",
			glue:  GlueOr,
			expected: []Condition{
				{Operator: OpEquals, Value: "foo"},
				{Operator: OpEquals, Value: "bar"},
			},
		},
		{
			name:     "escaped comma",
			value:    `foo\, bar`,
			glue:     GlueOr,
			expected: []Condition{{Operator: OpEquals, Value: "foo, bar"}},
		},
		{
			name:  "and glue with comparisons",
			value: []any{"and", ">= 1", "< 5"},
			glue:  GlueAnd,
			expected: []Condition{
				{Operator: OpGte, Value: "1"},
				{Operator: OpLt, Value: "5"},
			},
		},
		{
			name:  "not glue negates every value",
			value: []string{"not", "a", "b"},
			glue:  GlueAnd,
			expected: []Condition{
				{Operator: OpNotEquals, Value: "a"},
				{Operator: OpNotEquals, Value: "b"},
			},
		},
		{
			name:     "not prefix",
			value:    "not foo",
			glue:     GlueOr,
			expected: []Condition{{Operator: OpNotEquals, Value: "foo"}},
		},
		{
			name:     "wildcard",
			value:    "foo*",
			glue:     GlueOr,
			expected: []Condition{{Operator: OpLike, Value: "foo%"}},
		},
		{
			name:     "escaped wildcard is literal",
			value:    `foo\*`,
			glue:     GlueOr,
			expected: []Condition{{Operator: OpEquals, Value: "foo*"}},
		},
		{
			name:     "negated wildcard",
			value:    "not *bar",
			glue:     GlueOr,
			expected: []Condition{{Operator: OpNotLike, Value: "%bar"}},
		},
		{
			name:     "empty",
			value:    ":empty:",
			glue:     GlueOr,
			expected: []Condition{{Operator: OpEmpty}},
		},
		{
			name:     "not empty",
			value:    "not :empty:",
			glue:     GlueOr,
			expected: []Condition{{Operator: OpNotEmpty}},
		},
		{
			name:     "number",
			value:    int64(5),
			glue:     GlueOr,
			expected: []Condition{{Operator: OpEquals, Value: int64(5)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param, err := ParseParam(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.glue, param.Glue)
			assert.Equal(t, tt.expected, param.Conditions)
		})
	}
}

func TestParseParam_Unsupported(t *testing.T) {
	_, err := ParseParam(map[string]any{"a": 1})
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func buildWhere(t *testing.T, value any, column string, opts ParamOptions) (string, []any) {
	t.Helper()
	param, err := ParseParam(value)
	require.NoError(t, err)

	sb := database.NewSelectBuilder()
	expr, err := param.Where(sb, column, opts)
	require.NoError(t, err)
	sb.Select("id").From("t").Where(expr)
	return sb.Build()
}

func TestParamWhere(t *testing.T) {
	t.Run("equality list collapses to IN", func(t *testing.T) {
		sql, args := buildWhere(t, "a, b", "slug", ParamOptions{})
		assert.Contains(t, sql, "slug IN (")
		assert.Equal(t, []any{"a", "b"}, args)
	})

	t.Run("and range", func(t *testing.T) {
		sql, args := buildWhere(t, []any{"and", ">= 2", "<= 4"}, "level", ParamOptions{Type: ParamNumber})
		assert.Contains(t, sql, "level >= ")
		assert.Contains(t, sql, "level <= ")
		assert.Contains(t, sql, " AND ")
		assert.Equal(t, []any{int64(2), int64(4)}, args)
	})

	t.Run("case insensitive wildcard", func(t *testing.T) {
		sql, args := buildWhere(t, "News*", "elements_sites.uri", ParamOptions{CaseInsensitive: true})
		assert.Contains(t, sql, "LOWER(elements_sites.uri) LIKE LOWER(")
		assert.Equal(t, []any{"News%"}, args)
	})

	t.Run("empty string column", func(t *testing.T) {
		sql, args := buildWhere(t, ":empty:", "slug", ParamOptions{})
		assert.Contains(t, sql, "slug IS NULL OR slug = ''")
		assert.Empty(t, args)
	})

	t.Run("empty number column", func(t *testing.T) {
		sql, _ := buildWhere(t, ":notempty:", "size", ParamOptions{Type: ParamNumber})
		assert.Contains(t, sql, "size IS NOT NULL")
	})

	t.Run("dates are parsed", func(t *testing.T) {
		_, args := buildWhere(t, ">= 2024-03-01", "date_created", ParamOptions{Type: ParamDate})
		require.Len(t, args, 1)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), args[0])
	})

	t.Run("invalid number", func(t *testing.T) {
		param, err := ParseParam("abc")
		require.NoError(t, err)
		_, err = param.Where(database.NewSelectBuilder(), "level", ParamOptions{Type: ParamNumber})
		require.Error(t, err)
		assert.True(t, errors.IsConfiguration(err))
	})
}
