package criteria

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
)

// Supported operators
const (
	OpEquals    = "="
	OpNotEquals = "!="
	OpLt        = "<"
	OpLte       = "<="
	OpGt        = ">"
	OpGte       = ">="
	OpLike      = "like"
	OpNotLike   = "not like"
	OpEmpty     = ":empty:"
	OpNotEmpty  = ":notempty:"
)

// Glue joins the conditions of one param.
const (
	GlueOr  = "or"
	GlueAnd = "and"
	GlueNot = "not"
)

// ParamType controls how values are coerced before binding.
type ParamType int

const (
	ParamString ParamType = iota
	ParamNumber
	ParamDate
	ParamBool
)

// Condition represents a single value condition of a param.
type Condition struct {
	Operator string
	Value    any
}

// Param is a parsed param value: conditions joined by a glue.
type Param struct {
	Glue       string
	Conditions []Condition
}

// ParamOptions control SQL generation for one column.
type ParamOptions struct {
	Type            ParamType
	CaseInsensitive bool
}

// ParseParam parses a param value in the query mini-language:
//
//	"foo"                      equals
//	"foo, bar" / []string      any of
//	["and", ">= 1", "< 5"]     all of
//	["not", "a", "b"]          none of
//	"not foo", "!= foo"        not equal
//	"> 5", ">= 5", "< 5"...    comparisons
//	"foo*", "*foo*"            wildcard match, "\*" is a literal asterisk
//	":empty:", ":notempty:"    null or empty checks
func ParseParam(value any) (Param, error) {
	values, err := paramValues(value)
	if err != nil {
		return Param{}, err
	}

	param := Param{Glue: GlueOr}
	negate := false
	if len(values) > 0 {
		if s, ok := values[0].(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case GlueAnd:
				param.Glue = GlueAnd
				values = values[1:]
			case GlueOr:
				values = values[1:]
			case GlueNot:
				param.Glue = GlueAnd
				negate = true
				values = values[1:]
			}
		}
	}

	for _, v := range values {
		cond := parseCondition(v)
		if negate {
			cond = negateCondition(cond)
		}
		param.Conditions = append(param.Conditions, cond)
	}

	return param, nil
}

func paramValues(value any) ([]any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return splitString(v), nil
	case []any:
		return v, nil
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, nil
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}

	switch value.(type) {
	case int, int32, int64, float64, bool, time.Time:
		return []any{value}, nil
	}
	return nil, errors.NewConfigurationErrorf("unsupported param value of type %T", value)
}

// splitString splits on unescaped commas.
func splitString(s string) []any {
	var out []any
	var buf strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			if r != ',' {
				buf.WriteRune('\\')
			}
			buf.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			out = append(out, strings.TrimSpace(buf.String()))
			buf.Reset()
		default:
			buf.WriteRune(r)
		}
	}
	if escaped {
		buf.WriteRune('\\')
	}
	out = append(out, strings.TrimSpace(buf.String()))
	return out
}

func parseCondition(v any) Condition {
	s, ok := v.(string)
	if !ok {
		return Condition{Operator: OpEquals, Value: v}
	}

	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch lower {
	case OpEmpty, "not " + OpNotEmpty:
		return Condition{Operator: OpEmpty}
	case OpNotEmpty, "not " + OpEmpty:
		return Condition{Operator: OpNotEmpty}
	}

	negated := false
	if strings.HasPrefix(lower, "not ") {
		negated = true
		s = strings.TrimSpace(s[4:])
	}

	op := OpEquals
	for _, candidate := range []string{OpNotEquals, OpGte, OpLte, OpGt, OpLt, OpEquals} {
		if strings.HasPrefix(s, candidate) {
			op = candidate
			s = strings.TrimSpace(s[len(candidate):])
			break
		}
	}

	if op == OpEquals || op == OpNotEquals {
		if pattern, wildcard := likePattern(s); wildcard {
			likeOp := OpLike
			if op == OpNotEquals {
				likeOp = OpNotLike
			}
			cond := Condition{Operator: likeOp, Value: pattern}
			if negated {
				cond = negateCondition(cond)
			}
			return cond
		}
		s = strings.ReplaceAll(s, `\*`, "*")
	}

	cond := Condition{Operator: op, Value: s}
	if negated {
		cond = negateCondition(cond)
	}
	return cond
}

// likePattern converts unescaped '*' to '%' and escapes LIKE metacharacters.
func likePattern(s string) (string, bool) {
	var buf strings.Builder
	wildcard := false
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\\' && i+1 < len(runes) && runes[i+1] == '*':
			buf.WriteRune('*')
			i++
		case r == '*':
			buf.WriteRune('%')
			wildcard = true
		case r == '%' || r == '_':
			buf.WriteRune('\\')
			buf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String(), wildcard
}

func negateCondition(c Condition) Condition {
	switch c.Operator {
	case OpEquals:
		c.Operator = OpNotEquals
	case OpNotEquals:
		c.Operator = OpEquals
	case OpLt:
		c.Operator = OpGte
	case OpLte:
		c.Operator = OpGt
	case OpGt:
		c.Operator = OpLte
	case OpGte:
		c.Operator = OpLt
	case OpLike:
		c.Operator = OpNotLike
	case OpNotLike:
		c.Operator = OpLike
	case OpEmpty:
		c.Operator = OpNotEmpty
	case OpNotEmpty:
		c.Operator = OpEmpty
	}
	return c
}

// IsEmpty reports whether the param has no conditions.
func (p Param) IsEmpty() bool {
	return len(p.Conditions) == 0
}

// Where renders the param against column using sb. An empty param renders "".
func (p Param) Where(sb *database.SelectBuilder, column string, opts ParamOptions) (string, error) {
	if p.IsEmpty() {
		return "", nil
	}

	// plain equality lists collapse into IN
	if p.Glue == GlueOr && len(p.Conditions) > 1 && !opts.CaseInsensitive && p.allEquals() {
		values := make([]any, 0, len(p.Conditions))
		for _, c := range p.Conditions {
			v, err := coerce(c.Value, opts.Type)
			if err != nil {
				return "", err
			}
			values = append(values, v)
		}
		return sb.In(column, values...), nil
	}

	exprs := make([]string, 0, len(p.Conditions))
	for _, c := range p.Conditions {
		expr, err := conditionSQL(sb, column, c, opts)
		if err != nil {
			return "", err
		}
		exprs = append(exprs, expr)
	}

	if len(exprs) == 1 {
		return exprs[0], nil
	}
	if p.Glue == GlueAnd {
		return sb.And(exprs...), nil
	}
	return sb.Or(exprs...), nil
}

func (p Param) allEquals() bool {
	for _, c := range p.Conditions {
		if c.Operator != OpEquals {
			return false
		}
	}
	return true
}

func conditionSQL(sb *database.SelectBuilder, column string, c Condition, opts ParamOptions) (string, error) {
	switch c.Operator {
	case OpEmpty:
		if opts.Type == ParamString {
			return sb.Empty(column), nil
		}
		return sb.IsNull(column), nil
	case OpNotEmpty:
		if opts.Type == ParamString {
			return sb.NotEmpty(column), nil
		}
		return sb.IsNotNull(column), nil
	case OpLike:
		if opts.CaseInsensitive {
			return sb.ILike(column, c.Value), nil
		}
		return sb.Like(column, c.Value), nil
	case OpNotLike:
		if opts.CaseInsensitive {
			return sb.NotILike(column, c.Value), nil
		}
		return sb.NotLike(column, c.Value), nil
	}

	value, err := coerce(c.Value, opts.Type)
	if err != nil {
		return "", err
	}

	if opts.CaseInsensitive && opts.Type == ParamString {
		switch c.Operator {
		case OpEquals:
			return fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, sb.Var(value)), nil
		case OpNotEquals:
			return fmt.Sprintf("LOWER(%s) <> LOWER(%s)", column, sb.Var(value)), nil
		}
	}

	switch c.Operator {
	case OpEquals:
		return sb.Equal(column, value), nil
	case OpNotEquals:
		return sb.NotEqual(column, value), nil
	case OpLt:
		return sb.LessThan(column, value), nil
	case OpLte:
		return sb.LessEqualThan(column, value), nil
	case OpGt:
		return sb.GreaterThan(column, value), nil
	case OpGte:
		return sb.GreaterEqualThan(column, value), nil
	}
	return "", errors.NewConfigurationErrorf("unsupported operator '%s'", c.Operator)
}

var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

func coerce(v any, t ParamType) (any, error) {
	switch t {
	case ParamNumber:
		switch n := v.(type) {
		case int:
			return int64(n), nil
		case int64, float64:
			return n, nil
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, nil
			}
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, errors.NewConfigurationErrorf("'%s' is not a number", n)
			}
			return f, nil
		}
	case ParamDate:
		switch d := v.(type) {
		case time.Time:
			return d, nil
		case string:
			for _, layout := range dateLayouts {
				if parsed, err := time.Parse(layout, d); err == nil {
					return parsed, nil
				}
			}
			return nil, errors.NewConfigurationErrorf("'%s' is not a date", d)
		}
	case ParamBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(b)
			if err != nil {
				return nil, errors.NewConfigurationErrorf("'%s' is not a boolean", b)
			}
			return parsed, nil
		}
	case ParamString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	}
	return v, nil
}
