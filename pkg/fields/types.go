package fields

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// Text stores a string in content.
type Text struct{}

func (Text) Name() string     { return "text" }
func (Text) Relational() bool { return false }
func (Text) Container() bool  { return false }

func (Text) Condition(sb *database.SelectBuilder, a schema.Aliases, f *Field, value any) (string, error) {
	return paramCondition(sb, contentValue(a, f), value, criteria.ParamOptions{CaseInsensitive: true})
}

func (Text) ValueSQL(a schema.Aliases, f *Field) string {
	return contentValue(a, f)
}

// Number stores a number in content.
type Number struct{}

func (Number) Name() string     { return "number" }
func (Number) Relational() bool { return false }
func (Number) Container() bool  { return false }

func (n Number) Condition(sb *database.SelectBuilder, a schema.Aliases, f *Field, value any) (string, error) {
	return paramCondition(sb, n.ValueSQL(a, f), value, criteria.ParamOptions{Type: criteria.ParamNumber})
}

func (Number) ValueSQL(a schema.Aliases, f *Field) string {
	return fmt.Sprintf("(%s)::numeric", contentValue(a, f))
}

// Lightswitch stores a boolean in content. A missing value reads as false.
type Lightswitch struct{}

func (Lightswitch) Name() string     { return "lightswitch" }
func (Lightswitch) Relational() bool { return false }
func (Lightswitch) Container() bool  { return false }

func (l Lightswitch) Condition(sb *database.SelectBuilder, a schema.Aliases, f *Field, value any) (string, error) {
	return paramCondition(sb, l.ValueSQL(a, f), value, criteria.ParamOptions{Type: criteria.ParamBool})
}

func (Lightswitch) ValueSQL(a schema.Aliases, f *Field) string {
	return fmt.Sprintf("COALESCE((%s)::boolean, FALSE)", contentValue(a, f))
}

// Relation stores references as relation edges sourced from the element.
type Relation struct {
	TypeName string
}

func (r Relation) Name() string   { return r.TypeName }
func (Relation) Relational() bool { return true }
func (Relation) Container() bool  { return false }

// Condition accepts ":empty:", ":notempty:", related ids or related elements.
func (Relation) Condition(sb *database.SelectBuilder, a schema.Aliases, f *Field, value any) (string, error) {
	edges := database.NewSelectBuilder()
	edges.Select("1").From(schema.TableRelations + " AS field_relations")
	edges.Where(
		edges.EqualColumns("field_relations.source_id", a.Col("id")),
		edges.Equal("field_relations.field_id", f.ID),
	)

	switch v := value.(type) {
	case string:
		switch v {
		case criteria.OpEmpty:
			return sb.NotExists(edges), nil
		case criteria.OpNotEmpty:
			return sb.Exists(edges), nil
		}
	}

	ids, err := referenceIDs(value)
	if err != nil {
		return "", errors.NewConfigurationErrorf("relation field values must be ids or elements: %s", err).AddParam(f.Handle)
	}
	if len(ids) == 0 {
		return sb.False(), nil
	}
	edges.Where(edges.In("field_relations.target_id", ids...))
	return sb.Exists(edges), nil
}

func (Relation) ValueSQL(schema.Aliases, *Field) string {
	return ""
}

// Matrix is a container field: its values are block rows owned by the element.
type Matrix struct{}

func (Matrix) Name() string     { return "matrix" }
func (Matrix) Relational() bool { return false }
func (Matrix) Container() bool  { return true }

// Condition accepts ":empty:" and ":notempty:".
func (Matrix) Condition(sb *database.SelectBuilder, a schema.Aliases, f *Field, value any) (string, error) {
	blocks := database.NewSelectBuilder()
	blocks.Select("1").From(schema.TableBlocks + " AS field_blocks")
	blocks.Join(schema.TableElements+" AS field_block_elements", "field_block_elements.id = field_blocks.id")
	blocks.Where(
		blocks.EqualColumns("field_blocks.primary_owner_id", a.Col("id")),
		blocks.Equal("field_blocks.field_id", f.ID),
		blocks.IsNull("field_block_elements.date_deleted"),
	)

	switch value {
	case criteria.OpEmpty, false:
		return sb.NotExists(blocks), nil
	case criteria.OpNotEmpty, true:
		return sb.Exists(blocks), nil
	}
	return "", errors.NewConfigurationError("container fields can only be filtered by :empty: or :notempty:").AddParam(f.Handle)
}

func (Matrix) ValueSQL(schema.Aliases, *Field) string {
	return ""
}

func paramCondition(sb *database.SelectBuilder, column string, value any, opts criteria.ParamOptions) (string, error) {
	param, err := criteria.ParseParam(value)
	if err != nil {
		return "", err
	}
	return param.Where(sb, column, opts)
}

func referenceIDs(value any) ([]any, error) {
	switch v := value.(type) {
	case int:
		return []any{int64(v)}, nil
	case int64:
		return []any{v}, nil
	case []int64:
		out := make([]any, len(v))
		for i, id := range v {
			out[i] = id
		}
		return out, nil
	case []int:
		out := make([]any, len(v))
		for i, id := range v {
			out[i] = int64(id)
		}
		return out, nil
	case *models.Element:
		return []any{v.CanonicalElementID()}, nil
	case []*models.Element:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e.CanonicalElementID()
		}
		return out, nil
	case []any:
		out := make([]any, 0, len(v))
		for _, item := range v {
			ids, err := referenceIDs(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value %T", value)
}
