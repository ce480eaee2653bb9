package relations

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// ErrImpossible means the spec can never match. Callers abort the query.
var ErrImpossible = stderrors.New("relation criteria can never match")

func impossible(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrImpossible, fmt.Sprintf(format, args...))
}

// SubqueryFunc compiles an id-producing sub-criteria into a selection of element ids.
type SubqueryFunc func(ctx context.Context, c *criteria.Criteria) (*database.SelectBuilder, error)

// Compiler compiles a relation AST. One compiler serves one compiled statement
// so that its aliases never collide.
type Compiler struct {
	catalog  fields.Catalog
	types    *fields.Registry
	aliases  *schema.AliasGenerator
	subquery SubqueryFunc
}

func NewCompiler(catalog fields.Catalog, types *fields.Registry, aliases *schema.AliasGenerator, subquery SubqueryFunc) *Compiler {
	return &Compiler{
		catalog:  catalog,
		types:    types,
		aliases:  aliases,
		subquery: subquery,
	}
}

// Compile returns a predicate restricting idColumn to elements matching n,
// built with sb. An empty predicate means no restriction. ErrImpossible is
// returned when n can never match.
func (c *Compiler) Compile(ctx context.Context, sb *database.SelectBuilder, idColumn string, n Node) (string, error) {
	switch v := n.(type) {
	case Leaf:
		return c.leaf(ctx, sb, idColumn, v)

	case And:
		if len(v.Children) == 0 {
			return "", impossible("empty and")
		}
		exprs := make([]string, 0, len(v.Children))
		for _, child := range v.Children {
			expr, err := c.Compile(ctx, sb, idColumn, child)
			if err != nil {
				return "", err
			}
			if expr != "" {
				exprs = append(exprs, expr)
			}
		}
		return combine(sb, exprs, sb.And), nil

	case Or:
		exprs := make([]string, 0, len(v.Children))
		for _, child := range v.Children {
			expr, err := c.Compile(ctx, sb, idColumn, child)
			if stderrors.Is(err, ErrImpossible) {
				continue
			}
			if err != nil {
				return "", err
			}
			if expr == "" {
				// one unrestricted branch makes the whole union unrestricted
				return "", nil
			}
			exprs = append(exprs, expr)
		}
		if len(exprs) == 0 {
			return "", impossible("every alternative is impossible")
		}
		return combine(sb, exprs, sb.Or), nil

	case Not:
		if len(v.Children) == 0 {
			return "", impossible("empty not")
		}
		inner, err := c.Compile(ctx, sb, idColumn, Or{Children: v.Children})
		if stderrors.Is(err, ErrImpossible) {
			return "", nil
		}
		if err != nil {
			return "", err
		}
		if inner == "" {
			return "", impossible("not of an unrestricted criteria")
		}
		return sb.Not(inner), nil
	}

	return "", errors.NewConfigurationErrorf("unsupported relation node %T", n).AddParam(param)
}

func combine(sb *database.SelectBuilder, exprs []string, join func(...string) string) string {
	switch len(exprs) {
	case 0:
		return ""
	case 1:
		return exprs[0]
	}
	return join(exprs...)
}

// containerTarget is a container field, optionally narrowed to child fields.
type containerTarget struct {
	field    *fields.Field
	childIDs []any
	// whole is set when the container was named without a child handle.
	whole bool
}

type references struct {
	ids   []any
	query *database.SelectBuilder
}

func (r references) in(sb *database.SelectBuilder, column string) string {
	if r.query != nil {
		return sb.In(column, r.query)
	}
	return sb.In(column, r.ids...)
}

func (c *Compiler) leaf(ctx context.Context, sb *database.SelectBuilder, idColumn string, l Leaf) (string, error) {
	refs, err := c.references(ctx, l)
	if err != nil {
		return "", err
	}

	simple, containers, err := c.resolveFields(l.Fields)
	if err != nil {
		return "", err
	}

	var subs []*database.SelectBuilder
	if len(l.Fields) == 0 || len(simple) > 0 {
		subs = append(subs, c.edgeQuery(l, refs, simple))
	}
	for _, target := range containers {
		subs = append(subs, c.containerQuery(l, refs, target))
	}

	exprs := make([]string, 0, len(subs))
	for _, sub := range subs {
		exprs = append(exprs, sb.In(idColumn, sub))
	}
	return combine(sb, exprs, sb.Or), nil
}

func (c *Compiler) references(ctx context.Context, l Leaf) (references, error) {
	if l.Query != nil {
		if c.subquery == nil {
			return references{}, errors.NewUpstreamError("subquery", "relation sub-criteria need a query compiler").AddParam(param)
		}
		sub, err := c.subquery(ctx, l.Query)
		if errors.IsAborted(err) {
			return references{}, impossible("sub-criteria matches nothing")
		}
		if err != nil {
			return references{}, err
		}
		return references{query: sub}, nil
	}

	if len(l.IDs) == 0 {
		return references{}, impossible("empty id set")
	}
	ids := make([]any, len(l.IDs))
	for i, id := range l.IDs {
		ids[i] = id
	}
	return references{ids: ids}, nil
}

// resolveFields splits handles into simple relation field ids and container
// targets. Unknown or non-relational fields make the leaf impossible.
func (c *Compiler) resolveFields(handles []string) ([]any, []containerTarget, error) {
	if len(handles) == 0 {
		return nil, nil, nil
	}
	if c.catalog == nil || c.types == nil {
		return nil, nil, errors.NewUpstreamError("fields", "relation field handles need a field catalog").AddParam(param)
	}

	var simple []any
	containers := map[int64]*containerTarget{}
	var order []int64

	for _, handle := range handles {
		containerHandle, childHandle, nested := strings.Cut(handle, ".")
		if nested && (containerHandle == "" || childHandle == "" || strings.Contains(childHandle, ".")) {
			return nil, nil, errors.NewConfigurationErrorf("malformed relation field handle '%s'", handle).AddParam(param)
		}

		field, ok := c.catalog.FieldByHandle(containerHandle)
		if !ok {
			continue
		}
		t, err := c.types.TypeOf(field)
		if err != nil {
			return nil, nil, err
		}

		switch {
		case t.Container():
			target, seen := containers[field.ID]
			if !seen {
				target = &containerTarget{field: field}
				containers[field.ID] = target
				order = append(order, field.ID)
			}
			if !nested {
				target.whole = true
				continue
			}
			child, ok := field.Child(childHandle)
			if !ok {
				continue
			}
			childType, err := c.types.TypeOf(child)
			if err != nil {
				return nil, nil, err
			}
			if childType.Relational() {
				target.childIDs = append(target.childIDs, child.ID)
			}
		case t.Relational() && !nested:
			simple = append(simple, field.ID)
		}
	}

	out := make([]containerTarget, 0, len(order))
	for _, id := range order {
		target := containers[id]
		if target.whole {
			target.childIDs = nil
		} else if len(target.childIDs) == 0 {
			continue
		}
		out = append(out, *target)
	}

	if len(simple) == 0 && len(out) == 0 {
		return nil, nil, impossible("no relational field among %s", strings.Join(handles, ", "))
	}
	return simple, out, nil
}

// edgeQuery selects the far side of direct relation edges.
func (c *Compiler) edgeQuery(l Leaf, refs references, fieldIDs []any) *database.SelectBuilder {
	r := c.aliases.Next("relations")
	t := c.aliases.Next("targets")

	sub := database.NewSelectBuilder()
	sub.From(schema.TableRelations + " AS " + r)
	sub.Join(schema.TableElements+" AS "+t, sub.EqualColumns(t+".id", r+".target_id"))

	if l.Direction() == Forward {
		sub.Select(r + ".target_id")
		sub.Where(refs.in(sub, r+".source_id"))
	} else {
		sub.Select(r + ".source_id")
		sub.Where(refs.in(sub, r+".target_id"))
	}

	sub.Where(sub.IsNull(t+".date_deleted"), sub.Equal(t+".enabled", true))
	if len(fieldIDs) > 0 {
		sub.Where(sub.In(r+".field_id", fieldIDs...))
	}
	if l.SourceSite != nil {
		sub.Where(sub.Or(sub.IsNull(r+".source_site_id"), sub.Equal(r+".source_site_id", *l.SourceSite)))
	}
	return sub
}

// containerQuery joins edge, block and owner: the reference may live on a
// block row owned by the element rather than on the element itself.
func (c *Compiler) containerQuery(l Leaf, refs references, target containerTarget) *database.SelectBuilder {
	r := c.aliases.Next("relations")
	b := c.aliases.Next("blocks")
	be := c.aliases.Next("block_elements")
	t := c.aliases.Next("targets")

	sub := database.NewSelectBuilder()
	sub.From(schema.TableRelations + " AS " + r)
	sub.Join(schema.TableBlocks+" AS "+b, sub.EqualColumns(b+".id", r+".source_id"))
	sub.Join(schema.TableElements+" AS "+be, sub.EqualColumns(be+".id", b+".id"))
	sub.Join(schema.TableElements+" AS "+t, sub.EqualColumns(t+".id", r+".target_id"))

	if l.Direction() == Forward {
		// owner -> block -> target
		sub.Select(r + ".target_id")
		sub.Where(refs.in(sub, b+".primary_owner_id"))
	} else {
		// target -> block -> owner
		sub.Select(b + ".primary_owner_id")
		sub.Where(refs.in(sub, r+".target_id"))
	}

	sub.Where(
		sub.Equal(b+".field_id", target.field.ID),
		sub.IsNull(be+".date_deleted"),
		sub.IsNull(t+".date_deleted"),
		sub.Equal(t+".enabled", true),
	)
	if len(target.childIDs) > 0 {
		sub.Where(sub.In(r+".field_id", target.childIDs...))
	}
	if l.SourceSite != nil {
		sub.Where(sub.Or(sub.IsNull(r+".source_site_id"), sub.Equal(r+".source_site_id", *l.SourceSite)))
	}
	return sub
}
