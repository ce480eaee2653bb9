package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/revisions"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// ScoreTerm orders by search relevance.
const ScoreTerm = "score"

// attributes maps the bare attribute names every kind shares to their columns.
var attributes = map[string]func(a schema.Aliases) string{
	"id":          func(a schema.Aliases) string { return a.Col("id") },
	"uid":         func(a schema.Aliases) string { return a.Col("uid") },
	"type":        func(a schema.Aliases) string { return a.Col("type") },
	"canonicalId": func(a schema.Aliases) string { return a.Col("canonical_id") },
	"enabled":     func(a schema.Aliases) string { return a.Col("enabled") },
	"archived":    func(a schema.Aliases) string { return a.Col("archived") },
	"dateCreated": func(a schema.Aliases) string { return a.Col("date_created") },
	"dateUpdated": func(a schema.Aliases) string { return a.Col("date_updated") },
	"dateDeleted": func(a schema.Aliases) string { return a.Col("date_deleted") },
	"siteId":      func(a schema.Aliases) string { return a.SiteCol("site_id") },
	"title":       func(a schema.Aliases) string { return a.SiteCol("title") },
	"slug":        func(a schema.Aliases) string { return a.SiteCol("slug") },
	"uri":         func(a schema.Aliases) string { return a.SiteCol("uri") },
	"lft":         func(a schema.Aliases) string { return a.StructureCol("lft") },
	"rgt":         func(a schema.Aliases) string { return a.StructureCol("rgt") },
	"level":       func(a schema.Aliases) string { return a.StructureCol("level") },
	"root":        func(a schema.Aliases) string { return a.StructureCol("root") },
}

type orderExpr struct {
	expr string
	desc bool
	raw  bool
}

func (o orderExpr) String() string {
	if o.raw {
		return o.expr
	}
	if o.desc {
		return o.expr + " DESC"
	}
	return o.expr + " ASC"
}

// reversed flips the direction. Raw terms get their trailing direction
// swapped, or DESC appended when they have none.
func (o orderExpr) reversed() orderExpr {
	if !o.raw {
		o.desc = !o.desc
		return o
	}
	fields := strings.Fields(o.expr)
	if len(fields) == 0 {
		return o
	}
	switch strings.ToLower(fields[len(fields)-1]) {
	case "asc":
		fields[len(fields)-1] = "DESC"
	case "desc":
		fields[len(fields)-1] = "ASC"
	default:
		fields = append(fields, "DESC")
	}
	o.expr = strings.Join(fields, " ")
	return o
}

// orderBy resolves the ORDER BY terms of the selection. Every non-empty order
// ends with the element and site row ids so that reversing it is exact.
func (st *state) orderBy(a schema.Aliases) ([]string, error) {
	p := st.criteria.Params

	if st.ordering.OrderBy != "" {
		return finish([]orderExpr{{expr: st.ordering.OrderBy, raw: true}}, a, false), nil
	}

	if p.FixedOrder {
		if len(p.ID) == 0 {
			return nil, errors.Abort("fixed order needs ids").AddParam("fixedOrder")
		}
		ids := slices.Clone(p.ID)
		if p.InReverse {
			slices.Reverse(ids)
		}
		// The id list carries the reversal. The rank stays ascending.
		rank := orderExpr{expr: database.Case(a.Col("id"), ids, len(ids))}
		return append([]string{rank.String()}, tiebreakers(a, p.InReverse)...), nil
	}

	terms := p.OrderBy
	if terms == nil {
		terms = st.defaultOrder(a)
	}
	if len(terms) == 0 {
		return nil, nil
	}

	exprs := make([]orderExpr, 0, len(terms))
	for _, term := range terms {
		o, ok, err := st.orderTerm(a, term)
		if err != nil {
			return nil, err
		}
		if ok {
			exprs = append(exprs, o)
		}
	}
	return finish(exprs, a, p.InReverse), nil
}

func (st *state) defaultOrder(a schema.Aliases) []criteria.OrderTerm {
	switch {
	case revisions.RevisionVisibility(st.criteria) != criteria.Exclude:
		return []criteria.OrderTerm{{Column: a.Revisions + ".num", Desc: true}}
	case st.scope.Joined:
		return []criteria.OrderTerm{{Column: a.StructureCol("lft")}}
	}
	return st.desc.DefaultOrder()
}

// finish applies reversal and appends the tiebreakers in the same direction.
func finish(exprs []orderExpr, a schema.Aliases, reverse bool) []string {
	out := make([]string, 0, len(exprs)+2)
	for _, o := range exprs {
		if reverse {
			o = o.reversed()
		}
		out = append(out, o.String())
	}
	return append(out, tiebreakers(a, reverse)...)
}

func tiebreakers(a schema.Aliases, desc bool) []string {
	return []string{
		orderExpr{expr: a.Col("id"), desc: desc}.String(),
		orderExpr{expr: a.SiteCol("id"), desc: desc}.String(),
	}
}

func (st *state) orderTerm(a schema.Aliases, term criteria.OrderTerm) (orderExpr, bool, error) {
	if term.Raw {
		if strings.TrimSpace(term.Column) == "" {
			return orderExpr{}, false, errors.NewConfigurationError("order expression is empty").AddParam("orderBy")
		}
		return orderExpr{expr: term.Column, raw: true}, true, nil
	}

	if term.Column == ScoreTerm {
		expr, ok := st.scoreCase(a)
		if !ok {
			return orderExpr{}, false, nil
		}
		desc := term.Desc
		if !term.Explicit {
			desc = true
		}
		return orderExpr{expr: expr, desc: desc}, true, nil
	}

	column, err := st.column(a, term.Column)
	if err != nil {
		return orderExpr{}, false, err
	}
	return orderExpr{expr: column, desc: term.Desc}, true, nil
}

// column maps a bare attribute, a kind attribute or a field handle to a
// column expression. Qualified and unknown names pass through.
func (st *state) column(a schema.Aliases, name string) (string, error) {
	if strings.Contains(name, ".") {
		return name, nil
	}
	if col, ok := attributes[name]; ok {
		return col(a), nil
	}
	if col, ok := st.desc.Attribute(a, name); ok {
		return col, nil
	}
	if st.compiler.deps.Fields != nil {
		field, typ, err := st.compiler.field(name)
		if err != nil {
			return "", err
		}
		if field != nil {
			if value := typ.ValueSQL(a, field); value != "" {
				return value, nil
			}
			return "", errors.NewConfigurationErrorf("field '%s' cannot be ordered by", name).AddParam("orderBy")
		}
	}
	return name, nil
}

// scoreCase ranks search matches in buckets of equal score, higher score
// ranking higher. It reports false when no match has a non-zero score.
func (st *state) scoreCase(a schema.Aliases) (string, bool) {
	var distinct []float64
	for _, s := range st.scores {
		if s.Score != 0 && !slices.Contains(distinct, s.Score) {
			distinct = append(distinct, s.Score)
		}
	}
	if len(distinct) == 0 {
		return "", false
	}
	slices.Sort(distinct)

	var buf strings.Builder
	buf.WriteString("CASE")
	for _, s := range st.scores {
		if s.Score == 0 {
			continue
		}
		rank := slices.Index(distinct, s.Score) + 1
		fmt.Fprintf(&buf, " WHEN %s = %d THEN %d", a.Col("id"), s.ElementID, rank)
	}
	buf.WriteString(" ELSE 0 END")
	return buf.String(), true
}
