package elementtypes

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/schema"
)

const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
	StatusArchived = "archived"
)

// base carries the statuses and hooks every kind shares.
type base struct{}

func (base) Structured() bool { return false }

func (base) DefaultStatuses() []string { return []string{StatusEnabled} }

func (base) Status(fc *FilterContext, name string) (string, bool) {
	return baseStatus(fc, name)
}

func baseStatus(fc *FilterContext, name string) (string, bool) {
	sb, a := fc.Builder, fc.Aliases
	switch name {
	case StatusEnabled:
		return sb.And(sb.Equal(a.Col("enabled"), true), sb.Equal(a.SiteCol("enabled"), true)), true
	case StatusDisabled:
		return sb.Or(sb.Equal(a.Col("enabled"), false), sb.Equal(a.SiteCol("enabled"), false)), true
	case StatusArchived:
		return sb.Equal(a.Col("archived"), true), true
	}
	return "", false
}

func (base) Attribute(schema.Aliases, string) (string, bool) { return "", false }

func (base) CacheTags(*FilterContext) []string { return nil }

func joinDetail(sb *database.SelectBuilder, a schema.Aliases, table string) {
	sb.Join(fmt.Sprintf("%s AS %s", table, a.Detail), sb.EqualColumns(a.DetailCol("id"), a.Col("id")))
}

func columns(a schema.Aliases, names ...string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = a.DetailCol(name)
	}
	return out
}

func tags(prefix string, ids []int64) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("%s:%d", prefix, id))
	}
	return out
}

// order is a default order term on a bare attribute.
func order(column string, desc bool) criteria.OrderTerm {
	return criteria.OrderTerm{Column: column, Desc: desc}
}
