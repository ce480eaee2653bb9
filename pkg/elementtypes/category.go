package elementtypes

import (
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// Category elements live in a structure per group.
type Category struct {
	base
}

func (Category) Kind() criteria.Kind { return criteria.KindCategory }

func (Category) DetailTable() string { return schema.TableCategories }

func (Category) Structured() bool { return true }

func (Category) DefaultOrder() []criteria.OrderTerm {
	return []criteria.OrderTerm{order("title", false)}
}

func (Category) Attribute(a schema.Aliases, name string) (string, bool) {
	if name == "groupId" {
		return a.DetailCol("group_id"), true
	}
	return "", false
}

func (Category) JoinDetail(sb *database.SelectBuilder, a schema.Aliases) {
	joinDetail(sb, a, schema.TableCategories)
}

func (Category) ApplyFilters(fc *FilterContext) error {
	p := fc.Criteria.Category()
	if p == nil {
		return nil
	}
	groupIDs, ok, err := fc.ids("group", HandleGroup, p.Group, p.GroupID)
	if err != nil {
		return err
	}
	if ok {
		fc.in(fc.Aliases.DetailCol("group_id"), groupIDs)
	}
	return nil
}

func (Category) CacheTags(fc *FilterContext) []string {
	p := fc.Criteria.Category()
	if p == nil {
		return nil
	}
	return tags("group", append(append([]int64{}, p.GroupID...), fc.Resolved["group"]...))
}

func (Category) Columns(a schema.Aliases) []string {
	return columns(a, "group_id")
}
