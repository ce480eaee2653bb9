package elementtypes

import (
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// Block elements are the rows of container fields, owned by another element.
type Block struct {
	base
}

func (Block) Kind() criteria.Kind { return criteria.KindBlock }

func (Block) DetailTable() string { return schema.TableBlocks }

func (Block) DefaultOrder() []criteria.OrderTerm {
	return []criteria.OrderTerm{order("sortOrder", false)}
}

func (Block) Attribute(a schema.Aliases, name string) (string, bool) {
	switch name {
	case "fieldId":
		return a.DetailCol("field_id"), true
	case "ownerId", "primaryOwnerId":
		return a.DetailCol("primary_owner_id"), true
	case "typeId":
		return a.DetailCol("type_id"), true
	case "sortOrder":
		return a.DetailCol("sort_order"), true
	}
	return "", false
}

func (Block) JoinDetail(sb *database.SelectBuilder, a schema.Aliases) {
	joinDetail(sb, a, schema.TableBlocks)
}

func (Block) ApplyFilters(fc *FilterContext) error {
	p := fc.Criteria.Block()
	if p == nil {
		return nil
	}
	a := fc.Aliases
	if p.FieldID != nil {
		fc.in(a.DetailCol("field_id"), p.FieldID)
	}
	if p.OwnerID != nil {
		fc.in(a.DetailCol("primary_owner_id"), p.OwnerID)
	}
	if p.TypeID != nil {
		fc.in(a.DetailCol("type_id"), p.TypeID)
	}
	return nil
}

func (Block) CacheTags(fc *FilterContext) []string {
	p := fc.Criteria.Block()
	if p == nil {
		return nil
	}
	return append(tags("owner", p.OwnerID), tags("field", p.FieldID)...)
}

func (Block) Columns(a schema.Aliases) []string {
	return columns(a, "field_id", "primary_owner_id", "type_id", "sort_order")
}
