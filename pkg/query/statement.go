package query

import (
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/elementtypes"
	"github.com/Ramsey-B/fern/pkg/revisions"
	"github.com/Ramsey-B/fern/pkg/schema"
	"github.com/Ramsey-B/fern/pkg/structure"
)

// Statement is a compiled element query. The selection finds the matching
// (element, site row) pairs, ordered and paged; the presentation query joins
// back to fetch their columns in the same order.
type Statement struct {
	Kind      criteria.Kind
	CacheTags []string
	// Scores holds search scores by element id.
	Scores map[int64]float64

	criteria  *criteria.Criteria
	desc      elementtypes.Descriptor
	aliases   schema.Aliases
	selection *database.SelectBuilder
	orderBy   []string
	structure structure.Scope
	columns   []string
	overlay   bool
}

// Build renders the presentation query.
func (s *Statement) Build() (string, []any) {
	return s.presentation(s.columns, s.overlay).Build()
}

// BuildSelection renders the selection query alone.
func (s *Statement) BuildSelection() (string, []any) {
	return s.selection.Build()
}

// BuildCount renders a count of the selected rows. Limit and offset apply.
func (s *Statement) BuildCount() (string, []any) {
	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*) AS count")
	sb.From(sb.BuilderAs(s.selection, schema.SubqueryAlias))
	return sb.Build()
}

// BuildExists renders a query returning whether any row is selected.
func (s *Statement) BuildExists() (string, []any) {
	sb := database.NewSelectBuilder()
	sb.Select("EXISTS (" + sb.Var(s.selection) + ") AS found")
	return sb.Build()
}

// Columns returns the presentation column list.
func (s *Statement) Columns() []string {
	return s.columns
}

// OrderBy returns the resolved ORDER BY terms.
func (s *Statement) OrderBy() []string {
	return s.orderBy
}

func (s *Statement) presentation(columns []string, overlay bool) *database.SelectBuilder {
	a := s.aliases
	sb := database.NewSelectBuilder()
	sb.From(sb.BuilderAs(s.selection, schema.SubqueryAlias))
	sb.Join(schema.TableElements+" AS "+a.Elements,
		sb.EqualColumns(a.Col("id"), schema.SubqueryAlias+"."+schema.ElementsIDColumn))
	sb.Join(schema.TableElementsSites+" AS "+a.Sites,
		sb.EqualColumns(a.SiteCol("id"), schema.SubqueryAlias+"."+schema.SiteSettingsIDColumn))
	s.desc.JoinDetail(sb, a)

	if s.structure.Joined {
		on := []string{sb.EqualColumns(a.StructureCol("element_id"), a.Col("id"))}
		if s.structure.StructureID != 0 {
			on = append(on, sb.Equal(a.StructureCol("structure_id"), s.structure.StructureID))
		}
		sb.JoinWithOption(database.LeftJoin, schema.TableStructure+" AS "+a.Structure, on...)
	}

	overlayColumns := revisions.Present(sb, a, s.criteria)
	if overlay {
		columns = append(append([]string{}, columns...), overlayColumns...)
	}
	applyJoins(sb, s.criteria.Params.Join)

	sb.Select(columns...)
	sb.OrderBy(s.orderBy...)
	return sb
}
