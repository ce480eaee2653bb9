package query

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// applyUnique keeps one site row per element when more than one site is in
// scope. The selection is rebuilt as the set of site rows that pass every
// filter. A correlated subquery under a fresh alias ranks the outer element's
// rows from that set by site preference and picks the first, so caller
// predicates are always evaluated against the candidate row itself.
func (st *state) applyUnique(sb *database.SelectBuilder, a schema.Aliases) error {
	if !st.criteria.Params.Unique || !st.multiSite {
		return nil
	}

	prefer := st.criteria.Params.PreferSites
	if len(prefer) == 0 {
		current, err := st.compiler.currentSiteID(st.ctx)
		if err != nil {
			return err
		}
		prefer = []int64{current}
	}

	// Caller joins and raw predicates name the default aliases, so the
	// filtered set is built under them in its own scope.
	filtered := database.NewSelectBuilder()
	filtered.Select(a.SiteCol("id"))
	if _, err := st.buildSelection(filtered, a); err != nil {
		return err
	}

	candidates := st.gen.Next(a.Sites + "_")
	col := func(column string) string { return candidates + "." + column }
	sub := database.NewSelectBuilder()
	sub.Select(col("id")).From(schema.TableElementsSites + " AS " + candidates)
	sub.Where(
		sub.EqualColumns(col("element_id"), a.Col("id")),
		fmt.Sprintf("%s IN (%s)", col("id"), sub.Var(filtered)),
	)
	sub.OrderBy(
		database.Case(col("site_id"), prefer, len(prefer))+" ASC",
		col("id")+" ASC",
	)
	sub.Limit(1)

	sb.Where(fmt.Sprintf("%s = (%s)", a.SiteCol("id"), sb.Var(sub)))
	return nil
}
