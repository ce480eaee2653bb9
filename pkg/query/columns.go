package query

import (
	"slices"
	"strings"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// defaultColumns is the presentation column list of a full element row.
func (st *state) defaultColumns(a schema.Aliases) []string {
	cols := []string{
		a.Col(models.ColID),
		a.Col(models.ColType),
		a.Col(models.ColUID),
		a.Col(models.ColCanonicalID),
		a.Col(models.ColDraftID),
		a.Col(models.ColRevisionID),
		a.Col(models.ColEnabled),
		a.Col(models.ColArchived),
		a.Col(models.ColDateDeleted),
		a.Col(models.ColDateCreated),
		a.Col(models.ColDateUpdated),
		a.SiteCol("id") + " AS " + models.ColSiteSettingsID,
		a.SiteCol(models.ColSiteID),
		a.SiteCol(models.ColTitle),
		a.SiteCol(models.ColSlug),
		a.SiteCol(models.ColURI),
		a.SiteCol("enabled") + " AS " + models.ColEnabledForSite,
		a.SiteCol(models.ColContent),
	}
	if st.scope.Joined {
		cols = append(cols,
			a.StructureCol(models.ColStructureID),
			a.StructureCol(models.ColRoot),
			a.StructureCol(models.ColLft),
			a.StructureCol(models.ColRgt),
			a.StructureCol(models.ColLevel),
		)
	}
	return append(cols, st.desc.Columns(a)...)
}

// columns resolves the caller's selection. It reports whether the selection
// is a full element row, which also carries the overlay metadata columns.
func (st *state) columns(a schema.Aliases) ([]string, bool, error) {
	selected := st.criteria.Params.Select
	if len(selected) == 0 {
		return st.defaultColumns(a), true, nil
	}

	var cols []string
	full := false
	for _, name := range selected {
		name = strings.TrimSpace(name)
		if name == criteria.AllColumns {
			if !full {
				full = true
				cols = appendUnique(cols, st.defaultColumns(a)...)
			}
			continue
		}
		col, err := st.selectColumn(a, name)
		if err != nil {
			return nil, false, err
		}
		cols = appendUnique(cols, col)
	}
	return cols, full, nil
}

// selectColumn rewrites a bare name to its owning table. Field values are
// aliased to their handle.
func (st *state) selectColumn(a schema.Aliases, name string) (string, error) {
	if name == "" || strings.ContainsAny(name, ". (") {
		return name, nil
	}
	if _, ok := attributes[name]; ok {
		return st.column(a, name)
	}
	if col, ok := st.desc.Attribute(a, name); ok {
		return col, nil
	}
	col, err := st.column(a, name)
	if err != nil {
		return "", err
	}
	if col != name {
		return col + ` AS "` + name + `"`, nil
	}
	return name, nil
}

func appendUnique(cols []string, add ...string) []string {
	for _, c := range add {
		if !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	return cols
}
