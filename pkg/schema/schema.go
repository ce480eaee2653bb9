// Package schema names the tables and columns the element query compiler
// reads, and the table aliases a single compiled statement uses.
package schema

import "fmt"

const (
	TableElements      = "elements"
	TableElementsSites = "element_site_projections"
	TableStructure     = "structure_nodes"
	TableRelations     = "relations"
	TableDrafts        = "drafts"
	TableRevisions     = "revisions"
	TableEntries       = "entries"
	TableCategories    = "categories"
	TableAssets        = "assets"
	TableUsers         = "users"
	TableBlocks        = "blocks"
)

const (
	// SubqueryAlias is the alias of the selection query inside the presentation query.
	SubqueryAlias = "subquery"
	// ElementsIDColumn is the selection column carrying the logical element id.
	ElementsIDColumn = "elements_id"
	// SiteSettingsIDColumn is the selection column carrying the site projection id.
	SiteSettingsIDColumn = "site_settings_id"
)

// Aliases are the table aliases used while building one selection query.
// The primary selection uses DefaultAliases; relation sub-criteria get a
// fresh set from an AliasGenerator.
type Aliases struct {
	Elements  string
	Sites     string
	Structure string
	Drafts    string
	Revisions string
	Detail    string
}

// DefaultAliases returns the aliases of the primary selection for a detail table.
func DefaultAliases(detailTable string) Aliases {
	return Aliases{
		Elements:  "elements",
		Sites:     "elements_sites",
		Structure: "structure_nodes",
		Drafts:    "drafts",
		Revisions: "revisions",
		Detail:    detailTable,
	}
}

// Col qualifies column with the elements alias.
func (a Aliases) Col(column string) string {
	return a.Elements + "." + column
}

// SiteCol qualifies column with the site projection alias.
func (a Aliases) SiteCol(column string) string {
	return a.Sites + "." + column
}

// StructureCol qualifies column with the structure alias.
func (a Aliases) StructureCol(column string) string {
	return a.Structure + "." + column
}

// DetailCol qualifies column with the detail table alias.
func (a Aliases) DetailCol(column string) string {
	return a.Detail + "." + column
}

// AliasGenerator hands out aliases that are unique within one compiled
// statement. A generator is created per compile and threaded through every
// stage that needs private table aliases.
type AliasGenerator struct {
	counts map[string]int
}

func NewAliasGenerator() *AliasGenerator {
	return &AliasGenerator{counts: make(map[string]int)}
}

// Next returns prefix suffixed with the next counter value for that prefix.
func (g *AliasGenerator) Next(prefix string) string {
	g.counts[prefix]++
	return fmt.Sprintf("%s%d", prefix, g.counts[prefix])
}

// Clone returns aliases for a structural copy of a selection.
func (g *AliasGenerator) Clone(a Aliases) Aliases {
	return Aliases{
		Elements:  g.Next(a.Elements + "_"),
		Sites:     g.Next(a.Sites + "_"),
		Structure: g.Next(a.Structure + "_"),
		Drafts:    g.Next(a.Drafts + "_"),
		Revisions: g.Next(a.Revisions + "_"),
		Detail:    g.Next(a.Detail + "_"),
	}
}
