// Package criteria holds the mutable parameter bag an element query is
// compiled from, and the param mini-language its text, date and number params
// are written in.
package criteria

import (
	"slices"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/resultcache"
)

// Kind is a concrete element kind.
type Kind string

const (
	KindEntry    Kind = "entry"
	KindCategory Kind = "category"
	KindAsset    Kind = "asset"
	KindUser     Kind = "user"
	KindBlock    Kind = "block"
)

// Kinds lists every registered element kind.
var Kinds = []Kind{KindEntry, KindCategory, KindAsset, KindUser, KindBlock}

// AllColumns is the Select sentinel for the default column list.
const AllColumns = "**"

// Params is the plain data of a criteria. For slices nil means "not set";
// an empty, non-nil ID list matches nothing.
type Params struct {
	ID          []int64  `json:"id"`
	NotID       []int64  `json:"not_id,omitempty"`
	UID         []string `json:"uid,omitempty"`
	SiteID      []int64  `json:"site_id,omitempty"`
	Site        []string `json:"site,omitempty"`
	AnySite     bool     `json:"any_site,omitempty"`
	Unique      bool     `json:"unique,omitempty"`
	PreferSites []int64  `json:"prefer_sites,omitempty"`
	Archived    bool     `json:"archived,omitempty"`
	// Status nil applies the kind's default statuses; empty disables status filtering.
	Status      []string   `json:"status"`
	Trashed     Visibility `json:"trashed,omitempty"`
	DateCreated any        `json:"date_created,omitempty"`
	DateUpdated any        `json:"date_updated,omitempty"`
	Title       any        `json:"title,omitempty"`
	Slug        any        `json:"slug,omitempty"`
	URI         any        `json:"uri,omitempty"`
	Search      string     `json:"search,omitempty"`

	RelatedTo    []any `json:"related_to,omitempty"`
	NotRelatedTo []any `json:"not_related_to,omitempty"`

	StructureID      *int64   `json:"structure_id,omitempty"`
	WithStructure    *bool    `json:"with_structure,omitempty"`
	HasDescendants   *bool    `json:"has_descendants,omitempty"`
	AncestorOf       *NodeRef `json:"ancestor_of,omitempty"`
	AncestorDist     *int64   `json:"ancestor_dist,omitempty"`
	DescendantOf     *NodeRef `json:"descendant_of,omitempty"`
	DescendantDist   *int64   `json:"descendant_dist,omitempty"`
	SiblingOf        *NodeRef `json:"sibling_of,omitempty"`
	PrevSiblingOf    *NodeRef `json:"prev_sibling_of,omitempty"`
	NextSiblingOf    *NodeRef `json:"next_sibling_of,omitempty"`
	PositionedBefore *NodeRef `json:"positioned_before,omitempty"`
	PositionedAfter  *NodeRef `json:"positioned_after,omitempty"`
	Level            any      `json:"level,omitempty"`
	Leaves           bool     `json:"leaves,omitempty"`

	Drafts            Visibility    `json:"drafts,omitempty"`
	DraftID           *int64        `json:"draft_id,omitempty"`
	DraftOf           *DraftOfParam `json:"draft_of,omitempty"`
	DraftCreator      *int64        `json:"draft_creator,omitempty"`
	ProvisionalDrafts Visibility    `json:"provisional_drafts,omitempty"`
	SavedDraftsOnly   bool          `json:"saved_drafts_only,omitempty"`
	Revisions         Visibility    `json:"revisions,omitempty"`
	RevisionID        *int64        `json:"revision_id,omitempty"`
	RevisionOf        *int64        `json:"revision_of,omitempty"`
	RevisionCreator   *int64        `json:"revision_creator,omitempty"`

	IgnorePlaceholders bool `json:"ignore_placeholders,omitempty"`

	// OrderBy nil applies the default order; empty disables ordering.
	OrderBy    []OrderTerm `json:"order_by"`
	FixedOrder bool        `json:"fixed_order,omitempty"`
	InReverse  bool        `json:"in_reverse,omitempty"`
	Limit      *int        `json:"limit,omitempty"`
	Offset     int         `json:"offset,omitempty"`

	Select []string     `json:"select,omitempty"`
	Join   []Join       `json:"join,omitempty"`
	Where  []Where      `json:"where,omitempty"`
	Fields []FieldParam `json:"fields,omitempty"`
	With   []EagerLoad  `json:"with,omitempty"`

	TypeParams TypeParams `json:"type_params,omitempty"`
}

// Criteria is the mutable query description owned by one caller at a time.
// Setters return the criteria for chaining. Params a kind does not support
// are recorded and reported by Err and by compilation.
type Criteria struct {
	Params
	Kind Kind

	err     error
	results *resultcache.Cache[[]*models.Element]
}

// New returns a criteria for kind with that kind's defaults.
func New(kind Kind) *Criteria {
	return &Criteria{
		Kind:   kind,
		Params: Params{TypeParams: newTypeParams(kind)},
	}
}

func Entries() *Criteria    { return New(KindEntry) }
func Categories() *Criteria { return New(KindCategory) }
func Assets() *Criteria     { return New(KindAsset) }
func Users() *Criteria      { return New(KindUser) }
func Blocks() *Criteria     { return New(KindBlock) }

// Err returns the first misuse recorded by a setter.
func (c *Criteria) Err() error {
	return c.err
}

func (c *Criteria) unsupported(param string) {
	if c.err == nil {
		c.err = errors.NewConfigurationErrorf("%s elements do not support this param", c.Kind).
			AddParam(param).
			AddElementType(string(c.Kind))
	}
}

// Results returns the criteria's memoized result set.
func (c *Criteria) Results() *resultcache.Cache[[]*models.Element] {
	if c.results == nil {
		c.results = resultcache.New[[]*models.Element]()
	}
	return c.results
}

// Clone returns an independent copy without the memoized results.
func (c *Criteria) Clone() *Criteria {
	clone := &Criteria{Kind: c.Kind, Params: c.Params, err: c.err}
	p := &clone.Params
	p.ID = slices.Clone(c.Params.ID)
	p.NotID = slices.Clone(c.Params.NotID)
	p.UID = slices.Clone(c.Params.UID)
	p.SiteID = slices.Clone(c.Params.SiteID)
	p.Site = slices.Clone(c.Params.Site)
	p.PreferSites = slices.Clone(c.Params.PreferSites)
	p.Status = slices.Clone(c.Params.Status)
	p.RelatedTo = slices.Clone(c.Params.RelatedTo)
	p.NotRelatedTo = slices.Clone(c.Params.NotRelatedTo)
	p.OrderBy = slices.Clone(c.Params.OrderBy)
	p.Select = slices.Clone(c.Params.Select)
	p.Join = slices.Clone(c.Params.Join)
	p.Where = slices.Clone(c.Params.Where)
	p.Fields = slices.Clone(c.Params.Fields)
	p.With = slices.Clone(c.Params.With)
	p.TypeParams = cloneTypeParams(c.Params.TypeParams)
	return clone
}

func cloneTypeParams(tp TypeParams) TypeParams {
	switch p := tp.(type) {
	case *EntryParams:
		cp := *p
		return &cp
	case *CategoryParams:
		cp := *p
		return &cp
	case *AssetParams:
		cp := *p
		return &cp
	case *UserParams:
		cp := *p
		return &cp
	case *BlockParams:
		cp := *p
		return &cp
	}
	return nil
}

// Identity and site

// ID restricts to ids. Calling ID with no arguments matches nothing.
func (c *Criteria) ID(ids ...int64) *Criteria {
	c.Params.ID = slices.Clone(ids)
	if c.Params.ID == nil {
		c.Params.ID = []int64{}
	}
	return c
}

// AnyID clears the id restriction.
func (c *Criteria) AnyID() *Criteria {
	c.Params.ID = nil
	return c
}

func (c *Criteria) NotID(ids ...int64) *Criteria {
	c.Params.NotID = ids
	return c
}

func (c *Criteria) UID(uids ...string) *Criteria {
	c.Params.UID = uids
	return c
}

func (c *Criteria) SiteID(ids ...int64) *Criteria {
	c.Params.SiteID = ids
	c.Params.AnySite = false
	return c
}

// Site restricts to sites by handle; "*" selects every site.
func (c *Criteria) Site(handles ...string) *Criteria {
	if slices.Contains(handles, "*") {
		return c.AnySite()
	}
	c.Params.Site = handles
	c.Params.AnySite = false
	return c
}

func (c *Criteria) AnySite() *Criteria {
	c.Params.AnySite = true
	c.Params.SiteID = nil
	c.Params.Site = nil
	return c
}

func (c *Criteria) Unique(unique bool) *Criteria {
	c.Params.Unique = unique
	return c
}

func (c *Criteria) PreferSites(siteIDs ...int64) *Criteria {
	c.Params.PreferSites = siteIDs
	return c
}

func (c *Criteria) Archived(archived bool) *Criteria {
	c.Params.Archived = archived
	return c
}

// Status filters by status names, optionally led by "or", "and" or "not".
// Calling Status with no arguments disables status filtering.
func (c *Criteria) Status(statuses ...string) *Criteria {
	c.Params.Status = slices.Clone(statuses)
	if c.Params.Status == nil {
		c.Params.Status = []string{}
	}
	return c
}

// DefaultStatus restores the kind's default statuses.
func (c *Criteria) DefaultStatus() *Criteria {
	c.Params.Status = nil
	return c
}

func (c *Criteria) Trashed(v Visibility) *Criteria {
	c.Params.Trashed = v
	return c
}

// Dates and text

func (c *Criteria) DateCreated(value any) *Criteria {
	c.Params.DateCreated = value
	return c
}

func (c *Criteria) DateUpdated(value any) *Criteria {
	c.Params.DateUpdated = value
	return c
}

func (c *Criteria) Title(value any) *Criteria {
	c.Params.Title = value
	return c
}

func (c *Criteria) Slug(value any) *Criteria {
	c.Params.Slug = value
	return c
}

func (c *Criteria) URI(value any) *Criteria {
	c.Params.URI = value
	return c
}

func (c *Criteria) Search(term string) *Criteria {
	c.Params.Search = term
	return c
}

// Field filters on a custom field value. Setting the same handle twice replaces it.
func (c *Criteria) Field(handle string, value any) *Criteria {
	for i, f := range c.Params.Fields {
		if f.Handle == handle {
			c.Params.Fields[i].Value = value
			return c
		}
	}
	c.Params.Fields = append(c.Params.Fields, FieldParam{Handle: handle, Value: value})
	return c
}

// Relations

// RelatedTo replaces every relation spec with spec.
func (c *Criteria) RelatedTo(spec any) *Criteria {
	if spec == nil {
		c.Params.RelatedTo = nil
		return c
	}
	c.Params.RelatedTo = []any{spec}
	return c
}

// AndRelatedTo adds a spec that must hold together with the existing ones.
func (c *Criteria) AndRelatedTo(spec any) *Criteria {
	c.Params.RelatedTo = append(c.Params.RelatedTo, spec)
	return c
}

func (c *Criteria) NotRelatedTo(spec any) *Criteria {
	c.Params.NotRelatedTo = append(c.Params.NotRelatedTo, spec)
	return c
}

// Structure

func (c *Criteria) StructureID(id int64) *Criteria {
	c.Params.StructureID = &id
	return c
}

func (c *Criteria) WithStructure(with bool) *Criteria {
	c.Params.WithStructure = &with
	return c
}

func (c *Criteria) HasDescendants(has bool) *Criteria {
	c.Params.HasDescendants = &has
	return c
}

func (c *Criteria) AncestorOf(ref *NodeRef) *Criteria {
	c.Params.AncestorOf = ref
	return c
}

func (c *Criteria) AncestorDist(dist int64) *Criteria {
	c.Params.AncestorDist = &dist
	return c
}

func (c *Criteria) DescendantOf(ref *NodeRef) *Criteria {
	c.Params.DescendantOf = ref
	return c
}

func (c *Criteria) DescendantDist(dist int64) *Criteria {
	c.Params.DescendantDist = &dist
	return c
}

func (c *Criteria) SiblingOf(ref *NodeRef) *Criteria {
	c.Params.SiblingOf = ref
	return c
}

func (c *Criteria) PrevSiblingOf(ref *NodeRef) *Criteria {
	c.Params.PrevSiblingOf = ref
	return c
}

func (c *Criteria) NextSiblingOf(ref *NodeRef) *Criteria {
	c.Params.NextSiblingOf = ref
	return c
}

func (c *Criteria) PositionedBefore(ref *NodeRef) *Criteria {
	c.Params.PositionedBefore = ref
	return c
}

func (c *Criteria) PositionedAfter(ref *NodeRef) *Criteria {
	c.Params.PositionedAfter = ref
	return c
}

func (c *Criteria) Level(value any) *Criteria {
	c.Params.Level = value
	return c
}

func (c *Criteria) Leaves(leaves bool) *Criteria {
	c.Params.Leaves = leaves
	return c
}

// Drafts and revisions

func (c *Criteria) Drafts(v Visibility) *Criteria {
	c.Params.Drafts = v
	return c
}

func (c *Criteria) DraftID(id int64) *Criteria {
	c.Params.DraftID = &id
	return c
}

// DraftOf narrows to drafts of canonicalID.
func (c *Criteria) DraftOf(canonicalID int64) *Criteria {
	c.Params.DraftOf = &DraftOfParam{CanonicalID: &canonicalID}
	return c
}

// DraftOfAny matches drafts of any canonical element.
func (c *Criteria) DraftOfAny() *Criteria {
	c.Params.DraftOf = &DraftOfParam{Any: true}
	return c
}

// DraftOfNone matches drafts that have no canonical element yet.
func (c *Criteria) DraftOfNone() *Criteria {
	c.Params.DraftOf = &DraftOfParam{}
	return c
}

func (c *Criteria) DraftCreator(userID int64) *Criteria {
	c.Params.DraftCreator = &userID
	return c
}

func (c *Criteria) ProvisionalDrafts(v Visibility) *Criteria {
	c.Params.ProvisionalDrafts = v
	return c
}

func (c *Criteria) SavedDraftsOnly(saved bool) *Criteria {
	c.Params.SavedDraftsOnly = saved
	return c
}

func (c *Criteria) Revisions(v Visibility) *Criteria {
	c.Params.Revisions = v
	return c
}

func (c *Criteria) RevisionID(id int64) *Criteria {
	c.Params.RevisionID = &id
	return c
}

func (c *Criteria) RevisionOf(canonicalID int64) *Criteria {
	c.Params.RevisionOf = &canonicalID
	return c
}

func (c *Criteria) RevisionCreator(userID int64) *Criteria {
	c.Params.RevisionCreator = &userID
	return c
}

func (c *Criteria) IgnorePlaceholders(ignore bool) *Criteria {
	c.Params.IgnorePlaceholders = ignore
	return c
}

// Ordering and paging

// OrderBy replaces the order with terms like "title", "postDate desc" or
// "score". Calling OrderBy with no arguments disables ordering.
func (c *Criteria) OrderBy(terms ...string) *Criteria {
	c.Params.OrderBy = make([]OrderTerm, 0, len(terms))
	for _, t := range terms {
		if term := ParseOrderTerm(t); term.Column != "" {
			c.Params.OrderBy = append(c.Params.OrderBy, term)
		}
	}
	return c
}

// OrderByRaw appends an opaque ORDER BY expression.
func (c *Criteria) OrderByRaw(expr string) *Criteria {
	if c.Params.OrderBy == nil {
		c.Params.OrderBy = []OrderTerm{}
	}
	c.Params.OrderBy = append(c.Params.OrderBy, OrderTerm{Column: expr, Raw: true})
	return c
}

// DefaultOrder restores the kind's default order.
func (c *Criteria) DefaultOrder() *Criteria {
	c.Params.OrderBy = nil
	return c
}

// FixedOrder orders results by the position of their id in the ID list.
func (c *Criteria) FixedOrder(fixed bool) *Criteria {
	c.Params.FixedOrder = fixed
	return c
}

func (c *Criteria) InReverse(reverse bool) *Criteria {
	c.Params.InReverse = reverse
	return c
}

func (c *Criteria) Limit(limit int) *Criteria {
	c.Params.Limit = &limit
	return c
}

func (c *Criteria) NoLimit() *Criteria {
	c.Params.Limit = nil
	return c
}

func (c *Criteria) Offset(offset int) *Criteria {
	c.Params.Offset = offset
	return c
}

// Columns, joins and eager loading

// Select replaces the selected columns. AllColumns expands to the defaults.
func (c *Criteria) Select(columns ...string) *Criteria {
	c.Params.Select = columns
	return c
}

func (c *Criteria) AddSelect(columns ...string) *Criteria {
	if len(c.Params.Select) == 0 {
		c.Params.Select = []string{AllColumns}
	}
	c.Params.Select = append(c.Params.Select, columns...)
	return c
}

func (c *Criteria) InnerJoin(table, on string) *Criteria {
	c.Params.Join = append(c.Params.Join, Join{Type: InnerJoin, Table: table, On: on})
	return c
}

func (c *Criteria) LeftJoin(table, on string) *Criteria {
	c.Params.Join = append(c.Params.Join, Join{Type: LeftJoin, Table: table, On: on})
	return c
}

// Where appends a raw predicate; format uses %v for each arg.
func (c *Criteria) Where(format string, args ...any) *Criteria {
	c.Params.Where = append(c.Params.Where, Where{Format: format, Args: args})
	return c
}

func (c *Criteria) With(plans ...EagerLoad) *Criteria {
	c.Params.With = append(c.Params.With, plans...)
	return c
}
