package query

import (
	"context"
	stderrors "errors"
	"slices"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/cachetags"
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/elementtypes"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/relations"
	"github.com/Ramsey-B/fern/pkg/revisions"
	"github.com/Ramsey-B/fern/pkg/schema"
	"github.com/Ramsey-B/fern/pkg/structure"
)

// state is everything one compile resolves before building SQL. Lookups
// happen once here so that structural clones of the selection reuse them.
type state struct {
	compiler *Compiler
	ctx      context.Context
	criteria *criteria.Criteria
	desc     elementtypes.Descriptor
	now      time.Time
	gen      *schema.AliasGenerator

	// resolved memoizes handle lookups across selections.
	resolved map[string][]int64

	// siteIDs is nil when every site is in scope.
	siteIDs        []int64
	multiSite      bool
	placeholderIDs []int64
	relations      relations.Node
	scope          structure.Scope
	nodes          *structure.Resolved
	ordering       structure.Result
	scores         []Score
}

func (st *state) prepare() error {
	if st.gen == nil {
		st.gen = schema.NewAliasGenerator()
	}
	p := st.criteria.Params

	if err := st.resolveSites(); err != nil {
		return err
	}

	if !p.IgnorePlaceholders {
		st.placeholderIDs = st.compiler.deps.Placeholders.CanonicalIDs(string(st.criteria.Kind), st.siteIDs)
	}

	node, err := relations.FromCriteria(p.RelatedTo, p.NotRelatedTo)
	if err != nil {
		return err
	}
	st.relations = node

	joined := st.desc.Structured() || p.StructureID != nil
	if p.WithStructure != nil {
		joined = *p.WithStructure
	}
	st.scope = structure.Scope{
		Incompatible: p.Trashed != criteria.Exclude || revisions.RevisionVisibility(st.criteria) != criteria.Exclude,
	}
	st.scope.Joined = joined && !st.scope.Incompatible
	if p.StructureID != nil {
		st.scope.StructureID = *p.StructureID
	}
	st.nodes, err = st.compiler.structure.Resolve(st.ctx, st.criteria, st.scope)
	if err != nil {
		return err
	}

	return st.search()
}

func (st *state) resolveSites() error {
	p := st.criteria.Params
	if p.AnySite {
		st.multiSite = true
		return nil
	}

	if len(p.SiteID) == 0 && len(p.Site) == 0 {
		current, err := st.compiler.currentSiteID(st.ctx)
		if err != nil {
			return err
		}
		st.siteIDs = []int64{current}
		return nil
	}

	ids := slices.Clone(p.SiteID)
	if len(p.Site) > 0 {
		sites := st.compiler.deps.Sites
		if sites == nil {
			return errors.NewUpstreamError("sites", "site handles need a site catalog").AddParam("site")
		}
		resolved, err := sites.SiteIDs(st.ctx, p.Site)
		if err != nil {
			return errors.WrapUpstreamError("sites", err).AddParam("site")
		}
		if len(resolved) == 0 {
			return errors.Abortf("no site matches %v", p.Site).AddParam("site")
		}
		ids = append(ids, resolved...)
	}
	slices.Sort(ids)
	st.siteIDs = slices.Compact(ids)
	st.multiSite = len(st.siteIDs) > 1
	return nil
}

func (st *state) search() error {
	term := strings.TrimSpace(st.criteria.Params.Search)
	if term == "" {
		return nil
	}
	searcher := st.compiler.deps.Searcher
	if searcher == nil {
		return errors.NewUpstreamError("search", "search needs a searcher").AddParam("search")
	}
	scores, err := searcher.Search(st.ctx, term, st.criteria)
	if err != nil {
		return errors.WrapUpstreamError("search", err).AddParam("search")
	}
	if len(scores) == 0 {
		return errors.Abortf("no element matches search '%s'", term).AddParam("search")
	}
	st.scores = scores
	return nil
}

func (st *state) build() (*Statement, error) {
	p := st.criteria.Params
	a := schema.DefaultAliases(st.desc.DetailTable())

	sb := database.NewSelectBuilder()
	sb.Select(
		a.Col("id")+" AS "+schema.ElementsIDColumn,
		a.SiteCol("id")+" AS "+schema.SiteSettingsIDColumn,
	)
	fc, err := st.buildSelection(sb, a)
	if err != nil {
		return nil, err
	}

	order, err := st.orderBy(a)
	if err != nil {
		return nil, err
	}
	sb.OrderBy(order...)

	if err := st.applyUnique(sb, a); err != nil {
		return nil, err
	}

	limit := -1
	if p.Limit != nil {
		limit = *p.Limit
	}
	if st.ordering.Limit > 0 && (limit < 0 || st.ordering.Limit < limit) {
		limit = st.ordering.Limit
	}
	if limit >= 0 {
		sb.Limit(limit)
	}
	if p.Offset > 0 {
		sb.Offset(p.Offset)
	}

	columns, full, err := st.columns(a)
	if err != nil {
		return nil, err
	}

	stmt := &Statement{
		Kind:      st.criteria.Kind,
		criteria:  st.criteria.Clone(),
		desc:      st.desc,
		aliases:   a,
		selection: sb,
		orderBy:   order,
		structure: st.scope,
		columns:   columns,
		overlay:   full,
		CacheTags: cachetags.Collect(
			st.criteria,
			st.desc.CacheTags(fc),
			revisions.DraftVisibility(st.criteria),
			revisions.RevisionVisibility(st.criteria),
		),
	}
	if len(st.scores) > 0 {
		stmt.Scores = make(map[int64]float64, len(st.scores))
		for _, s := range st.scores {
			stmt.Scores[s.ElementID] = s.Score
		}
	}
	return stmt, nil
}

// buildSelection adds the FROM clause and every filter stage to sb under a.
// It runs once for the primary selection and once per structural clone.
func (st *state) buildSelection(sb *database.SelectBuilder, a schema.Aliases) (*elementtypes.FilterContext, error) {
	sb.From(schema.TableElements + " AS " + a.Elements)
	sb.Join(schema.TableElementsSites+" AS "+a.Sites, sb.EqualColumns(a.SiteCol("element_id"), a.Col("id")))
	st.desc.JoinDetail(sb, a)

	fc := &elementtypes.FilterContext{
		Context:    st.ctx,
		Builder:    sb,
		Aliases:    a,
		Criteria:   st.criteria,
		Now:        st.now,
		Handles:    st.compiler.deps.Handles,
		Authorizer: st.compiler.deps.Authorizer,
		Logger:     st.compiler.logger,
		Resolved:   st.resolved,
	}

	stages := []func(*elementtypes.FilterContext) error{
		st.identity,
		st.dates,
		st.text,
		st.typeFilters,
		st.relationFilter,
		st.structureFilter,
		st.overlay,
		st.searchFilter,
		st.joins,
	}
	for _, stage := range stages {
		if err := stage(fc); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func (st *state) identity(fc *elementtypes.FilterContext) error {
	sb, a, p := fc.Builder, fc.Aliases, st.criteria.Params

	if p.ID != nil {
		if len(p.ID) == 0 {
			return errors.Abort("empty id list").AddParam("id")
		}
		sb.Where(sb.In(a.Col("id"), int64sToAny(p.ID)...))
	}
	if len(p.NotID) > 0 {
		sb.Where(sb.NotIn(a.Col("id"), int64sToAny(p.NotID)...))
	}
	if len(p.UID) > 0 {
		uids := make([]any, len(p.UID))
		for i, uid := range p.UID {
			uids[i] = uid
		}
		sb.Where(sb.In(a.Col("uid"), uids...))
	}
	if st.siteIDs != nil {
		sb.Where(sb.In(a.SiteCol("site_id"), int64sToAny(st.siteIDs)...))
	}

	statuses := p.Status
	if statuses == nil {
		statuses = st.desc.DefaultStatuses()
	}
	if p.Archived {
		sb.Where(sb.Equal(a.Col("archived"), true))
	} else if !containsFold(statuses, elementtypes.StatusArchived) {
		sb.Where(sb.Equal(a.Col("archived"), false))
	}

	return st.status(fc, statuses)
}

// status ORs the named status predicates. A leading "and" or "not" negates
// the union. Placeholder canonical ids stay visible whatever their status.
func (st *state) status(fc *elementtypes.FilterContext, statuses []string) error {
	if len(statuses) == 0 {
		return nil
	}
	sb, a := fc.Builder, fc.Aliases

	negate := false
	switch strings.ToLower(strings.TrimSpace(statuses[0])) {
	case criteria.GlueOr:
		statuses = statuses[1:]
	case criteria.GlueAnd, criteria.GlueNot:
		negate = true
		statuses = statuses[1:]
	}
	if len(statuses) == 0 {
		return nil
	}

	exprs := make([]string, 0, len(statuses))
	for _, name := range statuses {
		name = strings.ToLower(strings.TrimSpace(name))
		expr, ok := st.desc.Status(fc, name)
		if !ok {
			return errors.NewConfigurationErrorf("invalid status '%s'", name).
				AddParam("status").
				AddElementType(string(st.criteria.Kind))
		}
		exprs = append(exprs, expr)
	}

	cond := exprs[0]
	if len(exprs) > 1 {
		cond = sb.Or(exprs...)
	}
	if negate {
		cond = sb.Not(cond)
	}
	if len(st.placeholderIDs) > 0 {
		cond = sb.Or(cond, sb.In(a.Col("id"), int64sToAny(st.placeholderIDs)...))
	}
	sb.Where(cond)
	return nil
}

func (st *state) dates(fc *elementtypes.FilterContext) error {
	sb, a, p := fc.Builder, fc.Aliases, st.criteria.Params

	switch p.Trashed {
	case criteria.Exclude:
		sb.Where(sb.IsNull(a.Col("date_deleted")))
	case criteria.Only:
		sb.Where(sb.IsNotNull(a.Col("date_deleted")))
	}

	date := criteria.ParamOptions{Type: criteria.ParamDate}
	if err := applyParam(sb, a.Col("date_created"), "dateCreated", p.DateCreated, date); err != nil {
		return err
	}
	return applyParam(sb, a.Col("date_updated"), "dateUpdated", p.DateUpdated, date)
}

func (st *state) text(fc *elementtypes.FilterContext) error {
	sb, a, p := fc.Builder, fc.Aliases, st.criteria.Params
	ci := criteria.ParamOptions{CaseInsensitive: true}

	if err := applyParam(sb, a.SiteCol("title"), "title", p.Title, ci); err != nil {
		return err
	}
	if err := applyParam(sb, a.SiteCol("slug"), "slug", p.Slug, criteria.ParamOptions{}); err != nil {
		return err
	}
	return applyParam(sb, a.SiteCol("uri"), "uri", p.URI, ci)
}

func (st *state) typeFilters(fc *elementtypes.FilterContext) error {
	if err := st.desc.ApplyFilters(fc); err != nil {
		return addElementType(err, st.criteria.Kind)
	}

	for _, fp := range st.criteria.Params.Fields {
		field, typ, err := st.compiler.field(fp.Handle)
		if err != nil {
			return err
		}
		if field == nil {
			return errors.NewConfigurationErrorf("unknown field '%s'", fp.Handle).
				AddParam(fp.Handle).
				AddElementType(string(st.criteria.Kind))
		}
		expr, err := typ.Condition(fc.Builder, fc.Aliases, field, fp.Value)
		if err != nil {
			return err
		}
		if expr != "" {
			fc.Builder.Where(expr)
		}
	}
	return nil
}

func (st *state) relationFilter(fc *elementtypes.FilterContext) error {
	if st.relations == nil {
		return nil
	}
	deps := st.compiler.deps
	rc := relations.NewCompiler(deps.Fields, deps.FieldTypes, st.gen, st.subquery)
	expr, err := rc.Compile(st.ctx, fc.Builder, fc.Aliases.Col("id"), st.relations)
	if stderrors.Is(err, relations.ErrImpossible) {
		return errors.Abort(err.Error()).AddParam("relatedTo")
	}
	if err != nil {
		return err
	}
	if expr != "" {
		fc.Builder.Where(expr)
	}
	return nil
}

func (st *state) structureFilter(fc *elementtypes.FilterContext) error {
	sb, a := fc.Builder, fc.Aliases
	if st.scope.Joined {
		on := []string{sb.EqualColumns(a.StructureCol("element_id"), a.Col("id"))}
		if st.scope.StructureID != 0 {
			on = append(on, sb.Equal(a.StructureCol("structure_id"), st.scope.StructureID))
		}
		sb.JoinWithOption(database.LeftJoin, schema.TableStructure+" AS "+a.Structure, on...)
	}

	result, err := st.compiler.structure.Apply(sb, a, st.criteria, st.nodes)
	if err != nil {
		return err
	}
	st.ordering = result
	return nil
}

func (st *state) overlay(fc *elementtypes.FilterContext) error {
	revisions.Apply(fc.Builder, fc.Aliases, st.criteria, st.placeholderIDs)
	return nil
}

func (st *state) searchFilter(fc *elementtypes.FilterContext) error {
	if len(st.scores) == 0 {
		return nil
	}
	ids := make([]any, len(st.scores))
	for i, s := range st.scores {
		ids[i] = s.ElementID
	}
	fc.Builder.Where(fc.Builder.In(fc.Aliases.Col("id"), ids...))
	return nil
}

// joins applies caller-declared joins and raw predicates.
func (st *state) joins(fc *elementtypes.FilterContext) error {
	sb := fc.Builder
	applyJoins(sb, st.criteria.Params.Join)
	for _, w := range st.criteria.Params.Where {
		if strings.TrimSpace(w.Format) == "" {
			return errors.NewConfigurationError("where expression is empty").AddParam("where")
		}
		sb.Where("(" + sb.Var(sqlbuilder.Buildf(w.Format, w.Args...)) + ")")
	}
	return nil
}

func applyJoins(sb *database.SelectBuilder, joins []criteria.Join) {
	for _, j := range joins {
		if j.Type == criteria.LeftJoin {
			sb.JoinWithOption(database.LeftJoin, j.Table, j.On)
			continue
		}
		sb.Join(j.Table, j.On)
	}
}

// subquery compiles a relation sub-criteria into a selection of element ids
// under fresh aliases of this compile.
func (st *state) subquery(ctx context.Context, c *criteria.Criteria) (*database.SelectBuilder, error) {
	if err := c.Err(); err != nil {
		return nil, err
	}
	desc, err := st.compiler.deps.Descriptors.Get(c.Kind)
	if err != nil {
		return nil, err
	}

	child := &state{
		compiler: st.compiler,
		ctx:      ctx,
		criteria: c,
		desc:     desc,
		now:      st.now,
		gen:      st.gen,
		resolved: map[string][]int64{},
	}
	if err := child.prepare(); err != nil {
		return nil, err
	}

	a := st.gen.Clone(schema.DefaultAliases(desc.DetailTable()))
	sb := database.NewSelectBuilder()
	sb.Select(a.Col("id"))
	if _, err := child.buildSelection(sb, a); err != nil {
		return nil, err
	}
	return sb, nil
}

func applyParam(sb *database.SelectBuilder, column, name string, value any, opts criteria.ParamOptions) error {
	if value == nil {
		return nil
	}
	p, err := criteria.ParseParam(value)
	if err != nil {
		return addParam(err, name)
	}
	expr, err := p.Where(sb, column, opts)
	if err != nil {
		return addParam(err, name)
	}
	if expr != "" {
		sb.Where(expr)
	}
	return nil
}

func addParam(err error, name string) error {
	var qe *errors.QueryError
	if stderrors.As(err, &qe) && qe.Param == "" {
		return qe.AddParam(name)
	}
	return err
}

func addElementType(err error, kind criteria.Kind) error {
	var qe *errors.QueryError
	if stderrors.As(err, &qe) && qe.ElementType == "" {
		return qe.AddElementType(string(kind))
	}
	return err
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func int64sToAny(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
