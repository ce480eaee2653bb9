// Package query compiles element criteria into a two-stage SQL statement: a
// selection query that finds matching (element, site projection) pairs and a
// presentation query that joins back to fetch their columns.
package query

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"go.opentelemetry.io/otel/attribute"

	pkgcontext "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/elementtypes"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/placeholders"
	"github.com/Ramsey-B/fern/pkg/structure"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Score is one search match.
type Score struct {
	ElementID int64
	Score     float64
}

// Searcher runs full-text search. Results are ordered by relevance.
type Searcher interface {
	Search(ctx context.Context, term string, c *criteria.Criteria) ([]Score, error)
}

// SiteCatalog resolves sites.
type SiteCatalog interface {
	SiteIDs(ctx context.Context, handles []string) ([]int64, error)
	AllSiteIDs(ctx context.Context) ([]int64, error)
	PrimarySiteID(ctx context.Context) (int64, error)
}

// Dependencies are the collaborators a compiler consults. Only Descriptors
// is required; the rest are needed by the params that use them.
type Dependencies struct {
	Descriptors  *elementtypes.Registry
	Fields       fields.Catalog
	FieldTypes   *fields.Registry
	Sites        SiteCatalog
	Handles      elementtypes.HandleResolver
	Authorizer   elementtypes.Authorizer
	Searcher     Searcher
	Nodes        structure.NodeResolver
	Placeholders *placeholders.Snapshot
	// Clock defaults to time.Now.
	Clock func() time.Time
}

type Compiler struct {
	deps      Dependencies
	structure *structure.Filter
	logger    ectologger.Logger
}

func NewCompiler(logger ectologger.Logger, deps Dependencies) *Compiler {
	if deps.Descriptors == nil {
		deps.Descriptors = elementtypes.DefaultRegistry()
	}
	if deps.FieldTypes == nil {
		deps.FieldTypes = fields.DefaultRegistry()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Compiler{
		deps:      deps,
		structure: structure.NewFilter(deps.Nodes, logger),
		logger:    logger,
	}
}

// Compile runs the compile pipeline over c. An aborted query is returned as
// an error matching errors.ErrAborted and must not be executed.
func (c *Compiler) Compile(ctx context.Context, cr *criteria.Criteria) (*Statement, error) {
	ctx, span := tracing.StartSpan(ctx, "query.Compile", attribute.String("element.kind", string(cr.Kind)))
	defer span.End()

	start := time.Now()
	q, err := c.compile(ctx, cr)
	metrics.CompileDuration.WithLabelValues(string(cr.Kind)).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.CompilesTotal.WithLabelValues(string(cr.Kind), "ok").Inc()
	case errors.IsAborted(err):
		metrics.CompilesTotal.WithLabelValues(string(cr.Kind), "aborted").Inc()
		c.logger.WithContext(ctx).WithFields(map[string]any{
			"element_type": cr.Kind,
			"reason":       err.Error(),
		}).Debug("element query aborted")
	default:
		metrics.CompilesTotal.WithLabelValues(string(cr.Kind), "error").Inc()
		tracing.RecordError(span, err)
		c.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"element_type": cr.Kind}).Error("failed to compile element query")
	}
	return q, err
}

func (c *Compiler) compile(ctx context.Context, cr *criteria.Criteria) (*Statement, error) {
	if err := cr.Err(); err != nil {
		return nil, err
	}

	desc, err := c.deps.Descriptors.Get(cr.Kind)
	if err != nil {
		return nil, err
	}

	st, err := c.newState(ctx, cr, desc)
	if err != nil {
		return nil, err
	}
	return st.build()
}

func (c *Compiler) newState(ctx context.Context, cr *criteria.Criteria, desc elementtypes.Descriptor) (*state, error) {
	st := &state{
		compiler: c,
		ctx:      ctx,
		criteria: cr,
		desc:     desc,
		now:      c.deps.Clock().UTC().Truncate(time.Minute),
		resolved: map[string][]int64{},
	}
	if err := st.prepare(); err != nil {
		return nil, err
	}
	return st, nil
}

// currentSiteID is the request's site, else the primary site.
func (c *Compiler) currentSiteID(ctx context.Context) (int64, error) {
	if id, ok := pkgcontext.GetSiteID(ctx); ok {
		return id, nil
	}
	if c.deps.Sites == nil {
		return 0, errors.NewUpstreamError("sites", "no current site in context and no site catalog")
	}
	id, err := c.deps.Sites.PrimarySiteID(ctx)
	if err != nil {
		return 0, errors.WrapUpstreamError("sites", err)
	}
	return id, nil
}

// field looks up a custom field by handle. A nil field means the handle is unknown.
func (c *Compiler) field(handle string) (*fields.Field, fields.Type, error) {
	if c.deps.Fields == nil {
		return nil, nil, errors.NewUpstreamError("fields", "field params need a field catalog").AddParam(handle)
	}
	f, ok := c.deps.Fields.FieldByHandle(handle)
	if !ok {
		return nil, nil, nil
	}
	t, err := c.deps.FieldTypes.TypeOf(f)
	if err != nil {
		return nil, nil, err
	}
	return f, t, nil
}
