// Package elementtypes holds the closed set of element kinds and the query
// hooks each kind contributes: statuses, default order, detail join, type
// params, cache tags and detail columns.
package elementtypes

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// HandleKind names a handle namespace.
type HandleKind string

const (
	HandleSection   HandleKind = "section"
	HandleEntryType HandleKind = "entryType"
	HandleGroup     HandleKind = "group"
	HandleVolume    HandleKind = "volume"
)

// HandleResolver maps handles to ids.
type HandleResolver interface {
	IDs(ctx context.Context, kind HandleKind, handles []string) ([]int64, error)
}

// Permissions are the container ids an actor may act on fully, only on
// elements they authored, or not at all.
type Permissions struct {
	Full        []int64
	Conditional []int64
	Denied      []int64
}

// Authorizer evaluates permissions for an actor.
type Authorizer interface {
	Permissions(ctx context.Context, actorID int64, permission string) (Permissions, error)
}

// FilterContext is the state a descriptor hook works against.
type FilterContext struct {
	Context  context.Context
	Builder  *database.SelectBuilder
	Aliases  schema.Aliases
	Criteria *criteria.Criteria
	// Now is the compile clock, truncated to the minute.
	Now        time.Time
	Handles    HandleResolver
	Authorizer Authorizer
	Logger     ectologger.Logger

	// Resolved holds ids resolved from handles, keyed by param, for cache tags.
	Resolved map[string][]int64
}

func (fc *FilterContext) resolve(param string, kind HandleKind, handles []string) ([]int64, error) {
	if ids, ok := fc.Resolved[param]; ok {
		return ids, nil
	}
	if fc.Handles == nil {
		return nil, errors.NewUpstreamError("handles", "a handle resolver is required").AddParam(param)
	}
	ids, err := fc.Handles.IDs(fc.Context, kind, handles)
	if err != nil {
		return nil, errors.WrapUpstreamError("handles", err).AddParam(param)
	}
	if len(ids) == 0 {
		return nil, errors.Abortf("no %s matches %v", kind, handles).AddParam(param)
	}
	if fc.Resolved == nil {
		fc.Resolved = map[string][]int64{}
	}
	fc.Resolved[param] = ids
	return ids, nil
}

// ids merges explicit ids with the ids of handles. Both empty means no filter.
func (fc *FilterContext) ids(param string, kind HandleKind, handles []string, explicit []int64) ([]int64, bool, error) {
	if len(handles) == 0 {
		return explicit, explicit != nil, nil
	}
	resolved, err := fc.resolve(param, kind, handles)
	if err != nil {
		return nil, false, err
	}
	return append(append([]int64{}, explicit...), resolved...), true, nil
}

func (fc *FilterContext) where(expr string) {
	if expr != "" {
		fc.Builder.Where(expr)
	}
}

func (fc *FilterContext) in(column string, ids []int64) {
	fc.Builder.Where(fc.Builder.InList(column, toAny(ids)...))
}

func (fc *FilterContext) param(column string, value any, opts criteria.ParamOptions) error {
	if value == nil {
		return nil
	}
	p, err := criteria.ParseParam(value)
	if err != nil {
		return err
	}
	expr, err := p.Where(fc.Builder, column, opts)
	if err != nil {
		return err
	}
	fc.where(expr)
	return nil
}

// Descriptor is the query contribution of one element kind.
type Descriptor interface {
	Kind() criteria.Kind
	DetailTable() string
	// Structured kinds join structure data unless the caller opts out.
	Structured() bool
	DefaultStatuses() []string
	// Status returns the predicate of a status name.
	Status(fc *FilterContext, name string) (string, bool)
	DefaultOrder() []criteria.OrderTerm
	// Attribute maps a bare attribute name to its detail column.
	Attribute(a schema.Aliases, name string) (string, bool)
	JoinDetail(sb *database.SelectBuilder, a schema.Aliases)
	ApplyFilters(fc *FilterContext) error
	// CacheTags returns tags narrower than the kind-wide wildcard.
	CacheTags(fc *FilterContext) []string
	// Columns returns the detail columns of the presentation query.
	Columns(a schema.Aliases) []string
}

// Registry is the closed set of element kinds.
type Registry struct {
	descriptors map[criteria.Kind]Descriptor
}

func NewRegistry(descriptors ...Descriptor) *Registry {
	r := &Registry{descriptors: make(map[criteria.Kind]Descriptor, len(descriptors))}
	for _, d := range descriptors {
		r.descriptors[d.Kind()] = d
	}
	return r
}

// DefaultRegistry returns every built-in kind.
func DefaultRegistry() *Registry {
	return NewRegistry(Entry{}, Category{}, Asset{}, User{}, Block{})
}

func (r *Registry) Get(kind criteria.Kind) (Descriptor, error) {
	d, ok := r.descriptors[kind]
	if !ok {
		return nil, errors.NewConfigurationErrorf("unknown element type '%s'", kind).AddElementType(string(kind))
	}
	return d, nil
}

func toAny(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
