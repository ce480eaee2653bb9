// Package structure builds nested-set predicates over structure_nodes.
package structure

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// NodeResolver looks up structure placement. It is backed by the database in
// production and by fixtures in tests.
type NodeResolver interface {
	// NodeFor returns the node of elementID in structureID, or nil when the
	// element is not placed. A zero structureID matches any structure.
	NodeFor(ctx context.Context, structureID, elementID int64) (*models.StructureNode, error)
	// Parent returns the closest node containing node, or nil when there is none.
	Parent(ctx context.Context, node models.StructureNode) (*models.StructureNode, error)
	// CanonicalID returns the canonical element id of elementID.
	CanonicalID(ctx context.Context, elementID int64) (int64, error)
}

// Placement names a node-relative structure param.
type Placement string

const (
	AncestorOf       Placement = "ancestorOf"
	DescendantOf     Placement = "descendantOf"
	SiblingOf        Placement = "siblingOf"
	PrevSiblingOf    Placement = "prevSiblingOf"
	NextSiblingOf    Placement = "nextSiblingOf"
	PositionedBefore Placement = "positionedBefore"
	PositionedAfter  Placement = "positionedAfter"
)

var placements = []Placement{
	AncestorOf,
	DescendantOf,
	SiblingOf,
	PrevSiblingOf,
	NextSiblingOf,
	PositionedBefore,
	PositionedAfter,
}

func refFor(c *criteria.Criteria, p Placement) *criteria.NodeRef {
	switch p {
	case AncestorOf:
		return c.Params.AncestorOf
	case DescendantOf:
		return c.Params.DescendantOf
	case SiblingOf:
		return c.Params.SiblingOf
	case PrevSiblingOf:
		return c.Params.PrevSiblingOf
	case NextSiblingOf:
		return c.Params.NextSiblingOf
	case PositionedBefore:
		return c.Params.PositionedBefore
	case PositionedAfter:
		return c.Params.PositionedAfter
	}
	return nil
}

// HasParams reports whether any structure param is set.
func HasParams(c *criteria.Criteria) bool {
	if c.Params.HasDescendants != nil || c.Params.Level != nil || c.Params.Leaves {
		return true
	}
	for _, p := range placements {
		if refFor(c, p) != nil {
			return true
		}
	}
	return false
}

// Scope describes how the compiler joined structure data.
type Scope struct {
	// Joined is set when the structure alias is joined into the selection.
	Joined bool
	// StructureID narrows node lookups; zero matches any structure.
	StructureID int64
	// Incompatible is set when trashed rows or revisions are visible, which
	// disables structure filtering.
	Incompatible bool
}

type target struct {
	node   models.StructureNode
	parent *models.StructureNode
}

// Resolved holds the concrete nodes of one criteria's structure params.
// Resolving once lets a statement apply the same filter to more than one
// selection without repeating lookups.
type Resolved struct {
	skip    bool
	targets map[Placement]target
}

// Skipped reports whether structure filtering is off for this compile.
func (r *Resolved) Skipped() bool {
	return r == nil || r.skip
}

// Result carries the ordering a nearest-sibling param imposes on the query.
type Result struct {
	OrderBy string
	Limit   int
}

type Filter struct {
	resolver NodeResolver
	logger   ectologger.Logger
}

func NewFilter(resolver NodeResolver, logger ectologger.Logger) *Filter {
	return &Filter{
		resolver: resolver,
		logger:   logger,
	}
}

// Resolve validates the structure params of c against scope and resolves
// every node reference. Unresolvable references abort the query.
func (f *Filter) Resolve(ctx context.Context, c *criteria.Criteria, scope Scope) (*Resolved, error) {
	if !HasParams(c) {
		return &Resolved{skip: true}, nil
	}

	if scope.Incompatible {
		f.logger.WithContext(ctx).WithFields(map[string]any{
			"element_type": c.Kind,
			"trashed":      c.Params.Trashed,
			"revisions":    c.Params.Revisions,
		}).Warn("structure params ignored while trashed elements or revisions are visible")
		return &Resolved{skip: true}, nil
	}

	if !scope.Joined {
		return nil, errors.NewConfigurationError("structure params require a structure; set structureId or withStructure").
			AddElementType(string(c.Kind))
	}

	resolved := &Resolved{targets: map[Placement]target{}}
	for _, p := range placements {
		ref := refFor(c, p)
		if ref == nil {
			continue
		}

		node, err := f.resolveNode(ctx, scope.StructureID, ref)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, errors.Abortf("%s references an element outside the structure", p)
		}

		t := target{node: *node}
		if p == SiblingOf || p == PrevSiblingOf || p == NextSiblingOf {
			parent, err := f.parentOf(ctx, *node)
			if err != nil {
				return nil, err
			}
			t.parent = parent
		}
		resolved.targets[p] = t
	}
	return resolved, nil
}

// resolveNode normalizes a reference to a node, redirecting elements without
// placement (drafts, revisions) to their canonical element.
func (f *Filter) resolveNode(ctx context.Context, structureID int64, ref *criteria.NodeRef) (*models.StructureNode, error) {
	if ref.Node != nil {
		return ref.Node, nil
	}
	if ref.Element != nil && ref.Element.Structure != nil &&
		(structureID == 0 || ref.Element.Structure.StructureID == structureID) {
		return ref.Element.Structure, nil
	}
	if f.resolver == nil {
		return nil, errors.NewUpstreamError("structure", "resolving a structure reference requires a node resolver")
	}

	elementID := ref.ElementID
	if ref.Element != nil {
		elementID = ref.Element.ID
	}

	node, err := f.resolver.NodeFor(ctx, structureID, elementID)
	if err != nil {
		return nil, errors.WrapUpstreamError("structure", err)
	}
	if node != nil {
		return node, nil
	}

	var canonicalID int64
	if ref.Element != nil {
		canonicalID = ref.Element.CanonicalElementID()
	} else {
		canonicalID, err = f.resolver.CanonicalID(ctx, elementID)
		if err != nil {
			return nil, errors.WrapUpstreamError("structure", err)
		}
	}
	if canonicalID == 0 || canonicalID == elementID {
		return nil, nil
	}

	node, err = f.resolver.NodeFor(ctx, structureID, canonicalID)
	if err != nil {
		return nil, errors.WrapUpstreamError("structure", err)
	}
	return node, nil
}

func (f *Filter) parentOf(ctx context.Context, node models.StructureNode) (*models.StructureNode, error) {
	// top-level nodes are bounded by the structure itself
	if node.Level <= 1 {
		return nil, nil
	}
	if f.resolver == nil {
		return nil, errors.NewUpstreamError("structure", "sibling params require a node resolver")
	}
	parent, err := f.resolver.Parent(ctx, node)
	if err != nil {
		return nil, errors.WrapUpstreamError("structure", err)
	}
	if parent == nil {
		return nil, errors.Abortf("no parent found for structure node %d", node.ElementID)
	}
	return parent, nil
}

// Apply adds the structure predicates of c to sb using the structure alias of a.
func (f *Filter) Apply(sb *database.SelectBuilder, a schema.Aliases, c *criteria.Criteria, resolved *Resolved) (Result, error) {
	var result Result
	if resolved.Skipped() {
		return result, nil
	}

	lft := a.StructureCol("lft")
	rgt := a.StructureCol("rgt")
	level := a.StructureCol("level")
	root := a.StructureCol("root")

	if c.Params.HasDescendants != nil {
		if *c.Params.HasDescendants {
			sb.Where(fmt.Sprintf("%s > %s + 1", rgt, lft))
		} else {
			sb.Where(fmt.Sprintf("%s = %s + 1", rgt, lft))
		}
	}

	if t, ok := resolved.targets[AncestorOf]; ok {
		sb.Where(
			sb.LessThan(lft, t.node.Lft),
			sb.GreaterThan(rgt, t.node.Rgt),
			sb.Equal(root, t.node.Root),
		)
		if c.Params.AncestorDist != nil {
			sb.Where(sb.GreaterEqualThan(level, t.node.Level-*c.Params.AncestorDist))
		}
	}

	if t, ok := resolved.targets[DescendantOf]; ok {
		sb.Where(
			sb.GreaterThan(lft, t.node.Lft),
			sb.LessThan(rgt, t.node.Rgt),
			sb.Equal(root, t.node.Root),
		)
		if c.Params.DescendantDist != nil {
			sb.Where(sb.LessEqualThan(level, t.node.Level+*c.Params.DescendantDist))
		}
	}

	if t, ok := resolved.targets[SiblingOf]; ok {
		siblings(sb, lft, rgt, level, root, t)
	}

	if t, ok := resolved.targets[PrevSiblingOf]; ok {
		siblings(sb, lft, rgt, level, root, t)
		sb.Where(sb.LessThan(lft, t.node.Lft))
		result = Result{OrderBy: lft + " DESC", Limit: 1}
	}

	if t, ok := resolved.targets[NextSiblingOf]; ok {
		siblings(sb, lft, rgt, level, root, t)
		sb.Where(sb.GreaterThan(lft, t.node.Lft))
		result = Result{OrderBy: lft + " ASC", Limit: 1}
	}

	if t, ok := resolved.targets[PositionedBefore]; ok {
		sb.Where(sb.LessThan(rgt, t.node.Lft), sb.Equal(root, t.node.Root))
	}

	if t, ok := resolved.targets[PositionedAfter]; ok {
		sb.Where(sb.GreaterThan(lft, t.node.Rgt), sb.Equal(root, t.node.Root))
	}

	if c.Params.Level != nil {
		param, err := criteria.ParseParam(c.Params.Level)
		if err != nil {
			return result, err
		}
		expr, err := param.Where(sb, level, criteria.ParamOptions{Type: criteria.ParamNumber})
		if err != nil {
			return result, err
		}
		if expr != "" {
			sb.Where(expr)
		}
	}

	if c.Params.Leaves {
		sb.Where(fmt.Sprintf("%s = %s + 1", rgt, lft))
	}

	return result, nil
}

func siblings(sb *database.SelectBuilder, lft, rgt, level, root string, t target) {
	sb.Where(
		sb.Equal(level, t.node.Level),
		sb.Equal(root, t.node.Root),
		sb.NotEqual(lft, t.node.Lft),
	)
	if t.parent != nil {
		sb.Where(sb.GreaterThan(lft, t.parent.Lft), sb.LessThan(rgt, t.parent.Rgt))
	}
}
