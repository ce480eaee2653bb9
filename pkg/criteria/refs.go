package criteria

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Visibility is a three-way row visibility switch. The zero value excludes
// the rows in question.
type Visibility string

const (
	Exclude Visibility = ""
	Only    Visibility = "only"
	Include Visibility = "include"
)

// NodeRef names a structure node by element id, by a live element, or by a
// node snapshot. It is resolved to a concrete node before predicates are built.
type NodeRef struct {
	ElementID int64                 `json:"element_id,omitempty" yaml:"element_id,omitempty"`
	Element   *models.Element       `json:"element,omitempty" yaml:"-"`
	Node      *models.StructureNode `json:"node,omitempty" yaml:"node,omitempty"`
}

func Node(elementID int64) *NodeRef {
	return &NodeRef{ElementID: elementID}
}

func NodeOf(element *models.Element) *NodeRef {
	return &NodeRef{Element: element}
}

func NodeAt(node models.StructureNode) *NodeRef {
	return &NodeRef{Node: &node, ElementID: node.ElementID}
}

// DraftOfParam narrows drafts by their canonical element. Any matches every
// draft; a nil CanonicalID without Any matches parentless drafts.
type DraftOfParam struct {
	Any         bool   `json:"any,omitempty"`
	CanonicalID *int64 `json:"canonical_id,omitempty"`
}

// OrderTerm is one ORDER BY term. Column may be a bare attribute, a qualified
// column, a field handle, or the synthetic "score". Raw terms are emitted as is.
type OrderTerm struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
	Raw    bool   `json:"raw,omitempty"`
	// Explicit is set when the caller wrote a direction.
	Explicit bool `json:"explicit,omitempty"`
}

// ParseOrderTerm parses "column", "column asc" or "column desc".
func ParseOrderTerm(term string) OrderTerm {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return OrderTerm{}
	}
	t := OrderTerm{Column: fields[0]}
	if len(fields) > 1 {
		switch strings.ToLower(fields[len(fields)-1]) {
		case "desc":
			t.Desc = true
			t.Explicit = true
		case "asc":
			t.Explicit = true
		default:
			return OrderTerm{Column: term, Raw: true}
		}
		if len(fields) > 2 {
			return OrderTerm{Column: term, Raw: true}
		}
	}
	return t
}

type JoinType string

const (
	InnerJoin JoinType = "INNER"
	LeftJoin  JoinType = "LEFT"
)

// Join is a caller-declared join applied to the selection query.
type Join struct {
	Type  JoinType `json:"type" yaml:"type" validate:"oneof=INNER LEFT"`
	Table string   `json:"table" yaml:"table" validate:"required"`
	On    string   `json:"on" yaml:"on" validate:"required"`
}

// Where is a raw selection predicate. Format uses %v for each argument.
type Where struct {
	Format string `json:"format" yaml:"format" validate:"required"`
	Args   []any  `json:"args,omitempty" yaml:"args,omitempty"`
}

// FieldParam filters on a custom field by handle.
type FieldParam struct {
	Handle string `json:"handle" yaml:"handle"`
	Value  any    `json:"value" yaml:"value"`
}

// EagerLoad is one node of an eager-loading plan.
type EagerLoad struct {
	Handle   string         `json:"handle" yaml:"handle" validate:"required"`
	Alias    string         `json:"alias,omitempty" yaml:"alias,omitempty"`
	Criteria map[string]any `json:"criteria,omitempty" yaml:"criteria,omitempty"`
	Nested   []EagerLoad    `json:"nested,omitempty" yaml:"nested,omitempty" validate:"dive"`
}
