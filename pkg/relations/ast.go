// Package relations parses relatedTo specifications into a boolean AST and
// compiles that AST into id-membership predicates over the relations table.
package relations

import (
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/criteria"
)

// Node is a relation spec AST node: And, Or, Not or Leaf.
type Node interface {
	node()
	String() string
}

type And struct {
	Children []Node
}

type Or struct {
	Children []Node
}

// Not matches elements related to none of its children.
type Not struct {
	Children []Node
}

// Role is the side of the edge the reference elements sit on.
type Role string

const (
	// RoleSource references are edge sources; the query returns their targets.
	RoleSource Role = "sourceElement"
	// RoleTarget references are edge targets; the query returns their sources.
	RoleTarget Role = "targetElement"
	// RoleElement matches either side. Parse expands it into Or(source, target).
	RoleElement Role = "element"
)

// Direction is the edge traversal a leaf compiles to.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Leaf is one relation criteria: reference elements by id or by an
// id-producing sub-criteria, optionally narrowed by field and source site.
type Leaf struct {
	Role       Role
	IDs        []int64
	Query      *criteria.Criteria
	Fields     []string
	SourceSite *int64
}

func (And) node()  {}
func (Or) node()   {}
func (Not) node()  {}
func (Leaf) node() {}

// Direction returns Forward for source references and Reverse for target references.
func (l Leaf) Direction() Direction {
	if l.Role == RoleTarget {
		return Reverse
	}
	return Forward
}

func (n And) String() string { return "and(" + joinNodes(n.Children) + ")" }
func (n Or) String() string  { return "or(" + joinNodes(n.Children) + ")" }
func (n Not) String() string { return "not(" + joinNodes(n.Children) + ")" }

func (l Leaf) String() string {
	var b strings.Builder
	b.WriteString(string(l.Role))
	if l.Query != nil {
		fmt.Fprintf(&b, "[query:%s]", l.Query.Kind)
	} else {
		fmt.Fprintf(&b, "%v", l.IDs)
	}
	if len(l.Fields) > 0 {
		fmt.Fprintf(&b, " field=%s", strings.Join(l.Fields, ","))
	}
	if l.SourceSite != nil {
		fmt.Fprintf(&b, " site=%d", *l.SourceSite)
	}
	return b.String()
}

func joinNodes(nodes []Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n.String()
	}
	return strings.Join(parts, ", ")
}
