// Package fields describes custom fields and the query contribution each
// field type makes: a filter predicate and the column holding its value.
package fields

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// Field is a custom field definition. Container fields own child fields that
// live on block rows.
type Field struct {
	ID       int64   `yaml:"id" json:"id"`
	UID      string  `yaml:"uid" json:"uid"`
	Handle   string  `yaml:"handle" json:"handle"`
	Type     string  `yaml:"type" json:"type"`
	Children []Field `yaml:"children,omitempty" json:"children,omitempty"`
}

// Child returns the child field with handle.
func (f *Field) Child(handle string) (*Field, bool) {
	for i := range f.Children {
		if f.Children[i].Handle == handle {
			return &f.Children[i], true
		}
	}
	return nil, false
}

// Catalog resolves field handles.
type Catalog interface {
	FieldByHandle(handle string) (*Field, bool)
}

// Type is the query contribution of one field type.
type Type interface {
	Name() string
	// Relational types store their value as relation edges.
	Relational() bool
	// Container types store their value as block rows owned by the element.
	Container() bool
	// Condition restricts the selection to elements whose value matches.
	Condition(sb *database.SelectBuilder, a schema.Aliases, f *Field, value any) (string, error)
	// ValueSQL returns the expression holding the value, or "" when the type
	// has no single value column.
	ValueSQL(a schema.Aliases, f *Field) string
}

// Registry maps type names to field types.
type Registry struct {
	types map[string]Type
}

func NewRegistry(types ...Type) *Registry {
	r := &Registry{types: make(map[string]Type)}
	for _, t := range types {
		r.Register(t)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in field type.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Text{},
		Number{},
		Lightswitch{},
		Relation{TypeName: "entries"},
		Relation{TypeName: "categories"},
		Relation{TypeName: "assets"},
		Relation{TypeName: "users"},
		Matrix{},
	)
}

func (r *Registry) Register(t Type) {
	r.types[t.Name()] = t
}

func (r *Registry) Type(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// TypeOf returns the type of f, or a configuration error.
func (r *Registry) TypeOf(f *Field) (Type, error) {
	t, ok := r.types[f.Type]
	if !ok {
		return nil, errors.NewConfigurationErrorf("unknown field type '%s'", f.Type).AddParam(f.Handle)
	}
	return t, nil
}

var uidPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateUID reports whether uid is safe to embed as a content key.
func ValidateUID(uid string) error {
	if !uidPattern.MatchString(uid) {
		return fmt.Errorf("field uid '%s' must match %s", uid, uidPattern.String())
	}
	return nil
}

// contentValue is the text value of a field in the site projection's content.
func contentValue(a schema.Aliases, f *Field) string {
	return fmt.Sprintf("%s->>'%s'", a.SiteCol("content"), strings.ReplaceAll(f.UID, "'", ""))
}
