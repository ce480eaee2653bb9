package relations

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

const param = "relatedTo"

// Spec is the typed form of one relation criteria. Exactly one of Element,
// SourceElement and TargetElement must be set.
type Spec struct {
	Element       any
	SourceElement any
	TargetElement any
	// Field is a handle, a list of handles, or "container.child".
	Field      any
	SourceSite *int64
}

// FromCriteria builds the combined AST of every relatedTo spec (ANDed) and
// every notRelatedTo spec. It returns nil when neither is set.
func FromCriteria(related, notRelated []any) (Node, error) {
	var children []Node
	for _, spec := range related {
		n, err := Parse(spec)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}

	if len(notRelated) > 0 {
		not := Not{}
		for _, spec := range notRelated {
			n, err := Parse(spec)
			if err != nil {
				return nil, err
			}
			not.Children = append(not.Children, n)
		}
		children = append(children, not)
	}

	switch len(children) {
	case 0:
		return nil, nil
	case 1:
		return children[0], nil
	}
	return And{Children: children}, nil
}

// Parse parses a relation spec.
//
// Accepted forms: an id, ids, an element, elements, a sub-criteria, a Spec or
// map with one role key, or a list of any of these led by an optional "and",
// "or" or "not". A combinator is only legal in first position. Plain ids and
// elements in an "or" list share one leaf; in an "and" list each gets its own
// leaf so that joint membership is required.
func Parse(spec any) (Node, error) {
	switch v := spec.(type) {
	case nil:
		return nil, errors.NewConfigurationError("relation spec is empty").AddParam(param)
	case Node:
		return v, nil
	case Spec:
		return parseSpec(v)
	case *Spec:
		return parseSpec(*v)
	case map[string]any:
		s, err := specFromMap(v)
		if err != nil {
			return nil, err
		}
		return parseSpec(s)
	case *criteria.Criteria:
		return expandRole(RoleElement, Leaf{Query: v}), nil
	}

	if items, ok := asList(spec); ok {
		return parseList(items)
	}

	ids, err := referenceIDs(spec)
	if err != nil {
		return nil, err
	}
	return expandRole(RoleElement, Leaf{IDs: ids}), nil
}

func parseList(items []any) (Node, error) {
	glue, items, err := leadingCombinator(items)
	if err != nil {
		return nil, err
	}

	var children []Node
	var pooled []int64
	pooledSeen := false
	for _, item := range items {
		if isReference(item) {
			ids, err := referenceIDs(item)
			if err != nil {
				return nil, err
			}
			if glue == "or" {
				pooled = append(pooled, ids...)
				pooledSeen = true
				continue
			}
			for _, id := range ids {
				children = append(children, expandRole(RoleElement, Leaf{IDs: []int64{id}}))
			}
			continue
		}

		n, err := Parse(item)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}

	if pooledSeen {
		children = append([]Node{expandRole(RoleElement, Leaf{IDs: pooled})}, children...)
	}

	if len(children) == 0 {
		// an empty list relates to nothing
		return expandRole(RoleElement, Leaf{IDs: []int64{}}), nil
	}

	switch glue {
	case "and":
		if len(children) == 1 {
			return children[0], nil
		}
		return And{Children: children}, nil
	case "not":
		return Not{Children: children}, nil
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return Or{Children: children}, nil
}

// leadingCombinator strips a leading "and"/"or"/"not" and rejects one in any
// other position.
func leadingCombinator(items []any) (string, []any, error) {
	glue := "or"
	if len(items) > 0 {
		if s, ok := combinator(items[0]); ok {
			glue = s
			items = items[1:]
		}
	}
	for i, item := range items {
		if s, ok := combinator(item); ok {
			return "", nil, errors.NewConfigurationErrorf("combinator '%s' is only allowed in first position (found at %d)", s, i+1).AddParam(param)
		}
	}
	return glue, items, nil
}

func combinator(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and", "or", "not":
		return strings.ToLower(strings.TrimSpace(s)), true
	}
	return "", false
}

func parseSpec(s Spec) (Node, error) {
	role, value, err := specRole(s)
	if err != nil {
		return nil, err
	}

	fieldHandles, err := handles(s.Field)
	if err != nil {
		return nil, err
	}
	base := Leaf{Fields: fieldHandles, SourceSite: s.SourceSite}

	if q, ok := value.(*criteria.Criteria); ok {
		leaf := base
		leaf.Query = q
		return expandRole(role, leaf), nil
	}

	glue := "or"
	if items, ok := asList(value); ok {
		var err error
		glue, items, err = leadingCombinator(items)
		if err != nil {
			return nil, err
		}
		if glue == "not" {
			return nil, errors.NewConfigurationError("'not' is not allowed inside a relation criteria; use notRelatedTo").AddParam(param)
		}
		value = items
	}

	ids, err := referenceIDs(value)
	if err != nil {
		return nil, err
	}

	if glue == "and" && len(ids) > 1 {
		and := And{}
		for _, id := range ids {
			leaf := base
			leaf.IDs = []int64{id}
			and.Children = append(and.Children, expandRole(role, leaf))
		}
		return and, nil
	}

	leaf := base
	leaf.IDs = ids
	return expandRole(role, leaf), nil
}

func specRole(s Spec) (Role, any, error) {
	set := 0
	var role Role
	var value any
	for _, candidate := range []struct {
		role  Role
		value any
	}{
		{RoleElement, s.Element},
		{RoleSource, s.SourceElement},
		{RoleTarget, s.TargetElement},
	} {
		if candidate.value != nil {
			set++
			role, value = candidate.role, candidate.value
		}
	}
	if set != 1 {
		return "", nil, errors.NewConfigurationError("relation criteria must set exactly one of element, sourceElement or targetElement").AddParam(param)
	}
	return role, value, nil
}

func specFromMap(m map[string]any) (Spec, error) {
	s := Spec{}
	for k, v := range m {
		switch k {
		case "element":
			s.Element = v
		case "sourceElement", "source_element":
			s.SourceElement = v
		case "targetElement", "target_element":
			s.TargetElement = v
		case "field":
			s.Field = v
		case "sourceSite", "source_site":
			if v == nil {
				continue
			}
			ids, err := referenceIDs(v)
			if err != nil || len(ids) != 1 {
				return Spec{}, errors.NewConfigurationError("sourceSite must be a single site id").AddParam(param)
			}
			s.SourceSite = &ids[0]
		default:
			return Spec{}, errors.NewConfigurationErrorf("unknown relation criteria key '%s'", k).AddParam(param)
		}
	}
	return s, nil
}

// expandRole turns an element leaf into Or(source, target).
func expandRole(role Role, leaf Leaf) Node {
	if role != RoleElement {
		leaf.Role = role
		return leaf
	}
	source, target := leaf, leaf
	source.Role = RoleSource
	target.Role = RoleTarget
	return Or{Children: []Node{source, target}}
}

func handles(v any) ([]string, error) {
	switch h := v.(type) {
	case nil:
		return nil, nil
	case string:
		var out []string
		for _, part := range strings.Split(h, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []string:
		return h, nil
	case []any:
		out := make([]string, 0, len(h))
		for _, item := range h {
			s, ok := item.(string)
			if !ok {
				return nil, errors.NewConfigurationErrorf("field handles must be strings, got %T", item).AddParam(param)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, errors.NewConfigurationErrorf("field must be a handle or list of handles, got %T", v).AddParam(param)
}

func isReference(v any) bool {
	switch v.(type) {
	case int, int32, int64, float64, *models.Element, models.Element:
		return true
	case string:
		_, isCombinator := combinator(v)
		return !isCombinator && isNumeric(v.(string))
	}
	return false
}

func isNumeric(s string) bool {
	_, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return err == nil
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []*criteria.Criteria, []Spec, []map[string]any:
		rv := reflect.ValueOf(l)
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// referenceIDs flattens ids and elements to canonical element ids.
func referenceIDs(v any) ([]int64, error) {
	switch r := v.(type) {
	case int:
		return []int64{int64(r)}, nil
	case int32:
		return []int64{int64(r)}, nil
	case int64:
		return []int64{r}, nil
	case float64:
		return []int64{int64(r)}, nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(r), 10, 64)
		if err != nil {
			return nil, errors.NewConfigurationErrorf("'%s' is not an element id", r).AddParam(param)
		}
		return []int64{n}, nil
	case []int64:
		return append([]int64{}, r...), nil
	case []int:
		out := make([]int64, len(r))
		for i, id := range r {
			out[i] = int64(id)
		}
		return out, nil
	case *models.Element:
		return []int64{r.CanonicalElementID()}, nil
	case models.Element:
		return []int64{r.CanonicalElementID()}, nil
	case []*models.Element:
		out := make([]int64, len(r))
		for i, e := range r {
			out[i] = e.CanonicalElementID()
		}
		return out, nil
	case []any:
		out := []int64{}
		for _, item := range r {
			if _, ok := combinator(item); ok {
				return nil, errors.NewConfigurationError("combinators are only allowed in first position").AddParam(param)
			}
			ids, err := referenceIDs(item)
			if err != nil {
				return nil, err
			}
			out = append(out, ids...)
		}
		return out, nil
	case []string:
		items, _ := asList(r)
		return referenceIDs(items)
	}
	return nil, errors.NewConfigurationErrorf("unsupported relation reference %T", v).AddParam(param)
}
