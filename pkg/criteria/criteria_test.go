package criteria

import (
	"testing"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteria_Defaults(t *testing.T) {
	c := Entries()

	assert.Equal(t, KindEntry, c.Kind)
	assert.Nil(t, c.Params.ID, "ids should be unset")
	assert.Nil(t, c.Params.Status, "status should fall back to the kind default")
	assert.Equal(t, Exclude, c.Params.Drafts)
	assert.Equal(t, Exclude, c.Params.Revisions)
	assert.Equal(t, Exclude, c.Params.Trashed)
	assert.NotNil(t, c.Entry())
	assert.Nil(t, c.Category())
	assert.NoError(t, c.Err())
}

func TestCriteria_EmptyIDIsExplicit(t *testing.T) {
	c := Entries().ID()
	require.NotNil(t, c.Params.ID)
	assert.Empty(t, c.Params.ID)

	c.AnyID()
	assert.Nil(t, c.Params.ID)
}

func TestCriteria_FluentSetters(t *testing.T) {
	c := Entries().
		ID(1, 2, 3).
		SiteID(2).
		Status("live").
		Section("news").
		OrderBy("postDate desc", "title").
		Limit(10).
		InReverse(true)

	assert.Equal(t, []int64{1, 2, 3}, c.Params.ID)
	assert.Equal(t, []int64{2}, c.Params.SiteID)
	assert.Equal(t, []string{"live"}, c.Params.Status)
	assert.Equal(t, []string{"news"}, c.Entry().Section)
	assert.Equal(t, []OrderTerm{
		{Column: "postDate", Desc: true, Explicit: true},
		{Column: "title"},
	}, c.Params.OrderBy)
	require.NotNil(t, c.Params.Limit)
	assert.Equal(t, 10, *c.Params.Limit)
	assert.True(t, c.Params.InReverse)
}

func TestCriteria_SiteWildcard(t *testing.T) {
	c := Entries().SiteID(1).Site("*")
	assert.True(t, c.Params.AnySite)
	assert.Nil(t, c.Params.SiteID)
}

func TestCriteria_UnsupportedTypeParam(t *testing.T) {
	c := Categories().Section("news")

	err := c.Err()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
	assert.Contains(t, err.Error(), "section")
	assert.Contains(t, err.Error(), "category")
}

func TestCriteria_TypeIDRoutesByKind(t *testing.T) {
	assert.Equal(t, []int64{4}, Blocks().TypeID(4).Block().TypeID)
	assert.Equal(t, []int64{4}, Entries().TypeID(4).Entry().TypeID)
}

func TestCriteria_FieldReplacesHandle(t *testing.T) {
	c := Entries().Field("color", "red").Field("size", 3).Field("color", "blue")
	assert.Equal(t, []FieldParam{{Handle: "color", Value: "blue"}, {Handle: "size", Value: 3}}, c.Params.Fields)
}

func TestCriteria_RelatedToComposition(t *testing.T) {
	c := Entries().RelatedTo([]int64{1}).AndRelatedTo([]int64{2}).NotRelatedTo([]int64{3})
	assert.Len(t, c.Params.RelatedTo, 2)
	assert.Len(t, c.Params.NotRelatedTo, 1)

	c.RelatedTo(nil)
	assert.Nil(t, c.Params.RelatedTo)
}

func TestParseOrderTerm(t *testing.T) {
	assert.Equal(t, OrderTerm{Column: "title"}, ParseOrderTerm("title"))
	assert.Equal(t, OrderTerm{Column: "title", Explicit: true}, ParseOrderTerm("title ASC"))
	assert.Equal(t, OrderTerm{Column: "score", Desc: true, Explicit: true}, ParseOrderTerm("score desc"))
	assert.Equal(t, OrderTerm{Column: "RANDOM() * 2", Raw: true}, ParseOrderTerm("RANDOM() * 2"))
}

func TestCriteria_Snapshot(t *testing.T) {
	a := Entries().ID(1, 2).Status("live")
	b := Entries().ID(1, 2).Status("live")
	assert.Equal(t, a.Snapshot(), b.Snapshot())

	b.Limit(5)
	assert.NotEqual(t, a.Snapshot(), b.Snapshot())

	empty := Entries().ID()
	unset := Entries()
	assert.NotEqual(t, empty.Snapshot(), unset.Snapshot(), "empty and unset ids must not collide")

	assert.NotEqual(t, Entries().Snapshot(), Categories().Snapshot())
}

func TestCriteria_Clone(t *testing.T) {
	original := Entries().ID(1, 2).Section("news").Status()
	clone := original.Clone()

	assert.Equal(t, original.Snapshot(), clone.Snapshot())

	clone.Params.ID[0] = 99
	clone.Entry().Section = []string{"blog"}
	assert.Equal(t, []int64{1, 2}, original.Params.ID)
	assert.Equal(t, []string{"news"}, original.Entry().Section)

	require.NotNil(t, clone.Params.Status)
	assert.Empty(t, clone.Params.Status, "explicitly cleared status survives cloning")
}

func TestCriteria_ResultsAreLazy(t *testing.T) {
	c := Entries()
	r := c.Results()
	assert.Same(t, r, c.Results())
	assert.NotSame(t, r, c.Clone().Results())
}
