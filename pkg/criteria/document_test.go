package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/errors"
)

func TestParseDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(`
kind: entry
section: [news]
site: [en, de]
unique: true
prefer_sites: [2]
status: [live, pending]
title: "Hello*"
search: fern
fields:
  body: "*garden*"
  featured: true
related_to:
  - or
  - 12
  - 13
not_related_to:
  - 99
descendant_of: 4
descendant_dist: 2
drafts: include
draft_of_any: true
order_by: [title asc, score]
limit: 10
offset: 5
select: ["**", "body"]
join:
  - type: LEFT
    table: authors
    on: authors.id = entries.author_id
where:
  - format: "authors.name = %v"
    args: [ada]
with:
  - handle: relatedEntries
    nested:
      - handle: author
`))
	require.NoError(t, err)

	c, err := doc.Criteria()
	require.NoError(t, err)

	assert.Equal(t, KindEntry, c.Kind)
	assert.Equal(t, []string{"news"}, c.Entry().Section)
	assert.Equal(t, []string{"en", "de"}, c.Params.Site)
	assert.True(t, c.Params.Unique)
	assert.Equal(t, []int64{2}, c.Params.PreferSites)
	assert.Equal(t, []string{"live", "pending"}, c.Params.Status)
	assert.Equal(t, "Hello*", c.Params.Title)
	assert.Equal(t, "fern", c.Params.Search)

	require.Len(t, c.Params.Fields, 2)
	assert.Equal(t, "body", c.Params.Fields[0].Handle, "field params are applied in handle order")
	assert.Equal(t, "featured", c.Params.Fields[1].Handle)

	require.Len(t, c.Params.RelatedTo, 1)
	assert.Equal(t, []any{"or", 12, 13}, c.Params.RelatedTo[0])
	assert.Equal(t, []any{99}, c.Params.NotRelatedTo)

	require.NotNil(t, c.Params.DescendantOf)
	assert.Equal(t, int64(4), c.Params.DescendantOf.ElementID)
	assert.Equal(t, int64(2), *c.Params.DescendantDist)

	assert.Equal(t, Include, c.Params.Drafts)
	require.NotNil(t, c.Params.DraftOf)
	assert.True(t, c.Params.DraftOf.Any)

	assert.Equal(t, []OrderTerm{
		{Column: "title", Explicit: true},
		{Column: "score"},
	}, c.Params.OrderBy)
	assert.Equal(t, 10, *c.Params.Limit)
	assert.Equal(t, 5, c.Params.Offset)

	assert.Equal(t, []string{AllColumns, "body"}, c.Params.Select)
	assert.Equal(t, []Join{{Type: LeftJoin, Table: "authors", On: "authors.id = entries.author_id"}}, c.Params.Join)
	assert.Equal(t, "authors.name = %v", c.Params.Where[0].Format)
	require.Len(t, c.Params.With, 1)
	assert.Equal(t, "author", c.Params.With[0].Nested[0].Handle)
}

func TestDocumentDefaults(t *testing.T) {
	doc, err := ParseDocument([]byte("kind: category"))
	require.NoError(t, err)

	c, err := doc.Criteria()
	require.NoError(t, err)
	assert.Equal(t, Categories().Snapshot(), c.Snapshot(), "an empty document matches a fresh criteria")
}

func TestDocumentOrderingSwitches(t *testing.T) {
	doc, err := ParseDocument([]byte("kind: entry\nunordered: true\nany_status: true"))
	require.NoError(t, err)

	c, err := doc.Criteria()
	require.NoError(t, err)
	assert.NotNil(t, c.Params.OrderBy)
	assert.Empty(t, c.Params.OrderBy)
	assert.NotNil(t, c.Params.Status)
	assert.Empty(t, c.Params.Status)
}

func TestDocumentRejectsUnsupportedParams(t *testing.T) {
	doc, err := ParseDocument([]byte("kind: user\nsection: [news]"))
	require.NoError(t, err)

	_, err = doc.Criteria()
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestParseDocumentValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing kind", "section: [news]"},
		{"unknown kind", "kind: tag"},
		{"bad visibility", "kind: entry\ndrafts: sometimes"},
		{"negative offset", "kind: entry\noffset: -1"},
		{"negative limit", "kind: entry\nlimit: -1"},
		{"join without table", "kind: entry\njoin: [{type: LEFT, on: x = y}]"},
		{"join with bad type", "kind: entry\njoin: [{type: CROSS, table: t, on: x = y}]"},
		{"where without format", "kind: entry\nwhere: [{args: [1]}]"},
		{"nested eager load without handle", "kind: entry\nwith: [{handle: a, nested: [{alias: b}]}]"},
		{"malformed", "kind: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDocument([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}
