package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/elementtypes"
	"github.com/Ramsey-B/fern/pkg/fields"
	"github.com/Ramsey-B/fern/pkg/query"
)

var (
	_ query.SiteCatalog           = (*Catalog)(nil)
	_ elementtypes.HandleResolver = (*Catalog)(nil)
	_ fields.Catalog              = (*Catalog)(nil)
)

const sample = `
sites:
  - id: 2
    handle: de
  - id: 1
    handle: en
    primary: true
sections:
  news: 1
  pages: 2
entry_types:
  article: 3
groups:
  topics: 4
volumes:
  uploads: 5
fields:
  - id: 5
    uid: 7d0c6f0e-body
    handle: body
    type: text
  - id: 6
    uid: 7d0c6f0e-related
    handle: relatedEntries
    type: entries
  - id: 7
    uid: 7d0c6f0e-matrix
    handle: contentBlocks
    type: matrix
    children:
      - id: 8
        uid: 7d0c6f0e-heading
        handle: heading
        type: text
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("sites", func(t *testing.T) {
		ids, err := c.SiteIDs(ctx, []string{"en", "fr", "de"})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, ids)

		all, err := c.AllSiteIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 2}, all)

		primary, err := c.PrimarySiteID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), primary)
	})

	t.Run("handles", func(t *testing.T) {
		tests := []struct {
			kind     elementtypes.HandleKind
			handles  []string
			expected []int64
		}{
			{elementtypes.HandleSection, []string{"news", "missing"}, []int64{1}},
			{elementtypes.HandleEntryType, []string{"article"}, []int64{3}},
			{elementtypes.HandleGroup, []string{"topics"}, []int64{4}},
			{elementtypes.HandleVolume, []string{"uploads"}, []int64{5}},
			{elementtypes.HandleSection, []string{"missing"}, nil},
		}
		for _, tt := range tests {
			ids, err := c.IDs(ctx, tt.kind, tt.handles)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids, "%s %v", tt.kind, tt.handles)
		}

		_, err := c.IDs(ctx, elementtypes.HandleKind("tagGroup"), []string{"x"})
		assert.Error(t, err)
	})

	t.Run("fields", func(t *testing.T) {
		body, ok := c.FieldByHandle("body")
		require.True(t, ok)
		assert.Equal(t, int64(5), body.ID)
		assert.Equal(t, "text", body.Type)

		blocks, ok := c.FieldByHandle("contentBlocks")
		require.True(t, ok)
		heading, ok := blocks.Child("heading")
		require.True(t, ok)
		assert.Equal(t, int64(8), heading.ID)

		_, ok = c.FieldByHandle("nope")
		assert.False(t, ok)
	})
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no sites", "sections: {news: 1}"},
		{"site without handle", "sites: [{id: 1}]"},
		{"site without id", "sites: [{handle: en}]"},
		{"duplicate site handle", "sites: [{id: 1, handle: en}, {id: 2, handle: en}]"},
		{"two primaries", "sites: [{id: 1, handle: en, primary: true}, {id: 2, handle: de, primary: true}]"},
		{"field without type", "sites: [{id: 1, handle: en}]\nfields: [{id: 5, handle: body}]"},
		{"duplicate field", "sites: [{id: 1, handle: en}]\nfields: [{id: 5, handle: body, type: text}, {id: 6, handle: body, type: text}]"},
		{"malformed", "sites: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestPrimaryDefaultsToFirstSite(t *testing.T) {
	c, err := Parse([]byte("sites: [{id: 3, handle: fr}, {id: 1, handle: en}]"))
	require.NoError(t, err)

	primary, err := c.PrimarySiteID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), primary)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Sites, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
