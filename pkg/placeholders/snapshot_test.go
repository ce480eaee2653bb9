package placeholders

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func TestNew(t *testing.T) {
	canonical := &models.Element{ID: 5, Type: "entry", UID: "abc", SiteID: 1, Title: "Live", Content: map[string]any{"body": "x"}}

	p := New(canonical, 2)
	require.NotNil(t, p.CanonicalID)
	assert.Equal(t, int64(5), *p.CanonicalID)
	assert.Equal(t, int64(2), p.SiteID)
	assert.True(t, p.Placeholder)
	assert.NotEqual(t, "abc", p.UID)
	_, err := uuid.Parse(p.UID)
	assert.NoError(t, err)

	p.Content["body"] = "y"
	assert.Equal(t, "x", canonical.Content["body"])
}

func TestSnapshot(t *testing.T) {
	entry := &models.Element{ID: 5, Type: "entry", SiteID: 1}
	category := &models.Element{ID: 9, Type: "category", SiteID: 1}

	s := NewSnapshot(New(entry, 1), New(entry, 2), New(category, 1), &models.Element{ID: 3})
	assert.Equal(t, 3, s.Len())

	p, ok := s.Lookup(5, 2)
	require.True(t, ok)
	assert.Equal(t, int64(2), p.SiteID)

	_, ok = s.Lookup(5, 3)
	assert.False(t, ok)

	assert.Equal(t, []int64{5}, s.CanonicalIDs("entry", nil))
	assert.Equal(t, []int64{5}, s.CanonicalIDs("entry", []int64{2}))
	assert.Empty(t, s.CanonicalIDs("entry", []int64{3}))
	assert.Equal(t, []int64{9}, s.CanonicalIDs("category", nil))
}

func TestNilSnapshot(t *testing.T) {
	var s *Snapshot
	assert.Zero(t, s.Len())
	assert.Empty(t, s.CanonicalIDs("entry", nil))
	_, ok := s.Lookup(1, 1)
	assert.False(t, ok)
}
