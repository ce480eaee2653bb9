package cachetags

import (
	"testing"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	tests := []struct {
		name      string
		criteria  *criteria.Criteria
		typeTags  []string
		drafts    criteria.Visibility
		revisions criteria.Visibility
		expected  []string
	}{
		{
			name:     "wildcard",
			criteria: criteria.Entries(),
			expected: []string{"element", "element::entry", "element::entry::*"},
		},
		{
			name:     "exact ids win over type tags",
			criteria: criteria.Entries().ID(4, 5),
			typeTags: []string{"section:1"},
			expected: []string{"element", "element::entry", "element::4", "element::5"},
		},
		{
			name:     "type tags",
			criteria: criteria.Blocks(),
			typeTags: []string{"owner:12"},
			expected: []string{"element", "element::block", "element::block::owner:12"},
		},
		{
			name:      "overlay categories",
			criteria:  criteria.Categories(),
			drafts:    criteria.Include,
			revisions: criteria.Only,
			expected:  []string{"element", "element::category", "element::category::*", "element::drafts", "element::revisions"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Collect(tt.criteria, tt.typeTags, tt.drafts, tt.revisions))
		})
	}
}
