// Package cachetags derives the invalidation tags of a compiled element query.
package cachetags

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/criteria"
)

const (
	TagElement   = "element"
	TagDrafts    = "element::drafts"
	TagRevisions = "element::revisions"
)

// Collect returns the tags of c, tightest first: exact ids when ids were
// requested, else typeTags scoped to the kind, else the kind wildcard.
// drafts and revisions are the effective overlay visibilities.
func Collect(c *criteria.Criteria, typeTags []string, drafts, revisions criteria.Visibility) []string {
	kind := string(c.Kind)
	tags := []string{TagElement, TagElement + "::" + kind}

	switch {
	case len(c.Params.ID) > 0:
		for _, id := range c.Params.ID {
			tags = append(tags, fmt.Sprintf("%s::%d", TagElement, id))
		}
	case len(typeTags) > 0:
		for _, tag := range typeTags {
			tags = append(tags, fmt.Sprintf("%s::%s::%s", TagElement, kind, tag))
		}
	default:
		tags = append(tags, fmt.Sprintf("%s::%s::*", TagElement, kind))
	}

	if drafts != criteria.Exclude {
		tags = append(tags, TagDrafts)
	}
	if revisions != criteria.Exclude {
		tags = append(tags, TagRevisions)
	}
	return tags
}
