// Package placeholders holds in-memory elements that stand in for persisted
// ones in query results.
package placeholders

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
)

type key struct {
	canonicalID int64
	siteID      int64
}

// Snapshot is a read-only set of placeholders keyed by the canonical element
// and site they replace. The compiler and the repository only read it.
type Snapshot struct {
	elements map[key]*models.Element
}

// NewSnapshot indexes elements. Elements without a canonical id are ignored.
func NewSnapshot(elements ...*models.Element) *Snapshot {
	s := &Snapshot{elements: make(map[key]*models.Element, len(elements))}
	for _, e := range elements {
		if e == nil || e.CanonicalID == nil {
			continue
		}
		s.elements[key{canonicalID: *e.CanonicalID, siteID: e.SiteID}] = e
	}
	return s
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.elements)
}

// Lookup returns the placeholder for a canonical element in a site.
func (s *Snapshot) Lookup(canonicalID, siteID int64) (*models.Element, bool) {
	if s == nil {
		return nil, false
	}
	e, ok := s.elements[key{canonicalID: canonicalID, siteID: siteID}]
	return e, ok
}

// CanonicalIDs returns the sorted canonical ids of placeholders of elementType
// in any of siteIDs. No site ids matches every site.
func (s *Snapshot) CanonicalIDs(elementType string, siteIDs []int64) []int64 {
	if s == nil {
		return nil
	}
	var ids []int64
	for k, e := range s.elements {
		if e.Type != elementType {
			continue
		}
		if len(siteIDs) > 0 && !slices.Contains(siteIDs, k.siteID) {
			continue
		}
		if !slices.Contains(ids, k.canonicalID) {
			ids = append(ids, k.canonicalID)
		}
	}
	slices.Sort(ids)
	return ids
}

// New returns a placeholder copy of canonical for siteID with a fresh uid.
func New(canonical *models.Element, siteID int64) *models.Element {
	canonicalID := canonical.CanonicalElementID()
	e := *canonical
	e.CanonicalID = &canonicalID
	e.SiteID = siteID
	e.UID = uuid.NewString()
	e.Placeholder = true
	e.DateUpdated = time.Now().UTC()
	e.Content = cloneMap(canonical.Content)
	e.Attributes = cloneMap(canonical.Attributes)
	return &e
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
