package models

import (
	"fmt"
	"strconv"
	"time"
)

// Element is one materialized row: the logical element, its projection for
// one site, and any structure, draft or revision metadata the query joined.
type Element struct {
	ID          int64      `json:"id"`
	Type        string     `json:"type"`
	UID         string     `json:"uid"`
	CanonicalID *int64     `json:"canonical_id,omitempty"`
	DraftID     *int64     `json:"draft_id,omitempty"`
	RevisionID  *int64     `json:"revision_id,omitempty"`
	Enabled     bool       `json:"enabled"`
	Archived    bool       `json:"archived"`
	DateDeleted *time.Time `json:"date_deleted,omitempty"`
	DateCreated time.Time  `json:"date_created"`
	DateUpdated time.Time  `json:"date_updated"`

	SiteSettingsID int64  `json:"site_settings_id"`
	SiteID         int64  `json:"site_id"`
	Title          string `json:"title,omitempty"`
	Slug           string `json:"slug,omitempty"`
	URI            string `json:"uri,omitempty"`
	EnabledForSite bool   `json:"enabled_for_site"`

	Structure *StructureNode `json:"structure,omitempty"`
	Draft     *Draft         `json:"draft,omitempty"`
	Revision  *Revision      `json:"revision,omitempty"`

	// Content holds custom field values keyed by field uid.
	Content map[string]any `json:"content,omitempty"`
	// Attributes holds type-specific detail columns and caller selections.
	Attributes map[string]any `json:"attributes,omitempty"`

	SearchScore *float64 `json:"search_score,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty"`
}

// CanonicalElementID returns the id of the published counterpart.
func (e *Element) CanonicalElementID() int64 {
	if e.CanonicalID != nil {
		return *e.CanonicalID
	}
	return e.ID
}

// IsCanonical reports whether e is neither a draft nor a revision.
func (e *Element) IsCanonical() bool {
	return e.DraftID == nil && e.RevisionID == nil
}

func (e *Element) IsDraft() bool {
	return e.DraftID != nil
}

func (e *Element) IsRevision() bool {
	return e.RevisionID != nil
}

// StructureNode is a nested-set placement.
type StructureNode struct {
	StructureID int64 `json:"structure_id"`
	ElementID   int64 `json:"element_id"`
	Root        int64 `json:"root"`
	Lft         int64 `json:"lft"`
	Rgt         int64 `json:"rgt"`
	Level       int64 `json:"level"`
}

// IsLeaf reports whether the node has no descendants.
func (n *StructureNode) IsLeaf() bool {
	return n.Rgt == n.Lft+1
}

// Contains reports whether other is a strict descendant of n.
func (n *StructureNode) Contains(other *StructureNode) bool {
	return other.Root == n.Root && other.Lft > n.Lft && other.Rgt < n.Rgt
}

type Draft struct {
	ID          int64  `json:"id"`
	CreatorID   *int64 `json:"creator_id,omitempty"`
	Provisional bool   `json:"provisional"`
	Saved       bool   `json:"saved"`
	Name        string `json:"name,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type Revision struct {
	ID        int64  `json:"id"`
	CreatorID *int64 `json:"creator_id,omitempty"`
	Num       int64  `json:"num"`
	Notes     string `json:"notes,omitempty"`
}

// Relation is a directed edge from a source element's field to a target.
type Relation struct {
	SourceID     int64  `db:"source_id" json:"source_id"`
	TargetID     int64  `db:"target_id" json:"target_id"`
	FieldID      int64  `db:"field_id" json:"field_id"`
	SourceSiteID *int64 `db:"source_site_id" json:"source_site_id,omitempty"`
	SortOrder    int64  `db:"sort_order" json:"sort_order"`
}

// ToInt64 converts a scanned column value to int64.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to int64", v)
}

// ToFloat64 converts a scanned column value to float64.
func ToFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	}
	return 0, fmt.Errorf("cannot convert %T to float64", v)
}
