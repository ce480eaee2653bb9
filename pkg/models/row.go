package models

import (
	"fmt"
	"time"

	"github.com/Ramsey-B/fern/pkg/database"
)

// Presentation column names shared by the compiler and the row converter.
const (
	ColID             = "id"
	ColType           = "type"
	ColUID            = "uid"
	ColCanonicalID    = "canonical_id"
	ColDraftID        = "draft_id"
	ColRevisionID     = "revision_id"
	ColEnabled        = "enabled"
	ColArchived       = "archived"
	ColDateDeleted    = "date_deleted"
	ColDateCreated    = "date_created"
	ColDateUpdated    = "date_updated"
	ColSiteSettingsID = "site_settings_id"
	ColSiteID         = "site_id"
	ColTitle          = "title"
	ColSlug           = "slug"
	ColURI            = "uri"
	ColEnabledForSite = "enabled_for_site"
	ColContent        = "content"

	ColStructureID = "structure_id"
	ColRoot        = "root"
	ColLft         = "lft"
	ColRgt         = "rgt"
	ColLevel       = "level"

	ColDraftCreatorID   = "draft_creator_id"
	ColDraftProvisional = "draft_provisional"
	ColDraftSaved       = "draft_saved"
	ColDraftName        = "draft_name"
	ColDraftNotes       = "draft_notes"

	ColRevisionCreatorID = "revision_creator_id"
	ColRevisionNum       = "revision_num"
	ColRevisionNotes     = "revision_notes"
)

var knownColumns = map[string]bool{
	ColID: true, ColType: true, ColUID: true, ColCanonicalID: true, ColDraftID: true,
	ColRevisionID: true, ColEnabled: true, ColArchived: true, ColDateDeleted: true,
	ColDateCreated: true, ColDateUpdated: true, ColSiteSettingsID: true, ColSiteID: true,
	ColTitle: true, ColSlug: true, ColURI: true, ColEnabledForSite: true, ColContent: true,
	ColStructureID: true, ColRoot: true, ColLft: true, ColRgt: true, ColLevel: true,
	ColDraftCreatorID: true, ColDraftProvisional: true, ColDraftSaved: true,
	ColDraftName: true, ColDraftNotes: true, ColRevisionCreatorID: true,
	ColRevisionNum: true, ColRevisionNotes: true,
}

// ElementFromRow materializes a presentation-query row. Columns that are not
// part of the base element land in Attributes.
func ElementFromRow(row map[string]any) (*Element, error) {
	e := &Element{}

	id, err := ToInt64(row[ColID])
	if err != nil {
		return nil, fmt.Errorf("invalid element id: %w", err)
	}
	e.ID = id
	e.Type = str(row[ColType])
	e.UID = str(row[ColUID])
	e.CanonicalID = optInt(row[ColCanonicalID])
	e.DraftID = optInt(row[ColDraftID])
	e.RevisionID = optInt(row[ColRevisionID])
	e.Enabled = boolean(row[ColEnabled])
	e.Archived = boolean(row[ColArchived])
	e.DateDeleted = optTime(row[ColDateDeleted])
	if t := optTime(row[ColDateCreated]); t != nil {
		e.DateCreated = *t
	}
	if t := optTime(row[ColDateUpdated]); t != nil {
		e.DateUpdated = *t
	}

	if v, ok := row[ColSiteSettingsID]; ok && v != nil {
		e.SiteSettingsID, _ = ToInt64(v)
	}
	if v, ok := row[ColSiteID]; ok && v != nil {
		e.SiteID, _ = ToInt64(v)
	}
	e.Title = str(row[ColTitle])
	e.Slug = str(row[ColSlug])
	e.URI = str(row[ColURI])
	e.EnabledForSite = boolean(row[ColEnabledForSite])

	if raw, ok := row[ColContent]; ok && raw != nil {
		content, err := decodeContent(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid content for element %d: %w", e.ID, err)
		}
		e.Content = content
	}

	if v, ok := row[ColLft]; ok && v != nil {
		node := &StructureNode{ElementID: e.ID}
		node.StructureID, _ = ToInt64(row[ColStructureID])
		node.Root, _ = ToInt64(row[ColRoot])
		node.Lft, _ = ToInt64(v)
		node.Rgt, _ = ToInt64(row[ColRgt])
		node.Level, _ = ToInt64(row[ColLevel])
		e.Structure = node
	}

	if e.DraftID != nil {
		e.Draft = &Draft{
			ID:          *e.DraftID,
			CreatorID:   optInt(row[ColDraftCreatorID]),
			Provisional: boolean(row[ColDraftProvisional]),
			Saved:       boolean(row[ColDraftSaved]),
			Name:        str(row[ColDraftName]),
			Notes:       str(row[ColDraftNotes]),
		}
	}
	if e.RevisionID != nil {
		num, _ := ToInt64(row[ColRevisionNum])
		e.Revision = &Revision{
			ID:        *e.RevisionID,
			CreatorID: optInt(row[ColRevisionCreatorID]),
			Num:       num,
			Notes:     str(row[ColRevisionNotes]),
		}
	}

	for k, v := range row {
		if knownColumns[k] {
			continue
		}
		if e.Attributes == nil {
			e.Attributes = map[string]any{}
		}
		e.Attributes[k] = v
	}

	return e, nil
}

func decodeContent(raw any) (map[string]any, error) {
	var content database.JSONB[map[string]any]
	if err := content.Scan(raw); err != nil {
		return nil, err
	}
	return content.GetValue(), nil
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func boolean(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "t" || b == "true" || b == "1"
	case int64:
		return b != 0
	}
	return false
}

func optInt(v any) *int64 {
	if v == nil {
		return nil
	}
	n, err := ToInt64(v)
	if err != nil {
		return nil
	}
	return &n
}

func optTime(v any) *time.Time {
	switch t := v.(type) {
	case time.Time:
		return &t
	case *time.Time:
		return t
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07", "2006-01-02 15:04:05"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return &parsed
			}
		}
	}
	return nil
}
