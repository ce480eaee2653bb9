// Package revisions resolves draft and revision visibility for a selection
// and adds overlay metadata to the presentation query.
package revisions

import (
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
)

// DraftVisibility returns the effective draft visibility of c. Narrowing
// params imply drafts when the caller left drafts excluded.
func DraftVisibility(c *criteria.Criteria) criteria.Visibility {
	p := c.Params
	if p.Drafts == criteria.Exclude &&
		(p.DraftID != nil || p.DraftOf != nil || p.DraftCreator != nil || p.ProvisionalDrafts == criteria.Only) {
		return criteria.Only
	}
	return p.Drafts
}

// RevisionVisibility returns the effective revision visibility of c.
func RevisionVisibility(c *criteria.Criteria) criteria.Visibility {
	p := c.Params
	if p.Revisions == criteria.Exclude && (p.RevisionID != nil || p.RevisionOf != nil || p.RevisionCreator != nil) {
		return criteria.Only
	}
	return p.Revisions
}

// Apply joins the overlay tables the visibility of c needs and restricts sb
// accordingly. placeholderIDs are canonical ids that stay visible while
// drafts are excluded, so their placeholders can be substituted later.
func Apply(sb *database.SelectBuilder, a schema.Aliases, c *criteria.Criteria, placeholderIDs []int64) {
	applyDrafts(sb, a, c, placeholderIDs)
	applyRevisions(sb, a, c)
}

func applyDrafts(sb *database.SelectBuilder, a schema.Aliases, c *criteria.Criteria, placeholderIDs []int64) {
	p := c.Params
	draftID := a.Col("draft_id")
	canonicalID := a.Col("canonical_id")
	col := func(column string) string { return a.Drafts + "." + column }

	switch DraftVisibility(c) {
	case criteria.Exclude:
		expr := sb.IsNull(draftID)
		if len(placeholderIDs) > 0 {
			expr = sb.Or(expr, sb.In(a.Col("id"), int64sToAny(placeholderIDs)...))
		}
		sb.Where(expr)
		return
	case criteria.Only:
		sb.Join(schema.TableDrafts+" AS "+a.Drafts, sb.EqualColumns(col("id"), draftID))
	default:
		sb.JoinWithOption(database.LeftJoin, schema.TableDrafts+" AS "+a.Drafts, sb.EqualColumns(col("id"), draftID))
	}

	if p.DraftID != nil {
		sb.Where(sb.Equal(draftID, *p.DraftID))
	}

	if p.DraftOf != nil {
		sb.Where(sb.IsNotNull(draftID))
		switch {
		case p.DraftOf.Any:
		case p.DraftOf.CanonicalID != nil:
			sb.Where(sb.Equal(canonicalID, *p.DraftOf.CanonicalID))
		default:
			sb.Where(sb.IsNull(canonicalID))
		}
	}

	if p.DraftCreator != nil {
		sb.Where(sb.Equal(col("creator_id"), *p.DraftCreator))
	}

	switch p.ProvisionalDrafts {
	case criteria.Exclude:
		sb.Where(sb.Or(sb.IsNull(draftID), sb.Equal(col("provisional"), false)))
	case criteria.Only:
		sb.Where(sb.Equal(col("provisional"), true))
	}

	if p.SavedDraftsOnly {
		sb.Where(sb.Or(
			sb.IsNull(draftID),
			sb.IsNotNull(canonicalID),
			sb.Equal(col("saved"), true),
		))
	}
}

func applyRevisions(sb *database.SelectBuilder, a schema.Aliases, c *criteria.Criteria) {
	p := c.Params
	revisionID := a.Col("revision_id")
	col := func(column string) string { return a.Revisions + "." + column }

	switch RevisionVisibility(c) {
	case criteria.Exclude:
		sb.Where(sb.IsNull(revisionID))
		return
	case criteria.Only:
		sb.Join(schema.TableRevisions+" AS "+a.Revisions, sb.EqualColumns(col("id"), revisionID))
	default:
		sb.JoinWithOption(database.LeftJoin, schema.TableRevisions+" AS "+a.Revisions, sb.EqualColumns(col("id"), revisionID))
	}

	if p.RevisionID != nil {
		sb.Where(sb.Equal(revisionID, *p.RevisionID))
	}
	if p.RevisionOf != nil {
		sb.Where(sb.IsNotNull(revisionID), sb.Equal(a.Col("canonical_id"), *p.RevisionOf))
	}
	if p.RevisionCreator != nil {
		sb.Where(sb.Equal(col("creator_id"), *p.RevisionCreator))
	}
}

// Present adds overlay metadata columns to the presentation query when the
// overlay rows can be part of the result.
func Present(sb *database.SelectBuilder, a schema.Aliases, c *criteria.Criteria) []string {
	var columns []string
	if DraftVisibility(c) != criteria.Exclude {
		sb.JoinWithOption(database.LeftJoin, schema.TableDrafts+" AS "+a.Drafts, sb.EqualColumns(a.Drafts+".id", a.Col("draft_id")))
		columns = append(columns,
			a.Drafts+".creator_id AS "+models.ColDraftCreatorID,
			a.Drafts+".provisional AS "+models.ColDraftProvisional,
			a.Drafts+".saved AS "+models.ColDraftSaved,
			a.Drafts+".name AS "+models.ColDraftName,
			a.Drafts+".notes AS "+models.ColDraftNotes,
		)
	}
	if RevisionVisibility(c) != criteria.Exclude {
		sb.JoinWithOption(database.LeftJoin, schema.TableRevisions+" AS "+a.Revisions, sb.EqualColumns(a.Revisions+".id", a.Col("revision_id")))
		columns = append(columns,
			a.Revisions+".creator_id AS "+models.ColRevisionCreatorID,
			a.Revisions+".num AS "+models.ColRevisionNum,
			a.Revisions+".notes AS "+models.ColRevisionNotes,
		)
	}
	return columns
}

func int64sToAny(ids []int64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
