package elementtypes

import (
	"github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/schema"
)

const (
	StatusLive    = "live"
	StatusPending = "pending"
	StatusExpired = "expired"

	// PermissionSaveEntries gates the editable param.
	PermissionSaveEntries = "saveEntries"
)

type Entry struct {
	base
}

func (Entry) Kind() criteria.Kind { return criteria.KindEntry }

func (Entry) DetailTable() string { return schema.TableEntries }

func (Entry) DefaultStatuses() []string { return []string{StatusLive} }

// Status adds live, pending and expired, which compare post and expiry
// dates against the compile clock.
func (Entry) Status(fc *FilterContext, name string) (string, bool) {
	sb, a := fc.Builder, fc.Aliases
	postDate := a.DetailCol("post_date")
	expiryDate := a.DetailCol("expiry_date")
	enabled, _ := baseStatus(fc, StatusEnabled)

	switch name {
	case StatusLive:
		return sb.And(
			enabled,
			sb.LessEqualThan(postDate, fc.Now),
			sb.Or(sb.IsNull(expiryDate), sb.GreaterThan(expiryDate, fc.Now)),
		), true
	case StatusPending:
		return sb.And(enabled, sb.GreaterThan(postDate, fc.Now)), true
	case StatusExpired:
		return sb.And(enabled, sb.IsNotNull(expiryDate), sb.LessEqualThan(expiryDate, fc.Now)), true
	}
	return baseStatus(fc, name)
}

func (Entry) DefaultOrder() []criteria.OrderTerm {
	return []criteria.OrderTerm{order("postDate", true)}
}

func (Entry) Attribute(a schema.Aliases, name string) (string, bool) {
	switch name {
	case "postDate":
		return a.DetailCol("post_date"), true
	case "expiryDate":
		return a.DetailCol("expiry_date"), true
	case "sectionId":
		return a.DetailCol("section_id"), true
	case "typeId":
		return a.DetailCol("type_id"), true
	case "authorId":
		return a.DetailCol("author_id"), true
	}
	return "", false
}

func (Entry) JoinDetail(sb *database.SelectBuilder, a schema.Aliases) {
	joinDetail(sb, a, schema.TableEntries)
}

func (Entry) ApplyFilters(fc *FilterContext) error {
	p := fc.Criteria.Entry()
	if p == nil {
		return nil
	}
	a := fc.Aliases

	sectionIDs, ok, err := fc.ids("section", HandleSection, p.Section, p.SectionID)
	if err != nil {
		return err
	}
	if ok {
		fc.in(a.DetailCol("section_id"), sectionIDs)
	}

	typeIDs, ok, err := fc.ids("type", HandleEntryType, p.EntryType, p.TypeID)
	if err != nil {
		return err
	}
	if ok {
		fc.in(a.DetailCol("type_id"), typeIDs)
	}

	if p.AuthorID != nil {
		fc.in(a.DetailCol("author_id"), p.AuthorID)
	}

	if err := fc.param(a.DetailCol("post_date"), p.PostDate, criteria.ParamOptions{Type: criteria.ParamDate}); err != nil {
		return err
	}
	if err := fc.param(a.DetailCol("expiry_date"), p.ExpiryDate, criteria.ParamOptions{Type: criteria.ParamDate}); err != nil {
		return err
	}

	if p.Editable {
		return editable(fc)
	}
	return nil
}

// editable limits entries to sections the actor may save in. Conditional
// sections only allow entries the actor authored.
func editable(fc *FilterContext) error {
	actorID, ok := context.GetUserID(fc.Context)
	if !ok {
		return errors.Abort("editable requires an acting user").AddParam("editable")
	}
	if fc.Authorizer == nil {
		return errors.NewUpstreamError("authorizer", "editable requires an authorizer").AddParam("editable")
	}

	perms, err := fc.Authorizer.Permissions(fc.Context, actorID, PermissionSaveEntries)
	if err != nil {
		return errors.WrapUpstreamError("authorizer", err).AddParam("editable")
	}
	if len(perms.Full) == 0 && len(perms.Conditional) == 0 {
		return errors.Abort("the acting user cannot edit any section").AddParam("editable")
	}

	sb, a := fc.Builder, fc.Aliases
	section := a.DetailCol("section_id")
	var allowed []string
	if len(perms.Full) > 0 {
		allowed = append(allowed, sb.In(section, toAny(perms.Full)...))
	}
	if len(perms.Conditional) > 0 {
		allowed = append(allowed, sb.And(
			sb.In(section, toAny(perms.Conditional)...),
			sb.Equal(a.DetailCol("author_id"), actorID),
		))
	}
	sb.Where(sb.Or(allowed...))
	if len(perms.Denied) > 0 {
		sb.Where(sb.NotIn(section, toAny(perms.Denied)...))
	}
	return nil
}

func (Entry) CacheTags(fc *FilterContext) []string {
	p := fc.Criteria.Entry()
	if p == nil {
		return nil
	}
	ids := append(append([]int64{}, p.SectionID...), fc.Resolved["section"]...)
	return tags("section", ids)
}

func (Entry) Columns(a schema.Aliases) []string {
	return columns(a, "section_id", "type_id", "author_id", "post_date", "expiry_date")
}
