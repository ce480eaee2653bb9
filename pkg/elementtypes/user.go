package elementtypes

import (
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/schema"
)

const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusLocked    = "locked"
	StatusInactive  = "inactive"
)

// User statuses come from account flags rather than the enabled columns.
type User struct {
	base
}

func (User) Kind() criteria.Kind { return criteria.KindUser }

func (User) DetailTable() string { return schema.TableUsers }

func (User) DefaultStatuses() []string { return []string{StatusActive} }

func (User) Status(fc *FilterContext, name string) (string, bool) {
	sb, a := fc.Builder, fc.Aliases
	switch name {
	case StatusActive:
		return sb.And(
			sb.Equal(a.DetailCol("active"), true),
			sb.Equal(a.DetailCol("suspended"), false),
		), true
	case StatusPending:
		return sb.Equal(a.DetailCol("pending"), true), true
	case StatusSuspended:
		return sb.Equal(a.DetailCol("suspended"), true), true
	case StatusLocked:
		return sb.Equal(a.DetailCol("locked"), true), true
	case StatusInactive:
		return sb.And(
			sb.Equal(a.DetailCol("active"), false),
			sb.Equal(a.DetailCol("pending"), false),
		), true
	}
	return "", false
}

func (User) DefaultOrder() []criteria.OrderTerm {
	return []criteria.OrderTerm{order("username", false)}
}

func (User) Attribute(a schema.Aliases, name string) (string, bool) {
	switch name {
	case "username", "email", "admin":
		return a.DetailCol(name), true
	}
	return "", false
}

func (User) JoinDetail(sb *database.SelectBuilder, a schema.Aliases) {
	joinDetail(sb, a, schema.TableUsers)
}

func (User) ApplyFilters(fc *FilterContext) error {
	p := fc.Criteria.User()
	if p == nil {
		return nil
	}
	a := fc.Aliases
	ci := criteria.ParamOptions{CaseInsensitive: true}

	if err := fc.param(a.DetailCol("username"), p.Username, ci); err != nil {
		return err
	}
	if err := fc.param(a.DetailCol("email"), p.Email, ci); err != nil {
		return err
	}
	if p.Admin != nil {
		fc.Builder.Where(fc.Builder.Equal(a.DetailCol("admin"), *p.Admin))
	}
	return nil
}

func (User) Columns(a schema.Aliases) []string {
	return columns(a, "username", "email", "admin", "active", "pending", "suspended", "locked")
}
