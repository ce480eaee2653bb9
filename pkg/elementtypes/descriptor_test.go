package elementtypes

import (
	"context"
	"testing"
	"time"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "github.com/Ramsey-B/fern/pkg/context"
)

type fakeHandles map[HandleKind]map[string]int64

func (h fakeHandles) IDs(_ context.Context, kind HandleKind, handles []string) ([]int64, error) {
	var ids []int64
	for _, handle := range handles {
		if id, ok := h[kind][handle]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeAuthorizer struct {
	perms Permissions
}

func (a fakeAuthorizer) Permissions(context.Context, int64, string) (Permissions, error) {
	return a.perms, nil
}

var now = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

func newFilterContext(ctx context.Context, d Descriptor, c *criteria.Criteria) *FilterContext {
	sb := database.NewSelectBuilder()
	sb.Select("elements.id").From("elements")
	return &FilterContext{
		Context:  ctx,
		Builder:  sb,
		Aliases:  schema.DefaultAliases(d.DetailTable()),
		Criteria: c,
		Now:      now,
		Handles: fakeHandles{
			HandleSection: {"news": 1, "blog": 2},
			HandleGroup:   {"topics": 4},
			HandleVolume:  {"images": 6},
		},
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, kind := range criteria.Kinds {
		d, err := r.Get(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, d.Kind())
	}

	_, err := r.Get("widget")
	require.Error(t, err)
	assert.True(t, errors.IsConfiguration(err))
}

func TestEntryStatuses(t *testing.T) {
	fc := newFilterContext(context.Background(), Entry{}, criteria.Entries())

	live, ok := Entry{}.Status(fc, StatusLive)
	require.True(t, ok)
	fc.Builder.Where(live)
	sql, args := fc.Builder.Build()
	assert.Contains(t, sql, "elements.enabled = $1 AND elements_sites.enabled = $2")
	assert.Contains(t, sql, "entries.post_date <= $3")
	assert.Contains(t, sql, "(entries.expiry_date IS NULL OR entries.expiry_date > $4)")
	assert.Equal(t, []any{true, true, now, now}, args)

	for _, name := range []string{StatusPending, StatusExpired, StatusEnabled, StatusDisabled, StatusArchived} {
		_, ok := Entry{}.Status(fc, name)
		assert.True(t, ok, name)
	}
	_, ok = Entry{}.Status(fc, "active")
	assert.False(t, ok)
}

func TestUserStatuses(t *testing.T) {
	fc := newFilterContext(context.Background(), User{}, criteria.Users())
	for _, name := range []string{StatusActive, StatusPending, StatusSuspended, StatusLocked, StatusInactive} {
		_, ok := User{}.Status(fc, name)
		assert.True(t, ok, name)
	}
	_, ok := User{}.Status(fc, StatusLive)
	assert.False(t, ok)
	assert.Equal(t, []string{StatusActive}, User{}.DefaultStatuses())
}

func TestEntryFilters(t *testing.T) {
	c := criteria.Entries().Section("news", "missing").SectionID(9).AuthorID(3).PostDate(">= 2026-01-01")
	fc := newFilterContext(context.Background(), Entry{}, c)

	require.NoError(t, Entry{}.ApplyFilters(fc))
	sql, args := fc.Builder.Build()
	assert.Contains(t, sql, "entries.section_id IN ($1, $2)")
	assert.Contains(t, sql, "entries.author_id IN ($3)")
	assert.Contains(t, sql, "entries.post_date >= $4")
	assert.Equal(t, []any{int64(9), int64(1), int64(3), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}, args)

	assert.ElementsMatch(t, []string{"section:9", "section:1"}, Entry{}.CacheTags(fc))
}

func TestEntryUnknownSectionAborts(t *testing.T) {
	fc := newFilterContext(context.Background(), Entry{}, criteria.Entries().Section("missing"))
	err := Entry{}.ApplyFilters(fc)
	require.Error(t, err)
	assert.True(t, errors.IsAborted(err))
}

func TestEditable(t *testing.T) {
	c := criteria.Entries().Editable(true)

	t.Run("no actor aborts", func(t *testing.T) {
		fc := newFilterContext(context.Background(), Entry{}, c)
		fc.Authorizer = fakeAuthorizer{}
		err := Entry{}.ApplyFilters(fc)
		assert.True(t, errors.IsAborted(err))
	})

	t.Run("no authorizer", func(t *testing.T) {
		fc := newFilterContext(appctx.SetUserID(context.Background(), 5), Entry{}, c)
		err := Entry{}.ApplyFilters(fc)
		assert.True(t, errors.IsUpstream(err))
	})

	t.Run("full and conditional sections", func(t *testing.T) {
		fc := newFilterContext(appctx.SetUserID(context.Background(), 5), Entry{}, c)
		fc.Authorizer = fakeAuthorizer{perms: Permissions{Full: []int64{1}, Conditional: []int64{2}, Denied: []int64{3}}}
		require.NoError(t, Entry{}.ApplyFilters(fc))

		sql, args := fc.Builder.Build()
		assert.Contains(t, sql, "entries.section_id IN ($1) OR (entries.section_id IN ($2) AND entries.author_id = $3)")
		assert.Contains(t, sql, "entries.section_id NOT IN ($4)")
		assert.Equal(t, []any{int64(1), int64(2), int64(5), int64(3)}, args)
	})

	t.Run("nothing editable aborts", func(t *testing.T) {
		fc := newFilterContext(appctx.SetUserID(context.Background(), 5), Entry{}, c)
		fc.Authorizer = fakeAuthorizer{perms: Permissions{Denied: []int64{1}}}
		assert.True(t, errors.IsAborted(Entry{}.ApplyFilters(fc)))
	})
}

func TestCategoryFilters(t *testing.T) {
	fc := newFilterContext(context.Background(), Category{}, criteria.Categories().Group("topics"))
	require.NoError(t, Category{}.ApplyFilters(fc))

	sql, args := fc.Builder.Build()
	assert.Contains(t, sql, "categories.group_id IN ($1)")
	assert.Equal(t, []any{int64(4)}, args)
	assert.Equal(t, []string{"group:4"}, Category{}.CacheTags(fc))
	assert.True(t, Category{}.Structured())
}

func TestAssetFilters(t *testing.T) {
	c := criteria.Assets().Volume("images").Filename("*.jpg").AssetKind("image")
	fc := newFilterContext(context.Background(), Asset{}, c)
	require.NoError(t, Asset{}.ApplyFilters(fc))

	sql, args := fc.Builder.Build()
	assert.Contains(t, sql, "assets.volume_id IN ($1)")
	assert.Contains(t, sql, "LOWER(assets.filename) LIKE LOWER($2)")
	assert.Contains(t, sql, "assets.kind IN ($3)")
	assert.Equal(t, []any{int64(6), "%.jpg", "image"}, args)
}

func TestUserFilters(t *testing.T) {
	fc := newFilterContext(context.Background(), User{}, criteria.Users().Email("*@example.com").Admin(true))
	require.NoError(t, User{}.ApplyFilters(fc))

	sql, args := fc.Builder.Build()
	assert.Contains(t, sql, "LOWER(users.email) LIKE LOWER($1)")
	assert.Contains(t, sql, "users.admin = $2")
	assert.Equal(t, []any{"%@example.com", true}, args)
	assert.Empty(t, User{}.CacheTags(fc))
}

func TestBlockFilters(t *testing.T) {
	fc := newFilterContext(context.Background(), Block{}, criteria.Blocks().OwnerID(12).FieldID(7))
	require.NoError(t, Block{}.ApplyFilters(fc))

	sql, _ := fc.Builder.Build()
	assert.Contains(t, sql, "blocks.field_id IN ($1) AND blocks.primary_owner_id IN ($2)")
	assert.Equal(t, []string{"owner:12", "field:7"}, Block{}.CacheTags(fc))
}

func TestDetailJoinAndAttributes(t *testing.T) {
	sb := database.NewSelectBuilder()
	sb.Select("elements.id").From("elements")
	a := schema.DefaultAliases(schema.TableEntries)
	Entry{}.JoinDetail(sb, a)
	sql, _ := sb.Build()
	assert.Contains(t, sql, "JOIN entries AS entries ON entries.id = elements.id")

	col, ok := Entry{}.Attribute(a, "postDate")
	assert.True(t, ok)
	assert.Equal(t, "entries.post_date", col)
	_, ok = Entry{}.Attribute(a, "nope")
	assert.False(t, ok)

	assert.Contains(t, Entry{}.Columns(a), "entries.post_date")
}
