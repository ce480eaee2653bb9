package criteria

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Document is the serialized form of a criteria, as read from YAML files by
// the CLI. Structure references name elements by id.
type Document struct {
	Kind Kind `yaml:"kind" validate:"required,oneof=entry category asset user block"`

	ID          []int64  `yaml:"id"`
	NotID       []int64  `yaml:"not_id"`
	UID         []string `yaml:"uid"`
	SiteID      []int64  `yaml:"site_id"`
	Site        []string `yaml:"site"`
	AnySite     bool     `yaml:"any_site"`
	Unique      bool     `yaml:"unique"`
	PreferSites []int64  `yaml:"prefer_sites"`
	Archived    bool     `yaml:"archived"`

	Status []string `yaml:"status"`
	// AnyStatus disables status filtering.
	AnyStatus   bool       `yaml:"any_status"`
	Trashed     Visibility `yaml:"trashed" validate:"omitempty,oneof=only include"`
	DateCreated any        `yaml:"date_created"`
	DateUpdated any        `yaml:"date_updated"`
	Title       any        `yaml:"title"`
	Slug        any        `yaml:"slug"`
	URI         any        `yaml:"uri"`
	Search      string     `yaml:"search"`

	Fields map[string]any `yaml:"fields"`

	RelatedTo    []any `yaml:"related_to"`
	NotRelatedTo []any `yaml:"not_related_to"`

	StructureID      *int64 `yaml:"structure_id"`
	WithStructure    *bool  `yaml:"with_structure"`
	HasDescendants   *bool  `yaml:"has_descendants"`
	AncestorOf       *int64 `yaml:"ancestor_of"`
	AncestorDist     *int64 `yaml:"ancestor_dist" validate:"omitempty,gt=0"`
	DescendantOf     *int64 `yaml:"descendant_of"`
	DescendantDist   *int64 `yaml:"descendant_dist" validate:"omitempty,gt=0"`
	SiblingOf        *int64 `yaml:"sibling_of"`
	PrevSiblingOf    *int64 `yaml:"prev_sibling_of"`
	NextSiblingOf    *int64 `yaml:"next_sibling_of"`
	PositionedBefore *int64 `yaml:"positioned_before"`
	PositionedAfter  *int64 `yaml:"positioned_after"`
	Level            any    `yaml:"level"`
	Leaves           bool   `yaml:"leaves"`

	Drafts            Visibility `yaml:"drafts" validate:"omitempty,oneof=only include"`
	DraftID           *int64     `yaml:"draft_id"`
	DraftOf           *int64     `yaml:"draft_of"`
	DraftOfAny        bool       `yaml:"draft_of_any"`
	DraftCreator      *int64     `yaml:"draft_creator"`
	ProvisionalDrafts Visibility `yaml:"provisional_drafts" validate:"omitempty,oneof=only include"`
	SavedDraftsOnly   bool       `yaml:"saved_drafts_only"`
	Revisions         Visibility `yaml:"revisions" validate:"omitempty,oneof=only include"`
	RevisionID        *int64     `yaml:"revision_id"`
	RevisionOf        *int64     `yaml:"revision_of"`
	RevisionCreator   *int64     `yaml:"revision_creator"`

	IgnorePlaceholders bool `yaml:"ignore_placeholders"`

	OrderBy []string `yaml:"order_by"`
	// Unordered disables ordering entirely.
	Unordered  bool `yaml:"unordered"`
	FixedOrder bool `yaml:"fixed_order"`
	InReverse  bool `yaml:"in_reverse"`
	Limit      *int `yaml:"limit" validate:"omitempty,gte=0"`
	Offset     int  `yaml:"offset" validate:"gte=0"`

	Select []string    `yaml:"select"`
	Join   []Join      `yaml:"join" validate:"dive"`
	Where  []Where     `yaml:"where" validate:"dive"`
	With   []EagerLoad `yaml:"with" validate:"dive"`

	Section    []string `yaml:"section"`
	SectionID  []int64  `yaml:"section_id"`
	EntryType  []string `yaml:"type"`
	TypeID     []int64  `yaml:"type_id"`
	AuthorID   []int64  `yaml:"author_id"`
	PostDate   any      `yaml:"post_date"`
	ExpiryDate any      `yaml:"expiry_date"`
	Editable   bool     `yaml:"editable"`

	Group   []string `yaml:"group"`
	GroupID []int64  `yaml:"group_id"`

	Volume    []string `yaml:"volume"`
	VolumeID  []int64  `yaml:"volume_id"`
	FolderID  []int64  `yaml:"folder_id"`
	Filename  any      `yaml:"filename"`
	AssetKind []string `yaml:"asset_kind"`

	Username any   `yaml:"username"`
	Email    any   `yaml:"email"`
	Admin    *bool `yaml:"admin"`

	FieldID []int64 `yaml:"field_id"`
	OwnerID []int64 `yaml:"owner_id"`
}

// ParseDocument decodes and validates a YAML criteria document.
func ParseDocument(data []byte) (*Document, error) {
	d := &Document{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("failed to parse criteria document: %w", err)
	}
	if err := validate.Struct(d); err != nil {
		return nil, documentError(err)
	}
	return d, nil
}

// Criteria builds the criteria the document describes. Params the kind does
// not support are reported as a configuration error.
func (d *Document) Criteria() (*Criteria, error) {
	c := New(d.Kind)

	if d.ID != nil {
		c.ID(d.ID...)
	}
	if len(d.NotID) > 0 {
		c.NotID(d.NotID...)
	}
	if len(d.UID) > 0 {
		c.UID(d.UID...)
	}
	if len(d.SiteID) > 0 {
		c.SiteID(d.SiteID...)
	}
	if len(d.Site) > 0 {
		c.Site(d.Site...)
	}
	if d.AnySite {
		c.AnySite()
	}
	c.Unique(d.Unique)
	if len(d.PreferSites) > 0 {
		c.PreferSites(d.PreferSites...)
	}
	c.Archived(d.Archived)

	switch {
	case d.AnyStatus:
		c.Status()
	case len(d.Status) > 0:
		c.Status(d.Status...)
	}
	c.Trashed(d.Trashed)
	if d.DateCreated != nil {
		c.DateCreated(d.DateCreated)
	}
	if d.DateUpdated != nil {
		c.DateUpdated(d.DateUpdated)
	}
	if d.Title != nil {
		c.Title(d.Title)
	}
	if d.Slug != nil {
		c.Slug(d.Slug)
	}
	if d.URI != nil {
		c.URI(d.URI)
	}
	if d.Search != "" {
		c.Search(d.Search)
	}
	handles := make([]string, 0, len(d.Fields))
	for h := range d.Fields {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	for _, h := range handles {
		c.Field(h, d.Fields[h])
	}

	for _, spec := range d.RelatedTo {
		c.AndRelatedTo(spec)
	}
	for _, spec := range d.NotRelatedTo {
		c.NotRelatedTo(spec)
	}

	d.applyStructure(c)
	d.applyRevisions(c)
	c.IgnorePlaceholders(d.IgnorePlaceholders)

	switch {
	case d.Unordered:
		c.OrderBy()
	case len(d.OrderBy) > 0:
		c.OrderBy(d.OrderBy...)
	}
	c.FixedOrder(d.FixedOrder)
	c.InReverse(d.InReverse)
	if d.Limit != nil {
		c.Limit(*d.Limit)
	}
	c.Offset(d.Offset)

	if len(d.Select) > 0 {
		c.Select(d.Select...)
	}
	c.Params.Join = slices.Clone(d.Join)
	c.Params.Where = slices.Clone(d.Where)
	if len(d.With) > 0 {
		c.With(d.With...)
	}

	d.applyTypeParams(c)

	if err := c.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func (d *Document) applyStructure(c *Criteria) {
	if d.StructureID != nil {
		c.StructureID(*d.StructureID)
	}
	if d.WithStructure != nil {
		c.WithStructure(*d.WithStructure)
	}
	if d.HasDescendants != nil {
		c.HasDescendants(*d.HasDescendants)
	}

	refs := []struct {
		id  *int64
		set func(*NodeRef) *Criteria
	}{
		{d.AncestorOf, c.AncestorOf},
		{d.DescendantOf, c.DescendantOf},
		{d.SiblingOf, c.SiblingOf},
		{d.PrevSiblingOf, c.PrevSiblingOf},
		{d.NextSiblingOf, c.NextSiblingOf},
		{d.PositionedBefore, c.PositionedBefore},
		{d.PositionedAfter, c.PositionedAfter},
	}
	for _, ref := range refs {
		if ref.id != nil {
			ref.set(Node(*ref.id))
		}
	}

	if d.AncestorDist != nil {
		c.AncestorDist(*d.AncestorDist)
	}
	if d.DescendantDist != nil {
		c.DescendantDist(*d.DescendantDist)
	}
	if d.Level != nil {
		c.Level(d.Level)
	}
	c.Leaves(d.Leaves)
}

func (d *Document) applyRevisions(c *Criteria) {
	c.Drafts(d.Drafts)
	if d.DraftID != nil {
		c.DraftID(*d.DraftID)
	}
	switch {
	case d.DraftOfAny:
		c.DraftOfAny()
	case d.DraftOf != nil:
		c.DraftOf(*d.DraftOf)
	}
	if d.DraftCreator != nil {
		c.DraftCreator(*d.DraftCreator)
	}
	c.ProvisionalDrafts(d.ProvisionalDrafts)
	c.SavedDraftsOnly(d.SavedDraftsOnly)

	c.Revisions(d.Revisions)
	if d.RevisionID != nil {
		c.RevisionID(*d.RevisionID)
	}
	if d.RevisionOf != nil {
		c.RevisionOf(*d.RevisionOf)
	}
	if d.RevisionCreator != nil {
		c.RevisionCreator(*d.RevisionCreator)
	}
}

func (d *Document) applyTypeParams(c *Criteria) {
	if len(d.Section) > 0 {
		c.Section(d.Section...)
	}
	if len(d.SectionID) > 0 {
		c.SectionID(d.SectionID...)
	}
	if len(d.EntryType) > 0 {
		c.EntryType(d.EntryType...)
	}
	if len(d.TypeID) > 0 {
		c.TypeID(d.TypeID...)
	}
	if len(d.AuthorID) > 0 {
		c.AuthorID(d.AuthorID...)
	}
	if d.PostDate != nil {
		c.PostDate(d.PostDate)
	}
	if d.ExpiryDate != nil {
		c.ExpiryDate(d.ExpiryDate)
	}
	if d.Editable {
		c.Editable(true)
	}

	if len(d.Group) > 0 {
		c.Group(d.Group...)
	}
	if len(d.GroupID) > 0 {
		c.GroupID(d.GroupID...)
	}

	if len(d.Volume) > 0 {
		c.Volume(d.Volume...)
	}
	if len(d.VolumeID) > 0 {
		c.VolumeID(d.VolumeID...)
	}
	if len(d.FolderID) > 0 {
		c.FolderID(d.FolderID...)
	}
	if d.Filename != nil {
		c.Filename(d.Filename)
	}
	if len(d.AssetKind) > 0 {
		c.AssetKind(d.AssetKind...)
	}

	if d.Username != nil {
		c.Username(d.Username)
	}
	if d.Email != nil {
		c.Email(d.Email)
	}
	if d.Admin != nil {
		c.Admin(*d.Admin)
	}

	if len(d.FieldID) > 0 {
		c.FieldID(d.FieldID...)
	}
	if len(d.OwnerID) > 0 {
		c.OwnerID(d.OwnerID...)
	}
}

func documentError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msg := "invalid criteria document:"
	for _, fe := range verrs {
		msg += fmt.Sprintf("\n • field '%s': rule '%s' expected '%s', got '%v'", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value())
	}
	return errors.New(msg)
}
