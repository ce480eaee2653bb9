package criteria

// TypeParams holds the params only one element kind understands.
type TypeParams interface {
	Kind() Kind
	typeParams()
}

type EntryParams struct {
	Section    []string `json:"section,omitempty"`
	SectionID  []int64  `json:"section_id,omitempty"`
	EntryType  []string `json:"entry_type,omitempty"`
	TypeID     []int64  `json:"type_id,omitempty"`
	AuthorID   []int64  `json:"author_id,omitempty"`
	PostDate   any      `json:"post_date,omitempty"`
	ExpiryDate any      `json:"expiry_date,omitempty"`
	// Editable limits results to entries the acting user may edit.
	Editable bool `json:"editable,omitempty"`
}

type CategoryParams struct {
	Group   []string `json:"group,omitempty"`
	GroupID []int64  `json:"group_id,omitempty"`
}

type AssetParams struct {
	Volume    []string `json:"volume,omitempty"`
	VolumeID  []int64  `json:"volume_id,omitempty"`
	FolderID  []int64  `json:"folder_id,omitempty"`
	Filename  any      `json:"filename,omitempty"`
	AssetKind []string `json:"asset_kind,omitempty"`
}

type UserParams struct {
	Username any   `json:"username,omitempty"`
	Email    any   `json:"email,omitempty"`
	Admin    *bool `json:"admin,omitempty"`
}

type BlockParams struct {
	FieldID []int64 `json:"field_id,omitempty"`
	OwnerID []int64 `json:"owner_id,omitempty"`
	TypeID  []int64 `json:"type_id,omitempty"`
}

func (*EntryParams) Kind() Kind    { return KindEntry }
func (*CategoryParams) Kind() Kind { return KindCategory }
func (*AssetParams) Kind() Kind    { return KindAsset }
func (*UserParams) Kind() Kind     { return KindUser }
func (*BlockParams) Kind() Kind    { return KindBlock }

func (*EntryParams) typeParams()    {}
func (*CategoryParams) typeParams() {}
func (*AssetParams) typeParams()    {}
func (*UserParams) typeParams()     {}
func (*BlockParams) typeParams()    {}

func newTypeParams(kind Kind) TypeParams {
	switch kind {
	case KindEntry:
		return &EntryParams{}
	case KindCategory:
		return &CategoryParams{}
	case KindAsset:
		return &AssetParams{}
	case KindUser:
		return &UserParams{}
	case KindBlock:
		return &BlockParams{}
	}
	return nil
}

// Entry returns the entry params, or nil for other kinds.
func (c *Criteria) Entry() *EntryParams {
	p, _ := c.Params.TypeParams.(*EntryParams)
	return p
}

func (c *Criteria) Category() *CategoryParams {
	p, _ := c.Params.TypeParams.(*CategoryParams)
	return p
}

func (c *Criteria) Asset() *AssetParams {
	p, _ := c.Params.TypeParams.(*AssetParams)
	return p
}

func (c *Criteria) User() *UserParams {
	p, _ := c.Params.TypeParams.(*UserParams)
	return p
}

func (c *Criteria) Block() *BlockParams {
	p, _ := c.Params.TypeParams.(*BlockParams)
	return p
}

func (c *Criteria) entry(param string) *EntryParams {
	p := c.Entry()
	if p == nil {
		c.unsupported(param)
		return &EntryParams{}
	}
	return p
}

func (c *Criteria) category(param string) *CategoryParams {
	p := c.Category()
	if p == nil {
		c.unsupported(param)
		return &CategoryParams{}
	}
	return p
}

func (c *Criteria) asset(param string) *AssetParams {
	p := c.Asset()
	if p == nil {
		c.unsupported(param)
		return &AssetParams{}
	}
	return p
}

func (c *Criteria) user(param string) *UserParams {
	p := c.User()
	if p == nil {
		c.unsupported(param)
		return &UserParams{}
	}
	return p
}

func (c *Criteria) block(param string) *BlockParams {
	p := c.Block()
	if p == nil {
		c.unsupported(param)
		return &BlockParams{}
	}
	return p
}

// Entry params

func (c *Criteria) Section(handles ...string) *Criteria {
	c.entry("section").Section = handles
	return c
}

func (c *Criteria) SectionID(ids ...int64) *Criteria {
	c.entry("sectionId").SectionID = ids
	return c
}

func (c *Criteria) EntryType(handles ...string) *Criteria {
	c.entry("type").EntryType = handles
	return c
}

func (c *Criteria) TypeID(ids ...int64) *Criteria {
	switch c.Kind {
	case KindBlock:
		c.block("typeId").TypeID = ids
	default:
		c.entry("typeId").TypeID = ids
	}
	return c
}

func (c *Criteria) AuthorID(ids ...int64) *Criteria {
	c.entry("authorId").AuthorID = ids
	return c
}

func (c *Criteria) PostDate(value any) *Criteria {
	c.entry("postDate").PostDate = value
	return c
}

func (c *Criteria) ExpiryDate(value any) *Criteria {
	c.entry("expiryDate").ExpiryDate = value
	return c
}

func (c *Criteria) Editable(editable bool) *Criteria {
	c.entry("editable").Editable = editable
	return c
}

// Category params

func (c *Criteria) Group(handles ...string) *Criteria {
	c.category("group").Group = handles
	return c
}

func (c *Criteria) GroupID(ids ...int64) *Criteria {
	c.category("groupId").GroupID = ids
	return c
}

// Asset params

func (c *Criteria) Volume(handles ...string) *Criteria {
	c.asset("volume").Volume = handles
	return c
}

func (c *Criteria) VolumeID(ids ...int64) *Criteria {
	c.asset("volumeId").VolumeID = ids
	return c
}

func (c *Criteria) FolderID(ids ...int64) *Criteria {
	c.asset("folderId").FolderID = ids
	return c
}

func (c *Criteria) Filename(value any) *Criteria {
	c.asset("filename").Filename = value
	return c
}

func (c *Criteria) AssetKind(kinds ...string) *Criteria {
	c.asset("kind").AssetKind = kinds
	return c
}

// User params

func (c *Criteria) Username(value any) *Criteria {
	c.user("username").Username = value
	return c
}

func (c *Criteria) Email(value any) *Criteria {
	c.user("email").Email = value
	return c
}

func (c *Criteria) Admin(admin bool) *Criteria {
	c.user("admin").Admin = &admin
	return c
}

// Block params

func (c *Criteria) FieldID(ids ...int64) *Criteria {
	c.block("fieldId").FieldID = ids
	return c
}

func (c *Criteria) OwnerID(ids ...int64) *Criteria {
	c.block("ownerId").OwnerID = ids
	return c
}
