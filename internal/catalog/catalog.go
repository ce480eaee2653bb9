// Package catalog loads the project catalog: sites, handle namespaces and
// custom fields. It backs the compiler's site, handle and field lookups when
// no database-backed implementation is wired.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/Gobusters/ectolinq"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/pkg/elementtypes"
	"github.com/Ramsey-B/fern/pkg/fields"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Site struct {
	ID      int64  `yaml:"id" validate:"required,gt=0"`
	Handle  string `yaml:"handle" validate:"required"`
	Primary bool   `yaml:"primary"`
}

type Catalog struct {
	Sites      []Site           `yaml:"sites" validate:"required,min=1,dive"`
	Sections   map[string]int64 `yaml:"sections"`
	EntryTypes map[string]int64 `yaml:"entry_types"`
	Groups     map[string]int64 `yaml:"groups"`
	Volumes    map[string]int64 `yaml:"volumes"`
	Fields     []fields.Field   `yaml:"fields" validate:"dive"`

	fieldsByHandle map[string]*fields.Field
}

// Load reads and validates the catalog file at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := validate.Struct(c); err != nil {
		return nil, validationError(err)
	}

	primaries := 0
	handles := map[string]bool{}
	for _, s := range c.Sites {
		if handles[s.Handle] {
			return nil, fmt.Errorf("duplicate site handle %q", s.Handle)
		}
		handles[s.Handle] = true
		if s.Primary {
			primaries++
		}
	}
	if primaries > 1 {
		return nil, errors.New("catalog declares more than one primary site")
	}

	c.fieldsByHandle = make(map[string]*fields.Field, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		if f.Handle == "" || f.Type == "" {
			return nil, fmt.Errorf("field %d needs a handle and a type", f.ID)
		}
		if _, ok := c.fieldsByHandle[f.Handle]; ok {
			return nil, fmt.Errorf("duplicate field handle %q", f.Handle)
		}
		c.fieldsByHandle[f.Handle] = f
	}
	return c, nil
}

// SiteIDs returns the ids of the known handles. Unknown handles are skipped.
func (c *Catalog) SiteIDs(_ context.Context, handles []string) ([]int64, error) {
	var ids []int64
	for _, h := range handles {
		matches := ectolinq.Filter(c.Sites, func(s Site) bool { return s.Handle == h })
		ids = append(ids, ectolinq.Map(matches, siteID)...)
	}
	return ids, nil
}

func (c *Catalog) AllSiteIDs(context.Context) ([]int64, error) {
	ids := ectolinq.Map(c.Sites, siteID)
	slices.Sort(ids)
	return ids, nil
}

// PrimarySiteID returns the site flagged primary, else the first site.
func (c *Catalog) PrimarySiteID(context.Context) (int64, error) {
	primary := ectolinq.Find(c.Sites, func(s Site) bool { return s.Primary })
	if primary.ID != 0 {
		return primary.ID, nil
	}
	if len(c.Sites) == 0 {
		return 0, errors.New("catalog has no sites")
	}
	return c.Sites[0].ID, nil
}

// IDs resolves handles within a namespace.
func (c *Catalog) IDs(_ context.Context, kind elementtypes.HandleKind, handles []string) ([]int64, error) {
	var namespace map[string]int64
	switch kind {
	case elementtypes.HandleSection:
		namespace = c.Sections
	case elementtypes.HandleEntryType:
		namespace = c.EntryTypes
	case elementtypes.HandleGroup:
		namespace = c.Groups
	case elementtypes.HandleVolume:
		namespace = c.Volumes
	default:
		return nil, fmt.Errorf("unknown handle kind %q", kind)
	}

	var ids []int64
	for _, h := range handles {
		if id, ok := namespace[h]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (c *Catalog) FieldByHandle(handle string) (*fields.Field, bool) {
	f, ok := c.fieldsByHandle[handle]
	return f, ok
}

func siteID(s Site) int64 { return s.ID }

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msg := "invalid catalog:"
	for _, fe := range verrs {
		msg += fmt.Sprintf("\n • field '%s': rule '%s' failed, got '%v'", fe.Namespace(), fe.Tag(), fe.Value())
	}
	return errors.New(msg)
}
