package elementtypes

import (
	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/schema"
)

type Asset struct {
	base
}

func (Asset) Kind() criteria.Kind { return criteria.KindAsset }

func (Asset) DetailTable() string { return schema.TableAssets }

func (Asset) DefaultOrder() []criteria.OrderTerm {
	return []criteria.OrderTerm{order("dateCreated", true)}
}

func (Asset) Attribute(a schema.Aliases, name string) (string, bool) {
	switch name {
	case "volumeId":
		return a.DetailCol("volume_id"), true
	case "folderId":
		return a.DetailCol("folder_id"), true
	case "filename":
		return a.DetailCol("filename"), true
	case "kind":
		return a.DetailCol("kind"), true
	case "size":
		return a.DetailCol("size"), true
	}
	return "", false
}

func (Asset) JoinDetail(sb *database.SelectBuilder, a schema.Aliases) {
	joinDetail(sb, a, schema.TableAssets)
}

func (Asset) ApplyFilters(fc *FilterContext) error {
	p := fc.Criteria.Asset()
	if p == nil {
		return nil
	}
	a := fc.Aliases

	volumeIDs, ok, err := fc.ids("volume", HandleVolume, p.Volume, p.VolumeID)
	if err != nil {
		return err
	}
	if ok {
		fc.in(a.DetailCol("volume_id"), volumeIDs)
	}
	if p.FolderID != nil {
		fc.in(a.DetailCol("folder_id"), p.FolderID)
	}
	if err := fc.param(a.DetailCol("filename"), p.Filename, criteria.ParamOptions{CaseInsensitive: true}); err != nil {
		return err
	}
	if p.AssetKind != nil {
		kinds := make([]any, len(p.AssetKind))
		for i, k := range p.AssetKind {
			kinds[i] = k
		}
		fc.Builder.Where(fc.Builder.InList(a.DetailCol("kind"), kinds...))
	}
	return nil
}

func (Asset) CacheTags(fc *FilterContext) []string {
	p := fc.Criteria.Asset()
	if p == nil {
		return nil
	}
	return tags("volume", append(append([]int64{}, p.VolumeID...), fc.Resolved["volume"]...))
}

func (Asset) Columns(a schema.Aliases) []string {
	return columns(a, "volume_id", "folder_id", "filename", "kind", "size")
}
