package structure

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/schema"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var nodeColumns = []string{
	models.ColStructureID,
	"element_id",
	models.ColRoot,
	models.ColLft,
	models.ColRgt,
	models.ColLevel,
}

// Repository resolves structure placement from the structure_nodes table.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// NodeFor returns the node of elementID in structureID. A zero structureID
// returns the element's node in the lowest numbered structure.
func (r *Repository) NodeFor(ctx context.Context, structureID, elementID int64) (*models.StructureNode, error) {
	ctx, span := tracing.StartSpan(ctx, "StructureRepository.NodeFor")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(nodeColumns...)
	sb.From(schema.TableStructure)
	sb.Where(sb.Equal("element_id", elementID))
	if structureID != 0 {
		sb.Where(sb.Equal(models.ColStructureID, structureID))
	}
	sb.OrderBy(models.ColStructureID)
	sb.Limit(1)

	return r.node(ctx, sb, "NodeFor")
}

// Parent returns the node one level above node that contains it.
func (r *Repository) Parent(ctx context.Context, node models.StructureNode) (*models.StructureNode, error) {
	ctx, span := tracing.StartSpan(ctx, "StructureRepository.Parent")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(nodeColumns...)
	sb.From(schema.TableStructure)
	sb.Where(
		sb.Equal(models.ColStructureID, node.StructureID),
		sb.Equal(models.ColRoot, node.Root),
		sb.LessThan(models.ColLft, node.Lft),
		sb.GreaterThan(models.ColRgt, node.Rgt),
		sb.Equal(models.ColLevel, node.Level-1),
	)
	sb.Limit(1)

	return r.node(ctx, sb, "Parent")
}

// CanonicalID returns the canonical id of elementID, the element's own id
// when it is canonical, or zero when the element does not exist.
func (r *Repository) CanonicalID(ctx context.Context, elementID int64) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "StructureRepository.CanonicalID")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COALESCE(canonical_id, id) AS canonical_id")
	sb.From(schema.TableElements)
	sb.Where(sb.Equal("id", elementID))

	query, args := sb.Build()
	rows, err := r.db.QueryRows(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"element_id": elementID,
		}).Error("Failed to resolve canonical element")
		return 0, fmt.Errorf("failed to resolve canonical element %d: %w", elementID, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	canonicalID, err := models.ToInt64(rows[0][models.ColCanonicalID])
	if err != nil {
		return 0, fmt.Errorf("invalid canonical id for element %d: %w", elementID, err)
	}
	return canonicalID, nil
}

func (r *Repository) node(ctx context.Context, sb *database.SelectBuilder, method string) (*models.StructureNode, error) {
	query, args := sb.Build()
	rows, err := r.db.QueryRows(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"method": method,
		}).Error("Failed to query structure nodes")
		return nil, fmt.Errorf("failed to query structure nodes: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return nodeFromRow(rows[0])
}

func nodeFromRow(row database.Row) (*models.StructureNode, error) {
	node := &models.StructureNode{}
	fields := []struct {
		column string
		dst    *int64
	}{
		{models.ColStructureID, &node.StructureID},
		{"element_id", &node.ElementID},
		{models.ColRoot, &node.Root},
		{models.ColLft, &node.Lft},
		{models.ColRgt, &node.Rgt},
		{models.ColLevel, &node.Level},
	}
	for _, f := range fields {
		v, err := models.ToInt64(row[f.column])
		if err != nil {
			return nil, fmt.Errorf("invalid structure node column %s: %w", f.column, err)
		}
		*f.dst = v
	}
	return node, nil
}
