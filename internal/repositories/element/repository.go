package element

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/criteria"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/placeholders"
	"github.com/Ramsey-B/fern/pkg/query"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const DefaultBatchSize = 100

// StatementCompiler turns criteria into executable statements.
type StatementCompiler interface {
	Compile(ctx context.Context, c *criteria.Criteria) (*query.Statement, error)
}

// EagerLoader populates related elements requested through Criteria.With.
type EagerLoader interface {
	Load(ctx context.Context, elements []*models.Element, plans []criteria.EagerLoad) error
}

// ElementRepository executes element criteria.
type ElementRepository interface {
	All(ctx context.Context, c *criteria.Criteria) ([]*models.Element, error)
	One(ctx context.Context, c *criteria.Criteria) (*models.Element, error)
	Nth(ctx context.Context, c *criteria.Criteria, n int) (*models.Element, error)
	Count(ctx context.Context, c *criteria.Criteria) (int64, error)
	Exists(ctx context.Context, c *criteria.Criteria) (bool, error)
	IDs(ctx context.Context, c *criteria.Criteria) ([]int64, error)
	Column(ctx context.Context, c *criteria.Criteria, column string) ([]any, error)
	Rows(ctx context.Context, c *criteria.Criteria) ([]database.Row, error)
	Batch(ctx context.Context, c *criteria.Criteria, size int, fn func([]*models.Element) error) error
}

type Repository struct {
	db           database.DB
	compiler     StatementCompiler
	logger       ectologger.Logger
	placeholders *placeholders.Snapshot
	eager        EagerLoader
	batchSize    int
	cacheResults bool
}

type Option func(*Repository)

func WithPlaceholders(snapshot *placeholders.Snapshot) Option {
	return func(r *Repository) { r.placeholders = snapshot }
}

func WithEagerLoader(loader EagerLoader) Option {
	return func(r *Repository) { r.eager = loader }
}

// WithBatchSize sets the page size Batch uses when called with size 0.
func WithBatchSize(size int) Option {
	return func(r *Repository) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

// WithResultCache toggles memoization of All results on the criteria.
func WithResultCache(enabled bool) Option {
	return func(r *Repository) { r.cacheResults = enabled }
}

func NewRepository(db database.DB, compiler StatementCompiler, logger ectologger.Logger, opts ...Option) *Repository {
	r := &Repository{
		db:           db,
		compiler:     compiler,
		logger:       logger,
		batchSize:    DefaultBatchSize,
		cacheResults: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// All returns every matching element. Results are memoized on the criteria
// until any of its params change.
func (r *Repository) All(ctx context.Context, c *criteria.Criteria) ([]*models.Element, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.All")
	defer span.End()

	if elements, ok := r.cached(c); ok {
		r.observe(c, "All", "cached")
		return elements, nil
	}

	elements, err := r.fetch(ctx, c, "All")
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	if r.cacheResults {
		c.Results().Store(c.Snapshot(), elements)
	}
	return elements, nil
}

// One returns the first matching element, or nil.
func (r *Repository) One(ctx context.Context, c *criteria.Criteria) (*models.Element, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.One")
	defer span.End()

	if elements, ok := r.cached(c); ok {
		r.observe(c, "One", "cached")
		if len(elements) == 0 {
			return nil, nil
		}
		return elements[0], nil
	}

	elements, err := r.fetch(ctx, c.Clone().Limit(1), "One")
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

// Nth returns the element at zero-based position n, or nil.
func (r *Repository) Nth(ctx context.Context, c *criteria.Criteria, n int) (*models.Element, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.Nth")
	defer span.End()

	if n < 0 {
		return nil, nil
	}

	if elements, ok := r.cached(c); ok {
		r.observe(c, "Nth", "cached")
		if n >= len(elements) {
			return nil, nil
		}
		return elements[n], nil
	}

	if c.Params.Limit != nil && n >= *c.Params.Limit {
		return nil, nil
	}

	elements, err := r.fetch(ctx, c.Clone().Offset(c.Params.Offset+n).Limit(1), "Nth")
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if len(elements) == 0 {
		return nil, nil
	}
	return elements[0], nil
}

// Count returns the number of matching elements. Limit and offset apply.
func (r *Repository) Count(ctx context.Context, c *criteria.Criteria) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.Count")
	defer span.End()

	if elements, ok := r.cached(c); ok {
		r.observe(c, "Count", "cached")
		return int64(len(elements)), nil
	}

	stmt, err := r.compile(ctx, c, "Count")
	if err != nil || stmt == nil {
		return 0, err
	}

	query, args := stmt.BuildCount()
	rows, err := r.execute(ctx, c, "Count", query, args)
	if err != nil {
		tracing.RecordError(span, err)
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	count, err := models.ToInt64(rows[0]["count"])
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to read element count")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count elements")
	}
	return count, nil
}

// Exists reports whether any element matches.
func (r *Repository) Exists(ctx context.Context, c *criteria.Criteria) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.Exists")
	defer span.End()

	if elements, ok := r.cached(c); ok {
		r.observe(c, "Exists", "cached")
		return len(elements) > 0, nil
	}

	stmt, err := r.compile(ctx, c, "Exists")
	if err != nil || stmt == nil {
		return false, err
	}

	query, args := stmt.BuildExists()
	rows, err := r.execute(ctx, c, "Exists", query, args)
	if err != nil {
		tracing.RecordError(span, err)
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	switch found := rows[0]["found"].(type) {
	case bool:
		return found, nil
	case string:
		return found == "t" || found == "true", nil
	default:
		n, err := models.ToInt64(found)
		return err == nil && n != 0, nil
	}
}

// IDs returns the ids of the matching elements in query order.
func (r *Repository) IDs(ctx context.Context, c *criteria.Criteria) ([]int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.IDs")
	defer span.End()

	if elements, ok := r.cached(c); ok {
		r.observe(c, "IDs", "cached")
		ids := make([]int64, 0, len(elements))
		for _, e := range elements {
			ids = append(ids, e.ID)
		}
		return ids, nil
	}

	values, err := r.column(ctx, c, models.ColID, "IDs")
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		id, err := models.ToInt64(v)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to read element id")
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read element ids")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Column returns one value per matching row for a single selected column.
func (r *Repository) Column(ctx context.Context, c *criteria.Criteria, column string) ([]any, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.Column")
	defer span.End()

	values, err := r.column(ctx, c, column, "Column")
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return values, nil
}

// Rows returns the raw presentation rows. Use it with custom selections.
func (r *Repository) Rows(ctx context.Context, c *criteria.Criteria) ([]database.Row, error) {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.Rows")
	defer span.End()

	stmt, err := r.compile(ctx, c, "Rows")
	if err != nil || stmt == nil {
		return []database.Row{}, err
	}

	query, args := stmt.Build()
	rows, err := r.execute(ctx, c, "Rows", query, args)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return rows, nil
}

// Batch pages through the matching elements, size at a time, calling fn once
// per page. The criteria's own limit and offset bound the iteration.
func (r *Repository) Batch(ctx context.Context, c *criteria.Criteria, size int, fn func([]*models.Element) error) error {
	ctx, span := tracing.StartSpan(ctx, "ElementRepository.Batch")
	defer span.End()

	if size <= 0 {
		size = r.batchSize
	}

	remaining := -1
	if c.Params.Limit != nil {
		remaining = *c.Params.Limit
	}
	offset := c.Params.Offset

	for remaining != 0 {
		n := size
		if remaining > 0 && remaining < n {
			n = remaining
		}

		page, err := r.fetch(ctx, c.Clone().Offset(offset).Limit(n), "Batch")
		if err != nil {
			tracing.RecordError(span, err)
			return err
		}
		if len(page) == 0 {
			return nil
		}
		if err := fn(page); err != nil {
			return err
		}
		if len(page) < n {
			return nil
		}

		offset += len(page)
		if remaining > 0 {
			remaining -= len(page)
		}
	}
	return nil
}

func (r *Repository) cached(c *criteria.Criteria) ([]*models.Element, bool) {
	if !r.cacheResults {
		return nil, false
	}
	return c.Results().Lookup(c.Snapshot())
}

// compile returns a nil statement and no error when the query is aborted.
func (r *Repository) compile(ctx context.Context, c *criteria.Criteria, method string) (*query.Statement, error) {
	stmt, err := r.compiler.Compile(ctx, c)
	if err != nil {
		if errors.IsAborted(err) {
			r.observe(c, method, "aborted")
			return nil, nil
		}
		r.observe(c, method, "error")
		return nil, err
	}
	return stmt, nil
}

func (r *Repository) execute(ctx context.Context, c *criteria.Criteria, method, query string, args []any) ([]database.Row, error) {
	rows, err := r.db.QueryRows(ctx, query, args...)
	if err != nil {
		r.observe(c, method, "error")
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"kind":   c.Kind,
			"method": method,
		}).Error("failed to query elements")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query elements")
	}
	r.observe(c, method, "ok")
	return rows, nil
}

func (r *Repository) fetch(ctx context.Context, c *criteria.Criteria, method string) ([]*models.Element, error) {
	stmt, err := r.compile(ctx, c, method)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return []*models.Element{}, nil
	}

	query, args := stmt.Build()
	rows, err := r.execute(ctx, c, method, query, args)
	if err != nil {
		return nil, err
	}

	elements, err := r.materialize(c, stmt, rows)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"kind":   c.Kind,
			"method": method,
		}).Error("failed to materialize elements")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to read elements")
	}

	if len(c.Params.With) > 0 && len(elements) > 0 {
		if r.eager == nil {
			return nil, errors.NewUpstreamError("eager loader", "eager loading requested without a loader").
				AddParam("with").
				AddElementType(string(c.Kind))
		}
		if err := r.eager.Load(ctx, elements, c.Params.With); err != nil {
			r.logger.WithContext(ctx).WithError(err).Error("failed to eager load elements")
			return nil, err
		}
	}
	return elements, nil
}

// materialize converts rows to elements, swapping in placeholders and
// attaching search scores.
func (r *Repository) materialize(c *criteria.Criteria, stmt *query.Statement, rows []database.Row) ([]*models.Element, error) {
	elements := make([]*models.Element, 0, len(rows))
	for _, row := range rows {
		e, err := models.ElementFromRow(row)
		if err != nil {
			return nil, err
		}

		id := e.ID
		if !c.Params.IgnorePlaceholders {
			if ph, ok := r.placeholders.Lookup(e.ID, e.SiteID); ok {
				cp := *ph
				cp.Placeholder = true
				e = &cp
			}
		}
		if score, ok := stmt.Scores[id]; ok {
			e.SearchScore = &score
		}
		elements = append(elements, e)
	}
	return elements, nil
}

func (r *Repository) column(ctx context.Context, c *criteria.Criteria, column, method string) ([]any, error) {
	selected := c.Clone().Select(column)
	stmt, err := r.compile(ctx, selected, method)
	if err != nil {
		return nil, err
	}
	if stmt == nil {
		return []any{}, nil
	}

	query, args := stmt.Build()
	rows, err := r.execute(ctx, selected, method, query, args)
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[column]; ok {
			values = append(values, v)
			continue
		}
		for _, v := range row {
			values = append(values, v)
			break
		}
	}
	return values, nil
}

func (r *Repository) observe(c *criteria.Criteria, method, status string) {
	metrics.ExecutionsTotal.WithLabelValues(string(c.Kind), method, status).Inc()
}
