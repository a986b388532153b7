package textindex

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/domain"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
	"github.com/kailas-cloud/movieidx/internal/metrics"
)

// InstrumentedRepository wraps Repository with per-call duration metrics and
// failure logging. Outcome counters are recorded by Service.
type InstrumentedRepository struct {
	inner  Repository
	logger *zap.Logger
}

// NewInstrumentedRepository wraps a repository with observability.
func NewInstrumentedRepository(inner Repository, logger *zap.Logger) *InstrumentedRepository {
	return &InstrumentedRepository{inner: inner, logger: logger}
}

// Backend returns the inner backend name.
func (r *InstrumentedRepository) Backend() string { return r.inner.Backend() }

// Get delegates and records the "describe" duration.
func (r *InstrumentedRepository) Get(ctx context.Context, name string) (domidx.Index, error) {
	start := time.Now()
	idx, err := r.inner.Get(ctx, name)
	r.observe("describe", name, start, err)
	return idx, err
}

// Create delegates and records the "create" duration.
func (r *InstrumentedRepository) Create(ctx context.Context, idx domidx.Index) error {
	start := time.Now()
	err := r.inner.Create(ctx, idx)
	r.observe("create", idx.Name(), start, err)
	return err
}

// Delete delegates and records the "drop" duration.
func (r *InstrumentedRepository) Delete(ctx context.Context, name string) error {
	start := time.Now()
	err := r.inner.Delete(ctx, name)
	r.observe("drop", name, start, err)
	return err
}

// Search delegates and records the "search" duration.
func (r *InstrumentedRepository) Search(
	ctx context.Context, idx domidx.Index, query string, limit int,
) (domidx.SearchResult, error) {
	start := time.Now()
	res, err := r.inner.Search(ctx, idx, query, limit)
	r.observe("search", idx.Name(), start, err)
	return res, err
}

func (r *InstrumentedRepository) observe(op, index string, start time.Time, err error) {
	duration := time.Since(start)
	backend := r.inner.Backend()
	metrics.IndexOperationDuration.WithLabelValues(backend, op).Observe(duration.Seconds())

	if err == nil {
		r.logger.Debug("Index operation completed",
			zap.String("backend", backend),
			zap.String("operation", op),
			zap.String("index", index),
			zap.Duration("duration", duration),
		)
		return
	}

	// Expected outcomes the service turns into plan decisions.
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrAlreadyExists) {
		return
	}
	r.logger.Error("Index operation failed",
		zap.String("backend", backend),
		zap.String("operation", op),
		zap.String("index", index),
		zap.Duration("duration", duration),
		zap.Error(err),
	)
}
