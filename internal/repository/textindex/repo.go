package textindex

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/movieidx/internal/db"
	"github.com/kailas-cloud/movieidx/internal/domain"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
)

// store is the consumer interface for text indexes (ISP).
type store interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, ref db.IndexRef) error
	DescribeIndex(ctx context.Context, ref db.IndexRef) (*db.IndexDefinition, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	Driver() string
}

// Layout says where the indexed documents live. Collection addresses a Mongo
// collection; KeyPrefix selects the JSON keys a Redis index covers.
type Layout struct {
	Collection string
	KeyPrefix  string
}

// Repo implements usecase/textindex.Repository.
type Repo struct {
	store  store
	layout Layout
}

// New creates a text index repository.
func New(s store, layout Layout) *Repo {
	return &Repo{store: s, layout: layout}
}

// Backend returns the driver name of the underlying store.
func (r *Repo) Backend() string { return r.store.Driver() }

// Get reads the live index back. Returns domain.ErrNotFound when absent.
func (r *Repo) Get(ctx context.Context, name string) (domidx.Index, error) {
	def, err := r.store.DescribeIndex(ctx, r.ref(name))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domidx.Index{}, domain.ErrNotFound
		}
		return domidx.Index{}, fmt.Errorf("describe index %s: %w", name, err)
	}
	return indexFromDefinition(def), nil
}

// Create builds the index in the store.
func (r *Repo) Create(ctx context.Context, idx domidx.Index) error {
	def, err := r.toDefinition(idx)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidDefinition, err)
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		switch {
		case errors.Is(err, db.ErrIndexExists):
			return domain.ErrAlreadyExists
		case errors.Is(err, db.ErrIndexConflict):
			return fmt.Errorf("%w: %w", domain.ErrIndexConflict, err)
		}
		return fmt.Errorf("create index %s: %w", idx.Name(), err)
	}
	return nil
}

// Delete drops the index. Documents are kept.
func (r *Repo) Delete(ctx context.Context, name string) error {
	if err := r.store.DropIndex(ctx, r.ref(name)); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("drop index %s: %w", name, err)
	}
	return nil
}

// Search runs a ranked text query against idx, returning idx's fields for
// every hit.
func (r *Repo) Search(ctx context.Context, idx domidx.Index, query string, limit int) (domidx.SearchResult, error) {
	fields := idx.Fields()
	paths := make([]string, len(fields))
	for i, f := range fields {
		paths[i] = f.Path()
	}

	res, err := r.store.SearchText(ctx, &db.TextQuery{
		Ref:          r.ref(idx.Name()),
		Query:        query,
		Limit:        limit,
		ReturnFields: paths,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return domidx.SearchResult{}, domain.ErrNotFound
		}
		return domidx.SearchResult{}, fmt.Errorf("search %s: %w", idx.Name(), err)
	}

	hits := make([]domidx.Hit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hits = append(hits, domidx.Hit{ID: e.Key, Score: e.Score, Summary: e.Summary, Fields: e.Fields})
	}
	return domidx.SearchResult{Total: res.Total, Hits: hits}, nil
}

func (r *Repo) ref(name string) db.IndexRef {
	return db.IndexRef{Collection: r.layout.Collection, Name: name}
}
