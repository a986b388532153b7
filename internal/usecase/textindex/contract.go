package textindex

import (
	"context"

	"github.com/kailas-cloud/movieidx/internal/domain/migration"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
)

// Repository defines the storage contract for the live text index.
type Repository interface {
	Backend() string
	Get(ctx context.Context, name string) (domidx.Index, error)
	Create(ctx context.Context, idx domidx.Index) error
	Delete(ctx context.Context, name string) error
	Search(ctx context.Context, idx domidx.Index, query string, limit int) (domidx.SearchResult, error)
}

// Ledger records applied changes. Optional: a nil Ledger disables history.
type Ledger interface {
	Record(ctx context.Context, e migration.Entry) (migration.Entry, error)
	List(ctx context.Context, limit int) ([]migration.Entry, error)
	Last(ctx context.Context, indexName string) (migration.Entry, error)
}
