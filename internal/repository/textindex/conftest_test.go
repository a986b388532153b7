package textindex

import (
	"context"
	"testing"

	"github.com/kailas-cloud/movieidx/internal/db"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	createIndexFn   func(ctx context.Context, def *db.IndexDefinition) error
	dropIndexFn     func(ctx context.Context, ref db.IndexRef) error
	describeIndexFn func(ctx context.Context, ref db.IndexRef) (*db.IndexDefinition, error)
	searchTextFn    func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	driver          string
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) DropIndex(ctx context.Context, ref db.IndexRef) error {
	if m.dropIndexFn != nil {
		return m.dropIndexFn(ctx, ref)
	}
	return nil
}

func (m *mockStore) DescribeIndex(ctx context.Context, ref db.IndexRef) (*db.IndexDefinition, error) {
	if m.describeIndexFn != nil {
		return m.describeIndexFn(ctx, ref)
	}
	return nil, db.ErrIndexNotFound
}

func (m *mockStore) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if m.searchTextFn != nil {
		return m.searchTextFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Driver() string { return m.driver }

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{driver: "mongo"}
	return New(ms, Layout{Collection: "movies", KeyPrefix: "movie:"}), ms
}

func testIndex(t *testing.T) domidx.Index {
	t.Helper()
	idx, err := domidx.MovieCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return idx
}
