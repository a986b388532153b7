package chi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/domain"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
	healthuc "github.com/kailas-cloud/movieidx/internal/usecase/health"
	textindexuc "github.com/kailas-cloud/movieidx/internal/usecase/textindex"
)

// fakeRepo is a single-index store double.
type fakeRepo struct {
	live      *domidx.Index
	getErr    error
	searchRes domidx.SearchResult
	lastQuery string
	lastLimit int
}

func (f *fakeRepo) Backend() string { return "mongo" }

func (f *fakeRepo) Get(_ context.Context, _ string) (domidx.Index, error) {
	if f.getErr != nil {
		return domidx.Index{}, f.getErr
	}
	if f.live == nil {
		return domidx.Index{}, domain.ErrNotFound
	}
	return *f.live, nil
}

func (f *fakeRepo) Create(_ context.Context, idx domidx.Index) error {
	if f.live != nil {
		return domain.ErrAlreadyExists
	}
	f.live = &idx
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, _ string) error {
	if f.live == nil {
		return domain.ErrNotFound
	}
	f.live = nil
	return nil
}

func (f *fakeRepo) Search(_ context.Context, _ domidx.Index, query string, limit int) (domidx.SearchResult, error) {
	f.lastQuery, f.lastLimit = query, limit
	return f.searchRes, nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

var errDown = errors.New("connection refused")

func catalog(t *testing.T) domidx.Index {
	t.Helper()
	idx, err := domidx.MovieCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return idx
}

func newTestServer(t *testing.T, repo *fakeRepo, db healthuc.Pinger) *Server {
	t.Helper()
	svc := textindexuc.New(repo, nil, catalog(t), zap.NewNop())
	return NewServer(svc, healthuc.New(db, nil), zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}
