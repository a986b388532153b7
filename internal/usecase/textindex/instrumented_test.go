package textindex

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/movieidx/internal/domain"
	"github.com/kailas-cloud/movieidx/internal/metrics"
)

func TestInstrumentedRepository_RecordsDuration(t *testing.T) {
	inner := newMemRepo()
	r := NewInstrumentedRepository(inner, zap.NewNop())
	idx := catalog(t)

	if err := r.Create(context.Background(), idx); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.Get(context.Background(), idx.Name()); err != nil {
		t.Fatalf("get: %v", err)
	}

	if n := testutil.CollectAndCount(metrics.IndexOperationDuration); n < 2 {
		t.Errorf("expected create and describe series, got %d", n)
	}
	if r.Backend() != "mongo" {
		t.Errorf("Backend() = %q", r.Backend())
	}
}

func TestInstrumentedRepository_LogsOnlyUnexpectedErrors(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	inner := newMemRepo()
	r := NewInstrumentedRepository(inner, zap.New(core))
	ctx := context.Background()

	if _, err := r.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if logs.Len() != 0 {
		t.Errorf("not-found must not be logged, got %d entries", logs.Len())
	}

	inner.deleteErr = errors.New("not primary")
	if err := r.Delete(ctx, "x"); err == nil {
		t.Fatal("expected error")
	}
	entries := logs.FilterMessage("Index operation failed").All()
	if len(entries) != 1 || entries[0].ContextMap()["operation"] != "drop" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestInstrumentedRepository_Search(t *testing.T) {
	inner := newMemRepo()
	r := NewInstrumentedRepository(inner, zap.NewNop())

	if _, err := r.Search(context.Background(), catalog(t), "heat", 7); err != nil {
		t.Fatalf("search: %v", err)
	}
	if inner.lastQuery != "heat" || inner.lastLimit != 7 {
		t.Errorf("inner got %q/%d", inner.lastQuery, inner.lastLimit)
	}
}
