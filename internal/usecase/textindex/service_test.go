package textindex

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/domain"
	"github.com/kailas-cloud/movieidx/internal/domain/migration"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
	"github.com/kailas-cloud/movieidx/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterIndexMetrics()
	os.Exit(m.Run())
}

// --- Mocks ---

// memRepo keeps live indexes in memory, keyed by name.
type memRepo struct {
	live      map[string]domidx.Index
	created   []string
	deleted   []string
	createErr error
	deleteErr error
	getErr    error
	search    domidx.SearchResult
	searchErr error

	lastQuery string
	lastLimit int
	// onCreate runs before a create is stored (simulates a concurrent creator).
	onCreate func(idx domidx.Index) error
}

func newMemRepo() *memRepo {
	return &memRepo{live: map[string]domidx.Index{}}
}

func (m *memRepo) Backend() string { return "mongo" }

func (m *memRepo) Get(_ context.Context, name string) (domidx.Index, error) {
	if m.getErr != nil {
		return domidx.Index{}, m.getErr
	}
	if idx, ok := m.live[name]; ok {
		return idx, nil
	}
	// Like a collection's single text index: answer under its own name.
	if len(m.live) == 1 {
		for _, idx := range m.live {
			return idx, nil
		}
	}
	return domidx.Index{}, domain.ErrNotFound
}

func (m *memRepo) Create(_ context.Context, idx domidx.Index) error {
	if m.onCreate != nil {
		if err := m.onCreate(idx); err != nil {
			return err
		}
	}
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, idx.Name())
	m.live[idx.Name()] = idx
	return nil
}

func (m *memRepo) Delete(_ context.Context, name string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.live[name]; !ok {
		return domain.ErrNotFound
	}
	m.deleted = append(m.deleted, name)
	delete(m.live, name)
	return nil
}

func (m *memRepo) Search(_ context.Context, _ domidx.Index, query string, limit int) (domidx.SearchResult, error) {
	m.lastQuery, m.lastLimit = query, limit
	return m.search, m.searchErr
}

type memLedger struct {
	entries   []migration.Entry
	recordErr error
}

func (l *memLedger) Record(_ context.Context, e migration.Entry) (migration.Entry, error) {
	if l.recordErr != nil {
		return migration.Entry{}, l.recordErr
	}
	e.ID = "id-" + string(e.Action)
	l.entries = append(l.entries, e)
	return e, nil
}

func (l *memLedger) List(_ context.Context, limit int) ([]migration.Entry, error) {
	if limit > 0 && limit < len(l.entries) {
		return l.entries[:limit], nil
	}
	return l.entries, nil
}

func (l *memLedger) Last(_ context.Context, name string) (migration.Entry, error) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].IndexName == name {
			return l.entries[i], nil
		}
	}
	return migration.Entry{}, domain.ErrNotFound
}

func catalog(t *testing.T) domidx.Index {
	t.Helper()
	idx, err := domidx.MovieCatalog()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return idx
}

// drifted returns the catalog with title weighted 1 instead of 10.
func drifted(t *testing.T, name string) domidx.Index {
	t.Helper()
	fields := domidx.MovieCatalogFields()
	fields[0] = domidx.MustField("title", 1)
	idx, err := domidx.New(fields, domidx.WithName(name))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return idx
}

func newTestService(t *testing.T) (*Service, *memRepo, *memLedger) {
	t.Helper()
	repo := newMemRepo()
	ledger := &memLedger{}
	return New(repo, ledger, catalog(t), zap.NewNop()), repo, ledger
}

// --- Plan ---

func TestPlan_Actions(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	name := svc.Desired().Name()

	plan, err := svc.Plan(ctx)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if plan.Action != PlanCreate || plan.Current != nil {
		t.Errorf("absent: plan = %+v", plan)
	}

	repo.live[name] = catalog(t)
	plan, _ = svc.Plan(ctx)
	if plan.Action != PlanUnchanged || len(plan.Drift) != 0 {
		t.Errorf("identical: plan = %+v", plan)
	}

	repo.live[name] = drifted(t, name)
	plan, _ = svc.Plan(ctx)
	if plan.Action != PlanReplace || len(plan.Drift) != 1 || plan.Drift[0].Kind != domidx.DriftWeight {
		t.Errorf("drifted: plan = %+v", plan)
	}
}

func TestPlan_StoreError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.getErr = errors.New("connection refused")

	if _, err := svc.Plan(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

// --- Apply ---

func TestApply_CreatesWhenAbsent(t *testing.T) {
	svc, repo, ledger := newTestService(t)

	res, err := svc.Apply(context.Background(), ApplyOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Outcome != OutcomeCreated {
		t.Errorf("outcome = %q, want created", res.Outcome)
	}
	if len(repo.created) != 1 {
		t.Errorf("created = %v", repo.created)
	}
	if res.Entry == nil || res.Entry.Action != migration.ActionCreated || res.Entry.Checksum != svc.Desired().Checksum() {
		t.Errorf("ledger entry = %+v", res.Entry)
	}
	if len(ledger.entries) != 1 || ledger.entries[0].Backend != "mongo" {
		t.Errorf("ledger = %+v", ledger.entries)
	}
	if v := testutil.ToFloat64(metrics.IndexInSync.WithLabelValues(svc.Desired().Name())); v != 1 {
		t.Errorf("index_in_sync = %v, want 1", v)
	}
}

func TestApply_IdempotentReapply(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	before := testutil.ToFloat64(metrics.IndexOperationsTotal.WithLabelValues("mongo", "unchanged", "ok"))

	for i := 0; i < 3; i++ {
		res, err := svc.Apply(ctx, ApplyOptions{})
		if err != nil {
			t.Fatalf("re-apply %d: %v", i, err)
		}
		if res.Outcome != OutcomeUnchanged {
			t.Errorf("re-apply %d outcome = %q", i, res.Outcome)
		}
	}

	if len(repo.created) != 1 {
		t.Errorf("index created %d times, want 1", len(repo.created))
	}
	if len(ledger.entries) != 1 {
		t.Errorf("no-op applies must not be recorded, ledger has %d", len(ledger.entries))
	}
	after := testutil.ToFloat64(metrics.IndexOperationsTotal.WithLabelValues("mongo", "unchanged", "ok"))
	if after-before != 3 {
		t.Errorf("unchanged counter grew by %v, want 3", after-before)
	}
}

func TestApply_DriftIsConflict(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	name := svc.Desired().Name()
	repo.live[name] = drifted(t, name)

	res, err := svc.Apply(context.Background(), ApplyOptions{})
	if !errors.Is(err, domain.ErrIndexConflict) {
		t.Fatalf("expected ErrIndexConflict, got %v", err)
	}
	var ce *domain.ConflictError
	if !errors.As(err, &ce) || len(ce.Differences) != 1 {
		t.Errorf("conflict error = %#v", err)
	}
	if res.Plan.Action != PlanReplace {
		t.Errorf("plan action = %q", res.Plan.Action)
	}
	if len(repo.deleted) != 0 || len(repo.created) != 0 {
		t.Error("drifted index must not be touched without Replace")
	}
	if len(ledger.entries) != 0 {
		t.Error("conflict must not be recorded")
	}
}

func TestApply_ReplaceDropsAndRecreates(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	ctx := context.Background()
	repo.live["legacy_text"] = drifted(t, "legacy_text")

	res, err := svc.Apply(ctx, ApplyOptions{Replace: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Outcome != OutcomeReplaced {
		t.Errorf("outcome = %q", res.Outcome)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "legacy_text" {
		t.Errorf("deleted = %v, want [legacy_text]", repo.deleted)
	}
	if len(ledger.entries) != 1 || ledger.entries[0].Action != migration.ActionReplaced {
		t.Errorf("ledger = %+v", ledger.entries)
	}

	again, err := svc.Apply(ctx, ApplyOptions{Replace: true})
	if err != nil || again.Outcome != OutcomeUnchanged {
		t.Errorf("re-apply after replace = %q, %v", again.Outcome, err)
	}
}

func TestApply_ReplaceCreateFails(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	name := svc.Desired().Name()
	repo.live[name] = drifted(t, name)
	repo.createErr = errors.New("disk full")
	before := testutil.ToFloat64(metrics.IndexOperationsTotal.WithLabelValues("mongo", "dropped", "ok"))

	res, err := svc.Apply(context.Background(), ApplyOptions{Replace: true})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "was dropped") {
		t.Errorf("error must say the old index is gone: %v", err)
	}
	if len(repo.live) != 0 || len(repo.deleted) != 1 {
		t.Fatalf("live = %v, deleted = %v", repo.live, repo.deleted)
	}
	if len(ledger.entries) != 1 {
		t.Fatalf("ledger = %+v, want one dropped entry", ledger.entries)
	}
	e := ledger.entries[0]
	if e.Action != migration.ActionDropped || e.IndexName != name || e.Checksum != drifted(t, name).Checksum() {
		t.Errorf("entry = %+v", e)
	}
	if res.Entry == nil || res.Entry.Action != migration.ActionDropped {
		t.Errorf("result entry = %+v", res.Entry)
	}
	after := testutil.ToFloat64(metrics.IndexOperationsTotal.WithLabelValues("mongo", "dropped", "ok"))
	if after-before != 1 {
		t.Errorf("dropped counter delta = %v, want 1", after-before)
	}
}

func TestApply_DryRun(t *testing.T) {
	svc, repo, ledger := newTestService(t)

	res, err := svc.Apply(context.Background(), ApplyOptions{DryRun: true, Replace: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Outcome != OutcomePlanned || res.Plan.Action != PlanCreate {
		t.Errorf("result = %+v", res)
	}
	if len(repo.created) != 0 || len(ledger.entries) != 0 {
		t.Error("dry run must not touch store or ledger")
	}
}

func TestApply_ConcurrentCreatorIdentical(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	repo.onCreate = func(idx domidx.Index) error {
		repo.live[idx.Name()] = idx
		return domain.ErrAlreadyExists
	}

	res, err := svc.Apply(context.Background(), ApplyOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Outcome != OutcomeUnchanged {
		t.Errorf("outcome = %q, want unchanged", res.Outcome)
	}
	if len(ledger.entries) != 0 {
		t.Error("race winner records, not the loser")
	}
}

func TestApply_ConcurrentCreatorDifferent(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.onCreate = func(idx domidx.Index) error {
		repo.live[idx.Name()] = drifted(t, idx.Name())
		return domain.ErrAlreadyExists
	}

	_, err := svc.Apply(context.Background(), ApplyOptions{})
	if !errors.Is(err, domain.ErrIndexConflict) {
		t.Fatalf("expected ErrIndexConflict, got %v", err)
	}
}

func TestApply_LedgerFailureDoesNotFailApply(t *testing.T) {
	svc, _, ledger := newTestService(t)
	ledger.recordErr = errors.New("readonly database")

	res, err := svc.Apply(context.Background(), ApplyOptions{})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Outcome != OutcomeCreated || res.Entry != nil {
		t.Errorf("result = %+v", res)
	}
}

func TestApply_WithoutLedger(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, nil, catalog(t), nil)

	res, err := svc.Apply(context.Background(), ApplyOptions{})
	if err != nil || res.Outcome != OutcomeCreated || res.Entry != nil {
		t.Fatalf("apply = %+v, %v", res, err)
	}
	hist, err := svc.History(context.Background(), 10)
	if err != nil || len(hist) != 0 {
		t.Errorf("history = %v, %v", hist, err)
	}
}

// --- Verify ---

func TestVerify(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	name := svc.Desired().Name()

	rep, err := svc.Verify(ctx)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if rep.Exists || rep.InSync {
		t.Errorf("absent report = %+v", rep)
	}

	if _, err := svc.Apply(ctx, ApplyOptions{}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	rep, _ = svc.Verify(ctx)
	if !rep.Exists || !rep.InSync || rep.Checksum != rep.LiveChecksum {
		t.Errorf("in-sync report = %+v", rep)
	}
	if rep.LastApplied == nil || rep.LastApplied.Action != migration.ActionCreated {
		t.Errorf("last applied = %+v", rep.LastApplied)
	}

	repo.live[name] = drifted(t, name)
	rep, _ = svc.Verify(ctx)
	if !rep.Exists || rep.InSync || len(rep.Drift) == 0 {
		t.Errorf("drifted report = %+v", rep)
	}
	if v := testutil.ToFloat64(metrics.IndexInSync.WithLabelValues(name)); v != 0 {
		t.Errorf("index_in_sync = %v, want 0", v)
	}
}

// --- Drop ---

func TestDrop(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Drop(ctx, DropOptions{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	res, err := svc.Drop(ctx, DropOptions{IfExists: true})
	if err != nil || res.Dropped {
		t.Fatalf("ifExists on absent = %+v, %v", res, err)
	}

	repo.live[svc.Desired().Name()] = catalog(t)
	res, err = svc.Drop(ctx, DropOptions{})
	if err != nil || !res.Dropped {
		t.Fatalf("drop = %+v, %v", res, err)
	}
	if len(repo.live) != 0 {
		t.Error("index still live")
	}
	if len(ledger.entries) != 1 || ledger.entries[0].Action != migration.ActionDropped {
		t.Errorf("ledger = %+v", ledger.entries)
	}
}

func TestDrop_DeleteError(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.live[svc.Desired().Name()] = catalog(t)
	repo.deleteErr = errors.New("not primary")

	if _, err := svc.Drop(context.Background(), DropOptions{IfExists: true}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDrop_ForeignIndex(t *testing.T) {
	svc, repo, ledger := newTestService(t)
	ctx := context.Background()
	plot, err := domidx.New([]domidx.Field{domidx.MustField("plot", 1)}, domidx.WithName("plot_text"))
	if err != nil {
		t.Fatalf("plot index: %v", err)
	}
	repo.live["plot_text"] = plot

	_, err = svc.Drop(ctx, DropOptions{IfExists: true})
	if !errors.Is(err, domain.ErrIndexConflict) {
		t.Fatalf("expected ErrIndexConflict, got %v", err)
	}
	var ce *domain.ConflictError
	if !errors.As(err, &ce) || ce.Index != "plot_text" {
		t.Errorf("conflict = %+v", ce)
	}
	if _, ok := repo.live["plot_text"]; !ok || len(repo.deleted) != 0 {
		t.Fatal("foreign index must survive")
	}
	if len(ledger.entries) != 0 {
		t.Errorf("ledger = %+v", ledger.entries)
	}

	res, err := svc.Drop(ctx, DropOptions{Force: true})
	if err != nil || !res.Dropped || res.Index != "plot_text" {
		t.Fatalf("forced drop = %+v, %v", res, err)
	}
	if len(repo.live) != 0 {
		t.Error("index still live")
	}
}

// --- Probe ---

func TestProbe(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	repo.search = domidx.SearchResult{Total: 1, Hits: []domidx.Hit{{ID: "a", Score: 2}}}

	if _, err := svc.Probe(ctx, "   ", 5); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}

	res, err := svc.Probe(ctx, "  heat ", 5)
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if res.Total != 1 || repo.lastQuery != "heat" || repo.lastLimit != 5 {
		t.Errorf("res = %+v, query = %q, limit = %d", res, repo.lastQuery, repo.lastLimit)
	}

	tests := []struct{ in, want int }{{0, 1}, {-3, 1}, {100, 100}, {500, 100}}
	for _, tc := range tests {
		if _, err := svc.Probe(ctx, "heat", tc.in); err != nil {
			t.Fatalf("probe: %v", err)
		}
		if repo.lastLimit != tc.want {
			t.Errorf("limit %d clamped to %d, want %d", tc.in, repo.lastLimit, tc.want)
		}
	}
}

func TestProbe_NotFound(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.searchErr = domain.ErrNotFound

	if _, err := svc.Probe(context.Background(), "heat", 5); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- History ---

func TestHistory(t *testing.T) {
	svc, _, ledger := newTestService(t)
	ledger.entries = []migration.Entry{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	got, err := svc.History(context.Background(), 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("history len = %d, want 2", len(got))
	}
}
