package textindex

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movieidx/internal/domain"
	"github.com/kailas-cloud/movieidx/internal/domain/migration"
	domidx "github.com/kailas-cloud/movieidx/internal/domain/textindex"
	"github.com/kailas-cloud/movieidx/internal/metrics"
)

// Probe limits.
const (
	DefaultProbeLimit = 10
	MaxProbeLimit     = 100
)

// PlanAction is what Apply would do to reach the desired definition.
type PlanAction string

// Plan actions.
const (
	PlanCreate    PlanAction = "create"
	PlanUnchanged PlanAction = "unchanged"
	PlanReplace   PlanAction = "replace"
)

// Plan compares the desired definition with the live index.
type Plan struct {
	Index   string         `json:"index"`
	Backend string         `json:"backend"`
	Action  PlanAction     `json:"action"`
	Desired domidx.Index   `json:"desired"`
	Current *domidx.Index  `json:"current,omitempty"`
	Drift   []domidx.Drift `json:"drift,omitempty"`
}

// Outcome is the result of Apply.
type Outcome string

// Apply outcomes.
const (
	OutcomeCreated   Outcome = "created"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeReplaced  Outcome = "replaced"
	OutcomePlanned   Outcome = "planned"
)

// ApplyOptions control how Apply handles a drifted index.
type ApplyOptions struct {
	// Replace drops a drifted index and recreates it. Without it, drift is an error.
	Replace bool
	// DryRun returns the plan without touching the store.
	DryRun bool
}

// ApplyResult reports what Apply did.
type ApplyResult struct {
	Outcome Outcome          `json:"outcome"`
	Plan    Plan             `json:"plan"`
	Entry   *migration.Entry `json:"ledger_entry,omitempty"`
}

// Report is the fidelity check of the live index.
type Report struct {
	Index        string           `json:"index"`
	Backend      string           `json:"backend"`
	Exists       bool             `json:"exists"`
	InSync       bool             `json:"in_sync"`
	Drift        []domidx.Drift   `json:"drift,omitempty"`
	Checksum     string           `json:"checksum"`
	LiveChecksum string           `json:"live_checksum,omitempty"`
	Live         *domidx.Index    `json:"live,omitempty"`
	LastApplied  *migration.Entry `json:"last_applied,omitempty"`
}

// DropOptions control Drop.
type DropOptions struct {
	// IfExists turns a missing index into a successful no-op.
	IfExists bool
	// Force drops a live text index whose name differs from the desired one.
	Force bool
}

// DropResult reports what Drop did.
type DropResult struct {
	Index   string           `json:"index"`
	Dropped bool             `json:"dropped"`
	Entry   *migration.Entry `json:"ledger_entry,omitempty"`
}

// Service manages the lifecycle of one desired text index.
type Service struct {
	repo    Repository
	ledger  Ledger
	desired domidx.Index
	logger  *zap.Logger
}

// New creates a text index service. ledger may be nil.
func New(repo Repository, ledger Ledger, desired domidx.Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, ledger: ledger, desired: desired, logger: logger}
}

// Desired returns the definition the service converges to.
func (s *Service) Desired() domidx.Index { return s.desired }

// Backend returns the store driver name.
func (s *Service) Backend() string { return s.repo.Backend() }

// Plan describes the live index against the desired one.
func (s *Service) Plan(ctx context.Context) (Plan, error) {
	plan := Plan{
		Index:   s.desired.Name(),
		Backend: s.repo.Backend(),
		Desired: s.desired,
	}

	live, err := s.repo.Get(ctx, s.desired.Name())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			plan.Action = PlanCreate
			return plan, nil
		}
		return Plan{}, fmt.Errorf("plan: %w", err)
	}

	plan.Current = &live
	plan.Drift = domidx.Compare(s.desired, live)
	if len(plan.Drift) == 0 {
		plan.Action = PlanUnchanged
	} else {
		plan.Action = PlanReplace
	}
	return plan, nil
}

// Apply converges the live index to the desired definition. Re-applying an
// identical definition is a no-op. A drifted index is never replaced unless
// opts.Replace is set.
func (s *Service) Apply(ctx context.Context, opts ApplyOptions) (ApplyResult, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		s.count("apply", "error")
		return ApplyResult{}, err
	}
	if opts.DryRun {
		return ApplyResult{Outcome: OutcomePlanned, Plan: plan}, nil
	}

	switch plan.Action {
	case PlanUnchanged:
		s.count(string(OutcomeUnchanged), "ok")
		s.setInSync(true)
		s.logger.Info("Index already up to date",
			zap.String("index", plan.Index),
			zap.String("backend", plan.Backend),
		)
		return ApplyResult{Outcome: OutcomeUnchanged, Plan: plan}, nil

	case PlanCreate:
		return s.create(ctx, plan)

	case PlanReplace:
		if !opts.Replace {
			s.count("apply", "conflict")
			s.setInSync(false)
			s.logger.Warn("Live index differs from desired definition",
				zap.String("index", plan.Index),
				zap.Strings("drift", domidx.DriftStrings(plan.Drift)),
			)
			return ApplyResult{Plan: plan}, domain.NewConflict(plan.Current.Name(), domidx.DriftStrings(plan.Drift))
		}
		return s.replace(ctx, plan)
	}

	return ApplyResult{}, fmt.Errorf("apply: unknown plan action %q", plan.Action)
}

func (s *Service) create(ctx context.Context, plan Plan) (ApplyResult, error) {
	err := s.repo.Create(ctx, s.desired)
	if errors.Is(err, domain.ErrAlreadyExists) {
		// Lost a race with a concurrent creator: judge what it built.
		return s.settleRace(ctx, plan)
	}
	if err != nil {
		s.count(string(OutcomeCreated), "error")
		return ApplyResult{Plan: plan}, fmt.Errorf("apply: %w", err)
	}

	s.count(string(OutcomeCreated), "ok")
	s.setInSync(true)
	s.logger.Info("Index created",
		zap.String("index", plan.Index),
		zap.String("backend", plan.Backend),
		zap.String("checksum", s.desired.Checksum()),
	)
	return ApplyResult{
		Outcome: OutcomeCreated,
		Plan:    plan,
		Entry:   s.record(ctx, migration.ActionCreated, s.desired.Name(), s.desired.Checksum()),
	}, nil
}

func (s *Service) settleRace(ctx context.Context, plan Plan) (ApplyResult, error) {
	live, err := s.repo.Get(ctx, s.desired.Name())
	if err != nil {
		s.count(string(OutcomeCreated), "error")
		return ApplyResult{Plan: plan}, fmt.Errorf("apply: re-describe after concurrent create: %w", err)
	}
	plan.Current = &live
	plan.Drift = domidx.Compare(s.desired, live)
	if len(plan.Drift) > 0 {
		plan.Action = PlanReplace
		s.count("apply", "conflict")
		s.setInSync(false)
		return ApplyResult{Plan: plan}, domain.NewConflict(live.Name(), domidx.DriftStrings(plan.Drift))
	}

	plan.Action = PlanUnchanged
	s.count(string(OutcomeUnchanged), "ok")
	s.setInSync(true)
	return ApplyResult{Outcome: OutcomeUnchanged, Plan: plan}, nil
}

func (s *Service) replace(ctx context.Context, plan Plan) (ApplyResult, error) {
	current := plan.Current.Name()
	dropped := true
	if err := s.repo.Delete(ctx, current); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.count(string(OutcomeReplaced), "error")
			return ApplyResult{Plan: plan}, fmt.Errorf("apply: drop %s: %w", current, err)
		}
		dropped = false
	}
	if err := s.repo.Create(ctx, s.desired); err != nil {
		s.count(string(OutcomeReplaced), "error")
		s.setInSync(false)
		if !dropped {
			return ApplyResult{Plan: plan}, fmt.Errorf("apply: recreate %s: %w", s.desired.Name(), err)
		}
		// The old index is gone; leave a trace of that before failing.
		s.count(string(migration.ActionDropped), "ok")
		s.logger.Error("Index dropped but not recreated",
			zap.String("index", plan.Index),
			zap.String("previous", current),
			zap.String("backend", plan.Backend),
			zap.Error(err),
		)
		return ApplyResult{
			Plan:  plan,
			Entry: s.record(ctx, migration.ActionDropped, current, plan.Current.Checksum()),
		}, fmt.Errorf("apply: %s was dropped, recreate %s failed: %w", current, s.desired.Name(), err)
	}

	s.count(string(OutcomeReplaced), "ok")
	s.setInSync(true)
	s.logger.Info("Index replaced",
		zap.String("index", plan.Index),
		zap.String("previous", current),
		zap.String("backend", plan.Backend),
		zap.Strings("drift", domidx.DriftStrings(plan.Drift)),
	)
	return ApplyResult{
		Outcome: OutcomeReplaced,
		Plan:    plan,
		Entry:   s.record(ctx, migration.ActionReplaced, s.desired.Name(), s.desired.Checksum()),
	}, nil
}

// Verify reports whether the live index carries exactly the desired fields
// and weights.
func (s *Service) Verify(ctx context.Context) (Report, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("verify: %w", err)
	}

	rep := Report{
		Index:    plan.Index,
		Backend:  plan.Backend,
		Checksum: s.desired.Checksum(),
	}
	if plan.Current != nil {
		rep.Exists = true
		rep.Live = plan.Current
		rep.LiveChecksum = plan.Current.Checksum()
		rep.Drift = plan.Drift
		rep.InSync = len(plan.Drift) == 0
	}
	s.setInSync(rep.InSync)

	if s.ledger != nil {
		last, err := s.ledger.Last(ctx, s.desired.Name())
		switch {
		case err == nil:
			rep.LastApplied = &last
		case !errors.Is(err, domain.ErrNotFound):
			s.logger.Warn("Ledger lookup failed", zap.String("index", plan.Index), zap.Error(err))
		}
	}
	return rep, nil
}

// Drop removes the live index. Without opts.IfExists a missing index is
// ErrNotFound. A live text index under another name is a conflict unless
// opts.Force is set.
func (s *Service) Drop(ctx context.Context, opts DropOptions) (DropResult, error) {
	res := DropResult{Index: s.desired.Name()}

	live, err := s.repo.Get(ctx, s.desired.Name())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) && opts.IfExists {
			return res, nil
		}
		return res, fmt.Errorf("drop: %w", err)
	}
	if live.Name() != s.desired.Name() && !opts.Force {
		s.count(string(migration.ActionDropped), "conflict")
		s.logger.Warn("Refusing to drop foreign text index",
			zap.String("index", s.desired.Name()),
			zap.String("live", live.Name()),
		)
		return res, domain.NewConflict(live.Name(), []string{
			fmt.Sprintf("name: want %s, got %s (use force to drop it)", s.desired.Name(), live.Name()),
		})
	}
	res.Index = live.Name()

	if err := s.repo.Delete(ctx, live.Name()); err != nil {
		if errors.Is(err, domain.ErrNotFound) && opts.IfExists {
			return res, nil
		}
		s.count(string(migration.ActionDropped), "error")
		return res, fmt.Errorf("drop: %w", err)
	}

	s.count(string(migration.ActionDropped), "ok")
	s.setInSync(false)
	s.logger.Info("Index dropped",
		zap.String("index", live.Name()),
		zap.String("backend", s.repo.Backend()),
	)
	res.Dropped = true
	res.Entry = s.record(ctx, migration.ActionDropped, live.Name(), live.Checksum())
	return res, nil
}

// Probe runs a ranked text query through the desired index. limit is clamped
// to [1, MaxProbeLimit].
func (s *Service) Probe(ctx context.Context, query string, limit int) (domidx.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domidx.SearchResult{}, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	limit = min(max(limit, 1), MaxProbeLimit)

	res, err := s.repo.Search(ctx, s.desired, query, limit)
	if err != nil {
		return domidx.SearchResult{}, fmt.Errorf("probe: %w", err)
	}
	return res, nil
}

// History lists ledger entries, newest first. Empty when no ledger is configured.
func (s *Service) History(ctx context.Context, limit int) ([]migration.Entry, error) {
	if s.ledger == nil {
		return []migration.Entry{}, nil
	}
	entries, err := s.ledger.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	return entries, nil
}

// record appends to the ledger. The index change has already happened, so a
// ledger failure is logged rather than returned.
func (s *Service) record(ctx context.Context, action migration.Action, name, checksum string) *migration.Entry {
	if s.ledger == nil {
		return nil
	}
	e, err := s.ledger.Record(ctx, migration.Entry{
		IndexName: name,
		Backend:   s.repo.Backend(),
		Action:    action,
		Checksum:  checksum,
	})
	if err != nil {
		s.logger.Warn("Failed to record ledger entry",
			zap.String("index", name),
			zap.String("action", string(action)),
			zap.Error(err),
		)
		return nil
	}
	return &e
}

func (s *Service) count(action, status string) {
	metrics.IndexOperationsTotal.WithLabelValues(s.repo.Backend(), action, status).Inc()
}

func (s *Service) setInSync(ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	metrics.IndexInSync.WithLabelValues(s.desired.Name()).Set(v)
}
