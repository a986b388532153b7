package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed.
	Degraded Status = "degraded"
	// Unhealthy indicates the document store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names in Report.Checks.
const (
	ComponentDatabase = "database"
	ComponentLedger   = "ledger"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db     Pinger
	ledger Pinger
}

// New creates a Service. ledger can be nil.
func New(db, ledger Pinger) *Service {
	return &Service{db: db, ledger: ledger}
}

// Check pings the store and the ledger. A store failure is Unhealthy since no
// index operation can run; a ledger failure only loses history.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{ComponentDatabase: check(ctx, s.db)}
	if s.ledger != nil {
		checks[ComponentLedger] = check(ctx, s.ledger)
	}

	status := Healthy
	switch {
	case checks[ComponentDatabase] == CheckError:
		status = Unhealthy
	case checks[ComponentLedger] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func check(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
