package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store   StorePinger
	plugins PluginTableChecker
}

// New creates a Service. plugins can be nil.
func New(store StorePinger, plugins PluginTableChecker) *Service {
	return &Service{store: store, plugins: plugins}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks["store"] = CheckError
	} else {
		checks["store"] = CheckOK
	}

	if s.plugins != nil {
		if s.plugins.Healthy() {
			checks["plugins"] = CheckOK
		} else {
			checks["plugins"] = CheckError
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
