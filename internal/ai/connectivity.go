package ai

import (
	"context"

	"github.com/emitcore/ghgcore/internal/offgrid"
)

// ProviderConnectivityChecker adapts a CloudProvider's optional HealthChecker
// into an offgrid.ConnectivityChecker, so a ConnectivityWatcher can judge
// online/offline mode against the configured cloud LLM provider itself
// rather than a generic DNS or HTTP probe that says nothing about whether
// the provider in particular is reachable.
type ProviderConnectivityChecker struct {
	Checker HealthChecker
}

// Check reports the provider healthy only when HealthCheck returns nil. A
// nil Checker is always unhealthy, so a misconfigured adapter degrades to
// offline mode rather than a panic.
func (c ProviderConnectivityChecker) Check(ctx context.Context) bool {
	if c.Checker == nil {
		return false
	}
	return c.Checker.HealthCheck(ctx) == nil
}

var _ offgrid.ConnectivityChecker = ProviderConnectivityChecker{}
