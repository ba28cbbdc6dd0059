package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/emitcore/ghgcore/internal/ai"
)

type fakeHealthChecker struct {
	err error
}

func (f fakeHealthChecker) HealthCheck(ctx context.Context) error { return f.err }

func TestProviderConnectivityCheckerReflectsHealthCheck(t *testing.T) {
	healthy := ai.ProviderConnectivityChecker{Checker: fakeHealthChecker{}}
	if !healthy.Check(context.Background()) {
		t.Error("expected a nil-error HealthCheck to report online")
	}

	unhealthy := ai.ProviderConnectivityChecker{Checker: fakeHealthChecker{err: errors.New("unreachable")}}
	if unhealthy.Check(context.Background()) {
		t.Error("expected a failing HealthCheck to report offline")
	}
}

func TestProviderConnectivityCheckerNilCheckerIsOffline(t *testing.T) {
	var checker ai.ProviderConnectivityChecker
	if checker.Check(context.Background()) {
		t.Error("expected a nil Checker to report offline")
	}
}
