// Command ghgingest reads a spreadsheet of raw activity data from a file or
// stdin and prints the resulting GHG emissions report as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/emitcore/ghgcore"
	"github.com/emitcore/ghgcore/internal/ai"
	"github.com/emitcore/ghgcore/internal/classify"
	"github.com/emitcore/ghgcore/internal/config"
	"github.com/emitcore/ghgcore/internal/logging"
	"github.com/emitcore/ghgcore/internal/obsmetrics"
	"github.com/emitcore/ghgcore/internal/offgrid"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ghgingest <path-to-spreadsheet|->")
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.NewFromEnv()
	ctx := context.Background()

	buf, err := readInput(os.Args[1])
	if err != nil {
		logger.Error("reading input", "error", err)
		os.Exit(1)
	}

	llm, closeLLM := buildLLMFallback(ctx, cfg, logger)
	defer closeLLM()

	report, err := ghgcore.Ingest(ctx, buf, ghgcore.Options{
		Catalog: nil,
		LLM:     llm,
		Metrics: obsmetrics.New(),
		Logger:  logger,
	})
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("encoding report", "error", err)
		os.Exit(1)
	}
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// buildLLMFallback wires the Column Classifier's optional LLM step to a
// Router over whichever provider the environment configures, gated behind
// GHGCORE_ENABLE_LLM_CLASSIFIER. A missing credential or a disabled flag
// both result in a nil fallback, which classify.Classify treats as "skip
// step 3" rather than an error.
//
// When a cloud provider is configured, a ConnectivityWatcher runs for the
// lifetime of ctx, probing the provider's own HealthCheck and flipping the
// router's ModeManager between online and offline so a mid-run outage
// degrades to the local provider (or to no LLM at all) instead of repeatedly
// failing cloud calls.
//
// The returned func releases whatever resources the configured providers hold
// (e.g. LocalOfflineProvider's idle HTTP connections via ai.Closer) and must
// be deferred by the caller; it is always safe to call, even when no provider
// was built.
func buildLLMFallback(ctx context.Context, cfg config.Config, logger *slog.Logger) (classify.LLMFallback, func()) {
	noop := func() {}
	if !cfg.EnableLLMClassifier || !cfg.HasAnyLLMProvider() {
		return nil, noop
	}

	var cloud ai.CloudProvider
	if cfg.OpenAI.IsConfigured {
		if provider, err := ai.NewOpenAIProviderFromEnv(); err == nil {
			cloud = provider
		} else {
			logger.Warn("openai provider unavailable, continuing without it", "error", err)
		}
	}

	var local ai.LocalProvider
	if cfg.LocalAI.IsConfigured {
		if provider, err := ai.NewLocalOfflineProviderFromEnv(); err == nil {
			local = provider
		} else {
			logger.Warn("local ai provider unavailable, continuing without it", "error", err)
		}
	}

	cleanup := noop
	if closer, ok := local.(ai.Closer); ok {
		cleanup = func() {
			if err := closer.Close(); err != nil {
				logger.Warn("closing local ai provider", "error", err)
			}
		}
	}

	if cloud == nil && local == nil {
		return nil, cleanup
	}

	modeManager := offgrid.NewModeManager(offgrid.ModeOnline)
	if cloud == nil {
		modeManager = offgrid.NewModeManager(offgrid.ModeOffline)
	}

	router, err := ai.NewRouter(ai.RouterConfig{
		ModeManager: modeManager,
		Cloud:       cloud,
		Local:       local,
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("ai router unavailable, continuing without llm fallback", "error", err)
		return nil, cleanup
	}

	if cloud != nil {
		startConnectivityWatcher(ctx, cloud, modeManager, logger)
	}

	return ai.NewColumnClassifierAdapter(router, logger), cleanup
}

// startConnectivityWatcher runs a ConnectivityWatcher in the background for
// the lifetime of ctx. It prefers health-checking the cloud provider itself;
// a provider that doesn't implement ai.HealthChecker falls back to a plain
// DNS reachability check.
func startConnectivityWatcher(ctx context.Context, cloud ai.CloudProvider, modeManager *offgrid.ModeManager, logger *slog.Logger) {
	checker := offgrid.ConnectivityChecker(offgrid.DefaultDNSChecker())
	if hc, ok := cloud.(ai.HealthChecker); ok {
		checker = ai.ProviderConnectivityChecker{Checker: hc}
	}

	watcherCfg := offgrid.DefaultWatcherConfig()
	watcherCfg.Checker = checker
	watcherCfg.Logger = logger

	watcher := offgrid.NewConnectivityWatcher(modeManager, watcherCfg)
	go watcher.Start(ctx)
}
