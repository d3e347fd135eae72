// Package app wires the application together: Genkit, the session
// backend, guardrails, tools, monitoring, and the turn runner.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/joho/godotenv"

	"github.com/tellerbot/teller/internal/account"
	"github.com/tellerbot/teller/internal/agent"
	"github.com/tellerbot/teller/internal/config"
	"github.com/tellerbot/teller/internal/guard"
	"github.com/tellerbot/teller/internal/log"
	"github.com/tellerbot/teller/internal/monitoring"
	"github.com/tellerbot/teller/internal/session"
	"github.com/tellerbot/teller/internal/tools"
)

// reportInterval is how often the usage reporter logs a summary and
// evaluates alert thresholds.
const reportInterval = time.Minute

// App is the application container. Setup builds it; Close releases
// its resources in reverse dependency order.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Accounts *account.Store
	Sessions session.Service
	Runner   *agent.Runner
	Tools    []ai.ToolRef

	Collector *monitoring.Collector
	Perf      *monitoring.PerformanceTracker
	Alerts    *monitoring.AlertManager
	Analytics *monitoring.Analytics

	reporter *monitoring.UsageReporter
	sink     *monitoring.SQLiteSink
}

// Setup constructs the application from configuration.
//
// A .env file in the working directory is loaded first so GEMINI_API_KEY
// can live there during development; real environment variables win.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Best effort; a missing .env file is the normal production case.
	_ = godotenv.Load()

	if os.Getenv("GEMINI_API_KEY") == "" && os.Getenv("GOOGLE_API_KEY") == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set; the model provider requires it")
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	if g == nil {
		return nil, fmt.Errorf("initializing genkit")
	}

	sessions, err := newSessionService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("creating session backend: %w", err)
	}

	var sink *monitoring.SQLiteSink
	if cfg.MetricsDBPath != "" {
		sink, err = monitoring.NewSQLiteSink(cfg.MetricsDBPath)
		if err != nil {
			sessions.Close()
			return nil, fmt.Errorf("opening metrics database: %w", err)
		}
	}

	collector := monitoring.NewCollector(sinkOrNil(sink), logger)
	perf := monitoring.NewPerformanceTracker()
	alerts := monitoring.NewAlertManager(monitoring.DefaultAlertThresholds(), logger)
	reporter := monitoring.NewUsageReporter(collector, alerts, reportInterval, logger)

	accounts := account.NewStore()
	toolGuard := guard.NewToolGuard(
		cfg.AuthRequired, cfg.MaxTransferAmount, cfg.RestrictedAccounts, logger)
	handler := tools.NewHandler(accounts, toolGuard, cfg.MinimumBalance, collector, logger)
	refs := tools.Register(g, handler)

	runner := agent.NewRunner(agent.RunnerConfig{
		AppName:    config.AppName,
		Classifier: agent.NewModelClassifier(g, cfg.FullClassifierModel()),
		Generator:  agent.NewGenkitGenerator(g, cfg.FullModelName()),
		Tools:      refs,
		InputGuard: guard.NewInputGuard(cfg.BlockedKeywords, logger),
		Sessions:   sessions,
		Collector:  collector,
		Perf:       perf,
		MaxTurns:   cfg.MaxTurns,
		Logger:     logger,
	})

	logger.Info("application initialized",
		"model", cfg.FullModelName(),
		"session_backend", cfg.SessionBackend,
		"auth_required", cfg.AuthRequired)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Genkit:    g,
		Accounts:  accounts,
		Sessions:  sessions,
		Runner:    runner,
		Tools:     refs,
		Collector: collector,
		Perf:      perf,
		Alerts:    alerts,
		Analytics: monitoring.NewAnalytics(collector),
		reporter:  reporter,
		sink:      sink,
	}, nil
}

// newSessionService selects the session backend from configuration.
func newSessionService(ctx context.Context, cfg *config.Config, logger log.Logger) (session.Service, error) {
	ttl := time.Duration(cfg.SessionTTL) * time.Second

	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		return session.NewMemory(config.AppName, ttl, logger), nil
	case config.SessionBackendSQLite:
		return session.NewSQLite(config.AppName, cfg.SessionDBPath, logger)
	case config.SessionBackendRedis:
		return session.NewRedis(ctx, config.AppName, cfg.RedisAddr, cfg.RedisPassword, ttl, logger)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

// sinkOrNil avoids handing the collector a typed-nil Sink interface.
func sinkOrNil(s *monitoring.SQLiteSink) monitoring.Sink {
	if s == nil {
		return nil
	}
	return s
}

// Close releases application resources.
func (a *App) Close() error {
	var firstErr error

	if a.reporter != nil {
		if err := a.reporter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Sessions != nil {
		if err := a.Sessions.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.sink != nil {
		if err := a.sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	a.Logger.Info("application shut down")
	return firstErr
}
