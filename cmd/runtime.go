package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/formintake/internal/config"
	"github.com/teemow/formintake/internal/instrumentation"
	"github.com/teemow/formintake/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func notifyContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// runtime bundles what every command needs: settings, logger and telemetry.
type runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	metrics  *instrumentation.Metrics
	audit    *instrumentation.AuditLogger
}

func setupRuntime(ctx context.Context, cmd *cobra.Command) (*runtime, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		metrics:  provider.Metrics(),
		audit:    instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging),
	}, nil
}

// shutdown flushes telemetry. It uses its own deadline so a cancelled
// command context still gets its metrics pushed.
func (rt *runtime) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := rt.provider.Shutdown(ctx); err != nil {
		rt.logger.Warn("error during instrumentation shutdown", logging.Err(err))
	}
}

// finish completes and audits a run.
func (rt *runtime) finish(ctx context.Context, run *instrumentation.Run, err error) {
	run.WithSpanContext(ctx).Complete(err)
	rt.audit.LogRun(run)
}
