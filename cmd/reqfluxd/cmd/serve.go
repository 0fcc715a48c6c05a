package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reqflux/reqflux/internal/admin"
	"github.com/reqflux/reqflux/internal/builder"
	"github.com/reqflux/reqflux/internal/config"
	"github.com/reqflux/reqflux/internal/history"
	"github.com/reqflux/reqflux/internal/history/postgres"
	"github.com/reqflux/reqflux/internal/history/sqlite"
	"github.com/reqflux/reqflux/internal/monitor"
	"github.com/reqflux/reqflux/internal/orchestrator"
	"github.com/reqflux/reqflux/internal/queue"
	"github.com/reqflux/reqflux/internal/transport"
	"github.com/reqflux/reqflux/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the orchestrator and its admin HTTP surface",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		Filename:   cfg.Log.Filename,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := queue.NewManager(queue.DefaultConfig(), log)
	b := builder.New(log)
	tr := transport.New(cfg.Orchestrator.RequestTimeout)

	orch := orchestrator.New(cfg.ToOrchestratorConfig(), q, tr, b, log)

	store, err := buildHistoryStore(ctx, cfg.History, log)
	if err != nil {
		return fmt.Errorf("build history store: %w", err)
	}
	orch.SetHistoryStore(store)
	defer store.Close()

	if err := orch.Start(ctx); err != nil {
		return fmt.Errorf("start orchestrator: %w", err)
	}
	defer orch.Stop()

	mon := monitor.New(orch.Collector(), orch.Alerts(), orch.Queue(), log)
	mon.Start(ctx)

	var adminSrv *admin.Server
	if cfg.Admin.Enabled {
		adminSrv = admin.New(cfg.Admin.Addr, orch, mon, log)
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil {
				log.Error("admin surface exited", "error", err)
			}
		}()
	}

	log.Info("reqfluxd running", "version", buildVersion)
	<-ctx.Done()
	log.Info("shutdown signal received")

	if adminSrv != nil {
		_ = adminSrv.Shutdown()
	}

	return nil
}

func buildHistoryStore(ctx context.Context, cfg config.HistoryConfig, log *slog.Logger) (history.Store, error) {
	switch cfg.Backend {
	case config.HistoryBackendMemory:
		return history.NewMemoryStore(cfg.MemoryCapacity), nil
	case config.HistoryBackendSQLite:
		return sqlite.Open(cfg.DSN, log)
	case config.HistoryBackendPostgres:
		return postgres.Open(ctx, postgres.DefaultConfig(cfg.DSN), log)
	default:
		return history.NoopStore{}, nil
	}
}
