// cmd/resolver/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ticket-resolver/internal/common/config"
	"ticket-resolver/internal/common/database"
	"ticket-resolver/internal/common/logger"
	"ticket-resolver/internal/common/observability"
	"ticket-resolver/internal/document"
	"ticket-resolver/internal/notify"
	"ticket-resolver/internal/reasoning"
	"ticket-resolver/internal/resolver"
	"ticket-resolver/internal/runner"
	"ticket-resolver/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting ticket resolver...",
		zap.String("environment", cfg.App.Environment),
		zap.String("approvalPrecedence", cfg.Workflow.ApprovalPrecedence),
	)

	obs := observability.New("ticket-resolver")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (sweep locks) ---
	var locks *runner.TicketLocks
	if cfg.Database.Redis.Enabled {
		var rdb *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer rdb.Close()
		zapLog.Info("Redis connected successfully")

		locks = runner.NewTicketLocks(rdb.Client, time.Duration(cfg.Workflow.LockTTL)*time.Millisecond)
	} else {
		zapLog.Warn("Redis disabled, running without sweep locks")
	}

	// --- Stores ---
	tickets := store.NewTicketStore(pg.DB, log)
	invoices := store.NewInvoiceStore(pg.DB, log)
	directory := store.NewDirectoryStore(pg.DB, log)

	// --- Outbound mail ---
	var mailer notify.Mailer
	switch cfg.Email.Provider {
	case "ses":
		mailer, err = notify.NewSESMailer(ctx, cfg.Email, log)
		if err != nil {
			zapLog.Fatal("ses mailer init failed", zap.Error(err))
		}
	default:
		mailer = notify.NewSMTPMailer(cfg.Email, log)
	}

	var alerts notify.AlertPublisher
	if cfg.Alerts.Enabled {
		snsAlerts, err := notify.NewSNSAlerts(ctx, cfg.Alerts, log)
		if err != nil {
			zapLog.Fatal("sns alerts init failed", zap.Error(err))
		}
		alerts = snsAlerts
	}

	var documents document.Generator
	if cfg.Documents.Enabled {
		documents = document.NewSnapshotGenerator(cfg.Documents.OutputDir, log)
	}

	// --- Resolution pipeline ---
	reasoner := reasoning.NewClient(cfg.Reasoning, log)
	tokens := resolver.NewTokenIssuer(cfg.Approval.Secret, cfg.Approval.BaseURL)
	selector := resolver.NewSpecialistSelector(directory, tickets, log)
	dispatcher := resolver.NewDispatcher(tickets, invoices, directory, mailer, alerts, documents, tokens, selector, log)
	orchestrator := resolver.NewOrchestrator(reasoner, invoices, dispatcher, cfg.Workflow, log)

	ticketTimeout := time.Duration(cfg.Reasoning.Timeout) * time.Millisecond * time.Duration(cfg.Workflow.MaxTurns+1)
	sweeper := runner.NewSweeper(tickets, orchestrator, locks, obs, log, ticketTimeout)

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			zapLog.Info("Health/Metrics server listening", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Sweep loop ---
	runSweep := func() {
		summary, err := sweeper.Sweep(ctx)
		if err != nil {
			zapLog.Error("sweep failed", zap.Error(err))
			return
		}
		zapLog.Info("sweep summary",
			zap.Int("listed", summary.Listed),
			zap.Int("resolved", summary.Resolved),
			zap.Int("unresolved", summary.Unresolved),
			zap.Int("skipped", summary.Skipped),
			zap.Int("locked", summary.Locked),
			zap.Int("failed", summary.Failed),
		)
	}

	runSweep()
	if *once {
		zapLog.Info("single sweep complete, exiting")
		return
	}

	interval := time.Duration(cfg.Workflow.SweepInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runSweep()
		case <-ctx.Done():
			zapLog.Info("Shutdown signal received, stopping resolver...")
			zapLog.Info("Ticket resolver stopped gracefully")
			return
		}
	}
}
