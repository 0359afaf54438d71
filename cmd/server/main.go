package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"waste-console/internal/audit"
	"waste-console/internal/config"
	"waste-console/internal/database"
	"waste-console/internal/export"
	"waste-console/internal/logging"
	"waste-console/internal/metrics"
	"waste-console/internal/reference"
	"waste-console/internal/reports"
	"waste-console/internal/server"
	"waste-console/internal/session"
	"waste-console/internal/store"
	"waste-console/internal/tickets"
	"waste-console/internal/users"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, ServiceName: "waste-console"})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	db, err := database.Open(cfg.DatabaseDSN, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	m := metrics.New()
	client := store.New(store.Options{
		BaseURL:  cfg.StoreBaseURL,
		Timeout:  cfg.StoreTimeout,
		Logger:   logger,
		Observer: m,
	})

	sealer, err := session.NewSealer(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("session sealer", zap.Error(err))
	}
	sessions := session.NewManager(session.NewGormRepository(db), sealer, cfg.SessionTTL, logger)
	auditService := audit.NewService(db)

	pdf, err := pdfRenderer(cfg)
	if err != nil {
		logger.Fatal("pdf renderer", zap.Error(err))
	}
	exporter := export.New(export.Options{RegionName: cfg.RegionName, PDF: pdf, Logger: logger})

	ref := reference.NewLoader(client, reference.DefaultTTL, logger)
	reportService := reports.NewService(reports.Options{
		Store:    client,
		Sectors:  ref,
		Exporter: exporter,
		Audit:    auditService,
		Observer: m,
		Region:   cfg.RegionName,
		Logger:   logger,
	})
	jobs := reports.NewJobs(reportService, reports.JobsOptions{
		Timeout: cfg.ExportTimeout,
		Running: m.ExportJobs,
		Logger:  logger,
	})

	app := server.New(server.Deps{
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.CORSOrigins,
		Log:         logger,
		Sessions:    sessions,
		Authn:       client,
		Users:       users.NewHandler(client, auditService, logger),
		Tickets:     tickets.NewHandler(client, ref, auditService, logger),
		Reports:     reports.NewHandler(reportService, jobs, cfg.ExportTimeout, logger),
		Reference:   ref,
		AuditLogs:   auditService,
		Metrics:     m,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go purgeSessions(ctx, logger, func(cutoff time.Time) (int64, error) {
		return database.PurgeSessions(db, cutoff)
	})

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		jobs.Shutdown()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("server listening", zap.String("port", cfg.HTTPPort))
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func pdfRenderer(cfg *config.Config) (export.PDFRenderer, error) {
	if cfg.PDFEngine == config.PDFEngineChrome {
		return export.ChromeRenderer{Timeout: cfg.ExportTimeout}, nil
	}
	return export.NewNativeRenderer(cfg.PDFFontPath)
}

// purgeSessions deletes expired and revoked sessions once an hour.
func purgeSessions(ctx context.Context, logger *zap.Logger, purge func(time.Time) (int64, error)) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := purge(now)
			if err != nil {
				logger.Warn("session purge failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logger.Info("expired sessions purged", zap.Int64("count", n))
			}
		}
	}
}
