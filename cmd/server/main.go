package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/henmanager/internal/config"
	"github.com/mamadbah2/henmanager/internal/repository"
	"github.com/mamadbah2/henmanager/internal/repository/memory"
	"github.com/mamadbah2/henmanager/internal/repository/mongodb"
	"github.com/mamadbah2/henmanager/internal/repository/sheets"
	"github.com/mamadbah2/henmanager/internal/scheduler"
	"github.com/mamadbah2/henmanager/internal/server/handlers"
	"github.com/mamadbah2/henmanager/internal/server/router"
	authsvc "github.com/mamadbah2/henmanager/internal/service/auth"
	creditsvc "github.com/mamadbah2/henmanager/internal/service/credit"
	exportsvc "github.com/mamadbah2/henmanager/internal/service/export"
	farmsvc "github.com/mamadbah2/henmanager/internal/service/farm"
	"github.com/mamadbah2/henmanager/internal/service/notify"
	reportingsvc "github.com/mamadbah2/henmanager/internal/service/reporting"
	salessvc "github.com/mamadbah2/henmanager/internal/service/sales"
	stocksvc "github.com/mamadbah2/henmanager/internal/service/stock"
	whatsappclient "github.com/mamadbah2/henmanager/pkg/clients/whatsapp"
	"github.com/mamadbah2/henmanager/pkg/logger"
)

const exportBuffer = 256

func main() {
	cfg, err := config.Load(os.Getenv("ENV_FILE"))
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Development))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg, baseLogger.Named("repo"))
	if err != nil {
		baseLogger.Fatal("failed to open store", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	var (
		saleObservers    []salessvc.Observer
		paymentObservers []creditsvc.Observer
		mirror           *exportsvc.Mirror
	)
	if cfg.Sheets.Enabled() {
		sheetRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		mirror = exportsvc.NewMirror(sheetRepo, baseLogger.Named("svc.export"), exportBuffer)
		go mirror.Run(ctx)
		saleObservers = append(saleObservers, mirror)
		paymentObservers = append(paymentObservers, mirror)
	} else {
		baseLogger.Info("google sheets export disabled")
	}

	tokens := authsvc.NewTokens(authsvc.TokenConfig{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.JWTIssuer,
		Audience: cfg.Auth.JWTAudience,
		TTL:      cfg.Auth.TokenTTL,
	})
	authService := authsvc.NewService(store, tokens, baseLogger.Named("svc.auth"))
	farmService := farmsvc.NewService(store, baseLogger.Named("svc.farm"))
	stockCalc := stocksvc.NewCalculator(store, baseLogger.Named("svc.stock"))
	saleService := salessvc.NewService(store, stockCalc, baseLogger.Named("svc.sales"), saleObservers...)
	ledger := creditsvc.NewLedger(store, creditsvc.Options{
		ReconcileCancel: cfg.Ledger.ReconcileCancel,
		MaxRetries:      cfg.Ledger.MaxRetries,
	}, baseLogger.Named("svc.credit"), paymentObservers...)
	reportingService := reportingsvc.NewService(store, baseLogger.Named("svc.reporting"))

	if err := authService.Seed(ctx, cfg.Auth.AdminUserName, cfg.Auth.AdminPassword); err != nil {
		baseLogger.Fatal("failed to seed accounts", zap.Error(err))
	}
	if err := farmService.SeedEggTypes(ctx); err != nil {
		baseLogger.Fatal("failed to seed egg types", zap.Error(err))
	}

	var notifier notify.Notifier = notify.Nop{Logger: baseLogger.Named("notify")}
	if cfg.WhatsApp.Enabled() {
		client := whatsappclient.NewClient(cfg.WhatsApp)
		notifier = notify.NewWhatsApp(client, cfg.WhatsApp.ReportRecipient, baseLogger.Named("notify.whatsapp"))
	} else {
		baseLogger.Warn("whatsapp credentials missing, weekly reports will not be sent")
	}

	sched, err := scheduler.NewScheduler(cfg.Reporting, reportingService, notifier, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}

	engine := router.New(router.Handlers{
		Auth:    handlers.NewAuthHandler(authService, baseLogger.Named("handlers.auth")),
		Sales:   handlers.NewSaleHandler(saleService, stockCalc, ledger, baseLogger.Named("handlers.sales")),
		Credits: handlers.NewCreditHandler(ledger, baseLogger.Named("handlers.credits")),
		Farm:    handlers.NewFarmHandler(farmService, baseLogger.Named("handlers.farm")),
		Reports: handlers.NewReportHandler(reportingService, baseLogger.Named("handlers.reports")),
	}, router.Options{
		Validator:   authService,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		Logger:      baseLogger.Named("router"),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
	if mirror != nil {
		mirror.Close()
		if err := mirror.Wait(shutdownCtx); err != nil {
			baseLogger.Warn("export mirror did not drain", zap.Error(err))
		}
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	default:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB, log.Named("mongodb"))
		if err != nil {
			return nil, err
		}
		return repo, nil
	}
}
