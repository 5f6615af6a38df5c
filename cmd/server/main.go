package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"github.com/mamadbah2/hamma/internal/config"
	"github.com/mamadbah2/hamma/internal/domain/models"
	"github.com/mamadbah2/hamma/internal/events"
	"github.com/mamadbah2/hamma/internal/repository/mongodb"
	"github.com/mamadbah2/hamma/internal/repository/sheets"
	"github.com/mamadbah2/hamma/internal/scheduler"
	"github.com/mamadbah2/hamma/internal/server/handlers"
	"github.com/mamadbah2/hamma/internal/server/router"
	assistantsvc "github.com/mamadbah2/hamma/internal/service/assistant"
	"github.com/mamadbah2/hamma/internal/service/catalog"
	"github.com/mamadbah2/hamma/internal/service/contract"
	"github.com/mamadbah2/hamma/internal/service/notify"
	"github.com/mamadbah2/hamma/internal/service/procurement"
	reportingsvc "github.com/mamadbah2/hamma/internal/service/reporting"
	"github.com/mamadbah2/hamma/pkg/clients/anthropic"
	assistantclient "github.com/mamadbah2/hamma/pkg/clients/assistant"
	"github.com/mamadbah2/hamma/pkg/clients/renderer"
	whatsappclient "github.com/mamadbah2/hamma/pkg/clients/whatsapp"
	"github.com/mamadbah2/hamma/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var observers []procurement.OrderObserver

	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		observers = append(observers, mongoRepo)
	} else {
		baseLogger.Warn("MONGODB_URI missing, order archive disabled")
	}

	var orderSheet sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		orderLog := sheets.NewOrderLog(sheetsRepo, baseLogger.Named("repo.orderlog"))
		if err := orderLog.EnsureHeader(context.Background()); err != nil {
			baseLogger.Warn("failed to prepare order log sheet", zap.Error(err))
		}
		orderSheet = sheetsRepo
		observers = append(observers, orderLog)
	} else {
		baseLogger.Warn("google sheets not configured, order log disabled")
	}

	if cfg.RabbitMQ.URI != "" {
		publisher, closeBroker, err := events.Dial(cfg.RabbitMQ.URI, cfg.RabbitMQ.Queue, cfg.Contract.Currency, baseLogger.Named("events"))
		if err != nil {
			baseLogger.Fatal("failed to init rabbitmq publisher", zap.Error(err))
		}
		defer func() { _ = closeBroker() }()
		observers = append(observers, publisher)
	}

	var notifier *notify.ApprovalNotifier
	if cfg.WhatsApp.Enabled() {
		notifier = notify.NewApprovalNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.ApproverID, cfg.Contract.Currency, baseLogger.Named("svc.notify"))
		observers = append(observers, notifier)
	} else {
		baseLogger.Warn("whatsapp token missing, approval notifications disabled")
	}

	sessions := procurement.NewSessionManager(procurement.Options{
		Policy:            procurement.NewPolicy(cfg.Approval.Threshold, cfg.Approval.AdminPassword),
		Requester:         cfg.Approval.Requester,
		AttemptsPerMinute: cfg.Approval.AttemptsPerMinute,
		Observers:         observers,
	}, baseLogger.Named("svc.procurement"))

	exporter := contract.NewExporter(contract.Terms{
		Sender:       models.ContractParty{Name: cfg.Contract.SenderName, Address: cfg.Contract.SenderAddress},
		Recipient:    models.ContractParty{Name: cfg.Contract.RecipientName, Address: cfg.Contract.RecipientAddress},
		PaymentTerms: cfg.Contract.PaymentTerms,
		Currency:     cfg.Contract.Currency,
	}, renderer.NewClient(cfg.Assistant.RendererBaseURL, cfg.Assistant.Timeout), baseLogger.Named("svc.contract"))

	var cleaner assistantsvc.TranscriptCleaner
	if cfg.AI.AnthropicKey != "" {
		cleaner = anthropic.NewClient(cfg.AI.AnthropicKey, cfg.Assistant.Timeout)
		baseLogger.Info("anthropic transcript cleanup enabled")
	}

	assistantSvc := assistantsvc.NewService(
		assistantclient.NewClient(cfg.Assistant.BaseURL, cfg.Assistant.Timeout),
		catalog.NewNormalizer(catalog.DefaultFieldMap, baseLogger.Named("svc.catalog")),
		cleaner,
		baseLogger.Named("svc.assistant"))

	engine := router.New(sessions,
		handlers.NewProcurementHandler(sessions, exporter, assistantSvc, cfg.Contract.Currency, baseLogger.Named("handlers.procurement")),
		handlers.NewAssistantHandler(assistantSvc, cfg.Contract.Currency, baseLogger.Named("handlers.assistant")),
		baseLogger.Named("router"))

	if orderSheet != nil && notifier != nil {
		reportingSvc := reportingsvc.NewService(orderSheet, cfg.Contract.Currency, baseLogger.Named("svc.reporting"))
		sched, err := scheduler.NewScheduler(cfg.Reporting, reportingSvc, notifier, cfg.WhatsApp.ApproverID, baseLogger.Named("scheduler"))
		if err != nil {
			baseLogger.Fatal("failed to init scheduler", zap.Error(err))
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Assistant.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
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
}
