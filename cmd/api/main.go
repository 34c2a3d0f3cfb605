package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dvloznov/edufin/internal/api/handlers"
	"github.com/dvloznov/edufin/internal/api/middleware"
	"github.com/dvloznov/edufin/internal/app"
	"github.com/dvloznov/edufin/internal/approvals"
	"github.com/dvloznov/edufin/internal/config"
	"github.com/dvloznov/edufin/internal/dashboard"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/eventbus"
	"github.com/dvloznov/edufin/internal/fees"
	"github.com/dvloznov/edufin/internal/fraud"
	"github.com/dvloznov/edufin/internal/identity"
	"github.com/dvloznov/edufin/internal/jobs"
	"github.com/dvloznov/edufin/internal/jobs/inmemory"
	"github.com/dvloznov/edufin/internal/jobs/pubsub"
	"github.com/dvloznov/edufin/internal/logger"
	"github.com/dvloznov/edufin/internal/payment"
	"github.com/dvloznov/edufin/internal/qr"
	"github.com/dvloznov/edufin/internal/salary"
)

func main() {
	configPath := flag.String("config", os.Getenv("EDUFIN_CONFIG"), "Path to YAML config (or set EDUFIN_CONFIG env)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		boot := logger.New(logger.Options{})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.Logging.Level, Console: cfg.Logging.Console})
	ctx := logger.WithContext(context.Background(), log)

	rt, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backends")
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close backends")
		}
	}()

	bus := eventbus.New()
	book := fees.NewBook(fees.StudentSeed)
	history := func(string) []domain.RecentTransaction { return fees.RecentPaymentsSeed() }
	registry := dashboard.NewRegistry(bus, dashboard.AdminSeed(), dashboard.LedgerSeed(book, history, cfg.Payments.RecentCap), cfg.Payments.RecentCap)
	defer registry.Close()

	// Initialize job infrastructure. Without a topic jobs run in-process.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Payments.JobQueueSize, jobStore)
	var publisher jobs.Publisher = jobQueue
	if cfg.PubSub.Topic != "" {
		pub, err := pubsub.NewPublisher(ctx, cfg.PubSub.ProjectID, cfg.PubSub.Topic)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Pub/Sub publisher")
		}
		defer pub.Close()
		publisher = pub
	} else {
		workerCtx, cancelWorker := context.WithCancel(ctx)
		defer cancelWorker()
		log.Info().Msg("Starting in-process job worker")
		if err := jobQueue.Start(workerCtx, rt.JobHandlers().Router().Dispatch); err != nil {
			log.Fatal().Err(err).Msg("Failed to start job worker")
		}
	}

	// Payment adapters
	form := payment.NewFormAdapter(rt.IDs, cfg.Payments.FormDelay)
	qrAdapter := payment.NewQRAdapter(cfg.Payments.PayeeVPA, cfg.Payments.PayeeName, qr.New(cfg.Payments.QRRenderer), rt.IDs)
	qrAdapter.GenerateDelay = cfg.Payments.QRGenDelay
	qrAdapter.VerifyDelay = cfg.Payments.QRVerify
	qrAdapter.Expiry = cfg.Payments.QRExpiry
	qrAdapter.Retention = cfg.Payments.QRRetention

	var gateway payment.Gateway
	if cfg.Razorpay.KeyID != "" && cfg.Razorpay.KeySecret != "" {
		gateway = payment.NewRazorpayGateway(cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret)
	} else {
		log.Warn().Msg("No Razorpay keys configured, using the local checkout gateway")
		gateway = &payment.LocalGateway{Secret: "local-checkout"}
	}
	checkout := payment.NewCheckoutAdapter(gateway, cfg.Payments.Currency, rt.IDs)

	service := payment.NewService(book, bus, publisher, rt.IDs, log, form, qrAdapter, checkout)
	service.BeforeSettle = func(studentID string) { registry.Store(studentID) }

	detector := fraud.NewDetector(fraud.Rules{
		LargePaymentThreshold: cfg.Fraud.LargePaymentThreshold,
		FailedAttempts:        cfg.Fraud.FailedAttempts,
		FailureWindow:         cfg.Fraud.FailureWindow,
	}, rt.IDs, rt.Notifier, log, fraud.SeedAlerts())
	defer detector.Attach(bus)()

	desk := approvals.NewDesk(rt.IDs, log, approvals.SeedExpenses(), approvals.SeedRefunds(), approvals.SeedBudgets())

	repo, err := rt.Directory(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect user directory")
	}
	provider, roles := rt.Identity(repo)
	sessions := identity.NewSessions()
	sessions.TTL = cfg.Server.SessionTTL
	auth := identity.NewAuthenticator(provider, roles, repo, sessions, log)

	rates := salary.RatesFrom(cfg.Salary.HRA, cfg.Salary.DA, cfg.Salary.TA, cfg.Salary.PF, cfg.Salary.ProfessionalTax, cfg.Salary.TDS)
	generator := salary.NewGenerator(salary.NewMemoryDirectory(salary.SeedStaff()), rates, rt.IDs)

	router := handlers.NewRouter(handlers.Handlers{
		Health:    handlers.NewHealthHandler(),
		Auth:      handlers.NewAuthHandler(auth, repo, log),
		Payments:  handlers.NewPaymentsHandler(service, qrAdapter, checkout, log),
		Dashboard: handlers.NewDashboardHandler(registry, book, rt.Ledger, fees.ReminderPolicy{}, log),
		Salary:    handlers.NewSalaryHandler(generator, rt.Archiver, publisher, log),
		Predict:   handlers.NewPredictHandler(rt.Predictor(ctx), log),
		Fraud:     handlers.NewFraudHandler(detector, log),
		Approvals: handlers.NewApprovalsHandler(desk, registry, log),
		Jobs:      handlers.NewJobsHandler(jobStore, log),
	})

	// Apply middleware
	handler := middleware.Chain(router,
		middleware.Recovery(log),
		middleware.Logger(log),
		middleware.RequestID(log),
		middleware.CORS(cfg.Server.AllowedOrigin),
		middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),
		middleware.Auth(auth, handlers.PublicPaths...),
	)

	port := strconv.Itoa(cfg.Server.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight jobs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	// Let queued fraud notifications finish
	detector.Wait()

	log.Info().Msg("Server exited")
}
