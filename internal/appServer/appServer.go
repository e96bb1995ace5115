package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuidador-digital/backend/config"
	repository "github.com/cuidador-digital/backend/internal/database/postgres"
	rediscache "github.com/cuidador-digital/backend/internal/database/redis"
	"github.com/cuidador-digital/backend/internal/service"
	"github.com/cuidador-digital/backend/internal/transport"
	"github.com/cuidador-digital/backend/internal/worker"

	"github.com/cuidador-digital/backend/pkg/clock"
	"github.com/cuidador-digital/backend/pkg/postgres"
	"github.com/cuidador-digital/backend/pkg/redis"
	"github.com/cuidador-digital/backend/pkg/scheduler"
	"github.com/cuidador-digital/backend/pkg/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags),
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := postgres.NewPostgresDB(&cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run database migrations
	if err := postgres.RunMigrations(db); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}

	// All scan decisions run on the patients' civil time
	clk, err := clock.New(cfg.Reminder.Timezone)
	if err != nil {
		logrus.Fatalf("Failed to initialize clock: %v", err)
	}

	// Initialize repositories
	guardianRepo := repository.NewGuardianRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	medicationRepo := repository.NewMedicationRepository(db)
	contactRepo := repository.NewContactRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	// Initialize WhatsApp gateway
	gateway := whatsapp.NewClient(&cfg.Twilio)
	if gateway.Enabled() {
		logrus.Info("WhatsApp gateway initialized")
	}

	// Initialize patient cache; the engine runs fine without it
	var patientCache service.PatientCache
	var cachePing func(ctx context.Context) error
	if cfg.Redis.Enabled {
		redisClient := redis.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()

		cache := rediscache.NewCacheRepository(redisClient, cfg.Redis.CacheTTL)
		patientCache = cache
		cachePing = cache.Ping
		logrus.Info("Patient cache initialized")
	} else {
		logrus.Warn("Redis disabled, patient lookups go straight to postgres")
	}

	// Initialize services
	reminderService := service.NewReminderService(medicationRepo, patientRepo, reminderRepo, gateway, clk)
	responseService := service.NewResponseService(patientRepo, medicationRepo, reminderRepo, patientCache, gateway, clk, cfg.Reminder.DelayMinutes)
	escalationService := service.NewEscalationService(reminderRepo, patientRepo, medicationRepo, contactRepo, guardianRepo, gateway, clk, cfg.Reminder.EscalationAfter)
	reportService := service.NewReportService(guardianRepo, patientRepo, reminderRepo, gateway, clk)
	registrationService := service.NewRegistrationService(guardianRepo, patientRepo, contactRepo, medicationRepo, gateway, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize and start the scan scheduler
	scanScheduler := scheduler.NewScheduler(
		reminderService,
		escalationService,
		time.Duration(cfg.Reminder.ScanIntervalMin)*time.Minute,
		time.Duration(cfg.Reminder.EscalationEvery)*time.Minute,
	)
	go scanScheduler.Start(ctx)

	// Initialize the daily report worker
	reportWorker := worker.NewDailyReportWorker(reportService, clk, cfg.Reminder.DailyReportHour, cfg.Reminder.DailyReportMinute)
	go reportWorker.Start(ctx)

	// Initialize handlers
	healthHandler := transport.NewHealthHandler(db, cachePing, gateway)
	registrationHandler := transport.NewRegistrationHandler(registrationService)
	webhookHandler := transport.NewWebhookHandler(responseService)
	reminderHandler := transport.NewReminderHandler(reminderService, escalationService, reportService)

	// Setup HTTP server
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(healthHandler, registrationHandler, webhookHandler, reminderHandler)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	if err := srv.Shutdown(context.Background()); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}
