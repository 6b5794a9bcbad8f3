package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"bedflow-backend/config"
	"bedflow-backend/internal/api"
	"bedflow-backend/internal/assign"
	"bedflow-backend/internal/db"
	"bedflow-backend/internal/notification"
	"bedflow-backend/internal/queue"
	"bedflow-backend/internal/store"
	"bedflow-backend/internal/turnover"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logger.WithField("service", "bedflowd")

	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatalf("failed to load configuration from %s", configPath)
	}
	log.Infof("configuration loaded from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		log.Warn("VAPID keys are not configured, push notifications are disabled")
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	log.Info("database initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.New(gormDB)

	stateMachine := turnover.NewStateMachine(appStore, turnover.Durations{
		StandardMinutes:  cfg.Turnover.StandardMinutes,
		DeepCleanMinutes: cfg.Turnover.DeepCleanMinutes,
	}, log.WithField("component", "turnover"))
	equipmentTracker := turnover.NewEquipmentTracker(appStore, log.WithField("component", "equipment"))
	queueManager := queue.NewManager(appStore, log.WithField("component", "queue"))
	coordinator := assign.NewCoordinator(appStore, log.WithField("component", "assign"))

	// Ready-bed notifications
	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions, log.WithField("component", "notification"))
	workerPool.Start(ctx)
	stateMachine.SetNotifier(workerPool)

	// Wait-time estimation with background refresh from completed cycles
	estimator := queue.NewEstimator(cfg.Queue.AverageTurnoverMinutes)
	refresher := queue.NewRefresher(appStore, estimator, cfg.Queue.RefreshInterval, cfg.Queue.RefreshSampleSize, log.WithField("component", "estimator"))
	go refresher.Run(ctx)

	handler := api.NewHandler(appStore, stateMachine, equipmentTracker, queueManager, estimator, coordinator, &webpushOptions)
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server ListenAndServe")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Fatal("HTTP server shutdown")
	}

	log.Info("server gracefully stopped")
}
