// Package main provides the entry point for the prediction engine daemon.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/cache"
	"github.com/yourusername/match-oracle/internal/calibration"
	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/engine"
	"github.com/yourusername/match-oracle/internal/ensemble"
	"github.com/yourusername/match-oracle/internal/health"
	"github.com/yourusername/match-oracle/internal/logger"
	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
	"github.com/yourusername/match-oracle/internal/ratings"
	"github.com/yourusername/match-oracle/internal/resilience"
	"github.com/yourusername/match-oracle/internal/scheduler"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadWithDefaults(os.Getenv("MATCH_ORACLE_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     version,
	}).Info("Match Oracle engine starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Result cache backend
	var store cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.NewStore(ctx, cfg, appLog)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to open result cache")
		}
		defer store.Close()
		appLog.WithField("driver", cfg.Cache.Driver).Info("Result cache opened")
	} else {
		appLog.Info("Result cache disabled")
	}

	// Artifact stores and the model bank
	ratingsStore := ratings.NewStore(cfg.Artifacts.RatingsFile, appLog)
	classifier := modelbank.NewClassifier(cfg.Artifacts.ClassifierDir, appLog)
	bank := modelbank.NewBank(ratingsStore, classifier, cfg.Models, appLog)
	blender := ensemble.NewBlender(cfg.Models.EarlySeasonCap)

	loader := calibration.NewLoader(
		cfg.Artifacts.CalibratorDir,
		cfg.Artifacts.TemperatureFile,
		cfg.Artifacts.AlphaFile,
		appLog,
	)
	drift := calibration.NewDriftMonitor(cfg.Artifacts.DriftFile, cfg.Artifacts.DriftURL, appLog)
	pipeline := calibration.NewPipeline(loader, drift, appLog)

	breakers := resilience.NewBreakerRegistry(resilience.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		RecoveryTimeout:  time.Duration(cfg.Breaker.RecoveryTimeoutSeconds) * time.Second,
		HalfOpenMaxCalls: cfg.Breaker.HalfOpenMaxCalls,
	}, appLog)
	bulkheads := resilience.NewBulkheads(cfg.Engine.IOPoolSize, cfg.CPUPoolSize())

	eng := engine.NewEngine(cfg, bank, blender, pipeline, loader, ratingsStore, store, breakers, bulkheads, appLog)

	// Maintenance jobs
	sched := scheduler.NewScheduler(store, drift, ratingsStore, appLog)
	mustSchedule(appLog, sched.ScheduleCacheSweep("@every 15m"))
	mustSchedule(appLog, sched.ScheduleDriftRefresh("@every 5m"))
	mustSchedule(appLog, sched.ScheduleRatingsReload("@hourly"))
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Warn("Maintenance scheduler not started")
	}
	defer sched.Stop()

	// Health endpoints
	healthServer := health.NewServer(health.Config{
		ServiceName: cfg.App.Name,
		Version:     version,
		Port:        os.Getenv("HEALTH_PORT"),
		Logger:      appLog,
		Store:       storePinger(store),
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Metrics endpoint
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		go serveMetrics(cfg, appLog)
	}

	// Prediction API
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/predict", predictHandler(eng, appLog))
	apiServer := &http.Server{
		Addr:         ":8090",
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		appLog.WithField("addr", apiServer.Addr).Info("Prediction API listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.WithError(err).Fatal("Prediction API server error")
		}
	}()

	healthServer.SetReady(true)
	appLog.Info("Match Oracle engine ready")

	<-ctx.Done()
	appLog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		appLog.WithError(err).Error("Prediction API shutdown error")
	}
	appLog.Info("Match Oracle engine stopped")
}

// predictHandler decodes a match context, runs the engine and writes
// the result. The engine never fails, so the handler only rejects
// undecodable bodies.
func predictHandler(eng *engine.Engine, appLog *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var mc models.MatchContext
		if err := json.NewDecoder(r.Body).Decode(&mc); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}

		res := eng.Predict(r.Context(), &mc)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			appLog.WithError(err).Error("Failed to encode prediction response")
		}
	}
}

func serveMetrics(cfg *config.Config, appLog *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, metrics.Handler())

	addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
	appLog.WithFields(logrus.Fields{
		"addr": addr,
		"path": cfg.Metrics.Path,
	}).Info("Metrics server listening")

	if err := http.ListenAndServe(addr, mux); err != nil {
		appLog.WithError(err).Error("Metrics server error")
	}
}

// storePinger adapts a possibly-nil store for the health server
func storePinger(store cache.Store) health.StorePinger {
	if store == nil {
		return nil
	}
	return store
}

func mustSchedule(appLog *logrus.Logger, err error) {
	if err != nil {
		appLog.WithError(err).Fatal("Failed to schedule maintenance job")
	}
}
