// Package main provides a one-shot prediction CLI: a match context in,
// an ensemble result out, both as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/match-oracle/internal/cache"
	"github.com/yourusername/match-oracle/internal/calibration"
	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/engine"
	"github.com/yourusername/match-oracle/internal/ensemble"
	"github.com/yourusername/match-oracle/internal/logger"
	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
	"github.com/yourusername/match-oracle/internal/ratings"
	"github.com/yourusername/match-oracle/internal/resilience"
)

var (
	configFile string
	inputFile  string
	noCache    bool
	pretty     bool
)

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&inputFile, "input", "i", "-", "Match context JSON file, - for stdin")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the result cache")
	rootCmd.Flags().BoolVar(&pretty, "pretty", true, "Indent the JSON output")
}

var rootCmd = &cobra.Command{
	Use:   "predict",
	Short: "Produce a 1X2 prediction for one match",
	Long:  `Reads a match context as JSON, runs the full ensemble and prints the prediction with its explanation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	mc, err := readMatchContext()
	if err != nil {
		return err
	}

	appLog := logger.NewLogger("error")
	ctx := context.Background()

	var store cache.Store
	if cfg.Cache.Enabled {
		store, err = cache.NewStore(ctx, cfg, appLog)
		if err != nil {
			return fmt.Errorf("failed to open result cache: %w", err)
		}
		defer store.Close()
	}

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

	res := eng.Predict(ctx, mc)
	return writeResult(res)
}

func readMatchContext() (*models.MatchContext, error) {
	var reader io.Reader = os.Stdin
	if inputFile != "" && inputFile != "-" {
		f, err := os.Open(inputFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	var mc models.MatchContext
	if err := json.NewDecoder(reader).Decode(&mc); err != nil {
		return nil, fmt.Errorf("failed to parse match context: %w", err)
	}
	return &mc, nil
}

func writeResult(res *models.EnsembleResult) error {
	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}
