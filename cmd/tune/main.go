// Package main provides the offline threshold tuning CLI. It reads a
// window of graded historical predictions, assesses calibration quality
// and prints the nudged decision thresholds per league.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/decision"
	"github.com/yourusername/match-oracle/internal/models"
)

var (
	configFile   string
	league       string
	baselineFile string
	recentFile   string
	pretty       bool
)

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.Flags().StringVarP(&league, "league", "l", "", "League whose thresholds to tune")
	rootCmd.Flags().StringVar(&baselineFile, "baseline", "", "Graded samples for the baseline window (JSON array)")
	rootCmd.Flags().StringVar(&recentFile, "recent", "", "Graded samples for the recent window (JSON array, optional)")
	rootCmd.Flags().BoolVar(&pretty, "pretty", true, "Indent the JSON output")
	rootCmd.MarkFlagRequired("baseline")
}

// tuneOutput is the printed report: the quality windows, the current
// thresholds and the proposal
type tuneOutput struct {
	League      string                    `json:"league,omitempty"`
	Baseline    decision.QualityReport    `json:"baseline"`
	Recent      *decision.QualityReport   `json:"recent,omitempty"`
	BestProbP50 float64                   `json:"best_prob_p50"`
	Current     models.DecisionThresholds `json:"current_thresholds"`
	Proposed    models.DecisionThresholds `json:"proposed_thresholds"`
}

var rootCmd = &cobra.Command{
	Use:   "tune",
	Short: "Tune decision thresholds from graded predictions",
	Long:  `Computes calibration quality (ECE, log loss, accuracy) over graded prediction windows and proposes nudged decision thresholds.`,
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

	baselineSamples, err := readSamples(baselineFile)
	if err != nil {
		return err
	}
	baseline := decision.Assess(baselineSamples)

	var recent *decision.QualityReport
	if recentFile != "" {
		recentSamples, err := readSamples(recentFile)
		if err != nil {
			return err
		}
		r := decision.Assess(recentSamples)
		recent = &r
	}

	current := cfg.ThresholdsFor(league)
	proposed := decision.Tune(current, baseline, recent)

	out := tuneOutput{
		League:      league,
		Baseline:    baseline,
		Recent:      recent,
		BestProbP50: decision.BestProbQuantile(baselineSamples, 0.5),
		Current:     current,
		Proposed:    proposed,
	}

	enc := json.NewEncoder(os.Stdout)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func readSamples(path string) ([]decision.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read samples file %s: %w", path, err)
	}
	var samples []decision.Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("failed to parse samples file %s: %w", path, err)
	}
	return samples, nil
}
