package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/match-oracle/internal/models"
)

func confident(outcome models.Outcome, p float64) Sample {
	rest := (1 - p) / 2
	d := models.OutcomeDistribution{Home: rest, Draw: rest, Away: rest}
	switch outcome {
	case models.OutcomeHome:
		d.Home = p
	case models.OutcomeDraw:
		d.Draw = p
	case models.OutcomeAway:
		d.Away = p
	}
	return Sample{Probs: d, Outcome: outcome}
}

func TestTuneRelaxesOnGoodQuality(t *testing.T) {
	base := models.DefaultThresholds()
	good := QualityReport{ECE: 0.02, LogLoss: 0.90, Accuracy: 0.60, Samples: 500}

	tuned := Tune(base, good, nil)

	assert.Less(t, tuned.MinBestProb, base.MinBestProb)
	assert.Less(t, tuned.MinConf, base.MinConf)
}

func TestTuneTightensOnBadQuality(t *testing.T) {
	base := models.DefaultThresholds()
	bad := QualityReport{ECE: 0.12, LogLoss: 1.20, Accuracy: 0.45, Samples: 500}

	tuned := Tune(base, bad, nil)

	assert.Greater(t, tuned.MinBestProb, base.MinBestProb)
	assert.Greater(t, tuned.MinConf, base.MinConf)
	assert.GreaterOrEqual(t, tuned.TopBestProb, tuned.MinBestProb+models.ThresholdMargin)
	assert.GreaterOrEqual(t, tuned.TopConf, tuned.MinConf+models.ThresholdMargin)
	assert.GreaterOrEqual(t, tuned.TopGap, tuned.MinGap+models.ThresholdMargin)
}

func TestTuneWorseningTrendTightensFurther(t *testing.T) {
	base := models.DefaultThresholds()
	baseline := QualityReport{ECE: 0.06, LogLoss: 1.05, Accuracy: 0.52, Samples: 1000}
	recent := QualityReport{ECE: 0.11, LogLoss: 1.18, Accuracy: 0.44, Samples: 120}

	withoutTrend := Tune(base, baseline, nil)
	withTrend := Tune(base, baseline, &recent)

	assert.Greater(t, withTrend.MinBestProb, withoutTrend.MinBestProb)
	assert.Greater(t, withTrend.MinConf, withoutTrend.MinConf)
}

func TestTuneStaysInsideClamps(t *testing.T) {
	tight := models.DecisionThresholds{
		MinBestProb: 0.70, MinConf: 0.75, MinGap: 0.10,
		TopBestProb: 0.85, TopConf: 0.85, TopGap: 0.15,
	}
	bad := QualityReport{ECE: 0.20, LogLoss: 1.40, Accuracy: 0.40, Samples: 500}
	worse := QualityReport{ECE: 0.30, LogLoss: 1.60, Accuracy: 0.30, Samples: 100}

	tuned := Tune(tight, bad, &worse)

	assert.LessOrEqual(t, tuned.MinBestProb, tuneMinBestHi)
	assert.LessOrEqual(t, tuned.MinConf, tuneMinConfHi)
	assert.LessOrEqual(t, tuned.MinGap, tuneMinGapHi)
}

func TestTuneEmptyWindowIsNeutral(t *testing.T) {
	base := models.DefaultThresholds()
	tuned := Tune(base, QualityReport{}, nil)
	assert.Equal(t, base, tuned)
}

func TestLogLossAndAccuracy(t *testing.T) {
	samples := []Sample{
		confident(models.OutcomeHome, 0.8),
		confident(models.OutcomeAway, 0.8),
		{Probs: confident(models.OutcomeHome, 0.8).Probs, Outcome: models.OutcomeAway},
	}

	assert.InDelta(t, 2.0/3.0, Accuracy(samples), 1e-9)
	assert.Greater(t, LogLoss(samples), 0.0)
}

func TestExpectedCalibrationErrorWellCalibrated(t *testing.T) {
	// 10 predictions at 0.8 confidence with 8 hits: ECE should be ~0
	var samples []Sample
	for i := 0; i < 8; i++ {
		samples = append(samples, confident(models.OutcomeHome, 0.8))
	}
	for i := 0; i < 2; i++ {
		s := confident(models.OutcomeHome, 0.8)
		s.Outcome = models.OutcomeAway
		samples = append(samples, s)
	}

	assert.InDelta(t, 0, ExpectedCalibrationError(samples, eceBins), 1e-9)
}

func TestExpectedCalibrationErrorOverconfident(t *testing.T) {
	// always 0.9 confident but only half right
	var samples []Sample
	for i := 0; i < 10; i++ {
		s := confident(models.OutcomeHome, 0.9)
		if i%2 == 0 {
			s.Outcome = models.OutcomeDraw
		}
		samples = append(samples, s)
	}

	assert.InDelta(t, 0.4, ExpectedCalibrationError(samples, eceBins), 1e-9)
}

func TestBestProbQuantile(t *testing.T) {
	samples := []Sample{
		confident(models.OutcomeHome, 0.5),
		confident(models.OutcomeHome, 0.6),
		confident(models.OutcomeHome, 0.7),
		confident(models.OutcomeHome, 0.8),
		confident(models.OutcomeHome, 0.9),
	}

	assert.InDelta(t, 0.5, BestProbQuantile(samples, 0), 1e-9)
	assert.InDelta(t, 0.7, BestProbQuantile(samples, 0.5), 1e-9)
	assert.InDelta(t, 0.9, BestProbQuantile(samples, 1), 1e-9)
}
