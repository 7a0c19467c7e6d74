package calibration

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/models"
)

// Stage names recorded in the explanation provenance
const (
	StageCalibrator  = "calibrator"
	StageTemperature = "temperature"
	StageAlpha       = "alpha"
)

// Pipeline runs the three calibration stages in fixed order. Each stage
// is independently skippable when its artifact or table entry is
// absent; a skip is recorded, never raised.
type Pipeline struct {
	loader *Loader
	drift  *DriftMonitor
	logger *logrus.Logger
}

// NewPipeline creates the calibration pipeline
func NewPipeline(loader *Loader, drift *DriftMonitor, logger *logrus.Logger) *Pipeline {
	return &Pipeline{loader: loader, drift: drift, logger: logger}
}

// Apply calibrates the distribution for a league, recording stage
// provenance and degradation flags on the explanation
func (p *Pipeline) Apply(ctx context.Context, league string, d models.OutcomeDistribution, expl *models.Explanation) models.OutcomeDistribution {
	// Stage 1: trained calibrator
	if artifact := p.loader.Calibrator(league); artifact != nil {
		next := ApplyCalibrator(artifact, d)
		if next.IsValid() {
			d = next
			expl.CalibrationStages = append(expl.CalibrationStages,
				fmt.Sprintf("%s:%s@%s", StageCalibrator, artifact.Kind, artifact.Version))
			metrics.RecordCalibrationStage(StageCalibrator, "applied")
		} else {
			d = models.UniformDistribution()
			expl.AddFlag(models.FlagMalformedReset)
			metrics.RecordCalibrationStage(StageCalibrator, "reset")
		}
	} else {
		expl.AddFlag(models.FlagNotCalibrated)
		expl.CalibrationStages = append(expl.CalibrationStages, StageCalibrator+":skipped")
		metrics.RecordCalibrationStage(StageCalibrator, "skipped")
	}

	// Stage 2: temperature scaling
	if t, ok := p.loader.Temperature(league); ok {
		d = ApplyTemperature(t, d)
		expl.CalibrationStages = append(expl.CalibrationStages,
			fmt.Sprintf("%s:T=%.3f", StageTemperature, t))
		metrics.RecordCalibrationStage(StageTemperature, "applied")
	} else {
		expl.CalibrationStages = append(expl.CalibrationStages, StageTemperature+":skipped")
		metrics.RecordCalibrationStage(StageTemperature, "skipped")
	}

	// Stage 3: in-season alpha blend, drift-boosted
	if alpha, ok := p.loader.Alpha(league); ok {
		drift := models.DriftStatus{Level: models.DriftOK}
		if p.drift != nil {
			drift = p.drift.Status(ctx, league)
		}
		effective := EffectiveAlpha(alpha, drift.Level)
		if drift.Level != models.DriftOK {
			expl.AddFlag(models.FlagDriftBoost)
		}
		d = ApplyAlphaBlend(effective, d)
		expl.CalibrationStages = append(expl.CalibrationStages,
			fmt.Sprintf("%s:a=%.3f,drift=%s", StageAlpha, effective, drift.Level))
		metrics.RecordCalibrationStage(StageAlpha, "applied")
	} else {
		expl.CalibrationStages = append(expl.CalibrationStages, StageAlpha+":skipped")
		metrics.RecordCalibrationStage(StageAlpha, "skipped")
	}

	// A valid three-way distribution is the one non-negotiable output
	if !d.IsValid() {
		expl.AddFlag(models.FlagMalformedReset)
		return models.UniformDistribution()
	}
	return d
}

// Versions reports the calibrator version stamp used for cache keying
func (p *Pipeline) Versions(league string) string {
	return p.loader.CalibratorVersion(league)
}
