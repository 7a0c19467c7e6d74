package calibration

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-oracle/internal/logger"
	"github.com/yourusername/match-oracle/internal/models"
)

func TestApplyTemperaturePreservesRanking(t *testing.T) {
	d := models.OutcomeDistribution{Home: 0.7, Draw: 0.2, Away: 0.1}

	for _, temp := range []float64{0.5, 1.0, 1.5, 2.0, 4.0} {
		scaled := ApplyTemperature(temp, d)
		require.True(t, scaled.IsValid(), "T=%v", temp)
		assert.Greater(t, scaled.Home, scaled.Draw, "T=%v", temp)
		assert.Greater(t, scaled.Draw, scaled.Away, "T=%v", temp)
	}
}

func TestApplyTemperatureTwo(t *testing.T) {
	// T=2 takes square roots, then renormalizes
	scaled := ApplyTemperature(2.0, models.OutcomeDistribution{Home: 0.7, Draw: 0.2, Away: 0.1})

	assert.InDelta(t, 0.523, scaled.Home, 0.001)
	assert.InDelta(t, 0.280, scaled.Draw, 0.001)
	assert.InDelta(t, 0.198, scaled.Away, 0.001)
}

func TestApplyTemperatureIdentity(t *testing.T) {
	d := models.OutcomeDistribution{Home: 0.5, Draw: 0.3, Away: 0.2}
	scaled := ApplyTemperature(1.0, d)
	assert.InDelta(t, d.Home, scaled.Home, 1e-9)
	assert.InDelta(t, d.Draw, scaled.Draw, 1e-9)
}

func TestApplyPlattRenormalizes(t *testing.T) {
	params := &models.PlattParams{
		Coef:      [3]float64{1, 1, 1},
		Intercept: [3]float64{0, 0, 0},
	}
	artifact := &models.CalibrationArtifact{Kind: models.CalibratorPlatt, Platt: params}

	d := ApplyCalibrator(artifact, models.OutcomeDistribution{Home: 0.6, Draw: 0.25, Away: 0.15})
	require.True(t, d.IsValid())
	assert.Greater(t, d.Home, d.Draw)
	assert.Greater(t, d.Draw, d.Away)
}

func TestApplyDirichletIdentity(t *testing.T) {
	params := &models.DirichletParams{
		Coef:      [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Intercept: [3]float64{0, 0, 0},
	}
	artifact := &models.CalibrationArtifact{Kind: models.CalibratorDirichlet, Dirichlet: params}

	in := models.OutcomeDistribution{Home: 0.55, Draw: 0.30, Away: 0.15}
	out := ApplyCalibrator(artifact, in)

	require.True(t, out.IsValid())
	assert.InDelta(t, in.Home, out.Home, 1e-6)
	assert.InDelta(t, in.Draw, out.Draw, 1e-6)
	assert.InDelta(t, in.Away, out.Away, 1e-6)
}

func TestEffectiveAlpha(t *testing.T) {
	tests := []struct {
		name  string
		alpha float64
		drift models.DriftLevel
		want  float64
	}{
		{"no drift", 0.10, models.DriftOK, 0.10},
		{"warn adds 0.03", 0.10, models.DriftWarn, 0.13},
		{"high adds 0.06", 0.10, models.DriftHigh, 0.16},
		{"cap applies after boost", 0.33, models.DriftHigh, AlphaCap},
		{"already at cap", 0.35, models.DriftOK, AlphaCap},
		{"negative clamps to zero", -0.05, models.DriftOK, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, EffectiveAlpha(tt.alpha, tt.drift), 1e-9)
		})
	}
}

func TestApplyAlphaBlendMovesTowardUniform(t *testing.T) {
	d := models.OutcomeDistribution{Home: 0.7, Draw: 0.2, Away: 0.1}
	blended := ApplyAlphaBlend(0.35, d)

	require.True(t, blended.IsValid())
	assert.Less(t, blended.DistanceToUniform(), d.DistanceToUniform())
	assert.Greater(t, blended.Home, blended.Draw) // ranking preserved
}

func writeCalibrator(t *testing.T, dir, league string, file calibratorFile) {
	t.Helper()
	data, err := json.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, league+".json"), data, 0o644))
}

func TestLoaderCalibratorRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeCalibrator(t, dir, "bundesliga", calibratorFile{
		Method: "platt",
		Platt:  &models.PlattParams{Coef: [3]float64{1.1, 0.9, 1.0}, Intercept: [3]float64{0, 0.1, -0.1}},
	})

	loader := NewLoader(dir, "", "", logger.NewNopLogger())

	artifact := loader.Calibrator("bundesliga")
	require.NotNil(t, artifact)
	assert.Equal(t, models.CalibratorPlatt, artifact.Kind)
	assert.NotEqual(t, VersionMissing, loader.CalibratorVersion("bundesliga"))

	assert.Nil(t, loader.Calibrator("unknown-league"))
	assert.Equal(t, VersionMissing, loader.CalibratorVersion("unknown-league"))
}

func TestLoaderTablesConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	tempFile := filepath.Join(dir, "temperature.json")
	require.NoError(t, os.WriteFile(tempFile, []byte(`{"epl": 1.4}`), 0o644))
	alphaFile := filepath.Join(dir, "alpha.json")
	require.NoError(t, os.WriteFile(alphaFile, []byte(`{"epl": 0.10}`), 0o644))

	loader := NewLoader(dir, tempFile, alphaFile, logger.NewNopLogger())

	// First reads after startup arrive from concurrent requests; the
	// lazy table load must be safe under the race detector.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			temp, ok := loader.Temperature("epl")
			assert.True(t, ok)
			assert.InDelta(t, 1.4, temp, 1e-9)

			alpha, ok := loader.Alpha("epl")
			assert.True(t, ok)
			assert.InDelta(t, 0.10, alpha, 1e-9)
		}()
	}
	wg.Wait()
}

func TestLoaderRejectsUnknownMethod(t *testing.T) {
	dir := t.TempDir()
	writeCalibrator(t, dir, "eredivisie", calibratorFile{Method: "isotonic"})

	loader := NewLoader(dir, "", "", logger.NewNopLogger())
	assert.Nil(t, loader.Calibrator("eredivisie"))
}

func TestPipelineSkipsAbsentStages(t *testing.T) {
	loader := NewLoader(t.TempDir(), "", "", logger.NewNopLogger())
	pipeline := NewPipeline(loader, nil, logger.NewNopLogger())

	in := models.OutcomeDistribution{Home: 0.6, Draw: 0.25, Away: 0.15}
	expl := &models.Explanation{}
	out := pipeline.Apply(context.Background(), "epl", in, expl)

	require.True(t, out.IsValid())
	assert.InDelta(t, in.Home, out.Home, 1e-9)
	assert.True(t, expl.HasFlag(models.FlagNotCalibrated))
	assert.Len(t, expl.CalibrationStages, 3)
}

func TestPipelineAlphaWithDriftBoost(t *testing.T) {
	dir := t.TempDir()
	alphaFile := filepath.Join(dir, "alpha.json")
	require.NoError(t, os.WriteFile(alphaFile, []byte(`{"epl": 0.10}`), 0o644))
	driftFile := filepath.Join(dir, "drift.json")
	require.NoError(t, os.WriteFile(driftFile, []byte(`{"epl": {"level": "high"}}`), 0o644))

	loader := NewLoader(t.TempDir(), "", alphaFile, logger.NewNopLogger())
	drift := NewDriftMonitor(driftFile, "", logger.NewNopLogger())
	pipeline := NewPipeline(loader, drift, logger.NewNopLogger())

	in := models.OutcomeDistribution{Home: 0.7, Draw: 0.2, Away: 0.1}
	expl := &models.Explanation{}
	out := pipeline.Apply(context.Background(), "epl", in, expl)

	require.True(t, out.IsValid())
	assert.Less(t, out.DistanceToUniform(), in.DistanceToUniform())
	assert.True(t, expl.HasFlag(models.FlagDriftBoost))
}

func TestDriftMonitorDegradesToOK(t *testing.T) {
	m := NewDriftMonitor(filepath.Join(t.TempDir(), "absent.json"), "", logger.NewNopLogger())
	status := m.Status(context.Background(), "epl")
	assert.Equal(t, models.DriftOK, status.Level)
}
