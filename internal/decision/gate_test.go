package decision

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
)

func TestEvaluatePassesMinsButScoresGradeD(t *testing.T) {
	// 0.60 best and 0.35 gap clear the default mins, but the composite
	// 0.65*0.60 + 0.35*0.62 = 0.607 falls under the C cutoff, so the
	// grade demotes the pick to a no-bet anyway.
	dist := models.OutcomeDistribution{Home: 0.60, Draw: 0.25, Away: 0.15}

	rec := Evaluate(dist, 0.62, models.DefaultThresholds())

	assert.InDelta(t, 0.607, rec.Score, 1e-9)
	assert.Equal(t, GradeD, rec.Grade)
	assert.True(t, rec.NoBet)
	assert.Equal(t, RiskHigh, rec.Risk)
	assert.Equal(t, models.OutcomeHome, rec.Pick)
}

func TestEvaluateGradeA(t *testing.T) {
	dist := models.OutcomeDistribution{Home: 0.74, Draw: 0.16, Away: 0.10}

	rec := Evaluate(dist, 0.80, models.DefaultThresholds())

	assert.Equal(t, GradeA, rec.Grade)
	assert.False(t, rec.NoBet)
	assert.Equal(t, RiskLow, rec.Risk)
}

func TestEvaluateGradeBAndC(t *testing.T) {
	thresholds := models.DefaultThresholds()

	// score = 0.65*0.68 + 0.35*0.66 = 0.673 -> C (misses the A gate on conf)
	recC := Evaluate(models.OutcomeDistribution{Home: 0.68, Draw: 0.20, Away: 0.12}, 0.66, thresholds)
	assert.Equal(t, GradeC, recC.Grade)
	assert.False(t, recC.NoBet)
	assert.Equal(t, RiskMedium, recC.Risk)

	// score = 0.65*0.75 + 0.35*0.69 = 0.729 -> B (conf blocks the A gate)
	recB := Evaluate(models.OutcomeDistribution{Home: 0.75, Draw: 0.15, Away: 0.10}, 0.69, thresholds)
	assert.Equal(t, GradeB, recB.Grade)
	assert.False(t, recB.NoBet)
}

func TestEvaluateConfBelowMinIsNoBet(t *testing.T) {
	dist := models.OutcomeDistribution{Home: 0.74, Draw: 0.16, Away: 0.10}

	rec := Evaluate(dist, 0.40, models.DefaultThresholds())
	assert.True(t, rec.NoBet)
	assert.Equal(t, GradeD, rec.Grade)
}

func TestEvaluateGapBelowMinIsNoBet(t *testing.T) {
	loose := models.DefaultThresholds()
	loose.MinBestProb = 0.40
	loose.MinGap = 0.05

	dist := models.OutcomeDistribution{Home: 0.42, Draw: 0.40, Away: 0.18}

	rec := Evaluate(dist, 0.80, loose)
	assert.True(t, rec.NoBet)
	assert.Equal(t, GradeD, rec.Grade)
}

func TestFairOdds(t *testing.T) {
	dist := models.OutcomeDistribution{Home: 0.74, Draw: 0.16, Away: 0.10}

	rec := Evaluate(dist, 0.80, models.DefaultThresholds())
	assert.True(t, rec.FairOdds.Equal(decimal.NewFromFloat(1.351)), "got %s", rec.FairOdds)
}

func TestAdjustThresholdsNonDecreasingAcrossBands(t *testing.T) {
	base := models.DefaultThresholds()

	prev := AdjustThresholds(base, 40)
	assert.Equal(t, base, prev, "below the first band nothing changes")

	for _, chaos := range []float64{55, 70, 85, 100} {
		next := AdjustThresholds(base, chaos)

		assert.GreaterOrEqual(t, next.MinBestProb, prev.MinBestProb, "chaos=%v", chaos)
		assert.GreaterOrEqual(t, next.MinConf, prev.MinConf, "chaos=%v", chaos)
		assert.GreaterOrEqual(t, next.MinGap, prev.MinGap, "chaos=%v", chaos)
		assert.GreaterOrEqual(t, next.TopBestProb, prev.TopBestProb, "chaos=%v", chaos)
		assert.GreaterOrEqual(t, next.TopConf, prev.TopConf, "chaos=%v", chaos)
		assert.GreaterOrEqual(t, next.TopGap, prev.TopGap, "chaos=%v", chaos)

		prev = next
	}
}

func TestAdjustThresholdsRespectsCaps(t *testing.T) {
	high := models.DecisionThresholds{
		MinBestProb: 0.69, MinConf: 0.74, MinGap: 0.09,
		TopBestProb: 0.84, TopConf: 0.84, TopGap: 0.14,
	}

	adjusted := AdjustThresholds(high, 95)

	assert.LessOrEqual(t, adjusted.MinBestProb, capMinBestProb)
	assert.LessOrEqual(t, adjusted.MinConf, capMinConf)
	assert.LessOrEqual(t, adjusted.MinGap, capMinGap)
	assert.LessOrEqual(t, adjusted.TopBestProb, capTopBestProb)
	assert.LessOrEqual(t, adjusted.TopConf, capTopConf)
	assert.LessOrEqual(t, adjusted.TopGap, capTopGap)
}

func TestAdjustThresholdsNeverLowers(t *testing.T) {
	past := models.DecisionThresholds{
		MinBestProb: 0.72, MinConf: 0.78, MinGap: 0.12,
		TopBestProb: 0.88, TopConf: 0.88, TopGap: 0.18,
	}

	adjusted := AdjustThresholds(past, 90)
	assert.Equal(t, past, adjusted, "values already past their caps stay put")
}

func TestChaosIndex(t *testing.T) {
	mc := &models.MatchContext{Features: map[string]float64{
		modelbank.FeatDaysRestHome:    2,
		modelbank.FeatDaysRestAway:    7,
		modelbank.FeatScoringVariance: 1.8,
	}}

	index, ok := ChaosIndex(mc)
	require.True(t, ok)
	// gap 5d -> 30 (capped), congestion 3d short -> 24, variance -> 36
	assert.InDelta(t, 90, index, 1e-9)
}

func TestChaosIndexNoFeatures(t *testing.T) {
	_, ok := ChaosIndex(&models.MatchContext{})
	assert.False(t, ok)
}

func TestChaosIndexClampedToHundred(t *testing.T) {
	mc := &models.MatchContext{Features: map[string]float64{
		modelbank.FeatDaysRestHome:    1,
		modelbank.FeatDaysRestAway:    10,
		modelbank.FeatScoringVariance: 5,
	}}

	index, ok := ChaosIndex(mc)
	require.True(t, ok)
	assert.InDelta(t, 100, index, 1e-9)
}
