package ensemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
)

func intPtr(v int) *int { return &v }

func bankOutput(homeRated, awayRated bool, classifier *models.OutcomeDistribution) *modelbank.Output {
	return &modelbank.Output{
		Base:       models.OutcomeDistribution{Home: 0.50, Draw: 0.28, Away: 0.22},
		Poisson:    models.OutcomeDistribution{Home: 0.55, Draw: 0.25, Away: 0.20},
		DixonColes: models.OutcomeDistribution{Home: 0.52, Draw: 0.28, Away: 0.20},
		Classifier: classifier,
		HomeRated:  homeRated,
		AwayRated:  awayRated,
	}
}

func TestScheduleWeightsEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		status   models.MatchStatus
		matchday *int
		want     Weights
	}{
		{"live", models.StatusLive, intPtr(20), weightsLive},
		{"prematch unknown", models.StatusPrematch, nil, weightsUnknownMatchday},
		{"early season", models.StatusPrematch, intPtr(3), weightsEarlySeason},
		{"edge six", models.StatusPrematch, intPtr(6), weightsEarlySeason},
		{"mid season", models.StatusPrematch, intPtr(12), weightsMidSeason},
		{"late season", models.StatusPrematch, intPtr(30), weightsMidSeason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScheduleWeights(tt.status, tt.matchday))
		})
	}
}

func TestScheduleWeightsInterpolates(t *testing.T) {
	w := ScheduleWeights(models.StatusPrematch, intPtr(9))

	// Midway between the matchday 6 and 12 endpoints
	assert.InDelta(t, (weightsEarlySeason.Base+weightsMidSeason.Base)/2, w.Base, 1e-9)
	assert.InDelta(t, (weightsEarlySeason.Classifier+weightsMidSeason.Classifier)/2, w.Classifier, 1e-9)

	sum := w.Base + w.Poisson + w.DixonColes + w.Classifier
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRedistributeKeepsProportions(t *testing.T) {
	w := redistribute(weightsEarlySeason)

	assert.Zero(t, w.Classifier)
	sum := w.Base + w.Poisson + w.DixonColes
	assert.InDelta(t, 1.0, sum, 1e-9)

	// Proportions among the surviving three are preserved
	assert.InDelta(t, weightsEarlySeason.Base/weightsEarlySeason.Poisson, w.Base/w.Poisson, 1e-9)
}

func TestBlendProducesValidDistribution(t *testing.T) {
	b := NewBlender(nil)
	mc := &models.MatchContext{Championship: "epl", MatchID: "m", HomeTeam: "h", AwayTeam: "a",
		Status: models.StatusPrematch, Matchday: intPtr(15)}

	res := b.Blend(mc, bankOutput(true, true, &models.OutcomeDistribution{Home: 0.60, Draw: 0.25, Away: 0.15}))
	require.True(t, res.Dist.IsValid())
	assert.Zero(t, res.Shrink)
	assert.Greater(t, res.Dist.Home, res.Dist.Away)
}

func TestBlendShrinkMonotoneInMissingRatings(t *testing.T) {
	b := NewBlender(nil)
	mc := &models.MatchContext{Championship: "epl", MatchID: "m", HomeTeam: "h", AwayTeam: "a",
		Status: models.StatusPrematch, Matchday: intPtr(15)}

	none := b.Blend(mc, bankOutput(true, true, nil))
	one := b.Blend(mc, bankOutput(true, false, nil))
	both := b.Blend(mc, bankOutput(false, false, nil))

	// Missing data strictly moves the blend toward uniform
	assert.GreaterOrEqual(t, none.Dist.DistanceToUniform(), one.Dist.DistanceToUniform())
	assert.GreaterOrEqual(t, one.Dist.DistanceToUniform(), both.Dist.DistanceToUniform())
}

func TestBlendEarlySeasonBonus(t *testing.T) {
	b := NewBlender(map[string]int{"epl": 6})
	early := &models.MatchContext{Championship: "epl", MatchID: "m", HomeTeam: "h", AwayTeam: "a",
		Status: models.StatusPrematch, Matchday: intPtr(2)}
	late := &models.MatchContext{Championship: "epl", MatchID: "m", HomeTeam: "h", AwayTeam: "a",
		Status: models.StatusPrematch, Matchday: intPtr(20)}

	earlyRes := b.Blend(early, bankOutput(true, false, nil))
	lateRes := b.Blend(late, bankOutput(true, false, nil))

	assert.Greater(t, earlyRes.Shrink, lateRes.Shrink)
	assert.LessOrEqual(t, earlyRes.Shrink, shrinkCap)
}

func TestLiveNudgeKeepsDrawFloor(t *testing.T) {
	d := models.OutcomeDistribution{Home: 0.55, Draw: 0.025, Away: 0.425}
	nudged := liveNudge(d, 3)

	require.True(t, nudged.IsValid())
	assert.Greater(t, nudged.Home, d.Home)
	assert.GreaterOrEqual(t, nudged.Draw, liveDrawFloor/2) // floor applied before renormalize
}

func TestGuardrailClampsExtremes(t *testing.T) {
	d := guardrail(models.OutcomeDistribution{Home: 0.97, Draw: 0.02, Away: 0.01})
	require.True(t, d.IsValid())
	assert.LessOrEqual(t, d.Home, guardrailCeil/(guardrailCeil+2*guardrailFloor)+1e-9)
	assert.Greater(t, d.Draw, 0.0)
	assert.Greater(t, d.Away, 0.0)
}

func TestEstimateConfidenceMonotoneInMissingData(t *testing.T) {
	blended := models.OutcomeDistribution{Home: 0.55, Draw: 0.25, Away: 0.20}
	classifier := &models.OutcomeDistribution{Home: 0.54, Draw: 0.26, Away: 0.20}

	full := EstimateConfidence(blended, bankOutput(true, true, classifier), true)
	oneMissing := EstimateConfidence(blended, bankOutput(true, false, classifier), true)
	bothMissing := EstimateConfidence(blended, bankOutput(false, false, classifier), true)
	noClassifier := EstimateConfidence(blended, bankOutput(true, true, nil), true)
	noMatchday := EstimateConfidence(blended, bankOutput(true, true, classifier), false)

	assert.GreaterOrEqual(t, full.Score, oneMissing.Score)
	assert.GreaterOrEqual(t, oneMissing.Score, bothMissing.Score)
	assert.GreaterOrEqual(t, full.Score, noClassifier.Score)
	assert.GreaterOrEqual(t, full.Score, noMatchday.Score)
}

func TestEstimateConfidenceLabels(t *testing.T) {
	// Strong agreement and a wide margin: high confidence
	sharp := &modelbank.Output{
		Base:       models.OutcomeDistribution{Home: 0.75, Draw: 0.15, Away: 0.10},
		Poisson:    models.OutcomeDistribution{Home: 0.74, Draw: 0.16, Away: 0.10},
		DixonColes: models.OutcomeDistribution{Home: 0.76, Draw: 0.14, Away: 0.10},
		Classifier: &models.OutcomeDistribution{Home: 0.75, Draw: 0.15, Away: 0.10},
		HomeRated:  true,
		AwayRated:  true,
	}
	conf := EstimateConfidence(models.OutcomeDistribution{Home: 0.75, Draw: 0.15, Away: 0.10}, sharp, true)
	assert.Equal(t, models.ConfidenceHigh, conf.Label)
	assert.GreaterOrEqual(t, conf.Score, labelHighMin)

	// Near-uniform blend: low confidence
	flatDist := models.OutcomeDistribution{Home: 0.35, Draw: 0.33, Away: 0.32}
	flat := bankOutput(false, false, nil)
	conf = EstimateConfidence(flatDist, flat, false)
	assert.Equal(t, models.ConfidenceLow, conf.Label)
}

func TestOutcomeRangesContainPoint(t *testing.T) {
	d := models.OutcomeDistribution{Home: 0.50, Draw: 0.30, Away: 0.20}
	conf := EstimateConfidence(d, bankOutput(true, false, nil), true)

	assert.LessOrEqual(t, conf.Ranges.Home.Lo, d.Home)
	assert.GreaterOrEqual(t, conf.Ranges.Home.Hi, d.Home)
	assert.LessOrEqual(t, conf.Ranges.Draw.Lo, conf.Ranges.Draw.Hi)
}
