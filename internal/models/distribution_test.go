package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedResetsOnBadMass(t *testing.T) {
	tests := []struct {
		name string
		in   OutcomeDistribution
	}{
		{"zero mass", OutcomeDistribution{}},
		{"negative component", OutcomeDistribution{Home: 0.8, Draw: -0.1, Away: 0.3}},
		{"nan", OutcomeDistribution{Home: math.NaN(), Draw: 0.3, Away: 0.3}},
		{"inf", OutcomeDistribution{Home: math.Inf(1), Draw: 0.3, Away: 0.3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, UniformDistribution(), tt.in.Normalized())
		})
	}
}

func TestNormalizedRescales(t *testing.T) {
	d := OutcomeDistribution{Home: 2, Draw: 1, Away: 1}.Normalized()
	assert.True(t, d.IsValid())
	assert.InDelta(t, 0.5, d.Home, 1e-9)
}

func TestRankedOrder(t *testing.T) {
	d := OutcomeDistribution{Home: 0.2, Draw: 0.5, Away: 0.3}
	ranked := d.Ranked()
	assert.Equal(t, [3]Outcome{OutcomeDraw, OutcomeAway, OutcomeHome}, ranked)

	best, p := d.Best()
	assert.Equal(t, OutcomeDraw, best)
	assert.InDelta(t, 0.5, p, 1e-9)
	assert.InDelta(t, 0.2, d.Margin(), 1e-9)
}

func TestUniformProperties(t *testing.T) {
	u := UniformDistribution()
	assert.True(t, u.IsValid())
	assert.Zero(t, u.DistanceToUniform())
	assert.Zero(t, u.Margin())
}

func TestBlendEndpoints(t *testing.T) {
	d := OutcomeDistribution{Home: 0.6, Draw: 0.25, Away: 0.15}
	u := UniformDistribution()

	assert.InDelta(t, d.Home, d.Blend(u, 0).Home, 1e-9)
	assert.InDelta(t, u.Home, d.Blend(u, 1).Home, 1e-9)

	mid := d.Blend(u, 0.5)
	assert.True(t, mid.IsValid())
	assert.Less(t, mid.DistanceToUniform(), d.DistanceToUniform())
}

func TestExplanationFlags(t *testing.T) {
	var e Explanation
	e.AddFlag(FlagSafeMode)
	e.AddFlag(FlagSafeMode)
	assert.Len(t, e.Flags, 1)
	assert.True(t, e.HasFlag(FlagSafeMode))
	assert.False(t, e.HasFlag(FlagCacheHit))
}

func TestThresholdsEnforceMargin(t *testing.T) {
	th := DecisionThresholds{
		MinBestProb: 0.60, MinConf: 0.60, MinGap: 0.06,
		TopBestProb: 0.62, TopConf: 0.70, TopGap: 0.08,
	}
	th.EnforceMargin()
	assert.InDelta(t, 0.65, th.TopBestProb, 1e-9)
	assert.InDelta(t, 0.70, th.TopConf, 1e-9)
	assert.InDelta(t, 0.11, th.TopGap, 1e-9)
}
