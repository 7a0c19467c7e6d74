package models

import (
	"math"
)

// NormalizationTolerance is the maximum allowed deviation of a
// distribution's sum from 1.
const NormalizationTolerance = 1e-6

// Outcome identifies one of the three 1X2 outcomes
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// OutcomeDistribution is a three-way probability distribution over
// home win, draw and away win. Every producer must leave it normalized.
type OutcomeDistribution struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

// UniformDistribution returns the maximum-entropy 1X2 distribution
func UniformDistribution() OutcomeDistribution {
	third := 1.0 / 3.0
	return OutcomeDistribution{Home: third, Draw: third, Away: third}
}

// Sum returns the total probability mass
func (d OutcomeDistribution) Sum() float64 {
	return d.Home + d.Draw + d.Away
}

// IsValid reports whether all three values are finite, non-negative
// and sum to 1 within NormalizationTolerance
func (d OutcomeDistribution) IsValid() bool {
	for _, p := range []float64{d.Home, d.Draw, d.Away} {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 || p > 1 {
			return false
		}
	}
	return math.Abs(d.Sum()-1) <= NormalizationTolerance
}

// Normalized returns the distribution rescaled to sum 1. Non-finite or
// non-positive mass resets to uniform, per the malformed-input policy.
func (d OutcomeDistribution) Normalized() OutcomeDistribution {
	sum := d.Sum()
	if math.IsNaN(sum) || math.IsInf(sum, 0) || sum <= 0 ||
		d.Home < 0 || d.Draw < 0 || d.Away < 0 {
		return UniformDistribution()
	}
	return OutcomeDistribution{Home: d.Home / sum, Draw: d.Draw / sum, Away: d.Away / sum}
}

// Get returns the probability of a single outcome
func (d OutcomeDistribution) Get(o Outcome) float64 {
	switch o {
	case OutcomeHome:
		return d.Home
	case OutcomeDraw:
		return d.Draw
	case OutcomeAway:
		return d.Away
	}
	return 0
}

// Ranked returns the three outcomes in descending probability order
func (d OutcomeDistribution) Ranked() [3]Outcome {
	out := [3]Outcome{OutcomeHome, OutcomeDraw, OutcomeAway}
	probs := [3]float64{d.Home, d.Draw, d.Away}
	for i := 0; i < 2; i++ {
		for j := i + 1; j < 3; j++ {
			if probs[j] > probs[i] {
				probs[i], probs[j] = probs[j], probs[i]
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

// Best returns the most likely outcome and its probability
func (d OutcomeDistribution) Best() (Outcome, float64) {
	ranked := d.Ranked()
	return ranked[0], d.Get(ranked[0])
}

// Margin returns the gap between the two most likely outcomes
func (d OutcomeDistribution) Margin() float64 {
	ranked := d.Ranked()
	return d.Get(ranked[0]) - d.Get(ranked[1])
}

// DistanceToUniform returns the L1 distance from the uniform distribution
func (d OutcomeDistribution) DistanceToUniform() float64 {
	u := UniformDistribution()
	return math.Abs(d.Home-u.Home) + math.Abs(d.Draw-u.Draw) + math.Abs(d.Away-u.Away)
}

// Blend returns (1-alpha)*d + alpha*other, renormalized
func (d OutcomeDistribution) Blend(other OutcomeDistribution, alpha float64) OutcomeDistribution {
	return OutcomeDistribution{
		Home: (1-alpha)*d.Home + alpha*other.Home,
		Draw: (1-alpha)*d.Draw + alpha*other.Draw,
		Away: (1-alpha)*d.Away + alpha*other.Away,
	}.Normalized()
}
