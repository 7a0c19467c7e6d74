// Package decision converts a calibrated distribution and confidence
// score into a graded bet/no-bet recommendation against per-league
// thresholds, optionally tightened by a volatility ("chaos") index.
package decision

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/match-oracle/internal/models"
)

// Composite score weights and grade cutoffs
const (
	scoreWeightBest = 0.65
	scoreWeightConf = 0.35
	gradeBMin       = 0.72
	gradeCMin       = 0.62
)

// Grades and risk labels
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"

	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// Evaluate grades a calibrated prediction. Thresholds are passed in
// explicitly; the gate holds no configuration of its own.
func Evaluate(dist models.OutcomeDistribution, confidence float64, t models.DecisionThresholds) models.Recommendation {
	ranked := dist.Ranked()
	best := dist.Get(ranked[0])
	second := dist.Get(ranked[1])
	gap := best - second

	noBet := best < t.MinBestProb || confidence < t.MinConf || gap < t.MinGap
	score := scoreWeightBest*best + scoreWeightConf*confidence

	grade := GradeD
	switch {
	case noBet:
		grade = GradeD
	case best >= t.TopBestProb && confidence >= t.TopConf && gap >= t.TopGap:
		grade = GradeA
	case score >= gradeBMin:
		grade = GradeB
	case score >= gradeCMin:
		grade = GradeC
	}

	finalNoBet := noBet || grade == GradeD

	risk := RiskMedium
	switch {
	case finalNoBet:
		risk = RiskHigh
	case grade == GradeA:
		risk = RiskLow
	}

	return models.Recommendation{
		NoBet:    finalNoBet,
		Grade:    grade,
		Score:    score,
		Risk:     risk,
		Pick:     ranked[0],
		FairOdds: fairOdds(best),
	}
}

// fairOdds returns the zero-margin decimal odds implied by the best
// outcome probability
func fairOdds(p float64) decimal.Decimal {
	if p <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(1).DivRound(decimal.NewFromFloat(p), 3)
}
