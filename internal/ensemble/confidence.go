package ensemble

import (
	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
)

// Data-quality multipliers
const (
	qualityOneRatingMissing   = 0.85
	qualityBothRatingsMissing = 0.70
	qualityMatchdayUnknown    = 0.85
	qualityClassifierMissing  = 0.90
)

// Confidence score normalization and label thresholds
const (
	confidenceDivisor = 0.60
	labelHighMin      = 0.70
	labelMediumMin    = 0.40
)

// Range geometry
const (
	rangeBaseHalfWidth = 0.10
	rangeVolHalfWidth  = 0.05
	rangeFloor         = 0.03
	rangeCeil          = 0.90
)

// Confidence is the scalar score, its label, the per-outcome ranges and
// the intermediate quantities surfaced in the explanation
type Confidence struct {
	Score       float64
	Label       models.ConfidenceLabel
	Ranges      models.OutcomeRanges
	Variance    float64
	DataQuality float64
}

// EstimateConfidence derives confidence from inter-model disagreement,
// the margin of the blended distribution, and data-quality penalties
func EstimateConfidence(blended models.OutcomeDistribution, out *modelbank.Output, matchdayKnown bool) Confidence {
	variance := interModelVariance(out)

	quality := 1.0
	switch out.MissingRatings() {
	case 1:
		quality *= qualityOneRatingMissing
	case 2:
		quality *= qualityBothRatingsMissing
	}
	if !matchdayKnown {
		quality *= qualityMatchdayUnknown
	}
	if out.Classifier == nil {
		quality *= qualityClassifierMissing
	}

	margin := blended.Margin()
	raw := margin * (1 - variance) * quality
	score := clamp(raw/confidenceDivisor, 0, 1)

	label := models.ConfidenceLow
	switch {
	case score >= labelHighMin:
		label = models.ConfidenceHigh
	case score >= labelMediumMin:
		label = models.ConfidenceMedium
	}

	return Confidence{
		Score:       score,
		Label:       label,
		Ranges:      outcomeRanges(blended, variance, quality),
		Variance:    variance,
		DataQuality: quality,
	}
}

// interModelVariance averages, over the three outcomes, the variance of
// the contributing model distributions
func interModelVariance(out *modelbank.Output) float64 {
	dists := []models.OutcomeDistribution{out.Base, out.Poisson, out.DixonColes}
	if out.Classifier != nil {
		dists = append(dists, *out.Classifier)
	}

	var total float64
	for _, outcome := range []models.Outcome{models.OutcomeHome, models.OutcomeDraw, models.OutcomeAway} {
		var mean float64
		for _, d := range dists {
			mean += d.Get(outcome)
		}
		mean /= float64(len(dists))

		var v float64
		for _, d := range dists {
			diff := d.Get(outcome) - mean
			v += diff * diff
		}
		total += v / float64(len(dists))
	}
	return total / 3
}

// outcomeRanges builds the volatility-scaled uncertainty intervals
func outcomeRanges(d models.OutcomeDistribution, variance, quality float64) models.OutcomeRanges {
	volatility := clamp(2*variance+0.5*(1-quality), 0, 1)
	halfWidth := rangeBaseHalfWidth + rangeVolHalfWidth*volatility

	rangeFor := func(p float64) models.OutcomeRange {
		return models.OutcomeRange{
			Lo: clamp(p-halfWidth*volatility, rangeFloor, rangeCeil),
			Hi: clamp(p+halfWidth*volatility, rangeFloor, rangeCeil),
		}
	}
	return models.OutcomeRanges{
		Home: rangeFor(d.Home),
		Draw: rangeFor(d.Draw),
		Away: rangeFor(d.Away),
	}
}
