package decision

import (
	"math"

	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
)

// Chaos bands and the per-band threshold deltas
const (
	chaosBandMild     = 55
	chaosBandElevated = 70
	chaosBandSevere   = 85

	chaosDeltaMild     = 0.02
	chaosDeltaElevated = 0.04
	chaosDeltaSevere   = 0.06
)

// Hard ceilings the adjusted thresholds never exceed
const (
	capMinBestProb = 0.70
	capMinConf     = 0.75
	capMinGap      = 0.10
	capTopBestProb = 0.85
	capTopConf     = 0.85
	capTopGap      = 0.15
)

// Component weights of the chaos index
const (
	chaosRestGapPerDay    = 6.0
	chaosRestGapMax       = 30.0
	chaosCongestionPerDay = 8.0
	chaosCongestionMax    = 30.0
	chaosComfortRestDays  = 5.0
	chaosVarianceScale    = 20.0
	chaosVarianceMax      = 40.0
)

// ChaosIndex scores match volatility on a 0-100 scale from scheduling
// and scoring features: the rest-day gap between the sides, fixture
// congestion (how little rest the fresher side's opponent had), and
// recent scoring variance. Returns false when none of the contributing
// features are present.
func ChaosIndex(mc *models.MatchContext) (float64, bool) {
	var index float64
	var any bool

	restH, okH := mc.Feature(modelbank.FeatDaysRestHome)
	restA, okA := mc.Feature(modelbank.FeatDaysRestAway)
	if okH && okA {
		any = true
		gap := math.Abs(restH - restA)
		index += math.Min(gap*chaosRestGapPerDay, chaosRestGapMax)

		shortest := math.Min(restH, restA)
		if shortest < chaosComfortRestDays {
			index += math.Min((chaosComfortRestDays-shortest)*chaosCongestionPerDay, chaosCongestionMax)
		}
	}

	if v, ok := mc.Feature(modelbank.FeatScoringVariance); ok {
		any = true
		index += math.Min(math.Max(v, 0)*chaosVarianceScale, chaosVarianceMax)
	}

	if !any {
		return 0, false
	}
	return math.Min(math.Max(index, 0), 100), true
}

// AdjustThresholds tightens the gate for volatile matches. Each band
// adds a fixed delta to the min thresholds and half of it to the top
// thresholds; adjustment only ever raises a threshold, and each stops
// at its documented cap.
func AdjustThresholds(t models.DecisionThresholds, chaos float64) models.DecisionThresholds {
	var delta float64
	switch {
	case chaos >= chaosBandSevere:
		delta = chaosDeltaSevere
	case chaos >= chaosBandElevated:
		delta = chaosDeltaElevated
	case chaos >= chaosBandMild:
		delta = chaosDeltaMild
	default:
		return t
	}

	t.MinBestProb = raiseTo(t.MinBestProb, delta, capMinBestProb)
	t.MinConf = raiseTo(t.MinConf, delta, capMinConf)
	t.MinGap = raiseTo(t.MinGap, delta, capMinGap)
	t.TopBestProb = raiseTo(t.TopBestProb, delta/2, capTopBestProb)
	t.TopConf = raiseTo(t.TopConf, delta/2, capTopConf)
	t.TopGap = raiseTo(t.TopGap, delta/2, capTopGap)
	return t
}

// raiseTo adds delta up to the cap, never lowering the current value
func raiseTo(current, delta, cap float64) float64 {
	next := math.Min(current+delta, cap)
	return math.Max(next, current)
}
