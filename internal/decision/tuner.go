package decision

import (
	"math"
	"sort"

	"github.com/yourusername/match-oracle/internal/models"
)

// Reference points mapping calibration quality to a tuning direction.
// Quality at or beyond the "good" reference relaxes the gate, at or
// beyond the "bad" reference tightens it.
const (
	eceGood     = 0.03
	eceBad      = 0.10
	logLossGood = 0.95
	logLossBad  = 1.15

	tuneStep     = 0.02
	tuneMaxTrend = 0.02

	eceBins = 10
)

// Clamps for the tuned min thresholds. Top thresholds follow via the
// margin invariant.
const (
	tuneMinBestLo = 0.50
	tuneMinBestHi = 0.70
	tuneMinConfLo = 0.45
	tuneMinConfHi = 0.75
	tuneMinGapLo  = 0.02
	tuneMinGapHi  = 0.10
)

// Sample is one graded historical prediction: the calibrated
// distribution that was published and the outcome that occurred.
type Sample struct {
	Probs   models.OutcomeDistribution `json:"probs"`
	Outcome models.Outcome             `json:"outcome"`
}

// QualityReport summarizes calibration quality over a sample window
type QualityReport struct {
	ECE      float64 `json:"ece"`
	LogLoss  float64 `json:"log_loss"`
	Accuracy float64 `json:"accuracy"`
	Samples  int     `json:"samples"`
}

// Assess computes the quality report for a window of graded samples
func Assess(samples []Sample) QualityReport {
	return QualityReport{
		ECE:      ExpectedCalibrationError(samples, eceBins),
		LogLoss:  LogLoss(samples),
		Accuracy: Accuracy(samples),
		Samples:  len(samples),
	}
}

// Tune nudges the per-league thresholds from a baseline quality window,
// tightened further when the recent window is worse than the baseline.
// The tuned values stay inside fixed clamps and the top thresholds are
// lifted afterwards to preserve their margin over the mins.
func Tune(t models.DecisionThresholds, baseline QualityReport, recent *QualityReport) models.DecisionThresholds {
	direction := qualityDirection(baseline)
	delta := tuneStep * direction

	if recent != nil && recent.Samples > 0 {
		delta += tuneMaxTrend * trendFactor(baseline, *recent)
	}

	t.MinBestProb = clampTo(t.MinBestProb+delta, tuneMinBestLo, tuneMinBestHi)
	t.MinConf = clampTo(t.MinConf+delta, tuneMinConfLo, tuneMinConfHi)
	t.MinGap = clampTo(t.MinGap+delta/2, tuneMinGapLo, tuneMinGapHi)
	t.EnforceMargin()
	return t
}

// qualityDirection maps the window quality onto [-1, 1]: negative
// relaxes the gate, positive tightens it
func qualityDirection(q QualityReport) float64 {
	if q.Samples == 0 {
		return 0
	}
	e := linearPosition(q.ECE, eceGood, eceBad)
	l := linearPosition(q.LogLoss, logLossGood, logLossBad)
	return (e + l) / 2
}

// linearPosition places v on [-1, 1] between the good and bad marks
func linearPosition(v, good, bad float64) float64 {
	pos := 2*(v-good)/(bad-good) - 1
	return clampTo(pos, -1, 1)
}

// trendFactor compares the recent window with the baseline: returns a
// value in [0, 1] where 1 means the recent window is markedly worse
func trendFactor(baseline, recent QualityReport) float64 {
	var worse float64
	if recent.ECE > baseline.ECE {
		worse += clampTo((recent.ECE-baseline.ECE)/eceBad, 0, 1)
	}
	if recent.LogLoss > baseline.LogLoss {
		worse += clampTo((recent.LogLoss-baseline.LogLoss)/logLossBad, 0, 1)
	}
	if recent.Accuracy < baseline.Accuracy {
		worse += clampTo(baseline.Accuracy-recent.Accuracy, 0, 1)
	}
	return clampTo(worse/3*2, 0, 1)
}

// ExpectedCalibrationError bins predictions by their best-outcome
// probability and averages the gap between bin confidence and bin
// accuracy, weighted by bin size
func ExpectedCalibrationError(samples []Sample, bins int) float64 {
	if len(samples) == 0 || bins <= 0 {
		return 0
	}

	type bin struct {
		conf, hits, n float64
	}
	table := make([]bin, bins)

	for _, s := range samples {
		ranked := s.Probs.Ranked()
		best := s.Probs.Get(ranked[0])
		idx := int(best * float64(bins))
		if idx >= bins {
			idx = bins - 1
		}
		table[idx].conf += best
		table[idx].n++
		if ranked[0] == s.Outcome {
			table[idx].hits++
		}
	}

	var ece float64
	total := float64(len(samples))
	for _, b := range table {
		if b.n == 0 {
			continue
		}
		ece += (b.n / total) * math.Abs(b.conf/b.n-b.hits/b.n)
	}
	return ece
}

// LogLoss is the mean negative log probability assigned to the outcome
// that occurred
func LogLoss(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		p := math.Max(s.Probs.Get(s.Outcome), 1e-15)
		sum -= math.Log(p)
	}
	return sum / float64(len(samples))
}

// Accuracy is the share of samples whose top-ranked outcome occurred
func Accuracy(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var hits float64
	for _, s := range samples {
		if s.Probs.Ranked()[0] == s.Outcome {
			hits++
		}
	}
	return hits / float64(len(samples))
}

// BestProbQuantile reports the q-quantile of the best-outcome
// probability across the window. The tuner CLI prints it alongside the
// thresholds so an operator can sanity check a proposed min_best_prob.
func BestProbQuantile(samples []Sample, q float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	probs := make([]float64, 0, len(samples))
	for _, s := range samples {
		probs = append(probs, s.Probs.Get(s.Probs.Ranked()[0]))
	}
	sort.Float64s(probs)
	idx := int(clampTo(q, 0, 1) * float64(len(probs)-1))
	return probs[idx]
}

func clampTo(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
