// Package ensemble blends the model bank's distributions under a
// phase-dependent weight schedule and derives a confidence score from
// inter-model disagreement.
package ensemble

import (
	"math"

	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
)

// Guardrail clamp applied to every blended outcome before renormalizing
const (
	guardrailFloor = 0.03
	guardrailCeil  = 0.90
)

// Uniform shrink factors for missing team ratings
const (
	shrinkOneMissing  = 0.75
	shrinkBothMissing = 0.85
	shrinkCap         = 0.95
	earlySeasonBonus  = 0.05
)

// defaultEarlySeasonCap is the matchday below which the early-season
// bonus applies when a league has no configured cap
const defaultEarlySeasonCap = 6

// liveDrawFloor keeps a residual draw probability while nudging a live
// distribution toward the leading side
const liveDrawFloor = 0.02

// Weights is the per-model weight vector of the blend
type Weights struct {
	Base       float64 `json:"base"`
	Poisson    float64 `json:"poisson"`
	DixonColes float64 `json:"dixoncoles"`
	Classifier float64 `json:"classifier"`
}

// Map returns the weights keyed by model name
func (w Weights) Map() map[string]float64 {
	return map[string]float64{
		modelbank.ModelBase:       w.Base,
		modelbank.ModelPoisson:    w.Poisson,
		modelbank.ModelDixonColes: w.DixonColes,
		modelbank.ModelClassifier: w.Classifier,
	}
}

// Phase endpoints of the weight schedule
var (
	weightsLive            = Weights{Base: 0.20, Poisson: 0.50, DixonColes: 0.25, Classifier: 0.05}
	weightsUnknownMatchday = Weights{Base: 0.35, Poisson: 0.32, DixonColes: 0.23, Classifier: 0.10}
	weightsEarlySeason     = Weights{Base: 0.25, Poisson: 0.25, DixonColes: 0.20, Classifier: 0.30}
	weightsMidSeason       = Weights{Base: 0.30, Poisson: 0.35, DixonColes: 0.25, Classifier: 0.10}
)

// Matchday interpolation window between the early and mid season endpoints
const (
	earlySeasonEdge = 6
	midSeasonEdge   = 12
)

// ScheduleWeights selects the weight vector for a match phase. Matchdays
// strictly between the two edges interpolate linearly.
func ScheduleWeights(status models.MatchStatus, matchday *int) Weights {
	if status == models.StatusLive {
		return weightsLive
	}
	if matchday == nil {
		return weightsUnknownMatchday
	}
	md := *matchday
	switch {
	case md <= earlySeasonEdge:
		return weightsEarlySeason
	case md >= midSeasonEdge:
		return weightsMidSeason
	default:
		t := float64(md-earlySeasonEdge) / float64(midSeasonEdge-earlySeasonEdge)
		return Weights{
			Base:       lerp(weightsEarlySeason.Base, weightsMidSeason.Base, t),
			Poisson:    lerp(weightsEarlySeason.Poisson, weightsMidSeason.Poisson, t),
			DixonColes: lerp(weightsEarlySeason.DixonColes, weightsMidSeason.DixonColes, t),
			Classifier: lerp(weightsEarlySeason.Classifier, weightsMidSeason.Classifier, t),
		}
	}
}

// redistribute folds the classifier weight proportionally into the
// remaining three models when the classifier is unavailable
func redistribute(w Weights) Weights {
	rest := w.Base + w.Poisson + w.DixonColes
	if rest <= 0 {
		return Weights{Base: 1.0 / 3.0, Poisson: 1.0 / 3.0, DixonColes: 1.0 / 3.0}
	}
	scale := (rest + w.Classifier) / rest
	return Weights{
		Base:       w.Base * scale,
		Poisson:    w.Poisson * scale,
		DixonColes: w.DixonColes * scale,
		Classifier: 0,
	}
}

// Blender combines the model bank output into a single distribution
type Blender struct {
	earlySeasonCaps map[string]int
}

// NewBlender creates a blender with per-league early-season caps
func NewBlender(earlySeasonCaps map[string]int) *Blender {
	return &Blender{earlySeasonCaps: earlySeasonCaps}
}

// Result carries the blended distribution and the weights actually used
type Result struct {
	Dist    models.OutcomeDistribution
	Weights Weights
	Shrink  float64
}

// Blend produces the ensemble distribution for one match
func (b *Blender) Blend(mc *models.MatchContext, out *modelbank.Output) Result {
	weights := ScheduleWeights(mc.Status, mc.Matchday)
	if out.Classifier == nil {
		weights = redistribute(weights)
	}

	dist := models.OutcomeDistribution{
		Home: weights.Base*out.Base.Home + weights.Poisson*out.Poisson.Home + weights.DixonColes*out.DixonColes.Home,
		Draw: weights.Base*out.Base.Draw + weights.Poisson*out.Poisson.Draw + weights.DixonColes*out.DixonColes.Draw,
		Away: weights.Base*out.Base.Away + weights.Poisson*out.Poisson.Away + weights.DixonColes*out.DixonColes.Away,
	}
	if out.Classifier != nil {
		dist.Home += weights.Classifier * out.Classifier.Home
		dist.Draw += weights.Classifier * out.Classifier.Draw
		dist.Away += weights.Classifier * out.Classifier.Away
	}

	dist = guardrail(dist)

	shrink := b.shrinkFactor(mc, out)
	if shrink > 0 {
		dist = dist.Blend(models.UniformDistribution(), shrink)
	}

	if mc.IsLive() {
		dist = liveNudge(dist, mc.HomeGoals-mc.AwayGoals)
	}

	return Result{Dist: dist.Normalized(), Weights: weights, Shrink: shrink}
}

// guardrail clamps each outcome to [0.03, 0.90] and renormalizes
func guardrail(d models.OutcomeDistribution) models.OutcomeDistribution {
	return models.OutcomeDistribution{
		Home: clamp(d.Home, guardrailFloor, guardrailCeil),
		Draw: clamp(d.Draw, guardrailFloor, guardrailCeil),
		Away: clamp(d.Away, guardrailFloor, guardrailCeil),
	}.Normalized()
}

// shrinkFactor computes the uniform-shrink applied for missing ratings,
// with the early-season bonus for prematch matches below the league cap
func (b *Blender) shrinkFactor(mc *models.MatchContext, out *modelbank.Output) float64 {
	var shrink float64
	switch out.MissingRatings() {
	case 0:
		return 0
	case 1:
		shrink = shrinkOneMissing
	default:
		shrink = shrinkBothMissing
	}

	if mc.Status == models.StatusPrematch && mc.Matchday != nil {
		cap := defaultEarlySeasonCap
		if c, ok := b.earlySeasonCaps[mc.Championship]; ok && c > 0 {
			cap = c
		}
		md := *mc.Matchday
		if md < cap {
			bonus := earlySeasonBonus * float64(cap-md) / float64(cap)
			shrink += bonus
		}
	}

	return math.Min(shrink, shrinkCap)
}

// liveNudge shifts probability toward the side currently leading, keeps
// the draw above its floor, then renormalizes
func liveNudge(d models.OutcomeDistribution, goalDiff int) models.OutcomeDistribution {
	if goalDiff == 0 {
		return d
	}
	boost := math.Min(0.04*math.Abs(float64(goalDiff)), 0.12)
	if goalDiff > 0 {
		d.Home *= 1 + boost
		d.Away *= 1 - boost
	} else {
		d.Away *= 1 + boost
		d.Home *= 1 - boost
	}
	if d.Draw < liveDrawFloor {
		d.Draw = liveDrawFloor
	}
	return d.Normalized()
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
