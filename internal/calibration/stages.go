package calibration

import (
	"math"

	"github.com/yourusername/match-oracle/internal/models"
)

// Alpha blend bounds and drift boosts
const (
	AlphaCap       = 0.35
	driftBoostWarn = 0.03
	driftBoostHigh = 0.06
)

// epsilon guards the logit/log transforms against zero probabilities
const epsilon = 1e-9

// ApplyCalibrator dispatches on the artifact kind. The switch is
// exhaustive over the closed set of calibrators.
func ApplyCalibrator(artifact *models.CalibrationArtifact, d models.OutcomeDistribution) models.OutcomeDistribution {
	switch artifact.Kind {
	case models.CalibratorPlatt:
		return applyPlatt(artifact.Platt, d)
	case models.CalibratorDirichlet:
		return applyDirichlet(artifact.Dirichlet, d)
	default:
		return d
	}
}

// applyPlatt runs one-vs-rest logistic calibration per class and
// renormalizes over the three classes
func applyPlatt(p *models.PlattParams, d models.OutcomeDistribution) models.OutcomeDistribution {
	probs := [3]float64{d.Home, d.Draw, d.Away}
	var out [3]float64
	for i, prob := range probs {
		out[i] = sigmoid(p.Coef[i]*logit(prob) + p.Intercept[i])
	}
	return models.OutcomeDistribution{Home: out[0], Draw: out[1], Away: out[2]}.Normalized()
}

// applyDirichlet maps log-probabilities through the 3x3 linear
// transform plus intercept, then softmaxes
func applyDirichlet(p *models.DirichletParams, d models.OutcomeDistribution) models.OutcomeDistribution {
	logs := [3]float64{
		math.Log(math.Max(d.Home, epsilon)),
		math.Log(math.Max(d.Draw, epsilon)),
		math.Log(math.Max(d.Away, epsilon)),
	}
	var scores [3]float64
	for i := 0; i < 3; i++ {
		s := p.Intercept[i]
		for j := 0; j < 3; j++ {
			s += p.Coef[i][j] * logs[j]
		}
		scores[i] = s
	}

	max := math.Max(scores[0], math.Max(scores[1], scores[2]))
	eh := math.Exp(scores[0] - max)
	ed := math.Exp(scores[1] - max)
	ea := math.Exp(scores[2] - max)
	return models.OutcomeDistribution{Home: eh, Draw: ed, Away: ea}.Normalized()
}

// ApplyTemperature scales p_i to p_i^(1/T) and renormalizes. T must be
// positive; T=1 is the identity.
func ApplyTemperature(temperature float64, d models.OutcomeDistribution) models.OutcomeDistribution {
	if temperature <= 0 {
		return d
	}
	inv := 1 / temperature
	return models.OutcomeDistribution{
		Home: math.Pow(math.Max(d.Home, 0), inv),
		Draw: math.Pow(math.Max(d.Draw, 0), inv),
		Away: math.Pow(math.Max(d.Away, 0), inv),
	}.Normalized()
}

// EffectiveAlpha adds the drift boost to the in-season alpha, then
// caps the sum at AlphaCap.
func EffectiveAlpha(alpha float64, drift models.DriftLevel) float64 {
	switch drift {
	case models.DriftWarn:
		alpha += driftBoostWarn
	case models.DriftHigh:
		alpha += driftBoostHigh
	}
	if alpha > AlphaCap {
		return AlphaCap
	}
	if alpha < 0 {
		return 0
	}
	return alpha
}

// ApplyAlphaBlend moves the distribution toward uniform:
// p' = (1-alpha)*p + alpha/3
func ApplyAlphaBlend(alpha float64, d models.OutcomeDistribution) models.OutcomeDistribution {
	if alpha <= 0 {
		return d
	}
	return d.Blend(models.UniformDistribution(), alpha)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	p = math.Min(math.Max(p, epsilon), 1-epsilon)
	return math.Log(p / (1 - p))
}
