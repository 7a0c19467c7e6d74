package modelbank

import (
	"math"

	"github.com/yourusername/match-oracle/internal/models"
)

// maxGoals bounds the scoreline grid per side
const maxGoals = 10

// Expected-goal clamp range
const (
	minLambda = 0.20
	maxLambda = 4.00
)

// expectedGoals derives (lambda_home, lambda_away) from the shared
// linear strength term, clamped to [minLambda, maxLambda]
func expectedGoals(x, pace float64) (float64, float64) {
	base := 1.35 + pace
	lambdaHome := clamp(base+0.60*x, minLambda, maxLambda)
	lambdaAway := clamp(base-0.60*x, minLambda, maxLambda)
	return lambdaHome, lambdaAway
}

// poissonProb returns P(X=k) for X ~ Poisson(lambda)
func poissonProb(lambda float64, k int) float64 {
	logP := float64(k)*math.Log(lambda) - lambda - logFactorial(k)
	return math.Exp(logP)
}

func logFactorial(k int) float64 {
	sum := 0.0
	for i := 2; i <= k; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}

// tauFunc is a per-cell multiplicative correction on the score grid
type tauFunc func(homeGoals, awayGoals int) float64

// scoreGrid is the product of two Poisson distributions over scorelines,
// optionally adjusted cell by cell
type scoreGrid struct {
	cells [maxGoals + 1][maxGoals + 1]float64
}

// newScoreGrid fills the grid from the two goal rates; a nil tau leaves
// the independent-Poisson probabilities untouched
func newScoreGrid(lambdaHome, lambdaAway float64, tau tauFunc) *scoreGrid {
	g := &scoreGrid{}
	for h := 0; h <= maxGoals; h++ {
		ph := poissonProb(lambdaHome, h)
		for a := 0; a <= maxGoals; a++ {
			p := ph * poissonProb(lambdaAway, a)
			if tau != nil {
				p *= tau(h, a)
			}
			if p < 0 {
				p = 0
			}
			g.cells[h][a] = p
		}
	}
	return g
}

// MatchProbs sums the grid into the 1X2 buckets and normalizes
func (g *scoreGrid) MatchProbs() models.OutcomeDistribution {
	var home, draw, away float64
	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			p := g.cells[h][a]
			switch {
			case h > a:
				home += p
			case h == a:
				draw += p
			default:
				away += p
			}
		}
	}
	return models.OutcomeDistribution{Home: home, Draw: draw, Away: away}.Normalized()
}

// DerivedMarkets returns the over-2.5 and both-teams-score side channel
func (g *scoreGrid) DerivedMarkets() (over25, btts float64) {
	var total float64
	for h := 0; h <= maxGoals; h++ {
		for a := 0; a <= maxGoals; a++ {
			p := g.cells[h][a]
			total += p
			if h+a > 2 {
				over25 += p
			}
			if h > 0 && a > 0 {
				btts += p
			}
		}
	}
	if total > 0 {
		over25 /= total
		btts /= total
	}
	return over25, btts
}
