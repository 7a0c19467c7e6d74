package modelbank

import (
	"math"

	"github.com/yourusername/match-oracle/internal/models"
)

// baselineSoftmax maps the shared strength term to a 1X2 distribution
// via a three-way softmax over (x, 0, -x). The draw logit is pinned to
// zero so a level match lands on uniform.
func baselineSoftmax(x float64) models.OutcomeDistribution {
	eh := math.Exp(x)
	ed := math.Exp(0)
	ea := math.Exp(-x)
	sum := eh + ed + ea
	return models.OutcomeDistribution{
		Home: eh / sum,
		Draw: ed / sum,
		Away: ea / sum,
	}.Normalized()
}
