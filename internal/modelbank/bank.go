// Package modelbank hosts the four independent 1X2 estimators the
// ensemble blends: a baseline strength softmax, a Poisson scoreline
// grid, a Dixon-Coles corrected grid and a trained linear classifier.
// Each estimator is a pure function of the match context; an estimator
// that cannot score signals absence instead of failing.
package modelbank

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/models"
	"github.com/yourusername/match-oracle/internal/ratings"
)

// Feature map keys understood by the estimators
const (
	FeatWeather         = "weather"
	FeatDaysRestHome    = "days_rest_home"
	FeatDaysRestAway    = "days_rest_away"
	FeatRecentPtsHome   = "recent_points_home"
	FeatRecentPtsAway   = "recent_points_away"
	FeatRecentGoalsHome = "recent_goals_home"
	FeatRecentGoalsAway = "recent_goals_away"
	FeatScoringVariance = "scoring_variance"
	FeatSeasonYear      = "season_year"
	FeatMonth           = "month"
	FeatWeekday         = "weekday"
)

// Model names used in explanations and weight maps
const (
	ModelBase       = "base"
	ModelPoisson    = "poisson"
	ModelDixonColes = "dixoncoles"
	ModelClassifier = "classifier"
)

// Output is the bank's combined result for one match. Classifier is nil
// when that estimator was unavailable; the distributions are always
// normalized.
type Output struct {
	Base       models.OutcomeDistribution
	Poisson    models.OutcomeDistribution
	DixonColes models.OutcomeDistribution
	Classifier *models.OutcomeDistribution

	Derived    models.DerivedMarkets
	LambdaHome float64
	LambdaAway float64

	HomeRated bool
	AwayRated bool
}

// Distributions returns the available model distributions keyed by name
func (o *Output) Distributions() map[string]models.OutcomeDistribution {
	out := map[string]models.OutcomeDistribution{
		ModelBase:       o.Base,
		ModelPoisson:    o.Poisson,
		ModelDixonColes: o.DixonColes,
	}
	if o.Classifier != nil {
		out[ModelClassifier] = *o.Classifier
	}
	return out
}

// MissingRatings returns how many of the two team ratings were absent
func (o *Output) MissingRatings() int {
	n := 0
	if !o.HomeRated {
		n++
	}
	if !o.AwayRated {
		n++
	}
	return n
}

// Bank runs the four estimators against a match context
type Bank struct {
	ratings    *ratings.Store
	classifier *Classifier
	cfg        config.ModelsConfig
	logger     *logrus.Logger
}

// NewBank creates a model bank
func NewBank(ratingsStore *ratings.Store, classifier *Classifier, cfg config.ModelsConfig, logger *logrus.Logger) *Bank {
	return &Bank{
		ratings:    ratingsStore,
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run scores a match with every estimator. It never fails: estimators
// that cannot contribute are recorded as absent.
func (b *Bank) Run(mc *models.MatchContext) *Output {
	out := &Output{}

	homeRating, homeOK := b.ratings.Rating(mc.Championship, mc.HomeTeam)
	awayRating, awayOK := b.ratings.Rating(mc.Championship, mc.AwayTeam)
	out.HomeRated = homeOK
	out.AwayRated = awayOK

	x := b.linearScore(mc, homeRating, awayRating, homeOK, awayOK)

	out.Base = baselineSoftmax(x)

	out.LambdaHome, out.LambdaAway = expectedGoals(x, b.paceTerm(mc))
	grid := newScoreGrid(out.LambdaHome, out.LambdaAway, nil)
	out.Poisson = grid.MatchProbs()
	over, btts := grid.DerivedMarkets()
	out.Derived = models.DerivedMarkets{Over25: over, BTTS: btts}

	rho := b.cfg.DefaultRho
	if r, ok := b.cfg.LeagueRho[mc.Championship]; ok {
		rho = r
	}
	dcGrid := newScoreGrid(out.LambdaHome, out.LambdaAway, dixonColesTau(out.LambdaHome, out.LambdaAway, rho))
	out.DixonColes = dcGrid.MatchProbs()

	if b.classifier != nil {
		if dist, ok := b.classifier.Estimate(mc); ok {
			out.Classifier = &dist
		} else {
			metrics.RecordModelUnavailable(ModelClassifier)
		}
	} else {
		metrics.RecordModelUnavailable(ModelClassifier)
	}

	return out
}

// linearScore computes the shared strength term
// x = strength_home - strength_away + home_advantage + live_bias + weather_factor + pace_term
func (b *Bank) linearScore(mc *models.MatchContext, home, away ratings.TeamRating, homeOK, awayOK bool) float64 {
	var strengthDiff float64
	if homeOK && awayOK {
		strengthDiff = home.Strength - away.Strength
	} else if homeOK {
		strengthDiff = home.Strength
	} else if awayOK {
		strengthDiff = -away.Strength
	}

	x := strengthDiff + b.cfg.HomeAdvantage
	x += liveBias(mc)
	x += weatherFactor(mc)
	x += b.paceTerm(mc)
	return x
}

// liveBias nudges the strength term toward the side currently ahead
func liveBias(mc *models.MatchContext) float64 {
	if !mc.IsLive() {
		return 0
	}
	diff := float64(mc.HomeGoals - mc.AwayGoals)
	return clamp(0.30*diff, -0.90, 0.90)
}

// weatherFactor dampens the strength edge in severe conditions
func weatherFactor(mc *models.MatchContext) float64 {
	w, ok := mc.Feature(FeatWeather)
	if !ok {
		return 0
	}
	return -0.05 * clamp(w, 0, 1)
}

// paceTerm reflects recent goal output of both teams
func (b *Bank) paceTerm(mc *models.MatchContext) float64 {
	gh, okH := mc.Feature(FeatRecentGoalsHome)
	ga, okA := mc.Feature(FeatRecentGoalsAway)
	if !okH || !okA {
		return 0
	}
	return clamp(0.04*(gh-ga), -0.20, 0.20)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
