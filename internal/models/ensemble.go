package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConfidenceLabel buckets the scalar confidence score
type ConfidenceLabel string

const (
	ConfidenceLow    ConfidenceLabel = "LOW"
	ConfidenceMedium ConfidenceLabel = "MEDIUM"
	ConfidenceHigh   ConfidenceLabel = "HIGH"
)

// OutcomeRange is an uncertainty interval around a single outcome probability
type OutcomeRange struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// OutcomeRanges holds the per-outcome uncertainty intervals
type OutcomeRanges struct {
	Home OutcomeRange `json:"home"`
	Draw OutcomeRange `json:"draw"`
	Away OutcomeRange `json:"away"`
}

// DerivedMarkets carries side-channel markets computed from the Poisson
// scoreline grid. They are informational and not part of the 1X2 result.
type DerivedMarkets struct {
	Over25 float64 `json:"over_2_5"`
	BTTS   float64 `json:"btts"`
}

// Recommendation is the decision gate's verdict on a calibrated prediction
type Recommendation struct {
	NoBet    bool            `json:"no_bet"`
	Grade    string          `json:"grade"`
	Score    float64         `json:"score"`
	Risk     string          `json:"risk"`
	Pick     Outcome         `json:"pick"`
	FairOdds decimal.Decimal `json:"fair_odds"`
}

// Explanation collects structured provenance for a prediction: which
// models contributed what, which calibration stages ran, and which
// degradation paths were taken.
type Explanation struct {
	ModelContributions map[string]OutcomeDistribution `json:"model_contributions,omitempty"`
	ModelWeights       map[string]float64             `json:"model_weights,omitempty"`
	CalibrationStages  []string                       `json:"calibration_stages,omitempty"`
	Flags              []string                       `json:"flags,omitempty"`
	DerivedMarkets     *DerivedMarkets                `json:"derived_markets,omitempty"`
	Decision           *Recommendation                `json:"decision,omitempty"`
	ChaosIndex         *float64                       `json:"chaos_index,omitempty"`
	DataQuality        float64                        `json:"data_quality"`
	Variance           float64                        `json:"variance"`
}

// AddFlag appends a degradation flag if not already present
func (e *Explanation) AddFlag(flag string) {
	for _, f := range e.Flags {
		if f == flag {
			return
		}
	}
	e.Flags = append(e.Flags, flag)
}

// HasFlag reports whether a degradation flag was recorded
func (e *Explanation) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Degradation flags recorded in Explanation.Flags
const (
	FlagDeadlineLow       = "deadline_low"
	FlagDeadlineTight     = "deadline_tight"
	FlagCacheBypassed     = "cache_bypassed"
	FlagCacheHit          = "cache_hit"
	FlagNotCalibrated     = "not_calibrated"
	FlagClassifierMissing = "classifier_unavailable"
	FlagRatingsMissing    = "ratings_missing"
	FlagSafeMode          = "safe_mode"
	FlagDriftBoost        = "drift_boost"
	FlagMalformedReset    = "malformed_reset"
)

// EnsembleResult is the final product of a prediction request
type EnsembleResult struct {
	RequestID       uuid.UUID           `json:"request_id"`
	Championship    string              `json:"championship"`
	MatchID         string              `json:"match_id"`
	Probs           OutcomeDistribution `json:"probs"`
	Confidence      float64             `json:"confidence"`
	ConfidenceLabel ConfidenceLabel     `json:"confidence_label"`
	Ranges          OutcomeRanges       `json:"ranges"`
	Explanation     Explanation         `json:"explanation"`
	CacheHit        bool                `json:"cache_hit"`
	ComputedAt      time.Time           `json:"computed_at"`
}

// SafeDefault returns the degraded result used when the engine cannot
// produce anything better: uniform probabilities, zero confidence, an
// explicit safe-mode flag.
func SafeDefault(ctx *MatchContext, flag string) *EnsembleResult {
	res := &EnsembleResult{
		RequestID:       uuid.New(),
		Championship:    ctx.Championship,
		MatchID:         ctx.MatchID,
		Probs:           UniformDistribution(),
		Confidence:      0,
		ConfidenceLabel: ConfidenceLow,
		ComputedAt:      time.Now().UTC(),
	}
	res.Explanation.DataQuality = 0
	res.Explanation.AddFlag(FlagSafeMode)
	if flag != "" {
		res.Explanation.AddFlag(flag)
	}
	return res
}
