package models

import (
	"time"
)

// MatchStatus represents the lifecycle phase of a match
type MatchStatus string

const (
	// StatusPrematch means the match has not kicked off yet
	StatusPrematch MatchStatus = "PREMATCH"
	// StatusLive means the match is in play
	StatusLive MatchStatus = "LIVE"
	// StatusFinished means the match has ended
	StatusFinished MatchStatus = "FINISHED"
)

// MatchContext carries the identity and contextual features of a match.
// It is immutable for the duration of a prediction request.
type MatchContext struct {
	Championship     string             `json:"championship" validate:"required"`
	MatchID          string             `json:"match_id" validate:"required"`
	HomeTeam         string             `json:"home_team" validate:"required"`
	AwayTeam         string             `json:"away_team" validate:"required"`
	Status           MatchStatus        `json:"status" validate:"required,status"`
	Kickoff          *time.Time         `json:"kickoff,omitempty"`
	Matchday         *int               `json:"matchday,omitempty"`
	HomeGoals        int                `json:"home_goals"`
	AwayGoals        int                `json:"away_goals"`
	LineupsConfirmed bool               `json:"lineups_confirmed"`
	Features         map[string]float64 `json:"features,omitempty"`
}

// Feature returns a feature value and whether it is present
func (mc *MatchContext) Feature(name string) (float64, bool) {
	if mc.Features == nil {
		return 0, false
	}
	v, ok := mc.Features[name]
	return v, ok
}

// FeatureOr returns a feature value or the given default
func (mc *MatchContext) FeatureOr(name string, def float64) float64 {
	if v, ok := mc.Feature(name); ok {
		return v
	}
	return def
}

// IsLive reports whether the match is in play
func (mc *MatchContext) IsLive() bool {
	return mc.Status == StatusLive
}

// HoursToKickoff returns the signed distance to kickoff in hours.
// Negative values mean kickoff is in the past. The second return value
// is false when no kickoff instant is known.
func (mc *MatchContext) HoursToKickoff(now time.Time) (float64, bool) {
	if mc.Kickoff == nil {
		return 0, false
	}
	return mc.Kickoff.Sub(now).Hours(), true
}
