// Package cache is the content-addressed prediction result cache. Keys
// bind a prediction to every input that shaped it, so a version bump or
// a context change reads as a miss rather than a stale hit. Entries are
// stored in SQLite by default, Postgres optionally, and expire lazily
// on read.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
)

// KeyInputs are the version stamps that address a cache entry together
// with the match context
type KeyInputs struct {
	ModelVersion      string
	FeatureVersion    string
	CalibratorVersion string
	RatingsVersion    string
	Alpha             float64
}

// Key derives the content-addressed cache key for a match prediction
func Key(mc *models.MatchContext, in KeyInputs) string {
	parts := []string{
		mc.Championship,
		mc.MatchID,
		in.ModelVersion,
		in.FeatureVersion,
		in.CalibratorVersion,
		InputsHash(mc, in),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

// InputsHash digests the mutable parts of the match context plus the
// artifact stamps that change a prediction without changing the match
// identity
func InputsHash(mc *models.MatchContext, in KeyInputs) string {
	var b strings.Builder
	b.WriteString(mc.HomeTeam)
	b.WriteByte('|')
	b.WriteString(mc.AwayTeam)
	b.WriteByte('|')
	b.WriteString(string(mc.Status))
	b.WriteByte('|')
	if mc.Matchday != nil {
		b.WriteString(strconv.Itoa(*mc.Matchday))
	}
	b.WriteByte('|')
	if mc.Kickoff != nil {
		b.WriteString(strconv.FormatInt(mc.Kickoff.Unix(), 10))
	}
	b.WriteByte('|')
	if mc.IsLive() {
		fmt.Fprintf(&b, "%d-%d", mc.HomeGoals, mc.AwayGoals)
	}
	b.WriteByte('|')
	b.WriteString(strconv.FormatBool(mc.LineupsConfirmed))
	b.WriteByte('|')
	b.WriteString(in.RatingsVersion)
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(in.Alpha, 'f', 4, 64))
	b.WriteByte('|')
	b.WriteString(strconv.FormatFloat(weatherComponent(mc), 'f', 4, 64))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

// weatherComponent folds the weather feature into the hash, with a
// sentinel for absence distinct from zero
func weatherComponent(mc *models.MatchContext) float64 {
	if v, ok := mc.Feature(modelbank.FeatWeather); ok {
		return v
	}
	return -1
}
