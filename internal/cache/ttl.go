package cache

import (
	"time"

	"github.com/yourusername/match-oracle/internal/models"
)

// TTL tiers by proximity to kickoff
const (
	TTLDefault = 6 * time.Hour
	TTLNear    = 2 * time.Hour
	TTLClose   = 1 * time.Hour

	nearKickoffHours  = 10.0
	closeKickoffHours = 2.0
)

// TTLFor returns the time-to-live for a prediction of the given match.
// Live matches return zero: their predictions are never cached.
func TTLFor(mc *models.MatchContext, now time.Time) time.Duration {
	if mc.IsLive() {
		return 0
	}

	if mc.LineupsConfirmed {
		return TTLClose
	}

	hours, ok := mc.HoursToKickoff(now)
	if !ok {
		return TTLDefault
	}
	switch {
	case hours < closeKickoffHours:
		return TTLClose
	case hours < nearKickoffHours:
		return TTLNear
	default:
		return TTLDefault
	}
}
