package calibration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/models"
)

// driftStatusTTL bounds how long a fetched drift status is reused
// before the source is consulted again
const driftStatusTTL = 5 * time.Minute

// DriftMonitor reads the advisory per-league drift status from a local
// file or an HTTP endpoint. It is advisory only: every failure path
// reports DriftOK.
type DriftMonitor struct {
	file     string
	url      string
	client   *retryablehttp.Client
	limiter  *rate.Limiter
	logger   *logrus.Logger
	statuses *cache.Cache
}

// NewDriftMonitor creates a drift monitor. Either file or url may be
// empty; with both empty every league reports DriftOK.
func NewDriftMonitor(file, url string, logger *logrus.Logger) *DriftMonitor {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = 5 * time.Second
	client.RetryMax = 2
	client.RetryWaitMin = 50 * time.Millisecond
	client.RetryWaitMax = 500 * time.Millisecond
	client.Logger = nil

	return &DriftMonitor{
		file:     file,
		url:      url,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
		logger:   logger,
		statuses: cache.New(driftStatusTTL, 2*driftStatusTTL),
	}
}

// Status returns the drift status for a league. Failures degrade to
// DriftOK and are never surfaced to the caller.
func (m *DriftMonitor) Status(ctx context.Context, league string) models.DriftStatus {
	if v, ok := m.statuses.Get(league); ok {
		return v.(models.DriftStatus)
	}

	status := m.fetch(ctx, league)
	m.statuses.Set(league, status, driftStatusTTL)
	metrics.UpdateDriftLevel(league, driftLevelValue(status.Level))
	return status
}

// Refresh drops the cached statuses so the next lookups re-read the
// source. Invoked by the maintenance scheduler.
func (m *DriftMonitor) Refresh() {
	m.statuses.Flush()
}

func (m *DriftMonitor) fetch(ctx context.Context, league string) models.DriftStatus {
	if m.url != "" {
		if status, ok := m.fetchHTTP(ctx, league); ok {
			return status
		}
	}
	if m.file != "" {
		if status, ok := m.fetchFile(league); ok {
			return status
		}
	}
	return models.DriftStatus{Level: models.DriftOK}
}

// fetchHTTP pulls {league: {level, flags}} from the drift service
func (m *DriftMonitor) fetchHTTP(ctx context.Context, league string) (models.DriftStatus, bool) {
	if err := m.limiter.Wait(ctx); err != nil {
		return models.DriftStatus{}, false
	}

	url := fmt.Sprintf("%s?league=%s", m.url, league)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.DriftStatus{}, false
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.WithError(err).WithField("league", league).Debug("Drift service unreachable")
		return models.DriftStatus{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.DriftStatus{}, false
	}

	var status models.DriftStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return models.DriftStatus{}, false
	}
	return normalizeDrift(status), true
}

// fetchFile reads the whole per-league table from disk
func (m *DriftMonitor) fetchFile(league string) (models.DriftStatus, bool) {
	data, err := os.ReadFile(m.file)
	if err != nil {
		return models.DriftStatus{}, false
	}
	table := map[string]models.DriftStatus{}
	if err := json.Unmarshal(data, &table); err != nil {
		m.logger.WithError(err).WithField("path", m.file).Debug("Drift file malformed")
		return models.DriftStatus{}, false
	}
	status, ok := table[league]
	if !ok {
		return models.DriftStatus{}, false
	}
	return normalizeDrift(status), true
}

func normalizeDrift(status models.DriftStatus) models.DriftStatus {
	switch status.Level {
	case models.DriftOK, models.DriftWarn, models.DriftHigh:
		return status
	default:
		return models.DriftStatus{Level: models.DriftOK, Flags: status.Flags}
	}
}

func driftLevelValue(level models.DriftLevel) float64 {
	switch level {
	case models.DriftWarn:
		return 1
	case models.DriftHigh:
		return 2
	default:
		return 0
	}
}
