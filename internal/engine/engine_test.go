package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-oracle/internal/cache"
	"github.com/yourusername/match-oracle/internal/calibration"
	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/ensemble"
	"github.com/yourusername/match-oracle/internal/logger"
	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
	"github.com/yourusername/match-oracle/internal/ratings"
	"github.com/yourusername/match-oracle/internal/resilience"
)

// memoryStore is an in-memory cache backend for orchestrator tests
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*models.CacheEntry
	puts    int
	failing bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]*models.CacheEntry{}}
}

func (m *memoryStore) Get(_ context.Context, key string) (*models.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, models.ErrCacheUnavailable
	}
	entry, ok := m.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return nil, nil
	}
	return entry, nil
}

func (m *memoryStore) Put(_ context.Context, entry *models.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return models.ErrCacheUnavailable
	}
	m.entries[entry.Key] = entry
	m.puts++
	return nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *memoryStore) Sweep(_ context.Context) (int64, error) { return 0, nil }
func (m *memoryStore) Ping(_ context.Context) error           { return nil }
func (m *memoryStore) Close() error                           { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Engine: config.EngineConfig{
			DeadlineBudgetMS: 900,
			IOPoolSize:       4,
			FeatureVersion:   "f1",
		},
		Models: config.ModelsConfig{HomeAdvantage: 0.25, DefaultRho: -0.10},
		Cache:  config.CacheConfig{Enabled: true, Driver: "sqlite"},
		Decision: config.DecisionConfig{
			Thresholds:   models.DefaultThresholds(),
			ChaosEnabled: true,
		},
	}
}

func newTestEngine(t *testing.T, cfg *config.Config, store cache.Store) *Engine {
	t.Helper()
	log := logger.NewNopLogger()

	dir := t.TempDir()
	ratingsStore := ratings.NewStore(filepath.Join(dir, "ratings.json"), log)
	bank := modelbank.NewBank(ratingsStore, nil, cfg.Models, log)
	blender := ensemble.NewBlender(cfg.Models.EarlySeasonCap)
	loader := calibration.NewLoader(dir, "", "", log)
	pipeline := calibration.NewPipeline(loader, nil, log)
	breakers := resilience.NewBreakerRegistry(resilience.DefaultBreakerConfig(), log)
	bulkheads := resilience.NewBulkheads(cfg.Engine.IOPoolSize, cfg.CPUPoolSize())

	return NewEngine(cfg, bank, blender, pipeline, loader, ratingsStore, store, breakers, bulkheads, log)
}

func prematchContext() *models.MatchContext {
	kickoff := time.Now().Add(72 * time.Hour)
	matchday := 20
	return &models.MatchContext{
		Championship: "epl",
		MatchID:      "m-42",
		HomeTeam:     "Arsenal",
		AwayTeam:     "Chelsea",
		Status:       models.StatusPrematch,
		Kickoff:      &kickoff,
		Matchday:     &matchday,
	}
}

func TestPredictReturnsValidResult(t *testing.T) {
	eng := newTestEngine(t, testConfig(t), newMemoryStore())

	res := eng.Predict(context.Background(), prematchContext())

	require.NotNil(t, res)
	assert.True(t, res.Probs.IsValid())
	assert.Equal(t, "epl", res.Championship)
	assert.Equal(t, "m-42", res.MatchID)
	assert.NotNil(t, res.Explanation.Decision)
	assert.False(t, res.CacheHit)
}

func TestPredictCacheRoundTrip(t *testing.T) {
	store := newMemoryStore()
	eng := newTestEngine(t, testConfig(t), store)
	mc := prematchContext()

	first := eng.Predict(context.Background(), mc)
	require.False(t, first.CacheHit)
	assert.Equal(t, 1, store.puts)

	second := eng.Predict(context.Background(), mc)
	assert.True(t, second.CacheHit)
	assert.True(t, second.Explanation.HasFlag(models.FlagCacheHit))
	assert.Equal(t, first.Probs, second.Probs)
	assert.Equal(t, 1, store.puts, "a hit must not rewrite the entry")
}

func TestPredictLiveSkipsCache(t *testing.T) {
	store := newMemoryStore()
	eng := newTestEngine(t, testConfig(t), store)

	mc := prematchContext()
	mc.Status = models.StatusLive
	mc.HomeGoals = 1

	res := eng.Predict(context.Background(), mc)
	require.NotNil(t, res)
	assert.True(t, res.Probs.IsValid())
	assert.Equal(t, 0, store.puts)
	assert.False(t, res.CacheHit)
}

func TestPredictSafeModeOnExhaustedBudget(t *testing.T) {
	eng := newTestEngine(t, testConfig(t), newMemoryStore())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	res := eng.Predict(ctx, prematchContext())

	require.NotNil(t, res)
	assert.True(t, res.Explanation.HasFlag(models.FlagSafeMode))
	assert.Equal(t, models.UniformDistribution(), res.Probs)
	assert.Zero(t, res.Confidence)
}

func TestPredictMalformedInput(t *testing.T) {
	eng := newTestEngine(t, testConfig(t), newMemoryStore())

	res := eng.Predict(context.Background(), &models.MatchContext{Championship: "epl"})

	require.NotNil(t, res)
	assert.True(t, res.Explanation.HasFlag(models.FlagSafeMode))
	assert.True(t, res.Explanation.HasFlag(models.FlagMalformedReset))
}

func TestPredictSurvivesFailingCache(t *testing.T) {
	store := newMemoryStore()
	store.failing = true
	eng := newTestEngine(t, testConfig(t), store)

	res := eng.Predict(context.Background(), prematchContext())

	require.NotNil(t, res)
	assert.True(t, res.Probs.IsValid())
	assert.False(t, res.Explanation.HasFlag(models.FlagSafeMode))
}

func TestPredictFlagsOpenBreakerBypass(t *testing.T) {
	store := newMemoryStore()
	store.failing = true
	eng := newTestEngine(t, testConfig(t), store)
	mc := prematchContext()

	// Each prediction against the failing store records a failed read
	// and a failed write; three are enough to trip the cache breaker
	for i := 0; i < 3; i++ {
		eng.Predict(context.Background(), mc)
	}

	res := eng.Predict(context.Background(), mc)

	require.NotNil(t, res)
	assert.True(t, res.Probs.IsValid())
	assert.False(t, res.CacheHit)
	assert.True(t, res.Explanation.HasFlag(models.FlagCacheBypassed))
	assert.False(t, res.Explanation.HasFlag(models.FlagSafeMode))
}

func TestPredictCacheDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = false
	store := newMemoryStore()
	eng := newTestEngine(t, cfg, store)

	res := eng.Predict(context.Background(), prematchContext())

	require.NotNil(t, res)
	assert.Equal(t, 0, store.puts)
}

func TestPredictNilContext(t *testing.T) {
	eng := newTestEngine(t, testConfig(t), newMemoryStore())

	res := eng.Predict(context.Background(), nil)
	require.NotNil(t, res)
	assert.True(t, res.Explanation.HasFlag(models.FlagSafeMode))
}
