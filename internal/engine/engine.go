// Package engine is the prediction orchestrator. Predict is a
// never-fails facade: every dependency failure degrades the result
// instead of surfacing an error, down to the uniform safe-mode floor.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-oracle/internal/cache"
	"github.com/yourusername/match-oracle/internal/calibration"
	"github.com/yourusername/match-oracle/internal/config"
	"github.com/yourusername/match-oracle/internal/decision"
	"github.com/yourusername/match-oracle/internal/ensemble"
	"github.com/yourusername/match-oracle/internal/metrics"
	"github.com/yourusername/match-oracle/internal/modelbank"
	"github.com/yourusername/match-oracle/internal/models"
	"github.com/yourusername/match-oracle/internal/ratings"
	"github.com/yourusername/match-oracle/internal/resilience"
)

// modelVersion stamps the ensemble algorithm revision into cache keys.
// Bump it whenever the blend or any estimator changes behaviour.
const modelVersion = "v1"

// breakerCache names the cache resource in the breaker registry
const breakerCache = "cache"

// Engine wires the model bank, blender, calibration pipeline, decision
// gate and result cache behind a single entry point
type Engine struct {
	cfg       *config.Config
	bank      *modelbank.Bank
	blender   *ensemble.Blender
	pipeline  *calibration.Pipeline
	artifacts *calibration.Loader
	ratings   *ratings.Store
	store     cache.Store
	breakers  *resilience.BreakerRegistry
	bulkheads *resilience.Bulkheads
	logger    *logrus.Logger

	cacheHits   atomic.Int64
	cacheTotals atomic.Int64
}

// NewEngine assembles the orchestrator. store may be nil when the
// result cache is disabled.
func NewEngine(
	cfg *config.Config,
	bank *modelbank.Bank,
	blender *ensemble.Blender,
	pipeline *calibration.Pipeline,
	artifacts *calibration.Loader,
	ratingsStore *ratings.Store,
	store cache.Store,
	breakers *resilience.BreakerRegistry,
	bulkheads *resilience.Bulkheads,
	logger *logrus.Logger,
) *Engine {
	return &Engine{
		cfg:       cfg,
		bank:      bank,
		blender:   blender,
		pipeline:  pipeline,
		artifacts: artifacts,
		ratings:   ratingsStore,
		store:     store,
		breakers:  breakers,
		bulkheads: bulkheads,
		logger:    logger,
	}
}

// Predict produces the 1X2 prediction for a match. It never returns an
// error: malformed input, deadline pressure and dependency failures all
// degrade toward the uniform safe default.
func (e *Engine) Predict(ctx context.Context, mc *models.MatchContext) *models.EnsembleResult {
	started := time.Now()

	if mc == nil {
		mc = &models.MatchContext{}
	}
	if mc.Championship == "" || mc.MatchID == "" || mc.HomeTeam == "" || mc.AwayTeam == "" {
		res := models.SafeDefault(mc, models.FlagMalformedReset)
		metrics.RecordPrediction("malformed", "none", time.Since(started).Seconds())
		return res
	}

	ctx, cancel := resilience.WithBudget(ctx, e.cfg.DeadlineBudget())
	defer cancel()

	budget := resilience.CheckBudget(ctx)
	if budget == resilience.BudgetExhausted {
		metrics.RecordDeadlineDegradation("safe_mode")
		res := models.SafeDefault(mc, models.FlagDeadlineLow)
		metrics.RecordPrediction("safe_mode", "none", time.Since(started).Seconds())
		return res
	}

	key, keyInputs := e.cacheKey(mc)

	hit, bypassed := e.readCache(ctx, mc, key)
	if hit != nil {
		metrics.RecordPrediction("ok", "hit", time.Since(started).Seconds())
		return hit
	}

	res := e.compute(ctx, mc, budget)
	if bypassed {
		res.Explanation.AddFlag(models.FlagCacheBypassed)
	}

	if budget == resilience.BudgetOK && !mc.IsLive() {
		e.writeCache(ctx, mc, key, keyInputs, res)
	}

	cacheLabel := "miss"
	if e.store == nil || !e.cfg.Cache.Enabled {
		cacheLabel = "none"
	}
	status := "ok"
	if res.Explanation.HasFlag(models.FlagSafeMode) {
		status = "safe_mode"
	}
	metrics.RecordPrediction(status, cacheLabel, time.Since(started).Seconds())
	return res
}

// compute runs the full model path: bank, blend, confidence,
// calibration and the decision gate
func (e *Engine) compute(ctx context.Context, mc *models.MatchContext, budget resilience.BudgetState) *models.EnsembleResult {
	var out *modelbank.Output
	err := e.bulkheads.CPU.Run(ctx, func(ctx context.Context) error {
		out = e.bank.Run(mc)
		return nil
	})
	if err != nil {
		metrics.RecordDeadlineDegradation("safe_mode")
		return models.SafeDefault(mc, models.FlagDeadlineLow)
	}

	blend := e.blender.Blend(mc, out)
	conf := ensemble.EstimateConfidence(blend.Dist, out, mc.Matchday != nil)

	expl := models.Explanation{
		ModelContributions: out.Distributions(),
		ModelWeights:       blend.Weights.Map(),
		DerivedMarkets:     &out.Derived,
		DataQuality:        conf.DataQuality,
		Variance:           conf.Variance,
	}
	if budget == resilience.BudgetTight {
		expl.AddFlag(models.FlagDeadlineTight)
		metrics.RecordDeadlineDegradation("tight")
	}
	if out.MissingRatings() > 0 {
		expl.AddFlag(models.FlagRatingsMissing)
	}
	if out.Classifier == nil {
		expl.AddFlag(models.FlagClassifierMissing)
	}

	calibrated := e.pipeline.Apply(ctx, mc.Championship, blend.Dist, &expl)

	thresholds := e.cfg.ThresholdsFor(mc.Championship)
	if e.cfg.Decision.ChaosEnabled {
		if chaos, ok := decision.ChaosIndex(mc); ok {
			thresholds = decision.AdjustThresholds(thresholds, chaos)
			expl.ChaosIndex = &chaos
		}
	}
	rec := decision.Evaluate(calibrated, conf.Score, thresholds)
	expl.Decision = &rec

	return &models.EnsembleResult{
		RequestID:       uuid.New(),
		Championship:    mc.Championship,
		MatchID:         mc.MatchID,
		Probs:           calibrated,
		Confidence:      conf.Score,
		ConfidenceLabel: conf.Label,
		Ranges:          conf.Ranges,
		Explanation:     expl,
		ComputedAt:      time.Now().UTC(),
	}
}

// cacheKey derives the content-addressed key binding this prediction to
// every versioned input
func (e *Engine) cacheKey(mc *models.MatchContext) (string, cache.KeyInputs) {
	alpha, _ := e.artifacts.Alpha(mc.Championship)
	in := cache.KeyInputs{
		ModelVersion:      modelVersion,
		FeatureVersion:    e.cfg.Engine.FeatureVersion,
		CalibratorVersion: e.pipeline.Versions(mc.Championship),
		RatingsVersion:    e.ratings.Version(),
		Alpha:             alpha,
	}
	return cache.Key(mc, in), in
}

// readCache attempts a breaker-guarded cache read. Live matches and
// disabled caches skip the read; any failure reads as a miss. The
// second return reports an open-breaker bypass so the caller can flag
// the computed result.
func (e *Engine) readCache(ctx context.Context, mc *models.MatchContext, key string) (*models.EnsembleResult, bool) {
	if e.store == nil || !e.cfg.Cache.Enabled || mc.IsLive() {
		return nil, false
	}
	e.cacheTotals.Add(1)

	var entry *models.CacheEntry
	err := e.breakers.Get(breakerCache).Execute(func() error {
		return e.bulkheads.IO.Run(ctx, func(ctx context.Context) error {
			var err error
			entry, err = e.store.Get(ctx, key)
			return err
		})
	})
	if err != nil {
		e.updateHitRatio()
		if errors.Is(err, models.ErrCircuitOpen) {
			metrics.RecordCacheOperation("get", "bypassed")
			return nil, true
		}
		metrics.RecordCacheOperation("get", "error")
		e.logger.WithError(err).WithField("match_id", mc.MatchID).Warn("Cache read failed")
		return nil, false
	}
	if entry == nil {
		metrics.RecordCacheOperation("get", "miss")
		e.updateHitRatio()
		return nil, false
	}

	var res models.EnsembleResult
	if err := json.Unmarshal(entry.Payload, &res); err != nil {
		metrics.RecordCacheOperation("get", "corrupt")
		e.updateHitRatio()
		return nil, false
	}

	e.cacheHits.Add(1)
	e.updateHitRatio()
	metrics.RecordCacheOperation("get", "hit")

	res.CacheHit = true
	res.Explanation.AddFlag(models.FlagCacheHit)
	return &res, false
}

// writeCache stores a computed result under its TTL. Zero-TTL matches
// and open breakers skip the write silently.
func (e *Engine) writeCache(ctx context.Context, mc *models.MatchContext, key string, in cache.KeyInputs, res *models.EnsembleResult) {
	if e.store == nil || !e.cfg.Cache.Enabled {
		return
	}
	now := time.Now().UTC()
	ttl := cache.TTLFor(mc, now)
	if ttl <= 0 {
		return
	}

	payload, err := json.Marshal(res)
	if err != nil {
		e.logger.WithError(err).WithField("match_id", mc.MatchID).Error("Failed to encode cache payload")
		return
	}
	entry := &models.CacheEntry{
		Key:               key,
		Payload:           payload,
		CreatedAt:         now,
		ExpiresAt:         now.Add(ttl),
		ModelVersion:      in.ModelVersion,
		FeatureVersion:    in.FeatureVersion,
		CalibratorVersion: in.CalibratorVersion,
		InputsHash:        cache.InputsHash(mc, in),
	}

	started := time.Now()
	err = e.breakers.Get(breakerCache).Execute(func() error {
		return e.bulkheads.IO.Run(ctx, func(ctx context.Context) error {
			return e.store.Put(ctx, entry)
		})
	})
	metrics.CacheStoreLatency.WithLabelValues("put").Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RecordCacheOperation("put", "error")
		e.logger.WithError(err).WithField("match_id", mc.MatchID).Warn("Cache write failed")
		return
	}
	metrics.RecordCacheOperation("put", "ok")
}

func (e *Engine) updateHitRatio() {
	total := e.cacheTotals.Load()
	if total == 0 {
		return
	}
	metrics.CacheHitRatio.Set(float64(e.cacheHits.Load()) / float64(total))
}
