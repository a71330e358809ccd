package scoring

import (
	"context"
	"sort"
	"sync"
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/pkg/metrics"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const resultCacheKey = "latest"

// Engine aggregates the configured sources into a single threat score. It is
// safe for concurrent use; the cache and history are its own private state.
type Engine struct {
	cfg     Config
	sources []Source
	cache   *gocache.Cache
	history *History
	log     *zap.Logger
	metrics *metrics.ScoringMetrics

	mu sync.Mutex
	// last survives cache expiry so a timed-out pass can still fall back to
	// the most recent real result.
	last *Result
}

// NewEngine wires the engine with the given sources. Sources whose category is
// disabled in cfg are kept but never fetched, so toggling config does not
// require rebuilding the engine.
func NewEngine(cfg Config, sources []Source, log *zap.Logger, m *metrics.ScoringMetrics) *Engine {
	cfg = cfg.normalized()
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		sources: sources,
		cache:   gocache.New(cfg.UpdateInterval, 2*cfg.UpdateInterval),
		history: NewHistory(cfg.HistorySize),
		log:     log,
		metrics: m,
	}
}

// Analyze runs one scoring pass, or returns the cached result when it is still
// fresh and forceRefresh is false. It never blocks past the fan-out timeout:
// a slow pass degrades to the last known result or a neutral default. Analyze
// never returns nil.
func (e *Engine) Analyze(ctx context.Context, loc *models.Location, forceRefresh bool) *Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !forceRefresh {
		if cached, ok := e.cache.Get(resultCacheKey); ok {
			if e.metrics != nil {
				e.metrics.ObserveCacheHit()
			}
			return cached.(*Result)
		}
	}

	started := time.Now()
	fanCtx, cancel := context.WithTimeout(ctx, e.cfg.FanoutTimeout)
	defer cancel()

	outcomes, timedOut := e.fanOut(fanCtx, loc)
	if timedOut && len(outcomes) == 0 {
		if e.metrics != nil {
			e.metrics.ObserveTimeout()
		}
		return e.fallback(started)
	}

	result := e.aggregate(outcomes, loc, started)
	e.cache.Set(resultCacheKey, result, e.cfg.UpdateInterval)
	e.last = result
	e.history.Append(result)

	if e.metrics != nil {
		e.metrics.ObserveAnalysis(time.Since(started), result.Score)
	}
	e.log.Debug("threat analysis complete",
		zap.Float64("score", result.Score),
		zap.String("level", result.Level.String()),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", time.Since(started)))
	return result
}

// Trend summarizes the bounded result history.
func (e *Engine) Trend() Trend { return e.history.Trend() }

type sourceOutcome struct {
	category Category
	reading  Reading
	err      error
}

// fanOut runs every enabled source concurrently and collects whatever finishes
// before the deadline. Late sources are abandoned, not waited for.
func (e *Engine) fanOut(ctx context.Context, loc *models.Location) ([]sourceOutcome, bool) {
	type message struct {
		outcome sourceOutcome
	}

	enabled := make([]Source, 0, len(e.sources))
	for _, src := range e.sources {
		if e.cfg.Enabled(src.Category()) {
			enabled = append(enabled, src)
		}
	}
	if len(enabled) == 0 {
		return nil, false
	}

	ch := make(chan message, len(enabled))
	for _, src := range enabled {
		go func(src Source) {
			reading, err := src.Fetch(ctx, loc)
			ch <- message{outcome: sourceOutcome{category: src.Category(), reading: reading, err: err}}
		}(src)
	}

	outcomes := make([]sourceOutcome, 0, len(enabled))
	for range enabled {
		select {
		case msg := <-ch:
			if msg.outcome.err != nil {
				e.log.Warn("scoring source failed",
					zap.String("category", string(msg.outcome.category)),
					zap.Error(msg.outcome.err))
				if e.metrics != nil {
					e.metrics.ObserveSourceFailure(string(msg.outcome.category))
				}
				continue
			}
			outcomes = append(outcomes, msg.outcome)
		case <-ctx.Done():
			return outcomes, true
		}
	}
	return outcomes, false
}

func (e *Engine) aggregate(outcomes []sourceOutcome, loc *models.Location, now time.Time) *Result {
	available := make(map[Category]Reading, len(outcomes))
	for _, o := range outcomes {
		available[o.category] = o.reading
	}

	var weightedSum, totalWeight float64
	factors := make([]Factor, 0, len(AllCategories))
	for _, cat := range AllCategories {
		weight := e.cfg.Weight(cat)
		reading, ok := available[cat]
		factor := Factor{
			Category:  cat,
			Weight:    weight,
			Available: ok,
		}
		if ok {
			value := clamp01(reading.Value)
			factor.Name = reading.Name
			factor.Value = value
			factor.Contribution = value * weight
			factor.Description = reading.Description
			weightedSum += factor.Contribution
			totalWeight += weight
		}
		factors = append(factors, factor)
	}

	score := 0.5
	if totalWeight > 0 {
		score = clamp01(weightedSum / totalWeight * e.cfg.UserSensitivity)
	}
	if e.last != nil && e.cfg.Smoothing < 1 {
		// Exponential smoothing keeps the level from flapping between passes.
		score = clamp01(e.cfg.Smoothing*score + (1-e.cfg.Smoothing)*e.last.Score)
	}

	var snapshot *models.Location
	if loc != nil {
		l := *loc
		snapshot = &l
	}

	return &Result{
		Timestamp:        now,
		Score:            score,
		Level:            LevelForScore(score),
		Location:         snapshot,
		Factors:          factors,
		PrimaryReasons:   primaryReasons(factors),
		Confidence:       float64(len(available)) / float64(len(AllCategories)),
		SourcesAvailable: len(available),
		SourcesTotal:     len(AllCategories),
	}
}

// fallback returns the last real result, or the documented neutral default
// when the engine has never completed a pass.
func (e *Engine) fallback(now time.Time) *Result {
	if e.last != nil {
		e.log.Warn("scoring fan-out timed out, serving last known result",
			zap.Time("lastResult", e.last.Timestamp))
		return e.last
	}
	e.log.Warn("scoring fan-out timed out with no prior result, serving neutral default")
	return &Result{
		Timestamp:      now,
		Score:          0.5,
		Level:          models.ThreatMedium,
		PrimaryReasons: []string{"limited data"},
		Confidence:     0.3,
		SourcesTotal:   len(AllCategories),
	}
}

// primaryReasons ranks the top three available factors by weighted
// contribution.
func primaryReasons(factors []Factor) []string {
	ranked := make([]Factor, 0, len(factors))
	for _, f := range factors {
		if f.Available && f.Contribution > 0 {
			ranked = append(ranked, f)
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Contribution > ranked[j].Contribution
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	reasons := make([]string, 0, len(ranked))
	for _, f := range ranked {
		if f.Description != "" {
			reasons = append(reasons, f.Description)
		} else {
			reasons = append(reasons, f.Name)
		}
	}
	return reasons
}
