package scoring

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"AegisGuard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns a fixed reading, optionally failing or blocking until the
// engine's deadline.
type stubSource struct {
	cat     Category
	value   float64
	err     error
	block   bool
	fetches atomic.Int64
}

func (s *stubSource) Category() Category { return s.cat }

func (s *stubSource) Fetch(ctx context.Context, _ *models.Location) (Reading, error) {
	s.fetches.Add(1)
	if s.block {
		<-ctx.Done()
		return Reading{}, ctx.Err()
	}
	if s.err != nil {
		return Reading{}, s.err
	}
	return Reading{Value: s.value, Name: string(s.cat), Description: string(s.cat) + " reading"}, nil
}

// twoSourceConfig enables crime and time-of-day with 3:1 weights and no
// smoothing, which makes expected scores easy to compute by hand.
func twoSourceConfig() Config {
	return Config{
		EnableCrime:     true,
		EnableTimeOfDay: true,
		Weights: map[Category]float64{
			CategoryCrime:     0.75,
			CategoryTimeOfDay: 0.25,
		},
		UpdateInterval:  time.Minute,
		FanoutTimeout:   200 * time.Millisecond,
		UserSensitivity: 1.0,
		Smoothing:       1.0,
		HistorySize:     10,
	}
}

func TestLevelBands(t *testing.T) {
	cases := []struct {
		score float64
		level models.ThreatLevel
	}{
		{0.0, models.ThreatLow},
		{0.33, models.ThreatLow},
		{0.34, models.ThreatMedium},
		{0.5, models.ThreatMedium},
		{0.67, models.ThreatMedium},
		{0.68, models.ThreatHigh},
		{1.0, models.ThreatHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, LevelForScore(tc.score), "score %.2f", tc.score)
	}
}

func TestAnalyzeWeightedAggregation(t *testing.T) {
	crime := &stubSource{cat: CategoryCrime, value: 0.8}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.4}
	e := NewEngine(twoSourceConfig(), []Source{crime, tod}, nil, nil)

	result := e.Analyze(context.Background(), nil, false)

	require.NotNil(t, result)
	assert.InDelta(t, 0.75*0.8+0.25*0.4, result.Score, 1e-9)
	assert.Equal(t, models.ThreatHigh, result.Level)
	assert.Equal(t, 2, result.SourcesAvailable)
	assert.Equal(t, len(AllCategories), result.SourcesTotal)
	assert.InDelta(t, 2.0/6.0, result.Confidence, 1e-9)
	assert.Len(t, result.Factors, len(AllCategories))
}

func TestAnalyzeServesCachedResult(t *testing.T) {
	crime := &stubSource{cat: CategoryCrime, value: 0.2}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.2}
	e := NewEngine(twoSourceConfig(), []Source{crime, tod}, nil, nil)

	first := e.Analyze(context.Background(), nil, false)
	second := e.Analyze(context.Background(), nil, false)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, crime.fetches.Load())
}

func TestForceRefreshBypassesCache(t *testing.T) {
	crime := &stubSource{cat: CategoryCrime, value: 0.2}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.2}
	e := NewEngine(twoSourceConfig(), []Source{crime, tod}, nil, nil)

	e.Analyze(context.Background(), nil, false)
	e.Analyze(context.Background(), nil, true)

	assert.EqualValues(t, 2, crime.fetches.Load())
}

func TestTimeoutFallsBackToNeutralDefault(t *testing.T) {
	cfg := twoSourceConfig()
	cfg.FanoutTimeout = 10 * time.Millisecond
	blocked := &stubSource{cat: CategoryCrime, block: true}
	e := NewEngine(cfg, []Source{blocked}, nil, nil)

	result := e.Analyze(context.Background(), nil, false)

	require.NotNil(t, result)
	assert.Equal(t, 0.5, result.Score)
	assert.Equal(t, models.ThreatMedium, result.Level)
	assert.Equal(t, 0.3, result.Confidence)
	assert.Equal(t, []string{"limited data"}, result.PrimaryReasons)
	assert.Equal(t, 0, result.SourcesAvailable)
}

func TestTimeoutFallsBackToLastResult(t *testing.T) {
	cfg := twoSourceConfig()
	cfg.FanoutTimeout = 50 * time.Millisecond
	crime := &stubSource{cat: CategoryCrime, value: 0.9}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.9}
	e := NewEngine(cfg, []Source{crime, tod}, nil, nil)

	first := e.Analyze(context.Background(), nil, false)
	require.Equal(t, models.ThreatHigh, first.Level)

	crime.block = true
	tod.block = true
	second := e.Analyze(context.Background(), nil, true)

	assert.Same(t, first, second)
}

func TestAllSourcesDisabled(t *testing.T) {
	cfg := twoSourceConfig()
	cfg.EnableCrime = false
	cfg.EnableTimeOfDay = false
	e := NewEngine(cfg, []Source{&stubSource{cat: CategoryCrime, value: 1}}, nil, nil)

	result := e.Analyze(context.Background(), nil, false)

	require.NotNil(t, result)
	assert.Equal(t, 0.5, result.Score)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 0, result.SourcesAvailable)
}

func TestFailedSourceIsExcluded(t *testing.T) {
	crime := &stubSource{cat: CategoryCrime, err: errors.New("upstream down")}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.4}
	e := NewEngine(twoSourceConfig(), []Source{crime, tod}, nil, nil)

	result := e.Analyze(context.Background(), nil, false)

	// Only time-of-day contributes; its weight renormalizes to 1.
	assert.InDelta(t, 0.4, result.Score, 1e-9)
	assert.Equal(t, 1, result.SourcesAvailable)
	assert.InDelta(t, 1.0/6.0, result.Confidence, 1e-9)
}

func TestSensitivityScalesScore(t *testing.T) {
	cfg := twoSourceConfig()
	cfg.UserSensitivity = 1.5
	crime := &stubSource{cat: CategoryCrime, value: 0.4}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.4}
	e := NewEngine(cfg, []Source{crime, tod}, nil, nil)

	result := e.Analyze(context.Background(), nil, false)

	assert.InDelta(t, 0.6, result.Score, 1e-9)
}

func TestSmoothingBlendsWithPreviousScore(t *testing.T) {
	cfg := twoSourceConfig()
	cfg.Smoothing = 0.5
	crime := &stubSource{cat: CategoryCrime, value: 1.0}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 1.0}
	e := NewEngine(cfg, []Source{crime, tod}, nil, nil)

	first := e.Analyze(context.Background(), nil, false)
	require.InDelta(t, 1.0, first.Score, 1e-9)

	crime.value = 0
	tod.value = 0
	second := e.Analyze(context.Background(), nil, true)

	assert.InDelta(t, 0.5, second.Score, 1e-9)
}

func TestPrimaryReasonsRankByContribution(t *testing.T) {
	crime := &stubSource{cat: CategoryCrime, value: 0.9}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.1}
	e := NewEngine(twoSourceConfig(), []Source{crime, tod}, nil, nil)

	result := e.Analyze(context.Background(), nil, false)

	require.NotEmpty(t, result.PrimaryReasons)
	assert.Equal(t, "crime reading", result.PrimaryReasons[0])
}

func TestTrendSummarizesHistory(t *testing.T) {
	crime := &stubSource{cat: CategoryCrime, value: 0.9}
	tod := &stubSource{cat: CategoryTimeOfDay, value: 0.9}
	e := NewEngine(twoSourceConfig(), []Source{crime, tod}, nil, nil)

	e.Analyze(context.Background(), nil, false)
	crime.value = 0.1
	tod.value = 0.1
	e.Analyze(context.Background(), nil, true)

	trend := e.Trend()
	assert.Equal(t, 2, trend.Samples)
	assert.InDelta(t, 0.5, trend.AverageScore, 1e-9)
	assert.Equal(t, 1, trend.LevelCounts[models.ThreatHigh])
	assert.Equal(t, 1, trend.LevelCounts[models.ThreatLow])
	require.NotNil(t, trend.LastHighAt)
	assert.Contains(t, trend.TopCategories, CategoryCrime)
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(&Result{Score: float64(i)})
	}
	assert.Equal(t, 3, h.Len())
	trend := h.Trend()
	assert.Equal(t, 3, trend.Samples)
	assert.InDelta(t, 3.0, trend.AverageScore, 1e-9) // scores 2,3,4
}
