package scoring

import (
	"context"
	"time"

	"AegisGuard/internal/models"
)

// Reading is one source's normalized contribution to a scoring pass.
type Reading struct {
	// Value is the category risk in [0,1]; 0 is safest.
	Value       float64
	Name        string
	Description string
}

// Source is a single risk-data provider. Fetch must respect ctx: the engine
// runs all sources under one shared deadline and drops whatever misses it.
type Source interface {
	Category() Category
	Fetch(ctx context.Context, loc *models.Location) (Reading, error)
}

// Factor is one source's weighted outcome within a finished pass.
type Factor struct {
	Category     Category `json:"category"`
	Name         string   `json:"name"`
	Value        float64  `json:"value"`
	Weight       float64  `json:"weight"`
	Contribution float64  `json:"contribution"`
	Description  string   `json:"description"`
	Available    bool     `json:"available"`
}

// Result is one completed threat analysis.
type Result struct {
	Timestamp        time.Time          `json:"timestamp"`
	Score            float64            `json:"score"`
	Level            models.ThreatLevel `json:"level"`
	Location         *models.Location   `json:"location,omitempty"`
	Factors          []Factor           `json:"factors"`
	PrimaryReasons   []string           `json:"primaryReasons"`
	Confidence       float64            `json:"confidence"`
	SourcesAvailable int                `json:"sourcesAvailable"`
	SourcesTotal     int                `json:"sourcesTotal"`
}

// LevelForScore maps a score to the three-band operating level. Bands are
// exhaustive and non-overlapping: LOW [0,0.33], MEDIUM (0.33,0.67],
// HIGH (0.67,1.0].
func LevelForScore(score float64) models.ThreatLevel {
	switch {
	case score <= 0.33:
		return models.ThreatLow
	case score <= 0.67:
		return models.ThreatMedium
	default:
		return models.ThreatHigh
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
