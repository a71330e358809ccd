package scoring

import (
	"context"
	"fmt"
	"math"
	"time"

	"AegisGuard/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

// crimeRadiusMeters bounds the incident query around the current position.
const crimeRadiusMeters = 1500

// crimeCellTTL is how long aggregated cell statistics stay valid before the
// incident table is queried again for that cell.
const crimeCellTTL = 10 * time.Minute

type crimeStats struct {
	count       int
	avgSeverity float64
	newestData  time.Time
}

// CrimeSource scores recent incident density and severity around the victim.
// Per-cell aggregates are cached so repeated passes near the same position do
// not hit the database every time.
type CrimeSource struct {
	db    *gorm.DB
	cells *expirable.LRU[string, crimeStats]
}

// NewCrimeSource builds the source backed by the incident table.
func NewCrimeSource(db *gorm.DB) *CrimeSource {
	return &CrimeSource{
		db:    db,
		cells: expirable.NewLRU[string, crimeStats](256, nil, crimeCellTTL),
	}
}

func (s *CrimeSource) Category() Category { return CategoryCrime }

// Fetch blends incident count and average severity in the surrounding cell.
// Statistics older than 24 hours are decayed toward neutral rather than
// trusted at face value.
func (s *CrimeSource) Fetch(ctx context.Context, loc *models.Location) (Reading, error) {
	if loc == nil {
		return Reading{}, fmt.Errorf("crime source requires a location")
	}

	key := cellKey(loc.Latitude, loc.Longitude)
	stats, ok := s.cells.Get(key)
	if !ok {
		var err error
		stats, err = s.loadStats(ctx, loc)
		if err != nil {
			return Reading{}, err
		}
		s.cells.Add(key, stats)
	}

	// Count saturates at 20 incidents in the window; severity is already 0..1.
	countScore := math.Min(float64(stats.count)/20.0, 1.0)
	value := 0.6*countScore + 0.4*stats.avgSeverity

	// Decay stale data: past 24h old the blend loses half its authority per
	// additional day, drifting back toward the neutral midpoint.
	if !stats.newestData.IsZero() {
		age := time.Since(stats.newestData)
		if age > 24*time.Hour {
			days := age.Hours()/24 - 1
			decay := math.Pow(0.5, days)
			value = value*decay + 0.5*(1-decay)
		}
	}

	return Reading{
		Value:       clamp01(value),
		Name:        "Recent crime activity",
		Description: fmt.Sprintf("%d incidents reported within %dm in the last 7 days", stats.count, crimeRadiusMeters),
	}, nil
}

func (s *CrimeSource) loadStats(ctx context.Context, loc *models.Location) (crimeStats, error) {
	since := time.Now().Add(-7 * 24 * time.Hour)
	rows, err := models.IncidentsNear(s.db.WithContext(ctx), loc.Latitude, loc.Longitude, crimeRadiusMeters, since)
	if err != nil {
		return crimeStats{}, err
	}

	stats := crimeStats{count: len(rows)}
	if len(rows) == 0 {
		return stats, nil
	}
	var severitySum float64
	for _, row := range rows {
		severitySum += row.Severity
		if row.ReportedAt.After(stats.newestData) {
			stats.newestData = row.ReportedAt
		}
	}
	stats.avgSeverity = severitySum / float64(len(rows))
	return stats, nil
}

// cellKey buckets coordinates to ~1km grid cells.
func cellKey(lat, lon float64) string {
	return fmt.Sprintf("%.2f:%.2f", lat, lon)
}
