package scoring

import (
	"context"
	"fmt"
	"time"

	"AegisGuard/internal/models"
)

// TimeOfDaySource scores the baseline risk of the current hour. The curve is
// fixed: late night is the riskiest window, business hours the safest, with
// weekend nights nudged upward.
type TimeOfDaySource struct {
	// Now is replaceable in tests; defaults to time.Now.
	Now func() time.Time
}

func NewTimeOfDaySource() *TimeOfDaySource {
	return &TimeOfDaySource{Now: time.Now}
}

func (s *TimeOfDaySource) Category() Category { return CategoryTimeOfDay }

func (s *TimeOfDaySource) Fetch(_ context.Context, _ *models.Location) (Reading, error) {
	now := s.Now()
	hour := now.Hour()

	var value float64
	switch {
	case hour >= 0 && hour < 5:
		value = 0.9
	case hour >= 5 && hour < 7:
		value = 0.5
	case hour >= 7 && hour < 18:
		value = 0.2
	case hour >= 18 && hour < 21:
		value = 0.4
	default: // 21:00 - 23:59
		value = 0.7
	}

	weekday := now.Weekday()
	if (weekday == time.Friday || weekday == time.Saturday) && (hour >= 22 || hour < 4) {
		value += 0.1
	}

	return Reading{
		Value:       clamp01(value),
		Name:        "Time of day",
		Description: fmt.Sprintf("baseline risk for %02d:00 on %s", hour, weekday),
	}, nil
}
