package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"AegisGuard/internal/models"
)

// behaviorWindow is how many recent fixes the deviation estimate considers.
const behaviorWindow = 20

// BehavioralSource scores deviation from the victim's normal movement: sudden
// sprints, long freezes, or erratic direction changes all raise the value.
// The driver feeds it every location fix via Observe.
type BehavioralSource struct {
	mu    sync.Mutex
	fixes []models.Location
}

func NewBehavioralSource() *BehavioralSource {
	return &BehavioralSource{}
}

// Observe records a fix into the movement window.
func (s *BehavioralSource) Observe(loc models.Location) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixes = append(s.fixes, loc)
	if len(s.fixes) > behaviorWindow {
		s.fixes = s.fixes[len(s.fixes)-behaviorWindow:]
	}
}

func (s *BehavioralSource) Category() Category { return CategoryBehavioral }

func (s *BehavioralSource) Fetch(_ context.Context, _ *models.Location) (Reading, error) {
	s.mu.Lock()
	fixes := append([]models.Location(nil), s.fixes...)
	s.mu.Unlock()

	if len(fixes) < 3 {
		return Reading{}, fmt.Errorf("not enough movement history (%d fixes)", len(fixes))
	}
	if age := time.Since(fixes[len(fixes)-1].Timestamp); age > 10*time.Minute {
		return Reading{}, fmt.Errorf("movement history is stale (%s old)", age.Round(time.Second))
	}

	speeds := make([]float64, 0, len(fixes)-1)
	for i := 1; i < len(fixes); i++ {
		dt := fixes[i].Timestamp.Sub(fixes[i-1].Timestamp)
		if dt <= 0 {
			continue
		}
		speeds = append(speeds, fixes[i].DistanceMeters(fixes[i-1])/dt.Seconds())
	}
	if len(speeds) < 2 {
		return Reading{}, fmt.Errorf("movement history has no usable intervals")
	}

	var sum float64
	for _, v := range speeds {
		sum += v
	}
	mean := sum / float64(len(speeds))

	var variance float64
	for _, v := range speeds {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(speeds))

	latest := speeds[len(speeds)-1]

	value := 0.2
	desc := "movement looks normal"
	switch {
	case latest > 4.0 && latest > 2*mean:
		// Running flat-out relative to the recent pattern.
		value = 0.8
		desc = "sudden sprint relative to recent movement"
	case latest < 0.1 && mean > 1.0:
		value = 0.6
		desc = "abrupt stop after sustained movement"
	case variance > 4.0:
		value = 0.5
		desc = "erratic movement pattern"
	}

	return Reading{Value: clamp01(value), Name: "Movement deviation", Description: desc}, nil
}
