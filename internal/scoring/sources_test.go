package scoring

import (
	"context"
	"testing"
	"time"

	"AegisGuard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTimeOfDayCurve(t *testing.T) {
	src := NewTimeOfDaySource()
	cases := []struct {
		hour  int
		value float64
	}{
		{2, 0.9},
		{6, 0.5},
		{12, 0.2},
		{19, 0.4},
		{22, 0.7},
	}
	for _, tc := range cases {
		// 2025-06-11 is a Wednesday; no weekend bump.
		src.Now = fixedClock(time.Date(2025, 6, 11, tc.hour, 0, 0, 0, time.UTC))
		reading, err := src.Fetch(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, tc.value, reading.Value, "hour %d", tc.hour)
	}
}

func TestTimeOfDayWeekendNightBump(t *testing.T) {
	src := NewTimeOfDaySource()
	// 2025-06-13 is a Friday.
	src.Now = fixedClock(time.Date(2025, 6, 13, 23, 0, 0, 0, time.UTC))

	reading, err := src.Fetch(context.Background(), nil)

	require.NoError(t, err)
	assert.InDelta(t, 0.8, reading.Value, 1e-9)
}

type fixedProfile struct {
	profile AreaProfile
}

func (f fixedProfile) Profile(context.Context, models.Location) (AreaProfile, error) {
	return f.profile, nil
}

func TestLocationSafetyAdjustments(t *testing.T) {
	loc := &models.Location{Latitude: 40.0, Longitude: -3.0, Timestamp: time.Now()}
	cases := []struct {
		name    string
		profile AreaProfile
		value   float64
	}{
		{"neutral", AreaProfile{PoliceDistanceMeters: 800, PopulationDensity: 0.5}, 0.5},
		{"police nearby", AreaProfile{PoliceDistanceMeters: 200, PopulationDensity: 0.5}, 0.35},
		{"deserted and remote", AreaProfile{PoliceDistanceMeters: 3000, PopulationDensity: 0.1}, 0.75},
		{"safe zone", AreaProfile{PoliceDistanceMeters: 800, PopulationDensity: 0.5, KnownSafeZone: true}, 0.3},
		{"high risk zone", AreaProfile{PoliceDistanceMeters: 800, PopulationDensity: 0.5, KnownHighRiskZone: true}, 0.75},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := NewLocationSafetySource(fixedProfile{tc.profile})
			reading, err := src.Fetch(context.Background(), loc)
			require.NoError(t, err)
			assert.InDelta(t, tc.value, reading.Value, 1e-9)
		})
	}
}

func TestLocationSafetyRequiresLocation(t *testing.T) {
	src := NewLocationSafetySource(fixedProfile{})
	_, err := src.Fetch(context.Background(), nil)
	assert.Error(t, err)
}

// walk synthesizes a track of fixes at the given speed in meters/second,
// one fix per second, ending at end.
func walk(end time.Time, n int, speed float64) []models.Location {
	const metersPerDegree = 111320.0
	fixes := make([]models.Location, n)
	for i := 0; i < n; i++ {
		offset := speed * float64(i) / metersPerDegree
		fixes[i] = models.Location{
			Latitude:  40.0 + offset,
			Longitude: -3.0,
			Timestamp: end.Add(-time.Duration(n-1-i) * time.Second),
		}
	}
	return fixes
}

func TestBehavioralRequiresHistory(t *testing.T) {
	src := NewBehavioralSource()
	_, err := src.Fetch(context.Background(), nil)
	assert.Error(t, err)

	src.Observe(models.Location{Timestamp: time.Now()})
	src.Observe(models.Location{Timestamp: time.Now()})
	_, err = src.Fetch(context.Background(), nil)
	assert.Error(t, err)
}

func TestBehavioralStaleHistory(t *testing.T) {
	src := NewBehavioralSource()
	for _, fix := range walk(time.Now().Add(-time.Hour), 5, 1.4) {
		src.Observe(fix)
	}
	_, err := src.Fetch(context.Background(), nil)
	assert.Error(t, err)
}

func TestBehavioralNormalWalk(t *testing.T) {
	src := NewBehavioralSource()
	for _, fix := range walk(time.Now(), 10, 1.4) {
		src.Observe(fix)
	}

	reading, err := src.Fetch(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0.2, reading.Value)
}

func TestBehavioralSprintDetection(t *testing.T) {
	src := NewBehavioralSource()
	now := time.Now()
	fixes := walk(now.Add(-time.Second), 10, 1.4)
	for _, fix := range fixes {
		src.Observe(fix)
	}
	// One final fix ~7 m/s away from the last walking fix.
	last := fixes[len(fixes)-1]
	src.Observe(models.Location{
		Latitude:  last.Latitude + 7.0/111320.0,
		Longitude: last.Longitude,
		Timestamp: now,
	})

	reading, err := src.Fetch(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0.8, reading.Value)
}

func TestBehavioralAbruptStop(t *testing.T) {
	src := NewBehavioralSource()
	now := time.Now()
	fixes := walk(now.Add(-time.Second), 10, 2.0)
	for _, fix := range fixes {
		src.Observe(fix)
	}
	last := fixes[len(fixes)-1]
	src.Observe(models.Location{Latitude: last.Latitude, Longitude: last.Longitude, Timestamp: now})

	reading, err := src.Fetch(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, 0.6, reading.Value)
}

func TestEnvironmentalDarknessRaisesRisk(t *testing.T) {
	day := NewEnvironmentalSource(&FixedWeather{Cond: Conditions{Daylight: true, Visibility: 1.0}})
	night := NewEnvironmentalSource(&FixedWeather{Cond: Conditions{Daylight: false, Visibility: 1.0}})
	loc := &models.Location{Latitude: 40, Longitude: -3, Timestamp: time.Now()}

	dayReading, err := day.Fetch(context.Background(), loc)
	require.NoError(t, err)
	nightReading, err := night.Fetch(context.Background(), loc)
	require.NoError(t, err)

	assert.Greater(t, nightReading.Value, dayReading.Value)
}
