package scoring

import (
	"context"
	"fmt"

	"AegisGuard/internal/models"
)

// Conditions is the weather/visibility snapshot used by the environmental
// source. Precipitation and visibility are normalized 0..1.
type Conditions struct {
	Precipitation float64
	Visibility    float64 // 1 = clear
	TempCelsius   float64
	Daylight      bool
}

// WeatherProvider resolves conditions for a position.
type WeatherProvider interface {
	Conditions(ctx context.Context, loc models.Location) (Conditions, error)
}

// EnvironmentalSource scores how much the current conditions impair escape or
// visibility. Darkness and poor visibility dominate; precipitation and extreme
// cold add smaller amounts.
type EnvironmentalSource struct {
	provider WeatherProvider
}

func NewEnvironmentalSource(provider WeatherProvider) *EnvironmentalSource {
	return &EnvironmentalSource{provider: provider}
}

func (s *EnvironmentalSource) Category() Category { return CategoryEnvironmental }

func (s *EnvironmentalSource) Fetch(ctx context.Context, loc *models.Location) (Reading, error) {
	if loc == nil {
		return Reading{}, fmt.Errorf("environmental source requires a location")
	}
	cond, err := s.provider.Conditions(ctx, *loc)
	if err != nil {
		return Reading{}, err
	}

	value := 0.2
	if !cond.Daylight {
		value += 0.3
	}
	value += 0.2 * (1 - clamp01(cond.Visibility))
	value += 0.15 * clamp01(cond.Precipitation)
	if cond.TempCelsius < -10 {
		value += 0.1
	}

	desc := "conditions are clear"
	if !cond.Daylight {
		desc = "it is dark outside"
	}
	if cond.Visibility < 0.4 {
		desc = "visibility is poor"
	}

	return Reading{
		Value:       clamp01(value),
		Name:        "Environmental conditions",
		Description: desc,
	}, nil
}

// FixedWeather is a provider returning a constant snapshot; the default when
// no weather API is configured.
type FixedWeather struct {
	Cond Conditions
}

func (f *FixedWeather) Conditions(_ context.Context, _ models.Location) (Conditions, error) {
	return f.Cond, nil
}
