package scoring

import (
	"context"
	"fmt"

	"AegisGuard/internal/models"
)

// AreaProfile describes what is known about the immediate surroundings.
// Distances are meters; densities are normalized 0..1 within the city.
type AreaProfile struct {
	PoliceDistanceMeters float64
	StreetLighting       float64
	CCTVDensity          float64
	PopulationDensity    float64
	KnownSafeZone        bool
	KnownHighRiskZone    bool
}

// AreaProfileProvider resolves the profile for a position. Implementations
// back onto municipal open data or a bundled offline extract.
type AreaProfileProvider interface {
	Profile(ctx context.Context, loc models.Location) (AreaProfile, error)
}

// LocationSafetySource starts from a neutral score and adjusts it by proximity
// to police, lighting, CCTV coverage, population density and known zone flags.
type LocationSafetySource struct {
	provider AreaProfileProvider
}

func NewLocationSafetySource(provider AreaProfileProvider) *LocationSafetySource {
	return &LocationSafetySource{provider: provider}
}

func (s *LocationSafetySource) Category() Category { return CategoryLocation }

func (s *LocationSafetySource) Fetch(ctx context.Context, loc *models.Location) (Reading, error) {
	if loc == nil {
		return Reading{}, fmt.Errorf("location safety source requires a location")
	}
	profile, err := s.provider.Profile(ctx, *loc)
	if err != nil {
		return Reading{}, err
	}

	value := 0.5

	// Each adjustment moves the neutral baseline by a bounded amount so no
	// single attribute can dominate the category.
	switch {
	case profile.PoliceDistanceMeters > 0 && profile.PoliceDistanceMeters < 300:
		value -= 0.15
	case profile.PoliceDistanceMeters > 2000:
		value += 0.10
	}
	value -= 0.10 * profile.StreetLighting
	value -= 0.05 * profile.CCTVDensity
	if profile.PopulationDensity < 0.2 {
		value += 0.15 // deserted area
	} else if profile.PopulationDensity > 0.7 {
		value -= 0.05
	}
	if profile.KnownSafeZone {
		value -= 0.20
	}
	if profile.KnownHighRiskZone {
		value += 0.25
	}

	return Reading{
		Value:       clamp01(value),
		Name:        "Area safety",
		Description: describeArea(profile),
	}, nil
}

func describeArea(p AreaProfile) string {
	switch {
	case p.KnownHighRiskZone:
		return "position is inside a flagged high-risk zone"
	case p.KnownSafeZone:
		return "position is inside a designated safe zone"
	case p.PoliceDistanceMeters > 0 && p.PoliceDistanceMeters < 300:
		return "police station within 300m"
	case p.PopulationDensity < 0.2:
		return "deserted area with little foot traffic"
	default:
		return "no notable area risk markers"
	}
}

// StaticAreaProfiles is a provider backed by a fixed zone list, used when no
// municipal data source is configured.
type StaticAreaProfiles struct {
	Zones []StaticZone
}

// StaticZone pairs a center+radius with the profile to report inside it.
type StaticZone struct {
	Center  models.Location
	RadiusM float64
	Profile AreaProfile
}

func (s *StaticAreaProfiles) Profile(_ context.Context, loc models.Location) (AreaProfile, error) {
	for _, zone := range s.Zones {
		if loc.DistanceMeters(zone.Center) <= zone.RadiusM {
			return zone.Profile, nil
		}
	}
	// Unknown territory scores neutral.
	return AreaProfile{StreetLighting: 0.5, PopulationDensity: 0.5}, nil
}
