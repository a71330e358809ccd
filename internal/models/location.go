package models

import (
	"math"
	"time"
)

// MaxLocationAge is the ceiling beyond which a cached fix is considered
// useless for emergency decisions.
const MaxLocationAge = 60 * time.Minute

// Location is a device fix. Accuracy is the radius in meters the platform
// reported for the fix; zero means unknown.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stale reports whether the fix is older than MaxLocationAge at the given
// reference time.
func (l Location) Stale(now time.Time) bool {
	return now.Sub(l.Timestamp) > MaxLocationAge
}

// DistanceMeters returns the haversine distance to other in meters.
func (l Location) DistanceMeters(other Location) float64 {
	const earthRadius = 6371000.0
	lat1 := l.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - l.Latitude) * math.Pi / 180
	dLon := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadius * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SafePlaceCategory classifies candidate destinations shown on the escape path.
type SafePlaceCategory string

const (
	PlacePoliceStation SafePlaceCategory = "police_station"
	PlaceHospital      SafePlaceCategory = "hospital"
	PlaceOpenBusiness  SafePlaceCategory = "open_business"
	PlaceTransitHub    SafePlaceCategory = "transit_hub"
)

// SafePlace is a candidate destination for the escape-to-safety path.
type SafePlace struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Category       SafePlaceCategory `json:"category"`
	Location       Location          `json:"location"`
	DistanceMeters float64           `json:"distanceMeters"`
	OpenNow        bool              `json:"openNow"`
}
