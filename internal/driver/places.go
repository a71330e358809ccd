package driver

import (
	"context"
	"sort"

	"AegisGuard/internal/models"
)

// StaticPlaces serves safe places from an in-memory list, nearest first.
// Production deployments swap in a maps-API backed finder.
type StaticPlaces struct {
	Places []models.SafePlace
	Limit  int
}

func (s StaticPlaces) FindNearby(_ context.Context, loc models.Location) ([]models.SafePlace, error) {
	out := make([]models.SafePlace, len(s.Places))
	copy(out, s.Places)
	sort.SliceStable(out, func(i, j int) bool {
		di := loc.DistanceMeters(out[i].Location)
		dj := loc.DistanceMeters(out[j].Location)
		return di < dj
	})
	limit := s.Limit
	if limit <= 0 {
		limit = 5
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
