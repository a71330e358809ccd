package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocationStale(t *testing.T) {
	now := time.Date(2025, 6, 14, 12, 0, 0, 0, time.UTC)

	fresh := Location{Timestamp: now.Add(-30 * time.Minute)}
	assert.False(t, fresh.Stale(now))

	old := Location{Timestamp: now.Add(-MaxLocationAge - time.Second)}
	assert.True(t, old.Stale(now))
}

func TestDistanceMeters(t *testing.T) {
	// Madrid Puerta del Sol to Plaza Mayor, roughly 400m.
	sol := Location{Latitude: 40.41694, Longitude: -3.70346}
	mayor := Location{Latitude: 40.41540, Longitude: -3.70740}

	d := sol.DistanceMeters(mayor)
	assert.InDelta(t, 375, d, 50)
	assert.InDelta(t, d, mayor.DistanceMeters(sol), 1e-6)
	assert.Equal(t, 0.0, sol.DistanceMeters(sol))
}

func TestThreatLevelOrdering(t *testing.T) {
	assert.True(t, ThreatCritical.AtLeast(ThreatHigh))
	assert.True(t, ThreatHigh.AtLeast(ThreatHigh))
	assert.False(t, ThreatLow.AtLeast(ThreatMedium))

	assert.Equal(t, ThreatHigh, ThreatMedium.Max(ThreatHigh))
	assert.Equal(t, ThreatHigh, ThreatHigh.Max(ThreatLow))
	assert.Equal(t, "CRITICAL", ThreatCritical.String())
	assert.Equal(t, "UNKNOWN", ThreatUnknown.String())
}

func TestTopByPriority(t *testing.T) {
	contacts := []EmergencyContact{
		{ID: "c3", Name: "Cleo", Priority: 3},
		{ID: "c1", Name: "Ana", Priority: 1},
		{ID: "c2", Name: "Ben", Priority: 2},
	}

	top := TopByPriority(contacts, 2)

	assert.Len(t, top, 2)
	assert.Equal(t, "Ana", top[0].Name)
	assert.Equal(t, "Ben", top[1].Name)
	// Input order untouched.
	assert.Equal(t, "Cleo", contacts[0].Name)

	assert.Len(t, TopByPriority(contacts, 10), 3)
	assert.Empty(t, TopByPriority(nil, 2))
}
