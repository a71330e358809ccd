package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyProvider serves a scripted sequence of fixes and errors.
type flakyProvider struct {
	fixes []*models.Location
	errs  []error
	calls int
}

func (f *flakyProvider) Current(context.Context) (*models.Location, error) {
	i := f.calls
	f.calls++
	var fix *models.Location
	var err error
	if i < len(f.fixes) {
		fix = f.fixes[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return fix, err
}

func TestCachedLocationServesLastGoodFix(t *testing.T) {
	fix := &models.Location{Latitude: 40.4168, Longitude: -3.7038, Timestamp: time.Now()}
	inner := &flakyProvider{
		fixes: []*models.Location{fix, nil},
		errs:  []error{nil, errors.New("gps unavailable")},
	}
	c := NewCachedLocation(inner)

	got, err := c.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)

	// Second call fails upstream but the cached fix papers over it.
	got, err = c.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 40.4168, got.Latitude, 1e-6)
}

func TestCachedLocationRejectsStaleFix(t *testing.T) {
	old := &models.Location{Latitude: 1, Longitude: 1, Timestamp: time.Now().Add(-2 * models.MaxLocationAge)}
	inner := &flakyProvider{
		fixes: []*models.Location{old, nil},
		errs:  []error{nil, errors.New("gps unavailable")},
	}
	c := NewCachedLocation(inner)

	_, err := c.Current(context.Background())
	require.NoError(t, err)

	got, err := c.Current(context.Background())
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestCachedLocationRecordInstallsPushedFix(t *testing.T) {
	inner := &flakyProvider{errs: []error{errors.New("gps unavailable")}}
	c := NewCachedLocation(inner)
	c.Record(models.Location{Latitude: 2, Longitude: 3, Timestamp: time.Now()})

	got, err := c.Current(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.InDelta(t, 2.0, got.Latitude, 1e-9)
}

// countingFinder records how often the expensive lookup actually runs.
type countingFinder struct {
	places []models.SafePlace
	err    error
	calls  int
}

func (f *countingFinder) FindNearby(context.Context, models.Location) ([]models.SafePlace, error) {
	f.calls++
	return f.places, f.err
}

func TestCachedPlacesMemoizesPerCell(t *testing.T) {
	inner := &countingFinder{places: []models.SafePlace{{ID: "p1", Name: "Station"}}}
	p := NewCachedPlaces(inner, cache.NewGoCache(cache.LocalConfig{}), time.Minute)
	ctx := context.Background()

	loc := models.Location{Latitude: 40.4168, Longitude: -3.7038}
	first, err := p.FindNearby(ctx, loc)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A nearby query lands in the same cell and skips the lookup.
	near := models.Location{Latitude: 40.4171, Longitude: -3.7041}
	second, err := p.FindNearby(ctx, near)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)

	// A distant query misses.
	far := models.Location{Latitude: 41.0, Longitude: -3.7}
	_, err = p.FindNearby(ctx, far)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedPlacesPropagatesLookupErrors(t *testing.T) {
	inner := &countingFinder{err: errors.New("maps api down")}
	p := NewCachedPlaces(inner, cache.NewGoCache(cache.LocalConfig{}), time.Minute)

	_, err := p.FindNearby(context.Background(), models.Location{Latitude: 1, Longitude: 1})
	assert.Error(t, err)
}

func TestStaticPlacesOrdersByDistanceAndLimits(t *testing.T) {
	origin := models.Location{Latitude: 40.0, Longitude: -3.0}
	finder := StaticPlaces{
		Places: []models.SafePlace{
			{ID: "far", Location: models.Location{Latitude: 40.1, Longitude: -3.0}},
			{ID: "near", Location: models.Location{Latitude: 40.001, Longitude: -3.0}},
			{ID: "mid", Location: models.Location{Latitude: 40.01, Longitude: -3.0}},
		},
		Limit: 2,
	}

	places, err := finder.FindNearby(context.Background(), origin)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "near", places[0].ID)
	assert.Equal(t, "mid", places[1].ID)
}
