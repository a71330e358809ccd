package driver

import (
	"context"

	"AegisGuard/internal/models"
)

// Navigator hands a destination to the platform's navigation layer.
type Navigator interface {
	OpenNavigation(ctx context.Context, dest models.SafePlace) error
}

// Alarm controls the loud deterrent alarm.
type Alarm interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Recorder controls evidence capture.
type Recorder interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Notifier shows and dismisses user-facing status notifications.
type Notifier interface {
	Show(ctx context.Context, key, title, body string) error
	Dismiss(ctx context.Context, key string) error
}

// LocationProvider supplies best-effort device fixes. Nil with nil error means
// no fix is available.
type LocationProvider interface {
	Current(ctx context.Context) (*models.Location, error)
}

// SafePlaceFinder resolves candidate destinations around a position.
type SafePlaceFinder interface {
	FindNearby(ctx context.Context, loc models.Location) ([]models.SafePlace, error)
}

// NopNavigator, NopAlarm, NopRecorder and NopNotifier satisfy the platform
// interfaces for headless deployments and tests.
type NopNavigator struct{}

func (NopNavigator) OpenNavigation(context.Context, models.SafePlace) error { return nil }

type NopAlarm struct{}

func (NopAlarm) Start(context.Context) error { return nil }
func (NopAlarm) Stop(context.Context) error  { return nil }

type NopRecorder struct{}

func (NopRecorder) Start(context.Context) error { return nil }
func (NopRecorder) Stop(context.Context) error  { return nil }

type NopNotifier struct{}

func (NopNotifier) Show(context.Context, string, string, string) error { return nil }
func (NopNotifier) Dismiss(context.Context, string) error              { return nil }
