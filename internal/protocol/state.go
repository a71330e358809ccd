package protocol

import (
	"time"

	"AegisGuard/internal/models"
)

// State is the closed set of protocol states. The set is sealed by the
// unexported marker method so every transition switch stays exhaustive.
type State interface {
	isState()
	Name() string
	// Session returns the episode session carried by the state, or nil for Idle.
	Session() *models.EmergencySession
}

// Idle means no episode is running.
type Idle struct{}

func (Idle) isState()                          {}
func (Idle) Name() string                      { return "Idle" }
func (Idle) Session() *models.EmergencySession { return nil }

// Triggered means a session exists and location monitoring was requested, but
// the first safety question has not been presented yet.
type Triggered struct {
	Sess models.EmergencySession
}

func (Triggered) isState()                            {}
func (Triggered) Name() string                        { return "Triggered" }
func (s Triggered) Session() *models.EmergencySession { return &s.Sess }

// Questioning holds the active first question and its countdown deadline.
type Questioning struct {
	Sess        models.EmergencySession
	Question    models.ProtocolQuestion
	PresentedAt time.Time
	Deadline    time.Time
}

func (Questioning) isState()                            {}
func (Questioning) Name() string                        { return "Questioning" }
func (s Questioning) Session() *models.EmergencySession { return &s.Sess }

// PathSelection holds the second (proximity) question while contact outreach
// is already underway.
type PathSelection struct {
	Sess        models.EmergencySession
	Question    models.ProtocolQuestion
	PresentedAt time.Time
	Deadline    time.Time
}

func (PathSelection) isState()                            {}
func (PathSelection) Name() string                        { return "PathSelection" }
func (s PathSelection) Session() *models.EmergencySession { return &s.Sess }

// Active is the post-decision phase: either hunkered down with a nearby threat
// or escaping toward a chosen safe place.
type Active struct {
	Sess        models.EmergencySession
	Path        models.EmergencyPath
	Places      []models.SafePlace
	Destination *models.SafePlace
}

func (Active) isState()                            {}
func (Active) Name() string                        { return "Active" }
func (s Active) Session() *models.EmergencySession { return &s.Sess }

// Resolved is terminal for the episode. Only TriggerEmergency is accepted, and
// it starts a completely fresh episode.
type Resolved struct {
	Sess   models.EmergencySession
	Reason models.ResolutionReason
}

func (Resolved) isState()                            {}
func (Resolved) Name() string                        { return "Resolved" }
func (s Resolved) Session() *models.EmergencySession { return &s.Sess }
