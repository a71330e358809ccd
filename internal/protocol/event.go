package protocol

import "AegisGuard/internal/models"

// Event is the closed set of inputs the state machine reacts to. Events come
// from the user (taps), from timers owned by the driver, and from collaborator
// callbacks feeding results back in.
type Event interface {
	isEvent()
	Name() string
}

// TriggerEmergency starts a fresh episode. Only valid from Idle and Resolved.
type TriggerEmergency struct{}

// PresentQuestion delivers the advisor-generated first question.
type PresentQuestion struct {
	Question models.ProtocolQuestion
}

// AnswerYes is the victim confirming they are safe.
type AnswerYes struct{}

// AnswerNo is the victim confirming they are not safe.
type AnswerNo struct{}

// QuestionTimeout fires when the active question's countdown elapses.
// QuestionID guards against a stale timer racing a just-presented question.
type QuestionTimeout struct {
	QuestionID string
}

// ThreatNearby selects the hunker-down path at the second decision point.
type ThreatNearby struct{}

// EscapeToSafety selects the navigate-away path at the second decision point.
type EscapeToSafety struct{}

// AlertsSent reports delivery results from the driver's alert executor.
type AlertsSent struct {
	Records []models.AlertRecord
}

// LocationUpdated carries a new device fix.
type LocationUpdated struct {
	Location models.Location
}

// SafePlacesFound delivers candidate destinations for the escape path.
type SafePlacesFound struct {
	Places []models.SafePlace
}

// NavigateToPlace is the victim choosing a destination.
type NavigateToPlace struct {
	Place models.SafePlace
}

// ArrivedAtDestination fires when journey monitoring detects arrival.
type ArrivedAtDestination struct{}

// ThreatLevelUpdated carries the scoring engine's latest level.
type ThreatLevelUpdated struct {
	Level models.ThreatLevel
}

// UserConfirmedSafe resolves the episode as safe from the Active phase.
type UserConfirmedSafe struct{}

// CancelEmergency aborts the episode from any non-terminal state.
type CancelEmergency struct{}

func (TriggerEmergency) isEvent()     {}
func (PresentQuestion) isEvent()      {}
func (AnswerYes) isEvent()            {}
func (AnswerNo) isEvent()             {}
func (QuestionTimeout) isEvent()      {}
func (ThreatNearby) isEvent()         {}
func (EscapeToSafety) isEvent()       {}
func (AlertsSent) isEvent()           {}
func (LocationUpdated) isEvent()      {}
func (SafePlacesFound) isEvent()      {}
func (NavigateToPlace) isEvent()      {}
func (ArrivedAtDestination) isEvent() {}
func (ThreatLevelUpdated) isEvent()   {}
func (UserConfirmedSafe) isEvent()    {}
func (CancelEmergency) isEvent()      {}

func (TriggerEmergency) Name() string     { return "TriggerEmergency" }
func (PresentQuestion) Name() string      { return "PresentQuestion" }
func (AnswerYes) Name() string            { return "AnswerYes" }
func (AnswerNo) Name() string             { return "AnswerNo" }
func (QuestionTimeout) Name() string      { return "QuestionTimeout" }
func (ThreatNearby) Name() string         { return "ThreatNearby" }
func (EscapeToSafety) Name() string       { return "EscapeToSafety" }
func (AlertsSent) Name() string           { return "AlertsSent" }
func (LocationUpdated) Name() string      { return "LocationUpdated" }
func (SafePlacesFound) Name() string      { return "SafePlacesFound" }
func (NavigateToPlace) Name() string      { return "NavigateToPlace" }
func (ArrivedAtDestination) Name() string { return "ArrivedAtDestination" }
func (ThreatLevelUpdated) Name() string   { return "ThreatLevelUpdated" }
func (UserConfirmedSafe) Name() string    { return "UserConfirmedSafe" }
func (CancelEmergency) Name() string      { return "CancelEmergency" }
