package protocol

import "AegisGuard/internal/models"

// Effect is a requested side action emitted alongside a transition. The state
// machine never performs I/O itself; the driver executes the effect list in
// emission order and feeds results back in as events.
type Effect interface {
	isEffect()
	Name() string
}

// StartLocationMonitoring requests periodic location fixes.
type StartLocationMonitoring struct{}

// StartContinuousTracking upgrades location monitoring to high-frequency
// tracking for the remainder of the episode.
type StartContinuousTracking struct{}

// StopLocationMonitoring cancels all location polling, periodic or continuous.
type StopLocationMonitoring struct{}

// SendAlerts asks the driver to message the listed contacts. Location is nil
// when no fix is available.
type SendAlerts struct {
	Contacts []models.EmergencyContact
	Message  string
	Location *models.Location
}

// PlaceCalls asks the driver to ring the listed contacts in order.
type PlaceCalls struct {
	Contacts []models.EmergencyContact
}

// SendLocationStatus pushes a progress update to contacts that may receive
// location, while en route to a destination.
type SendLocationStatus struct {
	Contacts    []models.EmergencyContact
	Location    models.Location
	Destination models.SafePlace
}

// StartQuestionTimer starts the countdown for the given question.
type StartQuestionTimer struct {
	QuestionID     string
	TimeoutSeconds int
}

// StopQuestionTimer cancels whatever question countdown is running.
type StopQuestionTimer struct{}

// StartEscalationMonitoring begins periodic threat re-scoring and automatic
// escalation for the active phase.
type StartEscalationMonitoring struct{}

// StopEscalationMonitoring cancels escalation polling.
type StopEscalationMonitoring struct{}

// StartJourneyMonitoring begins arrival detection toward the destination.
type StartJourneyMonitoring struct {
	Destination models.SafePlace
}

// StopJourneyMonitoring cancels arrival detection.
type StopJourneyMonitoring struct{}

// StartAlarm / StopAlarm control the loud deterrent alarm.
type StartAlarm struct{}
type StopAlarm struct{}

// StartRecording / StopRecording control evidence capture.
type StartRecording struct{}
type StopRecording struct{}

// ShowNotification surfaces a status message to the victim. Key lets the
// driver replace or dismiss it later.
type ShowNotification struct {
	Key   string
	Title string
	Body  string
}

// DismissNotification removes a previously shown notification.
type DismissNotification struct {
	Key string
}

// OpenNavigation hands the destination to the platform's navigation app.
type OpenNavigation struct {
	Destination models.SafePlace
}

// NotifyCancellation tells previously alerted contacts the episode is over.
type NotifyCancellation struct {
	Contacts []models.EmergencyContact
	Message  string
}

func (StartLocationMonitoring) isEffect()   {}
func (StartContinuousTracking) isEffect()   {}
func (StopLocationMonitoring) isEffect()    {}
func (SendAlerts) isEffect()                {}
func (PlaceCalls) isEffect()                {}
func (SendLocationStatus) isEffect()        {}
func (StartQuestionTimer) isEffect()        {}
func (StopQuestionTimer) isEffect()         {}
func (StartEscalationMonitoring) isEffect() {}
func (StopEscalationMonitoring) isEffect()  {}
func (StartJourneyMonitoring) isEffect()    {}
func (StopJourneyMonitoring) isEffect()     {}
func (StartAlarm) isEffect()                {}
func (StopAlarm) isEffect()                 {}
func (StartRecording) isEffect()            {}
func (StopRecording) isEffect()             {}
func (ShowNotification) isEffect()          {}
func (DismissNotification) isEffect()       {}
func (OpenNavigation) isEffect()            {}
func (NotifyCancellation) isEffect()        {}

func (StartLocationMonitoring) Name() string   { return "StartLocationMonitoring" }
func (StartContinuousTracking) Name() string   { return "StartContinuousTracking" }
func (StopLocationMonitoring) Name() string    { return "StopLocationMonitoring" }
func (SendAlerts) Name() string                { return "SendAlerts" }
func (PlaceCalls) Name() string                { return "PlaceCalls" }
func (SendLocationStatus) Name() string        { return "SendLocationStatus" }
func (StartQuestionTimer) Name() string        { return "StartQuestionTimer" }
func (StopQuestionTimer) Name() string         { return "StopQuestionTimer" }
func (StartEscalationMonitoring) Name() string { return "StartEscalationMonitoring" }
func (StopEscalationMonitoring) Name() string  { return "StopEscalationMonitoring" }
func (StartJourneyMonitoring) Name() string    { return "StartJourneyMonitoring" }
func (StopJourneyMonitoring) Name() string     { return "StopJourneyMonitoring" }
func (StartAlarm) Name() string                { return "StartAlarm" }
func (StopAlarm) Name() string                 { return "StopAlarm" }
func (StartRecording) Name() string            { return "StartRecording" }
func (StopRecording) Name() string             { return "StopRecording" }
func (ShowNotification) Name() string          { return "ShowNotification" }
func (DismissNotification) Name() string       { return "DismissNotification" }
func (OpenNavigation) Name() string            { return "OpenNavigation" }
func (NotifyCancellation) Name() string        { return "NotifyCancellation" }
