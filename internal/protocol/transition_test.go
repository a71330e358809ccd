package protocol

import (
	"testing"
	"time"

	"AegisGuard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 14, 22, 30, 0, 0, time.UTC)

func testContacts() []models.EmergencyContact {
	return []models.EmergencyContact{
		{ID: "c1", Name: "Ana", Phone: "+1111", Relationship: "sister", Priority: 1, CanReceiveLocation: true},
		{ID: "c2", Name: "Ben", Phone: "+2222", Relationship: "friend", Priority: 2},
		{ID: "c3", Name: "Cleo", Phone: "+3333", Relationship: "friend", Priority: 3, CanReceiveLocation: true},
	}
}

func testLocation() *models.Location {
	return &models.Location{Latitude: 40.4168, Longitude: -3.7038, Accuracy: 12, Timestamp: testNow.Add(-time.Minute)}
}

func testCtx() Context {
	return Context{Contacts: testContacts(), Location: testLocation(), Now: testNow}
}

func effectNames(effects []Effect) []string {
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = e.Name()
	}
	return names
}

// questioning builds a Questioning state partway into the countdown.
func questioning(q models.ProtocolQuestion) Questioning {
	presented := testNow.Add(-10 * time.Second)
	return Questioning{
		Sess:        models.NewSession(presented.Add(-time.Second), testLocation()),
		Question:    q,
		PresentedAt: presented,
		Deadline:    presented.Add(time.Duration(q.TimeoutSeconds) * time.Second),
	}
}

func firstQuestion() models.ProtocolQuestion {
	return models.NewQuestion("Are you okay?", 30, models.ThreatLow, models.ThreatMedium)
}

func TestTriggerFromIdle(t *testing.T) {
	state, effects := Transition(Idle{}, TriggerEmergency{}, testCtx())

	triggered, ok := state.(Triggered)
	require.True(t, ok)
	assert.True(t, triggered.Sess.Active)
	assert.Equal(t, models.ThreatUnknown, triggered.Sess.ThreatLevel)
	require.NotNil(t, triggered.Sess.LastLocation)
	assert.Equal(t, testLocation().Latitude, triggered.Sess.LastLocation.Latitude)
	assert.Equal(t, []string{"StartLocationMonitoring"}, effectNames(effects))
}

func TestTriggerDiscardsStaleLocation(t *testing.T) {
	ctx := testCtx()
	ctx.Location.Timestamp = testNow.Add(-models.MaxLocationAge - time.Minute)

	state, _ := Transition(Idle{}, TriggerEmergency{}, ctx)

	triggered := state.(Triggered)
	assert.Nil(t, triggered.Sess.LastLocation)
}

func TestPresentQuestion(t *testing.T) {
	sess := models.NewSession(testNow, nil)
	q := firstQuestion()

	state, effects := Transition(Triggered{Sess: sess}, PresentQuestion{Question: q}, testCtx())

	questioning, ok := state.(Questioning)
	require.True(t, ok)
	assert.Equal(t, q.ID, questioning.Question.ID)
	assert.Equal(t, testNow, questioning.PresentedAt)
	assert.Equal(t, testNow.Add(30*time.Second), questioning.Deadline)
	require.Len(t, effects, 1)
	timer := effects[0].(StartQuestionTimer)
	assert.Equal(t, q.ID, timer.QuestionID)
	assert.Equal(t, 30, timer.TimeoutSeconds)
}

func TestPresentQuestionDefaultsTimeout(t *testing.T) {
	sess := models.NewSession(testNow, nil)
	q := firstQuestion()
	q.TimeoutSeconds = 0

	state, effects := Transition(Triggered{Sess: sess}, PresentQuestion{Question: q}, testCtx())

	assert.Equal(t, models.DefaultQuestionTimeout, state.(Questioning).Question.TimeoutSeconds)
	assert.Equal(t, models.DefaultQuestionTimeout, effects[0].(StartQuestionTimer).TimeoutSeconds)
}

func TestAnswerYesResolvesUserSafe(t *testing.T) {
	s := questioning(firstQuestion())

	state, effects := Transition(s, AnswerYes{}, testCtx())

	resolved, ok := state.(Resolved)
	require.True(t, ok)
	assert.Equal(t, models.ResolutionUserSafe, resolved.Reason)
	assert.False(t, resolved.Sess.Active)
	assert.Equal(t, models.ThreatLow, resolved.Sess.ThreatLevel)

	require.Len(t, resolved.Sess.Responses, 1)
	resp := resolved.Sess.Responses[0]
	assert.True(t, resp.Answered)
	assert.Equal(t, s.Question.ID, resp.QuestionID)
	assert.InDelta(t, 10.0, resp.SecondsTaken, 0.01)

	assert.Equal(t, []string{"StopQuestionTimer", "StopLocationMonitoring", "ShowNotification"}, effectNames(effects))
}

// A "no" and a timeout escalate identically; only the recorded response
// differs.
func TestEscalationPathsAreEquivalent(t *testing.T) {
	q := firstQuestion()

	noState, noEffects := Transition(questioning(q), AnswerNo{}, testCtx())
	toState, toEffects := Transition(questioning(q), QuestionTimeout{QuestionID: q.ID}, testCtx())

	assert.Equal(t, effectNames(noEffects), effectNames(toEffects))

	noPS := noState.(PathSelection)
	toPS := toState.(PathSelection)
	assert.Equal(t, models.ThreatMedium, noPS.Sess.ThreatLevel)
	assert.Equal(t, models.ThreatMedium, toPS.Sess.ThreatLevel)
	assert.True(t, noPS.Sess.Responses[0].Answered)
	assert.False(t, toPS.Sess.Responses[0].Answered)
	assert.Equal(t, ProximityQuestionText, noPS.Question.Text)
}

func TestEscalationEffectOrder(t *testing.T) {
	q := firstQuestion()
	state, effects := Transition(questioning(q), AnswerNo{}, testCtx())

	require.Equal(t, []string{
		"StopQuestionTimer",
		"SendAlerts",
		"PlaceCalls",
		"StartContinuousTracking",
		"StartQuestionTimer",
	}, effectNames(effects))

	alerts := effects[1].(SendAlerts)
	assert.Len(t, alerts.Contacts, 3)
	assert.Equal(t, UrgentAlertMessage, alerts.Message)

	calls := effects[2].(PlaceCalls)
	require.Len(t, calls.Contacts, 2)
	assert.Equal(t, "Ana", calls.Contacts[0].Name)
	assert.Equal(t, "Ben", calls.Contacts[1].Name)

	second := state.(PathSelection).Question
	timer := effects[4].(StartQuestionTimer)
	assert.Equal(t, second.ID, timer.QuestionID)
	assert.NotEqual(t, q.ID, second.ID)
}

func TestStaleTimeoutIsIgnored(t *testing.T) {
	s := questioning(firstQuestion())

	state, effects := Transition(s, QuestionTimeout{QuestionID: "old-question"}, testCtx())

	assert.Equal(t, State(s), state)
	assert.Empty(t, effects)
}

func pathSelection() PathSelection {
	q := firstQuestion()
	ps, _ := Transition(questioning(q), AnswerNo{}, testCtx())
	return ps.(PathSelection)
}

func TestThreatNearbyChoice(t *testing.T) {
	state, effects := Transition(pathSelection(), ThreatNearby{}, testCtx())

	active, ok := state.(Active)
	require.True(t, ok)
	assert.Equal(t, models.PathThreatNearby, active.Path)
	assert.Equal(t, models.ThreatCritical, active.Sess.ThreatLevel)
	assert.Equal(t, []string{"StopQuestionTimer", "StartEscalationMonitoring", "ShowNotification"}, effectNames(effects))
}

// No answer to the proximity question assumes the worst.
func TestProximityTimeoutDefaultsToThreatNearby(t *testing.T) {
	ps := pathSelection()
	state, _ := Transition(ps, QuestionTimeout{QuestionID: ps.Question.ID}, testCtx())

	active := state.(Active)
	assert.Equal(t, models.PathThreatNearby, active.Path)
	assert.Equal(t, models.ThreatCritical, active.Sess.ThreatLevel)
	require.Len(t, active.Sess.Responses, 2)
	assert.False(t, active.Sess.Responses[1].Answered)
}

func TestEscapeChoice(t *testing.T) {
	state, effects := Transition(pathSelection(), EscapeToSafety{}, testCtx())

	active := state.(Active)
	assert.Equal(t, models.PathEscapeToSafety, active.Path)
	assert.Equal(t, models.ThreatHigh, active.Sess.ThreatLevel)
	assert.Equal(t, []string{"StopQuestionTimer", "StartEscalationMonitoring", "ShowNotification"}, effectNames(effects))
}

func activeEscape(dest *models.SafePlace) Active {
	state, _ := Transition(pathSelection(), EscapeToSafety{}, testCtx())
	active := state.(Active)
	active.Destination = dest
	return active
}

func testPlace() models.SafePlace {
	return models.SafePlace{
		ID:       "p1",
		Name:     "Central Police Station",
		Category: models.PlacePoliceStation,
		Location: models.Location{Latitude: 40.42, Longitude: -3.70, Timestamp: testNow},
		OpenNow:  true,
	}
}

func TestSafePlacesFound(t *testing.T) {
	places := []models.SafePlace{testPlace()}

	state, effects := Transition(activeEscape(nil), SafePlacesFound{Places: places}, testCtx())

	assert.Equal(t, places, state.(Active).Places)
	assert.Empty(t, effects)
}

func TestNavigateToPlace(t *testing.T) {
	place := testPlace()

	state, effects := Transition(activeEscape(nil), NavigateToPlace{Place: place}, testCtx())

	active := state.(Active)
	require.NotNil(t, active.Destination)
	assert.Equal(t, place.ID, active.Destination.ID)
	require.Equal(t, []string{"OpenNavigation", "StartJourneyMonitoring"}, effectNames(effects))
	assert.Equal(t, place, effects[1].(StartJourneyMonitoring).Destination)
}

func TestLocationUpdateEnRouteSharesWithConsentingContacts(t *testing.T) {
	place := testPlace()
	fix := models.Location{Latitude: 40.418, Longitude: -3.702, Timestamp: testNow}

	state, effects := Transition(activeEscape(&place), LocationUpdated{Location: fix}, testCtx())

	active := state.(Active)
	require.NotNil(t, active.Sess.LastLocation)
	assert.Equal(t, fix.Latitude, active.Sess.LastLocation.Latitude)

	require.Len(t, effects, 1)
	status := effects[0].(SendLocationStatus)
	require.Len(t, status.Contacts, 2) // only contacts with location consent
	assert.Equal(t, "Ana", status.Contacts[0].Name)
	assert.Equal(t, "Cleo", status.Contacts[1].Name)
	assert.Equal(t, place.ID, status.Destination.ID)
}

func TestLocationUpdateWithoutDestinationIsSilent(t *testing.T) {
	fix := models.Location{Latitude: 40.418, Longitude: -3.702, Timestamp: testNow}

	state, effects := Transition(activeEscape(nil), LocationUpdated{Location: fix}, testCtx())

	assert.Empty(t, effects)
	assert.Equal(t, fix.Latitude, state.(Active).Sess.LastLocation.Latitude)
}

func TestArrivedResolves(t *testing.T) {
	place := testPlace()

	state, effects := Transition(activeEscape(&place), ArrivedAtDestination{}, testCtx())

	resolved := state.(Resolved)
	assert.Equal(t, models.ResolutionArrivedAtSafety, resolved.Reason)
	assert.False(t, resolved.Sess.Active)

	names := effectNames(effects)
	assert.Contains(t, names, "StopJourneyMonitoring")
	assert.Contains(t, names, "StopEscalationMonitoring")
	last := effects[len(effects)-1].(NotifyCancellation)
	assert.Equal(t, ArrivedMessage, last.Message)
}

func TestThreatLevelOnlyRatchetsUp(t *testing.T) {
	active := activeEscape(nil) // HIGH

	state, _ := Transition(active, ThreatLevelUpdated{Level: models.ThreatLow}, testCtx())
	assert.Equal(t, models.ThreatHigh, state.(Active).Sess.ThreatLevel)

	state, _ = Transition(active, ThreatLevelUpdated{Level: models.ThreatCritical}, testCtx())
	assert.Equal(t, models.ThreatCritical, state.(Active).Sess.ThreatLevel)
}

func TestPathSelectionAcceptsThreatLevelUpdates(t *testing.T) {
	ps := pathSelection() // MEDIUM after the escalating answer

	state, effects := Transition(ps, ThreatLevelUpdated{Level: models.ThreatCritical}, testCtx())
	assert.Empty(t, effects)
	next := state.(PathSelection)
	assert.Equal(t, models.ThreatCritical, next.Sess.ThreatLevel)
	assert.Equal(t, ps.Question, next.Question)
	assert.Equal(t, ps.Deadline, next.Deadline)

	state, _ = Transition(ps, ThreatLevelUpdated{Level: models.ThreatLow}, testCtx())
	assert.Equal(t, models.ThreatMedium, state.(PathSelection).Sess.ThreatLevel)
}

func TestUserConfirmedSafe(t *testing.T) {
	state, effects := Transition(activeEscape(nil), UserConfirmedSafe{}, testCtx())

	resolved := state.(Resolved)
	assert.Equal(t, models.ResolutionUserSafe, resolved.Reason)
	assert.Equal(t, models.ThreatLow, resolved.Sess.ThreatLevel)

	last := effects[len(effects)-1].(NotifyCancellation)
	assert.Equal(t, AllClearMessage, last.Message)
}

func TestAlertsSentAppends(t *testing.T) {
	rec := models.AlertRecord{Timestamp: testNow, RecipientName: "Ana", Kind: models.AlertSMS, Success: true}

	state, effects := Transition(pathSelection(), AlertsSent{Records: []models.AlertRecord{rec}}, testCtx())

	assert.Empty(t, effects)
	require.Len(t, state.(PathSelection).Sess.Alerts, 1)
	assert.Equal(t, "Ana", state.(PathSelection).Sess.Alerts[0].RecipientName)
}

func TestCancelFromEveryPhase(t *testing.T) {
	sess := models.NewSession(testNow, nil)
	states := map[string]State{
		"Triggered":     Triggered{Sess: sess},
		"Questioning":   questioning(firstQuestion()),
		"PathSelection": pathSelection(),
		"Active":        activeEscape(nil),
	}
	for name, s := range states {
		t.Run(name, func(t *testing.T) {
			state, effects := Transition(s, CancelEmergency{}, testCtx())
			resolved, ok := state.(Resolved)
			require.True(t, ok)
			assert.Equal(t, models.ResolutionManualCancel, resolved.Reason)
			assert.NotEmpty(t, effects)
		})
	}
}

// Contacts who were never alerted must not get a cancellation text.
func TestCancelNotifiesOnlyAfterAlerts(t *testing.T) {
	_, quiet := Transition(questioning(firstQuestion()), CancelEmergency{}, testCtx())
	for _, e := range quiet {
		assert.NotEqual(t, "NotifyCancellation", e.Name())
	}

	ps := pathSelection()
	ps.Sess = ps.Sess.WithAlerts(models.AlertRecord{RecipientName: "Ana", Kind: models.AlertSMS})
	_, loud := Transition(ps, CancelEmergency{}, testCtx())
	assert.Contains(t, effectNames(loud), "NotifyCancellation")
}

func TestRetriggerFromResolvedStartsFresh(t *testing.T) {
	prev, _ := Transition(questioning(firstQuestion()), AnswerYes{}, testCtx())
	prevID := prev.(Resolved).Sess.ID

	state, effects := Transition(prev, TriggerEmergency{}, testCtx())

	triggered := state.(Triggered)
	assert.NotEqual(t, prevID, triggered.Sess.ID)
	assert.Empty(t, triggered.Sess.Responses)
	assert.Equal(t, []string{"StartLocationMonitoring"}, effectNames(effects))
}

// Every (state, event) pair without an explicit rule leaves the state
// untouched and produces no effects.
func TestUnlistedPairsAreNoOps(t *testing.T) {
	place := testPlace()
	cases := []struct {
		name  string
		state State
		event Event
	}{
		{"idle answer", Idle{}, AnswerYes{}},
		{"idle cancel", Idle{}, CancelEmergency{}},
		{"idle location", Idle{}, LocationUpdated{Location: *testLocation()}},
		{"triggered answer", Triggered{Sess: models.NewSession(testNow, nil)}, AnswerYes{}},
		{"questioning navigate", questioning(firstQuestion()), NavigateToPlace{Place: place}},
		{"questioning arrived", questioning(firstQuestion()), ArrivedAtDestination{}},
		{"path selection yes", pathSelection(), AnswerYes{}},
		{"active answer", activeEscape(nil), AnswerNo{}},
		{"active present", activeEscape(nil), PresentQuestion{Question: firstQuestion()}},
		{"resolved safe", Resolved{Sess: models.NewSession(testNow, nil)}, UserConfirmedSafe{}},
		{"resolved cancel", Resolved{Sess: models.NewSession(testNow, nil)}, CancelEmergency{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state, effects := Transition(tc.state, tc.event, testCtx())
			assert.Equal(t, tc.state, state)
			assert.Empty(t, effects)
		})
	}
}

// Full happy-path walkthrough of the escape scenario.
func TestEscapeScenarioEndToEnd(t *testing.T) {
	ctx := testCtx()

	state, _ := Transition(Idle{}, TriggerEmergency{}, ctx)
	state, _ = Transition(state, PresentQuestion{Question: firstQuestion()}, ctx)
	state, _ = Transition(state, AnswerNo{}, ctx)
	state, _ = Transition(state, EscapeToSafety{}, ctx)
	state, _ = Transition(state, SafePlacesFound{Places: []models.SafePlace{testPlace()}}, ctx)
	state, _ = Transition(state, NavigateToPlace{Place: testPlace()}, ctx)
	state, effects := Transition(state, ArrivedAtDestination{}, ctx)

	resolved, ok := state.(Resolved)
	require.True(t, ok)
	assert.Equal(t, models.ResolutionArrivedAtSafety, resolved.Reason)
	assert.Len(t, resolved.Sess.Responses, 2)
	assert.NotEmpty(t, effects)
}
