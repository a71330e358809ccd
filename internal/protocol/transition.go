package protocol

import (
	"time"

	"AegisGuard/internal/models"
)

// Context supplies the read-only inputs a transition may consult. The state
// machine does not own any of it.
type Context struct {
	Contacts []models.EmergencyContact
	Location *models.Location
	Now      time.Time
}

// Fixed protocol copy. The first question comes from the advisor; the second
// (proximity) question and the outreach message are deliberately not
// model-generated so the escalation path never waits on an LLM.
const (
	ProximityQuestionText = "Is the threat near you right now?"
	UrgentAlertMessage    = "EMERGENCY: I need help. This is an automated alert from my safety app. Please call me immediately."
	AllClearMessage       = "False alarm - I am safe. Sorry for the scare. No action needed."
	ArrivedMessage        = "I have reached a safe place. Thank you. No further action needed."

	notifyKeyProtocol = "protocol"
)

// callContactCount is how many top-priority contacts get a voice call when the
// first question goes unanswered or is answered no.
const callContactCount = 2

// Transition is the protocol's only state-mutation rule: a pure function from
// (state, event, context) to the next state plus the ordered effect list the
// driver must execute. Every (state, event) pair not handled below is a no-op
// returning the unchanged state and no effects.
func Transition(state State, event Event, ctx Context) (State, []Effect) {
	switch s := state.(type) {
	case Idle:
		if _, ok := event.(TriggerEmergency); ok {
			return startEpisode(ctx)
		}

	case Triggered:
		switch ev := event.(type) {
		case PresentQuestion:
			question := ev.Question
			if question.TimeoutSeconds <= 0 {
				question.TimeoutSeconds = models.DefaultQuestionTimeout
			}
			next := Questioning{
				Sess:        s.Sess,
				Question:    question,
				PresentedAt: ctx.Now,
				Deadline:    ctx.Now.Add(time.Duration(question.TimeoutSeconds) * time.Second),
			}
			return next, []Effect{
				StartQuestionTimer{QuestionID: question.ID, TimeoutSeconds: question.TimeoutSeconds},
			}
		case CancelEmergency:
			return cancelEpisode(s.Sess, ctx)
		}

	case Questioning:
		switch ev := event.(type) {
		case AnswerYes:
			sess := s.Sess.
				WithResponse(response(s, true, ctx.Now)).
				WithThreatLevel(s.Question.LevelIfAnswered).
				Resolve(models.ResolutionUserSafe, ctx.Now)
			effects := []Effect{
				StopQuestionTimer{},
				StopLocationMonitoring{},
				ShowNotification{Key: notifyKeyProtocol, Title: "All clear", Body: "Glad you are safe. Emergency cancelled."},
			}
			return Resolved{Sess: sess, Reason: models.ResolutionUserSafe}, effects
		case AnswerNo:
			return escalateToPathSelection(s, true, ctx)
		case QuestionTimeout:
			if ev.QuestionID != s.Question.ID {
				break // stale timer from a previous question
			}
			return escalateToPathSelection(s, false, ctx)
		case CancelEmergency:
			return cancelEpisode(s.Sess, ctx)
		}

	case PathSelection:
		switch ev := event.(type) {
		case ThreatNearby:
			return chooseThreatNearby(s, true, ctx)
		case QuestionTimeout:
			if ev.QuestionID != s.Question.ID {
				break
			}
			// Timeout defaults to the conservative, escalating choice.
			return chooseThreatNearby(s, false, ctx)
		case EscapeToSafety:
			sess := s.Sess.
				WithResponse(response(s, true, ctx.Now)).
				WithThreatLevel(models.ThreatHigh)
			next := Active{Sess: sess, Path: models.PathEscapeToSafety}
			effects := []Effect{
				StopQuestionTimer{},
				StartEscalationMonitoring{},
				ShowNotification{Key: notifyKeyProtocol, Title: "Get to safety", Body: "Pick a safe place and we will guide you there."},
			}
			return next, effects
		case AlertsSent:
			return PathSelection{
				Sess:        s.Sess.WithAlerts(ev.Records...),
				Question:    s.Question,
				PresentedAt: s.PresentedAt,
				Deadline:    s.Deadline,
			}, nil
		case ThreatLevelUpdated:
			return PathSelection{
				Sess:        s.Sess.WithThreatLevel(s.Sess.ThreatLevel.Max(ev.Level)),
				Question:    s.Question,
				PresentedAt: s.PresentedAt,
				Deadline:    s.Deadline,
			}, nil
		case CancelEmergency:
			return cancelEpisode(s.Sess, ctx)
		}

	case Active:
		switch ev := event.(type) {
		case LocationUpdated:
			next := s
			next.Sess = s.Sess.WithLocation(ev.Location)
			if s.Path == models.PathEscapeToSafety && s.Destination != nil {
				receivers := locationReceivers(ctx.Contacts)
				if len(receivers) > 0 {
					return next, []Effect{SendLocationStatus{
						Contacts:    receivers,
						Location:    ev.Location,
						Destination: *s.Destination,
					}}
				}
			}
			return next, nil
		case SafePlacesFound:
			next := s
			next.Places = ev.Places
			return next, nil
		case NavigateToPlace:
			next := s
			place := ev.Place
			next.Destination = &place
			return next, []Effect{
				OpenNavigation{Destination: place},
				StartJourneyMonitoring{Destination: place},
			}
		case ArrivedAtDestination:
			sess := s.Sess.Resolve(models.ResolutionArrivedAtSafety, ctx.Now)
			effects := append(stopAllEffects(),
				ShowNotification{Key: notifyKeyProtocol, Title: "You made it", Body: "Arrived at safe place. Emergency resolved."},
				NotifyCancellation{Contacts: ctx.Contacts, Message: ArrivedMessage},
			)
			return Resolved{Sess: sess, Reason: models.ResolutionArrivedAtSafety}, effects
		case ThreatLevelUpdated:
			next := s
			// Levels only ratchet upward within an episode; de-escalation
			// happens through an explicit safe confirmation.
			next.Sess = s.Sess.WithThreatLevel(s.Sess.ThreatLevel.Max(ev.Level))
			return next, nil
		case AlertsSent:
			next := s
			next.Sess = s.Sess.WithAlerts(ev.Records...)
			return next, nil
		case UserConfirmedSafe:
			sess := s.Sess.WithThreatLevel(models.ThreatLow).Resolve(models.ResolutionUserSafe, ctx.Now)
			effects := append(stopAllEffects(),
				ShowNotification{Key: notifyKeyProtocol, Title: "All clear", Body: "Glad you are safe. Emergency resolved."},
				NotifyCancellation{Contacts: ctx.Contacts, Message: AllClearMessage},
			)
			return Resolved{Sess: sess, Reason: models.ResolutionUserSafe}, effects
		case CancelEmergency:
			return cancelEpisode(s.Sess, ctx)
		}

	case Resolved:
		if _, ok := event.(TriggerEmergency); ok {
			// Resolved is not reusable: reset to a clean episode with a fresh id.
			return startEpisode(ctx)
		}
	}

	return state, nil
}

func startEpisode(ctx Context) (State, []Effect) {
	var loc *models.Location
	if ctx.Location != nil && !ctx.Location.Stale(ctx.Now) {
		l := *ctx.Location
		loc = &l
	}
	sess := models.NewSession(ctx.Now, loc)
	return Triggered{Sess: sess}, []Effect{StartLocationMonitoring{}}
}

func escalateToPathSelection(s Questioning, answered bool, ctx Context) (State, []Effect) {
	sess := s.Sess.
		WithResponse(response(s, answered, ctx.Now)).
		WithThreatLevel(s.Question.LevelIfTimedOut)

	second := models.NewQuestion(
		ProximityQuestionText,
		models.DefaultQuestionTimeout,
		models.ThreatCritical,
		models.ThreatCritical,
	)
	next := PathSelection{
		Sess:        sess,
		Question:    second,
		PresentedAt: ctx.Now,
		Deadline:    ctx.Now.Add(time.Duration(second.TimeoutSeconds) * time.Second),
	}
	effects := []Effect{
		StopQuestionTimer{},
		SendAlerts{Contacts: ctx.Contacts, Message: UrgentAlertMessage, Location: sess.LastLocation},
		PlaceCalls{Contacts: models.TopByPriority(ctx.Contacts, callContactCount)},
		StartContinuousTracking{},
		StartQuestionTimer{QuestionID: second.ID, TimeoutSeconds: second.TimeoutSeconds},
	}
	return next, effects
}

func chooseThreatNearby(s PathSelection, answered bool, ctx Context) (State, []Effect) {
	sess := s.Sess.
		WithResponse(response(s, answered, ctx.Now)).
		WithThreatLevel(models.ThreatCritical)
	next := Active{Sess: sess, Path: models.PathThreatNearby}
	effects := []Effect{
		StopQuestionTimer{},
		StartEscalationMonitoring{},
		ShowNotification{Key: notifyKeyProtocol, Title: "Help is being alerted", Body: "Stay on the line. Your contacts have been notified."},
	}
	return next, effects
}

func cancelEpisode(sess models.EmergencySession, ctx Context) (State, []Effect) {
	resolved := sess.Resolve(models.ResolutionManualCancel, ctx.Now)
	effects := stopAllEffects()
	effects = append(effects, DismissNotification{Key: notifyKeyProtocol})
	if len(sess.Alerts) > 0 {
		// Contacts were already disturbed; tell them it is over.
		effects = append(effects, NotifyCancellation{Contacts: ctx.Contacts, Message: AllClearMessage})
	}
	return Resolved{Sess: resolved, Reason: models.ResolutionManualCancel}, effects
}

// stopAllEffects is the full cancellation set emitted on every terminal
// transition out of a monitored state. Order matters for deterministic tests.
func stopAllEffects() []Effect {
	return []Effect{
		StopQuestionTimer{},
		StopLocationMonitoring{},
		StopEscalationMonitoring{},
		StopJourneyMonitoring{},
		StopAlarm{},
		StopRecording{},
	}
}

type questionState interface {
	question() models.ProtocolQuestion
	presentedAt() time.Time
}

func (s Questioning) question() models.ProtocolQuestion   { return s.Question }
func (s Questioning) presentedAt() time.Time              { return s.PresentedAt }
func (s PathSelection) question() models.ProtocolQuestion { return s.Question }
func (s PathSelection) presentedAt() time.Time            { return s.PresentedAt }

func response(s questionState, answered bool, now time.Time) models.VictimResponse {
	return models.VictimResponse{
		QuestionID:   s.question().ID,
		Answered:     answered,
		RespondedAt:  now,
		SecondsTaken: now.Sub(s.presentedAt()).Seconds(),
	}
}

func locationReceivers(contacts []models.EmergencyContact) []models.EmergencyContact {
	var out []models.EmergencyContact
	for _, c := range contacts {
		if c.CanReceiveLocation {
			out = append(out, c)
		}
	}
	return out
}
