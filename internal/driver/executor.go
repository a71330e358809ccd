package driver

import (
	"context"
	"fmt"
	"time"

	"AegisGuard/internal/advisor"
	"AegisGuard/internal/models"
	"AegisGuard/internal/protocol"
	"AegisGuard/pkg/scheduler"

	"go.uber.org/zap"
)

// execute runs the effect list in emission order and returns the alert records
// produced by any outreach effects. A failed delivery becomes a failed record;
// execution never stops early.
func (d *Driver) execute(ctx context.Context, state protocol.State, effects []protocol.Effect) []models.AlertRecord {
	var records []models.AlertRecord
	for _, effect := range effects {
		switch eff := effect.(type) {
		case protocol.StartLocationMonitoring:
			d.startLocationTask(locationPollInterval)
		case protocol.StartContinuousTracking:
			d.startLocationTask(continuousPollInterval)
		case protocol.StopLocationMonitoring:
			d.sched.Cancel(taskLocation)

		case protocol.SendAlerts:
			records = append(records, d.sendAlerts(ctx, state, eff)...)
		case protocol.PlaceCalls:
			records = append(records, d.placeCalls(ctx, eff.Contacts)...)
		case protocol.SendLocationStatus:
			records = append(records, d.sendLocationStatus(ctx, eff)...)
		case protocol.NotifyCancellation:
			records = append(records, d.notifyCancellation(ctx, eff)...)

		case protocol.StartQuestionTimer:
			d.startQuestionTimer(eff)
		case protocol.StopQuestionTimer:
			d.sched.Cancel(taskQuestion)

		case protocol.StartEscalationMonitoring:
			d.startEscalationTask()
		case protocol.StopEscalationMonitoring:
			d.sched.Cancel(taskEscalation)

		case protocol.StartJourneyMonitoring:
			d.startJourneyTask(eff.Destination)
		case protocol.StopJourneyMonitoring:
			d.sched.Cancel(taskJourney)

		case protocol.StartAlarm:
			d.logIfErr("alarm start", d.alarm.Start(ctx))
		case protocol.StopAlarm:
			d.logIfErr("alarm stop", d.alarm.Stop(ctx))
		case protocol.StartRecording:
			d.logIfErr("recording start", d.recorder.Start(ctx))
		case protocol.StopRecording:
			d.logIfErr("recording stop", d.recorder.Stop(ctx))

		case protocol.ShowNotification:
			d.logIfErr("notification show", d.notifier.Show(ctx, eff.Key, eff.Title, eff.Body))
		case protocol.DismissNotification:
			d.logIfErr("notification dismiss", d.notifier.Dismiss(ctx, eff.Key))
		case protocol.OpenNavigation:
			d.logIfErr("open navigation", d.navigator.OpenNavigation(ctx, eff.Destination))

		default:
			d.log.Warn("unhandled effect", zap.String("effect", effect.Name()))
		}
	}
	return records
}

// sendAlerts messages every contact, personalizing the body per recipient via
// the advisor. The protocol's fixed message is the floor if the advisor gives
// back nothing.
func (d *Driver) sendAlerts(ctx context.Context, state protocol.State, eff protocol.SendAlerts) []models.AlertRecord {
	var sess models.EmergencySession
	if s := state.Session(); s != nil {
		sess = *s
	}
	records := make([]models.AlertRecord, 0, len(eff.Contacts))
	for _, contact := range eff.Contacts {
		message := d.advisor.GenerateEmergencyMessage(ctx, advisor.MessageContext{
			Recipient: contact,
			Session:   sess,
			Kind:      models.AlertSMS,
		})
		if message == "" {
			message = eff.Message
		}
		records = append(records, d.sendSMS(ctx, contact, message))
	}
	return records
}

func (d *Driver) placeCalls(ctx context.Context, contacts []models.EmergencyContact) []models.AlertRecord {
	records := make([]models.AlertRecord, 0, len(contacts))
	for _, contact := range contacts {
		rec := models.AlertRecord{
			Timestamp:         time.Now(),
			RecipientCategory: recipientCategory(contact),
			RecipientName:     contact.Name,
			RecipientPhone:    contact.Phone,
			Kind:              models.AlertCall,
			Success:           true,
		}
		if err := d.caller.PlaceCall(ctx, contact.Phone); err != nil {
			rec.Success = false
			rec.Error = err.Error()
			d.log.Error("call failed", zap.String("contact", contact.Name), zap.Error(err))
		}
		d.observeAlert(rec)
		records = append(records, rec)
	}
	return records
}

func (d *Driver) sendLocationStatus(ctx context.Context, eff protocol.SendLocationStatus) []models.AlertRecord {
	message := fmt.Sprintf(
		"Safety update: en route to %s. Current position: https://maps.google.com/?q=%.5f,%.5f.",
		eff.Destination.Name, eff.Location.Latitude, eff.Location.Longitude,
	)
	records := make([]models.AlertRecord, 0, len(eff.Contacts))
	for _, contact := range eff.Contacts {
		records = append(records, d.sendSMS(ctx, contact, message))
	}
	return records
}

func (d *Driver) notifyCancellation(ctx context.Context, eff protocol.NotifyCancellation) []models.AlertRecord {
	records := make([]models.AlertRecord, 0, len(eff.Contacts))
	for _, contact := range eff.Contacts {
		records = append(records, d.sendSMS(ctx, contact, eff.Message))
	}
	return records
}

func (d *Driver) sendSMS(ctx context.Context, contact models.EmergencyContact, message string) models.AlertRecord {
	rec := models.AlertRecord{
		Timestamp:         time.Now(),
		RecipientCategory: recipientCategory(contact),
		RecipientName:     contact.Name,
		RecipientPhone:    contact.Phone,
		Kind:              models.AlertSMS,
		Success:           true,
	}
	if err := d.sender.SendSMS(ctx, contact.Phone, message); err != nil {
		rec.Success = false
		rec.Error = err.Error()
		d.log.Error("sms failed", zap.String("contact", contact.Name), zap.Error(err))
	}
	d.observeAlert(rec)
	return rec
}

// startLocationTask (re)registers the location poll at the given cadence.
// Registering under the same name replaces the slower timer on escalation.
func (d *Driver) startLocationTask(interval time.Duration) {
	d.sched.Every(taskLocation, interval, scheduler.FuncJob(func(ctx context.Context) {
		fix, err := d.location.Current(ctx)
		if err != nil || fix == nil {
			return
		}
		if d.behavior != nil {
			d.behavior.Observe(*fix)
		}
		if _, err := d.process(ctx, protocol.LocationUpdated{Location: *fix}); err != nil {
			d.log.Debug("location event rejected", zap.Error(err))
		}
	}))
}

func (d *Driver) startQuestionTimer(eff protocol.StartQuestionTimer) {
	timeout := time.Duration(eff.TimeoutSeconds) * time.Second
	questionID := eff.QuestionID
	d.sched.OnceAfter(taskQuestion, timeout, scheduler.FuncJob(func(ctx context.Context) {
		if _, err := d.process(ctx, protocol.QuestionTimeout{QuestionID: questionID}); err != nil {
			d.log.Debug("question timeout rejected", zap.Error(err))
		}
	}))
}

// startEscalationTask polls the scoring engine and feeds level updates into
// the protocol. Levels only ratchet upward inside an episode, so a calm
// reading never de-escalates anything.
func (d *Driver) startEscalationTask() {
	d.sched.Every(taskEscalation, d.escalationInterval, scheduler.FuncJob(func(ctx context.Context) {
		loc, _ := d.location.Current(ctx)
		result := d.engine.Analyze(ctx, loc, false)
		if result == nil {
			return
		}
		if _, err := d.process(ctx, protocol.ThreatLevelUpdated{Level: result.Level}); err != nil {
			d.log.Debug("threat update rejected", zap.Error(err))
		}
	}))
}

// startJourneyTask watches the distance to the destination and declares
// arrival inside the radius.
func (d *Driver) startJourneyTask(dest models.SafePlace) {
	d.sched.Every(taskJourney, journeyPollInterval, scheduler.FuncJob(func(ctx context.Context) {
		fix, err := d.location.Current(ctx)
		if err != nil || fix == nil {
			return
		}
		if fix.DistanceMeters(dest.Location) > arrivalRadiusMeters {
			return
		}
		if _, err := d.process(ctx, protocol.ArrivedAtDestination{}); err != nil {
			d.log.Debug("arrival event rejected", zap.Error(err))
		}
	}))
}

func (d *Driver) logIfErr(what string, err error) {
	if err != nil {
		d.log.Warn(what+" failed", zap.Error(err))
	}
}

// recipientCategory folds the free-form relationship into the audit category.
func recipientCategory(c models.EmergencyContact) models.RecipientCategory {
	switch c.Relationship {
	case "mother", "father", "parent", "sister", "brother", "sibling",
		"spouse", "partner", "daughter", "son", "family":
		return models.RecipientFamily
	default:
		return models.RecipientFriend
	}
}
