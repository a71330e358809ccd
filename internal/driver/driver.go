package driver

import (
	"context"
	"time"

	"AegisGuard/internal/advisor"
	"AegisGuard/internal/models"
	"AegisGuard/internal/protocol"
	"AegisGuard/internal/scoring"
	"AegisGuard/pkg/metrics"
	"AegisGuard/pkg/notification"
	"AegisGuard/pkg/scheduler"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Task names used with the scheduler. One timer of each kind exists at a time;
// re-registering a name replaces the previous timer.
const (
	taskLocation   = "location-monitor"
	taskQuestion   = "question-timer"
	taskEscalation = "escalation-monitor"
	taskJourney    = "journey-monitor"
)

// Polling cadence for the monitoring tasks. Location polling tightens once the
// episode escalates to continuous tracking.
const (
	locationPollInterval   = 30 * time.Second
	continuousPollInterval = 5 * time.Second
	journeyPollInterval    = 10 * time.Second
	arrivalRadiusMeters    = 50.0
)

// Options wires a Driver. Sender, Caller and the platform collaborators must
// be non-nil; Behavior and Metrics may be nil.
type Options struct {
	Machine  *protocol.Machine
	Engine   *scoring.Engine
	Advisor  advisor.Advisor
	Sched    *scheduler.Scheduler
	DB       *gorm.DB
	Log      *zap.Logger
	Metrics  *metrics.ProtocolMetrics
	Behavior *scoring.BehavioralSource

	Sender    notification.Sender
	Caller    notification.Caller
	Navigator Navigator
	Alarm     Alarm
	Recorder  Recorder
	Notifier  Notifier
	Location  LocationProvider
	Places    SafePlaceFinder

	EmergencyNumber    string
	EscalationInterval time.Duration
}

// Driver owns all side effects of the protocol: it loads contacts, feeds
// events into the state machine, executes the returned effect lists against
// the platform collaborators, runs the timers, and archives resolved episodes.
type Driver struct {
	machine  *protocol.Machine
	engine   *scoring.Engine
	advisor  advisor.Advisor
	sched    *scheduler.Scheduler
	db       *gorm.DB
	log      *zap.Logger
	metrics  *metrics.ProtocolMetrics
	behavior *scoring.BehavioralSource

	sender    notification.Sender
	caller    notification.Caller
	navigator Navigator
	alarm     Alarm
	recorder  Recorder
	notifier  Notifier
	location  LocationProvider
	places    SafePlaceFinder

	emergencyNumber    string
	escalationInterval time.Duration
}

func New(opts Options) *Driver {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	interval := opts.EscalationInterval
	if interval <= 0 {
		interval = 60 * time.Second
	}
	number := opts.EmergencyNumber
	if number == "" {
		number = "112"
	}
	return &Driver{
		machine:            opts.Machine,
		engine:             opts.Engine,
		advisor:            opts.Advisor,
		sched:              opts.Sched,
		db:                 opts.DB,
		log:                log,
		metrics:            opts.Metrics,
		behavior:           opts.Behavior,
		sender:             opts.Sender,
		caller:             opts.Caller,
		navigator:          opts.Navigator,
		alarm:              opts.Alarm,
		recorder:           opts.Recorder,
		notifier:           opts.Notifier,
		location:           opts.Location,
		places:             opts.Places,
		emergencyNumber:    number,
		escalationInterval: interval,
	}
}

// Trigger starts a new episode and immediately presents the first safety
// question. Returns protocol.ErrEpisodeActive when one is already in flight.
func (d *Driver) Trigger(ctx context.Context) (protocol.State, error) {
	state, err := d.process(ctx, protocol.TriggerEmergency{})
	if err != nil {
		return state, err
	}
	triggered, ok := state.(protocol.Triggered)
	if !ok {
		return state, nil
	}

	sess := triggered.Sess
	question := d.advisor.GenerateProtocolQuestion(ctx, advisor.QuestionContext{
		TriggeredAt:  sess.StartedAt,
		ThreatLevel:  sess.ThreatLevel,
		HasLocation:  sess.LastLocation != nil,
		TimeOfDay:    sess.StartedAt.Hour(),
		TriggerCause: "manual",
	})
	return d.process(ctx, protocol.PresentQuestion{Question: question})
}

// Answer records the victim's yes/no to whichever question is on screen. In
// PathSelection a "no" to "is the threat near you" means escape.
func (d *Driver) Answer(ctx context.Context, yes bool) (protocol.State, error) {
	switch d.machine.Current().(type) {
	case protocol.PathSelection:
		if yes {
			return d.ChoosePath(ctx, models.PathThreatNearby)
		}
		return d.ChoosePath(ctx, models.PathEscapeToSafety)
	default:
		var (
			question    models.ProtocolQuestion
			presentedAt time.Time
			asked       bool
		)
		if q, ok := d.machine.Current().(protocol.Questioning); ok {
			question, presentedAt, asked = q.Question, q.PresentedAt, true
		}
		event := protocol.Event(protocol.AnswerNo{})
		if yes {
			event = protocol.AnswerYes{}
		}
		state, err := d.process(ctx, event)
		if err != nil || !asked {
			return state, err
		}
		return d.assessResponse(ctx, state, question, presentedAt), nil
	}
}

// assessResponse grades an answered question through the advisor and feeds the
// resulting level back in. Levels only ratchet upward inside an episode, so a
// lenient grade never lowers anything the transition already set.
func (d *Driver) assessResponse(ctx context.Context, state protocol.State, question models.ProtocolQuestion, presentedAt time.Time) protocol.State {
	if !d.machine.IsActive() {
		return state
	}
	taken := time.Since(presentedAt).Seconds()
	level := d.advisor.AssessThreatLevel(ctx, question, true, taken)
	next, err := d.process(ctx, protocol.ThreatLevelUpdated{Level: level})
	if err != nil {
		d.log.Debug("response assessment rejected", zap.Error(err))
		return state
	}
	return next
}

// ChoosePath commits the victim to one of the two emergency paths. The escape
// path immediately resolves candidate safe places; the threat-nearby path
// applies the advisor's escalation plan (alarm, recording, emergency call).
func (d *Driver) ChoosePath(ctx context.Context, path models.EmergencyPath) (protocol.State, error) {
	var event protocol.Event
	switch path {
	case models.PathThreatNearby:
		event = protocol.ThreatNearby{}
	case models.PathEscapeToSafety:
		event = protocol.EscapeToSafety{}
	default:
		return d.machine.Current(), nil
	}

	state, err := d.process(ctx, event)
	if err != nil {
		return state, err
	}
	active, ok := state.(protocol.Active)
	if !ok {
		return state, nil
	}

	switch active.Path {
	case models.PathThreatNearby:
		d.applyEscalationPlan(ctx, active)
	case models.PathEscapeToSafety:
		state = d.resolveSafePlaces(ctx, active)
	}
	return state, nil
}

// Navigate commits to one of the offered safe places.
func (d *Driver) Navigate(ctx context.Context, place models.SafePlace) (protocol.State, error) {
	return d.process(ctx, protocol.NavigateToPlace{Place: place})
}

// ConfirmSafe ends the active phase with an explicit "I am okay".
func (d *Driver) ConfirmSafe(ctx context.Context) (protocol.State, error) {
	return d.process(ctx, protocol.UserConfirmedSafe{})
}

// Cancel aborts the episode from any phase.
func (d *Driver) Cancel(ctx context.Context) (protocol.State, error) {
	return d.process(ctx, protocol.CancelEmergency{})
}

// ReportLocation installs a fix pushed from the device and routes it through
// the protocol. The behavioral scoring source sees every fix as well.
func (d *Driver) ReportLocation(ctx context.Context, loc models.Location) (protocol.State, error) {
	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}
	if cached, ok := d.location.(*CachedLocation); ok {
		cached.Record(loc)
	}
	if d.behavior != nil {
		d.behavior.Observe(loc)
	}
	return d.process(ctx, protocol.LocationUpdated{Location: loc})
}

// State returns the current protocol state snapshot.
func (d *Driver) State() protocol.State { return d.machine.Current() }

// Session returns the live session, or nil when idle.
func (d *Driver) Session() *models.EmergencySession { return d.machine.CurrentSession() }

// applyEscalationPlan asks the advisor what the threat-nearby phase should do
// beyond the protocol's own effects and executes it.
func (d *Driver) applyEscalationPlan(ctx context.Context, active protocol.Active) {
	plan := d.advisor.DecideEmergencyActions(ctx, advisor.ActionContext{
		Session:  active.Sess,
		Path:     active.Path,
		Contacts: d.contacts(),
	})
	d.log.Info("escalation plan",
		zap.Strings("actions", plan.Actions),
		zap.Int("urgency", plan.UrgencyScore),
		zap.String("reasoning", plan.Reasoning))

	if plan.UrgencyScore >= 8 {
		if err := d.alarm.Start(ctx); err != nil {
			d.log.Warn("alarm start failed", zap.Error(err))
		}
		if err := d.recorder.Start(ctx); err != nil {
			d.log.Warn("recording start failed", zap.Error(err))
		}
	}
	for _, action := range plan.Actions {
		if action != "call_emergency_services" {
			continue
		}
		rec := models.AlertRecord{
			Timestamp:         time.Now(),
			RecipientCategory: models.RecipientEmergencyServices,
			RecipientName:     "emergency services",
			Kind:              models.AlertEmergencyCall,
			Success:           true,
		}
		if err := d.caller.PlaceEmergencyCall(ctx, d.emergencyNumber); err != nil {
			rec.Success = false
			rec.Error = err.Error()
			d.log.Error("emergency call failed", zap.Error(err))
		}
		d.observeAlert(rec)
		d.feedAlerts(ctx, []models.AlertRecord{rec})
	}
}

// resolveSafePlaces looks up destinations around the last fix and feeds them
// back into the machine so the victim can pick one.
func (d *Driver) resolveSafePlaces(ctx context.Context, active protocol.Active) protocol.State {
	loc := active.Sess.LastLocation
	if loc == nil {
		fix, err := d.location.Current(ctx)
		if err != nil || fix == nil {
			d.log.Warn("no location for safe place lookup", zap.Error(err))
			return d.machine.Current()
		}
		loc = fix
	}
	places, err := d.places.FindNearby(ctx, *loc)
	if err != nil {
		d.log.Error("safe place lookup failed", zap.Error(err))
		return d.machine.Current()
	}
	state, _ := d.process(ctx, protocol.SafePlacesFound{Places: places})
	return state
}

// process is the single funnel for events: apply the transition, execute the
// effects, feed alert outcomes back in, archive on resolution.
func (d *Driver) process(ctx context.Context, event protocol.Event) (protocol.State, error) {
	pctx := d.protocolContext(ctx)
	state, effects, err := d.machine.Process(event, pctx)
	if err != nil {
		return state, err
	}

	records := d.execute(ctx, state, effects)

	if resolved, ok := state.(protocol.Resolved); ok {
		if len(effects) > 0 {
			d.archive(resolved, records)
		}
		return state, nil
	}
	if len(records) > 0 {
		state = d.feedAlerts(ctx, records)
	}
	return state, nil
}

func (d *Driver) feedAlerts(ctx context.Context, records []models.AlertRecord) protocol.State {
	state, effects, err := d.machine.Process(protocol.AlertsSent{Records: records}, d.protocolContext(ctx))
	if err != nil {
		d.log.Error("alert bookkeeping rejected", zap.Error(err))
		return d.machine.Current()
	}
	d.execute(ctx, state, effects)
	return state
}

// protocolContext snapshots the read-only inputs every transition may consult.
func (d *Driver) protocolContext(ctx context.Context) protocol.Context {
	loc, err := d.location.Current(ctx)
	if err != nil {
		d.log.Debug("location unavailable", zap.Error(err))
		loc = nil
	}
	return protocol.Context{
		Contacts: d.contacts(),
		Location: loc,
		Now:      time.Now(),
	}
}

func (d *Driver) contacts() []models.EmergencyContact {
	contacts, err := models.GetContacts(d.db)
	if err != nil {
		d.log.Error("loading contacts failed", zap.Error(err))
		return nil
	}
	return contacts
}

// archive persists the resolved episode, cancels all timers and returns the
// machine to Idle so the next trigger starts clean.
func (d *Driver) archive(resolved protocol.Resolved, extra []models.AlertRecord) {
	sess := resolved.Sess
	if len(extra) > 0 {
		sess = sess.WithAlerts(extra...)
	}
	if err := models.ArchiveSession(d.db, sess); err != nil {
		d.log.Error("archiving session failed",
			zap.String("session", sess.ID), zap.Error(err))
	}
	if d.metrics != nil && sess.ResolvedAt != nil {
		d.metrics.ObserveEpisodeResolved(string(resolved.Reason), sess.ResolvedAt.Sub(sess.StartedAt))
	}
	d.log.Info("episode resolved",
		zap.String("session", sess.ID),
		zap.String("reason", string(resolved.Reason)),
		zap.Int("alerts", len(sess.Alerts)+len(extra)))
	d.machine.Reset()
}

func (d *Driver) observeAlert(rec models.AlertRecord) {
	if d.metrics != nil {
		d.metrics.ObserveAlert(string(rec.Kind), rec.Success)
	}
}
