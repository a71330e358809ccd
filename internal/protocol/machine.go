package protocol

import (
	"reflect"
	"sync"
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/pkg/errors"
	"AegisGuard/pkg/metrics"

	"go.uber.org/zap"
)

// ErrEpisodeActive is returned when TriggerEmergency arrives while an episode
// is already in flight. The state is left untouched; the caller decides how to
// surface the rejection.
var ErrEpisodeActive = errors.WithCode(40901, "an emergency episode is already active")

// Machine serializes event processing over the single shared protocol state.
// Transition itself is pure; Machine adds the mutex, logging, metrics and the
// subscriber broadcast on top.
type Machine struct {
	mu      sync.Mutex
	state   State
	log     *zap.Logger
	metrics *metrics.ProtocolMetrics

	subMu sync.RWMutex
	subs  []chan State
}

// NewMachine starts in Idle. metrics may be nil in tests.
func NewMachine(log *zap.Logger, m *metrics.ProtocolMetrics) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Machine{state: Idle{}, log: log, metrics: m}
}

// Process applies one event under the mutex and returns the resulting state
// and effect list atomically. A TriggerEmergency during a live episode is
// rejected with ErrEpisodeActive and changes nothing. All other invalid
// (state, event) pairs are logged no-ops, never errors.
func (m *Machine) Process(event Event, ctx Context) (State, []Effect, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}

	if _, ok := event.(TriggerEmergency); ok {
		switch m.state.(type) {
		case Idle, Resolved:
		default:
			m.log.Warn("re-trigger rejected: episode already active",
				zap.String("state", m.state.Name()))
			return m.state, nil, ErrEpisodeActive
		}
	}

	prev := m.state
	next, effects := Transition(prev, event, ctx)
	m.state = next

	if len(effects) == 0 && reflect.DeepEqual(prev, next) {
		m.log.Debug("event ignored in current state",
			zap.String("state", prev.Name()), zap.String("event", event.Name()))
		if m.metrics != nil {
			m.metrics.ObserveIgnoredEvent(prev.Name(), event.Name())
		}
		return next, effects, nil
	}

	if m.metrics != nil {
		m.metrics.ObserveTransition(prev.Name(), next.Name(), event.Name())
	}
	m.log.Info("protocol transition",
		zap.String("from", prev.Name()),
		zap.String("to", next.Name()),
		zap.String("event", event.Name()),
		zap.Int("effects", len(effects)))

	m.broadcast(next)
	return next, effects, nil
}

// Current returns the state snapshot.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentSession returns the live session, or nil when idle.
func (m *Machine) CurrentSession() *models.EmergencySession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Session()
}

// IsActive reports whether an episode is in a non-terminal phase.
func (m *Machine) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch m.state.(type) {
	case Idle, Resolved:
		return false
	default:
		return true
	}
}

// Reset forces the machine back to Idle. Intended for the driver's teardown
// path after a resolved episode has been archived.
func (m *Machine) Reset() {
	m.mu.Lock()
	m.state = Idle{}
	state := m.state
	m.mu.Unlock()
	m.broadcast(state)
}

// Subscribe returns a channel receiving every state change. Slow subscribers
// drop intermediate snapshots rather than blocking event processing.
func (m *Machine) Subscribe() <-chan State {
	ch := make(chan State, 8)
	m.subMu.Lock()
	m.subs = append(m.subs, ch)
	m.subMu.Unlock()
	return ch
}

func (m *Machine) broadcast(state State) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()
	for _, ch := range m.subs {
		select {
		case ch <- state:
		default:
		}
	}
}
