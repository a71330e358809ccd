// Package advisor phrases protocol questions and drafts outreach messages.
// Every call degrades to a deterministic rule-based answer when the language
// model is unavailable, times out, or returns something unusable, so the
// protocol never waits on a model and never sees an advisor error.
package advisor

import (
	"context"
	"time"

	"AegisGuard/internal/models"
)

// QuestionContext is what the advisor may consider when phrasing the first
// safety question.
type QuestionContext struct {
	TriggeredAt  time.Time
	ThreatLevel  models.ThreatLevel
	HasLocation  bool
	TimeOfDay    int // hour 0..23
	TriggerCause string
}

// ActionContext feeds DecideEmergencyActions.
type ActionContext struct {
	Session  models.EmergencySession
	Path     models.EmergencyPath
	Contacts []models.EmergencyContact
}

// ActionPlan is the advisor's escalation recommendation.
type ActionPlan struct {
	Actions      []string
	Reasoning    string
	UrgencyScore int // 1..10
}

// MessageContext feeds GenerateEmergencyMessage.
type MessageContext struct {
	Recipient models.EmergencyContact
	Session   models.EmergencySession
	Kind      models.AlertKind
}

// Advisor is the collaborator contract used by the driver. Implementations
// must be total: no method returns an error.
type Advisor interface {
	GenerateProtocolQuestion(ctx context.Context, qctx QuestionContext) models.ProtocolQuestion
	AssessThreatLevel(ctx context.Context, question models.ProtocolQuestion, answered bool, responseTimeSeconds float64) models.ThreatLevel
	DecideEmergencyActions(ctx context.Context, actx ActionContext) ActionPlan
	GenerateEmergencyMessage(ctx context.Context, mctx MessageContext) string
}
