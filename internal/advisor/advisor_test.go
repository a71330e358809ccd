package advisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"AegisGuard/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRuleAdvisorQuestion(t *testing.T) {
	a := NewRuleAdvisor()

	day := a.GenerateProtocolQuestion(context.Background(), QuestionContext{TimeOfDay: 14})
	assert.Equal(t, FallbackQuestionText, day.Text)
	assert.Equal(t, models.DefaultQuestionTimeout, day.TimeoutSeconds)
	assert.Equal(t, models.ThreatLow, day.LevelIfAnswered)
	assert.Equal(t, models.ThreatMedium, day.LevelIfTimedOut)

	night := a.GenerateProtocolQuestion(context.Background(), QuestionContext{TimeOfDay: 2})
	assert.NotEqual(t, day.Text, night.Text)
}

func TestRuleAdvisorAssessment(t *testing.T) {
	a := NewRuleAdvisor()
	q := models.NewQuestion("Are you okay?", 30, models.ThreatLow, models.ThreatMedium)

	assert.Equal(t, models.ThreatLow, a.AssessThreatLevel(context.Background(), q, true, 5))
	assert.Equal(t, models.ThreatMedium, a.AssessThreatLevel(context.Background(), q, false, 30))
	// A positive answer that used most of the window is still suspicious.
	assert.Equal(t, models.ThreatMedium, a.AssessThreatLevel(context.Background(), q, true, 28))
}

func TestRuleAdvisorPlans(t *testing.T) {
	a := NewRuleAdvisor()
	sess := models.EmergencySession{ThreatLevel: models.ThreatCritical}

	nearby := a.DecideEmergencyActions(context.Background(), ActionContext{Session: sess, Path: models.PathThreatNearby})
	assert.Equal(t, 10, nearby.UrgencyScore)
	assert.Contains(t, nearby.Actions, "call_emergency_services")

	calmer := a.DecideEmergencyActions(context.Background(), ActionContext{
		Session: models.EmergencySession{ThreatLevel: models.ThreatHigh},
		Path:    models.PathThreatNearby,
	})
	assert.Equal(t, 8, calmer.UrgencyScore)
	assert.NotContains(t, calmer.Actions, "call_emergency_services")

	escape := a.DecideEmergencyActions(context.Background(), ActionContext{Session: sess, Path: models.PathEscapeToSafety})
	assert.Equal(t, 6, escape.UrgencyScore)
	assert.Contains(t, escape.Actions, "navigate_to_safe_place")
}

func TestRuleAdvisorMessage(t *testing.T) {
	a := NewRuleAdvisor()
	now := time.Now()
	recipient := models.EmergencyContact{Name: "Ana", Relationship: "sister"}

	withLoc := a.GenerateEmergencyMessage(context.Background(), MessageContext{
		Recipient: recipient,
		Session:   models.NewSession(now, &models.Location{Latitude: 40.41694, Longitude: -3.70346, Timestamp: now}),
		Kind:      models.AlertSMS,
	})
	assert.Contains(t, withLoc, "Ana")
	assert.Contains(t, withLoc, "maps.google.com")
	assert.Contains(t, withLoc, "40.41694")

	withoutLoc := a.GenerateEmergencyMessage(context.Background(), MessageContext{
		Recipient: recipient,
		Session:   models.NewSession(now, nil),
		Kind:      models.AlertSMS,
	})
	assert.Contains(t, withoutLoc, "unavailable")
}

// fakeLLM returns a canned response or fails.
type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Query(context.Context, string, string) (string, error)     { return f.response, f.err }
func (f *fakeLLM) QueryJSON(context.Context, string, string) (string, error) { return f.response, f.err }
func (f *fakeLLM) Reset()                                                    {}

func TestLLMAdvisorUsesModelAnswer(t *testing.T) {
	a := NewLLMAdvisor(&fakeLLM{response: `{"question": "Is everything alright?", "timeout_seconds": 20}`}, "test-model", nil)

	q := a.GenerateProtocolQuestion(context.Background(), QuestionContext{TimeOfDay: 14})

	assert.Equal(t, "Is everything alright?", q.Text)
	assert.Equal(t, 20, q.TimeoutSeconds)
}

func TestLLMAdvisorFallsBackOnFailure(t *testing.T) {
	failing := NewLLMAdvisor(&fakeLLM{err: errors.New("model unavailable")}, "test-model", nil)

	q := failing.GenerateProtocolQuestion(context.Background(), QuestionContext{TimeOfDay: 14})
	assert.Equal(t, FallbackQuestionText, q.Text)

	garbled := NewLLMAdvisor(&fakeLLM{response: "not json"}, "test-model", nil)
	q = garbled.GenerateProtocolQuestion(context.Background(), QuestionContext{TimeOfDay: 14})
	assert.Equal(t, FallbackQuestionText, q.Text)
}

func TestLLMAdvisorAssessmentParsing(t *testing.T) {
	q := models.NewQuestion("Are you okay?", 30, models.ThreatLow, models.ThreatMedium)

	a := NewLLMAdvisor(&fakeLLM{response: `{"level": "HIGH"}`}, "test-model", nil)
	assert.Equal(t, models.ThreatHigh, a.AssessThreatLevel(context.Background(), q, true, 5))

	unknown := NewLLMAdvisor(&fakeLLM{response: `{"level": "PANIC"}`}, "test-model", nil)
	assert.Equal(t, models.ThreatLow, unknown.AssessThreatLevel(context.Background(), q, true, 5))
}

func TestLLMAdvisorPlanClampsUrgency(t *testing.T) {
	a := NewLLMAdvisor(&fakeLLM{response: `{"actions": ["keep_calm"], "reasoning": "r", "urgency": 40}`}, "test-model", nil)

	plan := a.DecideEmergencyActions(context.Background(), ActionContext{Path: models.PathThreatNearby})

	assert.Equal(t, 10, plan.UrgencyScore)
	assert.Equal(t, []string{"keep_calm"}, plan.Actions)
}

func TestLLMAdvisorEmptyMessageFallsBack(t *testing.T) {
	a := NewLLMAdvisor(&fakeLLM{response: `{"message": "  "}`}, "test-model", nil)

	msg := a.GenerateEmergencyMessage(context.Background(), MessageContext{
		Recipient: models.EmergencyContact{Name: "Ana"},
		Session:   models.NewSession(time.Now(), nil),
	})

	assert.True(t, strings.Contains(msg, "Ana"))
}
