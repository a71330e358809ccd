package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"AegisGuard/internal/models"
	"AegisGuard/pkg/llm"

	"go.uber.org/zap"
)

// SystemPrompt is installed on the LLM client at construction; every advisor
// query runs under it.
const SystemPrompt = `You assist a personal-safety app during live emergencies.
Answer ONLY with the JSON object requested. Be brief, calm and concrete.
Questions you write must be answerable with yes or no.`

// llmCallTimeout bounds every model call; past it the rule fallback answers.
const llmCallTimeout = 3 * time.Second

// LLMAdvisor phrases questions and messages with a language model, falling
// back to RuleAdvisor on any failure. The fallback is what makes the advisor
// total: callers never see an error and never block past the call timeout.
type LLMAdvisor struct {
	model    string
	client   llm.LLM
	fallback *RuleAdvisor
	log      *zap.Logger
}

// NewLLMAdvisor wraps the client. log may be nil.
func NewLLMAdvisor(client llm.LLM, model string, log *zap.Logger) *LLMAdvisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMAdvisor{
		model:    model,
		client:   client,
		fallback: NewRuleAdvisor(),
		log:      log,
	}
}

type questionPayload struct {
	Question       string `json:"question"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// GenerateProtocolQuestion asks the model to phrase the first safety check.
// Fallback: the fixed confirmation question from RuleAdvisor.
func (a *LLMAdvisor) GenerateProtocolQuestion(ctx context.Context, qctx QuestionContext) models.ProtocolQuestion {
	prompt := fmt.Sprintf(
		`An emergency alarm was just triggered at hour %d (cause: %q, location known: %t).
Write the single yes/no question the app should ask to check the person is safe.
Respond as JSON: {"question": "...", "timeout_seconds": 30}`,
		qctx.TimeOfDay, qctx.TriggerCause, qctx.HasLocation)

	var payload questionPayload
	if err := a.queryJSON(ctx, prompt, &payload); err != nil || strings.TrimSpace(payload.Question) == "" {
		a.log.Warn("advisor question generation fell back to rules", zap.Error(err))
		return a.fallback.GenerateProtocolQuestion(ctx, qctx)
	}
	return models.NewQuestion(payload.Question, payload.TimeoutSeconds, models.ThreatLow, models.ThreatMedium)
}

type assessmentPayload struct {
	Level string `json:"level"`
}

// AssessThreatLevel asks the model to grade the response. Fallback: the
// question's own outcome levels via RuleAdvisor.
func (a *LLMAdvisor) AssessThreatLevel(ctx context.Context, question models.ProtocolQuestion, answered bool, responseTimeSeconds float64) models.ThreatLevel {
	prompt := fmt.Sprintf(
		`Safety question %q: answered=%t after %.0f seconds (window %d seconds).
Grade the threat as one of LOW, MEDIUM, HIGH, CRITICAL.
Respond as JSON: {"level": "..."}`,
		question.Text, answered, responseTimeSeconds, question.TimeoutSeconds)

	var payload assessmentPayload
	if err := a.queryJSON(ctx, prompt, &payload); err != nil {
		a.log.Warn("advisor assessment fell back to rules", zap.Error(err))
		return a.fallback.AssessThreatLevel(ctx, question, answered, responseTimeSeconds)
	}
	level, ok := parseLevel(payload.Level)
	if !ok {
		a.log.Warn("advisor returned unknown threat level", zap.String("level", payload.Level))
		return a.fallback.AssessThreatLevel(ctx, question, answered, responseTimeSeconds)
	}
	return level
}

type planPayload struct {
	Actions   []string `json:"actions"`
	Reasoning string   `json:"reasoning"`
	Urgency   int      `json:"urgency"`
}

// DecideEmergencyActions asks the model for an escalation plan. Fallback: the
// fixed per-path table in RuleAdvisor.
func (a *LLMAdvisor) DecideEmergencyActions(ctx context.Context, actx ActionContext) ActionPlan {
	prompt := fmt.Sprintf(
		`Emergency in progress. Path: %s. Threat level: %s. Contacts reachable: %d.
Responses so far: %d. Alerts already sent: %d.
Recommend next actions. Respond as JSON:
{"actions": ["..."], "reasoning": "...", "urgency": 1-10}`,
		actx.Path, actx.Session.ThreatLevel, len(actx.Contacts),
		len(actx.Session.Responses), len(actx.Session.Alerts))

	var payload planPayload
	if err := a.queryJSON(ctx, prompt, &payload); err != nil || len(payload.Actions) == 0 {
		a.log.Warn("advisor action plan fell back to rules", zap.Error(err))
		return a.fallback.DecideEmergencyActions(ctx, actx)
	}
	if payload.Urgency < 1 {
		payload.Urgency = 1
	}
	if payload.Urgency > 10 {
		payload.Urgency = 10
	}
	return ActionPlan{Actions: payload.Actions, Reasoning: payload.Reasoning, UrgencyScore: payload.Urgency}
}

type messagePayload struct {
	Message string `json:"message"`
}

// GenerateEmergencyMessage asks the model to draft the outreach text.
// Fallback: the fixed template in RuleAdvisor.
func (a *LLMAdvisor) GenerateEmergencyMessage(ctx context.Context, mctx MessageContext) string {
	locNote := "location unavailable"
	if mctx.Session.LastLocation != nil {
		locNote = fmt.Sprintf("%.5f,%.5f", mctx.Session.LastLocation.Latitude, mctx.Session.LastLocation.Longitude)
	}
	prompt := fmt.Sprintf(
		`Draft a short emergency SMS to %s (%s). Delivery: %s. Victim location: %s.
It must say this is an automated safety alert and ask them to call immediately.
Respond as JSON: {"message": "..."}`,
		mctx.Recipient.Name, mctx.Recipient.Relationship, mctx.Kind, locNote)

	var payload messagePayload
	if err := a.queryJSON(ctx, prompt, &payload); err != nil || strings.TrimSpace(payload.Message) == "" {
		a.log.Warn("advisor message generation fell back to rules", zap.Error(err))
		return a.fallback.GenerateEmergencyMessage(ctx, mctx)
	}
	return payload.Message
}

func (a *LLMAdvisor) queryJSON(ctx context.Context, prompt string, out interface{}) error {
	callCtx, cancel := context.WithTimeout(ctx, llmCallTimeout)
	defer cancel()

	raw, err := a.client.QueryJSON(callCtx, a.model, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("malformed advisor payload: %w", err)
	}
	return nil
}

func parseLevel(s string) (models.ThreatLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return models.ThreatLow, true
	case "MEDIUM":
		return models.ThreatMedium, true
	case "HIGH":
		return models.ThreatHigh, true
	case "CRITICAL":
		return models.ThreatCritical, true
	}
	return models.ThreatUnknown, false
}
