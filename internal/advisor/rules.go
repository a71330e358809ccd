package advisor

import (
	"context"
	"fmt"

	"AegisGuard/internal/models"
)

// FallbackQuestionText is the fixed first question used whenever the model
// cannot produce one in time.
const FallbackQuestionText = "Please confirm you are safe right now. Are you okay?"

// RuleAdvisor is the deterministic advisor. It is both the standalone
// implementation for model-less deployments and the fallback layer under
// LLMAdvisor.
type RuleAdvisor struct{}

func NewRuleAdvisor() *RuleAdvisor { return &RuleAdvisor{} }

// GenerateProtocolQuestion returns the fixed safety check, phrased slightly
// harder at night when a groggy false trigger is more likely.
func (a *RuleAdvisor) GenerateProtocolQuestion(_ context.Context, qctx QuestionContext) models.ProtocolQuestion {
	text := FallbackQuestionText
	if qctx.TimeOfDay >= 23 || qctx.TimeOfDay < 6 {
		text = "Your alarm went off. Please confirm you are safe right now."
	}
	return models.NewQuestion(text, models.DefaultQuestionTimeout, models.ThreatLow, models.ThreatMedium)
}

// AssessThreatLevel applies the question's own outcome levels, bumping one
// step when even a positive answer took most of the window.
func (a *RuleAdvisor) AssessThreatLevel(_ context.Context, question models.ProtocolQuestion, answered bool, responseTimeSeconds float64) models.ThreatLevel {
	if !answered {
		return question.LevelIfTimedOut
	}
	level := question.LevelIfAnswered
	if responseTimeSeconds > float64(question.TimeoutSeconds)*0.8 {
		level = level.Max(models.ThreatMedium)
	}
	return level
}

// DecideEmergencyActions maps the path and level to a fixed escalation table.
func (a *RuleAdvisor) DecideEmergencyActions(_ context.Context, actx ActionContext) ActionPlan {
	switch actx.Path {
	case models.PathThreatNearby:
		urgency := 8
		actions := []string{"keep_alarm_active", "notify_all_contacts", "share_live_location"}
		if actx.Session.ThreatLevel.AtLeast(models.ThreatCritical) {
			urgency = 10
			actions = append(actions, "call_emergency_services")
		}
		return ActionPlan{
			Actions:      actions,
			Reasoning:    "threat reported nearby; maximize deterrence and outreach",
			UrgencyScore: urgency,
		}
	case models.PathEscapeToSafety:
		return ActionPlan{
			Actions:      []string{"navigate_to_safe_place", "share_live_location", "periodic_checkins"},
			Reasoning:    "victim is mobile; guide them to the nearest safe place",
			UrgencyScore: 6,
		}
	default:
		return ActionPlan{
			Actions:      []string{"await_response"},
			Reasoning:    "no path chosen yet; keep monitoring",
			UrgencyScore: 4,
		}
	}
}

// GenerateEmergencyMessage fills a fixed template with the session facts.
func (a *RuleAdvisor) GenerateEmergencyMessage(_ context.Context, mctx MessageContext) string {
	msg := fmt.Sprintf("EMERGENCY - %s, someone who lists you as their emergency contact needs help.", mctx.Recipient.Name)
	if loc := mctx.Session.LastLocation; loc != nil {
		msg += fmt.Sprintf(" Last known location: https://maps.google.com/?q=%.5f,%.5f.", loc.Latitude, loc.Longitude)
	} else {
		msg += " Location is currently unavailable."
	}
	msg += " This is an automated alert from their safety app. Please call them immediately."
	return msg
}
