package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProtocolQuestion is a yes/no prompt shown to the victim. Generated fresh per
// prompt and discarded once answered or timed out.
type ProtocolQuestion struct {
	ID              string      `json:"id"`
	Text            string      `json:"text"`
	TimeoutSeconds  int         `json:"timeoutSeconds"`
	LevelIfAnswered ThreatLevel `json:"levelIfAnswered"`
	LevelIfTimedOut ThreatLevel `json:"levelIfTimedOut"`
}

// DefaultQuestionTimeout is applied when the advisor leaves the timeout unset.
const DefaultQuestionTimeout = 30

// NewQuestion builds a question with a fresh id, filling in the default timeout.
func NewQuestion(text string, timeoutSeconds int, ifAnswered, ifTimedOut ThreatLevel) ProtocolQuestion {
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultQuestionTimeout
	}
	return ProtocolQuestion{
		ID:              uuid.NewString(),
		Text:            text,
		TimeoutSeconds:  timeoutSeconds,
		LevelIfAnswered: ifAnswered,
		LevelIfTimedOut: ifTimedOut,
	}
}

// VictimResponse is one entry in a session's append-only response history.
type VictimResponse struct {
	QuestionID   string    `json:"questionId"`
	Answered     bool      `json:"answered"`
	RespondedAt  time.Time `json:"respondedAt"`
	SecondsTaken float64   `json:"secondsTaken"`
}

// EmergencySession is the per-episode record. Exactly one session is current
// at a time; mutation is copy-on-write so a transition swaps in a complete new
// value atomically.
type EmergencySession struct {
	ID           string           `json:"id"`
	StartedAt    time.Time        `json:"startedAt"`
	AlarmAt      time.Time        `json:"alarmAt"`
	ThreatLevel  ThreatLevel      `json:"threatLevel"`
	LastLocation *Location        `json:"lastLocation,omitempty"`
	Responses    []VictimResponse `json:"responses"`
	Alerts       []AlertRecord    `json:"alerts"`
	Active       bool             `json:"active"`
	ResolvedAt   *time.Time       `json:"resolvedAt,omitempty"`
	ResolvedWith ResolutionReason `json:"resolvedWith,omitempty"`
}

// NewSession starts a fresh episode with a unique id.
func NewSession(now time.Time, loc *Location) EmergencySession {
	return EmergencySession{
		ID:           uuid.NewString(),
		StartedAt:    now,
		AlarmAt:      now,
		ThreatLevel:  ThreatUnknown,
		LastLocation: loc,
		Active:       true,
	}
}

func (s EmergencySession) clone() EmergencySession {
	out := s
	out.Responses = append([]VictimResponse(nil), s.Responses...)
	out.Alerts = append([]AlertRecord(nil), s.Alerts...)
	if s.LastLocation != nil {
		loc := *s.LastLocation
		out.LastLocation = &loc
	}
	return out
}

// WithResponse returns a copy with the response appended.
func (s EmergencySession) WithResponse(r VictimResponse) EmergencySession {
	out := s.clone()
	out.Responses = append(out.Responses, r)
	return out
}

// WithAlerts returns a copy with the alert records appended.
func (s EmergencySession) WithAlerts(alerts ...AlertRecord) EmergencySession {
	out := s.clone()
	out.Alerts = append(out.Alerts, alerts...)
	return out
}

// WithThreatLevel returns a copy with the level replaced.
func (s EmergencySession) WithThreatLevel(level ThreatLevel) EmergencySession {
	out := s.clone()
	out.ThreatLevel = level
	return out
}

// WithLocation returns a copy with the last known location replaced.
func (s EmergencySession) WithLocation(loc Location) EmergencySession {
	out := s.clone()
	out.LastLocation = &loc
	return out
}

// Resolve returns a copy marked inactive with the given reason.
func (s EmergencySession) Resolve(reason ResolutionReason, now time.Time) EmergencySession {
	out := s.clone()
	out.Active = false
	out.ResolvedAt = &now
	out.ResolvedWith = reason
	return out
}

// SessionRecord is the persisted summary of a resolved episode.
type SessionRecord struct {
	ID            string `gorm:"primaryKey;size:64"`
	StartedAt     time.Time
	ResolvedAt    time.Time
	Resolution    string `gorm:"size:32"`
	FinalLevel    string `gorm:"size:16"`
	ResponseCount int
	AlertCount    int
	LastLatitude  float64
	LastLongitude float64
	CreatedAt     time.Time
}

func (SessionRecord) TableName() string { return "emergency_sessions" }

// ArchiveSession persists a resolved session summary plus its alert audit rows.
func ArchiveSession(db *gorm.DB, s EmergencySession) error {
	rec := SessionRecord{
		ID:            s.ID,
		StartedAt:     s.StartedAt,
		Resolution:    string(s.ResolvedWith),
		FinalLevel:    s.ThreatLevel.String(),
		ResponseCount: len(s.Responses),
		AlertCount:    len(s.Alerts),
	}
	if s.ResolvedAt != nil {
		rec.ResolvedAt = *s.ResolvedAt
	}
	if s.LastLocation != nil {
		rec.LastLatitude = s.LastLocation.Latitude
		rec.LastLongitude = s.LastLocation.Longitude
	}
	if err := db.Save(&rec).Error; err != nil {
		return err
	}
	return AppendAlertLog(db, s.ID, s.Alerts)
}

// GetSessionHistory returns archived sessions, newest first.
func GetSessionHistory(db *gorm.DB, limit int) ([]SessionRecord, error) {
	var rows []SessionRecord
	err := db.Order("started_at desc").Limit(limit).Find(&rows).Error
	return rows, err
}
