package models

import (
	"time"

	"gorm.io/gorm"
)

// RecipientCategory classifies who an alert went to.
type RecipientCategory string

const (
	RecipientFamily            RecipientCategory = "family"
	RecipientFriend            RecipientCategory = "friend"
	RecipientEmergencyServices RecipientCategory = "emergency_services"
	RecipientPolice            RecipientCategory = "police"
	RecipientMedical           RecipientCategory = "medical"
)

// AlertKind is the delivery mechanism used for one alert.
type AlertKind string

const (
	AlertSMS           AlertKind = "sms"
	AlertCall          AlertKind = "call"
	AlertMissedCall    AlertKind = "missed_call"
	AlertEmergencyCall AlertKind = "emergency_call"
)

// AlertRecord is one entry in a session's append-only alert history.
// RecipientPhone is empty for emergency services dialed by short code.
type AlertRecord struct {
	Timestamp         time.Time         `json:"timestamp"`
	RecipientCategory RecipientCategory `json:"recipientCategory"`
	RecipientName     string            `json:"recipientName"`
	RecipientPhone    string            `json:"recipientPhone,omitempty"`
	Kind              AlertKind         `json:"kind"`
	Success           bool              `json:"success"`
	Error             string            `json:"error,omitempty"`
}

// AlertLogRecord is the persisted audit row written when an episode resolves.
type AlertLogRecord struct {
	ID                uint   `gorm:"primaryKey"`
	SessionID         string `gorm:"index;size:64"`
	RecipientCategory string `gorm:"size:32"`
	RecipientName     string `gorm:"size:128"`
	RecipientPhone    string `gorm:"size:32"`
	Kind              string `gorm:"size:32"`
	Success           bool
	Error             string `gorm:"size:512"`
	SentAt            time.Time
	CreatedAt         time.Time
}

func (AlertLogRecord) TableName() string { return "alert_log" }

// AppendAlertLog writes the session's alert history as audit rows.
func AppendAlertLog(db *gorm.DB, sessionID string, alerts []AlertRecord) error {
	if len(alerts) == 0 {
		return nil
	}
	rows := make([]AlertLogRecord, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, AlertLogRecord{
			SessionID:         sessionID,
			RecipientCategory: string(a.RecipientCategory),
			RecipientName:     a.RecipientName,
			RecipientPhone:    a.RecipientPhone,
			Kind:              string(a.Kind),
			Success:           a.Success,
			Error:             a.Error,
			SentAt:            a.Timestamp,
		})
	}
	return db.Create(&rows).Error
}

// GetAlertLog returns the audit rows for one session, oldest first.
func GetAlertLog(db *gorm.DB, sessionID string) ([]AlertLogRecord, error) {
	var rows []AlertLogRecord
	err := db.Where("session_id = ?", sessionID).Order("sent_at asc").Find(&rows).Error
	return rows, err
}
