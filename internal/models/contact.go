package models

import (
	"sort"
	"time"

	"gorm.io/gorm"
)

// EmergencyContact is a person alerted during an episode. Instances are
// immutable: settings updates replace the contact rather than mutating it.
type EmergencyContact struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Phone              string `json:"phone"`
	Relationship       string `json:"relationship"`
	Priority           int    `json:"priority"` // 1 = highest … 5 = lowest
	CanReceiveLocation bool   `json:"canReceiveLocation"`
}

// TopByPriority returns the n highest-priority contacts (priority 1 first).
// Ties keep their relative order.
func TopByPriority(contacts []EmergencyContact, n int) []EmergencyContact {
	sorted := make([]EmergencyContact, len(contacts))
	copy(sorted, contacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// ContactRecord is the persisted form of an EmergencyContact.
type ContactRecord struct {
	ID                 string `gorm:"primaryKey;size:64"`
	Name               string `gorm:"size:128"`
	Phone              string `gorm:"size:32"`
	Relationship       string `gorm:"size:64"`
	Priority           int
	CanReceiveLocation bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (ContactRecord) TableName() string { return "emergency_contacts" }

// Contact converts the persisted row to its value form.
func (r ContactRecord) Contact() EmergencyContact {
	return EmergencyContact{
		ID:                 r.ID,
		Name:               r.Name,
		Phone:              r.Phone,
		Relationship:       r.Relationship,
		Priority:           r.Priority,
		CanReceiveLocation: r.CanReceiveLocation,
	}
}

// SaveContact inserts or replaces a contact row.
func SaveContact(db *gorm.DB, c EmergencyContact) error {
	rec := ContactRecord{
		ID:                 c.ID,
		Name:               c.Name,
		Phone:              c.Phone,
		Relationship:       c.Relationship,
		Priority:           c.Priority,
		CanReceiveLocation: c.CanReceiveLocation,
	}
	return db.Save(&rec).Error
}

// GetContacts loads all contacts ordered by priority.
func GetContacts(db *gorm.DB) ([]EmergencyContact, error) {
	var rows []ContactRecord
	if err := db.Order("priority asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	contacts := make([]EmergencyContact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.Contact())
	}
	return contacts, nil
}

// DeleteContact removes a contact by id.
func DeleteContact(db *gorm.DB, id string) error {
	return db.Delete(&ContactRecord{}, "id = ?", id).Error
}
