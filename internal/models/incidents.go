package models

import (
	"time"

	"gorm.io/gorm"
)

// IncidentRecord is one reported crime incident. The crime scoring source
// aggregates these by grid cell around the current location.
type IncidentRecord struct {
	ID         uint    `gorm:"primaryKey"`
	Category   string  `gorm:"size:64;index"`
	Severity   float64 // 0..1 as graded at ingest
	Latitude   float64 `gorm:"index:idx_incident_geo"`
	Longitude  float64 `gorm:"index:idx_incident_geo"`
	OccurredAt time.Time
	ReportedAt time.Time
	CreatedAt  time.Time
}

func (IncidentRecord) TableName() string { return "crime_incidents" }

// IncidentsNear returns incidents within roughly radiusMeters of the point,
// newest first. The bounding-box prefilter keeps the query on the geo index;
// exact distance is checked by the caller if it matters.
func IncidentsNear(db *gorm.DB, lat, lon, radiusMeters float64, since time.Time) ([]IncidentRecord, error) {
	// ~111km per degree of latitude; longitude shrinks with cos(lat) but the
	// box only needs to be conservative.
	degLat := radiusMeters / 111000.0
	degLon := degLat * 1.5

	var rows []IncidentRecord
	err := db.Where(
		"latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ? AND occurred_at >= ?",
		lat-degLat, lat+degLat, lon-degLon, lon+degLon, since,
	).Order("occurred_at desc").Find(&rows).Error
	return rows, err
}

// AddIncident inserts one incident row.
func AddIncident(db *gorm.DB, rec *IncidentRecord) error {
	return db.Create(rec).Error
}

// PruneIncidents drops incidents older than the retention window.
func PruneIncidents(db *gorm.DB, before time.Time) error {
	return db.Where("occurred_at < ?", before).Delete(&IncidentRecord{}).Error
}

// Migrate creates all persistence tables used by the coordinator.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ContactRecord{},
		&SessionRecord{},
		&AlertLogRecord{},
		&IncidentRecord{},
	)
}
