package models

import (
	"time"

	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Appointment is a scheduled viewing or meeting. It has no status lifecycle;
// the dashboard only reads it.
type Appointment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID    uint       `gorm:"not null;index:idx_appointments_owner_id" json:"owner_id"`
	LeadID     *uuid.UUID `gorm:"type:uuid;index:idx_appointments_lead_id" json:"lead_id,omitempty"`
	PropertyID *uuid.UUID `gorm:"type:uuid;index:idx_appointments_property_id" json:"property_id,omitempty"`

	Title     string     `gorm:"size:255;not null" json:"title"`
	StartTime time.Time  `gorm:"not null;index:idx_appointments_start_time" json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_appointments_created_at" json:"created_at"`
}

func (Appointment) TableName() string { return "appointments" }

// BeforeCreate fills the id and creation timestamp
func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// AppointmentFilter represents filter criteria for appointment queries
type AppointmentFilter struct {
	OwnerID       *uint
	StartAfter    *time.Time
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
