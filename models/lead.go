package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadStatus represents the pipeline stage of a lead
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusNurturing LeadStatus = "nurturing"
	LeadStatusClosed    LeadStatus = "closed"

	// LeadStatusProposal is counted as an active stage by the dashboard but is
	// not part of the lead status enum: no transition ever produces it.
	LeadStatusProposal LeadStatus = "proposal"
)

// LeadStatuses lists every assignable lead status
var LeadStatuses = []LeadStatus{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusQualified,
	LeadStatusNurturing,
	LeadStatusClosed,
}

// String returns the string representation of the status
func (s LeadStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusNurturing, LeadStatusClosed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for LeadStatus
func (s *LeadStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = LeadStatus(v)
	case []byte:
		*s = LeadStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LeadStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for LeadStatus
func (s LeadStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LeadStatus: %s", s)
	}
	return string(s), nil
}

// Lead represents a prospective client owned by a single dashboard user
type Lead struct {
	ID      uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID uint       `gorm:"not null;index:idx_leads_owner_id" json:"owner_id"`
	Status  LeadStatus `gorm:"type:varchar(32);not null;default:'new';index:idx_leads_status" json:"status"`

	Name   string  `gorm:"size:255;not null" json:"name"`
	Email  *string `gorm:"size:255" json:"email,omitempty"`
	Phone  *string `gorm:"size:32" json:"phone,omitempty"`
	Source *string `gorm:"size:64" json:"source,omitempty"`
	Notes  string  `gorm:"type:text;not null;default:''" json:"notes"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_leads_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Lead) TableName() string { return "leads" }

// BeforeCreate fills the id, default status and timestamps
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = LeadStatusNew
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = l.CreatedAt
	}
	return nil
}

// ToEntity converts the row into the lifecycle snapshot
func (l *Lead) ToEntity() *Entity {
	return &Entity{
		ID:        l.ID.String(),
		Kind:      EntityKindLead,
		OwnerID:   l.OwnerID,
		Status:    l.Status.String(),
		Notes:     l.Notes,
		CreatedAt: l.CreatedAt,
	}
}

// LeadFilter represents filter criteria for lead queries
type LeadFilter struct {
	ID            *uuid.UUID
	OwnerID       *uint
	Status        *LeadStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
