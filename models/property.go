package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyStatus represents the market state of a listing
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "available"
	PropertyStatusPending   PropertyStatus = "pending"
	PropertyStatusSold      PropertyStatus = "sold"
	PropertyStatusOffMarket PropertyStatus = "off-market"
)

// PropertyStatuses lists every assignable property status
var PropertyStatuses = []PropertyStatus{
	PropertyStatusAvailable,
	PropertyStatusPending,
	PropertyStatusSold,
	PropertyStatusOffMarket,
}

// String returns the string representation of the status
func (s PropertyStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyStatusAvailable, PropertyStatusPending,
		PropertyStatusSold, PropertyStatusOffMarket:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PropertyStatus
func (s *PropertyStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PropertyStatus(v)
	case []byte:
		*s = PropertyStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PropertyStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PropertyStatus
func (s PropertyStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PropertyStatus: %s", s)
	}
	return string(s), nil
}

// Property represents a listing managed by a dashboard user
type Property struct {
	ID      uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	OwnerID uint           `gorm:"not null;index:idx_properties_owner_id" json:"owner_id"`
	Status  PropertyStatus `gorm:"type:varchar(32);not null;default:'available';index:idx_properties_status" json:"status"`

	Title    string  `gorm:"size:255;not null" json:"title"`
	Price    float64 `gorm:"type:numeric(14,2);not null;default:0" json:"price"`
	Location *string `gorm:"size:255" json:"location,omitempty"`
	Notes    string  `gorm:"type:text;not null;default:''" json:"notes"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_properties_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Property) TableName() string { return "properties" }

// BeforeCreate fills the id, default status and timestamps
func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PropertyStatusAvailable
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = utils.UTCNow()
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	return nil
}

// ToEntity converts the row into the lifecycle snapshot
func (p *Property) ToEntity() *Entity {
	return &Entity{
		ID:        p.ID.String(),
		Kind:      EntityKindProperty,
		OwnerID:   p.OwnerID,
		Status:    p.Status.String(),
		Notes:     p.Notes,
		CreatedAt: p.CreatedAt,
	}
}

// PropertyFilter represents filter criteria for property queries
type PropertyFilter struct {
	ID            *uuid.UUID
	OwnerID       *uint
	Status        *PropertyStatus
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
