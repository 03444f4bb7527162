// Package models contains the persisted rows and domain snapshots managed by the dashboard core
package models

import (
	"time"
)

// EntityKind identifies which lifecycle-managed table an entity lives in
type EntityKind string

const (
	EntityKindLead     EntityKind = "lead"
	EntityKindProperty EntityKind = "property"
)

// String returns the string representation of the kind
func (k EntityKind) String() string {
	return string(k)
}

// Valid checks if the kind is one of the managed kinds
func (k EntityKind) Valid() bool {
	switch k {
	case EntityKindLead, EntityKindProperty:
		return true
	default:
		return false
	}
}

// DefaultStatus returns the status a freshly created entity of this kind starts in
func (k EntityKind) DefaultStatus() string {
	switch k {
	case EntityKindLead:
		return LeadStatusNew.String()
	case EntityKindProperty:
		return PropertyStatusAvailable.String()
	default:
		return ""
	}
}

// Entity is the kind-agnostic snapshot the lifecycle engine works with.
// Status always holds exactly one value from the kind's status enum.
type Entity struct {
	ID        string     `json:"id"`
	Kind      EntityKind `json:"kind"`
	OwnerID   uint       `json:"owner_id"`
	Status    string     `json:"status"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
