// Package businessflow contains the core business logic for entity lifecycle and dashboard workflows
package businessflow

import (
	"context"

	"github.com/dimpinis9/estately/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// EntityStore is the owner-scoped persistence the lifecycle engine mutates.
// Missing, foreign and malformed ids all surface as repository.ErrEntityNotFound.
type EntityStore interface {
	GetEntity(ctx context.Context, ownerID uint, kind models.EntityKind, id string) (*models.Entity, error)
	UpdateStatus(ctx context.Context, ownerID uint, kind models.EntityKind, id string, status string) error
	DeleteEntity(ctx context.Context, ownerID uint, kind models.EntityKind, id string) error
	AppendNote(ctx context.Context, ownerID uint, kind models.EntityKind, id string, entry string) error
	ListOwned(ctx context.Context, ownerID uint, kind models.EntityKind) ([]*models.Entity, error)
}

// AppointmentReader lists an owner's appointments for the dashboard
type AppointmentReader interface {
	ListOwnedAppointments(ctx context.Context, ownerID uint) ([]*models.Appointment, error)
}
