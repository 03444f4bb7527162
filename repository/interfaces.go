// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/dimpinis9/estately/models"
	"github.com/google/uuid"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// LeadRepository defines operations for leads. Every method is owner scoped.
type LeadRepository interface {
	Repository[models.Lead, models.LeadFilter]
	ByOwnerAndID(ctx context.Context, ownerID uint, id uuid.UUID) (*models.Lead, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Lead, error)
	UpdateStatus(ctx context.Context, ownerID uint, id uuid.UUID, status models.LeadStatus) (bool, error)
	AppendNote(ctx context.Context, ownerID uint, id uuid.UUID, entry string) (bool, error)
	DeleteOwned(ctx context.Context, ownerID uint, id uuid.UUID) (bool, error)
}

// PropertyRepository defines operations for properties. Every method is owner scoped.
type PropertyRepository interface {
	Repository[models.Property, models.PropertyFilter]
	ByOwnerAndID(ctx context.Context, ownerID uint, id uuid.UUID) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Property, error)
	UpdateStatus(ctx context.Context, ownerID uint, id uuid.UUID, status models.PropertyStatus) (bool, error)
	AppendNote(ctx context.Context, ownerID uint, id uuid.UUID, entry string) (bool, error)
	DeleteOwned(ctx context.Context, ownerID uint, id uuid.UUID) (bool, error)
}

// AppointmentRepository defines read operations for appointments
type AppointmentRepository interface {
	Repository[models.Appointment, models.AppointmentFilter]
	ListByOwner(ctx context.Context, ownerID uint) ([]*models.Appointment, error)
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByOwner(ctx context.Context, ownerID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
