package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimpinis9/estately/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrEntityNotFound is returned for ids that do not exist, belong to another
	// owner, or are not valid ids at all. Callers cannot tell these apart.
	ErrEntityNotFound   = errors.New("entity not found")
	ErrUnsupportedKind  = errors.New("unsupported entity kind")
	ErrUnsupportedState = errors.New("unsupported status for entity kind")
)

// EntityStore adapts the lead, property and appointment repositories to the
// kind-agnostic, owner-scoped operations the lifecycle and dashboard flows consume.
type EntityStore struct {
	leads        LeadRepository
	properties   PropertyRepository
	appointments AppointmentRepository
}

// NewEntityStore creates a new entity store
func NewEntityStore(leads LeadRepository, properties PropertyRepository, appointments AppointmentRepository) *EntityStore {
	return &EntityStore{
		leads:        leads,
		properties:   properties,
		appointments: appointments,
	}
}

// NewEntityStoreFromDB wires the store directly from a gorm connection
func NewEntityStoreFromDB(db *gorm.DB) *EntityStore {
	return NewEntityStore(NewLeadRepository(db), NewPropertyRepository(db), NewAppointmentRepository(db))
}

// GetEntity returns the owned entity snapshot
func (s *EntityStore) GetEntity(ctx context.Context, ownerID uint, kind models.EntityKind, id string) (*models.Entity, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrEntityNotFound
	}

	switch kind {
	case models.EntityKindLead:
		lead, err := s.leads.ByOwnerAndID(ctx, ownerID, parsed)
		if err != nil {
			return nil, err
		}
		if lead == nil {
			return nil, ErrEntityNotFound
		}
		return lead.ToEntity(), nil
	case models.EntityKindProperty:
		property, err := s.properties.ByOwnerAndID(ctx, ownerID, parsed)
		if err != nil {
			return nil, err
		}
		if property == nil {
			return nil, ErrEntityNotFound
		}
		return property.ToEntity(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// UpdateStatus sets the status of an owned entity
func (s *EntityStore) UpdateStatus(ctx context.Context, ownerID uint, kind models.EntityKind, id string, status string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrEntityNotFound
	}

	var matched bool
	switch kind {
	case models.EntityKindLead:
		st := models.LeadStatus(status)
		if !st.Valid() {
			return fmt.Errorf("%w: %s", ErrUnsupportedState, status)
		}
		matched, err = s.leads.UpdateStatus(ctx, ownerID, parsed, st)
	case models.EntityKindProperty:
		st := models.PropertyStatus(status)
		if !st.Valid() {
			return fmt.Errorf("%w: %s", ErrUnsupportedState, status)
		}
		matched, err = s.properties.UpdateStatus(ctx, ownerID, parsed, st)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	return matchedOrNotFound(matched, err)
}

// DeleteEntity removes an owned entity
func (s *EntityStore) DeleteEntity(ctx context.Context, ownerID uint, kind models.EntityKind, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrEntityNotFound
	}

	var matched bool
	switch kind {
	case models.EntityKindLead:
		matched, err = s.leads.DeleteOwned(ctx, ownerID, parsed)
	case models.EntityKindProperty:
		matched, err = s.properties.DeleteOwned(ctx, ownerID, parsed)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	return matchedOrNotFound(matched, err)
}

// AppendNote appends a formatted note entry to an owned entity
func (s *EntityStore) AppendNote(ctx context.Context, ownerID uint, kind models.EntityKind, id string, entry string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrEntityNotFound
	}

	var matched bool
	switch kind {
	case models.EntityKindLead:
		matched, err = s.leads.AppendNote(ctx, ownerID, parsed, entry)
	case models.EntityKindProperty:
		matched, err = s.properties.AppendNote(ctx, ownerID, parsed, entry)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	return matchedOrNotFound(matched, err)
}

// ListOwned returns snapshots of every entity of the kind owned by the owner
func (s *EntityStore) ListOwned(ctx context.Context, ownerID uint, kind models.EntityKind) ([]*models.Entity, error) {
	switch kind {
	case models.EntityKindLead:
		leads, err := s.leads.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		out := make([]*models.Entity, 0, len(leads))
		for _, l := range leads {
			out = append(out, l.ToEntity())
		}
		return out, nil
	case models.EntityKindProperty:
		properties, err := s.properties.ListByOwner(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		out := make([]*models.Entity, 0, len(properties))
		for _, p := range properties {
			out = append(out, p.ToEntity())
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

// ListOwnedAppointments returns every appointment owned by the owner
func (s *EntityStore) ListOwnedAppointments(ctx context.Context, ownerID uint) ([]*models.Appointment, error) {
	return s.appointments.ListByOwner(ctx, ownerID)
}

func matchedOrNotFound(matched bool, err error) error {
	if err != nil {
		return err
	}
	if !matched {
		return ErrEntityNotFound
	}
	return nil
}
