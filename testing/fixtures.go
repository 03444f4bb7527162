package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestLead creates a lead for the owner. A zero createdAt uses the current time.
func (tf *TestFixtures) CreateTestLead(ownerID uint, status models.LeadStatus, createdAt time.Time) (*models.Lead, error) {
	email := fmt.Sprintf("lead.%d@example.com", rand.Intn(1_000_000))
	lead := &models.Lead{
		OwnerID:   ownerID,
		Status:    status,
		Name:      "Jane Buyer",
		Email:     &email,
		Source:    utils.ToPtr("website"),
		CreatedAt: createdAt,
	}

	if err := tf.DB.DB.Create(lead).Error; err != nil {
		return nil, fmt.Errorf("failed to create test lead: %w", err)
	}
	return lead, nil
}

// CreateTestProperty creates a property for the owner. A zero createdAt uses the current time.
func (tf *TestFixtures) CreateTestProperty(ownerID uint, status models.PropertyStatus, createdAt time.Time) (*models.Property, error) {
	property := &models.Property{
		OwnerID:   ownerID,
		Status:    status,
		Title:     fmt.Sprintf("Two bedroom flat #%d", rand.Intn(10_000)),
		Price:     250000,
		Location:  utils.ToPtr("Athens"),
		CreatedAt: createdAt,
	}

	if err := tf.DB.DB.Create(property).Error; err != nil {
		return nil, fmt.Errorf("failed to create test property: %w", err)
	}
	return property, nil
}

// CreateTestAppointment creates an appointment for the owner starting at start
func (tf *TestFixtures) CreateTestAppointment(ownerID uint, leadID *uuid.UUID, start time.Time) (*models.Appointment, error) {
	end := start.Add(time.Hour)
	appointment := &models.Appointment{
		OwnerID:   ownerID,
		LeadID:    leadID,
		Title:     "Viewing",
		StartTime: start,
		EndTime:   &end,
	}

	if err := tf.DB.DB.Create(appointment).Error; err != nil {
		return nil, fmt.Errorf("failed to create test appointment: %w", err)
	}
	return appointment, nil
}
