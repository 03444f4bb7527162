package repository

import (
	"context"
	"fmt"

	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyRepositoryImpl implements PropertyRepository interface
type PropertyRepositoryImpl struct {
	*BaseRepository[models.Property, models.PropertyFilter]
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &PropertyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Property, models.PropertyFilter](db),
	}
}

// ByOwnerAndID retrieves a property only if it belongs to the owner
func (r *PropertyRepositoryImpl) ByOwnerAndID(ctx context.Context, ownerID uint, id uuid.UUID) (*models.Property, error) {
	return r.ownedByID(ctx, ownerID, id)
}

// ListByOwner lists every property of the owner, oldest first
func (r *PropertyRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Property, error) {
	return r.ByFilter(ctx, models.PropertyFilter{OwnerID: &ownerID}, "created_at ASC", 0, 0)
}

// UpdateStatus sets the status of an owned property
func (r *PropertyRepositoryImpl) UpdateStatus(ctx context.Context, ownerID uint, id uuid.UUID, status models.PropertyStatus) (bool, error) {
	return r.updateOwned(ctx, ownerID, id, map[string]any{
		"status":     status,
		"updated_at": utils.UTCNow(),
	})
}

// AppendNote appends a note entry to an owned property in a single statement
func (r *PropertyRepositoryImpl) AppendNote(ctx context.Context, ownerID uint, id uuid.UUID, entry string) (bool, error) {
	return r.updateOwned(ctx, ownerID, id, map[string]any{
		"notes":      appendNoteExpr(entry),
		"updated_at": utils.UTCNow(),
	})
}

// DeleteOwned removes an owned property
func (r *PropertyRepositoryImpl) DeleteOwned(ctx context.Context, ownerID uint, id uuid.UUID) (bool, error) {
	return r.deleteOwned(ctx, ownerID, id)
}

// applyFilter applies filter criteria to a GORM query
func (r *PropertyRepositoryImpl) applyFilter(query *gorm.DB, filter models.PropertyFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", filter.Status.String())
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves properties based on filter criteria
func (r *PropertyRepositoryImpl) ByFilter(ctx context.Context, filter models.PropertyFilter, orderBy string, limit, offset int) ([]*models.Property, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Property{}), filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Property
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return rows, nil
}

// Count returns number of properties matching filter
func (r *PropertyRepositoryImpl) Count(ctx context.Context, filter models.PropertyFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Property{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return count, nil
}

// Exists checks if any property matches the filter
func (r *PropertyRepositoryImpl) Exists(ctx context.Context, filter models.PropertyFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

