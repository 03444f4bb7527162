package repository

import (
	"context"
	"fmt"

	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadRepositoryImpl implements LeadRepository interface
type LeadRepositoryImpl struct {
	*BaseRepository[models.Lead, models.LeadFilter]
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &LeadRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Lead, models.LeadFilter](db),
	}
}

// ByOwnerAndID retrieves a lead only if it belongs to the owner
func (r *LeadRepositoryImpl) ByOwnerAndID(ctx context.Context, ownerID uint, id uuid.UUID) (*models.Lead, error) {
	return r.ownedByID(ctx, ownerID, id)
}

// ListByOwner lists every lead of the owner, oldest first
func (r *LeadRepositoryImpl) ListByOwner(ctx context.Context, ownerID uint) ([]*models.Lead, error) {
	return r.ByFilter(ctx, models.LeadFilter{OwnerID: &ownerID}, "created_at ASC", 0, 0)
}

// UpdateStatus sets the status of an owned lead
func (r *LeadRepositoryImpl) UpdateStatus(ctx context.Context, ownerID uint, id uuid.UUID, status models.LeadStatus) (bool, error) {
	return r.updateOwned(ctx, ownerID, id, map[string]any{
		"status":     status,
		"updated_at": utils.UTCNow(),
	})
}

// AppendNote appends a note entry to an owned lead in a single statement
func (r *LeadRepositoryImpl) AppendNote(ctx context.Context, ownerID uint, id uuid.UUID, entry string) (bool, error) {
	return r.updateOwned(ctx, ownerID, id, map[string]any{
		"notes":      appendNoteExpr(entry),
		"updated_at": utils.UTCNow(),
	})
}

// DeleteOwned removes an owned lead
func (r *LeadRepositoryImpl) DeleteOwned(ctx context.Context, ownerID uint, id uuid.UUID) (bool, error) {
	return r.deleteOwned(ctx, ownerID, id)
}

// applyFilter applies filter criteria to a GORM query
func (r *LeadRepositoryImpl) applyFilter(query *gorm.DB, filter models.LeadFilter) *gorm.DB {
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

// ByFilter retrieves leads based on filter criteria
func (r *LeadRepositoryImpl) ByFilter(ctx context.Context, filter models.LeadFilter, orderBy string, limit, offset int) ([]*models.Lead, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Lead{}), filter)

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

	var rows []*models.Lead
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return rows, nil
}

// Count returns number of leads matching filter
func (r *LeadRepositoryImpl) Count(ctx context.Context, filter models.LeadFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Lead{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// Exists checks if any lead matches the filter
func (r *LeadRepositoryImpl) Exists(ctx context.Context, filter models.LeadFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// appendNoteExpr appends entry to the notes column, newline separated
func appendNoteExpr(entry string) any {
	return gorm.Expr("CASE WHEN notes = '' THEN ? ELSE notes || ? || ? END", entry, "\n", entry)
}
