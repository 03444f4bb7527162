package businessflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/app/services"
	"github.com/dimpinis9/estately/config"
	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/repository"
	"github.com/dimpinis9/estately/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BulkOperationFlow applies one action to a batch of owned entities
type BulkOperationFlow interface {
	Execute(ctx context.Context, ownerID uint, req *dto.BulkOperationRequest, metadata *ClientMetadata) (*dto.BulkOperationResult, error)
}

// BulkOperationFlowImpl implements BulkOperationFlow
type BulkOperationFlowImpl struct {
	store     EntityStore
	auditRepo repository.AuditLogRepository
	publisher services.EventPublisher
	cache     DashboardCache
	cfg       config.BulkConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewBulkOperationFlow creates a new bulk operation flow. auditRepo, publisher and cache may be nil.
func NewBulkOperationFlow(
	store EntityStore,
	auditRepo repository.AuditLogRepository,
	publisher services.EventPublisher,
	cache DashboardCache,
	cfg config.BulkConfig,
	logger *zap.Logger,
) BulkOperationFlow {
	if publisher == nil {
		publisher = services.NewNoopEventPublisher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers < 1 {
		cfg.Workers = utils.DefaultBulkWorkers
	}
	if cfg.MaxBatchSize < 1 {
		cfg.MaxBatchSize = utils.DefaultBulkMaxBatchSize
	}
	if cfg.MaxNoteLength < 1 {
		cfg.MaxNoteLength = utils.DefaultBulkMaxNoteLen
	}
	return &BulkOperationFlowImpl{
		store:     store,
		auditRepo: auditRepo,
		publisher: publisher,
		cache:     cache,
		cfg:       cfg,
		logger:    logger.Named("bulk_operation"),
		now:       utils.UTCNow,
	}
}

type itemOutcome int

const (
	itemFailed itemOutcome = iota
	itemSucceeded
	itemNoOp
)

// itemResult is the slot a single worker owns
type itemResult struct {
	id      string
	outcome itemOutcome
	err     dto.ItemError
}

const (
	reasonNotFound  = "entity not found"
	reasonStore     = "storage failure, retry this item"
	reasonCancelled = "request cancelled before this item was processed, retry this item"
)

func (f *BulkOperationFlowImpl) Execute(ctx context.Context, ownerID uint, req *dto.BulkOperationRequest, metadata *ClientMetadata) (*dto.BulkOperationResult, error) {
	if ownerID == 0 {
		return nil, ErrOwnerContextMissing
	}

	started := time.Now()

	ids, err := f.validate(req)
	if err != nil {
		f.recordRejection(ctx, ownerID, req, metadata, err)
		return nil, newValidationError(err)
	}

	kind := models.EntityKind(req.Kind)
	unique := dedupe(ids)
	slots := make([]itemResult, len(unique))

	// Items never share an early exit: a plain group, not errgroup.WithContext.
	var g errgroup.Group
	g.SetLimit(f.cfg.Workers)

	for i, id := range unique {
		if ctx.Err() != nil {
			slots[i] = cancelled(id)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				slots[i] = cancelled(id)
				return nil
			}
			// Started items finish on their own terms even if the caller goes away.
			slots[i] = f.runItem(context.WithoutCancel(ctx), ownerID, kind, id, req)
			return nil
		})
	}
	_ = g.Wait()

	result := mergeResults(req, len(ids), slots)

	bulkOperationDuration.WithLabelValues(string(req.Action)).Observe(time.Since(started).Seconds())
	f.afterBatch(context.WithoutCancel(ctx), ownerID, req, metadata, result)

	return result, nil
}

func (f *BulkOperationFlowImpl) validate(req *dto.BulkOperationRequest) ([]string, error) {
	if req == nil {
		return nil, ErrEmptyEntityIDs
	}
	if !req.Action.Valid() {
		return nil, ErrUnknownBulkAction
	}
	if !models.EntityKind(req.Kind).Valid() {
		return nil, ErrUnknownEntityKind
	}
	if len(req.EntityIDs) == 0 {
		return nil, ErrEmptyEntityIDs
	}
	if len(req.EntityIDs) > f.cfg.MaxBatchSize {
		return nil, fmt.Errorf("%w: %d ids, at most %d allowed", ErrBatchTooLarge, len(req.EntityIDs), f.cfg.MaxBatchSize)
	}

	ids := make([]string, len(req.EntityIDs))
	for i, id := range req.EntityIDs {
		ids[i] = strings.TrimSpace(id)
		if ids[i] == "" {
			return nil, ErrBlankEntityID
		}
	}

	switch req.Action {
	case dto.BulkActionUpdateStatus:
		if strings.TrimSpace(req.Payload.TargetStatus) == "" {
			return nil, ErrTargetStatusRequired
		}
	case dto.BulkActionAddNote:
		if strings.TrimSpace(req.Payload.Note) == "" {
			return nil, ErrNoteRequired
		}
		if utf8.RuneCountInString(req.Payload.Note) > f.cfg.MaxNoteLength {
			return nil, fmt.Errorf("%w: at most %d characters", ErrNoteTooLong, f.cfg.MaxNoteLength)
		}
	}

	return ids, nil
}

// dedupe keeps the first occurrence of each id, in order
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func cancelled(id string) itemResult {
	return itemResult{id: id, outcome: itemFailed, err: dto.ItemError{Code: dto.ItemErrorCancelled, Reason: reasonCancelled}}
}

func notFound(id string) itemResult {
	return itemResult{id: id, outcome: itemFailed, err: dto.ItemError{Code: dto.ItemErrorNotFound, Reason: reasonNotFound}}
}

// runItem isolates one item, including from panics in the store
func (f *BulkOperationFlowImpl) runItem(ctx context.Context, ownerID uint, kind models.EntityKind, id string, req *dto.BulkOperationRequest) (res itemResult) {
	defer func() {
		if r := recover(); r != nil {
			res = f.storeFailure(ownerID, kind, id, req.Action, fmt.Errorf("panic: %v", r))
		}
	}()
	return f.applyItem(ctx, ownerID, kind, id, req)
}

func (f *BulkOperationFlowImpl) applyItem(ctx context.Context, ownerID uint, kind models.EntityKind, id string, req *dto.BulkOperationRequest) itemResult {
	entity, err := f.store.GetEntity(ctx, ownerID, kind, id)
	if err != nil {
		return f.classify(ownerID, kind, id, req.Action, err)
	}
	// The store already scopes by owner; a foreign row must still look missing.
	if entity == nil || entity.OwnerID != ownerID {
		return notFound(id)
	}

	switch req.Action {
	case dto.BulkActionUpdateStatus:
		target := strings.TrimSpace(req.Payload.TargetStatus)
		decision := ValidateTransition(kind, entity.Status, target)
		if !decision.Allowed {
			if decision.Reason == DenialNoOp {
				return itemResult{id: id, outcome: itemNoOp}
			}
			return itemResult{id: id, outcome: itemFailed, err: denialError(kind, entity.Status, target, decision.Reason)}
		}
		err = f.store.UpdateStatus(ctx, ownerID, kind, id, target)
	case dto.BulkActionDelete:
		err = f.store.DeleteEntity(ctx, ownerID, kind, id)
	case dto.BulkActionAddNote:
		entry := fmt.Sprintf("[%s] %s", f.now().UTC().Format(time.RFC3339), strings.TrimSpace(req.Payload.Note))
		err = f.store.AppendNote(ctx, ownerID, kind, id, entry)
	}

	if err != nil {
		return f.classify(ownerID, kind, id, req.Action, err)
	}
	return itemResult{id: id, outcome: itemSucceeded}
}

func (f *BulkOperationFlowImpl) classify(ownerID uint, kind models.EntityKind, id string, action dto.BulkAction, err error) itemResult {
	if errors.Is(err, repository.ErrEntityNotFound) {
		return notFound(id)
	}
	return f.storeFailure(ownerID, kind, id, action, err)
}

func (f *BulkOperationFlowImpl) storeFailure(ownerID uint, kind models.EntityKind, id string, action dto.BulkAction, err error) itemResult {
	f.logger.Error("bulk item failed in store",
		zap.String("error_kind", "store_error"),
		zap.Uint("owner_id", ownerID),
		zap.String("kind", kind.String()),
		zap.String("action", string(action)),
		zap.String("entity_id", id),
		zap.Error(err),
	)
	return itemResult{id: id, outcome: itemFailed, err: dto.ItemError{Code: dto.ItemErrorStoreError, Reason: reasonStore}}
}

func denialError(kind models.EntityKind, from, to string, reason DenialReason) dto.ItemError {
	switch reason {
	case DenialUnknownStatus:
		return dto.ItemError{Code: dto.ItemErrorUnknownStatus, Reason: fmt.Sprintf("status %q is not valid for %s", to, kind)}
	default:
		return dto.ItemError{Code: dto.ItemErrorTransitionNotAllowed, Reason: fmt.Sprintf("%s cannot move from %s to %s", kind, from, to)}
	}
}

// mergeResults folds the worker slots into the response, keeping dedupe order
func mergeResults(req *dto.BulkOperationRequest, total int, slots []itemResult) *dto.BulkOperationResult {
	result := &dto.BulkOperationResult{
		Action:         req.Action,
		Kind:           req.Kind,
		TotalCount:     total,
		ProcessedCount: len(slots),
		SucceededIDs:   []string{},
		NoOpIDs:        []string{},
		PerItemErrors:  map[string]dto.ItemError{},
	}

	for _, s := range slots {
		switch s.outcome {
		case itemSucceeded:
			result.SuccessCount++
			result.SucceededIDs = append(result.SucceededIDs, s.id)
		case itemNoOp:
			result.NoOpIDs = append(result.NoOpIDs, s.id)
		default:
			result.PerItemErrors[s.id] = s.err
		}
	}

	return result
}

// afterBatch runs the best-effort side effects of a completed batch
func (f *BulkOperationFlowImpl) afterBatch(ctx context.Context, ownerID uint, req *dto.BulkOperationRequest, metadata *ClientMetadata, result *dto.BulkOperationResult) {
	action, kind := string(req.Action), req.Kind

	bulkOperationsTotal.WithLabelValues(action, kind, "completed").Inc()
	bulkItemsTotal.WithLabelValues(action, kind, "succeeded").Add(float64(result.SuccessCount))
	bulkItemsTotal.WithLabelValues(action, kind, "noop").Add(float64(len(result.NoOpIDs)))
	for _, itemErr := range result.PerItemErrors {
		bulkItemsTotal.WithLabelValues(action, kind, itemErr.Code).Inc()
	}

	f.writeAudit(ctx, ownerID, req, metadata, auditActionFor(req.Action), len(result.PerItemErrors) == 0, nil, map[string]any{
		"total_count":     result.TotalCount,
		"processed_count": result.ProcessedCount,
		"success_count":   result.SuccessCount,
		"noop_count":      len(result.NoOpIDs),
		"per_item_errors": result.PerItemErrors,
		"target_status":   req.Payload.TargetStatus,
	})

	if result.SuccessCount > 0 {
		// Notes do not feed any dashboard figure.
		if f.cache != nil && req.Action != dto.BulkActionAddNote {
			if err := f.cache.Invalidate(ctx, ownerID); err != nil {
				f.logger.Warn("failed to invalidate dashboard cache", zap.Uint("owner_id", ownerID), zap.Error(err))
			}
		}

		event := services.NewLifecycleEvent(ownerID, kind, action, result.SucceededIDs, f.now())
		if metadata != nil {
			event.RequestID = metadata.RequestID
		}
		if err := f.publisher.Publish(ctx, event); err != nil {
			f.logger.Warn("failed to publish lifecycle event", zap.Uint("owner_id", ownerID), zap.String("event_id", event.EventID), zap.Error(err))
		}
	}

	f.logger.Info("bulk operation completed",
		zap.Uint("owner_id", ownerID),
		zap.String("action", action),
		zap.String("kind", kind),
		zap.Int("total", result.TotalCount),
		zap.Int("processed", result.ProcessedCount),
		zap.Int("succeeded", result.SuccessCount),
		zap.Int("noop", len(result.NoOpIDs)),
		zap.Int("failed", len(result.PerItemErrors)),
	)
}

func (f *BulkOperationFlowImpl) recordRejection(ctx context.Context, ownerID uint, req *dto.BulkOperationRequest, metadata *ClientMetadata, cause error) {
	action, kind := "", ""
	if req != nil {
		action, kind = string(req.Action), req.Kind
	}
	bulkOperationsTotal.WithLabelValues(action, kind, "rejected").Inc()

	msg := cause.Error()
	f.writeAudit(context.WithoutCancel(ctx), ownerID, req, metadata, models.AuditActionBulkOperationRejected, false, &msg, nil)

	f.logger.Info("bulk operation rejected",
		zap.Uint("owner_id", ownerID),
		zap.String("action", action),
		zap.String("kind", kind),
		zap.Error(cause),
	)
}

func (f *BulkOperationFlowImpl) writeAudit(ctx context.Context, ownerID uint, req *dto.BulkOperationRequest, metadata *ClientMetadata, action string, success bool, errMsg *string, details map[string]any) {
	if f.auditRepo == nil {
		return
	}

	entry := &models.AuditLog{
		OwnerID:      utils.ToPtr(ownerID),
		Action:       action,
		Success:      utils.ToPtr(success),
		ErrorMessage: errMsg,
	}
	if req != nil {
		if kind := models.EntityKind(req.Kind); kind.Valid() {
			entry.EntityKind = utils.ToPtr(kind.String())
		}
		entry.Description = utils.ToPtr(fmt.Sprintf("bulk %s over %d ids", req.Action, len(req.EntityIDs)))
	}
	if metadata != nil {
		entry.IPAddress = nonEmpty(metadata.IPAddress)
		entry.UserAgent = nonEmpty(metadata.UserAgent)
		entry.RequestID = nonEmpty(metadata.RequestID)
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Metadata = raw
		}
	}

	if err := f.auditRepo.Save(ctx, entry); err != nil {
		f.logger.Warn("failed to write audit log", zap.String("action", action), zap.Uint("owner_id", ownerID), zap.Error(err))
	}
}

func auditActionFor(action dto.BulkAction) string {
	switch action {
	case dto.BulkActionDelete:
		return models.AuditActionBulkEntitiesDeleted
	case dto.BulkActionAddNote:
		return models.AuditActionBulkNotesAdded
	default:
		return models.AuditActionBulkStatusUpdated
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
