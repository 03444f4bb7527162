package businessflow

import (
	"context"
	"sync"
	"time"

	"github.com/dimpinis9/estately/app/dto"
	"github.com/dimpinis9/estately/app/services"
	"github.com/dimpinis9/estately/models"
	"github.com/dimpinis9/estately/repository"
)

// memoryStore is an in-memory EntityStore with hooks for injecting failures
type memoryStore struct {
	mu       sync.Mutex
	entities map[string]*models.Entity
	appts    []*models.Appointment

	failOn  map[string]error
	panicOn map[string]bool
	listErr map[models.EntityKind]error
	apptErr error

	// onGet runs before every GetEntity, outside the lock
	onGet func(id string)
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		entities: map[string]*models.Entity{},
		failOn:   map[string]error{},
		panicOn:  map[string]bool{},
		listErr:  map[models.EntityKind]error{},
	}
}

func key(kind models.EntityKind, id string) string { return kind.String() + "/" + id }

func (s *memoryStore) put(e models.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	s.entities[key(e.Kind, e.ID)] = &e
}

func (s *memoryStore) get(kind models.EntityKind, id string) (models.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[key(kind, id)]
	if !ok {
		return models.Entity{}, false
	}
	return *e, true
}

func (s *memoryStore) owned(ownerID uint, kind models.EntityKind, id string) (*models.Entity, error) {
	if err := s.failOn[id]; err != nil {
		return nil, err
	}
	if s.panicOn[id] {
		panic("store exploded on " + id)
	}
	e, ok := s.entities[key(kind, id)]
	if !ok || e.OwnerID != ownerID {
		return nil, repository.ErrEntityNotFound
	}
	return e, nil
}

func (s *memoryStore) GetEntity(_ context.Context, ownerID uint, kind models.EntityKind, id string) (*models.Entity, error) {
	if s.onGet != nil {
		s.onGet(id)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.owned(ownerID, kind, id)
	if err != nil {
		return nil, err
	}
	cp := *e
	return &cp, nil
}

func (s *memoryStore) UpdateStatus(_ context.Context, ownerID uint, kind models.EntityKind, id string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.owned(ownerID, kind, id)
	if err != nil {
		return err
	}
	e.Status = status
	return nil
}

func (s *memoryStore) DeleteEntity(_ context.Context, ownerID uint, kind models.EntityKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.owned(ownerID, kind, id); err != nil {
		return err
	}
	delete(s.entities, key(kind, id))
	return nil
}

func (s *memoryStore) AppendNote(_ context.Context, ownerID uint, kind models.EntityKind, id string, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.owned(ownerID, kind, id)
	if err != nil {
		return err
	}
	if e.Notes == "" {
		e.Notes = entry
	} else {
		e.Notes += "\n" + entry
	}
	return nil
}

func (s *memoryStore) ListOwned(_ context.Context, ownerID uint, kind models.EntityKind) ([]*models.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.listErr[kind]; err != nil {
		return nil, err
	}
	out := []*models.Entity{}
	for _, e := range s.entities {
		if e.Kind == kind && e.OwnerID == ownerID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryStore) ListOwnedAppointments(_ context.Context, ownerID uint) ([]*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.apptErr != nil {
		return nil, s.apptErr
	}
	out := []*models.Appointment{}
	for _, a := range s.appts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

// recordingAuditRepo keeps every saved row
type recordingAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (r *recordingAuditRepo) ByFilter(context.Context, models.AuditLogFilter, string, int, int) ([]*models.AuditLog, error) {
	return r.all(), nil
}

func (r *recordingAuditRepo) Save(_ context.Context, entity *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, entity)
	return nil
}

func (r *recordingAuditRepo) SaveBatch(ctx context.Context, entities []*models.AuditLog) error {
	for _, e := range entities {
		_ = r.Save(ctx, e)
	}
	return nil
}

func (r *recordingAuditRepo) Count(context.Context, models.AuditLogFilter) (int64, error) {
	return int64(len(r.all())), nil
}

func (r *recordingAuditRepo) Exists(context.Context, models.AuditLogFilter) (bool, error) {
	return len(r.all()) > 0, nil
}

func (r *recordingAuditRepo) ListByOwner(context.Context, uint, int, int) ([]*models.AuditLog, error) {
	return r.all(), nil
}

func (r *recordingAuditRepo) ListByAction(context.Context, string, int, int) ([]*models.AuditLog, error) {
	return r.all(), nil
}

func (r *recordingAuditRepo) all() []*models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*models.AuditLog(nil), r.logs...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.LifecycleEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event services.LifecycleEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// memoryCache is a DashboardCache keyed by owner only
type memoryCache struct {
	mu          sync.Mutex
	entries     map[uint]*dto.DashboardMetrics
	sets        int
	invalidated []uint
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[uint]*dto.DashboardMetrics{}}
}

func (c *memoryCache) Get(_ context.Context, ownerID uint, _ time.Time) (*dto.DashboardMetrics, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[ownerID]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

func (c *memoryCache) Set(_ context.Context, ownerID uint, _ time.Time, metrics *dto.DashboardMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	cp := *metrics
	c.entries[ownerID] = &cp
}

func (c *memoryCache) Invalidate(_ context.Context, ownerID uint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, ownerID)
	c.invalidated = append(c.invalidated, ownerID)
	return nil
}
