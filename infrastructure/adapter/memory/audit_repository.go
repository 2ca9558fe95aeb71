package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
)

// AuditRepository is an append-only in-memory audit log.
type AuditRepository struct {
	mutex   sync.RWMutex
	entries []*domain.AuditEntry
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

var _ outbound.AuditRepository = (*AuditRepository)(nil)

func (r *AuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if entry == nil || entry.ID == "" {
		return fmt.Errorf("audit entry with an id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	c := *entry
	r.entries = append(r.entries, &c)
	return nil
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*domain.AuditEntry, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []*domain.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.EntityType != entityType || e.EntityID != entityID {
			continue
		}
		c := *e
		out = append(out, &c)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// All returns every entry in write order (test helper).
func (r *AuditRepository) All() []*domain.AuditEntry {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]*domain.AuditEntry, len(r.entries))
	for i, e := range r.entries {
		c := *e
		out[i] = &c
	}
	return out
}
