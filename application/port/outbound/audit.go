package outbound

import (
	"context"

	"github.com/medrec/hpquestion/domain"
)

// AuditRepository persists audit entries. Entries are never updated or deleted.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	// ListByEntity returns entries for one entity, newest first.
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*domain.AuditEntry, error)
}

// AuditPublisher fans recorded entries out to other systems.
type AuditPublisher interface {
	Publish(ctx context.Context, entry *domain.AuditEntry) error
	Close() error
}

// AuditWriter records one mutation. It never fails the caller.
type AuditWriter interface {
	Record(ctx context.Context, entityType string, action domain.AuditAction, entityID string, previous, next interface{}, actor string)
}
