package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
)

type auditRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

func NewAuditRepository(db *sql.DB, queryTimeout time.Duration) outbound.AuditRepository {
	return &auditRepository{db: db, queryTimeout: queryTimeout}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}

	query := `
		INSERT INTO audit_logs (id, entity_type, action, entity_id, previous_value, new_value, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.EntityType,
		string(entry.Action),
		entry.EntityID,
		jsonbParam(entry.PreviousValue),
		jsonbParam(entry.NewValue),
		entry.Actor,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]*domain.AuditEntry, error) {
	if r.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.queryTimeout)
		defer cancel()
	}

	query := `
		SELECT id, entity_type, action, entity_id, previous_value, new_value, actor, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.AuditEntry{}
	for rows.Next() {
		var entry domain.AuditEntry
		var action string
		var previous, next []byte

		if err := rows.Scan(
			&entry.ID,
			&entry.EntityType,
			&action,
			&entry.EntityID,
			&previous,
			&next,
			&entry.Actor,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		entry.Action = domain.AuditAction(action)
		if previous != nil {
			entry.PreviousValue = json.RawMessage(previous)
		}
		if next != nil {
			entry.NewValue = json.RawMessage(next)
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}
	return entries, nil
}

// jsonbParam sends snapshots as text; lib/pq would encode []byte as bytea.
func jsonbParam(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
