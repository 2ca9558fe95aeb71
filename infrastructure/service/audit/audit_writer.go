package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
)

// DefaultRecordTimeout bounds the store write and publish of one entry.
const DefaultRecordTimeout = 5 * time.Second

// Writer persists audit entries and then publishes them. It runs after the
// mutation has committed, so every failure is logged and swallowed.
type Writer struct {
	repo      outbound.AuditRepository
	publisher outbound.AuditPublisher
	logger    outbound.Logger
	now       func() time.Time
	timeout   time.Duration
}

// NewWriter builds an audit writer. publisher may be nil.
func NewWriter(repo outbound.AuditRepository, publisher outbound.AuditPublisher, logger outbound.Logger) *Writer {
	return &Writer{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		timeout:   DefaultRecordTimeout,
	}
}

var _ outbound.AuditWriter = (*Writer)(nil)

// Record writes the entry even when ctx is already cancelled. The mutation it
// describes has committed by then, so only ctx values are kept and the write
// gets its own deadline.
func (w *Writer) Record(ctx context.Context, entityType string, action domain.AuditAction, entityID string, previous, next interface{}, actor string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()

	if actor == "" {
		actor = domain.DefaultActor
	}

	fields := map[string]interface{}{
		"entity_type": entityType,
		"action":      string(action),
		"entity_id":   entityID,
		"actor":       actor,
	}

	prevJSON, err := snapshot(previous)
	if err != nil {
		w.logger.Error(ctx, "Failed to encode previous audit snapshot", err, fields)
	}
	nextJSON, err := snapshot(next)
	if err != nil {
		w.logger.Error(ctx, "Failed to encode new audit snapshot", err, fields)
	}

	entry := &domain.AuditEntry{
		ID:            uuid.NewString(),
		EntityType:    entityType,
		Action:        action,
		EntityID:      entityID,
		PreviousValue: prevJSON,
		NewValue:      nextJSON,
		Actor:         actor,
		CreatedAt:     w.now().UTC(),
	}

	if err := w.repo.Create(ctx, entry); err != nil {
		w.logger.Error(ctx, "Failed to write audit entry", err, fields)
		return
	}

	if w.publisher != nil {
		if err := w.publisher.Publish(ctx, entry); err != nil {
			w.logger.Warn(ctx, "Failed to publish audit entry", mergeFields(fields, map[string]interface{}{
				"audit_id": entry.ID,
				"error":    err.Error(),
			}))
		}
	}

	w.logger.Debug(ctx, "Audit entry recorded", mergeFields(fields, map[string]interface{}{
		"audit_id": entry.ID,
	}))
}

// snapshot encodes v; nil (and typed nil pointers) become a nil snapshot.
func snapshot(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return nil, nil
	}
	return json.RawMessage(data), nil
}

func mergeFields(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
