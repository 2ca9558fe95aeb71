package domain

import (
	"encoding/json"
	"time"
)

// EntityTypeHPQuestion tags audit entries written for HP questions.
const EntityTypeHPQuestion = "HP_QUESTION"

// DefaultActor is recorded when the caller does not identify itself.
const DefaultActor = "system"

type AuditAction string

const (
	AuditActionCreate     AuditAction = "CREATE"
	AuditActionUpdate     AuditAction = "UPDATE"
	AuditActionDelete     AuditAction = "DELETE"
	AuditActionSoftDelete AuditAction = "SOFT_DELETE"
)

// AuditEntry represents an immutable audit log entry for a mutation.
// Snapshots are kept as raw JSON; a nil snapshot means "none".
type AuditEntry struct {
	ID            string          `json:"AuditId"`
	EntityType    string          `json:"EntityType"`
	Action        AuditAction     `json:"Action"`
	EntityID      string          `json:"EntityId"`
	PreviousValue json.RawMessage `json:"PreviousValue"`
	NewValue      json.RawMessage `json:"NewValue"`
	Actor         string          `json:"Actor"`
	CreatedAt     time.Time       `json:"createdAt"`
}
