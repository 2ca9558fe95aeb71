package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
)

const DefaultAuditSubject = "hpquestion.audit"

// Config configures the audit publisher.
type Config struct {
	URL     string
	Subject string
	// Name shows up in the NATS server connection list.
	Name string
}

type auditPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewAuditPublisher connects to NATS. An empty URL returns a publisher that
// drops every entry.
func NewAuditPublisher(cfg Config) (outbound.AuditPublisher, error) {
	if cfg.URL == "" {
		return noopAuditPublisher{}, nil
	}
	if cfg.Subject == "" {
		cfg.Subject = DefaultAuditSubject
	}
	if cfg.Name == "" {
		cfg.Name = "hpquestion"
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &auditPublisher{conn: conn, subject: cfg.Subject}, nil
}

func (p *auditPublisher) Publish(ctx context.Context, entry *domain.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := newAuditMessage(p.subject, entry)
	if err != nil {
		return err
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish audit entry: %w", err)
	}
	return nil
}

func (p *auditPublisher) Close() error {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return err
	}
	return nil
}

// newAuditMessage encodes entry as JSON on subject.<ACTION>, tagged with
// headers so consumers can filter without decoding.
func newAuditMessage(subject string, entry *domain.AuditEntry) (*nats.Msg, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode audit entry: %w", err)
	}

	msg := nats.NewMsg(subject + "." + string(entry.Action))
	msg.Data = data
	msg.Header.Set("Audit-Id", entry.ID)
	msg.Header.Set("Entity-Type", entry.EntityType)
	msg.Header.Set("Entity-Id", entry.EntityID)
	return msg, nil
}

type noopAuditPublisher struct{}

func (noopAuditPublisher) Publish(ctx context.Context, entry *domain.AuditEntry) error { return nil }
func (noopAuditPublisher) Close() error                                                { return nil }
