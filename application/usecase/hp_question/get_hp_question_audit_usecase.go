package hp_question

import (
	"context"
	"strings"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

type GetHPQuestionAuditUseCase struct {
	auditRepo outbound.AuditRepository
}

func NewGetHPQuestionAuditUseCase(auditRepo outbound.AuditRepository) *GetHPQuestionAuditUseCase {
	return &GetHPQuestionAuditUseCase{
		auditRepo: auditRepo,
	}
}

// Execute lists the audit trail of a question, newest first. It works for
// hard deleted questions too.
func (uc *GetHPQuestionAuditUseCase) Execute(ctx context.Context, id string, limit int) ([]*domain.AuditEntry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.NewValidation("HPQuestionId is required")
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	entries, err := uc.auditRepo.ListByEntity(ctx, domain.EntityTypeHPQuestion, id, limit)
	if err != nil {
		return nil, storeError("failed to list audit entries", err)
	}
	if entries == nil {
		entries = []*domain.AuditEntry{}
	}
	return entries, nil
}
