package hp_question

import (
	"context"
	"strings"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	"github.com/medrec/hpquestion/domain/entity"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type SoftDeleteHPQuestionUseCase struct {
	questionRepo outbound.HPQuestionRepository
	auditWriter  outbound.AuditWriter
	cache        *cacheInvalidator
}

func NewSoftDeleteHPQuestionUseCase(
	questionRepo outbound.HPQuestionRepository,
	auditWriter outbound.AuditWriter,
	cache *cacheInvalidator,
) *SoftDeleteHPQuestionUseCase {
	return &SoftDeleteHPQuestionUseCase{
		questionRepo: questionRepo,
		auditWriter:  auditWriter,
		cache:        cache,
	}
}

// Execute marks a question inactive. Only IsActive and UpdatedAt change; the
// acting user is recorded on the audit entry, not on the row.
func (uc *SoftDeleteHPQuestionUseCase) Execute(ctx context.Context, req inbound.SoftDeleteHPQuestionRequest) (*entity.HPQuestion, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return nil, apperr.NewValidation("HPQuestionId is required")
	}

	previous, err := uc.questionRepo.FindByIDLean(ctx, id)
	if err != nil {
		return nil, storeError("failed to find HP question", err)
	}

	updated, err := uc.questionRepo.SoftDeleteByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to soft delete HP question", err)
	}

	uc.auditWriter.Record(ctx, domain.EntityTypeHPQuestion, domain.AuditActionSoftDelete, id, previous, updated, req.UpdatedBy)
	uc.cache.invalidate(ctx)

	return updated, nil
}
