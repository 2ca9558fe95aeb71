package hp_question

import (
	"context"
	"strings"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type DeleteHPQuestionUseCase struct {
	questionRepo outbound.HPQuestionRepository
	auditWriter  outbound.AuditWriter
	cache        *cacheInvalidator
}

func NewDeleteHPQuestionUseCase(
	questionRepo outbound.HPQuestionRepository,
	auditWriter outbound.AuditWriter,
	cache *cacheInvalidator,
) *DeleteHPQuestionUseCase {
	return &DeleteHPQuestionUseCase{
		questionRepo: questionRepo,
		auditWriter:  auditWriter,
		cache:        cache,
	}
}

// Execute hard deletes a question. Its audit entries are kept.
func (uc *DeleteHPQuestionUseCase) Execute(ctx context.Context, req inbound.DeleteHPQuestionRequest) error {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return apperr.NewValidation("HPQuestionId is required")
	}

	previous, err := uc.questionRepo.FindByIDLean(ctx, id)
	if err != nil {
		return storeError("failed to find HP question", err)
	}

	existed, err := uc.questionRepo.DeleteByID(ctx, id)
	if err != nil {
		return storeError("failed to delete HP question", err)
	}
	if !existed {
		return apperr.NewNotFound("HP question not found")
	}

	uc.auditWriter.Record(ctx, domain.EntityTypeHPQuestion, domain.AuditActionDelete, id, previous, nil, req.DeletedBy)
	uc.cache.invalidate(ctx)

	return nil
}
