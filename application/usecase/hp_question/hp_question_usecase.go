package hp_question

import (
	"context"
	"errors"
	"fmt"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	"github.com/medrec/hpquestion/domain/entity"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

const defaultReorderConcurrency = 8

type HPQuestionUseCaseImpl struct {
	addEditUseCase     *AddEditHPQuestionUseCase
	listUseCase        *ListHPQuestionsUseCase
	getUseCase         *GetHPQuestionUseCase
	deleteUseCase      *DeleteHPQuestionUseCase
	softDeleteUseCase  *SoftDeleteHPQuestionUseCase
	byCategoryUseCase  *GetHPQuestionsByCategoryUseCase
	updateOrderUseCase *UpdateQuestionOrderUseCase
	auditTrailUseCase  *GetHPQuestionAuditUseCase
}

// NewHPQuestionUseCase wires every HP question operation. cache may be nil.
func NewHPQuestionUseCase(
	questionRepo outbound.HPQuestionRepository,
	auditRepo outbound.AuditRepository,
	auditWriter outbound.AuditWriter,
	cache outbound.CategoryCache,
	log outbound.Logger,
	reorderConcurrency int,
) inbound.HPQuestionUseCase {
	inv := &cacheInvalidator{cache: cache, log: log}
	return &HPQuestionUseCaseImpl{
		addEditUseCase:     NewAddEditHPQuestionUseCase(questionRepo, auditWriter, inv),
		listUseCase:        NewListHPQuestionsUseCase(questionRepo),
		getUseCase:         NewGetHPQuestionUseCase(questionRepo),
		deleteUseCase:      NewDeleteHPQuestionUseCase(questionRepo, auditWriter, inv),
		softDeleteUseCase:  NewSoftDeleteHPQuestionUseCase(questionRepo, auditWriter, inv),
		byCategoryUseCase:  NewGetHPQuestionsByCategoryUseCase(questionRepo, cache, log),
		updateOrderUseCase: NewUpdateQuestionOrderUseCase(questionRepo, auditWriter, inv, reorderConcurrency),
		auditTrailUseCase:  NewGetHPQuestionAuditUseCase(auditRepo),
	}
}

func (uc *HPQuestionUseCaseImpl) AddEditHPQuestion(ctx context.Context, req inbound.AddEditHPQuestionRequest) (*entity.HPQuestion, error) {
	return uc.addEditUseCase.Execute(ctx, req)
}

func (uc *HPQuestionUseCaseImpl) ListHPQuestions(ctx context.Context, req inbound.ListHPQuestionsRequest) (*inbound.ListHPQuestionsResponse, error) {
	return uc.listUseCase.Execute(ctx, req)
}

func (uc *HPQuestionUseCaseImpl) GetHPQuestion(ctx context.Context, id string) (*entity.HPQuestionDetail, error) {
	return uc.getUseCase.Execute(ctx, id)
}

func (uc *HPQuestionUseCaseImpl) DeleteHPQuestion(ctx context.Context, req inbound.DeleteHPQuestionRequest) error {
	return uc.deleteUseCase.Execute(ctx, req)
}

func (uc *HPQuestionUseCaseImpl) SoftDeleteHPQuestion(ctx context.Context, req inbound.SoftDeleteHPQuestionRequest) (*entity.HPQuestion, error) {
	return uc.softDeleteUseCase.Execute(ctx, req)
}

func (uc *HPQuestionUseCaseImpl) GetHPQuestionsByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error) {
	return uc.byCategoryUseCase.Execute(ctx, category)
}

func (uc *HPQuestionUseCaseImpl) UpdateQuestionOrder(ctx context.Context, req inbound.UpdateQuestionOrderRequest) (*inbound.UpdateQuestionOrderResponse, error) {
	return uc.updateOrderUseCase.Execute(ctx, req)
}

func (uc *HPQuestionUseCaseImpl) GetHPQuestionAudit(ctx context.Context, id string, limit int) ([]*domain.AuditEntry, error) {
	return uc.auditTrailUseCase.Execute(ctx, id, limit)
}

// cacheInvalidator drops the category cache after a committed mutation.
// Cache failures are logged only. The request ctx may be gone by then, so
// only its values are kept.
type cacheInvalidator struct {
	cache outbound.CategoryCache
	log   outbound.Logger
}

func (i *cacheInvalidator) invalidate(ctx context.Context) {
	if i == nil || i.cache == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if err := i.cache.Invalidate(ctx); err != nil && i.log != nil {
		i.log.Warn(ctx, "Failed to invalidate category cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// storeError turns repository sentinels into client errors and wraps anything
// else as a storage failure.
func storeError(msg string, err error) error {
	switch {
	case errors.Is(err, outbound.ErrHPQuestionNotFound):
		return apperr.NewNotFound("HP question not found").WithErr(err)
	case errors.Is(err, entity.ErrInvalidCategory),
		errors.Is(err, entity.ErrInvalidSelectionType),
		errors.Is(err, outbound.ErrInvalidReference):
		return apperr.NewValidation(err.Error()).WithErr(err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
