package hp_question

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	vo "github.com/medrec/hpquestion/domain/valueobject"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type UpdateQuestionOrderUseCase struct {
	questionRepo outbound.HPQuestionRepository
	auditWriter  outbound.AuditWriter
	cache        *cacheInvalidator
	concurrency  int
}

func NewUpdateQuestionOrderUseCase(
	questionRepo outbound.HPQuestionRepository,
	auditWriter outbound.AuditWriter,
	cache *cacheInvalidator,
	concurrency int,
) *UpdateQuestionOrderUseCase {
	if concurrency <= 0 {
		concurrency = defaultReorderConcurrency
	}
	return &UpdateQuestionOrderUseCase{
		questionRepo: questionRepo,
		auditWriter:  auditWriter,
		cache:        cache,
		concurrency:  concurrency,
	}
}

// Execute applies every (id, order) pair as an independent partial update.
// The batch is not atomic: items that committed stay committed when others
// fail, and each item's outcome is reported in input order.
func (uc *UpdateQuestionOrderUseCase) Execute(ctx context.Context, req inbound.UpdateQuestionOrderRequest) (*inbound.UpdateQuestionOrderResponse, error) {
	if len(req.QuestionOrders) == 0 {
		return nil, apperr.NewValidation("questionOrders is required")
	}
	for i, item := range req.QuestionOrders {
		if strings.TrimSpace(item.ID) == "" {
			return nil, apperr.NewValidation(fmt.Sprintf("questionOrders[%d].HPQuestionId is required", i))
		}
	}

	results := make([]inbound.QuestionOrderResult, len(req.QuestionOrders))

	var g errgroup.Group
	g.SetLimit(uc.concurrency)
	for i, item := range req.QuestionOrders {
		i, item := i, item
		g.Go(func() error {
			results[i] = uc.apply(ctx, strings.TrimSpace(item.ID), int(item.QuestionOrder), req.UpdatedBy)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Status == inbound.ReorderUpdated {
			uc.cache.invalidate(ctx)
			break
		}
	}

	return &inbound.UpdateQuestionOrderResponse{Results: results}, nil
}

func (uc *UpdateQuestionOrderUseCase) apply(ctx context.Context, id string, order int, actor string) inbound.QuestionOrderResult {
	result := inbound.QuestionOrderResult{ID: id, QuestionOrder: order}

	previous, err := uc.questionRepo.FindByIDLean(ctx, id)
	if err != nil {
		return withOutcome(result, err)
	}

	updated, err := uc.questionRepo.UpdateByID(ctx, id, outbound.HPQuestionPatch{
		QuestionOrder: vo.Set(order),
		UpdatedBy:     vo.Set(actor),
	})
	if err != nil {
		return withOutcome(result, err)
	}

	uc.auditWriter.Record(ctx, domain.EntityTypeHPQuestion, domain.AuditActionUpdate, id, previous, updated, actor)
	result.Status = inbound.ReorderUpdated
	return result
}

func withOutcome(result inbound.QuestionOrderResult, err error) inbound.QuestionOrderResult {
	if errors.Is(err, outbound.ErrHPQuestionNotFound) {
		result.Status = inbound.ReorderNotFound
		return result
	}
	result.Status = inbound.ReorderFailed
	result.Error = err.Error()
	return result
}
