package hp_question

import (
	"context"
	"strings"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type GetHPQuestionsByCategoryUseCase struct {
	questionRepo outbound.HPQuestionRepository
	cache        outbound.CategoryCache
	log          outbound.Logger
}

func NewGetHPQuestionsByCategoryUseCase(
	questionRepo outbound.HPQuestionRepository,
	cache outbound.CategoryCache,
	log outbound.Logger,
) *GetHPQuestionsByCategoryUseCase {
	return &GetHPQuestionsByCategoryUseCase{
		questionRepo: questionRepo,
		cache:        cache,
		log:          log,
	}
}

// Execute returns the active questions of a category ordered by QuestionOrder.
// The cache is read-through; its failures fall back to the store.
func (uc *GetHPQuestionsByCategoryUseCase) Execute(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error) {
	category = entity.HPQuestionCategory(strings.TrimSpace(string(category)))
	if category == "" {
		return nil, apperr.NewValidation("HPQuestionCategory is required")
	}
	if err := entity.ValidateCategory(category); err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	// The generation is taken before the store read; a list written back
	// under it is dropped by any Invalidate that lands in between.
	cacheable := false
	var generation int64
	if uc.cache != nil {
		gen, err := uc.cache.Generation(ctx)
		if err != nil {
			uc.warn(ctx, "Category cache generation read failed", category, err)
		} else {
			cacheable = true
			generation = gen
			cached, ok, err := uc.cache.Get(ctx, generation, category)
			if err != nil {
				uc.warn(ctx, "Category cache read failed", category, err)
			} else if ok && len(cached) > 0 {
				return cached, nil
			}
		}
	}

	questions, err := uc.questionRepo.FindByCategory(ctx, category)
	if err != nil {
		return nil, storeError("failed to find HP questions by category", err)
	}
	if len(questions) == 0 {
		return nil, apperr.NewNotFound("No HP questions found for this category")
	}

	if cacheable {
		if err := uc.cache.Set(ctx, generation, category, questions); err != nil {
			uc.warn(ctx, "Category cache write failed", category, err)
		}
	}

	return questions, nil
}

func (uc *GetHPQuestionsByCategoryUseCase) warn(ctx context.Context, msg string, category entity.HPQuestionCategory, err error) {
	if uc.log == nil {
		return
	}
	uc.log.Warn(ctx, msg, map[string]interface{}{
		"category": string(category),
		"error":    err.Error(),
	})
}
