package hp_question

import (
	"context"
	"strings"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type GetHPQuestionUseCase struct {
	questionRepo outbound.HPQuestionRepository
}

func NewGetHPQuestionUseCase(questionRepo outbound.HPQuestionRepository) *GetHPQuestionUseCase {
	return &GetHPQuestionUseCase{
		questionRepo: questionRepo,
	}
}

func (uc *GetHPQuestionUseCase) Execute(ctx context.Context, id string) (*entity.HPQuestionDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.NewValidation("HPQuestionId is required")
	}

	detail, err := uc.questionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to find HP question", err)
	}

	return detail, nil
}
