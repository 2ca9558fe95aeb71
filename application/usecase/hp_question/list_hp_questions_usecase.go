package hp_question

import (
	"context"
	"strings"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

type ListHPQuestionsUseCase struct {
	questionRepo outbound.HPQuestionRepository
}

func NewListHPQuestionsUseCase(questionRepo outbound.HPQuestionRepository) *ListHPQuestionsUseCase {
	return &ListHPQuestionsUseCase{
		questionRepo: questionRepo,
	}
}

func (uc *ListHPQuestionsUseCase) Execute(ctx context.Context, req inbound.ListHPQuestionsRequest) (*inbound.ListHPQuestionsResponse, error) {
	page := int(req.Page)
	if page <= 0 {
		page = defaultPage
	}
	limit := int(req.Limit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	if err := entity.ValidateCategory(req.Category); err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	filter := outbound.HPQuestionFilter{
		Search:   strings.TrimSpace(req.Search),
		Category: req.Category,
		IsActive: req.IsActive.Ptr(),
	}

	offset := (page - 1) * limit
	questions, total, err := uc.questionRepo.FindMany(ctx, filter, offset, limit)
	if err != nil {
		return nil, storeError("failed to list HP questions", err)
	}
	if questions == nil {
		questions = []*entity.HPQuestion{}
	}

	return &inbound.ListHPQuestionsResponse{
		Questions: questions,
		Pagination: inbound.PaginationInfo{
			CurrentPage: page,
			TotalPages:  totalPages(total, limit),
			TotalCount:  total,
			Limit:       limit,
		},
	}, nil
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
