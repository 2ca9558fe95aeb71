package inbound

import (
	"context"

	"github.com/medrec/hpquestion/domain"
	"github.com/medrec/hpquestion/domain/entity"
	vo "github.com/medrec/hpquestion/domain/valueobject"
)

// Add / Edit
type AddEditHPQuestionRequest struct {
	ID                  string                              `json:"HPQuestionId"`
	Category            vo.Field[entity.HPQuestionCategory]  `json:"HPQuestionCategory"`
	GroupID             vo.Field[entity.HPGroupID]           `json:"HPGroupId"`
	LogicalGroup        vo.Field[string]                     `json:"LogicalGroup"`
	QuestionOrder       vo.Field[vo.LooseInt]                `json:"QuestionOrder"`
	Question            vo.Field[string]                     `json:"Question"`
	Options             vo.Field[[]string]                   `json:"Options"`
	SelectionType       vo.Field[entity.SelectionType]       `json:"SelectionType"`
	QuestionTypeID      vo.Field[entity.QuestionTypeID]      `json:"QuestionTypeId"`
	InputTypeID         vo.Field[entity.InputTypeID]         `json:"InputTypeId"`
	InvestigationTypeID vo.Field[entity.InvestigationTypeID] `json:"InvestigationTypeId"`
	ValidityMin         vo.Field[string]                     `json:"ValidityMin"`
	ValidityMax         vo.Field[string]                     `json:"ValidityMax"`
	ResponseUnit        vo.Field[string]                     `json:"ResponseUnit"`
	NormalRangeMin      vo.Field[string]                     `json:"NormalRangeMin"`
	NormalRangeMax      vo.Field[string]                     `json:"NormalRangeMax"`
	WeightageRangeMin   vo.Field[string]                     `json:"WeightageRangeMin"`
	WeightageRangeMax   vo.Field[string]                     `json:"WeightageRangeMax"`
	SosRangeMin         vo.Field[string]                     `json:"SosRangeMin"`
	SosRangeMax         vo.Field[string]                     `json:"SosRangeMax"`
	IsActive            vo.Field[bool]                       `json:"IsActive"`
	CreatedBy           string                               `json:"CreatedBy"`
	UpdatedBy           string                               `json:"UpdatedBy"`
}

// List
type ListHPQuestionsRequest struct {
	Page     vo.LooseInt               `json:"page"`
	Limit    vo.LooseInt               `json:"limit"`
	Search   string                    `json:"search"`
	Category entity.HPQuestionCategory `json:"HPQuestionCategory"`
	IsActive vo.TriState               `json:"IsActive"`
}

type PaginationInfo struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalCount  int `json:"totalCount"`
	Limit       int `json:"limit"`
}

type ListHPQuestionsResponse struct {
	Questions  []*entity.HPQuestion `json:"questions"`
	Pagination PaginationInfo       `json:"pagination"`
}

// Delete / Soft delete
type DeleteHPQuestionRequest struct {
	ID        string `json:"HPQuestionId"`
	DeletedBy string `json:"DeletedBy"`
}

type SoftDeleteHPQuestionRequest struct {
	ID        string `json:"HPQuestionId"`
	UpdatedBy string `json:"UpdatedBy"`
}

// Reorder
type QuestionOrderItem struct {
	ID            string      `json:"HPQuestionId"`
	QuestionOrder vo.LooseInt `json:"QuestionOrder"`
}

type UpdateQuestionOrderRequest struct {
	QuestionOrders []QuestionOrderItem `json:"questionOrders"`
	UpdatedBy      string              `json:"UpdatedBy"`
}

type ReorderStatus string

const (
	ReorderUpdated  ReorderStatus = "updated"
	ReorderNotFound ReorderStatus = "not_found"
	ReorderFailed   ReorderStatus = "failed"
)

type QuestionOrderResult struct {
	ID            string        `json:"HPQuestionId"`
	QuestionOrder int           `json:"QuestionOrder"`
	Status        ReorderStatus `json:"status"`
	Error         string        `json:"error,omitempty"`
}

type UpdateQuestionOrderResponse struct {
	Results []QuestionOrderResult `json:"results"`
}

// Failed reports whether any item hit a storage error.
func (r *UpdateQuestionOrderResponse) Failed() bool {
	for _, res := range r.Results {
		if res.Status == ReorderFailed {
			return true
		}
	}
	return false
}

// HPQuestionUseCase is the HP question catalog use case interface
type HPQuestionUseCase interface {
	AddEditHPQuestion(ctx context.Context, req AddEditHPQuestionRequest) (*entity.HPQuestion, error)
	ListHPQuestions(ctx context.Context, req ListHPQuestionsRequest) (*ListHPQuestionsResponse, error)
	GetHPQuestion(ctx context.Context, id string) (*entity.HPQuestionDetail, error)
	DeleteHPQuestion(ctx context.Context, req DeleteHPQuestionRequest) error
	SoftDeleteHPQuestion(ctx context.Context, req SoftDeleteHPQuestionRequest) (*entity.HPQuestion, error)
	GetHPQuestionsByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error)
	UpdateQuestionOrder(ctx context.Context, req UpdateQuestionOrderRequest) (*UpdateQuestionOrderResponse, error)
	GetHPQuestionAudit(ctx context.Context, id string, limit int) ([]*domain.AuditEntry, error)
}
