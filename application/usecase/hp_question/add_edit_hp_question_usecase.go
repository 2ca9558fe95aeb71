package hp_question

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	"github.com/medrec/hpquestion/domain/entity"
	vo "github.com/medrec/hpquestion/domain/valueobject"
)

type AddEditHPQuestionUseCase struct {
	questionRepo outbound.HPQuestionRepository
	auditWriter  outbound.AuditWriter
	cache        *cacheInvalidator
}

func NewAddEditHPQuestionUseCase(
	questionRepo outbound.HPQuestionRepository,
	auditWriter outbound.AuditWriter,
	cache *cacheInvalidator,
) *AddEditHPQuestionUseCase {
	return &AddEditHPQuestionUseCase{
		questionRepo: questionRepo,
		auditWriter:  auditWriter,
		cache:        cache,
	}
}

// Execute creates a question when no id is given and merges the supplied
// fields into the existing one otherwise.
func (uc *AddEditHPQuestionUseCase) Execute(ctx context.Context, req inbound.AddEditHPQuestionRequest) (*entity.HPQuestion, error) {
	id := strings.TrimSpace(req.ID)
	if id == "" {
		return uc.create(ctx, req)
	}
	return uc.update(ctx, id, req)
}

func (uc *AddEditHPQuestionUseCase) create(ctx context.Context, req inbound.AddEditHPQuestionRequest) (*entity.HPQuestion, error) {
	actor := req.CreatedBy

	question := entity.NewHPQuestion(uuid.NewString())
	patchFromRequest(req).ApplyTo(question)
	question.CreatedBy = actor
	question.UpdatedBy = actor

	created, err := uc.questionRepo.Create(ctx, question)
	if err != nil {
		return nil, storeError("failed to create HP question", err)
	}

	uc.auditWriter.Record(ctx, domain.EntityTypeHPQuestion, domain.AuditActionCreate, created.ID, nil, created, actor)
	uc.cache.invalidate(ctx)

	return created, nil
}

func (uc *AddEditHPQuestionUseCase) update(ctx context.Context, id string, req inbound.AddEditHPQuestionRequest) (*entity.HPQuestion, error) {
	actor := req.UpdatedBy

	previous, err := uc.questionRepo.FindByIDLean(ctx, id)
	if err != nil {
		return nil, storeError("failed to find HP question", err)
	}

	patch := patchFromRequest(req)
	patch.UpdatedBy = vo.Set(actor)

	updated, err := uc.questionRepo.UpdateByID(ctx, id, patch)
	if err != nil {
		return nil, storeError("failed to update HP question", err)
	}

	uc.auditWriter.Record(ctx, domain.EntityTypeHPQuestion, domain.AuditActionUpdate, id, previous, updated, actor)
	uc.cache.invalidate(ctx)

	return updated, nil
}

// patchFromRequest maps the request onto the store field set. Create and
// update share it so both branches write exactly the same fields.
func patchFromRequest(req inbound.AddEditHPQuestionRequest) outbound.HPQuestionPatch {
	patch := outbound.HPQuestionPatch{
		Category:            req.Category,
		GroupID:             req.GroupID,
		LogicalGroup:        req.LogicalGroup,
		QuestionOrder:       vo.IntField(req.QuestionOrder),
		Question:            req.Question,
		Options:             req.Options,
		SelectionType:       req.SelectionType,
		QuestionTypeID:      req.QuestionTypeID,
		InputTypeID:         req.InputTypeID,
		InvestigationTypeID: req.InvestigationTypeID,
		ValidityMin:         req.ValidityMin,
		ValidityMax:         req.ValidityMax,
		ResponseUnit:        req.ResponseUnit,
		NormalRangeMin:      req.NormalRangeMin,
		NormalRangeMax:      req.NormalRangeMax,
		WeightageRangeMin:   req.WeightageRangeMin,
		WeightageRangeMax:   req.WeightageRangeMax,
		SosRangeMin:         req.SosRangeMin,
		SosRangeMax:         req.SosRangeMax,
	}
	// A null IsActive would silently soft delete; treat it as not sent.
	if req.IsActive.Present && !req.IsActive.Null {
		patch.IsActive = req.IsActive
	}
	return patch
}
