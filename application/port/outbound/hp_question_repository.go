package outbound

import (
	"context"
	"errors"

	"github.com/medrec/hpquestion/domain/entity"
	vo "github.com/medrec/hpquestion/domain/valueobject"
)

var (
	ErrHPQuestionNotFound = errors.New("HP question not found")
	ErrInvalidReference   = errors.New("referenced lookup record does not exist")
)

// HPQuestionRepository owns persistence of HP questions.
// Not-found is reported as ErrHPQuestionNotFound; any other error is a storage failure.
type HPQuestionRepository interface {
	Create(ctx context.Context, q *entity.HPQuestion) (*entity.HPQuestion, error)
	// FindByID returns the question with its lookup references expanded.
	FindByID(ctx context.Context, id string) (*entity.HPQuestionDetail, error)
	// FindByIDLean returns the stored row as-is. Used for audit snapshots.
	FindByIDLean(ctx context.Context, id string) (*entity.HPQuestion, error)
	FindMany(ctx context.Context, filter HPQuestionFilter, offset, limit int) ([]*entity.HPQuestion, int, error)
	UpdateByID(ctx context.Context, id string, patch HPQuestionPatch) (*entity.HPQuestion, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	SoftDeleteByID(ctx context.Context, id string) (*entity.HPQuestion, error)
	FindByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error)
}

type HPQuestionFilter struct {
	// Search is matched case-insensitively against Question, LogicalGroup and ResponseUnit.
	Search   string
	Category entity.HPQuestionCategory
	// IsActive nil means no filter.
	IsActive *bool
}

// HPQuestionPatch carries $set semantics: only present fields are written.
type HPQuestionPatch struct {
	Category            vo.Field[entity.HPQuestionCategory]
	GroupID             vo.Field[entity.HPGroupID]
	LogicalGroup        vo.Field[string]
	QuestionOrder       vo.Field[int]
	Question            vo.Field[string]
	Options             vo.Field[[]string]
	SelectionType       vo.Field[entity.SelectionType]
	QuestionTypeID      vo.Field[entity.QuestionTypeID]
	InputTypeID         vo.Field[entity.InputTypeID]
	InvestigationTypeID vo.Field[entity.InvestigationTypeID]
	ValidityMin         vo.Field[string]
	ValidityMax         vo.Field[string]
	ResponseUnit        vo.Field[string]
	NormalRangeMin      vo.Field[string]
	NormalRangeMax      vo.Field[string]
	WeightageRangeMin   vo.Field[string]
	WeightageRangeMax   vo.Field[string]
	SosRangeMin         vo.Field[string]
	SosRangeMax         vo.Field[string]
	IsActive            vo.Field[bool]
	UpdatedBy           vo.Field[string]
}

// ApplyTo merges the patch into q.
func (p HPQuestionPatch) ApplyTo(q *entity.HPQuestion) {
	p.Category.Apply(&q.Category)
	p.GroupID.Apply(&q.GroupID)
	p.LogicalGroup.Apply(&q.LogicalGroup)
	p.QuestionOrder.Apply(&q.QuestionOrder)
	p.Question.Apply(&q.Question)
	if p.Options.Present {
		q.Options = append([]string{}, p.Options.Get()...)
	}
	p.SelectionType.Apply(&q.SelectionType)
	p.QuestionTypeID.Apply(&q.QuestionTypeID)
	p.InputTypeID.Apply(&q.InputTypeID)
	p.InvestigationTypeID.Apply(&q.InvestigationTypeID)
	p.ValidityMin.Apply(&q.ValidityMin)
	p.ValidityMax.Apply(&q.ValidityMax)
	p.ResponseUnit.Apply(&q.ResponseUnit)
	p.NormalRangeMin.Apply(&q.NormalRangeMin)
	p.NormalRangeMax.Apply(&q.NormalRangeMax)
	p.WeightageRangeMin.Apply(&q.WeightageRangeMin)
	p.WeightageRangeMax.Apply(&q.WeightageRangeMax)
	p.SosRangeMin.Apply(&q.SosRangeMin)
	p.SosRangeMax.Apply(&q.SosRangeMax)
	p.IsActive.Apply(&q.IsActive)
	p.UpdatedBy.Apply(&q.UpdatedBy)
}

// Validate checks enumerated values carried by the patch.
func (p HPQuestionPatch) Validate() error {
	if p.Category.Present {
		if err := entity.ValidateCategory(p.Category.Get()); err != nil {
			return err
		}
	}
	if p.SelectionType.Present {
		if err := entity.ValidateSelectionType(p.SelectionType.Get()); err != nil {
			return err
		}
	}
	return nil
}
