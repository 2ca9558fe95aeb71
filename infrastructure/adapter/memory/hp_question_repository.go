package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
)

// HPQuestionRepository keeps questions in process memory.
//
// Nothing is persisted; it backs STORE_DRIVER=memory and the tests.
type HPQuestionRepository struct {
	mutex     sync.RWMutex
	questions map[string]*record
	seq       int64
	now       func() time.Time

	groups             map[entity.HPGroupID]string
	questionTypes      map[entity.QuestionTypeID]string
	inputTypes         map[entity.InputTypeID]string
	investigationTypes map[entity.InvestigationTypeID]string
}

type record struct {
	question *entity.HPQuestion
	// insertion sequence, breaks CreatedAt ties
	seq int64
}

func NewHPQuestionRepository() *HPQuestionRepository {
	return &HPQuestionRepository{
		questions:          make(map[string]*record),
		now:                time.Now,
		groups:             make(map[entity.HPGroupID]string),
		questionTypes:      make(map[entity.QuestionTypeID]string),
		inputTypes:         make(map[entity.InputTypeID]string),
		investigationTypes: make(map[entity.InvestigationTypeID]string),
	}
}

var _ outbound.HPQuestionRepository = (*HPQuestionRepository)(nil)

// Lookup registration, the in-memory counterpart of the lookup tables.

func (r *HPQuestionRepository) AddGroup(id entity.HPGroupID, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.groups[id] = name
}

func (r *HPQuestionRepository) AddQuestionType(id entity.QuestionTypeID, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.questionTypes[id] = name
}

func (r *HPQuestionRepository) AddInputType(id entity.InputTypeID, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.inputTypes[id] = name
}

func (r *HPQuestionRepository) AddInvestigationType(id entity.InvestigationTypeID, name string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.investigationTypes[id] = name
}

func (r *HPQuestionRepository) Create(ctx context.Context, q *entity.HPQuestion) (*entity.HPQuestion, error) {
	if q == nil || q.ID == "" {
		return nil, fmt.Errorf("HP question with an id is required")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.checkReferencesLocked(q); err != nil {
		return nil, err
	}
	if _, exists := r.questions[q.ID]; exists {
		return nil, fmt.Errorf("HP question %s already exists", q.ID)
	}

	stored := q.Clone()
	if stored.Options == nil {
		stored.Options = []string{}
	}
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.seq++
	r.questions[stored.ID] = &record{question: stored, seq: r.seq}
	return stored.Clone(), nil
}

func (r *HPQuestionRepository) FindByID(ctx context.Context, id string) (*entity.HPQuestionDetail, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rec, ok := r.questions[id]
	if !ok {
		return nil, outbound.ErrHPQuestionNotFound
	}
	return r.expandLocked(rec.question), nil
}

func (r *HPQuestionRepository) FindByIDLean(ctx context.Context, id string) (*entity.HPQuestion, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	rec, ok := r.questions[id]
	if !ok {
		return nil, outbound.ErrHPQuestionNotFound
	}
	return rec.question.Clone(), nil
}

func (r *HPQuestionRepository) FindMany(ctx context.Context, filter outbound.HPQuestionFilter, offset, limit int) ([]*entity.HPQuestion, int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	matched := r.sortedLocked(func(q *entity.HPQuestion) bool {
		return matches(q, filter)
	})
	total := len(matched)

	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []*entity.HPQuestion{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func (r *HPQuestionRepository) UpdateByID(ctx context.Context, id string, patch outbound.HPQuestionPatch) (*entity.HPQuestion, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	rec, ok := r.questions[id]
	if !ok {
		return nil, outbound.ErrHPQuestionNotFound
	}

	updated := rec.question.Clone()
	patch.ApplyTo(updated)
	if err := r.checkReferencesLocked(updated); err != nil {
		return nil, err
	}
	updated.UpdatedAt = r.now().UTC()

	rec.question = updated
	return updated.Clone(), nil
}

func (r *HPQuestionRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.questions[id]; !ok {
		return false, nil
	}
	delete(r.questions, id)
	return true, nil
}

func (r *HPQuestionRepository) SoftDeleteByID(ctx context.Context, id string) (*entity.HPQuestion, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	rec, ok := r.questions[id]
	if !ok {
		return nil, outbound.ErrHPQuestionNotFound
	}

	updated := rec.question.Clone()
	updated.IsActive = false
	updated.UpdatedAt = r.now().UTC()

	rec.question = updated
	return updated.Clone(), nil
}

func (r *HPQuestionRepository) FindByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.sortedLocked(func(q *entity.HPQuestion) bool {
		return q.IsActive && q.Category == category
	}), nil
}

// Count returns the number of stored questions (test helper).
func (r *HPQuestionRepository) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.questions)
}

// sortedLocked returns clones of matching questions ordered by QuestionOrder
// ascending, then newest first.
func (r *HPQuestionRepository) sortedLocked(keep func(*entity.HPQuestion) bool) []*entity.HPQuestion {
	recs := make([]*record, 0, len(r.questions))
	for _, rec := range r.questions {
		if keep(rec.question) {
			recs = append(recs, rec)
		}
	}

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.question.QuestionOrder != b.question.QuestionOrder {
			return a.question.QuestionOrder < b.question.QuestionOrder
		}
		if !a.question.CreatedAt.Equal(b.question.CreatedAt) {
			return a.question.CreatedAt.After(b.question.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*entity.HPQuestion, len(recs))
	for i, rec := range recs {
		out[i] = rec.question.Clone()
	}
	return out
}

func (r *HPQuestionRepository) checkReferencesLocked(q *entity.HPQuestion) error {
	if q.GroupID != "" {
		if _, ok := r.groups[q.GroupID]; !ok {
			return fmt.Errorf("HPGroupId %s: %w", q.GroupID, outbound.ErrInvalidReference)
		}
	}
	if q.QuestionTypeID != "" {
		if _, ok := r.questionTypes[q.QuestionTypeID]; !ok {
			return fmt.Errorf("QuestionTypeId %s: %w", q.QuestionTypeID, outbound.ErrInvalidReference)
		}
	}
	if q.InputTypeID != "" {
		if _, ok := r.inputTypes[q.InputTypeID]; !ok {
			return fmt.Errorf("InputTypeId %s: %w", q.InputTypeID, outbound.ErrInvalidReference)
		}
	}
	if q.InvestigationTypeID != "" {
		if _, ok := r.investigationTypes[q.InvestigationTypeID]; !ok {
			return fmt.Errorf("InvestigationTypeId %s: %w", q.InvestigationTypeID, outbound.ErrInvalidReference)
		}
	}
	return nil
}

func (r *HPQuestionRepository) expandLocked(q *entity.HPQuestion) *entity.HPQuestionDetail {
	d := entity.NewHPQuestionDetail(q)
	if name, ok := r.groups[q.GroupID]; ok && q.GroupID != "" {
		d.Group = &entity.HPGroupRef{ID: q.GroupID, Name: name}
	}
	if name, ok := r.questionTypes[q.QuestionTypeID]; ok && q.QuestionTypeID != "" {
		d.QuestionType = &entity.QuestionTypeRef{ID: q.QuestionTypeID, Name: name}
	}
	if name, ok := r.inputTypes[q.InputTypeID]; ok && q.InputTypeID != "" {
		d.InputType = &entity.InputTypeRef{ID: q.InputTypeID, Name: name}
	}
	if name, ok := r.investigationTypes[q.InvestigationTypeID]; ok && q.InvestigationTypeID != "" {
		d.InvestigationType = &entity.InvestigationTypeRef{ID: q.InvestigationTypeID, Name: name}
	}
	return d
}

func matches(q *entity.HPQuestion, filter outbound.HPQuestionFilter) bool {
	if filter.Category != "" && q.Category != filter.Category {
		return false
	}
	if filter.IsActive != nil && q.IsActive != *filter.IsActive {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(q.Question), needle) &&
			!strings.Contains(strings.ToLower(q.LogicalGroup), needle) &&
			!strings.Contains(strings.ToLower(q.ResponseUnit), needle) {
			return false
		}
	}
	return true
}
