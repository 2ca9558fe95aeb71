package hp_question

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain"
	"github.com/medrec/hpquestion/domain/entity"
	vo "github.com/medrec/hpquestion/domain/valueobject"
	"github.com/medrec/hpquestion/infrastructure/adapter/memory"
	"github.com/medrec/hpquestion/infrastructure/service/audit"
	"github.com/medrec/hpquestion/infrastructure/service/logger"
	apperr "github.com/medrec/hpquestion/pkg/error"
)

type fixture struct {
	uc        inbound.HPQuestionUseCase
	repo      *memory.HPQuestionRepository
	auditRepo *memory.AuditRepository
}

func newFixture(t *testing.T, cache outbound.CategoryCache) *fixture {
	t.Helper()
	repo := newSeededRepo()
	return newFixtureWithStore(t, repo, repo, cache)
}

// newFixtureWithStore lets a test wrap the question store while still
// inspecting the underlying memory repository.
func newFixtureWithStore(t *testing.T, store outbound.HPQuestionRepository, repo *memory.HPQuestionRepository, cache outbound.CategoryCache) *fixture {
	t.Helper()
	log := logger.NewNopLogger()

	auditRepo := memory.NewAuditRepository()
	writer := audit.NewWriter(auditRepo, nil, log)

	return &fixture{
		uc:        NewHPQuestionUseCase(store, auditRepo, writer, cache, log, 4),
		repo:      repo,
		auditRepo: auditRepo,
	}
}

func newSeededRepo() *memory.HPQuestionRepository {
	repo := memory.NewHPQuestionRepository()
	repo.AddGroup("grp-1", "General Health")
	repo.AddQuestionType("qt-1", "Objective")
	repo.AddInputType("it-1", "Radio")
	repo.AddInvestigationType("inv-1", "Blood Test")
	return repo
}

func (f *fixture) create(t *testing.T, req inbound.AddEditHPQuestionRequest) *entity.HPQuestion {
	t.Helper()
	if req.CreatedBy == "" {
		req.CreatedBy = "tester"
	}
	q, err := f.uc.AddEditHPQuestion(context.Background(), req)
	require.NoError(t, err)
	return q
}

func surveyQuestion(text string, order int) inbound.AddEditHPQuestionRequest {
	return inbound.AddEditHPQuestionRequest{
		Category:      vo.Set(entity.CategorySurvey),
		Question:      vo.Set(text),
		QuestionOrder: vo.Set(vo.LooseInt(order)),
	}
}

func requireAppStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, status, apperr.MapError(err).Status)
}

func TestAddEdit_CreateRecordsAuditWithoutPrevious(t *testing.T) {
	f := newFixture(t, nil)

	q := f.create(t, inbound.AddEditHPQuestionRequest{
		Category:      vo.Set(entity.CategorySurvey),
		GroupID:       vo.Set(entity.HPGroupID("grp-1")),
		Question:      vo.Set("Any fever?"),
		Options:       vo.Set([]string{"Yes", "No"}),
		SelectionType: vo.Set(entity.SelectionSingle),
		CreatedBy:     "nurse.ann",
	})

	assert.NotEmpty(t, q.ID)
	assert.True(t, q.IsActive)
	assert.Equal(t, "nurse.ann", q.CreatedBy)
	assert.Equal(t, []string{"Yes", "No"}, q.Options)

	entries := f.auditRepo.All()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.AuditActionCreate, entries[0].Action)
	assert.Equal(t, q.ID, entries[0].EntityID)
	assert.Equal(t, "nurse.ann", entries[0].Actor)
	assert.Nil(t, entries[0].PreviousValue)

	var snapshot entity.HPQuestion
	require.NoError(t, json.Unmarshal(entries[0].NewValue, &snapshot))
	assert.Equal(t, "Any fever?", snapshot.Question)
}

func TestAddEdit_UpdateMergesWithoutDuplicating(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q := f.create(t, inbound.AddEditHPQuestionRequest{
		Category:     vo.Set(entity.CategorySurvey),
		Question:     vo.Set("Any fever?"),
		ResponseUnit: vo.Set("days"),
	})

	updated, err := f.uc.AddEditHPQuestion(ctx, inbound.AddEditHPQuestionRequest{
		ID:           q.ID,
		Question:     vo.Set("Any fever this week?"),
		ResponseUnit: vo.Null[string](),
		UpdatedBy:    "dr.bo",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, f.repo.Count())
	assert.Equal(t, q.ID, updated.ID)
	assert.Equal(t, "Any fever this week?", updated.Question)
	assert.Equal(t, entity.CategorySurvey, updated.Category)
	assert.Equal(t, "", updated.ResponseUnit)
	assert.Equal(t, "dr.bo", updated.UpdatedBy)
	assert.Equal(t, "tester", updated.CreatedBy)

	entries := f.auditRepo.All()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditActionUpdate, entries[1].Action)
	assert.Equal(t, "dr.bo", entries[1].Actor)

	var previous entity.HPQuestion
	require.NoError(t, json.Unmarshal(entries[1].PreviousValue, &previous))
	assert.Equal(t, "Any fever?", previous.Question)
}

func TestAddEdit_NullIsActiveIsIgnored(t *testing.T) {
	f := newFixture(t, nil)
	q := f.create(t, surveyQuestion("Q", 1))

	updated, err := f.uc.AddEditHPQuestion(context.Background(), inbound.AddEditHPQuestionRequest{
		ID:       q.ID,
		IsActive: vo.Null[bool](),
	})
	require.NoError(t, err)
	assert.True(t, updated.IsActive)
}

func TestAddEdit_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.AddEditHPQuestion(ctx, inbound.AddEditHPQuestionRequest{ID: "missing", Question: vo.Set("x")})
	requireAppStatus(t, err, http.StatusNotFound)

	_, err = f.uc.AddEditHPQuestion(ctx, inbound.AddEditHPQuestionRequest{Category: vo.Set(entity.HPQuestionCategory("Quiz"))})
	requireAppStatus(t, err, http.StatusBadRequest)

	_, err = f.uc.AddEditHPQuestion(ctx, inbound.AddEditHPQuestionRequest{GroupID: vo.Set(entity.HPGroupID("grp-404"))})
	requireAppStatus(t, err, http.StatusBadRequest)

	assert.Empty(t, f.auditRepo.All())
}

func TestSoftDelete_OnlyFlipsIsActive(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q := f.create(t, inbound.AddEditHPQuestionRequest{
		Category:            vo.Set(entity.CategoryInvestigation),
		GroupID:             vo.Set(entity.HPGroupID("grp-1")),
		LogicalGroup:        vo.Set("vitals"),
		QuestionOrder:       vo.Set[vo.LooseInt](4),
		Question:            vo.Set("Blood sugar"),
		Options:             vo.Set([]string{"a", "b"}),
		SelectionType:       vo.Set(entity.SelectionMultiple),
		QuestionTypeID:      vo.Set(entity.QuestionTypeID("qt-1")),
		InputTypeID:         vo.Set(entity.InputTypeID("it-1")),
		InvestigationTypeID: vo.Set(entity.InvestigationTypeID("inv-1")),
		ValidityMin:         vo.Set("0"),
		ValidityMax:         vo.Set("600"),
		ResponseUnit:        vo.Set("mg/dL"),
		NormalRangeMin:      vo.Set("70"),
		NormalRangeMax:      vo.Set("140"),
		WeightageRangeMin:   vo.Set("1"),
		WeightageRangeMax:   vo.Set("5"),
		SosRangeMin:         vo.Set("40"),
		SosRangeMax:         vo.Set("400"),
		CreatedBy:           "nurse.ann",
	})

	before, err := f.repo.FindByIDLean(ctx, q.ID)
	require.NoError(t, err)

	deleted, err := f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: q.ID, UpdatedBy: "admin"})
	require.NoError(t, err)
	assert.False(t, deleted.IsActive)

	after, err := f.repo.FindByIDLean(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, after.IsActive)
	assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))

	// Everything but IsActive and the write timestamp is unchanged.
	want := before.Clone()
	want.IsActive = after.IsActive
	want.UpdatedAt = after.UpdatedAt
	assert.Equal(t, want, after)
	assert.Equal(t, after, deleted)
	assert.Equal(t, "nurse.ann", after.UpdatedBy)
	assert.Equal(t, 1, f.repo.Count())

	entries := f.auditRepo.All()
	require.Len(t, entries, 2)
	assert.Equal(t, domain.AuditActionSoftDelete, entries[1].Action)
	assert.Equal(t, "admin", entries[1].Actor)

	var previous entity.HPQuestion
	require.NoError(t, json.Unmarshal(entries[1].PreviousValue, &previous))
	assert.True(t, previous.IsActive)
	assert.Equal(t, before.UpdatedBy, previous.UpdatedBy)

	_, err = f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: "missing"})
	requireAppStatus(t, err, http.StatusNotFound)
	_, err = f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{})
	requireAppStatus(t, err, http.StatusBadRequest)
}

func TestDelete_AuditSurvivesHardDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	q := f.create(t, surveyQuestion("Q", 1))
	require.NoError(t, f.uc.DeleteHPQuestion(ctx, inbound.DeleteHPQuestionRequest{ID: q.ID, DeletedBy: "admin"}))

	assert.Equal(t, 0, f.repo.Count())
	_, err := f.uc.GetHPQuestion(ctx, q.ID)
	requireAppStatus(t, err, http.StatusNotFound)

	trail, err := f.uc.GetHPQuestionAudit(ctx, q.ID, 0)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, domain.AuditActionDelete, trail[0].Action)
	assert.Equal(t, "admin", trail[0].Actor)
	assert.NotNil(t, trail[0].PreviousValue)
	assert.Nil(t, trail[0].NewValue)
	assert.Equal(t, domain.AuditActionCreate, trail[1].Action)
}

func TestDelete_UnknownIDIsNotFoundWithoutAudit(t *testing.T) {
	f := newFixture(t, nil)

	err := f.uc.DeleteHPQuestion(context.Background(), inbound.DeleteHPQuestionRequest{ID: "nope"})
	requireAppStatus(t, err, http.StatusNotFound)
	assert.Empty(t, f.auditRepo.All())
}

func TestGetHPQuestion_ExpandsReferences(t *testing.T) {
	f := newFixture(t, nil)

	q := f.create(t, inbound.AddEditHPQuestionRequest{
		GroupID:        vo.Set(entity.HPGroupID("grp-1")),
		QuestionTypeID: vo.Set(entity.QuestionTypeID("qt-1")),
		InputTypeID:    vo.Set(entity.InputTypeID("it-1")),
	})

	detail, err := f.uc.GetHPQuestion(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, detail.Group)
	assert.Equal(t, "General Health", detail.Group.Name)
	require.NotNil(t, detail.QuestionType)
	assert.Equal(t, "Objective", detail.QuestionType.Name)
	require.NotNil(t, detail.InputType)
	assert.Nil(t, detail.InvestigationType)

	_, err = f.uc.GetHPQuestion(context.Background(), " ")
	requireAppStatus(t, err, http.StatusBadRequest)
}

func TestListHPQuestions_Pagination(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		f.create(t, surveyQuestion("Q", i))
	}

	tests := []struct {
		name       string
		page       vo.LooseInt
		limit      vo.LooseInt
		wantLen    int
		wantPages  int
		wantLimit  int
		wantPageNo int
	}{
		{"defaults", 0, 0, 10, 3, 10, 1},
		{"last partial page", 3, 10, 5, 3, 10, 3},
		{"beyond range is empty", 9, 10, 0, 3, 10, 9},
		{"limit capped", 1, 1000, 25, 1, 100, 1},
		{"exact division", 1, 5, 5, 5, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.uc.ListHPQuestions(ctx, inbound.ListHPQuestionsRequest{Page: tt.page, Limit: tt.limit})
			require.NoError(t, err)
			assert.Len(t, res.Questions, tt.wantLen)
			assert.Equal(t, 25, res.Pagination.TotalCount)
			assert.Equal(t, tt.wantPages, res.Pagination.TotalPages)
			assert.Equal(t, tt.wantLimit, res.Pagination.Limit)
			assert.Equal(t, tt.wantPageNo, res.Pagination.CurrentPage)
		})
	}
}

func TestListHPQuestions_Filters(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.create(t, surveyQuestion("Do you have a FEVER?", 1))
	f.create(t, inbound.AddEditHPQuestionRequest{
		Category:     vo.Set(entity.CategoryInvestigation),
		Question:     vo.Set("Temperature"),
		LogicalGroup: vo.Set("Fever panel"),
	})
	f.create(t, inbound.AddEditHPQuestionRequest{
		Category:     vo.Set(entity.CategoryInvestigation),
		Question:     vo.Set("Body heat"),
		ResponseUnit: vo.Set("fever-index"),
	})
	inactive := f.create(t, surveyQuestion("Cough?", 2))
	_, err := f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: inactive.ID})
	require.NoError(t, err)

	res, err := f.uc.ListHPQuestions(ctx, inbound.ListHPQuestionsRequest{Search: "fever"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pagination.TotalCount)

	res, err = f.uc.ListHPQuestions(ctx, inbound.ListHPQuestionsRequest{Category: entity.CategorySurvey})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Pagination.TotalCount)

	res, err = f.uc.ListHPQuestions(ctx, inbound.ListHPQuestionsRequest{IsActive: vo.False()})
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
	assert.Equal(t, inactive.ID, res.Questions[0].ID)

	res, err = f.uc.ListHPQuestions(ctx, inbound.ListHPQuestionsRequest{IsActive: vo.True(), Category: entity.CategorySurvey})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pagination.TotalCount)

	_, err = f.uc.ListHPQuestions(ctx, inbound.ListHPQuestionsRequest{Category: "Quiz"})
	requireAppStatus(t, err, http.StatusBadRequest)
}

func TestGetHPQuestionsByCategory_ActiveOnlyOrdered(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	second := f.create(t, surveyQuestion("second", 2))
	first := f.create(t, surveyQuestion("first", 1))
	hidden := f.create(t, surveyQuestion("hidden", 0))
	f.create(t, inbound.AddEditHPQuestionRequest{Category: vo.Set(entity.CategoryInvestigation), QuestionOrder: vo.Set[vo.LooseInt](0)})

	_, err := f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: hidden.ID})
	require.NoError(t, err)

	questions, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, first.ID, questions[0].ID)
	assert.Equal(t, second.ID, questions[1].ID)
	for _, q := range questions {
		assert.True(t, q.IsActive)
	}
}

func TestGetHPQuestionsByCategory_Errors(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
	requireAppStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "No HP questions found for this category", apperr.MapError(err).Message)

	_, err = f.uc.GetHPQuestionsByCategory(ctx, "Quiz")
	requireAppStatus(t, err, http.StatusBadRequest)

	_, err = f.uc.GetHPQuestionsByCategory(ctx, "")
	requireAppStatus(t, err, http.StatusBadRequest)
}

func TestUpdateQuestionOrder_SwapsOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a := f.create(t, surveyQuestion("A", 1))
	b := f.create(t, surveyQuestion("B", 2))

	res, err := f.uc.UpdateQuestionOrder(ctx, inbound.UpdateQuestionOrderRequest{
		QuestionOrders: []inbound.QuestionOrderItem{
			{ID: a.ID, QuestionOrder: 2},
			{ID: b.ID, QuestionOrder: 1},
			{ID: "ghost", QuestionOrder: 3},
		},
		UpdatedBy: "admin",
	})
	require.NoError(t, err)
	assert.False(t, res.Failed())

	require.Len(t, res.Results, 3)
	assert.Equal(t, inbound.ReorderUpdated, res.Results[0].Status)
	assert.Equal(t, inbound.ReorderUpdated, res.Results[1].Status)
	assert.Equal(t, inbound.ReorderNotFound, res.Results[2].Status)
	assert.Equal(t, "ghost", res.Results[2].ID)

	questions, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, b.ID, questions[0].ID)
	assert.Equal(t, a.ID, questions[1].ID)

	updates := 0
	for _, e := range f.auditRepo.All() {
		if e.Action == domain.AuditActionUpdate {
			updates++
			assert.Equal(t, "admin", e.Actor)
		}
	}
	assert.Equal(t, 2, updates)
}

func TestUpdateQuestionOrder_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.UpdateQuestionOrder(ctx, inbound.UpdateQuestionOrderRequest{})
	requireAppStatus(t, err, http.StatusBadRequest)

	_, err = f.uc.UpdateQuestionOrder(ctx, inbound.UpdateQuestionOrderRequest{
		QuestionOrders: []inbound.QuestionOrderItem{{ID: "a"}, {ID: ""}},
	})
	requireAppStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "questionOrders[1].HPQuestionId is required", apperr.MapError(err).Message)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 10))
	assert.Equal(t, 1, totalPages(1, 10))
	assert.Equal(t, 1, totalPages(10, 10))
	assert.Equal(t, 2, totalPages(11, 10))
	assert.Equal(t, 0, totalPages(5, 0))
}

// Mock-backed tests

type MockHPQuestionRepository struct {
	mock.Mock
}

func (m *MockHPQuestionRepository) Create(ctx context.Context, q *entity.HPQuestion) (*entity.HPQuestion, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HPQuestion), args.Error(1)
}

func (m *MockHPQuestionRepository) FindByID(ctx context.Context, id string) (*entity.HPQuestionDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HPQuestionDetail), args.Error(1)
}

func (m *MockHPQuestionRepository) FindByIDLean(ctx context.Context, id string) (*entity.HPQuestion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HPQuestion), args.Error(1)
}

func (m *MockHPQuestionRepository) FindMany(ctx context.Context, filter outbound.HPQuestionFilter, offset, limit int) ([]*entity.HPQuestion, int, error) {
	args := m.Called(ctx, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*entity.HPQuestion), args.Int(1), args.Error(2)
}

func (m *MockHPQuestionRepository) UpdateByID(ctx context.Context, id string, patch outbound.HPQuestionPatch) (*entity.HPQuestion, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HPQuestion), args.Error(1)
}

func (m *MockHPQuestionRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockHPQuestionRepository) SoftDeleteByID(ctx context.Context, id string) (*entity.HPQuestion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.HPQuestion), args.Error(1)
}

func (m *MockHPQuestionRepository) FindByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.HPQuestion), args.Error(1)
}

type MockAuditWriter struct {
	mock.Mock
}

func (m *MockAuditWriter) Record(ctx context.Context, entityType string, action domain.AuditAction, entityID string, previous, next interface{}, actor string) {
	m.Called(ctx, entityType, action, entityID, previous, next, actor)
}

type MockCategoryCache struct {
	mock.Mock
}

func (m *MockCategoryCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCategoryCache) Get(ctx context.Context, generation int64, category entity.HPQuestionCategory) ([]*entity.HPQuestion, bool, error) {
	args := m.Called(ctx, generation, category)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]*entity.HPQuestion), args.Bool(1), args.Error(2)
}

func (m *MockCategoryCache) Set(ctx context.Context, generation int64, category entity.HPQuestionCategory, questions []*entity.HPQuestion) error {
	args := m.Called(ctx, generation, category, questions)
	return args.Error(0)
}

func (m *MockCategoryCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestUpdateQuestionOrder_StoreFailureIsReportedPerItem(t *testing.T) {
	repo := new(MockHPQuestionRepository)
	writer := new(MockAuditWriter)
	cache := new(MockCategoryCache)

	okQ := entity.NewHPQuestion("ok")
	badQ := entity.NewHPQuestion("bad")
	updatedOK := okQ.Clone()
	updatedOK.QuestionOrder = 5

	repo.On("FindByIDLean", mock.Anything, "ok").Return(okQ, nil)
	repo.On("FindByIDLean", mock.Anything, "bad").Return(badQ, nil)
	repo.On("UpdateByID", mock.Anything, "ok", mock.Anything).Return(updatedOK, nil)
	repo.On("UpdateByID", mock.Anything, "bad", mock.Anything).Return(nil, errors.New("deadlock detected"))
	writer.On("Record", mock.Anything, domain.EntityTypeHPQuestion, domain.AuditActionUpdate, "ok", okQ, updatedOK, "system").Return()
	cache.On("Invalidate", mock.Anything).Return(nil).Once()

	uc := NewHPQuestionUseCase(repo, nil, writer, cache, logger.NewNopLogger(), 2)
	res, err := uc.UpdateQuestionOrder(context.Background(), inbound.UpdateQuestionOrderRequest{
		QuestionOrders: []inbound.QuestionOrderItem{
			{ID: "ok", QuestionOrder: 5},
			{ID: "bad", QuestionOrder: 6},
		},
		UpdatedBy: "system",
	})
	require.NoError(t, err)

	assert.True(t, res.Failed())
	assert.Equal(t, inbound.ReorderUpdated, res.Results[0].Status)
	assert.Equal(t, inbound.ReorderFailed, res.Results[1].Status)
	assert.Equal(t, "deadlock detected", res.Results[1].Error)

	repo.AssertExpectations(t)
	writer.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetHPQuestionsByCategory_ReadThroughCache(t *testing.T) {
	repo := new(MockHPQuestionRepository)
	cache := new(MockCategoryCache)
	questions := []*entity.HPQuestion{entity.NewHPQuestion("q1")}

	cache.On("Generation", mock.Anything).Return(int64(3), nil)
	cache.On("Get", mock.Anything, int64(3), entity.CategorySurvey).Return(nil, false, nil).Once()
	repo.On("FindByCategory", mock.Anything, entity.CategorySurvey).Return(questions, nil).Once()
	cache.On("Set", mock.Anything, int64(3), entity.CategorySurvey, questions).Return(nil).Once()

	uc := NewHPQuestionUseCase(repo, nil, new(MockAuditWriter), cache, logger.NewNopLogger(), 1)

	got, err := uc.GetHPQuestionsByCategory(context.Background(), entity.CategorySurvey)
	require.NoError(t, err)
	assert.Equal(t, questions, got)

	cache.On("Get", mock.Anything, int64(3), entity.CategorySurvey).Return(questions, true, nil).Once()
	got, err = uc.GetHPQuestionsByCategory(context.Background(), entity.CategorySurvey)
	require.NoError(t, err)
	assert.Equal(t, questions, got)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestGetHPQuestionsByCategory_CacheErrorFallsBackToStore(t *testing.T) {
	repo := new(MockHPQuestionRepository)
	cache := new(MockCategoryCache)
	questions := []*entity.HPQuestion{entity.NewHPQuestion("q1")}

	cache.On("Generation", mock.Anything).Return(int64(0), nil).Once()
	cache.On("Get", mock.Anything, int64(0), entity.CategoryInvestigation).Return(nil, false, errors.New("redis down"))
	repo.On("FindByCategory", mock.Anything, entity.CategoryInvestigation).Return(questions, nil)
	cache.On("Set", mock.Anything, int64(0), entity.CategoryInvestigation, questions).Return(errors.New("redis down"))

	uc := NewHPQuestionUseCase(repo, nil, new(MockAuditWriter), cache, logger.NewNopLogger(), 1)

	got, err := uc.GetHPQuestionsByCategory(context.Background(), entity.CategoryInvestigation)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// Without a generation nothing is read from or written to the cache.
	cache.On("Generation", mock.Anything).Return(int64(0), errors.New("redis down")).Once()
	got, err = uc.GetHPQuestionsByCategory(context.Background(), entity.CategoryInvestigation)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	cache.AssertNumberOfCalls(t, "Get", 1)
	cache.AssertNumberOfCalls(t, "Set", 1)
}

// interleavingStore runs afterFind once, between the category read and the
// cache write back, to stand in for a mutation from another request.
type interleavingStore struct {
	*memory.HPQuestionRepository
	afterFind func()
}

func (s *interleavingStore) FindByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error) {
	questions, err := s.HPQuestionRepository.FindByCategory(ctx, category)
	if hook := s.afterFind; hook != nil {
		s.afterFind = nil
		hook()
	}
	return questions, err
}

func TestGetHPQuestionsByCategory_SoftDeleteDuringReadIsNotCached(t *testing.T) {
	repo := newSeededRepo()
	store := &interleavingStore{HPQuestionRepository: repo}
	f := newFixtureWithStore(t, store, repo, memory.NewCategoryCache(time.Hour))
	ctx := context.Background()

	a := f.create(t, surveyQuestion("A", 1))
	b := f.create(t, surveyQuestion("B", 2))

	store.afterFind = func() {
		_, err := f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: a.ID, UpdatedBy: "admin"})
		require.NoError(t, err)
	}

	// This read started before the soft delete and may still see A.
	_, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		questions, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
		require.NoError(t, err)
		require.Len(t, questions, 1)
		assert.Equal(t, b.ID, questions[0].ID)
		for _, q := range questions {
			assert.True(t, q.IsActive, "inactive question %s served", q.ID)
		}
	}
}

func TestGetHPQuestionsByCategory_ConcurrentMutationsNeverServeInactive(t *testing.T) {
	f := newFixture(t, memory.NewCategoryCache(time.Hour))
	ctx := context.Background()

	keep := f.create(t, surveyQuestion("keep", 0))
	var ids []string
	for i := 1; i <= 20; i++ {
		ids = append(ids, f.create(t, surveyQuestion("Q", i)).ID)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			_, err := f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: id})
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	questions, err := f.uc.GetHPQuestionsByCategory(ctx, entity.CategorySurvey)
	require.NoError(t, err)
	require.Len(t, questions, 1)
	assert.Equal(t, keep.ID, questions[0].ID)
}

// cancelAfterCommitStore cancels the request context once the store write has
// gone through, as a client disconnecting mid-request would.
type cancelAfterCommitStore struct {
	*memory.HPQuestionRepository
	cancel context.CancelFunc
}

func (s *cancelAfterCommitStore) Create(ctx context.Context, q *entity.HPQuestion) (*entity.HPQuestion, error) {
	created, err := s.HPQuestionRepository.Create(ctx, q)
	s.cancel()
	return created, err
}

func (s *cancelAfterCommitStore) SoftDeleteByID(ctx context.Context, id string) (*entity.HPQuestion, error) {
	updated, err := s.HPQuestionRepository.SoftDeleteByID(ctx, id)
	s.cancel()
	return updated, err
}

func TestAudit_RecordedWhenRequestCancelledAfterCommit(t *testing.T) {
	repo := newSeededRepo()
	store := &cancelAfterCommitStore{HPQuestionRepository: repo}
	f := newFixtureWithStore(t, store, repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	store.cancel = cancel
	q, err := f.uc.AddEditHPQuestion(ctx, surveyQuestion("Q", 1))
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	ctx, cancel = context.WithCancel(context.Background())
	store.cancel = cancel
	_, err = f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: q.ID, UpdatedBy: "admin"})
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	trail, err := f.uc.GetHPQuestionAudit(context.Background(), q.ID, 0)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, domain.AuditActionSoftDelete, trail[0].Action)
	assert.Equal(t, "admin", trail[0].Actor)
	assert.Equal(t, domain.AuditActionCreate, trail[1].Action)
}

func TestMutationsInvalidateCache(t *testing.T) {
	cache := new(MockCategoryCache)
	cache.On("Invalidate", mock.Anything).Return(nil)

	f := newFixture(t, cache)
	ctx := context.Background()

	q := f.create(t, surveyQuestion("Q", 1))
	_, err := f.uc.SoftDeleteHPQuestion(ctx, inbound.SoftDeleteHPQuestionRequest{ID: q.ID})
	require.NoError(t, err)
	require.NoError(t, f.uc.DeleteHPQuestion(ctx, inbound.DeleteHPQuestionRequest{ID: q.ID}))

	cache.AssertNumberOfCalls(t, "Invalidate", 3)
}

func TestStoreFailureMapsToStorageError(t *testing.T) {
	repo := new(MockHPQuestionRepository)
	repo.On("FindMany", mock.Anything, mock.Anything, 0, 10).Return(nil, 0, errors.New("connection reset"))

	uc := NewHPQuestionUseCase(repo, nil, new(MockAuditWriter), nil, logger.NewNopLogger(), 1)
	_, err := uc.ListHPQuestions(context.Background(), inbound.ListHPQuestionsRequest{})

	appErr := apperr.MapError(err)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
	assert.Contains(t, appErr.Message, "connection reset")
}
