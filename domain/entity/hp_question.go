package entity

import (
	"errors"
	"time"
)

var (
	ErrInvalidCategory      = errors.New("invalid HP question category")
	ErrInvalidSelectionType = errors.New("invalid selection type")
)

type HPQuestionCategory string

const (
	CategorySurvey        HPQuestionCategory = "Survey"
	CategoryInvestigation HPQuestionCategory = "Investigation"
)

// Categories lists every known category.
var Categories = []HPQuestionCategory{CategorySurvey, CategoryInvestigation}

type SelectionType string

const (
	SelectionSingle   SelectionType = "Single"
	SelectionMultiple SelectionType = "Multiple"
)

// Typed foreign ids. An empty value means the reference is unset.
type (
	HPGroupID           string
	QuestionTypeID      string
	InputTypeID         string
	InvestigationTypeID string
)

// HPQuestion is a health profiling question as stored, without reference expansion.
type HPQuestion struct {
	ID                  string              `json:"HPQuestionId"`
	Category            HPQuestionCategory  `json:"HPQuestionCategory"`
	GroupID             HPGroupID           `json:"HPGroupId"`
	LogicalGroup        string              `json:"LogicalGroup"`
	QuestionOrder       int                 `json:"QuestionOrder"`
	Question            string              `json:"Question"`
	Options             []string            `json:"Options"`
	SelectionType       SelectionType       `json:"SelectionType"`
	QuestionTypeID      QuestionTypeID      `json:"QuestionTypeId"`
	InputTypeID         InputTypeID         `json:"InputTypeId"`
	InvestigationTypeID InvestigationTypeID `json:"InvestigationTypeId"`
	ValidityMin         string              `json:"ValidityMin"`
	ValidityMax         string              `json:"ValidityMax"`
	ResponseUnit        string              `json:"ResponseUnit"`
	NormalRangeMin      string              `json:"NormalRangeMin"`
	NormalRangeMax      string              `json:"NormalRangeMax"`
	WeightageRangeMin   string              `json:"WeightageRangeMin"`
	WeightageRangeMax   string              `json:"WeightageRangeMax"`
	SosRangeMin         string              `json:"SosRangeMin"`
	SosRangeMax         string              `json:"SosRangeMax"`
	IsActive            bool                `json:"IsActive"`
	CreatedBy           string              `json:"CreatedBy"`
	UpdatedBy           string              `json:"UpdatedBy"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// NewHPQuestion returns an active question with an empty option list.
func NewHPQuestion(id string) *HPQuestion {
	return &HPQuestion{
		ID:       id,
		Options:  []string{},
		IsActive: true,
	}
}

// Clone returns a deep copy so snapshots never share the options slice.
func (q *HPQuestion) Clone() *HPQuestion {
	if q == nil {
		return nil
	}
	c := *q
	c.Options = append([]string{}, q.Options...)
	return &c
}

// Validate checks the enumerated fields. Empty values are allowed.
func (q *HPQuestion) Validate() error {
	if err := ValidateCategory(q.Category); err != nil {
		return err
	}
	return ValidateSelectionType(q.SelectionType)
}

func ValidateCategory(c HPQuestionCategory) error {
	switch c {
	case "", CategorySurvey, CategoryInvestigation:
		return nil
	}
	return ErrInvalidCategory
}

func ValidateSelectionType(s SelectionType) error {
	switch s {
	case "", SelectionSingle, SelectionMultiple:
		return nil
	}
	return ErrInvalidSelectionType
}

// Lookup references as shown to callers after expansion.

type HPGroupRef struct {
	ID   HPGroupID `json:"HPGroupId"`
	Name string    `json:"GroupName"`
}

type QuestionTypeRef struct {
	ID   QuestionTypeID `json:"QuestionTypeId"`
	Name string         `json:"QuestionType"`
}

type InputTypeRef struct {
	ID   InputTypeID `json:"InputTypeId"`
	Name string      `json:"InputType"`
}

type InvestigationTypeRef struct {
	ID   InvestigationTypeID `json:"InvestigationTypeId"`
	Name string              `json:"InvestigationType"`
}

// HPQuestionDetail is the reference-expanded read model of a question.
type HPQuestionDetail struct {
	ID                string                `json:"HPQuestionId"`
	Category          HPQuestionCategory    `json:"HPQuestionCategory"`
	Group             *HPGroupRef           `json:"HPGroupId"`
	LogicalGroup      string                `json:"LogicalGroup"`
	QuestionOrder     int                   `json:"QuestionOrder"`
	Question          string                `json:"Question"`
	Options           []string              `json:"Options"`
	SelectionType     SelectionType         `json:"SelectionType"`
	QuestionType      *QuestionTypeRef      `json:"QuestionTypeId"`
	InputType         *InputTypeRef         `json:"InputTypeId"`
	InvestigationType *InvestigationTypeRef `json:"InvestigationTypeId"`
	ValidityMin       string                `json:"ValidityMin"`
	ValidityMax       string                `json:"ValidityMax"`
	ResponseUnit      string                `json:"ResponseUnit"`
	NormalRangeMin    string                `json:"NormalRangeMin"`
	NormalRangeMax    string                `json:"NormalRangeMax"`
	WeightageRangeMin string                `json:"WeightageRangeMin"`
	WeightageRangeMax string                `json:"WeightageRangeMax"`
	SosRangeMin       string                `json:"SosRangeMin"`
	SosRangeMax       string                `json:"SosRangeMax"`
	IsActive          bool                  `json:"IsActive"`
	CreatedBy         string                `json:"CreatedBy"`
	UpdatedBy         string                `json:"UpdatedBy"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// NewHPQuestionDetail copies the scalar fields of q. References are left for the
// caller to fill.
func NewHPQuestionDetail(q *HPQuestion) *HPQuestionDetail {
	return &HPQuestionDetail{
		ID:                q.ID,
		Category:          q.Category,
		LogicalGroup:      q.LogicalGroup,
		QuestionOrder:     q.QuestionOrder,
		Question:          q.Question,
		Options:           append([]string{}, q.Options...),
		SelectionType:     q.SelectionType,
		ValidityMin:       q.ValidityMin,
		ValidityMax:       q.ValidityMax,
		ResponseUnit:      q.ResponseUnit,
		NormalRangeMin:    q.NormalRangeMin,
		NormalRangeMax:    q.NormalRangeMax,
		WeightageRangeMin: q.WeightageRangeMin,
		WeightageRangeMax: q.WeightageRangeMax,
		SosRangeMin:       q.SosRangeMin,
		SosRangeMax:       q.SosRangeMax,
		IsActive:          q.IsActive,
		CreatedBy:         q.CreatedBy,
		UpdatedBy:         q.UpdatedBy,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}
