// Package seed holds the reference data loaded into a fresh store.
package seed

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/medrec/hpquestion/application/port/inbound"
	"github.com/medrec/hpquestion/domain/entity"
	vo "github.com/medrec/hpquestion/domain/valueobject"
	"github.com/medrec/hpquestion/infrastructure/adapter/memory"
)

type Lookup struct {
	ID   string
	Name string
}

var (
	Groups = []Lookup{
		{"grp-general", "General Health"},
		{"grp-cardio", "Cardiovascular"},
		{"grp-lifestyle", "Lifestyle"},
	}
	QuestionTypes = []Lookup{
		{"qt-objective", "Objective"},
		{"qt-subjective", "Subjective"},
		{"qt-numeric", "Numeric"},
	}
	InputTypes = []Lookup{
		{"it-radio", "Radio"},
		{"it-checkbox", "Checkbox"},
		{"it-text", "Text"},
		{"it-number", "Number"},
	}
	InvestigationTypes = []Lookup{
		{"inv-blood", "Blood Test"},
		{"inv-vitals", "Vitals"},
	}
)

// RegisterMemory loads the lookup tables into an in-memory store.
func RegisterMemory(repo *memory.HPQuestionRepository) {
	for _, l := range Groups {
		repo.AddGroup(entity.HPGroupID(l.ID), l.Name)
	}
	for _, l := range QuestionTypes {
		repo.AddQuestionType(entity.QuestionTypeID(l.ID), l.Name)
	}
	for _, l := range InputTypes {
		repo.AddInputType(entity.InputTypeID(l.ID), l.Name)
	}
	for _, l := range InvestigationTypes {
		repo.AddInvestigationType(entity.InvestigationTypeID(l.ID), l.Name)
	}
}

// UpsertPostgres writes the lookup tables, updating names of existing rows.
func UpsertPostgres(ctx context.Context, db *sql.DB) error {
	tables := []struct {
		table, nameColumn string
		rows              []Lookup
	}{
		{"hp_groups", "group_name", Groups},
		{"question_types", "name", QuestionTypes},
		{"input_types", "name", InputTypes},
		{"investigation_types", "name", InvestigationTypes},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range tables {
		query := fmt.Sprintf(`
			INSERT INTO %s (id, %s) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET %s = EXCLUDED.%s`,
			t.table, t.nameColumn, t.nameColumn, t.nameColumn)
		for _, row := range t.rows {
			if _, err := tx.ExecContext(ctx, query, row.ID, row.Name); err != nil {
				return fmt.Errorf("failed to seed %s %s: %w", t.table, row.ID, err)
			}
		}
	}

	return tx.Commit()
}

// SampleQuestions returns create requests for a small demo catalog.
func SampleQuestions(actor string) []inbound.AddEditHPQuestionRequest {
	return []inbound.AddEditHPQuestionRequest{
		{
			Category:       vo.Set(entity.CategorySurvey),
			GroupID:        vo.Set(entity.HPGroupID("grp-general")),
			LogicalGroup:   vo.Set("Symptoms"),
			QuestionOrder:  vo.Set[vo.LooseInt](1),
			Question:       vo.Set("Have you had a fever in the last 7 days?"),
			Options:        vo.Set([]string{"Yes", "No"}),
			SelectionType:  vo.Set(entity.SelectionSingle),
			QuestionTypeID: vo.Set(entity.QuestionTypeID("qt-objective")),
			InputTypeID:    vo.Set(entity.InputTypeID("it-radio")),
			CreatedBy:      actor,
		},
		{
			Category:       vo.Set(entity.CategorySurvey),
			GroupID:        vo.Set(entity.HPGroupID("grp-lifestyle")),
			LogicalGroup:   vo.Set("Habits"),
			QuestionOrder:  vo.Set[vo.LooseInt](2),
			Question:       vo.Set("Which of these do you consume regularly?"),
			Options:        vo.Set([]string{"Tobacco", "Alcohol", "Caffeine", "None"}),
			SelectionType:  vo.Set(entity.SelectionMultiple),
			QuestionTypeID: vo.Set(entity.QuestionTypeID("qt-subjective")),
			InputTypeID:    vo.Set(entity.InputTypeID("it-checkbox")),
			CreatedBy:      actor,
		},
		{
			Category:            vo.Set(entity.CategoryInvestigation),
			GroupID:             vo.Set(entity.HPGroupID("grp-cardio")),
			LogicalGroup:        vo.Set("Vitals"),
			QuestionOrder:       vo.Set[vo.LooseInt](1),
			Question:            vo.Set("Resting heart rate"),
			QuestionTypeID:      vo.Set(entity.QuestionTypeID("qt-numeric")),
			InputTypeID:         vo.Set(entity.InputTypeID("it-number")),
			InvestigationTypeID: vo.Set(entity.InvestigationTypeID("inv-vitals")),
			ValidityMin:         vo.Set("30"),
			ValidityMax:         vo.Set("220"),
			ResponseUnit:        vo.Set("bpm"),
			NormalRangeMin:      vo.Set("60"),
			NormalRangeMax:      vo.Set("100"),
			SosRangeMin:         vo.Set("40"),
			SosRangeMax:         vo.Set("150"),
			CreatedBy:           actor,
		},
		{
			Category:            vo.Set(entity.CategoryInvestigation),
			GroupID:             vo.Set(entity.HPGroupID("grp-general")),
			LogicalGroup:        vo.Set("Blood"),
			QuestionOrder:       vo.Set[vo.LooseInt](2),
			Question:            vo.Set("Fasting blood glucose"),
			QuestionTypeID:      vo.Set(entity.QuestionTypeID("qt-numeric")),
			InputTypeID:         vo.Set(entity.InputTypeID("it-number")),
			InvestigationTypeID: vo.Set(entity.InvestigationTypeID("inv-blood")),
			ResponseUnit:        vo.Set("mg/dL"),
			NormalRangeMin:      vo.Set("70"),
			NormalRangeMax:      vo.Set("100"),
			WeightageRangeMin:   vo.Set("100"),
			WeightageRangeMax:   vo.Set("125"),
			CreatedBy:           actor,
		},
	}
}

// Questions creates the sample catalog through the use case so every row
// gets a CREATE audit entry.
func Questions(ctx context.Context, uc inbound.HPQuestionUseCase, actor string) ([]*entity.HPQuestion, error) {
	var created []*entity.HPQuestion
	for _, req := range SampleQuestions(actor) {
		q, err := uc.AddEditHPQuestion(ctx, req)
		if err != nil {
			return created, fmt.Errorf("failed to seed question %q: %w", req.Question.Get(), err)
		}
		created = append(created, q)
	}
	return created, nil
}
