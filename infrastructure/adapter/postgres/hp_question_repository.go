package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
	vo "github.com/medrec/hpquestion/domain/valueobject"
)

const questionColumns = `q.id, q.category, q.hp_group_id, q.logical_group, q.question_order, q.question,
	q.options, q.selection_type, q.question_type_id, q.input_type_id, q.investigation_type_id,
	q.validity_min, q.validity_max, q.response_unit, q.normal_range_min, q.normal_range_max,
	q.weightage_range_min, q.weightage_range_max, q.sos_range_min, q.sos_range_max,
	q.is_active, q.created_by, q.updated_by, q.created_at, q.updated_at`

const questionOrderBy = `ORDER BY q.question_order ASC, q.created_at DESC, q.id ASC`

// pq error codes
const (
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

type hpQuestionRepository struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// NewHPQuestionRepository returns a PostgreSQL backed repository. A zero
// queryTimeout leaves deadlines to the caller's context.
func NewHPQuestionRepository(db *sql.DB, queryTimeout time.Duration) outbound.HPQuestionRepository {
	return &hpQuestionRepository{db: db, queryTimeout: queryTimeout}
}

func (r *hpQuestionRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.queryTimeout)
}

func (r *hpQuestionRepository) Create(ctx context.Context, q *entity.HPQuestion) (*entity.HPQuestion, error) {
	if q == nil || q.ID == "" {
		return nil, fmt.Errorf("HP question with an id is required")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		INSERT INTO hp_questions AS q (
			id, category, hp_group_id, logical_group, question_order, question,
			options, selection_type, question_type_id, input_type_id, investigation_type_id,
			validity_min, validity_max, response_unit, normal_range_min, normal_range_max,
			weightage_range_min, weightage_range_max, sos_range_min, sos_range_max,
			is_active, created_by, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING ` + questionColumns

	options := q.Options
	if options == nil {
		options = []string{}
	}

	row := r.db.QueryRowContext(ctx, query,
		q.ID,
		nullIfEmpty(string(q.Category)),
		nullIfEmpty(string(q.GroupID)),
		q.LogicalGroup,
		q.QuestionOrder,
		q.Question,
		pq.StringArray(options),
		nullIfEmpty(string(q.SelectionType)),
		nullIfEmpty(string(q.QuestionTypeID)),
		nullIfEmpty(string(q.InputTypeID)),
		nullIfEmpty(string(q.InvestigationTypeID)),
		q.ValidityMin,
		q.ValidityMax,
		q.ResponseUnit,
		q.NormalRangeMin,
		q.NormalRangeMax,
		q.WeightageRangeMin,
		q.WeightageRangeMax,
		q.SosRangeMin,
		q.SosRangeMax,
		q.IsActive,
		q.CreatedBy,
		q.UpdatedBy,
	)

	created, err := scanQuestion(row)
	if err != nil {
		return nil, mapPQError("failed to create HP question", err)
	}
	return created, nil
}

func (r *hpQuestionRepository) FindByID(ctx context.Context, id string) (*entity.HPQuestionDetail, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + questionColumns + `,
			g.group_name, qt.name, it.name, inv.name
		FROM hp_questions q
		LEFT JOIN hp_groups g ON g.id = q.hp_group_id
		LEFT JOIN question_types qt ON qt.id = q.question_type_id
		LEFT JOIN input_types it ON it.id = q.input_type_id
		LEFT JOIN investigation_types inv ON inv.id = q.investigation_type_id
		WHERE q.id = $1
	`

	var row questionRow
	var groupName, questionTypeName, inputTypeName, investigationTypeName sql.NullString

	dest := append(row.dest(), &groupName, &questionTypeName, &inputTypeName, &investigationTypeName)
	err := r.db.QueryRowContext(ctx, query, id).Scan(dest...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrHPQuestionNotFound
		}
		return nil, fmt.Errorf("failed to find HP question by ID: %w", err)
	}
	q := row.entity()

	detail := entity.NewHPQuestionDetail(q)
	if q.GroupID != "" {
		detail.Group = &entity.HPGroupRef{ID: q.GroupID, Name: groupName.String}
	}
	if q.QuestionTypeID != "" {
		detail.QuestionType = &entity.QuestionTypeRef{ID: q.QuestionTypeID, Name: questionTypeName.String}
	}
	if q.InputTypeID != "" {
		detail.InputType = &entity.InputTypeRef{ID: q.InputTypeID, Name: inputTypeName.String}
	}
	if q.InvestigationTypeID != "" {
		detail.InvestigationType = &entity.InvestigationTypeRef{ID: q.InvestigationTypeID, Name: investigationTypeName.String}
	}
	return detail, nil
}

func (r *hpQuestionRepository) FindByIDLean(ctx context.Context, id string) (*entity.HPQuestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `SELECT ` + questionColumns + ` FROM hp_questions q WHERE q.id = $1`

	q, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrHPQuestionNotFound
		}
		return nil, fmt.Errorf("failed to find HP question by ID: %w", err)
	}
	return q, nil
}

func (r *hpQuestionRepository) FindMany(ctx context.Context, filter outbound.HPQuestionFilter, offset, limit int) ([]*entity.HPQuestion, int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	lq := buildListQuery(filter, offset, limit)

	var total int
	if err := r.db.QueryRowContext(ctx, lq.countQuery, lq.countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count HP questions: %w", err)
	}

	questions, err := r.queryQuestions(ctx, lq.dataQuery, lq.dataArgs...)
	if err != nil {
		return nil, 0, err
	}
	return questions, total, nil
}

func (r *hpQuestionRepository) UpdateByID(ctx context.Context, id string, patch outbound.HPQuestionPatch) (*entity.HPQuestion, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args := buildUpdateQuery(id, patch)
	updated, err := scanQuestion(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrHPQuestionNotFound
		}
		return nil, mapPQError("failed to update HP question", err)
	}
	return updated, nil
}

func (r *hpQuestionRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM hp_questions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete HP question: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (r *hpQuestionRepository) SoftDeleteByID(ctx context.Context, id string) (*entity.HPQuestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		UPDATE hp_questions AS q
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE q.id = $1
		RETURNING ` + questionColumns

	updated, err := scanQuestion(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, outbound.ErrHPQuestionNotFound
		}
		return nil, fmt.Errorf("failed to soft delete HP question: %w", err)
	}
	return updated, nil
}

func (r *hpQuestionRepository) FindByCategory(ctx context.Context, category entity.HPQuestionCategory) ([]*entity.HPQuestion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + questionColumns + `
		FROM hp_questions q
		WHERE q.category = $1 AND q.is_active = TRUE
		` + questionOrderBy

	return r.queryQuestions(ctx, query, string(category))
}

func (r *hpQuestionRepository) queryQuestions(ctx context.Context, query string, args ...interface{}) ([]*entity.HPQuestion, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query HP questions: %w", err)
	}
	defer rows.Close()

	questions := []*entity.HPQuestion{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan HP question: %w", err)
		}
		questions = append(questions, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate HP questions: %w", err)
	}
	return questions, nil
}

type listQuery struct {
	countQuery string
	countArgs  []interface{}
	dataQuery  string
	dataArgs   []interface{}
}

func buildListQuery(filter outbound.HPQuestionFilter, offset, limit int) listQuery {
	whereClause := "WHERE 1=1"
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		whereClause += fmt.Sprintf(" AND (q.question ILIKE $%d OR q.logical_group ILIKE $%d OR q.response_unit ILIKE $%d)", argIndex, argIndex, argIndex)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		argIndex++
	}

	if filter.Category != "" {
		whereClause += fmt.Sprintf(" AND q.category = $%d", argIndex)
		args = append(args, string(filter.Category))
		argIndex++
	}

	if filter.IsActive != nil {
		whereClause += fmt.Sprintf(" AND q.is_active = $%d", argIndex)
		args = append(args, *filter.IsActive)
		argIndex++
	}

	if offset < 0 {
		offset = 0
	}

	dataArgs := append(append([]interface{}{}, args...), limit, offset)

	return listQuery{
		countQuery: "SELECT COUNT(*) FROM hp_questions q " + whereClause,
		countArgs:  args,
		dataQuery: fmt.Sprintf(`SELECT %s FROM hp_questions q %s %s LIMIT $%d OFFSET $%d`,
			questionColumns, whereClause, questionOrderBy, argIndex, argIndex+1),
		dataArgs: dataArgs,
	}
}

// buildUpdateQuery renders a $set style UPDATE touching only present fields.
func buildUpdateQuery(id string, p outbound.HPQuestionPatch) (string, []interface{}) {
	sets := []string{}
	args := []interface{}{id}

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if p.Category.Present {
		add("category", nullIfEmpty(string(p.Category.Get())))
	}
	if p.GroupID.Present {
		add("hp_group_id", nullIfEmpty(string(p.GroupID.Get())))
	}
	if p.LogicalGroup.Present {
		add("logical_group", p.LogicalGroup.Get())
	}
	if p.QuestionOrder.Present {
		add("question_order", p.QuestionOrder.Get())
	}
	if p.Question.Present {
		add("question", p.Question.Get())
	}
	if p.Options.Present {
		options := p.Options.Get()
		if options == nil {
			options = []string{}
		}
		add("options", pq.StringArray(options))
	}
	if p.SelectionType.Present {
		add("selection_type", nullIfEmpty(string(p.SelectionType.Get())))
	}
	if p.QuestionTypeID.Present {
		add("question_type_id", nullIfEmpty(string(p.QuestionTypeID.Get())))
	}
	if p.InputTypeID.Present {
		add("input_type_id", nullIfEmpty(string(p.InputTypeID.Get())))
	}
	if p.InvestigationTypeID.Present {
		add("investigation_type_id", nullIfEmpty(string(p.InvestigationTypeID.Get())))
	}

	for _, f := range []struct {
		column string
		field  vo.Field[string]
	}{
		{"validity_min", p.ValidityMin},
		{"validity_max", p.ValidityMax},
		{"response_unit", p.ResponseUnit},
		{"normal_range_min", p.NormalRangeMin},
		{"normal_range_max", p.NormalRangeMax},
		{"weightage_range_min", p.WeightageRangeMin},
		{"weightage_range_max", p.WeightageRangeMax},
		{"sos_range_min", p.SosRangeMin},
		{"sos_range_max", p.SosRangeMax},
		{"updated_by", p.UpdatedBy},
	} {
		if f.field.Present {
			add(f.column, f.field.Get())
		}
	}

	if p.IsActive.Present {
		add("is_active", p.IsActive.Get())
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	query := fmt.Sprintf(`UPDATE hp_questions AS q SET %s WHERE q.id = $1 RETURNING %s`,
		strings.Join(sets, ", "), questionColumns)
	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// questionRow holds scan targets for the nullable columns.
type questionRow struct {
	q                   entity.HPQuestion
	category            sql.NullString
	groupID             sql.NullString
	selectionType       sql.NullString
	questionTypeID      sql.NullString
	inputTypeID         sql.NullString
	investigationTypeID sql.NullString
	options             pq.StringArray
}

// dest follows the order of questionColumns.
func (r *questionRow) dest() []interface{} {
	return []interface{}{
		&r.q.ID, &r.category, &r.groupID, &r.q.LogicalGroup, &r.q.QuestionOrder, &r.q.Question,
		&r.options, &r.selectionType, &r.questionTypeID, &r.inputTypeID, &r.investigationTypeID,
		&r.q.ValidityMin, &r.q.ValidityMax, &r.q.ResponseUnit, &r.q.NormalRangeMin, &r.q.NormalRangeMax,
		&r.q.WeightageRangeMin, &r.q.WeightageRangeMax, &r.q.SosRangeMin, &r.q.SosRangeMax,
		&r.q.IsActive, &r.q.CreatedBy, &r.q.UpdatedBy, &r.q.CreatedAt, &r.q.UpdatedAt,
	}
}

func (r *questionRow) entity() *entity.HPQuestion {
	q := r.q
	q.Category = entity.HPQuestionCategory(r.category.String)
	q.GroupID = entity.HPGroupID(r.groupID.String)
	q.SelectionType = entity.SelectionType(r.selectionType.String)
	q.QuestionTypeID = entity.QuestionTypeID(r.questionTypeID.String)
	q.InputTypeID = entity.InputTypeID(r.inputTypeID.String)
	q.InvestigationTypeID = entity.InvestigationTypeID(r.investigationTypeID.String)
	q.Options = []string(r.options)
	if q.Options == nil {
		q.Options = []string{}
	}
	return &q
}

func scanQuestion(s rowScanner) (*entity.HPQuestion, error) {
	var row questionRow
	if err := s.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.entity(), nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// escapeLike escapes ILIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func mapPQError(message string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", message, pqErr.Constraint, outbound.ErrInvalidReference)
		case pqCheckViolation:
			if strings.Contains(pqErr.Constraint, "selection_type") {
				return fmt.Errorf("%s: %w", message, entity.ErrInvalidSelectionType)
			}
			return fmt.Errorf("%s: %w", message, entity.ErrInvalidCategory)
		}
	}
	return fmt.Errorf("%s: %w", message, err)
}
