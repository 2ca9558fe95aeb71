package outbound

import (
	"context"

	"github.com/medrec/hpquestion/domain/entity"
)

// CategoryCache holds the active question list per category.
//
// Entries are scoped to a generation. Readers take the generation before
// querying the store and write back under it, so a list read before an
// Invalidate can never be served after it.
// A miss is (nil, false, nil).
type CategoryCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, generation int64, category entity.HPQuestionCategory) ([]*entity.HPQuestion, bool, error)
	Set(ctx context.Context, generation int64, category entity.HPQuestionCategory, questions []*entity.HPQuestion) error
	// Invalidate advances the generation, dropping every cached category.
	Invalidate(ctx context.Context) error
}
