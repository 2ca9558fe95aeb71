package memory

import (
	"context"
	"sync"
	"time"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
)

// CategoryCache is the in-process category cache used when no Redis is
// configured. Only the current generation is kept.
type CategoryCache struct {
	mutex      sync.Mutex
	ttl        time.Duration
	now        func() time.Time
	generation int64
	entries    map[entity.HPQuestionCategory]cacheEntry
}

type cacheEntry struct {
	questions []*entity.HPQuestion
	expiresAt time.Time
}

// NewCategoryCache returns an empty cache. A ttl <= 0 keeps entries until the
// next invalidation.
func NewCategoryCache(ttl time.Duration) *CategoryCache {
	return &CategoryCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[entity.HPQuestionCategory]cacheEntry),
	}
}

var _ outbound.CategoryCache = (*CategoryCache)(nil)

func (c *CategoryCache) Generation(ctx context.Context) (int64, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.generation, nil
}

func (c *CategoryCache) Get(ctx context.Context, generation int64, category entity.HPQuestionCategory) ([]*entity.HPQuestion, bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.generation {
		return nil, false, nil
	}
	e, ok := c.entries[category]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, category)
		return nil, false, nil
	}
	return cloneAll(e.questions), true, nil
}

// Set stores questions only while generation is still current.
func (c *CategoryCache) Set(ctx context.Context, generation int64, category entity.HPQuestionCategory, questions []*entity.HPQuestion) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if generation != c.generation {
		return nil
	}
	e := cacheEntry{questions: cloneAll(questions)}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[category] = e
	return nil
}

func (c *CategoryCache) Invalidate(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.generation++
	c.entries = make(map[entity.HPQuestionCategory]cacheEntry)
	return nil
}

func cloneAll(questions []*entity.HPQuestion) []*entity.HPQuestion {
	out := make([]*entity.HPQuestion, len(questions))
	for i, q := range questions {
		out[i] = q.Clone()
	}
	return out
}
