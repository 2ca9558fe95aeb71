package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/medrec/hpquestion/application/port/outbound"
	"github.com/medrec/hpquestion/domain/entity"
)

const (
	categoryKeyPrefix = "hpq:category:"
	generationKey     = categoryKeyPrefix + "gen"
)

type categoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCategoryCache caches the per-category question lists in Redis. A nil
// client yields a cache that always misses.
func NewCategoryCache(client *redis.Client, ttl time.Duration) outbound.CategoryCache {
	if client == nil {
		return noopCategoryCache{}
	}
	return &categoryCache{client: client, ttl: ttl}
}

func categoryKey(generation int64, category entity.HPQuestionCategory) string {
	return fmt.Sprintf("%s%d:%s", categoryKeyPrefix, generation, category)
}

func (c *categoryCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read category cache generation: %w", err)
	}
	return gen, nil
}

func (c *categoryCache) Get(ctx context.Context, generation int64, category entity.HPQuestionCategory) ([]*entity.HPQuestion, bool, error) {
	data, err := c.client.Get(ctx, categoryKey(generation, category)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read category cache: %w", err)
	}

	questions, err := decodeQuestions(data)
	if err != nil {
		return nil, false, err
	}
	return questions, true, nil
}

func (c *categoryCache) Set(ctx context.Context, generation int64, category entity.HPQuestionCategory, questions []*entity.HPQuestion) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("failed to encode category cache: %w", err)
	}

	if err := c.client.Set(ctx, categoryKey(generation, category), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write category cache: %w", err)
	}
	return nil
}

// Invalidate bumps the generation. Entries of older generations are never
// read again and age out through their TTL.
func (c *categoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate category cache: %w", err)
	}
	return nil
}

func decodeQuestions(data []byte) ([]*entity.HPQuestion, error) {
	var questions []*entity.HPQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("failed to decode category cache: %w", err)
	}
	if questions == nil {
		questions = []*entity.HPQuestion{}
	}
	return questions, nil
}

type noopCategoryCache struct{}

func (noopCategoryCache) Generation(ctx context.Context) (int64, error) {
	return 0, nil
}

func (noopCategoryCache) Get(ctx context.Context, generation int64, category entity.HPQuestionCategory) ([]*entity.HPQuestion, bool, error) {
	return nil, false, nil
}

func (noopCategoryCache) Set(ctx context.Context, generation int64, category entity.HPQuestionCategory, questions []*entity.HPQuestion) error {
	return nil
}

func (noopCategoryCache) Invalidate(ctx context.Context) error {
	return nil
}
