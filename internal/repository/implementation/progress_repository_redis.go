package implementation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ai-reading-be/internal/entity"
	"ai-reading-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const progressKeyPrefix = "reader:progress"

type ProgressRepositoryRedis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProgressRepository keeps progress as a redis hash per learner and document.
// A zero ttl keeps entries forever.
func NewProgressRepository(rdb *redis.Client, ttl time.Duration) contract.ProgressRepository {
	return &ProgressRepositoryRedis{rdb: rdb, ttl: ttl}
}

func progressKey(userId, documentId uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", progressKeyPrefix, userId, documentId)
}

func (r *ProgressRepositoryRedis) Get(ctx context.Context, userId, documentId uuid.UUID) (*entity.ReadingProgress, error) {
	values, err := r.rdb.HGetAll(ctx, progressKey(userId, documentId)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	page, err := strconv.Atoi(values["page"])
	if err != nil {
		return nil, fmt.Errorf("corrupt progress page: %w", err)
	}
	milestone, _ := strconv.Atoi(values["last_milestone"])

	var updatedAt time.Time
	if unix, err := strconv.ParseInt(values["updated_at"], 10, 64); err == nil {
		updatedAt = time.Unix(unix, 0).UTC()
	}

	return &entity.ReadingProgress{
		UserId:        userId,
		DocumentId:    documentId,
		Page:          page,
		LastMilestone: milestone,
		UpdatedAt:     updatedAt,
	}, nil
}

func (r *ProgressRepositoryRedis) Save(ctx context.Context, progress *entity.ReadingProgress) error {
	if progress.UpdatedAt.IsZero() {
		progress.UpdatedAt = time.Now()
	}
	key := progressKey(progress.UserId, progress.DocumentId)

	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key,
		"page", progress.Page,
		"last_milestone", progress.LastMilestone,
		"updated_at", progress.UpdatedAt.Unix(),
	)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *ProgressRepositoryRedis) Delete(ctx context.Context, userId, documentId uuid.UUID) error {
	return r.rdb.Del(ctx, progressKey(userId, documentId)).Err()
}
