package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "ragchat:sessions:snapshot"

var _ contract.SnapshotRepository = (*RedisSnapshotRepository)(nil)

// RedisSnapshotRepository keeps the latest session snapshot under a single
// key with a TTL. It is an ephemeral mirror, not a durable store.
type RedisSnapshotRepository struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisSnapshotRepository(client *redis.Client, key string, ttl time.Duration) *RedisSnapshotRepository {
	if key == "" {
		key = DefaultKey
	}
	return &RedisSnapshotRepository{client: client, key: key, ttl: ttl}
}

func (r *RedisSnapshotRepository) Save(ctx context.Context, snapshot *entity.SessionSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns nil without error when no snapshot is mirrored.
func (r *RedisSnapshotRepository) Load(ctx context.Context) (*entity.SessionSnapshot, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot entity.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *RedisSnapshotRepository) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
