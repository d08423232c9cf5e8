package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
)

type Repo struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ storage.Repository = (*Repo)(nil)

// New wraps an existing client. A zero ttl keeps trees until deleted.
func New(rdb *redis.Client, ttl time.Duration) *Repo {
	return &Repo{rdb: rdb, ttl: ttl}
}

// Open parses a redis:// URL and pings until the server answers or the
// strategy gives up.
func Open(ctx context.Context, redisURL string, strategy retry.Strategy) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	attempt := 0
	err = retry.Do(func() error {
		attempt++
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Logger.Warn().Err(err).Int("attempt", attempt).Msg("redis ping failed")
			return err
		}
		return nil
	}, strategy)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func forestKey(rootID string) string {
	return "forest/" + rootID
}

func (r *Repo) Exists(ctx context.Context, rootID string) (bool, error) {
	n, err := r.rdb.Exists(ctx, forestKey(rootID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repo) Save(ctx context.Context, rootID string, comments []byte) error {
	return r.rdb.Set(ctx, forestKey(rootID), comments, r.ttl).Err()
}

func (r *Repo) Load(ctx context.Context, rootID string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, forestKey(rootID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *Repo) Delete(ctx context.Context, rootID string) (bool, error) {
	n, err := r.rdb.Del(ctx, forestKey(rootID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
