// Package lease keeps two curation runs of the same kind from overlapping.
package lease

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

const (
	keyPrefix  = "contentcurator:run:"
	defaultTTL = 15 * time.Minute
)

// RedisLease takes one redsync mutex per kind.
type RedisLease struct {
	rs  *redsync.Redsync
	ttl time.Duration
}

var _ ports.Lease = (*RedisLease)(nil)

// NewRedisLease builds a lease over an existing client.
func NewRedisLease(client redis.UniversalClient, ttl time.Duration) *RedisLease {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLease{rs: redsync.New(goredis.NewPool(client)), ttl: ttl}
}

// Connect dials and pings Redis from config.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Acquire tries once; a held lease yields domain.ErrRunInProgress.
func (l *RedisLease) Acquire(ctx context.Context, kind domain.Kind) (func(context.Context) error, error) {
	mutex := l.rs.NewMutex(keyPrefix+string(kind), redsync.WithExpiry(l.ttl), redsync.WithTries(1))

	if err := mutex.TryLockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.As(err, &taken) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRunInProgress, kind)
		}
		return nil, fmt.Errorf("acquire lease %s: %w", kind, err)
	}

	return func(ctx context.Context) error {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			return fmt.Errorf("release lease %s: %w", kind, err)
		}
		return nil
	}, nil
}
