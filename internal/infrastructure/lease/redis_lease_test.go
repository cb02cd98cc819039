package lease

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ContentCurator/internal/config"
	"ContentCurator/internal/domain"
)

func TestRedisLeaseExcludesConcurrentRuns(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	l := NewRedisLease(client, time.Minute)

	release, err := l.Acquire(ctx, domain.KindNews)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}

	if _, err := l.Acquire(ctx, domain.KindNews); !errors.Is(err, domain.ErrRunInProgress) {
		t.Fatalf("second Acquire() error = %v, want ErrRunInProgress", err)
	}

	otherRelease, err := l.Acquire(ctx, domain.KindHero)
	if err != nil {
		t.Fatalf("Acquire() for another kind error = %v", err)
	}
	defer otherRelease(ctx)

	if err := release(ctx); err != nil {
		t.Fatalf("release error = %v", err)
	}
	again, err := l.Acquire(ctx, domain.KindNews)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again(ctx)
}

func TestRedisLeaseExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx := context.Background()
	l := NewRedisLease(client, 2*time.Second)

	if _, err := l.Acquire(ctx, domain.KindMedia); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	mr.FastForward(3 * time.Second)

	if _, err := l.Acquire(ctx, domain.KindMedia); err != nil {
		t.Fatalf("Acquire() after expiry error = %v", err)
	}
}

func TestConnectFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := Connect(context.Background(), config.RedisConfig{Addr: addr}); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestNoopLease(t *testing.T) {
	t.Parallel()

	release, err := Noop{}.Acquire(context.Background(), domain.KindNews)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := release(context.Background()); err != nil {
		t.Fatalf("release error = %v", err)
	}
}
