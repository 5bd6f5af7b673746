package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned when no cached entry exists for a key.
var ErrCacheMiss = errors.New("cache miss")

// ScheduleCache keeps short-lived copies of per-teacher day schedules so
// calendar reads don't hit Postgres on every poll. It only ever serves the
// read path; booking decisions never consult it.
type ScheduleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewScheduleCache(redisAddr string, ttl time.Duration) (*ScheduleCache, error) {
	const op = "cache.NewScheduleCache"

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &ScheduleCache{client: client, ttl: ttl}, nil
}

func dayKey(teacherID int64, date time.Time) string {
	return fmt.Sprintf("schedule:%d:%s", teacherID, date.Format("2006-01-02"))
}

func (c *ScheduleCache) GetDaySlots(ctx context.Context, teacherID int64, date time.Time) ([]byte, error) {
	const op = "cache.ScheduleCache.GetDaySlots"

	payload, err := c.client.Get(ctx, dayKey(teacherID, date)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payload, nil
}

func (c *ScheduleCache) SetDaySlots(ctx context.Context, teacherID int64, date time.Time, payload []byte) error {
	const op = "cache.ScheduleCache.SetDaySlots"

	if err := c.client.Set(ctx, dayKey(teacherID, date), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InvalidateDay drops the cached schedule after a booking lands on that day.
func (c *ScheduleCache) InvalidateDay(ctx context.Context, teacherID int64, date time.Time) error {
	const op = "cache.ScheduleCache.InvalidateDay"

	if err := c.client.Del(ctx, dayKey(teacherID, date)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *ScheduleCache) Close() error {
	return c.client.Close()
}
