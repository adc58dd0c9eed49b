// Package redis keeps windowed leaderboard scores in Redis sorted sets so
// leaderboard reads avoid scanning the ledger. The ledger remains the
// source of truth; the engine falls back to ledger aggregation when a read
// here fails.
package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"questkit/core"
	"questkit/leaderboard"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr         string        `json:"addr" env:"QUESTKIT_REDIS_ADDR"`
	Password     string        `json:"password" env:"QUESTKIT_REDIS_PASSWORD"`
	DB           int           `json:"db" env:"QUESTKIT_REDIS_DB"`
	PoolSize     int           `json:"pool_size" env:"QUESTKIT_REDIS_POOL_SIZE"`
	MinIdleConns int           `json:"min_idle_conns" env:"QUESTKIT_REDIS_MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `json:"dial_timeout" env:"QUESTKIT_REDIS_DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `json:"read_timeout" env:"QUESTKIT_REDIS_READ_TIMEOUT"`
	WriteTimeout time.Duration `json:"write_timeout" env:"QUESTKIT_REDIS_WRITE_TIMEOUT"`
}

// DefaultConfig returns sensible defaults for Redis configuration.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Index implements the windowed leaderboard index on sorted sets.
// Data structure:
// - lb:daily:{2006-01-02} -> ZSET of user scores for that UTC day
// - lb:weekly:{2006-W01}  -> ZSET for the ISO week
// - lb:monthly:{2006-01}  -> ZSET for the calendar month
// Buckets expire once the next window is well underway. The all-time board
// is not indexed: it ranks stored totals, which the engine reads straight
// from the store.
type Index struct {
	client *redis.Client
}

// New connects to Redis and verifies connectivity.
func New(config Config) (*Index, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Index{client: client}, nil
}

// NewWithClient wraps an existing client (useful for testing).
func NewWithClient(client *redis.Client) *Index {
	return &Index{client: client}
}

func (i *Index) Close() error {
	return i.client.Close()
}

func bucketKey(period leaderboard.Period, at time.Time) string {
	return fmt.Sprintf("lb:%s:%s", period, period.Key(at))
}

// retention keeps a bucket alive long enough to finish serving its window
// plus a grace period for late reads.
func retention(period leaderboard.Period) time.Duration {
	switch period {
	case leaderboard.PeriodDaily:
		return 48 * time.Hour
	case leaderboard.PeriodWeekly:
		return 14 * 24 * time.Hour
	case leaderboard.PeriodMonthly:
		return 62 * 24 * time.Hour
	default:
		return 0
	}
}

var windowedPeriods = []leaderboard.Period{
	leaderboard.PeriodDaily,
	leaderboard.PeriodWeekly,
	leaderboard.PeriodMonthly,
}

// Record applies a score delta to every windowed bucket the award lands in.
func (i *Index) Record(ctx context.Context, user core.UserID, delta int64, at time.Time) error {
	pipe := i.client.Pipeline()
	for _, period := range windowedPeriods {
		key := bucketKey(period, at)
		pipe.ZIncrBy(ctx, key, float64(delta), string(user))
		pipe.Expire(ctx, key, retention(period))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record leaderboard delta: %w", err)
	}
	return nil
}

// Top reads the highest scores in the period's current bucket. Redis breaks
// score ties by reverse member order, so the page is re-sorted to the
// engine's ordering: score descending, then user ascending.
func (i *Index) Top(ctx context.Context, period leaderboard.Period, limit int, now time.Time) ([]leaderboard.Entry, error) {
	if period == leaderboard.PeriodAll {
		return nil, fmt.Errorf("period %s is not indexed", period)
	}
	if limit <= 0 {
		limit = 10
	}
	key := bucketKey(period, now)
	members, err := i.client.ZRevRangeWithScores(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard bucket %s: %w", key, err)
	}

	entries := make([]leaderboard.Entry, 0, len(members))
	for _, m := range members {
		user, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, leaderboard.Entry{User: core.UserID(user), Score: int64(m.Score)})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].Score != entries[b].Score {
			return entries[a].Score > entries[b].Score
		}
		return entries[a].User < entries[b].User
	})
	return entries, nil
}
