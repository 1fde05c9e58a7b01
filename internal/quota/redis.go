package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// incrScript bumps the count only when the record still exists, so an
// increment racing with expiry never leaves a record without a reset time.
var incrScript = goredis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
local count = redis.call('HINCRBY', KEYS[1], 'count', 1)
return {count, redis.call('HGET', KEYS[1], 'resetAt')}
`)

// RedisStore keeps one hash per identity ({count, resetAt epoch-ms}) that
// expires at resetAt.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{rdb: rdb, prefix: opts.Prefix}, nil
}

func (s *RedisStore) key(identity string) string {
	return s.prefix + identity
}

func (s *RedisStore) Get(ctx context.Context, identity string) (Record, bool, error) {
	fields, err := s.rdb.HGetAll(ctx, s.key(identity)).Result()
	if err != nil {
		return Record{}, false, err
	}
	if len(fields) == 0 {
		return Record{}, false, nil
	}
	rec, err := parseRecord(fields["count"], fields["resetAt"])
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

func (s *RedisStore) Set(ctx context.Context, identity string, rec Record) error {
	key := s.key(identity)
	_, err := s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key, "count", rec.Count, "resetAt", rec.ResetAt.UnixMilli())
		pipe.PExpireAt(ctx, key, rec.ResetAt)
		return nil
	})
	return err
}

func (s *RedisStore) Incr(ctx context.Context, identity string) (Record, error) {
	res, err := incrScript.Run(ctx, s.rdb, []string{s.key(identity)}).Slice()
	if errors.Is(err, goredis.Nil) {
		return Record{}, ErrNoRecord
	}
	if err != nil {
		return Record{}, err
	}
	if len(res) != 2 {
		return Record{}, fmt.Errorf("unexpected incr reply %v", res)
	}
	resetAt, _ := res[1].(string)
	return parseRecord(fmt.Sprint(res[0]), resetAt)
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func parseRecord(count, resetAt string) (Record, error) {
	c, err := strconv.Atoi(count)
	if err != nil {
		return Record{}, fmt.Errorf("bad quota count %q: %w", count, err)
	}
	ms, err := strconv.ParseInt(resetAt, 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad quota resetAt %q: %w", resetAt, err)
	}
	return Record{Count: c, ResetAt: time.UnixMilli(ms)}, nil
}
