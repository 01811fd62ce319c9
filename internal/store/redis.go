package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "duel:records:"

// RedisStore implements Store on a Redis list per key, newest version first.
type RedisStore struct {
	client  *redis.Client
	addr    string
	keep    int
	entropy *rand.Rand
}

// NewRedisStore connects to the Redis instance described by a redis:// URL.
func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{
		client:  client,
		addr:    opts.Addr,
		keep:    DefaultKeepVersions,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (s *RedisStore) listKey(key string) string {
	return redisKeyPrefix + key
}

func (s *RedisStore) Put(ctx context.Context, p PutParams) (*Entry, error) {
	if p.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	lk := s.listKey(p.Key)

	e := &Entry{
		ID:        ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String(),
		Key:       p.Key,
		Body:      p.Body,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}

	latest, err := s.client.LIndex(ctx, lk, 0).Bytes()
	switch {
	case err == nil:
		var prev Entry
		if json.Unmarshal(latest, &prev) == nil {
			e.Version = prev.Version + 1
			e.Supersedes = prev.ID
		}
	case !errors.Is(err, redis.Nil):
		return nil, fmt.Errorf("read latest version: %w", err)
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, lk, b)
	if s.keep > 0 {
		pipe.LTrim(ctx, lk, 0, int64(s.keep-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("write record: %w", err)
	}
	return e, nil
}

func (s *RedisStore) Get(ctx context.Context, p GetParams) ([]Entry, error) {
	raw, err := s.client.LRange(ctx, s.listKey(p.Key), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for _, r := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			continue
		}
		if p.Version > 0 && e.Version != p.Version {
			continue
		}
		entries = append(entries, e)
		if !p.History {
			break
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, p.Key)
	}
	return entries, nil
}

func (s *RedisStore) Rm(ctx context.Context, p RmParams) error {
	n, err := s.client.Del(ctx, s.listKey(p.Key)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, p.Key)
	}
	return nil
}

func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{Backend: "redis", Location: s.addr, Keys: []KeyStats{}}

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		lk := iter.Val()
		n, err := s.client.LLen(ctx, lk).Result()
		if err != nil {
			return st, err
		}
		ks := KeyStats{Key: strings.TrimPrefix(lk, redisKeyPrefix), Versions: int(n)}
		if latest, err := s.client.LIndex(ctx, lk, 0).Bytes(); err == nil {
			var e Entry
			if json.Unmarshal(latest, &e) == nil {
				ks.Latest = e.Version
				ks.UpdatedAt = e.CreatedAt
			}
		}
		st.TotalVersions += ks.Versions
		st.Keys = append(st.Keys, ks)
	}
	return st, iter.Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
