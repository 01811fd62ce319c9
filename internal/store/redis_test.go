package store

import (
	"context"
	"errors"
	"os"
	"testing"
)

// Requires a disposable Redis, e.g. DUEL_TEST_REDIS_URL=redis://localhost:6379/15
func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	url := os.Getenv("DUEL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("DUEL_TEST_REDIS_URL not set")
	}
	s, err := NewRedisStore(context.Background(), url)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRedisVersioning(t *testing.T) {
	ctx := context.Background()
	s := newTestRedis(t)
	key := "test-" + t.Name()
	s.Rm(ctx, RmParams{Key: key})
	t.Cleanup(func() { s.Rm(ctx, RmParams{Key: key}) })

	s.Put(ctx, PutParams{Key: key, Body: []byte("v1")})
	e2, err := s.Put(ctx, PutParams{Key: key, Body: []byte("v2")})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if e2.Version != 2 || e2.Supersedes == "" {
		t.Errorf("expected version 2 with supersedes, got %+v", e2)
	}

	got, _ := s.Get(ctx, GetParams{Key: key})
	if string(got[0].Body) != "v2" {
		t.Errorf("expected 'v2', got %q", got[0].Body)
	}
	v1, _ := s.Get(ctx, GetParams{Key: key, Version: 1})
	if len(v1) != 1 || string(v1[0].Body) != "v1" {
		t.Errorf("expected version 1 body 'v1', got %+v", v1)
	}
}

func TestRedisGetMissing(t *testing.T) {
	s := newTestRedis(t)
	_, err := s.Get(context.Background(), GetParams{Key: "missing-" + t.Name()})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
