package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type fakeRedisStore struct {
	values map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{values: map[string]string{}}
}

func (s *fakeRedisStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, exists := s.values[key]; exists {
		return false, nil
	}
	s.values[key] = value.(string)
	return true, nil
}

func (s *fakeRedisStore) Get(_ context.Context, key string) (string, error) {
	value, exists := s.values[key]
	if !exists {
		return "", redis.Nil
	}
	return value, nil
}

func (s *fakeRedisStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	t.Parallel()

	store := newFakeRedisStore()
	lock, err := NewRedisLock(store, "lock:scan", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	ok, err := lock.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !ok {
		t.Fatal("expected to acquire a free lock")
	}

	other, err := NewRedisLock(store, "lock:scan", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	ok, err = other.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if ok {
		t.Fatal("held lock must not be acquired twice")
	}

	if err := lock.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}

	ok, err = other.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if !ok {
		t.Fatal("released lock should be acquirable")
	}
}

func TestRedisLockReleaseOnlyByOwner(t *testing.T) {
	t.Parallel()

	store := newFakeRedisStore()
	owner, err := NewRedisLock(store, "lock:scan", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if _, err := owner.Acquire(context.Background()); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// A lock that never acquired must leave the key alone.
	stranger, err := NewRedisLock(store, "lock:scan", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if err := stranger.Release(context.Background()); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, exists := store.values["lock:scan"]; !exists {
		t.Fatal("non-owner release must not free the lock")
	}

	// The key expiring (or being taken over) after loss of ownership is
	// tolerated on release.
	store.values["lock:scan"] = "someone-else"
	if err := owner.Release(context.Background()); err != nil {
		t.Fatalf("release with foreign owner: %v", err)
	}
	if store.values["lock:scan"] != "someone-else" {
		t.Fatal("release must not delete a foreign owner's lock")
	}

	delete(store.values, "lock:scan")
	if err := owner.Release(context.Background()); err != nil {
		t.Fatalf("release of an expired lock should be silent: %v", err)
	}
}

func TestNewRedisLockValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisLock(nil, "key", time.Minute); err == nil {
		t.Fatal("expected error without client")
	}
	if _, err := NewRedisLock(newFakeRedisStore(), "", time.Minute); err == nil {
		t.Fatal("expected error without key")
	}
}
