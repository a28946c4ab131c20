package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: make(map[string]string)}
}

func (m *memoryBackend) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *memoryBackend) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *memoryBackend) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager() (*Manager, *memoryBackend) {
	backend := newMemoryBackend()
	return &Manager{backend: backend, ttl: time.Hour}, backend
}

func TestGenerateStoresToken(t *testing.T) {
	manager, backend := newTestManager()

	token, err := manager.Generate(context.Background(), "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stored := backend.data["sess:access-123"]; stored != token {
		t.Fatalf("stored token %q does not match issued %q", stored, token)
	}
}

func TestRotateReplacesSession(t *testing.T) {
	manager, backend := newTestManager()
	ctx := context.Background()

	token, err := manager.Generate(ctx, "access-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, _, err := manager.Rotate(ctx, "access-123", "wrong"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("mismatched token should be invalid, got %v", err)
	}

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	if err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, exists := backend.data["sess:access-123"]; exists {
		t.Fatalf("old session left behind")
	}
	if stored := backend.data["sess:"+newAccessID]; stored != newToken {
		t.Fatalf("new session not stored")
	}

	// The old token is single-use.
	if _, _, err := manager.Rotate(ctx, "access-123", token); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("replayed rotation should be invalid, got %v", err)
	}
}

func TestRevokeAndHasSession(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()

	if _, err := manager.Generate(ctx, "access-123"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	if ok, err := manager.HasSession(ctx, "access-123"); err != nil || !ok {
		t.Fatalf("expected live session (ok=%v err=%v)", ok, err)
	}

	if err := manager.Revoke(ctx, "access-123"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	if ok, err := manager.HasSession(ctx, "access-123"); err != nil || ok {
		t.Fatalf("expected revoked session (ok=%v err=%v)", ok, err)
	}
}
