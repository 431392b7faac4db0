package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makwansoran/gomercant/internal/domain"
)

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string]string)} }

func (c *mapCache) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	v, ok := c.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	return v, nil
}

func (c *mapCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.data[key] = value
	return nil
}

func (c *mapCache) Close() error { return nil }

type stubUserRepo struct {
	users map[uuid.UUID]*domain.User
	calls int
}

func (r *stubUserRepo) Create(ctx context.Context, user *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.calls++
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, nil
}

func (r *stubUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return nil, nil
}

func TestResolveCachesLookups(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Username: "alice", DisplayName: "Alice", PasswordHash: "hash"}
	repo := &stubUserRepo{users: map[uuid.UUID]*domain.User{user.ID: user}}
	cache := newMapCache()
	r := NewResolver(repo, cache, zerolog.Nop())
	ctx := context.Background()

	got, err := r.Resolve(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q", got.Username)
	}
	if got.PasswordHash != "" {
		t.Error("resolved identity must not carry the password hash")
	}

	if _, err := r.Resolve(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 1 {
		t.Errorf("repo hit %d times, want 1 (second lookup served from cache)", repo.calls)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	repo := &stubUserRepo{users: map[uuid.UUID]*domain.User{}}
	r := NewResolver(repo, nil, zerolog.Nop())

	_, err := r.Resolve(context.Background(), uuid.New())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolveTreatsCacheErrorAsMiss(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Username: "alice"}
	repo := &stubUserRepo{users: map[uuid.UUID]*domain.User{user.ID: user}}
	cache := newMapCache()
	cache.err = errors.New("connection refused")
	r := NewResolver(repo, cache, zerolog.Nop())

	got, err := r.Resolve(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("cache failure must not fail resolution: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q", got.Username)
	}
}
