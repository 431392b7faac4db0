// Package directory resolves user ids to display identity for message
// enrichment. Profiles change rarely, so lookups go through a short-lived
// cache when one is configured; cache trouble is logged and treated as a
// miss rather than surfaced.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/makwansoran/gomercant/internal/domain"
	"github.com/makwansoran/gomercant/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

const cacheTTL = 5 * time.Minute

type Resolver struct {
	users repository.UserRepository
	cache Cache // nil when Redis is not configured
	log   zerolog.Logger
}

func NewResolver(users repository.UserRepository, cache Cache, log zerolog.Logger) *Resolver {
	return &Resolver{users: users, cache: cache, log: log}
}

// Resolve returns the display identity for id, or ErrUserNotFound.
func (r *Resolver) Resolve(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	key := "directory:user:" + id.String()

	if r.cache != nil {
		cached, err := r.cache.Get(ctx, key)
		if err == nil {
			var u domain.User
			if err := json.Unmarshal([]byte(cached), &u); err == nil {
				return &u, nil
			}
		} else if !errors.Is(err, ErrCacheMiss) {
			r.log.Warn().Err(err).Str("user_id", id.String()).Msg("directory cache get failed")
		}
	}

	user, err := r.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	user.PasswordHash = ""

	if r.cache != nil {
		if data, err := json.Marshal(user); err == nil {
			if err := r.cache.Set(ctx, key, string(data), cacheTTL); err != nil {
				r.log.Warn().Err(err).Str("user_id", id.String()).Msg("directory cache set failed")
			}
		}
	}

	return user, nil
}
