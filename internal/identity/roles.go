package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/edufin/internal/cache"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/logger"
)

// RoleResolver decides a user's role from their email. Unknown users are students.
type RoleResolver interface {
	Resolve(ctx context.Context, email string) (domain.Role, error)
}

// StaticResolver looks roles up in a fixed table.
type StaticResolver map[string]domain.Role

// NewStaticResolver builds a table from users.
func NewStaticResolver(users ...domain.User) StaticResolver {
	s := make(StaticResolver, len(users))
	for _, u := range users {
		s[strings.ToLower(u.Email)] = u.Role
	}
	return s
}

// Resolve implements RoleResolver.
func (s StaticResolver) Resolve(_ context.Context, email string) (domain.Role, error) {
	if r, ok := s[strings.ToLower(strings.TrimSpace(email))]; ok {
		return r, nil
	}
	return domain.RoleStudent, nil
}

// DirectoryResolver reads the role stored with the user's profile.
type DirectoryResolver struct {
	Repo directory.Repository
}

// Resolve implements RoleResolver.
func (d DirectoryResolver) Resolve(ctx context.Context, email string) (domain.Role, error) {
	u, err := d.Repo.GetByEmail(ctx, email)
	if errors.Is(err, directory.ErrNotFound) {
		return domain.RoleStudent, nil
	}
	if err != nil {
		return "", fmt.Errorf("Resolve: %w", err)
	}
	if u.Role == "" {
		return domain.RoleStudent, nil
	}
	return u.Role, nil
}

// CachedResolver memoizes Next in a cache. Cache failures fall through to Next.
type CachedResolver struct {
	Next  RoleResolver
	Cache cache.Cache
	TTL   time.Duration
}

func roleKey(email string) string {
	return "role:" + strings.ToLower(strings.TrimSpace(email))
}

// Resolve implements RoleResolver.
func (c CachedResolver) Resolve(ctx context.Context, email string) (domain.Role, error) {
	key := roleKey(email)
	if raw, err := c.Cache.Get(ctx, key); err == nil {
		return domain.Role(raw), nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("key", key).Msg("Role cache read failed")
	}

	role, err := c.Next.Resolve(ctx, email)
	if err != nil {
		return "", err
	}
	if err := c.Cache.Set(ctx, key, []byte(role), c.TTL); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("key", key).Msg("Role cache write failed")
	}
	return role, nil
}

var (
	_ RoleResolver = StaticResolver(nil)
	_ RoleResolver = DirectoryResolver{}
	_ RoleResolver = CachedResolver{}
)
