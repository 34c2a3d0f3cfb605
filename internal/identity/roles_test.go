package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dvloznov/edufin/internal/cache"
	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls int
	role  domain.Role
	err   error
}

func (c *countingResolver) Resolve(context.Context, string) (domain.Role, error) {
	c.calls++
	return c.role, c.err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) ([]byte, error) { return nil, errors.New("down") }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("down")
}
func (brokenCache) Delete(context.Context, string) error { return errors.New("down") }

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(directory.SeedUsers()...)
	for email, want := range map[string]domain.Role{
		"admin@example.com":   domain.RoleAdmin,
		"ADMIN@EXAMPLE.COM":   domain.RoleAdmin,
		"student@example.com": domain.RoleStudent,
		"someone@else.org":    domain.RoleStudent,
	} {
		got, err := r.Resolve(context.Background(), email)
		require.NoError(t, err)
		assert.Equal(t, want, got, email)
	}
}

func TestDirectoryResolver(t *testing.T) {
	repo := directory.NewMemoryRepository(domain.User{ID: "9", Email: "dean@uni.edu", Role: domain.RoleAdmin}, domain.User{ID: "10", Email: "norole@uni.edu"})
	r := DirectoryResolver{Repo: repo}

	got, err := r.Resolve(context.Background(), "dean@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got)

	got, err = r.Resolve(context.Background(), "norole@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, got)

	got, err = r.Resolve(context.Background(), "new@uni.edu")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, got)
}

func TestCachedResolver(t *testing.T) {
	ctx := context.Background()
	next := &countingResolver{role: domain.RoleAdmin}
	r := CachedResolver{Next: next, Cache: cache.NewMemoryCache(), TTL: time.Minute}

	for range 3 {
		got, err := r.Resolve(ctx, "Admin@Example.com")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, got)
	}
	assert.Equal(t, 1, next.calls)

	broken := CachedResolver{Next: next, Cache: brokenCache{}}
	got, err := broken.Resolve(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got)
	assert.Equal(t, 2, next.calls)

	failing := CachedResolver{Next: &countingResolver{err: errors.New("mongo down")}, Cache: cache.NewMemoryCache()}
	_, err = failing.Resolve(ctx, "x@y.z")
	assert.Error(t, err)
}
