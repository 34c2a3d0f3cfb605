// Package identity authenticates users against an external identity
// provider and resolves their roles from an injected policy.
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
	"github.com/dvloznov/edufin/internal/logger"
)

var (
	// ErrInvalidCredentials is returned for a failed login.
	ErrInvalidCredentials = errors.New("Invalid credentials")
	// ErrAccountExists is returned when signing up with a taken email.
	ErrAccountExists = errors.New("User with this email already exists")
	// ErrUnauthenticated is returned for unknown or revoked tokens.
	ErrUnauthenticated = errors.New("not authenticated")
)

// Account is the provider's view of a user.
type Account struct {
	ID    string `json:"$id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProviderSession binds an account to the provider's session credential.
type ProviderSession struct {
	Account Account
	Token   string
}

// Provider is an external identity service.
type Provider interface {
	CreateAccount(ctx context.Context, email, password, name string) (Account, error)
	Login(ctx context.Context, email, password string) (ProviderSession, error)
	CurrentUser(ctx context.Context, token string) (Account, error)
	Logout(ctx context.Context, token string) error
}

// MockUser is a development account with a plain-text password.
type MockUser struct {
	domain.User
	Password string
}

// DefaultMockUsers are accepted by DevFallback.
func DefaultMockUsers() []MockUser {
	return []MockUser{
		{User: domain.User{ID: "1", Name: "Admin User", Email: "admin@example.com", Role: domain.RoleAdmin}, Password: "password123"},
		{User: domain.User{ID: "2", Name: "Student User", Email: "student@example.com", Role: domain.RoleStudent}, Password: "password123"},
	}
}

const devTokenPrefix = "dev:"

// DevFallback tries Upstream first and serves the mock users only when
// Upstream is unavailable. Any answer from a reachable Upstream is final.
type DevFallback struct {
	Upstream Provider
	Users    []MockUser
	Now      func() time.Time

	mu      sync.Mutex
	created []MockUser
}

// NewDevFallback wraps upstream with the default mock users. upstream may be nil.
func NewDevFallback(upstream Provider) *DevFallback {
	return &DevFallback{Upstream: upstream, Users: DefaultMockUsers(), Now: time.Now}
}

func (d *DevFallback) find(email string) (MockUser, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range append(append([]MockUser(nil), d.Users...), d.created...) {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return MockUser{}, false
}

func (d *DevFallback) findID(id string) (MockUser, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range append(append([]MockUser(nil), d.Users...), d.created...) {
		if u.ID == id {
			return u, true
		}
	}
	return MockUser{}, false
}

func account(u MockUser) Account {
	return Account{ID: u.ID, Name: u.Name, Email: u.Email}
}

// CreateAccount implements Provider.
func (d *DevFallback) CreateAccount(ctx context.Context, email, password, name string) (Account, error) {
	if d.Upstream != nil {
		acct, err := d.Upstream.CreateAccount(ctx, email, password, name)
		if !errors.Is(err, ErrUnavailable) {
			return acct, err
		}
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Identity provider signup failed, using dev accounts")
	}
	if _, exists := d.find(email); exists {
		return Account{}, ErrAccountExists
	}
	u := MockUser{User: domain.User{ID: strconv.FormatInt(d.Now().UnixMilli(), 10), Name: name, Email: email}, Password: password}
	d.mu.Lock()
	d.created = append(d.created, u)
	d.mu.Unlock()
	return account(u), nil
}

// Login implements Provider.
func (d *DevFallback) Login(ctx context.Context, email, password string) (ProviderSession, error) {
	if d.Upstream != nil {
		s, err := d.Upstream.Login(ctx, email, password)
		if !errors.Is(err, ErrUnavailable) {
			return s, err
		}
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Identity provider login failed, trying dev accounts")
	}
	u, ok := d.find(email)
	if !ok || u.Password != password {
		return ProviderSession{}, ErrInvalidCredentials
	}
	return ProviderSession{Account: account(u), Token: devTokenPrefix + u.ID}, nil
}

// CurrentUser implements Provider.
func (d *DevFallback) CurrentUser(ctx context.Context, token string) (Account, error) {
	if id, ok := strings.CutPrefix(token, devTokenPrefix); ok {
		if u, found := d.findID(id); found {
			return account(u), nil
		}
		return Account{}, ErrUnauthenticated
	}
	if d.Upstream == nil {
		return Account{}, ErrUnauthenticated
	}
	return d.Upstream.CurrentUser(ctx, token)
}

// Logout implements Provider. Dev sessions need no upstream call.
func (d *DevFallback) Logout(ctx context.Context, token string) error {
	if strings.HasPrefix(token, devTokenPrefix) || d.Upstream == nil {
		return nil
	}
	return d.Upstream.Logout(ctx, token)
}

var _ Provider = (*DevFallback)(nil)
