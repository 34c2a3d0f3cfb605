package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/edufin/internal/directory"
	"github.com/dvloznov/edufin/internal/domain"
	"github.com/rs/zerolog"
)

// SignupRequest carries the profile captured at registration.
type SignupRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	Department string `json:"department,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// Authenticator combines the provider, the role policy and the session table.
type Authenticator struct {
	provider  Provider
	roles     RoleResolver
	directory directory.Repository
	sessions  *Sessions
	log       zerolog.Logger
}

// NewAuthenticator wires an Authenticator. repo may be nil.
func NewAuthenticator(provider Provider, roles RoleResolver, repo directory.Repository, sessions *Sessions, log zerolog.Logger) *Authenticator {
	return &Authenticator{provider: provider, roles: roles, directory: repo, sessions: sessions, log: log}
}

// Signup creates the account and stores its profile. The role comes from
// the role policy, never from the request.
func (a *Authenticator) Signup(ctx context.Context, req SignupRequest) (domain.User, error) {
	acct, err := a.provider.CreateAccount(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return domain.User{}, fmt.Errorf("Signup: %w", err)
	}
	role, err := a.roles.Resolve(ctx, acct.Email)
	if err != nil {
		return domain.User{}, fmt.Errorf("Signup: resolve role: %w", err)
	}
	user := domain.User{ID: acct.ID, Name: acct.Name, Email: acct.Email, Role: role, Department: req.Department, Phone: req.Phone}

	if a.directory != nil {
		if err := a.directory.Create(ctx, user); err != nil {
			// the account exists upstream; a missing profile only loses optional fields
			a.log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to save user profile")
		}
	}
	a.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("User signed up")
	return user, nil
}

// Login authenticates and issues a bearer token.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	ps, err := a.provider.Login(ctx, email, password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("Login: %w", err)
	}
	role, err := a.roles.Resolve(ctx, ps.Account.Email)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("Login: resolve role: %w", err)
	}
	user := domain.User{ID: ps.Account.ID, Name: ps.Account.Name, Email: ps.Account.Email, Role: role}
	if a.directory != nil {
		if profile, err := a.directory.GetByUserID(ctx, user.ID); err == nil {
			user.Department, user.Phone = profile.Department, profile.Phone
		}
	}

	token := a.sessions.Issue(user, ps.Token)
	a.log.Info().Str("user_id", user.ID).Str("role", string(role)).Msg("User logged in")
	return token, user, nil
}

// Authenticate resolves a bearer token.
func (a *Authenticator) Authenticate(token string) (domain.User, error) {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if u, ok := a.sessions.Lookup(token); ok {
		return u, nil
	}
	return domain.User{}, ErrUnauthenticated
}

// Logout revokes the token locally even when the provider call fails.
func (a *Authenticator) Logout(ctx context.Context, token string) error {
	providerToken, ok := a.sessions.Revoke(strings.TrimPrefix(token, "Bearer "))
	if !ok {
		return ErrUnauthenticated
	}
	if err := a.provider.Logout(ctx, providerToken); err != nil {
		a.log.Warn().Err(err).Msg("Provider logout failed, proceeding with local logout")
	}
	return nil
}
