package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	awaccount "github.com/appwrite/sdk-for-go/account"
	"github.com/appwrite/sdk-for-go/appwrite"
	"github.com/appwrite/sdk-for-go/client"
	"github.com/appwrite/sdk-for-go/id"
	"github.com/appwrite/sdk-for-go/models"
)

// ErrUnavailable marks provider failures that say nothing about the
// credentials: transport errors, throttling and 5xx answers.
var ErrUnavailable = errors.New("identity provider unavailable")

// AppwriteProvider talks to the Appwrite account API. Sessions are created
// with the server API key and the provider token is the session secret.
type AppwriteProvider struct {
	endpoint  string
	projectID string
	apiKey    string
	timeout   time.Duration
}

// NewAppwriteProvider targets endpoint (e.g. https://cloud.appwrite.io/v1).
func NewAppwriteProvider(endpoint, projectID, apiKey string) *AppwriteProvider {
	return &AppwriteProvider{
		endpoint:  strings.TrimRight(endpoint, "/"),
		projectID: projectID,
		apiKey:    apiKey,
		timeout:   10 * time.Second,
	}
}

// accounts builds the account service on a fresh client. SDK clients carry
// a cookie jar, so one is never shared between users.
func (p *AppwriteProvider) accounts(opts ...client.ClientOption) *awaccount.Account {
	base := []client.ClientOption{
		appwrite.WithTimeout(p.timeout),
		appwrite.WithEndpoint(p.endpoint),
		appwrite.WithProject(p.projectID),
	}
	return appwrite.NewAccount(appwrite.NewClient(append(base, opts...)...))
}

func fromAppwrite(op string, err error) error {
	var ae *client.AppwriteError
	if !errors.As(err, &ae) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	switch code := ae.GetStatusCode(); {
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidCredentials, ae.GetMessage())
	case code == http.StatusConflict:
		return fmt.Errorf("%s: %w: %s", op, ErrAccountExists, ae.GetMessage())
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: status %d: %s", op, ErrUnavailable, code, ae.GetMessage())
	default:
		return fmt.Errorf("%s: appwrite status %d: %s", op, code, ae.GetMessage())
	}
}

func fromUser(u *models.User) Account {
	return Account{ID: u.Id, Name: u.Name, Email: u.Email}
}

// CreateAccount implements Provider. The SDK does not take a context, so
// ctx is only checked before the call.
func (p *AppwriteProvider) CreateAccount(ctx context.Context, email, password, name string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	acc := p.accounts()
	u, err := acc.Create(id.Unique(), email, password, acc.WithCreateName(name))
	if err != nil {
		return Account{}, fromAppwrite("CreateAccount", err)
	}
	return fromUser(u), nil
}

// Login implements Provider.
func (p *AppwriteProvider) Login(ctx context.Context, email, password string) (ProviderSession, error) {
	if err := ctx.Err(); err != nil {
		return ProviderSession{}, err
	}
	var opts []client.ClientOption
	if p.apiKey != "" {
		opts = append(opts, appwrite.WithKey(p.apiKey))
	}
	s, err := p.accounts(opts...).CreateEmailPasswordSession(email, password)
	if err != nil {
		return ProviderSession{}, fromAppwrite("Login", err)
	}
	if s.Secret == "" {
		return ProviderSession{}, errors.New("Login: appwrite returned no session secret, configure an API key")
	}

	acct, err := p.CurrentUser(ctx, s.Secret)
	if err != nil {
		return ProviderSession{}, fmt.Errorf("Login: %w", err)
	}
	return ProviderSession{Account: acct, Token: s.Secret}, nil
}

// CurrentUser implements Provider.
func (p *AppwriteProvider) CurrentUser(ctx context.Context, token string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	u, err := p.accounts(appwrite.WithSession(token)).Get()
	if err != nil {
		return Account{}, fromAppwrite("CurrentUser", err)
	}
	return fromUser(u), nil
}

// Logout implements Provider.
func (p *AppwriteProvider) Logout(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.accounts(appwrite.WithSession(token)).DeleteSession("current"); err != nil {
		return fromAppwrite("Logout", err)
	}
	return nil
}

var _ Provider = (*AppwriteProvider)(nil)
