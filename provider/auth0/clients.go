package auth0

import (
	"context"
	"fmt"

	"github.com/auth0/go-auth0/authentication"
	"github.com/auth0/go-auth0/authentication/database"
	"github.com/auth0/go-auth0/authentication/oauth"
	"github.com/auth0/go-auth0/management"
)

// UserManager is the subset of the Management API the provider needs.
type UserManager interface {
	Create(ctx context.Context, user *management.User) error
	Read(ctx context.Context, id string) (*management.User, error)
	Update(ctx context.Context, id string, user *management.User) error
	Delete(ctx context.Context, id string) error
}

// Authenticator is the subset of the Authentication API the provider needs.
type Authenticator interface {
	// LoginWithPassword runs the password grant and returns the ID token.
	LoginWithPassword(ctx context.Context, email, password string) (string, error)
	// ChangePassword asks Auth0 to send a password reset email.
	ChangePassword(ctx context.Context, email string) error
}

// SocialTokenSource runs an interactive social login for connection
// ("apple", "google-oauth2") and returns the resulting Auth0 ID token.
// clientID is the OAuth client requested by the caller, empty for Apple.
type SocialTokenSource interface {
	Token(ctx context.Context, connection, clientID string) (string, error)
}

// SocialTokenSourceFunc adapts a function to SocialTokenSource.
type SocialTokenSourceFunc func(ctx context.Context, connection, clientID string) (string, error)

func (f SocialTokenSourceFunc) Token(ctx context.Context, connection, clientID string) (string, error) {
	return f(ctx, connection, clientID)
}

type managementUsers struct {
	mgmt *management.Management
}

func newManagementUsers(ctx context.Context, cfg Config) (*managementUsers, error) {
	mgmt, err := management.New(
		cfg.domain(),
		management.WithClientCredentials(ctx, cfg.ClientID, cfg.ClientSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("auth0: failed to create management client: %w", err)
	}
	return &managementUsers{mgmt: mgmt}, nil
}

func (m *managementUsers) Create(ctx context.Context, user *management.User) error {
	return m.mgmt.User.Create(ctx, user)
}

func (m *managementUsers) Read(ctx context.Context, id string) (*management.User, error) {
	return m.mgmt.User.Read(ctx, id)
}

func (m *managementUsers) Update(ctx context.Context, id string, user *management.User) error {
	return m.mgmt.User.Update(ctx, id, user)
}

func (m *managementUsers) Delete(ctx context.Context, id string) error {
	return m.mgmt.User.Delete(ctx, id)
}

type passwordAuthenticator struct {
	client     *authentication.Authentication
	clientID   string
	connection string
	audience   string
}

func newPasswordAuthenticator(ctx context.Context, cfg Config) (*passwordAuthenticator, error) {
	client, err := authentication.New(
		ctx,
		cfg.domain(),
		authentication.WithClientID(cfg.ClientID),
		authentication.WithClientSecret(cfg.ClientSecret),
	)
	if err != nil {
		return nil, fmt.Errorf("auth0: failed to create authentication client: %w", err)
	}
	return &passwordAuthenticator{
		client:     client,
		clientID:   cfg.ClientID,
		connection: cfg.Connection,
		audience:   cfg.Audience,
	}, nil
}

func (a *passwordAuthenticator) LoginWithPassword(ctx context.Context, email, password string) (string, error) {
	tokens, err := a.client.OAuth.LoginWithPassword(ctx, oauth.LoginWithPasswordRequest{
		Username: email,
		Password: password,
		Realm:    a.connection,
		Audience: a.audience,
		Scope:    "openid profile email",
	}, oauth.IDTokenValidationOptions{})
	if err != nil {
		return "", err
	}
	return tokens.IDToken, nil
}

func (a *passwordAuthenticator) ChangePassword(ctx context.Context, email string) error {
	_, err := a.client.Database.ChangePassword(ctx, database.ChangePasswordRequest{
		ClientID:   a.clientID,
		Email:      email,
		Connection: a.connection,
	})
	return err
}
