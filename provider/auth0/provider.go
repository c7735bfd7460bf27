package auth0

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	goauth0 "github.com/auth0/go-auth0"
	"github.com/auth0/go-auth0/management"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"golang.org/x/time/rate"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/internal/broadcast"
	"github.com/goliatone/go-authstate/provider"
)

const providerName = "auth0"

// Operation names used in provider errors.
const (
	OpSignIn            = "sign_in"
	OpDeleteAccount     = "delete_account"
	OpCreateUser        = "create_user"
	OpSignInWithEmail   = "sign_in_with_email"
	OpSendPasswordReset = "send_password_reset"
	OpUpdatePassword    = "update_password"
	OpUpdateEmail       = "update_email"
	OpRefresh           = "refresh"
)

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider logger.
func WithLogger(logger authstate.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithSocialTokenSource enables Apple and Google sign in.
func WithSocialTokenSource(source SocialTokenSource) Option {
	return func(p *Provider) {
		p.social = source
	}
}

// WithLimiter replaces the Management API rate limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(p *Provider) {
		if limiter != nil {
			p.limiter = limiter
		}
	}
}

// WithUser seeds the signed in user, typically restored from a previous
// session.
func WithUser(user *authstate.User) Option {
	return func(p *Provider) {
		p.current = user.Clone()
	}
}

// Provider implements authstate.Provider against Auth0.
type Provider struct {
	cfg     Config
	users   UserManager
	auth    Authenticator
	social  SocialTokenSource
	limiter *rate.Limiter
	logger  authstate.Logger
	hub     *broadcast.Hub[*authstate.User]

	mu      sync.Mutex
	current *authstate.User
}

var _ authstate.Provider = (*Provider)(nil)

// New builds a Provider with the SDK clients for cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	users, err := newManagementUsers(ctx, cfg)
	if err != nil {
		return nil, err
	}

	auth, err := newPasswordAuthenticator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return NewWithClients(cfg, users, auth, opts...), nil
}

// NewWithClients builds a Provider over explicit clients.
func NewWithClients(cfg Config, users UserManager, auth Authenticator, opts ...Option) *Provider {
	if strings.TrimSpace(cfg.Connection) == "" {
		cfg.Connection = DefaultConnection
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	p := &Provider{
		cfg:     cfg,
		users:   users,
		auth:    auth,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.RequestsPerSecond),
		hub:     broadcast.New[*authstate.User](),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.logger == nil {
		_, p.logger = authstate.ResolveLogger("authstate.auth0", nil, nil)
	}
	return p
}

// CurrentUser implements authstate.Provider.
func (p *Provider) CurrentUser() *authstate.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Clone()
}

// Subscribe implements authstate.Provider. The stream yields the current
// value first.
func (p *Provider) Subscribe(ctx context.Context) <-chan *authstate.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hub.Subscribe(ctx, p.current.Clone())
}

// Close ends every open subscription.
func (p *Provider) Close() {
	p.hub.Close()
}

// SignIn implements authstate.Provider for apple and google. Auth0 has no
// anonymous accounts.
func (p *Provider) SignIn(ctx context.Context, option authstate.SignInOption) (authstate.SignInResult, error) {
	var connection string
	switch option.Kind() {
	case authstate.SignInKindApple:
		connection = ConnectionApple
	case authstate.SignInKindGoogle:
		if strings.TrimSpace(option.ClientID()) == "" {
			return authstate.SignInResult{}, provider.ErrMissingClientID
		}
		connection = ConnectionGoogle
	default:
		return authstate.SignInResult{}, provider.ErrUnsupportedOption
	}

	if p.social == nil {
		return authstate.SignInResult{}, provider.Wrap(provider.ErrUnsupportedOption, providerName, OpSignIn,
			errors.New("no social token source configured"))
	}

	token, err := p.social.Token(ctx, connection, option.ClientID())
	if err != nil {
		return authstate.SignInResult{}, classify(OpSignIn, err)
	}

	return p.establish(ctx, OpSignIn, token)
}

// SignOut implements authstate.Provider. Auth0 sessions are browser bound,
// so only the local session is dropped.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.setCurrent(nil)
	return nil
}

// DeleteAccount implements authstate.Provider.
func (p *Provider) DeleteAccount(ctx context.Context) error {
	current := p.CurrentUser()
	if current == nil {
		return provider.ErrNoCurrentUser
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	if err := p.users.Delete(ctx, current.UID); err != nil {
		return classify(OpDeleteAccount, err)
	}

	p.logger.Info("auth0 account deleted", "user_id", current.UID)
	p.setCurrent(nil)
	return nil
}

// CreateUserWithEmail implements authstate.Provider. The account is created
// through the Management API and then signed in with the password grant.
func (p *Provider) CreateUserWithEmail(ctx context.Context, email, password string) (authstate.SignInResult, error) {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return authstate.SignInResult{}, err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return authstate.SignInResult{}, err
	}
	created := &management.User{
		Connection: goauth0.String(p.cfg.Connection),
		Email:      goauth0.String(email),
		Password:   goauth0.String(password),
	}
	if err := p.users.Create(ctx, created); err != nil {
		return authstate.SignInResult{}, classify(OpCreateUser, err)
	}

	token, err := p.auth.LoginWithPassword(ctx, email, password)
	if err != nil {
		return authstate.SignInResult{}, classify(OpCreateUser, err)
	}

	result, err := p.establish(ctx, OpCreateUser, token)
	if err != nil {
		return authstate.SignInResult{}, err
	}
	result.IsNewUser = true
	return result, nil
}

// SignInWithEmail implements authstate.Provider.
func (p *Provider) SignInWithEmail(ctx context.Context, email, password string) (authstate.SignInResult, error) {
	token, err := p.auth.LoginWithPassword(ctx, strings.TrimSpace(email), password)
	if err != nil {
		return authstate.SignInResult{}, classify(OpSignInWithEmail, err)
	}
	return p.establish(ctx, OpSignInWithEmail, token)
}

// SendPasswordReset implements authstate.Provider.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := p.auth.ChangePassword(ctx, email); err != nil {
		return classify(OpSendPasswordReset, err)
	}
	return nil
}

// UpdatePassword implements authstate.Provider.
func (p *Provider) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	if err := p.requireCurrent(uid); err != nil {
		return err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	update := &management.User{
		Connection: goauth0.String(p.cfg.Connection),
		Password:   goauth0.String(newPassword),
	}
	if err := p.users.Update(ctx, uid, update); err != nil {
		return classify(OpUpdatePassword, err)
	}
	return nil
}

// UpdateEmail implements authstate.Provider. The updated account is read
// back and pushed to subscribers.
func (p *Provider) UpdateEmail(ctx context.Context, uid, newEmail string) error {
	if err := p.requireCurrent(uid); err != nil {
		return err
	}
	newEmail = strings.TrimSpace(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return err
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	update := &management.User{
		Connection: goauth0.String(p.cfg.Connection),
		Email:      goauth0.String(newEmail),
	}
	if err := p.users.Update(ctx, uid, update); err != nil {
		return classify(OpUpdateEmail, err)
	}

	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("auth0 refresh after email update failed", "user_id", uid, "error", err)
	}
	return nil
}

// Refresh re-reads the signed in account and pushes it when it changed.
// A deleted account signs the user out.
func (p *Provider) Refresh(ctx context.Context) error {
	current := p.CurrentUser()
	if current == nil {
		return nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}
	remote, err := p.users.Read(ctx, current.UID)
	if err != nil && !isNotFound(err) {
		return classify(OpRefresh, err)
	}

	var next *authstate.User
	if err == nil {
		next = mapAuth0User(remote)
	} else {
		p.logger.Info("auth0 account no longer exists", "user_id", current.UID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Someone signed in or out while the account was being read.
	if p.current == nil || p.current.UID != current.UID {
		return nil
	}
	if p.current.Equal(next) {
		return nil
	}
	p.current = next.Clone()
	p.hub.Publish(p.current.Clone())
	return nil
}

// RunRefresher calls Refresh every interval until ctx is done. A
// non-positive interval uses the configured RefreshInterval.
func (p *Provider) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = p.cfg.RefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil && ctx.Err() == nil {
				p.logger.Warn("auth0 refresh failed", "error", err)
			}
		}
	}
}

// establish resolves the account behind an ID token and makes it current.
func (p *Provider) establish(ctx context.Context, operation, idToken string) (authstate.SignInResult, error) {
	uid, err := subjectFromToken(idToken, p.cfg.issuerURL())
	if err != nil {
		return authstate.SignInResult{}, classify(operation, err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return authstate.SignInResult{}, err
	}
	remote, err := p.users.Read(ctx, uid)
	if err != nil {
		return authstate.SignInResult{}, classify(operation, err)
	}

	user := mapAuth0User(remote)
	p.setCurrent(user)
	p.logger.Debug("auth0 session established", "user_id", user.UID, "operation", operation)

	return authstate.SignInResult{User: *user.Clone(), IsNewUser: isNewUser(remote)}, nil
}

func (p *Provider) requireCurrent(uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.UID != uid {
		return provider.ErrUserNotFound
	}
	return nil
}

func (p *Provider) setCurrent(user *authstate.User) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = user.Clone()
	p.hub.Publish(p.current.Clone())
}

func validateEmail(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return provider.ErrInvalidEmail
	}
	return nil
}
