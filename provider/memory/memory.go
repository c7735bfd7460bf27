// Package memory implements an in-process authstate.Provider. Accounts live in
// a map, passwords are bcrypt hashed and every state change is pushed to
// subscribers. It backs tests and local development.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/internal/broadcast"
	"github.com/goliatone/go-authstate/provider"
)

// Operation names accepted by FailNext and Calls.
const (
	OpSignIn            = "sign_in"
	OpSignOut           = "sign_out"
	OpDeleteAccount     = "delete_account"
	OpCreateUser        = "create_user"
	OpSignInWithEmail   = "sign_in_with_email"
	OpSendPasswordReset = "send_password_reset"
	OpUpdatePassword    = "update_password"
	OpUpdateEmail       = "update_email"
)

// Option configures a Provider.
type Option func(*Provider)

// WithUser seeds the signed in user.
func WithUser(user *authstate.User) Option {
	return func(p *Provider) {
		p.current = user.Clone()
	}
}

// WithClock overrides time.Now for creation and sign in dates.
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// WithPasswordCost sets the bcrypt cost used for new passwords.
func WithPasswordCost(cost int) Option {
	return func(p *Provider) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			p.cost = cost
		}
	}
}

// WithIDGenerator overrides UID generation.
func WithIDGenerator(fn func() string) Option {
	return func(p *Provider) {
		if fn != nil {
			p.newID = fn
		}
	}
}

type account struct {
	user authstate.User
	hash []byte
}

// Provider is an in-memory authstate.Provider.
type Provider struct {
	mu        sync.Mutex
	current   *authstate.User
	accounts  map[string]*account
	federated map[authstate.SignInKind]*authstate.User
	hub       *broadcast.Hub[*authstate.User]

	now   func() time.Time
	newID func() string
	cost  int

	failures map[string]error
	calls    map[string]int
	resets   []string
}

var _ authstate.Provider = (*Provider)(nil)

// New builds a Provider. A seeded non anonymous user with an email is also
// registered as an email account without a password.
func New(opts ...Option) *Provider {
	p := &Provider{
		accounts:  map[string]*account{},
		federated: map[authstate.SignInKind]*authstate.User{},
		hub:       broadcast.New[*authstate.User](),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		cost:      bcrypt.DefaultCost,
		failures:  map[string]error{},
		calls:     map[string]int{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	if p.current != nil && !p.current.IsAnonymous && p.current.Email != "" {
		p.accounts[normalizeEmail(p.current.Email)] = &account{user: *p.current.Clone()}
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

// SignIn implements authstate.Provider for anonymous, apple and google.
func (p *Provider) SignIn(ctx context.Context, option authstate.SignInOption) (authstate.SignInResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpSignIn); err != nil {
		return authstate.SignInResult{}, err
	}

	switch option.Kind() {
	case authstate.SignInKindAnonymous:
		return p.signInAnonymousLocked(), nil
	case authstate.SignInKindGoogle:
		if strings.TrimSpace(option.ClientID()) == "" {
			return authstate.SignInResult{}, provider.ErrMissingClientID
		}
		return p.signInFederatedLocked(option), nil
	case authstate.SignInKindApple:
		return p.signInFederatedLocked(option), nil
	default:
		return authstate.SignInResult{}, provider.ErrUnsupportedOption
	}
}

func (p *Provider) signInAnonymousLocked() authstate.SignInResult {
	if p.current != nil && p.current.IsAnonymous {
		p.current.LastSignInDate = p.now()
		p.pushLocked()
		return authstate.SignInResult{User: *p.current.Clone()}
	}

	now := p.now()
	user := &authstate.User{
		UID:            p.newID(),
		IsAnonymous:    true,
		AuthProviders:  []authstate.AuthProviderTag{authstate.AuthProviderAnonymous},
		CreationDate:   now,
		LastSignInDate: now,
	}
	p.current = user
	p.pushLocked()

	return authstate.SignInResult{User: *user.Clone(), IsNewUser: true}
}

func (p *Provider) signInFederatedLocked(option authstate.SignInOption) authstate.SignInResult {
	tag := option.ProviderTag()
	now := p.now()

	// Linking keeps the UID, and hosted providers do not notify listeners
	// when only the linked providers change.
	if p.current != nil && p.current.IsAnonymous {
		linked := p.current.WithProvider(tag)
		linked.IsAnonymous = false
		linked.LastSignInDate = now
		p.current = linked
		p.federated[option.Kind()] = linked.Clone()
		return authstate.SignInResult{User: *linked.Clone()}
	}

	if existing, ok := p.federated[option.Kind()]; ok {
		user := existing.Clone()
		user.LastSignInDate = now
		p.federated[option.Kind()] = user.Clone()
		p.current = user
		p.pushLocked()
		return authstate.SignInResult{User: *user.Clone()}
	}

	user := &authstate.User{
		UID:            p.newID(),
		AuthProviders:  []authstate.AuthProviderTag{tag},
		CreationDate:   now,
		LastSignInDate: now,
	}
	p.federated[option.Kind()] = user.Clone()
	p.current = user
	p.pushLocked()

	return authstate.SignInResult{User: *user.Clone(), IsNewUser: true}
}

// SignOut implements authstate.Provider. Signing out while signed out
// succeeds.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpSignOut); err != nil {
		return err
	}

	p.current = nil
	p.pushLocked()
	return nil
}

// DeleteAccount implements authstate.Provider.
func (p *Provider) DeleteAccount(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpDeleteAccount); err != nil {
		return err
	}
	if p.current == nil {
		return provider.ErrNoCurrentUser
	}

	uid := p.current.UID
	for email, acc := range p.accounts {
		if acc.user.UID == uid {
			delete(p.accounts, email)
		}
	}
	for kind, user := range p.federated {
		if user.UID == uid {
			delete(p.federated, kind)
		}
	}

	p.current = nil
	p.pushLocked()
	return nil
}

// CreateUserWithEmail implements authstate.Provider.
func (p *Provider) CreateUserWithEmail(ctx context.Context, email, password string) (authstate.SignInResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpCreateUser); err != nil {
		return authstate.SignInResult{}, err
	}
	if err := validateEmail(email); err != nil {
		return authstate.SignInResult{}, err
	}

	key := normalizeEmail(email)
	if _, ok := p.accounts[key]; ok {
		return authstate.SignInResult{}, provider.ErrEmailAlreadyInUse
	}

	hash, err := hashPassword(password, p.cost)
	if err != nil {
		return authstate.SignInResult{}, err
	}

	now := p.now()
	user := authstate.User{
		UID:            p.newID(),
		Email:          strings.TrimSpace(email),
		AuthProviders:  []authstate.AuthProviderTag{authstate.AuthProviderEmail},
		CreationDate:   now,
		LastSignInDate: now,
	}
	p.accounts[key] = &account{user: user, hash: hash}
	p.current = user.Clone()
	p.pushLocked()

	return authstate.SignInResult{User: *user.Clone(), IsNewUser: true}, nil
}

// SignInWithEmail implements authstate.Provider.
func (p *Provider) SignInWithEmail(ctx context.Context, email, password string) (authstate.SignInResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpSignInWithEmail); err != nil {
		return authstate.SignInResult{}, err
	}

	acc, ok := p.accounts[normalizeEmail(email)]
	if !ok {
		return authstate.SignInResult{}, provider.ErrInvalidCredentials
	}
	if err := comparePassword(password, acc.hash); err != nil {
		return authstate.SignInResult{}, err
	}

	acc.user.LastSignInDate = p.now()
	p.current = acc.user.Clone()
	p.pushLocked()

	return authstate.SignInResult{User: *acc.user.Clone()}, nil
}

// SendPasswordReset implements authstate.Provider. Requests are recorded
// instead of delivered.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpSendPasswordReset); err != nil {
		return err
	}
	if _, ok := p.accounts[normalizeEmail(email)]; !ok {
		return provider.ErrUserNotFound
	}

	p.resets = append(p.resets, email)
	return nil
}

// UpdatePassword implements authstate.Provider.
func (p *Provider) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpUpdatePassword); err != nil {
		return err
	}
	if p.current == nil || p.current.UID != uid {
		return provider.ErrUserNotFound
	}

	hash, err := hashPassword(newPassword, p.cost)
	if err != nil {
		return err
	}

	if acc := p.accountByUIDLocked(uid); acc != nil {
		acc.hash = hash
		return nil
	}

	// A federated or anonymous user gains an email credential only once it
	// has an email address.
	if p.current.Email == "" {
		return provider.ErrInvalidEmail
	}
	p.accounts[normalizeEmail(p.current.Email)] = &account{user: *p.current.Clone(), hash: hash}
	return nil
}

// UpdateEmail implements authstate.Provider. The new snapshot is pushed to
// subscribers.
func (p *Provider) UpdateEmail(ctx context.Context, uid, newEmail string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.begin(ctx, OpUpdateEmail); err != nil {
		return err
	}
	if p.current == nil || p.current.UID != uid {
		return provider.ErrUserNotFound
	}
	if err := validateEmail(newEmail); err != nil {
		return err
	}

	key := normalizeEmail(newEmail)
	if existing, ok := p.accounts[key]; ok && existing.user.UID != uid {
		return provider.ErrEmailAlreadyInUse
	}

	if acc := p.accountByUIDLocked(uid); acc != nil {
		delete(p.accounts, normalizeEmail(acc.user.Email))
		acc.user.Email = strings.TrimSpace(newEmail)
		p.accounts[key] = acc
	}

	p.current.Email = strings.TrimSpace(newEmail)
	p.pushLocked()
	return nil
}

// SetUser replaces the signed in user out of band and pushes it, the way a
// token refresh or a change made on another device would.
func (p *Provider) SetUser(user *authstate.User) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = user.Clone()
	p.pushLocked()
}

// FailNext makes the next call to op return err without side effects.
func (p *Provider) FailNext(op string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[op] = err
}

// Calls returns how many times op was invoked.
func (p *Provider) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// SubscriberCount returns the number of open push streams.
func (p *Provider) SubscriberCount() int {
	return p.hub.Len()
}

// ResetRequests returns the emails that asked for a password reset.
func (p *Provider) ResetRequests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resets...)
}

// Close ends every push stream.
func (p *Provider) Close() {
	p.hub.Close()
}

func (p *Provider) begin(ctx context.Context, op string) error {
	p.calls[op]++

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := p.failures[op]; ok {
		delete(p.failures, op)
		return err
	}
	return nil
}

func (p *Provider) pushLocked() {
	p.hub.Publish(p.current.Clone())
}

func (p *Provider) accountByUIDLocked(uid string) *account {
	for _, acc := range p.accounts {
		if acc.user.UID == uid {
			return acc
		}
	}
	return nil
}

func validateEmail(email string) error {
	if err := validation.Validate(strings.TrimSpace(email), validation.Required, is.Email); err != nil {
		return provider.ErrInvalidEmail
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
