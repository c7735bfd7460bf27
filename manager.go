package authstate

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-authstate/internal/broadcast"
)

const managerLoggerName = "authstate.manager"

// Option customizes Manager construction.
type Option func(*Manager)

// WithEventSink sets the sink receiving identify, property and track calls.
func WithEventSink(sink EventSink) Option {
	return func(m *Manager) {
		m.sink = normalizeEventSink(sink)
	}
}

// WithLogger overrides the logger used for provider and sink failures.
func WithLogger(logger Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithLoggerProvider resolves the Manager logger by name from provider.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(m *Manager) {
		m.loggerProvider = provider
	}
}

// WithClock injects the clock used to timestamp events.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		if clock != nil {
			m.now = clock
		}
	}
}

// Manager owns the current auth state. Every change to the signed in user
// goes through it, whether it comes from an operation result or from the
// provider's push stream.
//
// Sinks and Watch consumers must not call back into the Manager
// synchronously from inside a notification.
type Manager struct {
	provider       Provider
	sink           EventSink
	logger         Logger
	loggerProvider LoggerProvider
	now            func() time.Time

	// publishMu serializes every mutation together with its notifications.
	publishMu  sync.Mutex
	generation uint64
	watchers   *broadcast.Hub[*User]

	stateMu sync.RWMutex
	current *User

	listenerMu sync.Mutex
	listener   *listener
	closed     bool
}

// New builds a Manager seeded from the provider's current snapshot and
// starts listening for pushed changes. Call Close to stop the listener.
func New(provider Provider, opts ...Option) *Manager {
	if provider == nil {
		panic("authstate: provider is required")
	}

	m := &Manager{
		provider: provider,
		sink:     noopEventSink{},
		now:      time.Now,
		watchers: broadcast.New[*User](),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	m.loggerProvider, m.logger = ResolveLogger(managerLoggerName, m.loggerProvider, m.logger)
	m.current = provider.CurrentUser().Clone()

	m.Resubscribe()

	return m
}

// CurrentUser returns a copy of the signed in user, or nil.
func (m *Manager) CurrentUser() *User {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current.Clone()
}

// IsSignedIn reports whether a user is currently authenticated.
func (m *Manager) IsSignedIn() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.current != nil
}

// CurrentUserID returns the signed in user's UID or ErrNotSignedIn.
func (m *Manager) CurrentUserID() (string, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.current == nil {
		return "", ErrNotSignedIn
	}
	return m.current.UID, nil
}

// Watch streams state changes. The channel yields the current value first,
// then every later change in order. Values are shared between watchers and
// must be treated as read-only. The channel closes when ctx is done or the
// Manager is closed.
func (m *Manager) Watch(ctx context.Context) <-chan *User {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()
	return m.watchers.Subscribe(ctx, m.CurrentUser())
}

// SignInAnonymously signs in with a new or existing anonymous identity.
func (m *Manager) SignInAnonymously(ctx context.Context) (SignInResult, error) {
	return m.signIn(ctx, SignInAnonymous())
}

// SignInWithApple signs in through Apple.
func (m *Manager) SignInWithApple(ctx context.Context) (SignInResult, error) {
	return m.signIn(ctx, SignInApple())
}

// SignInWithGoogle signs in through Google. clientID must not be empty;
// the provider decides how to reject an empty one.
func (m *Manager) SignInWithGoogle(ctx context.Context, clientID string) (SignInResult, error) {
	return m.signIn(ctx, SignInGoogle(clientID))
}

func (m *Manager) signIn(ctx context.Context, option SignInOption) (SignInResult, error) {
	m.track(ctx, signInStartEvent(option))

	// Providers may skip the change notification when the UID stays the
	// same (anonymous account linking), so always attach a fresh listener.
	defer m.Resubscribe()

	result, err := m.provider.SignIn(ctx, option)
	if err != nil {
		m.logger.Error("sign in failed", "option", option.String(), "error", err)
		m.track(ctx, signInFailEvent(err))
		return SignInResult{}, err
	}

	m.publish(ctx, &result.User)
	m.track(ctx, signInSuccessEvent(option, result))

	return result, nil
}

// SignOut signs out through the provider and clears the state right away.
func (m *Manager) SignOut(ctx context.Context) error {
	m.track(ctx, newEvent(EventSignOutStart, SeverityInfo, nil))

	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Error("sign out failed", "error", err)
		m.track(ctx, newEvent(EventSignOutFail, SeveritySevere, ErrorParameters(err)))
		return err
	}

	m.clear()
	m.track(ctx, newEvent(EventSignOutSuccess, SeverityInfo, nil))

	return nil
}

// DeleteAccount deletes the signed in account and clears the state.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	m.track(ctx, newEvent(EventDeleteAccountStart, SeverityInfo, nil))

	if err := m.provider.DeleteAccount(ctx); err != nil {
		m.logger.Error("delete account failed", "error", err)
		m.track(ctx, newEvent(EventDeleteAccountFail, SeveritySevere, ErrorParameters(err)))
		return err
	}

	m.clear()
	m.track(ctx, newEvent(EventDeleteAccountSuccess, SeverityInfo, nil))

	return nil
}

// CreateUserWithEmail registers an email and password account. Validation
// is left to the provider.
func (m *Manager) CreateUserWithEmail(ctx context.Context, email, password string) (SignInResult, error) {
	m.track(ctx, emailEvent(EventCreateUserStart, email))

	result, err := m.provider.CreateUserWithEmail(ctx, email, password)
	if err != nil {
		m.logger.Error("create user failed", "email", email, "error", err)
		m.track(ctx, emailFailEvent(EventCreateUserFail, email, err))
		return SignInResult{}, err
	}

	m.publish(ctx, &result.User)
	m.track(ctx, createUserSuccessEvent(email, result.User))

	return result, nil
}

// SignInWithEmail signs in with email and password.
func (m *Manager) SignInWithEmail(ctx context.Context, email, password string) (SignInResult, error) {
	option := SignInEmail()
	m.track(ctx, signInStartEvent(option))

	// Email sign in always starts a new session for a different account, so
	// the provider pushes the change on the live listener. No resubscribe.
	result, err := m.provider.SignInWithEmail(ctx, email, password)
	if err != nil {
		m.logger.Error("email sign in failed", "email", email, "error", err)
		m.track(ctx, signInFailEvent(err))
		return SignInResult{}, err
	}

	m.publish(ctx, &result.User)
	m.track(ctx, signInSuccessEvent(option, result))

	return result, nil
}

// ResetPassword asks the provider to send a password reset message.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	m.track(ctx, emailEvent(EventResetPasswordStart, email))

	if err := m.provider.SendPasswordReset(ctx, email); err != nil {
		m.logger.Error("password reset failed", "email", email, "error", err)
		m.track(ctx, emailFailEvent(EventResetPasswordFail, email, err))
		return err
	}

	m.track(ctx, emailEvent(EventResetPasswordSuccess, email))

	return nil
}

// UpdatePassword changes the signed in user's password.
func (m *Manager) UpdatePassword(ctx context.Context, newPassword string) error {
	userID, err := m.CurrentUserID()
	if err != nil {
		return err
	}

	m.track(ctx, userEvent(EventUpdatePasswordStart, userID))

	if err := m.provider.UpdatePassword(ctx, userID, newPassword); err != nil {
		m.logger.Error("update password failed", "user_id", userID, "error", err)
		m.track(ctx, userFailEvent(EventUpdatePasswordFail, userID, err))
		return err
	}

	m.track(ctx, userEvent(EventUpdatePasswordSuccess, userID))

	return nil
}

// UpdateEmail changes the signed in user's email. The local snapshot is
// not touched: the new email shows up once the provider pushes it.
func (m *Manager) UpdateEmail(ctx context.Context, newEmail string) error {
	userID, err := m.CurrentUserID()
	if err != nil {
		return err
	}

	m.track(ctx, updateEmailEvent(EventUpdateEmailStart, userID, newEmail))

	if err := m.provider.UpdateEmail(ctx, userID, newEmail); err != nil {
		m.logger.Error("update email failed", "user_id", userID, "error", err)
		m.track(ctx, updateEmailFailEvent(userID, newEmail, err))
		return err
	}

	m.track(ctx, updateEmailEvent(EventUpdateEmailSuccess, userID, newEmail))

	return nil
}

// publish is the single write path for operation results and pushes.
func (m *Manager) publish(ctx context.Context, user *User) {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()
	m.publishLocked(ctx, user)
}

// publishFrom applies a pushed value unless the subscription that produced
// it has been replaced.
func (m *Manager) publishFrom(generation uint64, user *User) bool {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	if generation != m.generation {
		m.logger.Debug("dropping push from stale listener", "generation", generation)
		return false
	}

	m.publishLocked(context.Background(), user)
	return true
}

func (m *Manager) publishLocked(ctx context.Context, user *User) {
	snapshot := user.Clone()
	m.store(snapshot)
	m.watchers.Publish(snapshot.Clone())

	if snapshot == nil {
		m.track(ctx, listenerEmptyEvent())
		return
	}

	m.callSink(ctx, "identify", func(s EventSink) error {
		return s.Identify(ctx, snapshot.UID, snapshot.DisplayName, snapshot.Email)
	})
	m.callSink(ctx, "set_properties", func(s EventSink) error {
		return s.SetProperties(ctx, snapshot.EventParameters(), true)
	})
	m.track(ctx, listenerSuccessEvent(snapshot))
}

// clear drops the signed in user after a confirmed sign out or delete.
func (m *Manager) clear() {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.store(nil)
	m.watchers.Publish(nil)
}

func (m *Manager) store(user *User) {
	m.stateMu.Lock()
	m.current = user
	m.stateMu.Unlock()
}

func (m *Manager) track(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	m.callSink(ctx, "track", func(s EventSink) error {
		return s.Track(ctx, event)
	})
}

func (m *Manager) callSink(ctx context.Context, op string, fn func(EventSink) error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("event sink panic", "operation", op, "panic", r)
		}
	}()

	if err := fn(normalizeEventSink(m.sink)); err != nil {
		m.logger.Warn("event sink error", "operation", op, "error", err)
	}
}
