package authstate

import (
	"context"
)

// Provider is the identity backend the Manager delegates to. Implementations
// perform the network work and expose a push stream of auth state changes.
type Provider interface {
	// CurrentUser returns a synchronous snapshot of the signed in user, or nil.
	CurrentUser() *User
	// Subscribe returns a stream of auth state changes. A nil value means
	// nobody is signed in. The channel is closed once ctx is done.
	Subscribe(ctx context.Context) <-chan *User

	SignIn(ctx context.Context, option SignInOption) (SignInResult, error)
	SignOut(ctx context.Context) error
	DeleteAccount(ctx context.Context) error

	CreateUserWithEmail(ctx context.Context, email, password string) (SignInResult, error)
	SignInWithEmail(ctx context.Context, email, password string) (SignInResult, error)
	SendPasswordReset(ctx context.Context, email string) error
	UpdatePassword(ctx context.Context, uid, newPassword string) error
	UpdateEmail(ctx context.Context, uid, newEmail string) error
}

// EventSink receives identity and analytics records emitted by the Manager.
// Errors are logged and never surface to Manager callers.
type EventSink interface {
	Identify(ctx context.Context, userID, name, email string) error
	SetProperties(ctx context.Context, properties map[string]any, highPriority bool) error
	Track(ctx context.Context, event Event) error
}
