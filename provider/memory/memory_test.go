package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/provider"
	"github.com/goliatone/go-authstate/provider/memory"
)

func newProvider(opts ...memory.Option) *memory.Provider {
	seq := 0
	base := []memory.Option{
		memory.WithPasswordCost(bcrypt.MinCost),
		memory.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("uid-%d", seq)
		}),
		memory.WithClock(func() time.Time {
			return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		}),
	}
	return memory.New(append(base, opts...)...)
}

func next(t *testing.T, ch <-chan *authstate.User) *authstate.User {
	t.Helper()
	select {
	case u, ok := <-ch:
		require.True(t, ok, "stream closed")
		return u
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for push")
	}
	return nil
}

func TestSubscribeYieldsCurrentValueFirst(t *testing.T) {
	seed := &authstate.User{UID: "seed", Email: "seed@example.com"}
	p := newProvider(memory.WithUser(seed))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := p.Subscribe(ctx)
	got := next(t, stream)
	require.NotNil(t, got)
	assert.Equal(t, "seed", got.UID)

	p.SetUser(nil)
	assert.Nil(t, next(t, stream))
}

func TestSignInAnonymousReusesAnonymousUser(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	first, err := p.SignIn(ctx, authstate.SignInAnonymous())
	require.NoError(t, err)
	assert.True(t, first.IsNewUser)
	assert.True(t, first.User.IsAnonymous)
	assert.True(t, first.User.HasProvider(authstate.AuthProviderAnonymous))

	second, err := p.SignIn(ctx, authstate.SignInAnonymous())
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.UID, second.User.UID)
}

func TestFederatedSignInLinksAnonymousWithoutPush(t *testing.T) {
	p := newProvider()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	anon, err := p.SignIn(ctx, authstate.SignInAnonymous())
	require.NoError(t, err)

	stream := p.Subscribe(ctx)
	require.Equal(t, anon.User.UID, next(t, stream).UID)

	linked, err := p.SignIn(ctx, authstate.SignInApple())
	require.NoError(t, err)
	assert.Equal(t, anon.User.UID, linked.User.UID)
	assert.False(t, linked.User.IsAnonymous)
	assert.True(t, linked.User.HasProvider(authstate.AuthProviderApple))

	select {
	case u := <-stream:
		t.Fatalf("unexpected push after linking: %+v", u)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGoogleSignInRequiresClientID(t *testing.T) {
	p := newProvider()

	_, err := p.SignIn(context.Background(), authstate.SignInGoogle(""))
	require.ErrorIs(t, err, provider.ErrMissingClientID)
	assert.Nil(t, p.CurrentUser())

	res, err := p.SignIn(context.Background(), authstate.SignInGoogle("client-id"))
	require.NoError(t, err)
	assert.True(t, res.IsNewUser)
	assert.True(t, res.User.HasProvider(authstate.AuthProviderGoogle))
}

func TestSignInRejectsEmailOption(t *testing.T) {
	p := newProvider()

	_, err := p.SignIn(context.Background(), authstate.SignInEmail())
	assert.ErrorIs(t, err, provider.ErrUnsupportedOption)
}

func TestCreateUserWithEmailValidates(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		seed     bool
		want     error
	}{
		{name: "invalid email", email: "not-an-email", password: "secret123", want: provider.ErrInvalidEmail},
		{name: "empty email", email: "", password: "secret123", want: provider.ErrInvalidEmail},
		{name: "missing domain", email: "jane@", password: "secret123", want: provider.ErrInvalidEmail},
		{name: "weak password", email: "a@example.com", password: "123", want: provider.ErrWeakPassword},
		{name: "duplicate", email: "taken@example.com", password: "secret123", seed: true, want: provider.ErrEmailAlreadyInUse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProvider()
			if tt.seed {
				_, err := p.CreateUserWithEmail(context.Background(), tt.email, "original1")
				require.NoError(t, err)
				require.NoError(t, p.SignOut(context.Background()))
			}

			_, err := p.CreateUserWithEmail(context.Background(), tt.email, tt.password)
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, p.CurrentUser())
		})
	}
}

func TestEmailAccountLifecycle(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	created, err := p.CreateUserWithEmail(ctx, "Jane@Example.com", "secret123")
	require.NoError(t, err)
	assert.True(t, created.IsNewUser)
	assert.True(t, created.User.HasProvider(authstate.AuthProviderEmail))

	require.NoError(t, p.SignOut(ctx))
	assert.Nil(t, p.CurrentUser())

	_, err = p.SignInWithEmail(ctx, "jane@example.com", "wrong-password")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)

	signedIn, err := p.SignInWithEmail(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)
	assert.False(t, signedIn.IsNewUser)
	assert.Equal(t, created.User.UID, signedIn.User.UID)

	require.NoError(t, p.UpdatePassword(ctx, signedIn.User.UID, "another456"))
	require.NoError(t, p.SignOut(ctx))

	_, err = p.SignInWithEmail(ctx, "jane@example.com", "secret123")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
	_, err = p.SignInWithEmail(ctx, "jane@example.com", "another456")
	require.NoError(t, err)
}

func TestSignInWithEmailUnknownAccount(t *testing.T) {
	p := newProvider()

	_, err := p.SignInWithEmail(context.Background(), "ghost@example.com", "whatever")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
	assert.Nil(t, p.CurrentUser())
}

func TestSeededUserAcceptsAnyPassword(t *testing.T) {
	p := newProvider(memory.WithUser(&authstate.User{UID: "seed", Email: "seed@example.com"}))
	ctx := context.Background()

	require.NoError(t, p.SignOut(ctx))

	res, err := p.SignInWithEmail(ctx, "seed@example.com", "anything")
	require.NoError(t, err)
	assert.Equal(t, "seed", res.User.UID)
}

func TestSendPasswordReset(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	require.ErrorIs(t, p.SendPasswordReset(ctx, "ghost@example.com"), provider.ErrUserNotFound)

	_, err := p.CreateUserWithEmail(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, p.SendPasswordReset(ctx, "jane@example.com"))
	assert.Equal(t, []string{"jane@example.com"}, p.ResetRequests())
}

func TestUpdateEmailPushesSnapshot(t *testing.T) {
	p := newProvider()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	created, err := p.CreateUserWithEmail(ctx, "old@example.com", "secret123")
	require.NoError(t, err)

	stream := p.Subscribe(ctx)
	require.Equal(t, "old@example.com", next(t, stream).Email)

	require.ErrorIs(t, p.UpdateEmail(ctx, created.User.UID, "bad"), provider.ErrInvalidEmail)
	require.ErrorIs(t, p.UpdateEmail(ctx, "someone-else", "new@example.com"), provider.ErrUserNotFound)

	require.NoError(t, p.UpdateEmail(ctx, created.User.UID, "new@example.com"))
	assert.Equal(t, "new@example.com", next(t, stream).Email)

	require.NoError(t, p.SignOut(ctx))
	_, err = p.SignInWithEmail(ctx, "new@example.com", "secret123")
	require.NoError(t, err)
}

func TestDeleteAccount(t *testing.T) {
	p := newProvider()
	ctx := context.Background()

	require.ErrorIs(t, p.DeleteAccount(ctx), provider.ErrNoCurrentUser)

	_, err := p.CreateUserWithEmail(ctx, "jane@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, p.DeleteAccount(ctx))
	assert.Nil(t, p.CurrentUser())

	_, err = p.SignInWithEmail(ctx, "jane@example.com", "secret123")
	require.ErrorIs(t, err, provider.ErrInvalidCredentials)
}

func TestFailNextAndCalls(t *testing.T) {
	p := newProvider()
	boom := errors.New("boom")

	p.FailNext(memory.OpSignOut, boom)
	require.ErrorIs(t, p.SignOut(context.Background()), boom)
	require.NoError(t, p.SignOut(context.Background()))
	assert.Equal(t, 2, p.Calls(memory.OpSignOut))
	assert.Zero(t, p.Calls(memory.OpSignIn))
}

func TestSubscriberCountTracksStreams(t *testing.T) {
	p := newProvider()
	ctx, cancel := context.WithCancel(context.Background())

	p.Subscribe(ctx)
	p.Subscribe(ctx)
	assert.Equal(t, 2, p.SubscriberCount())

	cancel()
	require.Eventually(t, func() bool {
		return p.SubscriberCount() == 0
	}, time.Second, 5*time.Millisecond)
}
