package authstate_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	authstate "github.com/goliatone/go-authstate"
)

// MockProvider implements authstate.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CurrentUser() *authstate.User {
	args := m.Called()
	user, _ := args.Get(0).(*authstate.User)
	return user
}

func (m *MockProvider) Subscribe(ctx context.Context) <-chan *authstate.User {
	args := m.Called(ctx)
	ch, _ := args.Get(0).(<-chan *authstate.User)
	return ch
}

func (m *MockProvider) SignIn(ctx context.Context, option authstate.SignInOption) (authstate.SignInResult, error) {
	args := m.Called(ctx, option)
	return args.Get(0).(authstate.SignInResult), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProvider) DeleteAccount(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProvider) CreateUserWithEmail(ctx context.Context, email, password string) (authstate.SignInResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(authstate.SignInResult), args.Error(1)
}

func (m *MockProvider) SignInWithEmail(ctx context.Context, email, password string) (authstate.SignInResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(authstate.SignInResult), args.Error(1)
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *MockProvider) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	args := m.Called(ctx, uid, newPassword)
	return args.Error(0)
}

func (m *MockProvider) UpdateEmail(ctx context.Context, uid, newEmail string) error {
	args := m.Called(ctx, uid, newEmail)
	return args.Error(0)
}

// MockEventSink implements authstate.EventSink
type MockEventSink struct {
	mock.Mock
}

func (m *MockEventSink) Identify(ctx context.Context, userID, name, email string) error {
	args := m.Called(ctx, userID, name, email)
	return args.Error(0)
}

func (m *MockEventSink) SetProperties(ctx context.Context, properties map[string]any, highPriority bool) error {
	args := m.Called(ctx, properties, highPriority)
	return args.Error(0)
}

func (m *MockEventSink) Track(ctx context.Context, event authstate.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// stream returns a buffered push channel and its receive side for mocks.
func stream() (chan *authstate.User, <-chan *authstate.User) {
	ch := make(chan *authstate.User, 8)
	return ch, ch
}

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, logCall{level: level, message: message, args: args})
}

func (l *captureLogger) Trace(message string, args ...any) { l.record("trace", message, args...) }
func (l *captureLogger) Debug(message string, args ...any) { l.record("debug", message, args...) }
func (l *captureLogger) Info(message string, args ...any)  { l.record("info", message, args...) }
func (l *captureLogger) Warn(message string, args ...any)  { l.record("warn", message, args...) }
func (l *captureLogger) Error(message string, args ...any) { l.record("error", message, args...) }
func (l *captureLogger) Fatal(message string, args ...any) { l.record("fatal", message, args...) }
func (l *captureLogger) WithContext(context.Context) authstate.Logger {
	return l
}

func (l *captureLogger) byLevel(level string) []logCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []logCall
	for _, call := range l.calls {
		if call.level == level {
			out = append(out, call)
		}
	}
	return out
}
