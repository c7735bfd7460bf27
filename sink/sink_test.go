package sink_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/sink"
)

type logCall struct {
	level   string
	message string
	args    []any
}

type captureLogger struct {
	calls []logCall
}

func (l *captureLogger) record(level, message string, args ...any) {
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

func TestRecorderKeepsCallsInOrder(t *testing.T) {
	rec := sink.NewRecorder()
	ctx := context.Background()

	require.NoError(t, rec.Identify(ctx, "u1", "Jane", "jane@example.com"))
	require.NoError(t, rec.SetProperties(ctx, map[string]any{"uauth_uid": "u1"}, true))
	require.NoError(t, rec.Track(ctx, authstate.Event{Name: authstate.EventSignInStart}))
	require.NoError(t, rec.Track(ctx, authstate.Event{Name: authstate.EventSignInSuccess, Parameters: map[string]any{"n": 1}}))
	require.NoError(t, rec.Track(ctx, authstate.Event{Name: authstate.EventSignInSuccess, Parameters: map[string]any{"n": 2}}))

	assert.Equal(t, []string{
		authstate.EventSignInStart,
		authstate.EventSignInSuccess,
		authstate.EventSignInSuccess,
	}, rec.Names())
	assert.Equal(t, 2, rec.Count(authstate.EventSignInSuccess))

	last, ok := rec.Last(authstate.EventSignInSuccess)
	require.True(t, ok)
	assert.Equal(t, 2, last.Parameters["n"])

	require.Len(t, rec.Identities(), 1)
	assert.Equal(t, "u1", rec.Identities()[0].UserID)
	require.Len(t, rec.Properties(), 1)
	assert.True(t, rec.Properties()[0].HighPriority)

	rec.Reset()
	assert.Empty(t, rec.Events())
	_, ok = rec.Last(authstate.EventSignInSuccess)
	assert.False(t, ok)
}

func TestRecorderCopiesParameters(t *testing.T) {
	rec := sink.NewRecorder()
	params := map[string]any{"email": "a@example.com"}

	require.NoError(t, rec.Track(context.Background(), authstate.Event{Name: "x", Parameters: params}))
	params["email"] = "mutated"

	assert.Equal(t, "a@example.com", rec.Events()[0].Parameters["email"])
}

func TestLoggerSinkLevelsFollowSeverity(t *testing.T) {
	logger := &captureLogger{}
	s := sink.NewLoggerSink(logger)
	ctx := context.Background()

	require.NoError(t, s.Track(ctx, authstate.Event{Name: authstate.EventSignInFail, Severity: authstate.SeveritySevere}))
	require.NoError(t, s.Track(ctx, authstate.Event{Name: authstate.EventListenerEmpty, Severity: authstate.SeverityWarning}))
	require.NoError(t, s.Track(ctx, authstate.Event{
		Name:       authstate.EventSignInStart,
		Severity:   authstate.SeverityInfo,
		Parameters: map[string]any{"sign_in_option": "apple"},
	}))
	require.NoError(t, s.Identify(ctx, "u1", "Jane", "jane@example.com"))

	require.Len(t, logger.calls, 4)
	assert.Equal(t, "error", logger.calls[0].level)
	assert.Equal(t, "warn", logger.calls[1].level)
	assert.Equal(t, "info", logger.calls[2].level)
	assert.Equal(t, []any{
		"event", authstate.EventSignInStart,
		"severity", "info",
		"sign_in_option", "apple",
	}, logger.calls[2].args)
	assert.Equal(t, "auth identify", logger.calls[3].message)
}
