package eventmap_test

import (
	"testing"
	"time"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/eventmap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := authstate.Event{
		Name:     authstate.EventSignInSuccess,
		Severity: authstate.SeverityInfo,
		Parameters: map[string]any{
			"uauth_uid":      "user-100",
			"sign_in_option": "apple",
		},
		OccurredAt: ts,
	}

	out := eventmap.Normalize(event)

	if out.ActorID != "user-100" {
		t.Fatalf("expected actor_id user-100, got %q", out.ActorID)
	}
	if out.Verb != authstate.EventSignInSuccess {
		t.Fatalf("expected verb %q, got %q", authstate.EventSignInSuccess, out.Verb)
	}
	if out.Operation != "sign_in" {
		t.Fatalf("expected operation sign_in, got %q", out.Operation)
	}
	if out.Phase != "success" {
		t.Fatalf("expected phase success, got %q", out.Phase)
	}
	if out.ObjectType != "user" || out.ObjectID != "user-100" {
		t.Fatalf("expected object user/user-100, got %q/%q", out.ObjectType, out.ObjectID)
	}
	if out.Channel != "auth" {
		t.Fatalf("expected channel auth, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}
	if out.Metadata["sign_in_option"] != "apple" {
		t.Fatalf("expected metadata sign_in_option apple, got %#v", out.Metadata["sign_in_option"])
	}
	if out.Metadata[eventmap.MetadataKeySeverity] != "info" {
		t.Fatalf("expected metadata severity info, got %#v", out.Metadata[eventmap.MetadataKeySeverity])
	}
	if len(event.Parameters) != 2 {
		t.Fatalf("expected source parameters to remain unchanged, got %+v", event.Parameters)
	}
}

func TestNormalizeOperationNames(t *testing.T) {
	t.Parallel()

	tests := map[string][2]string{
		authstate.EventDeleteAccountFail:     {"delete_account", "fail"},
		authstate.EventUpdatePasswordSuccess: {"update_password", "success"},
		authstate.EventListenerEmpty:         {"listener", "empty"},
		authstate.EventResetPasswordStart:    {"reset_password", "start"},
	}

	for name, want := range tests {
		out := eventmap.Normalize(authstate.Event{Name: name})
		if out.Operation != want[0] || out.Phase != want[1] {
			t.Fatalf("%s: expected %v, got %q/%q", name, want, out.Operation, out.Phase)
		}
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	event := authstate.Event{
		Name:       authstate.EventUpdateEmailStart,
		Parameters: map[string]any{"user_id": "user-200", "new_email": "new@example.com"},
	}

	out := eventmap.Normalize(
		event,
		eventmap.WithDefaultChannel("security"),
		eventmap.WithDefaultObjectType("account"),
	)

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-200" {
		t.Fatalf("expected object_id user-200, got %q", out.ObjectID)
	}
	if out.Severity != "info" {
		t.Fatalf("expected default severity info, got %q", out.Severity)
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeActorFallbackChain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  authstate.Event
		opts   []eventmap.Option
		expect string
	}{
		{
			name:   "uses user uid when present",
			event:  authstate.Event{Parameters: map[string]any{"uauth_uid": "uid-1", "user_id": "user-1"}},
			expect: "uid-1",
		},
		{
			name:   "uses user id when uid missing",
			event:  authstate.Event{Parameters: map[string]any{"user_id": "user-2"}},
			expect: "user-2",
		},
		{
			name:   "uses default fallback when no user is named",
			event:  authstate.Event{Parameters: map[string]any{"email": "a@example.com"}},
			expect: "unauthenticated",
		},
		{
			name:   "uses configured fallback",
			event:  authstate.Event{},
			opts:   []eventmap.Option{eventmap.WithActorFallback("device")},
			expect: "device",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := eventmap.Normalize(tc.event, tc.opts...)
			if out.ActorID != tc.expect {
				t.Fatalf("expected actor_id %q, got %q", tc.expect, out.ActorID)
			}
		})
	}
}
