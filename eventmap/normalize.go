package eventmap

import (
	"strings"
	"time"

	authstate "github.com/goliatone/go-authstate"
)

const (
	// MetadataKeySeverity stores the event severity.
	MetadataKeySeverity = "severity"
	// MetadataKeyPhase stores the operation phase (start, success, fail, empty).
	MetadataKeyPhase = "phase"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "user"
	defaultActorID    = "unauthenticated"
)

// Normalized is a transport-agnostic event shape for downstream stores.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	Operation  string         `json:"operation"`
	Phase      string         `json:"phase,omitempty"`
	Severity   string         `json:"severity"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
}

// Normalize converts an authstate.Event into a generic normalized shape.
// The actor is the user the event is about when one is known.
func Normalize(event authstate.Event, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	subject := subjectID(event.Parameters)
	operation, phase := splitName(event.Name)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	severity := string(event.Severity)
	if severity == "" {
		severity = string(authstate.SeverityInfo)
	}

	return Normalized{
		ActorID:    firstNonEmpty(subject, options.actorFallback),
		Verb:       event.Name,
		Operation:  operation,
		Phase:      phase,
		Severity:   severity,
		ObjectType: options.objectType,
		ObjectID:   subject,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event, phase),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event names no user.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func subjectID(params map[string]any) string {
	for _, key := range []string{"uauth_uid", "user_id"} {
		if value, ok := params[key].(string); ok {
			if value = strings.TrimSpace(value); value != "" {
				return value
			}
		}
	}
	return ""
}

// splitName turns "Auth_SignIn_Start" into ("sign_in", "start").
func splitName(name string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(name, "Auth_"), "_")
	if len(parts) < 2 {
		return snakeCase(strings.Join(parts, "")), ""
	}
	phase := strings.ToLower(parts[len(parts)-1])
	return snakeCase(strings.Join(parts[:len(parts)-1], "")), phase
}

func snakeCase(value string) string {
	var b strings.Builder
	for i, r := range value {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeMetadata(event authstate.Event, phase string) map[string]any {
	metadata := cloneMap(event.Parameters)
	if metadata == nil {
		metadata = map[string]any{}
	}

	if _, exists := metadata[MetadataKeySeverity]; !exists && event.Severity != "" {
		metadata[MetadataKeySeverity] = string(event.Severity)
	}
	if phase != "" {
		metadata[MetadataKeyPhase] = phase
	}

	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
