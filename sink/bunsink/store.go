// Package bunsink persists auth events, identities and user properties
// through Bun. Any Bun dialect works; tests run on SQLite.
package bunsink

import (
	"context"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/eventmap"
)

// ErrMissingUserID is returned when properties cannot be tied to a user.
var ErrMissingUserID = goerrors.New("user properties without user id", goerrors.CategoryValidation).
	WithTextCode("AUTH_PROPERTIES_MISSING_USER").
	WithCode(goerrors.CodeBadRequest)

// EventModel is the Bun model for tracked events.
type EventModel struct {
	bun.BaseModel `bun:"table:auth_events,alias:ae"`

	ID         uuid.UUID      `bun:"id,pk,nullzero,type:uuid"`
	Name       string         `bun:"name,notnull"`
	Operation  string         `bun:"operation,notnull"`
	Phase      string         `bun:"phase"`
	Severity   string         `bun:"severity,notnull"`
	ActorID    string         `bun:"actor_id,notnull"`
	Channel    string         `bun:"channel"`
	Parameters map[string]any `bun:"parameters,type:jsonb"`
	OccurredAt time.Time      `bun:"occurred_at,notnull"`
}

// IdentityModel is the Bun model for identified users.
type IdentityModel struct {
	bun.BaseModel `bun:"table:auth_identities,alias:ai"`

	ID        uuid.UUID `bun:"id,pk,nullzero,type:uuid"`
	UserID    string    `bun:"user_id,notnull,unique"`
	Name      string    `bun:"name"`
	Email     string    `bun:"email"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// PropertiesModel is the Bun model for the latest user properties.
type PropertiesModel struct {
	bun.BaseModel `bun:"table:auth_user_properties,alias:aup"`

	ID           uuid.UUID      `bun:"id,pk,nullzero,type:uuid"`
	UserID       string         `bun:"user_id,notnull,unique"`
	Properties   map[string]any `bun:"properties,type:jsonb"`
	HighPriority bool           `bun:"high_priority"`
	UpdatedAt    time.Time      `bun:"updated_at,notnull"`
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for updated_at columns.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithNormalizeOptions forwards options to eventmap.Normalize.
func WithNormalizeOptions(opts ...eventmap.Option) Option {
	return func(s *Store) {
		s.normalize = append(s.normalize, opts...)
	}
}

// Store implements authstate.EventSink over a Bun database.
type Store struct {
	events     repository.Repository[*EventModel]
	identities repository.Repository[*IdentityModel]
	properties repository.Repository[*PropertiesModel]
	now        func() time.Time
	normalize  []eventmap.Option

	mu       sync.Mutex
	lastUser string
}

var _ authstate.EventSink = (*Store)(nil)

// New creates a Store. The schema is expected to be migrated, see Open.
func New(db *bun.DB, opts ...Option) *Store {
	s := &Store{
		events:     NewEventsRepository(db),
		identities: NewIdentitiesRepository(db),
		properties: NewPropertiesRepository(db),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Identify implements authstate.EventSink.
func (s *Store) Identify(ctx context.Context, userID, name, email string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrMissingUserID
	}

	s.mu.Lock()
	s.lastUser = userID
	s.mu.Unlock()

	record := &IdentityModel{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		Email:     email,
		UpdatedAt: s.now().UTC(),
	}

	_, err := s.identities.Create(ctx, record,
		upsertOn("user_id", "name", "email", "updated_at"),
	)
	return err
}

// SetProperties implements authstate.EventSink. Properties are keyed by
// their uauth_uid, or by the last identified user.
func (s *Store) SetProperties(ctx context.Context, properties map[string]any, highPriority bool) error {
	userID, _ := properties["uauth_uid"].(string)
	if userID == "" {
		s.mu.Lock()
		userID = s.lastUser
		s.mu.Unlock()
	}
	if userID == "" {
		return ErrMissingUserID
	}

	record := &PropertiesModel{
		ID:           uuid.New(),
		UserID:       userID,
		Properties:   properties,
		HighPriority: highPriority,
		UpdatedAt:    s.now().UTC(),
	}

	_, err := s.properties.Create(ctx, record,
		upsertOn("user_id", "properties", "high_priority", "updated_at"),
	)
	return err
}

// Track implements authstate.EventSink.
func (s *Store) Track(ctx context.Context, event authstate.Event) error {
	normalized := eventmap.Normalize(event, s.normalize...)

	record := &EventModel{
		ID:         uuid.New(),
		Name:       normalized.Verb,
		Operation:  normalized.Operation,
		Phase:      normalized.Phase,
		Severity:   normalized.Severity,
		ActorID:    normalized.ActorID,
		Channel:    normalized.Channel,
		Parameters: normalized.Metadata,
		OccurredAt: normalized.OccurredAt.UTC(),
	}
	if record.Parameters == nil {
		record.Parameters = map[string]any{}
	}

	_, err := s.events.Create(ctx, record)
	return err
}

// ListEvents returns the most recent events first. A limit of zero or less
// returns every event.
func (s *Store) ListEvents(ctx context.Context, limit int) ([]*EventModel, error) {
	records, _, err := s.events.List(ctx, orderByOccurred("DESC"), limitTo(limit))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return []*EventModel{}, nil
		}
		return nil, err
	}
	return records, nil
}

// EventsFor returns every event whose actor is userID, oldest first.
func (s *Store) EventsFor(ctx context.Context, userID string) ([]*EventModel, error) {
	records, _, err := s.events.List(ctx, whereActor(userID), orderByOccurred("ASC"))
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}
	return records, nil
}

// FindIdentity returns the stored identity for userID. A missing identity
// satisfies repository.IsRecordNotFound.
func (s *Store) FindIdentity(ctx context.Context, userID string) (*IdentityModel, error) {
	return s.identities.GetByIdentifier(ctx, strings.TrimSpace(userID))
}

// FindProperties returns the latest properties stored for userID.
func (s *Store) FindProperties(ctx context.Context, userID string) (*PropertiesModel, error) {
	return s.properties.GetByIdentifier(ctx, strings.TrimSpace(userID))
}
