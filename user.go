package authstate

import (
	"slices"
	"time"
)

// AuthProviderTag identifies a sign in method linked to an account.
type AuthProviderTag string

const (
	AuthProviderApple     AuthProviderTag = "apple"
	AuthProviderGoogle    AuthProviderTag = "google"
	AuthProviderEmail     AuthProviderTag = "password"
	AuthProviderAnonymous AuthProviderTag = "anonymous"
	AuthProviderUnknown   AuthProviderTag = "unknown"
)

// ParseAuthProviderTag maps a provider identifier to a known tag.
func ParseAuthProviderTag(value string) AuthProviderTag {
	switch value {
	case "apple", "apple.com":
		return AuthProviderApple
	case "google", "google.com", "google-oauth2":
		return AuthProviderGoogle
	case "password", "email", "auth0":
		return AuthProviderEmail
	case "anonymous":
		return AuthProviderAnonymous
	default:
		return AuthProviderUnknown
	}
}

// User is a point in time snapshot of an authenticated identity.
// UID never changes for a logical account; every other field may change
// after re-authentication.
type User struct {
	UID            string
	Email          string
	DisplayName    string
	FirstName      string
	LastName       string
	PhoneNumber    string
	PhotoURL       string
	IsAnonymous    bool
	AuthProviders  []AuthProviderTag
	CreationDate   time.Time
	LastSignInDate time.Time
}

// Clone returns a deep copy, nil safe.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.AuthProviders = slices.Clone(u.AuthProviders)
	return &c
}

// HasProvider reports whether tag was used at least once for this identity.
func (u *User) HasProvider(tag AuthProviderTag) bool {
	if u == nil {
		return false
	}
	return slices.Contains(u.AuthProviders, tag)
}

// WithProvider returns a copy with tag added to the provider set.
func (u *User) WithProvider(tag AuthProviderTag) *User {
	c := u.Clone()
	if c == nil || c.HasProvider(tag) {
		return c
	}
	c.AuthProviders = append(c.AuthProviders, tag)
	return c
}

// Equal compares two snapshots field by field. Two nil users are equal.
func (u *User) Equal(other *User) bool {
	if u == nil || other == nil {
		return u == nil && other == nil
	}

	return u.UID == other.UID &&
		u.Email == other.Email &&
		u.DisplayName == other.DisplayName &&
		u.FirstName == other.FirstName &&
		u.LastName == other.LastName &&
		u.PhoneNumber == other.PhoneNumber &&
		u.PhotoURL == other.PhotoURL &&
		u.IsAnonymous == other.IsAnonymous &&
		slices.Equal(u.AuthProviders, other.AuthProviders) &&
		u.CreationDate.Equal(other.CreationDate) &&
		u.LastSignInDate.Equal(other.LastSignInDate)
}

// EventParameters flattens the snapshot into analytics properties.
// Empty optional fields are omitted.
func (u *User) EventParameters() map[string]any {
	if u == nil {
		return map[string]any{}
	}

	params := map[string]any{
		"uauth_uid":          u.UID,
		"uauth_is_anonymous": u.IsAnonymous,
	}

	optional := map[string]string{
		"uauth_email":        u.Email,
		"uauth_display_name": u.DisplayName,
		"uauth_first_name":   u.FirstName,
		"uauth_last_name":    u.LastName,
		"uauth_phone_number": u.PhoneNumber,
		"uauth_photo_url":    u.PhotoURL,
	}
	for key, value := range optional {
		if value != "" {
			params[key] = value
		}
	}

	if len(u.AuthProviders) > 0 {
		tags := make([]string, 0, len(u.AuthProviders))
		for _, tag := range u.AuthProviders {
			tags = append(tags, string(tag))
		}
		params["uauth_auth_providers"] = tags
	}

	if !u.CreationDate.IsZero() {
		params["uauth_creation_date"] = u.CreationDate.UTC().Format(time.RFC3339)
	}
	if !u.LastSignInDate.IsZero() {
		params["uauth_last_sign_in_date"] = u.LastSignInDate.UTC().Format(time.RFC3339)
	}

	return params
}

// SignInResult is returned by every sign in and account creation call.
type SignInResult struct {
	User      User
	IsNewUser bool
}
