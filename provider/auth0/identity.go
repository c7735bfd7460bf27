package auth0

import (
	"errors"
	"strings"

	"github.com/auth0/go-auth0/management"
	"github.com/golang-jwt/jwt/v5"

	authstate "github.com/goliatone/go-authstate"
	"github.com/goliatone/go-authstate/provider"
)

// Auth0 connection names for the social sign in options.
const (
	ConnectionApple  = "apple"
	ConnectionGoogle = "google-oauth2"
)

var errMissingSubject = errors.New("id token has no subject")

// subjectFromToken extracts the user id from an ID token. The token was
// already validated by the login call that produced it.
func subjectFromToken(idToken, issuer string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", err
	}
	if issuer != "" && claims.Issuer != "" && normalizeIssuer(claims.Issuer) != issuer {
		return "", provider.Wrap(provider.ErrInvalidCredentials, providerName, "parse_token",
			errors.New("unexpected issuer "+claims.Issuer))
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", errMissingSubject
	}
	return sub, nil
}

func mapAuth0User(u *management.User) *authstate.User {
	if u == nil {
		return nil
	}

	first, last := u.GetGivenName(), u.GetFamilyName()
	if first == "" && last == "" {
		first, last = splitName(u.GetName())
	}

	displayName := u.GetName()
	if displayName == "" || displayName == u.GetEmail() {
		displayName = u.GetNickname()
	}

	user := &authstate.User{
		UID:            u.GetID(),
		Email:          u.GetEmail(),
		DisplayName:    displayName,
		FirstName:      first,
		LastName:       last,
		PhoneNumber:    u.GetPhoneNumber(),
		PhotoURL:       u.GetPicture(),
		CreationDate:   u.GetCreatedAt(),
		LastSignInDate: u.GetLastLogin(),
	}

	for _, identity := range u.Identities {
		if identity == nil {
			continue
		}
		tag := authstate.ParseAuthProviderTag(identity.GetProvider())
		if tag == authstate.AuthProviderUnknown {
			continue
		}
		user = user.WithProvider(tag)
	}

	return user
}

// isNewUser reports a first login. Auth0 counts the login that just happened.
func isNewUser(u *management.User) bool {
	return u != nil && u.GetLoginsCount() <= 1
}

func splitName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	parts := strings.SplitN(name, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
