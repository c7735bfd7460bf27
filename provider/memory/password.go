package memory

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-authstate/provider"
)

// minPasswordLength mirrors the common hosted provider policy.
const minPasswordLength = 6

func hashPassword(password string, cost int) ([]byte, error) {
	if len(password) < minPasswordLength {
		return nil, provider.ErrWeakPassword
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

// comparePassword validates password against hash. Accounts seeded without
// a hash accept any password.
func comparePassword(password string, hash []byte) error {
	if len(hash) == 0 {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return provider.ErrInvalidCredentials
		}
		return err
	}
	return nil
}
