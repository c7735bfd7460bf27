package auth0

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goliatone/go-authstate/provider"
)

// statusCoder is implemented by the Management and Authentication API errors.
type statusCoder interface {
	Status() int
}

// classify wraps a raw SDK error into a provider.Error whose Kind matches the
// closest sentinel.
func classify(operation string, err error) error {
	if err == nil {
		return nil
	}

	var perr *provider.Error
	if errors.As(err, &perr) {
		return err
	}

	status := 0
	var coder statusCoder
	if errors.As(err, &coder) {
		status = coder.Status()
	}

	return &provider.Error{
		Provider:  providerName,
		Operation: operation,
		Status:    status,
		Kind:      kindFor(status, err.Error()),
		Cause:     err,
	}
}

func kindFor(status int, message string) error {
	message = strings.ToLower(message)

	switch {
	case strings.Contains(message, "invalid_grant"),
		status == http.StatusUnauthorized,
		status == http.StatusForbidden:
		return provider.ErrInvalidCredentials
	case status == http.StatusNotFound:
		return provider.ErrUserNotFound
	case status == http.StatusConflict,
		strings.Contains(message, "user already exists"):
		return provider.ErrEmailAlreadyInUse
	case strings.Contains(message, "passwordstrengtherror"),
		strings.Contains(message, "password is too weak"):
		return provider.ErrWeakPassword
	case status == http.StatusBadRequest && strings.Contains(message, "email"):
		return provider.ErrInvalidEmail
	}
	return provider.ErrBackend
}

func isNotFound(err error) bool {
	var coder statusCoder
	return errors.As(err, &coder) && coder.Status() == http.StatusNotFound
}
