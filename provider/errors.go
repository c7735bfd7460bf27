package provider

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidEmail       = "auth_invalid_email"
	TextCodeWeakPassword       = "auth_weak_password"
	TextCodeEmailAlreadyInUse  = "auth_email_already_in_use"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeUserNotFound       = "auth_user_not_found"
	TextCodeMissingClientID    = "auth_missing_client_id"
	TextCodeUnsupportedOption  = "auth_unsupported_sign_in_option"
	TextCodeNoCurrentUser      = "auth_no_current_user"
	TextCodeBackendFailure     = "auth_backend_failure"
)

// ErrInvalidEmail is returned when an email address is malformed.
var ErrInvalidEmail = goerrors.New("invalid email address", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrWeakPassword is returned when a password does not meet the minimum policy.
var ErrWeakPassword = goerrors.New("password is too weak", goerrors.CategoryValidation).
	WithTextCode(TextCodeWeakPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrEmailAlreadyInUse is returned when registering an email that has an account.
var ErrEmailAlreadyInUse = goerrors.New("email already in use", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailAlreadyInUse).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is returned when email and password do not match an account.
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned when the targeted account does not exist.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrMissingClientID is returned by Google sign in without an OAuth client id.
var ErrMissingClientID = goerrors.New("missing oauth client id", goerrors.CategoryBadInput).
	WithTextCode(TextCodeMissingClientID).
	WithCode(goerrors.CodeBadRequest)

// ErrUnsupportedOption is returned when a provider cannot serve a sign in method.
var ErrUnsupportedOption = goerrors.New("unsupported sign in option", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnsupportedOption).
	WithCode(goerrors.CodeBadRequest)

// ErrNoCurrentUser is returned by account operations that need a session on
// the provider side.
var ErrNoCurrentUser = goerrors.New("no current user", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoCurrentUser).
	WithCode(goerrors.CodeUnauthorized)

// ErrBackend classifies failures talking to the identity backend.
var ErrBackend = goerrors.New("identity backend failure", goerrors.CategoryInternal).
	WithTextCode(TextCodeBackendFailure)

// Error captures a provider failure with the backend details that caused it.
// Kind is one of the sentinels above so callers can match it with errors.Is;
// Cause is the raw backend error.
type Error struct {
	Provider  string
	Operation string
	Status    int
	Kind      error
	Cause     error
}

// Wrap builds an Error for provider and operation. A nil cause yields nil.
func Wrap(kind error, providerName, operation string, cause error) error {
	if cause == nil {
		return nil
	}
	if kind == nil {
		kind = ErrBackend
	}
	return &Error{
		Provider:  providerName,
		Operation: operation,
		Kind:      kind,
		Cause:     cause,
	}
}

func (e *Error) Error() string {
	if e == nil {
		return "provider error"
	}

	scope := "provider"
	if e.Provider != "" && e.Operation != "" {
		scope = fmt.Sprintf("%s %s", e.Provider, e.Operation)
	} else if e.Provider != "" {
		scope = e.Provider
	} else if e.Operation != "" {
		scope = e.Operation
	}

	switch {
	case e.Kind != nil && e.Cause != nil:
		return fmt.Sprintf("%s failed: %v: %v", scope, e.Kind, e.Cause)
	case e.Kind != nil:
		return fmt.Sprintf("%s failed: %v", scope, e.Kind)
	case e.Cause != nil:
		return fmt.Sprintf("%s failed: %v", scope, e.Cause)
	}
	return fmt.Sprintf("%s failed", scope)
}

// Unwrap exposes both the sentinel and the backend cause.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Metadata returns the failure details as a flat map.
func (e *Error) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Provider != "" {
		meta["provider"] = e.Provider
	}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Status != 0 {
		meta["status"] = e.Status
	}
	var gerr *goerrors.Error
	if errors.As(e.Kind, &gerr) && gerr != nil && gerr.TextCode != "" {
		meta["code"] = gerr.TextCode
	}
	if e.Cause != nil {
		meta["cause"] = e.Cause.Error()
	}
	return meta
}
