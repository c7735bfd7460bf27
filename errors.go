package authstate

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const textCodeNotSignedIn = "NOT_SIGNED_IN"

// ErrNotSignedIn is returned when an operation needs an authenticated
// session and none is present. It is the only error the Manager originates.
var ErrNotSignedIn = goerrors.New("not signed in", goerrors.CategoryAuth).
	WithTextCode(textCodeNotSignedIn).
	WithCode(goerrors.CodeUnauthorized)

// IsNotSignedIn reports whether err is, or wraps, ErrNotSignedIn.
func IsNotSignedIn(err error) bool {
	return errors.Is(err, ErrNotSignedIn)
}

// ErrorParameters describes err as analytics parameters.
func ErrorParameters(err error) map[string]any {
	if err == nil {
		return map[string]any{}
	}

	params := map[string]any{
		"error_description": err.Error(),
	}

	var gerr *goerrors.Error
	if errors.As(err, &gerr) && gerr != nil {
		if gerr.TextCode != "" {
			params["error_code"] = gerr.TextCode
		}
		if gerr.Code != 0 {
			params["error_status"] = gerr.Code
		}
	}

	return params
}
