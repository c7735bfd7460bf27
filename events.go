package authstate

import (
	"maps"
	"time"
)

// Severity ranks an event for downstream alerting.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySevere  Severity = "severe"
)

// Event names emitted by the Manager.
const (
	EventListenerSuccess       = "Auth_Listener_Success"
	EventListenerEmpty         = "Auth_Listener_Empty"
	EventSignInStart           = "Auth_SignIn_Start"
	EventSignInSuccess         = "Auth_SignIn_Success"
	EventSignInFail            = "Auth_SignIn_Fail"
	EventSignOutStart          = "Auth_SignOut_Start"
	EventSignOutSuccess        = "Auth_SignOut_Success"
	EventSignOutFail           = "Auth_SignOut_Fail"
	EventDeleteAccountStart    = "Auth_DeleteAccount_Start"
	EventDeleteAccountSuccess  = "Auth_DeleteAccount_Success"
	EventDeleteAccountFail     = "Auth_DeleteAccount_Fail"
	EventCreateUserStart       = "Auth_CreateUser_Start"
	EventCreateUserSuccess     = "Auth_CreateUser_Success"
	EventCreateUserFail        = "Auth_CreateUser_Fail"
	EventResetPasswordStart    = "Auth_ResetPassword_Start"
	EventResetPasswordSuccess  = "Auth_ResetPassword_Success"
	EventResetPasswordFail     = "Auth_ResetPassword_Fail"
	EventUpdatePasswordStart   = "Auth_UpdatePassword_Start"
	EventUpdatePasswordSuccess = "Auth_UpdatePassword_Success"
	EventUpdatePasswordFail    = "Auth_UpdatePassword_Fail"
	EventUpdateEmailStart      = "Auth_UpdateEmail_Start"
	EventUpdateEmailSuccess    = "Auth_UpdateEmail_Success"
	EventUpdateEmailFail       = "Auth_UpdateEmail_Fail"
)

// Event is a structured analytics record. It is never stored by the Manager.
type Event struct {
	Name       string
	Parameters map[string]any
	Severity   Severity
	OccurredAt time.Time
}

func newEvent(name string, severity Severity, params map[string]any) Event {
	return Event{
		Name:       name,
		Parameters: params,
		Severity:   severity,
	}
}

func listenerSuccessEvent(user *User) Event {
	return newEvent(EventListenerSuccess, SeverityInfo, user.EventParameters())
}

func listenerEmptyEvent() Event {
	return newEvent(EventListenerEmpty, SeverityWarning, nil)
}

func signInStartEvent(option SignInOption) Event {
	return newEvent(EventSignInStart, SeverityInfo, option.EventParameters())
}

func signInSuccessEvent(option SignInOption, result SignInResult) Event {
	params := result.User.EventParameters()
	maps.Copy(params, option.EventParameters())
	params["is_new_user"] = result.IsNewUser
	return newEvent(EventSignInSuccess, SeverityInfo, params)
}

func signInFailEvent(err error) Event {
	return newEvent(EventSignInFail, SeveritySevere, ErrorParameters(err))
}

func emailEvent(name, email string) Event {
	return newEvent(name, SeverityInfo, map[string]any{"email": email})
}

func emailFailEvent(name, email string, err error) Event {
	return newEvent(name, SeverityInfo, map[string]any{
		"email":         email,
		"error_message": ErrorParameters(err),
	})
}

func createUserSuccessEvent(email string, user User) Event {
	params := user.EventParameters()
	params["email"] = email
	return newEvent(EventCreateUserSuccess, SeverityInfo, params)
}

func userEvent(name, userID string) Event {
	return newEvent(name, SeverityInfo, map[string]any{"user_id": userID})
}

func userFailEvent(name, userID string, err error) Event {
	return newEvent(name, SeverityInfo, map[string]any{
		"user_id":       userID,
		"error_message": ErrorParameters(err),
	})
}

func updateEmailEvent(name, userID, email string) Event {
	return newEvent(name, SeverityInfo, map[string]any{
		"user_id":   userID,
		"new_email": email,
	})
}

func updateEmailFailEvent(userID, email string, err error) Event {
	return newEvent(EventUpdateEmailFail, SeverityInfo, map[string]any{
		"user_id":       userID,
		"new_email":     email,
		"error_message": ErrorParameters(err),
	})
}
