package authstate

// SignInKind enumerates the supported sign in methods.
type SignInKind int

const (
	SignInKindAnonymous SignInKind = iota
	SignInKindApple
	SignInKindEmail
	SignInKindGoogle
)

// SignInOption selects a sign in method. It carries no secrets and is used
// for dispatch and event labeling only.
type SignInOption struct {
	kind     SignInKind
	clientID string
}

// SignInAnonymous selects anonymous sign in.
func SignInAnonymous() SignInOption {
	return SignInOption{kind: SignInKindAnonymous}
}

// SignInApple selects Sign in with Apple.
func SignInApple() SignInOption {
	return SignInOption{kind: SignInKindApple}
}

// SignInEmail selects email and password sign in.
func SignInEmail() SignInOption {
	return SignInOption{kind: SignInKindEmail}
}

// SignInGoogle selects Google sign in for the given OAuth client.
func SignInGoogle(clientID string) SignInOption {
	return SignInOption{kind: SignInKindGoogle, clientID: clientID}
}

// Kind returns the selected method.
func (o SignInOption) Kind() SignInKind {
	return o.kind
}

// ClientID returns the Google OAuth client id, empty for other kinds.
func (o SignInOption) ClientID() string {
	return o.clientID
}

// String returns the label used in events.
func (o SignInOption) String() string {
	switch o.kind {
	case SignInKindAnonymous:
		return "anonymous"
	case SignInKindApple:
		return "apple"
	case SignInKindEmail:
		return "password"
	case SignInKindGoogle:
		return "google"
	default:
		return "unknown"
	}
}

// ProviderTag maps the option to the provider tag recorded on the user.
func (o SignInOption) ProviderTag() AuthProviderTag {
	return ParseAuthProviderTag(o.String())
}

// EventParameters returns the option as analytics parameters.
func (o SignInOption) EventParameters() map[string]any {
	return map[string]any{"sign_in_option": o.String()}
}
