// Package authstate keeps a process wide view of who is signed in on top of a
// hosted identity backend.
//
// Manager:
//   - Wraps a Provider and exposes the current user as a snapshot
//     (CurrentUser, IsSignedIn, CurrentUserID) and as a stream (Watch).
//   - Every account operation (sign in, sign out, delete, email/password
//     flows) is delegated to the Provider. Provider errors are returned
//     unchanged; operations that need a signed in user fail with
//     ErrNotSignedIn before reaching the Provider.
//   - State is driven by the Provider's push stream. Sign in flows reattach
//     the stream after the call (Resubscribe) so only one subscription is
//     ever live and pushes from a replaced subscription are dropped.
//
// Event sinks:
//   - Every operation emits Start/Success/Fail records and every push emits a
//     listener record, together with Identify and SetProperties calls for the
//     signed in user. Sinks run best effort: errors and panics are logged and
//     never reach the caller. Sinks must not call back into the Manager.
//   - Implementations live under sink/ (recorder, logger, bun, OpenTelemetry,
//     Sentry); MultiSink fans out to several of them.
//
// Providers:
//   - provider/memory is an in-process backend for tests and local runs.
//   - provider/auth0 talks to an Auth0 tenant.
package authstate
