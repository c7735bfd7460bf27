// Package auth0 implements authstate.Provider on top of an Auth0 tenant.
//
// Password flows go through the Authentication API; account reads and
// updates go through the Management API. Auth0 has no push channel, so the
// provider publishes every local change itself and re-reads the signed in
// account on Refresh (or periodically with RunRefresher) to pick up changes
// made elsewhere, such as a confirmed email update or a deleted account.
package auth0
