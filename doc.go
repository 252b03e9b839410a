// Package auth implements credential verification and session lifecycle
// management for the hotel CMS backend.
//
// The package is organized around four collaborators that the HTTP layer
// composes into the observable login/logout behavior:
//
//   - Authenticator validates an (identifier, secret) pair against the
//     credential store and produces a typed AuthResult. Bad credentials and
//     inactive accounts are results, not errors; only infrastructure
//     failures propagate as errors.
//   - SessionManager issues, validates, and revokes opaque random session
//     tokens persisted server side. Validate re-reads the bound account on
//     every call, so deactivating an account invalidates its sessions
//     immediately.
//   - Guard decides allow/deny for a (token, minimum role) pair. Roles are
//     ordered viewer < editor < admin; anything outside that set collapses
//     to viewer.
//   - LoginFlow ties the two together: submit -> authenticate -> session,
//     and logout -> revoke. Logging out without a session is a no-op.
//
// Persistence is Bun backed (accounts and sessions repositories plus a
// RepositoryManager for transactions). The fiber adapter in
// http_controller.go and middleware.go turns the core into /login and
// /logout routes and a Protected() route guard. All store and config
// dependencies are injected; the package keeps no global state.
package auth
