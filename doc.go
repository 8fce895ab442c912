// Package provision implements an invitation-gated user provisioning and
// RBAC authorization core.
//
// Registration is closed: accounts can only be created against a previously
// issued invitation token. Consuming an invitation is destructive and atomic,
// so a token redeems exactly one registration even under concurrent attempts.
//
// Access control:
//   - Accounts carry a closed Role enumeration (admin, user) and an enabled
//     flag that gates authentication independently of the role.
//   - AccessPolicy evaluates an ordered rule list over request paths. Rules
//     use ant-style patterns ("/admin/**") and the first match wins, so more
//     specific patterns must precede the catch-all.
//
// Failure semantics:
//   - Authenticate collapses unknown login, wrong password, and disabled
//     account into a single ErrAuthenticationFailed so callers cannot tell
//     which check rejected them.
//   - Store timeouts surface as ErrStorageUnavailable and are retryable by
//     the caller; the core performs no internal retries.
package provision
