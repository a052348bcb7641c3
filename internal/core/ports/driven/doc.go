// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CredentialStore: Session credential persistence (SQLite or memory)
//   - TokenRenewer: Exchanges a refresh credential for a new pair
//   - Authenticator: Password login and server-side logout
//   - DocumentSource: Fetches the caller's document collection
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TokenInspector: Reads access-token claims. Without it, session status
//     reports only whether credentials exist.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
