// Package domain defines the core business entities for docverify.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentRecord: A server-owned identity document and its analysis metadata
//   - Text: A tri-state, possibly bilingual value reported by the analysis backend
//   - Verdict: The three-way verification outcome derived from a record
//   - CredentialPair: The access/refresh credentials of a logged-in session
//   - AnalysisJob: A document whose analysis is being polled
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
