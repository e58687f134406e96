// Package domain defines the core domain models for busstate.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - MessageID: ULID-based identifiers for bus messages
//   - SagaID: 128-bit correlation identifiers for sagas
//   - Errors: Domain-specific error definitions
package domain
