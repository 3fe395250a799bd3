// Package integration contains the Integration bounded context.
// This context manages configured connectors to external systems.
//
// Key concepts:
//   - Integration: Aggregate root holding connector config (endpoints,
//     credential, rate limits), lifecycle status and execution metrics
//   - Credential: Value object wrapping an opaque secret reference with expiry
//   - Transport: Port interface for performing the actual network call
//   - Health: Pure derivation of an operational fitness score from metrics
//     and credential state
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (HTTP transport, gorm repositories) are in the infrastructure layer
package integration
