// Package userservice implements the identity service of inkwell: user
// accounts, the follow graph and the user-level counters.
//
// Layering:
// - domain: entities, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence and events
// - adapters: concrete HTTP, memory, postgres and password hashing
// - transport: module-private DTOs for HTTP contracts
//
// The service publishes on user-events and consumes post-events and the
// two interaction topics. It never reads another service's tables.
package userservice
