// Package interactionservice implements likes and comments of inkwell.
//
// Layering:
// - domain: entities, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence and events
// - adapters: concrete HTTP, memory and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// The service projects posts from post-events. When a post is deactivated
// or deleted its comments and likes are soft-deleted in the same unit of
// work that tombstones the projection.
package interactionservice
