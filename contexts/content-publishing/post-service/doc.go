// Package postservice implements the publishing service of inkwell: posts,
// their lifecycle and their engagement counters.
//
// Layering:
// - domain: entities, invariants, errors
// - application: commands/queries/workers using explicit ports
// - ports: stable boundaries for persistence and events
// - adapters: concrete HTTP, memory and postgres implementations
// - transport: module-private DTOs for HTTP contracts
//
// Posts are never physically removed. likesCount and commentsCount are
// recomputed from the engagement refs projected from interaction events.
package postservice
