// Package domain defines the core business types for the buyback mailer.
//
// Types in this package are pure value objects with no behavior beyond
// simple derivations, no database dependencies, and no HTTP concerns.
// They are the shared language between the planning engine, handlers,
// and repositories.
package domain
