// Package domain defines the core domain types and interfaces.
//
// Concept-oriented files (domain.go, engagement.go, errors.go) hold shared
// types and cross-cutting store contracts. No implementation code - the
// analyzers and adapters depend on this package, never the other way around.
package domain
