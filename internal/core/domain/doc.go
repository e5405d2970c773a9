// Package domain contains the core business entities and rules.
// It has no dependencies on infrastructure; adapters depend on it,
// never the other way around.
package domain
