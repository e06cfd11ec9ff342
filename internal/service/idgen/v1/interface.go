// Package idgen provides unique identifier generation.
package idgen

// Generator defines a set of methods for types implementing Generator.
type Generator interface {
	NewCode(length int) string
	NewID() string
}
