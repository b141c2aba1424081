package ports

import (
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// Stream creates a deterministic RNG for a named stage/operation.
	// The permutation test, bootstrap and NMDS restarts each draw from their
	// own stream so reruns with the same base seed reproduce identical output
	// regardless of stage ordering.
	Stream(name string) *rand.Rand
}
