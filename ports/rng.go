package ports

import (
	"context"
	"math/rand"
)

// RNG provides seeded random number generation for deterministic operations
type RNG interface {
	// SeededStream creates a deterministic random number generator for a
	// named operation. The same (name, seed) pair always yields an identical
	// stream, so permutation rounds reproduce exactly regardless of how work
	// is scheduled across workers.
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)
}
