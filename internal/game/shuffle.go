package game

import "math/rand"

// Shuffle returns a new slice holding the same elements as in, permuted
// uniformly at random by Fisher-Yates. The input is never mutated, and
// sequences of length 0 or 1 come back as-is. Callers inject the rand
// source so game starts are reproducible under a fixed seed.
func Shuffle[T any](rng *rand.Rand, in []T) []T {
	out := make([]T, len(in))
	copy(out, in)

	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}
