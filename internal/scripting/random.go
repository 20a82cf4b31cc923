// internal/scripting/random.go
package scripting

import "math/rand/v2"

// RandomSource picks phrase candidates. *rand.Rand satisfies it.
type RandomSource interface {
	IntN(n int) int
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewRandomSource returns a source seeded from the runtime generator.
// The result is not safe for concurrent use; create one per generation.
func NewRandomSource() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
