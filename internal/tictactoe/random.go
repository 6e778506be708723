package tictactoe

import "math/rand"

// Random is the uniform source behind move selection and the lose bias.
// *rand.Rand satisfies it; tests inject a seeded or scripted source.
type Random interface {
	Intn(n int) int
}

// globalRandom uses the package-level source, which is safe for concurrent use.
type globalRandom struct{}

func (globalRandom) Intn(n int) int {
	return rand.Intn(n) //nolint: gosec // it's ok
}
