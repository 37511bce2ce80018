// Package fuzzutil generates randomized key sets for tests that need many
// distinct keys (node splits, iteration order), seeding a fast
// non-cryptographic hash the way the multimap example seeds its
// Set3-backed structures in its own tests. The hash-collision test builds
// its colliding keys analytically instead. It has no bearing on the
// engine's own DJB2 key hash, which stays fixed everywhere else in this
// module.
package fuzzutil

import (
	"fmt"

	"github.com/dolthub/maphash"
)

// KeyGen generates a stream of distinct key strings from a single seed, for
// building large key sets in tests. maphash.NewHasher picks a random hash
// seed, so the stream for a given seed differs from one process to the next.
type KeyGen struct {
	hasher maphash.Hasher[uint64]
	seed   uint64
	n      uint64
}

// NewKeyGen returns a generator seeded from seed.
func NewKeyGen(seed uint64) *KeyGen {
	return &KeyGen{hasher: maphash.NewHasher[uint64](), seed: seed}
}

// Next returns the next key in the stream.
func (g *KeyGen) Next() string {
	g.n++
	h := g.hasher.Hash(g.seed ^ g.n)
	return fmt.Sprintf("k-%016x", h)
}

// NextN returns the next n keys in the stream.
func (g *KeyGen) NextN(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}
