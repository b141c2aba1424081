// Package rng provides the deterministic random-stream adapter. Every
// randomized stage asks for a stream by name, so adding or reordering stages
// never perturbs another stage's draws.
package rng

import (
	"hash/fnv"
	"math/rand"
)

// SeededSource derives independent deterministic streams from one base seed
type SeededSource struct {
	baseSeed int64
}

// NewSeededSource creates a source rooted at baseSeed
func NewSeededSource(baseSeed int64) *SeededSource {
	return &SeededSource{baseSeed: baseSeed}
}

// Stream returns a rand.Rand seeded from the base seed and the stream name.
// The same (seed, name) pair always yields the same sequence.
func (s *SeededSource) Stream(name string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(name))
	return rand.New(rand.NewSource(s.baseSeed ^ int64(h.Sum64())))
}
