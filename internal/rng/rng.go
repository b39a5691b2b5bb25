// Package rng derives the independent, reproducible randomness streams the
// engine needs. Every stream is a pure function of (table seed, hand id,
// label), so a replay that knows the seed can regenerate each stream exactly
// without capturing any process state.
package rng

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	rand "math/rand/v2"
)

// Stream labels. Deal order, bot decisions and bot think delays draw from
// separate streams so consuming one never perturbs the others.
const (
	LabelDeal        = "deal"
	LabelBotDecision = "bot_decision"
	LabelBotDelay    = "bot_delay"
	LabelDecision    = "decision"
	LabelDelay       = "delay"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// Derive produces a child seed from a base seed, a sequence number and a
// label: the first 8 bytes, big-endian, of SHA-256 over "<seed>:<n>:<label>".
func Derive(seed int64, n int, label string) int64 {
	digest := sha256.Sum256([]byte(fmt.Sprintf("%d:%d:%s", seed, n, label)))
	return int64(binary.BigEndian.Uint64(digest[:8]))
}

// New returns a *rand.Rand seeded deterministically from the provided int64.
// The helper centralises how we derive the two 64-bit seeds required by
// rand/v2 so that all call sites get reproducible sequences.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
