// Package commitment implements the tagged keccak-256 commit/validate
// scheme of spec.md §4.2, grounded on original_source/src/crypto.rs's
// CommitmentEngine/KeccakCommitment: a stateless engine that hashes the
// canonical-bytes encoding of a field, and a per-field commitment
// bundle that can be validated against a later reveal.
package commitment

import (
	"golang.org/x/crypto/sha3"

	"github.com/fcswap/swapcore/swaperr"
)

// DigestSize is the length in bytes of a single field commitment.
const DigestSize = 32

// Digest is a single keccak-256 commitment.
type Digest [DigestSize]byte

// Engine commits to arbitrary byte strings with keccak-256. It holds
// no state and is safe to share across swaps.
type Engine struct{}

// NewEngine returns a stateless commitment engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Commit hashes value with keccak-256, matching
// original_source/src/crypto.rs's CommitmentEngine::commit_to.
func (e *Engine) Commit(value []byte) Digest {
	h := sha3.NewLegacyKeccak256()
	h.Write(value)
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// FieldCommitment is a label -> digest mapping covering every field of
// a revealed parameter bundle, in the fixed order the bundle declares
// (see the fieldOrder list in package swapmsg), so that validation is
// deterministic rather than dependent on map iteration order.
type FieldCommitment struct {
	Order  []string
	Labels map[string]Digest
}

// CommitFields builds a FieldCommitment over fields, preserving the
// caller-supplied order for later deterministic validation.
func (e *Engine) CommitFields(order []string, fields map[string][]byte) *FieldCommitment {
	labels := make(map[string]Digest, len(order))
	for _, name := range order {
		labels[name] = e.Commit(fields[name])
	}
	return &FieldCommitment{Order: append([]string(nil), order...), Labels: labels}
}

// Validate recomputes the commitment for each revealed field, in
// Order, and compares it against the stored digest, returning
// InvalidCommitment on the first mismatch (spec.md §4.2).
func (fc *FieldCommitment) Validate(e *Engine, reveal map[string][]byte) error {
	for _, name := range fc.Order {
		want, ok := fc.Labels[name]
		if !ok {
			return swaperr.NewCrypto(swaperr.InvalidCommitment, nil)
		}
		got := e.Commit(reveal[name])
		if got != want {
			return swaperr.NewCrypto(swaperr.InvalidCommitment, nil)
		}
	}
	return nil
}
