package keymanager

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/hkdf"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"filippo.io/edwards25519"

	"github.com/fcswap/swapcore/keyid"
)

// Domain separation labels for HKDF derivation. Mirrors the "BIP32-style
// derivation over secp256k1, deterministic derivation over ed25519 using
// the same seed with domain separation" wording of spec.md §4.3 — rather
// than a full HD tree (unnecessary for a single-account swap session),
// each key identifier gets its own HKDF info string built from one of
// these labels plus the identifier's canonical bytes and account index.
const (
	labelArbitrating = "fcswap/arbitrating/v1"
	labelAccordant   = "fcswap/accordant/v1"
	labelShared      = "fcswap/shared/v1"
)

// hkdfExpand derives n bytes deterministically from the manager's seed,
// the domain label and an arbitrary info suffix (typically a key
// identifier's canonical bytes).
func (m *Manager) hkdfExpand(label string, infoSuffix []byte, n int) ([]byte, error) {
	info := make([]byte, 0, len(label)+4+len(infoSuffix))
	info = append(info, []byte(label)...)
	var acctBuf [4]byte
	binary.LittleEndian.PutUint32(acctBuf[:], m.account)
	info = append(info, acctBuf[:]...)
	info = append(info, infoSuffix...)

	kdf := hkdf.New(sha256.New, m.seed[:], nil, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, err
	}
	return out, nil
}

// arbitratingKeyInfo returns the byte suffix identifying an arbitrating
// key for HKDF derivation: the key id's own wire encoding is reused so
// distinct identifiers never collide.
func arbitratingKeyInfo(id keyid.ArbitratingKeyId) ([]byte, error) {
	var buf bufWriter
	if err := id.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.b, nil
}

func accordantKeyInfo(id keyid.AccordantKeyId) ([]byte, error) {
	var buf bufWriter
	if err := id.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.b, nil
}

func sharedKeyInfo(id keyid.SharedKeyId) ([]byte, error) {
	var buf bufWriter
	if err := id.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.b, nil
}

// bufWriter is a tiny io.Writer sink, avoiding a bytes.Buffer import
// purely to collect a key identifier's encoded form.
type bufWriter struct{ b []byte }

func (w *bufWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}

// deriveArbitratingScalar derives the secp256k1 private scalar bound to
// an arbitrating key identifier.
func (m *Manager) deriveArbitratingScalar(id keyid.ArbitratingKeyId) (*secp256k1.ModNScalar, error) {
	info, err := arbitratingKeyInfo(id)
	if err != nil {
		return nil, err
	}
	raw, err := m.hkdfExpand(labelArbitrating, info, 32)
	if err != nil {
		return nil, err
	}
	var s secp256k1.ModNScalar
	s.SetByteSlice(raw)
	return &s, nil
}

// deriveAccordantScalar derives the ed25519 private scalar bound to an
// accordant key identifier. 64 bytes are pulled from HKDF so
// edwards25519.Scalar.SetUniformBytes can reduce mod L without bias.
func (m *Manager) deriveAccordantScalar(id keyid.AccordantKeyId) (*edwards25519.Scalar, error) {
	info, err := accordantKeyInfo(id)
	if err != nil {
		return nil, err
	}
	raw, err := m.hkdfExpand(labelAccordant, info, 64)
	if err != nil {
		return nil, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(raw)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// deriveSharedSecret derives a raw 32-byte shared secret (e.g. a Monero
// view key) for a SharedKeyId.
func (m *Manager) deriveSharedSecret(id keyid.SharedKeyId) ([]byte, error) {
	info, err := sharedKeyInfo(id)
	if err != nil {
		return nil, err
	}
	return m.hkdfExpand(labelShared, info, 32)
}

// expand64 stretches 32 random bytes into 64 pseudorandom bytes with
// SHA-512, used to derive a single nonce value that can be reduced
// consistently into both the ed25519 scalar field (mod L) and the
// secp256k1 scalar field (mod N) for the cross-group DLEQ proof (see
// dleq.go).
func expand64(seed []byte) []byte {
	h := sha512.Sum512(seed)
	return h[:]
}
