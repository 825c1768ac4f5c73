// Package keymanager implements the cryptographic substrate described
// in spec.md §4.3 and §9: deterministic per-session key derivation
// across the arbitrating (secp256k1) and accordant (ed25519) groups, a
// cross-group DLEQ proof binding the two, and Schnorr/BIP340 adaptor
// signatures used to build and complete the Buy and Refund
// transactions. Grounded on backend-engineer1-land/lnwallet's
// "manager wraps a seed, methods are keyed by an opaque identifier"
// shape (see lnwallet/btcwallet/signer.go), adapted from an HD wallet
// keychain to the swap core's fixed, small set of key identifiers.
package keymanager

import (
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"filippo.io/edwards25519"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/fcswap/swapcore/keyid"
	"github.com/fcswap/swapcore/swaperr"
)

// Manager derives and holds the key material for one swap session. It
// never exposes a private scalar directly — every operation that needs
// one (Sign, EncryptSign, ...) takes a key identifier and performs the
// operation internally.
type Manager struct {
	seed    [32]byte
	account uint32
}

// NewManager constructs a Manager from a 32-byte session seed and an
// account index (allowing one seed to host independent swap sessions
// via domain-separated derivation, mirroring spec.md §4.3's "DLEQ over
// the scalar before any account-level tweak is applied" framing).
func NewManager(seed [32]byte, account uint32) *Manager {
	return &Manager{seed: seed, account: account}
}

// GetArbitratingPubkey returns the public key for an arbitrating key
// identifier, as used in lock/cancel/refund/punish/buy scripts.
func (m *Manager) GetArbitratingPubkey(id keyid.ArbitratingKeyId) (*secp256k1.PublicKey, error) {
	d, err := m.deriveArbitratingScalar(id)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	priv := secp256k1.NewPrivateKey(d)
	return priv.PubKey(), nil
}

// GetAccordantPubkey returns the canonical 32-byte ed25519 public
// point for an accordant key identifier.
func (m *Manager) GetAccordantPubkey(id keyid.AccordantKeyId) ([]byte, error) {
	x, err := m.deriveAccordantScalar(id)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	return edBasePoint(x).bytes(), nil
}

// GetSharedKey returns a raw shared secret (e.g. a Monero view key)
// for a SharedKeyId.
func (m *Manager) GetSharedKey(id keyid.SharedKeyId) ([]byte, error) {
	secret, err := m.deriveSharedSecret(id)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	return secret, nil
}

// Sign produces a regular BIP340 Schnorr signature over msg with the
// arbitrating key identified by id.
func (m *Manager) Sign(id keyid.ArbitratingKeyId, msg [32]byte) (*schnorr.Signature, error) {
	d, err := m.deriveArbitratingScalar(id)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	priv := secp256k1.NewPrivateKey(d)
	sig, err := schnorr.Sign(priv, msg[:])
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.InvalidSignature, err)
	}
	return sig, nil
}

// VerifySignature checks a regular BIP340 signature against a public
// key and message.
func VerifySignature(pub *secp256k1.PublicKey, msg [32]byte, sig *schnorr.Signature) error {
	if !sig.Verify(msg[:], pub) {
		return swaperr.NewCrypto(swaperr.InvalidSignature, nil)
	}
	return nil
}

// GetEncryptionKey returns the public encryption point T = x*G used to
// adaptor-encrypt a signature, for the accordant spend key identified
// by id — this is the secp256k1 reinterpretation described in §9, not
// the raw ed25519 public key.
func (m *Manager) GetEncryptionKey(id keyid.AccordantKeyId) (*secp256k1.PublicKey, error) {
	x, err := m.deriveAccordantScalar(id)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	xSecp := edScalarToSecpScalar(x)
	return secp256k1.NewPrivateKey(xSecp).PubKey(), nil
}

// GenerateProof produces the cross-group DLEQ proof binding the
// accordant spend key identified by id to its secp256k1
// reinterpretation, returning the ed25519 public key, the secp256k1
// encryption key and the proof itself.
func (m *Manager) GenerateProof(id keyid.AccordantKeyId) (spendPub []byte, encryptionPub *secp256k1.PublicKey, proof *DleqProof, err error) {
	x, err := m.deriveAccordantScalar(id)
	if err != nil {
		return nil, nil, nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	xEd, ySecp, proof, err := generateDleqProof(x)
	if err != nil {
		return nil, nil, nil, swaperr.NewCrypto(swaperr.InvalidProofOfKnowledge, err)
	}
	return xEd.bytes(), ySecp.toPubKey(), proof, nil
}

// VerifyProof verifies a counterparty's cross-group DLEQ proof.
func VerifyProof(spendPub []byte, encryptionPub *secp256k1.PublicKey, proof *DleqProof) error {
	return VerifyDleqProof(spendPub, encryptionPub, proof)
}

// EncryptSign produces an adaptor signature over msg under the
// arbitrating key identified by signingID, encrypted under
// encryptionPub (the counterparty's accordant encryption point from
// GetEncryptionKey/GenerateProof).
func (m *Manager) EncryptSign(signingID keyid.ArbitratingKeyId, encryptionPub *secp256k1.PublicKey, msg [32]byte) (*EncryptedSignature, error) {
	d, err := m.deriveArbitratingScalar(signingID)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	return encryptSign(d, encryptionPub, msg)
}

// DecryptSignature completes an adaptor signature using the accordant
// spend scalar identified by decryptID, yielding a publishable regular
// signature. This is the Buy-path "Alice decrypts Bob's encrypted
// signature with her own secret" / "Bob decrypts Alice's encrypted
// refund signature" step of spec.md §4.7.
func (m *Manager) DecryptSignature(encSig *EncryptedSignature, decryptID keyid.AccordantKeyId) (*schnorr.Signature, error) {
	x, err := m.deriveAccordantScalar(decryptID)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.MissingKey, err)
	}
	t := edScalarToSecpScalar(x)
	sig, err := decryptSignatureWithSecret(encSig, t)
	if err != nil {
		return nil, err
	}
	return sig, nil
}

// RecoverSecretKey recovers the accordant spend scalar's secp256k1
// reinterpretation t from an adaptor signature and its decrypted
// counterpart, the core of the swap's atomicity: whichever party
// publishes the completed signature hands the other the means to
// spend on the accordant chain. The returned scalar must still be
// byte-reversed back into an ed25519 scalar to use on the accordant
// chain; callers do that with EdScalarFromReversed (or
// ReverseScalarBytes) below.
func RecoverSecretKey(encSig *EncryptedSignature, sig *schnorr.Signature) (*secp256k1.ModNScalar, error) {
	return recoverSecretFromSignature(encSig, sig)
}

// ReverseScalarBytes exposes the byte-reversal used to move a scalar
// between the ed25519 and secp256k1 representations in both
// directions, since the transform is its own inverse.
func ReverseScalarBytes(b []byte) []byte {
	return reverseBytes(b)
}

// EdScalarFromReversed reconstructs an ed25519 scalar from the
// secp256k1 scalar recovered via RecoverSecretKey, completing the
// round trip described in spec.md §9. Byte-reversal is its own
// inverse, so reversing the recovered scalar's bytes a second time
// yields back the original canonical ed25519 scalar exactly — no
// hashing or reduction is applied here, since that would change the
// recovered value rather than merely re-expressing it.
func EdScalarFromReversed(secpScalar *secp256k1.ModNScalar) (*edwards25519.Scalar, error) {
	be := secpScalar.Bytes()
	le := reverseBytes(be[:])
	return edwards25519.NewScalar().SetCanonicalBytes(le)
}
