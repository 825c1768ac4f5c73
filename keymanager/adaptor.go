package keymanager

import (
	"crypto/rand"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/fcswap/swapcore/swaperr"
)

// bip340ChallengeTag is the domain separator BIP340/schnorr.Sign uses
// for its Fiat-Shamir challenge; reusing it keeps the regular
// signatures this package produces interoperable with any other
// BIP340 verifier, and keeps the adaptor scheme's challenge consistent
// with the signature it eventually decrypts into.
var bip340ChallengeTag = []byte("BIP0340/challenge")

// maxAdaptorNonceAttempts bounds the even-Y nonce rejection loop in
// EncryptSign; a uniform 256-bit nonce lands on an even-Y point roughly
// half the time, so failure within this many attempts is effectively
// impossible for well-formed input.
const maxAdaptorNonceAttempts = 256

// EncryptedSignature is a Schnorr adaptor signature: a pre-signature
// (RPub, S) over a nonce point RPub = R + T that has been "encrypted"
// under the public point T = y*G. Completing it with y yields a
// regular BIP340 signature over message m under the signing key; the
// pair (regular signature, adaptor signature) recovers y. See
// SPEC_FULL.md "Open Questions resolved" #2 for why this construction
// (not 2-party ECDSA) was chosen.
type EncryptedSignature struct {
	RPub            [32]byte // x-only encoded nonce commitment R+T
	RPubOddY        bool
	S               [32]byte // pre-signature scalar s' = k + e*x
	EncryptionPoint [33]byte // compressed T = y*G
}

// normalizeForEvenY returns (d', P') such that P' = d'*G has an even Y
// coordinate, negating d (and P) if P's Y is odd — the BIP340
// convention used so x-only public keys are unambiguous.
func normalizeForEvenY(d *secp256k1.ModNScalar, p secpPoint) (*secp256k1.ModNScalar, secpPoint) {
	if !p.isOddY() {
		return d, p
	}
	neg := new(secp256k1.ModNScalar)
	neg.Set(d)
	neg.Negate()
	return neg, secpNegate(p)
}

func bip340Challenge(rX, pX [32]byte, msg [32]byte) *secp256k1.ModNScalar {
	h := chainhash.TaggedHash(bip340ChallengeTag, rX[:], pX[:], msg[:])
	var e secp256k1.ModNScalar
	e.SetByteSlice(h[:])
	return &e
}

// encryptSign produces a Schnorr adaptor signature over msg under the
// private scalar d, encrypted under encryptionPub = y*G. Exported
// through Manager.EncryptSign, which resolves d from a key identifier.
func encryptSign(d *secp256k1.ModNScalar, encryptionPub *secp256k1.PublicKey, msg [32]byte) (*EncryptedSignature, error) {
	pub := secpBasePoint(d)
	dNorm, pubNorm := normalizeForEvenY(d, pub)

	var pX [32]byte
	copy(pX[:], pubNorm.xBytes())

	T := pubKeyToPoint(encryptionPub)

	for attempt := 0; attempt < maxAdaptorNonceAttempts; attempt++ {
		var kBytes [32]byte
		if _, err := rand.Read(kBytes[:]); err != nil {
			return nil, swaperr.NewCrypto(swaperr.InvalidSignature, err)
		}
		var k secp256k1.ModNScalar
		k.SetByteSlice(kBytes[:])
		if k.IsZero() {
			continue
		}

		R := secpBasePoint(&k)
		RPub := secpAdd(R, T)
		if RPub.isOddY() {
			continue
		}

		var rX [32]byte
		copy(rX[:], RPub.xBytes())

		e := bip340Challenge(rX, pX, msg)

		var ex secp256k1.ModNScalar
		ex.Mul2(e, dNorm)
		s := new(secp256k1.ModNScalar)
		s.Set(&k)
		s.Add(&ex)

		var sBytes [32]byte
		copy(sBytes[:], s.Bytes()[:])

		var encPointBytes [33]byte
		copy(encPointBytes[:], encryptionPub.SerializeCompressed())

		return &EncryptedSignature{
			RPub:            rX,
			RPubOddY:        RPub.isOddY(),
			S:               sBytes,
			EncryptionPoint: encPointBytes,
		}, nil
	}

	return nil, swaperr.NewCrypto(swaperr.InvalidSignature, nil)
}

// VerifyEncryptedSignature checks that encSig is a valid adaptor
// signature over msg for signingPub, encrypted under encryptionPub:
// s'*G == (RPub - T) + e*P.
func VerifyEncryptedSignature(signingPub, encryptionPub *secp256k1.PublicKey, msg [32]byte, encSig *EncryptedSignature) error {
	pubPoint := pubKeyToPoint(signingPub)
	pX := pubPoint.xBytes()
	var pXArr [32]byte
	copy(pXArr[:], pX)
	if pubPoint.isOddY() {
		pubPoint = secpNegate(pubPoint)
	}

	e := bip340Challenge(encSig.RPub, pXArr, msg)

	var sScalar secp256k1.ModNScalar
	sScalar.SetByteSlice(encSig.S[:])
	lhs := secpBasePoint(&sScalar)

	T, err := secp256k1.ParsePubKey(encSig.EncryptionPoint[:])
	if err != nil {
		return swaperr.NewCrypto(swaperr.InvalidEncryptedSignature, err)
	}
	TPoint := pubKeyToPoint(T)

	rPubPub, err := reconstructXOnly(encSig.RPub, encSig.RPubOddY)
	if err != nil {
		return swaperr.NewCrypto(swaperr.InvalidEncryptedSignature, err)
	}
	R := secpAdd(rPubPub, secpNegate(TPoint))

	eP := secpScalarMult(e, pubPoint)
	rhs := secpAdd(R, eP)

	if lhs.j.X != rhs.j.X || lhs.j.Y != rhs.j.Y {
		return swaperr.NewCrypto(swaperr.InvalidEncryptedSignature, nil)
	}
	return nil
}

// reconstructXOnly rebuilds a full point from its x-only encoding and
// the Y-parity that was recorded alongside it (the adaptor's encrypted
// nonce point cannot be stored x-only-by-BIP340-convention since it is
// not itself a signature's published nonce).
func reconstructXOnly(x [32]byte, oddY bool) (secpPoint, error) {
	prefix := byte(0x02)
	if oddY {
		prefix = 0x03
	}
	ser := append([]byte{prefix}, x[:]...)
	pub, err := secp256k1.ParsePubKey(ser)
	if err != nil {
		return secpPoint{}, err
	}
	return pubKeyToPoint(pub), nil
}

// decryptSignatureWithSecret completes an adaptor signature with the secret t,
// yielding a regular BIP340 signature over the same message.
func decryptSignatureWithSecret(encSig *EncryptedSignature, t *secp256k1.ModNScalar) (*schnorr.Signature, error) {
	var sPrime secp256k1.ModNScalar
	sPrime.SetByteSlice(encSig.S[:])

	s := new(secp256k1.ModNScalar)
	s.Set(&sPrime)
	s.Add(t)

	var rX secp256k1.FieldVal
	if overflow := rX.SetByteSlice(encSig.RPub[:]); overflow {
		return nil, swaperr.NewCrypto(swaperr.InvalidEncryptedSignature, nil)
	}

	return schnorr.NewSignature(&rX, s), nil
}

// recoverSecretFromSignature extracts t from the pair (encrypted
// signature, completed regular signature): t = s - s'.
func recoverSecretFromSignature(encSig *EncryptedSignature, sig *schnorr.Signature) (*secp256k1.ModNScalar, error) {
	sigBytes := sig.Serialize()
	if len(sigBytes) != 64 {
		return nil, swaperr.NewCrypto(swaperr.InvalidSignature, nil)
	}
	var sScalar secp256k1.ModNScalar
	sScalar.SetByteSlice(sigBytes[32:64])

	var sPrime secp256k1.ModNScalar
	sPrime.SetByteSlice(encSig.S[:])

	t := new(secp256k1.ModNScalar)
	t.Set(&sScalar)
	negSPrime := new(secp256k1.ModNScalar)
	negSPrime.Set(&sPrime)
	negSPrime.Negate()
	t.Add(negSPrime)

	return t, nil
}
