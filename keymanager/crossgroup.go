package keymanager

import (
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"filippo.io/edwards25519"
)

// reverseBytes returns a new slice with b's byte order reversed,
// leaving b untouched.
func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}

// edScalarToSecpScalar reinterprets an ed25519 scalar as a secp256k1
// scalar by reversing its canonical little-endian byte encoding, per
// spec.md §9: "the accordant spend secret... is reinterpreted as a
// secp256k1 scalar by reversing its byte order". Both curves' scalar
// fields are close enough in size that every valid ed25519 scalar fits,
// so SetByteSlice's reduction is a no-op for well-formed input.
func edScalarToSecpScalar(x *edwards25519.Scalar) *secp256k1.ModNScalar {
	le := x.Bytes() // 32-byte little-endian canonical encoding
	be := reverseBytes(le)
	var s secp256k1.ModNScalar
	s.SetByteSlice(be)
	return &s
}

// secpPoint is a small affine-coordinate convenience wrapper used by
// the adaptor-signature and DLEQ code below.
type secpPoint struct {
	j secp256k1.JacobianPoint
}

func secpBasePoint(k *secp256k1.ModNScalar) secpPoint {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &p)
	p.ToAffine()
	return secpPoint{j: p}
}

func secpScalarMult(k *secp256k1.ModNScalar, base secpPoint) secpPoint {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(k, &base.j, &p)
	p.ToAffine()
	return secpPoint{j: p}
}

func secpAdd(a, b secpPoint) secpPoint {
	var p secp256k1.JacobianPoint
	secp256k1.AddNonConst(&a.j, &b.j, &p)
	p.ToAffine()
	return secpPoint{j: p}
}

func secpNegate(a secpPoint) secpPoint {
	p := a.j
	p.Y.Negate(1)
	p.Y.Normalize()
	return secpPoint{j: p}
}

func (p secpPoint) isOddY() bool {
	return p.j.Y.IsOdd()
}

func (p secpPoint) xBytes() []byte {
	b := p.j.X.Bytes()
	return b[:]
}

func (p secpPoint) toPubKey() *secp256k1.PublicKey {
	return secp256k1.NewPublicKey(&p.j.X, &p.j.Y)
}

func pubKeyToPoint(pub *secp256k1.PublicKey) secpPoint {
	var j secp256k1.JacobianPoint
	pub.AsJacobian(&j)
	j.ToAffine()
	return secpPoint{j: j}
}

// edPoint wraps edwards25519.Point for symmetry with secpPoint.
type edPoint struct {
	p *edwards25519.Point
}

func edBasePoint(s *edwards25519.Scalar) edPoint {
	return edPoint{p: edwards25519.NewIdentityPoint().ScalarBaseMult(s)}
}

func edScalarMult(s *edwards25519.Scalar, base edPoint) edPoint {
	return edPoint{p: edwards25519.NewIdentityPoint().ScalarMult(s, base.p)}
}

func edAdd(a, b edPoint) edPoint {
	return edPoint{p: edwards25519.NewIdentityPoint().Add(a.p, b.p)}
}

func (e edPoint) bytes() []byte {
	return e.p.Bytes()
}

func (e edPoint) equal(o edPoint) bool {
	return e.p.Equal(o.p) == 1
}
