// Package swapmsg implements the protocol message envelopes and the
// per-role SessionParameters/Commitment types of spec.md §3/§4.8.
// Grounded on lnwire/message.go's envelope/dispatch pattern: a
// Message interface, a one-byte MessageType discriminant, and a
// DecodeMessage dispatcher mirroring ReadMessage's switch-by-type.
package swapmsg

import (
	"io"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fcswap/swapcore/consensus"
	"github.com/fcswap/swapcore/fee"
	"github.com/fcswap/swapcore/keymanager"
	"github.com/fcswap/swapcore/swaperr"
)

// SessionParameters is the per-role tuple revealed after commitment,
// per spec.md §3. PunishPub is nil for Bob (who cannot punish).
//
// FundPub is carried here even though spec.md's abbreviated field list
// omits it: CoreArbitratingTransactions describes Lock as one of "four
// partially-signed transactions", cosigned like Cancel/Refund/Punish,
// which requires the Funding output itself to be a joint 2-of-2 rather
// than a single-party address — so both sides' Fund keys must be
// exchanged during the same reveal as Buy/Cancel/Refund. See
// DESIGN.md's swapmsg entry for the note on this.
type SessionParameters struct {
	FundPub    *secp256k1.PublicKey
	BuyPub     *secp256k1.PublicKey
	CancelPub  *secp256k1.PublicKey
	RefundPub  *secp256k1.PublicKey
	PunishPub  *secp256k1.PublicKey // nil iff this is Bob's bundle
	AdaptorPub *secp256k1.PublicKey // Y = encryption key
	SpendPub   []byte               // 32-byte ed25519 accordant spend pubkey
	ViewSecret []byte               // accordant shared view secret
	Proof      *keymanager.DleqProof

	DestinationAddress string
	CancelTimelock      uint32
	PunishTimelock       uint32
	FeeStrategy          fee.Strategy
}

// fieldOrder is the fixed field-name ordering the commitment engine
// and the wire encoding both use, so commitment validation is
// deterministic (not dependent on map iteration order).
var fieldOrder = []string{
	"fund_pub", "buy_pub", "cancel_pub", "refund_pub", "punish_pub", "adaptor_pub",
	"spend_pub", "view_secret", "proof", "destination_address",
	"cancel_timelock", "punish_timelock", "fee_strategy",
}

// fieldBytes returns the canonical-bytes encoding of each named field,
// in fieldOrder, used both for the commitment digests and for
// sanity-checking a reveal.
func (p SessionParameters) fieldBytes() (map[string][]byte, error) {
	out := make(map[string][]byte, len(fieldOrder))
	out["fund_pub"] = p.FundPub.SerializeCompressed()
	out["buy_pub"] = p.BuyPub.SerializeCompressed()
	out["cancel_pub"] = p.CancelPub.SerializeCompressed()
	out["refund_pub"] = p.RefundPub.SerializeCompressed()
	if p.PunishPub != nil {
		out["punish_pub"] = p.PunishPub.SerializeCompressed()
	} else {
		out["punish_pub"] = nil
	}
	out["adaptor_pub"] = p.AdaptorPub.SerializeCompressed()
	out["spend_pub"] = p.SpendPub
	out["view_secret"] = p.ViewSecret

	proofBytes, err := consensus.Encode(dleqProofCodec{p.Proof})
	if err != nil {
		return nil, err
	}
	out["proof"] = proofBytes

	out["destination_address"] = []byte(p.DestinationAddress)

	var tlBuf bufWriter
	_ = consensus.WriteUint32(&tlBuf, p.CancelTimelock)
	out["cancel_timelock"] = tlBuf.b

	var tpBuf bufWriter
	_ = consensus.WriteUint32(&tpBuf, p.PunishTimelock)
	out["punish_timelock"] = tpBuf.b

	feeBytes, err := consensus.Encode(p.FeeStrategy)
	if err != nil {
		return nil, err
	}
	out["fee_strategy"] = feeBytes

	return out, nil
}

// Encode implements consensus.Encodable.
func (p SessionParameters) Encode(w io.Writer) error {
	if err := consensus.WriteVarBytes(w, p.FundPub.SerializeCompressed()); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, p.BuyPub.SerializeCompressed()); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, p.CancelPub.SerializeCompressed()); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, p.RefundPub.SerializeCompressed()); err != nil {
		return err
	}
	hasPunish := p.PunishPub != nil
	if err := consensus.WriteUint8(w, boolByte(hasPunish)); err != nil {
		return err
	}
	if hasPunish {
		if err := consensus.WriteVarBytes(w, p.PunishPub.SerializeCompressed()); err != nil {
			return err
		}
	}
	if err := consensus.WriteVarBytes(w, p.AdaptorPub.SerializeCompressed()); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, p.SpendPub); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, p.ViewSecret); err != nil {
		return err
	}
	if err := (dleqProofCodec{p.Proof}).Encode(w); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, []byte(p.DestinationAddress)); err != nil {
		return err
	}
	if err := consensus.WriteUint32(w, p.CancelTimelock); err != nil {
		return err
	}
	if err := consensus.WriteUint32(w, p.PunishTimelock); err != nil {
		return err
	}
	return p.FeeStrategy.Encode(w)
}

// Decode implements consensus.Decodable.
func (p *SessionParameters) Decode(r io.Reader) error {
	fundBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.FundPub, err = secp256k1.ParsePubKey(fundBytes)
	if err != nil {
		return swaperr.NewConsensus(consErrSub(), err)
	}

	buyBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.BuyPub, err = secp256k1.ParsePubKey(buyBytes)
	if err != nil {
		return swaperr.NewConsensus(consErrSub(), err)
	}

	cancelBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.CancelPub, err = secp256k1.ParsePubKey(cancelBytes)
	if err != nil {
		return swaperr.NewConsensus(consErrSub(), err)
	}

	refundBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.RefundPub, err = secp256k1.ParsePubKey(refundBytes)
	if err != nil {
		return swaperr.NewConsensus(consErrSub(), err)
	}

	hasPunish, err := consensus.ReadUint8(r)
	if err != nil {
		return err
	}
	if hasPunish != 0 {
		punishBytes, err := consensus.ReadVarBytes(r)
		if err != nil {
			return err
		}
		p.PunishPub, err = secp256k1.ParsePubKey(punishBytes)
		if err != nil {
			return swaperr.NewConsensus(consErrSub(), err)
		}
	} else {
		p.PunishPub = nil
	}

	adaptorBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.AdaptorPub, err = secp256k1.ParsePubKey(adaptorBytes)
	if err != nil {
		return swaperr.NewConsensus(consErrSub(), err)
	}

	if p.SpendPub, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	if p.ViewSecret, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}

	var proofCodec dleqProofCodec
	if err := proofCodec.Decode(r); err != nil {
		return err
	}
	p.Proof = proofCodec.proof

	destBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.DestinationAddress = string(destBytes)

	if p.CancelTimelock, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	if p.PunishTimelock, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	var strat fee.Strategy
	if err := strat.Decode(r); err != nil {
		return err
	}
	p.FeeStrategy = strat
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func consErrSub() swaperr.Sub { return swaperr.ParseFailed }

// dleqProofCodec adapts keymanager.DleqProof (a plain data struct with
// no wire methods, since keymanager has no consensus dependency) to
// consensus.Encodable/Decodable at this package's boundary.
type dleqProofCodec struct {
	proof *keymanager.DleqProof
}

func (c dleqProofCodec) Encode(w io.Writer) error {
	if err := consensus.WriteVarBytes(w, c.proof.VEd); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, c.proof.VSecp); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, c.proof.REd); err != nil {
		return err
	}
	return consensus.WriteVarBytes(w, c.proof.RSecp)
}

func (c *dleqProofCodec) Decode(r io.Reader) error {
	proof := &keymanager.DleqProof{}
	var err error
	if proof.VEd, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	if proof.VSecp, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	if proof.REd, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	if proof.RSecp, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	c.proof = proof
	return nil
}

// bufWriter is a tiny io.Writer sink for collecting a single encoded
// field's bytes, mirroring keymanager/derive.go's identical helper.
type bufWriter struct{ b []byte }

func (w *bufWriter) Write(p []byte) (int, error) {
	w.b = append(w.b, p...)
	return len(p), nil
}
