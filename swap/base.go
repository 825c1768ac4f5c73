package swap

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fcswap/swapcore/commitment"
	"github.com/fcswap/swapcore/fee"
	"github.com/fcswap/swapcore/keyid"
	"github.com/fcswap/swapcore/keymanager"
	"github.com/fcswap/swapcore/offer"
	"github.com/fcswap/swapcore/swaperr"
	"github.com/fcswap/swapcore/swapmsg"
)

// base holds the fields common to AliceState and BobState: identity,
// the negotiated offer, the session's key manager, both sides'
// parameters once known, the built transaction graph, and the
// sequence guard. Grounded on contractcourt/htlc_timeout_resolver.go's
// plain state-struct-with-methods shape.
type base struct {
	id      offer.SwapId
	off     offer.Offer
	km      *keymanager.Manager
	politic fee.Politic

	own          swapmsg.SessionParameters
	ownCommit    *commitment.FieldCommitment
	counterparty swapmsg.SessionParameters

	core *Core
	step step
}

// generateParameters builds the role-agnostic parts of SessionParameters
// shared by Alice and Bob, per spec.md §3/§4.7 steps 2-3. withPunish
// controls whether a Punish key is derived (Alice only, per spec.md §3:
// "Punish public key (Alice only — Bob cannot punish)").
func (b *base) generateParameters(address string, withPunish bool) (swapmsg.SessionParameters, error) {
	fundPub, err := b.km.GetArbitratingPubkey(keyid.ArbFund)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}
	buyPub, err := b.km.GetArbitratingPubkey(keyid.ArbBuy)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}
	cancelPub, err := b.km.GetArbitratingPubkey(keyid.ArbCancel)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}
	refundPub, err := b.km.GetArbitratingPubkey(keyid.ArbRefund)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}

	var punishPub *secp256k1.PublicKey
	if withPunish {
		punishPub, err = b.km.GetArbitratingPubkey(keyid.ArbPunish)
		if err != nil {
			return swapmsg.SessionParameters{}, err
		}
	}

	spendPub, encryptionPub, proof, err := b.km.GenerateProof(keyid.AccSpend)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}
	viewSecret, err := b.km.GetSharedKey(keyid.ViewKeyID)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}

	params := swapmsg.SessionParameters{
		FundPub:            fundPub,
		BuyPub:             buyPub,
		CancelPub:          cancelPub,
		RefundPub:          refundPub,
		PunishPub:          punishPub,
		AdaptorPub:         encryptionPub,
		SpendPub:           spendPub,
		ViewSecret:         viewSecret,
		Proof:              proof,
		DestinationAddress: address,
		CancelTimelock:     b.off.CancelTimelock,
		PunishTimelock:     b.off.PunishTimelock,
		FeeStrategy:        b.off.FeeStrategy,
	}
	return params, nil
}

// commitToBundle builds and retains the commitment for params, per
// spec.md §4.7 step 4.
func (b *base) commitToBundle(engine *commitment.Engine, params swapmsg.SessionParameters) (*swapmsg.Commitment, error) {
	c, fc, err := swapmsg.CommitParameters(engine, params)
	if err != nil {
		return nil, err
	}
	b.ownCommit = fc
	return c, nil
}

// verifyWithReveal checks a counterparty's reveal against its prior
// commitment and the cross-group DLEQ proof, per spec.md §3/§4.2/§4.7
// step 6 ("on mismatch abort with InvalidCommitment") and the
// SessionParameters invariant ("verify_proof(spend_pub, adaptor_pub,
// proof) = ok, else the session aborts").
func verifyWithReveal(engine *commitment.Engine, c *swapmsg.Commitment, revealed swapmsg.SessionParameters) error {
	if err := c.Validate(engine, revealed); err != nil {
		return err
	}
	return keymanager.VerifyProof(revealed.SpendPub, revealed.AdaptorPub, revealed.Proof)
}

// addressPkScript decodes a mainnet Bitcoin address into its output
// script, the form txbuilder's Buy/Refund/Punish outputs need.
func addressPkScript(address string) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(address, &chaincfg.MainNetParams)
	if err != nil {
		return nil, swaperr.NewTransaction(swaperr.InvalidWitness, err)
	}
	return txscript.PayToAddrScript(addr)
}

// packPlainSignature stores a regular 64-byte BIP340 signature inside
// the keymanager.EncryptedSignature wire shape so the Cancel
// cosignature — which is never adaptor-encrypted, unlike Buy/Refund —
// can still ride inside CoreArbitratingSetup.CancelEncSig without a
// second message field. EncryptionPoint and RPubOddY are left zero;
// only RPub||S (the signature itself) carries meaning.
func packPlainSignature(sig *schnorr.Signature) keymanager.EncryptedSignature {
	raw := sig.Serialize()
	var packed keymanager.EncryptedSignature
	copy(packed.RPub[:], raw[:32])
	copy(packed.S[:], raw[32:64])
	return packed
}

// unpackPlainSignature reverses packPlainSignature.
func unpackPlainSignature(packed keymanager.EncryptedSignature) (*schnorr.Signature, error) {
	raw := append(append([]byte{}, packed.RPub[:]...), packed.S[:]...)
	sig, err := schnorr.ParseSignature(raw)
	if err != nil {
		return nil, swaperr.NewCrypto(swaperr.InvalidSignature, err)
	}
	return sig, nil
}
