package swap

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/wire"
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fcswap/swapcore/commitment"
	"github.com/fcswap/swapcore/fee"
	"github.com/fcswap/swapcore/keyid"
	"github.com/fcswap/swapcore/keymanager"
	"github.com/fcswap/swapcore/offer"
	"github.com/fcswap/swapcore/swapmsg"
)

// AliceState drives Alice's side of spec.md §4.7: the seller of the
// accordant asset, buyer of the arbitrating one, and the only party
// able to sign Punish. Grounded on original_source/core/src/role.rs's
// Alice impl (session_params, commit_to_bundle, sign_adaptor_refund,
// cosign_arbitrating_cancel, fully_signed_buy,
// signed_arbitrating_punish — all todo!() there) and on
// contractcourt/htlc_timeout_resolver.go's plain resolver-struct shape.
type AliceState struct {
	base
}

// NewAliceState constructs an Alice driver for swap id over off, using
// km for every signing and derivation operation.
func NewAliceState(id offer.SwapId, off offer.Offer, km *keymanager.Manager, politic fee.Politic) *AliceState {
	return &AliceState{base{id: id, off: off, km: km, politic: politic}}
}

// GenerateParameters derives Alice's session parameters, including her
// Punish key, per spec.md §3 ("Punish public key (Alice only)") and
// §4.7 step 3.
func (a *AliceState) GenerateParameters(destinationAddress string) (swapmsg.SessionParameters, error) {
	if err := a.step.advance(stepInit, stepParametersGenerated); err != nil {
		return swapmsg.SessionParameters{}, err
	}
	params, err := a.generateParameters(destinationAddress, true)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}
	a.own = params
	return params, nil
}

// CommitToBundle commits to Alice's own parameters, per spec.md §4.7
// step 4.
func (a *AliceState) CommitToBundle(engine *commitment.Engine) (*swapmsg.Commitment, error) {
	if err := a.step.advance(stepParametersGenerated, stepParametersGenerated); err != nil {
		return nil, err
	}
	return a.commitToBundle(engine, a.own)
}

// VerifyWithReveal checks Bob's commitment against his revealed
// parameters and DLEQ proof, per spec.md §4.7 step 6.
func (a *AliceState) VerifyWithReveal(engine *commitment.Engine, bobCommit *swapmsg.Commitment, bobParams swapmsg.SessionParameters) error {
	if err := a.step.advance(stepParametersGenerated, stepRevealed); err != nil {
		return err
	}
	if err := verifyWithReveal(engine, bobCommit, bobParams); err != nil {
		return err
	}
	a.counterparty = bobParams
	return nil
}

// CoreArbitratingTransactions independently rebuilds the arbitrating
// transaction graph Bob built at step 7, from the same canonical
// inputs (both sides' revealed parameters, the negotiated offer, the
// observed funding transaction). Alice never receives Bob's Core
// directly; she re-derives her own. This method does not compare the
// result with Bob's; the caller checks that the two agree (e.g. equal
// Lock and Cancel unsigned txids) before cosigning anything.
func (a *AliceState) CoreArbitratingTransactions(fundingTx *wire.MsgTx) (*Core, error) {
	if err := a.step.advance(stepRevealed, stepCoreBuilt); err != nil {
		return nil, err
	}
	buyDest, err := addressPkScript(a.own.DestinationAddress)
	if err != nil {
		return nil, err
	}
	refundDest, err := addressPkScript(a.counterparty.DestinationAddress)
	if err != nil {
		return nil, err
	}
	core, err := buildCore(a.own, a.counterparty, a.off, a.politic, fundingTx, buyDest, refundDest, buyDest)
	if err != nil {
		return nil, err
	}
	a.core = core
	return core, nil
}

// SignArbitratingLock produces Alice's half of the Lock transaction's
// Funding-spend cosignature, returned for the caller to route into
// Bob's Core (per spec.md §4.7 step 10, "sign_arbitrating_lock" is
// Bob's named step, but both Fund keys must sign the same 2-of-2
// input).
func (a *AliceState) SignArbitratingLock() (*secp256k1.PublicKey, *schnorr.Signature, error) {
	msg, err := a.core.Lock.SigHash()
	if err != nil {
		return nil, nil, err
	}
	return signIdentifier(a.km, keyid.ArbFund, msg)
}

// CosignArbitratingCancel produces Alice's plain (non-adaptor) Cancel
// cosignature, per spec.md §4.7 step 9.
func (a *AliceState) CosignArbitratingCancel() (*secp256k1.PublicKey, *schnorr.Signature, error) {
	if err := a.step.advance(stepCoreBuilt, stepCancelCosigned); err != nil {
		return nil, nil, err
	}
	msg, err := a.core.Cancel.SigHash()
	if err != nil {
		return nil, nil, err
	}
	return signIdentifier(a.km, keyid.ArbRefund, msg)
}

// SignAdaptorRefund produces Alice's adaptor signature over Refund,
// encrypted under Bob's accordant encryption point, per spec.md §4.7
// step 9 ("sign_adaptor_refund(km, aparams, bparams, core) ->
// adaptor_refund").
func (a *AliceState) SignAdaptorRefund() (*keymanager.EncryptedSignature, error) {
	if err := a.step.advance(stepCancelCosigned, stepRefundProcedureDone); err != nil {
		return nil, err
	}
	msg, err := a.core.Refund.SigHash()
	if err != nil {
		return nil, err
	}
	return a.km.EncryptSign(keyid.ArbRefund, a.counterparty.AdaptorPub, msg)
}

// ValidateAdaptorBuy checks Bob's adaptor Buy signature before Alice
// relies on it, per spec.md §4.7 step 11 ("validate_adaptor_buy(...);
// on failure abort").
func (a *AliceState) ValidateAdaptorBuy(adaptorBuy *keymanager.EncryptedSignature) error {
	if err := a.step.advance(stepRefundProcedureDone, stepRefundProcedureDone); err != nil {
		return err
	}
	msg, err := a.core.Buy.SigHash()
	if err != nil {
		return err
	}
	return keymanager.VerifyEncryptedSignature(a.counterparty.BuyPub, a.own.AdaptorPub, msg, adaptorBuy)
}

// FullySignBuy decrypts Bob's adaptor Buy signature with Alice's own
// accordant spend secret (trivial — she owns it), adds her own plain
// Buy signature, and finalizes and extracts the Buy transaction, per
// spec.md §4.7 step 11. It returns both the broadcastable transaction
// and Bob's now-decrypted regular signature, which the caller routes
// to Bob so he can recover Alice's accordant spend secret (step 12).
func (a *AliceState) FullySignBuy(adaptorBuy *keymanager.EncryptedSignature) (*wire.MsgTx, *schnorr.Signature, error) {
	if err := a.step.advance(stepRefundProcedureDone, stepBuyDone); err != nil {
		return nil, nil, err
	}
	bobSig, err := a.km.DecryptSignature(adaptorBuy, keyid.AccSpend)
	if err != nil {
		return nil, nil, err
	}
	if err := a.core.Buy.AddWitness(a.counterparty.BuyPub, bobSig.Serialize()); err != nil {
		return nil, nil, err
	}
	msg, err := a.core.Buy.SigHash()
	if err != nil {
		return nil, nil, err
	}
	alicePub, aliceSig, err := signIdentifier(a.km, keyid.ArbBuy, msg)
	if err != nil {
		return nil, nil, err
	}
	if err := a.core.Buy.AddWitness(alicePub, aliceSig.Serialize()); err != nil {
		return nil, nil, err
	}
	tx, err := a.core.Buy.FinalizeAndExtract()
	if err != nil {
		return nil, nil, err
	}
	return tx, bobSig, nil
}

// FullySignPunish signs and finalizes the Punish transaction alone,
// per spec.md §4.7 step 15 ("signed_arbitrating_punish(km, aparams,
// core) -> punish_tx — Alice only, Bob cannot punish").
func (a *AliceState) FullySignPunish() (*wire.MsgTx, error) {
	if err := a.step.advance(stepRefundProcedureDone, stepPunishDone); err != nil {
		return nil, err
	}
	msg, err := a.core.Punish.SigHash()
	if err != nil {
		return nil, err
	}
	pub, sig, err := signIdentifier(a.km, keyid.ArbPunish, msg)
	if err != nil {
		return nil, err
	}
	if err := a.core.Punish.AddWitness(pub, sig.Serialize()); err != nil {
		return nil, err
	}
	return a.core.Punish.FinalizeAndExtract()
}

// RecoverAccordantKey recovers Bob's accordant spend secret once his
// Refund transaction's completed signature is observed on-chain, per
// spec.md §4.7 step 14 ("recover_accordant_key(km, aparams,
// adaptor_refund, refund_tx) -> accordant_spend_secret").
func (a *AliceState) RecoverAccordantKey(adaptorRefund *keymanager.EncryptedSignature, completedSig *schnorr.Signature) ([]byte, error) {
	return recoverAccordantKey(adaptorRefund, completedSig)
}
