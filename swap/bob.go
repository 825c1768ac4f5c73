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

// BobState drives Bob's side of spec.md §4.7: the buyer of the
// accordant asset, seller of the arbitrating one. Bob is the one who
// observes Funding and builds the canonical Core (step 7), broadcasts
// Lock (step 10), and never holds a Punish key. Grounded on
// original_source/core/src/role.rs's Bob impl (the same method
// surface as Alice's, minus punish) and
// contractcourt/htlc_timeout_resolver.go's resolver-struct shape.
type BobState struct {
	base
}

// NewBobState constructs a Bob driver for swap id over off, using km
// for every signing and derivation operation.
func NewBobState(id offer.SwapId, off offer.Offer, km *keymanager.Manager, politic fee.Politic) *BobState {
	return &BobState{base{id: id, off: off, km: km, politic: politic}}
}

// GenerateParameters derives Bob's session parameters. Bob never
// derives a Punish key, per spec.md §3.
func (b *BobState) GenerateParameters(refundAddress string) (swapmsg.SessionParameters, error) {
	if err := b.step.advance(stepInit, stepParametersGenerated); err != nil {
		return swapmsg.SessionParameters{}, err
	}
	params, err := b.generateParameters(refundAddress, false)
	if err != nil {
		return swapmsg.SessionParameters{}, err
	}
	b.own = params
	return params, nil
}

// CommitToBundle commits to Bob's own parameters, per spec.md §4.7
// step 4.
func (bs *BobState) CommitToBundle(engine *commitment.Engine) (*swapmsg.Commitment, error) {
	if err := bs.step.advance(stepParametersGenerated, stepParametersGenerated); err != nil {
		return nil, err
	}
	return bs.commitToBundle(engine, bs.own)
}

// VerifyWithReveal checks Alice's commitment against her revealed
// parameters and DLEQ proof, per spec.md §4.7 step 6.
func (bs *BobState) VerifyWithReveal(engine *commitment.Engine, aliceCommit *swapmsg.Commitment, aliceParams swapmsg.SessionParameters) error {
	if err := bs.step.advance(stepParametersGenerated, stepRevealed); err != nil {
		return err
	}
	if err := verifyWithReveal(engine, aliceCommit, aliceParams); err != nil {
		return err
	}
	bs.counterparty = aliceParams
	return nil
}

// CoreArbitratingTransactions builds the canonical arbitrating
// transaction graph once Funding is confirmed, per spec.md §4.7 step
// 7. This is the authoritative build; Alice independently re-derives
// an equivalent Core from the same canonical inputs rather than
// parsing the raw bytes Bob would otherwise have to transmit.
func (bs *BobState) CoreArbitratingTransactions(fundingTx *wire.MsgTx) (*Core, error) {
	if err := bs.step.advance(stepRevealed, stepCoreBuilt); err != nil {
		return nil, err
	}
	buyDest, err := addressPkScript(bs.counterparty.DestinationAddress)
	if err != nil {
		return nil, err
	}
	refundDest, err := addressPkScript(bs.own.DestinationAddress)
	if err != nil {
		return nil, err
	}
	core, err := buildCore(bs.counterparty, bs.own, bs.off, bs.politic, fundingTx, buyDest, refundDest, buyDest)
	if err != nil {
		return nil, err
	}
	bs.core = core
	return core, nil
}

// SignArbitratingLock produces Bob's half of the Lock transaction's
// Funding-spend cosignature, per spec.md §4.7 step 10
// ("sign_arbitrating_lock(km, core) -> lock_sig").
func (bs *BobState) SignArbitratingLock() (*secp256k1.PublicKey, *schnorr.Signature, error) {
	msg, err := bs.core.Lock.SigHash()
	if err != nil {
		return nil, nil, err
	}
	return signIdentifier(bs.km, keyid.ArbFund, msg)
}

// AssembleLock finalizes and extracts the Lock transaction from both
// Fund-key cosignatures and advances Bob to the broadcast step, per
// spec.md §4.7 step 10.
func (bs *BobState) AssembleLock(alicePub *secp256k1.PublicKey, aliceSig *schnorr.Signature, bobPub *secp256k1.PublicKey, bobSig *schnorr.Signature) (*wire.MsgTx, error) {
	if err := bs.step.advance(stepRefundProcedureDone, stepLockBroadcast); err != nil {
		return nil, err
	}
	if err := bs.core.Lock.AddWitness(alicePub, aliceSig.Serialize()); err != nil {
		return nil, err
	}
	if err := bs.core.Lock.AddWitness(bobPub, bobSig.Serialize()); err != nil {
		return nil, err
	}
	return bs.core.Lock.FinalizeAndExtract()
}

// CosignArbitratingCancel produces Bob's plain (non-adaptor) Cancel
// cosignature, per spec.md §4.7 step 8.
func (bs *BobState) CosignArbitratingCancel() (*secp256k1.PublicKey, *schnorr.Signature, error) {
	if err := bs.step.advance(stepCoreBuilt, stepCancelCosigned); err != nil {
		return nil, nil, err
	}
	msg, err := bs.core.Cancel.SigHash()
	if err != nil {
		return nil, nil, err
	}
	return signIdentifier(bs.km, keyid.ArbRefund, msg)
}

// ValidateAdaptorRefund checks Alice's cancel cosignature and adaptor
// Refund signature before Bob relies on either, per spec.md §4.7 step
// 10 ("validate_adaptor_refund(...); on failure abort").
func (bs *BobState) ValidateAdaptorRefund(alicePub *secp256k1.PublicKey, aliceCancelSig *schnorr.Signature, adaptorRefund *keymanager.EncryptedSignature) error {
	if err := bs.step.advance(stepCancelCosigned, stepRefundProcedureDone); err != nil {
		return err
	}
	cancelMsg, err := bs.core.Cancel.SigHash()
	if err != nil {
		return err
	}
	if err := keymanager.VerifySignature(alicePub, cancelMsg, aliceCancelSig); err != nil {
		return err
	}
	refundMsg, err := bs.core.Refund.SigHash()
	if err != nil {
		return err
	}
	return keymanager.VerifyEncryptedSignature(alicePub, bs.own.AdaptorPub, refundMsg, adaptorRefund)
}

// SignAdaptorBuy produces Bob's adaptor signature over Buy, encrypted
// under Alice's accordant encryption point, per spec.md §4.7 step 10
// ("sign_adaptor_buy(km, aparams, bparams, core) -> adaptor_buy").
func (bs *BobState) SignAdaptorBuy() (*keymanager.EncryptedSignature, error) {
	msg, err := bs.core.Buy.SigHash()
	if err != nil {
		return nil, err
	}
	return bs.km.EncryptSign(keyid.ArbBuy, bs.counterparty.AdaptorPub, msg)
}

// FullySignRefund decrypts Alice's adaptor Refund signature with
// Bob's own accordant spend secret, adds his own plain Refund
// signature, and finalizes and extracts the Refund transaction, per
// spec.md §4.7 step 13. It returns both the broadcastable transaction
// and Alice's now-decrypted regular signature, which the caller routes
// back to her so she can recover Bob's accordant spend secret (step
// 14).
func (bs *BobState) FullySignRefund(adaptorRefund *keymanager.EncryptedSignature) (*wire.MsgTx, *schnorr.Signature, error) {
	if err := bs.step.advance(stepLockBroadcast, stepRefundDone); err != nil {
		return nil, nil, err
	}
	aliceSig, err := bs.km.DecryptSignature(adaptorRefund, keyid.AccSpend)
	if err != nil {
		return nil, nil, err
	}
	if err := bs.core.Refund.AddWitness(bs.counterparty.RefundPub, aliceSig.Serialize()); err != nil {
		return nil, nil, err
	}
	msg, err := bs.core.Refund.SigHash()
	if err != nil {
		return nil, nil, err
	}
	bobPub, bobSig, err := signIdentifier(bs.km, keyid.ArbRefund, msg)
	if err != nil {
		return nil, nil, err
	}
	if err := bs.core.Refund.AddWitness(bobPub, bobSig.Serialize()); err != nil {
		return nil, nil, err
	}
	tx, err := bs.core.Refund.FinalizeAndExtract()
	if err != nil {
		return nil, nil, err
	}
	return tx, aliceSig, nil
}

// RecoverAccordantKey recovers Alice's accordant spend secret once his
// Buy transaction's completed signature is observed on-chain, per
// spec.md §4.7 step 12 ("recover_accordant_key(km, bparams,
// adaptor_buy, buy_tx) -> accordant_spend_secret").
func (bs *BobState) RecoverAccordantKey(adaptorBuy *keymanager.EncryptedSignature, completedSig *schnorr.Signature) ([]byte, error) {
	return recoverAccordantKey(adaptorBuy, completedSig)
}
