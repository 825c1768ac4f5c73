// Package swap implements the Alice/Bob role state machines of
// spec.md §4.7: data-driven drivers whose methods map 1:1 onto the
// protocol's numbered steps, each total and returning either a
// protocol artifact or a tagged error. Grounded on
// contractcourt/htlc_timeout_resolver.go's resolver-as-state-struct
// shape (a plain struct with typed fields advanced by explicit method
// calls, no goroutines) and on original_source/core/src/role.rs's
// Alice/Bob method surface (session_params, signed_adaptor_refund,
// cosign_arbitrating_cancel, fully_signed_buy,
// signed_arbitrating_punish — all todo!() in the original and fully
// implemented here).
package swap

import (
	"github.com/btcsuite/btcd/wire"

	"github.com/fcswap/swapcore/fee"
	"github.com/fcswap/swapcore/offer"
	"github.com/fcswap/swapcore/script"
	"github.com/fcswap/swapcore/swaperr"
	"github.com/fcswap/swapcore/swapmsg"
	"github.com/fcswap/swapcore/txbuilder"
)

// estimatedPayoutVsize approximates the virtual size of a single-branch
// P2WSH spend (one or two Schnorr witness elements plus the revealed
// script) for the three transactions that actually pay an address —
// Buy, Refund, Punish. Lock and Cancel forward the full value to the
// next 2-of-2 script and carry no fee of their own.
const estimatedPayoutVsize = 110

// applyFee deducts strategy's rate under politic from a candidate
// output paying pkScript, per spec.md §4.5 ("fee application runs at
// initialisation") and §4.6.
func applyFee(value int64, pkScript []byte, strategy fee.Strategy, politic fee.Politic) (int64, error) {
	out := wire.NewTxOut(value, pkScript)
	if err := fee.NewEngine().Apply(estimatedPayoutVsize, strategy, politic, out); err != nil {
		return 0, err
	}
	return out.Value, nil
}

// Core bundles the arbitrating transaction graph of spec.md §3's
// CoreArbitratingTransactions ("four partially-signed transactions:
// Lock, Cancel, Refund, Punish-prototype. Each references its
// predecessor's outpoint."), plus the Buy builder (Lock's other spend
// path), built by each role from the confirmed Funding output and
// witnessed by both roles as the protocol advances.
//
// Every builder's predecessor outpoint is computable before any
// signature exists: segwit txids exclude witness data, so Lock's,
// Cancel's and Refund's unsigned txids are stable the moment their
// predecessor is Initialize()'d (see txbuilder.base.UnsignedTxid).
// That is what lets Core build the whole graph in one pass rather than
// waiting for each transaction to actually be signed and broadcast.
type Core struct {
	FundingRedeemScript []byte
	LockRedeemScript    []byte
	CancelRedeemScript  []byte

	Funding *txbuilder.FundingBuilder
	Lock    *txbuilder.LockBuilder
	Cancel  *txbuilder.CancelBuilder
	Buy     *txbuilder.BuyBuilder
	Refund  *txbuilder.RefundBuilder
	Punish  *txbuilder.PunishBuilder
}

// buildCore assembles Core from both sides' revealed parameters, the
// observed Funding transaction and the negotiated offer, per spec.md
// §4.7 step 7 ("Bob: observes funding tx via FundingTx.update; then
// core_arbitrating_transactions(alice_params, bob_params, funding,
// offer) -> Core"). Both BobState's and AliceState's
// CoreArbitratingTransactions call this with the same canonical
// inputs, so each side builds an equivalent graph independently; the
// construction logic lives here as a free function shared by both.
func buildCore(alice, bob swapmsg.SessionParameters, off offer.Offer, politic fee.Politic, fundingTx *wire.MsgTx, buyDestPkScript, refundPkScript, punishDestPkScript []byte) (*Core, error) {
	if err := script.CheckTimelockPolicy(off.CancelTimelock, off.PunishTimelock); err != nil {
		return nil, err
	}

	fundingRedeem, fundingPkScript, err := script.FundingScript(alice.FundPub, bob.FundPub)
	if err != nil {
		return nil, err
	}
	fundingIdx, ok := script.FindOutput(fundingTx, fundingPkScript)
	if !ok {
		return nil, swaperr.NewTransaction(swaperr.MissingPreviousOutput, nil)
	}
	fundingValue := fundingTx.TxOut[fundingIdx].Value

	fundingBuilder := txbuilder.NewFundingBuilder()
	fundingBuilder.Update(fundingTx)

	lockRedeem, lockPkScript, err := script.LockPkScript(alice.BuyPub, bob.BuyPub, alice.RefundPub, bob.RefundPub, off.CancelTimelock)
	if err != nil {
		return nil, err
	}
	lockValue := fundingValue

	lockBuilder := txbuilder.NewLockBuilder(fundingRedeem, alice.FundPub, bob.FundPub, fundingTx.TxHash(), fundingIdx, fundingValue, fundingPkScript, lockValue, lockPkScript)
	if err := lockBuilder.Initialize(); err != nil {
		return nil, err
	}
	lockTxid := lockBuilder.UnsignedTxid()

	cancelRedeem, cancelPkScript, err := script.CancelPkScript(alice.RefundPub, bob.RefundPub, alice.PunishPub, off.PunishTimelock)
	if err != nil {
		return nil, err
	}
	cancelValue := lockValue

	cancelBuilder := txbuilder.NewCancelBuilder(lockRedeem, alice.RefundPub, bob.RefundPub, lockTxid, 0, lockValue, lockPkScript, cancelValue, cancelPkScript, off.CancelTimelock)
	if err := cancelBuilder.Initialize(); err != nil {
		return nil, err
	}
	cancelTxid := cancelBuilder.UnsignedTxid()

	buyValue, err := applyFee(lockValue, buyDestPkScript, off.FeeStrategy, politic)
	if err != nil {
		return nil, err
	}
	buyBuilder := txbuilder.NewBuyBuilder(lockRedeem, alice.BuyPub, bob.BuyPub, lockTxid, 0, lockValue, lockPkScript, buyValue, buyDestPkScript)
	if err := buyBuilder.Initialize(); err != nil {
		return nil, err
	}

	refundValue, err := applyFee(cancelValue, refundPkScript, off.FeeStrategy, politic)
	if err != nil {
		return nil, err
	}
	refundBuilder := txbuilder.NewRefundBuilder(cancelRedeem, alice.RefundPub, bob.RefundPub, cancelTxid, 0, cancelValue, cancelPkScript, refundValue, refundPkScript)
	if err := refundBuilder.Initialize(); err != nil {
		return nil, err
	}

	punishValue, err := applyFee(cancelValue, punishDestPkScript, off.FeeStrategy, politic)
	if err != nil {
		return nil, err
	}
	punishBuilder := txbuilder.NewPunishBuilder(cancelRedeem, alice.PunishPub, cancelTxid, 0, cancelValue, cancelPkScript, punishValue, punishDestPkScript, off.PunishTimelock)
	if err := punishBuilder.Initialize(); err != nil {
		return nil, err
	}

	return &Core{
		FundingRedeemScript: fundingRedeem,
		LockRedeemScript:    lockRedeem,
		CancelRedeemScript:  cancelRedeem,
		Funding:             fundingBuilder,
		Lock:                lockBuilder,
		Cancel:              cancelBuilder,
		Buy:                 buyBuilder,
		Refund:              refundBuilder,
		Punish:              punishBuilder,
	}, nil
}
