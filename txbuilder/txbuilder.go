// Package txbuilder assembles the arbitrating chain's five
// transactions (Lock, Cancel, Buy, Refund, Punish) plus a thin wrapper
// around the externally-observed Funding transaction, per spec.md
// §3/§4.5. Grounded on lnwallet/channel.go's build-then-accumulate-
// witnesses-then-finalize flow, re-based onto btcsuite/btcd/btcutil/psbt
// for the partial-transaction representation spec.md §6 defers to
// ("delegated to the arbitrating chain's standard partial-transaction
// format").
package txbuilder

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/fcswap/swapcore/script"
	"github.com/fcswap/swapcore/swaperr"
)

// State is a builder's position in the build -> witness -> finalize
// lifecycle, per spec.md §4.5.
type State uint8

const (
	Built State = iota
	PartiallySigned
	FullySigned
	Extracted
)

// defaultSequence opts into BIP125 replaceability being disabled
// without requesting any BIP68 relative-locktime, for inputs whose
// spend path carries no CSV requirement (Funding's Lock spend,
// Cancel's Refund-branch spend).
const defaultSequence = wire.MaxTxInSequenceNum - 1

// Builder is the common interface satisfied by every txbuilder type
// except FundingBuilder, which wraps an externally-observed
// transaction instead of building one from a redeem script (it defines
// Update in place of Initialize, per spec.md §4.5).
type Builder interface {
	Initialize() error
	AddWitness(pub *btcec.PublicKey, sig []byte) error
	FinalizeAndExtract() (*wire.MsgTx, error)
	State() State
}

// base holds the fields and bookkeeping shared by every concrete
// builder: the in-progress PSBT packet, the redeem script its single
// input spends, the accumulated per-pubkey signatures, and the
// lifecycle state.
type base struct {
	packet       *psbt.Packet
	redeemScript []byte
	threshold    int
	sigs         map[string][]byte
	state        State
}

func newBase(redeemScript []byte, threshold int) base {
	return base{redeemScript: redeemScript, threshold: threshold, sigs: map[string][]byte{}}
}

func (b *base) State() State { return b.state }

// UnsignedTxid returns the txid of the in-progress transaction as built
// (pre-witness). Segwit txids exclude witness data, so this value is
// stable from Initialize onward and lets a successor builder reference
// this transaction's outpoint before it is ever signed.
func (b *base) UnsignedTxid() chainHash {
	return b.packet.UnsignedTx.TxHash()
}

// SigHash computes the BIP143 witness signature hash for this
// builder's sole input over its redeem script, the digest each
// cosigner's Sign/EncryptSign call in package keymanager actually
// signs.
func (b *base) SigHash() ([32]byte, error) {
	prevOut := b.packet.Inputs[0].WitnessUtxo
	fetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
	sigHashes := txscript.NewTxSigHashes(b.packet.UnsignedTx, fetcher)
	h, err := txscript.CalcWitnessSigHash(b.redeemScript, sigHashes, txscript.SigHashAll, b.packet.UnsignedTx, 0, prevOut.Value)
	if err != nil {
		var zero [32]byte
		return zero, swaperr.NewTransaction(swaperr.InvalidWitness, err)
	}
	var out [32]byte
	copy(out[:], h)
	return out, nil
}

func (b *base) recordSig(pub *btcec.PublicKey, sig []byte) error {
	if b.state == Extracted {
		panic("txbuilder: AddWitness called on an already-extracted builder")
	}
	b.sigs[hex.EncodeToString(pub.SerializeCompressed())] = sig
	if len(b.sigs) >= b.threshold {
		b.state = FullySigned
	} else {
		b.state = PartiallySigned
	}
	return nil
}

func (b *base) sigFor(pub *btcec.PublicKey) ([]byte, error) {
	sig, ok := b.sigs[hex.EncodeToString(pub.SerializeCompressed())]
	if !ok {
		return nil, swaperr.NewTransaction(swaperr.Incomplete, nil)
	}
	return sig, nil
}

// finalizeWithWitness sets input 0's FinalScriptWitness to the
// assembled stack and extracts the final *wire.MsgTx, mirroring
// lnwallet/channel.go's witness-accumulate-then-broadcast step.
func (b *base) finalizeWithWitness(witness [][]byte) (*wire.MsgTx, error) {
	if b.state == Extracted {
		panic("txbuilder: FinalizeAndExtract called twice")
	}
	if b.state != FullySigned {
		return nil, swaperr.NewTransaction(swaperr.Incomplete, nil)
	}

	var buf bytes.Buffer
	if err := psbt.WriteTxWitness(&buf, wire.TxWitness(witness)); err != nil {
		return nil, swaperr.NewTransaction(swaperr.InvalidWitness, err)
	}
	b.packet.Inputs[0].FinalScriptWitness = buf.Bytes()

	tx, err := psbt.Extract(b.packet)
	if err != nil {
		return nil, swaperr.NewTransaction(swaperr.InvalidWitness, err)
	}
	b.state = Extracted
	return tx, nil
}

// newUnsignedPacket builds a single-input, single-output unsigned PSBT
// packet spending prevOut (identified by txid:index, carrying value and
// pkScript) into an output paying outputValue to outputPkScript, with
// the given input sequence number (BIP68 relative-locktime encoding for
// CSV-gated spends, or defaultSequence otherwise).
func newUnsignedPacket(prevTxid chainHash, prevIndex uint32, prevValue int64, prevPkScript []byte, sequence uint32, outputValue int64, outputPkScript []byte) (*psbt.Packet, error) {
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(&wire.TxIn{
		PreviousOutPoint: wire.OutPoint{Hash: chainhash.Hash(prevTxid), Index: prevIndex},
		Sequence:         sequence,
	})
	tx.AddTxOut(wire.NewTxOut(outputValue, outputPkScript))

	packet, err := psbt.NewFromUnsignedTx(tx)
	if err != nil {
		return nil, swaperr.NewTransaction(swaperr.InvalidWitness, err)
	}
	packet.Inputs[0].WitnessUtxo = wire.NewTxOut(prevValue, prevPkScript)
	return packet, nil
}

// chainHash is a local alias for chainhash.Hash, used in this file's
// signatures for outpoint txids.
type chainHash = chainhash.Hash

// --- FundingBuilder ----------------------------------------------------

// FundingBuilder wraps the Funding transaction, which this swap core
// never builds itself: each party funds it from their own wallet and
// it is only observed on-chain (spec.md §6's FundingObserver), so there
// is nothing to cosign or finalize beyond holding the observed tx.
type FundingBuilder struct {
	tx    *wire.MsgTx
	state State
}

// NewFundingBuilder constructs an empty FundingBuilder awaiting Update.
func NewFundingBuilder() *FundingBuilder {
	return &FundingBuilder{}
}

// Update records the externally-observed, already fully-signed Funding
// transaction.
func (f *FundingBuilder) Update(tx *wire.MsgTx) {
	f.tx = tx
	f.state = Extracted
}

// State reports Extracted once Update has been called, Built before.
func (f *FundingBuilder) State() State { return f.state }

// FinalizeAndExtract returns the observed Funding transaction.
func (f *FundingBuilder) FinalizeAndExtract() (*wire.MsgTx, error) {
	if f.tx == nil {
		return nil, swaperr.NewTransaction(swaperr.Incomplete, nil)
	}
	return f.tx, nil
}

// --- LockBuilder ---------------------------------------------------------

// LockBuilder builds the Lock transaction: Funding's sole output,
// cosigned with both Fund keys, paying the Lock script.
type LockBuilder struct {
	base
	fundingRedeemScript      []byte
	fundA, fundB             *btcec.PublicKey
	fundingTxid              chainHash
	fundingIndex             uint32
	fundingValue             int64
	fundingPkScript          []byte
	lockValue                int64
	lockPkScript             []byte
}

// NewLockBuilder constructs a LockBuilder for the given Funding
// outpoint and Lock output.
func NewLockBuilder(fundingRedeemScript []byte, fundA, fundB *btcec.PublicKey, fundingTxid chainHash, fundingIndex uint32, fundingValue int64, fundingPkScript []byte, lockValue int64, lockPkScript []byte) *LockBuilder {
	b := &LockBuilder{
		fundingRedeemScript: fundingRedeemScript,
		fundA:               fundA,
		fundB:               fundB,
		fundingTxid:         fundingTxid,
		fundingIndex:        fundingIndex,
		fundingValue:        fundingValue,
		fundingPkScript:     fundingPkScript,
		lockValue:           lockValue,
		lockPkScript:        lockPkScript,
	}
	b.base = newBase(fundingRedeemScript, 2)
	return b
}

func (b *LockBuilder) Initialize() error {
	packet, err := newUnsignedPacket(b.fundingTxid, b.fundingIndex, b.fundingValue, b.fundingPkScript, defaultSequence, b.lockValue, b.lockPkScript)
	if err != nil {
		return err
	}
	b.packet = packet
	b.state = Built
	return nil
}

func (b *LockBuilder) AddWitness(pub *btcec.PublicKey, sig []byte) error {
	return b.recordSig(pub, sig)
}

func (b *LockBuilder) FinalizeAndExtract() (*wire.MsgTx, error) {
	sigA, err := b.sigFor(b.fundA)
	if err != nil {
		return nil, err
	}
	sigB, err := b.sigFor(b.fundB)
	if err != nil {
		return nil, err
	}
	witness := script.SpendFundingWitness(b.fundingRedeemScript, b.fundA, sigA, b.fundB, sigB)
	return b.finalizeWithWitness(witness)
}

// --- CancelBuilder -------------------------------------------------------

// CancelBuilder builds the Cancel transaction: spends Lock's IF branch
// with both refund-key signatures, gated by cancelTimelock.
type CancelBuilder struct {
	base
	lockRedeemScript []byte
	refundA, refundB *btcec.PublicKey
	lockTxid         chainHash
	lockIndex        uint32
	lockValue        int64
	lockPkScript     []byte
	cancelValue      int64
	cancelPkScript   []byte
	cancelTimelock   uint32
}

func NewCancelBuilder(lockRedeemScript []byte, refundA, refundB *btcec.PublicKey, lockTxid chainHash, lockIndex uint32, lockValue int64, lockPkScript []byte, cancelValue int64, cancelPkScript []byte, cancelTimelock uint32) *CancelBuilder {
	b := &CancelBuilder{
		lockRedeemScript: lockRedeemScript,
		refundA:          refundA,
		refundB:          refundB,
		lockTxid:         lockTxid,
		lockIndex:        lockIndex,
		lockValue:        lockValue,
		lockPkScript:     lockPkScript,
		cancelValue:      cancelValue,
		cancelPkScript:   cancelPkScript,
		cancelTimelock:   cancelTimelock,
	}
	b.base = newBase(lockRedeemScript, 2)
	return b
}

func (b *CancelBuilder) Initialize() error {
	packet, err := newUnsignedPacket(b.lockTxid, b.lockIndex, b.lockValue, b.lockPkScript, b.cancelTimelock, b.cancelValue, b.cancelPkScript)
	if err != nil {
		return err
	}
	b.packet = packet
	b.state = Built
	return nil
}

func (b *CancelBuilder) AddWitness(pub *btcec.PublicKey, sig []byte) error {
	return b.recordSig(pub, sig)
}

func (b *CancelBuilder) FinalizeAndExtract() (*wire.MsgTx, error) {
	sigA, err := b.sigFor(b.refundA)
	if err != nil {
		return nil, err
	}
	sigB, err := b.sigFor(b.refundB)
	if err != nil {
		return nil, err
	}
	witness := script.SpendLockCancelWitness(b.lockRedeemScript, b.refundA, sigA, b.refundB, sigB)
	return b.finalizeWithWitness(witness)
}

// --- BuyBuilder ----------------------------------------------------------

// BuyBuilder builds the Buy transaction: spends Lock's ELSE branch
// with both buy-key signatures (one of them adaptor-decrypted), paying
// Alice's destination address.
type BuyBuilder struct {
	base
	lockRedeemScript     []byte
	buyA, buyB           *btcec.PublicKey
	lockTxid             chainHash
	lockIndex            uint32
	lockValue            int64
	lockPkScript         []byte
	destValue            int64
	destPkScript         []byte
}

func NewBuyBuilder(lockRedeemScript []byte, buyA, buyB *btcec.PublicKey, lockTxid chainHash, lockIndex uint32, lockValue int64, lockPkScript []byte, destValue int64, destPkScript []byte) *BuyBuilder {
	b := &BuyBuilder{
		lockRedeemScript: lockRedeemScript,
		buyA:             buyA,
		buyB:             buyB,
		lockTxid:         lockTxid,
		lockIndex:        lockIndex,
		lockValue:        lockValue,
		lockPkScript:     lockPkScript,
		destValue:        destValue,
		destPkScript:     destPkScript,
	}
	b.base = newBase(lockRedeemScript, 2)
	return b
}

func (b *BuyBuilder) Initialize() error {
	packet, err := newUnsignedPacket(b.lockTxid, b.lockIndex, b.lockValue, b.lockPkScript, defaultSequence, b.destValue, b.destPkScript)
	if err != nil {
		return err
	}
	b.packet = packet
	b.state = Built
	return nil
}

func (b *BuyBuilder) AddWitness(pub *btcec.PublicKey, sig []byte) error {
	return b.recordSig(pub, sig)
}

func (b *BuyBuilder) FinalizeAndExtract() (*wire.MsgTx, error) {
	sigA, err := b.sigFor(b.buyA)
	if err != nil {
		return nil, err
	}
	sigB, err := b.sigFor(b.buyB)
	if err != nil {
		return nil, err
	}
	witness := script.SpendLockBuyWitness(b.lockRedeemScript, b.buyA, sigA, b.buyB, sigB)
	return b.finalizeWithWitness(witness)
}

// --- RefundBuilder -------------------------------------------------------

// RefundBuilder builds the Refund transaction: spends Cancel's ELSE
// branch with both refund-key signatures (one adaptor-decrypted),
// paying Bob's refund address.
type RefundBuilder struct {
	base
	cancelRedeemScript []byte
	refundA, refundB   *btcec.PublicKey
	cancelTxid         chainHash
	cancelIndex        uint32
	cancelValue        int64
	cancelPkScript     []byte
	refundValue        int64
	refundPkScript     []byte
}

func NewRefundBuilder(cancelRedeemScript []byte, refundA, refundB *btcec.PublicKey, cancelTxid chainHash, cancelIndex uint32, cancelValue int64, cancelPkScript []byte, refundValue int64, refundPkScript []byte) *RefundBuilder {
	b := &RefundBuilder{
		cancelRedeemScript: cancelRedeemScript,
		refundA:            refundA,
		refundB:            refundB,
		cancelTxid:         cancelTxid,
		cancelIndex:        cancelIndex,
		cancelValue:        cancelValue,
		cancelPkScript:     cancelPkScript,
		refundValue:        refundValue,
		refundPkScript:     refundPkScript,
	}
	b.base = newBase(cancelRedeemScript, 2)
	return b
}

func (b *RefundBuilder) Initialize() error {
	packet, err := newUnsignedPacket(b.cancelTxid, b.cancelIndex, b.cancelValue, b.cancelPkScript, defaultSequence, b.refundValue, b.refundPkScript)
	if err != nil {
		return err
	}
	b.packet = packet
	b.state = Built
	return nil
}

func (b *RefundBuilder) AddWitness(pub *btcec.PublicKey, sig []byte) error {
	return b.recordSig(pub, sig)
}

func (b *RefundBuilder) FinalizeAndExtract() (*wire.MsgTx, error) {
	sigA, err := b.sigFor(b.refundA)
	if err != nil {
		return nil, err
	}
	sigB, err := b.sigFor(b.refundB)
	if err != nil {
		return nil, err
	}
	witness := script.SpendCancelRefundWitness(b.cancelRedeemScript, b.refundA, sigA, b.refundB, sigB)
	return b.finalizeWithWitness(witness)
}

// --- PunishBuilder -------------------------------------------------------

// PunishBuilder builds the Punish transaction. Grounded on
// original_source's punish.rs (not included in this repository): it
// spends Cancel's IF branch with a *single*
// signature from Alice's Punish key and a CSV relative-locktime of
// punishTimelock, resolving the original's todo!() stub.
type PunishBuilder struct {
	base
	cancelRedeemScript []byte
	punishPub          *btcec.PublicKey
	cancelTxid         chainHash
	cancelIndex        uint32
	cancelValue        int64
	cancelPkScript     []byte
	punishValue        int64
	punishPkScript     []byte
	punishTimelock     uint32
}

func NewPunishBuilder(cancelRedeemScript []byte, punishPub *btcec.PublicKey, cancelTxid chainHash, cancelIndex uint32, cancelValue int64, cancelPkScript []byte, punishValue int64, punishPkScript []byte, punishTimelock uint32) *PunishBuilder {
	b := &PunishBuilder{
		cancelRedeemScript: cancelRedeemScript,
		punishPub:          punishPub,
		cancelTxid:         cancelTxid,
		cancelIndex:        cancelIndex,
		cancelValue:        cancelValue,
		cancelPkScript:     cancelPkScript,
		punishValue:        punishValue,
		punishPkScript:     punishPkScript,
		punishTimelock:     punishTimelock,
	}
	b.base = newBase(cancelRedeemScript, 1)
	return b
}

func (b *PunishBuilder) Initialize() error {
	packet, err := newUnsignedPacket(b.cancelTxid, b.cancelIndex, b.cancelValue, b.cancelPkScript, b.punishTimelock, b.punishValue, b.punishPkScript)
	if err != nil {
		return err
	}
	b.packet = packet
	b.state = Built
	return nil
}

func (b *PunishBuilder) AddWitness(pub *btcec.PublicKey, sig []byte) error {
	return b.recordSig(pub, sig)
}

func (b *PunishBuilder) FinalizeAndExtract() (*wire.MsgTx, error) {
	sig, err := b.sigFor(b.punishPub)
	if err != nil {
		return nil, err
	}
	witness := script.SpendCancelPunishWitness(b.cancelRedeemScript, sig)
	return b.finalizeWithWitness(witness)
}
