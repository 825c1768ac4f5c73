// Package script builds the four arbitrating script templates named in
// spec.md §4.4: Lock, Cancel, their CSV-gated alternate branches, and
// the Funding 2-of-2. Grounded on
// backend-engineer1-land/lnwallet/script_utils.go's
// genMultiSigScript/witnessScriptHash/spendMultiSig shape, ported from
// the teacher's vendored roasbeef/btcd fork onto the modern
// btcsuite/btcd/txscript and extended with the IF/ELSE CSV branches
// the swap's Lock and Cancel outputs need but lnd's channel output
// (a single always-multisig P2WSH) does not.
package script

import (
	"bytes"
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/fcswap/swapcore/swaperr"
)

// maxSequenceTimelock is the largest relative locktime (in blocks)
// representable in the low 16 bits of a BIP68 sequence number, the
// same mask the teacher's SequenceLockTimeMask documents.
const maxSequenceTimelock = 0x0000ffff

// CheckTimelockPolicy validates the cancel/punish timelock pair per
// spec.md §4.4: both must be positive and fit the arbitrating chain's
// relative-locktime encoding.
func CheckTimelockPolicy(cancelTimelock, punishTimelock uint32) error {
	if cancelTimelock == 0 || punishTimelock == 0 {
		return swaperr.NewTransaction(swaperr.BadTimelock, nil)
	}
	if cancelTimelock > maxSequenceTimelock || punishTimelock > maxSequenceTimelock {
		return swaperr.NewTransaction(swaperr.BadTimelock, nil)
	}
	return nil
}

// witnessScriptHash generates a P2WSH output script paying to the
// version-0 witness program for redeemScript.
func witnessScriptHash(redeemScript []byte) ([]byte, error) {
	bldr := txscript.NewScriptBuilder()
	scriptHash := sha256.Sum256(redeemScript)
	bldr.AddOp(txscript.OP_0)
	bldr.AddData(scriptHash[:])
	return bldr.Script()
}

// sortPubkeys returns aPub, bPub reordered so their compressed
// encodings sort ascending, matching genMultiSigScript's lexicographic
// convention so the witness signature order is unambiguous.
func sortPubkeys(aPub, bPub *btcec.PublicKey) (first, second *btcec.PublicKey, swapped bool) {
	aBytes := aPub.SerializeCompressed()
	bBytes := bPub.SerializeCompressed()
	if bytes.Compare(aBytes, bBytes) < 0 {
		return aPub, bPub, false
	}
	return bPub, aPub, true
}

// multiSigScript generates a bare 2-of-2 CHECKMULTISIG script for the
// two given public keys, sorted per sortPubkeys.
func multiSigScript(aPub, bPub *btcec.PublicKey) ([]byte, error) {
	first, second, _ := sortPubkeys(aPub, bPub)
	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(first.SerializeCompressed())
	bldr.AddData(second.SerializeCompressed())
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	return bldr.Script()
}

// FundingScript returns the Funding output's redeem script: a bare
// 2-of-2 multisig of both parties' Fund keys, and its P2WSH pkScript.
func FundingScript(fundA, fundB *btcec.PublicKey) (redeemScript []byte, pkScript []byte, err error) {
	redeemScript, err = multiSigScript(fundA, fundB)
	if err != nil {
		return nil, nil, err
	}
	pkScript, err = witnessScriptHash(redeemScript)
	return redeemScript, pkScript, err
}

// LockScript builds the Lock output redeem script of spec.md §4.4:
//
//	OP_IF
//	    <cancelTimelock> OP_CHECKSEQUENCEVERIFY OP_DROP
//	    2 <refundA> <refundB> 2 OP_CHECKMULTISIG
//	OP_ELSE
//	    2 <buyA> <buyB> 2 OP_CHECKMULTISIG
//	OP_ENDIF
//
// The ELSE branch is the Buy path; the IF branch is what the Cancel
// transaction's witness takes after cancelTimelock confirmations.
func LockScript(buyA, buyB, refundA, refundB *btcec.PublicKey, cancelTimelock uint32) ([]byte, error) {
	if cancelTimelock == 0 || cancelTimelock > maxSequenceTimelock {
		return nil, swaperr.NewTransaction(swaperr.BadTimelock, nil)
	}

	refundFirst, refundSecond, _ := sortPubkeys(refundA, refundB)
	buyFirst, buySecond, _ := sortPubkeys(buyA, buyB)

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_IF)
	bldr.AddInt64(int64(cancelTimelock))
	bldr.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	bldr.AddOp(txscript.OP_DROP)
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(refundFirst.SerializeCompressed())
	bldr.AddData(refundSecond.SerializeCompressed())
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	bldr.AddOp(txscript.OP_ELSE)
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(buyFirst.SerializeCompressed())
	bldr.AddData(buySecond.SerializeCompressed())
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	bldr.AddOp(txscript.OP_ENDIF)
	return bldr.Script()
}

// LockPkScript returns the P2WSH output script paying to LockScript.
func LockPkScript(buyA, buyB, refundA, refundB *btcec.PublicKey, cancelTimelock uint32) (redeemScript, pkScript []byte, err error) {
	redeemScript, err = LockScript(buyA, buyB, refundA, refundB, cancelTimelock)
	if err != nil {
		return nil, nil, err
	}
	pkScript, err = witnessScriptHash(redeemScript)
	return redeemScript, pkScript, err
}

// CancelScript builds the Cancel output redeem script of spec.md
// §4.4:
//
//	OP_IF
//	    <punishTimelock> OP_CHECKSEQUENCEVERIFY OP_DROP
//	    <punishPub> OP_CHECKSIG
//	OP_ELSE
//	    2 <refundA> <refundB> 2 OP_CHECKMULTISIG
//	OP_ENDIF
//
// The ELSE branch is the Refund path; the IF branch is Alice's
// unilateral Punish path, spendable after punishTimelock confirmations
// of Cancel.
func CancelScript(refundA, refundB, punishPub *btcec.PublicKey, punishTimelock uint32) ([]byte, error) {
	if punishTimelock == 0 || punishTimelock > maxSequenceTimelock {
		return nil, swaperr.NewTransaction(swaperr.BadTimelock, nil)
	}

	refundFirst, refundSecond, _ := sortPubkeys(refundA, refundB)

	bldr := txscript.NewScriptBuilder()
	bldr.AddOp(txscript.OP_IF)
	bldr.AddInt64(int64(punishTimelock))
	bldr.AddOp(txscript.OP_CHECKSEQUENCEVERIFY)
	bldr.AddOp(txscript.OP_DROP)
	bldr.AddData(punishPub.SerializeCompressed())
	bldr.AddOp(txscript.OP_CHECKSIG)
	bldr.AddOp(txscript.OP_ELSE)
	bldr.AddOp(txscript.OP_2)
	bldr.AddData(refundFirst.SerializeCompressed())
	bldr.AddData(refundSecond.SerializeCompressed())
	bldr.AddOp(txscript.OP_2)
	bldr.AddOp(txscript.OP_CHECKMULTISIG)
	bldr.AddOp(txscript.OP_ENDIF)
	return bldr.Script()
}

// CancelPkScript returns the P2WSH output script paying to CancelScript.
func CancelPkScript(refundA, refundB, punishPub *btcec.PublicKey, punishTimelock uint32) (redeemScript, pkScript []byte, err error) {
	redeemScript, err = CancelScript(refundA, refundB, punishPub, punishTimelock)
	if err != nil {
		return nil, nil, err
	}
	pkScript, err = witnessScriptHash(redeemScript)
	return redeemScript, pkScript, err
}

// ifBranchSelector pushes a zero (ELSE-branch) or a one (IF-branch)
// to select between an OP_IF/OP_ELSE script's two spending paths,
// following the single selector-byte-before-script convention in
// commitSpendTimeout/commitSpendRevoke.
func ifBranchSelector(takeIfBranch bool) []byte {
	if takeIfBranch {
		return []byte{1}
	}
	return []byte{0}
}

// multiSigWitness assembles the witness items (excluding the IF/ELSE
// selector and the redeem script itself) for a bare 2-of-2
// CHECKMULTISIG branch, ordering the signatures to match the redeem
// script's sorted pubkeys and prefixing the CHECKMULTISIG off-by-one
// stack bug's empty element, matching spendMultiSig.
func multiSigWitness(pubA *btcec.PublicKey, sigA []byte, pubB *btcec.PublicKey, sigB []byte) [][]byte {
	_, _, swapped := sortPubkeys(pubA, pubB)
	if swapped {
		return [][]byte{nil, sigB, sigA}
	}
	return [][]byte{nil, sigA, sigB}
}

// SpendLockBuyWitness builds the witness stack for spending Lock via
// its ELSE (Buy) branch with both buy-key signatures.
func SpendLockBuyWitness(redeemScript []byte, buyA *btcec.PublicKey, sigA []byte, buyB *btcec.PublicKey, sigB []byte) [][]byte {
	witness := multiSigWitness(buyA, sigA, buyB, sigB)
	witness = append(witness, ifBranchSelector(false), redeemScript)
	return witness
}

// SpendLockCancelWitness builds the witness stack for spending Lock
// via its IF (Cancel) branch with both refund-key signatures.
func SpendLockCancelWitness(redeemScript []byte, refundA *btcec.PublicKey, sigA []byte, refundB *btcec.PublicKey, sigB []byte) [][]byte {
	witness := multiSigWitness(refundA, sigA, refundB, sigB)
	witness = append(witness, ifBranchSelector(true), redeemScript)
	return witness
}

// SpendCancelRefundWitness builds the witness stack for spending
// Cancel via its ELSE (Refund) branch with both refund-key signatures.
func SpendCancelRefundWitness(redeemScript []byte, refundA *btcec.PublicKey, sigA []byte, refundB *btcec.PublicKey, sigB []byte) [][]byte {
	witness := multiSigWitness(refundA, sigA, refundB, sigB)
	witness = append(witness, ifBranchSelector(false), redeemScript)
	return witness
}

// SpendCancelPunishWitness builds the witness stack for spending
// Cancel via its IF (Punish) branch, Alice's punish key alone.
func SpendCancelPunishWitness(redeemScript []byte, punishSig []byte) [][]byte {
	return [][]byte{punishSig, ifBranchSelector(true), redeemScript}
}

// SpendFundingWitness builds the witness stack for spending the
// Funding 2-of-2 output (the Lock transaction's sole input).
func SpendFundingWitness(redeemScript []byte, fundA *btcec.PublicKey, sigA []byte, fundB *btcec.PublicKey, sigB []byte) [][]byte {
	witness := multiSigWitness(fundA, sigA, fundB, sigB)
	return append(witness, redeemScript)
}

// FindOutput locates the index of the output paying exactly pkScript
// in tx, mirroring findScriptOutputIndex.
func FindOutput(tx *wire.MsgTx, pkScript []byte) (uint32, bool) {
	for i, out := range tx.TxOut {
		if bytes.Equal(out.PkScript, pkScript) {
			return uint32(i), true
		}
	}
	return 0, false
}
