package txbuilder

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/fcswap/swapcore/keyid"
	"github.com/fcswap/swapcore/keymanager"
	"github.com/fcswap/swapcore/script"
)

func testSeed(b byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = b
	}
	return s
}

func TestFundingBuilderWrapsObservedTx(t *testing.T) {
	f := NewFundingBuilder()
	require.Equal(t, Built, f.State())

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(100000, []byte{0}))
	f.Update(tx)

	require.Equal(t, Extracted, f.State())
	got, err := f.FinalizeAndExtract()
	require.NoError(t, err)
	require.Equal(t, tx, got)
}

func TestLockBuilderFullLifecycle(t *testing.T) {
	alice := keymanager.NewManager(testSeed(1), 1)
	bob := keymanager.NewManager(testSeed(2), 1)

	fundA, err := alice.GetArbitratingPubkey(keyid.ArbFund)
	require.NoError(t, err)
	fundB, err := bob.GetArbitratingPubkey(keyid.ArbFund)
	require.NoError(t, err)

	redeemScript, pkScript, err := script.FundingScript(fundA, fundB)
	require.NoError(t, err)

	lockPkScript := []byte{0, 1, 2, 3}

	var fundingTxid chainhash.Hash
	b := NewLockBuilder(redeemScript, fundA, fundB, fundingTxid, 0, 100000, pkScript, 99000, lockPkScript)
	require.NoError(t, b.Initialize())
	require.Equal(t, Built, b.State())

	sigHash := [32]byte{9, 9, 9}
	sigA, err := alice.Sign(keyid.ArbFund, sigHash)
	require.NoError(t, err)
	sigB, err := bob.Sign(keyid.ArbFund, sigHash)
	require.NoError(t, err)

	require.NoError(t, b.AddWitness(fundA, sigA.Serialize()))
	require.Equal(t, PartiallySigned, b.State())
	require.NoError(t, b.AddWitness(fundB, sigB.Serialize()))
	require.Equal(t, FullySigned, b.State())

	tx, err := b.FinalizeAndExtract()
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, Extracted, b.State())
	require.Equal(t, int64(99000), tx.TxOut[0].Value)

	require.Panics(t, func() { b.FinalizeAndExtract() }) //nolint:errcheck
}

func TestCancelBuilderRequiresBothSignatures(t *testing.T) {
	alice := keymanager.NewManager(testSeed(3), 1)
	bob := keymanager.NewManager(testSeed(4), 1)

	refundA, err := alice.GetArbitratingPubkey(keyid.ArbRefund)
	require.NoError(t, err)
	refundB, err := bob.GetArbitratingPubkey(keyid.ArbRefund)
	require.NoError(t, err)
	buyA, err := alice.GetArbitratingPubkey(keyid.ArbBuy)
	require.NoError(t, err)
	buyB, err := bob.GetArbitratingPubkey(keyid.ArbBuy)
	require.NoError(t, err)

	lockRedeem, lockPkScript, err := script.LockPkScript(buyA, buyB, refundA, refundB, 50)
	require.NoError(t, err)

	var lockTxid chainhash.Hash
	b := NewCancelBuilder(lockRedeem, refundA, refundB, lockTxid, 0, 99000, lockPkScript, 98000, []byte{0}, 50)
	require.NoError(t, b.Initialize())

	_, err = b.FinalizeAndExtract()
	require.Error(t, err)

	sigHash := [32]byte{1}
	sigA, err := alice.Sign(keyid.ArbRefund, sigHash)
	require.NoError(t, err)
	require.NoError(t, b.AddWitness(refundA, sigA.Serialize()))

	_, err = b.FinalizeAndExtract()
	require.Error(t, err)

	sigB, err := bob.Sign(keyid.ArbRefund, sigHash)
	require.NoError(t, err)
	require.NoError(t, b.AddWitness(refundB, sigB.Serialize()))

	tx, err := b.FinalizeAndExtract()
	require.NoError(t, err)
	require.NotNil(t, tx)
}

func TestPunishBuilderSingleSignature(t *testing.T) {
	alice := keymanager.NewManager(testSeed(5), 1)
	bob := keymanager.NewManager(testSeed(6), 1)

	refundA, err := alice.GetArbitratingPubkey(keyid.ArbRefund)
	require.NoError(t, err)
	refundB, err := bob.GetArbitratingPubkey(keyid.ArbRefund)
	require.NoError(t, err)
	punishPub, err := alice.GetArbitratingPubkey(keyid.ArbPunish)
	require.NoError(t, err)

	cancelRedeem, cancelPkScript, err := script.CancelPkScript(refundA, refundB, punishPub, 25)
	require.NoError(t, err)

	var cancelTxid chainhash.Hash
	p := NewPunishBuilder(cancelRedeem, punishPub, cancelTxid, 0, 98000, cancelPkScript, 97000, []byte{0}, 25)
	require.NoError(t, p.Initialize())

	sigHash := [32]byte{2}
	sig, err := alice.Sign(keyid.ArbPunish, sigHash)
	require.NoError(t, err)
	require.NoError(t, p.AddWitness(punishPub, sig.Serialize()))
	require.Equal(t, FullySigned, p.State())

	tx, err := p.FinalizeAndExtract()
	require.NoError(t, err)
	require.NotNil(t, tx)
}
