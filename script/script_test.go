package script

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func newTestPubkey(t *testing.T, b byte) *btcec.PublicKey {
	t.Helper()
	var seed [32]byte
	for i := range seed {
		seed[i] = b
	}
	priv, _ := btcec.PrivKeyFromBytes(seed[:])
	return priv.PubKey()
}

func TestCheckTimelockPolicyRejectsZero(t *testing.T) {
	require.Error(t, CheckTimelockPolicy(0, 10))
	require.Error(t, CheckTimelockPolicy(10, 0))
	require.NoError(t, CheckTimelockPolicy(10, 10))
}

func TestCheckTimelockPolicyRejectsOversized(t *testing.T) {
	require.Error(t, CheckTimelockPolicy(maxSequenceTimelock+1, 10))
	require.Error(t, CheckTimelockPolicy(10, maxSequenceTimelock+1))
}

func TestLockScriptDeterministic(t *testing.T) {
	buyA := newTestPubkey(t, 1)
	buyB := newTestPubkey(t, 2)
	refundA := newTestPubkey(t, 3)
	refundB := newTestPubkey(t, 4)

	s1, err := LockScript(buyA, buyB, refundA, refundB, 100)
	require.NoError(t, err)
	s2, err := LockScript(buyA, buyB, refundA, refundB, 100)
	require.NoError(t, err)
	require.Equal(t, s1, s2)

	s3, err := LockScript(buyA, buyB, refundA, refundB, 101)
	require.NoError(t, err)
	require.NotEqual(t, s1, s3)
}

func TestLockScriptRejectsBadTimelock(t *testing.T) {
	buyA := newTestPubkey(t, 1)
	buyB := newTestPubkey(t, 2)
	refundA := newTestPubkey(t, 3)
	refundB := newTestPubkey(t, 4)

	_, err := LockScript(buyA, buyB, refundA, refundB, 0)
	require.Error(t, err)
}

func TestCancelScriptDeterministic(t *testing.T) {
	refundA := newTestPubkey(t, 3)
	refundB := newTestPubkey(t, 4)
	punish := newTestPubkey(t, 5)

	s1, err := CancelScript(refundA, refundB, punish, 50)
	require.NoError(t, err)
	s2, err := CancelScript(refundA, refundB, punish, 50)
	require.NoError(t, err)
	require.Equal(t, s1, s2)
}

func TestFundingScriptRoundTrip(t *testing.T) {
	fundA := newTestPubkey(t, 6)
	fundB := newTestPubkey(t, 7)

	redeem, pkScript, err := FundingScript(fundA, fundB)
	require.NoError(t, err)
	require.NotEmpty(t, redeem)
	require.Len(t, pkScript, 34) // OP_0 <32-byte-hash>
}

func TestSpendWitnessSelectorByte(t *testing.T) {
	buyA := newTestPubkey(t, 1)
	buyB := newTestPubkey(t, 2)
	refundA := newTestPubkey(t, 3)
	refundB := newTestPubkey(t, 4)

	redeem, _, err := LockPkScript(buyA, buyB, refundA, refundB, 100)
	require.NoError(t, err)

	buyWitness := SpendLockBuyWitness(redeem, buyA, []byte("sigA"), buyB, []byte("sigB"))
	require.Equal(t, []byte{0}, buyWitness[len(buyWitness)-2])

	cancelWitness := SpendLockCancelWitness(redeem, refundA, []byte("sigA"), refundB, []byte("sigB"))
	require.Equal(t, []byte{1}, cancelWitness[len(cancelWitness)-2])
}

func TestFindOutput(t *testing.T) {
	buyA := newTestPubkey(t, 1)
	buyB := newTestPubkey(t, 2)
	refundA := newTestPubkey(t, 3)
	refundB := newTestPubkey(t, 4)

	_, pkScript, err := LockPkScript(buyA, buyB, refundA, refundB, 100)
	require.NoError(t, err)

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(wire.NewTxOut(1000, []byte("not it")))
	tx.AddTxOut(wire.NewTxOut(2000, pkScript))

	idx, found := FindOutput(tx, pkScript)
	require.True(t, found)
	require.Equal(t, uint32(1), idx)

	_, found = FindOutput(tx, []byte("nonexistent"))
	require.False(t, found)
}
