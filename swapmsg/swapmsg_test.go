package swapmsg

import (
	"bytes"
	"testing"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"

	"github.com/fcswap/swapcore/commitment"
	"github.com/fcswap/swapcore/fee"
	"github.com/fcswap/swapcore/keymanager"
	"github.com/fcswap/swapcore/offer"
)

func testPubkey(seed byte) *secp256k1.PublicKey {
	var b [32]byte
	for i := range b {
		b[i] = seed
	}
	priv := secp256k1.PrivKeyFromBytes(b[:])
	return priv.PubKey()
}

func testParameters(withPunish bool) SessionParameters {
	p := SessionParameters{
		FundPub:    testPubkey(12),
		BuyPub:     testPubkey(1),
		CancelPub:  testPubkey(2),
		RefundPub:  testPubkey(3),
		AdaptorPub: testPubkey(4),
		SpendPub:   bytes.Repeat([]byte{5}, 32),
		ViewSecret: bytes.Repeat([]byte{6}, 32),
		Proof: &keymanager.DleqProof{
			VEd:   bytes.Repeat([]byte{7}, 32),
			VSecp: testPubkey(8).SerializeCompressed(),
			REd:   bytes.Repeat([]byte{9}, 32),
			RSecp: bytes.Repeat([]byte{10}, 32),
		},
		DestinationAddress: "bc1qesgvtyx9y6lax0x34napc2m7t5zdq6s7xxwpvk",
		CancelTimelock:      50,
		PunishTimelock:       25,
		FeeStrategy:          fee.RangeStrategy(1, 100),
	}
	if withPunish {
		p.PunishPub = testPubkey(11)
	}
	return p
}

func TestSessionParametersEncodeDecodeRoundTrip(t *testing.T) {
	for _, withPunish := range []bool{true, false} {
		p := testParameters(withPunish)
		var buf bytes.Buffer
		require.NoError(t, p.Encode(&buf))

		var decoded SessionParameters
		require.NoError(t, decoded.Decode(&buf))

		require.True(t, p.BuyPub.IsEqual(decoded.BuyPub))
		require.Equal(t, p.SpendPub, decoded.SpendPub)
		require.Equal(t, p.DestinationAddress, decoded.DestinationAddress)
		require.Equal(t, p.CancelTimelock, decoded.CancelTimelock)
		if withPunish {
			require.True(t, p.PunishPub.IsEqual(decoded.PunishPub))
		} else {
			require.Nil(t, decoded.PunishPub)
		}
	}
}

func TestCommitmentValidatesReveal(t *testing.T) {
	e := commitment.NewEngine()
	alice := testParameters(true)

	c, _, err := CommitParameters(e, alice)
	require.NoError(t, err)
	require.NoError(t, c.Validate(e, alice))

	tampered := alice
	tampered.DestinationAddress = "bc1qdifferentaddress0000000000000000000000"
	require.Error(t, c.Validate(e, tampered))
}

func TestCommitmentEncodeDecodeRoundTrip(t *testing.T) {
	e := commitment.NewEngine()
	c, _, err := CommitParameters(e, testParameters(false))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.Encode(&buf))

	var decoded Commitment
	require.NoError(t, decoded.Decode(&buf))
	require.Equal(t, c.Digests, decoded.Digests)
}

func testSwapId() offer.SwapId {
	var id offer.SwapId
	for i := range id {
		id[i] = byte(i)
	}
	return id
}

func roundTripMessage(t *testing.T, msg Message) Message {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, EncodeMessage(&buf, msg))

	decoded, err := DecodeMessage(&buf)
	require.NoError(t, err)
	require.Equal(t, msg.MsgType(), decoded.MsgType())
	require.Equal(t, msg.SwapID(), decoded.SwapID())
	return decoded
}

func TestCommitAliceParametersRoundTrip(t *testing.T) {
	e := commitment.NewEngine()
	c, _, err := CommitParameters(e, testParameters(true))
	require.NoError(t, err)

	msg := &CommitAliceParameters{envelope: envelope{ID: testSwapId()}, Commitment: *c}
	decoded := roundTripMessage(t, msg).(*CommitAliceParameters)
	require.Equal(t, c.Digests, decoded.Commitment.Digests)
}

func TestCommitBobParametersRoundTrip(t *testing.T) {
	e := commitment.NewEngine()
	c, _, err := CommitParameters(e, testParameters(false))
	require.NoError(t, err)

	msg := &CommitBobParameters{envelope: envelope{ID: testSwapId()}, Commitment: *c}
	roundTripMessage(t, msg)
}

func TestRevealAliceParametersRoundTrip(t *testing.T) {
	msg := &RevealAliceParameters{envelope: envelope{ID: testSwapId()}, Parameters: testParameters(true)}
	decoded := roundTripMessage(t, msg).(*RevealAliceParameters)
	require.True(t, msg.Parameters.BuyPub.IsEqual(decoded.Parameters.BuyPub))
}

func TestRevealBobParametersRoundTrip(t *testing.T) {
	msg := &RevealBobParameters{envelope: envelope{ID: testSwapId()}, Parameters: testParameters(false)}
	decoded := roundTripMessage(t, msg).(*RevealBobParameters)
	require.Nil(t, decoded.Parameters.PunishPub)
}

func testEncryptedSignature() keymanager.EncryptedSignature {
	var s keymanager.EncryptedSignature
	for i := range s.RPub {
		s.RPub[i] = byte(i)
	}
	s.RPubOddY = true
	for i := range s.S {
		s.S[i] = byte(i + 1)
	}
	for i := range s.EncryptionPoint {
		s.EncryptionPoint[i] = byte(i + 2)
	}
	return s
}

func TestCoreArbitratingSetupRoundTrip(t *testing.T) {
	msg := &CoreArbitratingSetup{
		envelope:     envelope{ID: testSwapId()},
		LockTx:       []byte{1, 2, 3},
		CancelTx:     []byte{4, 5, 6},
		RefundTx:     []byte{7, 8, 9},
		CancelEncSig: testEncryptedSignature(),
	}
	decoded := roundTripMessage(t, msg).(*CoreArbitratingSetup)
	require.Equal(t, msg.LockTx, decoded.LockTx)
	require.Equal(t, msg.CancelEncSig, decoded.CancelEncSig)
}

func TestRefundProcedureSignaturesRoundTrip(t *testing.T) {
	msg := &RefundProcedureSignatures{
		envelope:     envelope{ID: testSwapId()},
		RefundEncSig: testEncryptedSignature(),
	}
	for i := range msg.CancelSig {
		msg.CancelSig[i] = byte(i)
	}
	decoded := roundTripMessage(t, msg).(*RefundProcedureSignatures)
	require.Equal(t, msg.CancelSig, decoded.CancelSig)
	require.Equal(t, msg.RefundEncSig, decoded.RefundEncSig)
}

func TestBuyProcedureSignatureRoundTrip(t *testing.T) {
	msg := &BuyProcedureSignature{
		envelope:  envelope{ID: testSwapId()},
		BuyEncSig: testEncryptedSignature(),
	}
	decoded := roundTripMessage(t, msg).(*BuyProcedureSignature)
	require.Equal(t, msg.BuyEncSig, decoded.BuyEncSig)
}

func TestAbortRoundTrip(t *testing.T) {
	msg := &Abort{envelope: envelope{ID: testSwapId()}, Reason: "counterparty timeout"}
	decoded := roundTripMessage(t, msg).(*Abort)
	require.Equal(t, msg.Reason, decoded.Reason)
}

func TestDecodeMessageRejectsUnknownType(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xff)
	_, err := DecodeMessage(&buf)
	require.Error(t, err)
}
