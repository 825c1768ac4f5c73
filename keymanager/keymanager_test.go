package keymanager

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fcswap/swapcore/keyid"
)

func testSeed(fill byte) [32]byte {
	var s [32]byte
	for i := range s {
		s[i] = fill
	}
	return s
}

func TestArbitratingPubkeyDeterministic(t *testing.T) {
	m1 := NewManager(testSeed(7), 1)
	m2 := NewManager(testSeed(7), 1)

	p1, err := m1.GetArbitratingPubkey(keyid.ArbFund)
	require.NoError(t, err)
	p2, err := m2.GetArbitratingPubkey(keyid.ArbFund)
	require.NoError(t, err)
	require.Equal(t, p1.SerializeCompressed(), p2.SerializeCompressed())

	other, err := m1.GetArbitratingPubkey(keyid.ArbBuy)
	require.NoError(t, err)
	require.NotEqual(t, p1.SerializeCompressed(), other.SerializeCompressed())
}

func TestAccordantPubkeyDeterministic(t *testing.T) {
	m1 := NewManager(testSeed(9), 1)
	m2 := NewManager(testSeed(9), 1)

	p1, err := m1.GetAccordantPubkey(keyid.AccSpend)
	require.NoError(t, err)
	p2, err := m2.GetAccordantPubkey(keyid.AccSpend)
	require.NoError(t, err)
	require.Equal(t, p1, p2)
	require.Len(t, p1, 32)
}

func TestDifferentAccountsDeriveDifferentKeys(t *testing.T) {
	seed := testSeed(3)
	m1 := NewManager(seed, 1)
	m2 := NewManager(seed, 2)

	p1, err := m1.GetArbitratingPubkey(keyid.ArbFund)
	require.NoError(t, err)
	p2, err := m2.GetArbitratingPubkey(keyid.ArbFund)
	require.NoError(t, err)
	require.NotEqual(t, p1.SerializeCompressed(), p2.SerializeCompressed())
}

func TestSignVerifyRoundTrip(t *testing.T) {
	m := NewManager(testSeed(11), 1)
	msg := sha256.Sum256([]byte("lock transaction"))

	sig, err := m.Sign(keyid.ArbBuy, msg)
	require.NoError(t, err)

	pub, err := m.GetArbitratingPubkey(keyid.ArbBuy)
	require.NoError(t, err)

	require.NoError(t, VerifySignature(pub, msg, sig))

	msg[0] ^= 0xff
	require.Error(t, VerifySignature(pub, msg, sig))
}

func TestDleqProofGenerationAndVerification(t *testing.T) {
	m := NewManager(testSeed(21), 1)

	spendPub, encryptionPub, proof, err := m.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)
	require.Len(t, spendPub, 32)

	require.NoError(t, VerifyProof(spendPub, encryptionPub, proof))
}

func TestDleqProofCorruptionFailsVerification(t *testing.T) {
	m := NewManager(testSeed(22), 1)

	spendPub, encryptionPub, proof, err := m.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)

	corrupt := *proof
	corruptBytes := append([]byte(nil), proof.REd...)
	corruptBytes[0] ^= 0x01
	corrupt.REd = corruptBytes

	require.Error(t, VerifyProof(spendPub, encryptionPub, &corrupt))
}

func TestDleqProofRejectsMismatchedKeys(t *testing.T) {
	mA := NewManager(testSeed(23), 1)
	mB := NewManager(testSeed(24), 1)

	spendPubA, _, proofA, err := mA.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)
	_, encryptionPubB, _, err := mB.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)

	require.Error(t, VerifyProof(spendPubA, encryptionPubB, proofA))
}

func TestAdaptorSignatureEncryptDecryptRecover(t *testing.T) {
	alice := NewManager(testSeed(31), 1)
	bob := NewManager(testSeed(32), 1)

	// Bob's accordant spend key supplies the encryption point; Alice
	// adaptor-signs under it and Bob, who holds the matching secret,
	// decrypts. The completed signature plus the adaptor signature then
	// recover Bob's secret, as in the Refund leg of spec.md §4.7.
	_, encryptionPub, _, err := bob.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)

	msg := sha256.Sum256([]byte("buy transaction"))

	encSig, err := alice.EncryptSign(keyid.ArbBuy, encryptionPub, msg)
	require.NoError(t, err)

	alicePub, err := alice.GetArbitratingPubkey(keyid.ArbBuy)
	require.NoError(t, err)

	require.NoError(t, VerifyEncryptedSignature(alicePub, encryptionPub, msg, encSig))

	completed, err := bob.DecryptSignature(encSig, keyid.AccSpend)
	require.NoError(t, err)
	require.NoError(t, VerifySignature(alicePub, msg, completed))

	recovered, err := RecoverSecretKey(encSig, completed)
	require.NoError(t, err)

	x, err := bob.deriveAccordantScalar(keyid.AccSpend)
	require.NoError(t, err)
	expected := edScalarToSecpScalar(x)
	require.Equal(t, *expected.Bytes(), *recovered.Bytes())
}

func TestAdaptorSignatureRejectsTamperedEncryption(t *testing.T) {
	alice := NewManager(testSeed(41), 1)
	bob := NewManager(testSeed(42), 1)

	_, encryptionPub, _, err := bob.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)

	msg := sha256.Sum256([]byte("refund transaction"))
	encSig, err := alice.EncryptSign(keyid.ArbRefund, encryptionPub, msg)
	require.NoError(t, err)

	alicePub, err := alice.GetArbitratingPubkey(keyid.ArbRefund)
	require.NoError(t, err)

	tampered := *encSig
	tampered.S[0] ^= 0x01
	require.Error(t, VerifyEncryptedSignature(alicePub, encryptionPub, msg, &tampered))
}

// TestAdaptorSignatureCompletionIsAlwaysEvenY guards against the
// encrypted nonce point RPub = R + T landing on an odd-Y x-coordinate:
// EncryptSign's rejection loop must keep drawing nonces until RPub is
// even-Y, or the completed signature fails BIP340 verification roughly
// half the time. Runs many independent nonce draws so a regression
// that removes the rejection check shows up reliably rather than
// passing by chance.
func TestAdaptorSignatureCompletionIsAlwaysEvenY(t *testing.T) {
	alice := NewManager(testSeed(51), 1)
	bob := NewManager(testSeed(52), 1)

	_, encryptionPub, _, err := bob.GenerateProof(keyid.AccSpend)
	require.NoError(t, err)

	alicePub, err := alice.GetArbitratingPubkey(keyid.ArbBuy)
	require.NoError(t, err)

	for i := 0; i < 64; i++ {
		msg := sha256.Sum256([]byte{byte(i)})

		encSig, err := alice.EncryptSign(keyid.ArbBuy, encryptionPub, msg)
		require.NoError(t, err)
		require.False(t, encSig.RPubOddY)

		completed, err := bob.DecryptSignature(encSig, keyid.AccSpend)
		require.NoError(t, err)
		require.NoError(t, VerifySignature(alicePub, msg, completed))
	}
}
