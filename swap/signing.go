package swap

import (
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/wire"
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/fcswap/swapcore/keyid"
	"github.com/fcswap/swapcore/keymanager"
)

// signIdentifier signs msg under the arbitrating key id and returns
// both the corresponding public key and the signature, the (pub, sig)
// pair every AddWitness call needs.
func signIdentifier(km *keymanager.Manager, id keyid.ArbitratingKeyId, msg [32]byte) (*secp256k1.PublicKey, *schnorr.Signature, error) {
	pub, err := km.GetArbitratingPubkey(id)
	if err != nil {
		return nil, nil, err
	}
	sig, err := km.Sign(id, msg)
	if err != nil {
		return nil, nil, err
	}
	return pub, sig, nil
}

// finalizeCancel assembles the Cancel transaction from both parties'
// plain cancel signatures, per spec.md §4.7 step 13: "after t_c,
// either side assembles Cancel using the two cancel signatures and
// broadcasts." Callable by either role's driver since both reconstruct
// an equivalent Core.
func finalizeCancel(core *Core, alicePub *secp256k1.PublicKey, aliceSig *schnorr.Signature, bobPub *secp256k1.PublicKey, bobSig *schnorr.Signature) (*wire.MsgTx, error) {
	if err := core.Cancel.AddWitness(alicePub, aliceSig.Serialize()); err != nil {
		return nil, err
	}
	if err := core.Cancel.AddWitness(bobPub, bobSig.Serialize()); err != nil {
		return nil, err
	}
	return core.Cancel.FinalizeAndExtract()
}

// recoverAccordantKey extracts the counterparty's accordant spend
// scalar from an adaptor signature and its on-chain-completed regular
// counterpart (spec.md §4.7 steps 12/14: "recover_accordant_key(km,
// aparams, adaptor_buy, buy_tx) -> accordant_spend_secret"), reversing
// back to the canonical little-endian ed25519 scalar per §9.
func recoverAccordantKey(encSig *keymanager.EncryptedSignature, completedSig *schnorr.Signature) ([]byte, error) {
	t, err := keymanager.RecoverSecretKey(encSig, completedSig)
	if err != nil {
		return nil, err
	}
	edScalar, err := keymanager.EdScalarFromReversed(t)
	if err != nil {
		return nil, err
	}
	return edScalar.Bytes(), nil
}
