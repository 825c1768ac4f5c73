package offer

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"

	"github.com/fcswap/swapcore/consensus"
	"github.com/fcswap/swapcore/fee"
)

func testOffer() Offer {
	return Offer{
		NetworkId:          1,
		ArbitratingAssetId: 0,
		AccordantAssetId:   1,
		ArbitratingAmount:  btcutil.Amount(123456789),
		AccordantAmount:    987654321,
		CancelTimelock:     50,
		PunishTimelock:     50,
		FeeStrategy:        fee.RangeStrategy(1, 100),
		MakerSwapRole:      Bob,
	}
}

func TestOfferEncodeDecodeRoundTrip(t *testing.T) {
	o := testOffer()
	b, err := consensus.Encode(o)
	require.NoError(t, err)

	var decoded Offer
	require.NoError(t, consensus.Decode(b, &decoded))
	require.Equal(t, o, decoded)
}

func TestPublicOfferHexRoundTrip(t *testing.T) {
	p := PublicOffer{
		Offer:        testOffer(),
		MakerAddress: "bc1qesgvtyx9y6lax0x34napc2m7t5zdq6s7xxwpvk",
	}

	hexStr, err := EncodeHex(p)
	require.NoError(t, err)
	require.Contains(t, hexStr, "464353574150") // "FCSWAP" magic

	decoded, err := DecodeHex(hexStr)
	require.NoError(t, err)
	require.Equal(t, p, decoded)
}

func TestPublicOfferRejectsBadMagic(t *testing.T) {
	p := PublicOffer{Offer: testOffer(), MakerAddress: "addr"}
	hexStr, err := EncodeHex(p)
	require.NoError(t, err)

	raw := []byte(hexStr)
	raw[0] = 'f' // flip a magic hex nibble
	_, err = DecodeHex(string(raw))
	require.Error(t, err)
}

func TestSwapIdRoundTrip(t *testing.T) {
	id, err := NewSwapId()
	require.NoError(t, err)

	b, err := consensus.Encode(id)
	require.NoError(t, err)
	require.Len(t, b, 32)

	var decoded SwapId
	require.NoError(t, consensus.Decode(b, &decoded))
	require.Equal(t, id, decoded)
}

func TestSwapRoleOther(t *testing.T) {
	require.Equal(t, Bob, Alice.Other())
	require.Equal(t, Alice, Bob.Other())
}
