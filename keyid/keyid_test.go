package keyid

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArbitratingKeyIdRoundTrip(t *testing.T) {
	cases := []ArbitratingKeyId{ArbFund, ArbBuy, ArbCancel, ArbRefund, ArbPunish, ArbExtra(7)}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf))

		var got ArbitratingKeyId
		require.NoError(t, got.Decode(&buf))
		require.Equal(t, c, got)
	}
}

func TestAccordantKeyIdRoundTrip(t *testing.T) {
	cases := []AccordantKeyId{AccSpend, AccExtra(3)}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf))

		var got AccordantKeyId
		require.NoError(t, got.Decode(&buf))
		require.Equal(t, c, got)
	}
}

func TestSharedKeyIdViewIsOne(t *testing.T) {
	require.EqualValues(t, 1, ViewKeyID.ID())

	var buf bytes.Buffer
	require.NoError(t, ViewKeyID.Encode(&buf))
	var got SharedKeyId
	require.NoError(t, got.Decode(&buf))
	require.Equal(t, ViewKeyID, got)
}

func TestUnknownArbitratingKindFails(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0xFF)
	var got ArbitratingKeyId
	err := got.Decode(&buf)
	require.Error(t, err)
}
