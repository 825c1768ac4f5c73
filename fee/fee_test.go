package fee

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/fcswap/swapcore/consensus"
)

func TestFixedStrategyIgnoresPolitic(t *testing.T) {
	s := FixedStrategy(10)
	require.Equal(t, btcutil.Amount(10), s.Rate(Aggressive))
	require.Equal(t, btcutil.Amount(10), s.Rate(Conservative))
}

func TestRangeStrategyPoliticExtremes(t *testing.T) {
	s := RangeStrategy(5, 50)
	require.Equal(t, btcutil.Amount(50), s.Rate(Aggressive))
	require.Equal(t, btcutil.Amount(5), s.Rate(Conservative))
	require.Equal(t, s.Rate(High), s.Rate(Aggressive))
	require.Equal(t, s.Rate(Low), s.Rate(Conservative))
}

func dummyOutput(value int64) *wire.TxOut {
	return wire.NewTxOut(value, make([]byte, P2WSHSize))
}

func TestApplyDeductsFee(t *testing.T) {
	e := NewEngine()
	s := FixedStrategy(10)

	out := dummyOutput(100000)
	require.NoError(t, e.Apply(200, s, Conservative, out))
	require.Equal(t, int64(100000-2000), out.Value)
}

func TestApplyFailsBelowDust(t *testing.T) {
	e := NewEngine()
	s := FixedStrategy(1000)

	out := dummyOutput(1000)
	require.Error(t, e.Apply(200, s, Conservative, out))
	require.Equal(t, int64(1000), out.Value) // untouched on failure
}

func TestStrategyEncodeDecodeRoundTrip(t *testing.T) {
	fixed := FixedStrategy(42)
	b, err := consensus.Encode(fixed)
	require.NoError(t, err)
	var decoded Strategy
	require.NoError(t, consensus.Decode(b, &decoded))
	require.Equal(t, fixed.Rate(Aggressive), decoded.Rate(Aggressive))

	rng := RangeStrategy(5, 50)
	b, err = consensus.Encode(rng)
	require.NoError(t, err)
	var decodedRange Strategy
	require.NoError(t, consensus.Decode(b, &decodedRange))
	require.Equal(t, rng.Rate(Aggressive), decodedRange.Rate(Aggressive))
	require.Equal(t, rng.Rate(Conservative), decodedRange.Rate(Conservative))
}

func TestApplyRangeUsesAggressiveMax(t *testing.T) {
	e := NewEngine()
	s := RangeStrategy(1, 100)

	aggressiveOut := dummyOutput(100000)
	require.NoError(t, e.Apply(200, s, Aggressive, aggressiveOut))

	conservativeOut := dummyOutput(100000)
	require.NoError(t, e.Apply(200, s, Conservative, conservativeOut))

	require.Less(t, aggressiveOut.Value, conservativeOut.Value)
}
