// Package fee implements the fee engine of spec.md §4.6: a strategy
// (fixed rate, or a min/max range) applied under a politic
// (aggressive/conservative, a.k.a. high/low) to deduct a sat/vbyte fee
// from a transaction's declared output, failing if the result would be
// dust. Grounded on sweep/txgenerator.go's dust-limit check (same
// txrules.GetDustThreshold call) and lnwallet/size.go's vbyte
// constants, adapted from "partition many sweep inputs by yield" to
// "deduct one fee from one swap output."
package fee

import (
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcwallet/wallet/txrules"

	"github.com/fcswap/swapcore/consensus"
	"github.com/fcswap/swapcore/swaperr"
)

// Politic selects which end of a fee range to pay. Aggressive/
// Conservative and High/Low are treated as synonyms per spec.md §9's Open Questions
// ("Fee politic has a Low/High split in some places and
// Aggressive/Conservative elsewhere; treat these as synonymous").
type Politic uint8

const (
	Conservative Politic = iota
	Aggressive
)

// Low is a synonym for Conservative; High is a synonym for
// Aggressive.
const (
	Low  = Conservative
	High = Aggressive
)

// Strategy is a tagged variant over the two fee-rate shapes named in
// spec.md §4.6. Rate is expressed in sat/vbyte, the unit declared for
// the arbitrating chain (Bitcoin).
type Strategy struct {
	fixed    bool
	fixedVal btcutil.Amount
	min      btcutil.Amount
	max      btcutil.Amount
}

// FixedStrategy returns a Strategy that always pays rate.
func FixedStrategy(rate btcutil.Amount) Strategy {
	return Strategy{fixed: true, fixedVal: rate}
}

// RangeStrategy returns a Strategy bounded by [min, max].
func RangeStrategy(min, max btcutil.Amount) Strategy {
	return Strategy{min: min, max: max}
}

// Rate resolves the strategy to a concrete sat/vbyte rate under the
// given politic: a Fixed strategy ignores the politic entirely; a
// Range strategy pays max under Aggressive and min under
// Conservative, satisfying invariant 7 of spec.md §8.
func (s Strategy) Rate(politic Politic) btcutil.Amount {
	if s.fixed {
		return s.fixedVal
	}
	if politic == Aggressive {
		return s.max
	}
	return s.min
}

// Encode implements consensus.Encodable so a Strategy can travel
// inside an Offer: a 1-byte tag (0 = Fixed, 1 = Range) then its
// rate(s) as 8-byte little-endian satoshi amounts.
func (s Strategy) Encode(w io.Writer) error {
	if s.fixed {
		if err := consensus.WriteUint8(w, 0); err != nil {
			return err
		}
		return consensus.WriteUint64(w, uint64(s.fixedVal))
	}
	if err := consensus.WriteUint8(w, 1); err != nil {
		return err
	}
	if err := consensus.WriteUint64(w, uint64(s.min)); err != nil {
		return err
	}
	return consensus.WriteUint64(w, uint64(s.max))
}

// Decode implements consensus.Decodable.
func (s *Strategy) Decode(r io.Reader) error {
	tag, err := consensus.ReadUint8(r)
	if err != nil {
		return err
	}
	switch tag {
	case 0:
		v, err := consensus.ReadUint64(r)
		if err != nil {
			return err
		}
		*s = FixedStrategy(btcutil.Amount(v))
	case 1:
		min, err := consensus.ReadUint64(r)
		if err != nil {
			return err
		}
		max, err := consensus.ReadUint64(r)
		if err != nil {
			return err
		}
		*s = RangeStrategy(btcutil.Amount(min), btcutil.Amount(max))
	default:
		return &consensus.Error{Kind: consensus.UnknownType, Msg: "fee strategy"}
	}
	return nil
}

// Engine applies a resolved fee to a transaction's declared output
// value. It is stateless and reusable, like the commitment engine.
type Engine struct{}

// NewEngine constructs a fee Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Apply deducts vsize*rate from output.Value in place, per spec.md
// §4.6. It fails NotEnoughAssets, leaving output untouched, if the
// remainder would fall below the dust threshold for output's own
// script (the arbitrating scripts in this package's sibling `script`
// package are all P2WSH, but the dust check is script-size-generic).
func (e *Engine) Apply(vsize int64, strategy Strategy, politic Politic, output *wire.TxOut) error {
	rate := strategy.Rate(politic)
	feeAmt := rate * btcutil.Amount(vsize)

	remaining := btcutil.Amount(output.Value) - feeAmt
	dustLimit := txrules.GetDustThreshold(len(output.PkScript), rate*1000)
	if remaining < dustLimit {
		return swaperr.NewTransaction(swaperr.NotEnoughAssets, nil)
	}
	output.Value = int64(remaining)
	return nil
}

// P2WSHSize is the output script size (in bytes) of the version-0
// P2WSH outputs this swap core's scripts produce: OP_0 <32-byte hash>.
const P2WSHSize = 34
