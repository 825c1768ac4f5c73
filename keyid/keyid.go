// Package keyid defines the opaque key-identifier handles named in
// spec.md §3: ArbitratingKeyId, AccordantKeyId and SharedKeyId.
// Identifiers are the only externally visible handle on key material —
// private keys never leave the key manager. Grounded on
// original_source/src/crypto.rs's ArbitratingKeyId/AccordantKeyId/
// SharedKeyId/TaggedElement enums.
package keyid

import (
	"fmt"
	"io"

	"github.com/fcswap/swapcore/consensus"
)

// ArbitratingKeyId tags a secp256k1 key derived for use on the
// arbitrating chain.
type ArbitratingKeyId struct {
	kind  arbitratingKind
	extra uint16
}

type arbitratingKind uint8

const (
	arbFund arbitratingKind = iota
	arbBuy
	arbCancel
	arbRefund
	arbPunish
	arbExtra
)

var (
	ArbFund   = ArbitratingKeyId{kind: arbFund}
	ArbBuy    = ArbitratingKeyId{kind: arbBuy}
	ArbCancel = ArbitratingKeyId{kind: arbCancel}
	ArbRefund = ArbitratingKeyId{kind: arbRefund}
	ArbPunish = ArbitratingKeyId{kind: arbPunish}
)

// ArbExtra returns an Extra(id) arbitrating key identifier for
// off-protocol extensions (multisig, MPC) per spec.md §3.
func ArbExtra(id uint16) ArbitratingKeyId {
	return ArbitratingKeyId{kind: arbExtra, extra: id}
}

func (k ArbitratingKeyId) String() string {
	switch k.kind {
	case arbFund:
		return "Fund"
	case arbBuy:
		return "Buy"
	case arbCancel:
		return "Cancel"
	case arbRefund:
		return "Refund"
	case arbPunish:
		return "Punish"
	case arbExtra:
		return fmt.Sprintf("Extra(%d)", k.extra)
	default:
		return "Unknown"
	}
}

// IsExtra reports whether this is an Extra(id) variant and returns id.
func (k ArbitratingKeyId) IsExtra() (uint16, bool) {
	return k.extra, k.kind == arbExtra
}

// Encode writes the 1-byte discriminant and, for Extra, its u16 id.
func (k ArbitratingKeyId) Encode(w io.Writer) error {
	if err := consensus.WriteUint8(w, uint8(k.kind)); err != nil {
		return err
	}
	if k.kind == arbExtra {
		return consensus.WriteUint16(w, k.extra)
	}
	return nil
}

// Decode fills k from its wire representation.
func (k *ArbitratingKeyId) Decode(r io.Reader) error {
	kind, err := consensus.ReadUint8(r)
	if err != nil {
		return err
	}
	k.kind = arbitratingKind(kind)
	if k.kind > arbExtra {
		return &consensus.Error{Kind: consensus.UnknownType, Msg: "arbitrating key id"}
	}
	if k.kind == arbExtra {
		extra, err := consensus.ReadUint16(r)
		if err != nil {
			return err
		}
		k.extra = extra
	}
	return nil
}

// AccordantKeyId tags an ed25519 key derived for use on the accordant
// chain.
type AccordantKeyId struct {
	kind  accordantKind
	extra uint16
}

type accordantKind uint8

const (
	accSpend accordantKind = iota
	accExtra
)

// AccSpend is the accordant bought/sold spend key.
var AccSpend = AccordantKeyId{kind: accSpend}

// AccExtra returns an Extra(id) accordant key identifier.
func AccExtra(id uint16) AccordantKeyId {
	return AccordantKeyId{kind: accExtra, extra: id}
}

func (k AccordantKeyId) String() string {
	if k.kind == accExtra {
		return fmt.Sprintf("Extra(%d)", k.extra)
	}
	return "Spend"
}

func (k AccordantKeyId) Encode(w io.Writer) error {
	if err := consensus.WriteUint8(w, uint8(k.kind)); err != nil {
		return err
	}
	if k.kind == accExtra {
		return consensus.WriteUint16(w, k.extra)
	}
	return nil
}

func (k *AccordantKeyId) Decode(r io.Reader) error {
	kind, err := consensus.ReadUint8(r)
	if err != nil {
		return err
	}
	k.kind = accordantKind(kind)
	if k.kind > accExtra {
		return &consensus.Error{Kind: consensus.UnknownType, Msg: "accordant key id"}
	}
	if k.kind == accExtra {
		extra, err := consensus.ReadUint16(r)
		if err != nil {
			return err
		}
		k.extra = extra
	}
	return nil
}

// SharedKeyId identifies a shared private key (e.g. a Monero view key)
// known to both swap participants. Canonical value 1 is reserved for
// the view key.
type SharedKeyId struct {
	id uint16
}

// ViewKeyID is the canonical shared view-key identifier (spec.md §3:
// "SharedKeyId(1) = view").
var ViewKeyID = SharedKeyId{id: 1}

// NewSharedKeyId constructs a shared key identifier from its numeric
// id.
func NewSharedKeyId(id uint16) SharedKeyId {
	return SharedKeyId{id: id}
}

// ID returns the numeric identifier.
func (s SharedKeyId) ID() uint16 { return s.id }

func (s SharedKeyId) String() string {
	if s.id == 1 {
		return "View"
	}
	return fmt.Sprintf("SharedKeyId(%d)", s.id)
}

func (s SharedKeyId) Encode(w io.Writer) error {
	return consensus.WriteUint16(w, s.id)
}

func (s *SharedKeyId) Decode(r io.Reader) error {
	id, err := consensus.ReadUint16(r)
	if err != nil {
		return err
	}
	s.id = id
	return nil
}
