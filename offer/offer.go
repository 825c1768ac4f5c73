// Package offer implements the negotiation artifacts of spec.md §3/§6:
// Offer, PublicOffer and SwapId, plus the canonical "FCSWAP"-prefixed
// hex wire format PublicOffer uses out of band. Grounded on
// original_source/core/src/role.rs's Offer/PublicOffer shape and on
// lnwire/message.go's "magic + fixed fields, canonically encoded" wire
// convention for the hex framing.
package offer

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/fcswap/swapcore/consensus"
	"github.com/fcswap/swapcore/fee"
	"github.com/fcswap/swapcore/swaperr"
)

// magic is the ASCII "FCSWAP" prefix spec.md §6 names for the
// PublicOffer canonical hex format.
var magic = [6]byte{'F', 'C', 'S', 'W', 'A', 'P'}

// version is the current wire version of the canonical offer format.
const version uint16 = 1

// SwapRole distinguishes which side of the swap a participant plays.
// Defined here (rather than in a `swap` package importing `offer`) so
// Offer.MakerSwapRole has a concrete type without an import cycle —
// the `swap` role drivers import `offer` and reuse this type.
type SwapRole uint8

const (
	Alice SwapRole = iota
	Bob
)

func (r SwapRole) Other() SwapRole {
	if r == Alice {
		return Bob
	}
	return Alice
}

func (r SwapRole) String() string {
	if r == Alice {
		return "Alice"
	}
	return "Bob"
}

// NegotiationRole distinguishes who initiated the swap negotiation,
// per original_source/core/src/role.rs's NegotiationRole (dropped from
// spec.md's distillation but needed by §4.7 step 1's "maker's declared
// SwapRole plus the taker's opposite role").
type NegotiationRole uint8

const (
	Maker NegotiationRole = iota
	Taker
)

// SwapId is a 32-byte opaque identifier generated randomly by the
// taker at session start, present in every protocol message.
type SwapId [32]byte

// NewSwapId generates a random SwapId.
func NewSwapId() (SwapId, error) {
	var id SwapId
	if _, err := rand.Read(id[:]); err != nil {
		return SwapId{}, swaperr.NewProtocol(swaperr.UnknownSwapID, err)
	}
	return id, nil
}

func (id SwapId) Encode(w io.Writer) error {
	return consensus.WriteFixedBytes(w, id[:])
}

func (id *SwapId) Decode(r io.Reader) error {
	b, err := consensus.ReadFixedBytes(r, 32)
	if err != nil {
		return err
	}
	copy(id[:], b)
	return nil
}

func (id SwapId) String() string {
	return hex.EncodeToString(id[:])
}

// Offer is the immutable negotiation artifact of spec.md §3.
type Offer struct {
	NetworkId          uint32
	ArbitratingAssetId uint32
	AccordantAssetId   uint32
	ArbitratingAmount  btcutil.Amount
	AccordantAmount    uint64
	CancelTimelock     uint32
	PunishTimelock     uint32
	FeeStrategy        fee.Strategy
	MakerSwapRole      SwapRole
}

func (o Offer) Encode(w io.Writer) error {
	if err := consensus.WriteUint32(w, o.NetworkId); err != nil {
		return err
	}
	if err := consensus.WriteUint32(w, o.ArbitratingAssetId); err != nil {
		return err
	}
	if err := consensus.WriteUint32(w, o.AccordantAssetId); err != nil {
		return err
	}
	if err := consensus.WriteUint64(w, uint64(o.ArbitratingAmount)); err != nil {
		return err
	}
	if err := consensus.WriteUint64(w, o.AccordantAmount); err != nil {
		return err
	}
	if err := consensus.WriteUint32(w, o.CancelTimelock); err != nil {
		return err
	}
	if err := consensus.WriteUint32(w, o.PunishTimelock); err != nil {
		return err
	}
	if err := o.FeeStrategy.Encode(w); err != nil {
		return err
	}
	return consensus.WriteUint8(w, uint8(o.MakerSwapRole))
}

func (o *Offer) Decode(r io.Reader) error {
	var err error
	if o.NetworkId, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	if o.ArbitratingAssetId, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	if o.AccordantAssetId, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	arbAmt, err := consensus.ReadUint64(r)
	if err != nil {
		return err
	}
	o.ArbitratingAmount = btcutil.Amount(arbAmt)
	if o.AccordantAmount, err = consensus.ReadUint64(r); err != nil {
		return err
	}
	if o.CancelTimelock, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	if o.PunishTimelock, err = consensus.ReadUint32(r); err != nil {
		return err
	}
	var strat fee.Strategy
	if err := strat.Decode(r); err != nil {
		return err
	}
	o.FeeStrategy = strat
	role, err := consensus.ReadUint8(r)
	if err != nil {
		return err
	}
	if role > uint8(Bob) {
		return &consensus.Error{Kind: consensus.UnknownType, Msg: "swap role"}
	}
	o.MakerSwapRole = SwapRole(role)
	return nil
}

// PublicOffer is an Offer plus a version tag and the maker's peer
// endpoint, serialised as the canonical hex format that passes between
// peers out of band (spec.md §6).
type PublicOffer struct {
	Offer        Offer
	MakerAddress string
}

func (p PublicOffer) Encode(w io.Writer) error {
	if _, err := w.Write(magic[:]); err != nil {
		return err
	}
	if err := consensus.WriteUint16(w, version); err != nil {
		return err
	}
	if err := p.Offer.Encode(w); err != nil {
		return err
	}
	return consensus.WriteVarBytes(w, []byte(p.MakerAddress))
}

func (p *PublicOffer) Decode(r io.Reader) error {
	got, err := consensus.ReadFixedBytes(r, len(magic))
	if err != nil {
		return err
	}
	for i := range magic {
		if got[i] != magic[i] {
			return &consensus.Error{Kind: consensus.ParseFailed, Msg: "bad offer magic"}
		}
	}
	v, err := consensus.ReadUint16(r)
	if err != nil {
		return err
	}
	if v != version {
		return &consensus.Error{Kind: consensus.UnknownType, Msg: "unsupported offer version"}
	}
	if err := p.Offer.Decode(r); err != nil {
		return err
	}
	addr, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	p.MakerAddress = string(addr)
	return nil
}

// EncodeHex returns the canonical hex string for p.
func EncodeHex(p PublicOffer) (string, error) {
	b, err := consensus.Encode(p)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// DecodeHex parses the canonical hex string produced by EncodeHex.
func DecodeHex(s string) (PublicOffer, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return PublicOffer{}, &consensus.Error{Kind: consensus.ParseFailed, Msg: "invalid hex"}
	}
	var p PublicOffer
	if err := consensus.Decode(raw, &p); err != nil {
		return PublicOffer{}, err
	}
	return p, nil
}
