package swapmsg

import (
	"fmt"
	"io"

	"github.com/fcswap/swapcore/consensus"
	"github.com/fcswap/swapcore/keymanager"
	"github.com/fcswap/swapcore/offer"
)

// MessageType is the one-byte discriminant identifying a protocol
// message's concrete type on the wire, per spec.md §6. Grounded on
// lnwire.MessageType/makeEmptyMessage, shrunk from two bytes to one
// since the swap protocol's message set is small and fixed.
type MessageType uint8

const (
	MsgCommitAliceParameters MessageType = iota + 1
	MsgCommitBobParameters
	MsgRevealAliceParameters
	MsgRevealBobParameters
	MsgCoreArbitratingSetup
	MsgRefundProcedureSignatures
	MsgBuyProcedureSignature
	MsgAbort
)

// Message is implemented by every swap protocol message. Grounded on
// lnwire.Message, dropping the pver parameter (this protocol has no
// negotiated feature versions) and MaxPayloadLength (the codec has no
// fixed-size ceiling beyond consensus.MaxVarBytesLength per field).
type Message interface {
	consensus.Encodable
	consensus.Decodable
	MsgType() MessageType
	SwapID() offer.SwapId
}

// UnknownMessageType is returned by DecodeMessage when the leading
// discriminant byte does not match any known MessageType.
type UnknownMessageType struct {
	Type MessageType
}

func (u *UnknownMessageType) Error() string {
	return fmt.Sprintf("swapmsg: unknown message type %d", u.Type)
}

// envelope holds the fields common to every message: its swap id. All
// concrete messages embed envelope and promote SwapID.
type envelope struct {
	ID offer.SwapId
}

func (e envelope) SwapID() offer.SwapId { return e.ID }

// CommitAliceParameters is Alice's first protocol message: her
// commitment to SessionParameters, per spec.md §4.8 step 2.
type CommitAliceParameters struct {
	envelope
	Commitment Commitment
}

func (m *CommitAliceParameters) MsgType() MessageType { return MsgCommitAliceParameters }

func (m *CommitAliceParameters) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	return m.Commitment.Encode(w)
}

func (m *CommitAliceParameters) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	return m.Commitment.Decode(r)
}

// CommitBobParameters is Bob's commitment message, symmetric to
// CommitAliceParameters.
type CommitBobParameters struct {
	envelope
	Commitment Commitment
}

func (m *CommitBobParameters) MsgType() MessageType { return MsgCommitBobParameters }

func (m *CommitBobParameters) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	return m.Commitment.Encode(w)
}

func (m *CommitBobParameters) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	return m.Commitment.Decode(r)
}

// RevealAliceParameters carries Alice's SessionParameters in the
// open, to be validated against her earlier Commitment.
type RevealAliceParameters struct {
	envelope
	Parameters SessionParameters
}

func (m *RevealAliceParameters) MsgType() MessageType { return MsgRevealAliceParameters }

func (m *RevealAliceParameters) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	return m.Parameters.Encode(w)
}

func (m *RevealAliceParameters) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	return m.Parameters.Decode(r)
}

// RevealBobParameters is Bob's reveal, symmetric to
// RevealAliceParameters.
type RevealBobParameters struct {
	envelope
	Parameters SessionParameters
}

func (m *RevealBobParameters) MsgType() MessageType { return MsgRevealBobParameters }

func (m *RevealBobParameters) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	return m.Parameters.Encode(w)
}

func (m *RevealBobParameters) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	return m.Parameters.Decode(r)
}

// CoreArbitratingSetup carries the unsigned Lock/Cancel/Refund
// transactions and Bob's cancel signature, per spec.md §4.7 steps 6-7.
// The cancel signature is a plain (not adaptor-encrypted) signature
// stored in the EncryptedSignature shape: RPub||S hold it and
// EncryptionPoint is left zero.
type CoreArbitratingSetup struct {
	envelope
	LockTx           []byte // serialized wire.MsgTx
	CancelTx         []byte
	RefundTx         []byte
	CancelEncSig     keymanager.EncryptedSignature
}

func (m *CoreArbitratingSetup) MsgType() MessageType { return MsgCoreArbitratingSetup }

func (m *CoreArbitratingSetup) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, m.LockTx); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, m.CancelTx); err != nil {
		return err
	}
	if err := consensus.WriteVarBytes(w, m.RefundTx); err != nil {
		return err
	}
	return encodeEncryptedSignature(w, m.CancelEncSig)
}

func (m *CoreArbitratingSetup) Decode(r io.Reader) error {
	var err error
	if err = m.ID.Decode(r); err != nil {
		return err
	}
	if m.LockTx, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	if m.CancelTx, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	if m.RefundTx, err = consensus.ReadVarBytes(r); err != nil {
		return err
	}
	m.CancelEncSig, err = decodeEncryptedSignature(r)
	return err
}

// RefundProcedureSignatures carries Alice's adaptor-encrypted refund
// signature and her plain cancel signature, per spec.md §4.7 step 8.
type RefundProcedureSignatures struct {
	envelope
	CancelSig    [64]byte
	RefundEncSig keymanager.EncryptedSignature
}

func (m *RefundProcedureSignatures) MsgType() MessageType { return MsgRefundProcedureSignatures }

func (m *RefundProcedureSignatures) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	if err := consensus.WriteFixedBytes(w, m.CancelSig[:]); err != nil {
		return err
	}
	return encodeEncryptedSignature(w, m.RefundEncSig)
}

func (m *RefundProcedureSignatures) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	sigBytes, err := consensus.ReadFixedBytes(r, 64)
	if err != nil {
		return err
	}
	copy(m.CancelSig[:], sigBytes)
	m.RefundEncSig, err = decodeEncryptedSignature(r)
	return err
}

// BuyProcedureSignature carries Bob's adaptor-encrypted buy signature,
// per spec.md §4.7 step 11.
type BuyProcedureSignature struct {
	envelope
	BuyEncSig keymanager.EncryptedSignature
}

func (m *BuyProcedureSignature) MsgType() MessageType { return MsgBuyProcedureSignature }

func (m *BuyProcedureSignature) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	return encodeEncryptedSignature(w, m.BuyEncSig)
}

func (m *BuyProcedureSignature) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	var err error
	m.BuyEncSig, err = decodeEncryptedSignature(r)
	return err
}

// Abort lets either role cancel the negotiation before any
// arbitrating funds move, carrying a short human-readable reason.
type Abort struct {
	envelope
	Reason string
}

func (m *Abort) MsgType() MessageType { return MsgAbort }

func (m *Abort) Encode(w io.Writer) error {
	if err := m.ID.Encode(w); err != nil {
		return err
	}
	return consensus.WriteVarBytes(w, []byte(m.Reason))
}

func (m *Abort) Decode(r io.Reader) error {
	if err := m.ID.Decode(r); err != nil {
		return err
	}
	reasonBytes, err := consensus.ReadVarBytes(r)
	if err != nil {
		return err
	}
	m.Reason = string(reasonBytes)
	return nil
}

// makeEmptyMessage allocates the zero-value concrete Message for
// msgType, mirroring lnwire's makeEmptyMessage switch.
func makeEmptyMessage(msgType MessageType) (Message, error) {
	switch msgType {
	case MsgCommitAliceParameters:
		return &CommitAliceParameters{}, nil
	case MsgCommitBobParameters:
		return &CommitBobParameters{}, nil
	case MsgRevealAliceParameters:
		return &RevealAliceParameters{}, nil
	case MsgRevealBobParameters:
		return &RevealBobParameters{}, nil
	case MsgCoreArbitratingSetup:
		return &CoreArbitratingSetup{}, nil
	case MsgRefundProcedureSignatures:
		return &RefundProcedureSignatures{}, nil
	case MsgBuyProcedureSignature:
		return &BuyProcedureSignature{}, nil
	case MsgAbort:
		return &Abort{}, nil
	default:
		return nil, &UnknownMessageType{Type: msgType}
	}
}

// EncodeMessage writes msg's one-byte discriminant followed by its
// body, per spec.md §6. Grounded on lnwire.WriteMessage, dropping the
// length-prefix/checksum framing lnwire adds on top (this protocol is
// assumed to run over an already-framed transport, same simplification
// SPEC_FULL.md makes for the rest of the wire codec).
func EncodeMessage(w io.Writer, msg Message) error {
	if err := consensus.WriteUint8(w, uint8(msg.MsgType())); err != nil {
		return err
	}
	return msg.Encode(w)
}

// DecodeMessage reads a one-byte discriminant from r and dispatches to
// the matching concrete Message's Decode, mirroring
// lnwire.ReadMessage's type-switch-then-decode shape.
func DecodeMessage(r io.Reader) (Message, error) {
	tByte, err := consensus.ReadUint8(r)
	if err != nil {
		return nil, err
	}
	msg, err := makeEmptyMessage(MessageType(tByte))
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(r); err != nil {
		return nil, err
	}
	return msg, nil
}

// encodeEncryptedSignature/decodeEncryptedSignature serialize a
// keymanager.EncryptedSignature's four fixed-size fields, since that
// type lives in a package with no consensus dependency.
func encodeEncryptedSignature(w io.Writer, s keymanager.EncryptedSignature) error {
	if err := consensus.WriteFixedBytes(w, s.RPub[:]); err != nil {
		return err
	}
	oddY := uint8(0)
	if s.RPubOddY {
		oddY = 1
	}
	if err := consensus.WriteUint8(w, oddY); err != nil {
		return err
	}
	if err := consensus.WriteFixedBytes(w, s.S[:]); err != nil {
		return err
	}
	return consensus.WriteFixedBytes(w, s.EncryptionPoint[:])
}

func decodeEncryptedSignature(r io.Reader) (keymanager.EncryptedSignature, error) {
	var s keymanager.EncryptedSignature
	rPub, err := consensus.ReadFixedBytes(r, 32)
	if err != nil {
		return s, err
	}
	copy(s.RPub[:], rPub)

	oddY, err := consensus.ReadUint8(r)
	if err != nil {
		return s, err
	}
	s.RPubOddY = oddY != 0

	sBytes, err := consensus.ReadFixedBytes(r, 32)
	if err != nil {
		return s, err
	}
	copy(s.S[:], sBytes)

	encPoint, err := consensus.ReadFixedBytes(r, 33)
	if err != nil {
		return s, err
	}
	copy(s.EncryptionPoint[:], encPoint)
	return s, nil
}
