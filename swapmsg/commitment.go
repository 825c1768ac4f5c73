package swapmsg

import (
	"io"

	"github.com/fcswap/swapcore/commitment"
	"github.com/fcswap/swapcore/consensus"
	"github.com/fcswap/swapcore/swaperr"
)

// Commitment is the wire form of a committed SessionParameters bundle:
// one keccak-256 digest per field, in fieldOrder, per spec.md §4.2/§6.
// The labels themselves are not sent — both sides already agree on
// fieldOrder — only the 32-byte digests travel.
type Commitment struct {
	Digests [][]byte // len(Digests) == len(fieldOrder), each 32 bytes
}

// CommitParameters builds the Commitment a role sends before revealing
// its SessionParameters, per spec.md §4.2/§4.8 step 2.
func CommitParameters(e *commitment.Engine, params SessionParameters) (*Commitment, *commitment.FieldCommitment, error) {
	fields, err := params.fieldBytes()
	if err != nil {
		return nil, nil, err
	}
	fc := e.CommitFields(fieldOrder, fields)

	digests := make([][]byte, len(fieldOrder))
	for i, name := range fieldOrder {
		d := fc.Labels[name]
		digests[i] = append([]byte(nil), d[:]...)
	}
	return &Commitment{Digests: digests}, fc, nil
}

// Validate checks revealed against the digests carried by c, per
// spec.md §4.2.
func (c *Commitment) Validate(e *commitment.Engine, revealed SessionParameters) error {
	if len(c.Digests) != len(fieldOrder) {
		return swaperr.NewCrypto(swaperr.InvalidCommitment, nil)
	}
	labels := make(map[string]commitment.Digest, len(fieldOrder))
	for i, name := range fieldOrder {
		var d commitment.Digest
		copy(d[:], c.Digests[i])
		labels[name] = d
	}
	fc := &commitment.FieldCommitment{Order: fieldOrder, Labels: labels}

	fields, err := revealed.fieldBytes()
	if err != nil {
		return err
	}
	return fc.Validate(e, fields)
}

// Encode implements consensus.Encodable.
func (c *Commitment) Encode(w io.Writer) error {
	if len(c.Digests) != len(fieldOrder) {
		return &consensus.Error{Kind: consensus.ParseFailed, Msg: "commitment: wrong digest count"}
	}
	for _, d := range c.Digests {
		if err := consensus.WriteFixedBytes(w, d); err != nil {
			return err
		}
	}
	return nil
}

// Decode implements consensus.Decodable.
func (c *Commitment) Decode(r io.Reader) error {
	digests := make([][]byte, len(fieldOrder))
	for i := range digests {
		d, err := consensus.ReadFixedBytes(r, commitment.DigestSize)
		if err != nil {
			return err
		}
		digests[i] = d
	}
	c.Digests = digests
	return nil
}
