// Package consensus implements the canonical, length-prefixed,
// little-endian binary encoding used for every wire type in the swap
// core: offers, commitments, reveals, procedure signatures and public
// parameters. The shape of the Encodable/Decodable split and the
// discriminant-dispatch helpers below follow lnwire's Message
// interface and ReadMessage/WriteMessage pair, adapted to the byte
// order and framing spec.md §4.1 specifies.
package consensus

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MaxVarBytesLength bounds the 16-bit length prefix used for
// variable-length byte strings and vectors, matching the field's
// encoding width (a 16-bit length field cannot address more anyway,
// but this also caps allocation size before the length is trusted).
const MaxVarBytesLength = 1<<16 - 1

// Error is the codec-specific error, with Kind one of the four
// Consensus sub-variants named in spec.md §7.
type Error struct {
	Kind ErrorKind
	Msg  string
}

// ErrorKind enumerates the codec failure modes.
type ErrorKind uint8

const (
	// UnknownType: the type discriminant read from the wire does not
	// correspond to any known variant.
	UnknownType ErrorKind = iota
	// ParseFailed: the bytes were the right shape but failed semantic
	// validation (e.g. a canonical-bytes field that isn't a valid
	// curve point).
	ParseFailed
	// TooLarge: a length prefix exceeded MaxVarBytesLength or another
	// declared bound.
	TooLarge
	// Truncated: fewer bytes were available than the format requires.
	Truncated
)

func (e *Error) Error() string {
	return fmt.Sprintf("consensus: %s", e.Msg)
}

func newErr(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Encodable is implemented by every wire type.
type Encodable interface {
	Encode(w io.Writer) error
}

// Decodable is implemented by every wire type, as a pointer receiver
// that fills itself in from r.
type Decodable interface {
	Decode(r io.Reader) error
}

// Encode serialises v into a freshly allocated byte slice.
func Encode(v Encodable) ([]byte, error) {
	var buf bufferWriter
	if err := v.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.bytes, nil
}

// Decode fills v from data, erroring if any trailing bytes remain
// (canonical encodings are exact, per the round-trip invariant of
// spec.md §8 invariant 5).
func Decode(data []byte, v Decodable) error {
	r := &byteReader{data: data}
	if err := v.Decode(r); err != nil {
		return err
	}
	if r.pos != len(r.data) {
		return newErr(ParseFailed, "trailing bytes after decode")
	}
	return nil
}

// --- primitive helpers -----------------------------------------------

func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func ReadUint8(r io.Reader) (uint8, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, newErr(Truncated, "uint8")
	}
	return b[0], nil
}

func WriteUint16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadUint16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, newErr(Truncated, "uint16")
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func WriteUint32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, newErr(Truncated, "uint32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func WriteUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func ReadUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, newErr(Truncated, "uint64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// WriteFixedBytes writes a field whose length is implied by the key
// type (e.g. a 33-byte compressed pubkey) with no length prefix.
func WriteFixedBytes(w io.Writer, b []byte) error {
	_, err := w.Write(b)
	return err
}

// ReadFixedBytes reads exactly n bytes.
func ReadFixedBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, newErr(Truncated, "fixed bytes")
	}
	return b, nil
}

// WriteVarBytes writes a 16-bit length prefix followed by b.
func WriteVarBytes(w io.Writer, b []byte) error {
	if len(b) > MaxVarBytesLength {
		return newErr(TooLarge, "var bytes")
	}
	if err := WriteUint16(w, uint16(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a 16-bit length prefix then that many bytes.
func ReadVarBytes(r io.Reader) ([]byte, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}
	return ReadFixedBytes(r, int(n))
}

// WriteVec writes a 16-bit element count followed by each element's
// own Encode.
func WriteVec[T Encodable](w io.Writer, items []T) error {
	if len(items) > MaxVarBytesLength {
		return newErr(TooLarge, "vector")
	}
	if err := WriteUint16(w, uint16(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := it.Encode(w); err != nil {
			return err
		}
	}
	return nil
}

// ReadVec reads a 16-bit element count then decodes that many elements
// using newElem to allocate each one.
func ReadVec[T Decodable](r io.Reader, newElem func() T) ([]T, error) {
	n, err := ReadUint16(r)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < int(n); i++ {
		el := newElem()
		if err := el.Decode(r); err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, nil
}

// --- in-memory reader/writer -----------------------------------------

// bufferWriter is a minimal growable byte sink, avoiding a bytes.Buffer
// import at call sites that only need Write.
type bufferWriter struct {
	bytes []byte
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	b.bytes = append(b.bytes, p...)
	return len(p), nil
}

// byteReader is a minimal io.Reader over a fixed slice that tracks
// position, so Decode can detect trailing bytes after a successful
// parse.
type byteReader struct {
	data []byte
	pos  int
}

func (r *byteReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}
