package consensus

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, WriteUint8(&buf, 0xAB))
	require.NoError(t, WriteUint16(&buf, 0xBEEF))
	require.NoError(t, WriteUint32(&buf, 0xDEADBEEF))
	require.NoError(t, WriteUint64(&buf, 0x0102030405060708))
	require.NoError(t, WriteVarBytes(&buf, []byte("hello swap")))

	u8, err := ReadUint8(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xAB, u8)

	u16, err := ReadUint16(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xBEEF, u16)

	u32, err := ReadUint32(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0xDEADBEEF, u32)

	u64, err := ReadUint64(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0x0102030405060708, u64)

	vb, err := ReadVarBytes(&buf)
	require.NoError(t, err)
	require.Equal(t, "hello swap", string(vb))
}

func TestVarBytesTooLarge(t *testing.T) {
	var buf bytes.Buffer
	big := make([]byte, MaxVarBytesLength+1)
	err := WriteVarBytes(&buf, big)
	require.Error(t, err)
	cErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, TooLarge, cErr.Kind)
}

func TestTruncatedRead(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0x01})
	_, err := ReadUint32(&buf)
	require.Error(t, err)
	cErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, Truncated, cErr.Kind)
}

// label is a toy Encodable/Decodable wire type used to exercise
// Encode/Decode and WriteVec/ReadVec end to end (invariant 5: decode(
// encode(x)) == x).
type label struct {
	ID   uint16
	Name []byte
}

func (l *label) Encode(w io.Writer) error {
	if err := WriteUint16(w, l.ID); err != nil {
		return err
	}
	return WriteVarBytes(w, l.Name)
}

func (l *label) Decode(r io.Reader) error {
	id, err := ReadUint16(r)
	if err != nil {
		return err
	}
	name, err := ReadVarBytes(r)
	if err != nil {
		return err
	}
	l.ID, l.Name = id, name
	return nil
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := &label{ID: 7, Name: []byte("buy-key")}
	data, err := Encode(orig)
	require.NoError(t, err)

	got := &label{}
	require.NoError(t, Decode(data, got))
	require.Equal(t, orig, got)
}

func TestVecRoundTrip(t *testing.T) {
	items := []*label{
		{ID: 1, Name: []byte("a")},
		{ID: 2, Name: []byte("bb")},
		{ID: 3, Name: []byte("ccc")},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteVec[*label](&buf, items))

	got, err := ReadVec[*label](&buf, func() *label { return &label{} })
	require.NoError(t, err)
	require.Equal(t, items, got)
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	orig := &label{ID: 1, Name: []byte("x")}
	data, err := Encode(orig)
	require.NoError(t, err)
	data = append(data, 0xFF)

	got := &label{}
	err = Decode(data, got)
	require.Error(t, err)
}
