package commitment

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommitDeterministic(t *testing.T) {
	e := NewEngine()
	d1 := e.Commit([]byte("buy-pubkey-bytes"))
	d2 := e.Commit([]byte("buy-pubkey-bytes"))
	require.Equal(t, d1, d2)
}

func TestCommitFlipByteBreaksValidation(t *testing.T) {
	e := NewEngine()
	order := []string{"buy", "cancel", "destination"}
	fields := map[string][]byte{
		"buy":         []byte{0x01, 0x02, 0x03},
		"cancel":      []byte{0x04, 0x05, 0x06},
		"destination": []byte("bc1qesgvtyx9y6lax0x34napc2m7t5zdq6s7xxwpvk"),
	}
	fc := e.CommitFields(order, fields)

	require.NoError(t, fc.Validate(e, fields))

	flipped := map[string][]byte{
		"buy":         []byte{0x01, 0x02, 0x03},
		"cancel":      []byte{0x04, 0x05, 0x06},
		"destination": []byte("bc1qesgvtyx9y6lax0x34napc2m7t5zdq6s7xxwpvl"), // last byte flipped
	}
	err := fc.Validate(e, flipped)
	require.Error(t, err)
}

func TestValidateMissingFieldFails(t *testing.T) {
	e := NewEngine()
	order := []string{"a", "b"}
	fields := map[string][]byte{"a": {0x01}, "b": {0x02}}
	fc := e.CommitFields(order, fields)

	err := fc.Validate(e, map[string][]byte{"a": {0x01}})
	require.Error(t, err)
}
