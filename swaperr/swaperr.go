// Package swaperr defines the tagged error taxonomy returned across the
// swap core's public API: every method either succeeds or returns a
// terminal *Error carrying a Kind and a specific Sub-variant. Callers are
// expected to switch on Kind/Sub rather than string-match error text.
package swaperr

import (
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind is the top-level, mutually exclusive error category.
type Kind uint8

const (
	// Crypto covers key derivation, signing, adaptor signatures and
	// DLEQ proof failures.
	Crypto Kind = iota
	// Consensus covers wire codec decode failures.
	Consensus
	// Transaction covers transaction builder failures.
	Transaction
	// Protocol covers role-driver sequencing and offer mismatches.
	Protocol
)

func (k Kind) String() string {
	switch k {
	case Crypto:
		return "Crypto"
	case Consensus:
		return "Consensus"
	case Transaction:
		return "Transaction"
	case Protocol:
		return "Protocol"
	default:
		return "Unknown"
	}
}

// Sub is the specific variant within a Kind, e.g. InvalidProof within
// Crypto. Values are defined as string constants per §7 of the spec so
// that the textual error surface stays stable without exposing numeric
// codes that would need a separate registry.
type Sub string

const (
	UnsupportedKey            Sub = "UnsupportedKey"
	MissingKey                Sub = "MissingKey"
	InvalidSignature          Sub = "InvalidSignature"
	InvalidAdaptorKey         Sub = "InvalidAdaptorKey"
	InvalidEncryptedSignature Sub = "InvalidEncryptedSignature"
	InvalidProof              Sub = "InvalidProof"
	InvalidCommitment         Sub = "InvalidCommitment"
	InvalidProofOfKnowledge   Sub = "InvalidProofOfKnowledge"

	UnknownType  Sub = "UnknownType"
	ParseFailed  Sub = "ParseFailed"
	Truncated    Sub = "Truncated"
	TooLarge     Sub = "TooLarge"

	MissingPreviousOutput Sub = "MissingPreviousOutput"
	InvalidWitness        Sub = "InvalidWitness"
	NotEnoughAssets       Sub = "NotEnoughAssets"
	BadTimelock           Sub = "BadTimelock"
	Incomplete            Sub = "Incomplete"

	ProtocolSequence Sub = "ProtocolSequence"
	UnknownSwapID    Sub = "UnknownSwapId"
	MismatchedOffer  Sub = "MismatchedOffer"
)

// Error is the single error type returned by every swap core method.
type Error struct {
	Kind  Kind
	Sub   Sub
	Cause error
}

// Error implements the error interface with a one-line "kind plus cause"
// message, per spec.md §7 (no stack traces required in release operation).
func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Sub)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Sub, e.Cause)
}

// Unwrap allows errors.Is/errors.As to reach the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs a tagged error, wrapping cause (if non-nil) with
// go-errors so that debug builds retain a stack trace on Cause without
// it leaking into the one-line Error() string.
func New(kind Kind, sub Sub, cause error) *Error {
	if cause != nil {
		cause = goerrors.Wrap(cause, 1)
	}
	return &Error{Kind: kind, Sub: sub, Cause: cause}
}

// Is reports whether err is a *Error with the same Kind and Sub,
// ignoring Cause, so callers can do errors.Is(err, swaperr.New(Crypto,
// InvalidProof, nil)) style comparisons.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Sub == t.Sub
}

// NewCrypto, NewConsensus, NewTransaction and NewProtocol are
// convenience constructors for each Kind.
func NewCrypto(sub Sub, cause error) *Error      { return New(Crypto, sub, cause) }
func NewConsensus(sub Sub, cause error) *Error   { return New(Consensus, sub, cause) }
func NewTransaction(sub Sub, cause error) *Error { return New(Transaction, sub, cause) }
func NewProtocol(sub Sub, cause error) *Error    { return New(Protocol, sub, cause) }
