package pfsys

import "errors"

var (
	// ErrInvalidModelInput signals a malformed model input record; lengths
	// or shapes of the data vectors disagree with what they declare.
	ErrInvalidModelInput = errors.New("malformed model input")

	// ErrPackingExponent is returned when packing a quantized output would
	// overflow the 128-bit intermediate range.
	ErrPackingExponent = errors.New("largest packing exponent exceeds max. try reducing the scale")

	// ErrMockCheck signals that the pre flight check rejected the witness;
	// the constraint system is unsatisfied or the prepared instances do not
	// match the assignment's public values.
	ErrMockCheck = errors.New("witness does not satisfy the circuit")

	// ErrProve wraps failures of the proving backend.
	ErrProve = errors.New("proof generation failed")

	// ErrSelfVerify signals that a freshly generated proof failed its own
	// verification, which points at a key or parameter mismatch rather than
	// a bad witness.
	ErrSelfVerify = errors.New("self verification of fresh proof failed")

	// ErrVerify is the rejection outcome of proof verification.
	ErrVerify = errors.New("proof verification failed")

	// ErrInstanceMismatch signals that an instance layout disagrees with
	// the layout the protocol or the verifying key expects.
	ErrInstanceMismatch = errors.New("instance layout does not match the protocol")

	// ErrMissingProtocol is returned by protocol aware operations on an
	// artifact that was loaded without key and parameter context.
	ErrMissingProtocol = errors.New("snark carries no protocol")

	// ErrProtocolMismatch signals that a protocol was compiled from a
	// different verifying key than the one presented.
	ErrProtocolMismatch = errors.New("protocol was compiled from a different verifying key")

	// ErrInvalidCurve is returned when deserializing an object serialized
	// with a different curve.
	ErrInvalidCurve = errors.New("trying to deserialize an object serialized with another curve")
)
