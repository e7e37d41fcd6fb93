package domain

import "errors"

var (
	// ErrUnknownVersion is returned when a record blob carries a
	// serialization version this codec does not understand.
	ErrUnknownVersion = errors.New("unknown record version")

	// ErrDuplicateCanonical is returned when a blob carries more than
	// one canonical name.
	ErrDuplicateCanonical = errors.New("duplicate canonical target")

	// ErrDuplicateDelegate is returned when a blob carries more than
	// one delegate name.
	ErrDuplicateDelegate = errors.New("duplicate delegate target")

	// ErrInvalidTarget is returned when a string is not a recognizable
	// address or name form.
	ErrInvalidTarget = errors.New("unrecognized target")

	// ErrValueTooLong is returned when a length-prefixed field exceeds
	// its single-byte length cap.
	ErrValueTooLong = errors.New("value exceeds 255 bytes")
)
