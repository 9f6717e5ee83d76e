package codec

import "errors"

// Sentinel errors for encoding and decoding.
var (
	// ErrBadTag indicates an unknown type tag in the input.
	ErrBadTag = errors.New("codec: unknown type tag")

	// ErrTruncated indicates the input ended before a complete value was
	// read.
	ErrTruncated = errors.New("codec: truncated input")

	// ErrTrailingData indicates bytes remained after a complete value.
	ErrTrailingData = errors.New("codec: trailing data after value")

	// ErrUnsupported indicates a Go value with no dynamic-value equivalent.
	ErrUnsupported = errors.New("codec: unsupported value")
)
