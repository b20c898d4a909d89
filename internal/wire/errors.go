// Package wire implements a bit-exact RFC 1035 DNS message codec: a
// bounded byte cursor, typed header/question/record structures, and the
// encode/decode pass that ties them together.
package wire

import "errors"

var (
	// ErrEndOfBuffer is returned when a read or write would cross the
	// bound of the underlying 512-byte message buffer.
	ErrEndOfBuffer = errors.New("wire: end of buffer")

	// ErrTooManyJumps is returned when decoding a name follows more than
	// maxCompressionJumps compression pointers.
	ErrTooManyJumps = errors.New("wire: too many compression jumps")

	// ErrLabelTooLong is returned when encoding a name whose label
	// exceeds 63 bytes.
	ErrLabelTooLong = errors.New("wire: label exceeds 63 bytes")

	// ErrMalformedResponse is returned by the resolver when an upstream
	// reply carries no answer, referral, or glue.
	ErrMalformedResponse = errors.New("wire: malformed response")
)
