// Package wire implements the DNS wire format: the 12-byte header, the
// question and resource-record sections, name compression on decode, and
// message assembly. It never holds network or process state of its own.
package wire

import "errors"

// Sentinel errors surfaced by the codec. The codec returns them unwrapped;
// tests and callers that need to branch on failure kind compare against
// these values with errors.Is.
var (
	// ErrBufferTruncated is returned when a decode step reads past the end
	// of the supplied buffer.
	ErrBufferTruncated = errors.New("wire: buffer truncated")

	// ErrInvalidName is returned by ToText when a label is not valid UTF-8
	// or a length byte runs past the name buffer.
	ErrInvalidName = errors.New("wire: invalid name")

	// ErrTooManyJumps is returned when name decoding follows more than 10
	// compression pointers, guarding against pointer loops.
	ErrTooManyJumps = errors.New("wire: too many compression jumps")

	// ErrLabelTooLong is returned by EncodeName when a label exceeds 63
	// bytes and cannot be represented by the one-byte length prefix.
	ErrLabelTooLong = errors.New("wire: label exceeds 63 bytes")
)
