package wire

import (
	"strings"
	"unicode/utf8"
)

// maxCompressionJumps bounds the number of pointer hops DecodeName will
// follow before giving up, guarding against pointer loops in hostile input.
const maxCompressionJumps = 10

// maxLabelLength is the largest label representable by the one-byte length
// prefix RFC 1035 uses for uncompressed labels.
const maxLabelLength = 63

// EncodeName splits domain on '.' and emits each non-empty label as a
// length-prefixed byte sequence, terminated by a zero byte. Empty labels
// (from a leading, trailing, or doubled dot) are skipped rather than
// encoded as zero-length labels. A label of 64 bytes or more cannot be
// represented and fails fast with ErrLabelTooLong rather than silently
// truncating or emitting unparsable wire data.
func EncodeName(domain string) ([]byte, error) {
	var out []byte
	for _, label := range strings.Split(domain, ".") {
		if label == "" {
			continue
		}
		if len(label) > maxLabelLength {
			return nil, ErrLabelTooLong
		}
		out = append(out, byte(len(label)))
		out = append(out, label...)
	}
	out = append(out, 0)
	return out, nil
}

// DecodeName walks buf starting at start, resolving compression pointers
// (RFC 1035 ยง4.1.4) so the returned name is always fully uncompressed. It
// reports consumed, the number of bytes the name occupies in the original
// stream starting at start: the full walk when no pointer is followed, or
// exactly 2 (the pointer itself) when the first byte read is a pointer.
func DecodeName(buf []byte, start int) (name []byte, consumed int, err error) {
	pos := start
	jumps := 0
	firstJumpPos := -1

	for {
		if pos >= len(buf) {
			return nil, 0, ErrBufferTruncated
		}
		length := int(buf[pos])

		if length == 0 {
			name = append(name, 0)
			pos++
			break
		}

		if length&0xC0 == 0xC0 {
			if pos+1 >= len(buf) {
				return nil, 0, ErrBufferTruncated
			}
			if firstJumpPos == -1 {
				firstJumpPos = pos
			}
			jumps++
			if jumps > maxCompressionJumps {
				return nil, 0, ErrTooManyJumps
			}
			offset := (int(length&0x3F) << 8) | int(buf[pos+1])
			pos = offset
			continue
		}

		if pos+1+length > len(buf) {
			return nil, 0, ErrBufferTruncated
		}
		name = append(name, byte(length))
		name = append(name, buf[pos+1:pos+1+length]...)
		pos += 1 + length
	}

	if firstJumpPos != -1 {
		return name, firstJumpPos - start + 2, nil
	}
	return name, pos - start, nil
}

// ToText reconstructs an uncompressed, encoded name (as produced by
// EncodeName or DecodeName) back into dot-separated label form for
// diagnostics and logging. It fails with ErrInvalidName if a label's
// declared length runs past the buffer or a label is not valid UTF-8.
func ToText(name []byte) (string, error) {
	var labels []string
	pos := 0
	for {
		if pos >= len(name) {
			return "", ErrInvalidName
		}
		length := int(name[pos])
		pos++
		if length == 0 {
			break
		}
		if pos+length > len(name) {
			return "", ErrInvalidName
		}
		label := name[pos : pos+length]
		if !utf8.Valid(label) {
			return "", ErrInvalidName
		}
		labels = append(labels, string(label))
		pos += length
	}
	return strings.Join(labels, "."), nil
}
