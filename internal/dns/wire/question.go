package wire

import "encoding/binary"

// Question is one entry of a message's question section: a domain name (in
// its already-encoded, uncompressed wire form) plus a record type and
// class. Questions are value types — copying one by assignment is safe for
// callers that don't mutate Name's backing array.
type Question struct {
	Name  []byte
	Type  uint16
	Class uint16
}

// ParseQuestion decodes one question starting at start, resolving any name
// compression pointer via DecodeName. It reports consumed, the number of
// bytes occupied by the question in buf counting from start.
func ParseQuestion(buf []byte, start int) (Question, int, error) {
	name, nameConsumed, err := DecodeName(buf, start)
	if err != nil {
		return Question{}, 0, err
	}

	pos := start + nameConsumed
	if pos+4 > len(buf) {
		return Question{}, 0, ErrBufferTruncated
	}

	q := Question{
		Name:  name,
		Type:  binary.BigEndian.Uint16(buf[pos : pos+2]),
		Class: binary.BigEndian.Uint16(buf[pos+2 : pos+4]),
	}
	return q, nameConsumed + 4, nil
}

// Marshal serializes q as its stored (uncompressed) name followed by type
// and class.
func (q Question) Marshal() []byte {
	out := make([]byte, 0, len(q.Name)+4)
	out = append(out, q.Name...)
	out = binary.BigEndian.AppendUint16(out, q.Type)
	out = binary.BigEndian.AppendUint16(out, q.Class)
	return out
}
