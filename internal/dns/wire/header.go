package wire

import "encoding/binary"

// HeaderSize is the fixed on-wire length of a DNS header.
const HeaderSize = 12

// Flag bit positions within the 16-bit packed flags field.
const (
	flagQR    = 1 << 15
	flagAAbit = 1 << 10
	flagTCbit = 1 << 9
	flagRAbit = 1 << 7
)

// Header holds the six fixed 16-bit fields of a DNS message header. Flags
// are kept packed exactly as they appear on the wire; callers that need an
// individual bit extract it themselves rather than Header exposing a
// per-field accessor for each.
type Header struct {
	ID      uint16
	Flags   uint16
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// ParseHeader reads the 12-byte fixed header from the front of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrBufferTruncated
	}
	return Header{
		ID:      binary.BigEndian.Uint16(buf[0:2]),
		Flags:   binary.BigEndian.Uint16(buf[2:4]),
		QDCount: binary.BigEndian.Uint16(buf[4:6]),
		ANCount: binary.BigEndian.Uint16(buf[6:8]),
		NSCount: binary.BigEndian.Uint16(buf[8:10]),
		ARCount: binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

// Marshal serializes h to its fixed 12-byte wire form.
func (h Header) Marshal() [HeaderSize]byte {
	var out [HeaderSize]byte
	binary.BigEndian.PutUint16(out[0:2], h.ID)
	binary.BigEndian.PutUint16(out[2:4], h.Flags)
	binary.BigEndian.PutUint16(out[4:6], h.QDCount)
	binary.BigEndian.PutUint16(out[6:8], h.ANCount)
	binary.BigEndian.PutUint16(out[8:10], h.NSCount)
	binary.BigEndian.PutUint16(out[10:12], h.ARCount)
	return out
}

// RespondHeader derives a response header from a request header: id, OPCODE,
// and RD are copied; QR is set; AA, TC, RA, and Z are cleared; RCODE is 0
// when OPCODE is the standard query (0) and 4 (Not Implemented) otherwise.
func RespondHeader(req Header, qdcount, ancount uint16) Header {
	opcode := req.Flags & 0x7800
	rd := req.Flags & 0x0100

	var rcode uint16
	if opcode != 0 {
		rcode = 4
	}

	return Header{
		ID:      req.ID,
		Flags:   flagQR | opcode | rd | rcode,
		QDCount: qdcount,
		ANCount: ancount,
		NSCount: 0,
		ARCount: 0,
	}
}
