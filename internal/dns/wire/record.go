package wire

import (
	"encoding/binary"
	"net"
)

// recordFixedFields is the byte width of type+class+ttl+rdlength, the part
// of a resource record that follows the name and precedes rdata.
const recordFixedFields = 10

// RRTypeA and RRClassIN are the only type/class values this system ever
// produces on the encode path.
const (
	RRTypeA    uint16 = 1
	RRClassIN  uint16 = 1
	defaultTTL uint32 = 60
)

// Record is one resource record: a name, type, class, TTL, and opaque
// rdata. On the decode path rdata is whatever bytes the wire carried; on
// the encode path this system only ever builds A records, where rdata is
// the four octets of an IPv4 address.
type Record struct {
	Name  []byte
	Type  uint16
	Class uint16
	TTL   uint32
	RData []byte
}

// ParseRecord decodes one resource record starting at start. consumed
// reports the number of bytes occupied by the record in buf from start.
func ParseRecord(buf []byte, start int) (Record, int, error) {
	name, nameConsumed, err := DecodeName(buf, start)
	if err != nil {
		return Record{}, 0, err
	}

	pos := start + nameConsumed
	if pos+recordFixedFields > len(buf) {
		return Record{}, 0, ErrBufferTruncated
	}

	rtype := binary.BigEndian.Uint16(buf[pos : pos+2])
	rclass := binary.BigEndian.Uint16(buf[pos+2 : pos+4])
	ttl := binary.BigEndian.Uint32(buf[pos+4 : pos+8])
	rdlength := binary.BigEndian.Uint16(buf[pos+8 : pos+10])

	rdataStart := pos + recordFixedFields
	rdataEnd := rdataStart + int(rdlength)
	if rdataEnd > len(buf) {
		return Record{}, 0, ErrBufferTruncated
	}

	rdata := make([]byte, rdlength)
	copy(rdata, buf[rdataStart:rdataEnd])

	r := Record{
		Name:  name,
		Type:  rtype,
		Class: rclass,
		TTL:   ttl,
		RData: rdata,
	}
	return r, (rdataEnd - start), nil
}

// Marshal serializes r as name, type, class, ttl, rdlength, and rdata.
func (r Record) Marshal() []byte {
	out := make([]byte, 0, len(r.Name)+recordFixedFields+len(r.RData))
	out = append(out, r.Name...)
	out = binary.BigEndian.AppendUint16(out, r.Type)
	out = binary.BigEndian.AppendUint16(out, r.Class)
	out = binary.BigEndian.AppendUint32(out, r.TTL)
	out = binary.BigEndian.AppendUint16(out, uint16(len(r.RData)))
	out = append(out, r.RData...)
	return out
}

// NewARecord builds a class-IN A record for name pointing at ip, with the
// default 60-second TTL. ip is truncated to its 4-byte IPv4 form.
func NewARecord(name []byte, ip net.IP) Record {
	v4 := ip.To4()
	rdata := make([]byte, 4)
	copy(rdata, v4)

	return Record{
		Name:  name,
		Type:  RRTypeA,
		Class: RRClassIN,
		TTL:   defaultTTL,
		RData: rdata,
	}
}
