package wire

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)

	buf := append(append([]byte{}, name...),
		0x00, 0x01, // type A
		0x00, 0x01, // class IN
		0x00, 0x00, 0x00, 0x3C, // ttl 60
		0x00, 0x04, // rdlength 4
		8, 8, 8, 8, // rdata
	)

	r, consumed, err := ParseRecord(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, name, r.Name)
	assert.Equal(t, RRTypeA, r.Type)
	assert.Equal(t, RRClassIN, r.Class)
	assert.Equal(t, uint32(60), r.TTL)
	assert.Equal(t, []byte{8, 8, 8, 8}, r.RData)
	assert.Equal(t, len(buf), consumed)
}

func TestParseRecord_TruncatedRData(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)

	buf := append(append([]byte{}, name...),
		0x00, 0x01,
		0x00, 0x01,
		0x00, 0x00, 0x00, 0x3C,
		0x00, 0x04,
		8, 8, // only 2 of 4 declared rdata bytes present
	)
	_, _, err = ParseRecord(buf, 0)
	require.ErrorIs(t, err, ErrBufferTruncated)
}

func TestRecordMarshal_RoundTrip(t *testing.T) {
	name, err := EncodeName("host.example.com")
	require.NoError(t, err)

	r := NewARecord(name, net.IPv4(1, 2, 3, 4))
	buf := r.Marshal()

	got, consumed, err := ParseRecord(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.Equal(t, len(buf), consumed)
}

func TestNewARecord(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)

	r := NewARecord(name, net.IPv4(76, 76, 21, 21))
	assert.Equal(t, RRTypeA, r.Type)
	assert.Equal(t, RRClassIN, r.Class)
	assert.Equal(t, uint32(60), r.TTL)
	assert.Equal(t, []byte{76, 76, 21, 21}, r.RData)
}
