package wire

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codecraftersName() []byte {
	return []byte{0x0c, 'c', 'o', 'd', 'e', 'c', 'r', 'a', 'f', 't', 'e', 'r', 's', 0x02, 'i', 'o', 0x00}
}

// S1: minimal A-query, self-answered.
func TestMessage_S1_SelfAnswer(t *testing.T) {
	var req []byte
	req = binary.BigEndian.AppendUint16(req, 0x1234) // id
	req = binary.BigEndian.AppendUint16(req, 0x0100) // flags RD=1
	req = binary.BigEndian.AppendUint16(req, 1)       // qdcount
	req = binary.BigEndian.AppendUint16(req, 0)       // ancount
	req = binary.BigEndian.AppendUint16(req, 0)       // nscount
	req = binary.BigEndian.AppendUint16(req, 0)       // arcount
	req = append(req, codecraftersName()...)
	req = binary.BigEndian.AppendUint16(req, 1) // qtype A
	req = binary.BigEndian.AppendUint16(req, 1) // qclass IN

	msg, err := ParseMessage(req)
	require.NoError(t, err)

	resp := msg.Respond()
	assert.Equal(t, uint16(0x1234), resp.Header.ID)
	assert.Equal(t, uint16(0x8000), resp.Header.Flags)
	assert.Equal(t, uint16(1), resp.Header.QDCount)
	assert.Equal(t, uint16(1), resp.Header.ANCount)
	require.Len(t, resp.Answers, 1)

	ans := resp.Answers[0]
	assert.Equal(t, codecraftersName(), ans.Name)
	assert.Equal(t, uint16(1), ans.Type)
	assert.Equal(t, uint16(1), ans.Class)
	assert.Equal(t, uint32(0x3c), ans.TTL)
	assert.Equal(t, []byte{0x4c, 0x4c, 0x15, 0x15}, ans.RData)
}

// S2: OPCODE != 0 yields RCODE 4, flags 0x8804.
func TestMessage_S2_OpcodeToRcode(t *testing.T) {
	req := Header{ID: 1, Flags: 0x0800} // OPCODE=1, RD=0
	resp := RespondHeader(req, 0, 0)
	assert.Equal(t, uint16(0x8804), resp.Flags)
}

// S3: a pointer to an earlier name decodes to the same uncompressed bytes,
// and consumed == 2 for the compressed occurrence.
func TestMessage_S3_NameCompression(t *testing.T) {
	earlier := codecraftersName()
	buf := append(append([]byte{}, earlier...), 0xC0, 0x00)

	name, consumed, err := DecodeName(buf, len(earlier))
	require.NoError(t, err)
	assert.Equal(t, earlier, name)
	assert.Equal(t, 2, consumed)
}

// S6: a question type of 4242 (>1000) normalizes to A and is answered.
func TestMessage_S6_TypeSalvage(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)

	msg := Message{
		Header:    Header{ID: 77, Flags: 0x0100, QDCount: 1},
		Questions: []Question{{Name: name, Type: 4242, Class: 1}},
	}

	resp := msg.Respond()
	require.Len(t, resp.Questions, 1)
	require.Len(t, resp.Answers, 1)
	assert.Equal(t, RRTypeA, resp.Questions[0].Type)
	assert.Equal(t, RRTypeA, resp.Answers[0].Type)
}

func TestMessage_Respond_DropsNonAQuestions(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)

	msg := Message{
		Header: Header{ID: 1, Flags: 0x0100, QDCount: 1},
		Questions: []Question{
			{Name: name, Type: 28, Class: 1}, // AAAA, not salvaged
		},
	}
	resp := msg.Respond()
	assert.Empty(t, resp.Questions)
	assert.Empty(t, resp.Answers)
	assert.Equal(t, uint16(0), resp.Header.QDCount)
	assert.Equal(t, uint16(0), resp.Header.ANCount)
}

func TestRespondFromHeader(t *testing.T) {
	req := Header{ID: 99, Flags: 0x0100}
	resp := RespondFromHeader(req)

	assert.Equal(t, uint16(99), resp.Header.ID)
	require.Len(t, resp.Questions, 1)
	require.Len(t, resp.Answers, 1)

	text, err := ToText(resp.Questions[0].Name)
	require.NoError(t, err)
	assert.Equal(t, "codecrafters.io", text)
}

func TestMessage_ToUpstreamQuery_ClearsQR(t *testing.T) {
	name, err := EncodeName("example.com")
	require.NoError(t, err)

	msg := Message{
		Header:    Header{ID: 5, Flags: 0x8180, QDCount: 1, ANCount: 1},
		Questions: []Question{{Name: name, Type: 1, Class: 1}},
		Answers:   []Record{NewARecord(name, net.IPv4(1, 1, 1, 1))},
	}

	out := msg.ToUpstreamQuery()
	assert.Zero(t, out.Header.Flags&0x8000, "QR bit must be cleared")
	assert.Equal(t, uint16(1), out.Header.QDCount)
	assert.Equal(t, uint16(0), out.Header.ANCount)
	assert.Empty(t, out.Answers)
}

func TestParseMessage_QuestionCountMatches(t *testing.T) {
	n1, _ := EncodeName("a.example")
	n2, _ := EncodeName("b.example")

	var buf []byte
	buf = binary.BigEndian.AppendUint16(buf, 1)
	buf = binary.BigEndian.AppendUint16(buf, 0x0100)
	buf = binary.BigEndian.AppendUint16(buf, 2)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = append(buf, Question{Name: n1, Type: 1, Class: 1}.Marshal()...)
	buf = append(buf, Question{Name: n2, Type: 1, Class: 1}.Marshal()...)

	msg, err := ParseMessage(buf)
	require.NoError(t, err)
	assert.Len(t, msg.Questions, int(msg.Header.QDCount))
}

func TestParseMessage_StopsOnAnswerDecodeError(t *testing.T) {
	name, _ := EncodeName("example.com")

	var buf []byte
	buf = binary.BigEndian.AppendUint16(buf, 1)
	buf = binary.BigEndian.AppendUint16(buf, 0x8180)
	buf = binary.BigEndian.AppendUint16(buf, 1)
	buf = binary.BigEndian.AppendUint16(buf, 2) // claims 2 answers, only 1 present
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = binary.BigEndian.AppendUint16(buf, 0)
	buf = append(buf, Question{Name: name, Type: 1, Class: 1}.Marshal()...)
	buf = append(buf, NewARecord(name, net.IPv4(2, 2, 2, 2)).Marshal()...)

	msg, err := ParseMessage(buf)
	require.NoError(t, err)
	assert.Len(t, msg.Questions, 1)
	assert.Len(t, msg.Answers, 1, "second declared answer is missing from the wire and must be silently dropped")
}

func TestMessageMarshal_RoundTrip(t *testing.T) {
	name, _ := EncodeName("example.com")
	msg := Message{
		Header:    Header{ID: 42, Flags: 0x8180},
		Questions: []Question{{Name: name, Type: 1, Class: 1}},
		Answers:   []Record{NewARecord(name, net.IPv4(9, 9, 9, 9))},
	}

	got, err := ParseMessage(msg.Marshal())
	require.NoError(t, err)
	assert.Equal(t, msg.Header.ID, got.Header.ID)
	assert.Equal(t, msg.Questions, got.Questions)
	assert.Equal(t, msg.Answers, got.Answers)
}
