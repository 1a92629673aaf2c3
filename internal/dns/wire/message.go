package wire

import (
	"net"

	"github.com/averyhart/rr-dns-forwarder/internal/dns/common/log"
)

// SelfAnswerIP is the address synthesized into A-record answers when this
// system answers for itself instead of forwarding. Overridable at startup
// by the ambient config layer; callers should not mutate it after the
// listener has started serving requests.
var SelfAnswerIP = net.IPv4(76, 76, 21, 21)

// SelfAnswerTTL is the TTL stamped on synthesized self-answer records.
// Overridable at startup by the ambient config layer.
var SelfAnswerTTL uint32 = 60

// salvageTypeThreshold is the boundary above which a malformed-looking
// record type is folded back to A (type 1) rather than dropped outright.
const salvageTypeThreshold = 1000

// Message is a full DNS message: header plus question and answer sections.
// Authority and additional sections are never retained.
type Message struct {
	Header    Header
	Questions []Question
	Answers   []Record
}

// ParseMessage decodes a full message from buf. It parses exactly
// header.QDCount questions and up to header.ANCount answers; a decode
// failure partway through the answer section is logged and stops answer
// parsing rather than failing the whole message, since a malformed
// upstream answer section shouldn't discard questions already parsed.
func ParseMessage(buf []byte) (Message, error) {
	h, err := ParseHeader(buf)
	if err != nil {
		return Message{}, err
	}

	pos := HeaderSize
	questions := make([]Question, 0, h.QDCount)
	for i := uint16(0); i < h.QDCount; i++ {
		q, consumed, err := ParseQuestion(buf, pos)
		if err != nil {
			return Message{}, err
		}
		questions = append(questions, q)
		pos += consumed
	}

	answers := make([]Record, 0, h.ANCount)
	for i := uint16(0); i < h.ANCount; i++ {
		r, consumed, err := ParseRecord(buf, pos)
		if err != nil {
			log.Warn(map[string]any{"error": err.Error(), "index": i}, "wire: truncated answer record, stopping answer parse")
			break
		}
		answers = append(answers, r)
		pos += consumed
	}

	return Message{Header: h, Questions: questions, Answers: answers}, nil
}

// Marshal serializes the header, then all questions, then all answers.
// Names are always written uncompressed; this encoder never emits
// compression pointers.
func (m Message) Marshal() []byte {
	h := m.Header
	h.QDCount = uint16(len(m.Questions))
	h.ANCount = uint16(len(m.Answers))

	out := make([]byte, 0, HeaderSize)
	hdr := h.Marshal()
	out = append(out, hdr[:]...)
	for _, q := range m.Questions {
		out = append(out, q.Marshal()...)
	}
	for _, a := range m.Answers {
		out = append(out, a.Marshal()...)
	}
	return out
}

// normalizeType folds a raw question type into the value this system
// recognizes as an A-record request: the literal type 1, or anything
// above salvageTypeThreshold (a heuristic salvage for malformed or
// mispacked question types observed in the wild). Any other type is left
// as-is and filtered out by Respond.
func normalizeType(raw uint16) uint16 {
	if raw == RRTypeA || raw > salvageTypeThreshold {
		return RRTypeA
	}
	return raw
}

// Respond builds a self-answered response to m: every question normalizing
// to an A-record request gets a rewritten (name, A, IN) question and a
// matching A-record answer pointing at SelfAnswerIP. Questions that don't
// normalize to A are dropped from the response entirely.
func (m Message) Respond() Message {
	var questions []Question
	var answers []Record

	for _, q := range m.Questions {
		if normalizeType(q.Type) != RRTypeA {
			continue
		}
		questions = append(questions, Question{Name: q.Name, Type: RRTypeA, Class: RRClassIN})
		answers = append(answers, Record{
			Name:  q.Name,
			Type:  RRTypeA,
			Class: RRClassIN,
			TTL:   SelfAnswerTTL,
			RData: selfAnswerRData(),
		})
	}

	header := selfAnswerHeader(m.Header.ID, uint16(len(questions)), uint16(len(answers)))
	return Message{Header: header, Questions: questions, Answers: answers}
}

// selfAnswerHeader builds the header this system stamps on any response it
// answers for itself: the client's id, QR set, and every other bit cleared.
// Unlike RespondHeader it does not preserve OPCODE or RD — self-answers
// carry no opinion about either.
func selfAnswerHeader(id, qdcount, ancount uint16) Header {
	return Header{ID: id, Flags: flagQR, QDCount: qdcount, ANCount: ancount}
}

// RespondFromHeader produces a synthetic self-answer for a request whose
// body could not be decoded at all: a single fixed question/answer pair so
// the client still receives a well-formed response bound to its id.
func RespondFromHeader(h Header) Message {
	name, _ := EncodeName("codecrafters.io")
	question := Question{Name: name, Type: RRTypeA, Class: RRClassIN}
	answer := Record{
		Name:  name,
		Type:  RRTypeA,
		Class: RRClassIN,
		TTL:   SelfAnswerTTL,
		RData: selfAnswerRData(),
	}
	header := selfAnswerHeader(h.ID, 1, 1)
	return Message{Header: header, Questions: []Question{question}, Answers: []Record{answer}}
}

// ToUpstreamQuery re-serializes m as a query suitable for sending upstream:
// the QR bit is cleared, the question section is preserved, and any
// answers already present are dropped.
func (m Message) ToUpstreamQuery() Message {
	header := m.Header
	header.Flags &^= flagQR
	header.QDCount = uint16(len(m.Questions))
	header.ANCount = 0
	header.NSCount = 0
	header.ARCount = 0

	return Message{Header: header, Questions: m.Questions, Answers: nil}
}

func selfAnswerRData() []byte {
	v4 := SelfAnswerIP.To4()
	out := make([]byte, 4)
	copy(out, v4)
	return out
}
