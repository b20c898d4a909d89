package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 1: parser basics over bytes 01..20.
func TestParserBasics(t *testing.T) {
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(i + 1)
	}
	p := NewParser(buf)

	u16, err := p.GetU16(0)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	u32, err := p.GetU32(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01020304), u32)

	u128, err := p.GetU128(0)
	require.NoError(t, err)
	assert.Equal(t, [16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}, u128)
}

// Scenario 2: two successive uncompressed names.
func TestReadNameSequential(t *testing.T) {
	buf := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0,
		7, 'a', 'n', 'o', 't', 'h', 'e', 'r', 3, 'o', 'r', 'g', 0,
	}
	p := NewParser(buf)

	name1, err := p.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "example.com", name1)

	name2, err := p.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "another.org", name2)
}

func TestReadNameLowercasesLabels(t *testing.T) {
	buf := []byte{5, 'E', 'x', 'A', 'm', 'P', 0}
	p := NewParser(buf)
	name, err := p.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "examp", name)
}

func TestReadNameRoot(t *testing.T) {
	p := NewParser([]byte{0})
	name, err := p.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "", name)
}

func TestReadNameCompressionPointer(t *testing.T) {
	buf := []byte{
		7, 'e', 'x', 'a', 'm', 'p', 'l', 'e', 3, 'c', 'o', 'm', 0, // offset 0..12
		0xC0, 0x00, // pointer to offset 0
	}
	p := NewParser(buf)
	p.Seek(13)
	name, err := p.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)
	assert.Equal(t, 15, p.Pos())
}

func TestReadNameTooManyJumps(t *testing.T) {
	// A chain of six pointers, each pointing at the previous one:
	// off11 -> off9 -> off7 -> off5 -> off3 -> off1 -> off0 (terminator).
	// Reading from off11 takes 6 jumps, one more than the 5-jump limit.
	buf := []byte{
		0x00,       // off 0: terminator
		0xC0, 0x00, // off 1: -> off 0
		0xC0, 0x01, // off 3: -> off 1
		0xC0, 0x03, // off 5: -> off 3
		0xC0, 0x05, // off 7: -> off 5
		0xC0, 0x07, // off 9: -> off 7
		0xC0, 0x09, // off 11: -> off 9
	}
	p := NewParser(buf)
	p.Seek(11)
	_, err := p.ReadName()
	assert.ErrorIs(t, err, ErrTooManyJumps)
}

func TestWriteNameLabelTooLong(t *testing.T) {
	b := NewBuilder(512)
	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	err := b.WriteName(string(long) + ".com")
	assert.ErrorIs(t, err, ErrLabelTooLong)
}

func TestWriteReadNameRoundTrip(t *testing.T) {
	b := NewBuilder(64)
	require.NoError(t, b.WriteName("Example.COM"))
	p := NewParser(b.Bytes())
	name, err := p.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "example.com", name)
}

// Scenario 3: header encode/decode round trip.
func TestHeaderRoundTrip(t *testing.T) {
	msg := &Message{
		Header: NewHeader(42, true, true, RcodeNXDomain),
	}
	buf, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, uint16(42), decoded.Header.ID)
	assert.True(t, decoded.Header.RD)
	assert.True(t, decoded.Header.QR)
	assert.Equal(t, RcodeNXDomain, decoded.Header.Rcode)
}

func TestEncodeDecodeFullMessage(t *testing.T) {
	msg := &Message{
		Header: NewHeader(7, false, true, RcodeNoError),
		Questions: []Question{
			{Name: "example.com", Type: TypeA, Class: 1},
		},
		Answers: []ResourceRecord{
			{Name: "example.com", Type: TypeA, Class: 1, TTL: 300, Data: RDataA{IP: [4]byte{127, 0, 0, 1}}},
			{Name: "example.com", Type: TypeNS, Class: 1, TTL: 300, Data: RDataNS{Host: "ns1.example.com"}},
			{Name: "example.com", Type: TypeMX, Class: 1, TTL: 300, Data: RDataMX{Priority: 10, Host: "mail.example.com"}},
		},
	}

	buf, err := Encode(msg)
	require.NoError(t, err)

	decoded, err := Decode(buf)
	require.NoError(t, err)

	require.Len(t, decoded.Questions, 1)
	assert.Equal(t, "example.com", decoded.Questions[0].Name)

	require.Len(t, decoded.Answers, 3)
	a, ok := decoded.Answers[0].Data.(RDataA)
	require.True(t, ok)
	assert.Equal(t, [4]byte{127, 0, 0, 1}, a.IP)

	ns, ok := decoded.Answers[1].Data.(RDataNS)
	require.True(t, ok)
	assert.Equal(t, "ns1.example.com", ns.Host)

	mx, ok := decoded.Answers[2].Data.(RDataMX)
	require.True(t, ok)
	assert.Equal(t, uint16(10), mx.Priority)
	assert.Equal(t, "mail.example.com", mx.Host)

	assert.Equal(t, decoded.Header.QDCount, uint16(len(decoded.Questions)))
	assert.Equal(t, decoded.Header.ANCount, uint16(len(decoded.Answers)))
	assert.Equal(t, decoded.Header.NSCount, uint16(len(decoded.Authority)))
	assert.Equal(t, decoded.Header.ARCount, uint16(len(decoded.Additional)))
}

func TestUnknownRecordRoundTripsCodeButIsSkippedOnWrite(t *testing.T) {
	buf := []byte{
		0, // root name
		0, 99, // type 99
		0, 1, // class IN
		0, 0, 0, 60, // ttl
		0, 2, 0xAB, 0xCD, // rdlength 2, raw data
	}
	p := NewParser(buf)
	rr, err := decodeRR(p)
	require.NoError(t, err)
	assert.True(t, rr.Type.IsUnknown())
	assert.Equal(t, uint16(99), rr.Type.Code())
	unk, ok := rr.Data.(RDataUnknown)
	require.True(t, ok)
	assert.Equal(t, []byte{0xAB, 0xCD}, unk.Raw)

	msg := &Message{
		Header:  NewHeader(1, false, true, RcodeNoError),
		Answers: []ResourceRecord{rr},
	}
	encoded, err := Encode(msg)
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), decoded.Header.ANCount)
	assert.Len(t, decoded.Answers, 0)
}

func TestEncodeExceedsMaxMessageSize(t *testing.T) {
	msg := &Message{Header: NewHeader(1, false, false, RcodeNoError)}
	for i := 0; i < 100; i++ {
		msg.Answers = append(msg.Answers, ResourceRecord{
			Name: "example.com", Type: TypeMX, Class: 1, TTL: 60,
			Data: RDataMX{Priority: 1, Host: "a-very-long-hostname-segment.example.com"},
		})
	}
	_, err := Encode(msg)
	assert.ErrorIs(t, err, ErrEndOfBuffer)
}

func TestUnresolvedAndResolvedNS(t *testing.T) {
	msg := &Message{
		Authority: []ResourceRecord{
			{Name: "com", Type: TypeNS, Data: RDataNS{Host: "a.gtld-servers.net"}},
		},
		Additional: []ResourceRecord{
			{Name: "a.gtld-servers.net", Type: TypeA, Data: RDataA{IP: [4]byte{192, 5, 6, 30}}},
		},
	}

	refs := msg.UnresolvedNS("example.com")
	require.Len(t, refs, 1)
	assert.Equal(t, "a.gtld-servers.net", refs[0].Host)
	assert.Equal(t, "com", refs[0].Zone)

	glue := msg.ResolvedNS("example.com")
	require.Len(t, glue, 1)
	assert.Equal(t, [4]byte{192, 5, 6, 30}, glue[0])
}

func TestAnswerIPv4s(t *testing.T) {
	msg := &Message{
		Answers: []ResourceRecord{
			{Name: "example.com", Type: TypeA, Data: RDataA{IP: [4]byte{1, 2, 3, 4}}},
		},
	}
	ips := msg.AnswerIPv4s()
	require.Len(t, ips, 1)
	assert.Equal(t, [4]byte{1, 2, 3, 4}, ips[0])
}

func TestHashQueryStableAndCaseInsensitive(t *testing.T) {
	h1 := HashQuery("Example.com", 1, 1)
	h2 := HashQuery("example.COM", 1, 1)
	assert.Equal(t, h1, h2)

	h3 := HashQuery("example.org", 1, 1)
	assert.NotEqual(t, h1, h3)
}
