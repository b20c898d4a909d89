package wire

// Decode parses a complete DNS message out of buf: the header, then
// exactly header.{QD,AN,NS,AR}Count records from each section in order.
func Decode(buf []byte) (*Message, error) {
	p := NewParser(buf)

	hdr, err := decodeHeader(p)
	if err != nil {
		return nil, err
	}

	msg := &Message{Header: hdr}

	msg.Questions = make([]Question, 0, hdr.QDCount)
	for i := uint16(0); i < hdr.QDCount; i++ {
		q, err := decodeQuestion(p)
		if err != nil {
			return nil, err
		}
		msg.Questions = append(msg.Questions, q)
	}

	msg.Answers, err = decodeRRSection(p, hdr.ANCount)
	if err != nil {
		return nil, err
	}
	msg.Authority, err = decodeRRSection(p, hdr.NSCount)
	if err != nil {
		return nil, err
	}
	msg.Additional, err = decodeRRSection(p, hdr.ARCount)
	if err != nil {
		return nil, err
	}

	return msg, nil
}

func decodeHeader(p *Parser) (Header, error) {
	var h Header
	var err error

	if h.ID, err = p.ReadU16(); err != nil {
		return h, err
	}
	b1, err := p.ReadU8()
	if err != nil {
		return h, err
	}
	b2, err := p.ReadU8()
	if err != nil {
		return h, err
	}

	h.QR = b1&0x80 != 0
	h.Opcode = ParseOpcode((b1 >> 3) & 0x0F)
	h.AA = b1&0x04 != 0
	h.TC = b1&0x02 != 0
	h.RD = b1&0x01 != 0

	h.RA = b2&0x80 != 0
	h.Z = (b2 >> 4) & 0x07
	h.Rcode = ParseRcode(b2 & 0x0F)

	if h.QDCount, err = p.ReadU16(); err != nil {
		return h, err
	}
	if h.ANCount, err = p.ReadU16(); err != nil {
		return h, err
	}
	if h.NSCount, err = p.ReadU16(); err != nil {
		return h, err
	}
	if h.ARCount, err = p.ReadU16(); err != nil {
		return h, err
	}
	return h, nil
}

func decodeQuestion(p *Parser) (Question, error) {
	var q Question
	name, err := p.ReadName()
	if err != nil {
		return q, err
	}
	typ, err := p.ReadU16()
	if err != nil {
		return q, err
	}
	class, err := p.ReadU16()
	if err != nil {
		return q, err
	}
	q.Name = name
	q.Type = NewQueryType(typ)
	q.Class = class
	return q, nil
}

func decodeRRSection(p *Parser, count uint16) ([]ResourceRecord, error) {
	out := make([]ResourceRecord, 0, count)
	for i := uint16(0); i < count; i++ {
		rr, err := decodeRR(p)
		if err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, nil
}

func decodeRR(p *Parser) (ResourceRecord, error) {
	var rr ResourceRecord

	name, err := p.ReadName()
	if err != nil {
		return rr, err
	}
	typCode, err := p.ReadU16()
	if err != nil {
		return rr, err
	}
	class, err := p.ReadU16()
	if err != nil {
		return rr, err
	}
	ttl, err := p.ReadU32()
	if err != nil {
		return rr, err
	}
	rdlen, err := p.ReadU16()
	if err != nil {
		return rr, err
	}

	rr.Name = name
	rr.Type = NewQueryType(typCode)
	rr.Class = class
	rr.TTL = ttl

	rdataStart := p.Pos()

	switch rr.Type {
	case TypeA:
		raw, err := p.ReadBytes(4)
		if err != nil {
			return rr, err
		}
		var ip [4]byte
		copy(ip[:], raw)
		rr.Data = RDataA{IP: ip}

	case TypeAAAA:
		ip, err := p.ReadU128()
		if err != nil {
			return rr, err
		}
		rr.Data = RDataAAAA{IP: ip}

	case TypeNS:
		host, err := p.ReadName()
		if err != nil {
			return rr, err
		}
		rr.Data = RDataNS{Host: host}

	case TypeCNAME:
		host, err := p.ReadName()
		if err != nil {
			return rr, err
		}
		rr.Data = RDataCNAME{Host: host}

	case TypeMX:
		pref, err := p.ReadU16()
		if err != nil {
			return rr, err
		}
		host, err := p.ReadName()
		if err != nil {
			return rr, err
		}
		rr.Data = RDataMX{Priority: pref, Host: host}

	default:
		raw, err := p.ReadBytes(int(rdlen))
		if err != nil {
			return rr, err
		}
		rr.Data = RDataUnknown{Code: typCode, Raw: raw}
		return rr, nil
	}

	// Named types whose wire encoding used compression may have consumed
	// fewer or more raw bytes than rdlen if upstream compressed the rdata
	// name; reposition to the declared end of this record's rdata so the
	// next record starts at the right offset.
	p.Seek(rdataStart + int(rdlen))
	return rr, nil
}

// Encode renders msg into a buffer no larger than MaxMessageSize,
// returning ErrEndOfBuffer if it would not fit. Records whose Data is
// RDataUnknown are skipped — they are not re-emitted on write.
func Encode(msg *Message) ([]byte, error) {
	b := NewBuilder(MaxMessageSize)

	answers := filterKnown(msg.Answers)
	authority := filterKnown(msg.Authority)
	additional := filterKnown(msg.Additional)

	hdr := msg.Header
	hdr.QDCount = uint16(len(msg.Questions))
	hdr.ANCount = uint16(len(answers))
	hdr.NSCount = uint16(len(authority))
	hdr.ARCount = uint16(len(additional))

	if err := encodeHeader(b, hdr); err != nil {
		return nil, err
	}
	for _, q := range msg.Questions {
		if err := encodeQuestion(b, q); err != nil {
			return nil, err
		}
	}
	for _, rr := range answers {
		if err := encodeRR(b, rr); err != nil {
			return nil, err
		}
	}
	for _, rr := range authority {
		if err := encodeRR(b, rr); err != nil {
			return nil, err
		}
	}
	for _, rr := range additional {
		if err := encodeRR(b, rr); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

func filterKnown(rrs []ResourceRecord) []ResourceRecord {
	out := make([]ResourceRecord, 0, len(rrs))
	for _, rr := range rrs {
		if _, unknown := rr.Data.(RDataUnknown); unknown {
			continue
		}
		out = append(out, rr)
	}
	return out
}

func encodeHeader(b *Builder, h Header) error {
	if err := b.WriteU16(h.ID); err != nil {
		return err
	}

	var b1 uint8
	if h.QR {
		b1 |= 0x80
	}
	b1 |= uint8(h.Opcode) << 3
	if h.AA {
		b1 |= 0x04
	}
	if h.TC {
		b1 |= 0x02
	}
	if h.RD {
		b1 |= 0x01
	}
	if err := b.WriteU8(b1); err != nil {
		return err
	}

	var b2 uint8
	if h.RA {
		b2 |= 0x80
	}
	b2 |= (h.Z & 0x07) << 4
	b2 |= h.Rcode.encode() & 0x0F
	if err := b.WriteU8(b2); err != nil {
		return err
	}

	if err := b.WriteU16(h.QDCount); err != nil {
		return err
	}
	if err := b.WriteU16(h.ANCount); err != nil {
		return err
	}
	if err := b.WriteU16(h.NSCount); err != nil {
		return err
	}
	return b.WriteU16(h.ARCount)
}

func encodeQuestion(b *Builder, q Question) error {
	if err := b.WriteName(q.Name); err != nil {
		return err
	}
	if err := b.WriteU16(q.Type.Code()); err != nil {
		return err
	}
	return b.WriteU16(q.Class)
}

func encodeRR(b *Builder, rr ResourceRecord) error {
	if err := b.WriteName(rr.Name); err != nil {
		return err
	}
	if err := b.WriteU16(rr.Type.Code()); err != nil {
		return err
	}
	if err := b.WriteU16(rr.Class); err != nil {
		return err
	}
	if err := b.WriteU32(rr.TTL); err != nil {
		return err
	}

	switch data := rr.Data.(type) {
	case RDataA:
		if err := b.WriteU16(4); err != nil {
			return err
		}
		return b.WriteBytes(data.IP[:])

	case RDataAAAA:
		if err := b.WriteU16(16); err != nil {
			return err
		}
		return b.WriteBytes(data.IP[:])

	case RDataNS:
		return encodeLengthPrefixedName(b, data.Host)

	case RDataCNAME:
		return encodeLengthPrefixedName(b, data.Host)

	case RDataMX:
		rdlenPos := b.Len()
		if err := b.WriteU16(0); err != nil {
			return err
		}
		start := b.Len()
		if err := b.WriteU16(data.Priority); err != nil {
			return err
		}
		if err := b.WriteName(data.Host); err != nil {
			return err
		}
		return b.SetU16(rdlenPos, uint16(b.Len()-start))

	default:
		// Unknown records are filtered out before this point.
		return nil
	}
}

func encodeLengthPrefixedName(b *Builder, name string) error {
	rdlenPos := b.Len()
	if err := b.WriteU16(0); err != nil {
		return err
	}
	start := b.Len()
	if err := b.WriteName(name); err != nil {
		return err
	}
	return b.SetU16(rdlenPos, uint16(b.Len()-start))
}
