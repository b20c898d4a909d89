package wire

import "fmt"

// Opcode is the 4-bit OPCODE field of a DNS header.
type Opcode uint8

const (
	OpcodeQuery  Opcode = 0
	OpcodeIQuery Opcode = 1
	OpcodeStatus Opcode = 2
	OpcodeNotify Opcode = 4
	OpcodeUpdate Opcode = 5
	OpcodeUnknown Opcode = 0xFF
)

// ParseOpcode maps a raw 4-bit value to its Opcode, returning OpcodeUnknown
// for anything not in the closed set spec.md §3 names.
func ParseOpcode(v uint8) Opcode {
	switch v {
	case 0, 1, 2, 4, 5:
		return Opcode(v)
	default:
		return OpcodeUnknown
	}
}

func (o Opcode) String() string {
	switch o {
	case OpcodeQuery:
		return "QUERY"
	case OpcodeIQuery:
		return "IQUERY"
	case OpcodeStatus:
		return "STATUS"
	case OpcodeNotify:
		return "NOTIFY"
	case OpcodeUpdate:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Rcode is the 4-bit RCODE field of a DNS header.
type Rcode uint8

const (
	RcodeNoError  Rcode = 0
	RcodeFormErr  Rcode = 1
	RcodeServFail Rcode = 2
	RcodeNXDomain Rcode = 3
	RcodeNotImp   Rcode = 4
	RcodeRefused  Rcode = 5
	RcodeYXDomain Rcode = 6
	RcodeXRRSet   Rcode = 7
	RcodeNotAuth  Rcode = 8
	RcodeNotZone  Rcode = 9
	RcodeUnknown  Rcode = 0xFF
)

// ParseRcode maps a raw 4-bit value to its Rcode, returning RcodeUnknown
// for anything outside the closed set spec.md §3 names.
func ParseRcode(v uint8) Rcode {
	if v <= 9 {
		return Rcode(v)
	}
	return RcodeUnknown
}

// encode returns the 4-bit wire value for the rcode. An Unknown rcode is
// normalized to SERVFAIL; it is never passed through raw.
func (r Rcode) encode() uint8 {
	if r == RcodeUnknown {
		return uint8(RcodeServFail)
	}
	return uint8(r)
}

func (r Rcode) String() string {
	switch r {
	case RcodeNoError:
		return "NOERROR"
	case RcodeFormErr:
		return "FORMERR"
	case RcodeServFail:
		return "SERVFAIL"
	case RcodeNXDomain:
		return "NXDOMAIN"
	case RcodeNotImp:
		return "NOTIMP"
	case RcodeRefused:
		return "REFUSED"
	case RcodeYXDomain:
		return "YXDOMAIN"
	case RcodeXRRSet:
		return "XRRSET"
	case RcodeNotAuth:
		return "NOTAUTH"
	case RcodeNotZone:
		return "NOTZONE"
	default:
		return "UNKNOWN"
	}
}

// QueryType is the 16-bit TYPE field of a question or resource record.
// Supported types are a closed set; anything else round-trips through
// Unknown(code).
type QueryType struct {
	code    uint16
	unknown bool
}

var (
	TypeA     = QueryType{code: 1}
	TypeNS    = QueryType{code: 2}
	TypeCNAME = QueryType{code: 5}
	TypeMX    = QueryType{code: 15}
	TypeAAAA  = QueryType{code: 28}
)

// NewQueryType maps a raw 16-bit code to a QueryType, marking it Unknown
// when it falls outside the supported set.
func NewQueryType(code uint16) QueryType {
	switch code {
	case 1, 2, 5, 15, 28:
		return QueryType{code: code}
	default:
		return QueryType{code: code, unknown: true}
	}
}

// Code returns the numeric type code, preserved even for Unknown types.
func (t QueryType) Code() uint16 { return t.code }

// IsUnknown reports whether t fell outside the supported set.
func (t QueryType) IsUnknown() bool { return t.unknown }

func (t QueryType) String() string {
	switch t.code {
	case 1:
		return "A"
	case 2:
		return "NS"
	case 5:
		return "CNAME"
	case 15:
		return "MX"
	case 28:
		return "AAAA"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", t.code)
	}
}

// Header is the fixed 12-byte DNS message header.
type Header struct {
	ID      uint16
	QR      bool
	Opcode  Opcode
	AA      bool
	TC      bool
	RD      bool
	RA      bool
	Z       uint8
	Rcode   Rcode
	QDCount uint16
	ANCount uint16
	NSCount uint16
	ARCount uint16
}

// NewHeader builds a Header the way most callers need one: an id, whether
// recursion is desired, whether this is a response, and a result code.
// Section counts default to zero and are set by the encoder from the
// message's actual vectors.
func NewHeader(id uint16, recursionDesired, isResponse bool, rcode Rcode) Header {
	return Header{
		ID:    id,
		QR:    isResponse,
		RD:    recursionDesired,
		Rcode: rcode,
	}
}

// Question is a single entry in the question section.
type Question struct {
	Name  string
	Type  QueryType
	Class uint16
}

// RData is the typed payload of a resource record.
type RData interface {
	rdata()
}

type RDataA struct{ IP [4]byte }
type RDataAAAA struct{ IP [16]byte }
type RDataNS struct{ Host string }
type RDataCNAME struct{ Host string }
type RDataMX struct {
	Priority uint16
	Host     string
}
type RDataUnknown struct {
	Code uint16
	Raw  []byte
}

func (RDataA) rdata()       {}
func (RDataAAAA) rdata()    {}
func (RDataNS) rdata()      {}
func (RDataCNAME) rdata()   {}
func (RDataMX) rdata()      {}
func (RDataUnknown) rdata() {}

// ResourceRecord is one answer/authority/additional entry.
type ResourceRecord struct {
	Name  string
	Type  QueryType
	Class uint16
	TTL   uint32
	Data  RData
}

// Equal reports whether two records are identical for cache dedup
// purposes: name, type, class, TTL, and rdata must all match. Expiry is
// deliberately not part of identity.
func (r ResourceRecord) Equal(o ResourceRecord) bool {
	if r.Name != o.Name || r.Type.Code() != o.Type.Code() || r.Class != o.Class || r.TTL != o.TTL {
		return false
	}
	return rdataEqual(r.Data, o.Data)
}

func rdataEqual(a, b RData) bool {
	switch av := a.(type) {
	case RDataA:
		bv, ok := b.(RDataA)
		return ok && av.IP == bv.IP
	case RDataAAAA:
		bv, ok := b.(RDataAAAA)
		return ok && av.IP == bv.IP
	case RDataNS:
		bv, ok := b.(RDataNS)
		return ok && av.Host == bv.Host
	case RDataCNAME:
		bv, ok := b.(RDataCNAME)
		return ok && av.Host == bv.Host
	case RDataMX:
		bv, ok := b.(RDataMX)
		return ok && av.Priority == bv.Priority && av.Host == bv.Host
	case RDataUnknown:
		bv, ok := b.(RDataUnknown)
		if !ok || av.Code != bv.Code || len(av.Raw) != len(bv.Raw) {
			return false
		}
		for i := range av.Raw {
			if av.Raw[i] != bv.Raw[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Message is a fully decoded DNS message: header plus its four sections.
type Message struct {
	Header     Header
	Questions  []Question
	Answers    []ResourceRecord
	Authority  []ResourceRecord
	Additional []ResourceRecord
}
