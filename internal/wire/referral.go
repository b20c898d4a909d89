package wire

import (
	"encoding/binary"
	"strings"

	"github.com/dchest/siphash"
)

// NSReferral pairs an unresolved nameserver host with the zone it was
// delegated for.
type NSReferral struct {
	Host string
	Zone string
}

// UnresolvedNS iterates (ns_host, zone) pairs from the authority section
// where the record is an NS and qname falls within zone (suffix match;
// names are already lowercase from decode).
func (m *Message) UnresolvedNS(qname string) []NSReferral {
	var out []NSReferral
	for _, rr := range m.Authority {
		ns, ok := rr.Data.(RDataNS)
		if !ok {
			continue
		}
		if isSubdomainOf(qname, rr.Name) {
			out = append(out, NSReferral{Host: ns.Host, Zone: rr.Name})
		}
	}
	return out
}

// ResolvedNS joins UnresolvedNS against the additional section: for each
// referral whose NS host name equals an additional A record's name, it
// yields that record's IPv4 address. This is "glue".
func (m *Message) ResolvedNS(qname string) [][4]byte {
	var glue [][4]byte
	for _, ref := range m.UnresolvedNS(qname) {
		for _, add := range m.Additional {
			if add.Name != ref.Host {
				continue
			}
			if a, ok := add.Data.(RDataA); ok {
				glue = append(glue, a.IP)
			}
		}
	}
	return glue
}

// AnswerIPv4s iterates A-record IPs in the answer section, used to
// resolve an NS host recursively when no glue is present.
func (m *Message) AnswerIPv4s() [][4]byte {
	var ips [][4]byte
	for _, rr := range m.Answers {
		if a, ok := rr.Data.(RDataA); ok {
			ips = append(ips, a.IP)
		}
	}
	return ips
}

func isSubdomainOf(qname, zone string) bool {
	if zone == "" {
		return true
	}
	if qname == zone {
		return true
	}
	return strings.HasSuffix(qname, "."+zone)
}

// cache/shard hashing keys. Fixed and unexported: this hash is used only
// for in-process key derivation, never exposed on the wire, so there is
// no need for per-process randomization.
const (
	hashK0 = 0x6f7264726e6f7300
	hashK1 = 0x3167756572726100
)

// HashQuery derives a stable 64-bit key for (name, qtype, qclass) via
// SipHash-2-4, used by the sharded cache backend to select a shard and
// as a fast lookup key more generally.
func HashQuery(name string, qtype, qclass uint16) uint64 {
	buf := make([]byte, len(name)+4)
	copy(buf, strings.ToLower(name))
	binary.BigEndian.PutUint16(buf[len(name):], qtype)
	binary.BigEndian.PutUint16(buf[len(name)+2:], qclass)
	return siphash.Hash(hashK0, hashK1, buf)
}
