package resolver

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/dnsscience/recursord/internal/cache"
	"github.com/dnsscience/recursord/internal/metrics"
	"github.com/dnsscience/recursord/internal/random"
	"github.com/dnsscience/recursord/internal/wire"
)

// DefaultRootHints are the 13 well-known DNS root server addresses,
// baked in per spec.md §6.
var DefaultRootHints = []string{
	"198.41.0.4",
	"199.9.14.201",
	"192.33.4.12",
	"199.7.91.13",
	"192.203.230.10",
	"192.5.5.241",
	"192.112.36.4",
	"198.97.190.53",
	"192.36.148.17",
	"192.58.128.30",
	"193.0.14.129",
	"199.7.83.42",
	"202.12.27.33",
}

// Config configures a Resolver.
type Config struct {
	Cache        cache.Cache
	Upstream     *Conn
	RootHints    []string
	QueryTimeout time.Duration // per-candidate timeout, spec.md §4.4 default 1s
	MaxDepth     int           // spec.md §9 recommends 16
}

// Resolver drives recursive descent per spec.md §4.4: it consults the
// cache for any suffix delegation, falls back to the root hints, and
// walks referrals (with or without glue) down to an authoritative
// answer.
type Resolver struct {
	cache        cache.Cache
	upstream     *Conn
	rootHints    []string
	queryTimeout time.Duration
	maxDepth     int
}

// NewResolver constructs a Resolver, applying spec defaults for any
// zero-valued Config field.
func NewResolver(cfg Config) *Resolver {
	if cfg.RootHints == nil {
		cfg.RootHints = DefaultRootHints
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 1 * time.Second
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 16
	}
	return &Resolver{
		cache:        cfg.Cache,
		upstream:     cfg.Upstream,
		rootHints:    cfg.RootHints,
		queryTimeout: cfg.QueryTimeout,
		maxDepth:     cfg.MaxDepth,
	}
}

// Resolve is the top-level entry point. It always returns a response
// message — upstream failures are translated into RCODE=SERVFAIL rather
// than propagated as errors, per spec.md §4.4 step 5 and §7's
// propagation policy. The context bounds the overall query deadline
// (spec.md §9's recommended addition); the server loop attaches one.
func (r *Resolver) Resolve(ctx context.Context, query *wire.Message) *wire.Message {
	if len(query.Questions) == 0 {
		return wire.NewEmptyResponse(query.Header.ID, wire.RcodeFormErr)
	}

	question := query.Questions[0]

	if question.Type.IsUnknown() {
		return wire.NewResponse(query.Header.ID, question, wire.RcodeNotImp)
	}

	if records, ok := r.cache.Get(question.Name, question.Type); ok {
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		resp := wire.NewResponse(query.Header.ID, question, wire.RcodeNoError)
		resp.Answers = records
		return resp
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	candidates := r.iterativeCacheResolve(question.Name)

	reply, err := r.recursiveLookup(ctx, query, candidates, 0)
	if err != nil {
		return wire.NewResponse(query.Header.ID, question, wire.RcodeServFail)
	}

	resp := &wire.Message{
		Header:     reply.Header,
		Questions:  query.Questions,
		Answers:    reply.Answers,
		Authority:  reply.Authority,
		Additional: reply.Additional,
	}
	resp.Header.ID = query.Header.ID
	resp.Header.QR = true
	resp.Header.RA = true
	return resp
}

// iterativeCacheResolve selects the starting candidate nameservers for
// qname: it walks cached NS delegations from most-specific suffix to
// least, resolving each candidate NS host via a cached A record, and
// falls back to the root hints if no cached delegation yields
// resolvable glue.
func (r *Resolver) iterativeCacheResolve(qname string) []string {
	labels := strings.Split(qname, ".")

	for i := 0; i < len(labels); i++ {
		suffix := strings.Join(labels[i:], ".")

		nsRecords, ok := r.cache.Get(suffix, wire.TypeNS)
		if !ok {
			continue
		}

		var ips []string
		for _, rr := range nsRecords {
			ns, ok := rr.Data.(wire.RDataNS)
			if !ok {
				continue
			}
			aRecords, ok := r.cache.Get(ns.Host, wire.TypeA)
			if !ok {
				continue
			}
			for _, a := range aRecords {
				if addr, ok := a.Data.(wire.RDataA); ok {
					ips = append(ips, ipString(addr.IP))
				}
			}
		}

		if len(ips) > 0 {
			return ips
		}
	}

	return r.rootHints
}

// recursiveLookup is the core descent (spec.md §4.4). candidates are
// tried in order; the next is attempted only on a per-server failure.
func (r *Resolver) recursiveLookup(ctx context.Context, query *wire.Message, candidates []string, depth int) (*wire.Message, error) {
	if depth > r.maxDepth {
		return nil, ErrMaxDepth
	}
	if len(candidates) == 0 {
		return nil, ErrNoProgress
	}

	qname := query.Questions[0].Name
	var lastErr error

	for _, ip := range candidates {
		reply, err := r.upstream.Exchange(ctx, ip, query, r.queryTimeout)
		if err != nil {
			lastErr = err
			continue
		}

		r.cache.InsertAll(reply)

		switch {
		case len(reply.Answers) > 0 && (reply.Header.Rcode == wire.RcodeNoError || reply.Header.Rcode == wire.RcodeNXDomain):
			return reply, nil

		case len(reply.Additional) > 0:
			glue := reply.ResolvedNS(qname)
			result, err := r.recursiveLookup(ctx, query, ipsToStrings(glue), depth+1)
			if err != nil {
				lastErr = err
				continue
			}
			return result, nil

		case len(reply.Authority) > 0:
			result, err := r.resolveViaUnresolvedReferral(ctx, query, reply, depth)
			if err != nil {
				lastErr = err
				continue
			}
			return result, nil

		default:
			lastErr = wire.ErrMalformedResponse
			continue
		}
	}

	if lastErr != nil {
		return nil, errors.Join(ErrNoProgress, lastErr)
	}
	return nil, ErrNoProgress
}

// resolveViaUnresolvedReferral handles spec.md §4.4 step 5: for each
// referred nameserver lacking glue, it resolves that host's address via
// an auxiliary query starting at the root, then descends the original
// query against the resulting IPs.
func (r *Resolver) resolveViaUnresolvedReferral(ctx context.Context, query, reply *wire.Message, depth int) (*wire.Message, error) {
	qname := query.Questions[0].Name
	var lastErr error = ErrNoProgress

	for _, ref := range reply.UnresolvedNS(qname) {
		auxQuery := wire.NewQuery(random.TransactionID(), ref.Host, wire.TypeA, 1, false)

		auxReply, err := r.recursiveLookup(ctx, auxQuery, r.rootHints, depth+1)
		if err != nil {
			lastErr = err
			continue
		}

		ips := auxReply.AnswerIPv4s()
		if len(ips) == 0 {
			continue
		}

		result, err := r.recursiveLookup(ctx, query, ipsToStrings(ips), depth+1)
		if err != nil {
			lastErr = err
			continue
		}
		return result, nil
	}

	return nil, lastErr
}

func ipString(ip [4]byte) string {
	return net.IPv4(ip[0], ip[1], ip[2], ip[3]).String()
}

func ipsToStrings(ips [][4]byte) []string {
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, ipString(ip))
	}
	return out
}

// Close releases the resolver's upstream socket.
func (r *Resolver) Close() error {
	return r.upstream.Close()
}
