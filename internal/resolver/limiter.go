package resolver

import (
	"sync"

	"golang.org/x/time/rate"
)

// outboundLimiters hands out one token-bucket limiter per destination
// nameserver IP, capping the rate recursord itself sends queries to any
// single upstream server. This protects upstreams from a referral loop
// or a burst of concurrent client lookups all landing on the same
// server; it is the outbound counterpart to — and not a substitute for —
// the client-facing response-rate limiting this resolver deliberately
// does not implement.
type outboundLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newOutboundLimiters(rps float64, burst int) *outboundLimiters {
	if rps <= 0 {
		rps = 50
	}
	if burst <= 0 {
		burst = 10
	}
	return &outboundLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (o *outboundLimiters) allow(ip string) bool {
	o.mu.Lock()
	l, ok := o.limiters[ip]
	if !ok {
		l = rate.NewLimiter(o.rps, o.burst)
		o.limiters[ip] = l
	}
	o.mu.Unlock()
	return l.Allow()
}
