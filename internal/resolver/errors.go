// Package resolver drives the recursive descent from root hints through
// TLD and authoritative servers, consulting the cache to short-circuit
// traversal and falling back to iterative upstream queries on a miss.
package resolver

import "errors"

var (
	// ErrUpstreamTimeout is returned when a candidate nameserver does
	// not reply within the per-attempt timeout.
	ErrUpstreamTimeout = errors.New("resolver: upstream timeout")

	// ErrUpstreamIOError wraps a network-level failure talking to a
	// candidate nameserver.
	ErrUpstreamIOError = errors.New("resolver: upstream i/o error")

	// ErrNoProgress is returned when every candidate IP at a given
	// descent step has been tried without yielding an answer or a
	// usable referral.
	ErrNoProgress = errors.New("resolver: no progress")

	// ErrMaxDepth is returned when recursive descent exceeds the
	// configured depth bound, guarding against referral loops between
	// authoritative servers.
	ErrMaxDepth = errors.New("resolver: max recursion depth exceeded")

	// ErrUpstreamThrottled is returned when the per-nameserver outbound
	// rate limiter rejects a query; callers treat it exactly like a
	// per-server failure and try the next candidate.
	ErrUpstreamThrottled = errors.New("resolver: upstream throttled")

	// ErrNoQuestion describes a query that carries no question. Resolve
	// does not return it: it answers such a query with RCODE=FORMERR.
	ErrNoQuestion = errors.New("resolver: query has no question")
)
