// Package cache implements the TTL-bound record store: a mapping from
// domain name to query type to a set of cached records, consulted by the
// resolver to short-circuit traversal at any suffix of the query name.
package cache

import (
	"time"

	"github.com/dnsscience/recursord/internal/wire"
)

// CachedRecord owns a resource record plus the absolute instant at which
// it expires. Two CachedRecords with equal underlying records but
// different expirations are still the same record for dedup purposes —
// expiry is not part of identity.
type CachedRecord struct {
	Record    wire.ResourceRecord
	ExpiresAt time.Time
}

// Expired reports whether the record's TTL has elapsed as of now.
func (c CachedRecord) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func newCachedRecord(rr wire.ResourceRecord, now time.Time) CachedRecord {
	return CachedRecord{
		Record:    rr,
		ExpiresAt: now.Add(time.Duration(rr.TTL) * time.Second),
	}
}

// Stats summarizes cache activity for observability.
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// Cache is the interface both backends (Map and Sharded) satisfy.
type Cache interface {
	// Get returns all non-expired records at (name, qtype). ok is false
	// if the domain is absent, the type is absent, or every record at
	// that type has expired.
	Get(name string, qtype wire.QueryType) (records []wire.ResourceRecord, ok bool)

	// Insert stores a batch of records that all share the same name,
	// deduplicating by wire-level record identity. An empty batch is a
	// no-op.
	Insert(records []wire.ResourceRecord)

	// InsertAll groups a decoded message's answer, authority, and
	// additional sections by name before inserting each group, so mixed
	// names within a section do not get co-located under one entry.
	InsertAll(msg *wire.Message)

	// Stats reports current hit/miss/size counters.
	Stats() Stats
}
