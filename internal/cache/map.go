package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnsscience/recursord/internal/wire"
)

// Map is the spec-literal cache design: one mutex guarding a
// domain -> type -> record-set map. All public operations acquire the
// lock exclusively for the duration of the call; critical sections are
// O(records-in-the-batch) and never span network I/O.
type Map struct {
	mu      sync.Mutex
	entries map[string]map[uint16][]CachedRecord

	hits   atomic.Uint64
	misses atomic.Uint64

	now func() time.Time
}

// NewMap constructs an empty Map cache.
func NewMap() *Map {
	return &Map{
		entries: make(map[string]map[uint16][]CachedRecord),
		now:     time.Now,
	}
}

// Get returns all non-expired records at (name, qtype).
func (m *Map) Get(name string, qtype wire.QueryType) ([]wire.ResourceRecord, bool) {
	key := strings.ToLower(name)

	m.mu.Lock()
	byType, ok := m.entries[key]
	if !ok {
		m.mu.Unlock()
		m.misses.Add(1)
		return nil, false
	}
	bucket, ok := byType[qtype.Code()]
	if !ok {
		m.mu.Unlock()
		m.misses.Add(1)
		return nil, false
	}

	now := m.now()
	out := make([]wire.ResourceRecord, 0, len(bucket))
	for _, rec := range bucket {
		if !rec.Expired(now) {
			out = append(out, rec.Record)
		}
	}
	m.mu.Unlock()

	if len(out) == 0 {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return out, true
}

// Insert stores a batch of same-name records, deduplicating against any
// existing entry by wire-level record identity.
func (m *Map) Insert(records []wire.ResourceRecord) {
	if len(records) == 0 {
		return
	}

	now := m.now()
	key := strings.ToLower(records[0].Name)

	m.mu.Lock()
	defer m.mu.Unlock()

	byType, ok := m.entries[key]
	if !ok {
		byType = make(map[uint16][]CachedRecord)
		m.entries[key] = byType
	}

	for _, rr := range records {
		bucket := byType[rr.Type.Code()]
		bucket = upsert(bucket, rr, now)
		byType[rr.Type.Code()] = bucket
	}
}

// upsert inserts rr into bucket, refreshing the expiry of an equal
// existing record rather than growing the set.
func upsert(bucket []CachedRecord, rr wire.ResourceRecord, now time.Time) []CachedRecord {
	for i, existing := range bucket {
		if existing.Record.Equal(rr) {
			bucket[i] = newCachedRecord(rr, now)
			return bucket
		}
	}
	return append(bucket, newCachedRecord(rr, now))
}

// InsertAll groups the message's answer, authority, and additional
// sections by name before inserting each group.
func (m *Map) InsertAll(msg *wire.Message) {
	all := make([]wire.ResourceRecord, 0, len(msg.Answers)+len(msg.Authority)+len(msg.Additional))
	all = append(all, msg.Answers...)
	all = append(all, msg.Authority...)
	all = append(all, msg.Additional...)

	for _, group := range GroupByName(all) {
		m.Insert(group)
	}
}

// Stats reports current hit/miss/size counters.
func (m *Map) Stats() Stats {
	m.mu.Lock()
	size := 0
	for _, byType := range m.entries {
		for _, bucket := range byType {
			size += len(bucket)
		}
	}
	m.mu.Unlock()

	return Stats{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
		Size:   size,
	}
}
