package cache

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dnsscience/recursord/internal/wire"
)

// DefaultShardCount is used when Sharded is constructed with a zero
// ShardCount.
const DefaultShardCount = 256

// shard is one independently-locked partition of the hierarchical cache.
type shard struct {
	mu      sync.RWMutex
	entries map[string]map[uint16][]CachedRecord
}

// Sharded partitions the cache across N independently-locked shards
// (N a power of two), selected by hashing the domain name. It satisfies
// the same Get/Insert/InsertAll contract as Map — set-semantics dedup,
// lazy expiry on read, no background eviction scan — but spreads lock
// contention across shards for higher query rates, per spec.md §9's
// "partition by domain hash... for scale" recommendation.
type Sharded struct {
	shards    []*shard
	shardMask uint64

	hits   atomic.Uint64
	misses atomic.Uint64

	now func() time.Time
}

// NewSharded constructs a Sharded cache with shardCount shards, rounded
// up to the next power of two. A shardCount of 0 uses DefaultShardCount.
func NewSharded(shardCount int) *Sharded {
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	shardCount = nextPowerOfTwo(shardCount)

	c := &Sharded{
		shards:    make([]*shard, shardCount),
		shardMask: uint64(shardCount - 1),
		now:       time.Now,
	}
	for i := range c.shards {
		c.shards[i] = &shard{entries: make(map[string]map[uint16][]CachedRecord)}
	}
	return c
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (c *Sharded) shardFor(name string) *shard {
	idx := wire.HashQuery(name, 0, 0) & c.shardMask
	return c.shards[idx]
}

// Get returns all non-expired records at (name, qtype).
func (c *Sharded) Get(name string, qtype wire.QueryType) ([]wire.ResourceRecord, bool) {
	key := strings.ToLower(name)
	s := c.shardFor(key)

	s.mu.RLock()
	byType, ok := s.entries[key]
	if !ok {
		s.mu.RUnlock()
		c.misses.Add(1)
		return nil, false
	}
	bucket, ok := byType[qtype.Code()]
	if !ok {
		s.mu.RUnlock()
		c.misses.Add(1)
		return nil, false
	}

	now := c.now()
	out := make([]wire.ResourceRecord, 0, len(bucket))
	for _, rec := range bucket {
		if !rec.Expired(now) {
			out = append(out, rec.Record)
		}
	}
	s.mu.RUnlock()

	if len(out) == 0 {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return out, true
}

// Insert stores a batch of same-name records in the shard that name
// hashes to, deduplicating by wire-level record identity.
func (c *Sharded) Insert(records []wire.ResourceRecord) {
	if len(records) == 0 {
		return
	}

	now := c.now()
	key := strings.ToLower(records[0].Name)
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	byType, ok := s.entries[key]
	if !ok {
		byType = make(map[uint16][]CachedRecord)
		s.entries[key] = byType
	}

	for _, rr := range records {
		bucket := byType[rr.Type.Code()]
		bucket = upsert(bucket, rr, now)
		byType[rr.Type.Code()] = bucket
	}
}

// InsertAll groups the message's answer, authority, and additional
// sections by name before inserting each group, so a single shard
// insert never mixes records from distinct names.
func (c *Sharded) InsertAll(msg *wire.Message) {
	all := make([]wire.ResourceRecord, 0, len(msg.Answers)+len(msg.Authority)+len(msg.Additional))
	all = append(all, msg.Answers...)
	all = append(all, msg.Authority...)
	all = append(all, msg.Additional...)

	for _, group := range GroupByName(all) {
		c.Insert(group)
	}
}

// Stats reports current hit/miss/size counters, summed across shards.
func (c *Sharded) Stats() Stats {
	size := 0
	for _, s := range c.shards {
		s.mu.RLock()
		for _, byType := range s.entries {
			for _, bucket := range byType {
				size += len(bucket)
			}
		}
		s.mu.RUnlock()
	}

	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   size,
	}
}
