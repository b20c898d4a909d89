package resolver

import (
	"context"
	"testing"

	"github.com/dnsscience/recursord/internal/cache"
	"github.com/dnsscience/recursord/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 8: empty question.
func TestResolveEmptyQuestionReturnsFormErr(t *testing.T) {
	r := NewResolver(Config{Cache: cache.NewMap()})

	query := &wire.Message{Header: wire.NewHeader(5, true, false, wire.RcodeNoError)}
	resp := r.Resolve(context.Background(), query)

	assert.Equal(t, wire.RcodeFormErr, resp.Header.Rcode)
	assert.Equal(t, uint16(5), resp.Header.ID)
}

// Scenario 7: unknown query type, no upstream traffic.
func TestResolveUnknownTypeReturnsNotImp(t *testing.T) {
	r := NewResolver(Config{Cache: cache.NewMap()}) // upstream left nil: must not be touched

	question := wire.Question{Name: "example.com", Type: wire.NewQueryType(999), Class: 1}
	query := &wire.Message{
		Header:    wire.NewHeader(9, true, false, wire.RcodeNoError),
		Questions: []wire.Question{question},
	}

	resp := r.Resolve(context.Background(), query)

	assert.Equal(t, wire.RcodeNotImp, resp.Header.Rcode)
	require.Len(t, resp.Questions, 1)
	assert.Equal(t, "example.com", resp.Questions[0].Name)
	assert.Equal(t, uint16(999), resp.Questions[0].Type.Code())
}

func TestResolveCacheHitSynthesizesResponse(t *testing.T) {
	c := cache.NewMap()
	rr := wire.ResourceRecord{
		Name: "example.com", Type: wire.TypeA, Class: 1, TTL: 300,
		Data: wire.RDataA{IP: [4]byte{127, 0, 0, 1}},
	}
	c.Insert([]wire.ResourceRecord{rr})

	r := NewResolver(Config{Cache: c}) // upstream nil: cache hit must not touch it

	question := wire.Question{Name: "example.com", Type: wire.TypeA, Class: 1}
	query := &wire.Message{
		Header:    wire.NewHeader(11, true, false, wire.RcodeNoError),
		Questions: []wire.Question{question},
	}

	resp := r.Resolve(context.Background(), query)

	assert.Equal(t, wire.RcodeNoError, resp.Header.Rcode)
	assert.True(t, resp.Header.QR)
	assert.True(t, resp.Header.RA)
	require.Len(t, resp.Answers, 1)
	assert.True(t, resp.Answers[0].Equal(rr))
}

func TestIterativeCacheResolveFallsBackToRootHints(t *testing.T) {
	r := NewResolver(Config{Cache: cache.NewMap()})
	candidates := r.iterativeCacheResolve("example.com")
	assert.Equal(t, DefaultRootHints, candidates)
}

func TestIterativeCacheResolveUsesMostSpecificCachedDelegation(t *testing.T) {
	c := cache.NewMap()
	c.Insert([]wire.ResourceRecord{{
		Name: "example.com", Type: wire.TypeNS, TTL: 300, Data: wire.RDataNS{Host: "ns1.example.com"},
	}})
	c.Insert([]wire.ResourceRecord{{
		Name: "ns1.example.com", Type: wire.TypeA, TTL: 300, Data: wire.RDataA{IP: [4]byte{10, 0, 0, 1}},
	}})

	r := NewResolver(Config{Cache: c})
	candidates := r.iterativeCacheResolve("www.example.com")
	require.Len(t, candidates, 1)
	assert.Equal(t, "10.0.0.1", candidates[0])
}

func TestRecursiveLookupFailsWithNoProgressOnEmptyCandidates(t *testing.T) {
	r := NewResolver(Config{Cache: cache.NewMap()})
	query := wire.NewQuery(1, "example.com", wire.TypeA, 1, false)
	_, err := r.recursiveLookup(context.Background(), query, nil, 0)
	assert.ErrorIs(t, err, ErrNoProgress)
}

func TestRecursiveLookupFailsWithMaxDepth(t *testing.T) {
	r := NewResolver(Config{Cache: cache.NewMap(), MaxDepth: 2})
	query := wire.NewQuery(1, "example.com", wire.TypeA, 1, false)
	_, err := r.recursiveLookup(context.Background(), query, DefaultRootHints, 3)
	assert.ErrorIs(t, err, ErrMaxDepth)
}
