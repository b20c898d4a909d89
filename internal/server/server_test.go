package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dnsscience/recursord/internal/cache"
	"github.com/dnsscience/recursord/internal/resolver"
	"github.com/dnsscience/recursord/internal/wire"
	"github.com/stretchr/testify/require"
)

// TestServerAnswersFromCacheWithoutUpstream exercises the full client
// round trip — send a wire-encoded query, read a wire-encoded response —
// with the answer satisfied entirely from a pre-seeded cache so the
// test never touches the network beyond loopback.
func TestServerAnswersFromCacheWithoutUpstream(t *testing.T) {
	c := cache.NewMap()
	c.Insert([]wire.ResourceRecord{{
		Name: "example.com", Type: wire.TypeA, Class: 1, TTL: 300,
		Data: wire.RDataA{IP: [4]byte{127, 0, 0, 1}},
	}})

	upstream, err := resolver.NewConn("127.0.0.1:0", 0, 0)
	require.NoError(t, err)
	defer upstream.Close()

	r := resolver.NewResolver(resolver.Config{Cache: c, Upstream: upstream})

	srv, err := New(Config{ClientAddr: "127.0.0.1:0", Resolver: r})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	defer srv.Stop()

	clientAddr := srv.conn.LocalAddr().(*net.UDPAddr)

	query := wire.NewQuery(77, "example.com", wire.TypeA, 1, true)
	buf, err := wire.Encode(query)
	require.NoError(t, err)

	conn, err := net.DialUDP("udp", nil, clientAddr)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(buf)
	require.NoError(t, err)

	respBuf := make([]byte, wire.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(respBuf)
	require.NoError(t, err)

	resp, err := wire.Decode(respBuf[:n])
	require.NoError(t, err)

	require.Equal(t, uint16(77), resp.Header.ID)
	require.Equal(t, wire.RcodeNoError, resp.Header.Rcode)
	require.Len(t, resp.Answers, 1)

	a, ok := resp.Answers[0].Data.(wire.RDataA)
	require.True(t, ok)
	require.Equal(t, [4]byte{127, 0, 0, 1}, a.IP)
}
