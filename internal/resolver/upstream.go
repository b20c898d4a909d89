package resolver

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dnsscience/recursord/internal/wire"
)

// Conn is the resolver's dedicated upstream UDP socket. A single
// background goroutine reads every incoming datagram and demultiplexes
// it to the waiting caller by transaction id via a correlation map —
// per spec.md §5's requirement that replies be matched to queries by id
// rather than by socket-level ordering, since every in-flight query
// shares this one socket.
type Conn struct {
	pconn *net.UDPConn

	mu      sync.Mutex
	pending map[uint16]chan reply

	limiters *outboundLimiters

	closeOnce sync.Once
	closed    chan struct{}
}

type reply struct {
	msg *wire.Message
	err error
}

// NewConn opens the upstream socket bound to laddr (spec.md §6 default
// "0.0.0.0:3267") and starts its read loop.
func NewConn(laddr string, rps float64, burst int) (*Conn, error) {
	addr, err := net.ResolveUDPAddr("udp", laddr)
	if err != nil {
		return nil, err
	}
	pconn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		pconn:    pconn,
		pending:  make(map[uint16]chan reply),
		limiters: newOutboundLimiters(rps, burst),
		closed:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *Conn) readLoop() {
	buf := make([]byte, wire.MaxMessageSize)
	for {
		n, _, err := c.pconn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-c.closed:
				return
			default:
				continue
			}
		}

		msg, decodeErr := wire.Decode(buf[:n])

		c.mu.Lock()
		ch, ok := c.pending[headerIDOf(buf[:n])]
		if ok {
			delete(c.pending, headerIDOf(buf[:n]))
		}
		c.mu.Unlock()

		if !ok {
			continue // no one waiting on this transaction id; drop
		}
		ch <- reply{msg: msg, err: decodeErr}
	}
}

func headerIDOf(buf []byte) uint16 {
	if len(buf) < 2 {
		return 0
	}
	return uint16(buf[0])<<8 | uint16(buf[1])
}

// Exchange sends query to (ip, 53), waits up to timeout for a reply
// correlated by transaction id, and decodes it. Returns
// ErrUpstreamThrottled without sending if the per-nameserver limiter
// rejects the attempt.
func (c *Conn) Exchange(ctx context.Context, ip string, query *wire.Message, timeout time.Duration) (*wire.Message, error) {
	if !c.limiters.allow(ip) {
		return nil, ErrUpstreamThrottled
	}

	buf, err := wire.Encode(query)
	if err != nil {
		return nil, err
	}

	ch := make(chan reply, 1)
	id := query.Header.ID

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	dst := &net.UDPAddr{IP: net.ParseIP(ip), Port: 53}
	if _, err := c.pconn.WriteToUDP(buf, dst); err != nil {
		return nil, ErrUpstreamIOError
	}

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, ErrUpstreamIOError
		}
		return r.msg, nil
	case <-time.After(timeout):
		return nil, ErrUpstreamTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close releases the upstream socket, dropping any in-flight waiters.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.pconn.Close()
}
