// Package server implements the client-facing UDP accept loop: decode,
// dispatch to the resolver through a bounded worker pool, encode,
// reply.
package server

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/dnsscience/recursord/internal/metrics"
	"github.com/dnsscience/recursord/internal/resolver"
	"github.com/dnsscience/recursord/internal/wire"
	"github.com/dnsscience/recursord/internal/worker"
)

// Config configures a Server.
type Config struct {
	ClientAddr    string // default "127.0.0.1:2053", spec.md §4.5
	Resolver      *resolver.Resolver
	Workers       int           // worker pool size, default runtime.NumCPU()*4
	QueueSize     int           // worker pool queue size, default Workers*100
	QueryDeadline time.Duration // overall per-query deadline, default 5s (spec.md §9)
	Logger        *slog.Logger
}

// Server binds the client-facing UDP socket and runs the accept loop.
type Server struct {
	conn          *net.UDPConn
	resolver      *resolver.Resolver
	pool          *worker.Pool
	queryDeadline time.Duration
	logger        *slog.Logger

	queries  atomic.Uint64
	answered atomic.Uint64
	nxdomain atomic.Uint64
	servfail atomic.Uint64
	formerr  atomic.Uint64
	notimp   atomic.Uint64
	dropped  atomic.Uint64
}

// New binds cfg.ClientAddr and constructs a Server ready to Run.
func New(cfg Config) (*Server, error) {
	if cfg.ClientAddr == "" {
		cfg.ClientAddr = "127.0.0.1:2053"
	}
	if cfg.QueryDeadline == 0 {
		cfg.QueryDeadline = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	addr, err := net.ResolveUDPAddr("udp", cfg.ClientAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	pool := worker.NewPool(worker.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
		PanicHandler: func(r interface{}) {
			cfg.Logger.Error("query handler panicked", "recover", r)
		},
	})

	return &Server{
		conn:          conn,
		resolver:      cfg.Resolver,
		pool:          pool,
		queryDeadline: cfg.QueryDeadline,
		logger:        cfg.Logger,
	}, nil
}

// Run accepts datagrams until ctx is canceled, dispatching each through
// the worker pool. It returns once the accept loop has stopped.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, wire.MaxMessageSize)
	for {
		n, clientAddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				s.logger.Warn("read from client socket failed", "error", err)
				continue
			}
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])

		job := worker.JobFunc(func(jobCtx context.Context) error {
			s.handle(jobCtx, datagram, clientAddr)
			return nil
		})
		if err := s.pool.SubmitAsync(ctx, job); err != nil {
			s.logger.Warn("dropping query: worker pool unavailable", "error", err)
			s.dropped.Add(1)
		}
	}
}

// handle decodes one client datagram, resolves it, and writes the
// encoded response back to the client. Codec errors on the inbound
// datagram are dropped silently (spec.md §7: avoid amplification).
func (s *Server) handle(ctx context.Context, datagram []byte, clientAddr *net.UDPAddr) {
	start := time.Now()

	query, err := wire.Decode(datagram)
	if err != nil {
		s.dropped.Add(1)
		return
	}

	s.queries.Add(1)

	queryCtx, cancel := context.WithTimeout(ctx, s.queryDeadline)
	defer cancel()

	resp := s.resolver.Resolve(queryCtx, query)
	s.recordOutcome(resp.Header.Rcode, start)

	out, err := wire.Encode(resp)
	if err != nil {
		s.logger.Warn("failed to encode response", "error", err)
		return
	}

	if _, err := s.conn.WriteToUDP(out, clientAddr); err != nil {
		s.logger.Warn("failed to write response to client", "error", err)
	}
}

func (s *Server) recordOutcome(rcode wire.Rcode, start time.Time) {
	switch rcode {
	case wire.RcodeNoError:
		s.answered.Add(1)
		metrics.ObserveResolution(metrics.OutcomeAnswered, start)
	case wire.RcodeNXDomain:
		s.nxdomain.Add(1)
		metrics.ObserveResolution(metrics.OutcomeNXDomain, start)
	case wire.RcodeFormErr:
		s.formerr.Add(1)
		metrics.ObserveResolution(metrics.OutcomeFormErr, start)
	case wire.RcodeNotImp:
		s.notimp.Add(1)
		metrics.ObserveResolution(metrics.OutcomeNotImp, start)
	default:
		s.servfail.Add(1)
		metrics.ObserveResolution(metrics.OutcomeServFail, start)
	}
}

// Stop closes the client socket, then closes the worker pool, which
// waits for queued and in-flight tasks to finish; their responses can no
// longer be written to the closed socket.
func (s *Server) Stop() error {
	s.conn.Close()
	return s.pool.Close()
}
