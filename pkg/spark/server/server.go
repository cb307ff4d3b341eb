// Package server accepts TCP connections and serves exactly one request on
// each: read, dispatch, write, close.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/spark/pkg/spark/http11"
	"github.com/yourusername/spark/pkg/spark/router"
	"github.com/yourusername/spark/pkg/spark/socket"
)

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = "localhost:4221"

// Config holds server configuration
type Config struct {
	// Addr is the TCP address to listen on
	// Default: "localhost:4221"
	Addr string

	// Handler produces the response for every parsed request (required).
	// Usually router.Handler wrapped in middleware.
	Handler router.Handler

	// ReadTimeout bounds reading the request, body continuation included
	// Default: 10 seconds
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response
	// Default: 10 seconds
	WriteTimeout time.Duration

	// ReadBufferSize is the largest request accepted, headers and body
	// together. Larger declared bodies get 413.
	// Default: 4096 bytes
	ReadBufferSize int

	// MaxConcurrentConnections caps connections served at once
	// 0 means unlimited
	MaxConcurrentConnections int

	// Socket options applied to each accepted connection
	// nil means socket.DefaultConfig()
	Socket *socket.Config

	// Metrics receives per-connection and per-request observations
	// nil disables metrics
	Metrics *Metrics

	// ErrorLog receives accept and connection errors
	// nil means the standard logger
	ErrorLog *log.Logger
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadBufferSize: http11.DefaultReadBufferSize,
		Socket:         socket.DefaultConfig(),
	}
}

// Stats represents server statistics
type Stats struct {
	// Total number of connections accepted
	TotalConnections atomic.Uint64

	// Current number of active connections
	ActiveConnections atomic.Int64

	// Total number of requests dispatched to the handler
	TotalRequests atomic.Uint64

	// Requests the parser rejected (answered with 404)
	MalformedRequests atomic.Uint64

	// Total number of bytes written
	BytesWritten atomic.Uint64

	// Failed accepts, reads and writes
	ConnectionErrors atomic.Uint64

	// Server start time
	StartTime time.Time
}

// Duration returns the time since the server started
func (s *Stats) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// RequestsPerSecond returns the average requests per second
func (s *Stats) RequestsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.TotalRequests.Load()) / duration
}

// Server is a one-request-per-connection HTTP/1.1 server.
type Server struct {
	config   Config
	listener net.Listener
	stats    Stats

	// Shutdown coordination
	mu       sync.Mutex
	shutdown atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup

	// Connection tracking
	conns   map[net.Conn]struct{}
	connsMu sync.Mutex

	// Connection semaphore (for limiting concurrent connections)
	connSem chan struct{}
}

// New creates a server. It panics if config.Handler is nil.
func New(config Config) *Server {
	if config.Handler == nil {
		panic("server: Handler is required")
	}

	// Apply defaults
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.ReadBufferSize == 0 {
		config.ReadBufferSize = http11.DefaultReadBufferSize
	}
	if config.Socket == nil {
		config.Socket = socket.DefaultConfig()
	}

	s := &Server{
		config: config,
		done:   make(chan struct{}),
		conns:  make(map[net.Conn]struct{}),
	}
	s.stats.StartTime = time.Now()

	if config.MaxConcurrentConnections > 0 {
		s.connSem = make(chan struct{}, config.MaxConcurrentConnections)
	}

	return s
}

// Stats returns server statistics
func (s *Server) Stats() *Stats {
	return &s.stats
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe listens on the configured address and serves requests
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on l until Shutdown or Close.
// It returns nil after a shutdown and the accept error if l fails on its own.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.shutdown.Load() {
		s.mu.Unlock()
		l.Close()
		return nil
	}
	s.listener = l
	s.mu.Unlock()
	defer l.Close()

	var backoff time.Duration
	for {
		// Acquire connection slot if limit is set
		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.done:
				return nil
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if s.connSem != nil {
				<-s.connSem
			}
			if s.shutdown.Load() {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			s.stats.ConnectionErrors.Add(1)
			s.config.Metrics.connError()
			backoff = nextBackoff(backoff)
			s.logf("server: accept error: %v; retrying in %v", err, backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		// Registered under mu so Shutdown never waits on a half-added connection
		s.mu.Lock()
		if s.shutdown.Load() {
			s.mu.Unlock()
			conn.Close()
			if s.connSem != nil {
				<-s.connSem
			}
			return nil
		}
		s.wg.Add(1)
		s.trackConnection(conn)
		s.mu.Unlock()

		s.stats.TotalConnections.Add(1)
		go s.handleConnection(conn)
	}
}

// nextBackoff doubles d between 5ms and 1s.
func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}

// handleConnection serves the single request carried by conn and closes it.
// The caller has already done wg.Add(1) and trackConnection.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()
	defer s.untrackConnection(conn)

	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	s.config.Metrics.connOpened()
	defer s.config.Metrics.connClosed()

	if err := socket.Apply(conn, s.config.Socket); err != nil {
		s.logf("server: socket tuning for %s: %v", conn.RemoteAddr(), err)
	}

	start := time.Now()
	if s.config.ReadTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.config.ReadTimeout))
	}
	if s.config.WriteTimeout > 0 {
		conn.SetWriteDeadline(start.Add(s.config.WriteTimeout))
	}

	req, err := http11.ReadRequest(conn, s.config.ReadBufferSize)
	if err != nil {
		s.rejectRequest(conn, err)
		return
	}
	req.RemoteAddr = conn.RemoteAddr().String()

	s.stats.TotalRequests.Add(1)
	resp, herr := s.config.Handler(req)
	if resp == nil {
		resp = http11.Status(500)
	}
	if herr != nil && resp.StatusCode >= 500 {
		s.logf("server: %s %s from %s: %v", req.MethodToken, req.Path, req.RemoteAddr, herr)
	}

	n, err := resp.WriteTo(conn)
	s.stats.BytesWritten.Add(uint64(n))
	if err != nil {
		s.stats.ConnectionErrors.Add(1)
		s.config.Metrics.connError()
		s.logf("server: write to %s: %v", conn.RemoteAddr(), err)
	}

	s.config.Metrics.request(req.Method.String(), resp.StatusCode, n, time.Since(start).Seconds())
}

// rejectRequest answers a request that never reached the handler.
// Empty requests and I/O failures get no response at all.
func (s *Server) rejectRequest(conn net.Conn, err error) {
	var resp *http11.Response
	switch {
	case errors.Is(err, http11.ErrEmptyRequest):
		return
	case errors.Is(err, http11.ErrMalformedRequest):
		s.stats.MalformedRequests.Add(1)
		s.config.Metrics.malformed()
		resp = http11.Status(404)
	case errors.Is(err, http11.ErrRequestTooLarge):
		resp = http11.Status(413)
	default:
		s.stats.ConnectionErrors.Add(1)
		s.config.Metrics.connError()
		s.logf("server: read from %s: %v", conn.RemoteAddr(), err)
		return
	}

	n, werr := resp.WriteTo(conn)
	s.stats.BytesWritten.Add(uint64(n))
	if werr != nil {
		s.stats.ConnectionErrors.Add(1)
		s.config.Metrics.connError()
	}
}

// trackConnection adds a connection to tracking
func (s *Server) trackConnection(conn net.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	s.stats.ActiveConnections.Add(1)
}

// untrackConnection removes a connection from tracking
func (s *Server) untrackConnection(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()

	s.stats.ActiveConnections.Add(-1)
}

// closeAllConnections closes all tracked connections
func (s *Server) closeAllConnections() {
	s.connsMu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connsMu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// stop marks the server as shut down and closes the listener.
// Reports false if it was already stopped.
func (s *Server) stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shutdown.CompareAndSwap(false, true) {
		return false
	}
	if s.listener != nil {
		s.listener.Close()
	}
	close(s.done)
	return true
}

// Shutdown stops accepting connections and waits for in-flight ones to
// finish. When ctx expires first, the remaining connections are closed and
// ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.stop() {
		return nil
	}

	shutdownComplete := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		return nil
	case <-ctx.Done():
		s.closeAllConnections()
		return ctx.Err()
	}
}

// Close immediately closes the listener and all active connections
func (s *Server) Close() error {
	if !s.stop() {
		return nil
	}

	s.closeAllConnections()
	s.wg.Wait()
	return nil
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.config.ErrorLog != nil {
		s.config.ErrorLog.Printf(format, args...)
		return
	}
	log.Printf(format, args...)
}
