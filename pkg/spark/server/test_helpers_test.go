package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/yourusername/spark/pkg/spark/router"
)

// mockConn implements net.Conn for testing
type mockConn struct {
	readData  *strings.Reader
	writeData *strings.Builder
	closed    bool
	deadline  time.Time
	mu        sync.Mutex
}

func newMockConn(data string) *mockConn {
	return &mockConn{
		readData:  strings.NewReader(data),
		writeData: &strings.Builder{},
	}
}

func (m *mockConn) Read(b []byte) (n int, err error) {
	return m.readData.Read(b)
}

func (m *mockConn) Write(b []byte) (n int, err error) {
	return m.writeData.Write(b)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4221}
}

func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}
}

func (m *mockConn) SetDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

func (m *mockConn) SetReadDeadline(t time.Time) error {
	return m.SetDeadline(t)
}

func (m *mockConn) SetWriteDeadline(t time.Time) error {
	return m.SetDeadline(t)
}

func (m *mockConn) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) GetWritten() string {
	return m.writeData.String()
}

// serveOne runs conn through handleConnection the way Serve would.
func serveOne(s *Server, conn net.Conn) {
	s.wg.Add(1)
	s.trackConnection(conn)
	s.handleConnection(conn)
}

// startServer serves cfg on an in-memory listener until the test ends.
func startServer(t *testing.T, cfg Config) (*Server, *fasthttputil.InmemoryListener) {
	t.Helper()

	if cfg.Handler == nil {
		cfg.Handler = router.New(router.DefaultConfig()).Handler()
	}

	ln := fasthttputil.NewInmemoryListener()
	srv := New(cfg)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	t.Cleanup(func() {
		srv.Close()
		if err := <-errc; err != nil {
			t.Errorf("Serve returned %v", err)
		}
	})
	return srv, ln
}

// roundTrip writes each chunk as a separate Write and reads until the server
// closes the connection.
func roundTrip(t *testing.T, ln *fasthttputil.InmemoryListener, chunks ...string) string {
	t.Helper()

	conn, err := ln.Dial()
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	for _, chunk := range chunks {
		if _, err := conn.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	return string(resp)
}

// drain waits for every in-flight connection so Stats are settled.
func drain(t *testing.T, srv *Server) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
}
