// Package socket applies TCP options to accepted connections.
//
// Options are set through golang.org/x/sys/unix on Linux and Darwin. Other
// platforms, and connections that do not expose a file descriptor (pipes,
// in-memory listeners), are left untouched.
package socket

import (
	"net"
	"syscall"
)

// Config represents socket tuning configuration.
// Zero values mean "use system defaults".
type Config struct {
	// TCP_NODELAY - Disable Nagle's algorithm
	NoDelay bool

	// SO_RCVBUF - Receive buffer size in bytes (0 = system default)
	RecvBuffer int

	// SO_SNDBUF - Send buffer size in bytes (0 = system default)
	SendBuffer int

	// TCP_QUICKACK - Send immediate ACKs (Linux only)
	QuickAck bool

	// SO_KEEPALIVE - Enable TCP keepalive
	KeepAlive bool
}

// DefaultConfig returns the configuration used by the server when none is given.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:    true,
		RecvBuffer: 0,
		SendBuffer: 0,
		QuickAck:   true,
		KeepAlive:  false,
	}
}

// LowLatencyConfig trades buffer space for latency.
func LowLatencyConfig() *Config {
	return &Config{
		NoDelay:    true,
		RecvBuffer: 128 * 1024,
		SendBuffer: 128 * 1024,
		QuickAck:   true,
	}
}

// Apply applies socket tuning options to a connection.
// Returns an error only if TCP_NODELAY cannot be set; the remaining options
// are best effort.
//
// Call it immediately after Accept.
func Apply(conn net.Conn, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	sc, ok := conn.(syscall.Conn)
	if !ok {
		// Not backed by a socket, nothing to tune
		return nil
	}

	rawConn, err := sc.SyscallConn()
	if err != nil {
		return err
	}

	var optErr error
	err = rawConn.Control(func(fd uintptr) {
		optErr = applyOptions(int(fd), cfg)
	})
	if err != nil {
		return err
	}
	return optErr
}
