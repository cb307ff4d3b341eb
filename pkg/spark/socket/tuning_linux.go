//go:build linux

package socket

import "golang.org/x/sys/unix"

// applyPlatformOptions applies Linux-specific socket options.
//
// TCP_QUICKACK is not sticky: the kernel may fall back to delayed ACKs
// later. One request per connection makes a single set sufficient.
func applyPlatformOptions(fd int, cfg *Config) {
	if cfg.QuickAck {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}
}
