//go:build darwin

package socket

// applyPlatformOptions is a no-op; Darwin has no TCP_QUICKACK.
func applyPlatformOptions(fd int, cfg *Config) {}
