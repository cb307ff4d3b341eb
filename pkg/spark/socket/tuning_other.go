//go:build !linux && !darwin

package socket

// applyOptions is a no-op on platforms without specific optimizations.
func applyOptions(fd int, cfg *Config) error {
	return nil
}
