package middleware

import (
	"fmt"
	"io"
	"log"
	"runtime/debug"

	"github.com/yourusername/spark/pkg/spark/http11"
	"github.com/yourusername/spark/pkg/spark/router"
)

// PanicError is returned in place of a handler that panicked.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("middleware: handler panic: %v", e.Value)
}

// Recovery returns a middleware that turns a panic in the handler chain into
// a bare 500 response and logs the panic with its stack trace.
func Recovery() router.Middleware {
	return RecoveryWithConfig(DefaultRecoveryConfig())
}

// RecoveryWithConfig returns a recovery middleware with custom configuration.
func RecoveryWithConfig(config RecoveryConfig) router.Middleware {
	if config.StackSize == 0 {
		config.StackSize = 4 << 10 // 4KB
	}

	return func(next router.Handler) router.Handler {
		return func(req *http11.Request) (resp *http11.Response, err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				if config.PrintStack {
					stack := debug.Stack()
					if len(stack) > config.StackSize {
						stack = stack[:config.StackSize]
					}
					if config.LogOutput != nil {
						fmt.Fprintf(config.LogOutput, "PANIC: %s %s: %v\n%s\n", req.MethodToken, req.Path, r, stack)
					} else {
						log.Printf("PANIC: %s %s: %v\n%s", req.MethodToken, req.Path, r, stack)
					}
				}

				resp, err = http11.Status(500), &PanicError{Value: r}
			}()

			return next(req)
		}
	}
}

// RecoveryConfig defines configuration for the recovery middleware.
type RecoveryConfig struct {
	// PrintStack enables stack trace printing (default: true)
	PrintStack bool

	// StackSize is the maximum stack trace size in bytes (default: 4KB)
	StackSize int

	// LogOutput is the custom log output (default: stdlib log)
	LogOutput io.Writer
}

// DefaultRecoveryConfig returns default recovery configuration.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		PrintStack: true,
		StackSize:  4 << 10,
	}
}
