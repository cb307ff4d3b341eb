package middleware

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/yourusername/spark/pkg/spark/http11"
	"github.com/yourusername/spark/pkg/spark/router"
)

// Log formats accepted by LoggerConfig.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Logger returns a middleware that logs one line per request to stdout as JSON.
//
// Output:
//
//	{"time":"2025-11-13T10:30:00Z","method":"GET","path":"/echo/abc","status":200,"duration_ms":0.04,"bytes":3}
func Logger() router.Middleware {
	return LoggerWithConfig(DefaultLoggerConfig())
}

// LoggerWithConfig returns a logger middleware with custom configuration.
//
// Example:
//
//	h := LoggerWithConfig(LoggerConfig{
//	    Output:    os.Stderr,
//	    Format:    "text",
//	    SkipPaths: []string{"/"},
//	})(r.Handler())
func LoggerWithConfig(config LoggerConfig) router.Middleware {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Format == "" {
		config.Format = FormatJSON
	}
	if config.TimeFormat == "" {
		config.TimeFormat = time.RFC3339
	}

	skipMap := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	return func(next router.Handler) router.Handler {
		return func(req *http11.Request) (*http11.Response, error) {
			if skipMap[req.Path] {
				return next(req)
			}

			start := time.Now()
			resp, err := next(req)
			duration := time.Since(start)

			status, size := 0, 0
			if resp != nil {
				status, size = resp.StatusCode, len(resp.Body)
			}

			if config.Format == FormatJSON {
				entry := LogEntry{
					Time:       start.Format(config.TimeFormat),
					Method:     req.MethodToken,
					Path:       req.Path,
					Status:     status,
					DurationMS: float64(duration.Microseconds()) / 1000.0,
					Bytes:      size,
					RemoteAddr: req.RemoteAddr,
				}
				if err != nil {
					entry.Error = err.Error()
				}
				logJSON(config.Output, entry)
			} else {
				logText(config.Output, req.MethodToken, req.Path, status, duration, err)
			}

			return resp, err
		}
	}
}

// LoggerConfig defines configuration for the logger middleware.
type LoggerConfig struct {
	// Output is where logs are written (default: stdout)
	Output io.Writer

	// Format is "json" or "text" (default: "json")
	Format string

	// SkipPaths are exact paths that are not logged
	SkipPaths []string

	// TimeFormat for the time field (default: RFC3339)
	TimeFormat string
}

// LogEntry is one structured request log line.
type LogEntry struct {
	Time       string  `json:"time"`
	Method     string  `json:"method"`
	Path       string  `json:"path"`
	Status     int     `json:"status"`
	DurationMS float64 `json:"duration_ms"`
	Bytes      int     `json:"bytes"`
	RemoteAddr string  `json:"remote_addr,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// DefaultLoggerConfig returns JSON logging to stdout.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Output:     os.Stdout,
		Format:     FormatJSON,
		TimeFormat: time.RFC3339,
	}
}

func logJSON(w io.Writer, entry LogEntry) {
	if err := json.NewEncoder(w).Encode(entry); err != nil {
		log.Printf("Failed to write log: %v", err)
	}
}

func logText(w io.Writer, method, path string, status int, duration time.Duration, err error) {
	var msg string
	if err != nil {
		msg = fmt.Sprintf("%s %s - %d - %v - ERROR: %v\n", method, path, status, duration, err)
	} else {
		msg = fmt.Sprintf("%s %s - %d - %v\n", method, path, status, duration)
	}

	if _, writeErr := io.WriteString(w, msg); writeErr != nil {
		log.Printf("Failed to write log: %v", writeErr)
	}
}
