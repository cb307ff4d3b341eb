// Command spark serves the greeting, echo, user-agent and file routes over
// HTTP/1.1, one request per connection.
//
// Usage:
//
//	spark [--directory DIR] [--addr HOST:PORT] [--metrics-addr HOST:PORT] [--log-format json|text]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/spark/pkg/spark/middleware"
	"github.com/yourusername/spark/pkg/spark/router"
	"github.com/yourusername/spark/pkg/spark/server"
	"github.com/yourusername/spark/pkg/spark/storage"
)

const shutdownTimeout = 5 * time.Second

// options holds the parsed command line.
type options struct {
	directory   string
	addr        string
	metricsAddr string
	logFormat   string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("spark", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.directory, "directory", "", "directory served under /files/ (created if missing; omit to disable)")
	fs.StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint (omit to disable)")
	fs.StringVar(&opts.logFormat, "log-format", middleware.FormatJSON, "request log format: json or text")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	var err error
	switch {
	case fs.NArg() > 0:
		err = fmt.Errorf("unexpected arguments: %v", fs.Args())
	case opts.logFormat != middleware.FormatJSON && opts.logFormat != middleware.FormatText:
		err = fmt.Errorf("invalid --log-format %q (want json or text)", opts.logFormat)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		fs.Usage()
	}
	return opts, err
}

// buildHandler wires storage, router and middleware from opts.
func buildHandler(opts options, logOutput io.Writer) (router.Handler, error) {
	cfg := router.DefaultConfig()

	if opts.directory != "" {
		dir, err := storage.NewDir(opts.directory, storage.Options{Create: true})
		if err != nil {
			return nil, err
		}
		cfg.Storage = dir
	}

	r := router.New(cfg)
	return middleware.Chain(r.Handler(),
		middleware.LoggerWithConfig(middleware.LoggerConfig{
			Output: logOutput,
			Format: opts.logFormat,
		}),
		middleware.Recovery(),
	), nil
}

func newMetricsServer(addr string, metrics *server.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func run(ctx context.Context, opts options) error {
	handler, err := buildHandler(opts, os.Stdout)
	if err != nil {
		return err
	}

	cfg := server.DefaultConfig()
	cfg.Addr = opts.addr
	cfg.Handler = handler

	var metricsSrv *http.Server
	if opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		cfg.Metrics = server.NewMetrics(reg)
		metricsSrv = newMetricsServer(opts.metricsAddr, cfg.Metrics)
	}

	srv := server.New(cfg)

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}
	log.Printf("spark: listening on %s", ln.Addr())
	if opts.directory != "" {
		log.Printf("spark: serving files from %s", opts.directory)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Serve(ln)
	})

	if metricsSrv != nil {
		g.Go(func() error {
			log.Printf("spark: metrics on %s/metrics", metricsSrv.Addr)
			if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Printf("spark: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("metrics shutdown: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("spark: %v", err)
	}
}
