package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/slabkit"
	"github.com/hupe1980/slabkit/alloc"
	"github.com/hupe1980/slabkit/internal/stress"
	"github.com/hupe1980/slabkit/resource"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	workers      int
	objects      int
	iterations   int
	seed         int64
	rate         int64
	memoryLimit  int64
	poolCapacity int
	jsonOut      bool
	verbose      bool
	metricsAddr  string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "slabstress",
		Short: "Stress slabkit arenas and allocators",
		Long: `slabstress runs closed-loop concurrent workloads against the slabkit
generational arena and size-class allocator, then audits their free lists.
Every worker returns everything it took, so a correct run ends with no live
objects and a clean audit.`,
		Version:      "0.1.0",
		SilenceUsage: true,
	}

	d := stress.DefaultConfig
	flags := cmd.PersistentFlags()
	flags.IntVar(&opts.workers, "workers", d.Workers, "Concurrent workers")
	flags.IntVar(&opts.objects, "objects", d.Objects, "Objects each worker holds per iteration")
	flags.IntVar(&opts.iterations, "iterations", d.Iterations, "Iterations per worker")
	flags.Int64Var(&opts.seed, "seed", d.Seed, "Base random seed")
	flags.Int64Var(&opts.rate, "rate", 0, "Operation rate limit per second (0 = unlimited)")
	flags.Int64Var(&opts.memoryLimit, "memory-limit", 0, "Memory budget in bytes (0 = unlimited)")
	flags.IntVar(&opts.poolCapacity, "pool-capacity", 0, "Blocks per size-class pool (0 = defaults)")
	flags.BoolVar(&opts.jsonOut, "json", false, "Output in JSON format")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")

	cmd.AddCommand(newArenaCmd(opts), newAllocCmd(opts))
	return cmd
}

func execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *globalOptions) config() stress.Config {
	return stress.Config{
		Workers:    o.workers,
		Objects:    o.objects,
		Iterations: o.iterations,
		MaxSize:    stress.DefaultConfig.MaxSize,
		Seed:       o.seed,
	}
}

// env is everything a workload needs, built from the global flags.
type env struct {
	rt       *slabkit.Runtime
	rc       *resource.Controller
	shutdown func()
}

func (o *globalOptions) setup() (*env, error) {
	if err := o.config().Validate(); err != nil {
		return nil, err
	}

	logger := slabkit.NewTextLogger(slog.LevelWarn)
	if o.verbose {
		logger = slabkit.NewTextLogger(slog.LevelDebug)
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:     o.memoryLimit,
		MaxBackgroundWorkers: int64(o.workers),
		OpsLimitPerSec:       o.rate,
	})

	rtOpts := []slabkit.Option{
		slabkit.WithLogger(logger),
		slabkit.WithResourceController(rc),
	}
	if o.poolCapacity > 0 {
		var c alloc.Capacities
		for i := range c {
			c[i] = o.poolCapacity
		}
		rtOpts = append(rtOpts, slabkit.WithCapacities(c))
	}

	shutdown := func() {}
	if o.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		pc, err := slabkit.NewPrometheusCollector(reg, "")
		if err != nil {
			return nil, err
		}
		stop, err := serveMetrics(o.metricsAddr, reg, logger)
		if err != nil {
			return nil, err
		}
		shutdown = stop
		rtOpts = append(rtOpts, slabkit.WithMetricsCollector(pc))
	}

	rt, err := slabkit.New(rtOpts...)
	if err != nil {
		shutdown()
		return nil, err
	}

	return &env{rt: rt, rc: rc, shutdown: shutdown}, nil
}

func (e *env) close() error {
	err := e.rt.Close()
	e.shutdown()
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slabkit.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}

func printReport(w io.Writer, r stress.Report, jsonOut bool) error {
	if jsonOut {
		b, err := gojson.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	_, err := fmt.Fprintf(w, `workload:    %s
workers:     %d
objects:     %d
iterations:  %d
operations:  %d
retries:     %d
failures:    %d
duration:    %s
ops/sec:     %.0f
audit:       %s
`, r.Workload, r.Workers, r.Objects, r.Iterations, r.Operations, r.Retries,
		r.Failures, r.Duration, r.OpsPerSec, r.Audit)
	return err
}
