// mongos - check and watch a MongoDB connection
//
// Configuration comes from MONGO_* environment variables, optionally
// overridden by a YAML file passed with --config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap/zapcore"

	"github.com/adrianmcphee/mongos"
)

func main() {
	if len(os.Args) < 2 {
		printHelp()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "ping":
		err = runPing(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "help", "--help", "-h":
		printHelp()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printHelp()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "mongos: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println(`mongos - check and watch a MongoDB connection

Usage:
  mongos ping [flags]     Connect, report the ready state, disconnect
  mongos watch [flags]    Hold a connection open and serve /metrics and /healthz

Common flags:
  --config string    YAML config file (default: environment only)
  --log-level string Production log level: debug, info, warn, error (default "info")
  --verbose          Development logging (overrides --log-level)

Ping flags:
  --timeout duration Give up waiting after this long (default 30s)

Watch flags:
  --listen string    Metrics listen address (default ":9216")

Environment:
  MONGO_HOST, MONGO_DB, MONGO_USERNAME, MONGO_PASSWORD,
  MONGO_AUTH_SOURCE, MONGO_APP_NAME, MONGO_CONNECT_TIMEOUT`)
}

type commonFlags struct {
	configPath string
	logLevel   string
	verbose    bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.StringVar(&c.logLevel, "log-level", "info", "Production log level")
	fs.BoolVar(&c.verbose, "verbose", false, "Development logging")
}

func (c *commonFlags) load() (mongos.Config, *mongos.ZapLogger, error) {
	cfg := mongos.ConfigFromEnv()
	if c.configPath != "" {
		var err error
		cfg, err = mongos.LoadConfigFile(c.configPath)
		if err != nil {
			return mongos.Config{}, nil, err
		}
	}

	var (
		logger *mongos.ZapLogger
		err    error
	)
	if c.verbose {
		logger, err = mongos.NewDevelopmentZapLogger()
	} else {
		level, perr := zapcore.ParseLevel(c.logLevel)
		if perr != nil {
			return mongos.Config{}, nil, fmt.Errorf("--log-level: %w", perr)
		}
		logger, err = mongos.NewProductionZapLogger(level)
	}
	if err != nil {
		return mongos.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger.With("pid", os.Getpid()), nil
}

func runPing(args []string) error {
	fs := flag.NewFlagSet("ping", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	timeout := fs.Duration("timeout", 30*time.Second, "Give up waiting after this long")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	db := mongos.New(cfg, mongos.WithLogger(logger))
	if err := db.Connect().Wait(ctx); err != nil {
		return fmt.Errorf("connect to %s: %w", db.Connection().Host(), err)
	}
	fmt.Printf("%s/%s %s in %s\n", db.Connection().Host(), cfg.Database, db.ReadyState(), time.Since(start).Round(time.Millisecond))

	return db.Close(ctx)
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	listen := fs.String("listen", ":9216", "Metrics listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, logger, err := common.load()
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := mongos.NewPrometheusMetrics(registry)

	db := mongos.New(cfg, mongos.WithLogger(logger), mongos.WithMetrics(metrics))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		state := db.ReadyState()
		if state != mongos.Connected {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		fmt.Fprintln(w, state)
	})

	server := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := db.Connect().Wait(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("initial connect failed", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", "listen", *listen)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}
	return db.Close(shutdownCtx)
}
