package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/erazemk/vendart/internal/api"
	"github.com/erazemk/vendart/internal/db"
	"github.com/erazemk/vendart/internal/gallery"
	"github.com/erazemk/vendart/internal/store"
	"github.com/erazemk/vendart/internal/studio"
	"github.com/erazemk/vendart/internal/vending"
	"github.com/erazemk/vendart/internal/web"
)

type config struct {
	dbPath  string
	addr    string
	backend string
	logPath string
	rotate  time.Duration
	debug   bool
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseFlags(args []string) (config, error) {
	fs := flag.NewFlagSet("vendart", flag.ContinueOnError)

	var cfg config
	dbDefault := envOr("VENDART_DB", "vendart.sqlite3")
	fs.StringVar(&cfg.dbPath, "db", dbDefault, "")
	fs.StringVar(&cfg.dbPath, "d", dbDefault, "")

	addrDefault := envOr("VENDART_ADDR", ":8080")
	fs.StringVar(&cfg.addr, "addr", addrDefault, "")
	fs.StringVar(&cfg.addr, "a", addrDefault, "")

	backendDefault := envOr("VENDART_BACKEND", "sqlite")
	fs.StringVar(&cfg.backend, "backend", backendDefault, "")
	fs.StringVar(&cfg.backend, "b", backendDefault, "")

	logDefault := envOr("VENDART_LOG", "")
	fs.StringVar(&cfg.logPath, "log", logDefault, "")
	fs.StringVar(&cfg.logPath, "l", logDefault, "")

	fs.DurationVar(&cfg.rotate, "rotate", gallery.DefaultInterval, "")
	fs.BoolVar(&cfg.debug, "debug", false, "")

	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: vendart [flags]

Flags:
  -d, -db <path>            database file path (default: vendart.sqlite3)
  -a, -addr <host:port>     listen address (default: :8080)
  -b, -backend <kind>       storage backend: sqlite or bolt (default: sqlite)
  -l, -log <path>           rotated log file path (default: stdout/stderr only)
  -rotate <duration>        gallery rotation interval (default: 4s)
  -debug                    log at debug level
  -h, -help                 show this help and exit

Environment (also read from .env):
  VENDART_DB, VENDART_ADDR, VENDART_BACKEND, VENDART_LOG
`)
	}

	// Parse calls Usage itself on failure.
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return cfg, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}
	if cfg.backend != "sqlite" && cfg.backend != "bolt" {
		return cfg, fmt.Errorf("unknown backend %q", cfg.backend)
	}
	return cfg, nil
}

// openBackend opens the configured key-value store. The returned func closes it.
func openBackend(cfg config) (store.Backend, func(), error) {
	if cfg.backend == "bolt" {
		bdb, err := db.OpenBolt(cfg.dbPath)
		if err != nil {
			return nil, nil, err
		}
		return &store.BoltBackend{DB: bdb}, func() { bdb.Close() }, nil
	}

	sdb, err := db.Open(cfg.dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(sdb); err != nil {
		sdb.Close()
		return nil, nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &store.SQLiteBackend{DB: sdb}, func() { sdb.Close() }, nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	closeLog := setupLogger(cfg.logPath, cfg.debug)
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config) error {
	backend, closeBackend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("opening %s backend: %w", cfg.backend, err)
	}
	defer closeBackend()
	slog.Info("storage ready", "backend", cfg.backend, "path", cfg.dbPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	items := store.LoadItems(ctx, backend)

	secret, err := store.GetReceiptSecret(ctx, backend)
	if err != nil {
		return fmt.Errorf("loading receipt secret: %w", err)
	}

	engine := gallery.NewEngine(cfg.rotate)
	engine.Follow(items)
	go engine.Run(ctx)

	st := studio.New(items)
	machine := vending.New(items, &vending.SimulatedGateway{Delay: vending.DefaultPaymentDelay}, secret)

	apiRouter := api.NewRouter(api.Deps{
		Items:         items,
		Studio:        st,
		Gallery:       engine,
		Machine:       machine,
		ReceiptSecret: secret,
	})
	webRouter, err := web.NewRouter(&web.Server{
		Items:   items,
		Studio:  st,
		Gallery: engine,
		Machine: machine,
	})
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", webRouter)

	server := &http.Server{
		Addr:              cfg.addr,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.addr, "items", len(items.List()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	slog.Info("server stopped, closing storage")
	return nil
}
