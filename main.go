package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/danielhkuo/pollsync/cliparse"
	"github.com/danielhkuo/pollsync/db"
	"github.com/danielhkuo/pollsync/notion"
	"github.com/danielhkuo/pollsync/router"
	"github.com/danielhkuo/pollsync/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// run serves until shutdown. Fatal errors are logged before it returns so
// the deferred closers flush them.
func run(args []string) error {
	// Optional .env next to the binary; real environment wins
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		return err
	}

	// Configure logging
	closeLog, err := setupLogging(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FILE"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup: %v\n", err)
		return err
	}
	defer closeLog()

	// Parse configuration
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		return err
	}
	slog.Info("Configuration loaded", "config", cfg)

	// Open the record store
	s, closeStore, err := openStore(cfg)
	if err != nil {
		slog.Error("record store setup failed", "backend", cfg.DatabaseType, "error", err)
		return err
	}
	defer closeStore()
	slog.Info("Record store ready", "backend", cfg.DatabaseType)

	// Create router
	mux := router.NewRouter(s, cfg)

	// Create server
	server := http.Server{
		Handler:           mux,
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a full event may take several store round trips
		WriteTimeout: 4*cfg.StoreTimeout + 10*time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(ctrlc)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Shutdown incomplete", "error", err)
			server.Close()
		}
	}()

	// Start server
	slog.Info("Listening",
		"port", cfg.Port,
		"max_body", humanize.IBytes(uint64(cfg.MaxBodyBytes)),
		"store_timeout", cfg.StoreTimeout,
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
		return err
	}
	slog.Info("Server closed", "error", err)
	return nil
}

// openStore builds the configured backend. The returned func releases it.
func openStore(cfg cliparse.Config) (store.Store, func(), error) {
	switch cfg.DatabaseType {
	case cliparse.BackendNotion:
		client := notion.NewClient(cfg.NotionBaseURL, cfg.NotionToken, cfg.StoreTimeout)
		return client, func() {}, nil

	case cliparse.BackendPostgres, cliparse.BackendSQLite:
		driver := db.DriverPostgres
		if cfg.DatabaseType == cliparse.BackendSQLite {
			driver = db.DriverSQLite
		}
		conn, err := db.Open(driver, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return db.NewStore(conn, driver), func() { conn.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.DatabaseType)
}

// setupLogging installs the default slog logger. Text output on a
// terminal, JSON otherwise. With a log file, records go to both.
func setupLogging(level, file string) (func(), error) {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("LOG_FILE: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		closeFn = func() { f.Close() }
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if file == "" && isatty.IsTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn, nil
}
