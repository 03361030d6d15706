package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bobmcallan/stock-compare/internal/app"
	"github.com/bobmcallan/stock-compare/internal/common"
	"github.com/bobmcallan/stock-compare/internal/config"
	"github.com/bobmcallan/stock-compare/internal/server"
)

const shutdownTimeout = 10 * time.Second

// errVersionShown stops run after -version without signalling a failure.
var errVersionShown = errors.New("version shown")

// fileList collects repeated -config values.
type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(value string) error {
	*f = append(*f, value)
	return nil
}

// options are the parsed command line.
type options struct {
	files []string
	port  int
	host  string
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errVersionShown) {
			return
		}
		fmt.Fprintf(os.Stderr, "stock-compare: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	if len(opts.files) == 0 {
		if path, ok := discoverConfig(configSearchPaths()); ok {
			opts.files = []string{path}
		}
	}

	cfg, err := config.LoadFromFiles(opts.files...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	config.ApplyFlagOverrides(cfg, opts.port, opts.host)

	if issues := cfg.Validate(); len(issues) > 0 {
		return fmt.Errorf("invalid configuration (set via TOML, COMPARE_* env or flags):\n  - %s",
			strings.Join(issues, "\n  - "))
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	logger.Info().
		Str("environment", cfg.Environment).
		Str("config_files", strings.Join(opts.files, ",")).
		Str("version", config.Version).
		Msg("configuration loaded")

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Error().Err(err).Msg("closing storage failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(application)
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Start() }()

	logger.Info().Str("url", cfg.BaseURL()).Msg("server ready")

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// parseFlags reads the command line. -p and -c are shorthands; -p wins over
// -port when both are given.
func parseFlags(args []string, stdout io.Writer) (options, error) {
	fs := flag.NewFlagSet("stock-compare", flag.ContinueOnError)

	var files fileList
	fs.Var(&files, "config", "configuration file (repeatable, later files override earlier)")
	fs.Var(&files, "c", "shorthand for -config")
	port := fs.Int("port", 0, "listen port (overrides config)")
	portShort := fs.Int("p", 0, "shorthand for -port")
	host := fs.String("host", "", "listen host (overrides config)")
	version := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if *version {
		fmt.Fprintf(stdout, "stock-compare %s\n", config.Info())
		return options{}, errVersionShown
	}

	opts := options{files: files, port: *port, host: *host}
	if *portShort != 0 {
		opts.port = *portShort
	}
	return opts, nil
}

// discoverConfig returns the first path that exists.
func discoverConfig(paths []string) (string, bool) {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// configSearchPaths lists compare.toml locations next to the binary, then
// relative to the working directory. Duplicates are removed.
func configSearchPaths() []string {
	var paths []string
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(dir, "compare.toml"),
			filepath.Join(dir, "config", "compare.toml"))
	}
	paths = append(paths, "compare.toml", "config/compare.toml", "docker/compare.toml")

	seen := make(map[string]bool, len(paths))
	out := paths[:0]
	for _, p := range paths {
		key := p
		if abs, err := filepath.Abs(p); err == nil {
			key = abs
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, p)
		}
	}
	return out
}
