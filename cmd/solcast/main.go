// Command solcast prints account data from the Solcast API as JSON.
//
//	solcast [-timeout 10s] sites|ratelimit
//
// The API key is read from SOLCAST_API_KEY (or configs/.env).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/solcast-pv/internal/app"
	"github.com/Adda-Baaj/solcast-pv/internal/config"
	"github.com/Adda-Baaj/solcast-pv/internal/logger"
	"github.com/Adda-Baaj/solcast-pv/pkg/solcast"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("solcast", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 0, "request timeout (defaults to REQUEST_TIMEOUT_SECONDS)")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: solcast [-timeout 10s] %s|%s\n", app.ReportSites, app.ReportRateLimit)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	if cfg.SolcastAPIKey == "" {
		fmt.Fprintln(os.Stderr, "SOLCAST_API_KEY is not set")
		return 1
	}

	log, err := logger.InitTo(cfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	if *timeout <= 0 {
		*timeout = cfg.RequestTimeout
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = app.Report(ctx, os.Stdout, cfg.SolcastAPIKey, fs.Arg(0),
		solcast.WithTimeout(*timeout),
		solcast.WithLogger(log),
	)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, solcast.ErrAuthentication):
		fmt.Fprintf(os.Stderr, "authentication failed: %v\n", err)
		return 3
	case errors.Is(err, solcast.ErrResults):
		fmt.Fprintf(os.Stderr, "no results: %v\n", err)
		return 4
	default:
		fmt.Fprintf(os.Stderr, "solcast: %v\n", err)
		return 1
	}
}
