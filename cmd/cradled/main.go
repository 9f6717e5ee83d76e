// Command cradled runs a request-resolution server: it accepts serialized
// requests over the rpc channel, resolves them against the local caches,
// and exposes health probes.
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
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "cradled:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := flag.NewFlagSet("cradled", flag.ContinueOnError)
	configPath := flags.String("config", "", "path to the HCL configuration file")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	app, err := newApp(*configPath)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Serve() }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}
