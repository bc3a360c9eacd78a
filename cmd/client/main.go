package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"TrackingCar/internal/cli/commands"
	"TrackingCar/internal/cli/session"
	"TrackingCar/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.NewConfig()

	if cfg.Version {
		printVersion(os.Stdout, cfg.ServerURL, commands.Sessions)
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return commands.Dispatch(ctx, cfg, flag.Args())
}

// printVersion печатает версию сборки, адрес сервера и текущего пользователя.
func printVersion(w io.Writer, server string, sessions session.Store) {
	fmt.Fprintf(w, "tccli %s (built %s)\nserver: %s\n", version, buildDate, server)
	s, err := sessions.Load()
	switch {
	case err == nil:
		fmt.Fprintf(w, "session: %s (%s)\n", s.Username, s.Role)
	case errors.Is(err, session.ErrNoSession):
		fmt.Fprintln(w, "session: none")
	default:
		fmt.Fprintf(w, "session: unreadable: %v\n", err)
	}
}
