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

	"movietracker/apiclient"
	"movietracker/session"
)

const usage = `usage: moviecli [-config DIR] <command> [flags]

commands:
  login        -username NAME [-password PASS]
  register     -username NAME [-password PASS]
  logout
  whoami
  search       QUERY
  recommended  [-type popular|top_rated|now_playing|upcoming|random]
  add          [-year N] [-rating R] [-poster URL] TITLE
  watched      [-date YYYY-MM-DD] ID
  remove       ID
  watchlist    [-filter TEXT]
  history
  points
  leaderboard  [-period week|month|year|all_time]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("moviecli", flag.ContinueOnError)
	global.SetOutput(io.Discard)
	configDir := global.String("config", "", "config directory")
	if err := global.Parse(args); err != nil {
		return errUsage
	}
	if global.NArg() == 0 {
		return errUsage
	}

	cfg, err := loadConfig(*configDir)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store, err := session.Open(cfg.SessionFile)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	defer store.Close()

	unsubscribe := store.Subscribe(func(e session.Event) {
		if e.Authenticated && e.User != nil {
			fmt.Fprintf(out, "Signed in as %s\n", e.User.Username)
			return
		}
		fmt.Fprintln(out, "Signed out")
	})
	defer unsubscribe()

	app := &app{
		out:   out,
		store: store,
		api: apiclient.New(apiclient.Options{
			BaseURL: cfg.APIURL,
			Timeout: cfg.Timeout,
			Token:   store.Token,
		}),
	}

	name, rest := global.Arg(0), global.Args()[1:]
	cmd, ok := app.commands()[name]
	if !ok {
		return errUsage
	}
	return cmd(ctx, rest)
}
