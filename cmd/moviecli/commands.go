package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"movietracker/apiclient"
	"movietracker/movie"
	"movietracker/session"
	"movietracker/watchlist"

	"golang.org/x/term"
)

type command func(ctx context.Context, args []string) error

type app struct {
	out   io.Writer
	store *session.Store
	api   *apiclient.Client
}

func (a *app) commands() map[string]command {
	return map[string]command{
		"login":       a.login,
		"register":    a.register,
		"logout":      a.logout,
		"whoami":      a.whoami,
		"search":      a.search,
		"recommended": a.recommended,
		"add":         a.add,
		"watched":     a.markWatched,
		"remove":      a.remove,
		"watchlist":   a.watchlist,
		"history":     a.history,
		"points":      a.points,
		"leaderboard": a.leaderboard,
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func credentialFlags(name string, args []string) (watchlist.Credentials, error) {
	fs := newFlags(name)
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return watchlist.Credentials{}, errUsage
	}
	if strings.TrimSpace(*username) == "" {
		return watchlist.Credentials{}, errUsage
	}
	if *password == "" {
		p, err := promptPassword()
		if err != nil {
			return watchlist.Credentials{}, err
		}
		*password = p
	}
	return watchlist.Credentials{Username: strings.TrimSpace(*username), Password: *password}, nil
}

// promptPassword reads a hidden password when stdin is a terminal.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errUsage
	}
	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errUsage
	}
	return string(raw), nil
}

func (a *app) login(ctx context.Context, args []string) error {
	creds, err := credentialFlags("login", args)
	if err != nil {
		return err
	}
	sess, err := a.api.Login(ctx, creds)
	if err != nil {
		return err
	}
	return a.store.Save(sess.AccessToken, sess.User)
}

func (a *app) register(ctx context.Context, args []string) error {
	creds, err := credentialFlags("register", args)
	if err != nil {
		return err
	}
	sess, err := a.api.Register(ctx, creds)
	if err != nil {
		return err
	}
	return a.store.Save(sess.AccessToken, sess.User)
}

func (a *app) logout(context.Context, []string) error {
	return a.store.Clear()
}

func (a *app) whoami(context.Context, []string) error {
	u := a.store.User()
	if !a.store.Authenticated() || u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (id %d)\n", u.Username, u.ID)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return errUsage
	}
	results, err := a.api.Search(ctx, query)
	if err != nil {
		return err
	}
	a.printMovies(results)
	return nil
}

func (a *app) recommended(ctx context.Context, args []string) error {
	fs := newFlags("recommended")
	category := fs.String("type", "", "list category")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	results, resolved, err := a.api.Recommended(ctx, *category)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n", resolved)
	a.printMovies(results)
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := newFlags("add")
	year := fs.Int("year", 0, "release year")
	rating := fs.Float64("rating", 0, "catalog rating")
	poster := fs.String("poster", "", "poster URL")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	title := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if title == "" {
		return errUsage
	}

	err := a.api.Add(ctx, watchlist.NewMovie{Title: title, Year: *year, Rating: *rating, Poster: *poster})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added %q to your watchlist\n", title)
	return nil
}

func (a *app) markWatched(ctx context.Context, args []string) error {
	fs := newFlags("watched")
	date := fs.String("date", "", "date watched")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := movieID(fs.Args())
	if err != nil {
		return err
	}

	res, err := a.api.MarkWatched(ctx, watchlist.MarkWatched{MovieID: id, DateWatched: *date})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "+%d points (%d base, %d bonus)\n", res.TotalPoints, res.PointsEarned, res.BonusPoints)
	for _, reason := range res.BonusReasons {
		fmt.Fprintf(a.out, "  %s\n", reason)
	}
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	id, err := movieID(args)
	if err != nil {
		return err
	}
	if err := a.api.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d\n", id)
	return nil
}

func (a *app) watchlist(ctx context.Context, args []string) error {
	fs := newFlags("watchlist")
	filter := fs.String("filter", "", "fuzzy title filter")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	entries, err := a.api.Watchlist(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tYEAR\tRATING")
	for _, e := range filterEntries(entries, strings.TrimSpace(*filter)) {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\n", e.ID, e.Title, year(e.Year), e.Rating)
	}
	return w.Flush()
}

func (a *app) history(ctx context.Context, _ []string) error {
	entries, err := a.api.Watched(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tWATCHED\tPOINTS")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", e.ID, e.Title, day(e.DateWatched), e.PointsEarned)
	}
	return w.Flush()
}

func (a *app) points(ctx context.Context, _ []string) error {
	summary, err := a.api.Summary(ctx)
	if err != nil {
		return err
	}
	streak, err := a.api.Streak(ctx)
	if err != nil {
		return err
	}
	daily, err := a.api.Daily(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Points:  %d\n", summary.TotalPoints)
	fmt.Fprintf(a.out, "Watched: %d of %d\n", summary.WatchedMovies, summary.TotalMovies)
	fmt.Fprintf(a.out, "Streak:  %d day(s)", streak.Streak)
	if streak.LastWatched != "" {
		fmt.Fprintf(a.out, ", last %s", streak.LastWatched)
	}
	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "Today:   %d movie(s), %d points\n", daily.MoviesToday, daily.PointsToday)
	return nil
}

func (a *app) leaderboard(ctx context.Context, args []string) error {
	fs := newFlags("leaderboard")
	period := fs.String("period", "", "week, month, year or all_time")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	board, err := a.api.Leaderboard(ctx, *period)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "#\tUSER\tPOINTS\tWATCHED\t(%s)\n", board.Period)
	for _, e := range board.Entries {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t\n", e.Rank, e.Username, e.TotalPoints, e.MoviesWatched)
	}
	return w.Flush()
}

func (a *app) printMovies(results []movie.Movie) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tYEAR\tRATING\tDIRECTOR")
	for _, m := range results {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.1f\t%s\n", m.ID, m.Title, year(m.Year), m.Rating, m.Director)
	}
	_ = w.Flush()
}

func movieID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid movie id %q", args[0])
	}
	return id, nil
}

func year(y int) string {
	if y == 0 {
		return "-"
	}
	return strconv.Itoa(y)
}

// day trims a backend timestamp to its date.
func day(ts string) string {
	if len(ts) >= 10 {
		return ts[:10]
	}
	return ts
}
