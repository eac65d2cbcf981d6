package watchlist

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"movietracker/errs"

	"go.uber.org/zap"
)

// Generic messages used when the backend gives nothing better.
const (
	msgAddFailed         = "Failed to add movie"
	msgMarkFailed        = "Failed to mark movie as watched"
	msgRemoveFailed      = "Failed to remove movie"
	msgWatchlistFailed   = "Failed to fetch watchlist"
	msgWatchedFailed     = "Failed to fetch watched movies"
	msgPointsFailed      = "Failed to fetch total points"
	msgSummaryFailed     = "Failed to fetch stats summary"
	msgStreakFailed      = "Failed to fetch streak"
	msgDailyFailed       = "Failed to fetch daily stats"
	msgLeaderboardFailed = "Failed to fetch leaderboard"
	msgAuthFailed        = "Authentication failed"
)

type Service interface {
	Add(ctx context.Context, token string, m NewMovie) (Reply, error)
	MarkWatched(ctx context.Context, token string, req MarkWatched) (Reply, error)
	Remove(ctx context.Context, token string, movieID int) (Reply, error)
	Watchlist(ctx context.Context, token string) (Reply, error)
	Watched(ctx context.Context, token string) (Reply, error)
	TotalPoints(ctx context.Context, token string) (Reply, error)
	Summary(ctx context.Context, token string) (Reply, error)
	Streak(ctx context.Context, token string) (Reply, error)
	Daily(ctx context.Context, token string) (Reply, error)
	Leaderboard(ctx context.Context, token string, period Period) (Reply, error)
	Login(ctx context.Context, creds Credentials) (Reply, error)
	Register(ctx context.Context, creds Credentials) (Reply, error)
}

// Backend is the port to the persistence service. Token is the raw bearer
// credential, empty when the caller has none. Transport failures wrap
// ErrBackendUnreachable.
type Backend interface {
	AddToWatchlist(ctx context.Context, token string, m NewMovie) (Reply, error)
	MarkWatched(ctx context.Context, token string, req MarkWatched) (Reply, error)
	Remove(ctx context.Context, token string, movieID int) (Reply, error)
	Watchlist(ctx context.Context, token string) (Reply, error)
	Watched(ctx context.Context, token string) (Reply, error)
	TotalPoints(ctx context.Context, token string) (Reply, error)
	Summary(ctx context.Context, token string) (Reply, error)
	Streak(ctx context.Context, token string) (Reply, error)
	Daily(ctx context.Context, token string) (Reply, error)
	Leaderboard(ctx context.Context, token string, period Period) (Reply, error)
	Login(ctx context.Context, creds Credentials) (Reply, error)
	Register(ctx context.Context, creds Credentials) (Reply, error)
}

type Options struct {
	// ReportUnavailable answers 503 when the backend cannot be reached. When
	// false the operation's generic 500 message is used instead.
	ReportUnavailable bool
}

type Usecase struct {
	backend Backend
	opts    Options
	logger  *zap.SugaredLogger
}

func NewUsecase(backend Backend, opts Options, logger *zap.SugaredLogger) *Usecase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Usecase{backend: backend, opts: opts, logger: logger}
}

func (uc *Usecase) Add(ctx context.Context, token string, m NewMovie) (Reply, error) {
	if token == "" {
		return Reply{}, ErrAuthRequired
	}
	if m.Poster == "" {
		m.Poster = PlaceholderPoster
	}
	reply, err := uc.backend.AddToWatchlist(ctx, token, m)
	return uc.relay("add", msgAddFailed, reply, err)
}

func (uc *Usecase) MarkWatched(ctx context.Context, token string, req MarkWatched) (Reply, error) {
	if token == "" {
		return Reply{}, ErrAuthRequired
	}
	reply, err := uc.backend.MarkWatched(ctx, token, req)
	return uc.relay("mark-watched", msgMarkFailed, reply, err)
}

func (uc *Usecase) Remove(ctx context.Context, token string, movieID int) (Reply, error) {
	if token == "" {
		return Reply{}, ErrAuthRequired
	}
	reply, err := uc.backend.Remove(ctx, token, movieID)
	return uc.relay("remove", msgRemoveFailed, reply, err)
}

func (uc *Usecase) Watchlist(ctx context.Context, token string) (Reply, error) {
	reply, err := uc.backend.Watchlist(ctx, token)
	return uc.relay("watchlist", msgWatchlistFailed, reply, err)
}

func (uc *Usecase) Watched(ctx context.Context, token string) (Reply, error) {
	reply, err := uc.backend.Watched(ctx, token)
	return uc.relay("watched", msgWatchedFailed, reply, err)
}

func (uc *Usecase) TotalPoints(ctx context.Context, token string) (Reply, error) {
	reply, err := uc.backend.TotalPoints(ctx, token)
	return uc.relay("total-points", msgPointsFailed, reply, err)
}

func (uc *Usecase) Summary(ctx context.Context, token string) (Reply, error) {
	reply, err := uc.backend.Summary(ctx, token)
	return uc.relay("summary", msgSummaryFailed, reply, err)
}

func (uc *Usecase) Streak(ctx context.Context, token string) (Reply, error) {
	reply, err := uc.backend.Streak(ctx, token)
	return uc.relay("streak", msgStreakFailed, reply, err)
}

func (uc *Usecase) Daily(ctx context.Context, token string) (Reply, error) {
	reply, err := uc.backend.Daily(ctx, token)
	return uc.relay("daily", msgDailyFailed, reply, err)
}

func (uc *Usecase) Leaderboard(ctx context.Context, token string, period Period) (Reply, error) {
	reply, err := uc.backend.Leaderboard(ctx, token, period)
	return uc.relay("leaderboard", msgLeaderboardFailed, reply, err)
}

func (uc *Usecase) Login(ctx context.Context, creds Credentials) (Reply, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	reply, err := uc.backend.Login(ctx, creds)
	return uc.relay("login", msgAuthFailed, reply, err)
}

func (uc *Usecase) Register(ctx context.Context, creds Credentials) (Reply, error) {
	creds.Username = strings.TrimSpace(creds.Username)
	reply, err := uc.backend.Register(ctx, creds)
	return uc.relay("register", msgAuthFailed, reply, err)
}

// relay passes 2xx replies through and rewrites anything else to
// {"error": message} under the backend's status.
func (uc *Usecase) relay(op, generic string, reply Reply, err error) (Reply, error) {
	if err != nil {
		if errors.Is(err, ErrBackendUnreachable) {
			uc.logger.Errorw("backend unreachable", "op", op, "error", err)
			if uc.opts.ReportUnavailable {
				return Reply{}, ErrBackendNotRunning
			}
			return Reply{}, &errs.Error{Code: errs.EINTERNAL, Message: generic}
		}
		uc.logger.Errorw("backend call failed", "op", op, "error", err)
		return Reply{}, &errs.Error{Code: errs.EINTERNAL, Message: generic}
	}

	if reply.OK() {
		return reply, nil
	}

	uc.logger.Warnw("backend rejected request", "op", op, "status", reply.Status)
	body, _ := json.Marshal(map[string]string{"error": ErrorDetail(reply.Body, generic)})
	return Reply{Status: reply.Status, Body: body}, nil
}

// ErrorDetail extracts a human message from a backend error body: the string
// "detail" field, else the "error" field, else fallback.
func ErrorDetail(body []byte, fallback string) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
		Error  json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fallback
	}
	for _, raw := range []json.RawMessage{parsed.Detail, parsed.Error} {
		var msg string
		if len(raw) > 0 && json.Unmarshal(raw, &msg) == nil && msg != "" {
			return msg
		}
	}
	return fallback
}
