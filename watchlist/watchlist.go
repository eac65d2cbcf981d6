package watchlist

import (
	"errors"
	"strings"
	"time"

	"movietracker/errs"
)

// PlaceholderPoster is stored when a movie is added without a poster.
const PlaceholderPoster = "/placeholder.svg"

var (
	ErrAuthRequired       = errs.Errorf(errs.EUNAUTHORIZED, "Authentication required")
	ErrBackendNotRunning  = errs.Errorf(errs.EUNAVAILABLE, "Backend service is not running")
	ErrInvalidPeriod      = errs.Errorf(errs.EINVALID, "period must be one of week, month, year, all_time")
	ErrBackendUnreachable = errors.New("backend unreachable")
)

// Reply is a backend answer relayed to the caller as-is.
type Reply struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r Reply) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// NewMovie is the payload stored on the watchlist.
type NewMovie struct {
	Title  string  `json:"title"`
	Year   int     `json:"year"`
	Rating float64 `json:"rating"`
	Poster string  `json:"poster"`
}

type MarkWatched struct {
	MovieID     int    `json:"movie_id"`
	DateWatched string `json:"date_watched,omitempty"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type Entry struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	Rating    float64   `json:"rating"`
	Poster    string    `json:"poster"`
	AddedDate time.Time `json:"added_date"`
}

type WatchedEntry struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Year         int       `json:"year"`
	Rating       float64   `json:"rating"`
	Poster       string    `json:"poster"`
	DateWatched  time.Time `json:"date_watched"`
	PointsEarned int       `json:"points_earned"`
}

type LeaderboardEntry struct {
	Rank          int    `json:"rank"`
	UserID        int    `json:"user_id"`
	Username      string `json:"username"`
	TotalPoints   int    `json:"total_points"`
	MoviesWatched int    `json:"movies_watched"`
}

// Period is a leaderboard window.
type Period string

const (
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodYear    Period = "year"
	PeriodAllTime Period = "all_time"
)

// ParsePeriod resolves a query token. Empty means all time.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.TrimSpace(raw)); p {
	case "":
		return PeriodAllTime, nil
	case PeriodWeek, PeriodMonth, PeriodYear, PeriodAllTime:
		return p, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Since returns the earliest instant included in the window, zero for all time.
func (p Period) Since(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, -1, 0)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	default:
		return time.Time{}
	}
}
