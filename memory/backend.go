// Package memory is a non-persisted stand-in for the persistence service. It
// answers with the same status codes and bodies the remote service does.
package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"movietracker/watchlist"

	"golang.org/x/crypto/bcrypt"
)

const (
	msgNotAuthenticated = "Not authenticated"
	msgInvalidToken     = "Invalid or expired token"
	msgMovieNotFound    = "Movie not found"
	msgAlreadyWatched   = "Movie already marked as watched"
	msgInvalidDate      = "Invalid date_watched"
	msgTitleRequired    = "Title is required"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type account struct {
	user        watchlist.User
	hash        string
	failedCount int
	jailedUntil time.Time
}

type movieRecord struct {
	owner     int
	entry     watchlist.Entry
	watched   bool
	watchedAt time.Time
	points    int
}

// Backend implements watchlist.Backend in memory.
type Backend struct {
	mu sync.RWMutex

	accounts map[string]*account
	tokens   map[string]int
	movies   map[int]*movieRecord

	nextUserID  int
	nextMovieID int

	bcryptCost   int
	maxRetries   int
	jailDuration time.Duration
	now          func() time.Time
	newToken     func() string
}

var _ watchlist.Backend = (*Backend)(nil)

func New(options ...Option) *Backend {
	b := &Backend{
		accounts:     make(map[string]*account),
		tokens:       make(map[string]int),
		movies:       make(map[int]*movieRecord),
		nextUserID:   1,
		nextMovieID:  1,
		bcryptCost:   bcrypt.DefaultCost,
		maxRetries:   5,
		jailDuration: 15 * time.Minute,
		now: func() time.Time {
			return time.Now().UTC()
		},
		newToken: newToken,
	}
	for _, fn := range options {
		fn(b)
	}
	return b
}

func (b *Backend) AddToWatchlist(_ context.Context, token string, m watchlist.NewMovie) (watchlist.Reply, error) {
	if strings.TrimSpace(m.Title) == "" {
		return detail(http.StatusUnprocessableEntity, msgTitleRequired), nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	id := b.nextMovieID
	b.nextMovieID++
	b.movies[id] = &movieRecord{
		owner: userID,
		entry: watchlist.Entry{
			ID:        id,
			Title:     m.Title,
			Year:      m.Year,
			Rating:    m.Rating,
			Poster:    m.Poster,
			AddedDate: b.now(),
		},
	}

	return jsonReply(http.StatusOK, map[string]interface{}{
		"success":  true,
		"movie_id": id,
		"message":  "Movie added to watchlist",
	}), nil
}

// MarkWatched moves a watchlist entry to the watched list and scores it.
func (b *Backend) MarkWatched(_ context.Context, token string, req watchlist.MarkWatched) (watchlist.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	rec, found := b.movies[req.MovieID]
	if !found || rec.owner != userID {
		return detail(http.StatusNotFound, msgMovieNotFound), nil
	}
	if rec.watched {
		return detail(http.StatusBadRequest, msgAlreadyWatched), nil
	}

	watchedAt := b.now()
	if req.DateWatched != "" {
		parsed, err := parseDate(req.DateWatched)
		if err != nil {
			return detail(http.StatusUnprocessableEntity, msgInvalidDate), nil
		}
		watchedAt = parsed
	}

	sameDay := 1
	for _, other := range b.movies {
		if other.owner == userID && other.watched && watchlist.SameDay(other.watchedAt, watchedAt) {
			sameDay++
		}
	}

	bonus := watchlist.CalculateBonus(rec.entry.AddedDate, watchedAt, sameDay)
	rec.watched = true
	rec.watchedAt = watchedAt
	rec.points = bonus.Total()

	return jsonReply(http.StatusOK, map[string]interface{}{
		"success":       true,
		"points_earned": watchlist.BasePoints,
		"bonus_points":  bonus.Points,
		"total_points":  bonus.Total(),
		"bonus_reasons": bonus.Reasons,
	}), nil
}

func (b *Backend) Remove(_ context.Context, token string, movieID int) (watchlist.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	rec, found := b.movies[movieID]
	if !found || rec.owner != userID || rec.watched {
		return detail(http.StatusNotFound, msgMovieNotFound), nil
	}
	delete(b.movies, movieID)

	return jsonReply(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Movie removed from watchlist",
	}), nil
}

// Watchlist lists unwatched entries, newest first.
func (b *Backend) Watchlist(_ context.Context, token string) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	movies := []watchlist.Entry{}
	for _, rec := range b.movies {
		if rec.owner == userID && !rec.watched {
			movies = append(movies, rec.entry)
		}
	}
	sort.Slice(movies, func(i, j int) bool {
		if !movies[i].AddedDate.Equal(movies[j].AddedDate) {
			return movies[i].AddedDate.After(movies[j].AddedDate)
		}
		return movies[i].ID > movies[j].ID
	})

	return jsonReply(http.StatusOK, map[string]interface{}{"movies": movies}), nil
}

// Watched lists watched entries, most recent watch first.
func (b *Backend) Watched(_ context.Context, token string) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	movies := b.watchedBy(userID)
	return jsonReply(http.StatusOK, map[string]interface{}{"movies": movies}), nil
}

func (b *Backend) TotalPoints(_ context.Context, token string) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	total := 0
	for _, w := range b.watchedBy(userID) {
		total += w.PointsEarned
	}
	return jsonReply(http.StatusOK, map[string]int{"total_points": total}), nil
}

func (b *Backend) Summary(_ context.Context, token string) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	var total, watched, points int
	for _, rec := range b.movies {
		if rec.owner != userID {
			continue
		}
		total++
		if rec.watched {
			watched++
			points += rec.points
		}
	}

	return jsonReply(http.StatusOK, map[string]int{
		"total_points":     points,
		"total_movies":     total,
		"watched_movies":   watched,
		"unwatched_movies": total - watched,
	}), nil
}

func (b *Backend) Streak(_ context.Context, token string) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	watched := b.watchedBy(userID)
	if len(watched) == 0 {
		return jsonReply(http.StatusOK, map[string]int{"streak": 0}), nil
	}

	dates := make([]time.Time, len(watched))
	for i, w := range watched {
		dates[i] = w.DateWatched
	}
	return jsonReply(http.StatusOK, map[string]interface{}{
		"streak":       watchlist.Streak(dates),
		"last_watched": watched[0].DateWatched.Format("2006-01-02"),
	}), nil
}

// Daily counts the movies and points watched on the current calendar day.
func (b *Backend) Daily(_ context.Context, token string) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	userID, reply, ok := b.authorize(token)
	if !ok {
		return reply, nil
	}

	today := b.now()
	var count, points int
	for _, rec := range b.movies {
		if rec.owner == userID && rec.watched && watchlist.SameDay(rec.watchedAt, today) {
			count++
			points += rec.points
		}
	}
	return jsonReply(http.StatusOK, map[string]int{
		"movies_today": count,
		"points_today": points,
	}), nil
}

// Leaderboard ranks users by points earned inside the period. Users without
// a watch in the period are left out.
func (b *Backend) Leaderboard(_ context.Context, _ string, period watchlist.Period) (watchlist.Reply, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	since := period.Since(b.now())
	byUser := make(map[int]*watchlist.LeaderboardEntry)
	for _, rec := range b.movies {
		if !rec.watched || rec.watchedAt.Before(since) {
			continue
		}
		e, ok := byUser[rec.owner]
		if !ok {
			e = &watchlist.LeaderboardEntry{UserID: rec.owner}
			byUser[rec.owner] = e
		}
		e.TotalPoints += rec.points
		e.MoviesWatched++
	}

	names := make(map[int]string, len(b.accounts))
	for _, a := range b.accounts {
		names[a.user.ID] = a.user.Username
	}

	board := make([]watchlist.LeaderboardEntry, 0, len(byUser))
	for id, e := range byUser {
		e.Username = names[id]
		board = append(board, *e)
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].TotalPoints != board[j].TotalPoints {
			return board[i].TotalPoints > board[j].TotalPoints
		}
		return board[i].Username < board[j].Username
	})
	for i := range board {
		board[i].Rank = i + 1
	}

	return jsonReply(http.StatusOK, map[string]interface{}{
		"leaderboard": board,
		"period":      period,
	}), nil
}

// authorize resolves a bearer token. Callers hold the lock.
func (b *Backend) authorize(token string) (int, watchlist.Reply, bool) {
	if token == "" {
		return 0, detail(http.StatusUnauthorized, msgNotAuthenticated), false
	}
	userID, ok := b.tokens[token]
	if !ok {
		return 0, detail(http.StatusUnauthorized, msgInvalidToken), false
	}
	return userID, watchlist.Reply{}, true
}

func (b *Backend) watchedBy(userID int) []watchlist.WatchedEntry {
	out := []watchlist.WatchedEntry{}
	for _, rec := range b.movies {
		if rec.owner != userID || !rec.watched {
			continue
		}
		out = append(out, watchlist.WatchedEntry{
			ID:           rec.entry.ID,
			Title:        rec.entry.Title,
			Year:         rec.entry.Year,
			Rating:       rec.entry.Rating,
			Poster:       rec.entry.Poster,
			DateWatched:  rec.watchedAt,
			PointsEarned: rec.points,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateWatched.Equal(out[j].DateWatched) {
			return out[i].DateWatched.After(out[j].DateWatched)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func parseDate(raw string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}

func jsonReply(status int, v interface{}) watchlist.Reply {
	body, err := json.Marshal(v)
	if err != nil {
		return detail(http.StatusInternalServerError, err.Error())
	}
	return watchlist.Reply{Status: status, Body: body}
}

func detail(status int, msg string) watchlist.Reply {
	body, _ := json.Marshal(map[string]string{"detail": msg})
	return watchlist.Reply{Status: status, Body: body}
}
