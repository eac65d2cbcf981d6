package memory_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"movietracker/memory"
	"movietracker/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

var ctx = context.Background()

func newBackend(t *testing.T) (*memory.Backend, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	b := memory.New(
		memory.WithBcryptCost(bcrypt.MinCost),
		memory.WithClock(clk.Now),
		memory.WithLoginJail(3, time.Minute),
	)
	return b, clk
}

func decode(t *testing.T, r watchlist.Reply) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func register(t *testing.T, b *memory.Backend, username string) string {
	t.Helper()
	r, err := b.Register(ctx, watchlist.Credentials{Username: username, Password: "s3cret"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, r.Status, string(r.Body))
	token, _ := decode(t, r)["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func add(t *testing.T, b *memory.Backend, token, title string) int {
	t.Helper()
	r, err := b.AddToWatchlist(ctx, token, watchlist.NewMovie{Title: title, Year: 2010, Poster: watchlist.PlaceholderPoster})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, r.Status, string(r.Body))
	return int(decode(t, r)["movie_id"].(float64))
}

func movies(t *testing.T, r watchlist.Reply) []interface{} {
	t.Helper()
	require.Equal(t, http.StatusOK, r.Status, string(r.Body))
	list, ok := decode(t, r)["movies"].([]interface{})
	require.True(t, ok)
	return list
}

func TestBackend_RegisterAndLogin(t *testing.T) {
	b, clk := newBackend(t)

	register(t, b, "Ana")

	r, _ := b.Register(ctx, watchlist.Credentials{Username: "ana", Password: "other"})
	assert.Equal(t, http.StatusBadRequest, r.Status)
	assert.Equal(t, "Username already registered", decode(t, r)["detail"])

	r, _ = b.Register(ctx, watchlist.Credentials{Username: " ", Password: "x"})
	assert.Equal(t, http.StatusBadRequest, r.Status)

	r, _ = b.Login(ctx, watchlist.Credentials{Username: "ana", Password: "s3cret"})
	require.Equal(t, http.StatusOK, r.Status)
	body := decode(t, r)
	assert.NotEmpty(t, body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, map[string]interface{}{"id": float64(1), "username": "Ana"}, body["user"])

	r, _ = b.Login(ctx, watchlist.Credentials{Username: "nobody", Password: "s3cret"})
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	t.Run("locks after repeated failures", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			r, _ := b.Login(ctx, watchlist.Credentials{Username: "ana", Password: "wrong"})
			assert.Equal(t, http.StatusUnauthorized, r.Status)
		}

		r, _ := b.Login(ctx, watchlist.Credentials{Username: "ana", Password: "s3cret"})
		assert.Equal(t, http.StatusTooManyRequests, r.Status)

		clk.Set(clk.Now().Add(2 * time.Minute))
		r, _ = b.Login(ctx, watchlist.Credentials{Username: "ana", Password: "s3cret"})
		assert.Equal(t, http.StatusOK, r.Status)
	})
}

func TestBackend_RequiresToken(t *testing.T) {
	b, _ := newBackend(t)

	r, _ := b.AddToWatchlist(ctx, "", watchlist.NewMovie{Title: "Heat"})
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "Not authenticated", decode(t, r)["detail"])

	r, _ = b.Watchlist(ctx, "forged")
	assert.Equal(t, http.StatusUnauthorized, r.Status)
	assert.Equal(t, "Invalid or expired token", decode(t, r)["detail"])
}

func TestBackend_MarkWatchedMovesEntry(t *testing.T) {
	b, clk := newBackend(t)
	token := register(t, b, "ana")
	id := add(t, b, token, "Inception")

	assert.Len(t, movies(t, mustReply(b.Watchlist(ctx, token))), 1)
	assert.Empty(t, movies(t, mustReply(b.Watched(ctx, token))))

	clk.Set(clk.Now().Add(3 * time.Hour))
	r, err := b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: id})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, r.Status, string(r.Body))

	body := decode(t, r)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(50), body["points_earned"])
	assert.Equal(t, float64(50), body["bonus_points"])
	assert.Equal(t, float64(100), body["total_points"])
	assert.Equal(t, []interface{}{watchlist.ReasonSameDay}, body["bonus_reasons"])

	assert.Empty(t, movies(t, mustReply(b.Watchlist(ctx, token))))
	watched := movies(t, mustReply(b.Watched(ctx, token)))
	require.Len(t, watched, 1)
	entry := watched[0].(map[string]interface{})
	assert.Equal(t, "Inception", entry["title"])
	assert.Equal(t, float64(100), entry["points_earned"])
	assert.GreaterOrEqual(t, entry["points_earned"].(float64), float64(0))

	r, _ = b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: id})
	assert.Equal(t, http.StatusBadRequest, r.Status)

	points := decode(t, mustReply(b.TotalPoints(ctx, token)))
	assert.Equal(t, float64(100), points["total_points"])
}

func TestBackend_MarkWatchedErrors(t *testing.T) {
	b, _ := newBackend(t)
	ana := register(t, b, "ana")
	bob := register(t, b, "bob")
	id := add(t, b, ana, "Heat")

	r, _ := b.MarkWatched(ctx, ana, watchlist.MarkWatched{MovieID: 404})
	assert.Equal(t, http.StatusNotFound, r.Status)
	assert.Equal(t, "Movie not found", decode(t, r)["detail"])

	r, _ = b.MarkWatched(ctx, bob, watchlist.MarkWatched{MovieID: id})
	assert.Equal(t, http.StatusNotFound, r.Status, "entries are private to their owner")

	r, _ = b.MarkWatched(ctx, ana, watchlist.MarkWatched{MovieID: id, DateWatched: "yesterday"})
	assert.Equal(t, http.StatusUnprocessableEntity, r.Status)
}

func TestBackend_BonusRules(t *testing.T) {
	b, clk := newBackend(t)
	token := register(t, b, "ana")

	ids := []int{add(t, b, token, "A"), add(t, b, token, "B"), add(t, b, token, "C"), add(t, b, token, "D")}

	clk.Set(time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC))
	var last map[string]interface{}
	for _, id := range ids[:3] {
		r, _ := b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: id})
		require.Equal(t, http.StatusOK, r.Status)
		last = decode(t, r)
	}
	assert.Equal(t, float64(55), last["bonus_points"], "within a week plus third movie of the day")
	assert.Equal(t, []interface{}{watchlist.ReasonWithinWeek, "multiple_movies_day_3"}, last["bonus_reasons"])

	r, _ := b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: ids[3], DateWatched: "2026-04-01T10:00:00"})
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, float64(0), decode(t, r)["bonus_points"])
	assert.Equal(t, float64(50), decode(t, r)["total_points"])
}

func TestBackend_Remove(t *testing.T) {
	b, _ := newBackend(t)
	token := register(t, b, "ana")
	id := add(t, b, token, "Heat")

	r, _ := b.Remove(ctx, token, id)
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Empty(t, movies(t, mustReply(b.Watchlist(ctx, token))))

	r, _ = b.Remove(ctx, token, id)
	assert.Equal(t, http.StatusNotFound, r.Status)
}

func TestBackend_SummaryAndStreak(t *testing.T) {
	b, clk := newBackend(t)
	token := register(t, b, "ana")

	streak := decode(t, mustReply(b.Streak(ctx, token)))
	assert.Equal(t, float64(0), streak["streak"])

	a, c, d := add(t, b, token, "A"), add(t, b, token, "C"), add(t, b, token, "D")
	add(t, b, token, "unwatched")

	for i, id := range []int{a, c, d} {
		clk.Set(time.Date(2026, 3, 2+i, 21, 0, 0, 0, time.UTC))
		r, _ := b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: id})
		require.Equal(t, http.StatusOK, r.Status)
	}

	summary := decode(t, mustReply(b.Summary(ctx, token)))
	assert.Equal(t, float64(4), summary["total_movies"])
	assert.Equal(t, float64(3), summary["watched_movies"])
	assert.Equal(t, float64(1), summary["unwatched_movies"])
	assert.Equal(t, float64(240), summary["total_points"])

	streak = decode(t, mustReply(b.Streak(ctx, token)))
	assert.Equal(t, float64(3), streak["streak"])
	assert.Equal(t, "2026-03-04", streak["last_watched"])
}

func TestBackend_Daily(t *testing.T) {
	b, clk := newBackend(t)
	token := register(t, b, "ana")

	daily := decode(t, mustReply(b.Daily(ctx, token)))
	assert.Equal(t, float64(0), daily["movies_today"])
	assert.Equal(t, float64(0), daily["points_today"])

	yesterday, first, second := add(t, b, token, "Y"), add(t, b, token, "A"), add(t, b, token, "B")
	r, _ := b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: yesterday, DateWatched: "2026-02-28"})
	require.Equal(t, http.StatusOK, r.Status)

	clk.Set(time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC))
	var want float64
	for _, id := range []int{first, second} {
		res := decode(t, mustReply(b.MarkWatched(ctx, token, watchlist.MarkWatched{MovieID: id})))
		want += res["total_points"].(float64)
	}

	daily = decode(t, mustReply(b.Daily(ctx, token)))
	assert.Equal(t, float64(2), daily["movies_today"])
	assert.Equal(t, want, daily["points_today"])

	other := register(t, b, "bob")
	daily = decode(t, mustReply(b.Daily(ctx, other)))
	assert.Equal(t, float64(0), daily["movies_today"])

	r, _ = b.Daily(ctx, "")
	assert.Equal(t, http.StatusUnauthorized, r.Status)
}

func TestBackend_Leaderboard(t *testing.T) {
	b, clk := newBackend(t)
	ana := register(t, b, "ana")
	bob := register(t, b, "bob")
	register(t, b, "idle")

	old := add(t, b, ana, "Old")
	r, _ := b.MarkWatched(ctx, ana, watchlist.MarkWatched{MovieID: old})
	require.Equal(t, http.StatusOK, r.Status)

	clk.Set(time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC))
	recent := add(t, b, bob, "Recent")
	r, _ = b.MarkWatched(ctx, bob, watchlist.MarkWatched{MovieID: recent})
	require.Equal(t, http.StatusOK, r.Status)

	board := func(p watchlist.Period) []interface{} {
		body := decode(t, mustReply(b.Leaderboard(ctx, "", p)))
		list, _ := body["leaderboard"].([]interface{})
		return list
	}

	all := board(watchlist.PeriodAllTime)
	require.Len(t, all, 2)
	first := all[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, "ana", first["username"], "ties break on username")
	assert.Equal(t, float64(100), first["total_points"])
	assert.Equal(t, float64(1), first["movies_watched"])

	week := board(watchlist.PeriodWeek)
	require.Len(t, week, 1)
	assert.Equal(t, "bob", week[0].(map[string]interface{})["username"])
}

func TestBackend_ConcurrentAccess(t *testing.T) {
	b, _ := newBackend(t)
	token := register(t, b, "ana")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = b.AddToWatchlist(ctx, token, watchlist.NewMovie{Title: "Heat"})
			_, _ = b.Watchlist(ctx, token)
		}()
	}
	wg.Wait()

	assert.Len(t, movies(t, mustReply(b.Watchlist(ctx, token))), 20)
}

func mustReply(r watchlist.Reply, err error) watchlist.Reply {
	if err != nil {
		panic(err)
	}
	return r
}
