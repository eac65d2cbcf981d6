package watchlist_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"movietracker/errs"
	"movietracker/watchlist"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) reply(args mock.Arguments) (watchlist.Reply, error) {
	return args.Get(0).(watchlist.Reply), args.Error(1)
}

func (m *MockBackend) AddToWatchlist(ctx context.Context, token string, mv watchlist.NewMovie) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token, mv))
}

func (m *MockBackend) MarkWatched(ctx context.Context, token string, req watchlist.MarkWatched) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token, req))
}

func (m *MockBackend) Remove(ctx context.Context, token string, movieID int) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token, movieID))
}

func (m *MockBackend) Watchlist(ctx context.Context, token string) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token))
}

func (m *MockBackend) Watched(ctx context.Context, token string) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token))
}

func (m *MockBackend) TotalPoints(ctx context.Context, token string) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token))
}

func (m *MockBackend) Summary(ctx context.Context, token string) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token))
}

func (m *MockBackend) Streak(ctx context.Context, token string) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token))
}

func (m *MockBackend) Daily(ctx context.Context, token string) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token))
}

func (m *MockBackend) Leaderboard(ctx context.Context, token string, period watchlist.Period) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, token, period))
}

func (m *MockBackend) Login(ctx context.Context, creds watchlist.Credentials) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, creds))
}

func (m *MockBackend) Register(ctx context.Context, creds watchlist.Credentials) (watchlist.Reply, error) {
	return m.reply(m.Called(ctx, creds))
}

var ctx = context.Background()

func TestUsecase_Add(t *testing.T) {
	t.Run("missing token never reaches the backend", func(t *testing.T) {
		b := new(MockBackend)
		uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

		_, err := uc.Add(ctx, "", watchlist.NewMovie{Title: "Heat"})

		assert.Equal(t, watchlist.ErrAuthRequired, err)
		assert.Equal(t, errs.EUNAUTHORIZED, errs.ErrorCode(err))
		b.AssertNotCalled(t, "AddToWatchlist", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("defaults the poster and relays success", func(t *testing.T) {
		b := new(MockBackend)
		want := watchlist.NewMovie{Title: "Heat", Year: 1995, Poster: watchlist.PlaceholderPoster}
		body := []byte(`{"success":true,"movie_id":7,"message":"Movie added to watchlist"}`)
		b.On("AddToWatchlist", mock.Anything, "tok", want).
			Return(watchlist.Reply{Status: http.StatusOK, Body: body}, nil).Once()
		uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

		reply, err := uc.Add(ctx, "tok", watchlist.NewMovie{Title: "Heat", Year: 1995})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, reply.Status)
		assert.JSONEq(t, string(body), string(reply.Body))
		b.AssertExpectations(t)
	})

	t.Run("keeps a supplied poster", func(t *testing.T) {
		b := new(MockBackend)
		in := watchlist.NewMovie{Title: "Heat", Rating: 8.3, Poster: "https://img/p.jpg"}
		b.On("AddToWatchlist", mock.Anything, "tok", in).
			Return(watchlist.Reply{Status: http.StatusCreated, Body: []byte(`{}`)}, nil).Once()
		uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

		reply, err := uc.Add(ctx, "tok", in)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, reply.Status)
	})
}

func TestUsecase_RelayNormalizesErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "detail string", status: http.StatusNotFound, body: `{"detail":"Movie not found"}`, message: "Movie not found"},
		{name: "error field", status: http.StatusConflict, body: `{"error":"Already in watchlist"}`, message: "Already in watchlist"},
		{name: "validation detail array", status: http.StatusUnprocessableEntity, body: `{"detail":[{"loc":["body","movie_id"]}]}`, message: "Failed to mark movie as watched"},
		{name: "html body", status: http.StatusBadGateway, body: `<html>bad gateway</html>`, message: "Failed to mark movie as watched"},
		{name: "empty body", status: http.StatusInternalServerError, body: ``, message: "Failed to mark movie as watched"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := new(MockBackend)
			b.On("MarkWatched", mock.Anything, "tok", watchlist.MarkWatched{MovieID: 3}).
				Return(watchlist.Reply{Status: tt.status, Body: []byte(tt.body)}, nil)
			uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

			reply, err := uc.MarkWatched(ctx, "tok", watchlist.MarkWatched{MovieID: 3})

			require.NoError(t, err)
			assert.Equal(t, tt.status, reply.Status)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.message), string(reply.Body))
		})
	}
}

func TestUsecase_BackendUnreachable(t *testing.T) {
	down := fmt.Errorf("%w: dial tcp 127.0.0.1:8000: connect: connection refused", watchlist.ErrBackendUnreachable)

	t.Run("reported as not running", func(t *testing.T) {
		b := new(MockBackend)
		b.On("Remove", mock.Anything, "tok", 9).Return(watchlist.Reply{}, down)
		uc := watchlist.NewUsecase(b, watchlist.Options{ReportUnavailable: true}, nil)

		_, err := uc.Remove(ctx, "tok", 9)

		assert.Equal(t, errs.EUNAVAILABLE, errs.ErrorCode(err))
		assert.Equal(t, "Backend service is not running", errs.ErrorMessage(err))
	})

	t.Run("reported as generic failure", func(t *testing.T) {
		b := new(MockBackend)
		b.On("Remove", mock.Anything, "tok", 9).Return(watchlist.Reply{}, down)
		uc := watchlist.NewUsecase(b, watchlist.Options{ReportUnavailable: false}, nil)

		_, err := uc.Remove(ctx, "tok", 9)

		assert.Equal(t, errs.EINTERNAL, errs.ErrorCode(err))
		assert.Equal(t, "Failed to remove movie", errs.ErrorMessage(err))
	})

	t.Run("other transport errors are internal", func(t *testing.T) {
		b := new(MockBackend)
		b.On("Watchlist", mock.Anything, "").Return(watchlist.Reply{}, errors.New("read body: unexpected EOF"))
		uc := watchlist.NewUsecase(b, watchlist.Options{ReportUnavailable: true}, nil)

		_, err := uc.Watchlist(ctx, "")

		assert.Equal(t, errs.EINTERNAL, errs.ErrorCode(err))
		assert.Equal(t, "Failed to fetch watchlist", errs.ErrorMessage(err))
	})
}

func TestUsecase_MutationsRequireToken(t *testing.T) {
	b := new(MockBackend)
	uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

	_, err := uc.MarkWatched(ctx, "", watchlist.MarkWatched{MovieID: 1})
	assert.Equal(t, watchlist.ErrAuthRequired, err)

	_, err = uc.Remove(ctx, "", 1)
	assert.Equal(t, watchlist.ErrAuthRequired, err)

	b.AssertExpectations(t)
}

func TestUsecase_ReadThrough(t *testing.T) {
	ok := watchlist.Reply{Status: http.StatusOK, Body: []byte(`{"total_points":130}`)}

	b := new(MockBackend)
	b.On("Watched", mock.Anything, "").Return(ok, nil).Once()
	b.On("TotalPoints", mock.Anything, "tok").Return(ok, nil).Once()
	b.On("Summary", mock.Anything, "tok").Return(ok, nil).Once()
	b.On("Streak", mock.Anything, "tok").Return(ok, nil).Once()
	b.On("Daily", mock.Anything, "tok").Return(ok, nil).Once()
	b.On("Leaderboard", mock.Anything, "", watchlist.PeriodMonth).Return(ok, nil).Once()
	uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

	for _, call := range []func() (watchlist.Reply, error){
		func() (watchlist.Reply, error) { return uc.Watched(ctx, "") },
		func() (watchlist.Reply, error) { return uc.TotalPoints(ctx, "tok") },
		func() (watchlist.Reply, error) { return uc.Summary(ctx, "tok") },
		func() (watchlist.Reply, error) { return uc.Streak(ctx, "tok") },
		func() (watchlist.Reply, error) { return uc.Daily(ctx, "tok") },
		func() (watchlist.Reply, error) { return uc.Leaderboard(ctx, "", watchlist.PeriodMonth) },
	} {
		reply, err := call()
		require.NoError(t, err)
		assert.Equal(t, ok, reply)
	}
	b.AssertExpectations(t)
}

func TestUsecase_Auth(t *testing.T) {
	b := new(MockBackend)
	b.On("Login", mock.Anything, watchlist.Credentials{Username: "ana", Password: "pw"}).
		Return(watchlist.Reply{Status: http.StatusUnauthorized, Body: []byte(`{"detail":"Invalid username or password"}`)}, nil)
	b.On("Register", mock.Anything, watchlist.Credentials{Username: "ana", Password: "pw"}).
		Return(watchlist.Reply{Status: http.StatusOK, Body: []byte(`{"access_token":"t","user":{"id":1,"username":"ana"}}`)}, nil)
	uc := watchlist.NewUsecase(b, watchlist.Options{}, nil)

	reply, err := uc.Login(ctx, watchlist.Credentials{Username: "  ana ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, reply.Status)
	assert.JSONEq(t, `{"error":"Invalid username or password"}`, string(reply.Body))

	reply, err = uc.Register(ctx, watchlist.Credentials{Username: "ana", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, reply.Status)
}

func TestErrorDetail(t *testing.T) {
	assert.Equal(t, "boom", watchlist.ErrorDetail([]byte(`{"detail":"boom","error":"other"}`), "fallback"))
	assert.Equal(t, "other", watchlist.ErrorDetail([]byte(`{"detail":"","error":"other"}`), "fallback"))
	assert.Equal(t, "fallback", watchlist.ErrorDetail([]byte(`{"detail":42}`), "fallback"))
	assert.Equal(t, "fallback", watchlist.ErrorDetail([]byte(`not json`), "fallback"))
	assert.Equal(t, "fallback", watchlist.ErrorDetail(nil, "fallback"))
}
