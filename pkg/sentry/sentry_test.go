package sentry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	sentrygo "github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSN = "https://public@sentry.example.com/1"

func TestSentry_BuilderPattern(t *testing.T) {
	e := echo.New()
	ctx := e.NewContext(nil, nil)
	err := errors.New("catalog request failed")
	extras := map[string]interface{}{"query": "nolan"}
	tags := map[string]string{"route": "/api/movies/search"}
	values := map[string]sentrygo.Context{"catalog": {"status": 503}}

	s := new(Sentry)
	result := s.
		WithContext(ctx).
		WithError(err).
		WithMessage("search failed").
		WithLevel(sentrygo.LevelError).
		WithExtras(extras).
		WithTags(tags).
		WithContextValues(values)

	assert.Same(t, s, result, "should return same instance for chaining")
	assert.Equal(t, ctx, s.context)
	assert.Equal(t, err, s.error)
	assert.Equal(t, "search failed", s.message)
	assert.Equal(t, sentrygo.LevelError, s.level)
	assert.Equal(t, extras, s.extras)
	assert.Equal(t, tags, s.tags)
	assert.Equal(t, values, s.contextValues)
}

func TestSentry_SendingBehavior(t *testing.T) {
	tests := []struct {
		name   string
		appEnv string
		dsn    string
		want   bool
	}{
		{name: "local env is skipped", appEnv: "local", dsn: testDSN, want: false},
		{name: "empty env is skipped", appEnv: "", dsn: testDSN, want: false},
		{name: "empty dsn is skipped", appEnv: "production", dsn: "", want: false},
		{name: "production with dsn sends", appEnv: "production", dsn: testDSN, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_ENV", tt.appEnv)
			t.Setenv("SENTRY_DSN", tt.dsn)

			assert.Equal(t, tt.want, enabled())

			// none of these may panic regardless of configuration
			new(Sentry).WithMessage("watchlist relay").WithLevel(sentrygo.LevelInfo).sendMessage()
			new(Sentry).WithError(errors.New("backend down")).WithLevel(sentrygo.LevelError).sendError()
		})
	}
}

func TestSentry_SendsThroughInitializedClient(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SENTRY_DSN", testDSN)

	err := sentrygo.Init(sentrygo.ClientOptions{Dsn: testDSN})
	require.NoError(t, err)
	defer sentrygo.Flush(0)

	WithTags(map[string]string{"component": "tmdb"}).
		WithExtras(map[string]interface{}{"movie_id": 27205}).
		Error(errors.New("detail lookup failed"))
	Infof("recommended list served: %s", "popular")
}

func TestSentry_LevelMethods(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	tests := []struct {
		name     string
		method   func(*Sentry)
		expected sentrygo.Level
	}{
		{name: "Debug", method: func(s *Sentry) { s.Debug("msg") }, expected: sentrygo.LevelDebug},
		{name: "Debugf", method: func(s *Sentry) { s.Debugf("msg %d", 1) }, expected: sentrygo.LevelDebug},
		{name: "Info", method: func(s *Sentry) { s.Info("msg") }, expected: sentrygo.LevelInfo},
		{name: "Infof", method: func(s *Sentry) { s.Infof("msg %d", 1) }, expected: sentrygo.LevelInfo},
		{name: "Warning", method: func(s *Sentry) { s.Warning("msg") }, expected: sentrygo.LevelWarning},
		{name: "Warningf", method: func(s *Sentry) { s.Warningf("msg %d", 1) }, expected: sentrygo.LevelWarning},
		{name: "Error", method: func(s *Sentry) { s.Error(errors.New("boom")) }, expected: sentrygo.LevelError},
		{name: "Errorf", method: func(s *Sentry) { s.Errorf("boom %d", 1) }, expected: sentrygo.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(Sentry)
			tt.method(s)
			assert.Equal(t, tt.expected, s.level)
		})
	}
}

func TestSentry_Fatal(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	originalFlushTime := FlushTime
	FlushTime = 0
	defer func() { FlushTime = originalFlushTime }()

	s := new(Sentry)
	s.Fatal(errors.New("fatal error"))
	assert.Equal(t, sentrygo.LevelFatal, s.level)

	Fatalf("fatal: %s", "test")
}

func TestSentry_StandaloneFunctions(t *testing.T) {
	t.Setenv("APP_ENV", "local")

	assert.NotPanics(t, func() {
		Debug("debug")
		Debugf("debug: %s", "x")
		Info("info")
		Infof("info: %s", "x")
		Warning("warning")
		Warningf("warning: %s", "x")
		Error(errors.New("error"))
		Errorf("error: %s", "x")
	})
}

func TestSentry_GetHub(t *testing.T) {
	t.Run("returns current hub when no context", func(t *testing.T) {
		hub := new(Sentry).getHub()

		assert.Same(t, sentrygo.CurrentHub(), hub)
	})

	t.Run("falls back to current hub when echo context has none", func(t *testing.T) {
		ctx := echo.New().NewContext(nil, nil)

		hub := WithContext(ctx).getHub()

		assert.Same(t, sentrygo.CurrentHub(), hub)
	})

	t.Run("returns hub stored by the echo middleware", func(t *testing.T) {
		e := echo.New()
		e.Use(sentryecho.New(sentryecho.Options{}))

		var got *sentrygo.Hub
		e.GET("/", func(c echo.Context) error {
			got = WithContext(c).getHub()
			return c.NoContent(http.StatusOK)
		})

		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotNil(t, got)
		assert.NotSame(t, sentrygo.CurrentHub(), got, "middleware clones a hub per request")
	})
}

func TestSentry_ConfigScope(t *testing.T) {
	s := new(Sentry)
	s.level = sentrygo.LevelError
	s.extras = map[string]interface{}{"key": "value"}
	s.tags = map[string]string{"env": "test"}
	s.contextValues = map[string]sentrygo.Context{"custom": {}}

	scope := sentrygo.NewScope()

	assert.NotPanics(t, func() { s.configScope(scope) })
}
