package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"movietracker/errs"
	"movietracker/movie"
	"movietracker/pkg/config"
	"movietracker/pkg/logger"
	"movietracker/pkg/sentry"
	"movietracker/watchlist"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	// Router is the Echo router instance
	Router *echo.Echo

	// Addr represents the address the server will listen on
	Addr string

	// Allowed origins for CORS
	AllowOrigins []string

	Config *config.Config
	Logger *zap.SugaredLogger

	MovieService     movie.Service
	WatchlistService watchlist.Service

	// Catalog reports whether the movie catalog has credentials.
	Catalog CatalogStatus
}

type CatalogStatus interface {
	Configured() bool
}

func New(options ...Options) (*Server, error) {
	s := Server{
		Router: echo.New(),
		Config: config.Empty,
		Logger: logger.NOOPLogger,
	}

	for _, fn := range options {
		if err := fn(&s); err != nil {
			return nil, err
		}
	}

	if s.Addr == "" {
		port := s.Config.Port
		if port == 0 {
			port = 8080
		}
		s.Addr = fmt.Sprintf(":%d", port)
	}
	if s.AllowOrigins == nil {
		s.AllowOrigins = splitOrigins(s.Config.AllowOrigins)
	}

	s.Router.HideBanner = true
	s.Router.Validator = NewValidator()
	s.Router.HTTPErrorHandler = s.customHTTPErrorHandler
	s.RegisterGlobalMiddlewares()

	api := s.Router.Group("/api")

	// PUBLIC
	public := api.Group("")
	s.RegisterPublicRoutes(public)

	// PRIVATE
	private := api.Group("")
	private.Use(s.requireBearer())
	s.RegisterPrivateRoutes(private)

	s.RegisterHealthRoutes()
	s.RegisterSwaggerRoutes()

	return &s, nil
}

func (s *Server) RegisterGlobalMiddlewares() {
	s.Router.Use(middleware.Recover())
	s.Router.Use(middleware.Secure())
	s.Router.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.Router.Use(middleware.Gzip())
	s.Router.Use(sentryecho.New(sentryecho.Options{Repanic: true}))
	s.Router.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))

	// CORS
	if len(s.AllowOrigins) > 0 {
		s.Router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: s.AllowOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}
}

func (s *Server) RegisterPublicRoutes(g *echo.Group) {
	s.RegisterPublicMovieRoutes(g)
	s.RegisterPublicWatchlistRoutes(g)
	s.RegisterAuthRoutes(g)
}

func (s *Server) RegisterPrivateRoutes(g *echo.Group) {
	s.RegisterPrivateWatchlistRoutes(g)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}

func (s *Server) Start() error {
	return s.Router.Start(s.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Router.Shutdown(ctx)
}

// statusCode maps application error codes to HTTP statuses.
func statusCode(err error) int {
	switch errs.ErrorCode(err) {
	case errs.EINVALID:
		return http.StatusBadRequest
	case errs.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case errs.ENOTFOUND:
		return http.StatusNotFound
	case errs.ECONFLICT:
		return http.StatusConflict
	case errs.ENOTIMPLEMENTED:
		return http.StatusNotImplemented
	case errs.EUNAVAILABLE:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// customHTTPErrorHandler maps application errors to appropriate HTTP status codes
func (s *Server) customHTTPErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := "Internal server error"

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	} else if _, ok := err.(*errs.Error); ok && errs.ErrorCode(err) != errs.EINTERNAL {
		code = statusCode(err)
		message = errs.ErrorMessage(err)
	}

	if code >= http.StatusInternalServerError {
		s.Logger.Errorw(err.Error(), zap.String("request_id", s.requestID(c)))
		sentry.WithContext(c).Error(err)
	}

	// Don't write response if already committed
	if !c.Response().Committed {
		if err := c.JSON(code, map[string]string{"error": message}); err != nil {
			s.Logger.Errorw("write error response", "error", err)
		}
	}
}

// handleError logs err, reports server faults, and answers {"error": message}
// with the application message intact.
func (s *Server) handleError(c echo.Context, err error) error {
	status := statusCode(err)
	s.logError(c, err, status)
	return c.JSON(status, map[string]string{"error": errs.ErrorMessage(err)})
}

func (s *Server) logError(c echo.Context, err error, status int) {
	if status < http.StatusInternalServerError {
		s.Logger.Infow(err.Error(), zap.String("request_id", s.requestID(c)), zap.Int("status", status))
		return
	}

	s.Logger.Errorw(err.Error(), zap.String("request_id", s.requestID(c)), zap.Int("status", status))
	sentry.WithContext(c).
		WithTags(map[string]string{"route": c.Path()}).
		Error(err)
}

func (s *Server) requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func splitOrigins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
