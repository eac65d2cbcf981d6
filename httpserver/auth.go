package httpserver

import (
	"strings"

	"movietracker/errs"
	"movietracker/watchlist"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const bearerScheme = "Bearer"

const tokenContextKey = "auth_token"

// requireBearer rejects requests without a bearer credential. The token is
// opaque here and only forwarded to the backend.
func (s *Server) requireBearer() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: bearerScheme,
		Validator: func(key string, c echo.Context) (bool, error) {
			key = strings.TrimSpace(key)
			if key == "" {
				return false, nil
			}
			c.Set(tokenContextKey, key)
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return watchlist.ErrAuthRequired
		},
	})
}

// bearerToken returns the token stored by requireBearer, or parses the
// Authorization header on public routes. Empty when absent.
func bearerToken(c echo.Context) string {
	if token, ok := c.Get(tokenContextKey).(string); ok {
		return token
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	prefix := bearerScheme + " "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

func (s *Server) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/auth/login", s.handleLogin)
	g.POST("/auth/register", s.handleRegister)
}

// handleLogin godoc
// @Summary User Login
// @Description Relay credentials to the backend and return its access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body CredentialsRequest true "Login Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/auth/login [post]
func (s *Server) handleLogin(c echo.Context) error {
	req, err := s.bindCredentials(c)
	if err != nil {
		return s.handleError(c, err)
	}

	reply, err := s.WatchlistService.Login(c.Request().Context(), req.ToCredentials())
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}

// handleRegister godoc
// @Summary User Register
// @Description Create a backend account and return its access token
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body CredentialsRequest true "Register payload"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/auth/register [post]
func (s *Server) handleRegister(c echo.Context) error {
	req, err := s.bindCredentials(c)
	if err != nil {
		return s.handleError(c, err)
	}

	reply, err := s.WatchlistService.Register(c.Request().Context(), req.ToCredentials())
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}

func (s *Server) bindCredentials(c echo.Context) (CredentialsRequest, error) {
	var req CredentialsRequest
	if s.WatchlistService == nil {
		return req, errs.Errorf(errs.ENOTIMPLEMENTED, "watchlist service not configured")
	}
	if err := c.Bind(&req); err != nil {
		return req, errs.Errorf(errs.EINVALID, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	req.Username = strings.TrimSpace(req.Username)
	return req, nil
}
