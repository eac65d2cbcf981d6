package httpserver

import (
	"context"
	"strconv"

	"movietracker/errs"
	"movietracker/watchlist"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterPublicWatchlistRoutes(g *echo.Group) {
	g.GET("/movies/watchlist", s.handleWatchlist)
	g.GET("/movies/watched", s.handleWatched)
	g.GET("/stats/total-points", s.handleTotalPoints)
	g.GET("/stats/summary", s.handleStatsSummary)
	g.GET("/stats/streak", s.handleStreak)
	g.GET("/stats/daily", s.handleDailyStats)
	g.GET("/leaderboard", s.handleLeaderboard)
}

func (s *Server) RegisterPrivateWatchlistRoutes(g *echo.Group) {
	g.POST("/movies/add", s.handleAddMovie)
	g.POST("/movies/mark-watched", s.handleMarkWatched)
	g.DELETE("/movies/watchlist/:id", s.handleRemoveMovie)
}

var errWatchlistNotConfigured = errs.Errorf(errs.ENOTIMPLEMENTED, "watchlist service not configured")

// handleAddMovie godoc
// @Summary Add To Watchlist
// @Description Store a catalog record on the caller's watchlist
// @Tags watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param movie body AddMovieRequest true "Movie"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /api/movies/add [post]
func (s *Server) handleAddMovie(c echo.Context) error {
	if s.WatchlistService == nil {
		return s.handleError(c, errWatchlistNotConfigured)
	}

	var req AddMovieRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, errs.Errorf(errs.EINVALID, "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return s.handleError(c, err)
	}

	reply, err := s.WatchlistService.Add(c.Request().Context(), bearerToken(c), req.ToMovie())
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}

// handleMarkWatched godoc
// @Summary Mark Watched
// @Description Move a watchlist entry to the watched list and earn points
// @Tags watchlist
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body MarkWatchedRequest true "Movie id and optional watch date"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/movies/mark-watched [post]
func (s *Server) handleMarkWatched(c echo.Context) error {
	if s.WatchlistService == nil {
		return s.handleError(c, errWatchlistNotConfigured)
	}

	var req MarkWatchedRequest
	if err := c.Bind(&req); err != nil {
		return s.handleError(c, errs.Errorf(errs.EINVALID, "invalid request body"))
	}
	if err := c.Validate(&req); err != nil {
		return s.handleError(c, err)
	}

	reply, err := s.WatchlistService.MarkWatched(c.Request().Context(), bearerToken(c), req.ToMarkWatched())
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}

// handleRemoveMovie godoc
// @Summary Remove From Watchlist
// @Tags watchlist
// @Produce json
// @Security BearerAuth
// @Param id path int true "Movie id"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/movies/watchlist/{id} [delete]
func (s *Server) handleRemoveMovie(c echo.Context) error {
	if s.WatchlistService == nil {
		return s.handleError(c, errWatchlistNotConfigured)
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return s.handleError(c, errs.Errorf(errs.EINVALID, "invalid movie id"))
	}

	reply, err := s.WatchlistService.Remove(c.Request().Context(), bearerToken(c), id)
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}

// handleWatchlist godoc
// @Summary Watchlist
// @Description Unwatched entries, newest first
// @Tags watchlist
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/movies/watchlist [get]
func (s *Server) handleWatchlist(c echo.Context) error {
	return s.relay(c, watchlist.Service.Watchlist)
}

// handleWatched godoc
// @Summary Watched Movies
// @Tags watchlist
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/movies/watched [get]
func (s *Server) handleWatched(c echo.Context) error {
	return s.relay(c, watchlist.Service.Watched)
}

// handleTotalPoints godoc
// @Summary Total Points
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/stats/total-points [get]
func (s *Server) handleTotalPoints(c echo.Context) error {
	return s.relay(c, watchlist.Service.TotalPoints)
}

// handleStatsSummary godoc
// @Summary Stats Summary
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/stats/summary [get]
func (s *Server) handleStatsSummary(c echo.Context) error {
	return s.relay(c, watchlist.Service.Summary)
}

// handleStreak godoc
// @Summary Watching Streak
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/stats/streak [get]
func (s *Server) handleStreak(c echo.Context) error {
	return s.relay(c, watchlist.Service.Streak)
}

// handleDailyStats godoc
// @Summary Today's Watching Stats
// @Tags stats
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/stats/daily [get]
func (s *Server) handleDailyStats(c echo.Context) error {
	return s.relay(c, watchlist.Service.Daily)
}

// handleLeaderboard godoc
// @Summary Leaderboard
// @Tags stats
// @Produce json
// @Param period query string false "week, month, year or all_time"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Router /api/leaderboard [get]
func (s *Server) handleLeaderboard(c echo.Context) error {
	if s.WatchlistService == nil {
		return s.handleError(c, errWatchlistNotConfigured)
	}

	period, err := watchlist.ParsePeriod(c.QueryParam("period"))
	if err != nil {
		return s.handleError(c, err)
	}

	reply, err := s.WatchlistService.Leaderboard(c.Request().Context(), bearerToken(c), period)
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}

type readFunc func(svc watchlist.Service, ctx context.Context, token string) (watchlist.Reply, error)

// relay runs a token-only read and writes the reply.
func (s *Server) relay(c echo.Context, read readFunc) error {
	if s.WatchlistService == nil {
		return s.handleError(c, errWatchlistNotConfigured)
	}
	reply, err := read(s.WatchlistService, c.Request().Context(), bearerToken(c))
	if err != nil {
		return s.handleError(c, err)
	}
	return writeReply(c, reply)
}
