package httpserver

import (
	"net/http"

	"movietracker/errs"
	"movietracker/movie"

	"github.com/labstack/echo/v4"
)

func (s *Server) RegisterPublicMovieRoutes(g *echo.Group) {
	g.GET("/movies/search", s.handleSearchMovies)
	g.GET("/movies/recommended", s.handleRecommendedMovies)
}

// handleSearchMovies godoc
// @Summary Search Movies
// @Description Title matches merged with the filmography of matching directors
// @Tags movies
// @Produce json
// @Param q query string false "Search query"
// @Success 200 {object} MovieListResponse
// @Failure 400 {object} MovieListResponse
// @Failure 500 {object} MovieListResponse
// @Router /api/movies/search [get]
func (s *Server) handleSearchMovies(c echo.Context) error {
	if s.MovieService == nil {
		return s.movieError(c, errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured"))
	}

	results, err := s.MovieService.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return s.movieError(c, err)
	}

	return c.JSON(http.StatusOK, MovieListResponse{Results: nonNil(results)})
}

// handleRecommendedMovies godoc
// @Summary Recommended Movies
// @Description One page of a curated list. Unknown types fall back to popular.
// @Tags movies
// @Produce json
// @Param type query string false "popular, top_rated, now_playing, upcoming or random"
// @Success 200 {object} MovieListResponse
// @Failure 400 {object} MovieListResponse
// @Failure 500 {object} MovieListResponse
// @Router /api/movies/recommended [get]
func (s *Server) handleRecommendedMovies(c echo.Context) error {
	if s.MovieService == nil {
		return s.movieError(c, errs.Errorf(errs.ENOTIMPLEMENTED, "movie service not configured"))
	}

	category := movie.ParseCategory(c.QueryParam("type"))
	results, err := s.MovieService.Recommended(c.Request().Context(), category)
	if err != nil {
		return s.movieError(c, err)
	}

	return c.JSON(http.StatusOK, MovieListResponse{
		Results: nonNil(results),
		Type:    string(category),
	})
}

// movieError answers {"results": [], "error": message}.
func (s *Server) movieError(c echo.Context, err error) error {
	status := statusCode(err)
	s.logError(c, err, status)
	return c.JSON(status, MovieListResponse{
		Results: []movie.Movie{},
		Error:   errs.ErrorMessage(err),
	})
}

func nonNil(movies []movie.Movie) []movie.Movie {
	if movies == nil {
		return []movie.Movie{}
	}
	return movies
}
