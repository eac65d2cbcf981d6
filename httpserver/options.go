package httpserver

import (
	"errors"

	"movietracker/movie"
	"movietracker/pkg/config"
	"movietracker/watchlist"

	"go.uber.org/zap"
)

type Options func(s *Server) error

func WithConfig(cfg *config.Config) Options {
	return func(s *Server) error {
		if cfg == nil {
			return errors.New("httpserver: nil config")
		}
		s.Config = cfg
		return nil
	}
}

func WithLogger(l *zap.SugaredLogger) Options {
	return func(s *Server) error {
		if l != nil {
			s.Logger = l
		}
		return nil
	}
}

func WithAddr(addr string) Options {
	return func(s *Server) error {
		s.Addr = addr
		return nil
	}
}

func WithAllowOrigins(origins []string) Options {
	return func(s *Server) error {
		s.AllowOrigins = origins
		return nil
	}
}

func WithMovieService(svc movie.Service) Options {
	return func(s *Server) error {
		s.MovieService = svc
		return nil
	}
}

func WithWatchlistService(svc watchlist.Service) Options {
	return func(s *Server) error {
		s.WatchlistService = svc
		return nil
	}
}

func WithCatalog(c CatalogStatus) Options {
	return func(s *Server) error {
		s.Catalog = c
		return nil
	}
}
