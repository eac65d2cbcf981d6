package httpserver

import (
	"movietracker/watchlist"
)

// AddMovieRequest accepts a catalog record. Extra fields such as id or
// director are ignored.
type AddMovieRequest struct {
	Title  string  `json:"title" validate:"required,notblank,max=500"`
	Year   int     `json:"year" validate:"gte=0,lte=3000"`
	Rating float64 `json:"rating" validate:"gte=0,lte=10"`
	Poster string  `json:"poster" validate:"max=2048"`
}

func (r AddMovieRequest) ToMovie() watchlist.NewMovie {
	return watchlist.NewMovie{
		Title:  r.Title,
		Year:   r.Year,
		Rating: r.Rating,
		Poster: r.Poster,
	}
}

type MarkWatchedRequest struct {
	MovieID     int    `json:"movie_id" validate:"required,gt=0"`
	DateWatched string `json:"date_watched" validate:"max=64"`
}

func (r MarkWatchedRequest) ToMarkWatched() watchlist.MarkWatched {
	return watchlist.MarkWatched{
		MovieID:     r.MovieID,
		DateWatched: r.DateWatched,
	}
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,notblank,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

func (r CredentialsRequest) ToCredentials() watchlist.Credentials {
	return watchlist.Credentials{
		Username: r.Username,
		Password: r.Password,
	}
}
