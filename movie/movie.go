package movie

import (
	"strconv"
	"strings"

	"movietracker/errs"
)

// PlaceholderPoster is returned when the catalog has no poster for a title.
const PlaceholderPoster = "/placeholder.svg"

var (
	ErrCatalogNotConfigured = errs.Errorf(errs.EINVALID, "TMDB_API_KEY is not configured. Set it in the environment or a .env file.")
	ErrCatalogUnavailable   = errs.Errorf(errs.EINTERNAL, "TMDB API request failed")
	ErrRecommendedFailed    = errs.Errorf(errs.EINTERNAL, "Failed to fetch recommended movies")
)

// Movie is the flat record returned to clients.
type Movie struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Year     int     `json:"year"`
	Rating   float64 `json:"rating"`
	Poster   string  `json:"poster"`
	Director string  `json:"director,omitempty"`
	Overview *string `json:"overview,omitempty"`
}

// Category selects a curated list from the catalog.
type Category string

const (
	CategoryPopular    Category = "popular"
	CategoryTopRated   Category = "top_rated"
	CategoryNowPlaying Category = "now_playing"
	CategoryUpcoming   Category = "upcoming"
	CategoryRandom     Category = "random"
)

// ParseCategory resolves a client token. Anything unrecognized is popular.
func ParseCategory(raw string) Category {
	switch c := Category(strings.TrimSpace(raw)); c {
	case CategoryPopular, CategoryTopRated, CategoryNowPlaying, CategoryUpcoming, CategoryRandom:
		return c
	default:
		return CategoryPopular
	}
}

// ReleaseYear extracts the year from a catalog date such as "2010-07-15".
// Missing or malformed dates yield 0.
func ReleaseYear(date string) int {
	date = strings.TrimSpace(date)
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}

// PosterURL joins the image base and a path fragment, or returns the placeholder.
func PosterURL(imageBase, path string) string {
	if path == "" {
		return PlaceholderPoster
	}
	return strings.TrimRight(imageBase, "/") + "/" + strings.TrimLeft(path, "/")
}
