package tmdb

import "movietracker/movie"

type movieResult struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	ReleaseDate   string   `json:"release_date"`
	VoteAverage   float64  `json:"vote_average"`
	PosterPath    string   `json:"poster_path"`
	Overview      *string  `json:"overview"`
	Credits       *credits `json:"credits,omitempty"`
}

type personResult struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	KnownForDepartment string `json:"known_for_department"`
}

type crewMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

type credits struct {
	Crew []crewMember `json:"crew"`
}

type movieSearchResponse struct {
	Page    int           `json:"page"`
	Results []movieResult `json:"results"`
}

type personSearchResponse struct {
	Page    int            `json:"page"`
	Results []personResult `json:"results"`
}

// searchTitle prefers the localized title.
func (r movieResult) searchTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.OriginalTitle
}

// listTitle prefers the original title.
func (r movieResult) listTitle() string {
	if r.OriginalTitle != "" {
		return r.OriginalTitle
	}
	return r.Title
}

func (r movieResult) toMovie(imageBase, title string) movie.Movie {
	return movie.Movie{
		ID:       r.ID,
		Title:    title,
		Year:     movie.ReleaseYear(r.ReleaseDate),
		Rating:   r.VoteAverage,
		Poster:   movie.PosterURL(imageBase, r.PosterPath),
		Overview: r.Overview,
	}
}
