package movie

import (
	"context"
	"math/rand/v2"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DepartmentDirecting = "Directing"
	JobDirector         = "Director"

	MaxResults            = 20
	maxDirectors          = 3
	maxCreditsPerDirector = 10
	maxTitleMatches       = 15
	randomPages           = 10
)

type Service interface {
	Search(ctx context.Context, query string) ([]Movie, error)
	Recommended(ctx context.Context, c Category) ([]Movie, error)
}

// Person is a person-search hit.
type Person struct {
	ID                 int
	Name               string
	KnownForDepartment string
}

// Credit is one crew credit. MovieID is set for filmography lookups, Name for
// credits embedded in a movie detail.
type Credit struct {
	MovieID int
	Name    string
	Job     string
}

// Details is a movie detail payload with its embedded crew.
type Details struct {
	Movie
	Crew []Credit
}

// Catalog is the port to the external movie metadata service.
type Catalog interface {
	Configured() bool
	SearchMovies(ctx context.Context, query string) ([]Movie, error)
	SearchPeople(ctx context.Context, query string) ([]Person, error)
	PersonCredits(ctx context.Context, personID int) ([]Credit, error)
	MovieDetails(ctx context.Context, movieID int) (Details, error)
	List(ctx context.Context, c Category, page int) ([]Movie, error)
}

type Usecase struct {
	catalog  Catalog
	logger   *zap.SugaredLogger
	randPage func() int
}

func NewUsecase(catalog Catalog, logger *zap.SugaredLogger) *Usecase {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Usecase{
		catalog: catalog,
		logger:  logger,
		randPage: func() int {
			return rand.IntN(randomPages) + 1
		},
	}
}

// Search aggregates title matches and the filmographies of matching directors.
func (uc *Usecase) Search(ctx context.Context, query string) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Movie{}, nil
	}
	if !uc.catalog.Configured() {
		return []Movie{}, ErrCatalogNotConfigured
	}

	titles, people, err := uc.searchBoth(ctx, query)
	if err != nil {
		return []Movie{}, err
	}

	ids := newIDSet()
	for _, id := range uc.directedMovieIDs(ctx, directorIDs(people)) {
		ids.add(id)
	}
	for i, m := range titles {
		if i == maxTitleMatches {
			break
		}
		ids.add(m.ID)
	}

	details := uc.fetchDetails(ctx, ids.first(MaxResults))

	results := make([]Movie, 0, len(details))
	for _, d := range details {
		m := d.Movie
		m.Director = directorName(d.Crew)
		m.Overview = nil
		results = append(results, m)
	}
	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results, nil
}

// Recommended returns one page of a curated category.
func (uc *Usecase) Recommended(ctx context.Context, c Category) ([]Movie, error) {
	if !uc.catalog.Configured() {
		return []Movie{}, ErrCatalogNotConfigured
	}

	page := 1
	if c == CategoryRandom {
		page = uc.randPage()
	}

	movies, err := uc.catalog.List(ctx, c, page)
	if err != nil {
		uc.logger.Errorw("recommended list failed", "category", c, "page", page, "error", err)
		return []Movie{}, ErrRecommendedFailed
	}

	if len(movies) > MaxResults {
		movies = movies[:MaxResults]
	}
	for i := range movies {
		if movies[i].Overview == nil {
			empty := ""
			movies[i].Overview = &empty
		}
	}
	return movies, nil
}

// searchBoth runs title and person search concurrently. It only fails when both do.
func (uc *Usecase) searchBoth(ctx context.Context, query string) ([]Movie, []Person, error) {
	var (
		titles    []Movie
		people    []Person
		titleErr  error
		peopleErr error
		g         errgroup.Group
	)

	g.Go(func() error {
		titles, titleErr = uc.catalog.SearchMovies(ctx, query)
		return nil
	})
	g.Go(func() error {
		people, peopleErr = uc.catalog.SearchPeople(ctx, query)
		return nil
	})
	_ = g.Wait()

	if titleErr != nil && peopleErr != nil {
		uc.logger.Errorw("catalog search failed", "query", query, "movie_error", titleErr, "person_error", peopleErr)
		return nil, nil, ErrCatalogUnavailable
	}
	if titleErr != nil {
		uc.logger.Warnw("movie search failed, continuing with person results", "query", query, "error", titleErr)
		titles = nil
	}
	if peopleErr != nil {
		uc.logger.Warnw("person search failed, continuing with movie results", "query", query, "error", peopleErr)
		people = nil
	}
	return titles, people, nil
}

// directedMovieIDs looks up each director's filmography. Order follows the
// director order, failures leave an empty slot.
func (uc *Usecase) directedMovieIDs(ctx context.Context, directors []int) []int {
	slots := make([][]int, len(directors))

	var g errgroup.Group
	for i, personID := range directors {
		g.Go(func() error {
			credits, err := uc.catalog.PersonCredits(ctx, personID)
			if err != nil {
				uc.logger.Warnw("director credits lookup failed", "person_id", personID, "error", err)
				return nil
			}
			for _, c := range credits {
				if c.Job != JobDirector || c.MovieID == 0 {
					continue
				}
				slots[i] = append(slots[i], c.MovieID)
				if len(slots[i]) == maxCreditsPerDirector {
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	var ids []int
	for _, s := range slots {
		ids = append(ids, s...)
	}
	return ids
}

// fetchDetails loads details concurrently and keeps the input order. Failed
// lookups are dropped.
func (uc *Usecase) fetchDetails(ctx context.Context, ids []int) []Details {
	slots := make([]*Details, len(ids))

	var g errgroup.Group
	g.SetLimit(MaxResults)
	for i, id := range ids {
		g.Go(func() error {
			d, err := uc.catalog.MovieDetails(ctx, id)
			if err != nil {
				uc.logger.Warnw("movie details lookup failed", "movie_id", id, "error", err)
				return nil
			}
			slots[i] = &d
			return nil
		})
	}
	_ = g.Wait()

	details := make([]Details, 0, len(ids))
	for _, d := range slots {
		if d != nil {
			details = append(details, *d)
		}
	}
	return details
}

func directorIDs(people []Person) []int {
	seen := newIDSet()
	for _, p := range people {
		if p.KnownForDepartment != DepartmentDirecting {
			continue
		}
		seen.add(p.ID)
		if seen.len() == maxDirectors {
			break
		}
	}
	return seen.first(maxDirectors)
}

func directorName(crew []Credit) string {
	for _, c := range crew {
		if c.Job == JobDirector {
			return c.Name
		}
	}
	return ""
}

// idSet is an insertion ordered set of catalog ids.
type idSet struct {
	seen  map[int]struct{}
	order []int
}

func newIDSet() *idSet {
	return &idSet{seen: make(map[int]struct{})}
}

func (s *idSet) add(id int) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *idSet) len() int {
	return len(s.order)
}

func (s *idSet) first(n int) []int {
	if len(s.order) > n {
		return s.order[:n]
	}
	return s.order
}
