// Package catalog implements the query engine over the movie
// collection: cursor-paginated listing with client-side accumulation,
// full-text search, and dual-mode sorting (server-side for plain
// listings, client-side over an active search).
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/moviehub/cli/api"
)

// Validation errors raised before any network call
var (
	// ErrEmptyQuery indicates an empty or whitespace-only search term
	ErrEmptyQuery = fmt.Errorf("search term is required")
	// ErrNoSortField indicates no sort field was selected
	ErrNoSortField = fmt.Errorf("sort field is required")
	// ErrBadSortField indicates an unsupported sort field
	ErrBadSortField = fmt.Errorf("unsupported sort field")
	// ErrBadSortOrder indicates an order other than asc/desc
	ErrBadSortOrder = fmt.Errorf("sort order must be asc or desc")
)

// Lister is the slice of the API client the engine depends on
type Lister interface {
	ListMovies(ctx context.Context, limit int, cursor string) (api.MoviePage, error)
	SearchMovies(ctx context.Context, query string) ([]api.Movie, error)
	SortedMovies(ctx context.Context, field, order string) ([]api.Movie, error)
}

// Engine accumulates listing pages and tracks whether a search is
// active, which decides where sorting happens. Safe for concurrent use;
// overlapping LoadMore calls are collapsed rather than double-appended.
type Engine struct {
	client Lister
	limit  int
	logger zerolog.Logger

	mu          sync.Mutex
	movies      []api.Movie
	nextCursor  string
	hasMore     bool
	loadingMore bool
	searchQuery string // non-empty while search mode is active
}

// NewEngine creates a catalog query engine fetching limit items per page
func NewEngine(client Lister, limit int, logger zerolog.Logger) *Engine {
	return &Engine{
		client: client,
		limit:  limit,
		logger: logger,
	}
}

// List fetches a fresh first page, replacing any accumulated results
// and leaving search mode.
func (e *Engine) List(ctx context.Context) ([]api.Movie, error) {
	page, err := e.client.ListMovies(ctx, e.limit, "")
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.movies = append([]api.Movie(nil), page.Movies...)
	e.nextCursor = page.NextCursor
	e.hasMore = page.HasNext
	e.searchQuery = ""

	e.logger.Debug().Int("count", len(page.Movies)).Bool("has_more", page.HasNext).
		Msg("Fetched first catalog page")

	return e.snapshotLocked(), nil
}

// LoadMore appends the next page using the stored cursor. It is a
// no-op when no further page exists or while a previous LoadMore is
// still outstanding, so a double invocation can never append twice.
// Results are never deduplicated: the server cursor is the sole source
// of ordering and non-repetition truth.
func (e *Engine) LoadMore(ctx context.Context) ([]api.Movie, error) {
	e.mu.Lock()
	if !e.hasMore || e.loadingMore {
		e.mu.Unlock()
		return e.Movies(), nil
	}
	e.loadingMore = true
	cursor := e.nextCursor
	e.mu.Unlock()

	page, err := e.client.ListMovies(ctx, e.limit, cursor)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.loadingMore = false

	if err != nil {
		return nil, err
	}

	e.movies = append(e.movies, page.Movies...)
	e.nextCursor = page.NextCursor
	e.hasMore = page.HasNext

	e.logger.Debug().Int("count", len(page.Movies)).Int("total", len(e.movies)).
		Msg("Appended catalog page")

	return e.snapshotLocked(), nil
}

// Search performs a full-text search, replacing the displayed set
// wholesale and entering search mode. Empty or whitespace-only queries
// are rejected before any network call.
func (e *Engine) Search(ctx context.Context, query string) ([]api.Movie, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	movies, err := e.client.SearchMovies(ctx, query)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.movies = movies
	e.hasMore = false
	e.nextCursor = ""
	e.searchQuery = query

	return e.snapshotLocked(), nil
}

// Sort orders the displayed set. With no active search the server's
// sorted-listing endpoint provides the set; with a search active the
// same search is re-issued and sorted client-side, since the search
// endpoint accepts no sort parameter.
func (e *Engine) Sort(ctx context.Context, field, order string) ([]api.Movie, error) {
	if field == "" {
		return nil, ErrNoSortField
	}
	if err := validateSort(field, order); err != nil {
		return nil, err
	}

	e.mu.Lock()
	query := e.searchQuery
	e.mu.Unlock()

	if query != "" {
		movies, err := e.client.SearchMovies(ctx, query)
		if err != nil {
			return nil, err
		}
		sortMovies(movies, field, order)

		e.mu.Lock()
		defer e.mu.Unlock()
		e.movies = movies
		return e.snapshotLocked(), nil
	}

	movies, err := e.client.SortedMovies(ctx, field, order)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.movies = movies
	e.hasMore = false
	e.nextCursor = ""

	return e.snapshotLocked(), nil
}

// Movies returns a copy of the currently displayed set
func (e *Engine) Movies() []api.Movie {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// snapshotLocked copies the displayed set; callers hold e.mu
func (e *Engine) snapshotLocked() []api.Movie {
	return append([]api.Movie(nil), e.movies...)
}

// HasMore reports whether another listing page is available
func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// SearchActive reports whether the displayed set came from a search
func (e *Engine) SearchActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.searchQuery != ""
}
