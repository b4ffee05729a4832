package catalog

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/moviehub/cli/api"
)

// Sortable fields, matching the server's sorted-listing contract
const (
	SortByName        = "name"
	SortByRating      = "rating"
	SortByReleaseDate = "releaseDate"
	SortByDuration    = "duration"
)

// Sort orders
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// SortFields lists the supported sort fields in display order
var SortFields = []string{SortByName, SortByRating, SortByReleaseDate, SortByDuration}

func validateSort(field, order string) error {
	switch field {
	case SortByName, SortByRating, SortByReleaseDate, SortByDuration:
	default:
		return fmt.Errorf("%w: %q", ErrBadSortField, field)
	}
	switch order {
	case OrderAsc, OrderDesc:
	default:
		return fmt.Errorf("%w: %q", ErrBadSortOrder, order)
	}
	return nil
}

// sortMovies orders movies in place. Title comparison uses
// case-insensitive locale collation; numeric and date fields compare by
// value. The sort is stable so equal keys keep their server order.
func sortMovies(movies []api.Movie, field, order string) {
	var less func(a, b api.Movie) bool

	switch field {
	case SortByName:
		// A fresh collator per sort: collate.Collator buffers are not
		// safe for concurrent use.
		coll := collate.New(language.English, collate.IgnoreCase)
		less = func(a, b api.Movie) bool {
			return coll.CompareString(a.Title, b.Title) < 0
		}
	case SortByRating:
		less = func(a, b api.Movie) bool { return a.Rating < b.Rating }
	case SortByDuration:
		less = func(a, b api.Movie) bool { return a.Duration < b.Duration }
	case SortByReleaseDate:
		less = func(a, b api.Movie) bool { return a.ReleaseDate.Before(b.ReleaseDate) }
	default:
		return
	}

	sort.SliceStable(movies, func(i, j int) bool {
		if order == OrderDesc {
			return less(movies[j], movies[i])
		}
		return less(movies[i], movies[j])
	})
}
