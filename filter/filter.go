// Package filter compiles expr expressions into predicates over catalog
// movies, for narrowing fetched result sets client-side.
//
// Expressions see the movie's fields and a small set of helpers:
//
//	Rating >= 7.5 and contains(Title, "star")
//	year(ReleaseDate) < 2000 and hasGenre("Drama")
//	Duration > 150 or startsWith(Title, "the")
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/moviehub/cli/api"
)

// Filter is a compiled movie predicate
type Filter struct {
	expression string
	program    *vm.Program
}

// compiled programs are cached; repeated --filter flags across commands
// hit the same expressions
var compiledPrograms = newProgramCache(64)

// Compile compiles a filter expression. Results must be boolean; that
// is checked at evaluation time since expr allows undefined variables.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("empty filter expression")
	}

	if cached, ok := compiledPrograms.get(expression); ok {
		return cached, nil
	}

	program, err := expr.Compile(expression,
		expr.Env(buildEnv(api.Movie{})),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile filter expression: %w", err)
	}

	f := &Filter{expression: expression, program: program}
	compiledPrograms.put(expression, f)

	return f, nil
}

// Match evaluates the filter against a single movie
func (f *Filter) Match(movie api.Movie) (bool, error) {
	output, err := expr.Run(f.program, buildEnv(movie))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter: %w", err)
	}

	result, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression must evaluate to a boolean, got %T", output)
	}

	return result, nil
}

// Apply returns the movies matching the filter, preserving order
func (f *Filter) Apply(movies []api.Movie) ([]api.Movie, error) {
	var matched []api.Movie
	for _, movie := range movies {
		ok, err := f.Match(movie)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, movie)
		}
	}
	return matched, nil
}

// String returns the source expression
func (f *Filter) String() string {
	return f.expression
}

// buildEnv exposes the movie's fields plus helper functions to the
// expression.
func buildEnv(movie api.Movie) map[string]any {
	return map[string]any{
		"ID":          movie.ID,
		"Title":       movie.Title,
		"Description": movie.Description,
		"Rating":      movie.Rating,
		"Duration":    movie.Duration,
		"ReleaseDate": movie.ReleaseDate,
		"Genres":      movie.Genres,

		"hasGenre": func(genre string) bool {
			for _, g := range movie.Genres {
				if strings.EqualFold(g, genre) {
					return true
				}
			}
			return false
		},

		// Date helpers
		"year": func(t time.Time) int {
			return t.Year()
		},
		"before": func(dateStr string) bool {
			t, _ := time.Parse("2006-01-02", dateStr)
			return movie.ReleaseDate.Before(t)
		},
		"after": func(dateStr string) bool {
			t, _ := time.Parse("2006-01-02", dateStr)
			return movie.ReleaseDate.After(t)
		},
		"now": time.Now,

		// String helpers
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
	}
}
