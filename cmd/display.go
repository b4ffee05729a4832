package cmd

import (
	"fmt"
	"strings"

	"github.com/moviehub/cli/api"
)

// printMovies renders the result set in the list output format
func printMovies(movies []api.Movie, details bool) {
	if len(movies) == 0 {
		fmt.Println("No movies in the catalog yet.")
		return
	}

	movieText := "movie"
	if len(movies) != 1 {
		movieText = "movies"
	}
	fmt.Printf("\n%d %s:\n", len(movies), movieText)
	fmt.Println(strings.Repeat("-", 80))

	for _, movie := range movies {
		fmt.Printf("• %s (%d)  ★ %s  %s\n",
			movie.Title,
			movie.ReleaseDate.Year(),
			formatRating(movie.Rating),
			formatDuration(movie.Duration),
		)
		if details {
			if movie.Description != "" {
				fmt.Printf("  %s\n", movie.Description)
			}
			if len(movie.Genres) > 0 {
				fmt.Printf("  Genres: %s\n", strings.Join(movie.Genres, ", "))
			}
			fmt.Printf("  Released: %s\n", formatDate(movie))
			fmt.Printf("  ID: %s\n", movie.ID)
		}
	}
}

// formatDuration renders minutes as "2h 15m", or "45m" under an hour
func formatDuration(minutes int) string {
	hours := minutes / 60
	mins := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// formatRating renders a rating with one decimal place
func formatRating(rating float64) string {
	return fmt.Sprintf("%.1f", rating)
}

// formatDate renders the release date as a readable long date
func formatDate(movie api.Movie) string {
	if movie.ReleaseDate.IsZero() {
		return "Unknown"
	}
	return movie.ReleaseDate.Format("January 2, 2006")
}
