package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moviehub/cli/api"
)

var (
	movieTitle       string
	movieDescription string
	movieRating      float64
	movieDuration    int
	movieReleaseDate string
	movieGenres      string
	moviePosterFile  string
	moviePosterURL   string
	noConfirm        bool
)

// movieCmd groups the catalog management commands
var movieCmd = &cobra.Command{
	Use:   "movie",
	Short: "Manage catalog movies (requires ADMIN role)",
}

func init() {
	rootCmd.AddCommand(movieCmd)
	movieCmd.AddCommand(movieAddCmd)
	movieCmd.AddCommand(movieUpdateCmd)
	movieCmd.AddCommand(movieRemoveCmd)
}

// requireAdmin restores the session and checks the ADMIN role before a
// management command runs. The server enforces this too; checking here
// just fails fast with a clearer message.
func requireAdmin(cmd *cobra.Command) error {
	if err := restoreSession(cmd); err != nil {
		return err
	}
	if _, ok := sess.Identity(); !ok {
		return fmt.Errorf("not logged in; run 'moviehub login' first")
	}
	if !sess.IsAdmin() {
		return fmt.Errorf("managing movies requires the ADMIN role")
	}
	return nil
}

// movieAddCmd represents the movie add command
var movieAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a movie to the catalog",
	Long: `Add a movie with its metadata and a poster, either uploaded from a
local file (--poster) or referenced by URL (--poster-url).`,
	RunE: runMovieAdd,
}

func init() {
	movieAddCmd.Flags().StringVar(&movieTitle, "title", "", "movie title (required)")
	movieAddCmd.Flags().StringVar(&movieDescription, "description", "", "movie description (required)")
	movieAddCmd.Flags().Float64Var(&movieRating, "rating", 0, "rating from 0 to 10")
	movieAddCmd.Flags().IntVar(&movieDuration, "duration", 0, "duration in minutes")
	movieAddCmd.Flags().StringVar(&movieReleaseDate, "release-date", "", "release date (YYYY-MM-DD)")
	movieAddCmd.Flags().StringVar(&movieGenres, "genres", "", "comma-separated genres")
	movieAddCmd.Flags().StringVar(&moviePosterFile, "poster", "", "poster file to upload")
	movieAddCmd.Flags().StringVar(&moviePosterURL, "poster-url", "", "poster URL")
}

func runMovieAdd(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	if movieTitle == "" || movieDescription == "" {
		return fmt.Errorf("--title and --description are required")
	}
	if moviePosterFile != "" && moviePosterURL != "" {
		return fmt.Errorf("--poster and --poster-url are mutually exclusive")
	}

	input := api.MovieInput{
		Title:       movieTitle,
		Description: movieDescription,
		Rating:      movieRating,
		Duration:    movieDuration,
		ReleaseDate: movieReleaseDate,
		Genres:      splitGenres(movieGenres),
		PosterPath:  moviePosterFile,
		PosterURL:   moviePosterURL,
	}

	movie, err := client.CreateMovie(cmd.Context(), input)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Added %q (ID: %s)\n", movie.Title, movie.ID)
	return nil
}

// movieUpdateCmd represents the movie update command
var movieUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a movie",
	Long: `Update a movie by ID. Only the flags you pass are sent; everything
else is left untouched on the server.`,
	Args: cobra.ExactArgs(1),
	RunE: runMovieUpdate,
}

func init() {
	movieUpdateCmd.Flags().StringVar(&movieTitle, "title", "", "new title")
	movieUpdateCmd.Flags().StringVar(&movieDescription, "description", "", "new description")
	movieUpdateCmd.Flags().Float64Var(&movieRating, "rating", 0, "new rating")
	movieUpdateCmd.Flags().IntVar(&movieDuration, "duration", 0, "new duration in minutes")
	movieUpdateCmd.Flags().StringVar(&movieReleaseDate, "release-date", "", "new release date (YYYY-MM-DD)")
	movieUpdateCmd.Flags().StringVar(&movieGenres, "genres", "", "new comma-separated genres")
	movieUpdateCmd.Flags().StringVar(&moviePosterFile, "poster", "", "replacement poster file")
}

func runMovieUpdate(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	// Only changed fields go on the wire
	var update api.MovieUpdate
	flags := cmd.Flags()
	if flags.Changed("title") {
		update.Title = &movieTitle
	}
	if flags.Changed("description") {
		update.Description = &movieDescription
	}
	if flags.Changed("rating") {
		update.Rating = &movieRating
	}
	if flags.Changed("duration") {
		update.Duration = &movieDuration
	}
	if flags.Changed("release-date") {
		update.ReleaseDate = &movieReleaseDate
	}
	if flags.Changed("genres") {
		update.Genres = splitGenres(movieGenres)
	}
	update.PosterPath = moviePosterFile

	if update.Title == nil && update.Description == nil && update.Rating == nil &&
		update.Duration == nil && update.ReleaseDate == nil && update.Genres == nil &&
		update.PosterPath == "" {
		return fmt.Errorf("nothing to update; pass at least one field flag")
	}

	movie, err := client.UpdateMovie(cmd.Context(), args[0], update)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Updated %q\n", movie.Title)
	return nil
}

// movieRemoveCmd represents the movie rm command
var movieRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete"},
	Short:   "Delete a movie from the catalog",
	Args:    cobra.ExactArgs(1),
	RunE:    runMovieRemove,
}

func init() {
	movieRemoveCmd.Flags().BoolVar(&noConfirm, "no-confirm", false, "skip confirmation prompt")
}

func runMovieRemove(cmd *cobra.Command, args []string) error {
	if err := requireAdmin(cmd); err != nil {
		return err
	}

	if !noConfirm {
		fmt.Printf("Delete movie %s? This cannot be undone. [y/N]: ", args[0])
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Deletion cancelled.")
			return nil
		}
	}

	if err := client.DeleteMovie(cmd.Context(), args[0]); err != nil {
		return err
	}

	fmt.Println("✓ Movie deleted.")
	return nil
}

// splitGenres parses a comma-separated genre list, dropping empties
func splitGenres(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var genres []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}
	return genres
}
