package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moviehub/cli/api"
	"github.com/moviehub/cli/catalog"
	"github.com/moviehub/cli/filter"
)

var (
	listAll     bool
	filterExpr  string
	sortBy      string
	sortOrder   string
	showDetails bool
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List movies from the catalog",
	Long: `List movies page by page using cursor pagination. By default one page
is fetched; --all keeps loading until the catalog is exhausted.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolVar(&listAll, "all", false, "fetch every page")
	listCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	listCmd.Flags().BoolVar(&showDetails, "details", false, "show descriptions and genres")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	movies, err := engine.List(ctx)
	if err != nil {
		return err
	}

	if listAll {
		for engine.HasMore() {
			movies, err = engine.LoadMore(ctx)
			if err != nil {
				return err
			}
		}
	}

	movies, err = applyFilter(movies)
	if err != nil {
		return err
	}

	printMovies(movies, showDetails)

	if !listAll && engine.HasMore() {
		fmt.Println("\nMore movies available; rerun with --all to fetch every page.")
	}

	return nil
}

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movies by title",
	Long: `Full-text search over the catalog. Results can be sorted locally with
--sort; the search endpoint itself does not sort, so ordering is applied
client-side over the returned set.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().StringVarP(&sortBy, "sort", "s", "", fmt.Sprintf("sort field (%s)", strings.Join(catalog.SortFields, ", ")))
	searchCmd.Flags().StringVarP(&sortOrder, "order", "o", catalog.OrderDesc, "sort order (asc/desc)")
	searchCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	searchCmd.Flags().BoolVar(&showDetails, "details", false, "show descriptions and genres")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	movies, err := engine.Search(ctx, args[0])
	if err != nil {
		return err
	}

	if sortBy != "" {
		// Sort in search mode re-issues the search and orders locally.
		movies, err = engine.Sort(ctx, sortBy, sortOrder)
		if err != nil {
			return err
		}
	}

	movies, err = applyFilter(movies)
	if err != nil {
		return err
	}

	if len(movies) == 0 {
		fmt.Println("No movies found.")
		return nil
	}

	printMovies(movies, showDetails)
	return nil
}

// sortedCmd represents the sorted command
var sortedCmd = &cobra.Command{
	Use:   "sorted <field>",
	Short: "List all movies sorted by a field",
	Long: `Fetch the catalog sorted server-side by the given field
(` + strings.Join(catalog.SortFields, ", ") + `).`,
	Args: cobra.ExactArgs(1),
	RunE: runSorted,
}

func init() {
	rootCmd.AddCommand(sortedCmd)

	sortedCmd.Flags().StringVarP(&sortOrder, "order", "o", catalog.OrderDesc, "sort order (asc/desc)")
	sortedCmd.Flags().StringVarP(&filterExpr, "filter", "f", "", "client-side filter expression")
	sortedCmd.Flags().BoolVar(&showDetails, "details", false, "show descriptions and genres")
}

func runSorted(cmd *cobra.Command, args []string) error {
	movies, err := engine.Sort(cmd.Context(), args[0], sortOrder)
	if err != nil {
		return err
	}

	movies, err = applyFilter(movies)
	if err != nil {
		return err
	}

	printMovies(movies, showDetails)
	return nil
}

// applyFilter narrows movies with the --filter expression, if any
func applyFilter(movies []api.Movie) ([]api.Movie, error) {
	if filterExpr == "" {
		return movies, nil
	}

	f, err := filter.Compile(filterExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	return f.Apply(movies)
}
