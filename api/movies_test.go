package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/movies", r.URL.Path)
		assert.Equal(t, "12", r.URL.Query().Get("limit"))

		if cursor := r.URL.Query().Get("cursor"); cursor == "" {
			writeEnvelope(w, map[string]any{
				"movies":      []map[string]any{{"id": "m1", "title": "Alien"}},
				"hasNextPage": true,
				"nextCursor":  "cur-2",
			})
			return
		}
		writeEnvelope(w, map[string]any{
			"movies":      []map[string]any{{"id": "m2", "title": "Blade Runner"}},
			"hasNextPage": false,
			"nextCursor":  "",
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))
	ctx := context.Background()

	first, err := client.ListMovies(ctx, 12, "")
	require.NoError(t, err)
	require.Len(t, first.Movies, 1)
	assert.Equal(t, "Alien", first.Movies[0].Title)
	assert.True(t, first.HasNext)
	assert.Equal(t, "cur-2", first.NextCursor)

	second, err := client.ListMovies(ctx, 12, first.NextCursor)
	require.NoError(t, err)
	require.Len(t, second.Movies, 1)
	assert.False(t, second.HasNext)
}

func TestSearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/movies/search", r.URL.Path)
		assert.Equal(t, "blade runner", r.URL.Query().Get("q"))
		writeEnvelope(w, map[string]any{
			"movies": []map[string]any{{"id": "m2", "title": "Blade Runner", "rating": 8.1}},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	movies, err := client.SearchMovies(context.Background(), "blade runner")
	require.NoError(t, err)
	require.Len(t, movies, 1)
	assert.Equal(t, 8.1, movies[0].Rating)
}

func TestSortedMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/movies/sorted", r.URL.Path)
		// The contract keys the query parameter by field name
		assert.Equal(t, "desc", r.URL.Query().Get("rating"))
		writeEnvelope(w, map[string]any{
			"movies": []map[string]any{
				{"id": "m1", "title": "A", "rating": 9.0},
				{"id": "m2", "title": "B", "rating": 8.0},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	movies, err := client.SortedMovies(context.Background(), "rating", "desc")
	require.NoError(t, err)
	require.Len(t, movies, 2)
}

func TestCreateMovieMultipart(t *testing.T) {
	posterPath := filepath.Join(t.TempDir(), "poster.jpg")
	require.NoError(t, os.WriteFile(posterPath, []byte("fake-jpeg-bytes"), 0o600))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/movies", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Alien", r.FormValue("title"))
		assert.Equal(t, "8.5", r.FormValue("rating"))
		assert.Equal(t, "117", r.FormValue("duration"))
		assert.Equal(t, "1979-05-25", r.FormValue("releaseDate"))
		assert.Equal(t, "Horror,Sci-Fi", r.FormValue("genre"))

		file, header, err := r.FormFile("poster")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "poster.jpg", header.Filename)
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake-jpeg-bytes", string(content))

		writeEnvelope(w, map[string]any{"id": "m1", "title": "Alien"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	movie, err := client.CreateMovie(context.Background(), MovieInput{
		Title:       "Alien",
		Description: "In space no one can hear you scream.",
		Rating:      8.5,
		Duration:    117,
		ReleaseDate: "1979-05-25",
		Genres:      []string{"Horror", "Sci-Fi"},
		PosterPath:  posterPath,
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", movie.ID)
}

func TestCreateMovieWithPosterURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "https://example.com/poster.jpg", r.FormValue("posterUrl"))
		_, _, err := r.FormFile("poster")
		assert.Error(t, err, "no file part expected when a URL is given")
		writeEnvelope(w, map[string]any{"id": "m1"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	_, err := client.CreateMovie(context.Background(), MovieInput{
		Title:       "Alien",
		Description: "desc",
		PosterURL:   "https://example.com/poster.jpg",
	})
	require.NoError(t, err)
}

func TestUpdateMovieSendsChangedFieldsOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/api/movies/m42", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "9.1", r.FormValue("rating"))
		assert.Empty(t, r.FormValue("title"), "unchanged fields must stay off the wire")
		assert.Empty(t, r.FormValue("description"))

		writeEnvelope(w, map[string]any{"id": "m42", "title": "Alien", "rating": 9.1})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	rating := 9.1
	movie, err := client.UpdateMovie(context.Background(), "m42", MovieUpdate{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 9.1, movie.Rating)
}

func TestDeleteMovie(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/movies/m42", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"message": "deleted"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))
	require.NoError(t, client.DeleteMovie(context.Background(), "m42"))
}

func TestDeleteMovieNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "movie not found"})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, newTestStore(t))

	err := client.DeleteMovie(context.Background(), "missing")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
}
