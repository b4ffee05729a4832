package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ListMovies fetches one page of the movie listing. An empty cursor
// requests the first page; subsequent pages pass the previous page's
// NextCursor.
func (c *Client) ListMovies(ctx context.Context, limit int, cursor string) (MoviePage, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		query.Set("cursor", cursor)
	}

	var page MoviePage
	if err := c.get(ctx, "/movies", query, &page); err != nil {
		return MoviePage{}, fmt.Errorf("failed to list movies: %w", err)
	}

	return page, nil
}

// SearchMovies performs a full-text search. Results are not paginated.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]Movie, error) {
	params := url.Values{}
	params.Set("q", query)

	var resp moviesResponse
	if err := c.get(ctx, "/movies/search", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}

	return resp.Movies, nil
}

// SortedMovies fetches the full listing sorted server-side, e.g.
// field "rating" with order "desc".
func (c *Client) SortedMovies(ctx context.Context, field, order string) ([]Movie, error) {
	params := url.Values{}
	params.Set(field, order)

	var resp moviesResponse
	if err := c.get(ctx, "/movies/sorted", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch sorted movies: %w", err)
	}

	return resp.Movies, nil
}

// CreateMovie creates a movie via multipart upload. The poster is
// either a local file or a remote URL.
func (c *Client) CreateMovie(ctx context.Context, input MovieInput) (Movie, error) {
	form := newMultipartForm()
	form.field("title", input.Title)
	form.field("description", input.Description)
	form.field("rating", strconv.FormatFloat(input.Rating, 'f', -1, 64))
	form.field("releaseDate", input.ReleaseDate)
	form.field("duration", strconv.Itoa(input.Duration))
	form.field("genre", strings.Join(input.Genres, ","))

	if input.PosterPath != "" {
		if err := form.file("poster", input.PosterPath); err != nil {
			return Movie{}, err
		}
	} else if input.PosterURL != "" {
		form.field("posterUrl", input.PosterURL)
	}

	body, contentType, err := form.encode()
	if err != nil {
		return Movie{}, err
	}

	var movie Movie
	err = c.do(ctx, pendingRequest{
		method:      http.MethodPost,
		path:        "/movies",
		body:        body,
		contentType: contentType,
	}, &movie)
	if err != nil {
		return Movie{}, fmt.Errorf("failed to create movie: %w", err)
	}

	return movie, nil
}

// UpdateMovie patches a movie with only the changed fields, plus an
// optional replacement poster.
func (c *Client) UpdateMovie(ctx context.Context, id string, update MovieUpdate) (Movie, error) {
	form := newMultipartForm()
	if update.Title != nil {
		form.field("title", *update.Title)
	}
	if update.Description != nil {
		form.field("description", *update.Description)
	}
	if update.Rating != nil {
		form.field("rating", strconv.FormatFloat(*update.Rating, 'f', -1, 64))
	}
	if update.ReleaseDate != nil {
		form.field("releaseDate", *update.ReleaseDate)
	}
	if update.Duration != nil {
		form.field("duration", strconv.Itoa(*update.Duration))
	}
	if update.Genres != nil {
		form.field("genre", strings.Join(update.Genres, ","))
	}
	if update.PosterPath != "" {
		if err := form.file("poster", update.PosterPath); err != nil {
			return Movie{}, err
		}
	}

	body, contentType, err := form.encode()
	if err != nil {
		return Movie{}, err
	}

	var movie Movie
	err = c.do(ctx, pendingRequest{
		method:      http.MethodPatch,
		path:        "/movies/" + id,
		body:        body,
		contentType: contentType,
	}, &movie)
	if err != nil {
		return Movie{}, fmt.Errorf("failed to update movie %s: %w", id, err)
	}

	return movie, nil
}

// DeleteMovie removes a movie from the catalog
func (c *Client) DeleteMovie(ctx context.Context, id string) error {
	err := c.do(ctx, pendingRequest{
		method: http.MethodDelete,
		path:   "/movies/" + id,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete movie %s: %w", id, err)
	}
	return nil
}

// multipartForm accumulates multipart fields into a byte buffer so the
// encoded body can be captured in a pendingRequest and replayed.
type multipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

func (f *multipartForm) file(name, path string) error {
	if f.err != nil {
		return f.err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open poster file: %w", err)
	}
	defer file.Close()

	part, err := f.writer.CreateFormFile(name, filepath.Base(path))
	if err != nil {
		f.err = err
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		f.err = err
		return fmt.Errorf("failed to read poster file: %w", err)
	}

	return nil
}

func (f *multipartForm) encode() ([]byte, string, error) {
	if f.err != nil {
		return nil, "", fmt.Errorf("failed to encode multipart form: %w", f.err)
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize multipart form: %w", err)
	}
	return f.buf.Bytes(), f.writer.FormDataContentType(), nil
}
