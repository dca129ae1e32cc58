package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lp3/cineteca/src/internal/domain"
	"github.com/lp3/cineteca/src/internal/server"
)

// Fixed collection endpoints, relative to the configured base URL.
const (
	UsersPath     = "/api/usuarios/"
	MoviesPath    = "/api/peliculas/"
	FavoritesPath = "/api/favoritos/"
	StatsPath     = "/api/estadisticas/"
)

// Messages shown when a checked request comes back with a non-OK status.
const (
	ErrMsgListUsers  = "Error al obtener usuarios"
	ErrMsgListMovies = "Error al obtener películas"
	ErrMsgStats      = "Error al obtener estadísticas"
	ErrMsgSaveMovie  = "Error al guardar película"
)

// CatalogClient talks to the catalog API on behalf of the web frontend.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

// NewCatalogClient builds a client for baseURL. A zero timeout means
// requests wait as long as their context allows.
func NewCatalogClient(baseURL string, timeout time.Duration) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *CatalogClient) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.getJSON(ctx, UsersPath, ErrMsgListUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *CatalogClient) ListMovies(ctx context.Context) ([]domain.Movie, error) {
	var movies []domain.Movie
	if err := c.getJSON(ctx, MoviesPath, ErrMsgListMovies, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// ListFavorites does not look at the status code. An error body fails to
// decode as a list and that decode error is what the caller sees.
func (c *CatalogClient) ListFavorites(ctx context.Context) ([]domain.Favorite, error) {
	var favs []domain.Favorite
	if err := c.getJSON(ctx, FavoritesPath, "", &favs); err != nil {
		return nil, err
	}
	return favs, nil
}

func (c *CatalogClient) UserOptions(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.getJSON(ctx, UsersPath, "", &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *CatalogClient) MovieOptions(ctx context.Context) ([]domain.Movie, error) {
	var movies []domain.Movie
	if err := c.getJSON(ctx, MoviesPath, "", &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

func (c *CatalogClient) GetStats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	if err := c.getJSON(ctx, StatsPath, ErrMsgStats, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *CatalogClient) CreateMovie(ctx context.Context, fields map[string]string) error {
	status, err := c.postJSON(ctx, MoviesPath, fields)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return errors.New(ErrMsgSaveMovie)
	}
	return nil
}

// CreateFavorite returns the response status and leaves judging it to the
// caller.
func (c *CatalogClient) CreateFavorite(ctx context.Context, fields map[string]string) (int, error) {
	return c.postJSON(ctx, FavoritesPath, fields)
}

// getJSON decodes the response body into dst. When failMsg is set a non-2xx
// status fails with that message before the body is read.
func (c *CatalogClient) getJSON(ctx context.Context, path, failMsg string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if failMsg != "" && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return errors.New(failMsg)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *CatalogClient) postJSON(ctx context.Context, path string, fields map[string]string) (int, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, nil
}

func (c *CatalogClient) do(req *http.Request) (*http.Response, error) {
	if cid := server.CorrelationID(req.Context()); cid != "" {
		req.Header.Set(server.CorrelationHeader, cid)
	}
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("method", req.Method).Str("url", req.URL.String()).Msg("catalog request failed")
		return nil, err
	}
	log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("catalog request")
	return resp, nil
}
