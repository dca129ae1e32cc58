package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClientAgainstCatalogAPI(t *testing.T) {
	api := httptest.NewServer(newTestAPI(t))
	defer api.Close()
	ctx := context.Background()
	c := NewCatalogClient(api.URL+"/", 0)

	users, err := c.ListUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("empty users: %v %v", users, err)
	}

	err = c.CreateMovie(ctx, map[string]string{
		"titulo": "Alien", "director": "Ridley Scott", "genero": "Terror",
		"duracion": "117", "año": "1979", "clasificacion": "R", "sinopsis": "Espacio",
	})
	if err != nil {
		t.Fatalf("create movie: %v", err)
	}
	movies, err := c.ListMovies(ctx)
	if err != nil || len(movies) != 1 || movies[0].Title != "Alien" {
		t.Fatalf("movies: %+v %v", movies, err)
	}

	// Unknown user: the API answers 404 and the client only reports it.
	status, err := c.CreateFavorite(ctx, map[string]string{"id_usuario": "5", "id_pelicula": "1"})
	if err != nil || status != http.StatusNotFound {
		t.Errorf("favorite for unknown user: status=%d err=%v", status, err)
	}

	stats, err := c.GetStats(ctx)
	if err != nil || stats.TotalMovies != 1 || stats.MostPopularMovie != "Ninguna" {
		t.Errorf("stats: %+v %v", stats, err)
	}
}

func TestClientCheckedStatusMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":"boom"}`))
	}))
	defer srv.Close()
	ctx := context.Background()
	c := NewCatalogClient(srv.URL, 0)

	if _, err := c.ListUsers(ctx); err == nil || err.Error() != ErrMsgListUsers {
		t.Errorf("users: %v", err)
	}
	if _, err := c.ListMovies(ctx); err == nil || err.Error() != ErrMsgListMovies {
		t.Errorf("movies: %v", err)
	}
	if _, err := c.GetStats(ctx); err == nil || err.Error() != ErrMsgStats {
		t.Errorf("stats: %v", err)
	}
	if err := c.CreateMovie(ctx, map[string]string{"titulo": "x"}); err == nil || err.Error() != ErrMsgSaveMovie {
		t.Errorf("create movie: %v", err)
	}

	// Favorites skip the status check; the error object fails to decode.
	_, err := c.ListFavorites(ctx)
	if err == nil || err.Error() == ErrMsgListUsers || !strings.Contains(err.Error(), "decode") {
		t.Errorf("favorites: %v", err)
	}
	status, err := c.CreateFavorite(ctx, map[string]string{})
	if err != nil || status != http.StatusInternalServerError {
		t.Errorf("create favorite: status=%d err=%v", status, err)
	}

	// The favorite form options skip the check as well.
	if _, err := c.UserOptions(ctx); err == nil || !strings.Contains(err.Error(), "decode "+UsersPath) {
		t.Errorf("user options: %v", err)
	}
	if _, err := c.MovieOptions(ctx); err == nil || !strings.Contains(err.Error(), "decode "+MoviesPath) {
		t.Errorf("movie options: %v", err)
	}
}

func TestClientPostsFlatJSON(t *testing.T) {
	var got map[string]string
	var contentType, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		path = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	fields := map[string]string{"id_usuario": "1", "id_pelicula": "2"}
	status, err := NewCatalogClient(srv.URL, time.Second).CreateFavorite(context.Background(), fields)
	if err != nil || status != http.StatusCreated {
		t.Fatalf("status=%d err=%v", status, err)
	}
	if path != FavoritesPath || contentType != "application/json" {
		t.Errorf("path=%s content-type=%s", path, contentType)
	}
	if got["id_usuario"] != "1" || got["id_pelicula"] != "2" || len(got) != 2 {
		t.Errorf("body: %v", got)
	}
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewCatalogClient(url, 0)
	if _, err := c.ListUsers(context.Background()); err == nil {
		t.Error("expected transport error")
	}
	if _, err := c.CreateFavorite(context.Background(), map[string]string{}); err == nil {
		t.Error("expected transport error on post")
	}
}
