package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/lp3/cineteca/src/internal/domain"
	"github.com/lp3/cineteca/src/internal/server"
	"github.com/lp3/cineteca/src/internal/services"
)

const Version = "1.0.0"

// CatalogServer exposes the catalog service as the JSON API consumed by the
// web frontend.
type CatalogServer struct {
	catalog     *services.CatalogService
	environment string
}

func NewCatalogServer(catalog *services.CatalogService, environment string) *CatalogServer {
	return &CatalogServer{catalog: catalog, environment: environment}
}

// RegisterHandlers mounts every route. Collection routes answer with and
// without the trailing slash.
func (h *CatalogServer) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleRoot)
	mux.HandleFunc("GET /health", h.handleHealth)
	collection(mux, "GET /api/estadisticas", h.handleStats)

	collection(mux, "GET /api/usuarios", h.handleListUsers)
	collection(mux, "POST /api/usuarios", h.handleCreateUser)
	mux.HandleFunc("GET /api/usuarios/{id}", h.handleGetUser)
	mux.HandleFunc("PUT /api/usuarios/{id}", h.handleUpdateUser)
	mux.HandleFunc("DELETE /api/usuarios/{id}", h.handleDeleteUser)
	mux.HandleFunc("GET /api/usuarios/{id}/favoritos", h.handleUserFavorites)
	mux.HandleFunc("POST /api/usuarios/{id}/favoritos/{pid}", h.handleMarkFavorite)
	mux.HandleFunc("DELETE /api/usuarios/{id}/favoritos/{pid}", h.handleUnmarkFavorite)
	mux.HandleFunc("GET /api/usuarios/{id}/estadisticas", h.handleUserStats)

	collection(mux, "GET /api/peliculas", h.handleListMovies)
	collection(mux, "POST /api/peliculas", h.handleCreateMovie)
	collection(mux, "GET /api/peliculas/buscar", h.handleSearchMovies)
	mux.HandleFunc("GET /api/peliculas/populares/top", h.handlePopularMovies)
	mux.HandleFunc("GET /api/peliculas/recientes/nuevas", h.handleRecentMovies)
	mux.HandleFunc("GET /api/peliculas/clasificacion/{c}", h.handleMoviesByClassification)
	mux.HandleFunc("GET /api/peliculas/{id}", h.handleGetMovie)
	mux.HandleFunc("PUT /api/peliculas/{id}", h.handleUpdateMovie)
	mux.HandleFunc("DELETE /api/peliculas/{id}", h.handleDeleteMovie)

	collection(mux, "GET /api/favoritos", h.handleListFavorites)
	collection(mux, "POST /api/favoritos", h.handleCreateFavorite)
	mux.HandleFunc("GET /api/favoritos/estadisticas/generales", h.handleFavoriteStats)
	mux.HandleFunc("GET /api/favoritos/usuario/{id}", h.handleFavoritesByUser)
	mux.HandleFunc("DELETE /api/favoritos/usuario/{id}/todos", h.handleDeleteUserFavorites)
	mux.HandleFunc("GET /api/favoritos/pelicula/{id}", h.handleFavoritesByMovie)
	mux.HandleFunc("GET /api/favoritos/verificar/{uid}/{pid}", h.handleCheckFavorite)
	mux.HandleFunc("GET /api/favoritos/{id}", h.handleGetFavorite)
	mux.HandleFunc("DELETE /api/favoritos/{id}", h.handleDeleteFavorite)
}

func collection(mux *http.ServeMux, pattern string, fn http.HandlerFunc) {
	mux.HandleFunc(pattern, fn)
	mux.HandleFunc(pattern+"/{$}", fn)
}

func (h *CatalogServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	server.WriteJSON(w, http.StatusOK, map[string]any{
		"mensaje": "Bienvenido a la API de Películas",
		"version": Version,
		"endpoints": map[string]string{
			"usuarios":     "/api/usuarios",
			"peliculas":    "/api/peliculas",
			"favoritos":    "/api/favoritos",
			"estadisticas": "/api/estadisticas",
		},
	})
}

func (h *CatalogServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := "connected"
	if err := h.catalog.Ping(r.Context()); err != nil {
		db = "disconnected"
	}
	server.WriteJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"database":    db,
		"environment": h.environment,
		"version":     Version,
	})
}

func (h *CatalogServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	respond(w, r, http.StatusOK, stats, err)
}

// --- users ---

func (h *CatalogServer) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	users, err := h.catalog.ListUsers(r.Context(), skip, limit)
	respond(w, r, http.StatusOK, users, err)
}

func (h *CatalogServer) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in domain.UserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.catalog.CreateUser(r.Context(), in)
	respond(w, r, http.StatusCreated, u, err)
}

func (h *CatalogServer) handleGetUser(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		u, err := h.catalog.GetUser(r.Context(), id)
		respond(w, r, http.StatusOK, u, err)
	})
}

func (h *CatalogServer) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		var in domain.UserInput
		if !decode(w, r, &in) {
			return
		}
		u, err := h.catalog.UpdateUser(r.Context(), id, in)
		respond(w, r, http.StatusOK, u, err)
	})
}

func (h *CatalogServer) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		noContent(w, r, h.catalog.DeleteUser(r.Context(), id))
	})
}

func (h *CatalogServer) handleUserFavorites(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		movies, err := h.catalog.UserFavoriteMovies(r.Context(), id)
		respond(w, r, http.StatusOK, movies, err)
	})
}

func (h *CatalogServer) handleMarkFavorite(w http.ResponseWriter, r *http.Request) {
	withPair(w, r, "id", "pid", func(userID, movieID int64) {
		err := h.catalog.MarkFavorite(r.Context(), userID, movieID)
		respond(w, r, http.StatusCreated, map[string]string{"message": "Película marcada como favorita exitosamente"}, err)
	})
}

func (h *CatalogServer) handleUnmarkFavorite(w http.ResponseWriter, r *http.Request) {
	withPair(w, r, "id", "pid", func(userID, movieID int64) {
		noContent(w, r, h.catalog.UnmarkFavorite(r.Context(), userID, movieID))
	})
}

func (h *CatalogServer) handleUserStats(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		stats, err := h.catalog.UserStats(r.Context(), id)
		respond(w, r, http.StatusOK, stats, err)
	})
}

// --- movies ---

func (h *CatalogServer) handleListMovies(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	movies, err := h.catalog.ListMovies(r.Context(), skip, limit)
	respond(w, r, http.StatusOK, movies, err)
}

func (h *CatalogServer) handleCreateMovie(w http.ResponseWriter, r *http.Request) {
	var in domain.MovieInput
	if !decode(w, r, &in) {
		return
	}
	m, err := h.catalog.CreateMovie(r.Context(), in)
	respond(w, r, http.StatusCreated, m, err)
}

func (h *CatalogServer) handleGetMovie(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		m, err := h.catalog.GetMovie(r.Context(), id)
		respond(w, r, http.StatusOK, m, err)
	})
}

func (h *CatalogServer) handleUpdateMovie(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		var in domain.MovieInput
		if !decode(w, r, &in) {
			return
		}
		m, err := h.catalog.UpdateMovie(r.Context(), id, in)
		respond(w, r, http.StatusOK, m, err)
	})
}

func (h *CatalogServer) handleDeleteMovie(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		noContent(w, r, h.catalog.DeleteMovie(r.Context(), id))
	})
}

func (h *CatalogServer) handleSearchMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.MovieFilter{
		Title:    q.Get("titulo"),
		Director: q.Get("director"),
		Genre:    q.Get("genero"),
	}
	for name, dst := range map[string]*int{"año": &f.Year, "año_min": &f.YearMin, "año_max": &f.YearMax} {
		n, err := intParam(r, name, 0)
		if err != nil {
			server.WriteError(w, r, server.FromError(err))
			return
		}
		*dst = n
	}
	movies, err := h.catalog.SearchMovies(r.Context(), f)
	respond(w, r, http.StatusOK, movies, err)
}

func (h *CatalogServer) handlePopularMovies(w http.ResponseWriter, r *http.Request) {
	h.topN(w, r, h.catalog.PopularMovies)
}

func (h *CatalogServer) handleRecentMovies(w http.ResponseWriter, r *http.Request) {
	h.topN(w, r, h.catalog.RecentMovies)
}

func (h *CatalogServer) topN(w http.ResponseWriter, r *http.Request, list func(context.Context, int) ([]domain.Movie, error)) {
	limit, err := intParam(r, "limit", 10)
	if err == nil && (limit < 1 || limit > 50) {
		err = domain.Invalidf("limit: debe estar entre 1 y 50")
	}
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	movies, err := list(r.Context(), limit)
	respond(w, r, http.StatusOK, movies, err)
}

func (h *CatalogServer) handleMoviesByClassification(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 100)
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	movies, err := h.catalog.MoviesByClassification(r.Context(), r.PathValue("c"), limit)
	respond(w, r, http.StatusOK, movies, err)
}

// --- favorites ---

func (h *CatalogServer) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	favs, err := h.catalog.ListFavorites(r.Context(), skip, limit)
	respond(w, r, http.StatusOK, favs, err)
}

func (h *CatalogServer) handleCreateFavorite(w http.ResponseWriter, r *http.Request) {
	var in domain.FavoriteInput
	if !decode(w, r, &in) {
		return
	}
	f, err := h.catalog.CreateFavorite(r.Context(), in)
	respond(w, r, http.StatusCreated, f, err)
}

func (h *CatalogServer) handleGetFavorite(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		f, err := h.catalog.GetFavorite(r.Context(), id)
		respond(w, r, http.StatusOK, f, err)
	})
}

func (h *CatalogServer) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		noContent(w, r, h.catalog.DeleteFavorite(r.Context(), id))
	})
}

func (h *CatalogServer) handleFavoritesByUser(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		favs, err := h.catalog.FavoritesByUser(r.Context(), id)
		respond(w, r, http.StatusOK, favs, err)
	})
}

func (h *CatalogServer) handleFavoritesByMovie(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		favs, err := h.catalog.FavoritesByMovie(r.Context(), id)
		respond(w, r, http.StatusOK, favs, err)
	})
}

func (h *CatalogServer) handleCheckFavorite(w http.ResponseWriter, r *http.Request) {
	withPair(w, r, "uid", "pid", func(userID, movieID int64) {
		check, err := h.catalog.CheckFavorite(r.Context(), userID, movieID)
		respond(w, r, http.StatusOK, check, err)
	})
}

func (h *CatalogServer) handleFavoriteStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.FavoriteStats(r.Context())
	respond(w, r, http.StatusOK, stats, err)
}

func (h *CatalogServer) handleDeleteUserFavorites(w http.ResponseWriter, r *http.Request) {
	withID(w, r, "id", func(id int64) {
		noContent(w, r, h.catalog.DeleteUserFavorites(r.Context(), id))
	})
}

// --- helpers ---

func respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	server.WriteJSON(w, status, v)
}

func noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		server.WriteError(w, r, server.FromError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		server.WriteError(w, r, server.Unprocessable("Cuerpo JSON inválido: "+err.Error(), err))
		return false
	}
	return true
}

func withID(w http.ResponseWriter, r *http.Request, name string, fn func(int64)) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		server.WriteError(w, r, server.Unprocessable(fmt.Sprintf("%s: debe ser un número entero", name), err))
		return
	}
	fn(id)
}

func withPair(w http.ResponseWriter, r *http.Request, a, b string, fn func(int64, int64)) {
	withID(w, r, a, func(first int64) {
		withID(w, r, b, func(second int64) {
			fn(first, second)
		})
	})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalidf("%s: debe ser un número entero", name)
	}
	return n, nil
}

func pageParams(r *http.Request) (skip, limit int, err error) {
	if skip, err = intParam(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = intParam(r, "limit", 100); err != nil {
		return 0, 0, err
	}
	if skip < 0 || limit < 0 {
		return 0, 0, domain.Invalidf("skip y limit no pueden ser negativos")
	}
	return skip, limit, nil
}
