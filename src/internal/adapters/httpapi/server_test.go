package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lp3/cineteca/src/internal/adapters/memory"
	"github.com/lp3/cineteca/src/internal/domain"
	"github.com/lp3/cineteca/src/internal/server"
	"github.com/lp3/cineteca/src/internal/services"
)

func newTestAPI(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	NewCatalogServer(services.NewCatalogService(memory.NewCatalogRepo()), "test").RegisterHandlers(mux)
	return server.Chain(mux, nil)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func detail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return body.Detail
}

func TestHealth(t *testing.T) {
	h := newTestAPI(t)
	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %s", ct)
	}
	var body map[string]string
	json.Unmarshal(w.Body.Bytes(), &body)
	if body["status"] != "healthy" || body["database"] != "connected" || body["environment"] != "test" {
		t.Errorf("unexpected health body: %v", body)
	}
	if w.Header().Get(server.CorrelationHeader) == "" {
		t.Error("expected a correlation id header")
	}
}

func TestCollectionRoutesAcceptBothForms(t *testing.T) {
	h := newTestAPI(t)
	for _, path := range []string{"/api/usuarios", "/api/usuarios/", "/api/peliculas/", "/api/favoritos/", "/api/estadisticas/"} {
		w := do(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: expected 200, got %d", path, w.Code)
		}
	}
	w := do(t, h, http.MethodGet, "/api/usuarios/", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("empty list should encode as [], got %s", w.Body.String())
	}
}

func TestMovieLifecycle(t *testing.T) {
	h := newTestAPI(t)

	// Form posts send every value as a string.
	body := `{"titulo":"Alien","director":"Ridley Scott","genero":"Terror","duracion":"117","año":"1979","clasificacion":"R","sinopsis":"Espacio"}`
	w := do(t, h, http.MethodPost, "/api/peliculas/", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var m domain.Movie
	json.Unmarshal(w.Body.Bytes(), &m)
	if m.ID != 1 || m.Year != 1979 || m.CreatedAt.IsZero() {
		t.Errorf("unexpected movie: %+v", m)
	}
	if !strings.Contains(w.Body.String(), `"año":1979`) {
		t.Errorf("expected año key in body: %s", w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/peliculas", body)
	if w.Code != http.StatusBadRequest || detail(t, w) != "Ya existe una película con el título 'Alien' del año 1979" {
		t.Errorf("duplicate: got %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPut, "/api/peliculas/1", `{"duracion":120}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: got %d %s", w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &m)
	if m.Duration != 120 || m.Title != "Alien" {
		t.Errorf("partial update: %+v", m)
	}

	w = do(t, h, http.MethodGet, "/api/peliculas/buscar/?director=Ridley&a%C3%B1o_min=1970", "")
	var found []domain.Movie
	json.Unmarshal(w.Body.Bytes(), &found)
	if w.Code != http.StatusOK || len(found) != 1 {
		t.Errorf("search: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/peliculas/clasificacion/r", "")
	if w.Code != http.StatusOK {
		t.Errorf("classification: %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/peliculas/clasificacion/XX", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid classification: expected 400, got %d", w.Code)
	}

	w = do(t, h, http.MethodGet, "/api/peliculas/populares/top?limit=51", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("limit out of range: expected 422, got %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/peliculas/recientes/nuevas", "")
	if w.Code != http.StatusOK {
		t.Errorf("recent: %d", w.Code)
	}

	w = do(t, h, http.MethodDelete, "/api/peliculas/1", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete: expected 204, got %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/peliculas/1", "")
	if w.Code != http.StatusNotFound || detail(t, w) != "Película con id 1 no encontrada" {
		t.Errorf("after delete: %d %s", w.Code, w.Body.String())
	}
}

func TestValidationErrors(t *testing.T) {
	h := newTestAPI(t)
	cases := []struct {
		name, path, body, want string
	}{
		{"bad json", "/api/usuarios/", `{`, ""},
		{"missing name", "/api/usuarios/", `{"correo":"a@b.co"}`, "nombre: campo requerido"},
		{"bad duration", "/api/peliculas/", `{"titulo":"T","director":"D","genero":"G","duracion":"-1","año":"2000","clasificacion":"G"}`, "duracion: debe ser mayor que 0"},
		{"duration out of range", "/api/peliculas/", `{"titulo":"T","director":"D","genero":"G","duracion":3000000000,"año":2000,"clasificacion":"G"}`, "duracion: debe ser menor o igual que 2147483647"},
		{"bad favorite id", "/api/favoritos/", `{"id_usuario":"x","id_pelicula":1}`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tc.path, tc.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
			}
			if tc.want != "" && detail(t, w) != tc.want {
				t.Errorf("expected %q, got %q", tc.want, detail(t, w))
			}
		})
	}

	w := do(t, h, http.MethodGet, "/api/usuarios/abc", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("non-numeric id: expected 422, got %d", w.Code)
	}
}

func TestUserFavoritesFlow(t *testing.T) {
	h := newTestAPI(t)
	do(t, h, http.MethodPost, "/api/usuarios/", `{"nombre":"Ana","correo":"ana@example.com"}`)
	do(t, h, http.MethodPost, "/api/peliculas/", `{"titulo":"Alien","director":"Ridley Scott","genero":"Terror, Ciencia ficción","duracion":117,"año":1979,"clasificacion":"R"}`)

	w := do(t, h, http.MethodPost, "/api/usuarios/1/favoritos/1", "")
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), "Película marcada como favorita exitosamente") {
		t.Fatalf("mark: %d %s", w.Code, w.Body.String())
	}
	w = do(t, h, http.MethodPost, "/api/usuarios/1/favoritos/1", "")
	if w.Code != http.StatusBadRequest || detail(t, w) != "La película ya está marcada como favorita" {
		t.Errorf("mark twice: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/favoritos/verificar/1/1", "")
	var check domain.FavoriteCheck
	json.Unmarshal(w.Body.Bytes(), &check)
	if !check.IsFavorite {
		t.Errorf("verify: %s", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/favoritos/usuario/1", "")
	var details []domain.FavoriteDetail
	json.Unmarshal(w.Body.Bytes(), &details)
	if len(details) != 1 || details[0].Movie.Title != "Alien" || details[0].User.Name != "Ana" {
		t.Errorf("favorites by user: %s", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/usuarios/1/estadisticas", "")
	var us domain.UserStats
	json.Unmarshal(w.Body.Bytes(), &us)
	if us.TotalMinutes != 117 || us.GenreDistribution["Ciencia ficción"] != 1 {
		t.Errorf("user stats: %s", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/estadisticas/", "")
	var stats domain.Stats
	json.Unmarshal(w.Body.Bytes(), &stats)
	if stats.MostPopularMovie != "Alien" || stats.MostActiveUser != "Ana" {
		t.Errorf("stats: %s", w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/favoritos/estadisticas/generales", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"usuario_top":{"nombre":"Ana","cantidad_favoritos":1}`) {
		t.Errorf("favorite stats: %s", w.Body.String())
	}

	w = do(t, h, http.MethodDelete, "/api/favoritos/usuario/1/todos", "")
	if w.Code != http.StatusNoContent {
		t.Errorf("delete all: %d", w.Code)
	}
	w = do(t, h, http.MethodDelete, "/api/usuarios/1/favoritos/1", "")
	if w.Code != http.StatusNotFound || detail(t, w) != "El favorito no existe" {
		t.Errorf("unmark missing: %d %s", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/peliculas/", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard origin, got %q", got)
	}
}
