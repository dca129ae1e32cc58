package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httputil"
	"net/url"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/lp3/cineteca/src/internal/server"
)

type loader func(context.Context, *Container)

type page struct {
	Content template.HTML
	Notice  string
}

// RegisterHandlers mounts the six navigation routes, the two form posts,
// the landing page and a health check.
func (v *Views) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", v.view(v.LoadHome))
	mux.HandleFunc("GET /usuarios", v.view(v.LoadUsers))
	mux.HandleFunc("GET /peliculas", v.view(v.LoadMovies))
	mux.HandleFunc("GET /favoritos", v.view(v.LoadFavorites))
	mux.HandleFunc("GET /peliculas/nueva", v.view(v.LoadMovieForm))
	mux.HandleFunc("POST /peliculas/nueva", v.submit(v.SubmitMovie, "/peliculas"))
	mux.HandleFunc("GET /favoritos/nuevo", v.view(v.LoadFavoriteForm))
	mux.HandleFunc("POST /favoritos/nuevo", v.submit(v.SubmitFavorite, "/favoritos"))
	mux.HandleFunc("GET /estadisticas", v.view(v.LoadStats))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		server.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (v *Views) view(load loader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := NewContainer()
		load(r.Context(), c)
		v.write(w, r, c)
	}
}

func (v *Views) submit(fn func(context.Context, *Container, map[string]string) bool, listPath string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c := NewContainer()
		if !fn(r.Context(), c, collectFields(r.PostForm)) {
			v.write(w, r, c)
			return
		}
		if !isHTMX(r) {
			// Plain form posts redirect so a refresh does not submit twice.
			http.Redirect(w, r, listPath, http.StatusSeeOther)
			return
		}
		w.Header().Set("HX-Push-Url", listPath)
		v.write(w, r, c)
	}
}

// collectFields flattens the submitted form. A repeated name keeps its last
// value.
func collectFields(form url.Values) map[string]string {
	fields := make(map[string]string, len(form))
	for k, vals := range form {
		if len(vals) > 0 {
			fields[k] = vals[len(vals)-1]
		}
	}
	return fields
}

// write sends just the container for in-page navigation and the full
// layout otherwise. A notice also travels as an HX-Trigger event.
func (v *Views) write(w http.ResponseWriter, r *http.Request, c *Container) {
	p := page{Content: c.Content(), Notice: c.Notice()}
	if p.Notice != "" {
		trigger, err := json.Marshal(map[string]string{"mostrarAviso": p.Notice})
		if err == nil {
			w.Header().Set("HX-Trigger", asciiJSON(trigger))
		}
	}

	name := "layout"
	if isHTMX(r) {
		name = "contenido"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.tmpl.ExecuteTemplate(w, name, p); err != nil {
		log.Error().Err(err).Str("template", name).Msg("error executing template")
	}
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// asciiJSON rewrites every non-ASCII rune of an encoded JSON value as a
// \uXXXX escape. Browsers read header values as Latin-1.
func asciiJSON(b []byte) string {
	var buf bytes.Buffer
	buf.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		b = b[size:]
		if r < utf8.RuneSelf {
			buf.WriteByte(byte(r))
			continue
		}
		if r1, r2 := utf16.EncodeRune(r); r1 != utf8.RuneError {
			fmt.Fprintf(&buf, `\u%04x\u%04x`, r1, r2)
			continue
		}
		fmt.Fprintf(&buf, `\u%04x`, r)
	}
	return buf.String()
}

// NewAPIProxy forwards /api/ requests to the catalog API so the page can
// reach it from its own origin.
func NewAPIProxy(apiURL string) (http.Handler, error) {
	target, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog api url: %w", err)
	}
	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Host = target.Host
	}
	return proxy, nil
}
