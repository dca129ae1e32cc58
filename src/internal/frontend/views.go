package frontend

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/lp3/cineteca/src/internal/domain"
	"github.com/lp3/cineteca/src/internal/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	MsgMovieSaved    = "Película guardada exitosamente"
	MsgFavoriteSaved = "Favorito guardado exitosamente"
	// Only used when favorite submissions check the response status.
	ErrMsgSaveFavorite = "Error al guardar favorito"
)

// loadingMessages are shown while a view's request is in flight. The layout
// hands them to the page so the browser shows the same text.
var loadingMessages = map[string]string{
	"usuarios":       "Cargando usuarios...",
	"peliculas":      "Cargando películas...",
	"favoritos":      "Cargando favoritos...",
	"estadisticas":   "Cargando datos...",
	"favorito-nuevo": "Cargando datos...",
}

func loadingMessage(view string) string {
	return loadingMessages[view]
}

// Options tune behaviour that differs from the plain fetch-and-render flow.
type Options struct {
	// StrictFavoriteSubmit treats a non-2xx favorite POST as a failure, the
	// way movie submissions are treated. Off by default.
	StrictFavoriteSubmit bool
}

// Views renders catalog data fetched through a ports.CatalogClient.
type Views struct {
	client ports.CatalogClient
	tmpl   *template.Template
	opts   Options
}

func NewViews(client ports.CatalogClient, opts Options) (*Views, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"fecha": formatDate,
		"texto": deref,
		"carga": loadingMessage,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Views{client: client, tmpl: tmpl, opts: opts}, nil
}

type statusView struct {
	Heading string
	Message string
}

func (v *Views) LoadUsers(ctx context.Context, c *Container) {
	tok := c.Begin(v.status("cargando", "Usuarios", loadingMessage("usuarios")))
	users, err := v.client.ListUsers(ctx)
	if err != nil {
		c.Commit(tok, v.failure("Usuarios", err))
		return
	}
	v.commit(c, tok, "usuarios", users)
}

func (v *Views) LoadMovies(ctx context.Context, c *Container) {
	tok := c.Begin(v.status("cargando", "Películas", loadingMessage("peliculas")))
	movies, err := v.client.ListMovies(ctx)
	if err != nil {
		c.Commit(tok, v.failure("", err))
		return
	}
	v.commit(c, tok, "peliculas", movies)
}

func (v *Views) LoadFavorites(ctx context.Context, c *Container) {
	tok := c.Begin(v.status("cargando", "Favoritos", loadingMessage("favoritos")))
	favs, err := v.client.ListFavorites(ctx)
	if err != nil {
		c.Commit(tok, v.failure("", err))
		return
	}
	v.commit(c, tok, "favoritos", favs)
}

func (v *Views) LoadStats(ctx context.Context, c *Container) {
	tok := c.Begin(v.status("cargando", "Estadísticas", loadingMessage("estadisticas")))
	stats, err := v.client.GetStats(ctx)
	if err != nil {
		c.Commit(tok, v.failure("", err))
		return
	}
	v.commit(c, tok, "estadisticas", stats)
}

func (v *Views) LoadHome(ctx context.Context, c *Container) {
	v.commit(c, c.Begin(""), "inicio", nil)
}

// LoadMovieForm shows the empty movie form.
func (v *Views) LoadMovieForm(ctx context.Context, c *Container) {
	v.renderMovieForm(c, map[string]string{})
}

func (v *Views) renderMovieForm(c *Container, values map[string]string) {
	v.commit(c, c.Begin(""), "form-pelicula", values)
}

// LoadFavoriteForm fills the user and movie selects from two concurrent
// requests. Either failing shows the error view and no form.
func (v *Views) LoadFavoriteForm(ctx context.Context, c *Container) {
	v.renderFavoriteForm(ctx, c, map[string]string{})
}

type favoriteForm struct {
	Users    []domain.User
	Movies   []domain.Movie
	Selected map[string]string
}

func (v *Views) renderFavoriteForm(ctx context.Context, c *Container, selected map[string]string) {
	tok := c.Begin(v.status("cargando", "Agregar favorito", loadingMessage("favorito-nuevo")))

	form := favoriteForm{Selected: selected}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		users, err := v.client.UserOptions(gctx)
		form.Users = users
		return err
	})
	g.Go(func() error {
		movies, err := v.client.MovieOptions(gctx)
		form.Movies = movies
		return err
	})
	if err := g.Wait(); err != nil {
		c.Commit(tok, v.failure("", err))
		return
	}
	v.commit(c, tok, "form-favorito", form)
}

// SubmitMovie posts the form fields and reports whether the movie was saved.
// On failure the alert carries the error and the form is shown again with
// what was typed.
func (v *Views) SubmitMovie(ctx context.Context, c *Container, fields map[string]string) bool {
	if err := v.client.CreateMovie(ctx, fields); err != nil {
		c.Notify("Error: " + err.Error())
		v.renderMovieForm(c, fields)
		return false
	}
	c.Notify(MsgMovieSaved)
	v.LoadMovies(ctx, c)
	return true
}

// SubmitFavorite posts the selection. Unless StrictFavoriteSubmit is set, any
// response counts as saved; only a failed request is reported.
func (v *Views) SubmitFavorite(ctx context.Context, c *Container, fields map[string]string) bool {
	status, err := v.client.CreateFavorite(ctx, fields)
	if err == nil && v.opts.StrictFavoriteSubmit && (status < 200 || status > 299) {
		err = errors.New(ErrMsgSaveFavorite)
	}
	if err != nil {
		c.Notify("Error: " + err.Error())
		v.renderFavoriteForm(ctx, c, fields)
		return false
	}
	if status < 200 || status > 299 {
		log.Warn().Int("status", status).Msg("favorite submission rejected by catalog api")
	}
	c.Notify(MsgFavoriteSaved)
	v.LoadFavorites(ctx, c)
	return true
}

func (v *Views) commit(c *Container, tok uint64, name string, data any) {
	html, err := v.render(name, data)
	if err != nil {
		log.Error().Err(err).Str("template", name).Msg("render failed")
		c.Commit(tok, v.failure("", err))
		return
	}
	c.Commit(tok, html)
}

func (v *Views) render(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := v.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func (v *Views) status(name, heading, msg string) template.HTML {
	html, err := v.render(name, statusView{Heading: heading, Message: msg})
	if err != nil {
		return template.HTML(template.HTMLEscapeString(msg))
	}
	return html
}

func (v *Views) failure(heading string, err error) template.HTML {
	return v.status("error", heading, err.Error())
}

func formatDate(t domain.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2/1/2006")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
