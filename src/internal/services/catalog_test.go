package services

import (
	"context"
	"errors"
	"testing"

	"github.com/lp3/cineteca/src/internal/adapters/memory"
	"github.com/lp3/cineteca/src/internal/domain"
)

func strp(s string) *string { return &s }

func intp(n int64) *domain.FlexInt {
	v := domain.FlexInt(n)
	return &v
}

func newTestCatalog(t *testing.T) *CatalogService {
	t.Helper()
	return NewCatalogService(memory.NewCatalogRepo())
}

func mustUser(t *testing.T, s *CatalogService, name, email string) *domain.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), domain.UserInput{Name: &name, Email: &email})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func mustMovie(t *testing.T, s *CatalogService, title, genre string, duration, year int64) *domain.Movie {
	t.Helper()
	m, err := s.CreateMovie(context.Background(), domain.MovieInput{
		Title: &title, Director: strp("Director"), Genre: &genre,
		Duration: intp(duration), Year: intp(year), Classification: strp("PG"),
	})
	if err != nil {
		t.Fatalf("create movie %s: %v", title, err)
	}
	return m
}

func expectMessage(t *testing.T, err error, kind error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %q, got nil", msg)
	}
	if !errors.Is(err, kind) {
		t.Errorf("expected kind %v, got %v", kind, err)
	}
	if err.Error() != msg {
		t.Errorf("expected message %q, got %q", msg, err.Error())
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	s := newTestCatalog(t)
	mustUser(t, s, "Ana", "ana@example.com")

	_, err := s.CreateUser(context.Background(), domain.UserInput{Name: strp("Otra"), Email: strp("ana@example.com")})
	expectMessage(t, err, domain.ErrConflict, "Ya existe un usuario con el correo 'ana@example.com'")
}

func TestUpdateUser(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)
	ana := mustUser(t, s, "Ana", "ana@example.com")
	mustUser(t, s, "Luis", "luis@example.com")

	_, err := s.UpdateUser(ctx, ana.ID, domain.UserInput{Email: strp("luis@example.com")})
	expectMessage(t, err, domain.ErrConflict, "Ya existe un usuario con el correo 'luis@example.com'")

	// Keeping the same email is not a conflict.
	u, err := s.UpdateUser(ctx, ana.ID, domain.UserInput{Name: strp("Ana María"), Email: strp("ana@example.com")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u.Name != "Ana María" {
		t.Errorf("name not updated: %s", u.Name)
	}

	_, err = s.UpdateUser(ctx, 77, domain.UserInput{Name: strp("X")})
	expectMessage(t, err, domain.ErrNotFound, "Usuario con id 77 no encontrado")
}

func TestCreateMovieRejectsDuplicateTitleYear(t *testing.T) {
	s := newTestCatalog(t)
	mustMovie(t, s, "Alien", "Terror", 117, 1979)

	_, err := s.CreateMovie(context.Background(), domain.MovieInput{
		Title: strp("Alien"), Director: strp("Otro"), Genre: strp("Terror"),
		Duration: intp(100), Year: intp(1979), Classification: strp("R"),
	})
	expectMessage(t, err, domain.ErrConflict, "Ya existe una película con el título 'Alien' del año 1979")

	// Same title, different year is a different movie.
	mustMovie(t, s, "Alien", "Terror", 117, 2030)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)
	ana := mustUser(t, s, "Ana", "ana@example.com")
	alien := mustMovie(t, s, "Alien", "Terror", 117, 1979)

	in := domain.FavoriteInput{UserID: domain.FlexInt(ana.ID), MovieID: domain.FlexInt(alien.ID)}
	fav, err := s.CreateFavorite(ctx, in)
	if err != nil {
		t.Fatalf("create favorite: %v", err)
	}

	_, err = s.CreateFavorite(ctx, in)
	expectMessage(t, err, domain.ErrConflict, "Este favorito ya existe")

	_, err = s.CreateFavorite(ctx, domain.FavoriteInput{UserID: 9, MovieID: domain.FlexInt(alien.ID)})
	expectMessage(t, err, domain.ErrNotFound, "Usuario con id 9 no encontrado")

	_, err = s.CreateFavorite(ctx, domain.FavoriteInput{UserID: domain.FlexInt(ana.ID), MovieID: 9})
	expectMessage(t, err, domain.ErrNotFound, "Película con id 9 no encontrada")

	detail, err := s.GetFavorite(ctx, fav.ID)
	if err != nil {
		t.Fatalf("get favorite: %v", err)
	}
	if detail.User.Email != "ana@example.com" || detail.Movie.Title != "Alien" {
		t.Errorf("detail not resolved: %+v", detail)
	}

	check, err := s.CheckFavorite(ctx, ana.ID, alien.ID)
	if err != nil || !check.IsFavorite || check.FavoriteID == nil || *check.FavoriteID != fav.ID {
		t.Errorf("check favorite: %+v %v", check, err)
	}

	err = s.MarkFavorite(ctx, ana.ID, alien.ID)
	expectMessage(t, err, domain.ErrConflict, "La película ya está marcada como favorita")

	if err := s.UnmarkFavorite(ctx, ana.ID, alien.ID); err != nil {
		t.Fatalf("unmark: %v", err)
	}
	err = s.UnmarkFavorite(ctx, ana.ID, alien.ID)
	expectMessage(t, err, domain.ErrNotFound, "El favorito no existe")

	check, _ = s.CheckFavorite(ctx, ana.ID, alien.ID)
	if check.IsFavorite || check.FavoriteID != nil {
		t.Errorf("expected no favorite after unmark: %+v", check)
	}

	err = s.DeleteFavorite(ctx, fav.ID)
	expectMessage(t, err, domain.ErrNotFound, "Favorito con id 1 no encontrado")
}

func TestDeleteUserFavorites(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)
	ana := mustUser(t, s, "Ana", "ana@example.com")
	luis := mustUser(t, s, "Luis", "luis@example.com")
	a := mustMovie(t, s, "A", "Drama", 90, 2000)
	b := mustMovie(t, s, "B", "Drama", 90, 2001)

	for _, pair := range [][2]int64{{ana.ID, a.ID}, {ana.ID, b.ID}, {luis.ID, a.ID}} {
		if err := s.MarkFavorite(ctx, pair[0], pair[1]); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.DeleteUserFavorites(ctx, ana.ID); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	left, _ := s.FavoritesByUser(ctx, ana.ID)
	if len(left) != 0 {
		t.Errorf("expected no favorites for ana, got %d", len(left))
	}
	byMovie, _ := s.FavoritesByMovie(ctx, a.ID)
	if len(byMovie) != 1 || byMovie[0].User.ID != luis.ID {
		t.Errorf("luis's favorite should remain: %+v", byMovie)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.MostPopularMovie != "Ninguna" || stats.MostActiveUser != "Ninguno" {
		t.Errorf("empty catalog fallbacks: %+v", stats)
	}

	ana := mustUser(t, s, "Ana", "ana@example.com")
	luis := mustUser(t, s, "Luis", "luis@example.com")
	a := mustMovie(t, s, "A", "Drama", 90, 2000)
	b := mustMovie(t, s, "B", "Drama", 90, 2001)

	// Movies exist but nobody marked any: still no winner.
	stats, _ = s.Stats(ctx)
	if stats.MostPopularMovie != "Ninguna" || stats.TotalMovies != 2 {
		t.Errorf("no favorites yet: %+v", stats)
	}

	s.MarkFavorite(ctx, ana.ID, b.ID)
	s.MarkFavorite(ctx, luis.ID, b.ID)
	s.MarkFavorite(ctx, luis.ID, a.ID)

	stats, _ = s.Stats(ctx)
	want := domain.Stats{TotalUsers: 2, TotalMovies: 2, TotalFavorites: 3, MostPopularMovie: "B", MostActiveUser: "Luis"}
	if *stats != want {
		t.Errorf("got %+v, want %+v", *stats, want)
	}

	fs, err := s.FavoriteStats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if fs.TotalFavorites != 3 || fs.TopUser.Name == nil || *fs.TopUser.Name != "Luis" || fs.TopMovie.Favorites != 2 {
		t.Errorf("favorite stats: %+v", fs)
	}
}

func TestUserStats(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)
	ana := mustUser(t, s, "Ana", "ana@example.com")

	empty, err := s.UserStats(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if empty.FavoriteGenre != nil || empty.TotalHours != 0 || len(empty.GenreDistribution) != 0 {
		t.Errorf("empty stats: %+v", empty)
	}

	a := mustMovie(t, s, "A", "Acción, Drama", 100, 2000)
	b := mustMovie(t, s, "B", "Drama", 45, 2001)
	s.MarkFavorite(ctx, ana.ID, a.ID)
	s.MarkFavorite(ctx, ana.ID, b.ID)

	stats, err := s.UserStats(ctx, ana.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalFavorites != 2 || stats.TotalMinutes != 145 {
		t.Errorf("totals: %+v", stats)
	}
	if stats.TotalHours != 2.42 {
		t.Errorf("expected 2.42 hours, got %v", stats.TotalHours)
	}
	if stats.GenreDistribution["Drama"] != 2 || stats.GenreDistribution["Acción"] != 1 {
		t.Errorf("distribution: %v", stats.GenreDistribution)
	}
	if stats.FavoriteGenre == nil || *stats.FavoriteGenre != "Drama" {
		t.Errorf("favorite genre: %v", stats.FavoriteGenre)
	}

	_, err = s.UserStats(ctx, 99)
	expectMessage(t, err, domain.ErrNotFound, "Usuario con id 99 no encontrado")
}

func TestMoviesByClassification(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)
	mustMovie(t, s, "A", "Drama", 90, 2000)

	got, err := s.MoviesByClassification(ctx, "pg", 100)
	if err != nil || len(got) != 1 {
		t.Errorf("lower-case classification: %v %v", got, err)
	}

	_, err = s.MoviesByClassification(ctx, "XXX", 100)
	expectMessage(t, err, domain.ErrUnsupported, "Clasificación inválida. Use: G, PG, PG-13, R, NC-17")
}
