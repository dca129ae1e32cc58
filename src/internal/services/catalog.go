package services

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/lp3/cineteca/src/internal/domain"
	"github.com/lp3/cineteca/src/internal/ports"
)

const (
	NoPopularMovie = "Ninguna"
	NoActiveUser   = "Ninguno"
)

// CatalogService holds the rules of the catalog API: uniqueness checks,
// existence checks and the aggregates. Storage is behind the repository.
type CatalogService struct {
	repo ports.CatalogRepository
}

func NewCatalogService(repo ports.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// --- users ---

func (s *CatalogService) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	return s.repo.ListUsers(ctx, skip, limit)
}

func (s *CatalogService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, userNotFound(id)
	}
	return u, err
}

func (s *CatalogService) CreateUser(ctx context.Context, in domain.UserInput) (*domain.User, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	u := in.NewUser()
	existing, err := s.repo.FindUserByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflictf("Ya existe un usuario con el correo '%s'", u.Email)
	}
	if err := s.repo.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", u.ID).Msg("user created")
	return &u, nil
}

func (s *CatalogService) UpdateUser(ctx context.Context, id int64, in domain.UserInput) (*domain.User, error) {
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != u.Email {
		existing, err := s.repo.FindUserByEmail(ctx, strings.TrimSpace(*in.Email))
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, domain.Conflictf("Ya existe un usuario con el correo '%s'", *in.Email)
		}
	}
	in.ApplyTo(u)
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *CatalogService) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.DeleteUser(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return userNotFound(id)
	}
	return err
}

func (s *CatalogService) UserFavoriteMovies(ctx context.Context, userID int64) ([]domain.Movie, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.ListFavoriteMovies(ctx, userID)
}

// MarkFavorite is the user-scoped way of creating a favorite.
func (s *CatalogService) MarkFavorite(ctx context.Context, userID, movieID int64) error {
	if err := s.checkPair(ctx, userID, movieID); err != nil {
		return err
	}
	existing, err := s.repo.FindFavorite(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if existing != nil {
		return domain.Conflictf("La película ya está marcada como favorita")
	}
	f := domain.FavoriteInput{UserID: domain.FlexInt(userID), MovieID: domain.FlexInt(movieID)}.NewFavorite()
	return s.repo.CreateFavorite(ctx, &f)
}

func (s *CatalogService) UnmarkFavorite(ctx context.Context, userID, movieID int64) error {
	existing, err := s.repo.FindFavorite(ctx, userID, movieID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.NotFoundf("El favorito no existe")
	}
	return s.repo.DeleteFavorite(ctx, existing.ID)
}

func (s *CatalogService) UserStats(ctx context.Context, userID int64) (*domain.UserStats, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	movies, err := s.repo.ListFavoriteMovies(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &domain.UserStats{
		User:              u.Name,
		TotalFavorites:    int64(len(movies)),
		GenreDistribution: map[string]int{},
	}
	for _, m := range movies {
		stats.TotalMinutes += m.Duration
		for _, g := range strings.Split(m.Genre, ", ") {
			stats.GenreDistribution[g]++
		}
	}
	stats.TotalHours = math.Round(float64(stats.TotalMinutes)/60*100) / 100

	// First genre reaching the highest count wins, in order of appearance.
	best := 0
	for _, m := range movies {
		for _, g := range strings.Split(m.Genre, ", ") {
			if n := stats.GenreDistribution[g]; n > best {
				best = n
				genre := g
				stats.FavoriteGenre = &genre
			}
		}
	}
	return stats, nil
}

// --- movies ---

func (s *CatalogService) ListMovies(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	return s.repo.ListMovies(ctx, skip, limit)
}

func (s *CatalogService) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	m, err := s.repo.GetMovie(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, movieNotFound(id)
	}
	return m, err
}

func (s *CatalogService) CreateMovie(ctx context.Context, in domain.MovieInput) (*domain.Movie, error) {
	if err := in.ValidateCreate(); err != nil {
		return nil, err
	}
	m := in.NewMovie()
	existing, err := s.repo.FindMovieByTitleYear(ctx, m.Title, m.Year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflictf("Ya existe una película con el título '%s' del año %d", m.Title, m.Year)
	}
	if err := s.repo.CreateMovie(ctx, &m); err != nil {
		return nil, err
	}
	log.Info().Int64("movie_id", m.ID).Str("title", m.Title).Msg("movie created")
	return &m, nil
}

func (s *CatalogService) UpdateMovie(ctx context.Context, id int64, in domain.MovieInput) (*domain.Movie, error) {
	if err := in.ValidateUpdate(); err != nil {
		return nil, err
	}
	m, err := s.GetMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	in.ApplyTo(m)
	if err := s.repo.UpdateMovie(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CatalogService) DeleteMovie(ctx context.Context, id int64) error {
	err := s.repo.DeleteMovie(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return movieNotFound(id)
	}
	return err
}

func (s *CatalogService) SearchMovies(ctx context.Context, f domain.MovieFilter) ([]domain.Movie, error) {
	return s.repo.SearchMovies(ctx, f)
}

func (s *CatalogService) PopularMovies(ctx context.Context, limit int) ([]domain.Movie, error) {
	counts, err := s.repo.ListPopularMovies(ctx, limit)
	if err != nil {
		return nil, err
	}
	movies := make([]domain.Movie, 0, len(counts))
	for _, c := range counts {
		movies = append(movies, c.Movie)
	}
	return movies, nil
}

func (s *CatalogService) MoviesByClassification(ctx context.Context, classification string, limit int) ([]domain.Movie, error) {
	c := strings.ToUpper(classification)
	valid := false
	for _, v := range domain.Classifications {
		if v == c {
			valid = true
			break
		}
	}
	if !valid {
		return nil, domain.Unsupportedf("Clasificación inválida. Use: %s", strings.Join(domain.Classifications, ", "))
	}
	return s.repo.ListMoviesByClassification(ctx, c, limit)
}

func (s *CatalogService) RecentMovies(ctx context.Context, limit int) ([]domain.Movie, error) {
	return s.repo.ListRecentMovies(ctx, limit)
}

// --- favorites ---

func (s *CatalogService) ListFavorites(ctx context.Context, skip, limit int) ([]domain.Favorite, error) {
	return s.repo.ListFavorites(ctx, skip, limit)
}

func (s *CatalogService) CreateFavorite(ctx context.Context, in domain.FavoriteInput) (*domain.Favorite, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	f := in.NewFavorite()
	if err := s.checkPair(ctx, f.UserID, f.MovieID); err != nil {
		return nil, err
	}
	existing, err := s.repo.FindFavorite(ctx, f.UserID, f.MovieID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.Conflictf("Este favorito ya existe")
	}
	if err := s.repo.CreateFavorite(ctx, &f); err != nil {
		return nil, err
	}
	log.Info().Int64("favorite_id", f.ID).Int64("user_id", f.UserID).Int64("movie_id", f.MovieID).Msg("favorite created")
	return &f, nil
}

func (s *CatalogService) GetFavorite(ctx context.Context, id int64) (*domain.FavoriteDetail, error) {
	f, err := s.repo.GetFavorite(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, favoriteNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *f)
}

func (s *CatalogService) DeleteFavorite(ctx context.Context, id int64) error {
	err := s.repo.DeleteFavorite(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return favoriteNotFound(id)
	}
	return err
}

func (s *CatalogService) FavoritesByUser(ctx context.Context, userID int64) ([]domain.FavoriteDetail, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	favs, err := s.repo.ListFavoritesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, favs)
}

func (s *CatalogService) FavoritesByMovie(ctx context.Context, movieID int64) ([]domain.FavoriteDetail, error) {
	if _, err := s.GetMovie(ctx, movieID); err != nil {
		return nil, err
	}
	favs, err := s.repo.ListFavoritesByMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, favs)
}

func (s *CatalogService) CheckFavorite(ctx context.Context, userID, movieID int64) (*domain.FavoriteCheck, error) {
	f, err := s.repo.FindFavorite(ctx, userID, movieID)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return &domain.FavoriteCheck{IsFavorite: false}, nil
	}
	return &domain.FavoriteCheck{IsFavorite: true, FavoriteID: &f.ID, MarkedAt: &f.MarkedAt}, nil
}

// DeleteUserFavorites removes every favorite of a user.
func (s *CatalogService) DeleteUserFavorites(ctx context.Context, userID int64) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	favs, err := s.repo.ListFavoritesByUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, f := range favs {
		if err := s.repo.DeleteFavorite(ctx, f.ID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}
	return nil
}

func (s *CatalogService) FavoriteStats(ctx context.Context) (*domain.FavoriteStats, error) {
	total, err := s.repo.CountFavorites(ctx)
	if err != nil {
		return nil, err
	}
	stats := &domain.FavoriteStats{TotalFavorites: total}

	users, err := s.repo.ListActiveUsers(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 && users[0].Favorites > 0 {
		name := users[0].User.Name
		stats.TopUser = domain.TopUser{Name: &name, Favorites: users[0].Favorites}
	}

	movies, err := s.repo.ListPopularMovies(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(movies) > 0 && movies[0].Favorites > 0 {
		title := movies[0].Movie.Title
		stats.TopMovie = domain.TopMovie{Title: &title, Favorites: movies[0].Favorites}
	}
	return stats, nil
}

// --- statistics ---

func (s *CatalogService) Stats(ctx context.Context) (*domain.Stats, error) {
	var stats domain.Stats
	var err error
	if stats.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.TotalMovies, err = s.repo.CountMovies(ctx); err != nil {
		return nil, err
	}
	if stats.TotalFavorites, err = s.repo.CountFavorites(ctx); err != nil {
		return nil, err
	}

	stats.MostPopularMovie = NoPopularMovie
	movies, err := s.repo.ListPopularMovies(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(movies) > 0 && movies[0].Favorites > 0 {
		stats.MostPopularMovie = movies[0].Movie.Title
	}

	stats.MostActiveUser = NoActiveUser
	users, err := s.repo.ListActiveUsers(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(users) > 0 && users[0].Favorites > 0 {
		stats.MostActiveUser = users[0].User.Name
	}
	return &stats, nil
}

func (s *CatalogService) checkPair(ctx context.Context, userID, movieID int64) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	_, err := s.GetMovie(ctx, movieID)
	return err
}

func (s *CatalogService) detail(ctx context.Context, f domain.Favorite) (*domain.FavoriteDetail, error) {
	u, err := s.GetUser(ctx, f.UserID)
	if err != nil {
		return nil, err
	}
	m, err := s.GetMovie(ctx, f.MovieID)
	if err != nil {
		return nil, err
	}
	return &domain.FavoriteDetail{Favorite: f, User: *u, Movie: *m}, nil
}

func (s *CatalogService) details(ctx context.Context, favs []domain.Favorite) ([]domain.FavoriteDetail, error) {
	out := make([]domain.FavoriteDetail, 0, len(favs))
	for _, f := range favs {
		d, err := s.detail(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, nil
}

func userNotFound(id int64) error {
	return domain.NotFoundf("Usuario con id %d no encontrado", id)
}

func movieNotFound(id int64) error {
	return domain.NotFoundf("Película con id %d no encontrada", id)
}

func favoriteNotFound(id int64) error {
	return domain.NotFoundf("Favorito con id %d no encontrado", id)
}
