package ports

import (
	"context"

	"github.com/lp3/cineteca/src/internal/domain"
)

// Repositories return errors wrapping domain.ErrNotFound when a lookup by
// id finds nothing. Find* lookups return (nil, nil) instead.

type UserRepository interface {
	ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	UpdateUser(ctx context.Context, u *domain.User) error
	// DeleteUser also removes the user's favorites.
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
	// ListActiveUsers orders users by favorite count, highest first.
	ListActiveUsers(ctx context.Context, limit int) ([]domain.UserCount, error)
}

type MovieRepository interface {
	ListMovies(ctx context.Context, skip, limit int) ([]domain.Movie, error)
	GetMovie(ctx context.Context, id int64) (*domain.Movie, error)
	FindMovieByTitleYear(ctx context.Context, title string, year int) (*domain.Movie, error)
	CreateMovie(ctx context.Context, m *domain.Movie) error
	UpdateMovie(ctx context.Context, m *domain.Movie) error
	DeleteMovie(ctx context.Context, id int64) error
	CountMovies(ctx context.Context) (int64, error)
	SearchMovies(ctx context.Context, f domain.MovieFilter) ([]domain.Movie, error)
	ListMoviesByClassification(ctx context.Context, classification string, limit int) ([]domain.Movie, error)
	ListRecentMovies(ctx context.Context, limit int) ([]domain.Movie, error)
	// ListPopularMovies orders movies by favorite count, highest first.
	ListPopularMovies(ctx context.Context, limit int) ([]domain.MovieCount, error)
}

type FavoriteRepository interface {
	ListFavorites(ctx context.Context, skip, limit int) ([]domain.Favorite, error)
	GetFavorite(ctx context.Context, id int64) (*domain.Favorite, error)
	FindFavorite(ctx context.Context, userID, movieID int64) (*domain.Favorite, error)
	ListFavoritesByUser(ctx context.Context, userID int64) ([]domain.Favorite, error)
	ListFavoritesByMovie(ctx context.Context, movieID int64) ([]domain.Favorite, error)
	CreateFavorite(ctx context.Context, f *domain.Favorite) error
	DeleteFavorite(ctx context.Context, id int64) error
	CountFavorites(ctx context.Context) (int64, error)
	// ListFavoriteMovies returns the movies a user has marked.
	ListFavoriteMovies(ctx context.Context, userID int64) ([]domain.Movie, error)
}

// CatalogRepository is the full storage surface the API needs.
type CatalogRepository interface {
	UserRepository
	MovieRepository
	FavoriteRepository
	Ping(ctx context.Context) error
}

// CatalogClient is what the web frontend needs from the catalog API.
type CatalogClient interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	ListMovies(ctx context.Context) ([]domain.Movie, error)
	ListFavorites(ctx context.Context) ([]domain.Favorite, error)
	GetStats(ctx context.Context) (*domain.Stats, error)
	// UserOptions and MovieOptions fill the favorite form. They skip the
	// status check, so an error body surfaces as a decode failure.
	UserOptions(ctx context.Context) ([]domain.User, error)
	MovieOptions(ctx context.Context) ([]domain.Movie, error)
	CreateMovie(ctx context.Context, fields map[string]string) error
	// CreateFavorite reports the response status; a non-nil error means the
	// request itself failed.
	CreateFavorite(ctx context.Context, fields map[string]string) (int, error)
}
