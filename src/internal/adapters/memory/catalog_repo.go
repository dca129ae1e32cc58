package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lp3/cineteca/src/internal/domain"
)

// InMemoryCatalog keeps users, movies and favorites in maps. Ids are
// assigned from per-table counters, like a serial column.
type InMemoryCatalog struct {
	users     map[int64]domain.User
	movies    map[int64]domain.Movie
	favorites map[int64]domain.Favorite
	nextUser  int64
	nextMovie int64
	nextFav   int64
	mu        sync.RWMutex
}

func NewCatalogRepo() *InMemoryCatalog {
	return &InMemoryCatalog{
		users:     make(map[int64]domain.User),
		movies:    make(map[int64]domain.Movie),
		favorites: make(map[int64]domain.Favorite),
	}
}

func (r *InMemoryCatalog) Ping(ctx context.Context) error { return nil }

// --- users ---

func (r *InMemoryCatalog) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		items = append(items, u)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return page(items, skip, limit), nil
}

func (r *InMemoryCatalog) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (r *InMemoryCatalog) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *InMemoryCatalog) CreateUser(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextUser++
	u.ID = r.nextUser
	r.users[u.ID] = *u
	return nil
}

func (r *InMemoryCatalog) UpdateUser(ctx context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return fmt.Errorf("user %d: %w", u.ID, domain.ErrNotFound)
	}
	r.users[u.ID] = *u
	return nil
}

func (r *InMemoryCatalog) DeleteUser(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	delete(r.users, id)
	for fid, f := range r.favorites {
		if f.UserID == id {
			delete(r.favorites, fid)
		}
	}
	return nil
}

func (r *InMemoryCatalog) CountUsers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *InMemoryCatalog) ListActiveUsers(ctx context.Context, limit int) ([]domain.UserCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int64]int64)
	for _, f := range r.favorites {
		counts[f.UserID]++
	}
	items := make([]domain.UserCount, 0, len(r.users))
	for _, u := range r.users {
		items = append(items, domain.UserCount{User: u, Favorites: counts[u.ID]})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Favorites != items[j].Favorites {
			return items[i].Favorites > items[j].Favorites
		}
		return items[i].User.ID < items[j].User.ID
	})
	return page(items, 0, limit), nil
}

// --- movies ---

func (r *InMemoryCatalog) sortedMovies() []domain.Movie {
	items := make([]domain.Movie, 0, len(r.movies))
	for _, m := range r.movies {
		items = append(items, m)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r *InMemoryCatalog) ListMovies(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.sortedMovies(), skip, limit), nil
}

func (r *InMemoryCatalog) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %d: %w", id, domain.ErrNotFound)
	}
	return &m, nil
}

func (r *InMemoryCatalog) FindMovieByTitleYear(ctx context.Context, title string, year int) (*domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.movies {
		if m.Title == title && m.Year == year {
			return &m, nil
		}
	}
	return nil, nil
}

func (r *InMemoryCatalog) CreateMovie(ctx context.Context, m *domain.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextMovie++
	m.ID = r.nextMovie
	r.movies[m.ID] = *m
	return nil
}

func (r *InMemoryCatalog) UpdateMovie(ctx context.Context, m *domain.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.movies[m.ID]; !ok {
		return fmt.Errorf("movie %d: %w", m.ID, domain.ErrNotFound)
	}
	r.movies[m.ID] = *m
	return nil
}

func (r *InMemoryCatalog) DeleteMovie(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.movies[id]; !ok {
		return fmt.Errorf("movie %d: %w", id, domain.ErrNotFound)
	}
	delete(r.movies, id)
	for fid, f := range r.favorites {
		if f.MovieID == id {
			delete(r.favorites, fid)
		}
	}
	return nil
}

func (r *InMemoryCatalog) CountMovies(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.movies)), nil
}

func (r *InMemoryCatalog) SearchMovies(ctx context.Context, f domain.MovieFilter) ([]domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Movie{}
	for _, m := range r.sortedMovies() {
		if f.Title != "" && !strings.Contains(m.Title, f.Title) {
			continue
		}
		if f.Director != "" && !strings.Contains(m.Director, f.Director) {
			continue
		}
		if f.Genre != "" && !strings.Contains(m.Genre, f.Genre) {
			continue
		}
		if f.Year != 0 && m.Year != f.Year {
			continue
		}
		if f.YearMin != 0 && m.Year < f.YearMin {
			continue
		}
		if f.YearMax != 0 && m.Year > f.YearMax {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *InMemoryCatalog) ListMoviesByClassification(ctx context.Context, classification string, limit int) ([]domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Movie{}
	for _, m := range r.sortedMovies() {
		if m.Classification == classification {
			out = append(out, m)
		}
	}
	return page(out, 0, limit), nil
}

func (r *InMemoryCatalog) ListRecentMovies(ctx context.Context, limit int) ([]domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.sortedMovies()
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt.Time) {
			return items[i].CreatedAt.After(items[j].CreatedAt.Time)
		}
		return items[i].ID > items[j].ID
	})
	return page(items, 0, limit), nil
}

func (r *InMemoryCatalog) ListPopularMovies(ctx context.Context, limit int) ([]domain.MovieCount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[int64]int64)
	for _, f := range r.favorites {
		counts[f.MovieID]++
	}
	items := make([]domain.MovieCount, 0, len(r.movies))
	for _, m := range r.sortedMovies() {
		items = append(items, domain.MovieCount{Movie: m, Favorites: counts[m.ID]})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Favorites > items[j].Favorites })
	return page(items, 0, limit), nil
}

// --- favorites ---

func (r *InMemoryCatalog) sortedFavorites(keep func(domain.Favorite) bool) []domain.Favorite {
	items := make([]domain.Favorite, 0, len(r.favorites))
	for _, f := range r.favorites {
		if keep == nil || keep(f) {
			items = append(items, f)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r *InMemoryCatalog) ListFavorites(ctx context.Context, skip, limit int) ([]domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return page(r.sortedFavorites(nil), skip, limit), nil
}

func (r *InMemoryCatalog) GetFavorite(ctx context.Context, id int64) (*domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.favorites[id]
	if !ok {
		return nil, fmt.Errorf("favorite %d: %w", id, domain.ErrNotFound)
	}
	return &f, nil
}

func (r *InMemoryCatalog) FindFavorite(ctx context.Context, userID, movieID int64) (*domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.favorites {
		if f.UserID == userID && f.MovieID == movieID {
			return &f, nil
		}
	}
	return nil, nil
}

func (r *InMemoryCatalog) ListFavoritesByUser(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedFavorites(func(f domain.Favorite) bool { return f.UserID == userID }), nil
}

func (r *InMemoryCatalog) ListFavoritesByMovie(ctx context.Context, movieID int64) ([]domain.Favorite, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedFavorites(func(f domain.Favorite) bool { return f.MovieID == movieID }), nil
}

func (r *InMemoryCatalog) CreateFavorite(ctx context.Context, f *domain.Favorite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[f.UserID]; !ok {
		return fmt.Errorf("user %d: %w", f.UserID, domain.ErrNotFound)
	}
	if _, ok := r.movies[f.MovieID]; !ok {
		return fmt.Errorf("movie %d: %w", f.MovieID, domain.ErrNotFound)
	}
	r.nextFav++
	f.ID = r.nextFav
	r.favorites[f.ID] = *f
	return nil
}

func (r *InMemoryCatalog) DeleteFavorite(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.favorites[id]; !ok {
		return fmt.Errorf("favorite %d: %w", id, domain.ErrNotFound)
	}
	delete(r.favorites, id)
	return nil
}

func (r *InMemoryCatalog) CountFavorites(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.favorites)), nil
}

func (r *InMemoryCatalog) ListFavoriteMovies(ctx context.Context, userID int64) ([]domain.Movie, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []domain.Movie{}
	for _, f := range r.sortedFavorites(func(f domain.Favorite) bool { return f.UserID == userID }) {
		if m, ok := r.movies[f.MovieID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	items = items[skip:]
	if limit >= 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
