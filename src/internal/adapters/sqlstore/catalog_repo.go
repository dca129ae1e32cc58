package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lp3/cineteca/src/internal/domain"
)

// SQLCatalog implements ports.CatalogRepository on Postgres or SQLite.
// Queries are written with $N placeholders and rebound per driver.
type SQLCatalog struct {
	db     *sql.DB
	driver string
}

func NewCatalogRepo(db *sql.DB, driver string) *SQLCatalog {
	return &SQLCatalog{db: db, driver: driver}
}

func (r *SQLCatalog) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLCatalog) Close() error {
	return r.db.Close()
}

func (r *SQLCatalog) q(query string) string {
	return rebind(r.driver, query)
}

type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `u.id, u.nombre, u.correo, u.fecha_registro`

func scanUser(s scanner, extra ...any) (domain.User, error) {
	var u domain.User
	dest := append([]any{&u.ID, &u.Name, &u.Email, &u.RegisteredAt.Time}, extra...)
	err := s.Scan(dest...)
	return u, err
}

const movieColumns = `p.id, p.titulo, p.director, p.genero, p.duracion, p.anio, p.clasificacion, p.sinopsis, p.fecha_creacion`

func scanMovie(s scanner, extra ...any) (domain.Movie, error) {
	var m domain.Movie
	var synopsis sql.NullString
	dest := append([]any{
		&m.ID, &m.Title, &m.Director, &m.Genre, &m.Duration, &m.Year,
		&m.Classification, &synopsis, &m.CreatedAt.Time,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return m, err
	}
	if synopsis.Valid {
		m.Synopsis = &synopsis.String
	}
	return m, nil
}

const favoriteColumns = `f.id, f.id_usuario, f.id_pelicula, f.fecha_marcado`

func scanFavorite(s scanner) (domain.Favorite, error) {
	var f domain.Favorite
	err := s.Scan(&f.ID, &f.UserID, &f.MovieID, &f.MarkedAt.Time)
	return f, err
}

func (r *SQLCatalog) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

func (r *SQLCatalog) queryMovies(ctx context.Context, query string, args ...any) ([]domain.Movie, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Movie{}
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *SQLCatalog) queryFavorites(ctx context.Context, query string, args ...any) ([]domain.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, r.q(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Favorite{}
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		items = append(items, f)
	}
	return items, rows.Err()
}

func (r *SQLCatalog) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
	return n, err
}

// --- users ---

func (r *SQLCatalog) ListUsers(ctx context.Context, skip, limit int) ([]domain.User, error) {
	return r.queryUsers(ctx, `
		SELECT `+userColumns+`
		FROM usuarios u
		ORDER BY u.id
		LIMIT $1 OFFSET $2
	`, limit, skip)
}

func (r *SQLCatalog) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+userColumns+` FROM usuarios u WHERE u.id = $1`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLCatalog) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+userColumns+` FROM usuarios u WHERE u.correo = $1`), email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLCatalog) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO usuarios (nombre, correo, fecha_registro)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, r.q(query), u.Name, u.Email, u.RegisteredAt.Time).Scan(&u.ID)
}

func (r *SQLCatalog) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, r.q(`UPDATE usuarios SET nombre = $1, correo = $2 WHERE id = $3`),
		u.Name, u.Email, u.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "user", u.ID)
}

func (r *SQLCatalog) DeleteUser(ctx context.Context, id int64) error {
	return r.deleteWithFavorites(ctx, "usuarios", "id_usuario", "user", id)
}

func (r *SQLCatalog) CountUsers(ctx context.Context) (int64, error) {
	return r.count(ctx, "usuarios")
}

func (r *SQLCatalog) ListActiveUsers(ctx context.Context, limit int) ([]domain.UserCount, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+userColumns+`, COUNT(f.id) AS total
		FROM usuarios u
		LEFT JOIN favoritos f ON f.id_usuario = u.id
		GROUP BY u.id, u.nombre, u.correo, u.fecha_registro
		ORDER BY total DESC, u.id ASC
		LIMIT $1
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.UserCount{}
	for rows.Next() {
		var n int64
		u, err := scanUser(rows, &n)
		if err != nil {
			return nil, fmt.Errorf("scan user count: %w", err)
		}
		items = append(items, domain.UserCount{User: u, Favorites: n})
	}
	return items, rows.Err()
}

// --- movies ---

func (r *SQLCatalog) ListMovies(ctx context.Context, skip, limit int) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
		SELECT `+movieColumns+`
		FROM peliculas p
		ORDER BY p.id
		LIMIT $1 OFFSET $2
	`, limit, skip)
}

func (r *SQLCatalog) GetMovie(ctx context.Context, id int64) (*domain.Movie, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+movieColumns+` FROM peliculas p WHERE p.id = $1`), id)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("movie %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLCatalog) FindMovieByTitleYear(ctx context.Context, title string, year int) (*domain.Movie, error) {
	row := r.db.QueryRowContext(ctx,
		r.q(`SELECT `+movieColumns+` FROM peliculas p WHERE p.titulo = $1 AND p.anio = $2 LIMIT 1`), title, year)
	m, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *SQLCatalog) CreateMovie(ctx context.Context, m *domain.Movie) error {
	query := `
		INSERT INTO peliculas (titulo, director, genero, duracion, anio, clasificacion, sinopsis, fecha_creacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, r.q(query),
		m.Title, m.Director, m.Genre, m.Duration, m.Year, m.Classification, nullable(m.Synopsis), m.CreatedAt.Time,
	).Scan(&m.ID)
}

func (r *SQLCatalog) UpdateMovie(ctx context.Context, m *domain.Movie) error {
	query := `
		UPDATE peliculas SET
			titulo = $1, director = $2, genero = $3, duracion = $4,
			anio = $5, clasificacion = $6, sinopsis = $7
		WHERE id = $8
	`
	res, err := r.db.ExecContext(ctx, r.q(query),
		m.Title, m.Director, m.Genre, m.Duration, m.Year, m.Classification, nullable(m.Synopsis), m.ID)
	if err != nil {
		return err
	}
	return expectRow(res, "movie", m.ID)
}

func (r *SQLCatalog) DeleteMovie(ctx context.Context, id int64) error {
	return r.deleteWithFavorites(ctx, "peliculas", "id_pelicula", "movie", id)
}

func (r *SQLCatalog) CountMovies(ctx context.Context) (int64, error) {
	return r.count(ctx, "peliculas")
}

func (r *SQLCatalog) SearchMovies(ctx context.Context, f domain.MovieFilter) ([]domain.Movie, error) {
	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Title != "" {
		add("p.titulo LIKE '%%' || CAST($%d AS TEXT) || '%%'", f.Title)
	}
	if f.Director != "" {
		add("p.director LIKE '%%' || CAST($%d AS TEXT) || '%%'", f.Director)
	}
	if f.Genre != "" {
		add("p.genero LIKE '%%' || CAST($%d AS TEXT) || '%%'", f.Genre)
	}
	if f.Year != 0 {
		add("p.anio = $%d", f.Year)
	}
	if f.YearMin != 0 {
		add("p.anio >= $%d", f.YearMin)
	}
	if f.YearMax != 0 {
		add("p.anio <= $%d", f.YearMax)
	}

	query := `SELECT ` + movieColumns + ` FROM peliculas p`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY p.id`
	return r.queryMovies(ctx, query, args...)
}

func (r *SQLCatalog) ListMoviesByClassification(ctx context.Context, classification string, limit int) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
		SELECT `+movieColumns+`
		FROM peliculas p
		WHERE p.clasificacion = $1
		ORDER BY p.id
		LIMIT $2
	`, classification, limit)
}

func (r *SQLCatalog) ListRecentMovies(ctx context.Context, limit int) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
		SELECT `+movieColumns+`
		FROM peliculas p
		ORDER BY p.fecha_creacion DESC, p.id DESC
		LIMIT $1
	`, limit)
}

func (r *SQLCatalog) ListPopularMovies(ctx context.Context, limit int) ([]domain.MovieCount, error) {
	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT `+movieColumns+`, COUNT(f.id) AS total
		FROM peliculas p
		LEFT JOIN favoritos f ON f.id_pelicula = p.id
		GROUP BY p.id, p.titulo, p.director, p.genero, p.duracion, p.anio, p.clasificacion, p.sinopsis, p.fecha_creacion
		ORDER BY total DESC, p.id ASC
		LIMIT $1
	`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.MovieCount{}
	for rows.Next() {
		var n int64
		m, err := scanMovie(rows, &n)
		if err != nil {
			return nil, fmt.Errorf("scan movie count: %w", err)
		}
		items = append(items, domain.MovieCount{Movie: m, Favorites: n})
	}
	return items, rows.Err()
}

// --- favorites ---

func (r *SQLCatalog) ListFavorites(ctx context.Context, skip, limit int) ([]domain.Favorite, error) {
	return r.queryFavorites(ctx, `
		SELECT `+favoriteColumns+`
		FROM favoritos f
		ORDER BY f.id
		LIMIT $1 OFFSET $2
	`, limit, skip)
}

func (r *SQLCatalog) GetFavorite(ctx context.Context, id int64) (*domain.Favorite, error) {
	row := r.db.QueryRowContext(ctx, r.q(`SELECT `+favoriteColumns+` FROM favoritos f WHERE f.id = $1`), id)
	f, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("favorite %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *SQLCatalog) FindFavorite(ctx context.Context, userID, movieID int64) (*domain.Favorite, error) {
	row := r.db.QueryRowContext(ctx,
		r.q(`SELECT `+favoriteColumns+` FROM favoritos f WHERE f.id_usuario = $1 AND f.id_pelicula = $2`),
		userID, movieID)
	f, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *SQLCatalog) ListFavoritesByUser(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	return r.queryFavorites(ctx, `SELECT `+favoriteColumns+` FROM favoritos f WHERE f.id_usuario = $1 ORDER BY f.id`, userID)
}

func (r *SQLCatalog) ListFavoritesByMovie(ctx context.Context, movieID int64) ([]domain.Favorite, error) {
	return r.queryFavorites(ctx, `SELECT `+favoriteColumns+` FROM favoritos f WHERE f.id_pelicula = $1 ORDER BY f.id`, movieID)
}

func (r *SQLCatalog) CreateFavorite(ctx context.Context, f *domain.Favorite) error {
	query := `
		INSERT INTO favoritos (id_usuario, id_pelicula, fecha_marcado)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	return r.db.QueryRowContext(ctx, r.q(query), f.UserID, f.MovieID, f.MarkedAt.Time).Scan(&f.ID)
}

func (r *SQLCatalog) DeleteFavorite(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.q(`DELETE FROM favoritos WHERE id = $1`), id)
	if err != nil {
		return err
	}
	return expectRow(res, "favorite", id)
}

func (r *SQLCatalog) CountFavorites(ctx context.Context) (int64, error) {
	return r.count(ctx, "favoritos")
}

func (r *SQLCatalog) ListFavoriteMovies(ctx context.Context, userID int64) ([]domain.Movie, error) {
	return r.queryMovies(ctx, `
		SELECT `+movieColumns+`
		FROM peliculas p
		JOIN favoritos f ON f.id_pelicula = p.id
		WHERE f.id_usuario = $1
		ORDER BY f.id
	`, userID)
}

// deleteWithFavorites removes a row and its favorites in one transaction.
// SQLite only enforces ON DELETE CASCADE with foreign_keys enabled, so the
// favorites are removed explicitly.
func (r *SQLCatalog) deleteWithFavorites(ctx context.Context, table, column, kind string, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM favoritos WHERE `+column+` = $1`), id); err != nil {
		return fmt.Errorf("delete favorites of %s %d: %w", kind, id, err)
	}
	res, err := tx.ExecContext(ctx, r.q(`DELETE FROM `+table+` WHERE id = $1`), id)
	if err != nil {
		return err
	}
	if err := expectRow(res, kind, id); err != nil {
		return err
	}
	return tx.Commit()
}

func expectRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
