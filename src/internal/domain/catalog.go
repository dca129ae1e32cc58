package domain

import "time"

// Classifications accepted by the classification filter.
var Classifications = []string{"G", "PG", "PG-13", "R", "NC-17"}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"nombre"`
	Email        string    `json:"correo"`
	RegisteredAt Timestamp `json:"fecha_registro"`
}

type Movie struct {
	ID             int64     `json:"id"`
	Title          string    `json:"titulo"`
	Director       string    `json:"director"`
	Genre          string    `json:"genero"`
	Duration       int       `json:"duracion"` // Minutes
	Year           int       `json:"año"`
	Classification string    `json:"clasificacion"`
	Synopsis       *string   `json:"sinopsis"`
	CreatedAt      Timestamp `json:"fecha_creacion"`
}

type Favorite struct {
	ID       int64     `json:"id"`
	UserID   int64     `json:"id_usuario"`
	MovieID  int64     `json:"id_pelicula"`
	MarkedAt Timestamp `json:"fecha_marcado"`
}

// FavoriteDetail is a favorite with both sides of the pairing resolved.
type FavoriteDetail struct {
	Favorite
	User  User  `json:"usuario"`
	Movie Movie `json:"pelicula"`
}

// Stats are the platform-wide aggregates shown on the statistics view.
type Stats struct {
	TotalUsers       int64  `json:"total_usuarios"`
	TotalMovies      int64  `json:"total_peliculas"`
	TotalFavorites   int64  `json:"total_favoritos"`
	MostPopularMovie string `json:"pelicula_mas_popular"`
	MostActiveUser   string `json:"usuario_mas_activo"`
}

type UserStats struct {
	User              string         `json:"usuario"`
	TotalFavorites    int64          `json:"total_favoritos"`
	TotalMinutes      int            `json:"tiempo_total_minutos"`
	TotalHours        float64        `json:"tiempo_total_horas"`
	FavoriteGenre     *string        `json:"genero_favorito"`
	GenreDistribution map[string]int `json:"distribucion_generos"`
}

// MovieCount pairs a movie with the number of users that marked it.
type MovieCount struct {
	Movie     Movie
	Favorites int64
}

// UserCount pairs a user with the number of favorites they marked.
type UserCount struct {
	User      User
	Favorites int64
}

// MovieFilter narrows a movie search. Zero values are ignored.
type MovieFilter struct {
	Title    string
	Director string
	Genre    string
	Year     int
	YearMin  int
	YearMax  int
}

func now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}

// FavoriteCheck answers whether a user has marked a movie.
type FavoriteCheck struct {
	IsFavorite bool       `json:"es_favorito"`
	FavoriteID *int64     `json:"favorito_id,omitempty"`
	MarkedAt   *Timestamp `json:"fecha_marcado,omitempty"`
}

type TopUser struct {
	Name      *string `json:"nombre"`
	Favorites int64   `json:"cantidad_favoritos"`
}

type TopMovie struct {
	Title     *string `json:"titulo"`
	Favorites int64   `json:"cantidad_favoritos"`
}

// FavoriteStats summarises favorites only; users and movies without any
// favorite never appear as top entries.
type FavoriteStats struct {
	TotalFavorites int64    `json:"total_favoritos"`
	TopUser        TopUser  `json:"usuario_top"`
	TopMovie       TopMovie `json:"pelicula_top"`
}
