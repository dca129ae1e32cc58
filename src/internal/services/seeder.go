package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/lp3/cineteca/src/internal/domain"
)

// SeedFile is the on-disk shape of an initial catalog. Favorites refer to
// users by email and to movies by title and year since ids are assigned on
// insert.
type SeedFile struct {
	Users     []SeedUser     `json:"usuarios" yaml:"usuarios"`
	Movies    []SeedMovie    `json:"peliculas" yaml:"peliculas"`
	Favorites []SeedFavorite `json:"favoritos" yaml:"favoritos"`
}

type SeedUser struct {
	Name  string `json:"nombre" yaml:"nombre"`
	Email string `json:"correo" yaml:"correo"`
}

type SeedMovie struct {
	Title          string  `json:"titulo" yaml:"titulo"`
	Director       string  `json:"director" yaml:"director"`
	Genre          string  `json:"genero" yaml:"genero"`
	Duration       int     `json:"duracion" yaml:"duracion"`
	Year           int     `json:"año" yaml:"año"`
	Classification string  `json:"clasificacion" yaml:"clasificacion"`
	Synopsis       *string `json:"sinopsis" yaml:"sinopsis"`
}

type SeedFavorite struct {
	Email string `json:"correo" yaml:"correo"`
	Title string `json:"titulo" yaml:"titulo"`
	Year  int    `json:"año" yaml:"año"`
}

type CatalogSeeder struct {
	catalog *CatalogService
}

func NewCatalogSeeder(catalog *CatalogService) *CatalogSeeder {
	return &CatalogSeeder{catalog: catalog}
}

// ReadSeedFile decodes a YAML (.yaml, .yml) or JSON seed file.
func ReadSeedFile(path string) (*SeedFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file %s: %w", path, err)
	}
	defer file.Close()

	var seed SeedFile
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		err = yaml.NewDecoder(file).Decode(&seed)
	} else {
		err = json.NewDecoder(file).Decode(&seed)
	}
	if err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return &seed, nil
}

// SeedIfEmpty loads path into the catalog when it holds no users and no
// movies. It reports whether anything was loaded.
func (s *CatalogSeeder) SeedIfEmpty(ctx context.Context, path string) (bool, error) {
	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return false, err
	}
	if stats.TotalUsers > 0 || stats.TotalMovies > 0 {
		log.Debug().Msg("catalog not empty, skipping seed")
		return false, nil
	}
	seed, err := ReadSeedFile(path)
	if err != nil {
		return false, err
	}
	if err := s.Apply(ctx, seed); err != nil {
		return false, err
	}
	log.Info().
		Str("file", path).
		Int("users", len(seed.Users)).
		Int("movies", len(seed.Movies)).
		Int("favorites", len(seed.Favorites)).
		Msg("catalog seeded")
	return true, nil
}

// Apply inserts every record through the catalog service, so seed data is
// held to the same rules as API input.
func (s *CatalogSeeder) Apply(ctx context.Context, seed *SeedFile) error {
	users := make(map[string]int64, len(seed.Users))
	for _, su := range seed.Users {
		name, email := su.Name, su.Email
		u, err := s.catalog.CreateUser(ctx, domain.UserInput{Name: &name, Email: &email})
		if err != nil {
			return fmt.Errorf("seed user %q: %w", su.Email, err)
		}
		users[strings.ToLower(u.Email)] = u.ID
	}

	movies := make(map[string]int64, len(seed.Movies))
	for _, sm := range seed.Movies {
		duration, year := domain.FlexInt(sm.Duration), domain.FlexInt(sm.Year)
		m, err := s.catalog.CreateMovie(ctx, domain.MovieInput{
			Title:          &sm.Title,
			Director:       &sm.Director,
			Genre:          &sm.Genre,
			Duration:       &duration,
			Year:           &year,
			Classification: &sm.Classification,
			Synopsis:       sm.Synopsis,
		})
		if err != nil {
			return fmt.Errorf("seed movie %q: %w", sm.Title, err)
		}
		movies[movieKey(m.Title, m.Year)] = m.ID
	}

	for _, sf := range seed.Favorites {
		userID, ok := users[strings.ToLower(sf.Email)]
		if !ok {
			return fmt.Errorf("seed favorite: unknown user %q", sf.Email)
		}
		movieID, ok := movies[movieKey(sf.Title, sf.Year)]
		if !ok {
			return fmt.Errorf("seed favorite: unknown movie %q (%d)", sf.Title, sf.Year)
		}
		in := domain.FavoriteInput{UserID: domain.FlexInt(userID), MovieID: domain.FlexInt(movieID)}
		if _, err := s.catalog.CreateFavorite(ctx, in); err != nil {
			return fmt.Errorf("seed favorite %s/%s: %w", sf.Email, sf.Title, err)
		}
	}
	return nil
}

func movieKey(title string, year int) string {
	return fmt.Sprintf("%s|%d", strings.TrimSpace(title), year)
}
