package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const seedYAML = `
usuarios:
  - nombre: Ana
    correo: ana@example.com
  - nombre: Luis
    correo: luis@example.com
peliculas:
  - titulo: Alien
    director: Ridley Scott
    genero: Terror
    duracion: 117
    año: 1979
    clasificacion: R
    sinopsis: Un carguero recibe una señal.
  - titulo: Toy Story
    director: John Lasseter
    genero: Animación
    duracion: 81
    año: 1995
    clasificacion: G
favoritos:
  - correo: luis@example.com
    titulo: Alien
    año: 1979
`

func writeSeed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSeedIfEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestCatalog(t)
	seeder := NewCatalogSeeder(s)
	path := writeSeed(t, "seed.yaml", seedYAML)

	loaded, err := seeder.SeedIfEmpty(ctx, path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if !loaded {
		t.Fatal("expected empty catalog to be seeded")
	}

	stats, _ := s.Stats(ctx)
	if stats.TotalUsers != 2 || stats.TotalMovies != 2 || stats.TotalFavorites != 1 {
		t.Errorf("unexpected totals: %+v", stats)
	}
	if stats.MostActiveUser != "Luis" || stats.MostPopularMovie != "Alien" {
		t.Errorf("unexpected leaders: %+v", stats)
	}

	loaded, err = seeder.SeedIfEmpty(ctx, path)
	if err != nil || loaded {
		t.Errorf("second seed should be skipped, got loaded=%v err=%v", loaded, err)
	}
}

func TestSeedJSON(t *testing.T) {
	path := writeSeed(t, "seed.json", `{"usuarios":[{"nombre":"Ana","correo":"ana@example.com"}]}`)
	seed, err := ReadSeedFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(seed.Users) != 1 || seed.Users[0].Email != "ana@example.com" {
		t.Errorf("unexpected seed: %+v", seed)
	}
}

func TestSeedUnknownReference(t *testing.T) {
	s := newTestCatalog(t)
	path := writeSeed(t, "seed.yml", `
usuarios:
  - nombre: Ana
    correo: ana@example.com
favoritos:
  - correo: ana@example.com
    titulo: Inexistente
    año: 2000
`)
	if _, err := NewCatalogSeeder(s).SeedIfEmpty(context.Background(), path); err == nil {
		t.Fatal("expected error for favorite pointing at an unknown movie")
	}
}

func TestSeedInvalidRecord(t *testing.T) {
	s := newTestCatalog(t)
	path := writeSeed(t, "seed.yaml", `
usuarios:
  - nombre: Ana
    correo: no-es-correo
`)
	if _, err := NewCatalogSeeder(s).SeedIfEmpty(context.Background(), path); err == nil {
		t.Fatal("expected validation error for invalid email")
	}
}
