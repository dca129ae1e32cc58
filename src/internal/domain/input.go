package domain

import (
	"math"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// MaxDuration is the largest duration the duracion column can hold.
const MaxDuration = math.MaxInt32

// UserInput is the body of user create and update requests. Nil fields are
// left untouched on update and rejected on create.
type UserInput struct {
	Name  *string `json:"nombre"`
	Email *string `json:"correo"`
}

type MovieInput struct {
	Title          *string  `json:"titulo"`
	Director       *string  `json:"director"`
	Genre          *string  `json:"genero"`
	Duration       *FlexInt `json:"duracion"`
	Year           *FlexInt `json:"año"`
	Classification *string  `json:"clasificacion"`
	Synopsis       *string  `json:"sinopsis"`
}

type FavoriteInput struct {
	UserID  FlexInt `json:"id_usuario"`
	MovieID FlexInt `json:"id_pelicula"`
}

func (in UserInput) ValidateCreate() error {
	if in.Name == nil {
		return Invalidf("nombre: campo requerido")
	}
	if in.Email == nil {
		return Invalidf("correo: campo requerido")
	}
	return in.ValidateUpdate()
}

func (in UserInput) ValidateUpdate() error {
	if in.Name != nil {
		if err := checkLength("nombre", *in.Name, 1, 100); err != nil {
			return err
		}
	}
	if in.Email != nil {
		if err := checkEmail(*in.Email); err != nil {
			return err
		}
	}
	return nil
}

// NewUser builds a user from a validated create input.
func (in UserInput) NewUser() User {
	u := User{RegisteredAt: now()}
	in.ApplyTo(&u)
	return u
}

func (in UserInput) ApplyTo(u *User) {
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Email != nil {
		u.Email = strings.TrimSpace(*in.Email)
	}
}

func (in MovieInput) ValidateCreate() error {
	required := []struct {
		field   string
		present bool
	}{
		{"titulo", in.Title != nil},
		{"director", in.Director != nil},
		{"genero", in.Genre != nil},
		{"duracion", in.Duration != nil},
		{"año", in.Year != nil},
		{"clasificacion", in.Classification != nil},
	}
	for _, r := range required {
		if !r.present {
			return Invalidf("%s: campo requerido", r.field)
		}
	}
	return in.ValidateUpdate()
}

func (in MovieInput) ValidateUpdate() error {
	if in.Title != nil {
		if err := checkLength("titulo", *in.Title, 1, 200); err != nil {
			return err
		}
	}
	if in.Director != nil {
		if err := checkLength("director", *in.Director, 1, 150); err != nil {
			return err
		}
	}
	if in.Genre != nil {
		if err := checkLength("genero", *in.Genre, 1, 100); err != nil {
			return err
		}
	}
	if in.Duration != nil {
		if *in.Duration <= 0 {
			return Invalidf("duracion: debe ser mayor que 0")
		}
		if *in.Duration > MaxDuration {
			return Invalidf("duracion: debe ser menor o igual que %d", MaxDuration)
		}
	}
	if in.Year != nil && (*in.Year < 1888 || *in.Year > 2100) {
		return Invalidf("año: debe estar entre 1888 y 2100")
	}
	if in.Classification != nil {
		if err := checkLength("clasificacion", *in.Classification, 0, 10); err != nil {
			return err
		}
	}
	if in.Synopsis != nil {
		if err := checkLength("sinopsis", *in.Synopsis, 0, 1000); err != nil {
			return err
		}
	}
	return nil
}

func (in MovieInput) NewMovie() Movie {
	m := Movie{CreatedAt: now()}
	in.ApplyTo(&m)
	return m
}

func (in MovieInput) ApplyTo(m *Movie) {
	if in.Title != nil {
		m.Title = *in.Title
	}
	if in.Director != nil {
		m.Director = *in.Director
	}
	if in.Genre != nil {
		m.Genre = *in.Genre
	}
	if in.Duration != nil {
		m.Duration = int(*in.Duration)
	}
	if in.Year != nil {
		m.Year = int(*in.Year)
	}
	if in.Classification != nil {
		m.Classification = *in.Classification
	}
	if in.Synopsis != nil {
		s := *in.Synopsis
		m.Synopsis = &s
	}
}

func (in FavoriteInput) Validate() error {
	if in.UserID <= 0 {
		return Invalidf("id_usuario: debe ser mayor que 0")
	}
	if in.MovieID <= 0 {
		return Invalidf("id_pelicula: debe ser mayor que 0")
	}
	return nil
}

func (in FavoriteInput) NewFavorite() Favorite {
	return Favorite{
		UserID:   int64(in.UserID),
		MovieID:  int64(in.MovieID),
		MarkedAt: now(),
	}
}

func checkLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n < min {
		return Invalidf("%s: debe tener al menos %d caracteres", field, min)
	}
	if n > max {
		return Invalidf("%s: debe tener como máximo %d caracteres", field, max)
	}
	return nil
}

func checkEmail(value string) error {
	trimmed := strings.TrimSpace(value)
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || !strings.Contains(addr.Address, ".") {
		return Invalidf("correo: dirección de correo inválida")
	}
	return checkLength("correo", trimmed, 3, 150)
}
