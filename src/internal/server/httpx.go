package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/lp3/cineteca/src/internal/domain"
)

// HTTPError pairs a status code with the message returned as "detail".
type HTTPError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func BadRequest(msg string, err error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusBadRequest, Message: msg, Err: err}
}
func NotFound(msg string, err error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusNotFound, Message: msg, Err: err}
}
func Unprocessable(msg string, err error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusUnprocessableEntity, Message: msg, Err: err}
}
func Internal(msg string, err error) *HTTPError {
	return &HTTPError{StatusCode: http.StatusInternalServerError, Message: msg, Err: err}
}

// FromError maps domain error kinds onto statuses. Duplicates are 400, as
// the catalog has always reported them.
func FromError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	var de *domain.Error
	msg := "Error interno del servidor"
	if errors.As(err, &de) {
		msg = de.Message
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(msg, err)
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrUnsupported):
		return BadRequest(msg, err)
	case errors.Is(err, domain.ErrInvalid):
		return Unprocessable(msg, err)
	default:
		return Internal(msg, err)
	}
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"detail": message} and logs with the correlation id.
func WriteError(w http.ResponseWriter, r *http.Request, he *HTTPError) {
	cid := CorrelationID(r.Context())
	status := he.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	ev := log.Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Str("correlation_id", cid).Int("status", status).Err(he.Err).Msg(he.Message)
	WriteJSON(w, status, map[string]string{"detail": he.Message})
}
