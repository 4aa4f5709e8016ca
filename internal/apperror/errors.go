package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Tipos de error. Cada *Error corresponde a uno, así funciona errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
)

// Error representa un error de la aplicación
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implementa la interfaz error
func (e *Error) Error() string {
	if e.Err != nil && e.Err != kindOf(e.Code) {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap devuelve el error envuelto
func (e *Error) Unwrap() error {
	return e.Err
}

// Is compara contra el tipo que implica el status, así un Internal
// que envuelve un error del driver cumple errors.Is(err, ErrInternal).
func (e *Error) Is(target error) bool {
	return target == kindOf(e.Code)
}

// New crea un nuevo Error
func New(code int, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message, ErrValidation)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message, ErrNotFound)
}

func Conflict(message string) *Error {
	return New(http.StatusConflict, message, ErrConflict)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message, ErrForbidden)
}

// Internal envuelve una falla de infraestructura. message es lo que ve el
// cliente; err queda sólo para el log.
func Internal(message string, err error) *Error {
	return New(http.StatusInternalServerError, message, err)
}

// StatusOf devuelve el status HTTP de err, 500 si no es un *Error.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// PublicMessage devuelve el texto que se puede mostrar al cliente.
func PublicMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func kindOf(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	default:
		return ErrInternal
	}
}
