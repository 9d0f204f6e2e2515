// Package apperr defines the error taxonomy shared by handlers, storage and
// the real-time hub, plus the mapping to HTTP status codes.
package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomInactive    = errors.New("room is not active")
	ErrRoomFull        = errors.New("room is full")
	ErrJoinDisallowed  = errors.New("room is not accepting new participants")
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageEmpty    = errors.New("message content is required")
	ErrMessageTooLong  = errors.New("message cannot exceed 1000 characters")

	ErrTokenMissing   = errors.New("no token provided")
	ErrTokenMalformed = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")

	ErrRateLimited = errors.New("too many requests")
)

// HTTPStatus maps a taxonomy error to its response code. Unclassified errors
// become 500; callers log the detail and return a generic body.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrTokenMissing),
		errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrJoinDisallowed):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrRoomNotFound),
		errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrRoomInactive),
		errors.Is(err, ErrRoomFull),
		errors.Is(err, ErrMessageEmpty),
		errors.Is(err, ErrMessageTooLong):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
