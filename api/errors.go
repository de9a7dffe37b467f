package api

import (
	"errors"
	"net/http"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

// response is the envelope every endpoint returns.
type response struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message,omitempty"`
	Token   string                   `json:"token,omitempty"`
	User    *domain.User             `json:"user,omitempty"`
	Task    any                      `json:"task,omitempty"`
	Tasks   []domain.TaskWithCreator `json:"tasks,omitempty"`
}

func failure(message string) response {
	return response{Success: false, Message: message}
}

// statusForError maps the service error taxonomy onto HTTP status codes.
// Anything outside the taxonomy is an internal error.
func statusForError(err error) int {
	var (
		verr domain.ValidationError
		aerr domain.AuthenticationError
		ferr domain.ForbiddenError
		nerr domain.NotFoundError
		cerr domain.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &aerr):
		return http.StatusUnauthorized
	case errors.As(err, &ferr):
		return http.StatusForbidden
	case errors.As(err, &nerr):
		return http.StatusNotFound
	case errors.As(err, &cerr):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
