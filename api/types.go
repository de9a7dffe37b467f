package api

import (
	"context"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

// TaskService abstracts the task operations for handlers.
type TaskService interface {
	List(ctx context.Context, caller domain.User) ([]domain.TaskWithCreator, error)
	Get(ctx context.Context, caller domain.User, id string) (*domain.TaskWithCreator, error)
	Create(ctx context.Context, caller domain.User, title, description string, status domain.Status) (*domain.Task, error)
	Update(ctx context.Context, caller domain.User, id string, upd domain.TaskUpdate) (*domain.Task, error)
	Delete(ctx context.Context, caller domain.User, id string) error
}

// IdentityStore abstracts credential verification and registration.
type IdentityStore interface {
	Register(ctx context.Context, username, email, password string, role domain.Role) (domain.User, error)
	Authenticate(ctx context.Context, username, password string) (domain.User, error)
	Lookup(ctx context.Context, id string) (domain.User, error)
}

// Authenticator is implemented by types able to mint tokens and extract user
// ids from Authorization headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
	IssueToken(userID string) (string, error)
}
