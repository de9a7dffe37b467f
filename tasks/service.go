// Package tasks orchestrates task persistence around ownership checks. It is
// the single write path for board mutations; every operation is one atomic
// record write against the store.
package tasks

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

// Store is the persistence surface the service depends on.
type Store interface {
	ListTasks(ctx context.Context) ([]domain.Task, error)
	ListTasksByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	InsertTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// UserDirectory resolves creator projections for task reads.
type UserDirectory interface {
	GetUsers(ctx context.Context, ids []string) (map[string]domain.User, error)
}

// Service exposes the task operations behind the RPC boundary.
type Service struct {
	store Store
	users UserDirectory
	now   func() time.Time
	newID func() string
}

// New creates a Service over the given store and user directory.
func New(store Store, users UserDirectory) *Service {
	return &Service{
		store: store,
		users: users,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// List returns every task on the board in column-then-position order, each
// carrying its creator's username and role. Reads are not ownership-filtered.
func (s *Service) List(ctx context.Context, caller domain.User) ([]domain.TaskWithCreator, error) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	domain.SortByBoardOrder(tasks)

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.CreatedBy)
	}
	creators, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TaskWithCreator, 0, len(tasks))
	for _, t := range tasks {
		tc := domain.TaskWithCreator{Task: t}
		if u, ok := creators[t.CreatedBy]; ok {
			tc.Creator = domain.Creator{Username: u.Username, Role: u.Role}
		}
		out = append(out, tc)
	}
	return out, nil
}

// Get returns a single task. Only the owner or an admin may read it.
func (s *Service) Get(ctx context.Context, caller domain.User, id string) (*domain.TaskWithCreator, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.NotFoundError{Message: "Task not found"}
	}
	if !caller.CanMutate(*task) {
		return nil, domain.ForbiddenError{Message: "You can only view your own tasks"}
	}
	tc := domain.TaskWithCreator{Task: *task}
	creators, err := s.users.GetUsers(ctx, []string{task.CreatedBy})
	if err != nil {
		return nil, err
	}
	if u, ok := creators[task.CreatedBy]; ok {
		tc.Creator = domain.Creator{Username: u.Username, Role: u.Role}
	}
	return &tc, nil
}

// Create validates and persists a new task at the end of its column.
func (s *Service) Create(ctx context.Context, caller domain.User, title, description string, status domain.Status) (*domain.Task, error) {
	if status == "" {
		status = domain.StatusTodo
	}
	if err := domain.ValidateNewTask(title, description, status); err != nil {
		return nil, err
	}

	column, err := s.store.ListTasksByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	position := 0
	for _, t := range column {
		if t.Position+1 > position {
			position = t.Position + 1
		}
	}

	now := s.now().UTC()
	task := domain.Task{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Status:      status,
		Position:    position,
		CreatedBy:   caller.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies the supplied fields to an existing task. Only the owner or
// an admin may mutate it; UpdatedAt is always refreshed.
func (s *Service) Update(ctx context.Context, caller domain.User, id string, upd domain.TaskUpdate) (*domain.Task, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.NotFoundError{Message: "Task not found"}
	}
	if !caller.CanMutate(*task) {
		return nil, domain.ForbiddenError{Message: "You can only update your own tasks"}
	}

	upd.Apply(task, s.now().UTC())
	if err := s.store.UpdateTask(ctx, *task); err != nil {
		return nil, err
	}
	return task, nil
}

// Delete removes a task. Only the owner or an admin may delete it.
func (s *Service) Delete(ctx context.Context, caller domain.User, id string) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task == nil {
		return domain.NotFoundError{Message: "Task not found"}
	}
	if !caller.CanMutate(*task) {
		return domain.ForbiddenError{Message: "You can only delete your own tasks"}
	}
	return s.store.DeleteTask(ctx, id)
}
