package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

type fakeStore struct {
	tasks map[string]domain.Task
	err   error

	inserted []domain.Task
	updated  []domain.Task
	deleted  []string
}

func newFakeStore(tasks ...domain.Task) *fakeStore {
	fs := &fakeStore{tasks: map[string]domain.Task{}}
	for _, t := range tasks {
		fs.tasks[t.ID] = t
	}
	return fs
}

func (f *fakeStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListTasksByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Task{}
	for _, t := range f.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, task domain.Task) error {
	f.inserted = append(f.inserted, task)
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, task domain.Task) error {
	f.updated = append(f.updated, task)
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.tasks, id)
	return nil
}

type fakeDirectory map[string]domain.User

func (d fakeDirectory) GetUsers(ctx context.Context, ids []string) (map[string]domain.User, error) {
	out := map[string]domain.User{}
	for _, id := range ids {
		if u, ok := d[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

var (
	owner = domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser}
	other = domain.User{ID: "u2", Username: "bob", Role: domain.RoleUser}
	admin = domain.User{ID: "u3", Username: "root", Role: domain.RoleAdmin}
)

func newTestService(store *fakeStore) *Service {
	svc := New(store, fakeDirectory{
		"u1": owner,
		"u2": other,
		"u3": admin,
	})
	svc.now = func() time.Time { return time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC) }
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return svc
}

func TestListSortsAndProjectsCreators(t *testing.T) {
	store := newFakeStore(
		domain.Task{ID: "a", Status: domain.StatusDone, Position: 0, CreatedBy: "u1"},
		domain.Task{ID: "b", Status: domain.StatusTodo, Position: 1, CreatedBy: "u2"},
		domain.Task{ID: "c", Status: domain.StatusTodo, Position: 0, CreatedBy: "u1"},
	)
	svc := newTestService(store)

	got, err := svc.List(context.Background(), other)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	order := []string{got[0].ID, got[1].ID, got[2].ID}
	want := []string{"c", "b", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("unexpected order %v", order)
		}
	}
	if got[0].Creator.Username != "alice" || got[0].Creator.Role != domain.RoleUser {
		t.Fatalf("missing creator projection: %+v", got[0].Creator)
	}
	if got[1].Creator.Username != "bob" {
		t.Fatalf("missing creator projection: %+v", got[1].Creator)
	}
}

func TestCreateAssignsAppendPosition(t *testing.T) {
	store := newFakeStore(
		domain.Task{ID: "a", Status: domain.StatusTodo, Position: 0},
		domain.Task{ID: "b", Status: domain.StatusTodo, Position: 1},
	)
	svc := newTestService(store)

	task, err := svc.Create(context.Background(), owner, "new", "desc", domain.StatusTodo)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Position != 2 {
		t.Fatalf("expected position 2, got %d", task.Position)
	}
	if task.CreatedBy != owner.ID {
		t.Fatalf("expected createdBy %q, got %q", owner.ID, task.CreatedBy)
	}
}

func TestCreateFirstTaskInEmptyColumn(t *testing.T) {
	svc := newTestService(newFakeStore())
	task, err := svc.Create(context.Background(), owner, "new", "desc", domain.StatusDone)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Position != 0 {
		t.Fatalf("expected position 0, got %d", task.Position)
	}
}

func TestCreateDefaultsStatusToTodo(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)
	task, err := svc.Create(context.Background(), owner, "new", "desc", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != domain.StatusTodo {
		t.Fatalf("expected default status, got %q", task.Status)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Create(context.Background(), owner, "", "desc", domain.StatusTodo)
	var verr domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	_, err = svc.Create(context.Background(), owner, "title", "desc", domain.Status("Archived"))
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestUpdateByNonOwnerForbidden(t *testing.T) {
	store := newFakeStore(domain.Task{ID: "a", Title: "keep", Status: domain.StatusTodo, CreatedBy: "u1"})
	svc := newTestService(store)

	title := "hacked"
	_, err := svc.Update(context.Background(), other, "a", domain.TaskUpdate{Title: &title})
	var ferr domain.ForbiddenError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if len(store.updated) != 0 {
		t.Fatal("forbidden update must not touch the store")
	}
	if store.tasks["a"].Title != "keep" {
		t.Fatalf("task changed: %+v", store.tasks["a"])
	}
}

func TestUpdateByAdminBypassesOwnership(t *testing.T) {
	store := newFakeStore(domain.Task{ID: "a", Status: domain.StatusTodo, CreatedBy: "u1"})
	svc := newTestService(store)

	st := domain.StatusDone
	task, err := svc.Update(context.Background(), admin, "a", domain.TaskUpdate{Status: &st})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if task.Status != domain.StatusDone {
		t.Fatalf("status not applied: %+v", task)
	}
}

func TestUpdateRefreshesUpdatedAtOnly(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newFakeStore(domain.Task{
		ID: "a", Title: "t", Description: "d", Status: domain.StatusTodo,
		CreatedBy: "u1", CreatedAt: created, UpdatedAt: created,
	})
	svc := newTestService(store)

	pos := 4
	task, err := svc.Update(context.Background(), owner, "a", domain.TaskUpdate{Position: &pos})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if task.Position != 4 || task.Title != "t" || task.Description != "d" {
		t.Fatalf("partial update misapplied: %+v", task)
	}
	if !task.CreatedAt.Equal(created) {
		t.Fatalf("createdAt changed: %v", task.CreatedAt)
	}
	if task.UpdatedAt.Equal(created) {
		t.Fatal("updatedAt not refreshed")
	}
}

func TestUpdateUnknownTask(t *testing.T) {
	svc := newTestService(newFakeStore())
	_, err := svc.Update(context.Background(), owner, "missing", domain.TaskUpdate{})
	var nf domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestDeleteAuthz(t *testing.T) {
	store := newFakeStore(domain.Task{ID: "a", CreatedBy: "u1"})
	svc := newTestService(store)

	var ferr domain.ForbiddenError
	if err := svc.Delete(context.Background(), other, "a"); !errors.As(err, &ferr) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	if err := svc.Delete(context.Background(), owner, "a"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "a" {
		t.Fatalf("unexpected deletions %v", store.deleted)
	}
	var nf domain.NotFoundError
	if err := svc.Delete(context.Background(), owner, "a"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError after delete, got %v", err)
	}
}

func TestGetAuthz(t *testing.T) {
	store := newFakeStore(domain.Task{ID: "a", CreatedBy: "u1"})
	svc := newTestService(store)

	var ferr domain.ForbiddenError
	if _, err := svc.Get(context.Background(), other, "a"); !errors.As(err, &ferr) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
	got, err := svc.Get(context.Background(), admin, "a")
	if err != nil {
		t.Fatalf("admin get: %v", err)
	}
	if got.Creator.Username != "alice" {
		t.Fatalf("missing creator projection: %+v", got)
	}
}
