package board

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

// GestureState tracks a drag gesture through its lifecycle.
type GestureState int

const (
	StateIdle GestureState = iota
	StateDragStarted
	StateReconciling
	StateConfirming
	StateRollingBack
)

func (s GestureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragStarted:
		return "drag-started"
	case StateReconciling:
		return "reconciling"
	case StateConfirming:
		return "confirming"
	case StateRollingBack:
		return "rolling-back"
	default:
		return "unknown"
	}
}

// TaskClient is the slice of the REST client the view-model needs.
type TaskClient interface {
	ListTasks(ctx context.Context) ([]domain.TaskWithCreator, error)
	CreateTask(ctx context.Context, title, description string, status domain.Status) (domain.Task, error)
	UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// ErrMoveInFlight is returned when a drag starts before the previous one has
// been confirmed or rolled back.
var ErrMoveInFlight = errors.New("another move is still being confirmed")

// ErrNotAllowed is returned by the client-side ownership guard. It is a UX
// convenience only; the server repeats the check authoritatively.
var ErrNotAllowed = errors.New("you can only move your own tasks")

// Board is the client-resident mirror of the task set. Moves are applied
// optimistically through the reconciler, then confirmed against the server;
// any failure rolls the mirror back to server truth via a full refetch.
type Board struct {
	mu       sync.Mutex
	client   TaskClient
	session  *Session
	tasks    []domain.TaskWithCreator
	state    GestureState
	activeID string
	banner   string
}

// New creates an empty Board; call Load to populate it.
func New(client TaskClient, session *Session) *Board {
	return &Board{client: client, session: session}
}

// Load replaces the mirror with a fresh fetch.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.client.ListTasks(ctx)
	if err != nil {
		b.mu.Lock()
		b.banner = "Failed to load tasks. Please refresh the page."
		b.mu.Unlock()
		return err
	}
	b.mu.Lock()
	b.tasks = tasks
	b.banner = ""
	b.mu.Unlock()
	return nil
}

// TasksByStatus returns the column's tasks ordered by ascending position.
func (b *Board) TasksByStatus(status domain.Status) []domain.TaskWithCreator {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []domain.TaskWithCreator{}
	for _, t := range b.tasks {
		if t.Status == status {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// State reports the current gesture state.
func (b *Board) State() GestureState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Banner returns the visible error message, empty when none.
func (b *Board) Banner() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.banner
}

// DismissBanner clears the visible error message.
func (b *Board) DismissBanner() {
	b.mu.Lock()
	b.banner = ""
	b.mu.Unlock()
}

// DragStart begins a move gesture. It refuses to start while a previous move
// is still confirming, and refuses cards the session's user may not mutate.
func (b *Board) DragStart(taskID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateIdle {
		return ErrMoveInFlight
	}
	var task *domain.TaskWithCreator
	for i := range b.tasks {
		if b.tasks[i].ID == taskID {
			task = &b.tasks[i]
			break
		}
	}
	if task == nil {
		return domain.NotFoundError{Message: "Task not found"}
	}
	user, ok := b.session.User()
	if !ok || !user.CanMutate(task.Task) {
		b.banner = "You can only move your own tasks."
		return ErrNotAllowed
	}
	b.state = StateDragStarted
	b.activeID = taskID
	return nil
}

// DragEnd completes the gesture: reconcile, apply optimistically, confirm
// with the server, and roll back to server truth on any failure. An empty
// overID cancels the gesture.
func (b *Board) DragEnd(ctx context.Context, overID string) error {
	b.mu.Lock()
	if b.state != StateDragStarted {
		b.mu.Unlock()
		return errors.New("no drag in progress")
	}
	activeID := b.activeID
	if overID == "" {
		b.state = StateIdle
		b.activeID = ""
		b.mu.Unlock()
		return nil
	}

	b.state = StateReconciling
	snapshot := make([]domain.Task, len(b.tasks))
	for i, t := range b.tasks {
		snapshot[i] = t.Task
	}
	changes := domain.Reconcile(snapshot, domain.MoveEvent{ActiveID: activeID, OverID: overID})
	if len(changes) == 0 {
		b.state = StateIdle
		b.activeID = ""
		b.mu.Unlock()
		return nil
	}

	prevStatus := make(map[string]domain.Status, len(snapshot))
	for _, t := range snapshot {
		prevStatus[t.ID] = t.Status
	}
	b.applyLocked(changes)
	b.state = StateConfirming
	b.mu.Unlock()

	// Every changed task is persisted, each as its own single-record update.
	for _, ch := range changes {
		upd := domain.TaskUpdate{Position: intPtr(ch.Position)}
		if prevStatus[ch.TaskID] != ch.Status {
			st := ch.Status
			upd.Status = &st
		}
		if _, err := b.client.UpdateTask(ctx, ch.TaskID, upd); err != nil {
			b.rollback(ctx, "Failed to move task. Please try again.")
			return err
		}
	}

	b.mu.Lock()
	b.state = StateIdle
	b.activeID = ""
	b.banner = ""
	b.mu.Unlock()
	return nil
}

// Create asks the server for a new task and mirrors it locally.
func (b *Board) Create(ctx context.Context, title, description string, status domain.Status) (domain.Task, error) {
	task, err := b.client.CreateTask(ctx, title, description, status)
	if err != nil {
		b.mu.Lock()
		b.banner = "Failed to create task. Please try again."
		b.mu.Unlock()
		return domain.Task{}, err
	}
	tc := domain.TaskWithCreator{Task: task}
	if user, ok := b.session.User(); ok {
		tc.Creator = domain.Creator{Username: user.Username, Role: user.Role}
	}
	b.mu.Lock()
	b.tasks = append(b.tasks, tc)
	b.banner = ""
	b.mu.Unlock()
	return task, nil
}

// Edit applies a field update to a card and mirrors the result, keeping the
// card's local position when the update did not touch it.
func (b *Board) Edit(ctx context.Context, id string, upd domain.TaskUpdate) error {
	task, err := b.client.UpdateTask(ctx, id, upd)
	if err != nil {
		b.mu.Lock()
		b.banner = "Failed to update task. Please try again."
		b.mu.Unlock()
		return err
	}
	b.mu.Lock()
	for i := range b.tasks {
		if b.tasks[i].ID == id {
			creator := b.tasks[i].Creator
			if upd.Position == nil {
				task.Position = b.tasks[i].Position
			}
			b.tasks[i] = domain.TaskWithCreator{Task: task, Creator: creator}
			break
		}
	}
	b.banner = ""
	b.mu.Unlock()
	return nil
}

// Delete removes a card on the server and locally.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.client.DeleteTask(ctx, id); err != nil {
		b.mu.Lock()
		b.banner = "Failed to delete task. Please try again."
		b.mu.Unlock()
		return err
	}
	b.mu.Lock()
	kept := b.tasks[:0]
	for _, t := range b.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	b.tasks = kept
	b.banner = ""
	b.mu.Unlock()
	return nil
}

func (b *Board) applyLocked(changes []domain.TaskChange) {
	for _, ch := range changes {
		for i := range b.tasks {
			if b.tasks[i].ID == ch.TaskID {
				b.tasks[i].Status = ch.Status
				b.tasks[i].Position = ch.Position
			}
		}
	}
}

// rollback discards optimistic state and replaces the mirror with server
// truth. When even the refetch fails the stale mirror is kept; the banner
// stays up either way.
func (b *Board) rollback(ctx context.Context, banner string) {
	b.mu.Lock()
	b.state = StateRollingBack
	b.mu.Unlock()

	tasks, err := b.client.ListTasks(ctx)

	b.mu.Lock()
	if err == nil {
		b.tasks = tasks
	}
	b.banner = banner
	b.state = StateIdle
	b.activeID = ""
	b.mu.Unlock()
}

func intPtr(v int) *int { return &v }
