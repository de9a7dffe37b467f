package domain

import "time"

// Status identifies one of the fixed board columns.
type Status string

const (
	StatusTodo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// Valid reports whether s names a known column.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 500
)

// Task represents a single board card.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Position    int       `json:"position"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Creator is the limited projection of the owning user attached to tasks
// returned from list and get calls.
type Creator struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// TaskWithCreator pairs a task with its creator projection.
type TaskWithCreator struct {
	Task
	Creator Creator `json:"creator"`
}

// ValidateNewTask checks the caller-supplied fields of a task being created.
func ValidateNewTask(title, description string, status Status) error {
	if title == "" || description == "" {
		return ValidationError{Message: "Title and description are required"}
	}
	if len(title) > MaxTitleLen {
		return ValidationError{Message: "Title cannot exceed 100 characters"}
	}
	if len(description) > MaxDescriptionLen {
		return ValidationError{Message: "Description cannot exceed 500 characters"}
	}
	if !status.Valid() {
		return ValidationError{Message: "Status must be one of: To Do, In Progress, Done"}
	}
	return nil
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *Status `json:"status,omitempty"`
	Position    *int    `json:"position,omitempty"`
}

// Empty reports whether the update would change nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.Position == nil
}

// Validate checks every supplied field against the same rules used at
// creation time.
func (u TaskUpdate) Validate() error {
	if u.Title != nil {
		if *u.Title == "" {
			return ValidationError{Message: "Title cannot be empty"}
		}
		if len(*u.Title) > MaxTitleLen {
			return ValidationError{Message: "Title cannot exceed 100 characters"}
		}
	}
	if u.Description != nil {
		if *u.Description == "" {
			return ValidationError{Message: "Description cannot be empty"}
		}
		if len(*u.Description) > MaxDescriptionLen {
			return ValidationError{Message: "Description cannot exceed 500 characters"}
		}
	}
	if u.Status != nil && !u.Status.Valid() {
		return ValidationError{Message: "Status must be one of: To Do, In Progress, Done"}
	}
	if u.Position != nil && *u.Position < 0 {
		return ValidationError{Message: "Position cannot be negative"}
	}
	return nil
}

// Apply merges the update into t and refreshes UpdatedAt.
func (u TaskUpdate) Apply(t *Task, now time.Time) {
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Position != nil {
		t.Position = *u.Position
	}
	t.UpdatedAt = now
}
