package storage

import (
	"testing"
	"time"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

func TestEscapeFilterValue(t *testing.T) {
	if got := escapeFilterValue("o'brien"); got != "o''brien" {
		t.Fatalf("got %q", got)
	}
	if got := escapeFilterValue("plain"); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

func TestTaskEntityRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	task := domain.Task{
		ID:          "t1",
		Title:       "Ship release",
		Description: "Cut and tag",
		Status:      domain.StatusInProgress,
		Position:    2,
		CreatedBy:   "u1",
		CreatedAt:   now,
		UpdatedAt:   now.Add(time.Hour),
	}
	got := newTaskEntity(task).toDomain()
	if got != task {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, task)
	}
}

func TestUserEntityRoundTrip(t *testing.T) {
	rec := UserRecord{
		User: domain.User{
			ID:        "u1",
			Username:  "alice",
			Email:     "alice@example.com",
			Role:      domain.RoleAdmin,
			CreatedAt: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC),
		},
		PasswordHash: "$2a$10$hash",
	}
	got := newUserEntity(rec).toRecord()
	if got != rec {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, rec)
	}
}
