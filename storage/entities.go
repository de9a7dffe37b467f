package storage

import (
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

type taskEntity struct {
	aztables.Entity
	Title       string `json:"Title"`
	Description string `json:"Description"`
	Status      string `json:"Status"`
	Position    int    `json:"Position"`
	CreatedBy   string `json:"CreatedBy"`
	CreatedAt   string `json:"CreatedAt"`
	UpdatedAt   string `json:"UpdatedAt"`
}

func newTaskEntity(t domain.Task) taskEntity {
	return taskEntity{
		Entity:      aztables.Entity{PartitionKey: taskPartition, RowKey: t.ID},
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Position:    t.Position,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e taskEntity) toDomain() domain.Task {
	return domain.Task{
		ID:          e.RowKey,
		Title:       e.Title,
		Description: e.Description,
		Status:      domain.Status(e.Status),
		Position:    e.Position,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   parseTime(e.CreatedAt),
		UpdatedAt:   parseTime(e.UpdatedAt),
	}
}

type userEntity struct {
	aztables.Entity
	Username     string `json:"Username"`
	Email        string `json:"Email"`
	PasswordHash string `json:"PasswordHash"`
	Role         string `json:"Role"`
	CreatedAt    string `json:"CreatedAt"`
}

func newUserEntity(rec UserRecord) userEntity {
	return userEntity{
		Entity:       aztables.Entity{PartitionKey: userPartition, RowKey: rec.ID},
		Username:     rec.Username,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		Role:         string(rec.Role),
		CreatedAt:    rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (e userEntity) toRecord() UserRecord {
	return UserRecord{
		User: domain.User{
			ID:        e.RowKey,
			Username:  e.Username,
			Email:     e.Email,
			Role:      domain.Role(e.Role),
			CreatedAt: parseTime(e.CreatedAt),
		},
		PasswordHash: e.PasswordHash,
	}
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
