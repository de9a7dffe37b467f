package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

const (
	taskPartition = "task"
	userPartition = "user"
)

// Storage provides access to the task and user tables.
type Storage struct {
	taskTable *aztables.Client
	userTable *aztables.Client
}

// New creates a Storage instance from the given connection string.
func New(connStr, tasksTable, usersTable string) (*Storage, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, &opts)
	if err != nil {
		return nil, err
	}
	return &Storage{
		taskTable: svc.NewClient(tasksTable),
		userTable: svc.NewClient(usersTable),
	}, nil
}

// ListTasks retrieves every task on the board.
func (s *Storage) ListTasks(ctx context.Context) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + taskPartition + "'"
	return s.queryTasks(ctx, filter)
}

// ListTasksByStatus retrieves the tasks of a single column.
func (s *Storage) ListTasksByStatus(ctx context.Context, status domain.Status) ([]domain.Task, error) {
	filter := "PartitionKey eq '" + taskPartition + "' and Status eq '" + escapeFilterValue(string(status)) + "'"
	return s.queryTasks(ctx, filter)
}

func (s *Storage) queryTasks(ctx context.Context, filter string) ([]domain.Task, error) {
	pager := s.taskTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	tasks := []domain.Task{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent taskEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			tasks = append(tasks, ent.toDomain())
		}
	}
	return tasks, nil
}

// GetTask retrieves a task by id. It returns nil when no such task exists.
func (s *Storage) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	ent, err := s.taskTable.GetEntity(ctx, taskPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var te taskEntity
	if err := json.Unmarshal(ent.Value, &te); err != nil {
		return nil, err
	}
	task := te.toDomain()
	return &task, nil
}

// InsertTask persists a newly created task.
func (s *Storage) InsertTask(ctx context.Context, task domain.Task) error {
	payload, err := json.Marshal(newTaskEntity(task))
	if err != nil {
		return err
	}
	_, err = s.taskTable.AddEntity(ctx, payload, nil)
	return err
}

// UpdateTask writes the full task record back, last writer wins.
func (s *Storage) UpdateTask(ctx context.Context, task domain.Task) error {
	payload, err := json.Marshal(newTaskEntity(task))
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{
		IfMatch:    &et,
		UpdateMode: aztables.UpdateModeMerge,
	})
	if isNotFound(err) {
		return domain.NotFoundError{Message: "Task not found"}
	}
	return err
}

// DeleteTask removes a task record.
func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	_, err := s.taskTable.DeleteEntity(ctx, taskPartition, id, nil)
	if isNotFound(err) {
		return domain.NotFoundError{Message: "Task not found"}
	}
	return err
}

// UserRecord is a stored user together with its credential hash. Only the
// identity package should see the hash; everything else works with the
// embedded domain.User.
type UserRecord struct {
	domain.User
	PasswordHash string
}

// GetUser retrieves a user by id. It returns nil when no such user exists.
func (s *Storage) GetUser(ctx context.Context, id string) (*UserRecord, error) {
	ent, err := s.userTable.GetEntity(ctx, userPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var ue userEntity
	if err := json.Unmarshal(ent.Value, &ue); err != nil {
		return nil, err
	}
	rec := ue.toRecord()
	return &rec, nil
}

// FindUserByUsername retrieves a user by its unique username, nil when absent.
func (s *Storage) FindUserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	filter := "PartitionKey eq '" + userPartition + "' and Username eq '" + escapeFilterValue(username) + "'"
	recs, err := s.queryUsers(ctx, filter)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// FindUserByUsernameOrEmail is the duplicate probe used at registration.
func (s *Storage) FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*UserRecord, error) {
	filter := "PartitionKey eq '" + userPartition + "' and (Username eq '" + escapeFilterValue(username) +
		"' or Email eq '" + escapeFilterValue(email) + "')"
	recs, err := s.queryUsers(ctx, filter)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// GetUsers retrieves the users with the given ids, skipping unknown ids.
func (s *Storage) GetUsers(ctx context.Context, ids []string) (map[string]domain.User, error) {
	users := make(map[string]domain.User, len(ids))
	for _, id := range ids {
		if _, ok := users[id]; ok {
			continue
		}
		rec, err := s.GetUser(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec != nil {
			users[id] = rec.User
		}
	}
	return users, nil
}

// InsertUser persists a new user record.
func (s *Storage) InsertUser(ctx context.Context, rec UserRecord) error {
	payload, err := json.Marshal(newUserEntity(rec))
	if err != nil {
		return err
	}
	_, err = s.userTable.AddEntity(ctx, payload, nil)
	return err
}

func (s *Storage) queryUsers(ctx context.Context, filter string) ([]UserRecord, error) {
	pager := s.userTable.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	recs := []UserRecord{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Entities {
			var ent userEntity
			if err := json.Unmarshal(raw, &ent); err != nil {
				return nil, err
			}
			recs = append(recs, ent.toRecord())
		}
	}
	return recs, nil
}

func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

// escapeFilterValue doubles single quotes per OData literal rules.
func escapeFilterValue(v string) string {
	return strings.ReplaceAll(v, "'", "''")
}
