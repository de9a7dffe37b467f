package board

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

// Client is the typed REST client for the task-board API. Any 401 response
// invalidates the injected session before the error is returned.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
}

// NewClient creates a Client against the given base URL (for example
// "http://localhost:8080/api").
func NewClient(baseURL string, session *Session, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		session: session,
	}
}

type envelope struct {
	Success bool                     `json:"success"`
	Message string                   `json:"message"`
	Token   string                   `json:"token"`
	User    *domain.User             `json:"user"`
	Task    *domain.TaskWithCreator  `json:"task"`
	Tasks   []domain.TaskWithCreator `json:"tasks"`
}

// Register creates an account and authenticates the session with the
// returned token.
func (c *Client) Register(ctx context.Context, username, email, password string, role domain.Role) (domain.User, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	if role != "" {
		body["role"] = string(role)
	}
	env, err := c.do(ctx, http.MethodPost, "/auth/register", body)
	if err != nil {
		return domain.User{}, err
	}
	if env.User == nil || env.Token == "" {
		return domain.User{}, fmt.Errorf("register: malformed response")
	}
	c.session.Authenticate(*env.User, env.Token)
	return *env.User, nil
}

// Login authenticates the session with the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (domain.User, error) {
	env, err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return domain.User{}, err
	}
	if env.User == nil || env.Token == "" {
		return domain.User{}, fmt.Errorf("login: malformed response")
	}
	c.session.Authenticate(*env.User, env.Token)
	return *env.User, nil
}

// Logout clears the session. The server call is best-effort since tokens are
// stateless.
func (c *Client) Logout(ctx context.Context) {
	_, _ = c.do(ctx, http.MethodPost, "/auth/logout", nil)
	c.session.Clear()
}

// Me fetches the profile behind the session's token.
func (c *Client) Me(ctx context.Context) (domain.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return domain.User{}, err
	}
	if env.User == nil {
		return domain.User{}, fmt.Errorf("me: malformed response")
	}
	return *env.User, nil
}

// ListTasks fetches the full board.
func (c *Client) ListTasks(ctx context.Context) ([]domain.TaskWithCreator, error) {
	env, err := c.do(ctx, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}
	return env.Tasks, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id string) (domain.TaskWithCreator, error) {
	env, err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil)
	if err != nil {
		return domain.TaskWithCreator{}, err
	}
	if env.Task == nil {
		return domain.TaskWithCreator{}, fmt.Errorf("get task: malformed response")
	}
	return *env.Task, nil
}

type createTaskPayload struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      domain.Status `json:"status,omitempty"`
}

// CreateTask creates a task; the server assigns position and ownership.
func (c *Client) CreateTask(ctx context.Context, title, description string, status domain.Status) (domain.Task, error) {
	env, err := c.do(ctx, http.MethodPost, "/tasks", createTaskPayload{
		Title:       title,
		Description: description,
		Status:      status,
	})
	if err != nil {
		return domain.Task{}, err
	}
	if env.Task == nil {
		return domain.Task{}, fmt.Errorf("create task: malformed response")
	}
	return env.Task.Task, nil
}

// UpdateTask applies a partial update; absent fields stay untouched.
func (c *Client) UpdateTask(ctx context.Context, id string, upd domain.TaskUpdate) (domain.Task, error) {
	env, err := c.do(ctx, http.MethodPut, "/tasks/"+id, upd)
	if err != nil {
		return domain.Task{}, err
	}
	if env.Task == nil {
		return domain.Task{}, fmt.Errorf("update task: malformed response")
	}
	return env.Task.Task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if len(data) > 0 {
		if err := sonic.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &env, nil
	}
	return nil, c.errorFromStatus(resp.StatusCode, env.Message)
}

// errorFromStatus rebuilds the service error taxonomy from a status code so
// both sides of the RPC boundary handle the same types.
func (c *Client) errorFromStatus(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest:
		return domain.ValidationError{Message: message}
	case http.StatusUnauthorized:
		c.session.Invalidate()
		return domain.AuthenticationError{Message: message}
	case http.StatusForbidden:
		return domain.ForbiddenError{Message: message}
	case http.StatusNotFound:
		return domain.NotFoundError{Message: message}
	case http.StatusConflict:
		return domain.ConflictError{Message: message}
	default:
		return fmt.Errorf("server error (%d): %s", status, message)
	}
}
