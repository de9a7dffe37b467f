package api

import (
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

const requestBodyMaxSize = 1 << 20

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, svc TaskService, ident IdentityStore, auth Authenticator, logger *log.Logger) {
	gate := &authGate{auth: auth, ident: ident}

	e.GET("/api/tasks", listTasks(svc, gate, logger))
	e.POST("/api/tasks", createTask(svc, gate))
	e.GET("/api/tasks/:id", getTask(svc, gate))
	e.PUT("/api/tasks/:id", updateTask(svc, gate))
	e.DELETE("/api/tasks/:id", deleteTask(svc, gate))

	e.POST("/api/auth/register", register(ident, auth))
	e.POST("/api/auth/login", login(ident, auth))
	e.GET("/api/auth/me", me(gate))
	e.POST("/api/auth/logout", logout())

	e.GET("/healthz", healthz())
}

// authGate resolves the calling user from the Authorization header. Every
// failure along the way collapses to 401 so clients get a uniform signal to
// re-authenticate.
type authGate struct {
	auth  Authenticator
	ident IdentityStore
}

func (g *authGate) User(c echo.Context) (domain.User, error) {
	userID, err := g.auth.UserIDFromAuthHeader(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return domain.User{}, err
	}
	return g.ident.Lookup(c.Request().Context(), userID)
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, response{Success: true, Message: "Kanban Board API is running"})
	}
}

func listTasks(svc TaskService, gate *authGate, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics := newListRequestMetrics(logger)
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		caller, authErr := gate.User(c)
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, failure(authErr.Error()))
			return err
		}

		fetchStart := time.Now()
		taskList, fetchErr := svc.List(ctx, caller)
		metrics.ObserveFetch(time.Since(fetchStart))
		if fetchErr != nil {
			metrics.SetErrorStage("storage")
			c.Logger().Error(fetchErr)
			err = c.JSON(http.StatusInternalServerError, failure("Failed to fetch tasks"))
			return err
		}
		metrics.SetTasksReturned(len(taskList))

		encodeStart := time.Now()
		err = c.JSON(http.StatusOK, response{Success: true, Tasks: taskList})
		metrics.ObserveEncode(time.Since(encodeStart))
		if err != nil {
			metrics.SetErrorStage("encode_response")
		}
		return err
	}
}

type createTaskRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      domain.Status `json:"status"`
}

func createTask(svc TaskService, gate *authGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := gate.User(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, failure(err.Error()))
		}

		var req createTaskRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, failure("invalid body"))
		}

		task, err := svc.Create(c.Request().Context(), caller, req.Title, req.Description, req.Status)
		if err != nil {
			return respondError(c, err, "Failed to create task")
		}
		return c.JSON(http.StatusCreated, response{Success: true, Message: "Task created successfully", Task: task})
	}
}

func getTask(svc TaskService, gate *authGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := gate.User(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, failure(err.Error()))
		}

		task, err := svc.Get(c.Request().Context(), caller, c.Param("id"))
		if err != nil {
			return respondError(c, err, "Failed to retrieve task")
		}
		return c.JSON(http.StatusOK, response{Success: true, Task: task})
	}
}

func updateTask(svc TaskService, gate *authGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := gate.User(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, failure(err.Error()))
		}

		var upd domain.TaskUpdate
		if err := decodeBody(c, &upd); err != nil {
			return c.JSON(http.StatusBadRequest, failure("invalid body"))
		}

		task, err := svc.Update(c.Request().Context(), caller, c.Param("id"), upd)
		if err != nil {
			return respondError(c, err, "Failed to update task")
		}
		return c.JSON(http.StatusOK, response{Success: true, Message: "Task updated successfully", Task: task})
	}
}

func deleteTask(svc TaskService, gate *authGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := gate.User(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, failure(err.Error()))
		}

		if err := svc.Delete(c.Request().Context(), caller, c.Param("id")); err != nil {
			return respondError(c, err, "Failed to delete task")
		}
		return c.JSON(http.StatusOK, response{Success: true, Message: "Task deleted successfully"})
	}
}

type registerRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

func register(ident IdentityStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, failure("invalid body"))
		}

		user, err := ident.Register(c.Request().Context(), req.Username, req.Email, req.Password, req.Role)
		if err != nil {
			return respondError(c, err, "Registration failed. Please try again.")
		}
		token, err := auth.IssueToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, failure("Registration failed. Please try again."))
		}
		return c.JSON(http.StatusCreated, response{
			Success: true,
			Message: "User registered successfully.",
			Token:   token,
			User:    &user,
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func login(ident IdentityStore, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req loginRequest
		if err := decodeBody(c, &req); err != nil {
			return c.JSON(http.StatusBadRequest, failure("invalid body"))
		}

		user, err := ident.Authenticate(c.Request().Context(), req.Username, req.Password)
		if err != nil {
			return respondError(c, err, "Login failed. Please try again.")
		}
		token, err := auth.IssueToken(user.ID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, failure("Login failed. Please try again."))
		}
		return c.JSON(http.StatusOK, response{
			Success: true,
			Message: "Login successful.",
			Token:   token,
			User:    &user,
		})
	}
}

func me(gate *authGate) echo.HandlerFunc {
	return func(c echo.Context) error {
		caller, err := gate.User(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, failure(err.Error()))
		}
		return c.JSON(http.StatusOK, response{Success: true, User: &caller})
	}
}

// logout exists for client symmetry; tokens are stateless so there is
// nothing to revoke server-side.
func logout() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, response{Success: true, Message: "Logout successful. Please remove token from client."})
	}
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, requestBodyMaxSize)
	return sonic.ConfigStd.NewDecoder(lr).Decode(v)
}

// respondError maps a service error to its status code. Internal errors are
// logged and reported with the generic fallback message so no detail leaks.
func respondError(c echo.Context, err error, fallback string) error {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		c.Logger().Error(err)
		return c.JSON(status, failure(fallback))
	}
	return c.JSON(status, failure(err.Error()))
}
