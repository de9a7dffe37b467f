// Package identity implements the credential boundary: registration,
// password verification and user lookup. Password hashes never leave it.
package identity

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
	"github.com/ammar-arsiwala/kanban-task-board/storage"
)

// Store is the persistence surface the identity store depends on.
type Store interface {
	GetUser(ctx context.Context, id string) (*storage.UserRecord, error)
	FindUserByUsername(ctx context.Context, username string) (*storage.UserRecord, error)
	FindUserByUsernameOrEmail(ctx context.Context, username, email string) (*storage.UserRecord, error)
	InsertUser(ctx context.Context, rec storage.UserRecord) error
}

// Identity verifies credentials and registers users.
type Identity struct {
	store Store
	now   func() time.Time
	newID func() string
}

// New creates an Identity over the given store.
func New(store Store) *Identity {
	return &Identity{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
	emailRe    = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)
)

const minPasswordLen = 5

// Register creates a new user. Any role value other than admin is stored as
// the default user role.
func (i *Identity) Register(ctx context.Context, username, email, password string, role domain.Role) (domain.User, error) {
	if username == "" || email == "" || password == "" {
		return domain.User{}, domain.ValidationError{Message: "Username, email, and password are required."}
	}
	if !usernameRe.MatchString(username) {
		return domain.User{}, domain.ValidationError{Message: "Username must be 3-20 characters, letters, numbers, and underscores only"}
	}
	if !emailRe.MatchString(email) {
		return domain.User{}, domain.ValidationError{Message: "Please enter a valid email address"}
	}
	if len(password) < minPasswordLen {
		return domain.User{}, domain.ValidationError{Message: "Password must be at least 5 characters long"}
	}

	existing, err := i.store.FindUserByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ConflictError{Message: "User with this email or username already exists."}
	}

	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	rec := storage.UserRecord{
		User: domain.User{
			ID:        i.newID(),
			Username:  username,
			Email:     email,
			Role:      role,
			CreatedAt: i.now().UTC(),
		},
		PasswordHash: string(hash),
	}
	if err := i.store.InsertUser(ctx, rec); err != nil {
		return domain.User{}, err
	}
	return rec.User, nil
}

// Authenticate checks a username/password pair. Unknown usernames and wrong
// passwords produce the same failure so callers cannot probe for accounts.
func (i *Identity) Authenticate(ctx context.Context, username, password string) (domain.User, error) {
	if username == "" || password == "" {
		return domain.User{}, domain.ValidationError{Message: "Username and password are required."}
	}
	rec, err := i.store.FindUserByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}
	if rec == nil {
		return domain.User{}, domain.AuthenticationError{Message: "Invalid username or password."}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.AuthenticationError{Message: "Invalid username or password."}
	}
	return rec.User, nil
}

// Lookup resolves a user id from a verified token back to its user. A missing
// record means the account was removed after the token was issued.
func (i *Identity) Lookup(ctx context.Context, id string) (domain.User, error) {
	rec, err := i.store.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if rec == nil {
		return domain.User{}, domain.AuthenticationError{Message: "User not found. Please login again."}
	}
	return rec.User, nil
}
