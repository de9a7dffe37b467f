package domain

import "time"

// Role controls what a user may mutate. Admins bypass ownership checks.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is the identity-store record referenced by tasks via CreatedBy.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// CanMutate reports whether the user may modify or delete the given task.
func (u User) CanMutate(t Task) bool {
	return u.IsAdmin() || t.CreatedBy == u.ID
}
