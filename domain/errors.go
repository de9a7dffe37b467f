package domain

// The error types below form the service-level taxonomy. The api package maps
// them onto HTTP status codes; the board client reconstructs them from
// response envelopes so callers on either side handle the same types.

// ValidationError reports a missing, oversized or invalid-enum field.
type ValidationError struct {
	Message string
}

func (e ValidationError) Error() string { return e.Message }

// NotFoundError reports an unknown task id.
type NotFoundError struct {
	Message string
}

func (e NotFoundError) Error() string { return e.Message }

// ForbiddenError reports an authenticated caller acting on a task it neither
// owns nor administers.
type ForbiddenError struct {
	Message string
}

func (e ForbiddenError) Error() string { return e.Message }

// ConflictError reports a duplicate username or email at registration.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string { return e.Message }

// AuthenticationError reports a missing, malformed or expired credential.
type AuthenticationError struct {
	Message string
}

func (e AuthenticationError) Error() string { return e.Message }
