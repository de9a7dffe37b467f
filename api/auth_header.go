package api

import (
	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

var (
	errMissingAuthorization = domain.AuthenticationError{Message: "Access token required. Please login."}
	errBadAuthorization     = domain.AuthenticationError{Message: "Invalid token. Please login again."}
)

const bearerPrefix = "Bearer "

// bearerTokenFromString extracts the JWT from an Authorization header value.
// It insists on the Bearer scheme and the three-segment token shape so
// malformed headers fail before any signature work happens.
func bearerTokenFromString(raw string) (string, error) {
	start := 0
	end := len(raw)
	for start < end && raw[start] == ' ' {
		start++
	}
	for end > start && raw[end-1] == ' ' {
		end--
	}
	if start >= end {
		return "", errMissingAuthorization
	}
	trimmed := raw[start:end]
	if len(trimmed) <= len(bearerPrefix) || trimmed[:len(bearerPrefix)] != bearerPrefix {
		return "", errBadAuthorization
	}
	token := trimmed[len(bearerPrefix):]
	if countByte(token, '.') != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

func countByte(s string, target byte) int {
	count := 0
	for i := 0; i < len(s); i++ {
		if s[i] == target {
			count++
		}
	}
	return count
}
