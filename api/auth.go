package api

import (
	"errors"
	"sync"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

const defaultJWKSCacheTTL = 15 * time.Minute

// Auth issues and validates JWT tokens. In the default shared-secret mode it
// both signs (HS256) and verifies; when a JWKS is configured it verifies
// RS256 tokens issued elsewhere and cannot issue its own.
type Auth struct {
	JWKS     *keyfunc.JWKS
	Audience string
	Issuer   string

	secret   []byte
	tokenTTL time.Duration

	parser      *jwt.Parser
	keyCache    sync.Map
	keyCacheTTL time.Duration
}

type cachedKey struct {
	key       any
	expiresAt time.Time
}

// NewAuth creates an Auth signing and verifying with a shared HS256 secret.
func NewAuth(secret []byte, tokenTTL time.Duration) *Auth {
	if len(secret) == 0 {
		panic("api.NewAuth: empty secret")
	}
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &Auth{
		secret:   secret,
		tokenTTL: tokenTTL,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
	}
}

// NewAuthWithJWKS creates a verify-only Auth for RS256 tokens signed by an
// external issuer.
func NewAuthWithJWKS(jwks *keyfunc.JWKS, audience, issuer string) *Auth {
	return &Auth{
		JWKS:        jwks,
		Audience:    audience,
		Issuer:      issuer,
		parser:      jwt.NewParser(jwt.WithValidMethods([]string{"RS256"})),
		keyCacheTTL: defaultJWKSCacheTTL,
	}
}

// IssueToken signs a token embedding the given user id.
func (a *Auth) IssueToken(userID string) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("token issuance requires shared-secret mode")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(a.tokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// UserIDFromAuthHeader extracts the user identifier from the Authorization header.
func (a *Auth) UserIDFromAuthHeader(h string) (string, error) {
	if h == "" {
		return "", errMissingAuthorization
	}
	token, err := bearerTokenFromString(h)
	if err != nil {
		return "", err
	}
	return a.UserIDFromToken(token)
}

// UserIDFromToken verifies a raw token and returns the embedded user id.
func (a *Auth) UserIDFromToken(token string) (string, error) {
	if token == "" {
		return "", errBadAuthorization
	}

	var parsedToken *jwt.Token
	var err error
	if len(a.secret) > 0 {
		parsedToken, err = a.parser.Parse(token, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("invalid signing method")
			}
			return a.secret, nil
		})
	} else {
		parsedToken, err = a.parser.Parse(token, func(t *jwt.Token) (any, error) {
			return a.keyForToken(t)
		})
	}
	if err != nil {
		return "", domain.AuthenticationError{Message: "Invalid token. Please login again."}
	}

	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.AuthenticationError{Message: "Invalid token. Please login again."}
	}

	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now, true) {
		return "", domain.AuthenticationError{Message: "Token expired. Please login again."}
	}
	if !claims.VerifyNotBefore(now, false) {
		return "", domain.AuthenticationError{Message: "Invalid token. Please login again."}
	}
	if a.Audience != "" && !claims.VerifyAudience(a.Audience, false) {
		return "", domain.AuthenticationError{Message: "Invalid token. Please login again."}
	}
	if a.Issuer != "" && !claims.VerifyIssuer(a.Issuer, false) {
		return "", domain.AuthenticationError{Message: "Invalid token. Please login again."}
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", domain.AuthenticationError{Message: "Invalid token. Please login again."}
	}
	return sub, nil
}

func (a *Auth) keyForToken(token *jwt.Token) (any, error) {
	if a.JWKS == nil {
		return nil, errors.New("jwks not configured")
	}

	kid, _ := token.Header["kid"].(string)
	if kid != "" && a.keyCacheTTL > 0 {
		if cached, ok := a.keyCache.Load(kid); ok {
			entry := cached.(cachedKey)
			if time.Now().Before(entry.expiresAt) {
				return entry.key, nil
			}
			a.keyCache.Delete(kid)
		}
	}

	key, err := a.JWKS.Keyfunc(token)
	if err != nil {
		return nil, err
	}

	if kid != "" && a.keyCacheTTL > 0 {
		a.keyCache.Store(kid, cachedKey{key: key, expiresAt: time.Now().Add(a.keyCacheTTL)})
	}
	return key, nil
}
