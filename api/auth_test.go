package api

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/ammar-arsiwala/kanban-task-board/domain"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour)
	token, err := auth.IssueToken("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := auth.UserIDFromAuthHeader("Bearer " + token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != "user-42" {
		t.Fatalf("expected user-42, got %q", got)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour)
	claims := jwt.MapClaims{
		"sub": "user-42",
		"iat": time.Now().Add(-2 * time.Hour).Unix(),
		"exp": time.Now().Add(-time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	_, err = auth.UserIDFromToken(token)
	var aerr domain.AuthenticationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthenticationError, got %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewAuth([]byte("one-secret"), time.Hour)
	verifier := NewAuth([]byte("other-secret"), time.Hour)
	token, err := issuer.IssueToken("user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := verifier.UserIDFromToken(token); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	auth := NewAuth([]byte("test-secret"), time.Hour)
	claims := jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.UserIDFromToken(token); err == nil {
		t.Fatal("expected verification failure")
	}
}

func TestBearerTokenFromString(t *testing.T) {
	cases := []struct {
		name    string
		header  string
		want    string
		wantErr bool
	}{
		{"valid", "Bearer aa.bb.cc", "aa.bb.cc", false},
		{"padded", "  Bearer aa.bb.cc  ", "aa.bb.cc", false},
		{"empty", "", "", true},
		{"spaces only", "   ", "", true},
		{"no scheme", "aa.bb.cc", "", true},
		{"wrong scheme", "Basic aa.bb.cc", "", true},
		{"not a jwt", "Bearer notajwt", "", true},
		{"too many segments", "Bearer a.b.c.d", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := bearerTokenFromString(tc.header)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
