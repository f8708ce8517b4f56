package auth

import (
	"errors"
	"testing"
	"time"

	"neuroscan/internal/domain"
)

func TestGenerateAndParseToken(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	pid := int64(8270)
	id := domain.Identity{Username: "8270", Role: domain.RolePatient, PatientID: &pid}

	tok, err := GenerateToken(id, secret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	got, err := ParseToken(tok, secret)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if got.Username != id.Username || got.Role != id.Role {
		t.Fatalf("identity mismatch: got %+v want %+v", got, id)
	}
	if got.PatientID == nil || *got.PatientID != pid {
		t.Fatalf("patient id mismatch: got %v", got.PatientID)
	}
}

func TestParseTokenExpired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken(domain.Identity{Username: "admin", Role: domain.RoleAdmin}, secret, -time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := ParseToken(tok, secret); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(domain.Identity{Username: "admin", Role: domain.RoleAdmin}, []byte("right"), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	if _, err := ParseToken(tok, []byte("wrong")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for bad signature, got %v", err)
	}
}

func TestParseTokenMalformed(t *testing.T) {
	t.Parallel()

	if _, err := ParseToken("not.a.jwt", []byte("k")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for malformed token, got %v", err)
	}
}
