package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dropnote/dropnote/internal/common"
)

func TestIssueAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	userID := "user-123"

	tok, err := IssueToken(userID, secret, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	got, err := GetUserIDFromToken(tok, secret)
	if err != nil {
		t.Fatalf("GetUserIDFromToken error: %v", err)
	}
	if got != userID {
		t.Fatalf("userID mismatch: got %q want %q", got, userID)
	}
}

func TestParseClaims_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := IssueToken("u1", secret, -1*time.Second)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	_, err = ParseClaims(tok, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseClaims_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := IssueToken("u2", []byte("right-secret"), time.Hour)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	_, err = ParseClaims(tok, []byte("wrong-secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseClaims_MalformedString(t *testing.T) {
	t.Parallel()

	_, err := ParseClaims("not.a.jwt", []byte("k"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtendToken_PreservesIssuedAt(t *testing.T) {
	secret := []byte("secret")

	t0 := time.Now().Add(-50 * time.Minute).Truncate(time.Second)
	tok, err := signToken("u1", secret, t0, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	extended, err := ExtendToken(tok, secret, 100*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("ExtendToken error: %v", err)
	}
	if extended == "" {
		t.Fatalf("expected a new token inside the extend window")
	}

	claims, err := ParseClaims(extended, secret)
	if err != nil {
		t.Fatalf("ParseClaims error: %v", err)
	}
	if !claims.IssuedAt.Time.Equal(t0) {
		t.Fatalf("issuedAt not preserved: got %v want %v", claims.IssuedAt.Time, t0)
	}
	if claims.UserID != "u1" {
		t.Fatalf("userID not preserved: %q", claims.UserID)
	}
}

func TestExtendToken_TooOldReturnsEmpty(t *testing.T) {
	secret := []byte("secret")

	// Session older than the extend limit but the current token itself is
	// still valid: renewal must be declined without error.
	t0 := time.Now().Add(-2 * time.Hour)
	tok, err := signToken("u1", secret, t0, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	extended, err := ExtendToken(tok, secret, 100*time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if extended != "" {
		t.Fatalf("expected empty result past the extend limit, got a token")
	}
}

func TestExtendToken_FutureIssuedAtIsAnomalous(t *testing.T) {
	secret := []byte("secret")

	t0 := time.Now().Add(30 * time.Minute)
	tok, err := signToken("u1", secret, t0, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	_, err = ExtendToken(tok, secret, 100*time.Minute, time.Hour)
	if !errors.Is(err, common.ErrClockAnomaly) {
		t.Fatalf("expected ErrClockAnomaly, got %v", err)
	}
}

func TestExtendToken_ExpiredTokenCannotBeExtended(t *testing.T) {
	secret := []byte("secret")

	t0 := time.Now().Add(-30 * time.Minute)
	tok, err := signToken("u1", secret, t0, time.Now().Add(-1*time.Minute))
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	_, err = ExtendToken(tok, secret, 100*time.Minute, time.Hour)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestExtendToken_BoundedTotalAge(t *testing.T) {
	secret := []byte("secret")
	extendLimit := time.Hour

	// T0+50m: extension succeeds; the re-issued token still carries T0, so a
	// later attempt at T0+70m fails no matter how many renewals happened.
	t0 := time.Now().Add(-50 * time.Minute).Truncate(time.Second)
	tok, err := signToken("u1", secret, t0, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("signToken error: %v", err)
	}

	renewed, err := ExtendToken(tok, secret, 100*time.Minute, extendLimit)
	if err != nil || renewed == "" {
		t.Fatalf("first extend failed: tok=%q err=%v", renewed, err)
	}

	restore := timeNow
	defer func() { timeNow = restore }()
	timeNow = func() time.Time { return t0.Add(70 * time.Minute) }

	again, err := ExtendToken(renewed, secret, 100*time.Minute, extendLimit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != "" {
		t.Fatalf("session exceeded its age ceiling but was extended")
	}
}
