package tokens

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/facilitydesk/facilitydesk/internal/workers"
)

var alice = &workers.Identity{Username: "alice", Name: "Alice", Role: "technician", InstitutionID: "hospitalA"}

func TestGenerateAccessToken_ValidAndClaims(t *testing.T) {
	secret := "test-secret-32-bytes-should-be-long-enough"
	tokenStr, err := GenerateAccessToken(secret, alice, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}

	tok, err := NewVerifier(secret).Verify(context.Background(), tokenStr)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	var claims map[string]interface{}
	if err := tok.Claims(&claims); err != nil {
		t.Fatalf("claims: %v", err)
	}
	if claims["sub"] != "alice" || claims["institutionId"] != "hospitalA" {
		t.Fatalf("unexpected claims: %v", claims)
	}

	var typed struct {
		Role string `json:"role"`
	}
	if err := tok.Claims(&typed); err != nil || typed.Role != "technician" {
		t.Fatalf("typed claims: %v %+v", err, typed)
	}
}

func TestGenerateAccessToken_RequiresSecret(t *testing.T) {
	if _, err := GenerateAccessToken("", alice, time.Minute); err != ErrNoSecret {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	secret := "another-secret-32-bytes-longgggg"
	tokenStr, err := GenerateAccessToken(secret, alice, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err := NewVerifier(secret).Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestVerify_WrongSecretFails(t *testing.T) {
	tokenStr, err := GenerateAccessToken("secret-one-32-bytes-xxxxxxxxxxxxxxxx", alice, 2*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	if _, err := NewVerifier("different-secret-xxxxxxxxxxxxxxxx").Verify(context.Background(), tokenStr); err == nil {
		t.Fatalf("expected verify to fail with wrong secret")
	}
}

func TestVerify_Malformed(t *testing.T) {
	if _, err := NewVerifier("x").Verify(context.Background(), "not.a.jwt"); err == nil {
		t.Fatalf("expected verify to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestVerify_AlgNoneRejected(t *testing.T) {
	headerEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payloadEnc := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"u-none","institutionId":"hospitalA","exp":9999999999}`))
	if _, err := NewVerifier("x").Verify(context.Background(), headerEnc+"."+payloadEnc+"."); err == nil {
		t.Fatalf("expected verify to reject alg=none token")
	}
}

// Moving a token to another institution must break the signature
func TestVerify_TamperedInstitution(t *testing.T) {
	secret := "tamper-test-secret-32-bytes-xxxxxxx"
	tokenStr, err := GenerateAccessToken(secret, alice, 5*time.Minute)
	if err != nil {
		t.Fatalf("GenerateAccessToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(strings.Replace(string(payloadBytes), "hospitalA", "schoolB", 1)))
	if _, err := NewVerifier(secret).Verify(context.Background(), strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}
