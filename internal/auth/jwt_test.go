package auth

import (
	"testing"
	"time"

	"github.com/erazemk/najdeno/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken(secret, "u-1", "admin@example.com", model.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != "u-1" {
		t.Errorf("expected id 'u-1', got %q", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Errorf("expected email 'admin@example.com', got %q", claims.Email)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role 'admin', got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, _ := GenerateToken("secret1", "u-1", "a@example.com", model.RoleAdmin)

	_, err := ValidateToken("secret2", token)
	if err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	if err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := generateToken("secret", "u-1", "a@example.com", model.RoleUser, time.Now().Add(-TokenExpiry-time.Hour))
	if err != nil {
		t.Fatalf("generateToken: %v", err)
	}

	if _, err := ValidateToken("secret", token); err == nil {
		t.Error("expected error for expired token")
	}
	if Verify("secret", token) != nil {
		t.Error("expected Verify to return nil for expired token")
	}
}

func TestTokenExpiry(t *testing.T) {
	secret := "test"
	token, _ := GenerateToken(secret, "u-1", "test@example.com", model.RoleUser)
	claims, _ := ValidateToken(secret, token)

	expiresAt := claims.ExpiresAt.Time
	expectedExpiry := time.Now().Add(TokenExpiry)

	diff := expectedExpiry.Sub(expiresAt)
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("token expiry too far from expected: diff=%v", diff)
	}
}

func TestVerifyFailsOpen(t *testing.T) {
	for _, token := range []string{"", "garbage", "a.b.c"} {
		if claims := Verify("secret", token); claims != nil {
			t.Errorf("Verify(%q) = %+v, want nil", token, claims)
		}
	}
}

func TestVerifyAdmin(t *testing.T) {
	userToken, _ := GenerateToken("secret", "u-1", "u@example.com", model.RoleUser)
	adminToken, _ := GenerateToken("secret", "u-2", "a@example.com", model.RoleAdmin)

	if VerifyAdmin("secret", userToken) != nil {
		t.Error("expected nil claims for user token")
	}
	if Verify("secret", userToken) == nil {
		t.Error("expected user token to verify")
	}
	claims := VerifyAdmin("secret", adminToken)
	if claims == nil || claims.UserID != "u-2" {
		t.Errorf("expected admin claims for u-2, got %+v", claims)
	}
}

func TestUnverifiedExpiry(t *testing.T) {
	token, _ := GenerateToken("secret", "u-1", "u@example.com", model.RoleUser)

	exp, err := UnverifiedExpiry(token)
	if err != nil {
		t.Fatalf("UnverifiedExpiry: %v", err)
	}
	diff := time.Until(exp) - TokenExpiry
	if diff < -5*time.Second || diff > 5*time.Second {
		t.Errorf("unexpected expiry: %v", exp)
	}

	if _, err := UnverifiedExpiry("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()
	fresh, _ := GenerateToken("secret", "u-1", "u@example.com", model.RoleUser)
	stale, _ := generateToken("secret", "u-1", "u@example.com", model.RoleUser, now.Add(-TokenExpiry-time.Minute))

	if Expired(fresh, now) {
		t.Error("fresh token reported expired")
	}
	if !Expired(stale, now) {
		t.Error("stale token reported valid")
	}
	if !Expired("garbage", now) {
		t.Error("undecodable token should count as expired")
	}
	if !Expired(fresh, now.Add(TokenExpiry+time.Minute)) {
		t.Error("token should expire after its lifetime")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "secret123" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPassword(hash, "secret123") {
		t.Error("expected password to match")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}
