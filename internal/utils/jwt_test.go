package utils

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", 42, RoleStaff, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	identity, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if identity.CustomerID != 42 || identity.Role != RoleStaff {
		t.Errorf("ParseToken() = %+v, want customer 42 staff", identity)
	}
}

func TestGenerateTokenDefaultsRole(t *testing.T) {
	token, _ := GenerateToken("secret", 7, "", time.Hour)
	identity, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if identity.Role != RoleCustomer {
		t.Errorf("role = %q, want %q", identity.Role, RoleCustomer)
	}
}

func TestParseTokenRejects(t *testing.T) {
	good, _ := GenerateToken("secret", 1, "", time.Hour)
	expired, _ := GenerateToken("secret", 1, "", -time.Minute)
	anonymous, _ := GenerateToken("secret", 0, "", time.Hour)

	tests := map[string]string{
		"wrong secret": good,
		"expired":      expired,
		"no customer":  anonymous,
		"garbage":      "not.a.token",
	}
	for name, token := range tests {
		secret := "secret"
		if name == "wrong secret" {
			secret = "other"
		}
		if _, err := ParseToken(secret, token); err == nil {
			t.Errorf("%s: ParseToken() error = nil", name)
		}
	}
}
