package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestRolePrivileged(t *testing.T) {
	tests := []struct {
		role       Role
		privileged bool
	}{
		{RoleUser, false},
		{RoleAdmin, true},
		{RoleSuperAdmin, true},
		{Role("moderator"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Privileged(); got != tt.privileged {
				t.Errorf("Role(%q).Privileged() = %t, want %t", tt.role, got, tt.privileged)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, role := range []Role{RoleUser, RoleAdmin, RoleSuperAdmin} {
		if !role.Valid() {
			t.Errorf("expected %q to be valid", role)
		}
	}
	if Role("root").Valid() {
		t.Error("unknown role should not be valid")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Fatal("hash must not equal the plaintext")
	}

	if err := VerifyPassword("correct horse battery staple", hash); err != nil {
		t.Errorf("verify with correct password failed: %v", err)
	}
	if err := VerifyPassword("wrong", hash); err == nil {
		t.Error("verify with wrong password should fail")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	InitializeJWT("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	token, err := GenerateToken("user-1", "admin@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "admin@example.com" || claims.Role != RoleAdmin {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	InitializeJWT("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	token, err := GenerateToken("user-1", "admin@example.com", RoleAdmin)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	InitializeJWT("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	if _, err := ValidateToken(token); err == nil {
		t.Error("token signed with a different secret should be rejected")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	InitializeJWT("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")

	claims := JWTClaims{
		UserID: "user-1",
		Email:  "admin@example.com",
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	if _, err := ValidateToken(signed); err == nil {
		t.Error("expired token should be rejected")
	}
}
